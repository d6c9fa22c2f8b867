// Package fixedpoint provides decimal-scaled integer arithmetic with explicit
// rounding and overflow detection. All percentage-like values in the ledger are
// integers boosted by Boost (four implied decimal digits); converting between a
// boosted rate and a token amount always goes through MulDiv so the rounding
// direction is chosen at the call site.
package fixedpoint

import (
	"errors"

	"github.com/holiman/uint256"
)

// Boost is the scale factor for percentage-like values: 12% is stored as 1200.
const Boost = 10_000

// ErrOverflow is returned when an intermediate or final value exceeds the
// representable range. Callers must abort the operation; clamping is never
// acceptable for ledger amounts.
var ErrOverflow = errors.New("fixed-point arithmetic overflow")

// Rounding selects how MulDiv truncates the quotient.
type Rounding int

const (
	// RoundDown truncates toward zero.
	RoundDown Rounding = iota
	// RoundUp rounds any non-zero remainder away from zero.
	RoundUp
	// RoundHalfUp adds denom/2 before the truncating division.
	RoundHalfUp
)

// MulDiv computes a*b/denom over a wide intermediate so the product cannot
// silently wrap. Operands must be non-negative; denom must be positive.
func MulDiv(a, b, denom int64, mode Rounding) (int64, error) {
	if a < 0 || b < 0 || denom <= 0 {
		return 0, ErrOverflow
	}

	product := new(uint256.Int).Mul(uint256.NewInt(uint64(a)), uint256.NewInt(uint64(b)))
	d := uint256.NewInt(uint64(denom))

	if mode == RoundHalfUp {
		product.Add(product, uint256.NewInt(uint64(denom)/2))
	}

	quo, rem := new(uint256.Int).DivMod(product, d, new(uint256.Int))
	if mode == RoundUp && !rem.IsZero() {
		quo.AddUint64(quo, 1)
	}

	if !quo.IsUint64() || quo.Uint64() > uint64(maxInt64) {
		return 0, ErrOverflow
	}
	return int64(quo.Uint64()), nil
}

// Mul computes a*b with overflow checking.
func Mul(a, b int64) (int64, error) {
	return MulDiv(a, b, 1, RoundDown)
}

const maxInt64 = int64(^uint64(0) >> 1)
