package models

import (
	"fmt"
	"strings"
)

// Symbol identifies a token together with its fixed decimal precision,
// e.g. {Code: "AMAX", Precision: 8}.
type Symbol struct {
	Code      string
	Precision uint8
}

// Valid reports whether the symbol has a non-empty uppercase code and a
// precision within the supported range.
func (s Symbol) Valid() bool {
	if s.Code == "" || len(s.Code) > 12 || s.Precision > 18 {
		return false
	}
	return s.Code == strings.ToUpper(s.Code)
}

// Unit returns the number of base units per whole token (10^Precision).
func (s Symbol) Unit() int64 {
	unit := int64(1)
	for i := uint8(0); i < s.Precision; i++ {
		unit *= 10
	}
	return unit
}

func (s Symbol) String() string {
	return fmt.Sprintf("%d,%s", s.Precision, s.Code)
}

// Asset is an integer token amount in base units plus its symbol.
type Asset struct {
	Amount int64
	Symbol Symbol
}

// NewAsset creates an asset of the given base-unit amount.
func NewAsset(amount int64, symbol Symbol) Asset {
	return Asset{Amount: amount, Symbol: symbol}
}

// Add returns a+other. Mixing symbols is a programming error, not a
// recoverable condition, so it panics.
func (a Asset) Add(other Asset) Asset {
	a.mustMatch(other)
	return Asset{Amount: a.Amount + other.Amount, Symbol: a.Symbol}
}

// Sub returns a-other, panicking on symbol mismatch.
func (a Asset) Sub(other Asset) Asset {
	a.mustMatch(other)
	return Asset{Amount: a.Amount - other.Amount, Symbol: a.Symbol}
}

// WholeUnits returns the amount in whole tokens, truncated.
func (a Asset) WholeUnits() int64 {
	return a.Amount / a.Symbol.Unit()
}

func (a Asset) String() string {
	unit := a.Symbol.Unit()
	return fmt.Sprintf("%d.%0*d %s", a.Amount/unit, a.Symbol.Precision, a.Amount%unit, a.Symbol.Code)
}

func (a Asset) mustMatch(other Asset) {
	if a.Symbol != other.Symbol {
		panic(fmt.Sprintf("asset symbol mismatch: %s vs %s", a.Symbol, other.Symbol))
	}
}
