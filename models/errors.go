package models

import "errors"

// Categorical errors surfaced by the ledger. Services wrap these with
// operation context; callers branch with errors.Is. Every mutating operation
// is all-or-nothing: when any of these is returned, no state change is
// visible.
var (
	// ErrParam marks malformed or out-of-range input. Caller bug; never
	// retried automatically.
	ErrParam = errors.New("param error")

	// ErrRecordNotFound marks a referenced plan or position that does not
	// exist.
	ErrRecordNotFound = errors.New("record not found")

	// ErrNoAuth marks a caller that is neither the owner nor the admin, or an
	// operation forbidden by plan policy (early redeem disabled).
	ErrNoAuth = errors.New("not authorized")

	// Timing-window violations.
	ErrPlanNotStarted = errors.New("plan not started")
	ErrPlanEnded      = errors.New("plan already ended")
	ErrPlanStarted    = errors.New("plan already started")

	// Status gates.
	ErrPlanSuspended = errors.New("plan suspended")
	ErrPlanBlocked   = errors.New("plan blocked")

	// Pool-capacity shortfalls. Operationally meaningful: surfaced to
	// operators for quota extension or refueling, never swallowed.
	ErrQuotasInsufficient   = errors.New("quotas insufficient")
	ErrInterestInsufficient = errors.New("available interest insufficient")

	// ErrTimePremature marks a collection attempt inside the rate-limit
	// window.
	ErrTimePremature = errors.New("time premature")

	// ErrNotPositive marks a zero interest payout; transferring zero is
	// rejected rather than performed.
	ErrNotPositive = errors.New("amount not positive")

	// ErrInterestCollected marks a position whose term interest is already
	// fully collected.
	ErrInterestCollected = errors.New("interest already collected")

	// ErrInterestNotCollected marks a redemption attempted while collectable
	// interest is still outstanding.
	ErrInterestNotCollected = errors.New("interest not collected")
)
