package models

import (
	"time"
)

// AccrualModel selects how positions on a plan earn interest.
type AccrualModel string

const (
	// ModelLinearTerm pre-commits a full-term payout at stake time and
	// releases it pro-rata over the term.
	ModelLinearTerm AccrualModel = "linear_term"

	// ModelRewardPerShare distributes pooled refuels across quotas via a
	// running per-unit accumulator: O(1) refuel, O(1) claim.
	ModelRewardPerShare AccrualModel = "reward_per_share"
)

// PlanStatus gates new deposits. Redemptions and collections on existing
// positions are not blocked by Suspended.
type PlanStatus string

const (
	PlanStatusRunning   PlanStatus = "running"
	PlanStatusSuspended PlanStatus = "suspended"
	PlanStatusBlocked   PlanStatus = "blocked"
)

// Valid reports whether s is one of the known statuses.
func (s PlanStatus) Valid() bool {
	switch s {
	case PlanStatusRunning, PlanStatusSuspended, PlanStatusBlocked:
		return true
	}
	return false
}

// RateTier maps a deposit size (in whole principal tokens) to a boosted
// interest rate. Tiers are ordered by MaxUnits ascending; a zero MaxUnits on
// the last tier means "no upper bound".
type RateTier struct {
	MaxUnits int64 `json:"max_units"`
	Rate     int64 `json:"rate"`
}

// Plan is one staking offer: asset pair, term, accrual model, quota cap and
// activity window. One row per offer.
type Plan struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`

	PrincipalSymbol Symbol `db:"principal_symbol"`
	InterestSymbol  Symbol `db:"interest_symbol"`

	TermDays     int32        `db:"term_days"` // 0 = demand plan
	AccrualModel AccrualModel `db:"accrual_model"`

	// InterestRate is the boosted full-term rate for LinearTerm plans.
	// Ignored when RateLadder is set.
	InterestRate int64      `db:"interest_rate"`
	RateLadder   []RateTier `db:"rate_ladder"`

	// RewardPerUnit is the RewardPerShare accumulator: interest base units
	// credited per quota since plan creation. Monotonically increasing.
	RewardPerUnit int64 `db:"reward_per_unit"`

	TotalQuota    int64 `db:"total_quota"`
	QuotaConsumed int64 `db:"quota_consumed"`

	PrincipalAvailable int64 `db:"principal_available"`
	PrincipalRedeemed  int64 `db:"principal_redeemed"`
	InterestAvailable  int64 `db:"interest_available"`
	InterestRedeemed   int64 `db:"interest_redeemed"`
	PenaltyCollected   int64 `db:"penalty_collected"`

	PenaltyRate      int64  `db:"penalty_rate"` // boosted, applied to the unearned term fraction
	AllowEarlyRedeem bool   `db:"allow_early_redeem"`
	Funder           string `db:"funder"`

	EffectiveFrom time.Time  `db:"effective_from"`
	EffectiveTo   time.Time  `db:"effective_to"`
	Status        PlanStatus `db:"status"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// TermDuration returns the plan term as a duration.
func (p *Plan) TermDuration() time.Duration {
	return time.Duration(p.TermDays) * 24 * time.Hour
}

// IsDemand reports whether the plan has no term.
func (p *Plan) IsDemand() bool {
	return p.TermDays == 0
}

// AvailableQuota returns the staking capacity left to sell.
func (p *Plan) AvailableQuota() int64 {
	return p.TotalQuota - p.QuotaConsumed
}

// Effective reports whether now falls inside the deposit window.
func (p *Plan) Effective(now time.Time) bool {
	return !now.Before(p.EffectiveFrom) && !now.After(p.EffectiveTo)
}

// RateFor resolves the boosted interest rate for a deposit of the given size
// in whole principal tokens. With no ladder configured the flat plan rate
// applies.
func (p *Plan) RateFor(wholeUnits int64) int64 {
	if len(p.RateLadder) == 0 {
		return p.InterestRate
	}
	for _, tier := range p.RateLadder {
		if tier.MaxUnits == 0 || wholeUnits <= tier.MaxUnits {
			return tier.Rate
		}
	}
	return p.RateLadder[len(p.RateLadder)-1].Rate
}
