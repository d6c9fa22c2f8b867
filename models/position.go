package models

import (
	"fmt"
	"time"

	"stakeledger/fixedpoint"
)

// Position is one depositor's active stake against a plan. A row exists from
// deposit until full redemption; it is deleted on redeem.
type Position struct {
	ID     int64  `db:"id"`
	PlanID int64  `db:"plan_id"`
	Owner  string `db:"owner"`

	Principal Asset `db:"principal"` // immutable after creation
	Quotas    int64 `db:"quotas"`

	// LinearTerm fields. InterestTermTotal is the full-term payout
	// pre-computed at stake time; InterestCollected grows toward it.
	InterestRate      int64 `db:"interest_rate"`
	InterestTermTotal int64 `db:"interest_term_total"`

	// RewardPerShare field: the plan accumulator value at stake time.
	RewardPerUnitSnapshot int64 `db:"reward_per_unit_snapshot"`

	InterestCollected int64 `db:"interest_collected"`

	CreatedAt       time.Time `db:"created_at"`
	TermEndedAt     time.Time `db:"term_ended_at"` // zero for demand plans
	LastCollectedAt time.Time `db:"last_collected_at"`
}

// TermEnded reports whether the position's term has fully elapsed. Demand
// positions have no term and never "end".
func (p *Position) TermEnded(now time.Time) bool {
	return !p.TermEndedAt.IsZero() && !now.Before(p.TermEndedAt)
}

// FullyCollected reports whether every collectable unit of term interest has
// been claimed, which is required before a term position may redeem.
func (p *Position) FullyCollected() bool {
	return !p.TermEndedAt.IsZero() && !p.LastCollectedAt.Before(p.TermEndedAt)
}

// DueInterest computes the interest payable right now under the plan's
// accrual model. The result is gross accrual minus what was already
// collected; it is never negative for a consistently mutated position.
func (p *Position) DueInterest(plan *Plan, now time.Time) (int64, error) {
	switch plan.AccrualModel {
	case ModelLinearTerm:
		return p.linearTermDue(now)
	case ModelRewardPerShare:
		return p.rewardPerShareDue(plan)
	default:
		return 0, fmt.Errorf("%w: unknown accrual model %q", ErrParam, plan.AccrualModel)
	}
}

// linearTermDue releases InterestTermTotal pro-rata over [CreatedAt,
// TermEndedAt], rounding down so accrual never runs ahead of elapsed time.
// At term end the cap guarantees the sum of all collections equals
// InterestTermTotal exactly.
func (p *Position) linearTermDue(now time.Time) (int64, error) {
	collectAt := now
	if collectAt.After(p.TermEndedAt) {
		collectAt = p.TermEndedAt
	}

	elapsed := collectAt.Unix() - p.CreatedAt.Unix()
	term := p.TermEndedAt.Unix() - p.CreatedAt.Unix()
	if elapsed < 0 || term <= 0 {
		return 0, fmt.Errorf("%w: invalid term window", ErrParam)
	}

	due, err := fixedpoint.MulDiv(p.InterestTermTotal, elapsed, term, fixedpoint.RoundDown)
	if err != nil {
		return 0, err
	}
	if due > p.InterestTermTotal {
		due = p.InterestTermTotal
	}
	return due - p.InterestCollected, nil
}

func (p *Position) rewardPerShareDue(plan *Plan) (int64, error) {
	delta := plan.RewardPerUnit - p.RewardPerUnitSnapshot
	if delta < 0 {
		return 0, fmt.Errorf("%w: accumulator behind snapshot", ErrParam)
	}
	gross, err := fixedpoint.Mul(delta, p.Quotas)
	if err != nil {
		return 0, err
	}
	return gross - p.InterestCollected, nil
}

// Penalty computes the principal forfeited for redeeming before term end.
// Both steps round up: the pool keeps at least what the formula implies,
// never less. Zero at or after TermEndedAt.
func (p *Position) Penalty(plan *Plan, now time.Time) (int64, error) {
	if p.TermEndedAt.IsZero() || !now.Before(p.TermEndedAt) {
		return 0, nil
	}

	remaining := p.TermEndedAt.Unix() - now.Unix()
	term := p.TermEndedAt.Unix() - p.CreatedAt.Unix()
	if term <= 0 || remaining > term {
		return 0, fmt.Errorf("%w: invalid term window", ErrParam)
	}

	held, err := fixedpoint.MulDiv(p.Principal.Amount, remaining, term, fixedpoint.RoundUp)
	if err != nil {
		return 0, err
	}
	return fixedpoint.MulDiv(held, plan.PenaltyRate, fixedpoint.Boost, fixedpoint.RoundUp)
}
