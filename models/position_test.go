package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var amax = Symbol{Code: "AMAX", Precision: 8}
var musdt = Symbol{Code: "MUSDT", Precision: 6}

func termPlan(rate int64) *Plan {
	return &Plan{
		ID:              1,
		PrincipalSymbol: amax,
		InterestSymbol:  amax,
		TermDays:        365,
		AccrualModel:    ModelLinearTerm,
		InterestRate:    rate,
		PenaltyRate:     5000,
	}
}

func termPosition(t *testing.T, plan *Plan, principal int64, createdAt time.Time) *Position {
	t.Helper()
	return &Position{
		ID:                10,
		PlanID:            plan.ID,
		Owner:             "alice",
		Principal:         NewAsset(principal, amax),
		Quotas:            1,
		InterestRate:      plan.InterestRate,
		InterestTermTotal: principal * plan.InterestRate / 10_000,
		CreatedAt:         createdAt,
		TermEndedAt:       createdAt.Add(plan.TermDuration()),
		LastCollectedAt:   createdAt,
	}
}

func TestPosition_LinearTermDue(t *testing.T) {
	createdAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	plan := termPlan(1200) // 12%
	pos := termPosition(t, plan, 100_000_000_000, createdAt)
	require.Equal(t, int64(12_000_000_000), pos.InterestTermTotal)

	t.Run("nothing due at stake time", func(t *testing.T) {
		due, err := pos.DueInterest(plan, createdAt)
		require.NoError(t, err)
		assert.Zero(t, due)
	})

	t.Run("half term accrues pro-rata rounded down", func(t *testing.T) {
		due, err := pos.DueInterest(plan, createdAt.AddDate(0, 0, 182))
		require.NoError(t, err)
		// 12_000_000_000 * 182/365, truncated
		assert.Equal(t, int64(5_983_561_643), due)
	})

	t.Run("full term pays the exact pre-committed total", func(t *testing.T) {
		due, err := pos.DueInterest(plan, pos.TermEndedAt)
		require.NoError(t, err)
		assert.Equal(t, pos.InterestTermTotal, due)
	})

	t.Run("accrual caps at term end", func(t *testing.T) {
		due, err := pos.DueInterest(plan, pos.TermEndedAt.AddDate(1, 0, 0))
		require.NoError(t, err)
		assert.Equal(t, pos.InterestTermTotal, due)
	})

	t.Run("due nets out prior collections", func(t *testing.T) {
		collected := *pos
		collected.InterestCollected = 5_000_000_000
		due, err := collected.DueInterest(plan, collected.TermEndedAt)
		require.NoError(t, err)
		assert.Equal(t, int64(7_000_000_000), due)
	})
}

// Collecting periodically until term end must pay out InterestTermTotal
// exactly, with no drift from per-collection rounding.
func TestPosition_LinearTermRoundTrip(t *testing.T) {
	createdAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	plan := termPlan(1200)
	pos := termPosition(t, plan, 99_999_999_937, createdAt) // awkward principal on purpose

	var total int64
	for day := 30; ; day += 30 {
		now := createdAt.AddDate(0, 0, day)
		if now.After(pos.TermEndedAt) {
			now = pos.TermEndedAt
		}
		due, err := pos.DueInterest(plan, now)
		require.NoError(t, err)
		if due > 0 {
			pos.InterestCollected += due
			pos.LastCollectedAt = now
			total += due
		}
		if !now.Before(pos.TermEndedAt) {
			break
		}
	}

	assert.Equal(t, pos.InterestTermTotal, total)
	assert.Equal(t, pos.InterestTermTotal, pos.InterestCollected)
}

func TestPosition_RewardPerShareDue(t *testing.T) {
	plan := &Plan{
		ID:              2,
		PrincipalSymbol: amax,
		InterestSymbol:  musdt,
		AccrualModel:    ModelRewardPerShare,
		QuotaConsumed:   2,
	}

	open := func(quotas, snapshot int64) *Position {
		return &Position{
			PlanID:                plan.ID,
			Principal:             NewAsset(quotas, amax),
			Quotas:                quotas,
			RewardPerUnitSnapshot: snapshot,
		}
	}

	t.Run("refuel splits exactly across equal quotas", func(t *testing.T) {
		a := open(1, 0)
		b := open(1, 0)

		// Refuel of 100.000000 MUSDT over 2 consumed quotas.
		plan.RewardPerUnit += 100_000_000 / plan.QuotaConsumed

		dueA, err := a.DueInterest(plan, time.Now())
		require.NoError(t, err)
		dueB, err := b.DueInterest(plan, time.Now())
		require.NoError(t, err)

		assert.Equal(t, int64(50_000_000), dueA)
		assert.Equal(t, int64(50_000_000), dueB)
	})

	t.Run("late staker earns only post-snapshot refuels", func(t *testing.T) {
		late := open(3, plan.RewardPerUnit)
		due, err := late.DueInterest(plan, time.Now())
		require.NoError(t, err)
		assert.Zero(t, due)

		plan.RewardPerUnit += 7
		due, err = late.DueInterest(plan, time.Now())
		require.NoError(t, err)
		assert.Equal(t, int64(21), due)
	})

	t.Run("collections net out", func(t *testing.T) {
		pos := open(2, 0)
		pos.InterestCollected = plan.RewardPerUnit * 2
		due, err := pos.DueInterest(plan, time.Now())
		require.NoError(t, err)
		assert.Zero(t, due)
	})
}

func TestPosition_Penalty(t *testing.T) {
	createdAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	plan := termPlan(1200) // penalty 50%
	pos := termPosition(t, plan, 100_000_000_000, createdAt)

	t.Run("immediate exit forfeits the full penalty rate", func(t *testing.T) {
		penalty, err := pos.Penalty(plan, createdAt)
		require.NoError(t, err)
		assert.Equal(t, int64(50_000_000_000), penalty)
	})

	t.Run("penalty is zero at term end", func(t *testing.T) {
		penalty, err := pos.Penalty(plan, pos.TermEndedAt)
		require.NoError(t, err)
		assert.Zero(t, penalty)
	})

	t.Run("penalty never increases as term end approaches", func(t *testing.T) {
		prev := int64(1 << 62)
		for day := 0; day <= 365; day += 5 {
			penalty, err := pos.Penalty(plan, createdAt.AddDate(0, 0, day))
			require.NoError(t, err)
			assert.LessOrEqual(t, penalty, prev, "day %d", day)
			prev = penalty
		}
	})

	t.Run("rounding favors the pool", func(t *testing.T) {
		odd := termPosition(t, plan, 1_000_000_001, createdAt)
		penalty, err := odd.Penalty(plan, createdAt.AddDate(0, 0, 100))
		require.NoError(t, err)

		// held = ceil(1_000_000_001 * 265/365), penalty = ceil(held/2)
		held := int64((1_000_000_001*265 + 364) / 365)
		assert.Equal(t, (held+1)/2, penalty)
	})

	t.Run("demand positions never pay penalty", func(t *testing.T) {
		demand := &Position{Principal: NewAsset(1_000, amax)}
		penalty, err := demand.Penalty(plan, createdAt)
		require.NoError(t, err)
		assert.Zero(t, penalty)
	})
}

func TestPosition_TermState(t *testing.T) {
	createdAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	pos := termPosition(t, termPlan(1200), 1_000, createdAt)

	assert.False(t, pos.TermEnded(createdAt.AddDate(0, 0, 364)))
	assert.True(t, pos.TermEnded(pos.TermEndedAt))
	assert.False(t, pos.FullyCollected())

	pos.LastCollectedAt = pos.TermEndedAt
	assert.True(t, pos.FullyCollected())

	demand := &Position{}
	assert.False(t, demand.TermEnded(createdAt))
	assert.False(t, demand.FullyCollected())
}
