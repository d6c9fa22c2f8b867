package testutil

import (
	"time"

	"stakeledger/models"
)

// CreateTestPlan creates a running fixed-term plan with default values
func CreateTestPlan(name string) *models.Plan {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.Plan{
		Name:             name,
		PrincipalSymbol:  models.Symbol{Code: "AMAX", Precision: 8},
		InterestSymbol:   models.Symbol{Code: "AMAX", Precision: 8},
		TermDays:         365,
		AccrualModel:     models.ModelLinearTerm,
		InterestRate:     1200,
		TotalQuota:       1000,
		PenaltyRate:      500,
		AllowEarlyRedeem: true,
		Funder:           "funder.acct",
		EffectiveFrom:    now.Add(-24 * time.Hour),
		EffectiveTo:      now.Add(30 * 24 * time.Hour),
		Status:           models.PlanStatusRunning,
	}
}

// CreateTestRewardPlan creates a running reward-per-share demand plan
func CreateTestRewardPlan(name string) *models.Plan {
	plan := CreateTestPlan(name)
	plan.TermDays = 0
	plan.AccrualModel = models.ModelRewardPerShare
	plan.InterestRate = 0
	plan.InterestSymbol = models.Symbol{Code: "MUSDT", Precision: 6}
	return plan
}

// CreateTestPosition creates a position on the given plan with default values
func CreateTestPosition(planID int64, owner string) *models.Position {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.Position{
		PlanID: planID,
		Owner:  owner,
		Principal: models.Asset{
			Amount: 100_00000000,
			Symbol: models.Symbol{Code: "AMAX", Precision: 8},
		},
		Quotas:            1,
		InterestRate:      1200,
		InterestTermTotal: 12_00000000,
		CreatedAt:         now,
		TermEndedAt:       now.Add(365 * 24 * time.Hour),
		LastCollectedAt:   now,
	}
}
