package service

import (
	"time"

	"stakeledger/models"
)

// Params is the engine configuration, created once at deployment and passed
// explicitly into the service constructors. Plan-level policy lives on the
// Plan row; Params holds only contract-wide settings.
type Params struct {
	// PenaltySink receives early-exit penalties.
	PenaltySink string

	// MinimumDeposit is the smallest accepted principal, in base units.
	MinimumDeposit int64

	// CollectInterval is the minimum gap between interest collections on one
	// position.
	CollectInterval time.Duration

	// MaxPlanWindow caps the length of a plan's effective window.
	MaxPlanWindow time.Duration
}

// DefaultParams returns the production defaults.
func DefaultParams() Params {
	return Params{
		PenaltySink:     "penalty.sink",
		MinimumDeposit:  1,
		CollectInterval: 24 * time.Hour,
		MaxPlanWindow:   3 * 365 * 24 * time.Hour,
	}
}

// PlanConfig carries everything needed to register a staking offer.
type PlanConfig struct {
	Name            string
	PrincipalSymbol models.Symbol
	InterestSymbol  models.Symbol

	TermDays     int32
	AccrualModel models.AccrualModel

	InterestRate int64
	RateLadder   []models.RateTier

	TotalQuota       int64
	PenaltyRate      int64
	AllowEarlyRedeem bool
	Funder           string

	EffectiveFrom time.Time
	EffectiveTo   time.Time
}

// PlanUpdate is the mutable subset of a plan. Nil fields are left unchanged.
type PlanUpdate struct {
	Name             *string
	TotalQuota       *int64
	EffectiveTo      *time.Time
	PenaltyRate      *int64
	AllowEarlyRedeem *bool
	RateLadder       []models.RateTier
}

// RedeemResult reports how a redemption settled.
type RedeemResult struct {
	Principal int64
	Penalty   int64
	Redeemed  int64
	Early     bool
}
