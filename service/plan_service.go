package service

import (
	"context"
	"fmt"
	"time"

	"stakeledger/events"
	"stakeledger/metrics"
	"stakeledger/models"

	log "github.com/sirupsen/logrus"
)

type planService struct {
	uowFactory UnitOfWorkFactory
	auth       Authorizer
	params     Params
	now        func() time.Time
}

// NewPlanService creates a new plan registry service
func NewPlanService(uowFactory UnitOfWorkFactory, auth Authorizer, params Params) PlanService {
	return &planService{
		uowFactory: uowFactory,
		auth:       auth,
		params:     params,
		now:        time.Now,
	}
}

func (s *planService) CreatePlan(ctx context.Context, caller string, config PlanConfig) (*models.Plan, error) {
	if !s.auth.IsAdmin(caller) {
		return nil, fmt.Errorf("create plan: %w", models.ErrNoAuth)
	}
	now := s.now()
	if err := validatePlanConfig(config, now, s.params.MaxPlanWindow); err != nil {
		return nil, fmt.Errorf("create plan: %w", err)
	}

	plan := &models.Plan{
		Name:             config.Name,
		PrincipalSymbol:  config.PrincipalSymbol,
		InterestSymbol:   config.InterestSymbol,
		TermDays:         config.TermDays,
		AccrualModel:     config.AccrualModel,
		InterestRate:     config.InterestRate,
		RateLadder:       config.RateLadder,
		TotalQuota:       config.TotalQuota,
		PenaltyRate:      config.PenaltyRate,
		AllowEarlyRedeem: config.AllowEarlyRedeem,
		Funder:           config.Funder,
		EffectiveFrom:    config.EffectiveFrom,
		EffectiveTo:      config.EffectiveTo,
		Status:           models.PlanStatusRunning,
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	if err := uow.PlanRepository().Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to create plan: %w", err)
	}

	if err := uow.SettlementLogRepository().Record(ctx, &models.SettlementLog{
		Actor:  caller,
		Kind:   models.SettlementKindPlanCreated,
		PlanID: plan.ID,
		Symbol: plan.PrincipalSymbol,
	}); err != nil {
		return nil, fmt.Errorf("failed to record settlement log: %w", err)
	}

	uow.EventBus().Publish(events.PlanCreatedEvent{
		PlanID:       plan.ID,
		AccrualModel: plan.AccrualModel,
		TotalQuota:   plan.TotalQuota,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{
		"plan_id":       plan.ID,
		"accrual_model": plan.AccrualModel,
		"total_quota":   plan.TotalQuota,
	}).Info("plan created")

	return plan, nil
}

func (s *planService) UpdatePlan(ctx context.Context, caller string, planID int64, update PlanUpdate) (*models.Plan, error) {
	if !s.auth.IsAdmin(caller) {
		return nil, fmt.Errorf("update plan: %w", models.ErrNoAuth)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	plan, err := uow.PlanRepository().GetByID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, fmt.Errorf("update plan %d: %w", planID, models.ErrRecordNotFound)
	}

	if update.Name != nil {
		if len(*update.Name) == 0 || len(*update.Name) >= 128 {
			return nil, fmt.Errorf("update plan: plan name length: %w", models.ErrParam)
		}
		plan.Name = *update.Name
	}
	if update.TotalQuota != nil {
		// Quota may only grow, and never below what is already consumed.
		if *update.TotalQuota < plan.TotalQuota || *update.TotalQuota < plan.QuotaConsumed {
			return nil, fmt.Errorf("update plan: total quota may only increase: %w", models.ErrParam)
		}
		plan.TotalQuota = *update.TotalQuota
	}
	if update.EffectiveTo != nil {
		if !update.EffectiveTo.After(plan.EffectiveFrom) {
			return nil, fmt.Errorf("update plan: effective window: %w", models.ErrParam)
		}
		if update.EffectiveTo.Sub(plan.EffectiveFrom) > s.params.MaxPlanWindow {
			return nil, fmt.Errorf("update plan: effective window too long: %w", models.ErrParam)
		}
		plan.EffectiveTo = *update.EffectiveTo
	}
	if update.PenaltyRate != nil {
		if *update.PenaltyRate < 0 {
			return nil, fmt.Errorf("update plan: penalty rate: %w", models.ErrParam)
		}
		plan.PenaltyRate = *update.PenaltyRate
	}
	if update.AllowEarlyRedeem != nil {
		plan.AllowEarlyRedeem = *update.AllowEarlyRedeem
	}
	if update.RateLadder != nil {
		if plan.AccrualModel != models.ModelLinearTerm {
			return nil, fmt.Errorf("update plan: rate ladder on %s plan: %w", plan.AccrualModel, models.ErrParam)
		}
		if err := validateRateLadder(update.RateLadder); err != nil {
			return nil, fmt.Errorf("update plan: %w", err)
		}
		plan.RateLadder = update.RateLadder
	}

	if err := uow.PlanRepository().Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return plan, nil
}

func (s *planService) SetStatus(ctx context.Context, caller string, planID int64, status models.PlanStatus) error {
	if !s.auth.IsAdmin(caller) {
		return fmt.Errorf("set status: %w", models.ErrNoAuth)
	}
	if !status.Valid() {
		return fmt.Errorf("set status %q: %w", status, models.ErrParam)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	plan, err := uow.PlanRepository().GetByID(ctx, planID)
	if err != nil {
		return fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return fmt.Errorf("set status on plan %d: %w", planID, models.ErrRecordNotFound)
	}

	plan.Status = status
	if err := uow.PlanRepository().Update(ctx, plan); err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithFields(log.Fields{"plan_id": planID, "status": status}).Info("plan status changed")
	return nil
}

func (s *planService) RefuelInterest(ctx context.Context, caller string, planID int64, quantity models.Asset) error {
	if quantity.Amount <= 0 {
		return fmt.Errorf("refuel amount %d: %w", quantity.Amount, models.ErrParam)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	plan, err := uow.PlanRepository().GetByID(ctx, planID)
	if err != nil {
		return fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return fmt.Errorf("refuel plan %d: %w", planID, models.ErrRecordNotFound)
	}

	if caller != plan.Funder && !s.auth.IsAdmin(caller) {
		return fmt.Errorf("refuel by %s: %w", caller, models.ErrNoAuth)
	}
	if quantity.Symbol != plan.InterestSymbol {
		return fmt.Errorf("refuel in %s, plan pays %s: %w",
			quantity.Symbol.Code, plan.InterestSymbol.Code, models.ErrParam)
	}

	if plan.AccrualModel == models.ModelRewardPerShare {
		// Refuel before any stake would divide by zero; reject rather than
		// silently strand the funds.
		if plan.QuotaConsumed == 0 {
			return fmt.Errorf("refuel before any stake: %w", models.ErrParam)
		}
		perUnit := quantity.Amount / plan.QuotaConsumed
		if perUnit <= 0 {
			return fmt.Errorf("refuel too small to distribute: %w", models.ErrParam)
		}
		plan.RewardPerUnit += perUnit
	}
	plan.InterestAvailable += quantity.Amount

	if err := uow.PlanRepository().Update(ctx, plan); err != nil {
		return fmt.Errorf("failed to update plan: %w", err)
	}

	if err := uow.SettlementLogRepository().Record(ctx, &models.SettlementLog{
		Actor:  caller,
		Kind:   models.SettlementKindRefuel,
		PlanID: plan.ID,
		Amount: quantity.Amount,
		Symbol: plan.InterestSymbol,
	}); err != nil {
		return fmt.Errorf("failed to record settlement log: %w", err)
	}

	uow.EventBus().Publish(events.InterestRefueledEvent{
		PlanID:        plan.ID,
		Funder:        caller,
		Amount:        quantity.Amount,
		RewardPerUnit: plan.RewardPerUnit,
	})

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	metrics.RefuelsTotal.Inc()
	log.WithFields(log.Fields{"plan_id": planID, "amount": quantity.Amount}).Info("interest refueled")
	return nil
}

func (s *planService) DeletePlan(ctx context.Context, caller string, planID int64) error {
	if !s.auth.IsAdmin(caller) {
		return fmt.Errorf("delete plan: %w", models.ErrNoAuth)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	plan, err := uow.PlanRepository().GetByID(ctx, planID)
	if err != nil {
		return fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return fmt.Errorf("delete plan %d: %w", planID, models.ErrRecordNotFound)
	}

	if !s.now().Before(plan.EffectiveFrom) {
		return fmt.Errorf("delete plan %d: %w", planID, models.ErrPlanStarted)
	}

	open, err := uow.PositionRepository().CountByPlan(ctx, planID)
	if err != nil {
		return fmt.Errorf("failed to count positions: %w", err)
	}
	if open > 0 {
		return fmt.Errorf("delete plan %d with %d open positions: %w", planID, open, models.ErrParam)
	}

	if err := uow.PlanRepository().Delete(ctx, planID); err != nil {
		return fmt.Errorf("failed to delete plan: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	log.WithField("plan_id", planID).Info("plan deleted")
	return nil
}

func (s *planService) GetPlan(ctx context.Context, planID int64) (*models.Plan, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	plan, err := uow.PlanRepository().GetByID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, fmt.Errorf("plan %d: %w", planID, models.ErrRecordNotFound)
	}
	return plan, nil
}

func validatePlanConfig(config PlanConfig, now time.Time, maxWindow time.Duration) error {
	if len(config.Name) == 0 || len(config.Name) >= 128 {
		return fmt.Errorf("plan name length: %w", models.ErrParam)
	}
	if !config.PrincipalSymbol.Valid() || !config.InterestSymbol.Valid() {
		return fmt.Errorf("invalid symbol: %w", models.ErrParam)
	}
	if config.TermDays < 0 {
		return fmt.Errorf("negative term: %w", models.ErrParam)
	}
	if config.TotalQuota <= 0 {
		return fmt.Errorf("total quota must be positive: %w", models.ErrParam)
	}
	if config.InterestRate < 0 || config.PenaltyRate < 0 {
		return fmt.Errorf("negative rate: %w", models.ErrParam)
	}

	switch config.AccrualModel {
	case models.ModelLinearTerm:
		if config.TermDays == 0 {
			return fmt.Errorf("linear-term plan requires a term: %w", models.ErrParam)
		}
		if config.InterestRate == 0 && len(config.RateLadder) == 0 {
			return fmt.Errorf("linear-term plan requires a rate or ladder: %w", models.ErrParam)
		}
		if err := validateRateLadder(config.RateLadder); err != nil {
			return err
		}
	case models.ModelRewardPerShare:
		if config.InterestRate != 0 || len(config.RateLadder) != 0 {
			return fmt.Errorf("reward-per-share plan takes no fixed rate: %w", models.ErrParam)
		}
	default:
		return fmt.Errorf("unknown accrual model %q: %w", config.AccrualModel, models.ErrParam)
	}

	if !config.EffectiveFrom.Before(config.EffectiveTo) {
		return fmt.Errorf("effective window inverted: %w", models.ErrParam)
	}
	if config.EffectiveTo.Sub(config.EffectiveFrom) > maxWindow {
		return fmt.Errorf("effective window too long: %w", models.ErrParam)
	}
	if !config.EffectiveTo.After(now) {
		return fmt.Errorf("effective window already over: %w", models.ErrParam)
	}
	return nil
}

// validateRateLadder requires positive tier rates and strictly ascending
// bounds. A zero MaxUnits tier is unbounded and may only close the ladder.
func validateRateLadder(ladder []models.RateTier) error {
	var prev int64
	for i, tier := range ladder {
		if tier.Rate <= 0 {
			return fmt.Errorf("ladder tier %d rate %d: %w", i, tier.Rate, models.ErrParam)
		}
		if tier.MaxUnits == 0 {
			if i != len(ladder)-1 {
				return fmt.Errorf("unbounded ladder tier %d before the last: %w", i, models.ErrParam)
			}
			continue
		}
		if tier.MaxUnits <= prev {
			return fmt.Errorf("ladder tier %d bound %d not ascending: %w", i, tier.MaxUnits, models.ErrParam)
		}
		prev = tier.MaxUnits
	}
	return nil
}
