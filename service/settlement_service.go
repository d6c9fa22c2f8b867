package service

import (
	"context"
	"fmt"
	"time"

	"stakeledger/events"
	"stakeledger/fixedpoint"
	"stakeledger/metrics"
	"stakeledger/models"

	log "github.com/sirupsen/logrus"
)

type settlementService struct {
	uowFactory UnitOfWorkFactory
	auth       Authorizer
	params     Params
	now        func() time.Time
}

// NewSettlementService creates the orchestrator for position lifecycle
// transitions. Every mutating operation runs in a single unit of work and
// reads the clock exactly once.
func NewSettlementService(uowFactory UnitOfWorkFactory, auth Authorizer, params Params) SettlementService {
	return &settlementService{
		uowFactory: uowFactory,
		auth:       auth,
		params:     params,
		now:        time.Now,
	}
}

func (s *settlementService) OpenPosition(ctx context.Context, caller string, planID int64, owner string, principal models.Asset, quotas int64) (*models.Position, error) {
	if !s.auth.IsAuthorized(caller, owner) {
		return nil, fmt.Errorf("open position for %s: %w", owner, models.ErrNoAuth)
	}
	if quotas <= 0 {
		return nil, fmt.Errorf("quotas %d: %w", quotas, models.ErrParam)
	}
	if principal.Amount < s.params.MinimumDeposit {
		return nil, fmt.Errorf("principal below minimum deposit: %w", models.ErrParam)
	}

	now := s.now()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	plan, err := uow.PlanRepository().GetByID(ctx, planID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, fmt.Errorf("open position on plan %d: %w", planID, models.ErrRecordNotFound)
	}

	if plan.Status != models.PlanStatusRunning {
		return nil, fmt.Errorf("plan %d status %s: %w", planID, plan.Status, models.ErrPlanSuspended)
	}
	if now.Before(plan.EffectiveFrom) {
		return nil, fmt.Errorf("plan %d: %w", planID, models.ErrPlanNotStarted)
	}
	if now.After(plan.EffectiveTo) {
		return nil, fmt.Errorf("plan %d: %w", planID, models.ErrPlanEnded)
	}
	if principal.Symbol != plan.PrincipalSymbol {
		return nil, fmt.Errorf("principal symbol %s does not match plan: %w", principal.Symbol, models.ErrParam)
	}
	if quotas > plan.AvailableQuota() {
		return nil, fmt.Errorf("requested %d of %d quotas: %w", quotas, plan.AvailableQuota(), models.ErrQuotasInsufficient)
	}

	position := &models.Position{
		PlanID:          plan.ID,
		Owner:           owner,
		Principal:       principal,
		Quotas:          quotas,
		CreatedAt:       now,
		LastCollectedAt: now,
	}
	if !plan.IsDemand() {
		position.TermEndedAt = now.Add(plan.TermDuration())
	}

	switch plan.AccrualModel {
	case models.ModelLinearTerm:
		rate := plan.RateFor(principal.WholeUnits())
		total, err := fixedpoint.MulDiv(principal.Amount, rate, fixedpoint.Boost, fixedpoint.RoundDown)
		if err != nil {
			return nil, fmt.Errorf("failed to compute term interest: %w", err)
		}
		position.InterestRate = rate
		position.InterestTermTotal = total
	case models.ModelRewardPerShare:
		position.RewardPerUnitSnapshot = plan.RewardPerUnit
	default:
		return nil, fmt.Errorf("plan %d accrual model %q: %w", planID, plan.AccrualModel, models.ErrParam)
	}

	plan.QuotaConsumed += quotas
	plan.PrincipalAvailable += principal.Amount

	if err := uow.PositionRepository().Create(ctx, position); err != nil {
		return nil, fmt.Errorf("failed to create position: %w", err)
	}
	if err := uow.PlanRepository().Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}

	if err := uow.SettlementLogRepository().Record(ctx, &models.SettlementLog{
		Actor:      caller,
		Kind:       models.SettlementKindPositionOpened,
		PlanID:     plan.ID,
		PositionID: position.ID,
		Amount:     principal.Amount,
		Symbol:     principal.Symbol,
	}); err != nil {
		return nil, fmt.Errorf("failed to record settlement log: %w", err)
	}

	uow.EventBus().Publish(events.PositionOpenedEvent{
		PositionID: position.ID,
		PlanID:     plan.ID,
		Owner:      owner,
		Principal:  principal.Amount,
		Quotas:     quotas,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	metrics.PositionsOpened.Inc()
	log.WithFields(log.Fields{
		"position_id": position.ID,
		"plan_id":     plan.ID,
		"owner":       owner,
		"principal":   principal.Amount,
		"quotas":      quotas,
	}).Info("position opened")

	return position, nil
}

func (s *settlementService) CollectInterest(ctx context.Context, caller, owner string, positionID int64) (int64, error) {
	if !s.auth.IsAuthorized(caller, owner) {
		return 0, fmt.Errorf("collect for %s: %w", owner, models.ErrNoAuth)
	}

	now := s.now()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	position, err := uow.PositionRepository().GetByID(ctx, positionID)
	if err != nil {
		return 0, fmt.Errorf("failed to get position: %w", err)
	}
	if position == nil || position.Owner != owner {
		return 0, fmt.Errorf("position %d: %w", positionID, models.ErrRecordNotFound)
	}

	if now.Sub(position.LastCollectedAt) <= s.params.CollectInterval {
		return 0, fmt.Errorf("position %d collected %s ago: %w",
			positionID, now.Sub(position.LastCollectedAt), models.ErrTimePremature)
	}

	plan, err := uow.PlanRepository().GetByID(ctx, position.PlanID)
	if err != nil {
		return 0, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return 0, fmt.Errorf("plan %d: %w", position.PlanID, models.ErrRecordNotFound)
	}

	// Only linear-term accrual is ever terminal. A reward-per-share position
	// keeps earning from refuels after its term ends, so it may collect again.
	if plan.AccrualModel == models.ModelLinearTerm && position.FullyCollected() {
		return 0, fmt.Errorf("position %d: %w", positionID, models.ErrInterestCollected)
	}

	due, err := position.DueInterest(plan, now)
	if err != nil {
		return 0, fmt.Errorf("failed to compute due interest: %w", err)
	}
	if due <= 0 {
		return 0, fmt.Errorf("position %d: %w", positionID, models.ErrNotPositive)
	}
	// An operational shortfall, not a logic bug: the pool needs a refuel.
	if plan.InterestAvailable < due {
		return 0, fmt.Errorf("plan %d has %d, need %d: %w",
			plan.ID, plan.InterestAvailable, due, models.ErrInterestInsufficient)
	}

	position.InterestCollected += due
	position.LastCollectedAt = now
	plan.InterestAvailable -= due
	plan.InterestRedeemed += due

	if err := uow.PositionRepository().Update(ctx, position); err != nil {
		return 0, fmt.Errorf("failed to update position: %w", err)
	}
	if err := uow.PlanRepository().Update(ctx, plan); err != nil {
		return 0, fmt.Errorf("failed to update plan: %w", err)
	}

	if err := uow.TransferIntentRepository().Enqueue(ctx, &models.TransferIntent{
		Direction: models.TransferCredit,
		Account:   owner,
		Quantity:  models.NewAsset(due, plan.InterestSymbol),
		Memo:      fmt.Sprintf("interest: %d", positionID),
	}); err != nil {
		return 0, fmt.Errorf("failed to enqueue transfer intent: %w", err)
	}

	if err := uow.SettlementLogRepository().Record(ctx, &models.SettlementLog{
		Actor:      caller,
		Kind:       models.SettlementKindCollect,
		PlanID:     plan.ID,
		PositionID: position.ID,
		Amount:     due,
		Symbol:     plan.InterestSymbol,
	}); err != nil {
		return 0, fmt.Errorf("failed to record settlement log: %w", err)
	}

	uow.EventBus().Publish(events.InterestCollectedEvent{
		PositionID: position.ID,
		PlanID:     plan.ID,
		Owner:      owner,
		Amount:     due,
	})

	if err := uow.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	metrics.InterestCollections.Inc()
	metrics.InterestPaid.Add(float64(due))
	log.WithFields(log.Fields{
		"position_id": position.ID,
		"plan_id":     plan.ID,
		"owner":       owner,
		"amount":      due,
	}).Info("interest collected")

	return due, nil
}

func (s *settlementService) Redeem(ctx context.Context, caller, owner string, positionID int64) (*RedeemResult, error) {
	if !s.auth.IsAuthorized(caller, owner) {
		return nil, fmt.Errorf("redeem for %s: %w", owner, models.ErrNoAuth)
	}

	now := s.now()

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	position, err := uow.PositionRepository().GetByID(ctx, positionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get position: %w", err)
	}
	if position == nil || position.Owner != owner {
		return nil, fmt.Errorf("position %d: %w", positionID, models.ErrRecordNotFound)
	}

	plan, err := uow.PlanRepository().GetByID(ctx, position.PlanID)
	if err != nil {
		return nil, fmt.Errorf("failed to get plan: %w", err)
	}
	if plan == nil {
		return nil, fmt.Errorf("plan %d: %w", position.PlanID, models.ErrRecordNotFound)
	}
	if plan.Status == models.PlanStatusBlocked {
		return nil, fmt.Errorf("plan %d: %w", plan.ID, models.ErrPlanBlocked)
	}

	result := &RedeemResult{Principal: position.Principal.Amount}

	if !plan.IsDemand() && !position.TermEnded(now) {
		if !plan.AllowEarlyRedeem {
			return nil, fmt.Errorf("early redeem on plan %d: %w", plan.ID, models.ErrNoAuth)
		}
		penalty, err := position.Penalty(plan, now)
		if err != nil {
			return nil, fmt.Errorf("failed to compute penalty: %w", err)
		}
		result.Penalty = penalty
		result.Early = true
	} else if !plan.IsDemand() {
		// Principal release after term end requires all interest to have been
		// collected first; once the row is gone nothing is collectable.
		if !position.FullyCollected() {
			return nil, fmt.Errorf("position %d: %w", positionID, models.ErrInterestNotCollected)
		}
	}

	result.Redeemed = result.Principal - result.Penalty

	plan.PrincipalAvailable -= result.Principal
	plan.PrincipalRedeemed += result.Principal
	plan.PenaltyCollected += result.Penalty

	if err := uow.PositionRepository().Delete(ctx, position.ID); err != nil {
		return nil, fmt.Errorf("failed to delete position: %w", err)
	}
	if err := uow.PlanRepository().Update(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to update plan: %w", err)
	}

	if err := uow.TransferIntentRepository().Enqueue(ctx, &models.TransferIntent{
		Direction: models.TransferCredit,
		Account:   owner,
		Quantity:  models.NewAsset(result.Redeemed, plan.PrincipalSymbol),
		Memo:      fmt.Sprintf("redeem: %d", positionID),
	}); err != nil {
		return nil, fmt.Errorf("failed to enqueue transfer intent: %w", err)
	}

	if result.Penalty > 0 {
		if err := uow.TransferIntentRepository().Enqueue(ctx, &models.TransferIntent{
			Direction: models.TransferCredit,
			Account:   s.params.PenaltySink,
			Quantity:  models.NewAsset(result.Penalty, plan.PrincipalSymbol),
			Memo:      fmt.Sprintf("penalty: %d", positionID),
		}); err != nil {
			return nil, fmt.Errorf("failed to enqueue penalty intent: %w", err)
		}
	}

	if err := uow.SettlementLogRepository().Record(ctx, &models.SettlementLog{
		Actor:      caller,
		Kind:       models.SettlementKindRedeem,
		PlanID:     plan.ID,
		PositionID: position.ID,
		Amount:     result.Redeemed,
		Symbol:     plan.PrincipalSymbol,
	}); err != nil {
		return nil, fmt.Errorf("failed to record settlement log: %w", err)
	}

	uow.EventBus().Publish(events.PositionRedeemedEvent{
		PositionID: position.ID,
		PlanID:     plan.ID,
		Owner:      owner,
		Redeemed:   result.Redeemed,
		Penalty:    result.Penalty,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	metrics.Redemptions.Inc()
	log.WithFields(log.Fields{
		"position_id": position.ID,
		"plan_id":     plan.ID,
		"owner":       owner,
		"redeemed":    result.Redeemed,
		"penalty":     result.Penalty,
	}).Info("position redeemed")

	return result, nil
}

func (s *settlementService) GetPositions(ctx context.Context, owner string) ([]*models.Position, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	positions, err := uow.PositionRepository().GetByOwner(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}
	return positions, nil
}
