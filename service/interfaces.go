package service

import (
	"context"

	"stakeledger/events"
	"stakeledger/models"
)

// PlanRepository defines the interface for staking plan data access
type PlanRepository interface {
	// GetByID retrieves a plan by id, returning (nil, nil) when absent
	GetByID(ctx context.Context, id int64) (*models.Plan, error)

	// Create inserts a new plan and fills its assigned ID
	Create(ctx context.Context, plan *models.Plan) error

	// Update persists all mutable plan fields
	Update(ctx context.Context, plan *models.Plan) error

	// Delete removes a plan row
	Delete(ctx context.Context, id int64) error

	// List returns all plans ordered by id
	List(ctx context.Context) ([]*models.Plan, error)
}

// PositionRepository defines the interface for staking position data access
type PositionRepository interface {
	// GetByID retrieves a position by id, returning (nil, nil) when absent
	GetByID(ctx context.Context, id int64) (*models.Position, error)

	// Create inserts a new position and fills its assigned ID
	Create(ctx context.Context, position *models.Position) error

	// Update persists the position's accrual snapshot fields
	Update(ctx context.Context, position *models.Position) error

	// Delete removes a position row after redemption
	Delete(ctx context.Context, id int64) error

	// GetByOwner returns all open positions for an owner
	GetByOwner(ctx context.Context, owner string) ([]*models.Position, error)

	// CountByPlan returns the number of open positions on a plan
	CountByPlan(ctx context.Context, planID int64) (int64, error)
}

// SettlementLogRepository appends immutable audit records for off-chain
// reconciliation
type SettlementLogRepository interface {
	// Record creates a new settlement log entry
	Record(ctx context.Context, entry *models.SettlementLog) error

	// GetByPlan returns recent log entries for a plan
	GetByPlan(ctx context.Context, planID int64, limit int) ([]*models.SettlementLog, error)
}

// TransferIntentRepository is the outbox for the external transfer ledger
type TransferIntentRepository interface {
	// Enqueue writes a transfer intent in the current transaction
	Enqueue(ctx context.Context, intent *models.TransferIntent) error

	// GetPending returns undispatched intents oldest first
	GetPending(ctx context.Context, limit int) ([]*models.TransferIntent, error)

	// MarkDispatched stamps an intent as handed to the transfer ledger
	MarkDispatched(ctx context.Context, id int64) error
}

// Authorizer is the external authorization collaborator. The ledger never
// decides who is economically entitled to funds; it only asks.
type Authorizer interface {
	// IsAuthorized reports whether caller may act on subject's behalf
	IsAuthorized(caller, subject string) bool

	// IsAdmin reports whether caller holds the operator role
	IsAdmin(caller string) bool
}

// TransferLedger is the external token ledger that executes drained intents.
type TransferLedger interface {
	// Execute performs the transfer described by the intent
	Execute(ctx context.Context, intent *models.TransferIntent) error
}

// PlanService defines the registry operations for staking plans
type PlanService interface {
	// CreatePlan registers a new staking offer and returns it with its id
	CreatePlan(ctx context.Context, caller string, config PlanConfig) (*models.Plan, error)

	// UpdatePlan applies the mutable subset of plan fields
	UpdatePlan(ctx context.Context, caller string, planID int64, update PlanUpdate) (*models.Plan, error)

	// SetStatus gates new deposits; in-flight positions are unaffected
	SetStatus(ctx context.Context, caller string, planID int64, status models.PlanStatus) error

	// RefuelInterest tops up the interest pool, rolling the amount into the
	// per-unit accumulator for reward-per-share plans. The quantity must be
	// denominated in the plan's interest symbol
	RefuelInterest(ctx context.Context, caller string, planID int64, quantity models.Asset) error

	// DeletePlan removes a plan that has not started and owns no positions
	DeletePlan(ctx context.Context, caller string, planID int64) error

	// GetPlan fetches a plan by id
	GetPlan(ctx context.Context, planID int64) (*models.Plan, error)
}

// SettlementService validates, settles and records all position lifecycle
// transitions
type SettlementService interface {
	// OpenPosition stakes principal against a plan, consuming quota
	OpenPosition(ctx context.Context, caller string, planID int64, owner string, principal models.Asset, quotas int64) (*models.Position, error)

	// CollectInterest pays out interest accrued since the last collection
	CollectInterest(ctx context.Context, caller, owner string, positionID int64) (int64, error)

	// Redeem releases principal and deletes the position, applying the
	// early-exit penalty when the term has not ended
	Redeem(ctx context.Context, caller, owner string, positionID int64) (*RedeemResult, error)

	// GetPositions lists an owner's open positions
	GetPositions(ctx context.Context, owner string) ([]*models.Position, error)
}

// EventPublisher defines the interface for publishing events
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork defines the interface for transactional repository operations
type UnitOfWork interface {
	// Begin starts a new transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction
	Commit() error

	// Rollback rolls back the transaction
	Rollback() error

	// Repository getters
	PlanRepository() PlanRepository
	PositionRepository() PositionRepository
	SettlementLogRepository() SettlementLogRepository
	TransferIntentRepository() TransferIntentRepository
	EventBus() EventPublisher
}

// UnitOfWorkFactory defines the interface for creating UnitOfWork instances
type UnitOfWorkFactory interface {
	// Create creates a new UnitOfWork instance
	Create() UnitOfWork
}
