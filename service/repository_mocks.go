package service

import (
	"context"

	"stakeledger/events"
	"stakeledger/models"

	"github.com/stretchr/testify/mock"
)

// MockPlanRepository is a mock implementation of PlanRepository
type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) GetByID(ctx context.Context, id int64) (*models.Plan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *MockPlanRepository) Create(ctx context.Context, plan *models.Plan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlanRepository) Update(ctx context.Context, plan *models.Plan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlanRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPlanRepository) List(ctx context.Context) ([]*models.Plan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Plan), args.Error(1)
}

// MockPositionRepository is a mock implementation of PositionRepository
type MockPositionRepository struct {
	mock.Mock
}

func (m *MockPositionRepository) GetByID(ctx context.Context, id int64) (*models.Position, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Position), args.Error(1)
}

func (m *MockPositionRepository) Create(ctx context.Context, position *models.Position) error {
	args := m.Called(ctx, position)
	return args.Error(0)
}

func (m *MockPositionRepository) Update(ctx context.Context, position *models.Position) error {
	args := m.Called(ctx, position)
	return args.Error(0)
}

func (m *MockPositionRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPositionRepository) GetByOwner(ctx context.Context, owner string) ([]*models.Position, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Position), args.Error(1)
}

func (m *MockPositionRepository) CountByPlan(ctx context.Context, planID int64) (int64, error) {
	args := m.Called(ctx, planID)
	return args.Get(0).(int64), args.Error(1)
}

// MockSettlementLogRepository is a mock implementation of SettlementLogRepository
type MockSettlementLogRepository struct {
	mock.Mock
}

func (m *MockSettlementLogRepository) Record(ctx context.Context, entry *models.SettlementLog) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockSettlementLogRepository) GetByPlan(ctx context.Context, planID int64, limit int) ([]*models.SettlementLog, error) {
	args := m.Called(ctx, planID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.SettlementLog), args.Error(1)
}

// MockTransferIntentRepository is a mock implementation of TransferIntentRepository
type MockTransferIntentRepository struct {
	mock.Mock
}

func (m *MockTransferIntentRepository) Enqueue(ctx context.Context, intent *models.TransferIntent) error {
	args := m.Called(ctx, intent)
	return args.Error(0)
}

func (m *MockTransferIntentRepository) GetPending(ctx context.Context, limit int) ([]*models.TransferIntent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TransferIntent), args.Error(1)
}

func (m *MockTransferIntentRepository) MarkDispatched(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockEventPublisher is a mock implementation of EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// RecordingEventPublisher collects published events for assertions
type RecordingEventPublisher struct {
	Events []events.Event
}

func (r *RecordingEventPublisher) Publish(event events.Event) {
	r.Events = append(r.Events, event)
}

// MockAuthorizer is a mock implementation of Authorizer
type MockAuthorizer struct {
	mock.Mock
}

func (m *MockAuthorizer) IsAuthorized(caller, subject string) bool {
	args := m.Called(caller, subject)
	return args.Bool(0)
}

func (m *MockAuthorizer) IsAdmin(caller string) bool {
	args := m.Called(caller)
	return args.Bool(0)
}

// MockTransferLedger is a mock implementation of TransferLedger
type MockTransferLedger struct {
	mock.Mock
}

func (m *MockTransferLedger) Execute(ctx context.Context, intent *models.TransferIntent) error {
	args := m.Called(ctx, intent)
	return args.Error(0)
}

// MockUnitOfWork is a mock implementation of UnitOfWork
type MockUnitOfWork struct {
	mock.Mock
	planRepo       PlanRepository
	positionRepo   PositionRepository
	settlementRepo SettlementLogRepository
	intentRepo     TransferIntentRepository
	eventBus       EventPublisher
}

// SetRepositories wires the repositories returned by the getters
func (m *MockUnitOfWork) SetRepositories(
	planRepo PlanRepository,
	positionRepo PositionRepository,
	settlementRepo SettlementLogRepository,
	intentRepo TransferIntentRepository,
	eventBus EventPublisher,
) {
	m.planRepo = planRepo
	m.positionRepo = positionRepo
	m.settlementRepo = settlementRepo
	m.intentRepo = intentRepo
	m.eventBus = eventBus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) PlanRepository() PlanRepository {
	return m.planRepo
}

func (m *MockUnitOfWork) PositionRepository() PositionRepository {
	return m.positionRepo
}

func (m *MockUnitOfWork) SettlementLogRepository() SettlementLogRepository {
	return m.settlementRepo
}

func (m *MockUnitOfWork) TransferIntentRepository() TransferIntentRepository {
	return m.intentRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}
