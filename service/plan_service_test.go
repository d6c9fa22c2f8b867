package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"stakeledger/events"
	"stakeledger/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var testClock = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func validLinearConfig() PlanConfig {
	return PlanConfig{
		Name:            "spring-vault",
		PrincipalSymbol: models.Symbol{Code: "AMAX", Precision: 8},
		InterestSymbol:  models.Symbol{Code: "AMAX", Precision: 8},
		TermDays:        365,
		AccrualModel:    models.ModelLinearTerm,
		InterestRate:    1200,
		TotalQuota:      1000,
		PenaltyRate:     500,
		Funder:          "funder.acct",
		EffectiveFrom:   testClock.Add(24 * time.Hour),
		EffectiveTo:     testClock.Add(90 * 24 * time.Hour),
	}
}

type planServiceMocks struct {
	factory   *MockUnitOfWorkFactory
	uow       *MockUnitOfWork
	planRepo  *MockPlanRepository
	posRepo   *MockPositionRepository
	logRepo   *MockSettlementLogRepository
	auth      *MockAuthorizer
	published *RecordingEventPublisher
}

func newPlanServiceForTest(t *testing.T) (*planService, *planServiceMocks) {
	t.Helper()

	m := &planServiceMocks{
		factory:   new(MockUnitOfWorkFactory),
		uow:       new(MockUnitOfWork),
		planRepo:  new(MockPlanRepository),
		posRepo:   new(MockPositionRepository),
		logRepo:   new(MockSettlementLogRepository),
		auth:      new(MockAuthorizer),
		published: &RecordingEventPublisher{},
	}
	m.uow.SetRepositories(m.planRepo, m.posRepo, m.logRepo, new(MockTransferIntentRepository), m.published)

	svc := NewPlanService(m.factory, m.auth, DefaultParams()).(*planService)
	svc.now = func() time.Time { return testClock }
	return svc, m
}

func (m *planServiceMocks) expectUnitOfWork(ctx context.Context) {
	m.factory.On("Create").Return(m.uow)
	m.uow.On("Begin", ctx).Return(nil)
	m.uow.On("Commit").Return(nil).Maybe()
	m.uow.On("Rollback").Return(nil)
}

func TestPlanService_CreatePlan(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		svc, m := newPlanServiceForTest(t)
		m.expectUnitOfWork(ctx)
		m.auth.On("IsAdmin", "admin.acct").Return(true)

		m.planRepo.On("Create", ctx, mock.MatchedBy(func(p *models.Plan) bool {
			return p.Name == "spring-vault" &&
				p.AccrualModel == models.ModelLinearTerm &&
				p.Status == models.PlanStatusRunning
		})).Return(nil).Run(func(args mock.Arguments) {
			args.Get(1).(*models.Plan).ID = 7
		})

		m.logRepo.On("Record", ctx, mock.MatchedBy(func(l *models.SettlementLog) bool {
			return l.Kind == models.SettlementKindPlanCreated && l.PlanID == 7 && l.Actor == "admin.acct"
		})).Return(nil)

		plan, err := svc.CreatePlan(ctx, "admin.acct", validLinearConfig())
		require.NoError(t, err)
		require.NotNil(t, plan)
		assert.Equal(t, int64(7), plan.ID)

		require.Len(t, m.published.Events, 1)
		created := m.published.Events[0].(events.PlanCreatedEvent)
		assert.Equal(t, int64(7), created.PlanID)
		assert.Equal(t, int64(1000), created.TotalQuota)

		m.planRepo.AssertExpectations(t)
		m.logRepo.AssertExpectations(t)
		m.uow.AssertExpectations(t)
	})

	t.Run("non-admin rejected", func(t *testing.T) {
		svc, m := newPlanServiceForTest(t)
		m.auth.On("IsAdmin", "alice.acct").Return(false)

		_, err := svc.CreatePlan(ctx, "alice.acct", validLinearConfig())
		assert.ErrorIs(t, err, models.ErrNoAuth)
		m.factory.AssertNotCalled(t, "Create")
	})

	t.Run("validation failures", func(t *testing.T) {
		cases := []struct {
			name   string
			mutate func(*PlanConfig)
		}{
			{"empty name", func(c *PlanConfig) { c.Name = "" }},
			{"name too long", func(c *PlanConfig) {
				for len(c.Name) < 128 {
					c.Name += "x"
				}
			}},
			{"bad symbol", func(c *PlanConfig) { c.PrincipalSymbol.Code = "" }},
			{"zero quota", func(c *PlanConfig) { c.TotalQuota = 0 }},
			{"negative rate", func(c *PlanConfig) { c.InterestRate = -1 }},
			{"linear without term", func(c *PlanConfig) { c.TermDays = 0 }},
			{"linear without rate or ladder", func(c *PlanConfig) {
				c.InterestRate = 0
				c.RateLadder = nil
			}},
			{"ladder tier with zero rate", func(c *PlanConfig) {
				c.InterestRate = 0
				c.RateLadder = []models.RateTier{{MaxUnits: 1000, Rate: 0}}
			}},
			{"ladder bounds not ascending", func(c *PlanConfig) {
				c.InterestRate = 0
				c.RateLadder = []models.RateTier{
					{MaxUnits: 2000, Rate: 800},
					{MaxUnits: 1000, Rate: 1000},
				}
			}},
			{"unbounded ladder tier not last", func(c *PlanConfig) {
				c.InterestRate = 0
				c.RateLadder = []models.RateTier{
					{MaxUnits: 0, Rate: 1200},
					{MaxUnits: 1000, Rate: 800},
				}
			}},
			{"reward plan with fixed rate", func(c *PlanConfig) {
				c.AccrualModel = models.ModelRewardPerShare
				c.TermDays = 0
			}},
			{"unknown model", func(c *PlanConfig) { c.AccrualModel = "compound" }},
			{"inverted window", func(c *PlanConfig) {
				c.EffectiveFrom, c.EffectiveTo = c.EffectiveTo, c.EffectiveFrom
			}},
			{"window too long", func(c *PlanConfig) {
				c.EffectiveTo = c.EffectiveFrom.Add(4 * 365 * 24 * time.Hour)
			}},
			{"window already over", func(c *PlanConfig) {
				c.EffectiveFrom = testClock.Add(-48 * time.Hour)
				c.EffectiveTo = testClock.Add(-24 * time.Hour)
			}},
		}

		for _, tc := range cases {
			t.Run(tc.name, func(t *testing.T) {
				svc, m := newPlanServiceForTest(t)
				m.auth.On("IsAdmin", "admin.acct").Return(true)

				config := validLinearConfig()
				tc.mutate(&config)

				_, err := svc.CreatePlan(ctx, "admin.acct", config)
				assert.ErrorIs(t, err, models.ErrParam)
			})
		}
	})
}

func TestPlanService_UpdatePlan(t *testing.T) {
	ctx := context.Background()

	existing := func() *models.Plan {
		return &models.Plan{
			ID:            7,
			Name:          "spring-vault",
			AccrualModel:  models.ModelLinearTerm,
			TotalQuota:    1000,
			QuotaConsumed: 400,
			EffectiveFrom: testClock.Add(-24 * time.Hour),
			EffectiveTo:   testClock.Add(90 * 24 * time.Hour),
			Status:        models.PlanStatusRunning,
		}
	}

	t.Run("quota may only increase", func(t *testing.T) {
		svc, m := newPlanServiceForTest(t)
		m.expectUnitOfWork(ctx)
		m.auth.On("IsAdmin", "admin.acct").Return(true)
		m.planRepo.On("GetByID", ctx, int64(7)).Return(existing(), nil)

		smaller := int64(500)
		_, err := svc.UpdatePlan(ctx, "admin.acct", 7, PlanUpdate{TotalQuota: &smaller})
		assert.ErrorIs(t, err, models.ErrParam)
		m.planRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("ladder rejected on reward plan", func(t *testing.T) {
		svc, m := newPlanServiceForTest(t)
		m.expectUnitOfWork(ctx)
		m.auth.On("IsAdmin", "admin.acct").Return(true)

		plan := existing()
		plan.AccrualModel = models.ModelRewardPerShare
		m.planRepo.On("GetByID", ctx, int64(7)).Return(plan, nil)

		_, err := svc.UpdatePlan(ctx, "admin.acct", 7, PlanUpdate{
			RateLadder: []models.RateTier{{MaxUnits: 0, Rate: 1000}},
		})
		assert.ErrorIs(t, err, models.ErrParam)
	})

	t.Run("malformed ladder rejected", func(t *testing.T) {
		svc, m := newPlanServiceForTest(t)
		m.expectUnitOfWork(ctx)
		m.auth.On("IsAdmin", "admin.acct").Return(true)
		m.planRepo.On("GetByID", ctx, int64(7)).Return(existing(), nil)

		_, err := svc.UpdatePlan(ctx, "admin.acct", 7, PlanUpdate{
			RateLadder: []models.RateTier{
				{MaxUnits: 2000, Rate: 800},
				{MaxUnits: 1000, Rate: 1000},
			},
		})
		assert.ErrorIs(t, err, models.ErrParam)
		m.planRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("applies changed fields", func(t *testing.T) {
		svc, m := newPlanServiceForTest(t)
		m.expectUnitOfWork(ctx)
		m.auth.On("IsAdmin", "admin.acct").Return(true)
		m.planRepo.On("GetByID", ctx, int64(7)).Return(existing(), nil)
		m.planRepo.On("Update", ctx, mock.MatchedBy(func(p *models.Plan) bool {
			return p.Name == "summer-vault" && p.TotalQuota == 2000 && p.AllowEarlyRedeem
		})).Return(nil)

		name := "summer-vault"
		quota := int64(2000)
		early := true
		plan, err := svc.UpdatePlan(ctx, "admin.acct", 7, PlanUpdate{
			Name:             &name,
			TotalQuota:       &quota,
			AllowEarlyRedeem: &early,
		})
		require.NoError(t, err)
		assert.Equal(t, "summer-vault", plan.Name)
		m.planRepo.AssertExpectations(t)
	})

	t.Run("missing plan", func(t *testing.T) {
		svc, m := newPlanServiceForTest(t)
		m.expectUnitOfWork(ctx)
		m.auth.On("IsAdmin", "admin.acct").Return(true)
		m.planRepo.On("GetByID", ctx, int64(99)).Return(nil, nil)

		_, err := svc.UpdatePlan(ctx, "admin.acct", 99, PlanUpdate{})
		assert.ErrorIs(t, err, models.ErrRecordNotFound)
	})
}

func TestPlanService_SetStatus(t *testing.T) {
	ctx := context.Background()

	t.Run("invalid status", func(t *testing.T) {
		svc, m := newPlanServiceForTest(t)
		m.auth.On("IsAdmin", "admin.acct").Return(true)

		err := svc.SetStatus(ctx, "admin.acct", 7, "paused")
		assert.ErrorIs(t, err, models.ErrParam)
	})

	t.Run("suspend running plan", func(t *testing.T) {
		svc, m := newPlanServiceForTest(t)
		m.expectUnitOfWork(ctx)
		m.auth.On("IsAdmin", "admin.acct").Return(true)
		m.planRepo.On("GetByID", ctx, int64(7)).Return(&models.Plan{
			ID:     7,
			Status: models.PlanStatusRunning,
		}, nil)
		m.planRepo.On("Update", ctx, mock.MatchedBy(func(p *models.Plan) bool {
			return p.Status == models.PlanStatusSuspended
		})).Return(nil)

		err := svc.SetStatus(ctx, "admin.acct", 7, models.PlanStatusSuspended)
		require.NoError(t, err)
		m.planRepo.AssertExpectations(t)
	})
}

func TestPlanService_RefuelInterest(t *testing.T) {
	ctx := context.Background()
	musdt := models.Symbol{Code: "MUSDT", Precision: 6}

	rewardPlan := func() *models.Plan {
		return &models.Plan{
			ID:             7,
			AccrualModel:   models.ModelRewardPerShare,
			InterestSymbol: musdt,
			Funder:         "funder.acct",
			QuotaConsumed:  40,
			RewardPerUnit:  125,
		}
	}

	t.Run("non-positive amount", func(t *testing.T) {
		svc, m := newPlanServiceForTest(t)

		err := svc.RefuelInterest(ctx, "funder.acct", 7, models.NewAsset(0, musdt))
		assert.ErrorIs(t, err, models.ErrParam)
		m.factory.AssertNotCalled(t, "Create")
	})

	t.Run("unauthorized caller", func(t *testing.T) {
		svc, m := newPlanServiceForTest(t)
		m.expectUnitOfWork(ctx)
		m.planRepo.On("GetByID", ctx, int64(7)).Return(rewardPlan(), nil)
		m.auth.On("IsAdmin", "stranger.acct").Return(false)

		err := svc.RefuelInterest(ctx, "stranger.acct", 7, models.NewAsset(1000, musdt))
		assert.ErrorIs(t, err, models.ErrNoAuth)
	})

	t.Run("reward plan accumulator advances", func(t *testing.T) {
		svc, m := newPlanServiceForTest(t)
		m.expectUnitOfWork(ctx)
		m.planRepo.On("GetByID", ctx, int64(7)).Return(rewardPlan(), nil)
		// 100.000000 MUSDT over 40 quotas truncates to 2_500_000 per unit
		m.planRepo.On("Update", ctx, mock.MatchedBy(func(p *models.Plan) bool {
			return p.RewardPerUnit == 125+2_500_000 && p.InterestAvailable == 100_000_000
		})).Return(nil)
		m.logRepo.On("Record", ctx, mock.MatchedBy(func(l *models.SettlementLog) bool {
			return l.Kind == models.SettlementKindRefuel && l.Amount == 100_000_000
		})).Return(nil)

		err := svc.RefuelInterest(ctx, "funder.acct", 7, models.NewAsset(100_000_000, musdt))
		require.NoError(t, err)

		require.Len(t, m.published.Events, 1)
		refueled := m.published.Events[0].(events.InterestRefueledEvent)
		assert.Equal(t, int64(100_000_000), refueled.Amount)
		assert.Equal(t, int64(125+2_500_000), refueled.RewardPerUnit)
		m.planRepo.AssertExpectations(t)
	})

	t.Run("wrong interest symbol rejected", func(t *testing.T) {
		svc, m := newPlanServiceForTest(t)
		m.expectUnitOfWork(ctx)
		m.planRepo.On("GetByID", ctx, int64(7)).Return(rewardPlan(), nil)

		// The plan pays MUSDT; a transfer in the principal token must bounce.
		err := svc.RefuelInterest(ctx, "funder.acct", 7, models.NewAsset(1000, models.Symbol{Code: "AMAX", Precision: 8}))
		assert.ErrorIs(t, err, models.ErrParam)
		m.planRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("reward plan with no stakers", func(t *testing.T) {
		svc, m := newPlanServiceForTest(t)
		m.expectUnitOfWork(ctx)
		plan := rewardPlan()
		plan.QuotaConsumed = 0
		m.planRepo.On("GetByID", ctx, int64(7)).Return(plan, nil)

		err := svc.RefuelInterest(ctx, "funder.acct", 7, models.NewAsset(1000, musdt))
		assert.ErrorIs(t, err, models.ErrParam)
		m.planRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("refuel too small to distribute", func(t *testing.T) {
		svc, m := newPlanServiceForTest(t)
		m.expectUnitOfWork(ctx)
		m.planRepo.On("GetByID", ctx, int64(7)).Return(rewardPlan(), nil)

		// 39 base units over 40 quotas rounds to zero per unit
		err := svc.RefuelInterest(ctx, "funder.acct", 7, models.NewAsset(39, musdt))
		assert.ErrorIs(t, err, models.ErrParam)
	})

	t.Run("linear plan just grows the pool", func(t *testing.T) {
		svc, m := newPlanServiceForTest(t)
		m.expectUnitOfWork(ctx)
		m.planRepo.On("GetByID", ctx, int64(3)).Return(&models.Plan{
			ID:             3,
			AccrualModel:   models.ModelLinearTerm,
			InterestSymbol: models.Symbol{Code: "AMAX", Precision: 8},
			Funder:         "funder.acct",
		}, nil)
		m.planRepo.On("Update", ctx, mock.MatchedBy(func(p *models.Plan) bool {
			return p.InterestAvailable == 5000 && p.RewardPerUnit == 0
		})).Return(nil)
		m.logRepo.On("Record", ctx, mock.Anything).Return(nil)

		err := svc.RefuelInterest(ctx, "funder.acct", 3, models.NewAsset(5000, models.Symbol{Code: "AMAX", Precision: 8}))
		require.NoError(t, err)
		m.planRepo.AssertExpectations(t)
	})
}

func TestPlanService_DeletePlan(t *testing.T) {
	ctx := context.Background()

	t.Run("started plan cannot be deleted", func(t *testing.T) {
		svc, m := newPlanServiceForTest(t)
		m.expectUnitOfWork(ctx)
		m.auth.On("IsAdmin", "admin.acct").Return(true)
		m.planRepo.On("GetByID", ctx, int64(7)).Return(&models.Plan{
			ID:            7,
			EffectiveFrom: testClock.Add(-time.Hour),
		}, nil)

		err := svc.DeletePlan(ctx, "admin.acct", 7)
		assert.ErrorIs(t, err, models.ErrPlanStarted)
	})

	t.Run("open positions block deletion", func(t *testing.T) {
		svc, m := newPlanServiceForTest(t)
		m.expectUnitOfWork(ctx)
		m.auth.On("IsAdmin", "admin.acct").Return(true)
		m.planRepo.On("GetByID", ctx, int64(7)).Return(&models.Plan{
			ID:            7,
			EffectiveFrom: testClock.Add(time.Hour),
		}, nil)
		m.posRepo.On("CountByPlan", ctx, int64(7)).Return(int64(2), nil)

		err := svc.DeletePlan(ctx, "admin.acct", 7)
		assert.ErrorIs(t, err, models.ErrParam)
		m.planRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("success before start", func(t *testing.T) {
		svc, m := newPlanServiceForTest(t)
		m.expectUnitOfWork(ctx)
		m.auth.On("IsAdmin", "admin.acct").Return(true)
		m.planRepo.On("GetByID", ctx, int64(7)).Return(&models.Plan{
			ID:            7,
			EffectiveFrom: testClock.Add(time.Hour),
		}, nil)
		m.posRepo.On("CountByPlan", ctx, int64(7)).Return(int64(0), nil)
		m.planRepo.On("Delete", ctx, int64(7)).Return(nil)

		err := svc.DeletePlan(ctx, "admin.acct", 7)
		require.NoError(t, err)
		m.planRepo.AssertExpectations(t)
	})
}

func TestPlanService_GetPlan(t *testing.T) {
	ctx := context.Background()

	t.Run("propagates repository errors", func(t *testing.T) {
		svc, m := newPlanServiceForTest(t)
		m.expectUnitOfWork(ctx)
		m.planRepo.On("GetByID", ctx, int64(7)).Return(nil, errors.New("connection reset"))

		_, err := svc.GetPlan(ctx, 7)
		assert.Error(t, err)
		assert.NotErrorIs(t, err, models.ErrRecordNotFound)
	})

	t.Run("missing plan", func(t *testing.T) {
		svc, m := newPlanServiceForTest(t)
		m.expectUnitOfWork(ctx)
		m.planRepo.On("GetByID", ctx, int64(7)).Return(nil, nil)

		_, err := svc.GetPlan(ctx, 7)
		assert.ErrorIs(t, err, models.ErrRecordNotFound)
	})
}
