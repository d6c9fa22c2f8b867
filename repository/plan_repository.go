package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"stakeledger/database"
	"stakeledger/models"

	"github.com/jackc/pgx/v5"
)

const planColumns = `
	id, name,
	principal_symbol_code, principal_symbol_precision,
	interest_symbol_code, interest_symbol_precision,
	term_days, accrual_model, interest_rate, rate_ladder, reward_per_unit,
	total_quota, quota_consumed,
	principal_available, principal_redeemed,
	interest_available, interest_redeemed, penalty_collected,
	penalty_rate, allow_early_redeem, funder,
	effective_from, effective_to, status,
	created_at, updated_at`

// PlanRepository implements the PlanRepository interface
type PlanRepository struct {
	q queryable
}

// NewPlanRepository creates a new plan repository
func NewPlanRepository(db *database.DB) *PlanRepository {
	return &PlanRepository{q: db.Pool}
}

// newPlanRepositoryWithTx creates a new plan repository with a transaction
func newPlanRepositoryWithTx(tx queryable) *PlanRepository {
	return &PlanRepository{q: tx}
}

// GetByID retrieves a plan by id, returning (nil, nil) when absent
func (r *PlanRepository) GetByID(ctx context.Context, id int64) (*models.Plan, error) {
	query := `SELECT` + planColumns + ` FROM plans WHERE id = $1`

	plan, err := scanPlan(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get plan %d: %w", id, err)
	}
	return plan, nil
}

// Create inserts a new plan and fills its assigned ID
func (r *PlanRepository) Create(ctx context.Context, plan *models.Plan) error {
	ladderJSON, err := json.Marshal(plan.RateLadder)
	if err != nil {
		return fmt.Errorf("failed to marshal rate ladder: %w", err)
	}

	query := `
		INSERT INTO plans (
			name,
			principal_symbol_code, principal_symbol_precision,
			interest_symbol_code, interest_symbol_precision,
			term_days, accrual_model, interest_rate, rate_ladder, reward_per_unit,
			total_quota, quota_consumed,
			principal_available, principal_redeemed,
			interest_available, interest_redeemed, penalty_collected,
			penalty_rate, allow_early_redeem, funder,
			effective_from, effective_to, status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12,
		        $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
		RETURNING id, created_at, updated_at
	`

	err = r.q.QueryRow(ctx, query,
		plan.Name,
		plan.PrincipalSymbol.Code, plan.PrincipalSymbol.Precision,
		plan.InterestSymbol.Code, plan.InterestSymbol.Precision,
		plan.TermDays, plan.AccrualModel, plan.InterestRate, ladderJSON, plan.RewardPerUnit,
		plan.TotalQuota, plan.QuotaConsumed,
		plan.PrincipalAvailable, plan.PrincipalRedeemed,
		plan.InterestAvailable, plan.InterestRedeemed, plan.PenaltyCollected,
		plan.PenaltyRate, plan.AllowEarlyRedeem, plan.Funder,
		plan.EffectiveFrom, plan.EffectiveTo, plan.Status,
	).Scan(&plan.ID, &plan.CreatedAt, &plan.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create plan: %w", err)
	}
	return nil
}

// Update persists all mutable plan fields
func (r *PlanRepository) Update(ctx context.Context, plan *models.Plan) error {
	ladderJSON, err := json.Marshal(plan.RateLadder)
	if err != nil {
		return fmt.Errorf("failed to marshal rate ladder: %w", err)
	}

	query := `
		UPDATE plans SET
			name = $2,
			interest_rate = $3,
			rate_ladder = $4,
			reward_per_unit = $5,
			total_quota = $6,
			quota_consumed = $7,
			principal_available = $8,
			principal_redeemed = $9,
			interest_available = $10,
			interest_redeemed = $11,
			penalty_collected = $12,
			penalty_rate = $13,
			allow_early_redeem = $14,
			effective_to = $15,
			status = $16,
			updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query,
		plan.ID,
		plan.Name,
		plan.InterestRate,
		ladderJSON,
		plan.RewardPerUnit,
		plan.TotalQuota,
		plan.QuotaConsumed,
		plan.PrincipalAvailable,
		plan.PrincipalRedeemed,
		plan.InterestAvailable,
		plan.InterestRedeemed,
		plan.PenaltyCollected,
		plan.PenaltyRate,
		plan.AllowEarlyRedeem,
		plan.EffectiveTo,
		plan.Status,
	)
	if err != nil {
		return fmt.Errorf("failed to update plan %d: %w", plan.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update plan %d: no rows affected", plan.ID)
	}
	return nil
}

// Delete removes a plan row
func (r *PlanRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete plan %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete plan %d: no rows affected", id)
	}
	return nil
}

// List returns all plans ordered by id
func (r *PlanRepository) List(ctx context.Context) ([]*models.Plan, error) {
	query := `SELECT` + planColumns + ` FROM plans ORDER BY id`

	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list plans: %w", err)
	}
	defer rows.Close()

	var plans []*models.Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan plan: %w", err)
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

func scanPlan(row pgx.Row) (*models.Plan, error) {
	var plan models.Plan
	var ladderJSON []byte

	err := row.Scan(
		&plan.ID, &plan.Name,
		&plan.PrincipalSymbol.Code, &plan.PrincipalSymbol.Precision,
		&plan.InterestSymbol.Code, &plan.InterestSymbol.Precision,
		&plan.TermDays, &plan.AccrualModel, &plan.InterestRate, &ladderJSON, &plan.RewardPerUnit,
		&plan.TotalQuota, &plan.QuotaConsumed,
		&plan.PrincipalAvailable, &plan.PrincipalRedeemed,
		&plan.InterestAvailable, &plan.InterestRedeemed, &plan.PenaltyCollected,
		&plan.PenaltyRate, &plan.AllowEarlyRedeem, &plan.Funder,
		&plan.EffectiveFrom, &plan.EffectiveTo, &plan.Status,
		&plan.CreatedAt, &plan.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(ladderJSON) > 0 {
		if err := json.Unmarshal(ladderJSON, &plan.RateLadder); err != nil {
			return nil, fmt.Errorf("failed to unmarshal rate ladder: %w", err)
		}
	}
	return &plan, nil
}
