package repository

import (
	"context"
	"fmt"
	"time"

	"stakeledger/database"
	"stakeledger/models"

	"github.com/jackc/pgx/v5"
)

const positionColumns = `
	id, plan_id, owner_account,
	principal_amount, principal_symbol_code, principal_symbol_precision,
	quotas, interest_rate, interest_term_total, reward_per_unit_snapshot,
	interest_collected, created_at, term_ended_at, last_collected_at`

// PositionRepository implements the PositionRepository interface
type PositionRepository struct {
	q queryable
}

// NewPositionRepository creates a new position repository
func NewPositionRepository(db *database.DB) *PositionRepository {
	return &PositionRepository{q: db.Pool}
}

// newPositionRepositoryWithTx creates a new position repository with a transaction
func newPositionRepositoryWithTx(tx queryable) *PositionRepository {
	return &PositionRepository{q: tx}
}

// GetByID retrieves a position by id, returning (nil, nil) when absent
func (r *PositionRepository) GetByID(ctx context.Context, id int64) (*models.Position, error) {
	query := `SELECT` + positionColumns + ` FROM positions WHERE id = $1`

	position, err := scanPosition(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get position %d: %w", id, err)
	}
	return position, nil
}

// Create inserts a new position and fills its assigned ID
func (r *PositionRepository) Create(ctx context.Context, position *models.Position) error {
	query := `
		INSERT INTO positions (
			plan_id, owner_account,
			principal_amount, principal_symbol_code, principal_symbol_precision,
			quotas, interest_rate, interest_term_total, reward_per_unit_snapshot,
			interest_collected, created_at, term_ended_at, last_collected_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id
	`

	var termEndedAt *time.Time
	if !position.TermEndedAt.IsZero() {
		termEndedAt = &position.TermEndedAt
	}

	err := r.q.QueryRow(ctx, query,
		position.PlanID, position.Owner,
		position.Principal.Amount, position.Principal.Symbol.Code, position.Principal.Symbol.Precision,
		position.Quotas, position.InterestRate, position.InterestTermTotal, position.RewardPerUnitSnapshot,
		position.InterestCollected, position.CreatedAt, termEndedAt, position.LastCollectedAt,
	).Scan(&position.ID)

	if err != nil {
		return fmt.Errorf("failed to create position: %w", err)
	}
	return nil
}

// Update persists the position's accrual snapshot fields
func (r *PositionRepository) Update(ctx context.Context, position *models.Position) error {
	query := `
		UPDATE positions SET
			interest_collected = $2,
			last_collected_at = $3
		WHERE id = $1
	`

	tag, err := r.q.Exec(ctx, query, position.ID, position.InterestCollected, position.LastCollectedAt)
	if err != nil {
		return fmt.Errorf("failed to update position %d: %w", position.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to update position %d: no rows affected", position.ID)
	}
	return nil
}

// Delete removes a position row after redemption
func (r *PositionRepository) Delete(ctx context.Context, id int64) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM positions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete position %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to delete position %d: no rows affected", id)
	}
	return nil
}

// GetByOwner returns all open positions for an owner
func (r *PositionRepository) GetByOwner(ctx context.Context, owner string) ([]*models.Position, error) {
	query := `SELECT` + positionColumns + ` FROM positions WHERE owner_account = $1 ORDER BY id`

	rows, err := r.q.Query(ctx, query, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to get positions for %s: %w", owner, err)
	}
	defer rows.Close()

	var positions []*models.Position
	for rows.Next() {
		position, err := scanPosition(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan position: %w", err)
		}
		positions = append(positions, position)
	}
	return positions, rows.Err()
}

// CountByPlan returns the number of open positions on a plan
func (r *PositionRepository) CountByPlan(ctx context.Context, planID int64) (int64, error) {
	var count int64
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM positions WHERE plan_id = $1`, planID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count positions for plan %d: %w", planID, err)
	}
	return count, nil
}

func scanPosition(row pgx.Row) (*models.Position, error) {
	var position models.Position
	var termEndedAt *time.Time

	err := row.Scan(
		&position.ID, &position.PlanID, &position.Owner,
		&position.Principal.Amount, &position.Principal.Symbol.Code, &position.Principal.Symbol.Precision,
		&position.Quotas, &position.InterestRate, &position.InterestTermTotal, &position.RewardPerUnitSnapshot,
		&position.InterestCollected, &position.CreatedAt, &termEndedAt, &position.LastCollectedAt,
	)
	if err != nil {
		return nil, err
	}

	if termEndedAt != nil {
		position.TermEndedAt = *termEndedAt
	}
	return &position, nil
}
