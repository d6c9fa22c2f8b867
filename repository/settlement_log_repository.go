package repository

import (
	"context"
	"fmt"

	"stakeledger/database"
	"stakeledger/models"
)

// SettlementLogRepository implements the SettlementLogRepository interface
type SettlementLogRepository struct {
	q queryable
}

// NewSettlementLogRepository creates a new settlement log repository
func NewSettlementLogRepository(db *database.DB) *SettlementLogRepository {
	return &SettlementLogRepository{q: db.Pool}
}

// newSettlementLogRepositoryWithTx creates a new settlement log repository with a transaction
func newSettlementLogRepositoryWithTx(tx queryable) *SettlementLogRepository {
	return &SettlementLogRepository{q: tx}
}

// Record appends a settlement log entry
func (r *SettlementLogRepository) Record(ctx context.Context, log *models.SettlementLog) error {
	query := `
		INSERT INTO settlement_logs (actor, kind, plan_id, position_id, amount, symbol_code, symbol_precision, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		log.Actor, log.Kind, log.PlanID, log.PositionID,
		log.Amount, log.Symbol.Code, log.Symbol.Precision, log.CreatedAt,
	).Scan(&log.ID)

	if err != nil {
		return fmt.Errorf("failed to record settlement log: %w", err)
	}
	return nil
}

// GetByPlan returns the settlement history for a plan, newest first
func (r *SettlementLogRepository) GetByPlan(ctx context.Context, planID int64, limit int) ([]*models.SettlementLog, error) {
	query := `
		SELECT id, actor, kind, plan_id, position_id, amount, symbol_code, symbol_precision, created_at
		FROM settlement_logs
		WHERE plan_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, planID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get settlement logs for plan %d: %w", planID, err)
	}
	defer rows.Close()

	var logs []*models.SettlementLog
	for rows.Next() {
		var log models.SettlementLog
		err := rows.Scan(
			&log.ID, &log.Actor, &log.Kind, &log.PlanID, &log.PositionID,
			&log.Amount, &log.Symbol.Code, &log.Symbol.Precision, &log.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan settlement log: %w", err)
		}
		logs = append(logs, &log)
	}
	return logs, rows.Err()
}
