package repository

import (
	"context"
	"fmt"

	"stakeledger/database"
	"stakeledger/models"
)

// TransferIntentRepository implements the TransferIntentRepository interface
type TransferIntentRepository struct {
	q queryable
}

// NewTransferIntentRepository creates a new transfer intent repository
func NewTransferIntentRepository(db *database.DB) *TransferIntentRepository {
	return &TransferIntentRepository{q: db.Pool}
}

// newTransferIntentRepositoryWithTx creates a new transfer intent repository with a transaction
func newTransferIntentRepositoryWithTx(tx queryable) *TransferIntentRepository {
	return &TransferIntentRepository{q: tx}
}

// Enqueue records a transfer for later dispatch
func (r *TransferIntentRepository) Enqueue(ctx context.Context, intent *models.TransferIntent) error {
	query := `
		INSERT INTO transfer_intents (direction, account, amount, symbol_code, symbol_precision, memo, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`

	err := r.q.QueryRow(ctx, query,
		intent.Direction, intent.Account,
		intent.Quantity.Amount, intent.Quantity.Symbol.Code, intent.Quantity.Symbol.Precision,
		intent.Memo, intent.CreatedAt,
	).Scan(&intent.ID)

	if err != nil {
		return fmt.Errorf("failed to enqueue transfer intent: %w", err)
	}
	return nil
}

// GetPending returns undispatched intents in enqueue order
func (r *TransferIntentRepository) GetPending(ctx context.Context, limit int) ([]*models.TransferIntent, error) {
	query := `
		SELECT id, direction, account, amount, symbol_code, symbol_precision, memo, created_at
		FROM transfer_intents
		WHERE dispatched_at IS NULL
		ORDER BY id
		LIMIT $1
	`

	rows, err := r.q.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get pending transfer intents: %w", err)
	}
	defer rows.Close()

	var intents []*models.TransferIntent
	for rows.Next() {
		var intent models.TransferIntent
		err := rows.Scan(
			&intent.ID, &intent.Direction, &intent.Account,
			&intent.Quantity.Amount, &intent.Quantity.Symbol.Code, &intent.Quantity.Symbol.Precision,
			&intent.Memo, &intent.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transfer intent: %w", err)
		}
		intents = append(intents, &intent)
	}
	return intents, rows.Err()
}

// MarkDispatched stamps an intent as handed off to the external ledger
func (r *TransferIntentRepository) MarkDispatched(ctx context.Context, id int64) error {
	query := `UPDATE transfer_intents SET dispatched_at = NOW() WHERE id = $1 AND dispatched_at IS NULL`

	tag, err := r.q.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to mark transfer intent %d dispatched: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("failed to mark transfer intent %d dispatched: no rows affected", id)
	}
	return nil
}
