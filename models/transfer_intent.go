package models

import "time"

// TransferDirection says which way value moves relative to the pool.
type TransferDirection string

const (
	// TransferCredit pays out of the pool to an account.
	TransferCredit TransferDirection = "credit"
	// TransferDebit records value received into the pool from an account.
	TransferDebit TransferDirection = "debit"
)

// TransferIntent is an instruction to the external transfer ledger. The core
// never touches balance rows directly; it writes intents in the same
// transaction as the settlement that requires them, and an external
// dispatcher drains the table.
type TransferIntent struct {
	ID        int64             `db:"id"`
	Direction TransferDirection `db:"direction"`
	Account   string            `db:"account"`
	Quantity  Asset             `db:"quantity"`
	Memo      string            `db:"memo"`
	CreatedAt time.Time         `db:"created_at"`
}
