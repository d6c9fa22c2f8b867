package models

import "time"

// SettlementKind classifies an audit record.
type SettlementKind string

const (
	SettlementKindPlanCreated    SettlementKind = "plan_created"
	SettlementKindRefuel         SettlementKind = "interest_refuel"
	SettlementKindPositionOpened SettlementKind = "position_opened"
	SettlementKindCollect        SettlementKind = "interest_collect"
	SettlementKindRedeem         SettlementKind = "redeem"
)

// SettlementLog is the immutable record emitted after every successful
// settlement for off-chain reconciliation. Appended in the same transaction
// as the mutation it records.
type SettlementLog struct {
	ID         int64          `db:"id"`
	Actor      string         `db:"actor"`
	Kind       SettlementKind `db:"kind"`
	PlanID     int64          `db:"plan_id"`
	PositionID int64          `db:"position_id"` // 0 for plan-level records
	Amount     int64          `db:"amount"`
	Symbol     Symbol         `db:"symbol"`
	CreatedAt  time.Time      `db:"created_at"`
}
