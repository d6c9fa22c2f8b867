package service

import (
	"context"
	"fmt"
	"time"

	"stakeledger/metrics"

	log "github.com/sirupsen/logrus"
)

// IntentDispatcher drains the transfer-intent outbox to the external transfer
// ledger. Settlement writes intents transactionally; this loop hands them over
// afterwards so a payout is never lost to a crash between commit and transfer.
type IntentDispatcher struct {
	intents  TransferIntentRepository
	ledger   TransferLedger
	interval time.Duration
	batch    int
}

// NewIntentDispatcher creates a dispatcher polling at the given interval.
func NewIntentDispatcher(intents TransferIntentRepository, ledger TransferLedger, interval time.Duration) *IntentDispatcher {
	return &IntentDispatcher{
		intents:  intents,
		ledger:   ledger,
		interval: interval,
		batch:    100,
	}
}

// Run polls until the context is cancelled.
func (d *IntentDispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := d.DispatchPending(ctx); err != nil {
				log.WithError(err).Error("failed to dispatch transfer intents")
			}
		}
	}
}

// DispatchPending executes and marks one batch of pending intents. An intent
// is marked only after the ledger accepted it, so a failed transfer stays
// queued for the next tick.
func (d *IntentDispatcher) DispatchPending(ctx context.Context) error {
	pending, err := d.intents.GetPending(ctx, d.batch)
	if err != nil {
		return fmt.Errorf("failed to load pending intents: %w", err)
	}

	for _, intent := range pending {
		if err := d.ledger.Execute(ctx, intent); err != nil {
			return fmt.Errorf("transfer ledger rejected intent %d: %w", intent.ID, err)
		}

		if err := d.intents.MarkDispatched(ctx, intent.ID); err != nil {
			return fmt.Errorf("failed to mark intent %d dispatched: %w", intent.ID, err)
		}

		metrics.IntentsDispatched.Inc()
		log.WithFields(log.Fields{
			"intent_id": intent.ID,
			"account":   intent.Account,
			"quantity":  intent.Quantity.String(),
		}).Debug("transfer intent dispatched")
	}

	return nil
}
