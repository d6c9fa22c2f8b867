package service

import (
	"context"

	"stakeledger/models"

	log "github.com/sirupsen/logrus"
)

// LoggingTransferLedger is the default TransferLedger: it records each drained
// intent in the log and reports success. Deployments with a real token ledger
// substitute their own implementation.
type LoggingTransferLedger struct{}

func (LoggingTransferLedger) Execute(ctx context.Context, intent *models.TransferIntent) error {
	log.WithFields(log.Fields{
		"intent_id": intent.ID,
		"direction": intent.Direction,
		"account":   intent.Account,
		"quantity":  intent.Quantity.String(),
		"memo":      intent.Memo,
	}).Info("transfer executed")
	return nil
}
