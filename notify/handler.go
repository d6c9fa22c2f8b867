package notify

import (
	"context"
	"fmt"

	"stakeledger/models"
	"stakeledger/service"
)

// Handler routes parsed transfer requests to the staking services.
type Handler struct {
	plans       service.PlanService
	settlements service.SettlementService
}

// NewHandler creates a transfer notification handler.
func NewHandler(plans service.PlanService, settlements service.SettlementService) *Handler {
	return &Handler{
		plans:       plans,
		settlements: settlements,
	}
}

// HandleTransfer parses the notice's memo and performs the requested action
// on behalf of the sender. An unparseable memo or a rejected action returns
// an error; the caller decides whether to bounce the funds.
func (h *Handler) HandleTransfer(ctx context.Context, notice TransferNotice) error {
	if notice.Quantity.Amount <= 0 {
		return fmt.Errorf("transfer of %d: %w", notice.Quantity.Amount, models.ErrNotPositive)
	}

	request, err := ParseMemo(notice.Memo)
	if err != nil {
		return err
	}

	switch req := request.(type) {
	case RefuelRequest:
		return h.plans.RefuelInterest(ctx, notice.From, req.PlanID, notice.Quantity)

	case PledgeRequest:
		_, err := h.settlements.OpenPosition(ctx, notice.From, req.PlanID, notice.From, notice.Quantity, req.Quotas)
		return err

	case DepositRequest:
		quotas := notice.Quantity.WholeUnits()
		if quotas <= 0 {
			return fmt.Errorf("deposit below one whole unit: %w", models.ErrParam)
		}
		_, err := h.settlements.OpenPosition(ctx, notice.From, req.PlanID, notice.From, notice.Quantity, quotas)
		return err

	default:
		return fmt.Errorf("unhandled request %T: %w", request, models.ErrParam)
	}
}
