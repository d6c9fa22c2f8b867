// Package notify turns inbound transfer notifications into typed requests
// against the staking services. The transfer memo selects the action; the
// transferred quantity is the action's funds.
package notify

import (
	"fmt"
	"strconv"
	"strings"

	"stakeledger/models"
)

// TransferNotice is an inbound transfer observed on the external token
// ledger: who sent it, what arrived, and the routing memo.
type TransferNotice struct {
	From     string
	Quantity models.Asset
	Memo     string
}

// Request is a parsed transfer memo.
type Request interface {
	isRequest()
}

// RefuelRequest tops up a plan's interest pool with the transferred amount.
type RefuelRequest struct {
	PlanID int64
}

// PledgeRequest stakes the transferred principal for an explicit quota count.
type PledgeRequest struct {
	PlanID int64
	Quotas int64
}

// DepositRequest stakes the transferred principal, consuming one quota per
// whole principal unit.
type DepositRequest struct {
	PlanID int64
}

func (RefuelRequest) isRequest()  {}
func (PledgeRequest) isRequest()  {}
func (DepositRequest) isRequest() {}

// ParseMemo parses a transfer memo into a typed request. Recognized forms:
//
//	refuel:<plan>
//	pledge:<plan>:<quotas>
//	deposit:<plan>
func ParseMemo(memo string) (Request, error) {
	parts := strings.Split(strings.TrimSpace(memo), ":")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}

	switch parts[0] {
	case "refuel":
		if len(parts) != 2 {
			return nil, fmt.Errorf("refuel memo %q: %w", memo, models.ErrParam)
		}
		planID, err := parsePositiveInt(parts[1])
		if err != nil {
			return nil, fmt.Errorf("refuel memo %q: %w", memo, models.ErrParam)
		}
		return RefuelRequest{PlanID: planID}, nil

	case "pledge":
		if len(parts) != 3 {
			return nil, fmt.Errorf("pledge memo %q: %w", memo, models.ErrParam)
		}
		planID, err := parsePositiveInt(parts[1])
		if err != nil {
			return nil, fmt.Errorf("pledge memo %q: %w", memo, models.ErrParam)
		}
		quotas, err := parsePositiveInt(parts[2])
		if err != nil {
			return nil, fmt.Errorf("pledge memo %q: %w", memo, models.ErrParam)
		}
		return PledgeRequest{PlanID: planID, Quotas: quotas}, nil

	case "deposit":
		if len(parts) != 2 {
			return nil, fmt.Errorf("deposit memo %q: %w", memo, models.ErrParam)
		}
		planID, err := parsePositiveInt(parts[1])
		if err != nil {
			return nil, fmt.Errorf("deposit memo %q: %w", memo, models.ErrParam)
		}
		return DepositRequest{PlanID: planID}, nil

	default:
		return nil, fmt.Errorf("unknown memo action %q: %w", parts[0], models.ErrParam)
	}
}

func parsePositiveInt(s string) (int64, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if v <= 0 {
		return 0, fmt.Errorf("value %d not positive", v)
	}
	return v, nil
}
