package query

import (
	"strings"

	"github.com/goliatone/go-dataflow/core"
)

const (
	TypeGetTransferState = "dataflow.query.transfer.state"
	TypeGetTransfer      = "dataflow.query.transfer.get"
	TypeListTransfers    = "dataflow.query.transfer.list"
)

type GetTransferStateMessage struct {
	TransferID string
}

func (GetTransferStateMessage) Type() string { return TypeGetTransferState }

func (m GetTransferStateMessage) Validate() error {
	return validateTransferID(m.TransferID)
}

type GetTransferMessage struct {
	TransferID string
}

func (GetTransferMessage) Type() string { return TypeGetTransfer }

func (m GetTransferMessage) Validate() error {
	return validateTransferID(m.TransferID)
}

type ListTransfersMessage struct {
	Filter core.TransferFilter
}

func (ListTransfersMessage) Type() string { return TypeListTransfers }

func (m ListTransfersMessage) Validate() error {
	if m.Filter.Limit < 0 {
		return queryValidationError("limit", "limit must be >= 0")
	}
	if m.Filter.State != nil {
		if _, ok := core.DataFlowStateFrom(m.Filter.State.Code()); !ok {
			return queryValidationError("state", "unknown data flow state")
		}
	}
	return nil
}

func validateTransferID(id string) error {
	if strings.TrimSpace(id) == "" {
		return queryValidationError("transfer_id", "transfer id is required")
	}
	return nil
}
