package command

import (
	"strings"

	"github.com/goliatone/go-dataflow/core"
)

const (
	TypeInitiateTransfer = "dataflow.command.transfer.initiate"
	TypeRunTransfer      = "dataflow.command.transfer.run"
	TypeCompleteTransfer = "dataflow.command.transfer.complete"
	TypeFailTransfer     = "dataflow.command.transfer.fail"
	TypeNotifyTransfer   = "dataflow.command.transfer.notify"
)

// InitiateTransferMessage runs a single dispatch attempt.
type InitiateTransferMessage struct {
	Request core.TransferRequest
}

func (InitiateTransferMessage) Type() string { return TypeInitiateTransfer }

func (m InitiateTransferMessage) Validate() error {
	return validateRequest(m.Request)
}

// RunTransferMessage dispatches and retries until the outcome settles.
type RunTransferMessage struct {
	Request     core.TransferRequest
	MaxAttempts int
}

func (RunTransferMessage) Type() string { return TypeRunTransfer }

func (m RunTransferMessage) Validate() error {
	if m.MaxAttempts < 0 {
		return commandValidationError("max_attempts", "max attempts must be >= 0")
	}
	return validateRequest(m.Request)
}

type CompleteTransferMessage struct {
	TransferID string
}

func (CompleteTransferMessage) Type() string { return TypeCompleteTransfer }

func (m CompleteTransferMessage) Validate() error {
	return validateTransferID(m.TransferID)
}

type FailTransferMessage struct {
	TransferID string
	Reason     string
}

func (FailTransferMessage) Type() string { return TypeFailTransfer }

func (m FailTransferMessage) Validate() error {
	if err := validateTransferID(m.TransferID); err != nil {
		return err
	}
	if strings.TrimSpace(m.Reason) == "" {
		return commandValidationError("reason", "failure reason is required")
	}
	return nil
}

type NotifyTransferMessage struct {
	TransferID string
}

func (NotifyTransferMessage) Type() string { return TypeNotifyTransfer }

func (m NotifyTransferMessage) Validate() error {
	return validateTransferID(m.TransferID)
}

func validateTransferID(id string) error {
	if strings.TrimSpace(id) == "" {
		return commandValidationError("transfer_id", "transfer id is required")
	}
	return nil
}

func validateRequest(req core.TransferRequest) error {
	if err := req.Validate(); err != nil {
		return commandWrapValidation(err, "command: invalid transfer request")
	}
	return nil
}
