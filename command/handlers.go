package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-dataflow/core"
)

type TransferService interface {
	Process(ctx context.Context, req core.TransferRequest) (core.ProcessResult, error)
	RunWithRetry(ctx context.Context, req core.TransferRequest, opts core.RunOptions) (core.ProcessResult, error)
	Complete(ctx context.Context, id string) (core.TransferRecord, error)
	Fail(ctx context.Context, id string, reason string) (core.TransferRecord, error)
	Notify(ctx context.Context, id string) (core.TransferRecord, error)
}

type InitiateTransferCommand struct {
	service TransferService
}

func NewInitiateTransferCommand(service TransferService) *InitiateTransferCommand {
	return &InitiateTransferCommand{service: service}
}

func (c *InitiateTransferCommand) Execute(ctx context.Context, msg InitiateTransferMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: transfer service is required")
	}
	out, err := c.service.Process(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type RunTransferCommand struct {
	service TransferService
}

func NewRunTransferCommand(service TransferService) *RunTransferCommand {
	return &RunTransferCommand{service: service}
}

func (c *RunTransferCommand) Execute(ctx context.Context, msg RunTransferMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: transfer service is required")
	}
	out, err := c.service.RunWithRetry(ctx, msg.Request, core.RunOptions{MaxAttempts: msg.MaxAttempts})
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type CompleteTransferCommand struct {
	service TransferService
}

func NewCompleteTransferCommand(service TransferService) *CompleteTransferCommand {
	return &CompleteTransferCommand{service: service}
}

func (c *CompleteTransferCommand) Execute(ctx context.Context, msg CompleteTransferMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: transfer service is required")
	}
	out, err := c.service.Complete(ctx, msg.TransferID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type FailTransferCommand struct {
	service TransferService
}

func NewFailTransferCommand(service TransferService) *FailTransferCommand {
	return &FailTransferCommand{service: service}
}

func (c *FailTransferCommand) Execute(ctx context.Context, msg FailTransferMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: transfer service is required")
	}
	out, err := c.service.Fail(ctx, msg.TransferID, msg.Reason)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type NotifyTransferCommand struct {
	service TransferService
}

func NewNotifyTransferCommand(service TransferService) *NotifyTransferCommand {
	return &NotifyTransferCommand{service: service}
}

func (c *NotifyTransferCommand) Execute(ctx context.Context, msg NotifyTransferMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: transfer service is required")
	}
	out, err := c.service.Notify(ctx, msg.TransferID)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
