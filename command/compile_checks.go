package command

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-dataflow/core"
)

var (
	_ gocmd.Commander[InitiateTransferMessage] = (*InitiateTransferCommand)(nil)
	_ gocmd.Commander[RunTransferMessage]      = (*RunTransferCommand)(nil)
	_ gocmd.Commander[CompleteTransferMessage] = (*CompleteTransferCommand)(nil)
	_ gocmd.Commander[FailTransferMessage]     = (*FailTransferCommand)(nil)
	_ gocmd.Commander[NotifyTransferMessage]   = (*NotifyTransferCommand)(nil)
	_ TransferService                          = (*core.Service)(nil)
)
