package query

import (
	gocmd "github.com/goliatone/go-command"
	"github.com/goliatone/go-dataflow/core"
)

var (
	_ gocmd.Querier[GetTransferStateMessage, core.DataFlowState] = (*GetTransferStateQuery)(nil)
	_ gocmd.Querier[GetTransferMessage, core.TransferRecord]     = (*GetTransferQuery)(nil)
	_ gocmd.Querier[ListTransfersMessage, []core.TransferRecord] = (*ListTransfersQuery)(nil)
	_ TransferReader                                             = (*core.Service)(nil)
)
