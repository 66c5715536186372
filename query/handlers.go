package query

import (
	"context"

	"github.com/goliatone/go-dataflow/core"
)

type TransferReader interface {
	State(ctx context.Context, id string) (core.DataFlowState, error)
	Record(ctx context.Context, id string) (core.TransferRecord, error)
	ListTransfers(ctx context.Context, filter core.TransferFilter) ([]core.TransferRecord, error)
}

// GetTransferStateQuery reports NotTracked for ids the reader has never seen.
type GetTransferStateQuery struct {
	reader TransferReader
}

func NewGetTransferStateQuery(reader TransferReader) *GetTransferStateQuery {
	return &GetTransferStateQuery{reader: reader}
}

func (q *GetTransferStateQuery) Query(ctx context.Context, msg GetTransferStateMessage) (core.DataFlowState, error) {
	if q == nil || q.reader == nil {
		return core.DataFlowStateNotTracked, queryDependencyError("query: transfer reader is required")
	}
	return q.reader.State(ctx, msg.TransferID)
}

type GetTransferQuery struct {
	reader TransferReader
}

func NewGetTransferQuery(reader TransferReader) *GetTransferQuery {
	return &GetTransferQuery{reader: reader}
}

func (q *GetTransferQuery) Query(ctx context.Context, msg GetTransferMessage) (core.TransferRecord, error) {
	if q == nil || q.reader == nil {
		return core.TransferRecord{}, queryDependencyError("query: transfer reader is required")
	}
	return q.reader.Record(ctx, msg.TransferID)
}

type ListTransfersQuery struct {
	reader TransferReader
}

func NewListTransfersQuery(reader TransferReader) *ListTransfersQuery {
	return &ListTransfersQuery{reader: reader}
}

func (q *ListTransfersQuery) Query(ctx context.Context, msg ListTransfersMessage) ([]core.TransferRecord, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: transfer reader is required")
	}
	return q.reader.ListTransfers(ctx, msg.Filter)
}
