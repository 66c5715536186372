package dataflow

import (
	"context"
	"fmt"
	"strings"

	datacommand "github.com/goliatone/go-dataflow/command"
	"github.com/goliatone/go-dataflow/core"
	dataquery "github.com/goliatone/go-dataflow/query"
)

type CommandQueryService interface {
	datacommand.TransferService
	dataquery.TransferReader
}

type Commands struct {
	Initiate *datacommand.InitiateTransferCommand
	Run      *datacommand.RunTransferCommand
	Complete *datacommand.CompleteTransferCommand
	Fail     *datacommand.FailTransferCommand
	Notify   *datacommand.NotifyTransferCommand
}

type Queries struct {
	State *dataquery.GetTransferStateQuery
	Get   *dataquery.GetTransferQuery
	List  *dataquery.ListTransfersQuery
}

type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	reader dataquery.TransferReader
}

// WithTransferReader routes queries to reader instead of the service.
func WithTransferReader(reader dataquery.TransferReader) FacadeOption {
	return func(options *facadeOptions) {
		options.reader = reader
	}
}

// WithStoreReads routes queries straight to store, typically a cached
// store, bypassing the service.
func WithStoreReads(store core.TransferStore) FacadeOption {
	return func(options *facadeOptions) {
		if store == nil {
			return
		}
		options.reader = storeReader{store: store}
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("dataflow: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	reader := cfg.reader
	if reader == nil {
		reader = service
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		Initiate: datacommand.NewInitiateTransferCommand(service),
		Run:      datacommand.NewRunTransferCommand(service),
		Complete: datacommand.NewCompleteTransferCommand(service),
		Fail:     datacommand.NewFailTransferCommand(service),
		Notify:   datacommand.NewNotifyTransferCommand(service),
	}
	facade.queries = Queries{
		State: dataquery.NewGetTransferStateQuery(reader),
		Get:   dataquery.NewGetTransferQuery(reader),
		List:  dataquery.NewListTransfersQuery(reader),
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

type storeReader struct {
	store core.TransferStore
}

func (r storeReader) State(ctx context.Context, id string) (core.DataFlowState, error) {
	record, err := r.Record(ctx, id)
	if err != nil {
		if core.IsNotFound(err) {
			return core.DataFlowStateNotTracked, nil
		}
		return core.DataFlowStateNotTracked, err
	}
	return record.State, nil
}

func (r storeReader) Record(ctx context.Context, id string) (core.TransferRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return core.TransferRecord{}, fmt.Errorf("dataflow: transfer id is required")
	}
	return r.store.Get(ctx, id)
}

func (r storeReader) ListTransfers(ctx context.Context, filter core.TransferFilter) ([]core.TransferRecord, error) {
	return r.store.List(ctx, filter)
}
