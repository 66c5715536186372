package query

import (
	"context"
	"testing"

	"github.com/goliatone/go-dataflow/core"
	goerrors "github.com/goliatone/go-errors"
)

func newQueryTestService(t *testing.T) *core.Service {
	t.Helper()
	svc, err := core.NewService(core.DefaultConfig(), core.WithControllers(core.NewControllerFunc(
		func(req core.TransferRequest) bool { return true },
		func(_ context.Context, req core.TransferRequest) core.FlowOutcome {
			if req.ID == "req-fatal" {
				return core.Fatal("destination rejected", nil)
			}
			return core.OK()
		},
	)))
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	for _, id := range []string{"req-ok", "req-fatal"} {
		if _, err := svc.Process(context.Background(), core.TransferRequest{ID: id}); err != nil {
			t.Fatalf("process %s: %v", id, err)
		}
	}
	return svc
}

func TestGetTransferStateQuery_ReportsStates(t *testing.T) {
	q := NewGetTransferStateQuery(newQueryTestService(t))

	state, err := q.Query(context.Background(), GetTransferStateMessage{TransferID: "req-ok"})
	if err != nil {
		t.Fatalf("query state: %v", err)
	}
	if state != core.DataFlowStateReceived {
		t.Fatalf("expected received, got %s", state)
	}

	state, err = q.Query(context.Background(), GetTransferStateMessage{TransferID: "unknown"})
	if err != nil {
		t.Fatalf("query unknown state: %v", err)
	}
	if state != core.DataFlowStateNotTracked {
		t.Fatalf("expected not tracked for unknown transfer, got %s", state)
	}
}

func TestGetTransferQuery_ReturnsRecord(t *testing.T) {
	q := NewGetTransferQuery(newQueryTestService(t))
	record, err := q.Query(context.Background(), GetTransferMessage{TransferID: "req-fatal"})
	if err != nil {
		t.Fatalf("query record: %v", err)
	}
	if record.State != core.DataFlowStateFailed || record.LastError != "destination rejected" {
		t.Fatalf("unexpected record %+v", record)
	}
}

func TestListTransfersQuery_FiltersByState(t *testing.T) {
	q := NewListTransfersQuery(newQueryTestService(t))
	failed := core.DataFlowStateFailed
	records, err := q.Query(context.Background(), ListTransfersMessage{Filter: core.TransferFilter{State: &failed}})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(records) != 1 || records[0].ID != "req-fatal" {
		t.Fatalf("expected only failed transfer, got %+v", records)
	}
}

func TestQueryMessages_ValidateReturnsRichErrors(t *testing.T) {
	err := (GetTransferStateMessage{}).Validate()
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryValidation || rich.TextCode != core.DataflowErrorBadInput {
		t.Fatalf("unexpected envelope %q %q", rich.Category, rich.TextCode)
	}

	bogus := core.DataFlowState(999)
	if err := (ListTransfersMessage{Filter: core.TransferFilter{State: &bogus}}).Validate(); err == nil {
		t.Fatalf("expected unknown state filter to fail validation")
	}
	if err := (ListTransfersMessage{Filter: core.TransferFilter{Limit: -1}}).Validate(); err == nil {
		t.Fatalf("expected negative limit to fail validation")
	}
}

func TestQueries_NilReaderReturnsRichError(t *testing.T) {
	var q *GetTransferStateQuery
	_, err := q.Query(context.Background(), GetTransferStateMessage{TransferID: "x"})
	var rich *goerrors.Error
	if !goerrors.As(err, &rich) || rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal envelope, got %v", err)
	}
}
