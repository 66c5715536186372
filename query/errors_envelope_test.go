package query

import (
	"context"
	"testing"

	"github.com/goliatone/go-dataflow/core"
	goerrors "github.com/goliatone/go-errors"
)

func TestListTransfersMessage_RejectsUnknownStateCode(t *testing.T) {
	unknown := core.DataFlowState(150)
	err := (ListTransfersMessage{Filter: core.TransferFilter{State: &unknown}}).Validate()
	if err == nil {
		t.Fatalf("expected unknown state to fail validation")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryValidation {
		t.Fatalf("expected validation category, got %q", rich.Category)
	}
	if rich.TextCode != core.DataflowErrorBadInput {
		t.Fatalf("expected %q text code, got %q", core.DataflowErrorBadInput, rich.TextCode)
	}
}

func TestGetTransferStateQuery_NilReaderReturnsRichError(t *testing.T) {
	var qry *GetTransferStateQuery
	_, err := qry.Query(context.Background(), GetTransferStateMessage{TransferID: "req-1"})
	if err == nil {
		t.Fatalf("expected query dependency error")
	}

	var rich *goerrors.Error
	if !goerrors.As(err, &rich) {
		t.Fatalf("expected go-errors envelope, got %T", err)
	}
	if rich.Category != goerrors.CategoryInternal {
		t.Fatalf("expected internal category, got %q", rich.Category)
	}
}
