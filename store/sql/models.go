package sqlstore

import (
	"strings"
	"time"

	"github.com/goliatone/go-dataflow/core"
	"github.com/uptrace/bun"
)

// transferRecord is keyed by a generated uuid; the transfer request id is a
// separate unique column since request ids are caller defined.
type transferRecord struct {
	bun.BaseModel `bun:"table:dataflow_transfers,alias:dt"`

	ID                    string            `bun:"id,pk"`
	TransferID            string            `bun:"transfer_id,notnull"`
	DataEntryID           string            `bun:"data_entry_id,notnull"`
	State                 int               `bun:"state,notnull"`
	Attempts              int               `bun:"attempts,notnull"`
	LastError             string            `bun:"last_error,notnull"`
	SourceType            string            `bun:"source_type,notnull"`
	DestinationType       string            `bun:"destination_type,notnull"`
	DestinationProperties map[string]string `bun:"destination_properties,type:jsonb,notnull"`
	CreatedAt             time.Time         `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt             time.Time         `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

func newTransferRecord(id string, in core.TransferRecord) *transferRecord {
	return &transferRecord{
		ID:                    id,
		TransferID:            strings.TrimSpace(in.ID),
		DataEntryID:           strings.TrimSpace(in.DataEntryID),
		State:                 in.State.Code(),
		Attempts:              in.Attempts,
		LastError:             in.LastError,
		SourceType:            in.SourceType,
		DestinationType:       in.DestinationType,
		DestinationProperties: core.RedactSensitiveStrings(in.DestinationProperties),
		CreatedAt:             in.CreatedAt.UTC(),
		UpdatedAt:             in.UpdatedAt.UTC(),
	}
}

func (r *transferRecord) toDomain() (core.TransferRecord, error) {
	state, ok := core.DataFlowStateFrom(r.State)
	if !ok {
		return core.TransferRecord{}, core.NewConfigurationError(
			"sqlstore: stored transfer has unknown state code",
			map[string]any{"request_id": r.TransferID, "state_code": r.State},
		)
	}
	properties := make(map[string]string, len(r.DestinationProperties))
	for key, value := range r.DestinationProperties {
		properties[key] = value
	}
	return core.TransferRecord{
		ID:                    r.TransferID,
		DataEntryID:           r.DataEntryID,
		State:                 state,
		Attempts:              r.Attempts,
		LastError:             r.LastError,
		SourceType:            r.SourceType,
		DestinationType:       r.DestinationType,
		DestinationProperties: properties,
		CreatedAt:             r.CreatedAt.UTC(),
		UpdatedAt:             r.UpdatedAt.UTC(),
	}, nil
}
