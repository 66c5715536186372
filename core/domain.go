package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// KeyNameProperty is the legacy address property holding the secret reference.
const KeyNameProperty = "keyName"

var ErrInvalidDataFlowStateTransition = errors.New("core: invalid data flow state transition")

type Address struct {
	Type       string
	KeyName    string
	Properties map[string]string
}

// ResolvedKeyName returns KeyName, falling back to the keyName property.
func (a Address) ResolvedKeyName() string {
	if key := strings.TrimSpace(a.KeyName); key != "" {
		return key
	}
	return strings.TrimSpace(a.Properties[KeyNameProperty])
}

func (a Address) Validate() error {
	if strings.TrimSpace(a.Type) == "" {
		return fmt.Errorf("core: address type is required")
	}
	if a.ResolvedKeyName() == "" {
		return fmt.Errorf("core: address keyName is required")
	}
	return nil
}

func (a Address) Clone() Address {
	return Address{
		Type:       a.Type,
		KeyName:    a.KeyName,
		Properties: cloneStringMap(a.Properties),
	}
}

type AttributeDescriptor struct {
	Name string
	Type string
}

type Schema struct {
	Name               string
	RequiredAttributes []AttributeDescriptor
	Attributes         []AttributeDescriptor
}

func (s Schema) Clone() Schema {
	return Schema{
		Name:               s.Name,
		RequiredAttributes: append([]AttributeDescriptor(nil), s.RequiredAttributes...),
		Attributes:         append([]AttributeDescriptor(nil), s.Attributes...),
	}
}

func (s Schema) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("core: schema name is required")
	}
	for _, attr := range s.RequiredAttributes {
		if strings.TrimSpace(attr.Name) == "" {
			return fmt.Errorf("core: schema %q has a required attribute without name", s.Name)
		}
	}
	for _, attr := range s.Attributes {
		if strings.TrimSpace(attr.Name) == "" {
			return fmt.Errorf("core: schema %q has an attribute without name", s.Name)
		}
	}
	return nil
}

type TransferEndpoint struct {
	Type       string
	Properties map[string]string
}

type CatalogEntry struct {
	Address Address
}

type DataEntry struct {
	ID           string
	PolicyID     string
	CatalogEntry *CatalogEntry
}

type TransferRequest struct {
	ID          string
	DataEntry   *DataEntry
	Destination *Address
	Properties  map[string]string
}

// SourceAddress returns the catalog address of the data entry, or nil when
// the request does not carry one.
func (r TransferRequest) SourceAddress() *Address {
	if r.DataEntry == nil || r.DataEntry.CatalogEntry == nil {
		return nil
	}
	return &r.DataEntry.CatalogEntry.Address
}

func (r TransferRequest) DataEntryID() string {
	if r.DataEntry == nil {
		return ""
	}
	return strings.TrimSpace(r.DataEntry.ID)
}

func (r TransferRequest) Validate() error {
	if strings.TrimSpace(r.ID) == "" {
		return fmt.Errorf("core: transfer request id is required")
	}
	return nil
}

type FlowStatus string

const (
	FlowStatusOK             FlowStatus = "ok"
	FlowStatusRetryableError FlowStatus = "retryable_error"
	FlowStatusFatalError     FlowStatus = "fatal_error"
)

type FlowOutcome struct {
	Status  FlowStatus
	Message string
	Err     error
}

func OK() FlowOutcome {
	return FlowOutcome{Status: FlowStatusOK}
}

func Retryable(message string, err error) FlowOutcome {
	return FlowOutcome{Status: FlowStatusRetryableError, Message: outcomeMessage(message, err), Err: err}
}

func Fatal(message string, err error) FlowOutcome {
	return FlowOutcome{Status: FlowStatusFatalError, Message: outcomeMessage(message, err), Err: err}
}

func (o FlowOutcome) Succeeded() bool {
	return o.Status == FlowStatusOK
}

func (o FlowOutcome) Retryable() bool {
	return o.Status == FlowStatusRetryableError
}

func (o FlowOutcome) Fatal() bool {
	return o.Status == FlowStatusFatalError
}

func outcomeMessage(message string, err error) string {
	message = strings.TrimSpace(message)
	if message != "" {
		return message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}

// TransferRecord is the persisted lifecycle view of a transfer request.
type TransferRecord struct {
	ID                    string
	DataEntryID           string
	State                 DataFlowState
	Attempts              int
	LastError             string
	SourceType            string
	DestinationType       string
	DestinationProperties map[string]string
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

func NewTransferRecord(req TransferRequest, now time.Time) TransferRecord {
	record := TransferRecord{
		ID:          strings.TrimSpace(req.ID),
		DataEntryID: req.DataEntryID(),
		State:       DataFlowStateNotTracked,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if source := req.SourceAddress(); source != nil {
		record.SourceType = strings.TrimSpace(source.Type)
	}
	if req.Destination != nil {
		record.DestinationType = strings.TrimSpace(req.Destination.Type)
		record.DestinationProperties = RedactSensitiveStrings(req.Destination.Properties)
	}
	return record
}

func (r *TransferRecord) TransitionTo(state DataFlowState, reason string, now time.Time) error {
	if r == nil {
		return nil
	}
	if r.State == state {
		r.UpdatedAt = now
		if strings.TrimSpace(reason) != "" {
			r.LastError = strings.TrimSpace(reason)
		}
		return nil
	}
	if !dataFlowTransitionAllowed(r.State, state) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidDataFlowStateTransition, r.State, state)
	}
	r.State = state
	r.UpdatedAt = now
	if strings.TrimSpace(reason) != "" {
		r.LastError = strings.TrimSpace(reason)
	}
	if state == DataFlowStateReceived || state == DataFlowStateCompleted {
		r.LastError = ""
	}
	return nil
}

func (r TransferRecord) Clone() TransferRecord {
	r.DestinationProperties = cloneStringMap(r.DestinationProperties)
	return r
}

func dataFlowTransitionAllowed(current, next DataFlowState) bool {
	allowed := map[DataFlowState]map[DataFlowState]struct{}{
		DataFlowStateNotTracked: {
			DataFlowStateReceived: {},
			DataFlowStateFailed:   {},
		},
		DataFlowStateReceived: {
			DataFlowStateCompleted: {},
			DataFlowStateFailed:    {},
		},
		DataFlowStateCompleted: {
			DataFlowStateNotified: {},
		},
		DataFlowStateFailed: {
			DataFlowStateNotified: {},
		},
		DataFlowStateNotified: {},
	}
	_, ok := allowed[current][next]
	return ok
}

func cloneStringMap(source map[string]string) map[string]string {
	if source == nil {
		return nil
	}
	out := make(map[string]string, len(source))
	for key, value := range source {
		out[key] = value
	}
	return out
}
