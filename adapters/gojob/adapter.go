package gojob

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-dataflow/core"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	"github.com/goliatone/go-job/queue/worker"
)

const (
	JobIDTransferInitiate = "dataflow.transfer.initiate"

	transferParameter = "transfer"
)

// RetryPolicy defines queue retry bounds to avoid unbounded retry loops.
type RetryPolicy struct {
	MaxAttempts     int
	MaxDelay        time.Duration
	DeadLetterOnMax bool
}

// NormalizeAttempt enforces bounded retry behavior for a nack operation.
func (p RetryPolicy) NormalizeAttempt(opts queue.NackOptions, attempt int) queue.NackOptions {
	out := opts
	out.Reason = strings.TrimSpace(out.Reason)
	if out.Delay < 0 {
		out.Delay = 0
	}
	if p.MaxDelay > 0 && out.Delay > p.MaxDelay {
		out.Delay = p.MaxDelay
	}
	if out.DeadLetter {
		out.Requeue = false
	}
	if p.MaxAttempts > 0 && attempt >= p.MaxAttempts {
		out.Requeue = false
		if p.DeadLetterOnMax || out.DeadLetter {
			out.DeadLetter = true
		}
	}
	if !out.Requeue && !out.DeadLetter {
		out.Requeue = true
	}
	return out
}

type addressEnvelope struct {
	Type       string            `json:"type"`
	KeyName    string            `json:"key_name,omitempty"`
	Properties map[string]string `json:"properties,omitempty"`
}

type transferEnvelope struct {
	ID          string            `json:"id"`
	DataEntryID string            `json:"data_entry_id,omitempty"`
	PolicyID    string            `json:"policy_id,omitempty"`
	Source      *addressEnvelope  `json:"source,omitempty"`
	Destination *addressEnvelope  `json:"destination,omitempty"`
	Properties  map[string]string `json:"properties,omitempty"`
}

// ToExecutionMessage encodes a transfer request as a go-job message keyed by
// the request id so duplicate enqueues collapse.
func ToExecutionMessage(req core.TransferRequest) (*job.ExecutionMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	envelope := transferEnvelope{
		ID:          strings.TrimSpace(req.ID),
		Destination: toAddressEnvelope(req.Destination),
		Properties:  copyStringMap(req.Properties),
	}
	if req.DataEntry != nil {
		envelope.DataEntryID = req.DataEntry.ID
		envelope.PolicyID = req.DataEntry.PolicyID
		envelope.Source = toAddressEnvelope(req.SourceAddress())
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("gojob: encode transfer request: %w", err)
	}
	return &job.ExecutionMessage{
		JobID:          JobIDTransferInitiate,
		ScriptPath:     JobIDTransferInitiate,
		Parameters:     map[string]any{transferParameter: string(payload)},
		IdempotencyKey: JobIDTransferInitiate + ":" + envelope.ID,
	}, nil
}

// FromExecutionMessage decodes the transfer request carried by msg.
func FromExecutionMessage(msg *job.ExecutionMessage) (core.TransferRequest, error) {
	if msg == nil {
		return core.TransferRequest{}, fmt.Errorf("gojob: execution message is required")
	}
	if strings.TrimSpace(msg.JobID) != JobIDTransferInitiate {
		return core.TransferRequest{}, fmt.Errorf("gojob: unexpected job id %q", msg.JobID)
	}
	var raw []byte
	switch value := msg.Parameters[transferParameter].(type) {
	case string:
		raw = []byte(value)
	case []byte:
		raw = value
	default:
		return core.TransferRequest{}, fmt.Errorf("gojob: transfer parameter missing or malformed")
	}
	var envelope transferEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return core.TransferRequest{}, fmt.Errorf("gojob: decode transfer request: %w", err)
	}
	req := core.TransferRequest{
		ID:          envelope.ID,
		Destination: fromAddressEnvelope(envelope.Destination),
		Properties:  copyStringMap(envelope.Properties),
	}
	if envelope.DataEntryID != "" || envelope.Source != nil {
		req.DataEntry = &core.DataEntry{ID: envelope.DataEntryID, PolicyID: envelope.PolicyID}
		if source := fromAddressEnvelope(envelope.Source); source != nil {
			req.DataEntry.CatalogEntry = &core.CatalogEntry{Address: *source}
		}
	}
	return req, req.Validate()
}

type EnqueuerAdapter struct {
	enqueuer queue.Enqueuer
}

func NewEnqueuerAdapter(enqueuer queue.Enqueuer) *EnqueuerAdapter {
	return &EnqueuerAdapter{enqueuer: enqueuer}
}

func (a *EnqueuerAdapter) Enqueue(ctx context.Context, req core.TransferRequest) error {
	if a == nil || a.enqueuer == nil {
		return fmt.Errorf("gojob: enqueuer is not configured")
	}
	msg, err := ToExecutionMessage(req)
	if err != nil {
		return err
	}
	return a.enqueuer.Enqueue(ctx, msg)
}

// TransferProcessor runs one dispatch attempt; core.Service satisfies it.
type TransferProcessor interface {
	Process(ctx context.Context, req core.TransferRequest) (core.ProcessResult, error)
}

// DeliveryHandler settles queued transfer deliveries. Ok, fatal and skipped
// outcomes ack; retryable outcomes nack with the wait strategy delay.
type DeliveryHandler struct {
	processor TransferProcessor
	policy    RetryPolicy
}

func NewDeliveryHandler(processor TransferProcessor, policy RetryPolicy) *DeliveryHandler {
	return &DeliveryHandler{processor: processor, policy: policy}
}

func (h *DeliveryHandler) Handle(ctx context.Context, delivery queue.Delivery, attempt int) (core.ProcessResult, error) {
	if h == nil || h.processor == nil {
		return core.ProcessResult{}, fmt.Errorf("gojob: transfer processor is not configured")
	}
	if delivery == nil {
		return core.ProcessResult{}, fmt.Errorf("gojob: delivery is required")
	}
	req, err := FromExecutionMessage(delivery.Message())
	if err != nil {
		if nackErr := delivery.Nack(ctx, queue.NackOptions{DeadLetter: true, Reason: err.Error()}); nackErr != nil {
			return core.ProcessResult{}, nackErr
		}
		return core.ProcessResult{}, err
	}

	result, err := h.processor.Process(ctx, req)
	if err != nil {
		opts := h.policy.NormalizeAttempt(queue.NackOptions{Requeue: true, Reason: err.Error()}, attempt)
		if nackErr := delivery.Nack(ctx, opts); nackErr != nil {
			return result, nackErr
		}
		return result, err
	}
	if result.Outcome.Retryable() && !result.Skipped && result.Record.State == core.DataFlowStateNotTracked {
		opts := h.policy.NormalizeAttempt(queue.NackOptions{
			Delay:   result.RetryIn,
			Requeue: true,
			Reason:  result.Outcome.Message,
		}, attempt)
		return result, delivery.Nack(ctx, opts)
	}
	return result, delivery.Ack(ctx)
}

type DequeuerAdapter struct {
	dequeuer queue.Dequeuer
	handler  *DeliveryHandler
}

func NewDequeuerAdapter(dequeuer queue.Dequeuer, handler *DeliveryHandler) *DequeuerAdapter {
	return &DequeuerAdapter{dequeuer: dequeuer, handler: handler}
}

// ProcessNext dequeues and settles one delivery.
func (a *DequeuerAdapter) ProcessNext(ctx context.Context, attempt int) (core.ProcessResult, error) {
	if a == nil || a.dequeuer == nil || a.handler == nil {
		return core.ProcessResult{}, fmt.Errorf("gojob: dequeuer is not configured")
	}
	delivery, err := a.dequeuer.Dequeue(ctx)
	if err != nil {
		return core.ProcessResult{}, err
	}
	return a.handler.Handle(ctx, delivery, attempt)
}

// WorkerHookAdapter logs go-job worker lifecycle events for transfer jobs.
type WorkerHookAdapter struct {
	logger core.Logger
}

func NewWorkerHookAdapter(logger core.Logger) *WorkerHookAdapter {
	return &WorkerHookAdapter{logger: logger}
}

func (a *WorkerHookAdapter) OnStart(ctx context.Context, event worker.Event) {
	a.log(ctx, "info", "transfer job started", event)
}

func (a *WorkerHookAdapter) OnSuccess(ctx context.Context, event worker.Event) {
	a.log(ctx, "info", "transfer job succeeded", event)
}

func (a *WorkerHookAdapter) OnFailure(ctx context.Context, event worker.Event) {
	a.log(ctx, "error", "transfer job failed", event)
}

func (a *WorkerHookAdapter) OnRetry(ctx context.Context, event worker.Event) {
	a.log(ctx, "warn", "transfer job retry scheduled", event)
}

func (a *WorkerHookAdapter) log(ctx context.Context, level string, message string, event worker.Event) {
	if a == nil || a.logger == nil {
		return
	}
	args := workerEventFields(event)
	logger := a.logger.WithContext(ctx)
	switch level {
	case "error":
		logger.Error(message, args...)
	case "warn":
		logger.Warn(message, args...)
	default:
		logger.Info(message, args...)
	}
}

func workerEventFields(event worker.Event) []any {
	message := event.Message
	if message == nil && event.Delivery != nil {
		message = event.Delivery.Message()
	}
	fields := []any{
		"attempt", event.Attempt,
		"delay_ms", event.Delay.Milliseconds(),
		"duration_ms", event.Duration.Milliseconds(),
	}
	if message != nil {
		fields = append(fields, "job_id", message.JobID)
		if req, err := FromExecutionMessage(message); err == nil {
			fields = append(fields, "request_id", req.ID)
		}
	}
	if event.Err != nil {
		fields = append(fields, "error", event.Err.Error())
	}
	return fields
}

func toAddressEnvelope(address *core.Address) *addressEnvelope {
	if address == nil {
		return nil
	}
	return &addressEnvelope{
		Type:       address.Type,
		KeyName:    address.KeyName,
		Properties: copyStringMap(address.Properties),
	}
}

func fromAddressEnvelope(envelope *addressEnvelope) *core.Address {
	if envelope == nil {
		return nil
	}
	return &core.Address{
		Type:       envelope.Type,
		KeyName:    envelope.KeyName,
		Properties: copyStringMap(envelope.Properties),
	}
}

func copyStringMap(in map[string]string) map[string]string {
	if len(in) == 0 {
		return nil
	}
	out := make(map[string]string, len(in))
	for key, value := range in {
		out[key] = value
	}
	return out
}

var (
	_ worker.Hook       = (*WorkerHookAdapter)(nil)
	_ TransferProcessor = (*core.Service)(nil)
)
