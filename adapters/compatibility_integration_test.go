package adapters_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/goliatone/go-command"
	"github.com/goliatone/go-dataflow/adapters/gocommand"
	"github.com/goliatone/go-dataflow/adapters/gojob"
	"github.com/goliatone/go-dataflow/adapters/gologger"
	datacommand "github.com/goliatone/go-dataflow/command"
	"github.com/goliatone/go-dataflow/core"
	"github.com/goliatone/go-dataflow/query"
	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"
	glog "github.com/goliatone/go-logger/glog"
)

func TestRuntimeCompatibility_QueuedTransferLifecycle(t *testing.T) {
	ctx := context.Background()
	provider := &compatProvider{logger: compatLogger{}}

	_, _, jobProvider, jobLogger := gologger.ResolveForJob("", provider, nil)
	if jobProvider == nil || jobLogger == nil {
		t.Fatalf("expected go-job logger bridges")
	}

	controller := &flakyController{failures: 1}
	opts := append(gologger.ServiceOptions(provider, nil),
		core.WithControllers(controller),
		core.WithWaitStrategy(core.FixedWaitStrategy{Delay: time.Millisecond}),
	)
	svc, err := core.NewService(core.DefaultConfig(), opts...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}

	memQueue := &memoryQueue{}
	if err := gojob.NewEnqueuerAdapter(memQueue).Enqueue(ctx, core.TransferRequest{
		ID:          "req-compat-1",
		DataEntry:   &core.DataEntry{ID: "entry-1"},
		Destination: &core.Address{Type: "AmazonS3", Properties: map[string]string{"bucket": "out"}},
	}); err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	worker := gojob.NewDequeuerAdapter(memQueue, gojob.NewDeliveryHandler(svc, gojob.RetryPolicy{MaxAttempts: 3}))
	first, err := worker.ProcessNext(ctx, 1)
	if err != nil {
		t.Fatalf("first delivery: %v", err)
	}
	if !first.Outcome.Retryable() || memQueue.len() != 1 {
		t.Fatalf("expected retryable outcome to be requeued, got %+v", first.Outcome)
	}
	if memQueue.lastDelay != time.Millisecond {
		t.Fatalf("expected wait strategy delay on nack, got %s", memQueue.lastDelay)
	}
	second, err := worker.ProcessNext(ctx, 2)
	if err != nil {
		t.Fatalf("second delivery: %v", err)
	}
	if second.Record.State != core.DataFlowStateReceived || second.Record.Attempts != 2 {
		t.Fatalf("expected Received after 2 attempts, got %+v", second.Record)
	}
	if memQueue.acks != 1 || memQueue.len() != 0 {
		t.Fatalf("expected single ack and drained queue")
	}

	adapter := gocommand.NewRegistryAdapter(command.NewRegistry())
	if err := adapter.AddQueueResolver("queue", jobqueuecommand.NewRegistry()); err != nil {
		t.Fatalf("add queue resolver: %v", err)
	}
	subscriptions, err := gocommand.RegisterTransferHandlers(adapter, svc)
	if err != nil {
		t.Fatalf("register transfer handlers: %v", err)
	}
	t.Cleanup(func() { gocommand.Unsubscribe(subscriptions) })
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	if err := gocommand.Dispatch(ctx, datacommand.CompleteTransferMessage{TransferID: "req-compat-1"}); err != nil {
		t.Fatalf("dispatch complete: %v", err)
	}
	if err := gocommand.Dispatch(ctx, datacommand.NotifyTransferMessage{TransferID: "req-compat-1"}); err != nil {
		t.Fatalf("dispatch notify: %v", err)
	}

	record, err := gocommand.Query[query.GetTransferMessage, core.TransferRecord](ctx, query.GetTransferMessage{TransferID: "req-compat-1"})
	if err != nil {
		t.Fatalf("query transfer: %v", err)
	}
	if record.State != core.DataFlowStateNotified || record.State.Code() != 400 {
		t.Fatalf("expected Notified (400), got %s", record.State)
	}

	notified := core.DataFlowStateNotified
	records, err := gocommand.Query[query.ListTransfersMessage, []core.TransferRecord](ctx, query.ListTransfersMessage{Filter: core.TransferFilter{State: &notified}})
	if err != nil {
		t.Fatalf("list transfers: %v", err)
	}
	if len(records) != 1 || records[0].ID != "req-compat-1" {
		t.Fatalf("expected one notified transfer, got %+v", records)
	}
}

type flakyController struct {
	mu       sync.Mutex
	failures int
}

func (c *flakyController) CanHandle(req core.TransferRequest) bool {
	return req.Destination != nil && req.Destination.Type == "AmazonS3"
}

func (c *flakyController) InitiateFlow(context.Context, core.TransferRequest) core.FlowOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.failures > 0 {
		c.failures--
		return core.Retryable("backend unavailable", errors.New("connection refused"))
	}
	return core.OK()
}

type memoryQueue struct {
	mu        sync.Mutex
	messages  []*job.ExecutionMessage
	acks      int
	lastDelay time.Duration
}

func (q *memoryQueue) Enqueue(_ context.Context, msg *job.ExecutionMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.messages = append(q.messages, msg)
	return nil
}

func (q *memoryQueue) Dequeue(context.Context) (queue.Delivery, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.messages) == 0 {
		return nil, errors.New("queue empty")
	}
	msg := q.messages[0]
	q.messages = q.messages[1:]
	return &memoryDelivery{queue: q, msg: msg}, nil
}

func (q *memoryQueue) len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.messages)
}

type memoryDelivery struct {
	queue *memoryQueue
	msg   *job.ExecutionMessage
}

func (d *memoryDelivery) Message() *job.ExecutionMessage {
	return d.msg
}

func (d *memoryDelivery) Ack(context.Context) error {
	d.queue.mu.Lock()
	defer d.queue.mu.Unlock()
	d.queue.acks++
	return nil
}

func (d *memoryDelivery) Nack(ctx context.Context, opts queue.NackOptions) error {
	d.queue.mu.Lock()
	d.queue.lastDelay = opts.Delay
	d.queue.mu.Unlock()
	if opts.Requeue {
		return d.queue.Enqueue(ctx, d.msg)
	}
	return nil
}

type compatProvider struct {
	logger glog.Logger
}

func (p *compatProvider) GetLogger(string) glog.Logger {
	if p == nil || p.logger == nil {
		return glog.Nop()
	}
	return p.logger
}

type compatLogger struct{}

func (compatLogger) Trace(string, ...any)                    {}
func (compatLogger) Debug(string, ...any)                    {}
func (compatLogger) Info(string, ...any)                     {}
func (compatLogger) Warn(string, ...any)                     {}
func (compatLogger) Error(string, ...any)                    {}
func (compatLogger) Fatal(string, ...any)                    {}
func (compatLogger) WithContext(context.Context) glog.Logger { return compatLogger{} }
