package core

import (
	"context"
	"sync"
	"time"
)

type stubLogger struct{}

func (stubLogger) Trace(string, ...any)                 {}
func (stubLogger) Debug(string, ...any)                 {}
func (stubLogger) Info(string, ...any)                  {}
func (stubLogger) Warn(string, ...any)                  {}
func (stubLogger) Error(string, ...any)                 {}
func (stubLogger) Fatal(string, ...any)                 {}
func (l stubLogger) WithContext(context.Context) Logger { return l }

type stubLoggerProvider struct {
	logger Logger
}

func (s stubLoggerProvider) GetLogger(string) Logger {
	return s.logger
}

type mapRawLoader struct {
	values map[string]any
}

func (l mapRawLoader) LoadRaw(context.Context) (map[string]any, error) {
	if len(l.values) == 0 {
		return map[string]any{}, nil
	}
	return l.values, nil
}

// scriptedController replays outcomes in order and repeats the last one.
type scriptedController struct {
	mu       sync.Mutex
	accepts  func(TransferRequest) bool
	outcomes []FlowOutcome
	calls    int
}

func (c *scriptedController) CanHandle(req TransferRequest) bool {
	if c.accepts == nil {
		return true
	}
	return c.accepts(req)
}

func (c *scriptedController) InitiateFlow(context.Context, TransferRequest) FlowOutcome {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	if len(c.outcomes) == 0 {
		return OK()
	}
	index := c.calls - 1
	if index >= len(c.outcomes) {
		index = len(c.outcomes) - 1
	}
	return c.outcomes[index]
}

func (c *scriptedController) callCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

type countingWaitStrategy struct {
	mu        sync.Mutex
	delay     time.Duration
	successes int
	retries   int
}

func (s *countingWaitStrategy) WaitFor() time.Duration {
	return s.delay
}

func (s *countingWaitStrategy) Success() {
	s.mu.Lock()
	s.successes++
	s.mu.Unlock()
}

func (s *countingWaitStrategy) RetryIn() time.Duration {
	s.mu.Lock()
	s.retries++
	s.mu.Unlock()
	return s.delay
}

func testTransferRequest(id string) TransferRequest {
	return TransferRequest{
		ID: id,
		DataEntry: &DataEntry{
			ID:       "entry-1",
			PolicyID: "policy-1",
			CatalogEntry: &CatalogEntry{Address: Address{
				Type:       "s3",
				KeyName:    "src-key",
				Properties: map[string]string{"bucket": "in"},
			}},
		},
		Destination: &Address{
			Type:       "s3",
			KeyName:    "dst-key",
			Properties: map[string]string{"bucket": "out", "access_token": "abc"},
		},
	}
}
