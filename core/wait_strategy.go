package core

import (
	"sync"
	"time"
)

const (
	defaultWaitInitial  = time.Second
	defaultWaitMax      = time.Minute
	defaultRetryInitial = 2 * time.Second
	defaultRetryMax     = 5 * time.Minute
)

// WaitStrategyFunc adapts a plain delay function. Success is a no-op and
// RetryIn returns the same delay as WaitFor.
type WaitStrategyFunc func() time.Duration

func (f WaitStrategyFunc) WaitFor() time.Duration {
	if f == nil {
		return 0
	}
	return f()
}

func (WaitStrategyFunc) Success() {}

func (f WaitStrategyFunc) RetryIn() time.Duration {
	return f.WaitFor()
}

type FixedWaitStrategy struct {
	Delay time.Duration
}

func (s FixedWaitStrategy) WaitFor() time.Duration {
	return s.Delay
}

func (FixedWaitStrategy) Success() {}

func (s FixedWaitStrategy) RetryIn() time.Duration {
	return s.Delay
}

// ExponentialWaitStrategy doubles its delays for every consecutive call
// without an intervening Success. WaitFor and RetryIn share the failure
// counter but follow separate curves.
type ExponentialWaitStrategy struct {
	Initial      time.Duration
	Max          time.Duration
	RetryInitial time.Duration
	RetryMax     time.Duration

	mu       sync.Mutex
	failures int
}

func NewExponentialWaitStrategy(initial, max time.Duration) *ExponentialWaitStrategy {
	return &ExponentialWaitStrategy{
		Initial:      initial,
		Max:          max,
		RetryInitial: initial,
		RetryMax:     max,
	}
}

func (s *ExponentialWaitStrategy) WaitFor() time.Duration {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	s.failures++
	attempt := s.failures
	s.mu.Unlock()
	return exponentialDelay(attempt, s.Initial, s.Max, defaultWaitInitial, defaultWaitMax)
}

func (s *ExponentialWaitStrategy) Success() {
	if s == nil {
		return
	}
	s.mu.Lock()
	s.failures = 0
	s.mu.Unlock()
}

func (s *ExponentialWaitStrategy) RetryIn() time.Duration {
	if s == nil {
		return 0
	}
	s.mu.Lock()
	s.failures++
	attempt := s.failures
	s.mu.Unlock()
	return exponentialDelay(attempt, s.RetryInitial, s.RetryMax, defaultRetryInitial, defaultRetryMax)
}

func exponentialDelay(attempt int, initial, max, fallbackInitial, fallbackMax time.Duration) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if initial <= 0 {
		initial = fallbackInitial
	}
	if max <= 0 {
		max = fallbackMax
	}

	delay := initial
	for i := 1; i < attempt; i++ {
		delay *= 2
		if delay >= max {
			return max
		}
	}
	if delay > max {
		return max
	}
	return delay
}
