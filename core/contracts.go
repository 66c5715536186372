package core

import (
	"context"
	"errors"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

var ErrSecretNotFound = errors.New("core: secret not found")

// FlowController starts transfers on one backend. CanHandle must be cheap
// and free of side effects; InitiateFlow reports every failure through the
// returned outcome.
type FlowController interface {
	CanHandle(req TransferRequest) bool
	InitiateFlow(ctx context.Context, req TransferRequest) FlowOutcome
}

type ControllerDispatcher interface {
	Register(controller FlowController) error
	Dispatch(ctx context.Context, req TransferRequest) (FlowOutcome, error)
}

type SchemaRegistry interface {
	Schema(name string) (Schema, bool)
}

// SecretStore resolves a secret by key. Missing keys return ErrSecretNotFound
// (possibly wrapped).
type SecretStore interface {
	ResolveSecret(ctx context.Context, key string) (string, error)
}

type SecretWriter interface {
	StoreSecret(ctx context.Context, key string, value string) error
}

// SecretProvider encrypts secret material at rest.
type SecretProvider interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

type EndpointConverter interface {
	Convert(ctx context.Context, address Address) (TransferEndpoint, error)
}

// WaitStrategy is a pure delay policy; callers own the actual sleeping.
type WaitStrategy interface {
	WaitFor() time.Duration
	Success()
	RetryIn() time.Duration
}

type TransferStore interface {
	Get(ctx context.Context, id string) (TransferRecord, error)
	Save(ctx context.Context, record TransferRecord) (TransferRecord, error)
	List(ctx context.Context, filter TransferFilter) ([]TransferRecord, error)
}

type TransferFilter struct {
	State *DataFlowState
	Limit int
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger
