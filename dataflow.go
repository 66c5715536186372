// Package dataflow orchestrates data-plane transfers: it dispatches transfer
// requests to the first capable flow controller, converts catalog addresses
// into backend endpoints, and tracks each transfer through its lifecycle.
package dataflow

import "github.com/goliatone/go-dataflow/core"

type Config = core.Config

type RetryConfig = core.RetryConfig

type Option = core.Option

type Service = core.Service

type ServiceDependencies = core.ServiceDependencies
type ProcessResult = core.ProcessResult
type RunOptions = core.RunOptions

type FlowController = core.FlowController
type ControllerRegistry = core.ControllerRegistry
type EndpointConverter = core.EndpointConverter
type SecretStore = core.SecretStore
type SchemaRegistry = core.SchemaRegistry
type WaitStrategy = core.WaitStrategy
type TransferStore = core.TransferStore

type Address = core.Address
type DataEntry = core.DataEntry
type CatalogEntry = core.CatalogEntry
type TransferRequest = core.TransferRequest
type TransferEndpoint = core.TransferEndpoint
type TransferRecord = core.TransferRecord
type TransferFilter = core.TransferFilter

type FlowOutcome = core.FlowOutcome
type DataFlowState = core.DataFlowState

const (
	DataFlowStateNotTracked = core.DataFlowStateNotTracked
	DataFlowStateReceived   = core.DataFlowStateReceived
	DataFlowStateCompleted  = core.DataFlowStateCompleted
	DataFlowStateFailed     = core.DataFlowStateFailed
	DataFlowStateNotified   = core.DataFlowStateNotified
)

var (
	WithLogger          = core.WithLogger
	WithLoggerProvider  = core.WithLoggerProvider
	WithMetricsRecorder = core.WithMetricsRecorder
	WithErrorFactory    = core.WithErrorFactory
	WithErrorMapper     = core.WithErrorMapper
	WithConfigProvider  = core.WithConfigProvider
	WithOptionsResolver = core.WithOptionsResolver
	WithDispatcher      = core.WithDispatcher
	WithControllers     = core.WithControllers
	WithWaitStrategy    = core.WithWaitStrategy
	WithTransferStore   = core.WithTransferStore
)

func DefaultConfig() Config {
	return core.DefaultConfig()
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	return core.NewService(cfg, opts...)
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return core.Setup(cfg, opts...)
}

// DataFlowStateFrom maps a persisted code back to its state; ok is false for
// unknown codes.
func DataFlowStateFrom(code int) (DataFlowState, bool) {
	return core.DataFlowStateFrom(code)
}
