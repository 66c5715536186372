package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"
)

// Service tracks transfer lifecycles around controller dispatch.
type Service struct {
	config          Config
	logger          Logger
	loggerProvider  LoggerProvider
	metricsRecorder MetricsRecorder
	errorFactory    ErrorFactory
	errorMapper     ErrorMapper
	configProvider  ConfigProvider
	optionsResolver OptionsResolver
	dispatcher      ControllerDispatcher
	waitStrategy    WaitStrategy
	transferStore   TransferStore
	nowFn           func() time.Time
}

type ServiceDependencies struct {
	Logger          Logger
	LoggerProvider  LoggerProvider
	MetricsRecorder MetricsRecorder
	ErrorFactory    ErrorFactory
	ErrorMapper     ErrorMapper
	ConfigProvider  ConfigProvider
	OptionsResolver OptionsResolver
	Dispatcher      ControllerDispatcher
	WaitStrategy    WaitStrategy
	TransferStore   TransferStore
}

// ProcessResult describes a single dispatch attempt. RetryIn is set only
// when the outcome is retryable and the transfer is still eligible.
type ProcessResult struct {
	Record  TransferRecord
	Outcome FlowOutcome
	RetryIn time.Duration
	Skipped bool
}

type RunOptions struct {
	// MaxAttempts caps this run; zero defers to the configured retry bound.
	MaxAttempts int
}

func NewService(cfg Config, opts ...Option) (*Service, error) {
	builder := defaultServiceBuilder(cfg)
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&builder)
	}

	provider, logger := glog.Resolve("dataflow", builder.loggerProvider, builder.logger)
	logger = glog.Ensure(logger)
	if provider != nil {
		if named := provider.GetLogger("dataflow"); named != nil {
			logger = glog.Ensure(named)
		}
	}

	if builder.errorFactory == nil {
		builder.errorFactory = goerrors.New
	}
	if builder.metricsRecorder == nil {
		builder.metricsRecorder = NopMetricsRecorder{}
	}
	if builder.errorMapper == nil {
		builder.errorMapper = defaultErrorMapper
	}
	if builder.configProvider == nil {
		builder.configProvider = NewCfgxConfigProvider(nil)
	}
	if builder.optionsResolver == nil {
		builder.optionsResolver = GoOptionsResolver{}
	}
	if builder.dispatcher == nil {
		builder.dispatcher = &ControllerRegistry{}
	}
	if builder.transferStore == nil {
		builder.transferStore = NewMemoryTransferStore()
	}

	defaults := DefaultConfig()
	loaded, err := builder.configProvider.Load(context.Background(), defaults)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}
	finalConfig, err := builder.optionsResolver.Resolve(defaults, loaded, builder.runtimeConfig)
	if err != nil {
		return nil, mapBuildError(builder.errorMapper, err)
	}

	for _, controller := range builder.controllers {
		if err := builder.dispatcher.Register(controller); err != nil {
			return nil, mapBuildError(builder.errorMapper, err)
		}
	}
	if builder.waitStrategy == nil {
		builder.waitStrategy = NewExponentialWaitStrategy(
			finalConfig.Retry.InitialDelay(),
			finalConfig.Retry.MaxDelay(),
		)
	}

	return &Service{
		config:          finalConfig,
		logger:          logger,
		loggerProvider:  provider,
		metricsRecorder: builder.metricsRecorder,
		errorFactory:    builder.errorFactory,
		errorMapper:     builder.errorMapper,
		configProvider:  builder.configProvider,
		optionsResolver: builder.optionsResolver,
		dispatcher:      builder.dispatcher,
		waitStrategy:    builder.waitStrategy,
		transferStore:   builder.transferStore,
		nowFn:           func() time.Time { return time.Now().UTC() },
	}, nil
}

func Setup(cfg Config, opts ...Option) (*Service, error) {
	return NewService(cfg, opts...)
}

func mapBuildError(mapper ErrorMapper, err error) error {
	if err == nil {
		return nil
	}
	if mapper == nil {
		return err
	}
	mapped := mapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func (s *Service) Config() Config {
	if s == nil {
		return Config{}
	}
	return s.config
}

func (s *Service) Dependencies() ServiceDependencies {
	if s == nil {
		return ServiceDependencies{}
	}
	return ServiceDependencies{
		Logger:          s.logger,
		LoggerProvider:  s.loggerProvider,
		MetricsRecorder: s.metricsRecorder,
		ErrorFactory:    s.errorFactory,
		ErrorMapper:     s.errorMapper,
		ConfigProvider:  s.configProvider,
		OptionsResolver: s.optionsResolver,
		Dispatcher:      s.dispatcher,
		WaitStrategy:    s.waitStrategy,
		TransferStore:   s.transferStore,
	}
}

func (s *Service) RegisterController(controller FlowController) error {
	if s == nil || s.dispatcher == nil {
		return fmt.Errorf("core: service dispatcher is not configured")
	}
	return s.mapError(s.dispatcher.Register(controller))
}

// Process performs one dispatch attempt for the request and records the
// resulting lifecycle transition. Transfers already received or terminal are
// not dispatched again.
func (s *Service) Process(ctx context.Context, req TransferRequest) (result ProcessResult, err error) {
	startedAt := time.Now().UTC()
	fields := transferFields(req)
	defer func() {
		fields["state"] = result.Record.State.String()
		if result.Outcome.Status != "" {
			fields["outcome"] = string(result.Outcome.Status)
		}
		s.observeOperation(ctx, startedAt, "process", err, fields)
	}()

	if s == nil {
		return ProcessResult{}, fmt.Errorf("core: service is nil")
	}
	if err = req.Validate(); err != nil {
		err = s.mapError(err)
		return ProcessResult{}, err
	}

	record, err := s.loadOrCreate(ctx, req)
	if err != nil {
		return ProcessResult{}, err
	}
	if record.State != DataFlowStateNotTracked {
		return ProcessResult{Record: record, Skipped: true}, nil
	}

	outcome, dispatchErr := s.dispatcher.Dispatch(ctx, req)
	if dispatchErr != nil {
		if !IsNoCapableController(dispatchErr) {
			err = s.mapError(dispatchErr)
			return ProcessResult{Record: record}, err
		}
		outcome = Fatal("", dispatchErr)
	}

	now := s.nowFn()
	record.Attempts++
	result = ProcessResult{Outcome: outcome}

	switch outcome.Status {
	case FlowStatusOK:
		if err = record.TransitionTo(DataFlowStateReceived, "", now); err != nil {
			err = s.mapError(err)
			return ProcessResult{Record: record, Outcome: outcome}, err
		}
		if s.waitStrategy != nil {
			s.waitStrategy.Success()
		}
	case FlowStatusRetryableError:
		maxAttempts := s.config.Retry.MaxAttempts
		if maxAttempts > 0 && record.Attempts >= maxAttempts {
			reason := fmt.Sprintf("retry attempts exhausted after %d attempts: %s", record.Attempts, outcome.Message)
			if err = record.TransitionTo(DataFlowStateFailed, reason, now); err != nil {
				err = s.mapError(err)
				return ProcessResult{Record: record, Outcome: outcome}, err
			}
			fields["retry_exhausted"] = true
			break
		}
		record.LastError = outcome.Message
		record.UpdatedAt = now
		if s.waitStrategy != nil {
			result.RetryIn = s.waitStrategy.RetryIn()
		}
	default:
		reason := outcome.Message
		if outcome.Status != FlowStatusFatalError {
			reason = fmt.Sprintf("unknown flow status %q: %s", outcome.Status, outcome.Message)
		}
		if err = record.TransitionTo(DataFlowStateFailed, reason, now); err != nil {
			err = s.mapError(err)
			return ProcessResult{Record: record, Outcome: outcome}, err
		}
	}

	saved, err := s.transferStore.Save(ctx, record)
	if err != nil {
		err = s.mapError(err)
		return ProcessResult{Record: record, Outcome: outcome}, err
	}
	result.Record = saved
	fields["attempts"] = saved.Attempts
	if outcome.Err != nil {
		fields["outcome_error"] = outcome.Message
	}
	return result, nil
}

// RunWithRetry re-invokes Process while the outcome stays retryable,
// sleeping the strategy delay between attempts. It returns the last result
// once the transfer leaves NotTracked, the attempt cap is reached, or ctx is
// done.
func (s *Service) RunWithRetry(ctx context.Context, req TransferRequest, opts RunOptions) (ProcessResult, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	attempts := 0
	for {
		result, err := s.Process(ctx, req)
		if err != nil {
			return result, err
		}
		attempts++
		if result.Skipped || !result.Outcome.Retryable() || result.Record.State != DataFlowStateNotTracked {
			return result, nil
		}
		if opts.MaxAttempts > 0 && attempts >= opts.MaxAttempts {
			return result, nil
		}
		if err := waitWithContext(ctx, result.RetryIn); err != nil {
			return result, err
		}
	}
}

func (s *Service) Complete(ctx context.Context, id string) (TransferRecord, error) {
	return s.transition(ctx, "complete", id, DataFlowStateCompleted, "")
}

func (s *Service) Fail(ctx context.Context, id string, reason string) (TransferRecord, error) {
	return s.transition(ctx, "fail", id, DataFlowStateFailed, reason)
}

func (s *Service) Notify(ctx context.Context, id string) (TransferRecord, error) {
	return s.transition(ctx, "notify", id, DataFlowStateNotified, "")
}

// State reports the lifecycle state of a transfer. Unknown ids are
// NotTracked.
func (s *Service) State(ctx context.Context, id string) (DataFlowState, error) {
	record, err := s.Record(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return DataFlowStateNotTracked, nil
		}
		return DataFlowStateNotTracked, err
	}
	return record.State, nil
}

func (s *Service) Record(ctx context.Context, id string) (TransferRecord, error) {
	if s == nil || s.transferStore == nil {
		return TransferRecord{}, fmt.Errorf("core: transfer store is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return TransferRecord{}, s.mapError(fmt.Errorf("core: transfer request id is required"))
	}
	record, err := s.transferStore.Get(ctx, id)
	if err != nil {
		return TransferRecord{}, s.mapError(err)
	}
	return record, nil
}

func (s *Service) ListTransfers(ctx context.Context, filter TransferFilter) ([]TransferRecord, error) {
	if s == nil || s.transferStore == nil {
		return nil, fmt.Errorf("core: transfer store is not configured")
	}
	records, err := s.transferStore.List(ctx, filter)
	if err != nil {
		return nil, s.mapError(err)
	}
	return records, nil
}

func (s *Service) transition(
	ctx context.Context,
	operation string,
	id string,
	state DataFlowState,
	reason string,
) (record TransferRecord, err error) {
	startedAt := time.Now().UTC()
	fields := map[string]any{"request_id": strings.TrimSpace(id), "target_state": state.String()}
	defer func() {
		s.observeOperation(ctx, startedAt, operation, err, fields)
	}()

	record, err = s.Record(ctx, id)
	if err != nil {
		return TransferRecord{}, err
	}
	if err = record.TransitionTo(state, reason, s.nowFn()); err != nil {
		err = s.mapError(err)
		return TransferRecord{}, err
	}
	record, err = s.transferStore.Save(ctx, record)
	if err != nil {
		err = s.mapError(err)
		return TransferRecord{}, err
	}
	return record, nil
}

func (s *Service) loadOrCreate(ctx context.Context, req TransferRequest) (TransferRecord, error) {
	record, err := s.transferStore.Get(ctx, req.ID)
	if err == nil {
		return record, nil
	}
	if !IsNotFound(err) {
		return TransferRecord{}, s.mapError(err)
	}
	return NewTransferRecord(req, s.nowFn()), nil
}

func (s *Service) mapError(err error) error {
	if err == nil {
		return nil
	}
	if s == nil || s.errorMapper == nil {
		return err
	}
	mapped := s.errorMapper(err)
	if mapped == nil {
		return err
	}
	return mapped
}

func transferFields(req TransferRequest) map[string]any {
	fields := map[string]any{"request_id": strings.TrimSpace(req.ID)}
	if id := req.DataEntryID(); id != "" {
		fields["data_entry_id"] = id
	}
	if req.DataEntry != nil && strings.TrimSpace(req.DataEntry.PolicyID) != "" {
		fields["policy_id"] = strings.TrimSpace(req.DataEntry.PolicyID)
	}
	if source := req.SourceAddress(); source != nil {
		fields["source_type"] = source.Type
	}
	if req.Destination != nil {
		fields["destination_type"] = req.Destination.Type
	}
	return fields
}

func waitWithContext(ctx context.Context, delay time.Duration) error {
	if delay <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
