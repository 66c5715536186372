package core

import glog "github.com/goliatone/go-logger/glog"

var (
	_ ControllerDispatcher = (*ControllerRegistry)(nil)
	_ FlowController       = ControllerFunc{}
	_ TransferStore        = (*MemoryTransferStore)(nil)
	_ WaitStrategy         = WaitStrategyFunc(nil)
	_ WaitStrategy         = FixedWaitStrategy{}
	_ WaitStrategy         = (*ExponentialWaitStrategy)(nil)
	_ MetricsRecorder      = NopMetricsRecorder{}

	_ Logger         = glog.Nop()
	_ LoggerProvider = glog.ProviderFromLogger(glog.Nop())
)
