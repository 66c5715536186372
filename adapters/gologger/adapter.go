// Package gologger bridges go-logger providers into the dataflow service
// and the go-job worker.
package gologger

import (
	"strings"

	"github.com/goliatone/go-dataflow/adapters/gojob"
	"github.com/goliatone/go-dataflow/core"

	job "github.com/goliatone/go-job"
	glog "github.com/goliatone/go-logger/glog"
)

const (
	DefaultLoggerName = "dataflow"
	JobsLoggerName    = "dataflow.jobs"
)

// Resolve uses deterministic precedence provider > logger > nop. A blank name
// resolves the dataflow logger.
func Resolve(name string, provider glog.LoggerProvider, logger glog.Logger) (glog.LoggerProvider, glog.Logger) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultLoggerName
	}
	return glog.Resolve(name, provider, logger)
}

// ServiceOptions returns the core options that install the resolved logger
// on a dataflow service.
func ServiceOptions(provider glog.LoggerProvider, logger glog.Logger) []core.Option {
	resolvedProvider, resolvedLogger := Resolve(DefaultLoggerName, provider, logger)
	return []core.Option{
		core.WithLoggerProvider(resolvedProvider),
		core.WithLogger(resolvedLogger),
	}
}

// ToJobProvider maps a glog provider to the go-job logger provider contract.
func ToJobProvider(provider glog.LoggerProvider) job.LoggerProvider {
	if provider == nil {
		return nil
	}
	return job.GoLoggerProvider(provider)
}

// ToJobLogger maps a glog logger to the go-job logger contract.
func ToJobLogger(logger glog.Logger) job.Logger {
	if logger == nil {
		return nil
	}
	return job.GoLogger(logger)
}

// ResolveForJob resolves glog logger/provider then returns equivalent go-job adapters.
func ResolveForJob(
	name string,
	provider glog.LoggerProvider,
	logger glog.Logger,
) (glog.LoggerProvider, glog.Logger, job.LoggerProvider, job.Logger) {
	resolvedProvider, resolvedLogger := Resolve(name, provider, logger)
	return resolvedProvider, resolvedLogger, ToJobProvider(resolvedProvider), ToJobLogger(resolvedLogger)
}

// NewWorkerHook returns a transfer job hook that logs through the
// dataflow.jobs logger.
func NewWorkerHook(provider glog.LoggerProvider, logger glog.Logger) *gojob.WorkerHookAdapter {
	_, resolved := Resolve(JobsLoggerName, provider, logger)
	return gojob.NewWorkerHookAdapter(glog.Ensure(resolved))
}
