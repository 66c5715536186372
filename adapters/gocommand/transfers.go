package gocommand

import (
	"fmt"

	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	datacommand "github.com/goliatone/go-dataflow/command"
	"github.com/goliatone/go-dataflow/core"
	"github.com/goliatone/go-dataflow/query"
)

// TransferBackend is the service surface behind the transfer commands and
// queries; core.Service satisfies it.
type TransferBackend interface {
	datacommand.TransferService
	query.TransferReader
}

// RegisterTransferHandlers registers and subscribes every transfer command
// and query. On failure the subscriptions made so far are released.
func RegisterTransferHandlers(
	adapter *RegistryAdapter,
	backend TransferBackend,
	runnerOpts ...runner.Option,
) ([]commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if backend == nil {
		return nil, fmt.Errorf("gocommand: transfer backend is required")
	}

	subscriptions := make([]commanddispatcher.Subscription, 0, 8)
	track := func(subscription commanddispatcher.Subscription, err error) error {
		if err != nil {
			return err
		}
		subscriptions = append(subscriptions, subscription)
		return nil
	}
	steps := []func() error{
		func() error {
			return track(RegisterAndSubscribe[datacommand.InitiateTransferMessage](adapter, datacommand.NewInitiateTransferCommand(backend), runnerOpts...))
		},
		func() error {
			return track(RegisterAndSubscribe[datacommand.RunTransferMessage](adapter, datacommand.NewRunTransferCommand(backend), runnerOpts...))
		},
		func() error {
			return track(RegisterAndSubscribe[datacommand.CompleteTransferMessage](adapter, datacommand.NewCompleteTransferCommand(backend), runnerOpts...))
		},
		func() error {
			return track(RegisterAndSubscribe[datacommand.FailTransferMessage](adapter, datacommand.NewFailTransferCommand(backend), runnerOpts...))
		},
		func() error {
			return track(RegisterAndSubscribe[datacommand.NotifyTransferMessage](adapter, datacommand.NewNotifyTransferCommand(backend), runnerOpts...))
		},
		func() error {
			return track(RegisterAndSubscribeQuery[query.GetTransferStateMessage, core.DataFlowState](adapter, query.NewGetTransferStateQuery(backend), runnerOpts...))
		},
		func() error {
			return track(RegisterAndSubscribeQuery[query.GetTransferMessage, core.TransferRecord](adapter, query.NewGetTransferQuery(backend), runnerOpts...))
		},
		func() error {
			return track(RegisterAndSubscribeQuery[query.ListTransfersMessage, []core.TransferRecord](adapter, query.NewListTransfersQuery(backend), runnerOpts...))
		},
	}
	for _, step := range steps {
		if err := step(); err != nil {
			Unsubscribe(subscriptions)
			return nil, err
		}
	}
	return subscriptions, nil
}

// Unsubscribe releases every non-nil subscription.
func Unsubscribe(subscriptions []commanddispatcher.Subscription) {
	for _, subscription := range subscriptions {
		if subscription != nil {
			subscription.Unsubscribe()
		}
	}
}
