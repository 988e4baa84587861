// Package gocommand wires the connect commands and queries into the
// go-command registry and dispatcher so hosts can drive the service through
// typed messages.
package gocommand

import (
	"context"
	"fmt"
	"strings"

	"github.com/goliatone/go-command"
	commanddispatcher "github.com/goliatone/go-command/dispatcher"
	"github.com/goliatone/go-command/runner"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"

	connectcommand "github.com/goliatone/go-instagram-connect/command"
	connectquery "github.com/goliatone/go-instagram-connect/query"
)

// ValidateMessageContract enforces Type() plus optional Validate() contract.
func ValidateMessageContract(msg any) error {
	if err := command.ValidateMessage(msg); err != nil {
		return err
	}
	m, ok := msg.(command.Message)
	if !ok {
		return fmt.Errorf("gocommand: message must implement Type() string")
	}
	if strings.TrimSpace(m.Type()) == "" {
		return fmt.Errorf("gocommand: message type is required")
	}
	return nil
}

type RegistryAdapter struct {
	registry *command.Registry
}

func NewRegistryAdapter(registry *command.Registry) *RegistryAdapter {
	if registry == nil {
		registry = command.NewRegistry()
	}
	return &RegistryAdapter{registry: registry}
}

func (a *RegistryAdapter) Registry() *command.Registry {
	if a == nil {
		return nil
	}
	return a.registry
}

func (a *RegistryAdapter) RegisterCommand(cmd any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(cmd)
}

func (a *RegistryAdapter) RegisterQuery(qry any) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.RegisterCommand(qry)
}

func (a *RegistryAdapter) AddResolver(key string, resolver command.Resolver) error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.AddResolver(strings.TrimSpace(key), resolver)
}

func (a *RegistryAdapter) AddQueueResolver(key string, queueRegistry *jobqueuecommand.Registry) error {
	if queueRegistry == nil {
		return fmt.Errorf("gocommand: queue registry is required")
	}
	return a.AddResolver(key, jobqueuecommand.QueueResolver(queueRegistry))
}

func (a *RegistryAdapter) HasResolver(key string) bool {
	if a == nil || a.registry == nil {
		return false
	}
	return a.registry.HasResolver(strings.TrimSpace(key))
}

func (a *RegistryAdapter) Initialize() error {
	if a == nil || a.registry == nil {
		return fmt.Errorf("gocommand: registry is not configured")
	}
	return a.registry.Initialize()
}

func SubscribeCommand[T any](cmd command.Commander[T], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeCommand(cmd, runnerOpts...)
}

func SubscribeQuery[T any, R any](qry command.Querier[T, R], runnerOpts ...runner.Option) commanddispatcher.Subscription {
	return commanddispatcher.SubscribeQuery(qry, runnerOpts...)
}

func Dispatch[T any](ctx context.Context, msg T) error {
	return commanddispatcher.Dispatch(ctx, msg)
}

func Query[T any, R any](ctx context.Context, msg T) (R, error) {
	return commanddispatcher.Query[T, R](ctx, msg)
}

func RegisterAndSubscribe[T any](
	adapter *RegistryAdapter,
	cmd command.Commander[T],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if cmd == nil {
		return nil, fmt.Errorf("gocommand: command is required")
	}
	subscription := SubscribeCommand(cmd, runnerOpts...)
	if err := adapter.RegisterCommand(cmd); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

func RegisterAndSubscribeQuery[T any, R any](
	adapter *RegistryAdapter,
	qry command.Querier[T, R],
	runnerOpts ...runner.Option,
) (commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if qry == nil {
		return nil, fmt.Errorf("gocommand: query is required")
	}
	subscription := SubscribeQuery(qry, runnerOpts...)
	if err := adapter.RegisterQuery(qry); err != nil {
		if subscription != nil {
			subscription.Unsubscribe()
		}
		return nil, err
	}
	return subscription, nil
}

// ConnectHandlers is the dependency set for RegisterConnectHandlers.
type ConnectHandlers struct {
	Mutations connectcommand.MutatingService
	Reads     connectquery.AccountReader
	Relay     connectquery.RelayRunner
}

// RegisterConnectHandlers registers the full command/query surface of the
// connect service and returns the live subscriptions. Relay registration is
// skipped when no runner is supplied.
func RegisterConnectHandlers(
	adapter *RegistryAdapter,
	handlers ConnectHandlers,
	runnerOpts ...runner.Option,
) ([]commanddispatcher.Subscription, error) {
	if adapter == nil || adapter.registry == nil {
		return nil, fmt.Errorf("gocommand: registry is not configured")
	}
	if handlers.Mutations == nil {
		return nil, fmt.Errorf("gocommand: mutating service is required")
	}
	if handlers.Reads == nil {
		return nil, fmt.Errorf("gocommand: account reader is required")
	}

	var subscriptions []commanddispatcher.Subscription
	unsubscribeAll := func() {
		for _, subscription := range subscriptions {
			if subscription != nil {
				subscription.Unsubscribe()
			}
		}
	}

	connectSub, err := RegisterAndSubscribe(adapter, connectcommand.NewConnectCommand(handlers.Mutations), runnerOpts...)
	if err != nil {
		return nil, err
	}
	subscriptions = append(subscriptions, connectSub)

	callbackSub, err := RegisterAndSubscribe(adapter, connectcommand.NewCompleteCallbackCommand(handlers.Mutations), runnerOpts...)
	if err != nil {
		unsubscribeAll()
		return nil, err
	}
	subscriptions = append(subscriptions, callbackSub)

	disconnectSub, err := RegisterAndSubscribe(adapter, connectcommand.NewDisconnectCommand(handlers.Mutations), runnerOpts...)
	if err != nil {
		unsubscribeAll()
		return nil, err
	}
	subscriptions = append(subscriptions, disconnectSub)

	getSub, err := RegisterAndSubscribeQuery(adapter, connectquery.NewGetAccountQuery(handlers.Reads), runnerOpts...)
	if err != nil {
		unsubscribeAll()
		return nil, err
	}
	subscriptions = append(subscriptions, getSub)

	listSub, err := RegisterAndSubscribeQuery(adapter, connectquery.NewListAccountsQuery(handlers.Reads), runnerOpts...)
	if err != nil {
		unsubscribeAll()
		return nil, err
	}
	subscriptions = append(subscriptions, listSub)

	if handlers.Relay != nil {
		relaySub, relayErr := RegisterAndSubscribeQuery(adapter, connectquery.NewRelayQuery(handlers.Relay), runnerOpts...)
		if relayErr != nil {
			unsubscribeAll()
			return nil, relayErr
		}
		subscriptions = append(subscriptions, relaySub)
	}

	return subscriptions, nil
}
