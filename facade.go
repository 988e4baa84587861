package instagramconnect

import (
	"fmt"

	connectcommand "github.com/goliatone/go-instagram-connect/command"
	"github.com/goliatone/go-instagram-connect/core"
	connectquery "github.com/goliatone/go-instagram-connect/query"
	"github.com/goliatone/go-instagram-connect/relay"
)

// CommandQueryService is the surface the facade wraps: the mutating flow
// operations plus the read side.
type CommandQueryService interface {
	connectcommand.MutatingService
	connectquery.AccountReader
}

type Commands struct {
	Connect          *connectcommand.ConnectCommand
	CompleteCallback *connectcommand.CompleteCallbackCommand
	Disconnect       *connectcommand.DisconnectCommand
}

type Queries struct {
	GetAccount   *connectquery.GetAccountQuery
	ListAccounts *connectquery.ListAccountsQuery
	Relay        *connectquery.RelayQuery
}

// Facade bundles the command and query handlers for a single service so
// callers can wire the whole surface into a dispatcher in one step.
type Facade struct {
	service  CommandQueryService
	commands Commands
	queries  Queries
}

type FacadeOption func(*facadeOptions)

type facadeOptions struct {
	relayRunner connectquery.RelayRunner
}

// WithRelayRunner supplies the runner backing the relay query. Without one
// the facade tries to build a runner from the service's own dependencies.
func WithRelayRunner(runner connectquery.RelayRunner) FacadeOption {
	return func(options *facadeOptions) {
		options.relayRunner = runner
	}
}

func NewFacade(service CommandQueryService, opts ...FacadeOption) (*Facade, error) {
	if service == nil {
		return nil, fmt.Errorf("instagramconnect: command/query service is required")
	}
	cfg := facadeOptions{}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(&cfg)
	}

	runner := cfg.relayRunner
	if runner == nil {
		runner = resolveRelayRunner(service)
	}

	facade := &Facade{service: service}
	facade.commands = Commands{
		Connect:          connectcommand.NewConnectCommand(service),
		CompleteCallback: connectcommand.NewCompleteCallbackCommand(service),
		Disconnect:       connectcommand.NewDisconnectCommand(service),
	}
	facade.queries = Queries{
		GetAccount:   connectquery.NewGetAccountQuery(service),
		ListAccounts: connectquery.NewListAccountsQuery(service),
	}
	if runner != nil {
		facade.queries.Relay = connectquery.NewRelayQuery(runner)
	}

	return facade, nil
}

func (f *Facade) Commands() Commands {
	if f == nil {
		return Commands{}
	}
	return f.commands
}

func (f *Facade) Queries() Queries {
	if f == nil {
		return Queries{}
	}
	return f.queries
}

func (f *Facade) Service() CommandQueryService {
	if f == nil {
		return nil
	}
	return f.service
}

// resolveRelayRunner builds a relay runner out of the service's own token
// store and graph client when the client can perform generic fetches.
func resolveRelayRunner(service CommandQueryService) connectquery.RelayRunner {
	if runner, ok := service.(connectquery.RelayRunner); ok {
		return runner
	}
	provider, ok := service.(interface {
		Dependencies() core.ServiceDependencies
	})
	if !ok {
		return nil
	}
	deps := provider.Dependencies()
	if deps.TokenStore == nil || deps.GraphClient == nil {
		return nil
	}
	fetcher, ok := deps.GraphClient.(relay.Fetcher)
	if !ok {
		return nil
	}

	var runnerOpts []relay.RunnerOption
	if deps.Logger != nil {
		runnerOpts = append(runnerOpts, relay.WithLogger(deps.Logger))
	}
	if deps.MetricsRecorder != nil {
		runnerOpts = append(runnerOpts, relay.WithMetricsRecorder(deps.MetricsRecorder))
	}
	runner, err := relay.NewRunner(deps.TokenStore, fetcher, runnerOpts...)
	if err != nil {
		return nil
	}
	return runner
}
