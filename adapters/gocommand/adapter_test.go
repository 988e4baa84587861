package gocommand

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/goliatone/go-command"
	jobqueuecommand "github.com/goliatone/go-job/queue/command"

	connectcommand "github.com/goliatone/go-instagram-connect/command"
	"github.com/goliatone/go-instagram-connect/core"
	connectquery "github.com/goliatone/go-instagram-connect/query"
	"github.com/goliatone/go-instagram-connect/relay"
)

type okMessage struct{}

func (okMessage) Type() string { return "connect.command.ok" }

type invalidMessage struct{}

func (invalidMessage) Type() string { return "" }

type failingMessage struct{}

func (failingMessage) Type() string { return "connect.command.fail" }

func (failingMessage) Validate() error { return errors.New("invalid payload") }

type queueMessage struct{}

func (queueMessage) Type() string { return "connect.command.queue" }

type stubService struct{}

func (stubService) Connect(context.Context, core.ConnectRequest) (core.BeginConnectResponse, error) {
	return core.BeginConnectResponse{URL: "https://facebook.example/dialog", State: "st"}, nil
}

func (stubService) CompleteCallback(context.Context, core.CallbackRequest) (core.CallbackResult, error) {
	return core.CallbackResult{Status: core.FlowStatusComplete, UserID: "user_1"}, nil
}

func (stubService) DisconnectUser(context.Context, string) (bool, error) {
	return true, nil
}

func (stubService) AccountForUser(context.Context, string) (core.Account, error) {
	return core.Account{UserID: "user_1"}, nil
}

func (stubService) ListAccounts(context.Context) ([]core.AccountSnapshot, error) {
	return nil, nil
}

type stubRelayRunner struct{}

func (stubRelayRunner) Run(context.Context, relay.Request) (json.RawMessage, error) {
	return json.RawMessage(`{}`), nil
}

func TestValidateMessageContract(t *testing.T) {
	if err := ValidateMessageContract(okMessage{}); err != nil {
		t.Fatalf("expected valid message, got %v", err)
	}
	if err := ValidateMessageContract(invalidMessage{}); err == nil {
		t.Fatalf("expected empty type to fail contract validation")
	}
	if err := ValidateMessageContract(failingMessage{}); err == nil {
		t.Fatalf("expected Validate() failure to bubble")
	}
}

func TestRegisterConnectHandlers_WiresFullSurface(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())

	subscriptions, err := RegisterConnectHandlers(adapter, ConnectHandlers{
		Mutations: stubService{},
		Reads:     stubService{},
		Relay:     stubRelayRunner{},
	})
	if err != nil {
		t.Fatalf("register handlers: %v", err)
	}
	defer func() {
		for _, subscription := range subscriptions {
			subscription.Unsubscribe()
		}
	}()
	if len(subscriptions) != 6 {
		t.Fatalf("expected 6 subscriptions, got %d", len(subscriptions))
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	if err := Dispatch(context.Background(), connectcommand.DisconnectMessage{UserID: "user_1"}); err != nil {
		t.Fatalf("dispatch disconnect: %v", err)
	}

	account, err := Query[connectquery.GetAccountMessage, core.Account](
		context.Background(),
		connectquery.GetAccountMessage{UserID: "user_1"},
	)
	if err != nil {
		t.Fatalf("query account: %v", err)
	}
	if account.UserID != "user_1" {
		t.Fatalf("unexpected account %#v", account)
	}
}

func TestRegisterConnectHandlers_RequiresDependencies(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	if _, err := RegisterConnectHandlers(adapter, ConnectHandlers{Reads: stubService{}}); err == nil {
		t.Fatalf("expected missing mutating service error")
	}
	if _, err := RegisterConnectHandlers(adapter, ConnectHandlers{Mutations: stubService{}}); err == nil {
		t.Fatalf("expected missing reader error")
	}
}

func TestQueueResolverHookWiring(t *testing.T) {
	adapter := NewRegistryAdapter(command.NewRegistry())
	queueRegistry := jobqueuecommand.NewRegistry()

	cmd := command.CommandFunc[queueMessage](func(context.Context, queueMessage) error { return nil })

	if err := adapter.AddQueueResolver("queue", queueRegistry); err != nil {
		t.Fatalf("add queue resolver: %v", err)
	}
	if err := adapter.RegisterCommand(cmd); err != nil {
		t.Fatalf("register command: %v", err)
	}
	if err := adapter.Initialize(); err != nil {
		t.Fatalf("initialize registry: %v", err)
	}

	if _, ok := queueRegistry.Get("connect.command.queue"); !ok {
		t.Fatalf("expected command to be mirrored into queue registry")
	}
}
