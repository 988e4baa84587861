package command

import (
	"context"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-instagram-connect/core"
)

// MutatingService is the slice of the orchestrator the commands drive.
type MutatingService interface {
	Connect(ctx context.Context, req core.ConnectRequest) (core.BeginConnectResponse, error)
	CompleteCallback(ctx context.Context, req core.CallbackRequest) (core.CallbackResult, error)
	DisconnectUser(ctx context.Context, userID string) (bool, error)
}

type ConnectCommand struct {
	service MutatingService
}

func NewConnectCommand(service MutatingService) *ConnectCommand {
	return &ConnectCommand{service: service}
}

func (c *ConnectCommand) Execute(ctx context.Context, msg ConnectMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: connect service is required")
	}
	out, err := c.service.Connect(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type CompleteCallbackCommand struct {
	service MutatingService
}

func NewCompleteCallbackCommand(service MutatingService) *CompleteCallbackCommand {
	return &CompleteCallbackCommand{service: service}
}

func (c *CompleteCallbackCommand) Execute(ctx context.Context, msg CompleteCallbackMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: callback service is required")
	}
	out, err := c.service.CompleteCallback(ctx, msg.Request)
	if err != nil {
		return err
	}
	storeResult(ctx, out)
	return nil
}

type DisconnectCommand struct {
	service MutatingService
}

func NewDisconnectCommand(service MutatingService) *DisconnectCommand {
	return &DisconnectCommand{service: service}
}

func (c *DisconnectCommand) Execute(ctx context.Context, msg DisconnectMessage) error {
	if c == nil || c.service == nil {
		return commandDependencyError("command: disconnect service is required")
	}
	removed, err := c.service.DisconnectUser(ctx, msg.UserID)
	if err != nil {
		return err
	}
	storeResult(ctx, removed)
	return nil
}

func storeResult[T any](ctx context.Context, value T) {
	collector := gocmd.ResultFromContext[T](ctx)
	if collector == nil {
		return
	}
	collector.Store(value)
}
