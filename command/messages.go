package command

import (
	"strings"

	"github.com/goliatone/go-instagram-connect/core"
)

const (
	TypeConnect          = "connect.command.connect"
	TypeCompleteCallback = "connect.command.callback.complete"
	TypeDisconnect       = "connect.command.disconnect"
)

type ConnectMessage struct {
	Request core.ConnectRequest
}

func (ConnectMessage) Type() string { return TypeConnect }

func (ConnectMessage) Validate() error { return nil }

type CompleteCallbackMessage struct {
	Request core.CallbackRequest
}

func (CompleteCallbackMessage) Type() string { return TypeCompleteCallback }

func (m CompleteCallbackMessage) Validate() error {
	// Denials are valid input; the orchestrator turns them into a failed
	// flow with the upstream reason attached.
	if m.Request.Denied() {
		return nil
	}
	if strings.TrimSpace(m.Request.Code) == "" {
		return commandValidationError("code", "authorization code is required")
	}
	if strings.TrimSpace(m.Request.State) == "" {
		return commandValidationError("state", "state token is required")
	}
	return nil
}

type DisconnectMessage struct {
	UserID string
}

func (DisconnectMessage) Type() string { return TypeDisconnect }

func (m DisconnectMessage) Validate() error {
	if strings.TrimSpace(m.UserID) == "" {
		return commandValidationError("user_id", "user id is required")
	}
	return nil
}
