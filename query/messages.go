package query

import (
	"net/url"
	"strings"
)

const (
	TypeGetAccount   = "connect.query.account.get"
	TypeListAccounts = "connect.query.account.list"
	TypeRelay        = "connect.query.relay.run"
)

type GetAccountMessage struct {
	UserID string
}

func (GetAccountMessage) Type() string { return TypeGetAccount }

func (m GetAccountMessage) Validate() error {
	if strings.TrimSpace(m.UserID) == "" {
		return queryValidationError("user_id", "user id is required")
	}
	return nil
}

type ListAccountsMessage struct{}

func (ListAccountsMessage) Type() string { return TypeListAccounts }

type RelayMessage struct {
	UserID    string
	Operation string
	MediaID   string
	Params    url.Values
}

func (RelayMessage) Type() string { return TypeRelay }

func (m RelayMessage) Validate() error {
	if strings.TrimSpace(m.UserID) == "" {
		return queryValidationError("user_id", "user id is required")
	}
	if strings.TrimSpace(m.Operation) == "" {
		return queryValidationError("operation", "operation name is required")
	}
	return nil
}
