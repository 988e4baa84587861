package query

import (
	"context"
	"encoding/json"

	"github.com/goliatone/go-instagram-connect/core"
	"github.com/goliatone/go-instagram-connect/relay"
)

// AccountReader is the read-only slice of the orchestrator.
type AccountReader interface {
	AccountForUser(ctx context.Context, userID string) (core.Account, error)
	ListAccounts(ctx context.Context) ([]core.AccountSnapshot, error)
}

// RelayRunner dispatches one catalog operation for a connected user.
type RelayRunner interface {
	Run(ctx context.Context, req relay.Request) (json.RawMessage, error)
}

type GetAccountQuery struct {
	reader AccountReader
}

func NewGetAccountQuery(reader AccountReader) *GetAccountQuery {
	return &GetAccountQuery{reader: reader}
}

func (q *GetAccountQuery) Query(ctx context.Context, msg GetAccountMessage) (core.Account, error) {
	if q == nil || q.reader == nil {
		return core.Account{}, queryDependencyError("query: account reader is required")
	}
	return q.reader.AccountForUser(ctx, msg.UserID)
}

type ListAccountsQuery struct {
	reader AccountReader
}

func NewListAccountsQuery(reader AccountReader) *ListAccountsQuery {
	return &ListAccountsQuery{reader: reader}
}

func (q *ListAccountsQuery) Query(ctx context.Context, msg ListAccountsMessage) ([]core.AccountSnapshot, error) {
	if q == nil || q.reader == nil {
		return nil, queryDependencyError("query: account reader is required")
	}
	return q.reader.ListAccounts(ctx)
}

type RelayQuery struct {
	runner RelayRunner
}

func NewRelayQuery(runner RelayRunner) *RelayQuery {
	return &RelayQuery{runner: runner}
}

func (q *RelayQuery) Query(ctx context.Context, msg RelayMessage) (json.RawMessage, error) {
	if q == nil || q.runner == nil {
		return nil, queryDependencyError("query: relay runner is required")
	}
	return q.runner.Run(ctx, relay.Request{
		UserID:    msg.UserID,
		Operation: msg.Operation,
		MediaID:   msg.MediaID,
		Params:    msg.Params,
	})
}
