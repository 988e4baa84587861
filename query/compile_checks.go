package query

import (
	"encoding/json"

	gocmd "github.com/goliatone/go-command"

	"github.com/goliatone/go-instagram-connect/core"
)

var (
	_ gocmd.Querier[GetAccountMessage, core.Account]             = (*GetAccountQuery)(nil)
	_ gocmd.Querier[ListAccountsMessage, []core.AccountSnapshot] = (*ListAccountsQuery)(nil)
	_ gocmd.Querier[RelayMessage, json.RawMessage]               = (*RelayQuery)(nil)
)
