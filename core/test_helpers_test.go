package core

import (
	"context"
	"net/url"
	"testing"
)

type fakeGraphClient struct {
	shortLived TokenPayload
	longLived  TokenPayload
	identity   Identity
	pages      []ManagedPage

	exchangeErr error
	upgradeErr  error
	identityErr error
	pagesErr    error

	calls []string
}

func (c *fakeGraphClient) AuthorizationURL(state string) (string, error) {
	values := url.Values{}
	values.Set("client_id", "app_1")
	values.Set("redirect_uri", "https://app.example/callback")
	values.Set("scope", "instagram_basic")
	values.Set("response_type", "code")
	values.Set("state", state)
	return "https://www.facebook.com/v23.0/dialog/oauth?" + values.Encode(), nil
}

func (c *fakeGraphClient) ExchangeCode(_ context.Context, code string) (TokenPayload, error) {
	c.calls = append(c.calls, "exchange_code:"+code)
	if c.exchangeErr != nil {
		return TokenPayload{}, c.exchangeErr
	}
	return c.shortLived, nil
}

func (c *fakeGraphClient) ExchangeLongLived(_ context.Context, token string) (TokenPayload, error) {
	c.calls = append(c.calls, "exchange_long_lived:"+token)
	if c.upgradeErr != nil {
		return TokenPayload{}, c.upgradeErr
	}
	return c.longLived, nil
}

func (c *fakeGraphClient) Identity(_ context.Context, token string) (Identity, error) {
	c.calls = append(c.calls, "identity:"+token)
	if c.identityErr != nil {
		return Identity{}, c.identityErr
	}
	return c.identity, nil
}

func (c *fakeGraphClient) ManagedPages(_ context.Context, token string) ([]ManagedPage, error) {
	c.calls = append(c.calls, "managed_pages:"+token)
	if c.pagesErr != nil {
		return nil, c.pagesErr
	}
	return append([]ManagedPage(nil), c.pages...), nil
}

func defaultFakeGraphClient() *fakeGraphClient {
	return &fakeGraphClient{
		shortLived: TokenPayload{AccessToken: "A", TokenType: "bearer", ExpiresIn: 3600},
		longLived:  TokenPayload{AccessToken: "B", TokenType: "bearer", ExpiresIn: 5184000},
		identity:   Identity{ID: "user_1", Name: "Test User"},
		pages: []ManagedPage{
			{ID: "page_1", Name: "First Page", AccessToken: "page_token_1", BusinessAccountID: "ig_1"},
			{ID: "page_2", Name: "Second Page", AccessToken: "page_token_2", BusinessAccountID: "ig_2"},
		},
	}
}

func newTestService(t *testing.T, graphClient GraphClient, options ...Option) *Service {
	t.Helper()
	combined := append([]Option{WithGraphClient(graphClient)}, options...)
	svc, err := NewService(Config{}, combined...)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc
}

var _ GraphClient = (*fakeGraphClient)(nil)
