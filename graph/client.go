// Package graph implements the Facebook Graph API boundary: the
// authorization-code exchanges, the identity and managed-page lookups, and a
// generic fetch used by the relay operations.
package graph

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/goliatone/go-instagram-connect/core"
)

const (
	DefaultAuthURL  = "https://www.facebook.com/v23.0/dialog/oauth"
	DefaultTokenURL = "https://graph.facebook.com/v23.0/oauth/access_token"
	DefaultGraphURL = "https://graph.facebook.com/v23.0"
)

const (
	defaultRequestTimeout = 30 * time.Second
	maxResponseBodyBytes  = 1 << 20 // 1 MiB
)

type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

type Config struct {
	ClientID       string
	ClientSecret   string
	RedirectURI    string
	Scopes         []string
	AuthURL        string
	TokenURL       string
	GraphURL       string
	RequestTimeout time.Duration
	HTTPClient     HTTPDoer
}

// Client talks to the Graph API. All calls are plain GETs; the token
// endpoint takes credentials as query parameters, which is how Facebook's
// server-side flow is documented.
type Client struct {
	cfg        Config
	httpClient HTTPDoer
}

func NewClient(cfg Config) (*Client, error) {
	cfg.ClientID = strings.TrimSpace(cfg.ClientID)
	cfg.ClientSecret = strings.TrimSpace(cfg.ClientSecret)
	cfg.RedirectURI = strings.TrimSpace(cfg.RedirectURI)
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("graph: client id is required")
	}
	if cfg.ClientSecret == "" {
		return nil, fmt.Errorf("graph: client secret is required")
	}
	if cfg.RedirectURI == "" {
		return nil, fmt.Errorf("graph: redirect uri is required")
	}

	cfg.AuthURL = strings.TrimSpace(cfg.AuthURL)
	if cfg.AuthURL == "" {
		cfg.AuthURL = DefaultAuthURL
	}
	cfg.TokenURL = strings.TrimSpace(cfg.TokenURL)
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	cfg.GraphURL = strings.TrimRight(strings.TrimSpace(cfg.GraphURL), "/")
	if cfg.GraphURL == "" {
		cfg.GraphURL = DefaultGraphURL
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = defaultRequestTimeout
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.RequestTimeout}
	}

	return &Client{cfg: cfg, httpClient: httpClient}, nil
}

// AuthorizationURL builds the login dialog URL carrying the issued state.
func (c *Client) AuthorizationURL(state string) (string, error) {
	if c == nil {
		return "", fmt.Errorf("graph: client is nil")
	}
	state = strings.TrimSpace(state)
	if state == "" {
		return "", fmt.Errorf("graph: state is required")
	}

	values := url.Values{}
	values.Set("client_id", c.cfg.ClientID)
	values.Set("redirect_uri", c.cfg.RedirectURI)
	if len(c.cfg.Scopes) > 0 {
		values.Set("scope", strings.Join(c.cfg.Scopes, ","))
	}
	values.Set("response_type", "code")
	values.Set("state", state)

	authURL := c.cfg.AuthURL
	if strings.Contains(authURL, "?") {
		return authURL + "&" + values.Encode(), nil
	}
	return authURL + "?" + values.Encode(), nil
}

// ExchangeCode trades the callback code for a short-lived user token.
func (c *Client) ExchangeCode(ctx context.Context, code string) (core.TokenPayload, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return core.TokenPayload{}, fmt.Errorf("graph: auth code is required")
	}

	values := url.Values{}
	values.Set("client_id", c.cfg.ClientID)
	values.Set("client_secret", c.cfg.ClientSecret)
	values.Set("redirect_uri", c.cfg.RedirectURI)
	values.Set("code", code)

	return c.fetchToken(ctx, values)
}

// ExchangeLongLived upgrades a short-lived token to a long-lived one.
func (c *Client) ExchangeLongLived(ctx context.Context, token string) (core.TokenPayload, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return core.TokenPayload{}, fmt.Errorf("graph: access token is required")
	}

	values := url.Values{}
	values.Set("grant_type", "fb_exchange_token")
	values.Set("client_id", c.cfg.ClientID)
	values.Set("client_secret", c.cfg.ClientSecret)
	values.Set("fb_exchange_token", token)

	return c.fetchToken(ctx, values)
}

// Identity resolves the token holder via /me.
func (c *Client) Identity(ctx context.Context, token string) (core.Identity, error) {
	params := url.Values{}
	params.Set("fields", "id,name")
	body, err := c.Fetch(ctx, "me", token, params)
	if err != nil {
		return core.Identity{}, err
	}

	var decoded struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return core.Identity{}, fmt.Errorf("graph: decode identity response: %w", err)
	}
	if strings.TrimSpace(decoded.ID) == "" {
		return core.Identity{}, fmt.Errorf("graph: identity response missing id")
	}
	return core.Identity{ID: decoded.ID, Name: decoded.Name}, nil
}

// ManagedPages lists the pages the token holder manages, each annotated with
// its linked Instagram business account when one exists.
func (c *Client) ManagedPages(ctx context.Context, token string) ([]core.ManagedPage, error) {
	params := url.Values{}
	params.Set("fields", "id,name,access_token,instagram_business_account")
	body, err := c.Fetch(ctx, "me/accounts", token, params)
	if err != nil {
		return nil, err
	}

	var decoded struct {
		Data []struct {
			ID          string `json:"id"`
			Name        string `json:"name"`
			AccessToken string `json:"access_token"`
			Business    *struct {
				ID string `json:"id"`
			} `json:"instagram_business_account"`
		} `json:"data"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("graph: decode accounts response: %w", err)
	}

	pages := make([]core.ManagedPage, 0, len(decoded.Data))
	for _, page := range decoded.Data {
		mapped := core.ManagedPage{
			ID:          page.ID,
			Name:        page.Name,
			AccessToken: page.AccessToken,
		}
		if page.Business != nil {
			mapped.BusinessAccountID = page.Business.ID
		}
		pages = append(pages, mapped)
	}
	return pages, nil
}

// Fetch performs an authenticated GET against a Graph path and returns the
// raw response body. Relay operations go through here.
func (c *Client) Fetch(ctx context.Context, path string, token string, params url.Values) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("graph: client is nil")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, fmt.Errorf("graph: access token is required")
	}
	path = strings.Trim(strings.TrimSpace(path), "/")
	if path == "" {
		return nil, fmt.Errorf("graph: path is required")
	}

	values := url.Values{}
	for key, items := range params {
		if strings.TrimSpace(key) == "" {
			continue
		}
		for _, item := range items {
			values.Add(key, item)
		}
	}
	values.Set("access_token", token)

	body, _, err := c.get(ctx, c.cfg.GraphURL+"/"+path+"?"+values.Encode())
	return body, err
}

func (c *Client) fetchToken(ctx context.Context, values url.Values) (core.TokenPayload, error) {
	if c == nil {
		return core.TokenPayload{}, fmt.Errorf("graph: client is nil")
	}

	body, contentType, err := c.get(ctx, c.cfg.TokenURL+"?"+values.Encode())
	if err != nil {
		return core.TokenPayload{}, err
	}

	payload, parseErr := parseTokenPayload(body, contentType)
	if parseErr != nil {
		return core.TokenPayload{}, fmt.Errorf("graph: decode token response: %w", parseErr)
	}
	if strings.TrimSpace(payload.AccessToken) == "" {
		return core.TokenPayload{}, fmt.Errorf("graph: token endpoint response missing access token")
	}
	return payload, nil
}

func (c *Client) get(ctx context.Context, rawURL string) ([]byte, string, error) {
	if c.httpClient == nil {
		return nil, "", fmt.Errorf("graph: http client is not configured")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	requestCtx := ctx
	cancel := func() {}
	if c.cfg.RequestTimeout > 0 {
		requestCtx, cancel = context.WithTimeout(ctx, c.cfg.RequestTimeout)
	}
	defer cancel()

	httpReq, err := http.NewRequestWithContext(requestCtx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, "", err
	}
	httpReq.Header.Set("Accept", "application/json")

	response, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, "", fmt.Errorf("graph: request failed: %w", err)
	}
	defer response.Body.Close()

	body, readErr := io.ReadAll(io.LimitReader(response.Body, maxResponseBodyBytes+1))
	if readErr != nil {
		return nil, "", fmt.Errorf("graph: read response: %w", readErr)
	}
	if int64(len(body)) > maxResponseBodyBytes {
		return nil, "", fmt.Errorf("graph: response exceeds %d bytes", maxResponseBodyBytes)
	}

	contentType := response.Header.Get("Content-Type")
	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		return nil, "", fmt.Errorf(
			"graph: endpoint error (%d): %s",
			response.StatusCode,
			describeGraphError(body),
		)
	}
	return body, contentType, nil
}

// Graph failures arrive as {"error":{"message","type","code"}}.
type errorEnvelope struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

func describeGraphError(body []byte) string {
	var envelope errorEnvelope
	if err := json.Unmarshal(body, &envelope); err == nil {
		if message := strings.TrimSpace(envelope.Error.Message); message != "" {
			if envelope.Error.Type != "" {
				return fmt.Sprintf("%s: %s", envelope.Error.Type, message)
			}
			return message
		}
	}
	if trimmed := strings.TrimSpace(string(body)); trimmed != "" {
		return trimmed
	}
	return "unknown error"
}

func parseTokenPayload(body []byte, contentType string) (core.TokenPayload, error) {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if strings.Contains(contentType, "json") {
		return parseTokenPayloadJSON(body)
	}
	if strings.Contains(contentType, "x-www-form-urlencoded") || strings.Contains(contentType, "text/plain") {
		return parseTokenPayloadForm(body)
	}
	if payload, err := parseTokenPayloadJSON(body); err == nil {
		return payload, nil
	}
	return parseTokenPayloadForm(body)
}

func parseTokenPayloadJSON(body []byte) (core.TokenPayload, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return core.TokenPayload{}, fmt.Errorf("empty payload")
	}
	var decoded struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &decoded); err != nil {
		return core.TokenPayload{}, err
	}
	return core.TokenPayload{
		AccessToken: strings.TrimSpace(decoded.AccessToken),
		TokenType:   strings.TrimSpace(decoded.TokenType),
		ExpiresIn:   decoded.ExpiresIn,
	}, nil
}

func parseTokenPayloadForm(body []byte) (core.TokenPayload, error) {
	if len(strings.TrimSpace(string(body))) == 0 {
		return core.TokenPayload{}, fmt.Errorf("empty payload")
	}
	values, err := url.ParseQuery(string(body))
	if err != nil {
		return core.TokenPayload{}, err
	}
	expiresIn, _ := strconv.ParseInt(strings.TrimSpace(values.Get("expires_in")), 10, 64)
	return core.TokenPayload{
		AccessToken: strings.TrimSpace(values.Get("access_token")),
		TokenType:   strings.TrimSpace(values.Get("token_type")),
		ExpiresIn:   expiresIn,
	}, nil
}

var _ core.GraphClient = (*Client)(nil)
