package core

import (
	"errors"
	"strings"
	"time"
)

var (
	ErrStateInvalid      = errors.New("core: oauth state is missing, unknown, or expired")
	ErrUpstreamDenied    = errors.New("core: authorization was denied upstream")
	ErrExchangeFailed    = errors.New("core: token exchange failed")
	ErrAccountNotFound   = errors.New("core: no account connected for user")
	ErrNoBusinessAccount = errors.New("core: no business account connected")
)

// FlowStatus tracks a single authorization flow through the two-step
// handshake: Connect moves Idle to AwaitingCallback, CompleteCallback
// terminates in Complete or Failed.
type FlowStatus string

const (
	FlowStatusIdle             FlowStatus = "idle"
	FlowStatusAwaitingCallback FlowStatus = "awaiting_callback"
	FlowStatusComplete         FlowStatus = "complete"
	FlowStatusFailed           FlowStatus = "failed"
)

// StateEntry is one outstanding CSRF state token. Entries are immutable
// after issuance; they are only ever consumed or swept.
type StateEntry struct {
	Token    string
	IssuedAt time.Time
}

// Account is the credential record stored per user. The delegated token and
// the business-account id are either both set or both empty.
type Account struct {
	ID                    string
	UserID                string
	AccessToken           string
	TokenType             string
	ExpiresAt             time.Time
	CreatedAt             time.Time
	BusinessAccountID     string
	BusinessAccountHandle string
	DelegatedAccessToken  string
}

func (a Account) HasBusinessAccount() bool {
	return strings.TrimSpace(a.BusinessAccountID) != "" &&
		strings.TrimSpace(a.DelegatedAccessToken) != ""
}

func (a Account) ExpiredAt(now time.Time) bool {
	if a.ExpiresAt.IsZero() {
		return false
	}
	return !a.ExpiresAt.After(now.UTC())
}

// AccountSnapshot annotates an account with computed expiry for the
// diagnostic listing; producing one has no read side effects.
type AccountSnapshot struct {
	Account
	IsExpired bool
}

// SaveAccountInput carries everything the orchestrator learned during a
// callback. ExpiresIn is the upstream validity in seconds; non-positive
// values fall back to the 60-day default.
type SaveAccountInput struct {
	AccessToken           string
	TokenType             string
	ExpiresIn             int64
	BusinessAccountID     string
	BusinessAccountHandle string
	DelegatedAccessToken  string
}

// TokenPayload is the decoded body of the upstream token endpoint.
type TokenPayload struct {
	AccessToken string
	TokenType   string
	ExpiresIn   int64
}

// Identity is the authorizing user as reported by the upstream /me lookup.
type Identity struct {
	ID   string
	Name string
}

// ManagedPage is one entry from the user's managed-pages listing.
// BusinessAccountID is empty when the page has no linked Instagram
// professional account.
type ManagedPage struct {
	ID                string
	Name              string
	AccessToken       string
	BusinessAccountID string
}

type ConnectRequest struct {
	Metadata map[string]any
}

// BeginConnectResponse instructs the web layer to redirect the caller to the
// upstream authorization dialog.
type BeginConnectResponse struct {
	URL   string
	State string
}

// CallbackRequest is the parsed callback query. ErrorCode and friends are
// set when the upstream reports a denial instead of a code.
type CallbackRequest struct {
	Code             string
	State            string
	ErrorCode        string
	ErrorReason      string
	ErrorDescription string
}

func (r CallbackRequest) Denied() bool {
	return strings.TrimSpace(r.ErrorCode) != ""
}

// DenialReason prefers the human-readable description over the raw code.
func (r CallbackRequest) DenialReason() string {
	if reason := strings.TrimSpace(r.ErrorDescription); reason != "" {
		return reason
	}
	if reason := strings.TrimSpace(r.ErrorReason); reason != "" {
		return reason
	}
	return strings.TrimSpace(r.ErrorCode)
}

// CallbackResult is the terminal outcome of one callback handling.
type CallbackResult struct {
	Status  FlowStatus
	UserID  string
	Account Account
}
