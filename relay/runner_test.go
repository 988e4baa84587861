package relay

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	goerrors "github.com/goliatone/go-errors"

	"github.com/goliatone/go-instagram-connect/core"
)

type fakeFetcher struct {
	body []byte
	err  error

	path   string
	token  string
	params url.Values
}

func (f *fakeFetcher) Fetch(_ context.Context, path string, token string, params url.Values) ([]byte, error) {
	f.path = path
	f.token = token
	f.params = params
	if f.err != nil {
		return nil, f.err
	}
	return f.body, nil
}

func newTestRunner(t *testing.T, fetcher Fetcher) (*Runner, core.TokenStore) {
	t.Helper()
	store := core.NewMemoryTokenStore(0)
	runner, err := NewRunner(store, fetcher)
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	return runner, store
}

func saveConnectedAccount(t *testing.T, store core.TokenStore, userID string, withBusiness bool) {
	t.Helper()
	input := core.SaveAccountInput{
		AccessToken: "user_token",
		TokenType:   "bearer",
		ExpiresIn:   5184000,
	}
	if withBusiness {
		input.BusinessAccountID = "ig_1"
		input.BusinessAccountHandle = "Linked Page"
		input.DelegatedAccessToken = "page_token"
	}
	if _, err := store.Save(context.Background(), userID, input); err != nil {
		t.Fatalf("save account: %v", err)
	}
}

func assertTextCode(t *testing.T, err error, textCode string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with text code %s", textCode)
	}
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) || richErr.TextCode != textCode {
		t.Fatalf("expected %s, got %v", textCode, err)
	}
}

func TestRunner_RelaysRawJSONUnderDelegatedToken(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte(`{"data":[{"id":"media_1"}]}`)}
	runner, store := newTestRunner(t, fetcher)
	saveConnectedAccount(t, store, "user_1", true)

	params := url.Values{}
	params.Set("limit", "10")
	params.Set("evil", "1")
	body, err := runner.Run(context.Background(), Request{
		UserID:    "user_1",
		Operation: OpMediaList,
		Params:    params,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if string(body) != `{"data":[{"id":"media_1"}]}` {
		t.Fatalf("expected raw body relayed, got %s", body)
	}
	if fetcher.path != "ig_1/media" {
		t.Fatalf("expected business account id in path, got %q", fetcher.path)
	}
	if fetcher.token != "page_token" {
		t.Fatalf("expected delegated token, got %q", fetcher.token)
	}
	if fetcher.params.Get("limit") != "10" {
		t.Fatalf("expected whitelisted param forwarded")
	}
	if fetcher.params.Get("evil") != "" {
		t.Fatalf("expected non-whitelisted param dropped")
	}
	if !strings.Contains(fetcher.params.Get("fields"), "media_type") {
		t.Fatalf("expected pinned field selection, got %q", fetcher.params.Get("fields"))
	}
}

func TestRunner_AppliesDefaultMetrics(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte(`{"data":[]}`)}
	runner, store := newTestRunner(t, fetcher)
	saveConnectedAccount(t, store, "user_1", true)

	if _, err := runner.Run(context.Background(), Request{
		UserID:    "user_1",
		Operation: OpAccountInsights,
	}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if fetcher.path != "ig_1/insights" {
		t.Fatalf("expected insights path, got %q", fetcher.path)
	}
	if fetcher.params.Get("metric") != "impressions,reach,profile_views" {
		t.Fatalf("expected default metric set, got %q", fetcher.params.Get("metric"))
	}
	if fetcher.params.Get("period") != "day" {
		t.Fatalf("expected default period, got %q", fetcher.params.Get("period"))
	}

	// Caller-supplied values win over the defaults.
	params := url.Values{}
	params.Set("period", "week")
	if _, err := runner.Run(context.Background(), Request{
		UserID:    "user_1",
		Operation: OpAccountInsights,
		Params:    params,
	}); err != nil {
		t.Fatalf("run with params: %v", err)
	}
	if fetcher.params.Get("period") != "week" {
		t.Fatalf("expected caller period to win, got %q", fetcher.params.Get("period"))
	}
}

func TestRunner_MediaOperationsRequireMediaID(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte(`{}`)}
	runner, store := newTestRunner(t, fetcher)
	saveConnectedAccount(t, store, "user_1", true)

	for _, operation := range []string{OpMediaDetail, OpMediaInsights, OpMediaComments} {
		_, err := runner.Run(context.Background(), Request{UserID: "user_1", Operation: operation})
		assertTextCode(t, err, core.ConnectErrorBadInput)
	}

	if _, err := runner.Run(context.Background(), Request{
		UserID:    "user_1",
		Operation: OpMediaInsights,
		MediaID:   "media_9",
	}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if fetcher.path != "media_9/insights" {
		t.Fatalf("expected media path, got %q", fetcher.path)
	}
}

func TestRunner_HashtagSearchCarriesAccountAndQuery(t *testing.T) {
	fetcher := &fakeFetcher{body: []byte(`{"data":[{"id":"hash_1"}]}`)}
	runner, store := newTestRunner(t, fetcher)
	saveConnectedAccount(t, store, "user_1", true)

	_, err := runner.Run(context.Background(), Request{UserID: "user_1", Operation: OpHashtagSearch})
	assertTextCode(t, err, core.ConnectErrorBadInput)

	params := url.Values{}
	params.Set("q", "coffee")
	if _, err := runner.Run(context.Background(), Request{
		UserID:    "user_1",
		Operation: OpHashtagSearch,
		Params:    params,
	}); err != nil {
		t.Fatalf("run: %v", err)
	}
	if fetcher.path != "ig_hashtag_search" {
		t.Fatalf("expected hashtag search path, got %q", fetcher.path)
	}
	if fetcher.params.Get("user_id") != "ig_1" {
		t.Fatalf("expected business account id as user_id, got %q", fetcher.params.Get("user_id"))
	}
	if fetcher.params.Get("q") != "coffee" {
		t.Fatalf("expected query forwarded, got %q", fetcher.params.Get("q"))
	}
}

func TestRunner_DistinguishesMissingAccountFromMissingBusinessLink(t *testing.T) {
	runner, store := newTestRunner(t, &fakeFetcher{body: []byte(`{}`)})

	_, err := runner.Run(context.Background(), Request{UserID: "ghost", Operation: OpProfile})
	assertTextCode(t, err, core.ConnectErrorAccountNotFound)

	saveConnectedAccount(t, store, "user_2", false)
	_, err = runner.Run(context.Background(), Request{UserID: "user_2", Operation: OpProfile})
	assertTextCode(t, err, core.ConnectErrorNoBusinessAccount)
}

func TestRunner_ExpiredAccountReportsNotFound(t *testing.T) {
	current := time.Now().UTC()
	store := core.NewMemoryTokenStoreWithClock(time.Hour, func() time.Time {
		return current
	})
	runner, err := NewRunner(store, &fakeFetcher{body: []byte(`{}`)})
	if err != nil {
		t.Fatalf("new runner: %v", err)
	}
	if _, err := store.Save(context.Background(), "user_1", core.SaveAccountInput{
		AccessToken:           "user_token",
		BusinessAccountID:     "ig_1",
		BusinessAccountHandle: "Linked Page",
		DelegatedAccessToken:  "page_token",
	}); err != nil {
		t.Fatalf("save account: %v", err)
	}

	current = current.Add(2 * time.Hour)
	_, runErr := runner.Run(context.Background(), Request{UserID: "user_1", Operation: OpProfile})
	assertTextCode(t, runErr, core.ConnectErrorAccountNotFound)
}

func TestRunner_UnknownOperationRejected(t *testing.T) {
	runner, store := newTestRunner(t, &fakeFetcher{body: []byte(`{}`)})
	saveConnectedAccount(t, store, "user_1", true)

	_, err := runner.Run(context.Background(), Request{UserID: "user_1", Operation: "delete_everything"})
	assertTextCode(t, err, core.ConnectErrorBadInput)
}

func TestRunner_UpstreamFailureMapsToExternal(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("graph: endpoint error (400): bad token")}
	runner, store := newTestRunner(t, fetcher)
	saveConnectedAccount(t, store, "user_1", true)

	_, err := runner.Run(context.Background(), Request{UserID: "user_1", Operation: OpProfile})
	assertTextCode(t, err, core.ConnectErrorExchangeFailed)
}

func TestNames_ListsCatalogInStableOrder(t *testing.T) {
	names := Names()
	if len(names) != 9 {
		t.Fatalf("expected 9 operations, got %d", len(names))
	}
	for i := 1; i < len(names); i++ {
		if names[i-1] >= names[i] {
			t.Fatalf("expected sorted names, got %v", names)
		}
	}
	if _, ok := Lookup(" Media_List "); !ok {
		t.Fatalf("expected lookup to normalize names")
	}
}
