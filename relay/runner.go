package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"time"

	goerrors "github.com/goliatone/go-errors"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-instagram-connect/core"
)

// Fetcher is the slice of the graph client the runner needs.
type Fetcher interface {
	Fetch(ctx context.Context, path string, token string, params url.Values) ([]byte, error)
}

// Request names the operation and the connected user it runs for. MediaID is
// required only by the media-scoped operations; Params are filtered against
// the operation's whitelist before anything is forwarded upstream.
type Request struct {
	UserID    string
	Operation string
	MediaID   string
	Params    url.Values
}

// Runner resolves the caller's stored credential and relays one catalog
// operation, returning the upstream JSON untouched.
type Runner struct {
	store           core.TokenStore
	fetcher         Fetcher
	logger          core.Logger
	metricsRecorder core.MetricsRecorder
}

type RunnerOption func(*Runner)

func WithLogger(logger core.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = glog.Ensure(logger)
	}
}

func WithMetricsRecorder(recorder core.MetricsRecorder) RunnerOption {
	return func(r *Runner) {
		if recorder != nil {
			r.metricsRecorder = recorder
		}
	}
}

func NewRunner(store core.TokenStore, fetcher Fetcher, options ...RunnerOption) (*Runner, error) {
	if store == nil {
		return nil, fmt.Errorf("relay: token store is required")
	}
	if fetcher == nil {
		return nil, fmt.Errorf("relay: fetcher is required")
	}
	runner := &Runner{
		store:           store,
		fetcher:         fetcher,
		logger:          glog.Nop(),
		metricsRecorder: core.NopMetricsRecorder{},
	}
	for _, opt := range options {
		if opt != nil {
			opt(runner)
		}
	}
	return runner, nil
}

// Run executes one relay operation. Queries run under the delegated page
// token, never the user token.
func (r *Runner) Run(ctx context.Context, req Request) (result json.RawMessage, err error) {
	startedAt := time.Now().UTC()
	operation := strings.TrimSpace(strings.ToLower(req.Operation))
	defer func() {
		r.observe(ctx, startedAt, operation, req.UserID, err)
	}()

	if r == nil || r.store == nil || r.fetcher == nil {
		err = goerrors.New("relay: runner is not configured", goerrors.CategoryInternal).
			WithTextCode(core.ConnectErrorInternal)
		return nil, err
	}

	op, ok := Lookup(operation)
	if !ok {
		err = goerrors.New(
			fmt.Sprintf("relay: unknown operation %q", req.Operation),
			goerrors.CategoryBadInput,
		).WithTextCode(core.ConnectErrorBadInput)
		return nil, err
	}
	if op.RequiresMedia && strings.TrimSpace(req.MediaID) == "" {
		err = goerrors.New(
			fmt.Sprintf("relay: operation %q requires a media id", op.Name),
			goerrors.CategoryBadInput,
		).WithTextCode(core.ConnectErrorBadInput)
		return nil, err
	}

	account, found, getErr := r.store.Get(ctx, req.UserID)
	if getErr != nil {
		err = goerrors.Wrap(getErr, goerrors.CategoryInternal, "relay: account lookup failed").
			WithTextCode(core.ConnectErrorInternal)
		return nil, err
	}
	if !found {
		err = goerrors.New(
			fmt.Sprintf("relay: no connected account for user %q", strings.TrimSpace(req.UserID)),
			goerrors.CategoryNotFound,
		).WithTextCode(core.ConnectErrorAccountNotFound)
		return nil, err
	}
	if !account.HasBusinessAccount() {
		err = goerrors.New(
			fmt.Sprintf("relay: user %q has no linked business account", strings.TrimSpace(req.UserID)),
			goerrors.CategoryOperation,
		).WithTextCode(core.ConnectErrorNoBusinessAccount)
		return nil, err
	}

	params, paramsErr := buildParams(op, req.Params, account.BusinessAccountID)
	if paramsErr != nil {
		err = paramsErr
		return nil, err
	}
	path := buildPath(op, account.BusinessAccountID, req.MediaID)

	body, fetchErr := r.fetcher.Fetch(ctx, path, account.DelegatedAccessToken, params)
	if fetchErr != nil {
		err = goerrors.Wrap(fetchErr, goerrors.CategoryExternal,
			fmt.Sprintf("relay: operation %q failed upstream", op.Name)).
			WithTextCode(core.ConnectErrorExchangeFailed)
		return nil, err
	}
	return json.RawMessage(body), nil
}

func buildPath(op Operation, businessAccountID string, mediaID string) string {
	path := strings.ReplaceAll(op.Path, placeholderAccount, strings.TrimSpace(businessAccountID))
	return strings.ReplaceAll(path, placeholderMedia, strings.TrimSpace(mediaID))
}

func buildParams(op Operation, supplied url.Values, businessAccountID string) (url.Values, error) {
	params := url.Values{}
	for _, key := range op.AllowedParams {
		value := strings.TrimSpace(supplied.Get(key))
		if value != "" {
			params.Set(key, value)
		}
	}
	for key, value := range op.Defaults {
		if params.Get(key) == "" {
			params.Set(key, value)
		}
	}
	if op.Fields != "" {
		params.Set("fields", op.Fields)
	}
	if op.AccountParam != "" {
		params.Set(op.AccountParam, strings.TrimSpace(businessAccountID))
	}
	for _, key := range op.RequiredParams {
		if strings.TrimSpace(params.Get(key)) == "" {
			return nil, goerrors.New(
				fmt.Sprintf("relay: operation %q requires the %q parameter", op.Name, key),
				goerrors.CategoryBadInput,
			).WithTextCode(core.ConnectErrorBadInput)
		}
	}
	return params, nil
}

func (r *Runner) observe(ctx context.Context, startedAt time.Time, operation string, userID string, err error) {
	if r == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	tags := map[string]string{
		"operation": operation,
		"status":    status,
	}
	durationMs := float64(time.Since(startedAt).Milliseconds())
	if r.metricsRecorder != nil {
		r.metricsRecorder.IncCounter(ctx, "relay."+operation+".total", 1, tags)
		r.metricsRecorder.ObserveHistogram(ctx, "relay."+operation+".duration_ms", durationMs, tags)
	}
	if r.logger == nil {
		return
	}
	fields := []any{
		"operation", operation,
		"user_id", strings.TrimSpace(userID),
		"duration_ms", durationMs,
	}
	if err != nil {
		r.logger.Error("relay operation failed", append(fields, "error", err.Error())...)
		return
	}
	r.logger.Info("relay operation succeeded", fields...)
}
