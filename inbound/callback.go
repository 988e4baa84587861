package inbound

import (
	"context"
	"net/http"
	"net/url"
	"strings"

	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-instagram-connect/core"
)

// CallbackService is the slice of the orchestrator the boundary drives.
type CallbackService interface {
	CompleteCallback(ctx context.Context, req core.CallbackRequest) (core.CallbackResult, error)
}

// Redirect is an instruction for the web layer; the library never writes
// responses itself beyond the http.Handler convenience below.
type Redirect struct {
	Location   string
	StatusCode int
}

// ParseCallback lifts the provider redirect query into a typed request.
// Unknown parameters are dropped.
func ParseCallback(values url.Values) core.CallbackRequest {
	return core.CallbackRequest{
		Code:             strings.TrimSpace(values.Get("code")),
		State:            strings.TrimSpace(values.Get("state")),
		ErrorCode:        strings.TrimSpace(values.Get("error")),
		ErrorReason:      strings.TrimSpace(values.Get("error_reason")),
		ErrorDescription: strings.TrimSpace(values.Get("error_description")),
	}
}

type CallbackHandler struct {
	service    CallbackService
	successURL string
	failureURL string
	logger     core.Logger
}

type CallbackOption func(*CallbackHandler)

func WithLogger(logger core.Logger) CallbackOption {
	return func(h *CallbackHandler) {
		h.logger = glog.Ensure(logger)
	}
}

func NewCallbackHandler(service CallbackService, redirects core.RedirectConfig, options ...CallbackOption) (*CallbackHandler, error) {
	if service == nil {
		return nil, inboundInternal("inbound: callback service is required", nil)
	}
	successURL := strings.TrimSpace(redirects.SuccessURL)
	failureURL := strings.TrimSpace(redirects.FailureURL)
	if successURL == "" || failureURL == "" {
		return nil, inboundBadInput("inbound: success and failure redirect urls are required", nil)
	}
	handler := &CallbackHandler{
		service:    service,
		successURL: successURL,
		failureURL: failureURL,
		logger:     glog.Nop(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(handler)
		}
	}
	return handler, nil
}

// Handle drives one callback to a redirect instruction. Failures never leak
// internal detail: the failure page receives only the sanitized message,
// while the full error goes to the log.
func (h *CallbackHandler) Handle(ctx context.Context, values url.Values) Redirect {
	if h == nil || h.service == nil {
		return Redirect{Location: "/", StatusCode: http.StatusFound}
	}

	req := ParseCallback(values)
	result, err := h.service.CompleteCallback(ctx, req)
	if err != nil {
		h.logger.Error("callback failed",
			"flow_status", string(result.Status),
			"error", err.Error(),
		)
		return h.failureRedirect(core.UserMessage(err))
	}

	h.logger.Info("callback completed",
		"flow_status", string(result.Status),
		"user_id", result.UserID,
	)
	return h.successRedirect(result)
}

// Handler adapts Handle to net/http for hosts that do not need custom
// response writing.
func (h *CallbackHandler) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		redirect := h.Handle(r.Context(), r.URL.Query())
		http.Redirect(w, r, redirect.Location, redirect.StatusCode)
	}
}

func (h *CallbackHandler) successRedirect(result core.CallbackResult) Redirect {
	params := url.Values{}
	params.Set("user_id", result.UserID)
	if handle := strings.TrimSpace(result.Account.BusinessAccountHandle); handle != "" {
		params.Set("business_handle", handle)
	}
	return Redirect{
		Location:   appendQuery(h.successURL, params),
		StatusCode: http.StatusFound,
	}
}

func (h *CallbackHandler) failureRedirect(message string) Redirect {
	params := url.Values{}
	if strings.TrimSpace(message) != "" {
		params.Set("message", message)
	}
	return Redirect{
		Location:   appendQuery(h.failureURL, params),
		StatusCode: http.StatusFound,
	}
}

func appendQuery(base string, params url.Values) string {
	if len(params) == 0 {
		return base
	}
	if strings.Contains(base, "?") {
		return base + "&" + params.Encode()
	}
	return base + "?" + params.Encode()
}
