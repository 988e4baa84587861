package core

import (
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

const (
	ConnectErrorBadInput            = "CONNECT_BAD_INPUT"
	ConnectErrorStateInvalid        = "CONNECT_STATE_INVALID"
	ConnectErrorUpstreamDenied      = "CONNECT_UPSTREAM_DENIED"
	ConnectErrorExchangeFailed      = "CONNECT_EXCHANGE_FAILED"
	ConnectErrorAccountNotFound     = "CONNECT_ACCOUNT_NOT_FOUND"
	ConnectErrorNoBusinessAccount   = "CONNECT_NO_BUSINESS_ACCOUNT"
	ConnectErrorDiagnosticsDisabled = "CONNECT_DIAGNOSTICS_DISABLED"
	ConnectErrorInternal            = "CONNECT_INTERNAL_ERROR"
)

// User-facing copy. Internal detail never crosses the boundary; CSRF
// sub-cases in particular are indistinguishable to the caller.
const (
	UserMessageStateInvalid   = "security validation failed"
	UserMessageExchangeFailed = "failed to complete connection"
	UserMessageNotFound       = "no account connected"
	UserMessageNoBusiness     = "no business account connected"
	UserMessageInternal       = "an unexpected error occurred"
)

func connectErrorMapper(err error) *goerrors.Error {
	if err == nil {
		return nil
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		return ensureConnectErrorEnvelope(richErr)
	}

	switch {
	case goerrors.Is(err, ErrStateInvalid):
		return newConnectError(err.Error(), goerrors.CategoryAuth, ConnectErrorStateInvalid)
	case goerrors.Is(err, ErrUpstreamDenied):
		return newConnectError(err.Error(), goerrors.CategoryAuth, ConnectErrorUpstreamDenied)
	case goerrors.Is(err, ErrExchangeFailed):
		return newConnectError(err.Error(), goerrors.CategoryExternal, ConnectErrorExchangeFailed)
	case goerrors.Is(err, ErrAccountNotFound):
		return newConnectError(err.Error(), goerrors.CategoryNotFound, ConnectErrorAccountNotFound)
	case goerrors.Is(err, ErrNoBusinessAccount):
		return newConnectError(err.Error(), goerrors.CategoryOperation, ConnectErrorNoBusinessAccount)
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "state"):
		return newConnectError(err.Error(), goerrors.CategoryAuth, ConnectErrorStateInvalid)
	case strings.Contains(msg, "denied"), strings.Contains(msg, "declined"):
		return newConnectError(err.Error(), goerrors.CategoryAuth, ConnectErrorUpstreamDenied)
	case strings.Contains(msg, "exchange"), strings.Contains(msg, "token endpoint"):
		return newConnectError(err.Error(), goerrors.CategoryExternal, ConnectErrorExchangeFailed)
	case strings.Contains(msg, "not found"), strings.Contains(msg, "no account"):
		return newConnectError(err.Error(), goerrors.CategoryNotFound, ConnectErrorAccountNotFound)
	case strings.Contains(msg, "required"), strings.Contains(msg, "invalid"), strings.Contains(msg, "missing"):
		return newConnectError(err.Error(), goerrors.CategoryBadInput, ConnectErrorBadInput)
	}

	mapped := goerrors.MapToError(err, goerrors.DefaultErrorMappers())
	return ensureConnectErrorEnvelope(mapped)
}

func newConnectError(message string, category goerrors.Category, textCode string) *goerrors.Error {
	return ensureConnectErrorEnvelope(
		goerrors.New(message, category).
			WithTextCode(textCode),
	)
}

func ensureConnectErrorEnvelope(err *goerrors.Error) *goerrors.Error {
	if err == nil {
		return nil
	}
	if err.Code == 0 {
		err.Code = connectHTTPStatus(err.Category)
	}
	if strings.TrimSpace(err.TextCode) == "" {
		err.TextCode = defaultConnectTextCode(err.Category)
	}
	if err.Category == goerrors.CategoryInternal && strings.TrimSpace(err.Message) == "" {
		err.Message = "An unexpected error occurred"
	}
	return err
}

func defaultConnectTextCode(category goerrors.Category) string {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return ConnectErrorBadInput
	case goerrors.CategoryNotFound:
		return ConnectErrorAccountNotFound
	case goerrors.CategoryAuth, goerrors.CategoryAuthz:
		return ConnectErrorStateInvalid
	case goerrors.CategoryExternal:
		return ConnectErrorExchangeFailed
	case goerrors.CategoryOperation:
		return ConnectErrorNoBusinessAccount
	default:
		return ConnectErrorInternal
	}
}

func connectHTTPStatus(category goerrors.Category) int {
	switch category {
	case goerrors.CategoryBadInput, goerrors.CategoryValidation:
		return http.StatusBadRequest
	case goerrors.CategoryNotFound:
		return http.StatusNotFound
	case goerrors.CategoryAuth:
		return http.StatusUnauthorized
	case goerrors.CategoryAuthz:
		return http.StatusForbidden
	case goerrors.CategoryConflict:
		return http.StatusConflict
	case goerrors.CategoryExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// UserMessage maps any flow error to the sanitized copy that may cross the
// boundary. Upstream denials are the one case that surfaces the upstream
// reason verbatim.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}

	var richErr *goerrors.Error
	if goerrors.As(err, &richErr) {
		switch richErr.TextCode {
		case ConnectErrorStateInvalid:
			return UserMessageStateInvalid
		case ConnectErrorUpstreamDenied:
			if reason := strings.TrimSpace(richErr.Message); reason != "" {
				return reason
			}
			return UserMessageExchangeFailed
		case ConnectErrorExchangeFailed, ConnectErrorBadInput:
			return UserMessageExchangeFailed
		case ConnectErrorAccountNotFound:
			return UserMessageNotFound
		case ConnectErrorNoBusinessAccount:
			return UserMessageNoBusiness
		}
		return UserMessageInternal
	}

	switch {
	case goerrors.Is(err, ErrStateInvalid):
		return UserMessageStateInvalid
	case goerrors.Is(err, ErrAccountNotFound):
		return UserMessageNotFound
	case goerrors.Is(err, ErrNoBusinessAccount):
		return UserMessageNoBusiness
	case goerrors.Is(err, ErrExchangeFailed):
		return UserMessageExchangeFailed
	}
	return UserMessageInternal
}
