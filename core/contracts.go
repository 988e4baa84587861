package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

type Logger = glog.Logger

type LoggerProvider = glog.LoggerProvider

type FieldsLogger = glog.FieldsLogger

// StateRegistry issues and validates one-time CSRF state tokens binding an
// authorization redirect to its callback.
type StateRegistry interface {
	Issue(ctx context.Context) (string, error)
	// Validate reports whether the token is live. It consumes the entry on
	// every hit, expired included, so replay always fails.
	Validate(ctx context.Context, token string) bool
	// Sweep removes entries older than the validity window and returns how
	// many were removed.
	Sweep(ctx context.Context) int
	Count() int
	Reset()
}

// TokenStore maps user ids to their delegated credential for the lifetime of
// the process. Get applies lazy expiry; ListAll does not.
type TokenStore interface {
	Save(ctx context.Context, userID string, in SaveAccountInput) (Account, error)
	Get(ctx context.Context, userID string) (Account, bool, error)
	Delete(ctx context.Context, userID string) (bool, error)
	ListAll(ctx context.Context) ([]AccountSnapshot, error)
}

// GraphClient is the upstream boundary the orchestrator depends on: the two
// token exchanges plus the identity and managed-pages lookups.
type GraphClient interface {
	AuthorizationURL(state string) (string, error)
	ExchangeCode(ctx context.Context, code string) (TokenPayload, error)
	ExchangeLongLived(ctx context.Context, shortLived string) (TokenPayload, error)
	Identity(ctx context.Context, accessToken string) (Identity, error)
	ManagedPages(ctx context.Context, accessToken string) ([]ManagedPage, error)
}

type MetricsRecorder interface {
	IncCounter(ctx context.Context, name string, value int64, tags map[string]string)
	ObserveHistogram(ctx context.Context, name string, value float64, tags map[string]string)
}

type JobExecutionMessage struct {
	JobID          string
	ScriptPath     string
	Parameters     map[string]any
	IdempotencyKey string
	DedupPolicy    string
}

type JobNackOptions struct {
	Delay      time.Duration
	Requeue    bool
	DeadLetter bool
	Reason     string
}

type JobEnqueuer interface {
	Enqueue(ctx context.Context, msg *JobExecutionMessage) error
}

type JobDelivery interface {
	Message() *JobExecutionMessage
	Ack(ctx context.Context) error
	Nack(ctx context.Context, opts JobNackOptions) error
}

type JobDequeuer interface {
	Dequeue(ctx context.Context) (JobDelivery, error)
}

type JobWorkerHook interface {
	OnStart(ctx context.Context, event JobWorkerEvent)
	OnSuccess(ctx context.Context, event JobWorkerEvent)
	OnFailure(ctx context.Context, event JobWorkerEvent)
	OnRetry(ctx context.Context, event JobWorkerEvent)
}

type JobWorkerEvent struct {
	Message   *JobExecutionMessage
	Attempt   int
	Delay     time.Duration
	Err       error
	StartedAt time.Time
	Duration  time.Duration
}
