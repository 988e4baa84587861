package adapters_test

import (
	"context"
	"testing"
	"time"

	job "github.com/goliatone/go-job"
	"github.com/goliatone/go-job/queue"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/goliatone/go-instagram-connect/adapters/gojob"
	"github.com/goliatone/go-instagram-connect/adapters/gologger"
	"github.com/goliatone/go-instagram-connect/core"
)

// Runs one sweep job end to end: the message travels through the go-job
// queue adapters, the executor logs through the gologger bridge, and the
// same resolved logger backs the worker side of the queue.
func TestStateSweepJob_EndToEndThroughQueueWithBridgedLogger(t *testing.T) {
	ctx := context.Background()

	hostLogger := &sweepQueueLogger{}
	provider := &sweepQueueProvider{logger: hostLogger}

	sweepLogger, jobLogger := gologger.ResolveConnect(provider, nil)
	if sweepLogger == nil || jobLogger == nil {
		t.Fatalf("expected both views of the connect logger")
	}

	current := time.Now().UTC()
	registry := core.NewMemoryStateRegistryWithClock(time.Minute, func() time.Time {
		return current
	})
	if _, err := registry.Issue(ctx); err != nil {
		t.Fatalf("issue state: %v", err)
	}
	if _, err := registry.Issue(ctx); err != nil {
		t.Fatalf("issue state: %v", err)
	}
	current = current.Add(2 * time.Minute)

	queueBackend := &sweepQueueBackend{}
	enqueuer := gojob.NewEnqueuerAdapter(queueBackend)
	if err := enqueuer.Enqueue(ctx, gojob.NewStateSweepMessage(current)); err != nil {
		t.Fatalf("enqueue sweep: %v", err)
	}
	if queueBackend.last == nil || queueBackend.last.JobID != gojob.JobIDStateSweep {
		t.Fatalf("expected sweep message in the queue, got %#v", queueBackend.last)
	}

	dequeuer := gojob.NewDequeuerAdapter(queueBackend, gojob.RetryPolicy{MaxAttempts: 3})
	delivery, err := dequeuer.Dequeue(ctx)
	if err != nil {
		t.Fatalf("dequeue sweep: %v", err)
	}

	executor := gojob.NewSweepExecutor(registry, sweepLogger)
	if err := executor.Execute(ctx, delivery.Message()); err != nil {
		t.Fatalf("execute sweep: %v", err)
	}
	if err := delivery.Ack(ctx); err != nil {
		t.Fatalf("ack sweep: %v", err)
	}

	if registry.Count() != 0 {
		t.Fatalf("expected sweep to clear expired states, %d remain", registry.Count())
	}
	if !queueBackend.acked {
		t.Fatalf("expected the delivery to be acked after a successful sweep")
	}
	if hostLogger.lastInfo.msg != "state sweep removed expired entries" {
		t.Fatalf("expected sweep log through the host logger, got %q", hostLogger.lastInfo.msg)
	}

	jobLogger.Info("worker idle")
	if hostLogger.lastInfo.msg != "worker idle" {
		t.Fatalf("expected worker-side logging through the same host logger, got %q", hostLogger.lastInfo.msg)
	}
}

// sweepQueueBackend is a single-slot queue acting as both enqueuer and
// dequeuer side of the broker.
type sweepQueueBackend struct {
	last  *job.ExecutionMessage
	acked bool
}

func (q *sweepQueueBackend) Enqueue(_ context.Context, msg *job.ExecutionMessage) (queue.EnqueueReceipt, error) {
	q.last = msg
	return queue.EnqueueReceipt{}, nil
}

func (q *sweepQueueBackend) Dequeue(context.Context) (queue.Delivery, error) {
	return q, nil
}

func (q *sweepQueueBackend) Message() *job.ExecutionMessage {
	return q.last
}

func (q *sweepQueueBackend) Ack(context.Context) error {
	q.acked = true
	return nil
}

func (q *sweepQueueBackend) Nack(context.Context, queue.NackOptions) error {
	return nil
}

type sweepQueueProvider struct {
	logger *sweepQueueLogger
}

func (p *sweepQueueProvider) GetLogger(string) glog.Logger {
	if p == nil || p.logger == nil {
		return glog.Nop()
	}
	return p.logger
}

type sweepInfoCall struct {
	msg  string
	args []any
}

type sweepQueueLogger struct {
	lastInfo sweepInfoCall
}

func (l *sweepQueueLogger) Trace(string, ...any) {}
func (l *sweepQueueLogger) Debug(string, ...any) {}
func (l *sweepQueueLogger) Warn(string, ...any)  {}
func (l *sweepQueueLogger) Error(string, ...any) {}
func (l *sweepQueueLogger) Fatal(string, ...any) {}

func (l *sweepQueueLogger) Info(msg string, args ...any) {
	l.lastInfo = sweepInfoCall{
		msg:  msg,
		args: append([]any(nil), args...),
	}
}

func (l *sweepQueueLogger) WithContext(context.Context) glog.Logger {
	return l
}
