package core

import (
	"context"
	"time"

	glog "github.com/goliatone/go-logger/glog"
)

// StateSweeper periodically drops abandoned CSRF state entries so flows that
// never reach the callback do not accumulate registry entries. It runs
// alongside validation; both sides treat deleting an absent key as a no-op.
type StateSweeper struct {
	registry StateRegistry
	interval time.Duration
	logger   Logger
}

func NewStateSweeper(registry StateRegistry, interval time.Duration, logger Logger) *StateSweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &StateSweeper{
		registry: registry,
		interval: interval,
		logger:   glog.Ensure(logger),
	}
}

// Run blocks until ctx is done, sweeping on every tick.
func (s *StateSweeper) Run(ctx context.Context) error {
	if s == nil || s.registry == nil {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			removed := s.registry.Sweep(ctx)
			if removed > 0 {
				s.logger.Info("state sweep removed expired entries", "removed", removed)
			}
		}
	}
}

// Start runs the sweep loop on its own goroutine and returns a stop func.
func (s *StateSweeper) Start(ctx context.Context) (stop func()) {
	if ctx == nil {
		ctx = context.Background()
	}
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = s.Run(runCtx)
	}()
	return func() {
		cancel()
		<-done
	}
}
