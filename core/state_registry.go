package core

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"time"
)

const (
	defaultStateTTL      = 10 * time.Minute
	defaultSweepInterval = 5 * time.Minute
)

// MemoryStateRegistry is a mutex-guarded in-process registry of one-time
// CSRF state tokens. Entries expire after a fixed window and are consumed on
// first validation.
type MemoryStateRegistry struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]time.Time
}

func NewMemoryStateRegistry(ttl time.Duration) *MemoryStateRegistry {
	if ttl <= 0 {
		ttl = defaultStateTTL
	}
	return &MemoryStateRegistry{
		ttl:     ttl,
		now:     func() time.Time { return time.Now().UTC() },
		entries: map[string]time.Time{},
	}
}

// NewMemoryStateRegistryWithClock injects a clock for expiry tests.
func NewMemoryStateRegistryWithClock(ttl time.Duration, now func() time.Time) *MemoryStateRegistry {
	registry := NewMemoryStateRegistry(ttl)
	if now != nil {
		registry.now = now
	}
	return registry
}

func (r *MemoryStateRegistry) Issue(_ context.Context) (string, error) {
	if r == nil {
		return "", fmt.Errorf("core: state registry is not configured")
	}
	token, err := generateStateToken()
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.entries[token] = r.now()
	r.mu.Unlock()

	return token, nil
}

// Validate consumes the entry on every hit: a token found but already past
// the validity window is removed too, so it cannot linger in the registry.
func (r *MemoryStateRegistry) Validate(_ context.Context, token string) bool {
	if r == nil {
		return false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return false
	}

	r.mu.Lock()
	issuedAt, ok := r.entries[token]
	if ok {
		delete(r.entries, token)
	}
	r.mu.Unlock()

	if !ok {
		return false
	}
	return r.now().Sub(issuedAt) <= r.ttl
}

func (r *MemoryStateRegistry) Sweep(_ context.Context) int {
	if r == nil {
		return 0
	}
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	removed := 0
	for token, issuedAt := range r.entries {
		if issuedAt.Before(cutoff) {
			delete(r.entries, token)
			removed++
		}
	}
	r.mu.Unlock()

	return removed
}

func (r *MemoryStateRegistry) Count() int {
	if r == nil {
		return 0
	}
	r.mu.Lock()
	count := len(r.entries)
	r.mu.Unlock()
	return count
}

// Reset clears the registry; test isolation only.
func (r *MemoryStateRegistry) Reset() {
	if r == nil {
		return
	}
	r.mu.Lock()
	r.entries = map[string]time.Time{}
	r.mu.Unlock()
}

func generateStateToken() (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("core: generate state token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}

var _ StateRegistry = (*MemoryStateRegistry)(nil)
