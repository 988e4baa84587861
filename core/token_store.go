package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const defaultTokenValidity = 60 * 24 * time.Hour

// MemoryTokenStore keeps at most one Account per user id for the lifetime of
// the process. Expiry is lazy: expired records are dropped on Get, never by
// a background sweep.
type MemoryTokenStore struct {
	mu       sync.Mutex
	validity time.Duration
	now      func() time.Time
	accounts map[string]Account
}

func NewMemoryTokenStore(validity time.Duration) *MemoryTokenStore {
	if validity <= 0 {
		validity = defaultTokenValidity
	}
	return &MemoryTokenStore{
		validity: validity,
		now:      func() time.Time { return time.Now().UTC() },
		accounts: map[string]Account{},
	}
}

// NewMemoryTokenStoreWithClock injects a clock for expiry tests.
func NewMemoryTokenStoreWithClock(validity time.Duration, now func() time.Time) *MemoryTokenStore {
	store := NewMemoryTokenStore(validity)
	if now != nil {
		store.now = now
	}
	return store
}

// Save overwrites any prior record for userID entirely; there is no merge.
func (s *MemoryTokenStore) Save(_ context.Context, userID string, in SaveAccountInput) (Account, error) {
	if s == nil {
		return Account{}, fmt.Errorf("core: token store is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Account{}, fmt.Errorf("core: user id is required")
	}
	if strings.TrimSpace(in.AccessToken) == "" {
		return Account{}, fmt.Errorf("core: access token is required")
	}

	validity := s.validity
	if in.ExpiresIn > 0 {
		validity = time.Duration(in.ExpiresIn) * time.Second
	}
	tokenType := strings.TrimSpace(strings.ToLower(in.TokenType))
	if tokenType == "" {
		tokenType = "bearer"
	}

	now := s.now()
	account := Account{
		ID:                    uuid.NewString(),
		UserID:                userID,
		AccessToken:           strings.TrimSpace(in.AccessToken),
		TokenType:             tokenType,
		ExpiresAt:             now.Add(validity),
		CreatedAt:             now,
		BusinessAccountID:     strings.TrimSpace(in.BusinessAccountID),
		BusinessAccountHandle: strings.TrimSpace(in.BusinessAccountHandle),
		DelegatedAccessToken:  strings.TrimSpace(in.DelegatedAccessToken),
	}
	// Business-account id and delegated token travel together; a record with
	// only one of them is treated as having neither.
	if account.BusinessAccountID == "" || account.DelegatedAccessToken == "" {
		account.BusinessAccountID = ""
		account.BusinessAccountHandle = ""
		account.DelegatedAccessToken = ""
	}

	s.mu.Lock()
	s.accounts[userID] = account
	s.mu.Unlock()

	return account, nil
}

// Get drops and reports absent any record whose expiry has passed.
func (s *MemoryTokenStore) Get(_ context.Context, userID string) (Account, bool, error) {
	if s == nil {
		return Account{}, false, fmt.Errorf("core: token store is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return Account{}, false, fmt.Errorf("core: user id is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	account, ok := s.accounts[userID]
	if !ok {
		return Account{}, false, nil
	}
	if account.ExpiredAt(s.now()) {
		delete(s.accounts, userID)
		return Account{}, false, nil
	}
	return account, true, nil
}

func (s *MemoryTokenStore) Delete(_ context.Context, userID string) (bool, error) {
	if s == nil {
		return false, fmt.Errorf("core: token store is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, fmt.Errorf("core: user id is required")
	}

	s.mu.Lock()
	_, ok := s.accounts[userID]
	if ok {
		delete(s.accounts, userID)
	}
	s.mu.Unlock()

	return ok, nil
}

// ListAll reports every record with computed expiry and without the deletion
// side effect of Get. Callers gate access; the store does not.
func (s *MemoryTokenStore) ListAll(_ context.Context) ([]AccountSnapshot, error) {
	if s == nil {
		return nil, fmt.Errorf("core: token store is not configured")
	}
	now := s.now()

	s.mu.Lock()
	snapshots := make([]AccountSnapshot, 0, len(s.accounts))
	for _, account := range s.accounts {
		snapshots = append(snapshots, AccountSnapshot{
			Account:   account,
			IsExpired: account.ExpiredAt(now),
		})
	}
	s.mu.Unlock()

	sort.Slice(snapshots, func(i, j int) bool {
		return snapshots[i].UserID < snapshots[j].UserID
	})
	return snapshots, nil
}

var _ TokenStore = (*MemoryTokenStore)(nil)
