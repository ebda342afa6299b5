// Package memory provides in-memory implementations for testing.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/Heht571/LLMRouter/ports"
)

// AccountStore is an in-memory implementation of ports.AccountStore.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]ports.Account  // by ID
	profiles map[string]ports.Profile  // by account ID
	settings map[string]ports.Settings // by account ID
}

// NewAccountStore creates a new in-memory account store.
func NewAccountStore() *AccountStore {
	return &AccountStore{
		accounts: make(map[string]ports.Account),
		profiles: make(map[string]ports.Profile),
		settings: make(map[string]ports.Settings),
	}
}

// Create stores a new account.
func (s *AccountStore) Create(ctx context.Context, a ports.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.accounts {
		if existing.Username == a.Username || existing.Email == a.Email {
			return ports.ErrDuplicate
		}
	}
	s.accounts[a.ID] = a
	return nil
}

// Get retrieves an account by ID.
func (s *AccountStore) Get(ctx context.Context, id string) (ports.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return ports.Account{}, ports.ErrNotFound
	}
	return a, nil
}

// GetByUsername retrieves an account by username.
func (s *AccountStore) GetByUsername(ctx context.Context, username string) (ports.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, a := range s.accounts {
		if a.Username == username {
			return a, nil
		}
	}
	return ports.Account{}, ports.ErrNotFound
}

// UpdatePassword replaces the stored password hash.
func (s *AccountStore) UpdatePassword(ctx context.Context, id string, hash []byte, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return ports.ErrNotFound
	}
	a.PasswordHash = hash
	a.UpdatedAt = at
	s.accounts[id] = a
	return nil
}

// GetProfile retrieves an account's profile.
func (s *AccountStore) GetProfile(ctx context.Context, accountID string) (ports.Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[accountID]
	if !ok {
		return ports.Profile{}, ports.ErrNotFound
	}
	return p, nil
}

// SaveProfile stores an account's profile, replacing any previous one.
func (s *AccountStore) SaveProfile(ctx context.Context, p ports.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.profiles[p.AccountID] = p
	return nil
}

// GetSettings retrieves an account's settings.
func (s *AccountStore) GetSettings(ctx context.Context, accountID string) (ports.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st, ok := s.settings[accountID]
	if !ok {
		return ports.Settings{}, ports.ErrNotFound
	}
	return st, nil
}

// SaveSettings stores an account's settings, replacing any previous ones.
func (s *AccountStore) SaveSettings(ctx context.Context, st ports.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings[st.AccountID] = st
	return nil
}

// Ensure interface compliance.
var _ ports.AccountStore = (*AccountStore)(nil)
