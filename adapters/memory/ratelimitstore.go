package memory

import (
	"context"
	"sync"

	"github.com/Heht571/LLMRouter/domain/ratelimit"
	"github.com/Heht571/LLMRouter/ports"
)

// RateLimitStore is an in-memory implementation of ports.RateLimitStore.
// Window state is transient; losing it on restart only grants one fresh
// window, so it never needs durable storage.
type RateLimitStore struct {
	mu      sync.Mutex
	windows map[string]ratelimit.State // by subscription ID
}

// NewRateLimitStore creates a new in-memory rate limit store.
func NewRateLimitStore() *RateLimitStore {
	return &RateLimitStore{
		windows: make(map[string]ratelimit.State),
	}
}

// Get retrieves the current window state for a subscription.
// Unknown subscriptions return a zero state, not an error.
func (s *RateLimitStore) Get(ctx context.Context, subscriptionID string) (ratelimit.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.windows[subscriptionID], nil
}

// Set stores the window state for a subscription.
func (s *RateLimitStore) Set(ctx context.Context, subscriptionID string, state ratelimit.State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.windows[subscriptionID] = state
	return nil
}

// Ensure interface compliance.
var _ ports.RateLimitStore = (*RateLimitStore)(nil)
