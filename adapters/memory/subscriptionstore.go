package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Heht571/LLMRouter/domain/subscription"
	"github.com/Heht571/LLMRouter/ports"
)

// SubscriptionStore is an in-memory implementation of ports.SubscriptionStore.
type SubscriptionStore struct {
	mu   sync.RWMutex
	subs map[string]subscription.Subscription // by ID
}

// NewSubscriptionStore creates a new in-memory subscription store.
func NewSubscriptionStore() *SubscriptionStore {
	return &SubscriptionStore{
		subs: make(map[string]subscription.Subscription),
	}
}

// Create stores a new subscription.
func (s *SubscriptionStore) Create(ctx context.Context, sub subscription.Subscription) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.subs {
		if existing.BuyerID == sub.BuyerID && existing.ServiceID == sub.ServiceID && existing.Active() {
			return ports.ErrDuplicate
		}
	}
	s.subs[sub.ID] = sub
	return nil
}

// GetByPrefix retrieves subscriptions matching a key prefix.
func (s *SubscriptionStore) GetByPrefix(ctx context.Context, prefix string) ([]subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []subscription.Subscription
	for _, sub := range s.subs {
		if sub.KeyPrefix == prefix {
			result = append(result, sub)
		}
	}
	return result, nil
}

// GetActive retrieves the active subscription for a (buyer, service) pair.
func (s *SubscriptionStore) GetActive(ctx context.Context, buyerID, serviceID string) (subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sub := range s.subs {
		if sub.BuyerID == buyerID && sub.ServiceID == serviceID && sub.Active() {
			return sub, nil
		}
	}
	return subscription.Subscription{}, ports.ErrNotFound
}

// Revoke marks a subscription as revoked.
func (s *SubscriptionStore) Revoke(ctx context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sub, ok := s.subs[id]
	if !ok || !sub.Active() {
		return ports.ErrNotFound
	}
	sub.RevokedAt = &at
	s.subs[id] = sub
	return nil
}

// ListByBuyer returns all active subscriptions for a buyer.
func (s *SubscriptionStore) ListByBuyer(ctx context.Context, buyerID string) ([]subscription.Subscription, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []subscription.Subscription
	for _, sub := range s.subs {
		if sub.BuyerID == buyerID && sub.Active() {
			result = append(result, sub)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// CountByService returns the number of active subscriptions to a service.
func (s *SubscriptionStore) CountByService(ctx context.Context, serviceID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, sub := range s.subs {
		if sub.ServiceID == serviceID && sub.Active() {
			n++
		}
	}
	return n, nil
}

// Ensure interface compliance.
var _ ports.SubscriptionStore = (*SubscriptionStore)(nil)
