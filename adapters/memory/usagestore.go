package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Heht571/LLMRouter/domain/usage"
	"github.com/Heht571/LLMRouter/ports"
)

// UsageStore is an in-memory implementation of ports.UsageStore.
// Aggregation is delegated to the pure functions in domain/usage so the
// in-memory and SQLite stores produce identical rollups.
type UsageStore struct {
	mu     sync.RWMutex
	events []usage.Event
	names  map[string]string // service ID to name, for breakdowns
}

// NewUsageStore creates a new in-memory usage store.
func NewUsageStore() *UsageStore {
	return &UsageStore{
		names: make(map[string]string),
	}
}

// SetServiceName registers a service name for breakdown output (for testing).
func (s *UsageStore) SetServiceName(serviceID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names[serviceID] = name
}

// RecordBatch stores multiple usage events.
func (s *UsageStore) RecordBatch(ctx context.Context, events []usage.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.events = append(s.events, events...)
	return nil
}

func matches(e usage.Event, userID string, role ports.Role) bool {
	if role == ports.RoleSeller {
		return e.SellerID == userID
	}
	return e.BuyerID == userID
}

func (s *UsageStore) filtered(userID string, role ports.Role, since time.Time) []usage.Event {
	var result []usage.Event
	for _, e := range s.events {
		if matches(e, userID, role) && !e.Timestamp.Before(since) {
			result = append(result, e)
		}
	}
	return result
}

// StatsSince returns aggregated usage for one user from since on.
func (s *UsageStore) StatsSince(ctx context.Context, userID string, role ports.Role, since time.Time) (usage.Stats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return usage.Aggregate(s.filtered(userID, role, since), "", s.names), nil
}

// SeriesSince returns sparse time-series buckets keyed by bucket label.
func (s *UsageStore) SeriesSince(ctx context.Context, userID string, role ports.Role, period usage.Period, since time.Time) (map[string]usage.Point, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sparse := make(map[string]usage.Point)
	for _, e := range s.filtered(userID, role, since) {
		label := period.Label(period.BucketStart(e.Timestamp))
		p := sparse[label]
		p.Calls++
		p.TotalTokens += e.TotalTokens
		p.Cost += e.Cost
		sparse[label] = p
	}
	return sparse, nil
}

// EventsSince returns raw events for one user from since on.
func (s *UsageStore) EventsSince(ctx context.Context, userID string, role ports.Role, since time.Time) ([]usage.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := s.filtered(userID, role, since)
	sort.Slice(result, func(i, j int) bool {
		return result[i].Timestamp.After(result[j].Timestamp)
	})
	return result, nil
}

// GetAll returns all recorded events (for testing).
func (s *UsageStore) GetAll() []usage.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]usage.Event, len(s.events))
	copy(result, s.events)
	return result
}

// Ensure interface compliance.
var _ ports.UsageStore = (*UsageStore)(nil)
