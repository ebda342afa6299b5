package app

import (
	"context"
	"time"

	"github.com/Heht571/LLMRouter/domain/usage"
	"github.com/Heht571/LLMRouter/ports"
)

// UsageService serves aggregated usage to sellers and buyers.
// Buyers see spend across their subscriptions; sellers see revenue across
// their services. Both views are rollups of the same recorded events.
type UsageService struct {
	store ports.UsageStore
	clock ports.Clock
}

// NewUsageService creates a new usage service.
func NewUsageService(store ports.UsageStore, clock ports.Clock) *UsageService {
	return &UsageService{store: store, clock: clock}
}

// Stats returns totals and a per-service breakdown over the period's
// lookback window ending now.
func (s *UsageService) Stats(ctx context.Context, userID string, role ports.Role, period usage.Period) (usage.Stats, error) {
	since := period.WindowStart(s.clock.Now())
	stats, err := s.store.StatsSince(ctx, userID, role, since)
	if err != nil {
		return usage.Stats{}, err
	}
	stats.Period = period
	return stats, nil
}

// Recent returns the user's latest proxied calls from the past day,
// newest first, capped at limit.
func (s *UsageService) Recent(ctx context.Context, userID string, role ports.Role, limit int) ([]usage.Event, error) {
	since := s.clock.Now().Add(-24 * time.Hour)
	events, err := s.store.EventsSince(ctx, userID, role, since)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// Timeseries returns one point per bucket of the period's window, dense
// and zero-filled, oldest first.
func (s *UsageService) Timeseries(ctx context.Context, userID string, role ports.Role, period usage.Period) ([]usage.Point, error) {
	now := s.clock.Now()
	sparse, err := s.store.SeriesSince(ctx, userID, role, period, period.WindowStart(now))
	if err != nil {
		return nil, err
	}
	return usage.FillSeries(period, now, sparse), nil
}
