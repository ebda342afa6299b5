package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/Heht571/LLMRouter/domain/usage"
	"github.com/Heht571/LLMRouter/ports"
)

// UsageStore implements ports.UsageStore using SQLite.
type UsageStore struct {
	db *DB
}

// NewUsageStore creates a new SQLite usage store.
func NewUsageStore(db *DB) *UsageStore {
	return &UsageStore{db: db}
}

// roleColumn maps a role to the usage_events column it filters on.
// The column name is taken from this fixed map, never from user input.
func roleColumn(role ports.Role) string {
	if role == ports.RoleSeller {
		return "seller_id"
	}
	return "buyer_id"
}

// RecordBatch stores multiple usage events.
func (s *UsageStore) RecordBatch(ctx context.Context, events []usage.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO usage_events (
			id, subscription_id, buyer_id, service_id, seller_id,
			method, path, status_code, latency_ms,
			prompt_tokens, completion_tokens, total_tokens, model,
			request_bytes, response_bytes, cost, timestamp
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		// Store timestamps in UTC for consistent bucketing.
		_, err := stmt.ExecContext(ctx,
			e.ID, e.SubscriptionID, e.BuyerID, e.ServiceID, e.SellerID,
			e.Method, e.Path, e.StatusCode, e.LatencyMs,
			e.PromptTokens, e.CompletionTokens, e.TotalTokens, e.Model,
			e.RequestBytes, e.ResponseBytes, e.Cost, e.Timestamp.UTC(),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// StatsSince returns aggregated usage for one user from since on.
func (s *UsageStore) StatsSince(ctx context.Context, userID string, role ports.Role, since time.Time) (usage.Stats, error) {
	col := roleColumn(role)
	sinceStr := since.UTC().Format("2006-01-02 15:04:05")

	var stats usage.Stats
	row := s.db.QueryRowContext(ctx, fmt.Sprintf(`
		SELECT
			COUNT(*),
			COALESCE(SUM(total_tokens), 0),
			COALESCE(SUM(cost), 0)
		FROM usage_events
		WHERE %s = ? AND datetime(timestamp) >= datetime(?)
	`, col), userID, sinceStr)
	if err := row.Scan(&stats.Calls, &stats.TotalTokens, &stats.Cost); err != nil {
		return usage.Stats{}, err
	}

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT
			ue.service_id,
			COALESCE(sv.name, ''),
			COUNT(*) AS calls,
			COALESCE(SUM(ue.total_tokens), 0),
			COALESCE(SUM(ue.cost), 0)
		FROM usage_events ue
		LEFT JOIN services sv ON ue.service_id = sv.id
		WHERE ue.%s = ? AND datetime(ue.timestamp) >= datetime(?)
		GROUP BY ue.service_id
		ORDER BY calls DESC, ue.service_id ASC
	`, col), userID, sinceStr)
	if err != nil {
		return usage.Stats{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var b usage.ServiceBreakdown
		if err := rows.Scan(&b.ServiceID, &b.ServiceName, &b.Calls, &b.TotalTokens, &b.Cost); err != nil {
			return usage.Stats{}, err
		}
		stats.ByService = append(stats.ByService, b)
	}
	return stats, rows.Err()
}

// bucketExpr returns the SQLite expression producing the same bucket label
// as usage.Period.Label for UTC timestamps.
func bucketExpr(period usage.Period) string {
	switch period {
	case usage.PeriodHourly:
		return "strftime('%Y-%m-%d %H:00', timestamp)"
	case usage.PeriodWeekly:
		// Monday of the event's week, matching Period.BucketStart.
		return "date(timestamp, 'weekday 0', '-6 days')"
	case usage.PeriodMonthly:
		return "strftime('%Y-%m', timestamp)"
	case usage.PeriodYearly:
		return "strftime('%Y', timestamp)"
	default:
		return "strftime('%Y-%m-%d', timestamp)"
	}
}

// SeriesSince returns sparse time-series buckets keyed by bucket label.
func (s *UsageStore) SeriesSince(ctx context.Context, userID string, role ports.Role, period usage.Period, since time.Time) (map[string]usage.Point, error) {
	col := roleColumn(role)
	sinceStr := since.UTC().Format("2006-01-02 15:04:05")

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT
			%s AS bucket,
			COUNT(*),
			COALESCE(SUM(total_tokens), 0),
			COALESCE(SUM(cost), 0)
		FROM usage_events
		WHERE %s = ? AND datetime(timestamp) >= datetime(?)
		GROUP BY bucket
	`, bucketExpr(period), col), userID, sinceStr)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	sparse := make(map[string]usage.Point)
	for rows.Next() {
		var p usage.Point
		if err := rows.Scan(&p.Date, &p.Calls, &p.TotalTokens, &p.Cost); err != nil {
			return nil, err
		}
		sparse[p.Date] = p
	}
	return sparse, rows.Err()
}

// EventsSince returns raw events for one user from since on.
func (s *UsageStore) EventsSince(ctx context.Context, userID string, role ports.Role, since time.Time) ([]usage.Event, error) {
	col := roleColumn(role)
	sinceStr := since.UTC().Format("2006-01-02 15:04:05")

	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT id, subscription_id, buyer_id, service_id, seller_id,
			method, path, status_code, latency_ms,
			prompt_tokens, completion_tokens, total_tokens, model,
			request_bytes, response_bytes, cost, timestamp
		FROM usage_events
		WHERE %s = ? AND datetime(timestamp) >= datetime(?)
		ORDER BY timestamp DESC
	`, col), userID, sinceStr)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []usage.Event
	for rows.Next() {
		var e usage.Event
		err := rows.Scan(&e.ID, &e.SubscriptionID, &e.BuyerID, &e.ServiceID, &e.SellerID,
			&e.Method, &e.Path, &e.StatusCode, &e.LatencyMs,
			&e.PromptTokens, &e.CompletionTokens, &e.TotalTokens, &e.Model,
			&e.RequestBytes, &e.ResponseBytes, &e.Cost, &e.Timestamp)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// Ensure interface compliance.
var _ ports.UsageStore = (*UsageStore)(nil)
