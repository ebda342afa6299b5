package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Heht571/LLMRouter/domain/subscription"
	"github.com/Heht571/LLMRouter/ports"
)

// SubscriptionStore implements ports.SubscriptionStore using SQLite.
// The partial unique index on (buyer_id, service_id) WHERE revoked_at IS NULL
// enforces the one-active-key-per-pair invariant at the storage layer.
type SubscriptionStore struct {
	db *DB
}

// NewSubscriptionStore creates a new SQLite subscription store.
func NewSubscriptionStore(db *DB) *SubscriptionStore {
	return &SubscriptionStore{db: db}
}

// Create stores a new subscription.
func (s *SubscriptionStore) Create(ctx context.Context, sub subscription.Subscription) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO subscriptions (id, buyer_id, service_id, key_hash, key_prefix, created_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, sub.ID, sub.BuyerID, sub.ServiceID, sub.KeyHash, sub.KeyPrefix,
		sub.CreatedAt.UTC(), nullTime(sub.RevokedAt))
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ports.ErrDuplicate
	}
	return err
}

// GetByPrefix retrieves subscriptions matching a key prefix.
func (s *SubscriptionStore) GetByPrefix(ctx context.Context, prefix string) ([]subscription.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, buyer_id, service_id, key_hash, key_prefix, created_at, revoked_at
		FROM subscriptions
		WHERE key_prefix = ?
	`, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []subscription.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// GetActive retrieves the active subscription for a (buyer, service) pair.
func (s *SubscriptionStore) GetActive(ctx context.Context, buyerID, serviceID string) (subscription.Subscription, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, buyer_id, service_id, key_hash, key_prefix, created_at, revoked_at
		FROM subscriptions
		WHERE buyer_id = ? AND service_id = ? AND revoked_at IS NULL
	`, buyerID, serviceID)
	return scanSubscription(row)
}

// Revoke marks a subscription as revoked.
func (s *SubscriptionStore) Revoke(ctx context.Context, id string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE subscriptions SET revoked_at = ? WHERE id = ? AND revoked_at IS NULL
	`, at.UTC(), id)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// ListByBuyer returns all active subscriptions for a buyer.
func (s *SubscriptionStore) ListByBuyer(ctx context.Context, buyerID string) ([]subscription.Subscription, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, buyer_id, service_id, key_hash, key_prefix, created_at, revoked_at
		FROM subscriptions
		WHERE buyer_id = ? AND revoked_at IS NULL
		ORDER BY created_at DESC
	`, buyerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var subs []subscription.Subscription
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, rows.Err()
}

// CountByService returns the number of active subscriptions to a service.
func (s *SubscriptionStore) CountByService(ctx context.Context, serviceID string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM subscriptions WHERE service_id = ? AND revoked_at IS NULL
	`, serviceID).Scan(&count)
	return count, err
}

func scanSubscription(row rowScanner) (subscription.Subscription, error) {
	var sub subscription.Subscription
	var revoked sql.NullTime
	err := row.Scan(&sub.ID, &sub.BuyerID, &sub.ServiceID, &sub.KeyHash, &sub.KeyPrefix,
		&sub.CreatedAt, &revoked)
	if errors.Is(err, sql.ErrNoRows) {
		return subscription.Subscription{}, ports.ErrNotFound
	}
	if err != nil {
		return subscription.Subscription{}, err
	}
	if revoked.Valid {
		t := revoked.Time
		sub.RevokedAt = &t
	}
	return sub, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}

// Ensure interface compliance.
var _ ports.SubscriptionStore = (*SubscriptionStore)(nil)
