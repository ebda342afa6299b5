package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Heht571/LLMRouter/ports"
)

// AccountStore implements ports.AccountStore using SQLite.
type AccountStore struct {
	db *DB
}

// NewAccountStore creates a new SQLite account store.
func NewAccountStore(db *DB) *AccountStore {
	return &AccountStore{db: db}
}

// Create stores a new account.
func (s *AccountStore) Create(ctx context.Context, a ports.Account) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO accounts (id, username, email, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, a.ID, a.Username, a.Email, a.PasswordHash, string(a.Role), a.CreatedAt.UTC(), a.UpdatedAt.UTC())
	if err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return ports.ErrDuplicate
	}
	return err
}

// Get retrieves an account by ID.
func (s *AccountStore) Get(ctx context.Context, id string) (ports.Account, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, role, created_at, updated_at
		FROM accounts WHERE id = ?
	`, id))
}

// GetByUsername retrieves an account by username.
func (s *AccountStore) GetByUsername(ctx context.Context, username string) (ports.Account, error) {
	return s.scanOne(s.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, role, created_at, updated_at
		FROM accounts WHERE username = ?
	`, username))
}

// UpdatePassword replaces the stored password hash.
func (s *AccountStore) UpdatePassword(ctx context.Context, id string, hash []byte, at time.Time) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE accounts SET password_hash = ?, updated_at = ? WHERE id = ?
	`, hash, at.UTC(), id)
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

// GetProfile retrieves an account's profile.
func (s *AccountStore) GetProfile(ctx context.Context, accountID string) (ports.Profile, error) {
	var p ports.Profile
	err := s.db.QueryRowContext(ctx, `
		SELECT account_id, display_name, bio, company, website, location, timezone, updated_at
		FROM account_profiles WHERE account_id = ?
	`, accountID).Scan(&p.AccountID, &p.DisplayName, &p.Bio, &p.Company, &p.Website, &p.Location, &p.Timezone, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.Profile{}, ports.ErrNotFound
	}
	return p, err
}

// SaveProfile stores an account's profile, replacing any previous one.
func (s *AccountStore) SaveProfile(ctx context.Context, p ports.Profile) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO account_profiles (account_id, display_name, bio, company, website, location, timezone, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id) DO UPDATE SET
			display_name = excluded.display_name,
			bio          = excluded.bio,
			company      = excluded.company,
			website      = excluded.website,
			location     = excluded.location,
			timezone     = excluded.timezone,
			updated_at   = excluded.updated_at
	`, p.AccountID, p.DisplayName, p.Bio, p.Company, p.Website, p.Location, p.Timezone, p.UpdatedAt.UTC())
	return err
}

// GetSettings retrieves an account's settings.
func (s *AccountStore) GetSettings(ctx context.Context, accountID string) (ports.Settings, error) {
	var st ports.Settings
	err := s.db.QueryRowContext(ctx, `
		SELECT account_id, language, theme, currency,
			email_notifications, marketing_emails, usage_alerts, security_alerts, updated_at
		FROM account_settings WHERE account_id = ?
	`, accountID).Scan(&st.AccountID, &st.Language, &st.Theme, &st.Currency,
		&st.EmailNotifications, &st.MarketingEmails, &st.UsageAlerts, &st.SecurityAlerts, &st.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.Settings{}, ports.ErrNotFound
	}
	return st, err
}

// SaveSettings stores an account's settings, replacing any previous ones.
func (s *AccountStore) SaveSettings(ctx context.Context, st ports.Settings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO account_settings (account_id, language, theme, currency,
			email_notifications, marketing_emails, usage_alerts, security_alerts, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (account_id) DO UPDATE SET
			language            = excluded.language,
			theme               = excluded.theme,
			currency            = excluded.currency,
			email_notifications = excluded.email_notifications,
			marketing_emails    = excluded.marketing_emails,
			usage_alerts        = excluded.usage_alerts,
			security_alerts     = excluded.security_alerts,
			updated_at          = excluded.updated_at
	`, st.AccountID, st.Language, st.Theme, st.Currency,
		st.EmailNotifications, st.MarketingEmails, st.UsageAlerts, st.SecurityAlerts, st.UpdatedAt.UTC())
	return err
}

func (s *AccountStore) scanOne(row *sql.Row) (ports.Account, error) {
	var a ports.Account
	var role string
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &role, &a.CreatedAt, &a.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.Account{}, ports.ErrNotFound
	}
	if err != nil {
		return ports.Account{}, err
	}
	a.Role = ports.Role(role)
	return a, nil
}

// Ensure interface compliance.
var _ ports.AccountStore = (*AccountStore)(nil)
