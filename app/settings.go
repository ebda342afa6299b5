package app

import (
	"context"
	"errors"
	"strings"

	"github.com/Heht571/LLMRouter/ports"
)

func validWebsite(url string) bool {
	return strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://")
}

// DefaultSettings are the preferences an account starts with before it
// ever saves any.
func DefaultSettings(accountID string) ports.Settings {
	return ports.Settings{
		AccountID:          accountID,
		Language:           "en",
		Theme:              "light",
		Currency:           "USD",
		EmailNotifications: true,
		UsageAlerts:        true,
		SecurityAlerts:     true,
	}
}

// ProfileUpdate describes a partial profile mutation. Nil fields are
// left unchanged.
type ProfileUpdate struct {
	DisplayName *string
	Bio         *string
	Company     *string
	Website     *string
	Location    *string
	Timezone    *string
}

// SettingsUpdate describes a partial settings mutation. Nil fields are
// left unchanged.
type SettingsUpdate struct {
	Language           *string
	Theme              *string
	Currency           *string
	EmailNotifications *bool
	MarketingEmails    *bool
	UsageAlerts        *bool
	SecurityAlerts     *bool
}

// Profile returns an account's profile. Accounts that never saved one
// get an empty profile, not an error.
func (s *AccountService) Profile(ctx context.Context, accountID string) (ports.Profile, error) {
	if _, err := s.Get(ctx, accountID); err != nil {
		return ports.Profile{}, err
	}
	p, err := s.accounts.GetProfile(ctx, accountID)
	if errors.Is(err, ports.ErrNotFound) {
		return ports.Profile{AccountID: accountID}, nil
	}
	return p, err
}

// UpdateProfile applies a partial profile update and returns the result.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID string, u ProfileUpdate) (ports.Profile, error) {
	p, err := s.Profile(ctx, accountID)
	if err != nil {
		return ports.Profile{}, err
	}

	if u.DisplayName != nil {
		p.DisplayName = *u.DisplayName
	}
	if u.Bio != nil {
		p.Bio = *u.Bio
	}
	if u.Company != nil {
		p.Company = *u.Company
	}
	if u.Website != nil {
		if *u.Website != "" && !validWebsite(*u.Website) {
			return ports.Profile{}, Validation("invalid_website")
		}
		p.Website = *u.Website
	}
	if u.Location != nil {
		p.Location = *u.Location
	}
	if u.Timezone != nil {
		p.Timezone = *u.Timezone
	}
	p.UpdatedAt = s.clock.Now()

	if err := s.accounts.SaveProfile(ctx, p); err != nil {
		return ports.Profile{}, err
	}
	return p, nil
}

// Settings returns an account's settings, falling back to defaults for
// accounts that never saved any.
func (s *AccountService) Settings(ctx context.Context, accountID string) (ports.Settings, error) {
	if _, err := s.Get(ctx, accountID); err != nil {
		return ports.Settings{}, err
	}
	st, err := s.accounts.GetSettings(ctx, accountID)
	if errors.Is(err, ports.ErrNotFound) {
		return DefaultSettings(accountID), nil
	}
	return st, err
}

// UpdateSettings applies a partial settings update and returns the result.
func (s *AccountService) UpdateSettings(ctx context.Context, accountID string, u SettingsUpdate) (ports.Settings, error) {
	st, err := s.Settings(ctx, accountID)
	if err != nil {
		return ports.Settings{}, err
	}

	if u.Language != nil {
		st.Language = *u.Language
	}
	if u.Theme != nil {
		if *u.Theme != "light" && *u.Theme != "dark" {
			return ports.Settings{}, Validation("invalid_theme")
		}
		st.Theme = *u.Theme
	}
	if u.Currency != nil {
		st.Currency = *u.Currency
	}
	if u.EmailNotifications != nil {
		st.EmailNotifications = *u.EmailNotifications
	}
	if u.MarketingEmails != nil {
		st.MarketingEmails = *u.MarketingEmails
	}
	if u.UsageAlerts != nil {
		st.UsageAlerts = *u.UsageAlerts
	}
	if u.SecurityAlerts != nil {
		st.SecurityAlerts = *u.SecurityAlerts
	}
	st.UpdatedAt = s.clock.Now()

	if err := s.accounts.SaveSettings(ctx, st); err != nil {
		return ports.Settings{}, err
	}
	return st, nil
}
