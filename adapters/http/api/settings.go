package api

import (
	"net/http"
	"time"

	"github.com/Heht571/LLMRouter/app"
	"github.com/Heht571/LLMRouter/ports"
)

// ProfileResponse is the public projection of an account profile.
type ProfileResponse struct {
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio"`
	Company     string `json:"company"`
	Website     string `json:"website"`
	Location    string `json:"location"`
	Timezone    string `json:"timezone"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

func profileToResponse(p ports.Profile) ProfileResponse {
	resp := ProfileResponse{
		DisplayName: p.DisplayName,
		Bio:         p.Bio,
		Company:     p.Company,
		Website:     p.Website,
		Location:    p.Location,
		Timezone:    p.Timezone,
	}
	if !p.UpdatedAt.IsZero() {
		resp.UpdatedAt = p.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// SettingsResponse is the public projection of account settings.
type SettingsResponse struct {
	Language           string `json:"language"`
	Theme              string `json:"theme"`
	Currency           string `json:"currency"`
	EmailNotifications bool   `json:"email_notifications"`
	MarketingEmails    bool   `json:"marketing_emails"`
	UsageAlerts        bool   `json:"usage_alerts"`
	SecurityAlerts     bool   `json:"security_alerts"`
	UpdatedAt          string `json:"updated_at,omitempty"`
}

func settingsToResponse(s ports.Settings) SettingsResponse {
	resp := SettingsResponse{
		Language:           s.Language,
		Theme:              s.Theme,
		Currency:           s.Currency,
		EmailNotifications: s.EmailNotifications,
		MarketingEmails:    s.MarketingEmails,
		UsageAlerts:        s.UsageAlerts,
		SecurityAlerts:     s.SecurityAlerts,
	}
	if !s.UpdatedAt.IsZero() {
		resp.UpdatedAt = s.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return resp
}

// ProfileRequest is the body of PUT /auth/profile. Omitted fields are
// left unchanged.
type ProfileRequest struct {
	DisplayName *string `json:"display_name"`
	Bio         *string `json:"bio"`
	Company     *string `json:"company"`
	Website     *string `json:"website"`
	Location    *string `json:"location"`
	Timezone    *string `json:"timezone"`
}

// SettingsRequest is the body of PUT /auth/settings. Omitted fields are
// left unchanged.
type SettingsRequest struct {
	Language           *string `json:"language"`
	Theme              *string `json:"theme"`
	Currency           *string `json:"currency"`
	EmailNotifications *bool   `json:"email_notifications"`
	MarketingEmails    *bool   `json:"marketing_emails"`
	UsageAlerts        *bool   `json:"usage_alerts"`
	SecurityAlerts     *bool   `json:"security_alerts"`
}

// GetProfile returns the authenticated account's profile.
func (h *Handler) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	profile, err := h.accounts.Profile(r.Context(), claims.UserID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profileToResponse(profile))
}

// UpdateProfile applies a partial profile update.
func (h *Handler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	var req ProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	profile, err := h.accounts.UpdateProfile(r.Context(), claims.UserID, app.ProfileUpdate{
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
		Company:     req.Company,
		Website:     req.Website,
		Location:    req.Location,
		Timezone:    req.Timezone,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profileToResponse(profile))
}

// GetSettings returns the authenticated account's settings.
func (h *Handler) GetSettings(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	settings, err := h.accounts.Settings(r.Context(), claims.UserID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsToResponse(settings))
}

// UpdateSettings applies a partial settings update.
func (h *Handler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	var req SettingsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	settings, err := h.accounts.UpdateSettings(r.Context(), claims.UserID, app.SettingsUpdate{
		Language:           req.Language,
		Theme:              req.Theme,
		Currency:           req.Currency,
		EmailNotifications: req.EmailNotifications,
		MarketingEmails:    req.MarketingEmails,
		UsageAlerts:        req.UsageAlerts,
		SecurityAlerts:     req.SecurityAlerts,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, settingsToResponse(settings))
}

// AccountSettingsResponse bundles profile and settings for the
// role-scoped account-settings pages.
type AccountSettingsResponse struct {
	Account  AccountResponse  `json:"account"`
	Profile  ProfileResponse  `json:"profile"`
	Settings SettingsResponse `json:"settings"`
}

// AccountSettings returns the combined account, profile and settings view.
func (h *Handler) AccountSettings(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	account, err := h.accounts.Get(r.Context(), claims.UserID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	profile, err := h.accounts.Profile(r.Context(), claims.UserID)
	if err != nil {
		writeAppError(w, err)
		return
	}
	settings, err := h.accounts.Settings(r.Context(), claims.UserID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, AccountSettingsResponse{
		Account:  accountToResponse(account),
		Profile:  profileToResponse(profile),
		Settings: settingsToResponse(settings),
	})
}
