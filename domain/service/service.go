// Package service provides value types and pure validation functions for
// marketplace API services. This package has NO dependencies on I/O.
package service

import (
	"net/url"
	"strings"
	"time"
)

// PricingModel is the rate basis used to price proxied calls.
type PricingModel string

const (
	PricePerCall  PricingModel = "per_call"
	PricePerToken PricingModel = "per_token"
)

// Valid reports whether m is a known pricing model.
func (m PricingModel) Valid() bool {
	return m == PricePerCall || m == PricePerToken
}

// Service represents a seller-registered upstream API (immutable value type).
// EndpointURL and EncryptedKey are secrets and must never appear in any
// response projection.
type Service struct {
	ID           string
	SellerID     string
	Name         string
	Description  string
	Category     string
	Docs         string

	EndpointURL  string // seller's real base URL (secret)
	EncryptedKey []byte // AES-GCM ciphertext of the seller's credential (secret)

	ProxyPrefix  string // platform path prefix handed to buyers

	PricingModel  PricingModel
	PricePerCall  float64
	PricePerToken float64

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Pricing is a pricing update (value type).
type Pricing struct {
	Model         PricingModel
	PricePerCall  float64
	PricePerToken float64
}

// RegisterParams contains parameters for registering a new service.
type RegisterParams struct {
	SellerID    string
	Name        string
	Description string
	Category    string
	EndpointURL string
	SecretKey   string
	Docs        string
}

// Update describes a partial service mutation. Nil fields are left unchanged.
type Update struct {
	Name        *string
	Description *string
	Category    *string
	EndpointURL *string
	SecretKey   *string // rotates the stored credential when set
	Docs        *string
	Active      *bool
}

// Validation failure reasons.
const (
	ReasonEmptyName      = "empty_name"
	ReasonBadEndpoint    = "invalid_endpoint_url"
	ReasonEmptySecret    = "empty_secret_key"
	ReasonBadPricing     = "invalid_pricing_model"
	ReasonNegativePrice  = "negative_price"
)

// ValidateRegister checks registration parameters.
// This is a PURE function. Returns "" when valid.
func ValidateRegister(p RegisterParams) string {
	if strings.TrimSpace(p.Name) == "" {
		return ReasonEmptyName
	}
	if !ValidEndpointURL(p.EndpointURL) {
		return ReasonBadEndpoint
	}
	if p.SecretKey == "" {
		return ReasonEmptySecret
	}
	return ""
}

// ValidEndpointURL reports whether raw is a syntactically valid absolute
// http(s) URL. This is a PURE function.
func ValidEndpointURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	return u.Host != ""
}

// ValidatePricing checks a pricing update. Returns "" when valid.
// This is a PURE function.
func ValidatePricing(p Pricing) string {
	if !p.Model.Valid() {
		return ReasonBadPricing
	}
	if p.PricePerCall < 0 || p.PricePerToken < 0 {
		return ReasonNegativePrice
	}
	return ""
}

// Cost computes the price of a single proxied call under the service's
// pricing model. tokens is the total token count extracted from the
// upstream response; it is ignored for per-call pricing.
// This is a PURE function, and the single source of the pricing invariant:
// per-event costs summed at rollup equal the rollup of raw counts.
func (s Service) Cost(tokens int64) float64 {
	switch s.PricingModel {
	case PricePerToken:
		return float64(tokens) * s.PricePerToken
	default:
		return s.PricePerCall
	}
}

// Apply returns a copy of s with the update applied at time now.
// This is a PURE function.
func (s Service) Apply(u Update, now time.Time) Service {
	if u.Name != nil {
		s.Name = *u.Name
	}
	if u.Description != nil {
		s.Description = *u.Description
	}
	if u.Category != nil {
		s.Category = *u.Category
	}
	if u.EndpointURL != nil {
		s.EndpointURL = *u.EndpointURL
	}
	if u.Docs != nil {
		s.Docs = *u.Docs
	}
	if u.Active != nil {
		s.Active = *u.Active
	}
	s.UpdatedAt = now
	return s
}

// OwnedBy reports whether sellerID owns the service.
func (s Service) OwnedBy(sellerID string) bool {
	return s.SellerID == sellerID
}

// ProxyPrefixFor derives the buyer-facing proxy path prefix for a service.
// slug should come from a Random source; name is lowercased and squashed to
// a URL-safe fragment. This is a PURE function.
func ProxyPrefixFor(slug, name string) string {
	frag := strings.ToLower(strings.TrimSpace(name))
	var b strings.Builder
	for _, r := range frag {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '_':
			b.WriteByte('-')
		}
	}
	frag = strings.Trim(b.String(), "-")
	if frag == "" {
		frag = "service"
	}
	return "/api/v1/proxy/" + slug + "-" + frag
}
