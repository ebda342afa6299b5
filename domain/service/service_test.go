package service_test

import (
	"testing"
	"time"

	"github.com/Heht571/LLMRouter/domain/service"
)

func TestValidateRegister(t *testing.T) {
	valid := service.RegisterParams{
		SellerID:    "seller-1",
		Name:        "GPT Relay",
		EndpointURL: "https://api.openai.com/v1",
		SecretKey:   "sk-real",
	}

	tests := []struct {
		name   string
		mutate func(*service.RegisterParams)
		want   string
	}{
		{"valid", func(p *service.RegisterParams) {}, ""},
		{"empty name", func(p *service.RegisterParams) { p.Name = "  " }, service.ReasonEmptyName},
		{"missing scheme", func(p *service.RegisterParams) { p.EndpointURL = "api.openai.com" }, service.ReasonBadEndpoint},
		{"ftp scheme", func(p *service.RegisterParams) { p.EndpointURL = "ftp://api.openai.com" }, service.ReasonBadEndpoint},
		{"no host", func(p *service.RegisterParams) { p.EndpointURL = "https://" }, service.ReasonBadEndpoint},
		{"empty secret", func(p *service.RegisterParams) { p.SecretKey = "" }, service.ReasonEmptySecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := valid
			tt.mutate(&p)
			if got := service.ValidateRegister(p); got != tt.want {
				t.Errorf("ValidateRegister() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestValidatePricing(t *testing.T) {
	tests := []struct {
		name    string
		pricing service.Pricing
		want    string
	}{
		{"per call", service.Pricing{Model: service.PricePerCall, PricePerCall: 0.01}, ""},
		{"per token", service.Pricing{Model: service.PricePerToken, PricePerToken: 0.0001}, ""},
		{"free is allowed", service.Pricing{Model: service.PricePerCall}, ""},
		{"unknown model", service.Pricing{Model: "per_minute"}, service.ReasonBadPricing},
		{"negative call price", service.Pricing{Model: service.PricePerCall, PricePerCall: -1}, service.ReasonNegativePrice},
		{"negative token price", service.Pricing{Model: service.PricePerToken, PricePerToken: -0.1}, service.ReasonNegativePrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := service.ValidatePricing(tt.pricing); got != tt.want {
				t.Errorf("ValidatePricing() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestCost(t *testing.T) {
	tests := []struct {
		name   string
		svc    service.Service
		tokens int64
		want   float64
	}{
		{
			name:   "per call ignores tokens",
			svc:    service.Service{PricingModel: service.PricePerCall, PricePerCall: 0.05, PricePerToken: 99},
			tokens: 5000,
			want:   0.05,
		},
		{
			name:   "per token multiplies",
			svc:    service.Service{PricingModel: service.PricePerToken, PricePerToken: 0.0001},
			tokens: 5000,
			want:   0.5,
		},
		{
			name:   "per token with zero tokens",
			svc:    service.Service{PricingModel: service.PricePerToken, PricePerToken: 0.0001},
			tokens: 0,
			want:   0,
		},
		{
			name:   "unset model falls back to per call",
			svc:    service.Service{PricePerCall: 0.02},
			tokens: 100,
			want:   0.02,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.svc.Cost(tt.tokens); got != tt.want {
				t.Errorf("Cost(%d) = %v, want %v", tt.tokens, got, tt.want)
			}
		})
	}
}

func TestApply(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	orig := service.Service{
		ID:          "svc-1",
		Name:        "Old Name",
		Description: "old",
		EndpointURL: "https://old.example.com",
		Active:      true,
		UpdatedAt:   now.Add(-time.Hour),
	}

	newName := "New Name"
	inactive := false
	updated := orig.Apply(service.Update{Name: &newName, Active: &inactive}, now)

	if updated.Name != newName {
		t.Errorf("Name = %q, want %q", updated.Name, newName)
	}
	if updated.Active {
		t.Error("Active = true, want false")
	}
	if updated.Description != "old" {
		t.Errorf("Description changed: %q", updated.Description)
	}
	if updated.EndpointURL != orig.EndpointURL {
		t.Errorf("EndpointURL changed: %q", updated.EndpointURL)
	}
	if !updated.UpdatedAt.Equal(now) {
		t.Errorf("UpdatedAt = %v, want %v", updated.UpdatedAt, now)
	}
	// Original untouched
	if orig.Name != "Old Name" {
		t.Errorf("original mutated: Name = %q", orig.Name)
	}
}

func TestProxyPrefixFor(t *testing.T) {
	tests := []struct {
		name    string
		slug    string
		svcName string
		want    string
	}{
		{"simple", "a1b2c3d4", "GPT Relay", "/api/v1/proxy/a1b2c3d4-gpt-relay"},
		{"punctuation stripped", "xyz", "Claude! (v2)", "/api/v1/proxy/xyz-claude-v2"},
		{"all symbols", "xyz", "!!!", "/api/v1/proxy/xyz-service"},
		{"underscores", "s1", "my_model_api", "/api/v1/proxy/s1-my-model-api"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := service.ProxyPrefixFor(tt.slug, tt.svcName); got != tt.want {
				t.Errorf("ProxyPrefixFor(%q, %q) = %q, want %q", tt.slug, tt.svcName, got, tt.want)
			}
		})
	}
}

func TestOwnedBy(t *testing.T) {
	svc := service.Service{SellerID: "seller-1"}
	if !svc.OwnedBy("seller-1") {
		t.Error("OwnedBy(seller-1) = false, want true")
	}
	if svc.OwnedBy("seller-2") {
		t.Error("OwnedBy(seller-2) = true, want false")
	}
}
