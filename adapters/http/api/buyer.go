package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Heht571/LLMRouter/domain/service"
	"github.com/Heht571/LLMRouter/ports"
)

// CatalogEntry is the buyer-facing projection of a service. Endpoint URL
// and credential stay server-side; buyers only ever see the proxy prefix.
type CatalogEntry struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	Docs          string  `json:"docs,omitempty"`
	ProxyPrefix   string  `json:"proxy_prefix"`
	PricingModel  string  `json:"pricing_model"`
	PricePerCall  float64 `json:"price_per_call"`
	PricePerToken float64 `json:"price_per_token"`
	CreatedAt     string  `json:"created_at"`
}

func catalogEntry(s service.Service) CatalogEntry {
	return CatalogEntry{
		ID:            s.ID,
		Name:          s.Name,
		Description:   s.Description,
		Category:      s.Category,
		Docs:          s.Docs,
		ProxyPrefix:   s.ProxyPrefix,
		PricingModel:  string(s.PricingModel),
		PricePerCall:  s.PricePerCall,
		PricePerToken: s.PricePerToken,
		CreatedAt:     s.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// BrowseServices returns the catalog of active services.
func (h *Handler) BrowseServices(w http.ResponseWriter, r *http.Request) {
	services, err := h.registry.ListActive(r.Context())
	if err != nil {
		writeAppError(w, err)
		return
	}

	out := make([]CatalogEntry, 0, len(services))
	for _, svc := range services {
		out = append(out, catalogEntry(svc))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"services": out})
}

// ServiceDetailResponse is one catalog entry with its subscriber count.
type ServiceDetailResponse struct {
	CatalogEntry
	Subscribers int64 `json:"subscribers"`
}

// ServiceDetail returns one active service with subscriber count.
func (h *Handler) ServiceDetail(w http.ResponseWriter, r *http.Request) {
	listing, err := h.registry.Detail(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ServiceDetailResponse{
		CatalogEntry: catalogEntry(listing.Service),
		Subscribers:  listing.Subscribers,
	})
}

// SubscribeResponse carries the freshly minted platform API key.
// The key is shown here exactly once; only its hash is stored.
type SubscribeResponse struct {
	SubscriptionID string `json:"subscription_id"`
	ServiceID      string `json:"service_id"`
	PlatformAPIKey string `json:"platform_api_key"`
	ProxyPrefix    string `json:"proxy_prefix"`
	CreatedAt      string `json:"created_at"`
}

// Subscribe issues a platform API key for the authenticated buyer.
func (h *Handler) Subscribe(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	issued, err := h.subs.Subscribe(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, SubscribeResponse{
		SubscriptionID: issued.Sub.ID,
		ServiceID:      issued.Sub.ServiceID,
		PlatformAPIKey: issued.RawKey,
		ProxyPrefix:    issued.ProxyPrefix,
		CreatedAt:      issued.Sub.CreatedAt.UTC().Format(time.RFC3339),
	})
}

// SubscriptionResponse is one row of the buyer's subscription list.
// Only the key prefix is available; the full key cannot be recovered.
type SubscriptionResponse struct {
	ID            string `json:"id"`
	ServiceID     string `json:"service_id"`
	ServiceName   string `json:"service_name"`
	ProxyPrefix   string `json:"proxy_prefix"`
	KeyPrefix     string `json:"key_prefix"`
	ServiceActive bool   `json:"service_active"`
	CreatedAt     string `json:"created_at"`
}

// ListSubscriptions returns the buyer's active subscriptions.
func (h *Handler) ListSubscriptions(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	entries, err := h.subs.List(r.Context(), claims.UserID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	out := make([]SubscriptionResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, SubscriptionResponse{
			ID:            e.Sub.ID,
			ServiceID:     e.Sub.ServiceID,
			ServiceName:   e.ServiceName,
			ProxyPrefix:   e.ProxyPrefix,
			KeyPrefix:     e.Sub.KeyPrefix,
			ServiceActive: e.Active,
			CreatedAt:     e.Sub.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"subscriptions": out})
}

// Unsubscribe revokes one of the buyer's subscriptions.
func (h *Handler) Unsubscribe(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	if err := h.subs.Unsubscribe(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

// BuyerUsage returns spend rollups across the buyer's subscriptions.
func (h *Handler) BuyerUsage(w http.ResponseWriter, r *http.Request) {
	h.usageFor(w, r, ports.RoleBuyer)
}

// BuyerTimeseries returns the buyer's dense usage time series.
func (h *Handler) BuyerTimeseries(w http.ResponseWriter, r *http.Request) {
	h.timeseriesFor(w, r, ports.RoleBuyer)
}

// BuyerRecentCalls lists the buyer's latest proxied calls.
func (h *Handler) BuyerRecentCalls(w http.ResponseWriter, r *http.Request) {
	h.recentFor(w, r, ports.RoleBuyer)
}
