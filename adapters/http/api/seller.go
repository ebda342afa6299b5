package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Heht571/LLMRouter/domain/service"
	"github.com/Heht571/LLMRouter/domain/usage"
	"github.com/Heht571/LLMRouter/ports"
)

// ServiceResponse is the seller-facing projection of a service.
// The endpoint URL appears here because the seller owns it; the stored
// credential never appears anywhere.
type ServiceResponse struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   string  `json:"description"`
	Category      string  `json:"category"`
	Docs          string  `json:"docs,omitempty"`
	EndpointURL   string  `json:"endpoint_url"`
	ProxyPrefix   string  `json:"proxy_prefix"`
	PricingModel  string  `json:"pricing_model"`
	PricePerCall  float64 `json:"price_per_call"`
	PricePerToken float64 `json:"price_per_token"`
	Active        bool    `json:"active"`
	CreatedAt     string  `json:"created_at"`
	UpdatedAt     string  `json:"updated_at"`
}

func serviceToResponse(s service.Service) ServiceResponse {
	return ServiceResponse{
		ID:            s.ID,
		Name:          s.Name,
		Description:   s.Description,
		Category:      s.Category,
		Docs:          s.Docs,
		EndpointURL:   s.EndpointURL,
		ProxyPrefix:   s.ProxyPrefix,
		PricingModel:  string(s.PricingModel),
		PricePerCall:  s.PricePerCall,
		PricePerToken: s.PricePerToken,
		Active:        s.Active,
		CreatedAt:     s.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     s.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// RegisterServiceRequest is the body of POST /seller/services.
type RegisterServiceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
	EndpointURL string `json:"endpoint_url"`
	SecretKey   string `json:"secret_key"`
	Docs        string `json:"docs"`
}

// RegisterService lists a new service for the authenticated seller.
func (h *Handler) RegisterService(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	var req RegisterServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	svc, err := h.registry.Register(r.Context(), service.RegisterParams{
		SellerID:    claims.UserID,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		EndpointURL: req.EndpointURL,
		SecretKey:   req.SecretKey,
		Docs:        req.Docs,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, serviceToResponse(svc))
}

// ListSellerServices returns all services owned by the seller.
func (h *Handler) ListSellerServices(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	services, err := h.registry.ListBySeller(r.Context(), claims.UserID)
	if err != nil {
		writeAppError(w, err)
		return
	}

	out := make([]ServiceResponse, 0, len(services))
	for _, svc := range services {
		out = append(out, serviceToResponse(svc))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"services": out})
}

// GetSellerService returns one service owned by the seller.
func (h *Handler) GetSellerService(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	svc, err := h.registry.Get(r.Context(), claims.UserID, chi.URLParam(r, "id"))
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, serviceToResponse(svc))
}

// UpdateServiceRequest is the body of PUT /seller/services/{id}.
// Omitted fields are left unchanged.
type UpdateServiceRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
	EndpointURL *string `json:"endpoint_url"`
	SecretKey   *string `json:"secret_key"`
	Docs        *string `json:"docs"`
	Active      *bool   `json:"active"`
}

// UpdateService applies a partial update to a seller's service.
func (h *Handler) UpdateService(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	var req UpdateServiceRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	svc, err := h.registry.Update(r.Context(), claims.UserID, chi.URLParam(r, "id"), service.Update{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		EndpointURL: req.EndpointURL,
		SecretKey:   req.SecretKey,
		Docs:        req.Docs,
		Active:      req.Active,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, serviceToResponse(svc))
}

// DeactivateService delists a seller's service. Subscriptions survive but
// proxy calls to the service start failing.
func (h *Handler) DeactivateService(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	if err := h.registry.Deactivate(r.Context(), claims.UserID, chi.URLParam(r, "id")); err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}

// PricingRequest is the body of PUT /seller/services/{id}/pricing.
type PricingRequest struct {
	PricingModel  string  `json:"pricing_model"`
	PricePerCall  float64 `json:"price_per_call"`
	PricePerToken float64 `json:"price_per_token"`
}

// SetPricing replaces the pricing for a seller's service.
func (h *Handler) SetPricing(w http.ResponseWriter, r *http.Request) {
	claims, _ := ClaimsFromContext(r.Context())

	var req PricingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	svc, err := h.registry.SetPricing(r.Context(), claims.UserID, chi.URLParam(r, "id"), service.Pricing{
		Model:         service.PricingModel(req.PricingModel),
		PricePerCall:  req.PricePerCall,
		PricePerToken: req.PricePerToken,
	})
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, serviceToResponse(svc))
}

// UsageResponse is aggregated usage with a per-service breakdown.
type UsageResponse struct {
	Period      string              `json:"period"`
	Calls       int64               `json:"calls"`
	TotalTokens int64               `json:"total_tokens"`
	Cost        float64             `json:"cost"`
	ByService   []BreakdownResponse `json:"by_service"`
}

// BreakdownResponse is one service's slice of a usage rollup.
type BreakdownResponse struct {
	ServiceID   string  `json:"service_id"`
	ServiceName string  `json:"service_name"`
	Calls       int64   `json:"calls"`
	TotalTokens int64   `json:"total_tokens"`
	Cost        float64 `json:"cost"`
}

// PointResponse is one dense time-series bucket.
type PointResponse struct {
	Date        string  `json:"date"`
	Calls       int64   `json:"calls"`
	TotalTokens int64   `json:"total_tokens"`
	Cost        float64 `json:"cost"`
}

func statsToResponse(s usage.Stats) UsageResponse {
	out := UsageResponse{
		Period:      string(s.Period),
		Calls:       s.Calls,
		TotalTokens: s.TotalTokens,
		Cost:        s.Cost,
		ByService:   make([]BreakdownResponse, 0, len(s.ByService)),
	}
	for _, b := range s.ByService {
		out.ByService = append(out.ByService, BreakdownResponse{
			ServiceID:   b.ServiceID,
			ServiceName: b.ServiceName,
			Calls:       b.Calls,
			TotalTokens: b.TotalTokens,
			Cost:        b.Cost,
		})
	}
	return out
}

func pointsToResponse(points []usage.Point) []PointResponse {
	out := make([]PointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, PointResponse{
			Date:        p.Date,
			Calls:       p.Calls,
			TotalTokens: p.TotalTokens,
			Cost:        p.Cost,
		})
	}
	return out
}

func (h *Handler) usageFor(w http.ResponseWriter, r *http.Request, role ports.Role) {
	claims, _ := ClaimsFromContext(r.Context())
	period := usage.ParsePeriod(r.URL.Query().Get("period"))

	stats, err := h.usage.Stats(r.Context(), claims.UserID, role, period)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, statsToResponse(stats))
}

func (h *Handler) timeseriesFor(w http.ResponseWriter, r *http.Request, role ports.Role) {
	claims, _ := ClaimsFromContext(r.Context())
	period := usage.ParsePeriod(r.URL.Query().Get("period"))

	points, err := h.usage.Timeseries(r.Context(), claims.UserID, role, period)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"period": string(period),
		"points": pointsToResponse(points),
	})
}

// EventResponse is one proxied call in a recent-activity listing.
type EventResponse struct {
	ID          string  `json:"id"`
	ServiceID   string  `json:"service_id"`
	Method      string  `json:"method"`
	Path        string  `json:"path"`
	StatusCode  int     `json:"status_code"`
	LatencyMs   int64   `json:"latency_ms"`
	TotalTokens int64   `json:"total_tokens"`
	Model       string  `json:"model,omitempty"`
	Cost        float64 `json:"cost"`
	Timestamp   string  `json:"timestamp"`
}

func eventsToResponse(events []usage.Event) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for _, e := range events {
		out = append(out, EventResponse{
			ID:          e.ID,
			ServiceID:   e.ServiceID,
			Method:      e.Method,
			Path:        e.Path,
			StatusCode:  e.StatusCode,
			LatencyMs:   e.LatencyMs,
			TotalTokens: e.TotalTokens,
			Model:       e.Model,
			Cost:        e.Cost,
			Timestamp:   e.Timestamp.UTC().Format(time.RFC3339),
		})
	}
	return out
}

const (
	defaultRecentLimit = 20
	maxRecentLimit     = 100
)

func (h *Handler) recentFor(w http.ResponseWriter, r *http.Request, role ports.Role) {
	claims, _ := ClaimsFromContext(r.Context())

	limit := defaultRecentLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = n
	}
	if limit > maxRecentLimit {
		limit = maxRecentLimit
	}

	events, err := h.usage.Recent(r.Context(), claims.UserID, role, limit)
	if err != nil {
		writeAppError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"events": eventsToResponse(events),
	})
}

// SellerUsage returns revenue rollups across the seller's services.
func (h *Handler) SellerUsage(w http.ResponseWriter, r *http.Request) {
	h.usageFor(w, r, ports.RoleSeller)
}

// SellerTimeseries returns the seller's dense usage time series.
func (h *Handler) SellerTimeseries(w http.ResponseWriter, r *http.Request) {
	h.timeseriesFor(w, r, ports.RoleSeller)
}

// SellerRecentCalls lists the latest calls against the seller's services.
func (h *Handler) SellerRecentCalls(w http.ResponseWriter, r *http.Request) {
	h.recentFor(w, r, ports.RoleSeller)
}
