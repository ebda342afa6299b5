// Package http provides the HTTP surface of the gateway.
package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/Heht571/LLMRouter/adapters/metrics"
	"github.com/Heht571/LLMRouter/app"
	"github.com/Heht571/LLMRouter/domain/proxy"
)

// GatewayHandler wraps the gateway service for HTTP handling.
type GatewayHandler struct {
	service *app.GatewayService
	logger  zerolog.Logger
	metrics *metrics.Collector
}

// NewGatewayHandler creates a new HTTP gateway handler.
func NewGatewayHandler(service *app.GatewayService, logger zerolog.Logger, m *metrics.Collector) *GatewayHandler {
	return &GatewayHandler{
		service: service,
		logger:  logger,
		metrics: m,
	}
}

// ServeHTTP handles incoming proxied requests.
func (h *GatewayHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var body []byte
	if r.Body != nil {
		var err error
		body, err = io.ReadAll(io.LimitReader(r.Body, 10<<20)) // 10MB limit
		if err != nil {
			h.logger.Error().Err(err).Msg("failed to read request body")
			writeProxyError(w, &proxy.ErrorResponse{
				Status:  400,
				Code:    "bad_request",
				Message: "Failed to read request body",
			})
			return
		}
	}

	req := proxy.Request{
		PlatformKey: extractPlatformKey(r),
		Method:      r.Method,
		Path:        r.URL.Path,
		Query:       r.URL.RawQuery,
		Headers:     extractHeaders(r),
		Body:        body,
		RemoteIP:    extractIP(r),
		UserAgent:   r.UserAgent(),
		TraceID:     middleware.GetReqID(ctx),
	}

	result := h.service.Handle(ctx, req)
	h.logRequest(req, result)

	if result.Error != nil {
		// Throttle responses carry X-RateLimit headers alongside the error
		for k, v := range result.Response.Headers {
			w.Header().Set(k, v)
		}
		writeProxyError(w, result.Error)
		return
	}

	for k, v := range result.Response.Headers {
		w.Header().Set(k, v)
	}
	w.WriteHeader(result.Response.Status)
	if len(result.Response.Body) > 0 {
		if _, err := w.Write(result.Response.Body); err != nil {
			h.logger.Error().Err(err).Msg("failed to write response body")
		}
	}
}

func (h *GatewayHandler) logRequest(req proxy.Request, result app.HandleResult) {
	event := h.logger.Info()

	if result.Error != nil {
		event = h.logger.Warn()
		event.Int("error_status", result.Error.Status)
		event.Str("error_code", result.Error.Code)

		if h.metrics != nil {
			switch result.Error.Code {
			case "invalid_platform_key", "missing_platform_key":
				h.metrics.AuthFailures.WithLabelValues(result.Error.Code).Inc()
			case "rate_limited":
				h.metrics.RateLimited.Inc()
			case "upstream_error", "upstream_timeout":
				h.metrics.UpstreamErrors.WithLabelValues(result.Error.Code).Inc()
			}
		}
	} else {
		event.Int("status", result.Response.Status)
		event.Int64("latency_ms", result.Response.LatencyMs)

		if h.metrics != nil && result.Event != nil {
			e := result.Event
			status := statusLabel(e.StatusCode)
			h.metrics.ProxyRequests.WithLabelValues(e.ServiceID, status).Inc()
			h.metrics.UpstreamDuration.WithLabelValues(e.Method, status).
				Observe(float64(e.LatencyMs) / 1000)
			if e.PromptTokens > 0 {
				h.metrics.TokensTotal.WithLabelValues(e.ServiceID, "prompt").Add(float64(e.PromptTokens))
			}
			if e.CompletionTokens > 0 {
				h.metrics.TokensTotal.WithLabelValues(e.ServiceID, "completion").Add(float64(e.CompletionTokens))
			}
			if e.Cost > 0 {
				h.metrics.CostTotal.WithLabelValues(e.ServiceID).Add(e.Cost)
			}
		}
	}

	if result.Event != nil {
		event.
			Str("service_id", result.Event.ServiceID).
			Str("subscription_id", result.Event.SubscriptionID).
			Int64("total_tokens", result.Event.TotalTokens)
	}

	event.
		Str("method", req.Method).
		Str("path", req.Path).
		Str("remote_ip", req.RemoteIP).
		Str("trace_id", req.TraceID).
		Msg("proxy request")
}

// extractPlatformKey reads the buyer's platform API key from the request.
// The platform_api_key header is canonical; X-API-Key is accepted as an
// alias for clients that cannot set custom header names.
func extractPlatformKey(r *http.Request) string {
	if key := r.Header.Get("platform_api_key"); key != "" {
		return key
	}
	return r.Header.Get("X-API-Key")
}

// extractHeaders copies forwardable headers from the request.
// Go stores the Host header in r.Host, not r.Header.
func extractHeaders(r *http.Request) map[string]string {
	headers := make(map[string]string)
	for k, v := range r.Header {
		lower := strings.ToLower(k)
		if lower == "authorization" || lower == "platform_api_key" || lower == "x-api-key" ||
			lower == "connection" || lower == "keep-alive" ||
			lower == "proxy-authenticate" || lower == "proxy-authorization" ||
			lower == "te" || lower == "trailers" || lower == "transfer-encoding" ||
			lower == "upgrade" {
			continue
		}
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	return headers
}

// extractIP extracts the client IP from the request.
func extractIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		parts := strings.Split(xff, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	addr := r.RemoteAddr
	if idx := strings.LastIndex(addr, ":"); idx != -1 {
		return addr[:idx]
	}
	return addr
}

func writeProxyError(w http.ResponseWriter, err *proxy.ErrorResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(err.Status)
	json.NewEncoder(w).Encode(map[string]string{
		"error":   err.Code,
		"message": err.Message,
	})
}

// statusLabel returns a coarse label for the status code.
func statusLabel(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "other"
	}
}

// HealthHandler provides health check endpoints.
type HealthHandler struct{}

// Liveness returns a simple liveness check.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// RouterConfig holds optional configuration for the router.
type RouterConfig struct {
	Metrics    *metrics.Collector
	APIHandler http.Handler // marketplace REST API, mounted at /api/v1
}

// NewRouter creates the main HTTP router. The gateway catch-all sits
// under /api/v1/proxy so it can never shadow the management API.
func NewRouter(gateway *GatewayHandler, logger zerolog.Logger, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	if cfg.Metrics != nil {
		r.Use(NewMetricsMiddleware(cfg.Metrics))
		r.Handle("/metrics", promhttp.Handler())
	}

	health := &HealthHandler{}
	r.Get("/health", health.Liveness)
	r.Get("/health/live", health.Liveness)

	r.HandleFunc("/api/v1/proxy/*", gateway.ServeHTTP)

	if cfg.APIHandler != nil {
		r.Mount("/api/v1", cfg.APIHandler)
	}

	return r
}

// NewMetricsMiddleware creates middleware that records request metrics.
func NewMetricsMiddleware(m *metrics.Collector) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
				next.ServeHTTP(w, r)
				return
			}

			m.RequestsInFlight.Inc()
			defer m.RequestsInFlight.Dec()

			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start).Seconds()
			status := statusLabel(ww.Status())
			m.RequestsTotal.WithLabelValues(r.Method, routePattern(r), status).Inc()
			m.RequestDuration.WithLabelValues(r.Method, routePattern(r), status).Observe(duration)
		})
	}
}

// routePattern keeps metric label cardinality bounded: proxied paths all
// collapse onto the proxy mount, and long paths are truncated.
func routePattern(r *http.Request) string {
	path := r.URL.Path
	if strings.HasPrefix(path, "/api/v1/proxy/") {
		return "/api/v1/proxy/*"
	}
	if len(path) > 50 {
		return path[:50] + "..."
	}
	return path
}

// NewLoggingMiddleware creates a new logging middleware.
func NewLoggingMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
