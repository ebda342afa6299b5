// Package proxy provides request/response value types for the gateway layer.
package proxy

import "bytes"

// Request represents an incoming proxied call (value type).
// This is extracted from HTTP and passed through the gateway service.
type Request struct {
	// Authentication
	PlatformKey string

	// HTTP request details; Path is relative to the service's proxy prefix.
	Method  string
	Path    string
	Query   string
	Headers map[string]string
	Body    []byte

	// Metadata
	RemoteIP  string
	UserAgent string
	TraceID   string
}

// Response represents a gateway response (value type).
type Response struct {
	Status  int
	Headers map[string]string
	Body    []byte

	// Metadata (for metering and logging)
	LatencyMs int64
}

// ErrorResponse represents an error to return to the caller (value type).
type ErrorResponse struct {
	Status  int
	Code    string
	Message string
}

// Canonical error responses.
var (
	ErrMissingKey = ErrorResponse{
		Status:  401,
		Code:    "missing_platform_key",
		Message: "Platform API key is required",
	}
	ErrInvalidKey = ErrorResponse{
		Status:  401,
		Code:    "invalid_platform_key",
		Message: "Invalid or revoked platform API key",
	}
	ErrRateLimited = ErrorResponse{
		Status:  429,
		Code:    "rate_limited",
		Message: "Rate limit exceeded, retry later",
	}
	ErrServiceInactive = ErrorResponse{
		Status:  404,
		Code:    "service_inactive",
		Message: "The subscribed service is inactive or no longer exists",
	}
	ErrUpstream = ErrorResponse{
		Status:  502,
		Code:    "upstream_error",
		Message: "Upstream service unavailable",
	}
	ErrTimeout = ErrorResponse{
		Status:  504,
		Code:    "upstream_timeout",
		Message: "Upstream service timeout",
	}
)

// SanitizeBody redacts every occurrence of the seller credential from an
// upstream response body. Upstream error payloads occasionally echo the
// Authorization header back; the buyer must never see the real key.
// This is a PURE function.
func SanitizeBody(body []byte, secret string) []byte {
	if secret == "" || len(body) == 0 {
		return body
	}
	return bytes.ReplaceAll(body, []byte(secret), []byte("[redacted]"))
}
