package http

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Heht571/LLMRouter/domain/proxy"
	"github.com/Heht571/LLMRouter/ports"
)

// maxResponseBytes caps how much of an upstream body is buffered.
const maxResponseBytes = 50 << 20 // 50MB

// UpstreamClient forwards gateway requests to seller endpoints.
// Each request carries its own target, so one client serves every
// registered service over a shared connection pool.
type UpstreamClient struct {
	client *http.Client
}

// UpstreamConfig contains configuration for the upstream client.
type UpstreamConfig struct {
	Timeout         time.Duration
	MaxIdleConns    int
	IdleConnTimeout time.Duration
}

// NewUpstreamClient creates a new upstream HTTP client.
func NewUpstreamClient(cfg UpstreamConfig) *UpstreamClient {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	maxIdleConns := cfg.MaxIdleConns
	if maxIdleConns == 0 {
		maxIdleConns = 100
	}

	idleConnTimeout := cfg.IdleConnTimeout
	if idleConnTimeout == 0 {
		idleConnTimeout = 90 * time.Second
	}

	transport := &http.Transport{
		MaxIdleConns:        maxIdleConns,
		MaxIdleConnsPerHost: maxIdleConns,
		IdleConnTimeout:     idleConnTimeout,
	}

	return &UpstreamClient{
		client: &http.Client{
			Transport: transport,
			Timeout:   timeout,
		},
	}
}

// hopByHop headers are connection-scoped and must not be forwarded.
func hopByHop(name string) bool {
	switch strings.ToLower(name) {
	case "connection", "keep-alive", "proxy-authenticate", "proxy-authorization",
		"te", "trailers", "transfer-encoding", "upgrade":
		return true
	}
	return false
}

// Forward sends a request to the target and returns the response.
// The seller's stored credential replaces whatever Authorization the
// caller sent. A transport-level failure on a GET is retried once;
// other methods are never retried because they may not be idempotent.
func (u *UpstreamClient) Forward(ctx context.Context, req proxy.Request, target ports.Target) (proxy.Response, error) {
	start := time.Now()

	baseURL, err := url.Parse(target.BaseURL)
	if err != nil {
		return proxy.Response{}, fmt.Errorf("parse target URL: %w", err)
	}

	upstreamURL := baseURL.ResolveReference(&url.URL{
		Path:     singleJoin(baseURL.Path, req.Path),
		RawQuery: req.Query,
	})

	resp, err := u.do(ctx, req, upstreamURL.String(), target.Credential)
	if err != nil && req.Method == http.MethodGet && ctx.Err() == nil && !isTimeout(err) {
		resp, err = u.do(ctx, req, upstreamURL.String(), target.Credential)
	}
	if err != nil {
		if isTimeout(err) {
			return proxy.Response{}, ports.ErrUpstreamTimeout
		}
		return proxy.Response{}, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		if isTimeout(err) {
			return proxy.Response{}, ports.ErrUpstreamTimeout
		}
		return proxy.Response{}, fmt.Errorf("read response: %w", err)
	}

	headers := make(map[string]string)
	for k, v := range resp.Header {
		if hopByHop(k) {
			continue
		}
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}

	return proxy.Response{
		Status:    resp.StatusCode,
		Headers:   headers,
		Body:      respBody,
		LatencyMs: time.Since(start).Milliseconds(),
	}, nil
}

func (u *UpstreamClient) do(ctx context.Context, req proxy.Request, rawURL, credential string) (*http.Response, error) {
	var body io.Reader
	if len(req.Body) > 0 {
		body = bytes.NewReader(req.Body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, rawURL, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	for k, v := range req.Headers {
		if hopByHop(k) || strings.EqualFold(k, "Host") {
			continue
		}
		httpReq.Header.Set(k, v)
	}

	// The buyer's platform key and Authorization must never reach the
	// seller endpoint. The stored credential goes in their place.
	httpReq.Header.Del("platform_api_key")
	httpReq.Header.Del("X-API-Key")
	httpReq.Header.Del("Authorization")
	if credential != "" {
		httpReq.Header.Set("Authorization", "Bearer "+credential)
	}

	httpReq.Header.Set("X-Forwarded-For", req.RemoteIP)
	if req.TraceID != "" {
		httpReq.Header.Set("X-Request-ID", req.TraceID)
	}

	return u.client.Do(httpReq)
}

// isTimeout reports whether err is a deadline or client timeout.
func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var nerr interface{ Timeout() bool }
	return errors.As(err, &nerr) && nerr.Timeout()
}

// singleJoin joins two URL path segments with exactly one slash.
func singleJoin(a, b string) string {
	switch {
	case a == "":
		return b
	case strings.HasSuffix(a, "/") && strings.HasPrefix(b, "/"):
		return a + b[1:]
	case !strings.HasSuffix(a, "/") && !strings.HasPrefix(b, "/"):
		return a + "/" + b
	}
	return a + b
}

// Close releases pooled connections.
func (u *UpstreamClient) Close() error {
	u.client.CloseIdleConnections()
	return nil
}

// Ensure interface compliance.
var _ ports.Upstream = (*UpstreamClient)(nil)
