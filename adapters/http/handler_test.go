package http_test

import (
	"context"
	"encoding/json"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	apihttp "github.com/Heht571/LLMRouter/adapters/http"
	"github.com/Heht571/LLMRouter/adapters/clock"
	"github.com/Heht571/LLMRouter/adapters/idgen"
	"github.com/Heht571/LLMRouter/adapters/memory"
	"github.com/Heht571/LLMRouter/adapters/secrets"
	"github.com/Heht571/LLMRouter/app"
	"github.com/Heht571/LLMRouter/domain/ratelimit"
	"github.com/Heht571/LLMRouter/domain/service"
	"github.com/Heht571/LLMRouter/domain/subscription"
	"github.com/Heht571/LLMRouter/domain/usage"
)

type recorderStub struct {
	mu     sync.Mutex
	events []usage.Event
}

func (r *recorderStub) Record(e usage.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorderStub) Flush(ctx context.Context) error { return nil }
func (r *recorderStub) Close() error                    { return nil }

func (r *recorderStub) all() []usage.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]usage.Event, len(r.events))
	copy(out, r.events)
	return out
}

const routerTestPrefix = "/api/v1/proxy/abc123-gpt-relay"

// newProxyRouter wires the full gateway stack against a live upstream and
// returns the router, a valid platform key, and the event recorder.
func newProxyRouter(t *testing.T, upstreamURL string) (nethttp.Handler, string, *recorderStub) {
	t.Helper()
	return newThrottledProxyRouter(t, upstreamURL, ratelimit.Config{})
}

func newThrottledProxyRouter(t *testing.T, upstreamURL string, rl ratelimit.Config) (nethttp.Handler, string, *recorderStub) {
	t.Helper()

	cipher, err := secrets.NewAESGCM("test-master-key")
	if err != nil {
		t.Fatalf("NewAESGCM: %v", err)
	}
	sealed, err := cipher.Seal("sk-seller-credential")
	if err != nil {
		t.Fatalf("Seal: %v", err)
	}

	now := time.Now().UTC()
	services := memory.NewServiceStore()
	if err := services.Create(context.Background(), service.Service{
		ID:            "svc-1",
		SellerID:      "seller-1",
		Name:          "GPT Relay",
		EndpointURL:   upstreamURL,
		EncryptedKey:  sealed,
		ProxyPrefix:   routerTestPrefix,
		PricingModel:  service.PricePerToken,
		PricePerToken: 0.0001,
		Active:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}); err != nil {
		t.Fatalf("create service: %v", err)
	}

	subs := memory.NewSubscriptionStore()
	rawKey, sub := subscription.Mint("sub-1", "buyer-1", "svc-1", now)
	if err := subs.Create(context.Background(), sub); err != nil {
		t.Fatalf("create subscription: %v", err)
	}

	recorder := &recorderStub{}
	gateway := app.NewGatewayService(app.GatewayDeps{
		Subs:            subs,
		Services:        services,
		Cipher:          cipher,
		Usage:           recorder,
		Upstream:        apihttp.NewUpstreamClient(apihttp.UpstreamConfig{Timeout: 5 * time.Second}),
		RateLimit:       memory.NewRateLimitStore(),
		RateLimitConfig: rl,
		Clock:           clock.Real{},
		IDGen:           idgen.NewSequential("evt"),
	})

	handler := apihttp.NewGatewayHandler(gateway, zerolog.Nop(), nil)
	router := apihttp.NewRouter(handler, zerolog.Nop(), apihttp.RouterConfig{})
	return router, rawKey, recorder
}

func TestRouter_ProxySuccess(t *testing.T) {
	var gotPath, gotAuth string
	upstream := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"model":"gpt-4o","usage":{"prompt_tokens":1000,"completion_tokens":4000,"total_tokens":5000}}`))
	}))
	defer upstream.Close()

	router, rawKey, recorder := newProxyRouter(t, upstream.URL)

	req := httptest.NewRequest("POST", routerTestPrefix+"/chat/completions", strings.NewReader(`{"model":"gpt-4o"}`))
	req.Header.Set("platform_api_key", rawKey)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != nethttp.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if gotPath != "/chat/completions" {
		t.Errorf("upstream path = %q, want /chat/completions", gotPath)
	}
	if gotAuth != "Bearer sk-seller-credential" {
		t.Errorf("upstream auth = %q, want decrypted seller credential", gotAuth)
	}
	if !strings.Contains(w.Body.String(), `"total_tokens":5000`) {
		t.Errorf("response body not passed through: %s", w.Body.String())
	}

	events := recorder.all()
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	e := events[0]
	if e.TotalTokens != 5000 || e.Cost != 0.5 {
		t.Errorf("event tokens/cost = %d/%v, want 5000/0.5", e.TotalTokens, e.Cost)
	}
	if e.BuyerID != "buyer-1" || e.SellerID != "seller-1" || e.ServiceID != "svc-1" {
		t.Errorf("event attribution = %+v", e)
	}
}

func TestRouter_ProxyAuthErrors(t *testing.T) {
	upstream := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		t.Error("upstream must not be called for rejected requests")
	}))
	defer upstream.Close()

	router, rawKey, recorder := newProxyRouter(t, upstream.URL)

	tests := []struct {
		name       string
		key        string
		wantStatus int
		wantCode   string
	}{
		{"missing key", "", 401, "missing_platform_key"},
		{"malformed key", "not-a-platform-key", 401, "invalid_platform_key"},
		{"unknown key", "pak_" + strings.Repeat("0", 64), 401, "invalid_platform_key"},
		{"tampered tail", rawKey[:len(rawKey)-4] + "ffff", 401, "invalid_platform_key"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", routerTestPrefix+"/chat/completions", nil)
			if tt.key != "" {
				req.Header.Set("platform_api_key", tt.key)
			}
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			if w.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", w.Code, tt.wantStatus)
			}
			var body struct {
				Error   string `json:"error"`
				Message string `json:"message"`
			}
			if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
				t.Fatalf("decode error body: %v", err)
			}
			if body.Error != tt.wantCode {
				t.Errorf("error code = %q, want %q", body.Error, tt.wantCode)
			}
			if body.Message == "" {
				t.Error("error message empty")
			}
		})
	}

	if got := len(recorder.all()); got != 0 {
		t.Errorf("rejected requests recorded %d events, want 0", got)
	}
}

func TestRouter_XAPIKeyAlias(t *testing.T) {
	upstream := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	router, rawKey, _ := newProxyRouter(t, upstream.URL)

	req := httptest.NewRequest("GET", routerTestPrefix+"/models", nil)
	req.Header.Set("X-API-Key", rawKey)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != nethttp.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}

func TestRouter_UpstreamErrorStatusBilled(t *testing.T) {
	// An upstream 429 is a completed call: the response passes through
	// and the event is still recorded.
	upstream := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.WriteHeader(nethttp.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"rate limited"}}`))
	}))
	defer upstream.Close()

	router, rawKey, recorder := newProxyRouter(t, upstream.URL)

	req := httptest.NewRequest("POST", routerTestPrefix+"/chat/completions", strings.NewReader(`{}`))
	req.Header.Set("platform_api_key", rawKey)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != nethttp.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
	events := recorder.all()
	if len(events) != 1 {
		t.Fatalf("len(events) = %d, want 1", len(events))
	}
	if events[0].StatusCode != 429 {
		t.Errorf("event status = %d, want 429", events[0].StatusCode)
	}
}

func TestRouter_RateLimited(t *testing.T) {
	upstream := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		w.Write([]byte(`{}`))
	}))
	defer upstream.Close()

	router, rawKey, _ := newThrottledProxyRouter(t, upstream.URL, ratelimit.Config{Limit: 1, Window: time.Hour})

	for i, wantStatus := range []int{nethttp.StatusOK, nethttp.StatusTooManyRequests} {
		req := httptest.NewRequest("GET", routerTestPrefix+"/models", nil)
		req.Header.Set("platform_api_key", rawKey)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		if w.Code != wantStatus {
			t.Fatalf("call %d: status = %d, want %d", i+1, w.Code, wantStatus)
		}
	}

	// The last response carries throttle headers and the error code
	req := httptest.NewRequest("GET", routerTestPrefix+"/models", nil)
	req.Header.Set("platform_api_key", rawKey)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != nethttp.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("Retry-After header missing")
	}
	if w.Header().Get("X-RateLimit-Limit") != "1" {
		t.Errorf("X-RateLimit-Limit = %q, want 1", w.Header().Get("X-RateLimit-Limit"))
	}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body.Error != "rate_limited" {
		t.Errorf("error = %q, want rate_limited", body.Error)
	}
}

func TestRouter_Health(t *testing.T) {
	upstream := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {}))
	defer upstream.Close()

	router, _, _ := newProxyRouter(t, upstream.URL)

	for _, path := range []string{"/health", "/health/live"} {
		req := httptest.NewRequest("GET", path, nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != nethttp.StatusOK {
			t.Errorf("%s: status = %d, want 200", path, w.Code)
		}
		if !strings.Contains(w.Body.String(), `"status":"ok"`) {
			t.Errorf("%s: body = %s", path, w.Body.String())
		}
	}
}

func TestRouter_APIMountNotShadowedByProxy(t *testing.T) {
	upstream := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		t.Error("upstream must not see management API traffic")
	}))
	defer upstream.Close()

	cipher, _ := secrets.NewAESGCM("test-master-key")
	gateway := app.NewGatewayService(app.GatewayDeps{
		Subs:     memory.NewSubscriptionStore(),
		Services: memory.NewServiceStore(),
		Cipher:   cipher,
		Usage:    &recorderStub{},
		Upstream: apihttp.NewUpstreamClient(apihttp.UpstreamConfig{Timeout: time.Second}),
		Clock:    clock.Real{},
		IDGen:    idgen.NewSequential("evt"),
	})
	handler := apihttp.NewGatewayHandler(gateway, zerolog.Nop(), nil)

	apiHit := false
	api := nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		apiHit = true
		w.WriteHeader(nethttp.StatusOK)
	})
	router := apihttp.NewRouter(handler, zerolog.Nop(), apihttp.RouterConfig{APIHandler: api})

	req := httptest.NewRequest("GET", "/api/v1/buyer/services", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if !apiHit {
		t.Error("management API route was not reached")
	}
	if w.Code != nethttp.StatusOK {
		t.Errorf("status = %d, want 200", w.Code)
	}
}
