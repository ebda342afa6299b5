package app

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/Heht571/LLMRouter/domain/proxy"
	"github.com/Heht571/LLMRouter/domain/ratelimit"
	"github.com/Heht571/LLMRouter/domain/subscription"
	"github.com/Heht571/LLMRouter/domain/usage"
	"github.com/Heht571/LLMRouter/ports"
)

// GatewayService handles incoming proxy requests.
type GatewayService struct {
	subs      ports.SubscriptionStore
	services  ports.ServiceStore
	cipher    ports.SecretCipher
	usage     ports.UsageRecorder
	upstream  ports.Upstream
	rateLimit ports.RateLimitStore
	rlConfig  ratelimit.Config
	clock     ports.Clock
	idGen     ports.IDGenerator
}

// GatewayDeps contains dependencies for GatewayService.
type GatewayDeps struct {
	Subs     ports.SubscriptionStore
	Services ports.ServiceStore
	Cipher   ports.SecretCipher
	Usage    ports.UsageRecorder
	Upstream ports.Upstream

	// RateLimit and RateLimitConfig throttle calls per subscription.
	// A nil store or non-positive limit disables throttling.
	RateLimit       ports.RateLimitStore
	RateLimitConfig ratelimit.Config

	Clock ports.Clock
	IDGen ports.IDGenerator
}

// NewGatewayService creates a new gateway service.
func NewGatewayService(deps GatewayDeps) *GatewayService {
	return &GatewayService{
		subs:      deps.Subs,
		services:  deps.Services,
		cipher:    deps.Cipher,
		usage:     deps.Usage,
		upstream:  deps.Upstream,
		rateLimit: deps.RateLimit,
		rlConfig:  deps.RateLimitConfig,
		clock:     deps.Clock,
		idGen:     deps.IDGen,
	}
}

var errInternal = proxy.ErrorResponse{
	Status:  500,
	Code:    "internal_error",
	Message: "Internal error",
}

// HandleResult represents the outcome of handling a proxied request.
type HandleResult struct {
	Response proxy.Response
	Error    *proxy.ErrorResponse
	Event    *usage.Event // set when a call was metered
}

// Handle processes an incoming proxy request.
// This method orchestrates pure domain functions with I/O operations.
func (s *GatewayService) Handle(ctx context.Context, req proxy.Request) HandleResult {
	now := s.clock.Now()

	// 1. Validate key format (PURE)
	if req.PlatformKey == "" {
		return HandleResult{Error: &proxy.ErrMissingKey}
	}
	prefix, ok := subscription.LookupPrefix(req.PlatformKey)
	if !ok {
		return HandleResult{Error: &proxy.ErrInvalidKey}
	}

	// 2. Lookup candidate subscriptions (I/O)
	candidates, err := s.subs.GetByPrefix(ctx, prefix)
	if err != nil || len(candidates) == 0 {
		return HandleResult{Error: &proxy.ErrInvalidKey}
	}

	// 3. Find the matching subscription by comparing hashes (PURE)
	var matched subscription.Subscription
	found := false
	for _, sub := range candidates {
		if subscription.Match(sub, req.PlatformKey) {
			matched = sub
			found = true
			break
		}
	}
	if !found {
		return HandleResult{Error: &proxy.ErrInvalidKey}
	}

	// 4. Validate the subscription (PURE)
	// A revoked key is reported the same as an unknown one.
	if validation := subscription.Validate(matched); !validation.Valid {
		return HandleResult{Error: &proxy.ErrInvalidKey}
	}

	// 5. Count the call against the subscription's window (PURE + I/O for state)
	// Rejected calls are never metered and never reach the seller.
	if s.rateLimit != nil && s.rlConfig.Limit > 0 {
		state, _ := s.rateLimit.Get(ctx, matched.ID)
		decision, newState := ratelimit.Check(state, s.rlConfig, now)
		_ = s.rateLimit.Set(ctx, matched.ID, newState)
		if !decision.Allowed {
			return HandleResult{
				Error: &proxy.ErrRateLimited,
				Response: proxy.Response{
					Headers: map[string]string{
						"X-RateLimit-Limit":     strconv.Itoa(decision.Limit),
						"X-RateLimit-Remaining": "0",
						"X-RateLimit-Reset":     decision.ResetAt.UTC().Format("2006-01-02T15:04:05Z"),
						"Retry-After":           strconv.Itoa(ratelimit.RetryAfter(decision, now)),
					},
				},
			}
		}
	}

	// 6. Resolve the service and check it is still live (I/O)
	svc, err := s.services.Get(ctx, matched.ServiceID)
	if err != nil || !svc.Active {
		return HandleResult{Error: &proxy.ErrServiceInactive}
	}

	// 7. Decrypt the seller credential (I/O-free crypto)
	credential, err := s.cipher.Open(svc.EncryptedKey)
	if err != nil {
		return HandleResult{Error: &errInternal}
	}

	// 8. Strip the buyer-facing prefix so the seller sees its own paths (PURE)
	req.Path = StripPrefix(svc.ProxyPrefix, req.Path)

	// 9. Forward to the seller endpoint (I/O)
	resp, err := s.upstream.Forward(ctx, req, ports.Target{
		BaseURL:    svc.EndpointURL,
		Credential: credential,
	})
	if err != nil {
		if errors.Is(err, ports.ErrUpstreamTimeout) {
			return HandleResult{Error: &proxy.ErrTimeout}
		}
		return HandleResult{Error: &proxy.ErrUpstream}
	}

	// 10. Meter tokens and price the call (PURE)
	tokens := usage.ExtractTokens(resp.Body)
	cost := svc.Cost(tokens.TotalTokens)

	// 11. Redact the seller credential from anything the buyer sees (PURE)
	resp.Body = proxy.SanitizeBody(resp.Body, credential)

	// 12. Record the event, only now that the upstream call completed (async I/O)
	event := usage.Event{
		ID:               s.idGen.New(),
		SubscriptionID:   matched.ID,
		BuyerID:          matched.BuyerID,
		ServiceID:        svc.ID,
		SellerID:         svc.SellerID,
		Method:           req.Method,
		Path:             req.Path,
		StatusCode:       resp.Status,
		LatencyMs:        resp.LatencyMs,
		PromptTokens:     tokens.PromptTokens,
		CompletionTokens: tokens.CompletionTokens,
		TotalTokens:      tokens.TotalTokens,
		Model:            tokens.Model,
		RequestBytes:     int64(len(req.Body)),
		ResponseBytes:    int64(len(resp.Body)),
		Cost:             cost,
		Timestamp:        now,
	}
	s.usage.Record(event)

	return HandleResult{Response: resp, Event: &event}
}

// StripPrefix removes a service's proxy prefix from a request path.
// Paths that do not carry the prefix pass through unchanged: the platform
// key already pins the service, so the prefix is addressing, not auth.
func StripPrefix(prefix, path string) string {
	if prefix == "" || !strings.HasPrefix(path, prefix) {
		return path
	}
	rest := strings.TrimPrefix(path, prefix)
	if rest == "" || rest[0] != '/' {
		return "/" + rest
	}
	return rest
}
