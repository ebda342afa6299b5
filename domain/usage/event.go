// Package usage provides usage event types and pure aggregation functions.
package usage

import (
	"encoding/json"
	"time"
)

// Event represents a single metered proxy call (immutable value type).
// Events are append-only: produced once by the gateway after a confirmed
// upstream response, never mutated.
type Event struct {
	ID             string
	SubscriptionID string
	BuyerID        string
	ServiceID      string
	SellerID       string

	Method     string
	Path       string
	StatusCode int
	LatencyMs  int64

	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
	Model            string

	RequestBytes  int64
	ResponseBytes int64

	Cost      float64 // priced at record time from the service's model
	Timestamp time.Time
}

// Success reports whether the proxied call completed without an error status.
func (e Event) Success() bool {
	return e.StatusCode > 0 && e.StatusCode < 400
}

// TokenUsage is the normalized token accounting of one upstream response.
type TokenUsage struct {
	PromptTokens     int64
	CompletionTokens int64
	TotalTokens      int64
	Model            string
}

// openAIBody mirrors the OpenAI-style response envelope carrying usage data.
type openAIBody struct {
	Model string `json:"model"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
		TotalTokens      int64 `json:"total_tokens"`
	} `json:"usage"`
}

// ExtractTokens parses token counts from an upstream LLM response body.
// The normalization contract is the OpenAI-style `usage` object; bodies
// without one yield zero counts, which leaves per-call pricing unaffected.
// This is a PURE function.
func ExtractTokens(body []byte) TokenUsage {
	if len(body) == 0 {
		return TokenUsage{}
	}
	var parsed openAIBody
	if err := json.Unmarshal(body, &parsed); err != nil {
		return TokenUsage{}
	}
	tu := TokenUsage{
		PromptTokens:     parsed.Usage.PromptTokens,
		CompletionTokens: parsed.Usage.CompletionTokens,
		TotalTokens:      parsed.Usage.TotalTokens,
		Model:            parsed.Model,
	}
	if tu.TotalTokens == 0 {
		tu.TotalTokens = tu.PromptTokens + tu.CompletionTokens
	}
	return tu
}
