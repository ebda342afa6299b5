// Package ratelimit implements fixed-window call throttling for
// platform keys. All functions are PURE; window state persistence
// lives behind ports.RateLimitStore.
package ratelimit

import "time"

// Config sets the throttle for one subscription.
type Config struct {
	Limit  int           // calls allowed per window; <= 0 disables throttling
	Window time.Duration // window length; defaults to one minute
	Burst  int           // extra calls tolerated after the window fills
}

// State is the persisted counter for one subscription's current window.
// A zero State means no calls have been seen yet.
type State struct {
	Count     int
	BurstUsed int
	WindowEnd time.Time
}

// Decision is the outcome of a single Check.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
}

// Check counts one call against the window and decides whether it may
// proceed. It returns the decision and the state to persist. Windows are
// aligned to wall-clock boundaries so concurrent gateways that share a
// store agree on window edges.
func Check(state State, cfg Config, now time.Time) (Decision, State) {
	if cfg.Limit <= 0 {
		return Decision{Allowed: true, Remaining: -1}, state
	}
	window := cfg.Window
	if window <= 0 {
		window = time.Minute
	}

	if state.WindowEnd.IsZero() || !now.Before(state.WindowEnd) {
		state = State{WindowEnd: now.Truncate(window).Add(window)}
	}

	if state.Count < cfg.Limit {
		state.Count++
		return Decision{
			Allowed:   true,
			Limit:     cfg.Limit,
			Remaining: cfg.Limit - state.Count,
			ResetAt:   state.WindowEnd,
		}, state
	}

	if state.BurstUsed < cfg.Burst {
		state.BurstUsed++
		return Decision{
			Allowed: true,
			Limit:   cfg.Limit,
			ResetAt: state.WindowEnd,
		}, state
	}

	return Decision{
		Allowed: false,
		Limit:   cfg.Limit,
		ResetAt: state.WindowEnd,
	}, state
}

// RetryAfter returns whole seconds until the window resets, at least 1,
// suitable for a Retry-After header.
func RetryAfter(d Decision, now time.Time) int {
	secs := int(d.ResetAt.Sub(now).Seconds())
	if secs < 1 {
		secs = 1
	}
	return secs
}
