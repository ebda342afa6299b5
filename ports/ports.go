// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/Heht571/LLMRouter/domain/proxy"
	"github.com/Heht571/LLMRouter/domain/ratelimit"
	"github.com/Heht571/LLMRouter/domain/service"
	"github.com/Heht571/LLMRouter/domain/subscription"
	"github.com/Heht571/LLMRouter/domain/usage"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// Random abstracts randomness for testability.
type Random interface {
	// Bytes generates n random bytes.
	Bytes(n int) ([]byte, error)
	// String generates a random hex string of n characters.
	String(n int) (string, error)
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// Hasher provides password hashing.
type Hasher interface {
	// Hash generates a hash from a plaintext value.
	Hash(plaintext string) ([]byte, error)

	// Compare checks if plaintext matches hash.
	Compare(hash []byte, plaintext string) bool
}

// SecretCipher encrypts seller credentials at rest.
type SecretCipher interface {
	// Seal encrypts a plaintext secret.
	Seal(plaintext string) ([]byte, error)

	// Open decrypts a sealed secret.
	Open(ciphertext []byte) (string, error)
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// ErrNotFound is returned by stores when a row does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned by stores on uniqueness violations.
var ErrDuplicate = errors.New("already exists")

// Role distinguishes the two sides of the marketplace.
type Role string

const (
	RoleSeller Role = "seller"
	RoleBuyer  Role = "buyer"
)

// ValidRole reports whether r is a known role.
func ValidRole(r Role) bool {
	return r == RoleSeller || r == RoleBuyer
}

// Account represents a marketplace user (seller or buyer).
type Account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash []byte // bcrypt
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Profile is the public-facing detail an account holder maintains about
// themselves.
type Profile struct {
	AccountID   string
	DisplayName string
	Bio         string
	Company     string
	Website     string
	Location    string
	Timezone    string
	UpdatedAt   time.Time
}

// Settings are an account's platform preferences.
type Settings struct {
	AccountID          string
	Language           string
	Theme              string
	Currency           string
	EmailNotifications bool
	MarketingEmails    bool
	UsageAlerts        bool
	SecurityAlerts     bool
	UpdatedAt          time.Time
}

// AccountStore persists user accounts, profiles and settings.
type AccountStore interface {
	// Create stores a new account.
	Create(ctx context.Context, a Account) error

	// Get retrieves an account by ID.
	Get(ctx context.Context, id string) (Account, error)

	// GetByUsername retrieves an account by username.
	GetByUsername(ctx context.Context, username string) (Account, error)

	// UpdatePassword replaces the stored password hash.
	UpdatePassword(ctx context.Context, id string, hash []byte, at time.Time) error

	// GetProfile retrieves an account's profile. Accounts that never
	// saved one report ErrNotFound.
	GetProfile(ctx context.Context, accountID string) (Profile, error)

	// SaveProfile stores an account's profile, replacing any previous one.
	SaveProfile(ctx context.Context, p Profile) error

	// GetSettings retrieves an account's settings. Accounts that never
	// saved any report ErrNotFound.
	GetSettings(ctx context.Context, accountID string) (Settings, error)

	// SaveSettings stores an account's settings, replacing any previous ones.
	SaveSettings(ctx context.Context, s Settings) error
}

// ServiceStore persists registered marketplace services.
type ServiceStore interface {
	// Create stores a new service.
	Create(ctx context.Context, s service.Service) error

	// Get retrieves a service by ID.
	Get(ctx context.Context, id string) (service.Service, error)

	// Update replaces a service row.
	Update(ctx context.Context, s service.Service) error

	// ListBySeller returns all services owned by a seller.
	ListBySeller(ctx context.Context, sellerID string) ([]service.Service, error)

	// ListActive returns all active services (marketplace browse).
	ListActive(ctx context.Context) ([]service.Service, error)
}

// DocumentationStore persists per-service documentation. Each service
// carries at most one documentation record.
type DocumentationStore interface {
	// Create stores documentation for a service. Fails with ErrDuplicate
	// if the service already has documentation.
	Create(ctx context.Context, d service.Documentation) error

	// Get retrieves the documentation for a service.
	Get(ctx context.Context, serviceID string) (service.Documentation, error)

	// Update replaces the documentation for a service.
	Update(ctx context.Context, d service.Documentation) error

	// Delete removes the documentation for a service.
	Delete(ctx context.Context, serviceID string) error
}

// SubscriptionStore persists buyer subscriptions and their key material.
type SubscriptionStore interface {
	// Create stores a new subscription. Fails with ErrDuplicate if an
	// active subscription already exists for the (buyer, service) pair.
	Create(ctx context.Context, sub subscription.Subscription) error

	// GetByPrefix retrieves subscriptions matching a key prefix
	// (for gateway validation).
	GetByPrefix(ctx context.Context, prefix string) ([]subscription.Subscription, error)

	// GetActive retrieves the active subscription for a (buyer, service) pair.
	GetActive(ctx context.Context, buyerID, serviceID string) (subscription.Subscription, error)

	// Revoke marks a subscription as revoked.
	Revoke(ctx context.Context, id string, at time.Time) error

	// ListByBuyer returns all active subscriptions for a buyer.
	ListByBuyer(ctx context.Context, buyerID string) ([]subscription.Subscription, error)

	// CountByService returns the number of active subscriptions to a service.
	CountByService(ctx context.Context, serviceID string) (int64, error)
}

// RateLimitStore persists per-subscription throttle windows.
type RateLimitStore interface {
	// Get retrieves the current window state for a subscription.
	// A subscription with no recorded calls returns a zero state.
	Get(ctx context.Context, subscriptionID string) (ratelimit.State, error)

	// Set stores the window state for a subscription.
	Set(ctx context.Context, subscriptionID string, state ratelimit.State) error
}

// UsageStore persists usage events and serves rollups.
type UsageStore interface {
	// RecordBatch stores multiple usage events.
	RecordBatch(ctx context.Context, events []usage.Event) error

	// StatsSince returns aggregated usage for one user from since on.
	// Buyers aggregate their own spend; sellers aggregate revenue across
	// owned services. The breakdown is ordered by calls descending.
	StatsSince(ctx context.Context, userID string, role Role, since time.Time) (usage.Stats, error)

	// SeriesSince returns sparse time-series buckets keyed by the period's
	// bucket label. Callers fill gaps with usage.FillSeries.
	SeriesSince(ctx context.Context, userID string, role Role, period usage.Period, since time.Time) (map[string]usage.Point, error)

	// EventsSince returns raw events for one user from since on.
	EventsSince(ctx context.Context, userID string, role Role, since time.Time) ([]usage.Event, error)
}

// -----------------------------------------------------------------------------
// External Service Ports
// -----------------------------------------------------------------------------

// ErrUpstreamTimeout is returned by Upstream when the bounded call deadline
// elapses before the upstream responds.
var ErrUpstreamTimeout = errors.New("upstream timeout")

// Target identifies the upstream a request is forwarded to.
type Target struct {
	BaseURL    string
	Credential string // seller's real API key, injected as a bearer token
}

// Upstream forwards proxied requests to a seller's real endpoint.
type Upstream interface {
	// Forward sends a request to the target and returns the response.
	Forward(ctx context.Context, req proxy.Request, target Target) (proxy.Response, error)
}

// -----------------------------------------------------------------------------
// Event Ports
// -----------------------------------------------------------------------------

// UsageRecorder accepts usage events for async processing.
type UsageRecorder interface {
	// Record queues a usage event for processing.
	// This should be non-blocking.
	Record(event usage.Event)

	// Flush forces immediate processing of queued events.
	Flush(ctx context.Context) error

	// Close stops the recorder and flushes remaining events.
	Close() error
}
