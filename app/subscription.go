package app

import (
	"context"
	"errors"

	"github.com/Heht571/LLMRouter/domain/subscription"
	"github.com/Heht571/LLMRouter/ports"
)

// SubscriptionService issues and revokes platform API keys.
type SubscriptionService struct {
	subs     ports.SubscriptionStore
	services ports.ServiceStore
	idGen    ports.IDGenerator
	clock    ports.Clock
}

// SubscriptionDeps contains dependencies for SubscriptionService.
type SubscriptionDeps struct {
	Subs     ports.SubscriptionStore
	Services ports.ServiceStore
	IDGen    ports.IDGenerator
	Clock    ports.Clock
}

// NewSubscriptionService creates a new subscription service.
func NewSubscriptionService(deps SubscriptionDeps) *SubscriptionService {
	return &SubscriptionService{
		subs:     deps.Subs,
		services: deps.Services,
		idGen:    deps.IDGen,
		clock:    deps.Clock,
	}
}

// Issued is the one-time result of a subscribe call. RawKey is shown to
// the buyer here and never again; only its hash is stored.
type Issued struct {
	Sub         subscription.Subscription
	RawKey      string
	ProxyPrefix string
}

// Subscribe issues a platform API key binding buyerID to serviceID.
// A second subscribe to the same active pair fails with ErrConflict
// because the stored hash cannot reproduce the original key.
func (s *SubscriptionService) Subscribe(ctx context.Context, buyerID, serviceID string) (Issued, error) {
	svc, err := s.services.Get(ctx, serviceID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return Issued{}, ErrNotFound
		}
		return Issued{}, err
	}
	if !svc.Active {
		return Issued{}, ErrNotFound
	}

	rawKey, sub := subscription.Mint(s.idGen.New(), buyerID, serviceID, s.clock.Now())
	if err := s.subs.Create(ctx, sub); err != nil {
		if errors.Is(err, ports.ErrDuplicate) {
			return Issued{}, ErrConflict
		}
		return Issued{}, err
	}

	return Issued{Sub: sub, RawKey: rawKey, ProxyPrefix: svc.ProxyPrefix}, nil
}

// Unsubscribe revokes the buyer's subscription. The id may be either a
// service ID (the shape clients send, one active subscription per pair)
// or a subscription ID. Revocation takes effect on the next proxied call.
func (s *SubscriptionService) Unsubscribe(ctx context.Context, buyerID, id string) error {
	if sub, err := s.subs.GetActive(ctx, buyerID, id); err == nil {
		return s.revoke(ctx, sub.ID)
	} else if !errors.Is(err, ports.ErrNotFound) {
		return err
	}

	subs, err := s.subs.ListByBuyer(ctx, buyerID)
	if err != nil {
		return err
	}
	for _, sub := range subs {
		if sub.ID == id {
			return s.revoke(ctx, sub.ID)
		}
	}
	return ErrNotFound
}

func (s *SubscriptionService) revoke(ctx context.Context, subscriptionID string) error {
	if err := s.subs.Revoke(ctx, subscriptionID, s.clock.Now()); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// Entry is one row of a buyer's subscription list.
type Entry struct {
	Sub         subscription.Subscription
	ServiceName string
	ProxyPrefix string
	Active      bool // service still listed and active
}

// List returns the buyer's active subscriptions with service details.
func (s *SubscriptionService) List(ctx context.Context, buyerID string) ([]Entry, error) {
	subs, err := s.subs.ListByBuyer(ctx, buyerID)
	if err != nil {
		return nil, err
	}

	entries := make([]Entry, 0, len(subs))
	for _, sub := range subs {
		entry := Entry{Sub: sub}
		if svc, err := s.services.Get(ctx, sub.ServiceID); err == nil {
			entry.ServiceName = svc.Name
			entry.ProxyPrefix = svc.ProxyPrefix
			entry.Active = svc.Active
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
