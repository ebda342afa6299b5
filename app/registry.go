package app

import (
	"context"
	"errors"

	"github.com/Heht571/LLMRouter/domain/service"
	"github.com/Heht571/LLMRouter/ports"
)

// RegistryService manages seller-registered services and their
// documentation.
type RegistryService struct {
	services ports.ServiceStore
	subs     ports.SubscriptionStore
	docs     ports.DocumentationStore
	cipher   ports.SecretCipher
	idGen    ports.IDGenerator
	random   ports.Random
	clock    ports.Clock
}

// RegistryDeps contains dependencies for RegistryService.
type RegistryDeps struct {
	Services ports.ServiceStore
	Subs     ports.SubscriptionStore
	Docs     ports.DocumentationStore
	Cipher   ports.SecretCipher
	IDGen    ports.IDGenerator
	Random   ports.Random
	Clock    ports.Clock
}

// NewRegistryService creates a new registry service.
func NewRegistryService(deps RegistryDeps) *RegistryService {
	return &RegistryService{
		services: deps.Services,
		subs:     deps.Subs,
		docs:     deps.Docs,
		cipher:   deps.Cipher,
		idGen:    deps.IDGen,
		random:   deps.Random,
		clock:    deps.Clock,
	}
}

// Register lists a new service for a seller. The seller credential is
// encrypted before it touches the store, and the service starts active.
func (s *RegistryService) Register(ctx context.Context, p service.RegisterParams) (service.Service, error) {
	if reason := service.ValidateRegister(p); reason != "" {
		return service.Service{}, Validation(reason)
	}

	sealed, err := s.cipher.Seal(p.SecretKey)
	if err != nil {
		return service.Service{}, err
	}

	slug, err := s.random.String(8)
	if err != nil {
		return service.Service{}, err
	}

	now := s.clock.Now()
	svc := service.Service{
		ID:           s.idGen.New(),
		SellerID:     p.SellerID,
		Name:         p.Name,
		Description:  p.Description,
		Category:     p.Category,
		Docs:         p.Docs,
		EndpointURL:  p.EndpointURL,
		EncryptedKey: sealed,
		ProxyPrefix:  service.ProxyPrefixFor(slug, p.Name),
		PricingModel: service.PricePerCall,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.services.Create(ctx, svc); err != nil {
		if errors.Is(err, ports.ErrDuplicate) {
			return service.Service{}, ErrConflict
		}
		return service.Service{}, err
	}
	return svc, nil
}

// Get retrieves a service owned by sellerID.
func (s *RegistryService) Get(ctx context.Context, sellerID, serviceID string) (service.Service, error) {
	svc, err := s.services.Get(ctx, serviceID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return service.Service{}, ErrNotFound
		}
		return service.Service{}, err
	}
	if !svc.OwnedBy(sellerID) {
		return service.Service{}, ErrForbidden
	}
	return svc, nil
}

// Update applies a partial mutation to a service owned by sellerID.
// Setting SecretKey rotates the stored credential.
func (s *RegistryService) Update(ctx context.Context, sellerID, serviceID string, u service.Update) (service.Service, error) {
	svc, err := s.Get(ctx, sellerID, serviceID)
	if err != nil {
		return service.Service{}, err
	}

	if u.EndpointURL != nil && !service.ValidEndpointURL(*u.EndpointURL) {
		return service.Service{}, Validation(service.ReasonBadEndpoint)
	}
	if u.Name != nil && *u.Name == "" {
		return service.Service{}, Validation(service.ReasonEmptyName)
	}

	svc = svc.Apply(u, s.clock.Now())
	if u.SecretKey != nil {
		if *u.SecretKey == "" {
			return service.Service{}, Validation(service.ReasonEmptySecret)
		}
		sealed, err := s.cipher.Seal(*u.SecretKey)
		if err != nil {
			return service.Service{}, err
		}
		svc.EncryptedKey = sealed
	}

	if err := s.services.Update(ctx, svc); err != nil {
		return service.Service{}, err
	}
	return svc, nil
}

// Deactivate soft-delists a service owned by sellerID. Existing
// subscriptions stay on record; proxy calls start failing with
// service_inactive and the catalog stops showing the listing.
func (s *RegistryService) Deactivate(ctx context.Context, sellerID, serviceID string) error {
	inactive := false
	_, err := s.Update(ctx, sellerID, serviceID, service.Update{Active: &inactive})
	return err
}

// SetPricing replaces the pricing of a service owned by sellerID.
// Price changes apply to subsequent calls only; recorded usage keeps the
// cost it was priced at.
func (s *RegistryService) SetPricing(ctx context.Context, sellerID, serviceID string, p service.Pricing) (service.Service, error) {
	if reason := service.ValidatePricing(p); reason != "" {
		return service.Service{}, Validation(reason)
	}

	svc, err := s.Get(ctx, sellerID, serviceID)
	if err != nil {
		return service.Service{}, err
	}

	svc.PricingModel = p.Model
	svc.PricePerCall = p.PricePerCall
	svc.PricePerToken = p.PricePerToken
	svc.UpdatedAt = s.clock.Now()

	if err := s.services.Update(ctx, svc); err != nil {
		return service.Service{}, err
	}
	return svc, nil
}

// ListBySeller returns all services owned by a seller.
func (s *RegistryService) ListBySeller(ctx context.Context, sellerID string) ([]service.Service, error) {
	return s.services.ListBySeller(ctx, sellerID)
}

// Listing is a buyer-facing service projection with its subscriber count.
// Secrets never appear here.
type Listing struct {
	Service     service.Service
	Subscribers int64
}

// ListActive returns the marketplace catalog of active services.
func (s *RegistryService) ListActive(ctx context.Context) ([]service.Service, error) {
	return s.services.ListActive(ctx)
}

// Detail returns one active service with its subscriber count, for buyers.
func (s *RegistryService) Detail(ctx context.Context, serviceID string) (Listing, error) {
	svc, err := s.services.Get(ctx, serviceID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return Listing{}, ErrNotFound
		}
		return Listing{}, err
	}
	if !svc.Active {
		return Listing{}, ErrNotFound
	}

	count, err := s.subs.CountByService(ctx, serviceID)
	if err != nil {
		return Listing{}, err
	}
	return Listing{Service: svc, Subscribers: count}, nil
}
