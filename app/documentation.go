package app

import (
	"context"
	"errors"

	"github.com/Heht571/LLMRouter/domain/service"
	"github.com/Heht571/LLMRouter/ports"
)

// CreateDocumentation attaches documentation to a service owned by
// sellerID. A service carries at most one documentation record.
func (s *RegistryService) CreateDocumentation(ctx context.Context, sellerID, serviceID string, p service.DocumentationParams) (service.Documentation, error) {
	if _, err := s.Get(ctx, sellerID, serviceID); err != nil {
		return service.Documentation{}, err
	}
	if reason := service.ValidateDocumentation(p); reason != "" {
		return service.Documentation{}, Validation(reason)
	}

	doc := service.NewDocumentation(serviceID, p, s.clock.Now())
	if err := s.docs.Create(ctx, doc); err != nil {
		if errors.Is(err, ports.ErrDuplicate) {
			return service.Documentation{}, ErrConflict
		}
		return service.Documentation{}, err
	}
	return doc, nil
}

// GetDocumentation returns the documentation of a service owned by
// sellerID, published or not.
func (s *RegistryService) GetDocumentation(ctx context.Context, sellerID, serviceID string) (service.Documentation, error) {
	if _, err := s.Get(ctx, sellerID, serviceID); err != nil {
		return service.Documentation{}, err
	}
	doc, err := s.docs.Get(ctx, serviceID)
	if errors.Is(err, ports.ErrNotFound) {
		return service.Documentation{}, ErrNotFound
	}
	return doc, err
}

// UpdateDocumentation replaces the documentation of a service owned by
// sellerID.
func (s *RegistryService) UpdateDocumentation(ctx context.Context, sellerID, serviceID string, p service.DocumentationParams) (service.Documentation, error) {
	if _, err := s.Get(ctx, sellerID, serviceID); err != nil {
		return service.Documentation{}, err
	}
	if reason := service.ValidateDocumentation(p); reason != "" {
		return service.Documentation{}, Validation(reason)
	}

	doc, err := s.docs.Get(ctx, serviceID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return service.Documentation{}, ErrNotFound
		}
		return service.Documentation{}, err
	}

	doc = doc.ApplyDocumentation(p, s.clock.Now())
	if err := s.docs.Update(ctx, doc); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return service.Documentation{}, ErrNotFound
		}
		return service.Documentation{}, err
	}
	return doc, nil
}

// DeleteDocumentation removes the documentation of a service owned by
// sellerID.
func (s *RegistryService) DeleteDocumentation(ctx context.Context, sellerID, serviceID string) error {
	if _, err := s.Get(ctx, sellerID, serviceID); err != nil {
		return err
	}
	if err := s.docs.Delete(ctx, serviceID); err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

// PublicDocumentation returns the documentation buyers see for an active
// service. Unpublished documentation is reported as not found.
func (s *RegistryService) PublicDocumentation(ctx context.Context, serviceID string) (service.Documentation, error) {
	svc, err := s.services.Get(ctx, serviceID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return service.Documentation{}, ErrNotFound
		}
		return service.Documentation{}, err
	}
	if !svc.Active {
		return service.Documentation{}, ErrNotFound
	}

	doc, err := s.docs.Get(ctx, serviceID)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return service.Documentation{}, ErrNotFound
		}
		return service.Documentation{}, err
	}
	if !doc.Published {
		return service.Documentation{}, ErrNotFound
	}
	return doc, nil
}
