package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/Heht571/LLMRouter/domain/service"
	"github.com/Heht571/LLMRouter/ports"
)

// ServiceStore is an in-memory implementation of ports.ServiceStore.
type ServiceStore struct {
	mu       sync.RWMutex
	services map[string]service.Service // by ID
}

// NewServiceStore creates a new in-memory service store.
func NewServiceStore() *ServiceStore {
	return &ServiceStore{
		services: make(map[string]service.Service),
	}
}

// Create stores a new service.
func (s *ServiceStore) Create(ctx context.Context, svc service.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.services {
		if existing.ProxyPrefix == svc.ProxyPrefix {
			return ports.ErrDuplicate
		}
	}
	s.services[svc.ID] = svc
	return nil
}

// Get retrieves a service by ID.
func (s *ServiceStore) Get(ctx context.Context, id string) (service.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	svc, ok := s.services[id]
	if !ok {
		return service.Service{}, ports.ErrNotFound
	}
	return svc, nil
}

// Update replaces a service row.
func (s *ServiceStore) Update(ctx context.Context, svc service.Service) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.services[svc.ID]; !ok {
		return ports.ErrNotFound
	}
	s.services[svc.ID] = svc
	return nil
}

// ListBySeller returns all services owned by a seller.
func (s *ServiceStore) ListBySeller(ctx context.Context, sellerID string) ([]service.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []service.Service
	for _, svc := range s.services {
		if svc.SellerID == sellerID {
			result = append(result, svc)
		}
	}
	sortByID(result)
	return result, nil
}

// ListActive returns all active services.
func (s *ServiceStore) ListActive(ctx context.Context) ([]service.Service, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []service.Service
	for _, svc := range s.services {
		if svc.Active {
			result = append(result, svc)
		}
	}
	sortByID(result)
	return result, nil
}

func sortByID(services []service.Service) {
	sort.Slice(services, func(i, j int) bool {
		return services[i].ID < services[j].ID
	})
}

// Ensure interface compliance.
var _ ports.ServiceStore = (*ServiceStore)(nil)
