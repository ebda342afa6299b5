package memory

import (
	"context"
	"sync"

	"github.com/Heht571/LLMRouter/domain/service"
	"github.com/Heht571/LLMRouter/ports"
)

// DocumentationStore is an in-memory implementation of ports.DocumentationStore.
type DocumentationStore struct {
	mu   sync.RWMutex
	docs map[string]service.Documentation // by service ID
}

// NewDocumentationStore creates a new in-memory documentation store.
func NewDocumentationStore() *DocumentationStore {
	return &DocumentationStore{
		docs: make(map[string]service.Documentation),
	}
}

// Create stores documentation for a service.
func (s *DocumentationStore) Create(ctx context.Context, d service.Documentation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[d.ServiceID]; ok {
		return ports.ErrDuplicate
	}
	s.docs[d.ServiceID] = d
	return nil
}

// Get retrieves the documentation for a service.
func (s *DocumentationStore) Get(ctx context.Context, serviceID string) (service.Documentation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	d, ok := s.docs[serviceID]
	if !ok {
		return service.Documentation{}, ports.ErrNotFound
	}
	return d, nil
}

// Update replaces the documentation for a service.
func (s *DocumentationStore) Update(ctx context.Context, d service.Documentation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[d.ServiceID]; !ok {
		return ports.ErrNotFound
	}
	s.docs[d.ServiceID] = d
	return nil
}

// Delete removes the documentation for a service.
func (s *DocumentationStore) Delete(ctx context.Context, serviceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.docs[serviceID]; !ok {
		return ports.ErrNotFound
	}
	delete(s.docs, serviceID)
	return nil
}

// Ensure interface compliance.
var _ ports.DocumentationStore = (*DocumentationStore)(nil)
