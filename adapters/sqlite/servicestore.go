package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Heht571/LLMRouter/domain/service"
	"github.com/Heht571/LLMRouter/ports"
)

// ServiceStore implements ports.ServiceStore using SQLite.
type ServiceStore struct {
	db *DB
}

// NewServiceStore creates a new SQLite service store.
func NewServiceStore(db *DB) *ServiceStore {
	return &ServiceStore{db: db}
}

const serviceColumns = `id, seller_id, name, description, category, docs,
	endpoint_url, encrypted_key, proxy_prefix,
	pricing_model, price_per_call, price_per_token,
	active, created_at, updated_at`

// Create stores a new service.
func (s *ServiceStore) Create(ctx context.Context, svc service.Service) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO services (`+serviceColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, svc.ID, svc.SellerID, svc.Name, svc.Description, svc.Category, svc.Docs,
		svc.EndpointURL, svc.EncryptedKey, svc.ProxyPrefix,
		string(svc.PricingModel), svc.PricePerCall, svc.PricePerToken,
		svc.Active, svc.CreatedAt.UTC(), svc.UpdatedAt.UTC())
	return err
}

// Get retrieves a service by ID.
func (s *ServiceStore) Get(ctx context.Context, id string) (service.Service, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+serviceColumns+` FROM services WHERE id = ?
	`, id)
	return scanService(row)
}

// Update replaces a service row.
func (s *ServiceStore) Update(ctx context.Context, svc service.Service) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE services SET
			name = ?, description = ?, category = ?, docs = ?,
			endpoint_url = ?, encrypted_key = ?,
			pricing_model = ?, price_per_call = ?, price_per_token = ?,
			active = ?, updated_at = ?
		WHERE id = ?
	`, svc.Name, svc.Description, svc.Category, svc.Docs,
		svc.EndpointURL, svc.EncryptedKey,
		string(svc.PricingModel), svc.PricePerCall, svc.PricePerToken,
		svc.Active, svc.UpdatedAt.UTC(), svc.ID)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ports.ErrNotFound
	}
	return nil
}

// ListBySeller returns all services owned by a seller.
func (s *ServiceStore) ListBySeller(ctx context.Context, sellerID string) ([]service.Service, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+serviceColumns+` FROM services
		WHERE seller_id = ?
		ORDER BY created_at DESC
	`, sellerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectServices(rows)
}

// ListActive returns all active services.
func (s *ServiceStore) ListActive(ctx context.Context) ([]service.Service, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+serviceColumns+` FROM services
		WHERE active = 1
		ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectServices(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanService(row rowScanner) (service.Service, error) {
	var svc service.Service
	var model string
	err := row.Scan(&svc.ID, &svc.SellerID, &svc.Name, &svc.Description, &svc.Category, &svc.Docs,
		&svc.EndpointURL, &svc.EncryptedKey, &svc.ProxyPrefix,
		&model, &svc.PricePerCall, &svc.PricePerToken,
		&svc.Active, &svc.CreatedAt, &svc.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return service.Service{}, ports.ErrNotFound
	}
	if err != nil {
		return service.Service{}, err
	}
	svc.PricingModel = service.PricingModel(model)
	return svc, nil
}

func collectServices(rows *sql.Rows) ([]service.Service, error) {
	var services []service.Service
	for rows.Next() {
		svc, err := scanService(rows)
		if err != nil {
			return nil, err
		}
		services = append(services, svc)
	}
	return services, rows.Err()
}

// Ensure interface compliance.
var _ ports.ServiceStore = (*ServiceStore)(nil)
