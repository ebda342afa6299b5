package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/Heht571/LLMRouter/domain/service"
	"github.com/Heht571/LLMRouter/ports"
)

// DocumentationStore implements ports.DocumentationStore using SQLite.
type DocumentationStore struct {
	db *DB
}

// NewDocumentationStore creates a new SQLite documentation store.
func NewDocumentationStore(db *DB) *DocumentationStore {
	return &DocumentationStore{db: db}
}

// Create stores documentation for a service.
func (s *DocumentationStore) Create(ctx context.Context, d service.Documentation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM service_docs WHERE service_id = ?`, d.ServiceID).Scan(&exists)
	if err != nil {
		return err
	}
	if exists > 0 {
		return ports.ErrDuplicate
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO service_docs (service_id, title, content, version, published, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, d.ServiceID, d.Title, d.Content, d.Version, d.Published, d.CreatedAt.UTC(), d.UpdatedAt.UTC())
	if err != nil {
		return err
	}
	if err := insertEndpointDocs(ctx, tx, d.ServiceID, d.Endpoints); err != nil {
		return err
	}
	return tx.Commit()
}

// Get retrieves the documentation for a service.
func (s *DocumentationStore) Get(ctx context.Context, serviceID string) (service.Documentation, error) {
	var d service.Documentation
	err := s.db.QueryRowContext(ctx, `
		SELECT service_id, title, content, version, published, created_at, updated_at
		FROM service_docs WHERE service_id = ?
	`, serviceID).Scan(&d.ServiceID, &d.Title, &d.Content, &d.Version, &d.Published, &d.CreatedAt, &d.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return service.Documentation{}, ports.ErrNotFound
	}
	if err != nil {
		return service.Documentation{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT method, path, summary, description
		FROM service_doc_endpoints
		WHERE service_id = ?
		ORDER BY position
	`, serviceID)
	if err != nil {
		return service.Documentation{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var e service.EndpointDoc
		if err := rows.Scan(&e.Method, &e.Path, &e.Summary, &e.Description); err != nil {
			return service.Documentation{}, err
		}
		d.Endpoints = append(d.Endpoints, e)
	}
	return d, rows.Err()
}

// Update replaces the documentation for a service, endpoints included.
func (s *DocumentationStore) Update(ctx context.Context, d service.Documentation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx, `
		UPDATE service_docs SET
			title = ?, content = ?, version = ?, published = ?, updated_at = ?
		WHERE service_id = ?
	`, d.Title, d.Content, d.Version, d.Published, d.UpdatedAt.UTC(), d.ServiceID)
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

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM service_doc_endpoints WHERE service_id = ?`, d.ServiceID); err != nil {
		return err
	}
	if err := insertEndpointDocs(ctx, tx, d.ServiceID, d.Endpoints); err != nil {
		return err
	}
	return tx.Commit()
}

// Delete removes the documentation for a service.
func (s *DocumentationStore) Delete(ctx context.Context, serviceID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM service_docs WHERE service_id = ?`, serviceID)
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

func insertEndpointDocs(ctx context.Context, tx *sql.Tx, serviceID string, endpoints []service.EndpointDoc) error {
	for i, e := range endpoints {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO service_doc_endpoints (service_id, position, method, path, summary, description)
			VALUES (?, ?, ?, ?, ?, ?)
		`, serviceID, i, e.Method, e.Path, e.Summary, e.Description)
		if err != nil {
			return err
		}
	}
	return nil
}

// Ensure interface compliance.
var _ ports.DocumentationStore = (*DocumentationStore)(nil)
