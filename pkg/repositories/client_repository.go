package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leadvault/leadvault-engine/pkg/apperrors"
	"github.com/leadvault/leadvault-engine/pkg/models"
)

// ClientRepository defines data access for clients.
type ClientRepository interface {
	List(ctx context.Context) ([]*models.Client, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Client, error)
	Create(ctx context.Context, name string) (*models.Client, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type clientRepository struct {
	db DBTX
}

// NewClientRepository creates a new client repository.
func NewClientRepository(db DBTX) ClientRepository {
	return &clientRepository{db: db}
}

// List returns all clients, newest first.
func (r *clientRepository) List(ctx context.Context) ([]*models.Client, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, created_at
		FROM clients
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list clients: %w", err)
	}
	defer rows.Close()

	var clients []*models.Client
	for rows.Next() {
		var c models.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan client: %w", err)
		}
		clients = append(clients, &c)
	}
	return clients, rows.Err()
}

// Get retrieves a client by ID.
func (r *clientRepository) Get(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	var c models.Client
	err := r.db.QueryRow(ctx, `
		SELECT id, name, created_at
		FROM clients
		WHERE id = $1`, id).Scan(&c.ID, &c.Name, &c.CreatedAt)
	if err != nil {
		if err := translateError(err); err == apperrors.ErrNotFound {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get client: %w", err)
	}
	return &c, nil
}

// Create inserts a new client. Names are unique; a duplicate returns ErrConflict.
func (r *clientRepository) Create(ctx context.Context, name string) (*models.Client, error) {
	c := &models.Client{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO clients (id, name, created_at)
		VALUES ($1, $2, $3)`, c.ID, c.Name, c.CreatedAt)
	if err != nil {
		if translated := translateError(err); translated == apperrors.ErrConflict {
			return nil, translated
		}
		return nil, fmt.Errorf("failed to create client: %w", err)
	}
	return c, nil
}

// Delete removes a client. Uploads, records, niche assignments, and scoped
// users cascade at the schema level.
func (r *clientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM clients WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete client: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
