package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leadvault/leadvault-engine/pkg/apperrors"
	"github.com/leadvault/leadvault-engine/pkg/models"
)

// UploaderRepository defines data access for uploaders.
type UploaderRepository interface {
	List(ctx context.Context) ([]*models.Uploader, error)
	Create(ctx context.Context, name string) (*models.Uploader, error)
	Delete(ctx context.Context, id uuid.UUID) error
	// DistinctNamesForClient returns the names of uploaders that have
	// submitted at least one upload for the client, sorted.
	DistinctNamesForClient(ctx context.Context, clientID uuid.UUID) ([]string, error)
}

type uploaderRepository struct {
	db DBTX
}

// NewUploaderRepository creates a new uploader repository.
func NewUploaderRepository(db DBTX) UploaderRepository {
	return &uploaderRepository{db: db}
}

// List returns all uploaders ordered by name.
func (r *uploaderRepository) List(ctx context.Context) ([]*models.Uploader, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, created_at
		FROM uploaders
		ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list uploaders: %w", err)
	}
	defer rows.Close()

	var uploaders []*models.Uploader
	for rows.Next() {
		var u models.Uploader
		if err := rows.Scan(&u.ID, &u.Name, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan uploader: %w", err)
		}
		uploaders = append(uploaders, &u)
	}
	return uploaders, rows.Err()
}

// Create inserts an uploader. Names are unique; a duplicate returns ErrConflict.
func (r *uploaderRepository) Create(ctx context.Context, name string) (*models.Uploader, error) {
	u := &models.Uploader{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO uploaders (id, name, created_at)
		VALUES ($1, $2, $3)`, u.ID, u.Name, u.CreatedAt)
	if err != nil {
		if translated := translateError(err); translated == apperrors.ErrConflict {
			return nil, translated
		}
		return nil, fmt.Errorf("failed to create uploader: %w", err)
	}
	return u, nil
}

// Delete removes an uploader.
func (r *uploaderRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM uploaders WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete uploader: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// DistinctNamesForClient returns uploader names seen on the client's uploads.
func (r *uploaderRepository) DistinctNamesForClient(ctx context.Context, clientID uuid.UUID) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT up.name
		FROM uploads u
		JOIN uploaders up ON up.id = u.uploader_id
		WHERE u.client_id = $1
		ORDER BY up.name ASC`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list client uploaders: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan uploader name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
