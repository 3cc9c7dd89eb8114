package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/leadvault/leadvault-engine/pkg/apperrors"
	"github.com/leadvault/leadvault-engine/pkg/models"
)

// NicheRepository defines data access for niches and client-niche assignments.
type NicheRepository interface {
	List(ctx context.Context) ([]*models.Niche, error)
	Create(ctx context.Context, name string) (*models.Niche, error)
	Delete(ctx context.Context, id uuid.UUID) error
	ListForClient(ctx context.Context, clientID uuid.UUID) ([]*models.Niche, error)
	Assign(ctx context.Context, clientID, nicheID uuid.UUID) error
	Unassign(ctx context.Context, clientID, nicheID uuid.UUID) error
}

type nicheRepository struct {
	db DBTX
}

// NewNicheRepository creates a new niche repository.
func NewNicheRepository(db DBTX) NicheRepository {
	return &nicheRepository{db: db}
}

// List returns all niches ordered by name.
func (r *nicheRepository) List(ctx context.Context) ([]*models.Niche, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, name, created_at
		FROM niches
		ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list niches: %w", err)
	}
	defer rows.Close()
	return scanNiches(rows)
}

// Create inserts a niche. Names are unique case-insensitively; a duplicate
// returns ErrConflict.
func (r *nicheRepository) Create(ctx context.Context, name string) (*models.Niche, error) {
	n := &models.Niche{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := r.db.Exec(ctx, `
		INSERT INTO niches (id, name, created_at)
		VALUES ($1, $2, $3)`, n.ID, n.Name, n.CreatedAt)
	if err != nil {
		if translated := translateError(err); translated == apperrors.ErrConflict {
			return nil, translated
		}
		return nil, fmt.Errorf("failed to create niche: %w", err)
	}
	return n, nil
}

// Delete removes a niche and its client assignments.
func (r *nicheRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM niches WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete niche: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// ListForClient returns the niches assigned to a client, ordered by name.
func (r *nicheRepository) ListForClient(ctx context.Context, clientID uuid.UUID) ([]*models.Niche, error) {
	rows, err := r.db.Query(ctx, `
		SELECT n.id, n.name, n.created_at
		FROM client_niches cn
		JOIN niches n ON n.id = cn.niche_id
		WHERE cn.client_id = $1
		ORDER BY n.name ASC`, clientID)
	if err != nil {
		return nil, fmt.Errorf("failed to list client niches: %w", err)
	}
	defer rows.Close()
	return scanNiches(rows)
}

// Assign links a niche to a client. The pair is unique; assigning twice
// returns ErrConflict.
func (r *nicheRepository) Assign(ctx context.Context, clientID, nicheID uuid.UUID) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO client_niches (id, client_id, niche_id, created_at)
		VALUES ($1, $2, $3, $4)`, uuid.New(), clientID, nicheID, time.Now().UTC())
	if err != nil {
		if translated := translateError(err); translated == apperrors.ErrConflict {
			return translated
		}
		return fmt.Errorf("failed to assign niche: %w", err)
	}
	return nil
}

// Unassign removes a client-niche link.
func (r *nicheRepository) Unassign(ctx context.Context, clientID, nicheID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
		DELETE FROM client_niches
		WHERE client_id = $1 AND niche_id = $2`, clientID, nicheID)
	if err != nil {
		return fmt.Errorf("failed to unassign niche: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func scanNiches(rows pgx.Rows) ([]*models.Niche, error) {
	var niches []*models.Niche
	for rows.Next() {
		var n models.Niche
		if err := rows.Scan(&n.ID, &n.Name, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan niche: %w", err)
		}
		niches = append(niches, &n)
	}
	return niches, rows.Err()
}
