package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/leadvault/leadvault-engine/pkg/apperrors"
	"github.com/leadvault/leadvault-engine/pkg/models"
)

// AdminRepository defines data access for back-office administrators.
type AdminRepository interface {
	GetByUsername(ctx context.Context, username string) (*models.Admin, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Admin, error)
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
}

type adminRepository struct {
	db DBTX
}

// NewAdminRepository creates a new admin repository.
func NewAdminRepository(db DBTX) AdminRepository {
	return &adminRepository{db: db}
}

// GetByUsername retrieves an admin by username.
func (r *adminRepository) GetByUsername(ctx context.Context, username string) (*models.Admin, error) {
	return r.getBy(ctx, "username = $1", username)
}

// Get retrieves an admin by ID.
func (r *adminRepository) Get(ctx context.Context, id uuid.UUID) (*models.Admin, error) {
	return r.getBy(ctx, "id = $1", id)
}

func (r *adminRepository) getBy(ctx context.Context, cond string, arg any) (*models.Admin, error) {
	var a models.Admin
	err := r.db.QueryRow(ctx, `
		SELECT id, username, password_hash, created_at
		FROM admins
		WHERE `+cond, arg).Scan(&a.ID, &a.Username, &a.PasswordHash, &a.CreatedAt)
	if err != nil {
		if translated := translateError(err); translated == apperrors.ErrNotFound {
			return nil, translated
		}
		return nil, fmt.Errorf("failed to get admin: %w", err)
	}
	return &a, nil
}

// UpdatePassword replaces an admin's password hash.
func (r *adminRepository) UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE admins SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return fmt.Errorf("failed to update admin password: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
