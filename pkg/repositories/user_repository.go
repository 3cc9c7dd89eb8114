package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/leadvault/leadvault-engine/pkg/apperrors"
	"github.com/leadvault/leadvault-engine/pkg/models"
)

// UserRepository defines data access for scoped end users.
type UserRepository interface {
	List(ctx context.Context) ([]*models.User, error)
	Get(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type userRepository struct {
	db DBTX
}

// NewUserRepository creates a new user repository.
func NewUserRepository(db DBTX) UserRepository {
	return &userRepository{db: db}
}

// List returns all users, newest first, with client names joined in.
func (r *userRepository) List(ctx context.Context) ([]*models.User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT u.id, u.username, u.password_hash, u.access_all_clients,
			u.client_id, u.created_at, COALESCE(c.name, '')
		FROM users u
		LEFT JOIN clients c ON c.id = u.client_id
		ORDER BY u.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	var users []*models.User
	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.Username, &u.PasswordHash, &u.AccessAllClients,
			&u.ClientID, &u.CreatedAt, &u.ClientName); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// Get retrieves a user by ID.
func (r *userRepository) Get(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return r.getBy(ctx, "id = $1", id)
}

// GetByUsername retrieves a user by username.
func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getBy(ctx, "username = $1", username)
}

func (r *userRepository) getBy(ctx context.Context, cond string, arg any) (*models.User, error) {
	var u models.User
	err := r.db.QueryRow(ctx, `
		SELECT id, username, password_hash, access_all_clients, client_id, created_at
		FROM users
		WHERE `+cond, arg).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.AccessAllClients, &u.ClientID, &u.CreatedAt)
	if err != nil {
		if translated := translateError(err); translated == apperrors.ErrNotFound {
			return nil, translated
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &u, nil
}

// Create inserts a user. Usernames are unique; a duplicate returns ErrConflict.
func (r *userRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	user.CreatedAt = time.Now().UTC()

	_, err := r.db.Exec(ctx, `
		INSERT INTO users (id, username, password_hash, access_all_clients, client_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Username, user.PasswordHash, user.AccessAllClients,
		user.ClientID, user.CreatedAt)
	if err != nil {
		if translated := translateError(err); translated == apperrors.ErrConflict {
			return translated
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// Update rewrites a user's username, scope, and password hash.
func (r *userRepository) Update(ctx context.Context, user *models.User) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE users
		SET username = $2, password_hash = $3, access_all_clients = $4, client_id = $5
		WHERE id = $1`,
		user.ID, user.Username, user.PasswordHash, user.AccessAllClients, user.ClientID)
	if err != nil {
		if translated := translateError(err); translated == apperrors.ErrConflict {
			return translated
		}
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// Delete removes a user.
func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}
