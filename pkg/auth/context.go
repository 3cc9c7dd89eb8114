package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/leadvault/leadvault-engine/pkg/models"
)

type contextKey string

const principalKey contextKey = "principal"

// Principal is the authenticated caller attached to a request context by the
// middleware: either an admin (full access) or a scoped user.
type Principal struct {
	IsAdmin bool
	AdminID uuid.UUID
	User    *models.User
}

// CanAccessClient reports whether the principal may view the given client's data.
func (p *Principal) CanAccessClient(clientID uuid.UUID) bool {
	if p.IsAdmin {
		return true
	}
	return p.User != nil && p.User.CanAccessClient(clientID)
}

// WithPrincipal attaches a principal to the context.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// GetPrincipal returns the principal from the context, if any.
func GetPrincipal(ctx context.Context) (*Principal, bool) {
	p, ok := ctx.Value(principalKey).(*Principal)
	return p, ok
}
