package auth

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/leadvault/leadvault-engine/pkg/repositories"
)

// Middleware guards routes behind the session cookie.
type Middleware struct {
	admins repositories.AdminRepository
	users  repositories.UserRepository
	logger *zap.Logger
}

// NewMiddleware creates session-auth middleware.
func NewMiddleware(admins repositories.AdminRepository, users repositories.UserRepository, logger *zap.Logger) *Middleware {
	return &Middleware{admins: admins, users: users, logger: logger}
}

// RequireAdmin rejects requests without an admin session.
func (m *Middleware) RequireAdmin(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		adminID, ok := AdminID(r)
		if !ok {
			unauthorized(w)
			return
		}
		ctx := WithPrincipal(r.Context(), &Principal{IsAdmin: true, AdminID: adminID})
		next(w, r.WithContext(ctx))
	}
}

// RequireViewer accepts either an admin session or a user session, resolving
// the user so downstream handlers can enforce client scoping.
func (m *Middleware) RequireViewer(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if adminID, ok := AdminID(r); ok {
			ctx := WithPrincipal(r.Context(), &Principal{IsAdmin: true, AdminID: adminID})
			next(w, r.WithContext(ctx))
			return
		}

		userID, ok := UserID(r)
		if !ok {
			unauthorized(w)
			return
		}

		user, err := m.users.Get(r.Context(), userID)
		if err != nil {
			// A stale cookie for a deleted user is not an error worth logging
			// above debug level.
			m.logger.Debug("session user not found", zap.String("user_id", userID.String()), zap.Error(err))
			unauthorized(w)
			return
		}

		ctx := WithPrincipal(r.Context(), &Principal{User: user})
		next(w, r.WithContext(ctx))
	}
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": "Unauthorized"})
}
