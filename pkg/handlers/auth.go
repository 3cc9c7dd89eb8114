package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/leadvault/leadvault-engine/pkg/apperrors"
	"github.com/leadvault/leadvault-engine/pkg/auth"
	"github.com/leadvault/leadvault-engine/pkg/repositories"
)

// LoginRequest is the request body for admin and user login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// ChangePasswordRequest is the request body for the admin password change.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// AuthHandler handles admin and user session endpoints.
type AuthHandler struct {
	admins repositories.AdminRepository
	users  repositories.UserRepository
	logger *zap.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(admins repositories.AdminRepository, users repositories.UserRepository, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{admins: admins, users: users, logger: logger}
}

// RegisterRoutes registers the auth handler's routes on the given mux.
func (h *AuthHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("POST /api/auth/login", h.AdminLogin)
	mux.HandleFunc("POST /api/auth/logout", h.Logout)
	mux.HandleFunc("GET /api/auth/check", h.AdminCheck)
	mux.HandleFunc("POST /api/auth/change-password", authMiddleware.RequireAdmin(h.ChangePassword))

	mux.HandleFunc("POST /api/user-auth/login", h.UserLogin)
	mux.HandleFunc("POST /api/user-auth/logout", h.Logout)
	mux.HandleFunc("GET /api/user-auth/check", h.UserCheck)
}

// AdminLogin handles POST /api/auth/login.
func (h *AuthHandler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	admin, err := h.admins.GetByUsername(r.Context(), req.Username)
	if err != nil || !auth.CheckPassword(admin.PasswordHash, req.Password) {
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			h.logger.Error("Failed to look up admin", zap.Error(err))
		}
		if err := ErrorResponse(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := auth.SetAdminSession(w, r, admin.ID); err != nil {
		h.logger.Error("Failed to save session", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to create session"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]string{"status": "success"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UserLogin handles POST /api/user-auth/login.
func (h *AuthHandler) UserLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	user, err := h.users.GetByUsername(r.Context(), req.Username)
	if err != nil || !auth.CheckPassword(user.PasswordHash, req.Password) {
		if err != nil && !errors.Is(err, apperrors.ErrNotFound) {
			h.logger.Error("Failed to look up user", zap.Error(err))
		}
		if err := ErrorResponse(w, http.StatusUnauthorized, "invalid_credentials", "Invalid username or password"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := auth.SetUserSession(w, r, user.ID); err != nil {
		h.logger.Error("Failed to save session", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to create session"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"status": "success",
		"user":   userView(user),
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Logout handles POST /api/auth/logout and POST /api/user-auth/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := auth.ClearSession(w, r); err != nil {
		h.logger.Error("Failed to clear session", zap.Error(err))
	}
	if err := WriteJSON(w, http.StatusOK, map[string]string{"status": "success"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// AdminCheck handles GET /api/auth/check.
func (h *AuthHandler) AdminCheck(w http.ResponseWriter, r *http.Request) {
	adminID, ok := auth.AdminID(r)
	if ok {
		// A stale cookie for a removed admin must not pass the check.
		if _, err := h.admins.Get(r.Context(), adminID); err != nil {
			ok = false
		}
	}
	if err := WriteJSON(w, http.StatusOK, map[string]bool{"authenticated": ok}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// UserCheck handles GET /api/user-auth/check.
func (h *AuthHandler) UserCheck(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r)
	if !ok {
		if err := WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false}); err != nil {
			h.logger.Error("Failed to write response", zap.Error(err))
		}
		return
	}

	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		if err := WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false}); err != nil {
			h.logger.Error("Failed to write response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]any{
		"authenticated": true,
		"user":          userView(user),
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ChangePassword handles POST /api/auth/change-password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	principal, ok := auth.GetPrincipal(r.Context())
	if !ok || !principal.IsAdmin {
		if err := ErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Admin session required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	var req ChangePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if req.NewPassword == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "New password is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	admin, err := h.admins.Get(r.Context(), principal.AdminID)
	if err != nil {
		h.logger.Error("Failed to look up admin", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to change password"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if !auth.CheckPassword(admin.PasswordHash, req.CurrentPassword) {
		if err := ErrorResponse(w, http.StatusUnauthorized, "invalid_credentials", "Current password is incorrect"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		h.logger.Error("Failed to hash password", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to change password"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := h.admins.UpdatePassword(r.Context(), admin.ID, hash); err != nil {
		h.logger.Error("Failed to update admin password", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to change password"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, map[string]string{"status": "success"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
