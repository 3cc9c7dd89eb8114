package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/leadvault/leadvault-engine/pkg/apperrors"
	"github.com/leadvault/leadvault-engine/pkg/auth"
	"github.com/leadvault/leadvault-engine/pkg/models"
	"github.com/leadvault/leadvault-engine/pkg/repositories"
)

// UserView is a user without its password hash.
type UserView struct {
	ID               uuid.UUID  `json:"id"`
	Username         string     `json:"username"`
	AccessAllClients bool       `json:"access_all_clients"`
	ClientID         *uuid.UUID `json:"client_id"`
	ClientName       string     `json:"client_name,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

func userView(u *models.User) UserView {
	return UserView{
		ID:               u.ID,
		Username:         u.Username,
		AccessAllClients: u.AccessAllClients,
		ClientID:         u.ClientID,
		ClientName:       u.ClientName,
		CreatedAt:        u.CreatedAt,
	}
}

// UserRequest is the request body for creating or updating a user. Password is
// required on create; on update an empty password keeps the current one.
type UserRequest struct {
	Username         string     `json:"username"`
	Password         string     `json:"password"`
	AccessAllClients bool       `json:"access_all_clients"`
	ClientID         *uuid.UUID `json:"client_id"`
}

// UsersHandler handles admin management of scoped end users.
type UsersHandler struct {
	users  repositories.UserRepository
	logger *zap.Logger
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(users repositories.UserRepository, logger *zap.Logger) *UsersHandler {
	return &UsersHandler{users: users, logger: logger}
}

// RegisterRoutes registers the users handler's routes on the given mux.
func (h *UsersHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/users", authMiddleware.RequireAdmin(h.List))
	mux.HandleFunc("POST /api/users", authMiddleware.RequireAdmin(h.Create))
	mux.HandleFunc("PUT /api/users/{uid}", authMiddleware.RequireAdmin(h.Update))
	mux.HandleFunc("DELETE /api/users/{uid}", authMiddleware.RequireAdmin(h.Delete))
}

// List handles GET /api/users.
func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list users", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list users"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	views := make([]UserView, 0, len(users))
	for _, u := range users {
		views = append(views, userView(u))
	}
	if err := WriteJSON(w, http.StatusOK, views); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/users.
func (h *UsersHandler) Create(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decodeUserRequest(w, r)
	if !ok {
		return
	}
	if req.Password == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Password is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		h.logger.Error("Failed to hash password", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to create user"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	user := &models.User{
		Username:         req.Username,
		PasswordHash:     hash,
		AccessAllClients: req.AccessAllClients,
		ClientID:         req.ClientID,
	}
	if err := h.users.Create(r.Context(), user); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			if err := ErrorResponse(w, http.StatusConflict, "conflict", "Username already exists"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to create user", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to create user"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, userView(user)); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Update handles PUT /api/users/{uid}.
func (h *UsersHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}
	req, ok := h.decodeUserRequest(w, r)
	if !ok {
		return
	}

	user, err := h.users.Get(r.Context(), userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "User not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to get user", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to update user"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	user.Username = req.Username
	user.AccessAllClients = req.AccessAllClients
	user.ClientID = req.ClientID
	if req.Password != "" {
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			h.logger.Error("Failed to hash password", zap.Error(err))
			if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to update user"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		user.PasswordHash = hash
	}

	if err := h.users.Update(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "User not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		case errors.Is(err, apperrors.ErrConflict):
			if err := ErrorResponse(w, http.StatusConflict, "conflict", "Username already exists"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		default:
			h.logger.Error("Failed to update user", zap.Error(err))
			if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to update user"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, userView(user)); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/users/{uid}.
func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := ParseUserID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.users.Delete(r.Context(), userID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "User not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to delete user", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to delete user"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *UsersHandler) decodeUserRequest(w http.ResponseWriter, r *http.Request) (*UserRequest, bool) {
	var req UserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return nil, false
	}

	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Username is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return nil, false
	}

	// A user is either unscoped with access to every client or scoped to
	// exactly one; the schema enforces the same rule.
	if req.AccessAllClients == (req.ClientID != nil) {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request",
			"User must either access all clients or be scoped to exactly one client"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return nil, false
	}

	return &req, true
}
