package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/leadvault/leadvault-engine/pkg/apperrors"
	"github.com/leadvault/leadvault-engine/pkg/auth"
	"github.com/leadvault/leadvault-engine/pkg/repositories"
)

// CreateClientRequest is the request body for creating a client.
type CreateClientRequest struct {
	Name string `json:"name"`
}

// ClientsHandler handles client CRUD endpoints.
type ClientsHandler struct {
	clients repositories.ClientRepository
	logger  *zap.Logger
}

// NewClientsHandler creates a new clients handler.
func NewClientsHandler(clients repositories.ClientRepository, logger *zap.Logger) *ClientsHandler {
	return &ClientsHandler{clients: clients, logger: logger}
}

// RegisterRoutes registers the clients handler's routes on the given mux.
func (h *ClientsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/clients", authMiddleware.RequireViewer(h.List))
	mux.HandleFunc("POST /api/clients", authMiddleware.RequireAdmin(h.Create))
	mux.HandleFunc("DELETE /api/clients/{cid}", authMiddleware.RequireAdmin(h.Delete))
}

// List handles GET /api/clients.
// Admins see every client; scoped users see only their own.
func (h *ClientsHandler) List(w http.ResponseWriter, r *http.Request) {
	clients, err := h.clients.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list clients", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list clients"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if principal, ok := auth.GetPrincipal(r.Context()); ok && !principal.IsAdmin {
		filtered := clients[:0]
		for _, c := range clients {
			if principal.CanAccessClient(c.ID) {
				filtered = append(filtered, c)
			}
		}
		clients = filtered
	}

	if err := WriteJSON(w, http.StatusOK, clients); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/clients.
func (h *ClientsHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Client name is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	client, err := h.clients.Create(r.Context(), name)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			if err := ErrorResponse(w, http.StatusConflict, "conflict", "Client name already exists"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to create client", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to create client"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, client); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/clients/{cid}.
// Uploads, ingested records, niche assignments, and scoped users cascade.
func (h *ClientsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	clientID, ok := ParseClientID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.clients.Delete(r.Context(), clientID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Client not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to delete client",
			zap.String("client_id", clientID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to delete client"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
