package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/leadvault/leadvault-engine/pkg/apperrors"
	"github.com/leadvault/leadvault-engine/pkg/auth"
	"github.com/leadvault/leadvault-engine/pkg/repositories"
)

// CreateNicheRequest is the request body for creating a niche.
type CreateNicheRequest struct {
	Name string `json:"name"`
}

// AssignNicheRequest is the request body for assigning a niche to a client.
type AssignNicheRequest struct {
	NicheID uuid.UUID `json:"niche_id"`
}

// NichesHandler handles niche CRUD and client-niche assignment endpoints.
type NichesHandler struct {
	niches repositories.NicheRepository
	logger *zap.Logger
}

// NewNichesHandler creates a new niches handler.
func NewNichesHandler(niches repositories.NicheRepository, logger *zap.Logger) *NichesHandler {
	return &NichesHandler{niches: niches, logger: logger}
}

// RegisterRoutes registers the niches handler's routes on the given mux.
// The list endpoint is open: the upload form needs it before any login.
func (h *NichesHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/niches", h.List)
	mux.HandleFunc("POST /api/niches", authMiddleware.RequireAdmin(h.Create))
	mux.HandleFunc("DELETE /api/niches/{nid}", authMiddleware.RequireAdmin(h.Delete))

	mux.HandleFunc("GET /api/clients/{cid}/niches", authMiddleware.RequireViewer(h.ListForClient))
	mux.HandleFunc("POST /api/clients/{cid}/niches", authMiddleware.RequireAdmin(h.Assign))
	mux.HandleFunc("DELETE /api/clients/{cid}/niches/{nid}", authMiddleware.RequireAdmin(h.Unassign))
}

// List handles GET /api/niches.
func (h *NichesHandler) List(w http.ResponseWriter, r *http.Request) {
	niches, err := h.niches.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list niches", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list niches"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if err := WriteJSON(w, http.StatusOK, niches); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/niches.
func (h *NichesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateNicheRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Niche name is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	niche, err := h.niches.Create(r.Context(), name)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			if err := ErrorResponse(w, http.StatusConflict, "conflict", "Niche name already exists"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to create niche", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to create niche"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, niche); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/niches/{nid}.
// A niche referenced by uploads cannot be removed.
func (h *NichesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	nicheID, ok := ParseNicheID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.niches.Delete(r.Context(), nicheID); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Niche not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		case errors.Is(err, apperrors.ErrConflict):
			if err := ErrorResponse(w, http.StatusConflict, "conflict", "Niche is referenced by uploads"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		default:
			h.logger.Error("Failed to delete niche", zap.Error(err))
			if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to delete niche"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListForClient handles GET /api/clients/{cid}/niches.
func (h *NichesHandler) ListForClient(w http.ResponseWriter, r *http.Request) {
	clientID, ok := ParseClientID(w, r, h.logger)
	if !ok {
		return
	}
	if !requireClientAccess(w, r, clientID, h.logger) {
		return
	}

	niches, err := h.niches.ListForClient(r.Context(), clientID)
	if err != nil {
		h.logger.Error("Failed to list client niches", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list niches"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if err := WriteJSON(w, http.StatusOK, niches); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Assign handles POST /api/clients/{cid}/niches.
func (h *NichesHandler) Assign(w http.ResponseWriter, r *http.Request) {
	clientID, ok := ParseClientID(w, r, h.logger)
	if !ok {
		return
	}

	var req AssignNicheRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.NicheID == uuid.Nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Niche ID is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := h.niches.Assign(r.Context(), clientID, req.NicheID); err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			if err := ErrorResponse(w, http.StatusConflict, "conflict", "Niche already assigned"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to assign niche", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to assign niche"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, map[string]string{"status": "success"}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Unassign handles DELETE /api/clients/{cid}/niches/{nid}.
func (h *NichesHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	clientID, ok := ParseClientID(w, r, h.logger)
	if !ok {
		return
	}
	nicheID, ok := ParseNicheID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.niches.Unassign(r.Context(), clientID, nicheID); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Assignment not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to unassign niche", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to unassign niche"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// requireClientAccess enforces the principal's client scope, writing a 403 on
// mismatch. Routes behind RequireViewer always carry a principal.
func requireClientAccess(w http.ResponseWriter, r *http.Request, clientID uuid.UUID, logger *zap.Logger) bool {
	principal, ok := auth.GetPrincipal(r.Context())
	if !ok || !principal.CanAccessClient(clientID) {
		if err := ErrorResponse(w, http.StatusForbidden, "forbidden", "No access to this client"); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return false
	}
	return true
}
