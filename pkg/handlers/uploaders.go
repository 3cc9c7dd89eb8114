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

// CreateUploaderRequest is the request body for creating an uploader.
type CreateUploaderRequest struct {
	Name string `json:"name"`
}

// UploadersHandler handles uploader endpoints.
type UploadersHandler struct {
	uploaders repositories.UploaderRepository
	logger    *zap.Logger
}

// NewUploadersHandler creates a new uploaders handler.
func NewUploadersHandler(uploaders repositories.UploaderRepository, logger *zap.Logger) *UploadersHandler {
	return &UploadersHandler{uploaders: uploaders, logger: logger}
}

// RegisterRoutes registers the uploaders handler's routes on the given mux.
// The list endpoint is open: the upload form needs it before any login.
func (h *UploadersHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/uploaders", h.List)
	mux.HandleFunc("POST /api/uploaders", authMiddleware.RequireAdmin(h.Create))
	mux.HandleFunc("DELETE /api/uploaders/{uid}", authMiddleware.RequireAdmin(h.Delete))

	mux.HandleFunc("GET /api/clients/{cid}/uploaders", authMiddleware.RequireViewer(h.NamesForClient))
}

// List handles GET /api/uploaders.
func (h *UploadersHandler) List(w http.ResponseWriter, r *http.Request) {
	uploaders, err := h.uploaders.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list uploaders", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list uploaders"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if err := WriteJSON(w, http.StatusOK, uploaders); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Create handles POST /api/uploaders.
func (h *UploadersHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUploaderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Uploader name is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	uploader, err := h.uploaders.Create(r.Context(), name)
	if err != nil {
		if errors.Is(err, apperrors.ErrConflict) {
			if err := ErrorResponse(w, http.StatusConflict, "conflict", "Uploader name already exists"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
			return
		}
		h.logger.Error("Failed to create uploader", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to create uploader"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusCreated, uploader); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// Delete handles DELETE /api/uploaders/{uid}.
// An uploader referenced by uploads cannot be removed.
func (h *UploadersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	uploaderID, ok := ParseUploaderID(w, r, h.logger)
	if !ok {
		return
	}

	if err := h.uploaders.Delete(r.Context(), uploaderID); err != nil {
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			if err := ErrorResponse(w, http.StatusNotFound, "not_found", "Uploader not found"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		case errors.Is(err, apperrors.ErrConflict):
			if err := ErrorResponse(w, http.StatusConflict, "conflict", "Uploader is referenced by uploads"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		default:
			h.logger.Error("Failed to delete uploader", zap.Error(err))
			if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to delete uploader"); err != nil {
				h.logger.Error("Failed to write error response", zap.Error(err))
			}
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// NamesForClient handles GET /api/clients/{cid}/uploaders.
// Returns the distinct uploader names seen on the client's uploads, feeding
// the data-view filter dropdowns.
func (h *UploadersHandler) NamesForClient(w http.ResponseWriter, r *http.Request) {
	clientID, ok := ParseClientID(w, r, h.logger)
	if !ok {
		return
	}
	if !requireClientAccess(w, r, clientID, h.logger) {
		return
	}

	names, err := h.uploaders.DistinctNamesForClient(r.Context(), clientID)
	if err != nil {
		h.logger.Error("Failed to list client uploaders", zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list uploaders"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	if names == nil {
		names = []string{}
	}
	if err := WriteJSON(w, http.StatusOK, names); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
