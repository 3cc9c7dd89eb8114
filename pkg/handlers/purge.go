package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/leadvault/leadvault-engine/pkg/auth"
	"github.com/leadvault/leadvault-engine/pkg/services"
)

// PurgeHandler serves the admin bulk-delete endpoint.
type PurgeHandler struct {
	purge  services.PurgeService
	logger *zap.Logger
}

// NewPurgeHandler creates a new purge handler.
func NewPurgeHandler(purge services.PurgeService, logger *zap.Logger) *PurgeHandler {
	return &PurgeHandler{purge: purge, logger: logger}
}

// RegisterRoutes registers the purge handler's routes on the given mux.
func (h *PurgeHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("DELETE /api/clients/{cid}/data", authMiddleware.RequireAdmin(h.Purge))
}

// Purge handles DELETE /api/clients/{cid}/data.
// Query parameters: kind (required, "row", "enriched" or "both"), from, to,
// uploader, niche. Deletes the matching records and any upload left without
// children, all in one transaction.
func (h *PurgeHandler) Purge(w http.ResponseWriter, r *http.Request) {
	clientID, ok := ParseClientID(w, r, h.logger)
	if !ok {
		return
	}

	kind := r.URL.Query().Get("kind")
	switch kind {
	case services.PurgeKindRow, services.PurgeKindEnriched, services.PurgeKindBoth:
	default:
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_kind", `Query parameter "kind" must be "row", "enriched" or "both"`); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	filter, err := parseUploadFilter(r)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_filter", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	result, err := h.purge.Purge(r.Context(), &services.PurgeRequest{
		ClientID: clientID,
		Kind:     kind,
		Filter:   filter,
	})
	if err != nil {
		h.logger.Error("Failed to purge data",
			zap.String("client_id", clientID.String()),
			zap.String("kind", kind),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to delete data"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, result); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
