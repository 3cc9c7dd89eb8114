package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/leadvault/leadvault-engine/pkg/auth"
	"github.com/leadvault/leadvault-engine/pkg/services"
)

// AnalyticsHandler serves per-client upload analytics.
type AnalyticsHandler struct {
	analytics services.AnalyticsService
	logger    *zap.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(analytics services.AnalyticsService, logger *zap.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, logger: logger}
}

// RegisterRoutes registers the analytics handler's routes on the given mux.
func (h *AnalyticsHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/clients/{cid}/analytics", authMiddleware.RequireViewer(h.Report))
}

// Report handles GET /api/clients/{cid}/analytics.
func (h *AnalyticsHandler) Report(w http.ResponseWriter, r *http.Request) {
	clientID, ok := ParseClientID(w, r, h.logger)
	if !ok {
		return
	}
	if !requireClientAccess(w, r, clientID, h.logger) {
		return
	}

	report, err := h.analytics.Report(r.Context(), clientID)
	if err != nil {
		h.logger.Error("Failed to build analytics report",
			zap.String("client_id", clientID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to build analytics"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, report); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
