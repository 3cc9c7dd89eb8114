package handlers

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/leadvault/leadvault-engine/pkg/auth"
	"github.com/leadvault/leadvault-engine/pkg/models"
	"github.com/leadvault/leadvault-engine/pkg/services"
)

// DownloadHandler streams per-client CSV exports.
type DownloadHandler struct {
	export services.ExportService
	logger *zap.Logger
}

// NewDownloadHandler creates a new download handler.
func NewDownloadHandler(export services.ExportService, logger *zap.Logger) *DownloadHandler {
	return &DownloadHandler{export: export, logger: logger}
}

// RegisterRoutes registers the download handler's routes on the given mux.
func (h *DownloadHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/clients/{cid}/download", authMiddleware.RequireViewer(h.Download))
}

// Download handles GET /api/clients/{cid}/download.
// Query parameters: kind (required, "row" or "enriched"), from, to, uploader,
// niche. Streams text/csv; an empty result still carries the header row.
func (h *DownloadHandler) Download(w http.ResponseWriter, r *http.Request) {
	clientID, ok := ParseClientID(w, r, h.logger)
	if !ok {
		return
	}
	if !requireClientAccess(w, r, clientID, h.logger) {
		return
	}

	kind := models.DataKind(r.URL.Query().Get("kind"))
	if !kind.Valid() {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_data_kind", `Query parameter "kind" must be "row" or "enriched"`); err != nil {
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

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", services.ExportFilename(clientID, kind)))

	// Headers are already sent once the writer flushes, so a mid-stream
	// failure can only be logged, not reported to the client.
	rowCount, err := h.export.Export(r.Context(), w, clientID, kind, filter)
	if err != nil {
		h.logger.Error("Failed to export data",
			zap.String("client_id", clientID.String()),
			zap.String("data_kind", string(kind)),
			zap.Error(err))
		return
	}

	h.logger.Debug("export completed",
		zap.String("client_id", clientID.String()),
		zap.String("data_kind", string(kind)),
		zap.Int("rows", rowCount))
}
