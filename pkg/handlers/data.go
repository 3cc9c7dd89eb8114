package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/leadvault/leadvault-engine/pkg/auth"
	"github.com/leadvault/leadvault-engine/pkg/repositories"
)

// ListResponse is the shared envelope for paginated data listings.
type ListResponse struct {
	Total int `json:"total"`
	Items any `json:"items"`
}

// DataHandler handles per-client data view endpoints.
type DataHandler struct {
	uploads  repositories.UploadRepository
	rawData  repositories.RawDataRepository
	enriched repositories.EnrichedDataRepository
	logger   *zap.Logger
}

// NewDataHandler creates a new data views handler.
func NewDataHandler(
	uploads repositories.UploadRepository,
	rawData repositories.RawDataRepository,
	enriched repositories.EnrichedDataRepository,
	logger *zap.Logger,
) *DataHandler {
	return &DataHandler{uploads: uploads, rawData: rawData, enriched: enriched, logger: logger}
}

// RegisterRoutes registers the data handler's routes on the given mux.
func (h *DataHandler) RegisterRoutes(mux *http.ServeMux, authMiddleware *auth.Middleware) {
	mux.HandleFunc("GET /api/clients/{cid}/row-data", authMiddleware.RequireViewer(h.ListRowData))
	mux.HandleFunc("GET /api/clients/{cid}/enriched-data", authMiddleware.RequireViewer(h.ListEnrichedData))
	mux.HandleFunc("GET /api/clients/{cid}/uploads", authMiddleware.RequireViewer(h.ListUploads))
}

// ListRowData handles GET /api/clients/{cid}/row-data.
func (h *DataHandler) ListRowData(w http.ResponseWriter, r *http.Request) {
	clientID, ok := ParseClientID(w, r, h.logger)
	if !ok {
		return
	}
	if !requireClientAccess(w, r, clientID, h.logger) {
		return
	}

	filter, err := parseUploadFilter(r)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_filter", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	total, records, err := h.rawData.List(r.Context(), clientID, parseListParams(r), filter)
	if err != nil {
		h.logger.Error("Failed to list row data",
			zap.String("client_id", clientID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list row data"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ListResponse{Total: total, Items: records}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListEnrichedData handles GET /api/clients/{cid}/enriched-data.
func (h *DataHandler) ListEnrichedData(w http.ResponseWriter, r *http.Request) {
	clientID, ok := ParseClientID(w, r, h.logger)
	if !ok {
		return
	}
	if !requireClientAccess(w, r, clientID, h.logger) {
		return
	}

	filter, err := parseUploadFilter(r)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_filter", err.Error()); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	total, records, err := h.enriched.List(r.Context(), clientID, parseListParams(r), filter)
	if err != nil {
		h.logger.Error("Failed to list enriched data",
			zap.String("client_id", clientID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list enriched data"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ListResponse{Total: total, Items: records}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// ListUploads handles GET /api/clients/{cid}/uploads.
func (h *DataHandler) ListUploads(w http.ResponseWriter, r *http.Request) {
	clientID, ok := ParseClientID(w, r, h.logger)
	if !ok {
		return
	}
	if !requireClientAccess(w, r, clientID, h.logger) {
		return
	}

	total, uploads, err := h.uploads.ListByClient(r.Context(), clientID, parseListParams(r))
	if err != nil {
		h.logger.Error("Failed to list uploads",
			zap.String("client_id", clientID.String()),
			zap.Error(err))
		if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list uploads"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if err := WriteJSON(w, http.StatusOK, ListResponse{Total: total, Items: uploads}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}
