package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/leadvault/leadvault-engine/pkg/apperrors"
	"github.com/leadvault/leadvault-engine/pkg/models"
	"github.com/leadvault/leadvault-engine/pkg/services"
)

// maxUploadBytes caps the multipart form memory/disk budget.
const maxUploadBytes = 100 << 20

// UploadResponse is the success response of the upload endpoint.
type UploadResponse struct {
	UploadID uuid.UUID `json:"upload_id"`
	RowCount int       `json:"row_count"`
}

// UploadHandler handles the CSV upload endpoint.
type UploadHandler struct {
	ingest services.IngestService
	logger *zap.Logger
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(ingest services.IngestService, logger *zap.Logger) *UploadHandler {
	return &UploadHandler{ingest: ingest, logger: logger}
}

// RegisterRoutes registers the upload handler's routes on the given mux.
// The endpoint is open: uploaders submit through the public form.
func (h *UploadHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/upload", h.Upload)
}

// Upload handles POST /api/upload.
// Expects a multipart form with client_id, niche_id, uploader_id, data_kind,
// and a file part. Validation failures return 400 without an audit record;
// once the pipeline runs, every outcome carries an upload ID.
func (h *UploadHandler) Upload(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid multipart form"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	clientID, ok := h.formUUID(w, r, "client_id", "Invalid client ID")
	if !ok {
		return
	}
	nicheID, ok := h.formUUID(w, r, "niche_id", "Invalid niche ID")
	if !ok {
		return
	}
	uploaderID, ok := h.formUUID(w, r, "uploader_id", "Invalid uploader ID")
	if !ok {
		return
	}

	kind := models.DataKind(r.FormValue("data_kind"))
	if !kind.Valid() {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_data_kind", `Data kind must be "row" or "enriched"`); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "missing_file", "A CSV file is required"); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}
	defer file.Close()

	result, err := h.ingest.Ingest(r.Context(), &services.IngestRequest{
		ClientID:   clientID,
		NicheID:    nicheID,
		UploaderID: uploaderID,
		Kind:       kind,
		Filename:   header.Filename,
		File:       file,
	})
	if err != nil {
		h.writeIngestError(w, err)
		return
	}

	if err := WriteJSON(w, http.StatusOK, UploadResponse{
		UploadID: result.UploadID,
		RowCount: result.RowCount,
	}); err != nil {
		h.logger.Error("Failed to write response", zap.Error(err))
	}
}

// writeIngestError maps pipeline failures to responses. Failures past request
// validation carry the FAILED upload's ID so the caller can inspect the audit
// record.
func (h *UploadHandler) writeIngestError(w http.ResponseWriter, err error) {
	var pipeErr *services.PipelineError
	if errors.As(err, &pipeErr) {
		status := http.StatusInternalServerError
		if pipeErr.ClientFault {
			status = http.StatusBadRequest
		}
		if err := WriteJSON(w, status, map[string]string{
			"error":     pipeErr.Message,
			"upload_id": pipeErr.UploadID.String(),
		}); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	if errors.Is(err, apperrors.ErrInvalidDataKind) {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_data_kind", `Data kind must be "row" or "enriched"`); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return
	}

	h.logger.Error("Ingestion failed", zap.Error(err))
	if err := ErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to process upload"); err != nil {
		h.logger.Error("Failed to write error response", zap.Error(err))
	}
}

func (h *UploadHandler) formUUID(w http.ResponseWriter, r *http.Request, field, message string) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.FormValue(field))
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, "invalid_"+field, message); err != nil {
			h.logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}
