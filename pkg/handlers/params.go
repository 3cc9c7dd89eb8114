package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/leadvault/leadvault-engine/pkg/clock"
	"github.com/leadvault/leadvault-engine/pkg/repositories"
)

// ParseClientID extracts and validates the client ID from the request path.
// Returns the parsed UUID and true on success, or uuid.Nil and false on error
// (after writing an error response).
// Expects path parameter: cid
func ParseClientID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "cid", "invalid_client_id", "Invalid client ID format", logger)
}

// ParseNicheID extracts and validates the niche ID from the request path.
// Expects path parameter: nid
func ParseNicheID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "nid", "invalid_niche_id", "Invalid niche ID format", logger)
}

// ParseUploaderID extracts and validates the uploader ID from the request path.
// Expects path parameter: uid
func ParseUploaderID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "uid", "invalid_uploader_id", "Invalid uploader ID format", logger)
}

// ParseUserID extracts and validates the user ID from the request path.
// Expects path parameter: uid
func ParseUserID(w http.ResponseWriter, r *http.Request, logger *zap.Logger) (uuid.UUID, bool) {
	return parseUUID(w, r, "uid", "invalid_user_id", "Invalid user ID format", logger)
}

// parseUUID is the internal helper that does the actual parsing work.
func parseUUID(w http.ResponseWriter, r *http.Request, pathParam, errorCode, errorMessage string, logger *zap.Logger) (uuid.UUID, bool) {
	idStr := r.PathValue(pathParam)
	id, err := uuid.Parse(idStr)
	if err != nil {
		if err := ErrorResponse(w, http.StatusBadRequest, errorCode, errorMessage); err != nil {
			logger.Error("Failed to write error response", zap.Error(err))
		}
		return uuid.Nil, false
	}
	return id, true
}

// parseListParams reads the shared pagination/search/sort query parameters.
func parseListParams(r *http.Request) repositories.ListParams {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	return repositories.ListParams{
		Page:      page,
		PageSize:  pageSize,
		Search:    q.Get("search"),
		Sort:      q.Get("sortBy"),
		Direction: q.Get("sortDir"),
	}
}

// parseUploadFilter reads the upload-level filter query parameters. The from
// and to parameters are YYYY-MM-DD dates interpreted in the business timezone.
func parseUploadFilter(r *http.Request) (repositories.UploadFilter, error) {
	q := r.URL.Query()
	filter := repositories.UploadFilter{
		UploaderName: q.Get("uploader"),
		NicheName:    q.Get("niche"),
	}
	if from := q.Get("from"); from != "" {
		t, err := clock.DayStart(from)
		if err != nil {
			return filter, err
		}
		filter.From = &t
	}
	if to := q.Get("to"); to != "" {
		t, err := clock.DayEnd(to)
		if err != nil {
			return filter, err
		}
		filter.To = &t
	}
	return filter, nil
}
