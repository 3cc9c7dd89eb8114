package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func downloadRequest(clientID uuid.UUID, query string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/clients/"+clientID.String()+"/download"+query, nil)
	req.SetPathValue("cid", clientID.String())
	return adminContext(req)
}

func TestDownload(t *testing.T) {
	svc := &mockExportService{body: "Company Name,Website\nAcme,acme.com\n", rows: 1}
	handler := NewDownloadHandler(svc, zap.NewNop())

	clientID := uuid.New()
	rec := httptest.NewRecorder()
	handler.Download(rec, downloadRequest(clientID, "?kind=row"))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "client-"+clientID.String()+"-row-export.csv")
	assert.Equal(t, svc.body, rec.Body.String())
}

func TestDownloadMissingKind(t *testing.T) {
	handler := NewDownloadHandler(&mockExportService{}, zap.NewNop())

	rec := httptest.NewRecorder()
	handler.Download(rec, downloadRequest(uuid.New(), ""))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDownloadScopedUserForbidden(t *testing.T) {
	handler := NewDownloadHandler(&mockExportService{}, zap.NewNop())

	clientID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/clients/"+clientID.String()+"/download?kind=row", nil)
	req.SetPathValue("cid", clientID.String())
	req = scopedUserContext(req, uuid.New()) // scoped to a different client

	rec := httptest.NewRecorder()
	handler.Download(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}
