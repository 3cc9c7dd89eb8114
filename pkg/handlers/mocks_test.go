package handlers

import (
	"context"
	"io"

	"github.com/google/uuid"

	"github.com/leadvault/leadvault-engine/pkg/models"
	"github.com/leadvault/leadvault-engine/pkg/repositories"
	"github.com/leadvault/leadvault-engine/pkg/services"
)

// mockIngestService is a configurable ingest mock for handler tests.
type mockIngestService struct {
	result  *services.IngestResult
	err     error
	lastReq *services.IngestRequest
}

func (m *mockIngestService) Ingest(ctx context.Context, req *services.IngestRequest) (*services.IngestResult, error) {
	m.lastReq = req
	if m.err != nil {
		return nil, m.err
	}
	if m.result != nil {
		return m.result, nil
	}
	return &services.IngestResult{UploadID: uuid.New(), RowCount: 0}, nil
}

// mockExportService writes a fixed body.
type mockExportService struct {
	body string
	rows int
	err  error
}

func (m *mockExportService) Export(ctx context.Context, w io.Writer, clientID uuid.UUID, kind models.DataKind, filter repositories.UploadFilter) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	_, _ = io.WriteString(w, m.body)
	return m.rows, nil
}

// mockClientRepository is a configurable client repo mock.
type mockClientRepository struct {
	clients   []*models.Client
	created   *models.Client
	createErr error
	deleteErr error
}

func (m *mockClientRepository) List(ctx context.Context) ([]*models.Client, error) {
	return m.clients, nil
}

func (m *mockClientRepository) Get(ctx context.Context, id uuid.UUID) (*models.Client, error) {
	for _, c := range m.clients {
		if c.ID == id {
			return c, nil
		}
	}
	return nil, nil
}

func (m *mockClientRepository) Create(ctx context.Context, name string) (*models.Client, error) {
	if m.createErr != nil {
		return nil, m.createErr
	}
	m.created = &models.Client{ID: uuid.New(), Name: name}
	return m.created, nil
}

func (m *mockClientRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteErr
}
