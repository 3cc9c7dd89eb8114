package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/leadvault/leadvault-engine/pkg/models"
	"github.com/leadvault/leadvault-engine/pkg/repositories"
)

// stubDB satisfies DB for tests that must reach the persist transaction.
// The repositories are mocks, so no query ever runs against it.
type stubDB struct {
	beginErr error
}

func (s stubDB) Begin(ctx context.Context) (pgx.Tx, error) {
	if s.beginErr != nil {
		return nil, s.beginErr
	}
	return stubTx{}, nil
}

func (stubDB) Exec(context.Context, string, ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (stubDB) Query(context.Context, string, ...any) (pgx.Rows, error) { return nil, nil }
func (stubDB) QueryRow(context.Context, string, ...any) pgx.Row       { return nil }
func (stubDB) SendBatch(context.Context, *pgx.Batch) pgx.BatchResults { return nil }

type stubTx struct {
	pgx.Tx
}

func (stubTx) Commit(context.Context) error   { return nil }
func (stubTx) Rollback(context.Context) error { return nil }

// mockUploadRepository is a configurable mock for service tests.
type mockUploadRepository struct {
	created    []*models.Upload
	successful []*models.Upload
	forExport  []*models.Upload
	refs       []repositories.UploadRef
	createErr  error
	listErr    error
	orphans    int64
}

func (m *mockUploadRepository) Create(ctx context.Context, q repositories.DBTX, upload *models.Upload) error {
	if m.createErr != nil {
		return m.createErr
	}
	cp := *upload
	m.created = append(m.created, &cp)
	return nil
}

func (m *mockUploadRepository) UpdateRowCount(ctx context.Context, q repositories.DBTX, id uuid.UUID, rowCount int) error {
	for _, u := range m.created {
		if u.ID == id {
			u.RowCount = rowCount
		}
	}
	return nil
}

func (m *mockUploadRepository) ListByClient(ctx context.Context, clientID uuid.UUID, params repositories.ListParams) (int, []*models.Upload, error) {
	return len(m.created), m.created, m.listErr
}

func (m *mockUploadRepository) ListSuccessfulByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Upload, error) {
	return m.successful, m.listErr
}

func (m *mockUploadRepository) FindByFilter(ctx context.Context, clientID uuid.UUID, filter repositories.UploadFilter) ([]repositories.UploadRef, error) {
	return m.refs, m.listErr
}

func (m *mockUploadRepository) FindForExport(ctx context.Context, clientID uuid.UUID, kind models.DataKind, filter repositories.UploadFilter) ([]*models.Upload, error) {
	return m.forExport, m.listErr
}

func (m *mockUploadRepository) DeleteOrphans(ctx context.Context, q repositories.DBTX, clientID uuid.UUID, ids []uuid.UUID) (int64, error) {
	return m.orphans, nil
}

// mockRawDataRepository mocks raw record storage.
type mockRawDataRepository struct {
	existing    map[string]struct{}
	existingErr error
	inserted    []*models.RawRecord
	insertErr   error
	records     []*models.RawRecord
	count       int
	deleted     int64
}

func (m *mockRawDataRepository) ExistingKeys(ctx context.Context, clientID uuid.UUID, keys []string) (map[string]struct{}, error) {
	if m.existingErr != nil {
		return nil, m.existingErr
	}
	found := make(map[string]struct{})
	for _, k := range keys {
		if _, ok := m.existing[k]; ok {
			found[k] = struct{}{}
		}
	}
	return found, nil
}

func (m *mockRawDataRepository) InsertBatch(ctx context.Context, q repositories.DBTX, uploadID uuid.UUID, records []*models.RawRecord, batchSize int) (int64, error) {
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	m.inserted = append(m.inserted, records...)
	return int64(len(records)), nil
}

func (m *mockRawDataRepository) List(ctx context.Context, clientID uuid.UUID, params repositories.ListParams, filter repositories.UploadFilter) (int, []*models.RawRecord, error) {
	return len(m.records), m.records, nil
}

func (m *mockRawDataRepository) ListByUploads(ctx context.Context, clientID uuid.UUID, uploadIDs []uuid.UUID) ([]*models.RawRecord, error) {
	return m.records, nil
}

func (m *mockRawDataRepository) CountByClient(ctx context.Context, clientID uuid.UUID) (int, error) {
	return m.count, nil
}

func (m *mockRawDataRepository) DeleteByUploads(ctx context.Context, q repositories.DBTX, clientID uuid.UUID, uploadIDs []uuid.UUID) (int64, error) {
	return m.deleted, nil
}

// mockEnrichedDataRepository mocks enriched record storage.
type mockEnrichedDataRepository struct {
	existing    map[string]struct{}
	existingErr error
	inserted    []*models.EnrichedRecord
	insertErr   error
	records     []*models.EnrichedRecord
	count       int
	deleted     int64
}

func (m *mockEnrichedDataRepository) ExistingKeys(ctx context.Context, clientID uuid.UUID, keys []string) (map[string]struct{}, error) {
	if m.existingErr != nil {
		return nil, m.existingErr
	}
	found := make(map[string]struct{})
	for _, k := range keys {
		if _, ok := m.existing[k]; ok {
			found[k] = struct{}{}
		}
	}
	return found, nil
}

func (m *mockEnrichedDataRepository) InsertBatch(ctx context.Context, q repositories.DBTX, uploadID uuid.UUID, records []*models.EnrichedRecord, batchSize int) (int64, error) {
	if m.insertErr != nil {
		return 0, m.insertErr
	}
	m.inserted = append(m.inserted, records...)
	return int64(len(records)), nil
}

func (m *mockEnrichedDataRepository) List(ctx context.Context, clientID uuid.UUID, params repositories.ListParams, filter repositories.UploadFilter) (int, []*models.EnrichedRecord, error) {
	return len(m.records), m.records, nil
}

func (m *mockEnrichedDataRepository) ListByUploads(ctx context.Context, clientID uuid.UUID, uploadIDs []uuid.UUID) ([]*models.EnrichedRecord, error) {
	return m.records, nil
}

func (m *mockEnrichedDataRepository) CountByClient(ctx context.Context, clientID uuid.UUID) (int, error) {
	return m.count, nil
}

func (m *mockEnrichedDataRepository) DeleteByUploads(ctx context.Context, q repositories.DBTX, clientID uuid.UUID, uploadIDs []uuid.UUID) (int64, error) {
	return m.deleted, nil
}

// fixedClock returns a constant instant.
type fixedClock struct {
	now time.Time
}

func (f fixedClock) Now() time.Time {
	return f.now
}
