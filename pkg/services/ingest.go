// Package services contains the business operations of leadvault-engine.
package services

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/leadvault/leadvault-engine/pkg/apperrors"
	"github.com/leadvault/leadvault-engine/pkg/clock"
	"github.com/leadvault/leadvault-engine/pkg/config"
	"github.com/leadvault/leadvault-engine/pkg/ingest"
	"github.com/leadvault/leadvault-engine/pkg/logging"
	"github.com/leadvault/leadvault-engine/pkg/models"
	"github.com/leadvault/leadvault-engine/pkg/repositories"
)

// DB is the database handle the transactional services need: the repository
// query surface plus the ability to open a transaction. *database.DB
// satisfies it.
type DB interface {
	repositories.DBTX
	Begin(ctx context.Context) (pgx.Tx, error)
}

// IngestRequest carries one file submission.
type IngestRequest struct {
	ClientID   uuid.UUID
	NicheID    uuid.UUID
	UploaderID uuid.UUID
	Kind       models.DataKind
	Filename   string
	File       io.Reader
}

// IngestResult is the success outcome of one ingestion run.
type IngestResult struct {
	UploadID uuid.UUID `json:"upload_id"`
	RowCount int       `json:"row_count"`
}

// PipelineError is returned when an ingestion attempt failed after its FAILED
// audit record was created. ClientFault distinguishes bad input (malformed
// file, missing headers) from storage failures.
type PipelineError struct {
	UploadID    uuid.UUID
	Message     string
	ClientFault bool
}

func (e *PipelineError) Error() string {
	return e.Message
}

// IngestService runs the CSV ingestion pipeline.
type IngestService interface {
	// Ingest parses, validates, extracts, deduplicates, and persists one
	// file. Every invocation that gets past request validation produces
	// exactly one Upload audit record, success or failure.
	Ingest(ctx context.Context, req *IngestRequest) (*IngestResult, error)
}

type ingestService struct {
	db       DB
	uploads  repositories.UploadRepository
	rawData  repositories.RawDataRepository
	enriched repositories.EnrichedDataRepository
	clock    clock.Clock
	cfg      config.IngestConfig
	logger   *zap.Logger
}

// NewIngestService creates the ingestion orchestrator.
func NewIngestService(
	db DB,
	uploads repositories.UploadRepository,
	rawData repositories.RawDataRepository,
	enriched repositories.EnrichedDataRepository,
	clk clock.Clock,
	cfg config.IngestConfig,
	logger *zap.Logger,
) IngestService {
	return &ingestService{
		db:       db,
		uploads:  uploads,
		rawData:  rawData,
		enriched: enriched,
		clock:    clk,
		cfg:      cfg,
		logger:   logger,
	}
}

func (s *ingestService) Ingest(ctx context.Context, req *IngestRequest) (*IngestResult, error) {
	// Request validation failures are not ingestion failures: no audit record.
	if !req.Kind.Valid() {
		return nil, apperrors.ErrInvalidDataKind
	}
	if req.File == nil || req.ClientID == uuid.Nil || req.NicheID == uuid.Nil || req.UploaderID == uuid.Nil {
		return nil, fmt.Errorf("missing required fields")
	}

	filename := req.Filename
	if filename == "" {
		filename = "upload.csv"
	}

	base := models.Upload{
		ClientID:         req.ClientID,
		NicheID:          req.NicheID,
		UploaderID:       req.UploaderID,
		DataKind:         req.Kind,
		UploadDate:       s.clock.Now(),
		OriginalFilename: filename,
	}

	parsed, err := ingest.ParseCSV(req.File)
	if err != nil {
		return nil, s.recordFailure(ctx, base, 0, err.Error(), true)
	}

	schema := ingest.SchemaFor(req.Kind)
	if missing := schema.MissingHeaders(parsed.Headers); len(missing) > 0 {
		return nil, s.recordFailure(ctx, base, 0, missingColumnsMessage(missing), true)
	}

	parsedCount := len(parsed.Rows)
	ectx := ingest.NewExtractionContext(parsed.Headers)

	// Extraction and dedup are total; only the existence check can fail.
	// The dedup read happens before the write transaction opens - the partial
	// unique indexes are the backstop for concurrent uploads racing it.
	var (
		finalCount int
		insert     func(txCtx context.Context, tx pgx.Tx, uploadID uuid.UUID) (int64, error)
	)

	switch req.Kind {
	case models.KindRow:
		records := make([]*models.RawRecord, 0, parsedCount)
		for _, row := range parsed.Rows {
			records = append(records, ectx.ExtractRaw(req.ClientID, row))
		}
		final, err := ingest.Dedupe(ctx, records, rawKey, s.rawData, req.ClientID, s.cfg.DedupeBatchSize)
		if err != nil {
			return nil, s.recordFailure(ctx, base, parsedCount, logging.SanitizeError(err), false)
		}
		finalCount = len(final)
		insert = func(txCtx context.Context, tx pgx.Tx, uploadID uuid.UUID) (int64, error) {
			return s.rawData.InsertBatch(txCtx, tx, uploadID, final, s.cfg.InsertBatchSize)
		}

	case models.KindEnriched:
		records := make([]*models.EnrichedRecord, 0, parsedCount)
		for _, row := range parsed.Rows {
			records = append(records, ectx.ExtractEnriched(req.ClientID, row))
		}
		final, err := ingest.Dedupe(ctx, records, enrichedKey, s.enriched, req.ClientID, s.cfg.DedupeBatchSize)
		if err != nil {
			return nil, s.recordFailure(ctx, base, parsedCount, logging.SanitizeError(err), false)
		}
		finalCount = len(final)
		insert = func(txCtx context.Context, tx pgx.Tx, uploadID uuid.UUID) (int64, error) {
			return s.enriched.InsertBatch(txCtx, tx, uploadID, final, s.cfg.InsertBatchSize)
		}
	}

	upload := base
	upload.ID = uuid.New()
	upload.RowCount = finalCount
	upload.Status = models.UploadStatusSuccess

	persisted, err := s.persist(ctx, &upload, insert)
	if err != nil {
		return nil, s.recordFailure(ctx, base, parsedCount, logging.SanitizeError(err), false)
	}

	s.logger.Info("upload ingested",
		zap.String("upload_id", upload.ID.String()),
		zap.String("client_id", req.ClientID.String()),
		zap.String("data_kind", string(req.Kind)),
		zap.Int("parsed_rows", parsedCount),
		zap.Int("persisted_rows", persisted),
	)

	return &IngestResult{UploadID: upload.ID, RowCount: persisted}, nil
}

// persist runs the upload-record creation and all record inserts inside one
// transaction bounded by the configured timeout. Chunked inserts share the
// transaction, so a failure in any chunk rolls back everything.
func (s *ingestService) persist(ctx context.Context, upload *models.Upload, insert func(context.Context, pgx.Tx, uuid.UUID) (int64, error)) (int, error) {
	txCtx, cancel := context.WithTimeout(ctx, s.cfg.TxTimeout())
	defer cancel()

	tx, err := s.db.Begin(txCtx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(txCtx) }()

	if err := s.uploads.Create(txCtx, tx, upload); err != nil {
		return 0, err
	}

	inserted, err := insert(txCtx, tx, upload.ID)
	if err != nil {
		return 0, err
	}

	// The conflict backstop may have skipped rows a concurrent upload won;
	// the audit record reports what actually landed.
	if int(inserted) != upload.RowCount {
		if err := s.uploads.UpdateRowCount(txCtx, tx, upload.ID, int(inserted)); err != nil {
			return 0, err
		}
		upload.RowCount = int(inserted)
	}

	if err := tx.Commit(txCtx); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return int(inserted), nil
}

// recordFailure creates the FAILED audit record outside any transaction and
// returns the PipelineError the handler surfaces. rowCount is the parsed
// (pre-dedup) count for failures past the parse stage.
func (s *ingestService) recordFailure(ctx context.Context, base models.Upload, rowCount int, message string, clientFault bool) error {
	truncated := logging.Truncate(message, s.cfg.MaxErrorMessageLen)

	upload := base
	upload.ID = uuid.New()
	upload.RowCount = rowCount
	upload.Status = models.UploadStatusFailed
	upload.ErrorMessage = &truncated

	if err := s.uploads.Create(ctx, s.db, &upload); err != nil {
		// The attempt still surfaces to the caller even if the audit write
		// failed; losing the trail entirely is the worst outcome, so log loudly.
		s.logger.Error("failed to record failed upload",
			zap.String("client_id", base.ClientID.String()),
			zap.Error(err))
	}

	s.logger.Warn("upload failed",
		zap.String("upload_id", upload.ID.String()),
		zap.String("client_id", base.ClientID.String()),
		zap.String("data_kind", string(base.DataKind)),
		zap.Bool("client_fault", clientFault),
		zap.String("reason", truncated),
	)

	return &PipelineError{UploadID: upload.ID, Message: message, ClientFault: clientFault}
}

func missingColumnsMessage(missing []string) string {
	quoted := make([]string, len(missing))
	for i, m := range missing {
		quoted[i] = fmt.Sprintf("%q", m)
	}
	return "Missing required columns: " + strings.Join(quoted, ", ")
}

func rawKey(r *models.RawRecord) string {
	if r.NormalizedWebsite == nil {
		return ""
	}
	return *r.NormalizedWebsite
}

func enrichedKey(r *models.EnrichedRecord) string {
	if r.FME == nil {
		return ""
	}
	return *r.FME
}
