package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/leadvault/leadvault-engine/pkg/models"
	"github.com/leadvault/leadvault-engine/pkg/repositories"
)

// Purge kind selectors. "row" and "enriched" match the data kinds;
// "both" targets everything the filter matches.
const (
	PurgeKindRow      = string(models.KindRow)
	PurgeKindEnriched = string(models.KindEnriched)
	PurgeKindBoth     = "both"
)

// PurgeRequest selects a client's records for bulk deletion.
type PurgeRequest struct {
	ClientID uuid.UUID
	Kind     string
	Filter   repositories.UploadFilter
}

// PurgeResult reports what one purge removed.
type PurgeResult struct {
	RawDeleted      int64 `json:"raw_deleted"`
	EnrichedDeleted int64 `json:"enriched_deleted"`
	UploadsDeleted  int64 `json:"uploads_deleted"`
}

// PurgeService bulk-deletes ingested records and the audit rows they orphan.
type PurgeService interface {
	Purge(ctx context.Context, req *PurgeRequest) (*PurgeResult, error)
}

type purgeService struct {
	db       DB
	uploads  repositories.UploadRepository
	rawData  repositories.RawDataRepository
	enriched repositories.EnrichedDataRepository
	logger   *zap.Logger
}

// NewPurgeService creates the bulk purge service.
func NewPurgeService(
	db DB,
	uploads repositories.UploadRepository,
	rawData repositories.RawDataRepository,
	enriched repositories.EnrichedDataRepository,
	logger *zap.Logger,
) PurgeService {
	return &purgeService{db: db, uploads: uploads, rawData: rawData, enriched: enriched, logger: logger}
}

// Purge deletes the selected records in one transaction, then removes any
// targeted upload left with zero child records so no empty audit row survives.
func (s *purgeService) Purge(ctx context.Context, req *PurgeRequest) (*PurgeResult, error) {
	switch req.Kind {
	case PurgeKindRow, PurgeKindEnriched, PurgeKindBoth:
	default:
		return nil, fmt.Errorf("invalid purge kind %q", req.Kind)
	}

	refs, err := s.uploads.FindByFilter(ctx, req.ClientID, req.Filter)
	if err != nil {
		return nil, err
	}

	var rowIDs, enrichedIDs []uuid.UUID
	for _, ref := range refs {
		switch {
		case ref.DataKind == models.KindRow && req.Kind != PurgeKindEnriched:
			rowIDs = append(rowIDs, ref.ID)
		case ref.DataKind == models.KindEnriched && req.Kind != PurgeKindRow:
			enrichedIDs = append(enrichedIDs, ref.ID)
		}
	}

	if len(rowIDs) == 0 && len(enrichedIDs) == 0 {
		return &PurgeResult{}, nil
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	result := &PurgeResult{}

	result.RawDeleted, err = s.rawData.DeleteByUploads(ctx, tx, req.ClientID, rowIDs)
	if err != nil {
		return nil, err
	}
	result.EnrichedDeleted, err = s.enriched.DeleteByUploads(ctx, tx, req.ClientID, enrichedIDs)
	if err != nil {
		return nil, err
	}

	targeted := append(append([]uuid.UUID{}, rowIDs...), enrichedIDs...)
	result.UploadsDeleted, err = s.uploads.DeleteOrphans(ctx, tx, req.ClientID, targeted)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	s.logger.Info("bulk purge completed",
		zap.String("client_id", req.ClientID.String()),
		zap.String("kind", req.Kind),
		zap.Int64("raw_deleted", result.RawDeleted),
		zap.Int64("enriched_deleted", result.EnrichedDeleted),
		zap.Int64("uploads_deleted", result.UploadsDeleted),
	)

	return result, nil
}
