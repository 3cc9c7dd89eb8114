package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/leadvault/leadvault-engine/pkg/clock"
	"github.com/leadvault/leadvault-engine/pkg/models"
	"github.com/leadvault/leadvault-engine/pkg/repositories"
)

// ExportService streams a client's records of one kind as CSV.
type ExportService interface {
	// Export writes a CSV document to w: canonical per-kind columns plus
	// Niche, Uploader and Upload date. An empty result still emits the
	// header row. Returns the number of data rows written.
	Export(ctx context.Context, w io.Writer, clientID uuid.UUID, kind models.DataKind, filter repositories.UploadFilter) (int, error)
}

type exportService struct {
	uploads  repositories.UploadRepository
	rawData  repositories.RawDataRepository
	enriched repositories.EnrichedDataRepository
	logger   *zap.Logger
}

// NewExportService creates the CSV export service.
func NewExportService(
	uploads repositories.UploadRepository,
	rawData repositories.RawDataRepository,
	enriched repositories.EnrichedDataRepository,
	logger *zap.Logger,
) ExportService {
	return &exportService{uploads: uploads, rawData: rawData, enriched: enriched, logger: logger}
}

// ExportFilename is the attachment filename for a client/kind export.
func ExportFilename(clientID uuid.UUID, kind models.DataKind) string {
	return fmt.Sprintf("client-%s-%s-export.csv", clientID, kind)
}

var rawExportHeader = []string{
	"Company Name", "Website", "Category", "Review", "Rating",
	"Address", "Street", "City", "State", "Country", "Google URL", "Phone Number",
	"Niche", "Uploader", "Upload date",
}

var enrichedExportHeader = []string{
	"Business name", "Normalized website", "Company LinkedIn", "Full name",
	"First Name", "Job title", "Person LinkedIn", "FME",
	"E1", "E2", "E3", "E4", "Sub1", "Sub2", "Sub3", "Sub4",
	"Niche", "Uploader", "Upload date",
}

func (s *exportService) Export(ctx context.Context, w io.Writer, clientID uuid.UUID, kind models.DataKind, filter repositories.UploadFilter) (int, error) {
	uploads, err := s.uploads.FindForExport(ctx, clientID, kind, filter)
	if err != nil {
		return 0, err
	}

	byID := make(map[uuid.UUID]*models.Upload, len(uploads))
	ids := make([]uuid.UUID, 0, len(uploads))
	for _, u := range uploads {
		byID[u.ID] = u
		ids = append(ids, u.ID)
	}

	cw := csv.NewWriter(w)

	switch kind {
	case models.KindEnriched:
		if err := cw.Write(enrichedExportHeader); err != nil {
			return 0, fmt.Errorf("failed to write export header: %w", err)
		}
		var records []*models.EnrichedRecord
		if len(ids) > 0 {
			records, err = s.enriched.ListByUploads(ctx, clientID, ids)
			if err != nil {
				return 0, err
			}
		}
		for _, rec := range records {
			row := []string{
				text(rec.BusinessName), text(rec.NormalizedWebsite), text(rec.CompanyLinkedIn),
				text(rec.FullName), text(rec.FirstName), text(rec.JobTitle),
				text(rec.PersonLinkedIn), text(rec.FME),
				text(rec.E1), text(rec.E2), text(rec.E3), text(rec.E4),
				text(rec.Sub1), text(rec.Sub2), text(rec.Sub3), text(rec.Sub4),
			}
			row = appendUploadContext(row, byID[rec.UploadID])
			if err := cw.Write(row); err != nil {
				return 0, fmt.Errorf("failed to write export row: %w", err)
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return 0, fmt.Errorf("failed to flush export: %w", err)
		}
		return len(records), nil

	default:
		if err := cw.Write(rawExportHeader); err != nil {
			return 0, fmt.Errorf("failed to write export header: %w", err)
		}
		var records []*models.RawRecord
		if len(ids) > 0 {
			records, err = s.rawData.ListByUploads(ctx, clientID, ids)
			if err != nil {
				return 0, err
			}
		}
		for _, rec := range records {
			row := []string{
				text(rec.CompanyName), text(rec.Website), text(rec.Category),
				text(rec.Review), text(rec.Rating), text(rec.Address),
				text(rec.Street), text(rec.City), text(rec.State),
				text(rec.Country), text(rec.GoogleURL), text(rec.PhoneNumber),
			}
			row = appendUploadContext(row, byID[rec.UploadID])
			if err := cw.Write(row); err != nil {
				return 0, fmt.Errorf("failed to write export row: %w", err)
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return 0, fmt.Errorf("failed to flush export: %w", err)
		}
		return len(records), nil
	}
}

func appendUploadContext(row []string, upload *models.Upload) []string {
	if upload == nil {
		return append(row, "", "", "")
	}
	return append(row, upload.NicheName, upload.UploaderName, clock.BusinessDate(upload.UploadDate))
}

func text(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
