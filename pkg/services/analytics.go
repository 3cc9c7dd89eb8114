package services

import (
	"context"

	"github.com/google/uuid"

	"github.com/leadvault/leadvault-engine/pkg/clock"
	"github.com/leadvault/leadvault-engine/pkg/models"
	"github.com/leadvault/leadvault-engine/pkg/repositories"
)

// AnalyticsBucket aggregates successful uploads sharing one group key
// (a business date, a niche name, or an uploader name).
type AnalyticsBucket struct {
	Key             string `json:"key"`
	UploadCount     int    `json:"upload_count"`
	RowUploads      int    `json:"row_uploads"`
	EnrichedUploads int    `json:"enriched_uploads"`
	TotalRows       int    `json:"total_rows"`
}

// AnalyticsTotals are the client-wide counters.
type AnalyticsTotals struct {
	Uploads         int `json:"uploads"`
	RowRecords      int `json:"row_records"`
	EnrichedRecords int `json:"enriched_records"`
}

// AnalyticsReport is the per-client analytics response.
type AnalyticsReport struct {
	ByDate     []AnalyticsBucket `json:"by_date"`
	ByNiche    []AnalyticsBucket `json:"by_niche"`
	ByUploader []AnalyticsBucket `json:"by_uploader"`
	Totals     AnalyticsTotals   `json:"totals"`
}

// AnalyticsService aggregates a client's successful uploads.
type AnalyticsService interface {
	Report(ctx context.Context, clientID uuid.UUID) (*AnalyticsReport, error)
}

type analyticsService struct {
	uploads  repositories.UploadRepository
	rawData  repositories.RawDataRepository
	enriched repositories.EnrichedDataRepository
}

// NewAnalyticsService creates the analytics service.
func NewAnalyticsService(
	uploads repositories.UploadRepository,
	rawData repositories.RawDataRepository,
	enriched repositories.EnrichedDataRepository,
) AnalyticsService {
	return &analyticsService{uploads: uploads, rawData: rawData, enriched: enriched}
}

// Report groups the client's successful uploads by business date, niche and
// uploader. Dates come out ascending because the upload feed is ordered by
// upload date; the other groupings keep first-seen order from the same feed.
func (s *analyticsService) Report(ctx context.Context, clientID uuid.UUID) (*AnalyticsReport, error) {
	uploads, err := s.uploads.ListSuccessfulByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	byDate := newGrouping()
	byNiche := newGrouping()
	byUploader := newGrouping()

	for _, u := range uploads {
		byDate.add(clock.BusinessDate(u.UploadDate), u)
		byNiche.add(u.NicheName, u)
		byUploader.add(u.UploaderName, u)
	}

	rawCount, err := s.rawData.CountByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	enrichedCount, err := s.enriched.CountByClient(ctx, clientID)
	if err != nil {
		return nil, err
	}

	return &AnalyticsReport{
		ByDate:     byDate.buckets(),
		ByNiche:    byNiche.buckets(),
		ByUploader: byUploader.buckets(),
		Totals: AnalyticsTotals{
			Uploads:         len(uploads),
			RowRecords:      rawCount,
			EnrichedRecords: enrichedCount,
		},
	}, nil
}

type grouping struct {
	index map[string]*AnalyticsBucket
	order []string
}

func newGrouping() *grouping {
	return &grouping{index: make(map[string]*AnalyticsBucket)}
}

func (g *grouping) add(key string, u *models.Upload) {
	b, ok := g.index[key]
	if !ok {
		b = &AnalyticsBucket{Key: key}
		g.index[key] = b
		g.order = append(g.order, key)
	}
	b.UploadCount++
	b.TotalRows += u.RowCount
	switch u.DataKind {
	case models.KindRow:
		b.RowUploads++
	case models.KindEnriched:
		b.EnrichedUploads++
	}
}

func (g *grouping) buckets() []AnalyticsBucket {
	out := make([]AnalyticsBucket, 0, len(g.order))
	for _, key := range g.order {
		out = append(out, *g.index[key])
	}
	return out
}
