package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/leadvault/leadvault-engine/pkg/models"
)

// EnrichedDataRepository defines data access for enriched records.
// It also serves as the enriched-data key (FME) lookup for the deduplicator.
type EnrichedDataRepository interface {
	ExistingKeys(ctx context.Context, clientID uuid.UUID, keys []string) (map[string]struct{}, error)
	InsertBatch(ctx context.Context, q DBTX, uploadID uuid.UUID, records []*models.EnrichedRecord, batchSize int) (int64, error)
	List(ctx context.Context, clientID uuid.UUID, params ListParams, filter UploadFilter) (int, []*models.EnrichedRecord, error)
	ListByUploads(ctx context.Context, clientID uuid.UUID, uploadIDs []uuid.UUID) ([]*models.EnrichedRecord, error)
	CountByClient(ctx context.Context, clientID uuid.UUID) (int, error)
	DeleteByUploads(ctx context.Context, q DBTX, clientID uuid.UUID, uploadIDs []uuid.UUID) (int64, error)
}

type enrichedDataRepository struct {
	db DBTX
}

// NewEnrichedDataRepository creates a new enriched data repository.
func NewEnrichedDataRepository(db DBTX) EnrichedDataRepository {
	return &enrichedDataRepository{db: db}
}

// ExistingKeys returns which of the given FMEs already exist for the client.
// Callers pass at most one dedup chunk of keys.
func (r *enrichedDataRepository) ExistingKeys(ctx context.Context, clientID uuid.UUID, keys []string) (map[string]struct{}, error) {
	if len(keys) == 0 {
		return map[string]struct{}{}, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT fme
		FROM enriched_data
		WHERE client_id = $1 AND fme = ANY($2)`, clientID, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing FMEs: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan FME key: %w", err)
		}
		existing[key] = struct{}{}
	}
	return existing, rows.Err()
}

var enrichedInsertColumns = []string{
	"id", "client_id", "upload_id", "business_name", "normalized_website",
	"company_linkedin", "full_name", "first_name", "job_title", "person_linkedin",
	"fme", "e1", "e2", "e3", "e4", "sub1", "sub2", "sub3", "sub4", "created_at",
}

// InsertBatch inserts records in chunks of batchSize rows per statement, all
// queued into one pgx batch over q (the caller's transaction). Conflicts on
// the (client, FME) uniqueness backstop are skipped silently; the returned
// count is the number of rows actually inserted.
func (r *enrichedDataRepository) InsertBatch(ctx context.Context, q DBTX, uploadID uuid.UUID, records []*models.EnrichedRecord, batchSize int) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}
	if batchSize <= 0 {
		return 0, fmt.Errorf("insert batch size must be positive, got %d", batchSize)
	}

	now := time.Now().UTC()
	batch := &pgx.Batch{}
	statements := 0

	for start := 0; start < len(records); start += batchSize {
		end := start + batchSize
		if end > len(records) {
			end = len(records)
		}
		chunk := records[start:end]

		args := make([]any, 0, len(chunk)*len(enrichedInsertColumns))
		for _, rec := range chunk {
			args = append(args,
				uuid.New(), rec.ClientID, uploadID, rec.BusinessName, rec.NormalizedWebsite,
				rec.CompanyLinkedIn, rec.FullName, rec.FirstName, rec.JobTitle,
				rec.PersonLinkedIn, rec.FME, rec.E1, rec.E2, rec.E3, rec.E4,
				rec.Sub1, rec.Sub2, rec.Sub3, rec.Sub4, now,
			)
		}

		sql := fmt.Sprintf(`
			INSERT INTO enriched_data (%s)
			VALUES %s
			ON CONFLICT (client_id, fme) WHERE fme IS NOT NULL
			DO NOTHING`,
			strings.Join(enrichedInsertColumns, ", "),
			valuesPlaceholders(len(chunk), len(enrichedInsertColumns)))

		batch.Queue(sql, args...)
		statements++
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()

	var inserted int64
	for i := 0; i < statements; i++ {
		tag, err := results.Exec()
		if err != nil {
			return 0, fmt.Errorf("failed to insert enriched data: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

var enrichedSortColumns = map[string]string{
	"business_name":      "e.business_name",
	"full_name":          "e.full_name",
	"job_title":          "e.job_title",
	"normalized_website": "e.normalized_website",
	"created_at":         "e.created_at",
}

// List returns one page of a client's enriched records with upload context
// joined in, plus the unpaged total.
func (r *enrichedDataRepository) List(ctx context.Context, clientID uuid.UUID, params ListParams, filter UploadFilter) (int, []*models.EnrichedRecord, error) {
	conds := []string{"e.client_id = $1"}
	args := []any{clientID}
	conds, args = filter.appendConditions(conds, args)

	if search := strings.TrimSpace(params.Search); search != "" {
		args = append(args, "%"+search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(e.business_name ILIKE $%d OR e.full_name ILIKE $%d OR e.job_title ILIKE $%d OR e.normalized_website ILIKE $%d)",
			n, n, n, n))
	}

	from := `
		FROM enriched_data e
		JOIN uploads u ON u.id = e.upload_id
		JOIN niches n ON n.id = u.niche_id
		JOIN uploaders up ON up.id = u.uploader_id
		WHERE ` + strings.Join(conds, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*)"+from, args...).Scan(&total); err != nil {
		return 0, nil, fmt.Errorf("failed to count enriched data: %w", err)
	}

	order := params.orderClause(enrichedSortColumns, "e.created_at")
	query := fmt.Sprintf(`
		SELECT e.id, e.client_id, e.upload_id, e.business_name, e.normalized_website,
			e.company_linkedin, e.full_name, e.first_name, e.job_title,
			e.person_linkedin, e.fme, e.e1, e.e2, e.e3, e.e4,
			e.sub1, e.sub2, e.sub3, e.sub4, e.created_at,
			n.name, up.name, u.upload_date
		%s
		ORDER BY %s
		LIMIT %d OFFSET %d`, from, order, params.Limit(), params.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to list enriched data: %w", err)
	}
	defer rows.Close()

	var records []*models.EnrichedRecord
	for rows.Next() {
		var rec models.EnrichedRecord
		if err := rows.Scan(&rec.ID, &rec.ClientID, &rec.UploadID, &rec.BusinessName,
			&rec.NormalizedWebsite, &rec.CompanyLinkedIn, &rec.FullName, &rec.FirstName,
			&rec.JobTitle, &rec.PersonLinkedIn, &rec.FME, &rec.E1, &rec.E2, &rec.E3,
			&rec.E4, &rec.Sub1, &rec.Sub2, &rec.Sub3, &rec.Sub4, &rec.CreatedAt,
			&rec.NicheName, &rec.UploaderName, &rec.UploadDate); err != nil {
			return 0, nil, fmt.Errorf("failed to scan enriched record: %w", err)
		}
		records = append(records, &rec)
	}
	return total, records, rows.Err()
}

// ListByUploads returns all enriched records belonging to the given uploads,
// oldest first. Feeds CSV export.
func (r *enrichedDataRepository) ListByUploads(ctx context.Context, clientID uuid.UUID, uploadIDs []uuid.UUID) ([]*models.EnrichedRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT e.id, e.client_id, e.upload_id, e.business_name, e.normalized_website,
			e.company_linkedin, e.full_name, e.first_name, e.job_title,
			e.person_linkedin, e.fme, e.e1, e.e2, e.e3, e.e4,
			e.sub1, e.sub2, e.sub3, e.sub4, e.created_at
		FROM enriched_data e
		WHERE e.client_id = $1 AND e.upload_id = ANY($2)
		ORDER BY e.created_at ASC`, clientID, uploadIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list enriched data by uploads: %w", err)
	}
	defer rows.Close()

	var records []*models.EnrichedRecord
	for rows.Next() {
		var rec models.EnrichedRecord
		if err := rows.Scan(&rec.ID, &rec.ClientID, &rec.UploadID, &rec.BusinessName,
			&rec.NormalizedWebsite, &rec.CompanyLinkedIn, &rec.FullName, &rec.FirstName,
			&rec.JobTitle, &rec.PersonLinkedIn, &rec.FME, &rec.E1, &rec.E2, &rec.E3,
			&rec.E4, &rec.Sub1, &rec.Sub2, &rec.Sub3, &rec.Sub4, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan enriched record: %w", err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// CountByClient returns the total enriched record count for a client.
func (r *enrichedDataRepository) CountByClient(ctx context.Context, clientID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM enriched_data WHERE client_id = $1`, clientID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count enriched data: %w", err)
	}
	return count, nil
}

// DeleteByUploads removes enriched records belonging to the given uploads.
func (r *enrichedDataRepository) DeleteByUploads(ctx context.Context, q DBTX, clientID uuid.UUID, uploadIDs []uuid.UUID) (int64, error) {
	if len(uploadIDs) == 0 {
		return 0, nil
	}
	tag, err := q.Exec(ctx, `
		DELETE FROM enriched_data
		WHERE client_id = $1 AND upload_id = ANY($2)`, clientID, uploadIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to delete enriched data: %w", err)
	}
	return tag.RowsAffected(), nil
}
