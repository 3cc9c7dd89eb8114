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

// RawDataRepository defines data access for raw ("row" kind) records.
// It also serves as the raw-data key lookup for the deduplicator.
type RawDataRepository interface {
	ExistingKeys(ctx context.Context, clientID uuid.UUID, keys []string) (map[string]struct{}, error)
	InsertBatch(ctx context.Context, q DBTX, uploadID uuid.UUID, records []*models.RawRecord, batchSize int) (int64, error)
	List(ctx context.Context, clientID uuid.UUID, params ListParams, filter UploadFilter) (int, []*models.RawRecord, error)
	ListByUploads(ctx context.Context, clientID uuid.UUID, uploadIDs []uuid.UUID) ([]*models.RawRecord, error)
	CountByClient(ctx context.Context, clientID uuid.UUID) (int, error)
	DeleteByUploads(ctx context.Context, q DBTX, clientID uuid.UUID, uploadIDs []uuid.UUID) (int64, error)
}

type rawDataRepository struct {
	db DBTX
}

// NewRawDataRepository creates a new raw data repository.
func NewRawDataRepository(db DBTX) RawDataRepository {
	return &rawDataRepository{db: db}
}

// ExistingKeys returns which of the given normalized websites already exist
// for the client. Callers pass at most one dedup chunk of keys.
func (r *rawDataRepository) ExistingKeys(ctx context.Context, clientID uuid.UUID, keys []string) (map[string]struct{}, error) {
	if len(keys) == 0 {
		return map[string]struct{}{}, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT normalized_website
		FROM raw_data
		WHERE client_id = $1 AND normalized_website = ANY($2)`, clientID, keys)
	if err != nil {
		return nil, fmt.Errorf("failed to query existing websites: %w", err)
	}
	defer rows.Close()

	existing := make(map[string]struct{})
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, fmt.Errorf("failed to scan website key: %w", err)
		}
		existing[key] = struct{}{}
	}
	return existing, rows.Err()
}

var rawInsertColumns = []string{
	"id", "client_id", "upload_id", "company_name", "website", "normalized_website",
	"category", "review", "rating", "address", "street", "city", "state", "country",
	"google_url", "phone_number", "created_at",
}

// InsertBatch inserts records in chunks of batchSize rows per statement, all
// queued into one pgx batch over q (the caller's transaction). Conflicts on
// the (client, normalized website) uniqueness backstop are skipped silently;
// the returned count is the number of rows actually inserted.
func (r *rawDataRepository) InsertBatch(ctx context.Context, q DBTX, uploadID uuid.UUID, records []*models.RawRecord, batchSize int) (int64, error) {
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

		args := make([]any, 0, len(chunk)*len(rawInsertColumns))
		for _, rec := range chunk {
			args = append(args,
				uuid.New(), rec.ClientID, uploadID, rec.CompanyName, rec.Website,
				rec.NormalizedWebsite, rec.Category, rec.Review, rec.Rating,
				rec.Address, rec.Street, rec.City, rec.State, rec.Country,
				rec.GoogleURL, rec.PhoneNumber, now,
			)
		}

		sql := fmt.Sprintf(`
			INSERT INTO raw_data (%s)
			VALUES %s
			ON CONFLICT (client_id, normalized_website) WHERE normalized_website IS NOT NULL
			DO NOTHING`,
			strings.Join(rawInsertColumns, ", "),
			valuesPlaceholders(len(chunk), len(rawInsertColumns)))

		batch.Queue(sql, args...)
		statements++
	}

	results := q.SendBatch(ctx, batch)
	defer results.Close()

	var inserted int64
	for i := 0; i < statements; i++ {
		tag, err := results.Exec()
		if err != nil {
			return 0, fmt.Errorf("failed to insert raw data: %w", err)
		}
		inserted += tag.RowsAffected()
	}
	return inserted, nil
}

var rawSortColumns = map[string]string{
	"company_name":       "r.company_name",
	"normalized_website": "r.normalized_website",
	"category":           "r.category",
	"created_at":         "r.created_at",
}

// List returns one page of a client's raw records with upload context joined
// in, plus the unpaged total.
func (r *rawDataRepository) List(ctx context.Context, clientID uuid.UUID, params ListParams, filter UploadFilter) (int, []*models.RawRecord, error) {
	conds := []string{"r.client_id = $1"}
	args := []any{clientID}
	conds, args = filter.appendConditions(conds, args)

	if search := strings.TrimSpace(params.Search); search != "" {
		args = append(args, "%"+search+"%")
		n := len(args)
		conds = append(conds, fmt.Sprintf(
			"(r.company_name ILIKE $%d OR r.website ILIKE $%d OR r.normalized_website ILIKE $%d OR r.category ILIKE $%d)",
			n, n, n, n))
	}

	from := `
		FROM raw_data r
		JOIN uploads u ON u.id = r.upload_id
		JOIN niches n ON n.id = u.niche_id
		JOIN uploaders up ON up.id = u.uploader_id
		WHERE ` + strings.Join(conds, " AND ")

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*)"+from, args...).Scan(&total); err != nil {
		return 0, nil, fmt.Errorf("failed to count raw data: %w", err)
	}

	order := params.orderClause(rawSortColumns, "r.created_at")
	query := fmt.Sprintf(`
		SELECT r.id, r.client_id, r.upload_id, r.company_name, r.website,
			r.normalized_website, r.category, r.review, r.rating, r.address,
			r.street, r.city, r.state, r.country, r.google_url, r.phone_number,
			r.created_at, n.name, up.name, u.upload_date
		%s
		ORDER BY %s
		LIMIT %d OFFSET %d`, from, order, params.Limit(), params.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to list raw data: %w", err)
	}
	defer rows.Close()

	var records []*models.RawRecord
	for rows.Next() {
		rec, err := scanRawRecordWithContext(rows)
		if err != nil {
			return 0, nil, err
		}
		records = append(records, rec)
	}
	return total, records, rows.Err()
}

// ListByUploads returns all raw records belonging to the given uploads,
// oldest first. Feeds CSV export.
func (r *rawDataRepository) ListByUploads(ctx context.Context, clientID uuid.UUID, uploadIDs []uuid.UUID) ([]*models.RawRecord, error) {
	rows, err := r.db.Query(ctx, `
		SELECT r.id, r.client_id, r.upload_id, r.company_name, r.website,
			r.normalized_website, r.category, r.review, r.rating, r.address,
			r.street, r.city, r.state, r.country, r.google_url, r.phone_number,
			r.created_at
		FROM raw_data r
		WHERE r.client_id = $1 AND r.upload_id = ANY($2)
		ORDER BY r.created_at ASC`, clientID, uploadIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list raw data by uploads: %w", err)
	}
	defer rows.Close()

	var records []*models.RawRecord
	for rows.Next() {
		var rec models.RawRecord
		if err := rows.Scan(&rec.ID, &rec.ClientID, &rec.UploadID, &rec.CompanyName,
			&rec.Website, &rec.NormalizedWebsite, &rec.Category, &rec.Review,
			&rec.Rating, &rec.Address, &rec.Street, &rec.City, &rec.State,
			&rec.Country, &rec.GoogleURL, &rec.PhoneNumber, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan raw record: %w", err)
		}
		records = append(records, &rec)
	}
	return records, rows.Err()
}

// CountByClient returns the total raw record count for a client.
func (r *rawDataRepository) CountByClient(ctx context.Context, clientID uuid.UUID) (int, error) {
	var count int
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM raw_data WHERE client_id = $1`, clientID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count raw data: %w", err)
	}
	return count, nil
}

// DeleteByUploads removes raw records belonging to the given uploads.
func (r *rawDataRepository) DeleteByUploads(ctx context.Context, q DBTX, clientID uuid.UUID, uploadIDs []uuid.UUID) (int64, error) {
	if len(uploadIDs) == 0 {
		return 0, nil
	}
	tag, err := q.Exec(ctx, `
		DELETE FROM raw_data
		WHERE client_id = $1 AND upload_id = ANY($2)`, clientID, uploadIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to delete raw data: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanRawRecordWithContext(rows pgx.Rows) (*models.RawRecord, error) {
	var rec models.RawRecord
	if err := rows.Scan(&rec.ID, &rec.ClientID, &rec.UploadID, &rec.CompanyName,
		&rec.Website, &rec.NormalizedWebsite, &rec.Category, &rec.Review,
		&rec.Rating, &rec.Address, &rec.Street, &rec.City, &rec.State,
		&rec.Country, &rec.GoogleURL, &rec.PhoneNumber, &rec.CreatedAt,
		&rec.NicheName, &rec.UploaderName, &rec.UploadDate); err != nil {
		return nil, fmt.Errorf("failed to scan raw record: %w", err)
	}
	return &rec, nil
}

// valuesPlaceholders renders "($1,$2,...),($k+1,...),..." for a multi-row
// insert of rows x cols parameters.
func valuesPlaceholders(rowCount, colCount int) string {
	var b strings.Builder
	arg := 1
	for row := 0; row < rowCount; row++ {
		if row > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('(')
		for col := 0; col < colCount; col++ {
			if col > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, "$%d", arg)
			arg++
		}
		b.WriteByte(')')
	}
	return b.String()
}
