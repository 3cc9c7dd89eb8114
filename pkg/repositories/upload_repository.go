package repositories

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/leadvault/leadvault-engine/pkg/models"
)

// UploadRef is a minimal upload reference used when resolving purge targets.
type UploadRef struct {
	ID       uuid.UUID
	DataKind models.DataKind
}

// UploadRepository defines data access for upload audit records.
//
// Create accepts an explicit DBTX so the ingestion orchestrator can create
// the audit record inside the persist transaction on the success path and
// outside any transaction on failure paths.
type UploadRepository interface {
	Create(ctx context.Context, q DBTX, upload *models.Upload) error
	UpdateRowCount(ctx context.Context, q DBTX, id uuid.UUID, rowCount int) error
	ListByClient(ctx context.Context, clientID uuid.UUID, params ListParams) (int, []*models.Upload, error)
	ListSuccessfulByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Upload, error)
	FindByFilter(ctx context.Context, clientID uuid.UUID, filter UploadFilter) ([]UploadRef, error)
	FindForExport(ctx context.Context, clientID uuid.UUID, kind models.DataKind, filter UploadFilter) ([]*models.Upload, error)
	DeleteOrphans(ctx context.Context, q DBTX, clientID uuid.UUID, ids []uuid.UUID) (int64, error)
}

type uploadRepository struct {
	db DBTX
}

// NewUploadRepository creates a new upload repository.
func NewUploadRepository(db DBTX) UploadRepository {
	return &uploadRepository{db: db}
}

// Create inserts an upload audit record.
func (r *uploadRepository) Create(ctx context.Context, q DBTX, upload *models.Upload) error {
	if upload.ID == uuid.Nil {
		upload.ID = uuid.New()
	}
	if upload.CreatedAt.IsZero() {
		upload.CreatedAt = time.Now().UTC()
	}

	_, err := q.Exec(ctx, `
		INSERT INTO uploads (id, client_id, niche_id, uploader_id, data_kind,
			upload_date, original_filename, row_count, status, error_message, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		upload.ID,
		upload.ClientID,
		upload.NicheID,
		upload.UploaderID,
		upload.DataKind,
		upload.UploadDate,
		upload.OriginalFilename,
		upload.RowCount,
		upload.Status,
		upload.ErrorMessage,
		upload.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create upload: %w", err)
	}
	return nil
}

// UpdateRowCount records the number of rows actually persisted. Used when the
// insert-time conflict backstop skips rows the dedup pre-check did not see.
func (r *uploadRepository) UpdateRowCount(ctx context.Context, q DBTX, id uuid.UUID, rowCount int) error {
	_, err := q.Exec(ctx, `UPDATE uploads SET row_count = $2 WHERE id = $1`, id, rowCount)
	if err != nil {
		return fmt.Errorf("failed to update upload row count: %w", err)
	}
	return nil
}

var uploadSortColumns = map[string]string{
	"upload_date": "u.upload_date",
	"data_kind":   "u.data_kind",
	"row_count":   "u.row_count",
	"status":      "u.status",
}

// ListByClient returns one page of a client's uploads with niche/uploader
// names joined in, plus the unpaged total.
func (r *uploadRepository) ListByClient(ctx context.Context, clientID uuid.UUID, params ListParams) (int, []*models.Upload, error) {
	conds := []string{"u.client_id = $1"}
	args := []any{clientID}

	if search := strings.TrimSpace(params.Search); search != "" {
		args = append(args, "%"+search+"%", strings.ToLower(search))
		conds = append(conds, fmt.Sprintf(
			"(n.name ILIKE $%d OR up.name ILIKE $%d OR u.data_kind = $%d)",
			len(args)-1, len(args)-1, len(args)))
	}

	where := strings.Join(conds, " AND ")
	from := `
		FROM uploads u
		JOIN niches n ON n.id = u.niche_id
		JOIN uploaders up ON up.id = u.uploader_id
		WHERE ` + where

	var total int
	if err := r.db.QueryRow(ctx, "SELECT COUNT(*)"+from, args...).Scan(&total); err != nil {
		return 0, nil, fmt.Errorf("failed to count uploads: %w", err)
	}

	order := params.orderClause(uploadSortColumns, "u.upload_date")
	query := fmt.Sprintf(`
		SELECT u.id, u.client_id, u.niche_id, u.uploader_id, u.data_kind,
			u.upload_date, u.original_filename, u.row_count, u.status,
			u.error_message, u.created_at, n.name, up.name
		%s
		ORDER BY %s
		LIMIT %d OFFSET %d`, from, order, params.Limit(), params.Offset())

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to list uploads: %w", err)
	}
	defer rows.Close()

	var uploads []*models.Upload
	for rows.Next() {
		var u models.Upload
		if err := rows.Scan(&u.ID, &u.ClientID, &u.NicheID, &u.UploaderID, &u.DataKind,
			&u.UploadDate, &u.OriginalFilename, &u.RowCount, &u.Status,
			&u.ErrorMessage, &u.CreatedAt, &u.NicheName, &u.UploaderName); err != nil {
			return 0, nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		uploads = append(uploads, &u)
	}
	return total, uploads, rows.Err()
}

// ListSuccessfulByClient returns all successful uploads for a client with
// names joined in, oldest first. Feeds the analytics aggregations.
func (r *uploadRepository) ListSuccessfulByClient(ctx context.Context, clientID uuid.UUID) ([]*models.Upload, error) {
	rows, err := r.db.Query(ctx, `
		SELECT u.id, u.data_kind, u.upload_date, u.row_count, n.name, up.name
		FROM uploads u
		JOIN niches n ON n.id = u.niche_id
		JOIN uploaders up ON up.id = u.uploader_id
		WHERE u.client_id = $1 AND u.status = $2
		ORDER BY u.upload_date ASC`, clientID, models.UploadStatusSuccess)
	if err != nil {
		return nil, fmt.Errorf("failed to list successful uploads: %w", err)
	}
	defer rows.Close()

	var uploads []*models.Upload
	for rows.Next() {
		var u models.Upload
		if err := rows.Scan(&u.ID, &u.DataKind, &u.UploadDate, &u.RowCount,
			&u.NicheName, &u.UploaderName); err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		uploads = append(uploads, &u)
	}
	return uploads, rows.Err()
}

// FindByFilter resolves the uploads matching a purge/export filter.
func (r *uploadRepository) FindByFilter(ctx context.Context, clientID uuid.UUID, filter UploadFilter) ([]UploadRef, error) {
	conds := []string{"u.client_id = $1"}
	args := []any{clientID}
	conds, args = filter.appendConditions(conds, args)

	query := `
		SELECT u.id, u.data_kind
		FROM uploads u
		JOIN niches n ON n.id = u.niche_id
		JOIN uploaders up ON up.id = u.uploader_id
		WHERE ` + strings.Join(conds, " AND ")

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find uploads: %w", err)
	}
	defer rows.Close()

	var refs []UploadRef
	for rows.Next() {
		var ref UploadRef
		if err := rows.Scan(&ref.ID, &ref.DataKind); err != nil {
			return nil, fmt.Errorf("failed to scan upload ref: %w", err)
		}
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// FindForExport resolves uploads of one kind matching an export filter, with
// niche/uploader names for the export columns.
func (r *uploadRepository) FindForExport(ctx context.Context, clientID uuid.UUID, kind models.DataKind, filter UploadFilter) ([]*models.Upload, error) {
	conds := []string{"u.client_id = $1", "u.data_kind = $2"}
	args := []any{clientID, kind}
	conds, args = filter.appendConditions(conds, args)

	query := `
		SELECT u.id, u.upload_date, n.name, up.name
		FROM uploads u
		JOIN niches n ON n.id = u.niche_id
		JOIN uploaders up ON up.id = u.uploader_id
		WHERE ` + strings.Join(conds, " AND ")

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to find uploads for export: %w", err)
	}
	defer rows.Close()

	var uploads []*models.Upload
	for rows.Next() {
		var u models.Upload
		if err := rows.Scan(&u.ID, &u.UploadDate, &u.NicheName, &u.UploaderName); err != nil {
			return nil, fmt.Errorf("failed to scan upload: %w", err)
		}
		uploads = append(uploads, &u)
	}
	return uploads, rows.Err()
}

// DeleteOrphans removes uploads from the given set that no longer have any
// child records. Bulk purge calls this last so an Upload with zero remaining
// children never survives as an empty audit row.
func (r *uploadRepository) DeleteOrphans(ctx context.Context, q DBTX, clientID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	tag, err := q.Exec(ctx, `
		DELETE FROM uploads u
		WHERE u.client_id = $1
		  AND u.id = ANY($2)
		  AND NOT EXISTS (SELECT 1 FROM raw_data r WHERE r.upload_id = u.id)
		  AND NOT EXISTS (SELECT 1 FROM enriched_data e WHERE e.upload_id = u.id)`,
		clientID, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphaned uploads: %w", err)
	}
	return tag.RowsAffected(), nil
}
