// Package repositories contains PostgreSQL data access for leadvault-engine.
package repositories

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/leadvault/leadvault-engine/pkg/apperrors"
)

// DBTX is the subset of pgx capabilities repositories need. Both
// *pgxpool.Pool and pgx.Tx satisfy it, so ingestion-path methods can run
// inside the persist transaction while everything else uses the pool.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	SendBatch(ctx context.Context, b *pgx.Batch) pgx.BatchResults
}

// translateError maps driver errors to domain sentinels.
func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperrors.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 23505 unique_violation, 23503 foreign_key_violation
		if pgErr.Code == "23505" || pgErr.Code == "23503" {
			return apperrors.ErrConflict
		}
	}
	return err
}
