package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/schema"
	"github.com/MKhiriev/go-offline-sync/models"
)

const (
	selectWatermark  = `SELECT table_name, cursor, last_pulled_at FROM sync_watermarks WHERE table_name = ?;`
	selectWatermarks = `SELECT table_name, cursor, last_pulled_at FROM sync_watermarks ORDER BY table_name;`
	upsertWatermark  = `INSERT INTO sync_watermarks (table_name, cursor, last_pulled_at) VALUES (?, ?, ?)
		ON CONFLICT (table_name) DO UPDATE SET cursor = excluded.cursor, last_pulled_at = excluded.last_pulled_at;`
)

type watermarkRepository struct {
	db     *DB
	logger *logger.Logger
}

// NewWatermarkRepository returns the SQLite-backed [WatermarkRepository].
func NewWatermarkRepository(db *DB, logger *logger.Logger) WatermarkRepository {
	return &watermarkRepository{db: db, logger: logger}
}

// GetWatermark returns the cursor of table. A table never pulled has an
// empty cursor.
func (r *watermarkRepository) GetWatermark(ctx context.Context, table string) (models.SyncWatermark, error) {
	var (
		wm       models.SyncWatermark
		pulledAt sql.NullString
	)

	err := r.db.QueryRowContext(ctx, selectWatermark, table).Scan(&wm.Table, &wm.Cursor, &pulledAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SyncWatermark{Table: table}, nil
	}
	if err != nil {
		r.logger.Err(err).Str("func", "*watermarkRepository.GetWatermark").Str("table", table).Msg("error reading watermark")
		return models.SyncWatermark{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	if wm.LastPulledAt, err = parseNullTime(pulledAt); err != nil {
		return models.SyncWatermark{}, err
	}
	return wm, nil
}

func (r *watermarkRepository) ListWatermarks(ctx context.Context) ([]models.SyncWatermark, error) {
	rows, err := r.db.QueryContext(ctx, selectWatermarks)
	if err != nil {
		r.logger.Err(err).Str("func", "*watermarkRepository.ListWatermarks").Msg("error listing watermarks")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var out []models.SyncWatermark
	for rows.Next() {
		var (
			wm       models.SyncWatermark
			pulledAt sql.NullString
		)
		if err = rows.Scan(&wm.Table, &wm.Cursor, &pulledAt); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		if wm.LastPulledAt, err = parseNullTime(pulledAt); err != nil {
			return nil, err
		}
		out = append(out, wm)
	}
	return out, rows.Err()
}

// ApplyPulledPage discards superseded local changes, rebases the ones that
// won, writes the remote rows and advances the watermark. Either all of it
// commits or none of it does.
func (r *watermarkRepository) ApplyPulledPage(ctx context.Context, page PulledPage) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Err(err).Str("func", "*watermarkRepository.ApplyPulledPage").Msg("error beginning transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if err = deletePending(ctx, tx, page.Discard); err != nil {
		r.logger.Err(err).Str("func", "*watermarkRepository.ApplyPulledPage").Msg("error discarding local changes")
		return err
	}

	for _, rb := range page.Rebase {
		if err = rebasePending(ctx, tx, rb.ChangeIDs, rb.Version); err != nil {
			r.logger.Err(err).Str("func", "*watermarkRepository.ApplyPulledPage").Msg("error rebasing local changes")
			return err
		}
	}

	if len(page.Rows) > 0 {
		if err = applyRemoteRows(ctx, tx, page.Table, page.Rows); err != nil {
			r.logger.Err(err).Str("func", "*watermarkRepository.ApplyPulledPage").Str("table", page.Table.Name).Msg("error applying pulled rows")
			return err
		}
	}

	if _, err = tx.ExecContext(ctx, upsertWatermark, page.Table.Name, page.Cursor, formatSyncTime(page.PulledAt)); err != nil {
		r.logger.Err(err).Str("func", "*watermarkRepository.ApplyPulledPage").Msg("error advancing watermark")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if err = tx.Commit(); err != nil {
		r.logger.Err(err).Str("func", "*watermarkRepository.ApplyPulledPage").Msg("error committing transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}
	return nil
}

func parseNullTime(s sql.NullString) (*time.Time, error) {
	if !s.Valid || s.String == "" {
		return nil, nil
	}
	t, err := schema.ParseTimestamp(s.String)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return &t, nil
}
