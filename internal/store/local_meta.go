package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
)

const (
	selectMeta = `SELECT value FROM sync_meta WHERE key = ?;`
	upsertMeta = `INSERT INTO sync_meta (key, value) VALUES (?, ?)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value;`
	deleteMeta = `DELETE FROM sync_meta WHERE key = ?;`
)

type metaRepository struct {
	db     *DB
	logger *logger.Logger
}

// NewMetaRepository returns the SQLite-backed [MetaRepository].
func NewMetaRepository(db *DB, logger *logger.Logger) MetaRepository {
	return &metaRepository{db: db, logger: logger}
}

func (r *metaRepository) GetMeta(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx, selectMeta, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("%w: %q", ErrMetaNotFound, key)
	}
	if err != nil {
		r.logger.Err(err).Str("func", "*metaRepository.GetMeta").Str("key", key).Msg("error reading meta")
		return "", fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	return value, nil
}

func (r *metaRepository) SetMeta(ctx context.Context, key, value string) error {
	if err := setMeta(ctx, r.db, key, value); err != nil {
		r.logger.Err(err).Str("func", "*metaRepository.SetMeta").Str("key", key).Msg("error writing meta")
		return err
	}
	return nil
}

func (r *metaRepository) DeleteMeta(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, deleteMeta, key); err != nil {
		r.logger.Err(err).Str("func", "*metaRepository.DeleteMeta").Str("key", key).Msg("error deleting meta")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func setMeta(ctx context.Context, ex execer, key, value string) error {
	if _, err := ex.ExecContext(ctx, upsertMeta, key, value); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}
