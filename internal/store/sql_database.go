package store

import (
	"database/sql"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/migrations"
)

const (
	dialectPostgres = "postgres"
	dialectSQLite   = "sqlite"
)

// DB wraps a connection pool together with its dialect, error classifier and
// logger.
type DB struct {
	*sql.DB
	errorClassificator ErrorClassificator
	logger             *logger.Logger
	dialect            string
}

// Migrate applies the embedded migrations of the connection's dialect.
func (db *DB) Migrate() error {
	switch db.dialect {
	case dialectPostgres:
		return migrations.MigratePostgres(db.DB)
	case dialectSQLite:
		return migrations.MigrateSQLite(db.DB)
	}
	return fmt.Errorf("migration error: unknown dialect %q", db.dialect)
}

// IsRetryable reports whether err is a transient database failure.
func (db *DB) IsRetryable(err error) bool {
	if db.errorClassificator == nil {
		return false
	}
	return db.errorClassificator.Classify(err) == Retryable
}

// markUnavailable tags transient failures with ErrDatabaseUnavailable so the
// transport can answer with a retry-later status.
func (db *DB) markUnavailable(err error) error {
	if err == nil || !db.IsRetryable(err) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrDatabaseUnavailable, err)
}
