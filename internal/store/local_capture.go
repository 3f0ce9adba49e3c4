package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/models"
)

const selectTriggerNames = `SELECT name FROM sqlite_master WHERE type = 'trigger' AND tbl_name = ?;`

type captureInstaller struct {
	db     *DB
	logger *logger.Logger
}

// NewCaptureInstaller returns a [CaptureInstaller] for the local database.
func NewCaptureInstaller(db *DB, logger *logger.Logger) CaptureInstaller {
	return &captureInstaller{db: db, logger: logger}
}

// ArmCapture creates every described table that is missing and installs its
// capture triggers. Existing tables and triggers are left untouched.
func (c *captureInstaller) ArmCapture(ctx context.Context, tables []models.TableDescriptor) error {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		c.logger.Err(err).Str("func", "*captureInstaller.ArmCapture").Msg("error beginning transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if err = createTables(ctx, tx, tables); err != nil {
		c.logger.Err(err).Str("func", "*captureInstaller.ArmCapture").Msg("error creating tables")
		return err
	}

	for _, t := range tables {
		for _, ddl := range captureTriggersDDL(t) {
			if _, err = tx.ExecContext(ctx, ddl); err != nil {
				c.logger.Err(err).Str("func", "*captureInstaller.ArmCapture").Str("table", t.Name).Msg("error installing capture trigger")
				return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
			}
		}
	}

	// a crash cannot leave capture suspended, but a hand-edited file can
	if _, err = tx.ExecContext(ctx, `INSERT INTO sync_control (id, apply_remote) VALUES (1, 0)
		ON CONFLICT (id) DO UPDATE SET apply_remote = 0;`); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	if err = tx.Commit(); err != nil {
		c.logger.Err(err).Str("func", "*captureInstaller.ArmCapture").Msg("error committing transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	c.logger.Debug().Str("func", "*captureInstaller.ArmCapture").Int("tables", len(tables)).Msg("change capture armed")
	return nil
}

// VerifyCapture fails with [ErrCaptureNotInstalled] if any described table
// lacks one of its capture triggers.
func (c *captureInstaller) VerifyCapture(ctx context.Context, tables []models.TableDescriptor) error {
	var missing []string
	for _, t := range tables {
		names, err := triggerNames(ctx, c.db.DB, t.Name)
		if err != nil {
			c.logger.Err(err).Str("func", "*captureInstaller.VerifyCapture").Str("table", t.Name).Msg("error listing triggers")
			return err
		}
		for _, want := range captureTriggerNames(t) {
			if _, ok := names[want]; !ok {
				missing = append(missing, want)
			}
		}
	}

	if len(missing) > 0 {
		c.logger.Error().Str("func", "*captureInstaller.VerifyCapture").Strs("missing", missing).Msg("capture triggers are missing")
		return fmt.Errorf("%w: missing %s", ErrCaptureNotInstalled, strings.Join(missing, ", "))
	}
	return nil
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func triggerNames(ctx context.Context, q queryer, table string) (map[string]struct{}, error) {
	rows, err := q.QueryContext(ctx, selectTriggerNames, table)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	names := make(map[string]struct{})
	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		names[name] = struct{}{}
	}
	return names, rows.Err()
}

func createTables(ctx context.Context, ex execer, tables []models.TableDescriptor) error {
	for _, t := range tables {
		if _, err := ex.ExecContext(ctx, createTableDDL(t)); err != nil {
			return fmt.Errorf("%w: creating table %q: %w", ErrExecutingStatement, t.Name, err)
		}
	}
	return nil
}
