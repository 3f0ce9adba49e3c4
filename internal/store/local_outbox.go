package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/schema"
	"github.com/MKhiriev/go-offline-sync/models"
)

var pendingColumns = []string{
	"id", "change_key", "table_name", "row_key", "operation", "snapshot",
	"base_sync_version", "sync_version", "captured_at", "device_id",
	"attempts", "last_error", "next_attempt_at", "rebase_sync_version",
}

const (
	countPendingByTable = `SELECT table_name, COUNT(*) FROM pending_changes GROUP BY table_name;`
	retryRejected       = `UPDATE pending_changes SET next_attempt_at = NULL, last_error = NULL WHERE next_attempt_at >= ?;`
)

type outboxRepository struct {
	db     *DB
	logger *logger.Logger
}

// NewOutboxRepository returns the SQLite-backed [OutboxRepository].
func NewOutboxRepository(db *DB, logger *logger.Logger) OutboxRepository {
	return &outboxRepository{db: db, logger: logger}
}

func (r *outboxRepository) ListReady(ctx context.Context, now time.Time) ([]models.PendingChange, error) {
	query, args, err := sq.Select(pendingColumns...).
		From("pending_changes").
		Where(sq.Or{sq.Eq{"next_attempt_at": nil}, sq.LtOrEq{"next_attempt_at": formatSyncTime(now)}}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	changes, err := queryPendingChanges(ctx, r.db, query, args...)
	if err != nil {
		r.logger.Err(err).Str("func", "*outboxRepository.ListReady").Msg("error listing pending changes")
		return nil, err
	}
	return changes, nil
}

func (r *outboxRepository) ListByTable(ctx context.Context, table string) ([]models.PendingChange, error) {
	query, args, err := sq.Select(pendingColumns...).
		From("pending_changes").
		Where(sq.Eq{"table_name": table}).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	changes, err := queryPendingChanges(ctx, r.db, query, args...)
	if err != nil {
		r.logger.Err(err).Str("func", "*outboxRepository.ListByTable").Str("table", table).Msg("error listing pending changes")
		return nil, err
	}
	return changes, nil
}

func (r *outboxRepository) CountByTable(ctx context.Context) (map[string]int, error) {
	rows, err := r.db.QueryContext(ctx, countPendingByTable)
	if err != nil {
		r.logger.Err(err).Str("func", "*outboxRepository.CountByTable").Msg("error counting pending changes")
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			table string
			n     int
		)
		if err = rows.Scan(&table, &n); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		counts[table] = n
	}
	return counts, rows.Err()
}

// Acknowledge removes finished changes, adopts server versions for accepted
// rows, applies server rows that won and rebases survivors, all in one
// transaction.
func (r *outboxRepository) Acknowledge(ctx context.Context, ack Acknowledgement) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		r.logger.Err(err).Str("func", "*outboxRepository.Acknowledge").Msg("error beginning transaction")
		return fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if err = deletePending(ctx, tx, ack.Delete); err != nil {
		r.logger.Err(err).Str("func", "*outboxRepository.Acknowledge").Msg("error deleting acknowledged changes")
		return err
	}

	for _, rb := range ack.Rebase {
		if err = rebasePending(ctx, tx, rb.ChangeIDs, rb.Version); err != nil {
			r.logger.Err(err).Str("func", "*outboxRepository.Acknowledge").Msg("error rebasing changes")
			return err
		}
	}

	for _, row := range ack.Stamp {
		if err = stampRow(ctx, tx, ack.Table, row); err != nil {
			r.logger.Err(err).Str("func", "*outboxRepository.Acknowledge").Str("table", ack.Table.Name).Msg("error stamping accepted row")
			return err
		}
	}

	if len(ack.Apply) > 0 {
		if err = applyRemoteRows(ctx, tx, ack.Table, ack.Apply); err != nil {
			r.logger.Err(err).Str("func", "*outboxRepository.Acknowledge").Str("table", ack.Table.Name).Msg("error applying server rows")
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		r.logger.Err(err).Str("func", "*outboxRepository.Acknowledge").Msg("error committing transaction")
		return fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}
	return nil
}

func (r *outboxRepository) MarkFailed(ctx context.Context, ids []int64, reason string, next time.Time) error {
	return r.markAttempt(ctx, "*outboxRepository.MarkFailed", ids, reason, formatSyncTime(next))
}

func (r *outboxRepository) MarkRejected(ctx context.Context, ids []int64, reason string) error {
	return r.markAttempt(ctx, "*outboxRepository.MarkRejected", ids, reason, rejectedUntil)
}

func (r *outboxRepository) markAttempt(ctx context.Context, fn string, ids []int64, reason, next string) error {
	if len(ids) == 0 {
		return nil
	}

	query, args, err := sq.Update("pending_changes").
		Set("attempts", sq.Expr("attempts + 1")).
		Set("last_error", reason).
		Set("next_attempt_at", next).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Err(err).Str("func", fn).Ints64("ids", ids).Msg("error updating retry metadata")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func (r *outboxRepository) Rebase(ctx context.Context, ids []int64, version int64) error {
	if err := rebasePending(ctx, r.db, ids, version); err != nil {
		r.logger.Err(err).Str("func", "*outboxRepository.Rebase").Msg("error rebasing changes")
		return err
	}
	return nil
}

func (r *outboxRepository) RetryRejected(ctx context.Context) (int64, error) {
	res, err := r.db.ExecContext(ctx, retryRejected, rejectedUntil)
	if err != nil {
		r.logger.Err(err).Str("func", "*outboxRepository.RetryRejected").Msg("error releasing rejected changes")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return res.RowsAffected()
}

func deletePending(ctx context.Context, ex execer, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sq.Delete("pending_changes").Where(sq.Eq{"id": ids}).ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	if _, err = ex.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func rebasePending(ctx context.Context, ex execer, ids []int64, version int64) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sq.Update("pending_changes").
		Set("rebase_sync_version", version).
		Set("next_attempt_at", nil).
		Where(sq.Eq{"id": ids}).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}
	if _, err = ex.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func queryPendingChanges(ctx context.Context, q queryer, query string, args ...any) ([]models.PendingChange, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var changes []models.PendingChange
	for rows.Next() {
		change, err := scanPendingChange(rows)
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}
	return changes, nil
}

func scanPendingChange(rows *sql.Rows) (models.PendingChange, error) {
	var (
		change     models.PendingChange
		rowKey     string
		operation  string
		snapshot   sql.NullString
		capturedAt string
		lastError  sql.NullString
		nextAt     sql.NullString
		rebase     sql.NullInt64
	)

	err := rows.Scan(&change.ID, &change.ChangeKey, &change.Table, &rowKey, &operation, &snapshot,
		&change.BaseSyncVersion, &change.SyncVersion, &capturedAt, &change.DeviceID,
		&change.Attempts, &lastError, &nextAt, &rebase)
	if err != nil {
		return models.PendingChange{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	change.Operation = models.Operation(operation)
	change.LastError = lastError.String
	if rebase.Valid {
		v := rebase.Int64
		change.RebaseSyncVersion = &v
	}

	if change.PrimaryKey, err = decodeRow(rowKey); err != nil {
		return models.PendingChange{}, fmt.Errorf("%w: row key of change %d: %w", ErrScanningRow, change.ID, err)
	}
	if snapshot.Valid {
		if change.Snapshot, err = decodeRow(snapshot.String); err != nil {
			return models.PendingChange{}, fmt.Errorf("%w: snapshot of change %d: %w", ErrScanningRow, change.ID, err)
		}
	}

	if change.CapturedAt, err = schema.ParseTimestamp(capturedAt); err != nil {
		return models.PendingChange{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	if nextAt.Valid {
		t, err := schema.ParseTimestamp(nextAt.String)
		if err != nil {
			return models.PendingChange{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
		}
		change.NextAttemptAt = &t
	}

	return change, nil
}

// decodeRow decodes a JSON object keeping numbers exact; values are
// normalized later against the table descriptor.
func decodeRow(s string) (models.Row, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(s)))
	dec.UseNumber()

	var row models.Row
	if err := dec.Decode(&row); err != nil {
		return nil, err
	}
	return row, nil
}
