package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/schema"
	"github.com/MKhiriev/go-offline-sync/models"
)

// syncRepository is the PostgreSQL-backed implementation of [SyncRepository].
// Rows of every described table live in the generic sync_rows table keyed by
// (user_id, table_name, row_key) with the domain columns kept as JSONB.
type syncRepository struct {
	db     *DB
	logger *logger.Logger
}

// NewSyncRepository constructs a [SyncRepository] backed by db.
func NewSyncRepository(db *DB, logger *logger.Logger) SyncRepository {
	logger.Debug().Msg("creating sync repository")
	return &syncRepository{db: db, logger: logger}
}

// ApplyChanges applies the batch inside one transaction holding the user's
// advisory lock.
//
// Per change:
//   - a change_key already recorded is answered as accepted without writing;
//   - insert creates the row, or resurrects a tombstone;
//   - update is a compare-and-set on the base version, and creates a row the
//     server has never seen;
//   - delete is a compare-and-set that leaves a tombstone; deleting a missing
//     or deleted row is accepted.
//
// A failed compare-and-set whose conflict columns already equal the pushed
// values is a re-send and is accepted. Anything else is a conflict carrying
// the current server row.
//
// Failures the database reports as transient are marked with
// [ErrDatabaseUnavailable].
func (r *syncRepository) ApplyChanges(ctx context.Context, userID int64, deviceID string, changes []RemoteChange) ([]models.ChangeResult, error) {
	results, err := r.applyBatch(ctx, userID, deviceID, changes)
	return results, r.db.markUnavailable(err)
}

func (r *syncRepository) applyBatch(ctx context.Context, userID int64, deviceID string, changes []RemoteChange) ([]models.ChangeResult, error) {
	log := logger.FromContext(ctx)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		log.Err(err).Str("func", "*syncRepository.ApplyChanges").Msg("failed to begin transaction")
		return nil, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	if _, err = tx.ExecContext(ctx, lockUserRows, userID); err != nil {
		log.Err(err).Str("func", "*syncRepository.ApplyChanges").Msg("failed to take user lock")
		return nil, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	results := make([]models.ChangeResult, 0, len(changes))
	for _, change := range changes {
		result, err := r.applyChange(ctx, tx, userID, deviceID, change)
		if err != nil {
			log.Err(err).
				Str("func", "*syncRepository.ApplyChanges").
				Str("table", change.Table.Name).
				Str("change_key", change.Entry.ChangeKey).
				Msg("failed to apply change")
			return nil, err
		}
		results = append(results, result)
	}

	if err = tx.Commit(); err != nil {
		log.Err(err).Str("func", "*syncRepository.ApplyChanges").Msg("failed to commit transaction")
		return nil, fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	return results, nil
}

func (r *syncRepository) applyChange(ctx context.Context, tx *sql.Tx, userID int64, deviceID string, change RemoteChange) (models.ChangeResult, error) {
	entry := change.Entry
	rowKey := entry.PrimaryKey.Key()

	// re-sent change
	var status string
	err := tx.QueryRowContext(ctx, selectAppliedChange, userID, entry.ChangeKey).Scan(&status)
	switch {
	case err == nil:
		current, err := selectRow(ctx, tx, userID, change.Table, rowKey)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return models.ChangeResult{}, err
		}
		return accepted(entry.ChangeKey, current), nil
	case !errors.Is(err, sql.ErrNoRows):
		return models.ChangeResult{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}

	var applied bool
	switch entry.Operation {
	case models.OperationInsert:
		applied, err = r.upsert(ctx, tx, userID, deviceID, change, rowKey, true)
	case models.OperationUpdate:
		applied, err = r.upsert(ctx, tx, userID, deviceID, change, rowKey, false)
	case models.OperationDelete:
		applied, err = r.tombstone(ctx, tx, userID, deviceID, change, rowKey)
	default:
		return models.ChangeResult{
			ChangeKey: entry.ChangeKey,
			Status:    models.StatusRejected,
			Reason:    fmt.Sprintf("unknown operation %q", entry.Operation),
		}, nil
	}
	if err != nil {
		return models.ChangeResult{}, err
	}

	current, err := selectRow(ctx, tx, userID, change.Table, rowKey)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return models.ChangeResult{}, err
	}

	if !applied && !isResend(change, current) {
		return models.ChangeResult{
			ChangeKey: entry.ChangeKey,
			Status:    models.StatusConflict,
			ServerRow: current,
			Reason:    conflictReason(entry, current),
		}, nil
	}

	if _, err = tx.ExecContext(ctx, recordAppliedChange, userID, entry.ChangeKey, change.Table.Name, rowKey, string(models.StatusAccepted)); err != nil {
		return models.ChangeResult{}, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	return accepted(entry.ChangeKey, current), nil
}

// upsert writes an insert or update. It reports false when the base version
// did not match.
func (r *syncRepository) upsert(ctx context.Context, tx *sql.Tx, userID int64, deviceID string, change RemoteChange, rowKey string, resurrect bool) (bool, error) {
	entry := change.Entry

	pk, err := json.Marshal(entry.PrimaryKey)
	if err != nil {
		return false, err
	}
	data, err := json.Marshal(mergeRow(entry.PrimaryKey, entry.Row))
	if err != nil {
		return false, err
	}
	version := max(entry.SyncVersion, 1)

	var updated, current sql.NullInt64
	err = tx.QueryRowContext(ctx, casUpdateSyncRow,
		userID, change.Table.Name, rowKey, string(pk), string(data), version, entry.LastModifiedAt, deviceID,
		entry.BaseSyncVersion, resurrect,
	).Scan(&updated, &current)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	if updated.Valid {
		return true, nil
	}
	if current.Valid {
		return false, nil
	}

	// the server has never seen this row
	var inserted int64
	err = tx.QueryRowContext(ctx, insertSyncRow,
		userID, change.Table.Name, rowKey, string(pk), string(data), version, entry.LastModifiedAt, deviceID,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return true, nil
}

// tombstone marks a row deleted. A row that is missing or already deleted
// counts as applied.
func (r *syncRepository) tombstone(ctx context.Context, tx *sql.Tx, userID int64, deviceID string, change RemoteChange, rowKey string) (bool, error) {
	entry := change.Entry

	var updated, current sql.NullInt64
	err := tx.QueryRowContext(ctx, casDeleteSyncRow,
		userID, change.Table.Name, rowKey, max(entry.SyncVersion, 1), entry.LastModifiedAt, deviceID, entry.BaseSyncVersion,
	).Scan(&updated, &current)
	if err != nil {
		return false, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	if updated.Valid || !current.Valid {
		return true, nil
	}

	row, err := selectRow(ctx, tx, userID, change.Table, rowKey)
	if err != nil {
		return false, err
	}
	return row.Deleted, nil
}

// PullRows reads one page in server_seq order. One extra row is fetched to
// tell whether another page follows.
func (r *syncRepository) PullRows(ctx context.Context, userID int64, table models.TableDescriptor, since int64, limit int) (PulledRows, error) {
	page, err := r.pullRows(ctx, userID, table, since, limit)
	return page, r.db.markUnavailable(err)
}

func (r *syncRepository) pullRows(ctx context.Context, userID int64, table models.TableDescriptor, since int64, limit int) (PulledRows, error) {
	log := logger.FromContext(ctx)

	query, args, err := buildPullRowsQuery(userID, table.Name, since, limit)
	if err != nil {
		log.Err(err).Str("func", "*syncRepository.PullRows").Msg("error building query")
		return PulledRows{}, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Err(err).Str("func", "*syncRepository.PullRows").Msg("error executing query")
		return PulledRows{}, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	page := PulledRows{NextSeq: since}
	for rows.Next() {
		var seq int64
		row, err := scanSyncRow(rows, table, &seq)
		if err != nil {
			log.Err(err).Str("func", "*syncRepository.PullRows").Msg("error scanning row")
			return PulledRows{}, err
		}
		if len(page.Rows) == limit {
			page.HasMore = true
			break
		}
		page.Rows = append(page.Rows, row)
		page.NextSeq = seq
	}
	if err = rows.Err(); err != nil {
		return PulledRows{}, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}

	return page, nil
}

func (r *syncRepository) PruneAppliedChanges(ctx context.Context, before time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, pruneAppliedChanges, before)
	if err != nil {
		r.logger.Err(err).Str("func", "*syncRepository.PruneAppliedChanges").Msg("error pruning applied changes")
		return 0, fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func selectRow(ctx context.Context, tx *sql.Tx, userID int64, table models.TableDescriptor, rowKey string) (*models.SyncableRow, error) {
	row, err := scanSyncRow(tx.QueryRowContext(ctx, selectSyncRow, userID, table.Name, rowKey), table, nil)
	if err != nil {
		return nil, err
	}
	return &row, nil
}

func scanSyncRow(s rowScanner, table models.TableDescriptor, seq *int64) (models.SyncableRow, error) {
	var (
		row     models.SyncableRow
		pk      []byte
		data    []byte
		scanned = []any{&row.Table, &pk, &data, &row.SyncVersion, &row.LastModifiedAt, &row.DeviceID, &row.Deleted}
	)
	if seq != nil {
		scanned = append(scanned, seq)
	}

	if err := s.Scan(scanned...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.SyncableRow{}, err
		}
		return models.SyncableRow{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	source := data
	if row.Deleted {
		source = pk
	}
	values, err := decodeRow(string(source))
	if err != nil {
		return models.SyncableRow{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	if row.Values, err = schema.Normalize(table, values.Pick(table.ColumnNames()...)); err != nil {
		return models.SyncableRow{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}
	row.LastModifiedAt = row.LastModifiedAt.UTC()

	return row, nil
}

func isResend(change RemoteChange, current *models.SyncableRow) bool {
	if current == nil || current.Deleted || change.Entry.Operation == models.OperationDelete {
		return false
	}
	pushed := mergeRow(change.Entry.PrimaryKey, change.Entry.Row)
	return schema.SameValues(current.Values, pushed, schema.EffectiveConflictColumns(change.Table))
}

func conflictReason(entry models.ChangeEntry, current *models.SyncableRow) string {
	switch {
	case current == nil:
		return "row does not exist"
	case current.Deleted:
		return fmt.Sprintf("row was deleted at version %d", current.SyncVersion)
	}
	return fmt.Sprintf("base version %d, server version %d", entry.BaseSyncVersion, current.SyncVersion)
}

func accepted(changeKey string, current *models.SyncableRow) models.ChangeResult {
	return models.ChangeResult{ChangeKey: changeKey, Status: models.StatusAccepted, ServerRow: current}
}

func mergeRow(pk, row models.Row) models.Row {
	out := row.Clone()
	if out == nil {
		out = make(models.Row, len(pk))
	}
	for k, v := range pk {
		out[k] = v
	}
	return out
}
