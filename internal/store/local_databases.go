package store

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/schema"
	"github.com/MKhiriev/go-offline-sync/models"
)

const (
	selectTableNames  = `SELECT name FROM sqlite_master WHERE type = 'table';`
	selectTableInfo   = `SELECT name, pk FROM pragma_table_info(?) ORDER BY cid;`
	selectAllPending  = `SELECT * FROM pending_changes ORDER BY id;`
	insertPreserved   = `INSERT INTO pending_changes
		(change_key, table_name, row_key, operation, snapshot, base_sync_version, sync_version, captured_at, device_id, attempts, last_error, next_attempt_at, rebase_sync_version)
		VALUES (?, ?, %s, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`
)

var bookkeepingTables = []string{"pending_changes", "sync_watermarks", "sync_meta", "sync_control"}

type localDatabases struct {
	logger *logger.Logger
}

// NewLocalDatabaseManager returns the [LocalDatabaseManager] for SQLite files.
func NewLocalDatabaseManager(logger *logger.Logger) LocalDatabaseManager {
	return &localDatabases{logger: logger}
}

// Inspect returns every way the file at path differs from what the running
// build expects.
func (m *localDatabases) Inspect(ctx context.Context, path string, tables []models.TableDescriptor, info models.SchemaInfo) ([]string, error) {
	exists, err := localDBExists(path)
	if err != nil {
		return nil, err
	}
	if !exists {
		return []string{"local database does not exist"}, nil
	}

	db, err := NewConnectSQLite(ctx, path, m.logger)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	present, err := tableNames(ctx, db)
	if err != nil {
		m.logger.Err(err).Str("func", "*localDatabases.Inspect").Msg("error listing tables")
		return nil, err
	}

	var reasons []string
	for _, t := range bookkeepingTables {
		if _, ok := present[t]; !ok {
			reasons = append(reasons, fmt.Sprintf("bookkeeping table %q is missing", t))
		}
	}

	if _, ok := present["sync_meta"]; ok {
		var stored string
		err = db.QueryRowContext(ctx, selectMeta, MetaFingerprint).Scan(&stored)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			reasons = append(reasons, "schema fingerprint is not recorded")
		case err != nil:
			return nil, fmt.Errorf("%w: %w", ErrScanningRow, err)
		case stored != info.Fingerprint:
			reasons = append(reasons, fmt.Sprintf("schema fingerprint %s does not match %s", short(stored), short(info.Fingerprint)))
		}
	}

	for _, t := range tables {
		if _, ok := present[t.Name]; !ok {
			reasons = append(reasons, fmt.Sprintf("table %q is missing", t.Name))
			continue
		}
		tableReasons, err := inspectTable(ctx, db, t)
		if err != nil {
			m.logger.Err(err).Str("func", "*localDatabases.Inspect").Str("table", t.Name).Msg("error inspecting table")
			return nil, err
		}
		reasons = append(reasons, tableReasons...)
	}

	if len(reasons) > 0 {
		m.logger.Warn().Str("func", "*localDatabases.Inspect").Strs("reasons", reasons).Msg("local database does not match the schema")
	}
	return reasons, nil
}

func inspectTable(ctx context.Context, db *DB, desc models.TableDescriptor) ([]string, error) {
	rows, err := db.QueryContext(ctx, selectTableInfo, desc.Name)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var (
		columns []string
		pk      = make(map[int]string)
	)
	for rows.Next() {
		var (
			name string
			pos  int
		)
		if err = rows.Scan(&name, &pos); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}
		columns = append(columns, name)
		if pos > 0 {
			pk[pos] = name
		}
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}

	var reasons []string

	want := append(desc.ColumnNames(), models.SyncColumns...)
	for _, c := range want {
		if !slices.Contains(columns, c) {
			reasons = append(reasons, fmt.Sprintf("column %q.%q is missing", desc.Name, c))
		}
	}
	for _, c := range columns {
		if !slices.Contains(want, c) {
			reasons = append(reasons, fmt.Sprintf("column %q.%q is not described", desc.Name, c))
		}
	}

	gotPK := make([]string, 0, len(pk))
	for i := 1; i <= len(pk); i++ {
		gotPK = append(gotPK, pk[i])
	}
	if !slices.Equal(gotPK, desc.PrimaryKey) {
		reasons = append(reasons, fmt.Sprintf("primary key of %q is %v, want %v", desc.Name, gotPK, desc.PrimaryKey))
	}

	triggers, err := triggerNames(ctx, db, desc.Name)
	if err != nil {
		return nil, err
	}
	for _, name := range captureTriggerNames(desc) {
		if _, ok := triggers[name]; !ok {
			reasons = append(reasons, fmt.Sprintf("capture trigger %q is missing", name))
		}
	}

	return reasons, nil
}

// Preserve reads every queued change and the session keys. Columns are
// matched by name so files written by older builds can still be read.
func (m *localDatabases) Preserve(ctx context.Context, path string) (PreservedState, error) {
	state := PreservedState{Session: make(map[string]string), CreatedAt: time.Now().UTC()}

	exists, err := localDBExists(path)
	if err != nil || !exists {
		return state, err
	}

	db, err := NewConnectSQLite(ctx, path, m.logger)
	if err != nil {
		return PreservedState{}, err
	}
	defer db.Close()

	present, err := tableNames(ctx, db)
	if err != nil {
		return PreservedState{}, err
	}

	if _, ok := present["pending_changes"]; ok {
		if state.Changes, err = readPreservedChanges(ctx, db); err != nil {
			m.logger.Err(err).Str("func", "*localDatabases.Preserve").Msg("error reading pending changes")
			return PreservedState{}, err
		}
	}

	if _, ok := present["sync_meta"]; ok {
		for _, key := range SessionMetaKeys {
			var value string
			err = db.QueryRowContext(ctx, selectMeta, key).Scan(&value)
			if errors.Is(err, sql.ErrNoRows) {
				continue
			}
			if err != nil {
				return PreservedState{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
			}
			state.Session[key] = value
		}
	}

	m.logger.Info().
		Str("func", "*localDatabases.Preserve").
		Int("changes", len(state.Changes)).
		Int("session_keys", len(state.Session)).
		Msg("local state preserved")

	return state, nil
}

func readPreservedChanges(ctx context.Context, db *DB) ([]models.PendingChange, error) {
	rows, err := db.QueryContext(ctx, selectAllPending)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	var changes []models.PendingChange
	for rows.Next() {
		values := make([]any, len(names))
		dest := make([]any, len(names))
		for i := range values {
			dest[i] = &values[i]
		}
		if err = rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
		}

		record := make(map[string]any, len(names))
		for i, n := range names {
			record[n] = values[i]
		}

		change, err := preservedChange(record)
		if err != nil {
			return nil, err
		}
		changes = append(changes, change)
	}
	return changes, rows.Err()
}

func preservedChange(record map[string]any) (models.PendingChange, error) {
	change := models.PendingChange{
		ID:              asInt64(record["id"]),
		ChangeKey:       asString(record["change_key"]),
		Table:           asString(record["table_name"]),
		Operation:       models.Operation(asString(record["operation"])),
		BaseSyncVersion: asInt64(record["base_sync_version"]),
		SyncVersion:     asInt64(record["sync_version"]),
		DeviceID:        asString(record["device_id"]),
		Attempts:        int(asInt64(record["attempts"])),
		LastError:       asString(record["last_error"]),
	}

	var err error
	if change.PrimaryKey, err = decodeRow(asString(record["row_key"])); err != nil {
		return models.PendingChange{}, fmt.Errorf("%w: row key of change %d: %w", ErrScanningRow, change.ID, err)
	}
	if s := asString(record["snapshot"]); s != "" {
		if change.Snapshot, err = decodeRow(s); err != nil {
			return models.PendingChange{}, fmt.Errorf("%w: snapshot of change %d: %w", ErrScanningRow, change.ID, err)
		}
	}
	if s := asString(record["captured_at"]); s != "" {
		if change.CapturedAt, err = schema.ParseTimestamp(s); err != nil {
			return models.PendingChange{}, err
		}
	}
	if v, ok := record["rebase_sync_version"]; ok && v != nil {
		rebase := asInt64(v)
		change.RebaseSyncVersion = &rebase
	}
	return change, nil
}

// Build creates a fresh database at path: bookkeeping tables, described
// tables, capture triggers, then the preserved changes and session. Rows
// touched by preserved changes get their last captured state back, so local
// reads see unpushed work right after the rebuild.
func (m *localDatabases) Build(ctx context.Context, path string, tables []models.TableDescriptor, info models.SchemaInfo, state PreservedState) (BuildResult, error) {
	if err := removeLocalDB(path); err != nil {
		return BuildResult{}, fmt.Errorf("error removing stale rebuild file: %w", err)
	}

	db, err := NewConnectSQLite(ctx, path, m.logger)
	if err != nil {
		return BuildResult{}, err
	}
	defer db.Close()

	if err = db.Migrate(); err != nil {
		m.logger.Err(err).Str("func", "*localDatabases.Build").Msg("error migrating rebuilt database")
		return BuildResult{}, err
	}

	capture := NewCaptureInstaller(db, m.logger)
	if err = capture.ArmCapture(ctx, tables); err != nil {
		return BuildResult{}, err
	}

	described := make(map[string]models.TableDescriptor, len(tables))
	for _, t := range tables {
		described[t.Name] = t
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return BuildResult{}, fmt.Errorf("%w: %w", ErrBeginningTransaction, err)
	}
	defer tx.Rollback()

	var (
		result  BuildResult
		restore []models.PendingChange
	)
	for _, change := range state.Changes {
		desc, ok := described[change.Table]
		if !ok {
			result.Orphaned = append(result.Orphaned, change)
			continue
		}
		change.PrimaryKey = change.PrimaryKey.Pick(desc.ColumnNames()...)
		if change.Snapshot != nil {
			change.Snapshot = change.Snapshot.Pick(desc.ColumnNames()...)
		}
		restore = append(restore, change)
	}

	result.RestoredRows = m.restoreRows(ctx, tx, described, restore)

	for _, change := range restore {
		if err = insertPreservedChange(ctx, tx, described[change.Table], change); err != nil {
			m.logger.Err(err).Str("func", "*localDatabases.Build").Str("change_key", change.ChangeKey).Msg("error restoring pending change")
			return BuildResult{}, err
		}
		result.RestoredChanges++
	}

	for key, value := range state.Session {
		if err = setMeta(ctx, tx, key, value); err != nil {
			return BuildResult{}, err
		}
	}
	if err = setMeta(ctx, tx, MetaFingerprint, info.Fingerprint); err != nil {
		return BuildResult{}, err
	}
	if err = setMeta(ctx, tx, MetaSchemaVersion, fmt.Sprint(info.Version)); err != nil {
		return BuildResult{}, err
	}

	if err = tx.Commit(); err != nil {
		return BuildResult{}, fmt.Errorf("%w: %w", ErrCommitingTransaction, err)
	}

	if err = capture.VerifyCapture(ctx, tables); err != nil {
		return BuildResult{}, err
	}

	m.logger.Info().
		Str("func", "*localDatabases.Build").
		Int("restored_changes", result.RestoredChanges).
		Int("restored_rows", result.RestoredRows).
		Int("orphaned_changes", len(result.Orphaned)).
		Msg("local database rebuilt")

	return result, nil
}

// restoreRows writes the latest captured state of every row with preserved
// changes. A row the new shape cannot hold is skipped; its change still
// reaches the server.
func (m *localDatabases) restoreRows(ctx context.Context, tx *sql.Tx, described map[string]models.TableDescriptor, changes []models.PendingChange) int {
	type rowRef struct{ table, key string }

	latest := make(map[rowRef]models.PendingChange)
	var order []rowRef
	for _, c := range changes {
		ref := rowRef{c.Table, c.PrimaryKey.Key()}
		if _, seen := latest[ref]; !seen {
			order = append(order, ref)
		}
		latest[ref] = c
	}

	restored := 0
	for _, ref := range order {
		c := latest[ref]
		if c.Operation == models.OperationDelete || c.Snapshot == nil {
			continue
		}

		row := models.SyncableRow{
			Table:          c.Table,
			Values:         c.Snapshot,
			SyncVersion:    c.SyncVersion,
			LastModifiedAt: c.CapturedAt,
			DeviceID:       c.DeviceID,
		}
		if err := applyRemoteRows(ctx, tx, described[c.Table], []models.SyncableRow{row}); err != nil {
			m.logger.Warn().Err(err).Str("func", "*localDatabases.restoreRows").Str("table", c.Table).Msg("row could not be restored")
			continue
		}
		restored++
	}

	if _, err := tx.ExecContext(ctx, resumeCapture); err != nil {
		m.logger.Err(err).Str("func", "*localDatabases.restoreRows").Msg("error resuming capture")
	}
	return restored
}

func insertPreservedChange(ctx context.Context, tx *sql.Tx, desc models.TableDescriptor, change models.PendingChange) error {
	keyExpr, keyCols := rowKeyPlaceholders(desc)

	args := []any{change.ChangeKey, change.Table}
	for _, col := range keyCols {
		kind, _ := desc.ColumnKind(col)
		v, err := schema.StorageValue(kind, change.PrimaryKey[col])
		if err != nil {
			return err
		}
		args = append(args, v)
	}

	var snapshot any
	if change.Snapshot != nil {
		encoded, err := json.Marshal(change.Snapshot)
		if err != nil {
			return err
		}
		snapshot = string(encoded)
	}

	var lastError any
	if change.LastError != "" {
		lastError = change.LastError
	}

	args = append(args, string(change.Operation), snapshot, change.BaseSyncVersion, change.SyncVersion,
		formatSyncTime(change.CapturedAt), change.DeviceID, change.Attempts, lastError, nil, change.RebaseSyncVersion)

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(insertPreserved, keyExpr), args...); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

// Replace moves src over dst. Journal files of dst are removed first so the
// new file is never paired with a stale journal.
func (m *localDatabases) Replace(src, dst string) error {
	for _, suffix := range []string{"-journal", "-wal", "-shm"} {
		if err := os.Remove(dst + suffix); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	if err := os.Rename(src, dst); err != nil {
		m.logger.Err(err).Str("func", "*localDatabases.Replace").Msg("error swapping database files")
		return fmt.Errorf("error swapping database files: %w", err)
	}
	return nil
}

// WriteBuffer stores state next to the database. The file is written under a
// temporary name and renamed, so a reader sees either nothing or all of it.
func (m *localDatabases) WriteBuffer(path string, state PreservedState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("error creating heal buffer: %w", err)
	}
	if _, err = f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("error writing heal buffer: %w", err)
	}
	if err = f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("error syncing heal buffer: %w", err)
	}
	if err = f.Close(); err != nil {
		return err
	}

	return os.Rename(tmp, path)
}

func (m *localDatabases) ReadBuffer(path string) (PreservedState, bool, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return PreservedState{}, false, nil
	}
	if err != nil {
		return PreservedState{}, false, err
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var state PreservedState
	if err = dec.Decode(&state); err != nil {
		return PreservedState{}, false, fmt.Errorf("%w: %w", ErrHealBufferCorrupted, err)
	}
	if state.Session == nil {
		state.Session = make(map[string]string)
	}
	return state, true, nil
}

func (m *localDatabases) RemoveBuffer(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

func tableNames(ctx context.Context, q queryer) (map[string]struct{}, error) {
	rows, err := q.QueryContext(ctx, selectTableNames)
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

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	}
	return fmt.Sprint(v)
}

func asInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	case int:
		return int64(n)
	}
	return 0
}

func short(fingerprint string) string {
	if len(fingerprint) > 12 {
		return fingerprint[:12]
	}
	if fingerprint == "" {
		return "<none>"
	}
	return fingerprint
}
