package store

import (
	"fmt"
	"slices"
	"strings"

	"github.com/MKhiriev/go-offline-sync/models"
)

// sqliteNow renders the current instant with millisecond precision. The
// layout matches syncTimeLayout, so stored timestamps order lexicographically.
const sqliteNow = `strftime('%Y-%m-%dT%H:%M:%fZ', 'now')`

const (
	localDeviceID = `COALESCE((SELECT value FROM sync_meta WHERE key = 'device_id'), '')`
	captureArmed  = `COALESCE((SELECT apply_remote FROM sync_control WHERE id = 1), 0) = 0`
)

// Trigger name suffixes installed on every described table.
const (
	triggerInsertSuffix = "_capture_insert"
	triggerUpdateSuffix = "_capture_update"
	triggerDeleteSuffix = "_capture_delete"
)

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteLiteral(s string) string {
	return `'` + strings.ReplaceAll(s, `'`, `''`) + `'`
}

func quoteIdents(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = quoteIdent(n)
	}
	return out
}

// sqliteColumnType maps a column kind to its declared local type. Scalars
// are left untyped so SQLite keeps whatever the application wrote.
func sqliteColumnType(kind models.ColumnKind) string {
	switch kind {
	case models.KindBoolean:
		return "INTEGER"
	case models.KindTimestamp, models.KindJSON:
		return "TEXT"
	}
	return ""
}

// createTableDDL renders the local table of desc with its sync bookkeeping
// columns appended.
func createTableDDL(desc models.TableDescriptor) string {
	var b strings.Builder
	fmt.Fprintf(&b, "CREATE TABLE IF NOT EXISTS %s (\n", quoteIdent(desc.Name))

	for _, c := range desc.Columns {
		b.WriteString("\t" + quoteIdent(c.Name))
		if typ := sqliteColumnType(c.Kind); typ != "" {
			b.WriteString(" " + typ)
		}
		if !c.Nullable || desc.IsPrimaryKey(c.Name) {
			b.WriteString(" NOT NULL")
		}
		b.WriteString(",\n")
	}

	fmt.Fprintf(&b, "\t%s INTEGER NOT NULL DEFAULT 1,\n", quoteIdent(models.ColumnSyncVersion))
	fmt.Fprintf(&b, "\t%s TEXT NOT NULL DEFAULT (%s),\n", quoteIdent(models.ColumnLastModifiedAt), sqliteNow)
	fmt.Fprintf(&b, "\t%s TEXT NOT NULL DEFAULT '',\n", quoteIdent(models.ColumnDeviceID))
	fmt.Fprintf(&b, "\tPRIMARY KEY (%s)\n);", strings.Join(quoteIdents(desc.PrimaryKey), ", "))

	return b.String()
}

// rowKeyExpr builds the json_object expression SQLite uses for row keys.
// Keys are emitted in sorted order so the text equals models.Row.Key of the
// same normalized primary key.
func rowKeyExpr(desc models.TableDescriptor, ref string) string {
	pk := slices.Clone(desc.PrimaryKey)
	slices.Sort(pk)

	parts := make([]string, 0, len(pk)*2)
	for _, col := range pk {
		kind, _ := desc.ColumnKind(col)
		parts = append(parts, quoteLiteral(col), columnJSONExpr(kind, ref+quoteIdent(col)))
	}
	return "json_object(" + strings.Join(parts, ", ") + ")"
}

// rowKeyPlaceholders is rowKeyExpr with bound parameters in place of column
// references, one per sorted key column.
func rowKeyPlaceholders(desc models.TableDescriptor) (string, []string) {
	pk := slices.Clone(desc.PrimaryKey)
	slices.Sort(pk)

	parts := make([]string, 0, len(pk)*2)
	for _, col := range pk {
		kind, _ := desc.ColumnKind(col)
		parts = append(parts, quoteLiteral(col), columnJSONExpr(kind, "?"))
	}
	return "json_object(" + strings.Join(parts, ", ") + ")", pk
}

func snapshotExpr(desc models.TableDescriptor, ref string) string {
	cols := slices.Clone(desc.ColumnNames())
	slices.Sort(cols)

	parts := make([]string, 0, len(cols)*2)
	for _, col := range cols {
		kind, _ := desc.ColumnKind(col)
		parts = append(parts, quoteLiteral(col), columnJSONExpr(kind, ref+quoteIdent(col)))
	}
	return "json_object(" + strings.Join(parts, ", ") + ")"
}

// columnJSONExpr embeds JSON columns as documents rather than strings.
func columnJSONExpr(kind models.ColumnKind, expr string) string {
	if kind == models.KindJSON {
		return "json(" + expr + ")"
	}
	return expr
}

func pkMatch(desc models.TableDescriptor, ref string) string {
	conds := make([]string, 0, len(desc.PrimaryKey))
	for _, col := range desc.PrimaryKey {
		conds = append(conds, fmt.Sprintf("%s = %s%s", quoteIdent(col), ref, quoteIdent(col)))
	}
	return strings.Join(conds, " AND ")
}

func pendingInsert(desc models.TableDescriptor, op models.Operation, ref, snapshot, base, version string) string {
	return fmt.Sprintf(`INSERT INTO pending_changes
		(change_key, table_name, row_key, operation, snapshot, base_sync_version, sync_version, captured_at, device_id)
		VALUES (lower(hex(randomblob(16))), %s, %s, '%s', %s, %s, %s, %s, %s);`,
		quoteLiteral(desc.Name), rowKeyExpr(desc, ref), op, snapshot, base, version, sqliteNow, localDeviceID)
}

// captureTriggersDDL renders the three capture triggers of desc. Each one
// writes to pending_changes inside the statement that fired it, so a
// mutation and its captured change commit or roll back together. Writes made
// while sync_control.apply_remote is set are not captured.
func captureTriggersDDL(desc models.TableDescriptor) []string {
	table := quoteIdent(desc.Name)
	syncVersion := quoteIdent(models.ColumnSyncVersion)
	stamp := fmt.Sprintf("%s = %s, %s = %s",
		quoteIdent(models.ColumnLastModifiedAt), sqliteNow,
		quoteIdent(models.ColumnDeviceID), localDeviceID)

	insertTrigger := fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s AFTER INSERT ON %s
	WHEN %s
	BEGIN
		UPDATE %s SET %s WHERE %s;
		%s
	END;`,
		quoteIdent(desc.Name+triggerInsertSuffix), table, captureArmed,
		table, stamp, pkMatch(desc, "NEW."),
		pendingInsert(desc, models.OperationInsert, "NEW.", snapshotExpr(desc, "NEW."),
			"NEW."+syncVersion+" - 1", "NEW."+syncVersion),
	)

	// a key change retires the old key remotely before the new one is written
	keyChangeDelete := fmt.Sprintf(`INSERT INTO pending_changes
		(change_key, table_name, row_key, operation, snapshot, base_sync_version, sync_version, captured_at, device_id)
		SELECT lower(hex(randomblob(16))), %s, %s, 'delete', NULL, OLD.%s, OLD.%s + 1, %s, %s
		WHERE %s <> %s;`,
		quoteLiteral(desc.Name), rowKeyExpr(desc, "OLD."), syncVersion, syncVersion, sqliteNow, localDeviceID,
		rowKeyExpr(desc, "OLD."), rowKeyExpr(desc, "NEW."))

	updateTrigger := fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s AFTER UPDATE OF %s ON %s
	WHEN %s
	BEGIN
		UPDATE %s SET %s = OLD.%s + 1, %s WHERE %s;
		%s
		%s
	END;`,
		quoteIdent(desc.Name+triggerUpdateSuffix), strings.Join(quoteIdents(desc.ColumnNames()), ", "), table,
		captureArmed,
		table, syncVersion, syncVersion, stamp, pkMatch(desc, "NEW."),
		keyChangeDelete,
		pendingInsert(desc, models.OperationUpdate, "NEW.", snapshotExpr(desc, "NEW."),
			"OLD."+syncVersion, "OLD."+syncVersion+" + 1"),
	)

	deleteTrigger := fmt.Sprintf(`CREATE TRIGGER IF NOT EXISTS %s AFTER DELETE ON %s
	WHEN %s
	BEGIN
		%s
	END;`,
		quoteIdent(desc.Name+triggerDeleteSuffix), table, captureArmed,
		pendingInsert(desc, models.OperationDelete, "OLD.", "NULL",
			"OLD."+syncVersion, "OLD."+syncVersion+" + 1"),
	)

	return []string{insertTrigger, updateTrigger, deleteTrigger}
}

func captureTriggerNames(desc models.TableDescriptor) []string {
	return []string{
		desc.Name + triggerInsertSuffix,
		desc.Name + triggerUpdateSuffix,
		desc.Name + triggerDeleteSuffix,
	}
}

func dropTriggersDDL(desc models.TableDescriptor) []string {
	names := captureTriggerNames(desc)
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = "DROP TRIGGER IF EXISTS " + quoteIdent(n) + ";"
	}
	return out
}
