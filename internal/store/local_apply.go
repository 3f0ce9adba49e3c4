package store

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-offline-sync/internal/schema"
	"github.com/MKhiriev/go-offline-sync/models"
)

const (
	suspendCapture = `UPDATE sync_control SET apply_remote = 1 WHERE id = 1;`
	resumeCapture  = `UPDATE sync_control SET apply_remote = 0 WHERE id = 1;`
)

// noPendingChange renders a condition that holds while no queued change
// exists for the row addressed by pk.
func noPendingChange(desc models.TableDescriptor, pk models.Row) (sq.Sqlizer, error) {
	expr, cols := rowKeyPlaceholders(desc)

	args := make([]any, 0, len(cols)+1)
	args = append(args, desc.Name)
	for _, col := range cols {
		v, ok := pk[col]
		if !ok {
			return nil, fmt.Errorf("%w: %q.%q", ErrMissingPrimaryKey, desc.Name, col)
		}
		kind, _ := desc.ColumnKind(col)
		sv, err := schema.StorageValue(kind, v)
		if err != nil {
			return nil, err
		}
		args = append(args, sv)
	}

	return sq.Expr("NOT EXISTS (SELECT 1 FROM pending_changes WHERE table_name = ? AND row_key = "+expr+")", args...), nil
}

// pkWhere builds the primary key equality for desc.
func pkWhere(desc models.TableDescriptor, row models.Row) (sq.Eq, error) {
	where := make(sq.Eq, len(desc.PrimaryKey))
	for _, col := range desc.PrimaryKey {
		v, ok := row[col]
		if !ok || v == nil {
			return nil, fmt.Errorf("%w: %q.%q", ErrMissingPrimaryKey, desc.Name, col)
		}
		kind, _ := desc.ColumnKind(col)
		sv, err := schema.StorageValue(kind, v)
		if err != nil {
			return nil, err
		}
		where[quoteIdent(col)] = sv
	}
	return where, nil
}

// stampRow adopts the server's sync columns for an accepted row. Columns of
// the update trigger are not touched, so nothing is captured.
func stampRow(ctx context.Context, ex execer, desc models.TableDescriptor, row models.SyncableRow) error {
	where, err := pkWhere(desc, row.Values)
	if err != nil {
		return err
	}
	guard, err := noPendingChange(desc, row.Values)
	if err != nil {
		return err
	}

	query, args, err := sq.Update(quoteIdent(desc.Name)).
		Set(quoteIdent(models.ColumnSyncVersion), row.SyncVersion).
		Set(quoteIdent(models.ColumnLastModifiedAt), formatSyncTime(row.LastModifiedAt)).
		Set(quoteIdent(models.ColumnDeviceID), row.DeviceID).
		Where(where).
		Where(guard).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = ex.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

// applyRemoteRows writes authoritative rows with capture suspended. Rows that
// still have a queued local change are left alone. The caller owns the
// transaction, so a failure also rolls back the suspension.
func applyRemoteRows(ctx context.Context, ex execer, desc models.TableDescriptor, rows []models.SyncableRow) error {
	if _, err := ex.ExecContext(ctx, suspendCapture); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}

	for _, row := range rows {
		var err error
		if row.Deleted {
			err = deleteRemoteRow(ctx, ex, desc, row)
		} else {
			err = upsertRemoteRow(ctx, ex, desc, row)
		}
		if err != nil {
			return err
		}
	}

	if _, err := ex.ExecContext(ctx, resumeCapture); err != nil {
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

func upsertRemoteRow(ctx context.Context, ex execer, desc models.TableDescriptor, row models.SyncableRow) error {
	guard, err := noPendingChange(desc, row.Values)
	if err != nil {
		return err
	}

	columns := make([]string, 0, len(desc.Columns)+len(models.SyncColumns))
	sel := sq.Select()
	for _, c := range desc.Columns {
		v, ok := row.Values[c.Name]
		if !ok {
			continue
		}
		sv, err := schema.StorageValue(c.Kind, v)
		if err != nil {
			return fmt.Errorf("%q.%q: %w", desc.Name, c.Name, err)
		}
		columns = append(columns, quoteIdent(c.Name))
		sel = sel.Column("?", sv)
	}
	columns = append(columns, quoteIdents(models.SyncColumns)...)
	sel = sel.
		Column("?", row.SyncVersion).
		Column("?", formatSyncTime(row.LastModifiedAt)).
		Column("?", row.DeviceID).
		Where(guard)

	updates := make([]string, 0, len(columns))
	for _, col := range columns {
		updates = append(updates, fmt.Sprintf("%s = excluded.%s", col, col))
	}

	query, args, err := sq.Insert(quoteIdent(desc.Name)).
		Columns(columns...).
		Select(sel).
		Suffix(fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s",
			strings.Join(quoteIdents(desc.PrimaryKey), ", "), strings.Join(updates, ", "))).
		ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = ex.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: applying %q row: %w", ErrExecutingStatement, desc.Name, err)
	}
	return nil
}

func deleteRemoteRow(ctx context.Context, ex execer, desc models.TableDescriptor, row models.SyncableRow) error {
	where, err := pkWhere(desc, row.Values)
	if err != nil {
		return err
	}
	guard, err := noPendingChange(desc, row.Values)
	if err != nil {
		return err
	}

	query, args, err := sq.Delete(quoteIdent(desc.Name)).Where(where).Where(guard).ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = ex.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("%w: deleting %q row: %w", ErrExecutingStatement, desc.Name, err)
	}
	return nil
}
