package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/schema"
	"github.com/MKhiriev/go-offline-sync/models"
)

type localRowRepository struct {
	db       *DB
	registry *schema.Registry
	logger   *logger.Logger
}

// NewLocalRowRepository returns a [LocalRowRepository] for the tables of
// registry.
func NewLocalRowRepository(db *DB, registry *schema.Registry, logger *logger.Logger) LocalRowRepository {
	return &localRowRepository{db: db, registry: registry, logger: logger}
}

// PutRow inserts row or, when its key exists, updates the given columns.
func (r *localRowRepository) PutRow(ctx context.Context, table string, row models.Row) error {
	desc, err := r.registry.Describe(table)
	if err != nil {
		return err
	}
	if _, err = pkWhere(desc, row); err != nil {
		return err
	}

	columns, values, err := storageColumns(desc, row)
	if err != nil {
		return err
	}

	builder := sq.Insert(quoteIdent(desc.Name)).Columns(columns...).Values(values...)

	var updates []string
	for _, col := range columns {
		if !desc.IsPrimaryKey(strings.Trim(col, `"`)) {
			updates = append(updates, fmt.Sprintf("%s = excluded.%s", col, col))
		}
	}
	if len(updates) > 0 {
		builder = builder.Suffix(fmt.Sprintf("ON CONFLICT (%s) DO UPDATE SET %s",
			strings.Join(quoteIdents(desc.PrimaryKey), ", "), strings.Join(updates, ", ")))
	} else {
		builder = builder.Suffix("ON CONFLICT DO NOTHING")
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	if _, err = r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Err(err).Str("func", "*localRowRepository.PutRow").Str("table", table).Msg("error writing row")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	return nil
}

// UpdateRow changes the non-key columns present in row.
func (r *localRowRepository) UpdateRow(ctx context.Context, table string, row models.Row) error {
	desc, err := r.registry.Describe(table)
	if err != nil {
		return err
	}
	where, err := pkWhere(desc, row)
	if err != nil {
		return err
	}

	builder := sq.Update(quoteIdent(desc.Name)).Where(where)
	changed := 0
	for _, c := range desc.Columns {
		v, ok := row[c.Name]
		if !ok || desc.IsPrimaryKey(c.Name) {
			continue
		}
		sv, err := schema.StorageValue(c.Kind, v)
		if err != nil {
			return fmt.Errorf("%q.%q: %w", desc.Name, c.Name, err)
		}
		builder = builder.Set(quoteIdent(c.Name), sv)
		changed++
	}
	if err = checkColumns(desc, row); err != nil {
		return err
	}
	if changed == 0 {
		return nil
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Err(err).Str("func", "*localRowRepository.UpdateRow").Str("table", table).Msg("error updating row")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRowNotFound
	}
	return nil
}

func (r *localRowRepository) DeleteRow(ctx context.Context, table string, pk models.Row) error {
	desc, err := r.registry.Describe(table)
	if err != nil {
		return err
	}
	where, err := pkWhere(desc, pk)
	if err != nil {
		return err
	}

	query, args, err := sq.Delete(quoteIdent(desc.Name)).Where(where).ToSql()
	if err != nil {
		return fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Err(err).Str("func", "*localRowRepository.DeleteRow").Str("table", table).Msg("error deleting row")
		return fmt.Errorf("%w: %w", ErrExecutingStatement, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRowNotFound
	}
	return nil
}

func (r *localRowRepository) GetRow(ctx context.Context, table string, pk models.Row) (models.SyncableRow, error) {
	desc, err := r.registry.Describe(table)
	if err != nil {
		return models.SyncableRow{}, err
	}
	where, err := pkWhere(desc, pk)
	if err != nil {
		return models.SyncableRow{}, err
	}

	rows, err := r.selectRows(ctx, desc, where)
	if err != nil {
		r.logger.Err(err).Str("func", "*localRowRepository.GetRow").Str("table", table).Msg("error reading row")
		return models.SyncableRow{}, err
	}
	if len(rows) == 0 {
		return models.SyncableRow{}, ErrRowNotFound
	}
	return rows[0], nil
}

func (r *localRowRepository) ListRows(ctx context.Context, table string) ([]models.SyncableRow, error) {
	desc, err := r.registry.Describe(table)
	if err != nil {
		return nil, err
	}

	rows, err := r.selectRows(ctx, desc, nil)
	if err != nil {
		r.logger.Err(err).Str("func", "*localRowRepository.ListRows").Str("table", table).Msg("error listing rows")
		return nil, err
	}
	return rows, nil
}

func (r *localRowRepository) selectRows(ctx context.Context, desc models.TableDescriptor, where sq.Sqlizer) ([]models.SyncableRow, error) {
	columns := append(desc.ColumnNames(), models.SyncColumns...)

	builder := sq.Select(quoteIdents(columns)...).From(quoteIdent(desc.Name)).OrderBy(quoteIdents(desc.PrimaryKey)...)
	if where != nil {
		builder = builder.Where(where)
	}

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrBuildingSQLQuery, err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrExecutingQuery, err)
	}
	defer rows.Close()

	var out []models.SyncableRow
	for rows.Next() {
		row, err := scanLocalRow(rows, desc)
		if err != nil {
			return nil, err
		}
		out = append(out, row)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrScanningRows, err)
	}
	return out, nil
}

func scanLocalRow(rows *sql.Rows, desc models.TableDescriptor) (models.SyncableRow, error) {
	values := make([]any, len(desc.Columns))
	dest := make([]any, 0, len(desc.Columns)+len(models.SyncColumns))
	for i := range values {
		dest = append(dest, &values[i])
	}

	var (
		version  int64
		modified string
		deviceID string
	)
	dest = append(dest, &version, &modified, &deviceID)

	if err := rows.Scan(dest...); err != nil {
		return models.SyncableRow{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	raw := make(models.Row, len(desc.Columns))
	for i, c := range desc.Columns {
		raw[c.Name] = values[i]
	}
	normalized, err := schema.Normalize(desc, raw)
	if err != nil {
		return models.SyncableRow{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	modifiedAt, err := schema.ParseTimestamp(modified)
	if err != nil {
		return models.SyncableRow{}, fmt.Errorf("%w: %w", ErrScanningRow, err)
	}

	return models.SyncableRow{
		Table:          desc.Name,
		Values:         normalized,
		SyncVersion:    version,
		LastModifiedAt: modifiedAt,
		DeviceID:       deviceID,
	}, nil
}

// storageColumns converts row into quoted column names and local storage
// values in descriptor order.
func storageColumns(desc models.TableDescriptor, row models.Row) ([]string, []any, error) {
	if err := checkColumns(desc, row); err != nil {
		return nil, nil, err
	}

	columns := make([]string, 0, len(row))
	values := make([]any, 0, len(row))
	for _, c := range desc.Columns {
		v, ok := row[c.Name]
		if !ok {
			continue
		}
		sv, err := schema.StorageValue(c.Kind, v)
		if err != nil {
			return nil, nil, fmt.Errorf("%q.%q: %w", desc.Name, c.Name, err)
		}
		columns = append(columns, quoteIdent(c.Name))
		values = append(values, sv)
	}
	return columns, values, nil
}

func checkColumns(desc models.TableDescriptor, row models.Row) error {
	for col := range row {
		if _, ok := desc.ColumnKind(col); !ok {
			return fmt.Errorf("%w: %q.%q", schema.ErrUnknownColumn, desc.Name, col)
		}
	}
	return nil
}
