package store

import (
	"strings"

	"github.com/MKhiriev/go-offline-sync/models"
	sq "github.com/Masterminds/squirrel"
)

// buildPullRowsQuery selects one page of a table after since, fetching one
// extra row so the caller can tell whether another page follows.
func buildPullRowsQuery(userID int64, table string, since int64, limit int) (string, []any, error) {
	return sq.Select("table_name", "primary_key", "row_data", "sync_version", "last_modified_at", "device_id", "deleted", "server_seq").
		From("sync_rows").
		Where(sq.Eq{"user_id": userID, "table_name": table}).
		Where(sq.Gt{"server_seq": since}).
		OrderBy("server_seq").
		Limit(uint64(limit + 1)).
		PlaceholderFormat(sq.Dollar).
		ToSql()
}

var userColumns = []string{"user_id", "login", "password_hash", "created_at"}

func buildCreateUserQuery(user models.User) (string, []any, error) {
	return sq.Insert(user.TableName()).
		Columns("login", "password_hash").
		Values(user.Login, user.PasswordHash).
		Suffix("RETURNING " + strings.Join(userColumns, ", ")).
		PlaceholderFormat(sq.Dollar).
		ToSql()
}

func buildFindUserQuery(login string) (string, []any, error) {
	return sq.Select(userColumns...).
		From(models.User{}.TableName()).
		Where(sq.Eq{"login": login}).
		PlaceholderFormat(sq.Dollar).
		ToSql()
}

const (
	// pushes of one user are serialized so server_seq grows in commit order
	lockUserRows = `SELECT pg_advisory_xact_lock($1);`

	selectAppliedChange = `SELECT status FROM sync_applied_changes
		WHERE user_id = $1 AND change_key = $2;`

	recordAppliedChange = `INSERT INTO sync_applied_changes (user_id, change_key, table_name, row_key, status)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id, change_key) DO NOTHING;`

	pruneAppliedChanges = `DELETE FROM sync_applied_changes WHERE applied_at < $1;`

	selectSyncRow = `SELECT table_name, primary_key, row_data, sync_version, last_modified_at, device_id, deleted
		FROM sync_rows
		WHERE user_id = $1 AND table_name = $2 AND row_key = $3;`

	insertSyncRow = `INSERT INTO sync_rows (user_id, table_name, row_key, primary_key, row_data, sync_version, last_modified_at, device_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (user_id, table_name, row_key) DO NOTHING
		RETURNING sync_version;`

	// updated_version is NULL when the base version did not match;
	// current_version is NULL when the row does not exist.
	casUpdateSyncRow = `WITH target_record AS (
		SELECT sync_version
		FROM sync_rows
		WHERE user_id = $1 AND table_name = $2 AND row_key = $3
	),
	updated_record AS (
		UPDATE sync_rows
		SET primary_key      = $4,
		    row_data         = $5,
		    sync_version     = GREATEST(sync_rows.sync_version + 1, $6),
		    last_modified_at = $7,
		    device_id        = $8,
		    deleted          = FALSE,
		    server_seq       = nextval('sync_rows_server_seq')
		WHERE user_id = $1 AND table_name = $2 AND row_key = $3
		  AND ((NOT deleted AND sync_version = $9) OR (deleted AND $10))
		RETURNING sync_version
	)
	SELECT
		(SELECT sync_version FROM updated_record) AS updated_version,
		(SELECT sync_version FROM target_record)  AS current_version;`

	casDeleteSyncRow = `WITH target_record AS (
		SELECT sync_version
		FROM sync_rows
		WHERE user_id = $1 AND table_name = $2 AND row_key = $3
	),
	updated_record AS (
		UPDATE sync_rows
		SET row_data         = primary_key,
		    sync_version     = GREATEST(sync_rows.sync_version + 1, $4),
		    last_modified_at = $5,
		    device_id        = $6,
		    deleted          = TRUE,
		    server_seq       = nextval('sync_rows_server_seq')
		WHERE user_id = $1 AND table_name = $2 AND row_key = $3
		  AND NOT deleted AND sync_version = $7
		RETURNING sync_version
	)
	SELECT
		(SELECT sync_version FROM updated_record) AS updated_version,
		(SELECT sync_version FROM target_record)  AS current_version;`
)
