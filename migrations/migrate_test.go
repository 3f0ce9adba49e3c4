// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package migrations

import (
	"database/sql"
	"path/filepath"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigratePostgres_DBError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}
	defer db.Close()

	_ = mock // не используем напрямую, goose сам будет ходить в DB

	err = MigratePostgres(db)
	if err == nil {
		t.Fatal("expected error from MigratePostgres, got nil")
	}

	if !strings.Contains(err.Error(), "migration error") {
		t.Errorf("expected wrapped migration error, got: %v", err)
	}
}

func TestMigrate_NilDB(t *testing.T) {
	var db *sql.DB

	for _, fn := range []func(*sql.DB) error{MigratePostgres, MigrateSQLite} {
		err := fn(db)
		if err == nil {
			t.Fatal("expected error when db is nil, got nil")
		}

		if !strings.Contains(err.Error(), "db is nil") {
			t.Errorf("expected 'db is nil' error, got: %v", err)
		}
	}
}

func TestMigrateSQLite_CreatesBookkeepingTables(t *testing.T) {
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "local.db"))
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, MigrateSQLite(db))
	// second run is a no-op
	require.NoError(t, MigrateSQLite(db))

	for _, table := range []string{"pending_changes", "sync_watermarks", "sync_meta", "sync_control"} {
		var name string
		err = db.QueryRow(`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		require.NoError(t, err, table)
		assert.Equal(t, table, name)
	}

	var applyRemote int
	require.NoError(t, db.QueryRow(`SELECT apply_remote FROM sync_control WHERE id = 1`).Scan(&applyRemote))
	assert.Zero(t, applyRemote)
}
