package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/schema"
	"github.com/MKhiriev/go-offline-sync/models"
)

func localTestArtifact() models.SchemaArtifact {
	return models.SchemaArtifact{
		Version: 1,
		Tables: []models.TableDescriptor{
			{
				Name:       "projects",
				PrimaryKey: []string{"id"},
				Columns: []models.ColumnDescriptor{
					{Name: "id", Kind: models.KindScalar},
					{Name: "name", Kind: models.KindScalar},
				},
				ConflictColumns: []string{"name"},
			},
			{
				Name:       "tasks",
				PrimaryKey: []string{"id"},
				Columns: []models.ColumnDescriptor{
					{Name: "id", Kind: models.KindScalar},
					{Name: "project_id", Kind: models.KindScalar},
					{Name: "title", Kind: models.KindScalar},
					{Name: "done", Kind: models.KindBoolean},
					{Name: "due_at", Kind: models.KindTimestamp, Nullable: true},
					{Name: "meta", Kind: models.KindJSON, Nullable: true},
				},
				ConflictColumns: []string{"title", "done", "due_at", "meta"},
				DependencyRank:  1,
			},
			{
				Name:       "task_tags",
				PrimaryKey: []string{"task_id", "tag"},
				Columns: []models.ColumnDescriptor{
					{Name: "task_id", Kind: models.KindScalar},
					{Name: "tag", Kind: models.KindScalar},
				},
				DependencyRank: 2,
			},
		},
	}
}

func newTestRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg, err := schema.New(localTestArtifact())
	require.NoError(t, err)
	return reg
}

func newTestLocalStore(t *testing.T) (*ClientStorages, *schema.Registry) {
	t.Helper()
	reg := newTestRegistry(t)

	s, err := NewClientStorages(context.Background(), filepath.Join(t.TempDir(), "local.db"), reg, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	require.NoError(t, s.Meta.SetMeta(context.Background(), MetaDeviceID, "dev-a"))
	return s, reg
}

func listAll(t *testing.T, s *ClientStorages, table string) []models.PendingChange {
	t.Helper()
	changes, err := s.Outbox.ListByTable(context.Background(), table)
	require.NoError(t, err)
	return changes
}

// ── Capture ──────────────────────────────────────────────────────────────────

func TestCapture_InsertUpdateDelete(t *testing.T) {
	s, _ := newTestLocalStore(t)
	ctx := context.Background()

	require.NoError(t, s.Rows.PutRow(ctx, "tasks", models.Row{"id": 1, "project_id": 1, "title": "write", "done": false}))

	changes := listAll(t, s, "tasks")
	require.Len(t, changes, 1)
	assert.Equal(t, models.OperationInsert, changes[0].Operation)
	assert.Equal(t, int64(0), changes[0].BaseSyncVersion)
	assert.Equal(t, int64(1), changes[0].SyncVersion)
	assert.Equal(t, "dev-a", changes[0].DeviceID)
	assert.Len(t, changes[0].ChangeKey, 32)
	assert.Equal(t, models.Row{"id": int64(1)}.Key(), normalizedKey(t, changes[0].PrimaryKey))
	assert.Equal(t, "write", changes[0].Snapshot["title"])

	require.NoError(t, s.Rows.UpdateRow(ctx, "tasks", models.Row{"id": 1, "done": true}))

	row, err := s.Rows.GetRow(ctx, "tasks", models.Row{"id": 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), row.SyncVersion)
	assert.Equal(t, true, row.Values["done"])
	assert.Equal(t, "dev-a", row.DeviceID)

	require.NoError(t, s.Rows.DeleteRow(ctx, "tasks", models.Row{"id": 1}))

	changes = listAll(t, s, "tasks")
	require.Len(t, changes, 3)

	assert.Equal(t, models.OperationUpdate, changes[1].Operation)
	assert.Equal(t, int64(1), changes[1].BaseSyncVersion)
	assert.Equal(t, int64(2), changes[1].SyncVersion)

	assert.Equal(t, models.OperationDelete, changes[2].Operation)
	assert.Equal(t, int64(2), changes[2].BaseSyncVersion)
	assert.Equal(t, int64(3), changes[2].SyncVersion)
	assert.Nil(t, changes[2].Snapshot)

	_, err = s.Rows.GetRow(ctx, "tasks", models.Row{"id": 1})
	assert.ErrorIs(t, err, ErrRowNotFound)
}

func TestCapture_RolledBackMutationLeavesNoChange(t *testing.T) {
	s, _ := newTestLocalStore(t)
	ctx := context.Background()

	tx, err := s.DB.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = tx.ExecContext(ctx, `INSERT INTO "projects" ("id", "name") VALUES (1, 'a');`)
	require.NoError(t, err)
	require.NoError(t, tx.Rollback())

	assert.Empty(t, listAll(t, s, "projects"))
	rows, err := s.Rows.ListRows(ctx, "projects")
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestCapture_FailureMidTransaction(t *testing.T) {
	s, _ := newTestLocalStore(t)
	ctx := context.Background()

	tx, err := s.DB.BeginTx(ctx, nil)
	require.NoError(t, err)
	_, err = tx.ExecContext(ctx, `INSERT INTO "projects" ("id", "name") VALUES (1, 'a');`)
	require.NoError(t, err)

	// name is NOT NULL
	_, err = tx.ExecContext(ctx, `INSERT INTO "projects" ("id", "name") VALUES (2, NULL);`)
	require.Error(t, err)
	require.NoError(t, tx.Rollback())

	assert.Empty(t, listAll(t, s, "projects"))
}

func TestCapture_InvalidJSONRejectsMutation(t *testing.T) {
	s, _ := newTestLocalStore(t)
	ctx := context.Background()

	_, err := s.DB.ExecContext(ctx, `INSERT INTO "tasks" ("id", "project_id", "title", "done", "meta") VALUES (1, 1, 't', 0, '{broken');`)
	require.Error(t, err)

	assert.Empty(t, listAll(t, s, "tasks"))
}

func TestCapture_CompositeKeyMatchesRowKey(t *testing.T) {
	s, reg := newTestLocalStore(t)
	ctx := context.Background()

	require.NoError(t, s.Rows.PutRow(ctx, "task_tags", models.Row{"tag": "urgent", "task_id": 9}))

	changes := listAll(t, s, "task_tags")
	require.Len(t, changes, 1)

	desc, err := reg.Describe("task_tags")
	require.NoError(t, err)
	pk, err := schema.Normalize(desc, changes[0].PrimaryKey)
	require.NoError(t, err)
	assert.Equal(t, `{"tag":"urgent","task_id":9}`, pk.Key())
}

func TestCapture_KeyChangeRetiresOldKey(t *testing.T) {
	s, _ := newTestLocalStore(t)
	ctx := context.Background()

	require.NoError(t, s.Rows.PutRow(ctx, "projects", models.Row{"id": 1, "name": "a"}))
	_, err := s.DB.ExecContext(ctx, `UPDATE "projects" SET "id" = 2 WHERE "id" = 1;`)
	require.NoError(t, err)

	changes := listAll(t, s, "projects")
	require.Len(t, changes, 3)
	assert.Equal(t, models.OperationDelete, changes[1].Operation)
	assert.Equal(t, `{"id":1}`, normalizedKey(t, changes[1].PrimaryKey))
	assert.Equal(t, models.OperationUpdate, changes[2].Operation)
	assert.Equal(t, `{"id":2}`, normalizedKey(t, changes[2].PrimaryKey))
}

func TestVerifyCapture_DetectsMissingTrigger(t *testing.T) {
	s, reg := newTestLocalStore(t)
	ctx := context.Background()

	require.NoError(t, s.Capture.VerifyCapture(ctx, reg.Tables()))

	_, err := s.DB.ExecContext(ctx, `DROP TRIGGER "tasks_capture_update";`)
	require.NoError(t, err)

	err = s.Capture.VerifyCapture(ctx, reg.Tables())
	assert.ErrorIs(t, err, ErrCaptureNotInstalled)
	assert.Contains(t, err.Error(), "tasks_capture_update")

	// re-arming restores it
	require.NoError(t, s.Capture.ArmCapture(ctx, reg.Tables()))
	assert.NoError(t, s.Capture.VerifyCapture(ctx, reg.Tables()))
}

func TestCapture_SuspendedWhileApplyingRemote(t *testing.T) {
	s, _ := newTestLocalStore(t)
	ctx := context.Background()

	_, err := s.DB.ExecContext(ctx, suspendCapture)
	require.NoError(t, err)
	_, err = s.DB.ExecContext(ctx, `INSERT INTO "projects" ("id", "name") VALUES (1, 'remote');`)
	require.NoError(t, err)
	_, err = s.DB.ExecContext(ctx, resumeCapture)
	require.NoError(t, err)

	assert.Empty(t, listAll(t, s, "projects"))
}

func normalizedKey(t *testing.T, pk models.Row) string {
	t.Helper()
	out := make(models.Row, len(pk))
	for k, v := range pk {
		nv, err := schema.NormalizeValue(models.KindScalar, v)
		require.NoError(t, err)
		out[k] = nv
	}
	return out.Key()
}
