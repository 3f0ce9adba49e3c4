package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-offline-sync/models"
)

func TestWatermarks_EmptyCursorForNewTable(t *testing.T) {
	s, _ := newTestLocalStore(t)

	wm, err := s.Watermarks.GetWatermark(context.Background(), "tasks")
	require.NoError(t, err)
	assert.Equal(t, "tasks", wm.Table)
	assert.Empty(t, wm.Cursor)
	assert.Nil(t, wm.LastPulledAt)
}

func TestApplyPulledPage_WritesRowsWithoutCapture(t *testing.T) {
	s, reg := newTestLocalStore(t)
	ctx := context.Background()

	desc, err := reg.Describe("tasks")
	require.NoError(t, err)

	due := time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC)
	pulledAt := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)

	err = s.Watermarks.ApplyPulledPage(ctx, PulledPage{
		Table: desc,
		Rows: []models.SyncableRow{
			{
				Table: "tasks",
				Values: models.Row{
					"id": int64(1), "project_id": int64(1), "title": "remote", "done": true,
					"due_at": due, "meta": json.RawMessage(`{"b":1,"a":[1,2]}`),
				},
				SyncVersion: 3, LastModifiedAt: pulledAt, DeviceID: "dev-b",
			},
		},
		Cursor:   "15",
		PulledAt: pulledAt,
	})
	require.NoError(t, err)

	assert.Empty(t, listAll(t, s, "tasks"))

	row, err := s.Rows.GetRow(ctx, "tasks", models.Row{"id": 1})
	require.NoError(t, err)
	assert.Equal(t, true, row.Values["done"])
	assert.True(t, due.Equal(row.Values["due_at"].(time.Time)))
	assert.JSONEq(t, `{"a":[1,2],"b":1}`, string(row.Values["meta"].(json.RawMessage)))
	assert.Equal(t, int64(3), row.SyncVersion)
	assert.Equal(t, "dev-b", row.DeviceID)

	wm, err := s.Watermarks.GetWatermark(ctx, "tasks")
	require.NoError(t, err)
	assert.Equal(t, "15", wm.Cursor)
	require.NotNil(t, wm.LastPulledAt)
	assert.True(t, pulledAt.Equal(*wm.LastPulledAt))

	// capture is armed again after the page
	require.NoError(t, s.Rows.UpdateRow(ctx, "tasks", models.Row{"id": 1, "title": "local"}))
	assert.Len(t, listAll(t, s, "tasks"), 1)
}

func TestApplyPulledPage_SkipsRowsWithPendingChanges(t *testing.T) {
	s, reg := newTestLocalStore(t)
	ctx := context.Background()
	seedProjects(t, s, 1)

	desc, err := reg.Describe("projects")
	require.NoError(t, err)

	err = s.Watermarks.ApplyPulledPage(ctx, PulledPage{
		Table: desc,
		Rows: []models.SyncableRow{
			{Table: "projects", Values: models.Row{"id": int64(1), "name": "remote"}, SyncVersion: 5, LastModifiedAt: time.Now()},
			{Table: "projects", Values: models.Row{"id": int64(2), "name": "other"}, SyncVersion: 1, LastModifiedAt: time.Now()},
		},
		Cursor:   "2",
		PulledAt: time.Now(),
	})
	require.NoError(t, err)

	row, err := s.Rows.GetRow(ctx, "projects", models.Row{"id": 1})
	require.NoError(t, err)
	assert.Equal(t, "p", row.Values["name"])

	row, err = s.Rows.GetRow(ctx, "projects", models.Row{"id": 2})
	require.NoError(t, err)
	assert.Equal(t, "other", row.Values["name"])
}

func TestApplyPulledPage_DiscardThenApply(t *testing.T) {
	s, reg := newTestLocalStore(t)
	ctx := context.Background()
	seedProjects(t, s, 1)

	desc, err := reg.Describe("projects")
	require.NoError(t, err)

	pending := listAll(t, s, "projects")

	err = s.Watermarks.ApplyPulledPage(ctx, PulledPage{
		Table:   desc,
		Discard: changeIDs(pending),
		Rows: []models.SyncableRow{
			{Table: "projects", Values: models.Row{"id": int64(1)}, SyncVersion: 8, LastModifiedAt: time.Now(), Deleted: true},
		},
		Cursor:   "9",
		PulledAt: time.Now(),
	})
	require.NoError(t, err)

	assert.Empty(t, listAll(t, s, "projects"))
	_, err = s.Rows.GetRow(ctx, "projects", models.Row{"id": 1})
	assert.ErrorIs(t, err, ErrRowNotFound)
}

func TestApplyPulledPage_RebaseKeepsLocalRow(t *testing.T) {
	s, reg := newTestLocalStore(t)
	ctx := context.Background()
	seedProjects(t, s, 1)

	desc, err := reg.Describe("projects")
	require.NoError(t, err)

	pending := listAll(t, s, "projects")

	err = s.Watermarks.ApplyPulledPage(ctx, PulledPage{
		Table:    desc,
		Rebase:   []Rebase{{ChangeIDs: changeIDs(pending), Version: 4}},
		Cursor:   "4",
		PulledAt: time.Now(),
	})
	require.NoError(t, err)

	after := listAll(t, s, "projects")
	require.Len(t, after, 1)
	assert.Equal(t, int64(4), after[0].EffectiveBaseVersion())
}

func TestApplyPulledPage_FailureKeepsWatermark(t *testing.T) {
	s, reg := newTestLocalStore(t)
	ctx := context.Background()

	desc, err := reg.Describe("projects")
	require.NoError(t, err)

	// name is NOT NULL, so the page fails half way
	err = s.Watermarks.ApplyPulledPage(ctx, PulledPage{
		Table: desc,
		Rows: []models.SyncableRow{
			{Table: "projects", Values: models.Row{"id": int64(1), "name": "ok"}, SyncVersion: 1, LastModifiedAt: time.Now()},
			{Table: "projects", Values: models.Row{"id": int64(2), "name": nil}, SyncVersion: 1, LastModifiedAt: time.Now()},
		},
		Cursor:   "2",
		PulledAt: time.Now(),
	})
	require.Error(t, err)

	wm, err := s.Watermarks.GetWatermark(ctx, "projects")
	require.NoError(t, err)
	assert.Empty(t, wm.Cursor)

	rows, err := s.Rows.ListRows(ctx, "projects")
	require.NoError(t, err)
	assert.Empty(t, rows)

	// capture was not left suspended
	seedProjects(t, s, 3)
	assert.Len(t, listAll(t, s, "projects"), 1)
}
