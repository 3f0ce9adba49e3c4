package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-offline-sync/models"
)

func seedProjects(t *testing.T, s *ClientStorages, ids ...int) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, s.Rows.PutRow(context.Background(), "projects", models.Row{"id": id, "name": "p"}))
	}
}

func changeIDs(changes []models.PendingChange) []int64 {
	ids := make([]int64, 0, len(changes))
	for _, c := range changes {
		ids = append(ids, c.ID)
	}
	return ids
}

// ── Retry metadata ───────────────────────────────────────────────────────────

func TestOutbox_ListReadyHonoursBackoff(t *testing.T) {
	s, _ := newTestLocalStore(t)
	ctx := context.Background()
	seedProjects(t, s, 1, 2)

	all := listAll(t, s, "projects")
	require.Len(t, all, 2)

	now := time.Now()
	require.NoError(t, s.Outbox.MarkFailed(ctx, []int64{all[0].ID}, "offline", now.Add(time.Minute)))

	ready, err := s.Outbox.ListReady(ctx, now)
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Equal(t, all[1].ID, ready[0].ID)

	ready, err = s.Outbox.ListReady(ctx, now.Add(2*time.Minute))
	require.NoError(t, err)
	assert.Len(t, ready, 2)

	failed := listAll(t, s, "projects")[0]
	assert.Equal(t, 1, failed.Attempts)
	assert.Equal(t, "offline", failed.LastError)
	require.NotNil(t, failed.NextAttemptAt)
}

func TestOutbox_RejectedStayParkedUntilRetried(t *testing.T) {
	s, _ := newTestLocalStore(t)
	ctx := context.Background()
	seedProjects(t, s, 1)

	all := listAll(t, s, "projects")
	require.NoError(t, s.Outbox.MarkRejected(ctx, changeIDs(all), "malformed row"))

	ready, err := s.Outbox.ListReady(ctx, time.Now().AddDate(100, 0, 0))
	require.NoError(t, err)
	assert.Empty(t, ready)

	n, err := s.Outbox.RetryRejected(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	ready, err = s.Outbox.ListReady(ctx, time.Now())
	require.NoError(t, err)
	require.Len(t, ready, 1)
	assert.Empty(t, ready[0].LastError)
	assert.Equal(t, 1, ready[0].Attempts)
}

func TestOutbox_RebaseAndCount(t *testing.T) {
	s, _ := newTestLocalStore(t)
	ctx := context.Background()
	seedProjects(t, s, 1, 2)
	require.NoError(t, s.Rows.PutRow(ctx, "tasks", models.Row{"id": 1, "project_id": 1, "title": "t", "done": false}))

	counts, err := s.Outbox.CountByTable(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"projects": 2, "tasks": 1}, counts)

	all := listAll(t, s, "projects")
	require.NoError(t, s.Outbox.Rebase(ctx, []int64{all[0].ID}, 7))

	all = listAll(t, s, "projects")
	require.NotNil(t, all[0].RebaseSyncVersion)
	assert.Equal(t, int64(7), all[0].EffectiveBaseVersion())
	assert.Nil(t, all[1].RebaseSyncVersion)
}

// ── Acknowledge ──────────────────────────────────────────────────────────────

func TestOutbox_AcknowledgeStampsAcceptedRow(t *testing.T) {
	s, reg := newTestLocalStore(t)
	ctx := context.Background()
	seedProjects(t, s, 1)

	desc, err := reg.Describe("projects")
	require.NoError(t, err)

	all := listAll(t, s, "projects")
	serverAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	err = s.Outbox.Acknowledge(ctx, Acknowledgement{
		Table:  desc,
		Delete: changeIDs(all),
		Stamp: []models.SyncableRow{{
			Table: "projects", Values: models.Row{"id": int64(1), "name": "p"},
			SyncVersion: 4, LastModifiedAt: serverAt, DeviceID: "server",
		}},
	})
	require.NoError(t, err)

	assert.Empty(t, listAll(t, s, "projects"))

	row, err := s.Rows.GetRow(ctx, "projects", models.Row{"id": 1})
	require.NoError(t, err)
	assert.Equal(t, int64(4), row.SyncVersion)
	assert.True(t, serverAt.Equal(row.LastModifiedAt))
	assert.Equal(t, "server", row.DeviceID)
}

func TestOutbox_AcknowledgeDoesNotStampRowWithNewerChange(t *testing.T) {
	s, reg := newTestLocalStore(t)
	ctx := context.Background()
	seedProjects(t, s, 1)

	desc, err := reg.Describe("projects")
	require.NoError(t, err)

	pushed := listAll(t, s, "projects")

	// edited again while the push was in flight
	require.NoError(t, s.Rows.UpdateRow(ctx, "projects", models.Row{"id": 1, "name": "newer"}))

	err = s.Outbox.Acknowledge(ctx, Acknowledgement{
		Table:  desc,
		Delete: changeIDs(pushed),
		Stamp: []models.SyncableRow{{
			Table: "projects", Values: models.Row{"id": int64(1), "name": "p"},
			SyncVersion: 9, LastModifiedAt: time.Now(), DeviceID: "server",
		}},
	})
	require.NoError(t, err)

	row, err := s.Rows.GetRow(ctx, "projects", models.Row{"id": 1})
	require.NoError(t, err)
	assert.Equal(t, int64(2), row.SyncVersion)
	assert.Len(t, listAll(t, s, "projects"), 1)
}

func TestOutbox_AcknowledgeAppliesServerRowWithoutCapture(t *testing.T) {
	s, reg := newTestLocalStore(t)
	ctx := context.Background()
	seedProjects(t, s, 1)

	desc, err := reg.Describe("projects")
	require.NoError(t, err)

	all := listAll(t, s, "projects")
	err = s.Outbox.Acknowledge(ctx, Acknowledgement{
		Table:  desc,
		Delete: changeIDs(all),
		Apply: []models.SyncableRow{{
			Table: "projects", Values: models.Row{"id": int64(1), "name": "server wins"},
			SyncVersion: 6, LastModifiedAt: time.Now(), DeviceID: "dev-b",
		}},
	})
	require.NoError(t, err)

	assert.Empty(t, listAll(t, s, "projects"))

	row, err := s.Rows.GetRow(ctx, "projects", models.Row{"id": 1})
	require.NoError(t, err)
	assert.Equal(t, "server wins", row.Values["name"])
	assert.Equal(t, int64(6), row.SyncVersion)
}
