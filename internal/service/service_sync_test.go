// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/mock"
	"github.com/MKhiriev/go-offline-sync/internal/schema"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// testRegistry describes a parent table "projects" (rank 0) and a child
// table "tasks" (rank 1) referencing it.
func testRegistry(t *testing.T) *schema.Registry {
	t.Helper()

	reg, err := schema.New(models.SchemaArtifact{
		Version: 1,
		Tables: []models.TableDescriptor{
			{
				Name:       "tasks",
				PrimaryKey: []string{"id"},
				Columns: []models.ColumnDescriptor{
					{Name: "id", Kind: models.KindScalar},
					{Name: "project_id", Kind: models.KindScalar},
					{Name: "title", Kind: models.KindScalar},
					{Name: "done", Kind: models.KindBoolean},
					{Name: "note", Kind: models.KindScalar, Nullable: true},
				},
				ConflictColumns: []string{"title", "done"},
				DependencyRank:  1,
			},
			{
				Name:       "projects",
				PrimaryKey: []string{"id"},
				Columns: []models.ColumnDescriptor{
					{Name: "id", Kind: models.KindScalar},
					{Name: "name", Kind: models.KindScalar},
				},
				ConflictColumns: []string{"name"},
			},
		},
	})
	require.NoError(t, err)
	return reg
}

func newTestSyncService(t *testing.T, ctrl *gomock.Controller) (*syncService, *mock.MockSyncRepository) {
	t.Helper()
	repo := mock.NewMockSyncRepository(ctrl)
	svc := NewSyncService(repo, testRegistry(t), logger.Nop()).(*syncService)
	svc.now = func() time.Time { return time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC) }
	return svc, repo
}

func taskEntry(key string, id int64) models.ChangeEntry {
	return models.ChangeEntry{
		ChangeKey:       key,
		Table:           "tasks",
		Operation:       models.OperationInsert,
		PrimaryKey:      models.Row{"id": float64(id)},
		Row:             models.Row{"id": float64(id), "project_id": float64(1), "title": "write tests", "done": false},
		BaseSyncVersion: 0,
		SyncVersion:     1,
		LastModifiedAt:  time.Date(2026, 10, 1, 11, 0, 0, 0, time.FixedZone("MSK", 3*60*60)),
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Push
// ─────────────────────────────────────────────────────────────────────────────

func TestSyncService_Push_NormalizesAndApplies(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, repo := newTestSyncService(t, ctrl)
	ctx := context.Background()

	entry := taskEntry("k1", 10)

	repo.EXPECT().ApplyChanges(ctx, int64(5), "device-a", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, _ string, changes []store.RemoteChange) ([]models.ChangeResult, error) {
			require.Len(t, changes, 1)
			got := changes[0]
			assert.Equal(t, "tasks", got.Table.Name)
			// JSON-числа приводятся к int64
			assert.Equal(t, int64(10), got.Entry.PrimaryKey["id"])
			assert.Equal(t, int64(1), got.Entry.Row["project_id"])
			assert.Equal(t, time.UTC, got.Entry.LastModifiedAt.Location())
			return []models.ChangeResult{{ChangeKey: "k1", Status: models.StatusAccepted}}, nil
		})

	resp, err := svc.Push(ctx, 5, models.PushRequest{DeviceID: "device-a", Changes: []models.ChangeEntry{entry}})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, models.StatusAccepted, resp.Results[0].Status)
}

func TestSyncService_Push_InvalidEntryRejectsOnlyItself(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, repo := newTestSyncService(t, ctrl)
	ctx := context.Background()

	bad := taskEntry("bad", 2)
	bad.SyncVersion = 0 // версия должна расти

	unknown := taskEntry("unknown", 3)
	unknown.Table = "nope"

	repo.EXPECT().ApplyChanges(ctx, int64(1), "dev", gomock.Len(2)).
		Return([]models.ChangeResult{
			{ChangeKey: "ok1", Status: models.StatusAccepted},
			{ChangeKey: "ok2", Status: models.StatusConflict, ServerRow: &models.SyncableRow{Table: "tasks", SyncVersion: 4}},
		}, nil)

	resp, err := svc.Push(ctx, 1, models.PushRequest{
		DeviceID: "dev",
		Changes:  []models.ChangeEntry{taskEntry("ok1", 1), bad, unknown, taskEntry("ok2", 4)},
	})
	require.NoError(t, err)
	require.Len(t, resp.Results, 4)

	assert.Equal(t, models.StatusAccepted, resp.Results[0].Status)
	assert.Equal(t, models.StatusRejected, resp.Results[1].Status)
	assert.Equal(t, "bad", resp.Results[1].ChangeKey)
	assert.NotEmpty(t, resp.Results[1].Reason)
	assert.Equal(t, models.StatusRejected, resp.Results[2].Status)
	assert.Equal(t, models.StatusConflict, resp.Results[3].Status)
	assert.Equal(t, "ok2", resp.Results[3].ChangeKey)
}

func TestSyncService_Push_AllRejected_SkipsRepository(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, _ := newTestSyncService(t, ctrl)

	bad := taskEntry("bad", 1)
	bad.Row = nil

	resp, err := svc.Push(context.Background(), 1, models.PushRequest{DeviceID: "dev", Changes: []models.ChangeEntry{bad}})
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, models.StatusRejected, resp.Results[0].Status)
}

func TestSyncService_Push_DeleteDropsRow(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, repo := newTestSyncService(t, ctrl)
	ctx := context.Background()

	del := taskEntry("del", 9)
	del.Operation = models.OperationDelete
	del.BaseSyncVersion, del.SyncVersion = 3, 4
	del.LastModifiedAt = time.Time{}

	repo.EXPECT().ApplyChanges(ctx, int64(1), "dev", gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, _ string, changes []store.RemoteChange) ([]models.ChangeResult, error) {
			assert.Nil(t, changes[0].Entry.Row)
			assert.Equal(t, svc.now(), changes[0].Entry.LastModifiedAt)
			return []models.ChangeResult{{ChangeKey: "del", Status: models.StatusAccepted}}, nil
		})

	_, err := svc.Push(ctx, 1, models.PushRequest{DeviceID: "dev", Changes: []models.ChangeEntry{del}})
	require.NoError(t, err)
}

func TestSyncService_Push_RepositoryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, repo := newTestSyncService(t, ctrl)
	ctx := context.Background()

	repo.EXPECT().ApplyChanges(ctx, int64(1), "dev", gomock.Any()).Return(nil, assert.AnError)

	_, err := svc.Push(ctx, 1, models.PushRequest{DeviceID: "dev", Changes: []models.ChangeEntry{taskEntry("k", 1)}})
	assert.ErrorIs(t, err, assert.AnError)
}

func TestSyncService_Push_ResultCountMismatch(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, repo := newTestSyncService(t, ctrl)
	ctx := context.Background()

	repo.EXPECT().ApplyChanges(ctx, int64(1), "dev", gomock.Any()).Return([]models.ChangeResult{}, nil)

	_, err := svc.Push(ctx, 1, models.PushRequest{DeviceID: "dev", Changes: []models.ChangeEntry{taskEntry("k", 1)}})
	assert.Error(t, err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Pull
// ─────────────────────────────────────────────────────────────────────────────

func TestSyncService_Pull(t *testing.T) {
	tests := []struct {
		name       string
		req        models.PullRequest
		wantSince  int64
		wantLimit  int
		page       store.PulledRows
		wantCursor string
		wantMore   bool
	}{
		{
			name:       "first page with default limit",
			req:        models.PullRequest{Table: "tasks"},
			wantSince:  0,
			wantLimit:  defaultPullLimit,
			page:       store.PulledRows{Rows: []models.SyncableRow{{Table: "tasks"}}, NextSeq: 17, HasMore: true},
			wantCursor: "17",
			wantMore:   true,
		},
		{
			name:       "limit is clamped",
			req:        models.PullRequest{Table: "tasks", Since: "17", Limit: 5000},
			wantSince:  17,
			wantLimit:  maxPullLimit,
			page:       store.PulledRows{Rows: []models.SyncableRow{{Table: "tasks"}}, NextSeq: 20},
			wantCursor: "20",
		},
		{
			name:       "empty page echoes cursor",
			req:        models.PullRequest{Table: "projects", Since: "42", Limit: 10},
			wantSince:  42,
			wantLimit:  10,
			page:       store.PulledRows{},
			wantCursor: "42",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			svc, repo := newTestSyncService(t, ctrl)
			ctx := context.Background()

			repo.EXPECT().
				PullRows(ctx, int64(3), gomock.Any(), tt.wantSince, tt.wantLimit).
				Return(tt.page, nil)

			resp, err := svc.Pull(ctx, 3, tt.req)
			require.NoError(t, err)
			assert.Equal(t, tt.req.Table, resp.Table)
			assert.Equal(t, tt.wantCursor, resp.NextCursor)
			assert.Equal(t, tt.wantMore, resp.HasMore)
			assert.NotNil(t, resp.Rows)
		})
	}
}

func TestSyncService_Pull_InvalidRequest(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, _ := newTestSyncService(t, ctrl)

	_, err := svc.Pull(context.Background(), 1, models.PullRequest{Table: "unknown"})
	assert.ErrorIs(t, err, ErrInvalidPullRequest)

	_, err = svc.Pull(context.Background(), 1, models.PullRequest{Table: "tasks", Since: "abc"})
	assert.ErrorIs(t, err, ErrInvalidPullRequest)

	_, err = svc.Pull(context.Background(), 1, models.PullRequest{Table: "tasks", Since: "-3"})
	assert.ErrorIs(t, err, ErrInvalidPullRequest)
}

func TestSyncService_Pull_RepositoryError(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, repo := newTestSyncService(t, ctrl)
	ctx := context.Background()

	repo.EXPECT().PullRows(ctx, int64(1), gomock.Any(), int64(0), defaultPullLimit).Return(store.PulledRows{}, assert.AnError)

	_, err := svc.Pull(ctx, 1, models.PullRequest{Table: "tasks"})
	assert.ErrorIs(t, err, assert.AnError)
}

// ─────────────────────────────────────────────────────────────────────────────
// Schema / PruneAppliedChanges
// ─────────────────────────────────────────────────────────────────────────────

func TestSyncService_Schema(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, _ := newTestSyncService(t, ctrl)

	info := svc.Schema(context.Background())
	assert.Equal(t, 1, info.Version)
	assert.Equal(t, svc.registry.Fingerprint(), info.Fingerprint)
}

func TestSyncService_PruneAppliedChanges(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, repo := newTestSyncService(t, ctrl)
	ctx := context.Background()

	repo.EXPECT().PruneAppliedChanges(ctx, svc.now().Add(-24*time.Hour)).Return(int64(12), nil)

	n, err := svc.PruneAppliedChanges(ctx, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
}

func TestSyncService_PruneAppliedChanges_Error(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc, repo := newTestSyncService(t, ctrl)
	ctx := context.Background()

	repo.EXPECT().PruneAppliedChanges(ctx, gomock.Any()).Return(int64(0), errors.New("db down"))

	_, err := svc.PruneAppliedChanges(ctx, time.Hour)
	assert.Error(t, err)
}

// ─────────────────────────────────────────────────────────────────────────────
// Validation wrapper
// ─────────────────────────────────────────────────────────────────────────────

func TestSyncValidationService_Push(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mock.NewMockSyncService(ctrl)
	svc := NewSyncValidationService(testRegistry(t), 2).Wrap(inner)
	ctx := context.Background()

	// нет device id
	_, err := svc.Push(ctx, 1, models.PushRequest{Changes: []models.ChangeEntry{taskEntry("a", 1)}})
	assert.ErrorIs(t, err, ErrInvalidPushBatch)

	// слишком большой батч
	_, err = svc.Push(ctx, 1, models.PushRequest{DeviceID: "d", Changes: []models.ChangeEntry{
		taskEntry("a", 1), taskEntry("b", 2), taskEntry("c", 3),
	}})
	assert.ErrorIs(t, err, ErrInvalidPushBatch)

	// повтор change key
	_, err = svc.Push(ctx, 1, models.PushRequest{DeviceID: "d", Changes: []models.ChangeEntry{
		taskEntry("a", 1), taskEntry("a", 2),
	}})
	assert.ErrorIs(t, err, ErrInvalidPushBatch)

	req := models.PushRequest{DeviceID: "d", Changes: []models.ChangeEntry{taskEntry("a", 1)}}
	inner.EXPECT().Push(ctx, int64(1), req).Return(models.PushResponse{Results: []models.ChangeResult{{ChangeKey: "a"}}}, nil)

	resp, err := svc.Push(ctx, 1, req)
	require.NoError(t, err)
	assert.Len(t, resp.Results, 1)
}

func TestSyncValidationService_Pull(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mock.NewMockSyncService(ctrl)
	svc := NewSyncValidationService(testRegistry(t), 0).Wrap(inner)
	ctx := context.Background()

	_, err := svc.Pull(ctx, 1, models.PullRequest{})
	assert.ErrorIs(t, err, ErrInvalidPullRequest)

	_, err = svc.Pull(ctx, 1, models.PullRequest{Table: "tasks", Limit: -1})
	assert.ErrorIs(t, err, ErrInvalidPullRequest)

	req := models.PullRequest{Table: "tasks", Since: "3"}
	inner.EXPECT().Pull(ctx, int64(1), req).Return(models.PullResponse{Table: "tasks"}, nil)

	resp, err := svc.Pull(ctx, 1, req)
	require.NoError(t, err)
	assert.Equal(t, "tasks", resp.Table)
}

func TestSyncValidationService_PassThrough(t *testing.T) {
	ctrl := gomock.NewController(t)
	inner := mock.NewMockSyncService(ctrl)
	svc := NewSyncValidationService(testRegistry(t), 0).Wrap(inner)
	ctx := context.Background()

	inner.EXPECT().Schema(ctx).Return(models.SchemaInfo{Version: 1, Fingerprint: "f"})
	inner.EXPECT().PruneAppliedChanges(ctx, time.Hour).Return(int64(3), nil)

	assert.Equal(t, "f", svc.Schema(ctx).Fingerprint)
	n, err := svc.PruneAppliedChanges(ctx, time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}
