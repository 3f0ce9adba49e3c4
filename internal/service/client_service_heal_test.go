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

const healTestPath = "/data/local.db"

var healNow = time.Date(2026, 10, 4, 7, 0, 0, 0, time.UTC)

func newTestHealer(t *testing.T, ctrl *gomock.Controller) (*schemaHealer, *mock.MockLocalDatabaseManager, *schema.Registry) {
	t.Helper()
	manager := mock.NewMockLocalDatabaseManager(ctrl)
	registry := testRegistry(t)

	h := NewSchemaHealer(manager, registry, healTestPath, logger.Nop()).(*schemaHealer)
	h.now = func() time.Time { return healNow }
	return h, manager, registry
}

func preservedFixture() store.PreservedState {
	return store.PreservedState{
		Changes: []models.PendingChange{
			{ID: 1, Table: "projects", Operation: models.OperationInsert},
			{ID: 2, Table: "tasks", Operation: models.OperationUpdate},
		},
		Session: map[string]string{store.MetaDeviceID: "device-a", store.MetaAuthToken: "jwt"},
	}
}

func TestSchemaHealer_Heal_CleanDatabase(t *testing.T) {
	ctrl := gomock.NewController(t)
	h, manager, registry := newTestHealer(t, ctrl)
	ctx := context.Background()

	manager.EXPECT().ReadBuffer(healTestPath+healBufferSuffix).Return(store.PreservedState{}, false, nil)
	manager.EXPECT().Inspect(ctx, healTestPath, registry.Tables(), registry.Info()).Return(nil, nil)

	rehydrated := false
	report, err := h.Heal(ctx, func(context.Context) error {
		rehydrated = true
		return nil
	})
	require.NoError(t, err)

	assert.False(t, report.Rebuilt)
	assert.False(t, rehydrated, "чистая база не требует повторной загрузки")
	assert.Equal(t, registry.Fingerprint(), report.Fingerprint)
	assert.Equal(t, models.HealClean, h.State())
}

func TestSchemaHealer_Heal_MismatchRebuilds(t *testing.T) {
	ctrl := gomock.NewController(t)
	h, manager, registry := newTestHealer(t, ctrl)
	ctx := context.Background()

	reasons := []string{`table "tasks" is missing column "note"`}
	state := preservedFixture()

	buffered := state
	buffered.Reasons = reasons
	buffered.CreatedAt = healNow

	gomock.InOrder(
		manager.EXPECT().ReadBuffer(healTestPath+healBufferSuffix).Return(store.PreservedState{}, false, nil),
		manager.EXPECT().Inspect(ctx, healTestPath, registry.Tables(), registry.Info()).Return(reasons, nil),
		manager.EXPECT().Preserve(ctx, healTestPath).Return(state, nil),
		manager.EXPECT().WriteBuffer(healTestPath+healBufferSuffix, buffered).Return(nil),
		manager.EXPECT().Build(ctx, healTestPath+rebuildSuffix, registry.Tables(), registry.Info(), buffered).
			Return(store.BuildResult{RestoredChanges: 2}, nil),
		manager.EXPECT().Replace(healTestPath+rebuildSuffix, healTestPath).Return(nil),
		manager.EXPECT().RemoveBuffer(healTestPath+healBufferSuffix).Return(nil),
	)

	var stateDuringRehydrate models.HealState
	report, err := h.Heal(ctx, func(context.Context) error {
		stateDuringRehydrate = h.State()
		return nil
	})
	require.NoError(t, err)

	assert.True(t, report.Rebuilt)
	assert.True(t, report.Rehydrated)
	assert.Equal(t, reasons, report.Reasons)
	assert.Equal(t, 2, report.PreservedChanges)
	assert.Equal(t, models.HealReinitializing, stateDuringRehydrate)
	assert.Equal(t, models.HealClean, h.State())
}

func TestSchemaHealer_Heal_ResumesFromBuffer(t *testing.T) {
	ctrl := gomock.NewController(t)
	h, manager, registry := newTestHealer(t, ctrl)
	ctx := context.Background()

	// прошлая пересборка прервалась до замены файла: Preserve не вызывается
	state := preservedFixture()
	state.Reasons = []string{"fingerprint changed"}
	state.CreatedAt = healNow.Add(-time.Hour)

	gomock.InOrder(
		manager.EXPECT().ReadBuffer(healTestPath+healBufferSuffix).Return(state, true, nil),
		manager.EXPECT().Inspect(ctx, healTestPath, registry.Tables(), registry.Info()).
			Return([]string{"fingerprint changed"}, nil),
		manager.EXPECT().Build(ctx, healTestPath+rebuildSuffix, registry.Tables(), registry.Info(), state).
			Return(store.BuildResult{RestoredChanges: 2}, nil),
		manager.EXPECT().Replace(healTestPath+rebuildSuffix, healTestPath).Return(nil),
		manager.EXPECT().RemoveBuffer(healTestPath+healBufferSuffix).Return(nil),
	)

	report, err := h.Heal(ctx, nil)
	require.NoError(t, err)
	assert.True(t, report.Rebuilt)
	assert.False(t, report.Rehydrated)
	assert.Equal(t, []string{"fingerprint changed"}, report.Reasons)
}

func TestSchemaHealer_Heal_CorruptedBufferFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	h, manager, _ := newTestHealer(t, ctrl)
	ctx := context.Background()

	manager.EXPECT().ReadBuffer(healTestPath+healBufferSuffix).
		Return(store.PreservedState{}, false, errors.New("unexpected end of JSON input"))

	_, err := h.Heal(ctx, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrHealingFailed)
	assert.Equal(t, models.HealFailed, h.State())
}

func TestSchemaHealer_Heal_BuildFailureKeepsBuffer(t *testing.T) {
	ctrl := gomock.NewController(t)
	h, manager, _ := newTestHealer(t, ctrl)
	ctx := context.Background()

	state := preservedFixture()
	manager.EXPECT().ReadBuffer(gomock.Any()).Return(state, true, nil)
	manager.EXPECT().Inspect(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return([]string{"stale"}, nil)
	manager.EXPECT().Build(ctx, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(store.BuildResult{}, errors.New("disk full"))

	// ни Replace, ни RemoveBuffer: живой файл и буфер остаются как были
	report, err := h.Heal(ctx, nil)
	assert.ErrorIs(t, err, ErrHealingFailed)
	assert.Contains(t, err.Error(), "rebuild local database")
	assert.False(t, report.Rebuilt)
	assert.Equal(t, models.HealFailed, h.State())
}

func TestSchemaHealer_Heal_OrphanedChangesSetAside(t *testing.T) {
	ctrl := gomock.NewController(t)
	h, manager, _ := newTestHealer(t, ctrl)
	ctx := context.Background()

	orphan := models.PendingChange{ID: 9, Table: "legacy_notes", Operation: models.OperationInsert}

	manager.EXPECT().ReadBuffer(healTestPath+healBufferSuffix).Return(preservedFixture(), true, nil)
	manager.EXPECT().Inspect(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return([]string{"stale"}, nil)
	manager.EXPECT().Build(ctx, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).
		Return(store.BuildResult{RestoredChanges: 2, Orphaned: []models.PendingChange{orphan}}, nil)
	manager.EXPECT().WriteBuffer(healTestPath+orphanedSuffix, gomock.Any()).
		DoAndReturn(func(_ string, state store.PreservedState) error {
			assert.Equal(t, []models.PendingChange{orphan}, state.Changes)
			assert.Equal(t, healNow, state.CreatedAt)
			return nil
		})
	manager.EXPECT().Replace(gomock.Any(), healTestPath).Return(nil)
	manager.EXPECT().RemoveBuffer(gomock.Any()).Return(nil)

	report, err := h.Heal(ctx, nil)
	require.NoError(t, err)
	assert.True(t, report.Rebuilt)
}

func TestSchemaHealer_Heal_RehydrateFailureIsNotFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	h, manager, _ := newTestHealer(t, ctrl)
	ctx := context.Background()

	manager.EXPECT().ReadBuffer(gomock.Any()).Return(preservedFixture(), true, nil)
	manager.EXPECT().Inspect(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return([]string{"stale"}, nil)
	manager.EXPECT().Build(ctx, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(store.BuildResult{}, nil)
	manager.EXPECT().Replace(gomock.Any(), gomock.Any()).Return(nil)
	manager.EXPECT().RemoveBuffer(gomock.Any()).Return(nil)

	report, err := h.Heal(ctx, func(context.Context) error { return ErrOffline })
	require.NoError(t, err)
	assert.True(t, report.Rebuilt)
	assert.False(t, report.Rehydrated)
	assert.Equal(t, models.HealClean, h.State())
}

// Буфер, который не удалось удалить после замены файла, не должен
// пережить правки в новой базе.
func TestSchemaHealer_Heal_RemoveBufferFailureIsFatal(t *testing.T) {
	ctrl := gomock.NewController(t)
	h, manager, _ := newTestHealer(t, ctrl)
	ctx := context.Background()

	manager.EXPECT().ReadBuffer(gomock.Any()).Return(preservedFixture(), true, nil)
	manager.EXPECT().Inspect(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return([]string{"stale"}, nil)
	manager.EXPECT().Build(ctx, gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(store.BuildResult{}, nil)
	manager.EXPECT().Replace(gomock.Any(), healTestPath).Return(nil)
	manager.EXPECT().RemoveBuffer(healTestPath+healBufferSuffix).Return(errors.New("permission denied"))

	rehydrated := false
	report, err := h.Heal(ctx, func(context.Context) error {
		rehydrated = true
		return nil
	})
	assert.ErrorIs(t, err, ErrHealingFailed)
	assert.Contains(t, err.Error(), "remove heal buffer")
	assert.True(t, report.Rebuilt)
	assert.False(t, rehydrated)
	assert.Equal(t, models.HealFailed, h.State())
}

// Замена файла прошла, удаление буфера нет: база уже чистая, и пересборка
// из старого буфера стерла бы новые правки.
func TestSchemaHealer_Heal_StaleBufferIsDropped(t *testing.T) {
	ctrl := gomock.NewController(t)
	h, manager, registry := newTestHealer(t, ctrl)
	ctx := context.Background()

	gomock.InOrder(
		manager.EXPECT().ReadBuffer(healTestPath+healBufferSuffix).Return(preservedFixture(), true, nil),
		manager.EXPECT().Inspect(ctx, healTestPath, registry.Tables(), registry.Info()).Return(nil, nil),
		manager.EXPECT().RemoveBuffer(healTestPath+healBufferSuffix).Return(nil),
	)

	report, err := h.Heal(ctx, nil)
	require.NoError(t, err)
	assert.False(t, report.Rebuilt)
	assert.Zero(t, report.PreservedChanges)
	assert.Equal(t, models.HealClean, h.State())
}

func TestSchemaHealer_Heal_StaleBufferRemovalFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	h, manager, _ := newTestHealer(t, ctrl)
	ctx := context.Background()

	manager.EXPECT().ReadBuffer(gomock.Any()).Return(preservedFixture(), true, nil)
	manager.EXPECT().Inspect(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil)
	manager.EXPECT().RemoveBuffer(gomock.Any()).Return(errors.New("read-only file system"))

	_, err := h.Heal(ctx, nil)
	assert.ErrorIs(t, err, ErrHealingFailed)
	assert.Equal(t, models.HealFailed, h.State())
}

func TestSchemaHealer_Heal_RecoversAfterFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	h, manager, _ := newTestHealer(t, ctrl)
	ctx := context.Background()

	gomock.InOrder(
		manager.EXPECT().ReadBuffer(gomock.Any()).Return(store.PreservedState{}, false, nil),
		manager.EXPECT().Inspect(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, errors.New("file is not a database")),
		manager.EXPECT().ReadBuffer(gomock.Any()).Return(store.PreservedState{}, false, nil),
		manager.EXPECT().Inspect(ctx, gomock.Any(), gomock.Any(), gomock.Any()).Return(nil, nil),
	)

	_, err := h.Heal(ctx, nil)
	require.ErrorIs(t, err, ErrHealingFailed)
	assert.Equal(t, models.HealFailed, h.State())

	_, err = h.Heal(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, models.HealClean, h.State())
}
