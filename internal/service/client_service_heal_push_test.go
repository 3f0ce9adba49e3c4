package service

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/mock"
	"github.com/MKhiriev/go-offline-sync/internal/schema"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// Старая сборка знала только таблицу projects.
func olderRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg, err := schema.New(models.SchemaArtifact{
		Version: 1,
		Tables: []models.TableDescriptor{{
			Name:       "projects",
			PrimaryKey: []string{"id"},
			Columns: []models.ColumnDescriptor{
				{Name: "id", Kind: models.KindScalar},
				{Name: "name", Kind: models.KindScalar},
			},
			ConflictColumns: []string{"name"},
		}},
	})
	require.NoError(t, err)
	return reg
}

// Изменения, сделанные до пересборки, уходят на сервер обычным push.
func TestSchemaHealer_HealThenPush(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "local.db")

	old, err := store.NewClientStorages(ctx, path, olderRegistry(t), logger.Nop())
	require.NoError(t, err)
	require.NoError(t, old.Meta.SetMeta(ctx, store.MetaDeviceID, "device-a"))
	require.NoError(t, old.Rows.PutRow(ctx, "projects", models.Row{"id": 1, "name": "inbox"}))
	require.NoError(t, old.Rows.PutRow(ctx, "projects", models.Row{"id": 2, "name": "work"}))
	require.NoError(t, old.Close())

	registry := testRegistry(t)
	healer := NewSchemaHealer(store.NewLocalDatabaseManager(logger.Nop()), registry, path, logger.Nop())

	report, err := healer.Heal(ctx, nil)
	require.NoError(t, err)
	require.True(t, report.Rebuilt)
	assert.Equal(t, 2, report.PreservedChanges)
	assert.Equal(t, models.HealClean, healer.State())

	s, err := store.NewClientStorages(ctx, path, registry, logger.Nop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	ctrl := gomock.NewController(t)
	syncAdapter := mock.NewMockSyncAdapter(ctrl)
	syncAdapter.EXPECT().Push(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req models.PushRequest) (models.PushResponse, error) {
			assert.Equal(t, "device-a", req.DeviceID)
			names := map[any]any{}
			for _, c := range req.Changes {
				assert.Equal(t, "projects", c.Table)
				assert.Equal(t, models.OperationInsert, c.Operation)
				names[c.Row["id"]] = c.Row["name"]
			}
			assert.Len(t, names, 2)
			return accepted(req), nil
		})

	p := NewPushClient(s.Outbox, syncAdapter, registry, NewConflictResolver(), "device-a",
		config.ClientWorkers{MaxBackoff: time.Minute}, logger.Nop())

	summary, err := p.Push(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.PushSummary{Applied: 2}, summary)

	left, err := s.Outbox.ListReady(ctx, time.Now())
	require.NoError(t, err)
	assert.Empty(t, left)
}
