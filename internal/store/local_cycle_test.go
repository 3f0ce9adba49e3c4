package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MKhiriev/go-offline-sync/models"
)

// Один и тот же цикл capture -> acknowledge -> pull -> delete для таблиц
// с простым и составным ключом.
func TestLocalCycle_SameOutcomeForDifferentKeyShapes(t *testing.T) {
	tests := []struct {
		table  string
		local  models.Row
		pk     models.Row
		remote models.Row
	}{
		{
			table:  "projects",
			local:  models.Row{"id": 1, "name": "inbox"},
			pk:     models.Row{"id": 1},
			remote: models.Row{"id": int64(2), "name": "remote"},
		},
		{
			table:  "task_tags",
			local:  models.Row{"task_id": 1, "tag": "home"},
			pk:     models.Row{"task_id": 1, "tag": "home"},
			remote: models.Row{"task_id": int64(2), "tag": "work"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.table, func(t *testing.T) {
			s, reg := newTestLocalStore(t)
			ctx := context.Background()

			desc, err := reg.Describe(tt.table)
			require.NoError(t, err)

			require.NoError(t, s.Rows.PutRow(ctx, tt.table, tt.local))
			queued := listAll(t, s, tt.table)
			require.Len(t, queued, 1)
			assert.Equal(t, models.OperationInsert, queued[0].Operation)
			assert.Equal(t, "dev-a", queued[0].DeviceID)

			stamped, err := s.Rows.GetRow(ctx, tt.table, tt.pk)
			require.NoError(t, err)
			stamped.SyncVersion = 5
			stamped.DeviceID = "server"
			require.NoError(t, s.Outbox.Acknowledge(ctx, Acknowledgement{
				Table:  desc,
				Delete: changeIDs(queued),
				Stamp:  []models.SyncableRow{stamped},
			}))
			assert.Empty(t, listAll(t, s, tt.table))

			row, err := s.Rows.GetRow(ctx, tt.table, tt.pk)
			require.NoError(t, err)
			assert.Equal(t, int64(5), row.SyncVersion)

			// повторное применение той же страницы ничего не меняет
			page := PulledPage{
				Table: desc,
				Rows: []models.SyncableRow{{
					Table: tt.table, Values: tt.remote,
					SyncVersion: 3, LastModifiedAt: time.Date(2026, 6, 1, 8, 0, 0, 0, time.UTC), DeviceID: "dev-b",
				}},
				Cursor:   "9",
				PulledAt: time.Now(),
			}
			require.NoError(t, s.Watermarks.ApplyPulledPage(ctx, page))
			first, err := s.Rows.ListRows(ctx, tt.table)
			require.NoError(t, err)
			require.NoError(t, s.Watermarks.ApplyPulledPage(ctx, page))
			second, err := s.Rows.ListRows(ctx, tt.table)
			require.NoError(t, err)

			assert.Len(t, first, 2)
			assert.Equal(t, first, second)
			assert.Empty(t, listAll(t, s, tt.table))

			wm, err := s.Watermarks.GetWatermark(ctx, tt.table)
			require.NoError(t, err)
			assert.Equal(t, "9", wm.Cursor)

			require.NoError(t, s.Rows.DeleteRow(ctx, tt.table, tt.pk))
			queued = listAll(t, s, tt.table)
			require.Len(t, queued, 1)
			assert.Equal(t, models.OperationDelete, queued[0].Operation)
			assert.Equal(t, int64(5), queued[0].BaseSyncVersion)
		})
	}
}
