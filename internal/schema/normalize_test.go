// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package schema

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/MKhiriev/go-offline-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tasksDescriptor() models.TableDescriptor {
	return models.TableDescriptor{
		Name:       "tasks",
		PrimaryKey: []string{"id"},
		Columns: []models.ColumnDescriptor{
			{Name: "id", Kind: models.KindScalar},
			{Name: "title", Kind: models.KindScalar},
			{Name: "done", Kind: models.KindBoolean},
			{Name: "due_at", Kind: models.KindTimestamp, Nullable: true},
			{Name: "meta", Kind: models.KindJSON, Nullable: true},
		},
		ConflictColumns: []string{"title", "done"},
	}
}

func TestNormalizeValue(t *testing.T) {
	due := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)

	tests := []struct {
		name    string
		kind    models.ColumnKind
		in      any
		want    any
		wantErr bool
	}{
		{name: "nil stays nil", kind: models.KindBoolean, in: nil, want: nil},
		{name: "bool from sqlite int", kind: models.KindBoolean, in: int64(1), want: true},
		{name: "bool from json float", kind: models.KindBoolean, in: float64(0), want: false},
		{name: "bool from string", kind: models.KindBoolean, in: "true", want: true},
		{name: "bool garbage", kind: models.KindBoolean, in: "maybe", wantErr: true},
		{name: "timestamp rfc3339", kind: models.KindTimestamp, in: "2026-03-04T05:06:07Z", want: due},
		{name: "timestamp sqlite layout", kind: models.KindTimestamp, in: "2026-03-04 05:06:07", want: due},
		{name: "timestamp with offset", kind: models.KindTimestamp, in: "2026-03-04T08:06:07+03:00", want: due},
		{name: "timestamp time value", kind: models.KindTimestamp, in: due.In(time.FixedZone("X", 3600)), want: due},
		{name: "timestamp garbage", kind: models.KindTimestamp, in: "yesterday", wantErr: true},
		{name: "timestamp wrong type", kind: models.KindTimestamp, in: 12, wantErr: true},
		{name: "json sorts keys", kind: models.KindJSON, in: `{"b": 1, "a": [true]}`, want: json.RawMessage(`{"a":[true],"b":1}`)},
		{name: "json from map", kind: models.KindJSON, in: map[string]any{"z": "x"}, want: json.RawMessage(`{"z":"x"}`)},
		{name: "json invalid", kind: models.KindJSON, in: `{"a":`, wantErr: true},
		{name: "scalar integral float", kind: models.KindScalar, in: float64(42), want: int64(42)},
		{name: "scalar fraction", kind: models.KindScalar, in: 1.5, want: 1.5},
		{name: "scalar string", kind: models.KindScalar, in: "abc", want: "abc"},
		{name: "scalar json number", kind: models.KindScalar, in: json.Number("7"), want: int64(7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NormalizeValue(tt.kind, tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidValue)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNormalize_UnknownColumn(t *testing.T) {
	_, err := Normalize(tasksDescriptor(), models.Row{"id": "t1", "priority": 3})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnknownColumn)
}

// Rows coming from SQLite and from a JSON wire payload must end up identical.
func TestNormalize_LocalAndWireRowsAgree(t *testing.T) {
	local := models.Row{
		"id":     "t1",
		"title":  "write tests",
		"done":   int64(1),
		"due_at": "2026-03-04T05:06:07Z",
		"meta":   `{"b":2,"a":1}`,
	}

	var wire models.Row
	require.NoError(t, json.Unmarshal([]byte(`{"id":"t1","title":"write tests","done":true,"due_at":"2026-03-04 05:06:07","meta":{"a":1,"b":2}}`), &wire))

	fromLocal, err := Normalize(tasksDescriptor(), local)
	require.NoError(t, err)
	fromWire, err := Normalize(tasksDescriptor(), wire)
	require.NoError(t, err)

	assert.Equal(t, fromLocal, fromWire)
	assert.Equal(t, fromLocal.Key(), fromWire.Key())
}

func TestStorageValue(t *testing.T) {
	v, err := StorageValue(models.KindBoolean, true)
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	v, err = StorageValue(models.KindTimestamp, "2026-03-04 05:06:07")
	require.NoError(t, err)
	assert.Equal(t, "2026-03-04T05:06:07Z", v)

	v, err = StorageValue(models.KindJSON, map[string]any{"k": 1})
	require.NoError(t, err)
	assert.Equal(t, `{"k":1}`, v)

	v, err = StorageValue(models.KindScalar, nil)
	require.NoError(t, err)
	assert.Nil(t, v)
}
