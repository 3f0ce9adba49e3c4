package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/app"
	"github.com/MKhiriev/go-offline-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteJSON(t *testing.T) {
	tests := []struct {
		name       string
		data       any
		status     int
		wantStatus int
		wantBody   string
	}{
		{
			name:       "pull page",
			data:       models.PullResponse{Table: "tasks", NextCursor: "12", HasMore: true},
			status:     http.StatusOK,
			wantStatus: http.StatusOK,
			wantBody:   `{"table":"tasks","rows":null,"next_cursor":"12","has_more":true}`,
		},
		{
			name:       "schema info",
			data:       models.SchemaInfo{Version: 2, Fingerprint: "ff"},
			status:     http.StatusOK,
			wantStatus: http.StatusOK,
			wantBody:   `{"version":2,"fingerprint":"ff"}`,
		},
		{name: "nil", data: nil, status: http.StatusOK, wantStatus: http.StatusOK, wantBody: `null`},
		{name: "custom status", data: map[string]string{"error": "x"}, status: http.StatusConflict, wantStatus: http.StatusConflict, wantBody: `{"error":"x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			n, err := WriteJSON(w, tt.data, tt.status)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, len(w.Body.Bytes()), n)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))
			assert.JSONEq(t, tt.wantBody, w.Body.String())
		})
	}
}

func TestWriteJSON_Unencodable(t *testing.T) {
	w := httptest.NewRecorder()

	// канал в JSON не кодируется
	n, err := WriteJSON(w, map[string]any{"at": time.Now(), "ch": make(chan int)}, http.StatusOK)

	require.Error(t, err)
	assert.Zero(t, n)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, app.MsgInternalServerError, strings.TrimSpace(w.Body.String()))
	assert.Empty(t, w.Header().Get("Cache-Control"))
}
