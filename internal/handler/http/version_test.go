package http

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/MKhiriev/go-offline-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestGetServerVersion(t *testing.T) {
	tests := []struct {
		name    string
		version string
		schema  models.SchemaInfo
	}{
		{name: "release", version: "1.2.3", schema: models.SchemaInfo{Version: 2, Fingerprint: "ab12"}},
		{name: "prerelease with build metadata", version: "v2.0.0-beta+build.42", schema: models.SchemaInfo{Version: 1, Fingerprint: "ff"}},
		{name: "empty", version: "", schema: models.SchemaInfo{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, mocks := newTestHandler(t, false)
			mocks.appInfo.EXPECT().GetAppVersion(gomock.Any()).Return(tt.version)
			mocks.appInfo.EXPECT().GetSchemaInfo(gomock.Any()).Return(tt.schema)

			rec := httptest.NewRecorder()
			h.getServerVersion(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))

			require.Equal(t, http.StatusOK, rec.Code)
			assert.Equal(t, tt.version, rec.Body.String())
			assert.Equal(t, "text/plain", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.schema.Fingerprint, rec.Header().Get(schemaFingerprintHeader))
		})
	}
}

func TestGetServerVersion_ViaRouterWithoutToken(t *testing.T) {
	h, mocks := newTestHandler(t, false)
	mocks.appInfo.EXPECT().GetAppVersion(gomock.Any()).Return("3.0.0")
	mocks.appInfo.EXPECT().GetSchemaInfo(gomock.Any()).Return(models.SchemaInfo{Version: 4, Fingerprint: "cafe"})

	rec := httptest.NewRecorder()
	h.Init().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "3.0.0", rec.Body.String())
	assert.Equal(t, "4", rec.Header().Get(schemaVersionHeader))
	assert.Equal(t, "cafe", rec.Header().Get(schemaFingerprintHeader))
}
