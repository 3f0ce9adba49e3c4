package handler

import (
	"testing"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serverConfig(httpAddr, grpcAddr, hashKey string) *config.StructuredConfig {
	return &config.StructuredConfig{
		App:    config.App{HashKey: hashKey},
		Server: config.Server{HTTPAddress: httpAddr, GRPCAddress: grpcAddr},
	}
}

// Конструкторы только сохраняют указатель на сервисы, nil допустим.
func TestNewHandlers(t *testing.T) {
	tests := []struct {
		name     string
		cfg      *config.StructuredConfig
		wantHTTP bool
		wantGRPC bool
		wantErr  error
	}{
		{name: "both transports", cfg: serverConfig(":8080", ":9090", ""), wantHTTP: true, wantGRPC: true},
		{name: "http only", cfg: serverConfig(":8080", "", ""), wantHTTP: true},
		{name: "grpc only", cfg: serverConfig("", ":9090", ""), wantGRPC: true},
		{name: "with push hash key", cfg: serverConfig(":8080", ":9090", "push-key"), wantHTTP: true, wantGRPC: true},
		{name: "no addresses", cfg: serverConfig("", "", ""), wantErr: errNoHandlersAreCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := NewHandlers(nil, tt.cfg, logger.Nop())

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, h)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantHTTP, h.HTTP != nil)
			assert.Equal(t, tt.wantGRPC, h.GRPC != nil)
		})
	}
}

func TestNewHandlers_IndependentInstances(t *testing.T) {
	cfg := serverConfig(":8080", ":9090", "")

	h1, err := NewHandlers(nil, cfg, logger.Nop())
	require.NoError(t, err)
	h2, err := NewHandlers(nil, cfg, logger.Nop())
	require.NoError(t, err)

	assert.NotSame(t, h1.HTTP, h2.HTTP)
	assert.NotSame(t, h1.GRPC, h2.GRPC)
}
