package service

import (
	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/schema"
)

type ClientServices struct {
	Engine      SyncEngine
	AuthService ClientAuthService
	SyncJob     ClientSyncJob
}

func NewClientServices(cfg *config.ClientConfig, registry *schema.Registry, syncAdapter adapter.SyncAdapter, logger *logger.Logger) *ClientServices {
	engine := NewSyncEngine(cfg, registry, syncAdapter, logger)

	return &ClientServices{
		Engine:      engine,
		AuthService: NewClientAuthService(engine, syncAdapter, logger),
		SyncJob:     NewClientSyncJob(engine, cfg.Workers.MaxBackoff, logger),
	}
}
