package service

import (
	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/schema"
	"github.com/MKhiriev/go-offline-sync/internal/store"
)

// maxPushBatch bounds the number of changes accepted in one push.
const maxPushBatch = 1000

type Services struct {
	AuthService    AuthService
	SyncService    SyncService
	AppInfoService AppInfoService
}

func NewServices(storages *store.Storages, registry *schema.Registry, cfg *config.StructuredConfig, logger *logger.Logger) (*Services, error) {
	appInfo, err := NewAppInfoService(cfg.App, registry, logger)
	if err != nil {
		return nil, err
	}

	syncService := NewSyncValidationService(registry, maxPushBatch).
		Wrap(NewSyncService(storages.SyncRepository, registry, logger))

	return &Services{
		AuthService:    NewAuthService(storages.UserRepository, cfg.App, logger),
		SyncService:    syncService,
		AppInfoService: appInfo,
	}, nil
}
