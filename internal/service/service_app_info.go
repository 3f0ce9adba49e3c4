package service

import (
	"context"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/schema"
	"github.com/MKhiriev/go-offline-sync/models"
)

type appInfoService struct {
	appVersion string
	schema     models.SchemaInfo

	logger *logger.Logger
}

// NewAppInfoService snapshots the build version and the served schema. The
// registry is immutable, so the snapshot never goes stale.
func NewAppInfoService(cfg config.App, registry *schema.Registry, logger *logger.Logger) (AppInfoService, error) {
	if cfg.Version == "" {
		return nil, ErrVersionIsNotSpecified
	}
	if registry == nil {
		return nil, ErrSchemaIsNotSpecified
	}

	info := registry.Info()
	logger.Info().
		Str("version", cfg.Version).
		Int("schema_version", info.Version).
		Str("schema_fingerprint", info.Fingerprint).
		Msg("serving schema artifact")

	return &appInfoService{
		appVersion: cfg.Version,
		schema:     info,
		logger:     logger,
	}, nil
}

func (s *appInfoService) GetAppVersion(_ context.Context) string {
	return s.appVersion
}

func (s *appInfoService) GetSchemaInfo(_ context.Context) models.SchemaInfo {
	return s.schema
}
