// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package config

import (
	"strings"

	"github.com/rs/zerolog"
)

// validate checks that the merged [StructuredConfig] can run the remote sync
// service.
func (cfg *StructuredConfig) validate() error {
	if cfg.Storage.DB.DSN == "" {
		return ErrInvalidStorageConfigs
	}

	if cfg.App.TokenSignKey == "" || cfg.App.TokenDuration <= 0 {
		return ErrInvalidAppConfigs
	}

	if cfg.Server.HTTPAddress == "" || cfg.Server.RequestTimeout <= 0 {
		return ErrInvalidServerConfigs
	}

	if cfg.Workers.PullPageSize <= 0 || cfg.Workers.IdempotencyRetention <= 0 || cfg.Workers.PruneInterval <= 0 {
		return ErrInvalidWorkerConfigs
	}

	if !validLogLevel(cfg.Log.Level) {
		return ErrInvalidLogConfigs
	}

	return nil
}

func (cfg *ClientConfig) validate() error {
	// the schema manager replaces the database file, so it must be a real file
	if cfg.Storage.LocalPath == "" || strings.Contains(cfg.Storage.LocalPath, "memory") {
		return ErrInvalidStorageConfigs
	}

	if cfg.Adapter.RequestTimeout <= 0 {
		return ErrInvalidAdapterConfigs
	}
	switch cfg.Adapter.Transport {
	case TransportHTTP:
		if cfg.Adapter.HTTPAddress == "" {
			return ErrInvalidAdapterConfigs
		}
	case TransportGRPC:
		if cfg.Adapter.GRPCAddress == "" {
			return ErrInvalidAdapterConfigs
		}
	default:
		return ErrInvalidAdapterConfigs
	}

	if cfg.Workers.SyncInterval <= 0 || cfg.Workers.MaxBackoff <= 0 ||
		cfg.Workers.PushBatchSize <= 0 || cfg.Workers.PullPageSize <= 0 {
		return ErrInvalidWorkerConfigs
	}

	if !validLogLevel(cfg.Log.Level) {
		return ErrInvalidLogConfigs
	}

	return nil
}

func validLogLevel(level string) bool {
	if level == "" {
		return true
	}
	_, err := zerolog.ParseLevel(level)
	return err == nil
}
