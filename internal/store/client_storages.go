package store

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/schema"
)

// ClientStorages groups the local repositories of one open database file.
type ClientStorages struct {
	DB *DB

	Outbox     OutboxRepository
	Watermarks WatermarkRepository
	Meta       MetaRepository
	Rows       LocalRowRepository
	Capture    CaptureInstaller
}

// NewClientStorages opens the local database at path and wires its
// repositories. It performs the following steps:
//  1. Opens the SQLite file, creating it if it does not yet exist.
//  2. Runs pending bookkeeping migrations via [DB.Migrate].
//  3. Creates missing described tables and arms change capture.
//  4. Verifies that every described table has its capture triggers.
//
// A database that fails step 4 must not be used: local writes would be lost
// to sync.
func NewClientStorages(ctx context.Context, path string, registry *schema.Registry, logger *logger.Logger) (*ClientStorages, error) {
	logger.Info().Str("path", path).Msg("opening local storages...")

	db, err := NewConnectSQLite(ctx, path, logger)
	if err != nil {
		return nil, fmt.Errorf("sqlite connection error: %w", err)
	}

	if err = db.Migrate(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migration failed: %w", err)
	}

	capture := NewCaptureInstaller(db, logger)
	if err = capture.ArmCapture(ctx, registry.Tables()); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err = capture.VerifyCapture(ctx, registry.Tables()); err != nil {
		_ = db.Close()
		return nil, err
	}

	return &ClientStorages{
		DB:         db,
		Outbox:     NewOutboxRepository(db, logger),
		Watermarks: NewWatermarkRepository(db, logger),
		Meta:       NewMetaRepository(db, logger),
		Rows:       NewLocalRowRepository(db, registry, logger),
		Capture:    capture,
	}, nil
}

// Close releases the database handle.
func (s *ClientStorages) Close() error {
	if s == nil || s.DB == nil {
		return nil
	}
	return s.DB.Close()
}
