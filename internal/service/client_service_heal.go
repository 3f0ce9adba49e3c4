// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/schema"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

// Files kept next to the local database while it is being rebuilt.
const (
	healBufferSuffix = ".heal.json"
	rebuildSuffix    = ".rebuild"
	orphanedSuffix   = ".orphaned.json"
)

type schemaHealer struct {
	manager  store.LocalDatabaseManager
	registry *schema.Registry
	path     string

	mu    sync.RWMutex
	state models.HealState

	now    func() time.Time
	logger *logger.Logger
}

// NewSchemaHealer creates a SchemaHealer for the local database at path.
func NewSchemaHealer(manager store.LocalDatabaseManager, registry *schema.Registry, path string, logger *logger.Logger) SchemaHealer {
	return &schemaHealer{
		manager:  manager,
		registry: registry,
		path:     path,
		state:    models.HealClean,
		now:      time.Now,
		logger:   logger,
	}
}

func (h *schemaHealer) State() models.HealState {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.state
}

func (h *schemaHealer) setState(ctx context.Context, state models.HealState) {
	h.mu.Lock()
	from := h.state
	h.state = state
	h.mu.Unlock()

	logger.FromContext(ctx).Debug().
		Str("from", string(from)).
		Str("to", string(state)).
		Msg("healer state changed")
}

// Heal implements SchemaHealer.
//
// The live file is never written: the rebuilt database is created next to it
// and renamed over it only once complete. The preserved outbox and session
// are written to a buffer file before the rebuild starts, so a crash at any
// point resumes from the buffer on the next open instead of losing them. A
// buffer found next to a database that already matches the schema belongs to
// a rebuild that was swapped in, and is dropped.
func (h *schemaHealer) Heal(ctx context.Context, rehydrate func(ctx context.Context) error) (models.HealReport, error) {
	log := logger.FromContext(ctx)
	report := models.HealReport{Fingerprint: h.registry.Fingerprint()}

	bufferPath := h.path + healBufferSuffix
	tables := h.registry.Tables()
	info := h.registry.Info()

	state, resumed, err := h.manager.ReadBuffer(bufferPath)
	if err != nil {
		return report, h.fail(ctx, "read heal buffer", err)
	}

	reasons, err := h.manager.Inspect(ctx, h.path, tables, info)
	if err != nil {
		return report, h.fail(ctx, "inspect local database", err)
	}

	if resumed && len(reasons) == 0 {
		// the swap went through; the live file may hold newer edits than the buffer
		if err = h.manager.RemoveBuffer(bufferPath); err != nil {
			return report, h.fail(ctx, "remove stale heal buffer", err)
		}
		log.Warn().Str("path", h.path).Msg("dropped heal buffer of a completed rebuild")
		h.setState(ctx, models.HealClean)
		return report, nil
	}

	if resumed {
		log.Warn().
			Str("path", h.path).
			Int("changes", len(state.Changes)).
			Msg("resuming interrupted rebuild of local database")
		h.setState(ctx, models.HealPreserving)
	} else {
		if len(reasons) == 0 {
			h.setState(ctx, models.HealClean)
			return report, nil
		}

		h.setState(ctx, models.HealMismatchDetected)
		log.Warn().Str("path", h.path).Strs("reasons", reasons).Msg("local database does not match the schema")

		h.setState(ctx, models.HealPreserving)
		if state, err = h.manager.Preserve(ctx, h.path); err != nil {
			return report, h.fail(ctx, "preserve local state", err)
		}
		state.Reasons = reasons
		if state.CreatedAt.IsZero() {
			state.CreatedAt = h.now().UTC()
		}
		if err = h.manager.WriteBuffer(bufferPath, state); err != nil {
			return report, h.fail(ctx, "write heal buffer", err)
		}
	}

	report.Reasons = state.Reasons
	report.PreservedChanges = len(state.Changes)

	h.setState(ctx, models.HealRebuilding)
	rebuildPath := h.path + rebuildSuffix
	result, err := h.manager.Build(ctx, rebuildPath, tables, info, state)
	if err != nil {
		return report, h.fail(ctx, "rebuild local database", err)
	}

	if len(result.Orphaned) > 0 {
		orphanedPath := h.path + orphanedSuffix
		orphaned := store.PreservedState{
			Changes:   result.Orphaned,
			Session:   map[string]string{},
			Reasons:   []string{"table is no longer described"},
			CreatedAt: h.now().UTC(),
		}
		if err = h.manager.WriteBuffer(orphanedPath, orphaned); err != nil {
			return report, h.fail(ctx, "write orphaned changes", err)
		}
		log.Warn().
			Int("changes", len(result.Orphaned)).
			Str("file", orphanedPath).
			Msg("queued changes of undescribed tables were set aside")
	}

	h.setState(ctx, models.HealReinitializing)
	if err = h.manager.Replace(rebuildPath, h.path); err != nil {
		return report, h.fail(ctx, "swap local database", err)
	}
	report.Rebuilt = true

	if err = h.manager.RemoveBuffer(bufferPath); err != nil {
		// a leftover buffer must not outlive edits made on the new file
		return report, h.fail(ctx, "remove heal buffer", err)
	}

	if rehydrate != nil {
		if err = rehydrate(ctx); err != nil {
			log.Warn().Err(err).Msg("rehydrating the rebuilt database failed, the next sync will retry")
		} else {
			report.Rehydrated = true
		}
	}

	h.setState(ctx, models.HealClean)
	log.Info().
		Int("restored_changes", result.RestoredChanges).
		Int("restored_rows", result.RestoredRows).
		Bool("rehydrated", report.Rehydrated).
		Msg("local database healed")

	return report, nil
}

func (h *schemaHealer) fail(ctx context.Context, step string, err error) error {
	h.setState(ctx, models.HealFailed)
	logger.FromContext(ctx).Err(err).Str("func", "*schemaHealer.Heal").Str("step", step).Msg("healing failed")
	return fmt.Errorf("%w: %s: %w", ErrHealingFailed, step, err)
}
