// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/schema"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
)

// syncEngine owns the open local database and serializes every operation
// that touches the outbox, the watermarks or the database file itself.
type syncEngine struct {
	path     string
	deviceID string // configured override
	workers  config.ClientWorkers

	registry *schema.Registry
	adapter  adapter.SyncAdapter
	healer   SchemaHealer
	resolver ConflictResolver

	inProgress atomic.Bool

	mu       sync.RWMutex
	storages *store.ClientStorages
	device   string
	push     PushClient
	pull     PullEngine

	lastErr  string
	lastPush models.PushSummary
	lastPull models.PullSummary

	now    func() time.Time
	logger *logger.Logger
}

// NewSyncEngine creates a SyncEngine for the local database configured in
// cfg. Nothing is opened until Open is called.
func NewSyncEngine(cfg *config.ClientConfig, registry *schema.Registry, syncAdapter adapter.SyncAdapter, logger *logger.Logger) SyncEngine {
	return &syncEngine{
		path:     cfg.Storage.LocalPath,
		deviceID: cfg.App.DeviceID,
		workers:  cfg.Workers,
		registry: registry,
		adapter:  syncAdapter,
		healer:   NewSchemaHealer(store.NewLocalDatabaseManager(logger), registry, cfg.Storage.LocalPath, logger),
		resolver: NewConflictResolver(),
		now:      time.Now,
		logger:   logger,
	}
}

// begin claims the single in-progress slot.
func (e *syncEngine) begin(allowFailedHeal bool) (func(), error) {
	if !allowFailedHeal && e.healer.State() == models.HealFailed {
		return nil, ErrHealingFailed
	}
	if !e.inProgress.CompareAndSwap(false, true) {
		return nil, ErrSyncInProgress
	}
	return func() { e.inProgress.Store(false) }, nil
}

// Open implements SyncEngine.
func (e *syncEngine) Open(ctx context.Context) (models.HealReport, error) {
	done, err := e.begin(true)
	if err != nil {
		return models.HealReport{}, err
	}
	defer done()

	return e.healAndOpen(ctx)
}

// Heal implements SyncEngine.
func (e *syncEngine) Heal(ctx context.Context) (models.HealReport, error) {
	done, err := e.begin(true)
	if err != nil {
		return models.HealReport{}, err
	}
	defer done()

	if err = e.closeStorages(); err != nil {
		return models.HealReport{}, err
	}
	return e.healAndOpen(ctx)
}

func (e *syncEngine) healAndOpen(ctx context.Context) (models.HealReport, error) {
	log := logger.FromContext(ctx)

	if e.opened() {
		return models.HealReport{Fingerprint: e.registry.Fingerprint()}, nil
	}

	report, err := e.healer.Heal(ctx, func(ctx context.Context) error {
		if err := e.openStorages(ctx); err != nil {
			return err
		}
		if e.adapter.Token() == "" {
			return ErrNotLoggedIn
		}
		pulled, err := e.pull.Pull(ctx)
		e.record(ctx, nil, &pulled, err)
		return err
	})
	if err != nil {
		log.Err(err).Str("func", "*syncEngine.Open").Msg("local database could not be healed")
		return report, err
	}

	if !e.opened() {
		if err = e.openStorages(ctx); err != nil {
			log.Err(err).Str("func", "*syncEngine.Open").Msg("error opening local database")
			return report, err
		}
	}

	log.Info().
		Str("path", e.path).
		Str("device_id", e.currentDevice()).
		Bool("rebuilt", report.Rebuilt).
		Msg("sync engine opened")
	return report, nil
}

func (e *syncEngine) openStorages(ctx context.Context) error {
	storages, err := store.NewClientStorages(ctx, e.path, e.registry, e.logger)
	if err != nil {
		return err
	}

	device, err := e.resolveDevice(ctx, storages.Meta)
	if err != nil {
		_ = storages.Close()
		return err
	}

	token, err := storages.Meta.GetMeta(ctx, store.MetaAuthToken)
	switch {
	case err == nil:
		e.adapter.SetToken(token)
	case !errors.Is(err, store.ErrMetaNotFound):
		_ = storages.Close()
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.storages = storages
	e.device = device
	e.push = NewPushClient(storages.Outbox, e.adapter, e.registry, e.resolver, device, e.workers, e.logger)
	e.pull = NewPullEngine(storages.Outbox, storages.Watermarks, e.adapter, e.registry, e.resolver, e.workers, e.logger)
	return nil
}

// resolveDevice returns the device identity, creating and storing one on
// first use. A configured id replaces the stored one.
func (e *syncEngine) resolveDevice(ctx context.Context, meta store.MetaRepository) (string, error) {
	stored, err := meta.GetMeta(ctx, store.MetaDeviceID)
	if err != nil && !errors.Is(err, store.ErrMetaNotFound) {
		return "", err
	}

	device := stored
	if e.deviceID != "" {
		device = e.deviceID
	}
	if device == "" {
		device = utils.NewDeviceID()
	}

	if device != stored {
		if err = meta.SetMeta(ctx, store.MetaDeviceID, device); err != nil {
			return "", err
		}
	}
	return device, nil
}

func (e *syncEngine) opened() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.storages != nil
}

func (e *syncEngine) currentDevice() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.device
}

func (e *syncEngine) sides() (PushClient, PullEngine, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.storages == nil {
		return nil, nil, ErrEngineNotOpened
	}
	if e.adapter.Token() == "" {
		return nil, nil, ErrNotLoggedIn
	}
	return e.push, e.pull, nil
}

// Sync implements SyncEngine. The pull is skipped when the push found the
// remote service unreachable.
func (e *syncEngine) Sync(ctx context.Context) (models.PushSummary, models.PullSummary, error) {
	done, err := e.begin(false)
	if err != nil {
		return models.PushSummary{}, models.PullSummary{}, err
	}
	defer done()

	push, pull, err := e.sides()
	if err != nil {
		return models.PushSummary{}, models.PullSummary{}, err
	}

	pushed, pushErr := push.Push(ctx)
	if IsTransient(pushErr) {
		e.record(ctx, &pushed, nil, pushErr)
		return pushed, models.PullSummary{TablesUpdated: []string{}}, pushErr
	}

	pulled, pullErr := pull.Pull(ctx)
	err = errors.Join(pushErr, pullErr)
	e.record(ctx, &pushed, &pulled, err)
	return pushed, pulled, err
}

// SyncUp implements SyncEngine.
func (e *syncEngine) SyncUp(ctx context.Context) (models.PushSummary, error) {
	done, err := e.begin(false)
	if err != nil {
		return models.PushSummary{}, err
	}
	defer done()

	push, _, err := e.sides()
	if err != nil {
		return models.PushSummary{}, err
	}

	pushed, err := push.Push(ctx)
	e.record(ctx, &pushed, nil, err)
	return pushed, err
}

// SyncDown implements SyncEngine.
func (e *syncEngine) SyncDown(ctx context.Context) (models.PullSummary, error) {
	done, err := e.begin(false)
	if err != nil {
		return models.PullSummary{}, err
	}
	defer done()

	_, pull, err := e.sides()
	if err != nil {
		return models.PullSummary{}, err
	}

	pulled, err := pull.Pull(ctx)
	e.record(ctx, nil, &pulled, err)
	return pulled, err
}

// record keeps the outcome for Status. A fully successful run also stores
// its time in the local database.
func (e *syncEngine) record(ctx context.Context, pushed *models.PushSummary, pulled *models.PullSummary, err error) {
	e.mu.Lock()
	if pushed != nil {
		e.lastPush = *pushed
	}
	if pulled != nil {
		e.lastPull = *pulled
	}
	e.lastErr = ""
	if err != nil {
		e.lastErr = err.Error()
	}
	storages := e.storages
	e.mu.Unlock()

	if err != nil || storages == nil {
		return
	}
	stamp := e.now().UTC().Format(time.RFC3339Nano)
	if setErr := storages.Meta.SetMeta(ctx, store.MetaLastSyncAt, stamp); setErr != nil {
		logger.FromContext(ctx).Err(setErr).Str("func", "*syncEngine.record").Msg("error storing last sync time")
	}
}

// RetryRejected implements SyncEngine.
func (e *syncEngine) RetryRejected(ctx context.Context) (int64, error) {
	done, err := e.begin(false)
	if err != nil {
		return 0, err
	}
	defer done()

	e.mu.RLock()
	storages := e.storages
	e.mu.RUnlock()
	if storages == nil {
		return 0, ErrEngineNotOpened
	}

	n, err := storages.Outbox.RetryRejected(ctx)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*syncEngine.RetryRejected").Msg("error releasing rejected changes")
		return 0, err
	}
	return n, nil
}

// Status implements SyncEngine.
func (e *syncEngine) Status(ctx context.Context) (models.EngineStatus, error) {
	e.mu.RLock()
	storages := e.storages
	status := models.EngineStatus{
		DeviceID:      e.device,
		Fingerprint:   e.registry.Fingerprint(),
		HealState:     e.healer.State(),
		InProgress:    e.inProgress.Load(),
		LastSyncError: e.lastErr,
		LastPush:      e.lastPush,
		LastPull:      e.lastPull,
	}
	e.mu.RUnlock()

	if storages == nil {
		return status, ErrEngineNotOpened
	}

	counts, err := storages.Outbox.CountByTable(ctx)
	if err != nil {
		return status, err
	}
	watermarks, err := storages.Watermarks.ListWatermarks(ctx)
	if err != nil {
		return status, err
	}
	byTable := make(map[string]models.SyncWatermark, len(watermarks))
	for _, w := range watermarks {
		byTable[w.Table] = w
	}

	for _, desc := range e.registry.Tables() {
		w := byTable[desc.Name]
		status.Tables = append(status.Tables, models.TableStatus{
			Table:          desc.Name,
			DependencyRank: desc.DependencyRank,
			PendingChanges: counts[desc.Name],
			Cursor:         w.Cursor,
			LastPulledAt:   w.LastPulledAt,
		})
	}

	stamp, err := storages.Meta.GetMeta(ctx, store.MetaLastSyncAt)
	switch {
	case err == nil:
		t, parseErr := time.Parse(time.RFC3339Nano, stamp)
		if parseErr != nil {
			return status, fmt.Errorf("stored last sync time %q: %w", stamp, parseErr)
		}
		status.LastSyncAt = &t
	case !errors.Is(err, store.ErrMetaNotFound):
		return status, err
	}

	return status, nil
}

func (e *syncEngine) Rows() (store.LocalRowRepository, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.storages == nil {
		return nil, ErrEngineNotOpened
	}
	return e.storages.Rows, nil
}

func (e *syncEngine) Meta() (store.MetaRepository, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.storages == nil {
		return nil, ErrEngineNotOpened
	}
	return e.storages.Meta, nil
}

// Close implements SyncEngine.
func (e *syncEngine) Close() error {
	return e.closeStorages()
}

func (e *syncEngine) closeStorages() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.storages == nil {
		return nil
	}
	err := e.storages.Close()
	e.storages = nil
	e.push = nil
	e.pull = nil
	return err
}
