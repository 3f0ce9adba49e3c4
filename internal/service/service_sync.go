// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/schema"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/internal/validators"
	"github.com/MKhiriev/go-offline-sync/models"
)

const (
	defaultPullLimit = 500
	maxPullLimit     = 1000
)

// syncService is the concrete implementation of SyncService.
// Entries are checked one by one against the schema registry: a malformed
// entry is answered as rejected while the rest of the batch is applied in a
// single repository transaction.
type syncService struct {
	repo      store.SyncRepository
	registry  *schema.Registry
	validator validators.Validator

	now    func() time.Time
	logger *logger.Logger
}

// NewSyncService constructs a SyncService serving the tables of registry.
func NewSyncService(repo store.SyncRepository, registry *schema.Registry, logger *logger.Logger) SyncService {
	return &syncService{
		repo:      repo,
		registry:  registry,
		validator: validators.NewSyncValidator(registry, 0),
		now:       time.Now,
		logger:    logger,
	}
}

// Push implements SyncService.
func (s *syncService) Push(ctx context.Context, userID int64, req models.PushRequest) (models.PushResponse, error) {
	log := logger.FromContext(ctx)

	results := make([]models.ChangeResult, len(req.Changes))
	changes := make([]store.RemoteChange, 0, len(req.Changes))
	positions := make([]int, 0, len(req.Changes))

	for i, entry := range req.Changes {
		change, err := s.prepare(ctx, entry)
		if err != nil {
			log.Warn().
				Err(err).
				Int64("user_id", userID).
				Str("table", entry.Table).
				Str("change_key", entry.ChangeKey).
				Msg("change rejected")
			results[i] = models.ChangeResult{
				ChangeKey: entry.ChangeKey,
				Status:    models.StatusRejected,
				Reason:    err.Error(),
			}
			continue
		}
		changes = append(changes, change)
		positions = append(positions, i)
	}

	if len(changes) > 0 {
		applied, err := s.repo.ApplyChanges(ctx, userID, req.DeviceID, changes)
		if err != nil {
			log.Err(err).Str("func", "*syncService.Push").Int64("user_id", userID).Int("changes", len(changes)).Msg("error applying changes")
			return models.PushResponse{}, err
		}
		if len(applied) != len(changes) {
			return models.PushResponse{}, fmt.Errorf("repository returned %d results for %d changes", len(applied), len(changes))
		}
		for j, result := range applied {
			results[positions[j]] = result
		}
	}

	log.Debug().
		Int64("user_id", userID).
		Str("device_id", req.DeviceID).
		Int("changes", len(req.Changes)).
		Msg("push handled")

	return models.PushResponse{Results: results}, nil
}

// prepare validates entry and normalizes its key and row.
func (s *syncService) prepare(ctx context.Context, entry models.ChangeEntry) (store.RemoteChange, error) {
	if err := s.validator.Validate(ctx, entry); err != nil {
		return store.RemoteChange{}, err
	}

	desc, err := s.registry.Describe(entry.Table)
	if err != nil {
		return store.RemoteChange{}, err
	}

	if entry.PrimaryKey, err = schema.Normalize(desc, entry.PrimaryKey); err != nil {
		return store.RemoteChange{}, err
	}
	if entry.Operation == models.OperationDelete {
		entry.Row = nil
	} else if entry.Row, err = schema.Normalize(desc, entry.Row); err != nil {
		return store.RemoteChange{}, err
	}

	if entry.LastModifiedAt.IsZero() {
		entry.LastModifiedAt = s.now()
	}
	entry.LastModifiedAt = entry.LastModifiedAt.UTC()

	return store.RemoteChange{Table: desc, Entry: entry}, nil
}

// Pull implements SyncService. The cursor is the server sequence of the last
// row handed out; an empty cursor starts from the beginning.
func (s *syncService) Pull(ctx context.Context, userID int64, req models.PullRequest) (models.PullResponse, error) {
	log := logger.FromContext(ctx)

	desc, err := s.registry.Describe(req.Table)
	if err != nil {
		return models.PullResponse{}, fmt.Errorf("%w: %w", ErrInvalidPullRequest, err)
	}

	var since int64
	if req.Since != "" {
		since, err = strconv.ParseInt(req.Since, 10, 64)
		if err != nil || since < 0 {
			return models.PullResponse{}, fmt.Errorf("%w: cursor %q", ErrInvalidPullRequest, req.Since)
		}
	}

	limit := req.Limit
	switch {
	case limit <= 0:
		limit = defaultPullLimit
	case limit > maxPullLimit:
		limit = maxPullLimit
	}

	page, err := s.repo.PullRows(ctx, userID, desc, since, limit)
	if err != nil {
		log.Err(err).Str("func", "*syncService.Pull").Int64("user_id", userID).Str("table", desc.Name).Msg("error reading rows")
		return models.PullResponse{}, err
	}

	next := since
	if len(page.Rows) > 0 {
		next = page.NextSeq
	}

	rows := page.Rows
	if rows == nil {
		rows = []models.SyncableRow{}
	}

	return models.PullResponse{
		Table:      desc.Name,
		Rows:       rows,
		NextCursor: strconv.FormatInt(next, 10),
		HasMore:    page.HasMore,
	}, nil
}

// Schema implements SyncService.
func (s *syncService) Schema(_ context.Context) models.SchemaInfo {
	return s.registry.Info()
}

// PruneAppliedChanges implements SyncService.
func (s *syncService) PruneAppliedChanges(ctx context.Context, retention time.Duration) (int64, error) {
	before := s.now().Add(-retention)

	n, err := s.repo.PruneAppliedChanges(ctx, before)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*syncService.PruneAppliedChanges").Msg("error pruning applied changes")
		return 0, err
	}
	return n, nil
}
