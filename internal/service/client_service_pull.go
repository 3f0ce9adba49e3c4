// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/schema"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

const defaultPullPageSize = 500

// ErrCursorNotAdvancing is returned when the remote service reports more
// pages but hands back the cursor it was asked for.
var ErrCursorNotAdvancing = errors.New("pull cursor did not advance")

type pullEngine struct {
	outbox     store.OutboxRepository
	watermarks store.WatermarkRepository
	adapter    adapter.SyncAdapter
	registry   *schema.Registry
	resolver   ConflictResolver

	pageSize int

	now    func() time.Time
	logger *logger.Logger
}

// NewPullEngine creates a PullEngine applying remote pages into the local
// store.
func NewPullEngine(
	outbox store.OutboxRepository,
	watermarks store.WatermarkRepository,
	syncAdapter adapter.SyncAdapter,
	registry *schema.Registry,
	resolver ConflictResolver,
	cfg config.ClientWorkers,
	logger *logger.Logger,
) PullEngine {
	pageSize := cfg.PullPageSize
	if pageSize <= 0 {
		pageSize = defaultPullPageSize
	}

	return &pullEngine{
		outbox:     outbox,
		watermarks: watermarks,
		adapter:    syncAdapter,
		registry:   registry,
		resolver:   resolver,
		pageSize:   pageSize,
		now:        time.Now,
		logger:     logger,
	}
}

// Pull implements PullEngine.
func (e *pullEngine) Pull(ctx context.Context) (models.PullSummary, error) {
	log := logger.FromContext(ctx)
	summary := models.PullSummary{TablesUpdated: []string{}}

	var errs []error
	for _, desc := range e.registry.Tables() {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}

		applied, err := e.PullTable(ctx, desc)
		if applied > 0 {
			summary.TablesUpdated = append(summary.TablesUpdated, desc.Name)
			summary.RowsApplied += applied
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("pull %q: %w", desc.Name, err))
			// the service is gone for every table
			if IsTransient(err) {
				break
			}
		}
	}

	log.Info().
		Strs("tables", summary.TablesUpdated).
		Int("rows", summary.RowsApplied).
		Msg("pull finished")

	return summary, errors.Join(errs...)
}

// PullTable implements PullEngine. Each page is applied together with its
// cursor, so an interrupted pull resumes after the last applied page.
func (e *pullEngine) PullTable(ctx context.Context, desc models.TableDescriptor) (int, error) {
	log := logger.FromContext(ctx).With().Str("table", desc.Name).Logger()

	watermark, err := e.watermarks.GetWatermark(ctx, desc.Name)
	if err != nil {
		log.Err(err).Str("func", "*pullEngine.PullTable").Msg("error reading watermark")
		return 0, err
	}

	cursor := watermark.Cursor
	applied := 0

	for {
		resp, err := e.adapter.Pull(ctx, models.PullRequest{Table: desc.Name, Since: cursor, Limit: e.pageSize})
		if err != nil {
			err = mapAdapterError(err)
			log.Err(err).Str("func", "*pullEngine.PullTable").Str("cursor", cursor).Msg("pull request failed")
			return applied, err
		}

		page, err := e.preparePage(ctx, desc, resp)
		if err != nil {
			log.Err(err).Str("func", "*pullEngine.PullTable").Str("cursor", cursor).Msg("error preparing pulled page")
			return applied, err
		}

		if err = e.watermarks.ApplyPulledPage(ctx, page); err != nil {
			log.Err(err).Str("func", "*pullEngine.PullTable").Str("cursor", cursor).Msg("error applying pulled page")
			return applied, err
		}
		applied += len(page.Rows)

		log.Debug().
			Int("rows", len(resp.Rows)).
			Int("applied", len(page.Rows)).
			Str("cursor", page.Cursor).
			Bool("has_more", resp.HasMore).
			Msg("pulled page applied")

		if !resp.HasMore {
			return applied, nil
		}
		if page.Cursor == cursor {
			return applied, fmt.Errorf("%w: %q", ErrCursorNotAdvancing, cursor)
		}
		cursor = page.Cursor
	}
}

// preparePage normalizes the remote rows and settles every row that still
// has queued local changes. Remote winners discard the local changes and are
// applied; local winners stay queued, rebased onto the remote version, and
// the remote row is skipped.
func (e *pullEngine) preparePage(ctx context.Context, desc models.TableDescriptor, resp models.PullResponse) (store.PulledPage, error) {
	log := logger.FromContext(ctx)

	page := store.PulledPage{
		Table:    desc,
		Cursor:   resp.NextCursor,
		PulledAt: e.now().UTC(),
	}
	if len(resp.Rows) == 0 {
		return page, nil
	}

	pending, err := e.pendingByKey(ctx, desc)
	if err != nil {
		return store.PulledPage{}, err
	}

	for _, remote := range resp.Rows {
		values, err := schema.Normalize(desc, remote.Values)
		if err != nil {
			return store.PulledPage{}, fmt.Errorf("remote row of %q: %w", desc.Name, err)
		}
		remote.Table = desc.Name
		remote.Values = values
		remote.LastModifiedAt = remote.LastModifiedAt.UTC()

		key := values.Pick(desc.PrimaryKey...).Key()
		local, queued := pending[key]
		if !queued {
			page.Rows = append(page.Rows, remote)
			continue
		}

		resolution := e.resolver.Resolve(local.row, remote, desc)
		log.Debug().
			Str("table", desc.Name).
			Str("winner", string(resolution.Winner)).
			Str("reason", resolution.Reason).
			Msg("pull conflict resolved")

		if resolution.Winner == models.KeepRemote {
			page.Discard = append(page.Discard, local.ids...)
			page.Rows = append(page.Rows, remote)
			continue
		}

		if remote.SyncVersion > local.base {
			page.Rebase = append(page.Rebase, store.Rebase{ChangeIDs: local.ids, Version: remote.SyncVersion})
		}
	}

	return page, nil
}

// queuedRow is the local side of a row with queued changes.
type queuedRow struct {
	row  models.SyncableRow
	ids  []int64
	base int64
}

// pendingByKey indexes the queued changes of desc by normalized primary key.
// The latest change gives the local state; the earliest gives the base.
func (e *pullEngine) pendingByKey(ctx context.Context, desc models.TableDescriptor) (map[string]queuedRow, error) {
	changes, err := e.outbox.ListByTable(ctx, desc.Name)
	if err != nil {
		return nil, err
	}

	index := make(map[string]queuedRow, len(changes))
	for _, change := range changes {
		pk, err := schema.Normalize(desc, change.PrimaryKey)
		if err != nil {
			return nil, fmt.Errorf("outbox change %d: %w", change.ID, err)
		}

		row := models.SyncableRow{
			Table:          desc.Name,
			Values:         pk,
			SyncVersion:    change.SyncVersion,
			LastModifiedAt: change.CapturedAt.UTC(),
			DeviceID:       change.DeviceID,
			Deleted:        change.Operation == models.OperationDelete,
		}
		if !row.Deleted {
			if row.Values, err = schema.Normalize(desc, change.Snapshot); err != nil {
				return nil, fmt.Errorf("outbox change %d: %w", change.ID, err)
			}
		}

		key := pk.Key()
		q, ok := index[key]
		if !ok {
			q.base = change.EffectiveBaseVersion()
		}
		q.row = row
		q.ids = append(q.ids, change.ID)
		index[key] = q
	}
	return index, nil
}
