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

const defaultPushBatchSize = 100

// outgoing is the coalesced form of every queued change of one row.
type outgoing struct {
	desc models.TableDescriptor
	ids  []int64

	// entry is what goes on the wire. It is unset for dropped groups.
	entry models.ChangeEntry
	// dropped marks an insert followed by a delete: nothing to send.
	dropped bool

	attempts int
	deviceID string
	reason   string
}

func (o outgoing) local() models.SyncableRow {
	row := models.SyncableRow{
		Table:          o.desc.Name,
		Values:         o.entry.Row,
		SyncVersion:    o.entry.SyncVersion,
		LastModifiedAt: o.entry.LastModifiedAt,
		DeviceID:       o.deviceID,
		Deleted:        o.entry.Operation == models.OperationDelete,
	}
	if row.Deleted {
		row.Values = o.entry.PrimaryKey.Clone()
	}
	return row
}

type pushClient struct {
	outbox   store.OutboxRepository
	adapter  adapter.SyncAdapter
	registry *schema.Registry
	resolver ConflictResolver

	deviceID   string
	batchSize  int
	retryBase  time.Duration
	maxBackoff time.Duration

	now    func() time.Time
	logger *logger.Logger
}

// NewPushClient creates a PushClient draining outbox into syncAdapter.
func NewPushClient(
	outbox store.OutboxRepository,
	syncAdapter adapter.SyncAdapter,
	registry *schema.Registry,
	resolver ConflictResolver,
	deviceID string,
	cfg config.ClientWorkers,
	logger *logger.Logger,
) PushClient {
	batchSize := cfg.PushBatchSize
	if batchSize <= 0 {
		batchSize = defaultPushBatchSize
	}

	return &pushClient{
		outbox:     outbox,
		adapter:    syncAdapter,
		registry:   registry,
		resolver:   resolver,
		deviceID:   deviceID,
		batchSize:  batchSize,
		retryBase:  defaultRetryBase,
		maxBackoff: cfg.MaxBackoff,
		now:        time.Now,
		logger:     logger,
	}
}

// Push implements PushClient.
//
// Ready changes are coalesced per row, then sent table by table: inserts and
// updates in ascending dependency rank, deletes afterwards in descending
// rank, so a referenced row always exists remotely before its dependents and
// outlives them.
func (p *pushClient) Push(ctx context.Context) (models.PushSummary, error) {
	log := logger.FromContext(ctx)
	var summary models.PushSummary

	changes, err := p.outbox.ListReady(ctx, p.now())
	if err != nil {
		log.Err(err).Str("func", "*pushClient.Push").Msg("error reading outbox")
		return summary, err
	}
	if len(changes) == 0 {
		return summary, nil
	}

	groups, err := p.coalesce(changes)
	if err != nil {
		log.Err(err).Str("func", "*pushClient.Push").Msg("error coalescing outbox")
		return summary, err
	}

	batches := p.plan(groups)

	var errs []error
	for i, batch := range batches {
		err = p.pushBatch(ctx, batch, &summary)
		if err == nil {
			continue
		}

		if IsTransient(err) {
			// nothing else will get through either
			var rest []outgoing
			for _, b := range batches[i:] {
				rest = append(rest, b...)
			}
			if markErr := p.markFailed(ctx, rest, err); markErr != nil {
				errs = append(errs, markErr)
			}
			errs = append(errs, err)
			break
		}

		errs = append(errs, err)
		if !errors.Is(err, ErrChangeRejected) {
			break
		}
	}

	log.Info().
		Int("applied", summary.Applied).
		Int("conflicts", summary.Conflicts).
		Int("failed", summary.Failed).
		Msg("push finished")

	return summary, errors.Join(errs...)
}

// coalesce folds the changes of each row, in capture order, into one
// outgoing change.
func (p *pushClient) coalesce(changes []models.PendingChange) ([]outgoing, error) {
	index := make(map[string]int)
	var groups []outgoing

	for _, change := range changes {
		desc, err := p.registry.Describe(change.Table)
		if err != nil {
			return nil, fmt.Errorf("outbox change %d: %w", change.ID, err)
		}

		pk, err := schema.Normalize(desc, change.PrimaryKey)
		if err != nil {
			return nil, fmt.Errorf("outbox change %d: %w", change.ID, err)
		}

		var snapshot models.Row
		if change.Operation != models.OperationDelete {
			if snapshot, err = schema.Normalize(desc, change.Snapshot); err != nil {
				return nil, fmt.Errorf("outbox change %d: %w", change.ID, err)
			}
		}

		key := desc.Name + "\x00" + pk.Key()
		i, seen := index[key]
		if !seen {
			index[key] = len(groups)
			groups = append(groups, outgoing{
				desc:     desc,
				ids:      []int64{change.ID},
				attempts: change.Attempts,
				deviceID: change.DeviceID,
				entry: models.ChangeEntry{
					ChangeKey:       change.ChangeKey,
					Table:           desc.Name,
					Operation:       change.Operation,
					PrimaryKey:      pk,
					Row:             snapshot,
					BaseSyncVersion: change.EffectiveBaseVersion(),
					SyncVersion:     change.SyncVersion,
					LastModifiedAt:  change.CapturedAt.UTC(),
				},
			})
			continue
		}

		g := &groups[i]
		g.ids = append(g.ids, change.ID)
		g.attempts = max(g.attempts, change.Attempts)
		g.deviceID = change.DeviceID
		g.entry.ChangeKey = change.ChangeKey
		g.entry.Row = snapshot
		g.entry.SyncVersion = change.SyncVersion
		g.entry.LastModifiedAt = change.CapturedAt.UTC()
		g.entry.Operation, g.dropped = fold(g.entry.Operation, g.dropped, change.Operation)
	}

	for i := range groups {
		g := &groups[i]
		if g.dropped {
			continue
		}
		// a rebase may have moved the base past the captured version
		g.entry.SyncVersion = max(g.entry.SyncVersion, g.entry.BaseSyncVersion+1)
	}

	return groups, nil
}

// fold combines the operation accumulated so far with the next one.
func fold(acc models.Operation, dropped bool, next models.Operation) (models.Operation, bool) {
	if dropped {
		return next, false
	}

	switch {
	case acc == models.OperationInsert && next == models.OperationDelete:
		return acc, true
	case acc == models.OperationInsert:
		return models.OperationInsert, false
	case next == models.OperationDelete:
		return models.OperationDelete, false
	default:
		// update+update, delete+insert and delete+update all leave a row
		// the server may already know
		return models.OperationUpdate, false
	}
}

// plan orders groups into per-table batches.
func (p *pushClient) plan(groups []outgoing) [][]outgoing {
	byTable := make(map[string][]outgoing)
	for _, g := range groups {
		byTable[g.desc.Name] = append(byTable[g.desc.Name], g)
	}

	var batches [][]outgoing
	add := func(items []outgoing) {
		for len(items) > 0 {
			n := min(len(items), p.batchSize)
			batches = append(batches, items[:n])
			items = items[n:]
		}
	}

	for _, desc := range p.registry.Tables() {
		var upserts []outgoing
		for _, g := range byTable[desc.Name] {
			if g.dropped || g.entry.Operation != models.OperationDelete {
				upserts = append(upserts, g)
			}
		}
		add(upserts)
	}
	for _, desc := range p.registry.TablesReversed() {
		var deletes []outgoing
		for _, g := range byTable[desc.Name] {
			if !g.dropped && g.entry.Operation == models.OperationDelete {
				deletes = append(deletes, g)
			}
		}
		add(deletes)
	}

	return batches
}

// pushBatch sends one batch of a single table and records the outcome
// locally.
func (p *pushClient) pushBatch(ctx context.Context, batch []outgoing, summary *models.PushSummary) error {
	log := logger.FromContext(ctx)
	desc := batch[0].desc
	ack := store.Acknowledgement{Table: desc}

	var send []outgoing
	for _, g := range batch {
		if g.dropped {
			ack.Delete = append(ack.Delete, g.ids...)
			continue
		}
		send = append(send, g)
	}

	var rejected []outgoing
	var resend []outgoing

	if len(send) > 0 {
		results, err := p.send(ctx, send)
		if err != nil {
			if errors.Is(err, ErrChangeRejected) {
				// the whole batch was refused
				if markErr := p.markRejected(ctx, send, err.Error()); markErr != nil {
					return markErr
				}
				summary.Failed += len(send)
			}
			if len(ack.Delete) > 0 {
				if ackErr := p.outbox.Acknowledge(ctx, ack); ackErr != nil {
					return errors.Join(err, ackErr)
				}
			}
			return err
		}

		for i, result := range results {
			g := send[i]
			switch result.Status {
			case models.StatusAccepted:
				ack.Delete = append(ack.Delete, g.ids...)
				if row, ok := p.serverRow(ctx, desc, result); ok {
					ack.Stamp = append(ack.Stamp, row)
				}
				summary.Applied++

			case models.StatusConflict:
				summary.Conflicts++
				remote, ok := p.serverRow(ctx, desc, result)
				if !ok {
					ack.Rebase = append(ack.Rebase, store.Rebase{ChangeIDs: g.ids, Version: g.entry.BaseSyncVersion})
					continue
				}

				resolution := p.resolver.Resolve(g.local(), remote, desc)
				log.Debug().
					Str("table", desc.Name).
					Str("change_key", g.entry.ChangeKey).
					Str("winner", string(resolution.Winner)).
					Str("reason", resolution.Reason).
					Msg("push conflict resolved")

				if resolution.Winner == models.KeepRemote {
					ack.Delete = append(ack.Delete, g.ids...)
					ack.Apply = append(ack.Apply, remote)
					continue
				}
				resend = append(resend, rebased(g, remote, resolution.Row))

			default:
				g.reason = result.Reason
				rejected = append(rejected, g)
				log.Warn().
					Str("table", desc.Name).
					Str("change_key", result.ChangeKey).
					Str("reason", result.Reason).
					Msg("change rejected by remote sync service")
			}
		}
	}

	var errs []error

	if len(resend) > 0 {
		if err := p.resend(ctx, desc, resend, &ack, summary); err != nil {
			errs = append(errs, err)
		}
	}

	if err := p.outbox.Acknowledge(ctx, ack); err != nil {
		log.Err(err).Str("func", "*pushClient.pushBatch").Str("table", desc.Name).Msg("error acknowledging pushed changes")
		return errors.Join(append(errs, err)...)
	}

	if len(rejected) > 0 {
		if err := p.markRejected(ctx, rejected, ""); err != nil {
			errs = append(errs, err)
		}
		summary.Failed += len(rejected)
		errs = append(errs, fmt.Errorf("%w: %d change(s) of %q", ErrChangeRejected, len(rejected), desc.Name))
	}

	return errors.Join(errs...)
}

// resend pushes changes that won their conflict once more, rebased on the
// server version. A second conflict is resolved again: a remote winner
// replaces the change, a local winner stays queued on the newer base.
func (p *pushClient) resend(ctx context.Context, desc models.TableDescriptor, resend []outgoing, ack *store.Acknowledgement, summary *models.PushSummary) error {
	log := logger.FromContext(ctx)

	results, err := p.send(ctx, resend)
	if err != nil {
		// keep them on the newer base; the next cycle sends them again
		for _, g := range resend {
			ack.Rebase = append(ack.Rebase, store.Rebase{ChangeIDs: g.ids, Version: g.entry.BaseSyncVersion})
		}
		return err
	}

	var rejected []outgoing
	for i, result := range results {
		g := resend[i]
		switch result.Status {
		case models.StatusAccepted:
			ack.Delete = append(ack.Delete, g.ids...)
			if row, ok := p.serverRow(ctx, desc, result); ok {
				ack.Apply = append(ack.Apply, row)
			}
			summary.Applied++

		case models.StatusConflict:
			remote, ok := p.serverRow(ctx, desc, result)
			if !ok {
				ack.Rebase = append(ack.Rebase, store.Rebase{ChangeIDs: g.ids, Version: g.entry.BaseSyncVersion})
				continue
			}

			resolution := p.resolver.Resolve(g.local(), remote, desc)
			if resolution.Winner == models.KeepRemote {
				ack.Delete = append(ack.Delete, g.ids...)
				ack.Apply = append(ack.Apply, remote)
				log.Debug().
					Str("table", desc.Name).
					Str("change_key", g.entry.ChangeKey).
					Str("reason", resolution.Reason).
					Msg("change lost its second conflict")
				continue
			}

			ack.Rebase = append(ack.Rebase, store.Rebase{ChangeIDs: g.ids, Version: remote.SyncVersion})
			log.Warn().
				Str("table", desc.Name).
				Str("change_key", g.entry.ChangeKey).
				Int64("server_version", remote.SyncVersion).
				Msg("change conflicted again, left queued")

		default:
			g.reason = result.Reason
			rejected = append(rejected, g)
		}
	}

	if len(rejected) > 0 {
		if err = p.markRejected(ctx, rejected, ""); err != nil {
			return err
		}
		summary.Failed += len(rejected)
		return fmt.Errorf("%w: %d change(s) of %q", ErrChangeRejected, len(rejected), desc.Name)
	}
	return nil
}

// rebased turns g into a change of the merged row on top of the server
// version.
func rebased(g outgoing, remote models.SyncableRow, merged models.SyncableRow) outgoing {
	g.entry.BaseSyncVersion = remote.SyncVersion
	g.entry.SyncVersion = max(g.entry.SyncVersion, remote.SyncVersion+1)

	switch {
	case merged.Deleted:
		g.entry.Operation = models.OperationDelete
		g.entry.Row = nil
	case remote.Deleted:
		g.entry.Operation = models.OperationInsert
		g.entry.Row = merged.Values
	default:
		g.entry.Operation = models.OperationUpdate
		g.entry.Row = merged.Values
	}
	return g
}

func (p *pushClient) send(ctx context.Context, groups []outgoing) ([]models.ChangeResult, error) {
	log := logger.FromContext(ctx)

	req := models.PushRequest{
		DeviceID: p.deviceID,
		Changes:  make([]models.ChangeEntry, 0, len(groups)),
	}
	for _, g := range groups {
		req.Changes = append(req.Changes, g.entry)
	}

	resp, err := p.adapter.Push(ctx, req)
	if err != nil {
		err = mapPushError(err)
		log.Err(err).
			Str("func", "*pushClient.send").
			Str("table", groups[0].desc.Name).
			Int("changes", len(groups)).
			Msg("push request failed")
		return nil, err
	}

	if len(resp.Results) != len(req.Changes) {
		return nil, fmt.Errorf("%w: %d results for %d changes", adapter.ErrInvalidResponse, len(resp.Results), len(req.Changes))
	}
	return resp.Results, nil
}

// serverRow normalizes the authoritative row carried by a result.
func (p *pushClient) serverRow(ctx context.Context, desc models.TableDescriptor, result models.ChangeResult) (models.SyncableRow, bool) {
	if result.ServerRow == nil {
		return models.SyncableRow{}, false
	}

	row := *result.ServerRow
	values, err := schema.Normalize(desc, row.Values)
	if err != nil {
		logger.FromContext(ctx).Err(err).
			Str("func", "*pushClient.serverRow").
			Str("table", desc.Name).
			Str("change_key", result.ChangeKey).
			Msg("server row does not match the schema")
		return models.SyncableRow{}, false
	}

	row.Table = desc.Name
	row.Values = values
	row.LastModifiedAt = row.LastModifiedAt.UTC()
	return row, true
}

func (p *pushClient) markFailed(ctx context.Context, groups []outgoing, cause error) error {
	byAttempt := make(map[int][]int64)
	for _, g := range groups {
		if g.dropped {
			continue
		}
		byAttempt[g.attempts+1] = append(byAttempt[g.attempts+1], g.ids...)
	}

	now := p.now()
	for attempt, ids := range byAttempt {
		next := now.Add(backoffDelay(p.retryBase, p.maxBackoff, attempt))
		if err := p.outbox.MarkFailed(ctx, ids, cause.Error(), next); err != nil {
			logger.FromContext(ctx).Err(err).Str("func", "*pushClient.markFailed").Msg("error recording retry metadata")
			return err
		}
	}
	return nil
}

func (p *pushClient) markRejected(ctx context.Context, groups []outgoing, reason string) error {
	byReason := make(map[string][]int64)
	for _, g := range groups {
		r := reason
		if r == "" {
			r = g.reason
		}
		if r == "" {
			r = "rejected by remote sync service"
		}
		byReason[r] = append(byReason[r], g.ids...)
	}

	for r, ids := range byReason {
		if err := p.outbox.MarkRejected(ctx, ids, r); err != nil {
			logger.FromContext(ctx).Err(err).Str("func", "*pushClient.markRejected").Msg("error parking rejected changes")
			return err
		}
	}
	return nil
}
