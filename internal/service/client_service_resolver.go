// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"fmt"
	"slices"

	"github.com/MKhiriev/go-offline-sync/internal/schema"
	"github.com/MKhiriev/go-offline-sync/models"
)

// Reasons reported in models.Resolution.
const (
	reasonHigherVersion = "higher sync version"
	reasonLaterChange   = "later modification"
	reasonDeviceID      = "device id tiebreak"
	reasonIdentical     = "identical ordering keys"
)

type conflictResolver struct{}

// NewConflictResolver returns the deterministic resolver shared by the push
// and pull sides.
func NewConflictResolver() ConflictResolver {
	return conflictResolver{}
}

// Resolve implements ConflictResolver.
//
// The winner is the side with the higher SyncVersion; on a tie the later
// LastModifiedAt; on a tie the lexicographically greater DeviceID. Rows equal
// in all three keep the remote version, which is what every other device
// already holds.
//
// The resulting row carries the winner's key, sync columns and conflict
// columns. Other columns come from the winner unless it has no value for
// them, in which case the loser's value is kept. A deleted winner produces a
// tombstone.
func (conflictResolver) Resolve(local, remote models.SyncableRow, desc models.TableDescriptor) models.Resolution {
	winner, reason := order(local, remote)

	win, lose := remote, local
	if winner == models.KeepLocal {
		win, lose = local, remote
	}

	return models.Resolution{
		Row:    merge(win, lose, desc),
		Winner: winner,
		Reason: reason,
	}
}

func order(local, remote models.SyncableRow) (models.Winner, string) {
	switch {
	case local.SyncVersion != remote.SyncVersion:
		if local.SyncVersion > remote.SyncVersion {
			return models.KeepLocal, reasonHigherVersion
		}
		return models.KeepRemote, reasonHigherVersion

	case !local.LastModifiedAt.Equal(remote.LastModifiedAt):
		if local.LastModifiedAt.After(remote.LastModifiedAt) {
			return models.KeepLocal, reasonLaterChange
		}
		return models.KeepRemote, reasonLaterChange

	case local.DeviceID != remote.DeviceID:
		if local.DeviceID > remote.DeviceID {
			return models.KeepLocal, fmt.Sprintf("%s (%s)", reasonDeviceID, local.DeviceID)
		}
		return models.KeepRemote, fmt.Sprintf("%s (%s)", reasonDeviceID, remote.DeviceID)
	}

	return models.KeepRemote, reasonIdentical
}

func merge(win, lose models.SyncableRow, desc models.TableDescriptor) models.SyncableRow {
	out := models.SyncableRow{
		Table:          desc.Name,
		SyncVersion:    win.SyncVersion,
		LastModifiedAt: win.LastModifiedAt.UTC(),
		DeviceID:       win.DeviceID,
		Deleted:        win.Deleted,
	}

	if win.Deleted {
		out.Values = win.Values.Pick(desc.PrimaryKey...)
		if len(out.Values) < len(desc.PrimaryKey) {
			out.Values = lose.Values.Pick(desc.PrimaryKey...)
		}
		return out
	}

	conflict := schema.EffectiveConflictColumns(desc)

	out.Values = make(models.Row, len(desc.Columns))
	for _, c := range desc.Columns {
		v, ok := win.Values[c.Name]
		if desc.IsPrimaryKey(c.Name) || slices.Contains(conflict, c.Name) {
			if ok {
				out.Values[c.Name] = v
			}
			continue
		}
		if v == nil && !lose.Deleted {
			if lv, lok := lose.Values[c.Name]; lok {
				out.Values[c.Name] = lv
				continue
			}
		}
		if ok {
			out.Values[c.Name] = v
		}
	}
	return out
}
