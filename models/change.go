// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// Operation is the kind of captured mutation.
type Operation string

const (
	OperationInsert Operation = "insert"
	OperationUpdate Operation = "update"
	OperationDelete Operation = "delete"
)

// Valid reports whether o is a known operation.
func (o Operation) Valid() bool {
	return o == OperationInsert || o == OperationUpdate || o == OperationDelete
}

// PendingChange is a queued outbound mutation recorded by change capture in
// the same local transaction as the mutation itself.
type PendingChange struct {
	// ID is the local outbox sequence number (capture order).
	ID int64 `json:"id"`

	// ChangeKey is a random identifier generated at capture time. The
	// remote service records it to make re-sent changes idempotent.
	ChangeKey string `json:"change_key"`

	Table      string    `json:"table"`
	PrimaryKey Row       `json:"primary_key"`
	Operation  Operation `json:"operation"`

	// Snapshot is the full row state after an insert or update.
	// It is nil for deletes.
	Snapshot Row `json:"snapshot,omitempty"`

	// BaseSyncVersion is the version the mutation was applied on top of.
	BaseSyncVersion int64 `json:"base_sync_version"`

	// SyncVersion is the row version after the mutation.
	SyncVersion int64 `json:"sync_version"`

	CapturedAt time.Time `json:"captured_at"`
	DeviceID   string    `json:"device_id"`

	// Retry metadata, owned by the push client.
	Attempts          int        `json:"attempts"`
	LastError         string     `json:"last_error,omitempty"`
	NextAttemptAt     *time.Time `json:"next_attempt_at,omitempty"`
	RebaseSyncVersion *int64     `json:"rebase_sync_version,omitempty"`
}

// EffectiveBaseVersion returns the version the change should be sent against.
func (p PendingChange) EffectiveBaseVersion() int64 {
	if p.RebaseSyncVersion != nil {
		return *p.RebaseSyncVersion
	}
	return p.BaseSyncVersion
}

// SyncWatermark is the per-table pull cursor.
type SyncWatermark struct {
	Table        string     `json:"table"`
	Cursor       string     `json:"cursor"`
	LastPulledAt *time.Time `json:"last_pulled_at,omitempty"`
}
