// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// PushSummary reports the outcome of one push run.
type PushSummary struct {
	Applied   int `json:"applied"`
	Conflicts int `json:"conflicts"`
	Failed    int `json:"failed"`
}

// PullSummary reports the outcome of one pull run.
type PullSummary struct {
	TablesUpdated []string `json:"tables_updated"`
	RowsApplied   int      `json:"rows_applied"`
}

// HealState is a state of the self-healing schema manager.
type HealState string

const (
	HealClean            HealState = "clean"
	HealMismatchDetected HealState = "mismatch_detected"
	HealPreserving       HealState = "preserving"
	HealRebuilding       HealState = "rebuilding"
	HealReinitializing   HealState = "reinitializing"
	HealFailed           HealState = "failed"
)

// HealReport describes what happened when the local database was opened.
type HealReport struct {
	Rebuilt          bool     `json:"rebuilt"`
	Reasons          []string `json:"reasons,omitempty"`
	PreservedChanges int      `json:"preserved_changes"`
	Fingerprint      string   `json:"fingerprint"`
	Rehydrated       bool     `json:"rehydrated"`
}

// TableStatus is the per-table part of EngineStatus.
type TableStatus struct {
	Table          string     `json:"table"`
	DependencyRank int        `json:"dependency_rank"`
	PendingChanges int        `json:"pending_changes"`
	Cursor         string     `json:"cursor"`
	LastPulledAt   *time.Time `json:"last_pulled_at,omitempty"`
}

// EngineStatus is a point-in-time view of the local sync state.
type EngineStatus struct {
	DeviceID      string        `json:"device_id"`
	Fingerprint   string        `json:"fingerprint"`
	HealState     HealState     `json:"heal_state"`
	InProgress    bool          `json:"in_progress"`
	Tables        []TableStatus `json:"tables"`
	LastSyncAt    *time.Time    `json:"last_sync_at,omitempty"`
	LastSyncError string        `json:"last_sync_error,omitempty"`
	LastPush      PushSummary   `json:"last_push"`
	LastPull      PullSummary   `json:"last_pull"`
}
