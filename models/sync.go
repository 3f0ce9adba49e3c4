// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "time"

// ChangeStatus is the server decision for one pushed change.
type ChangeStatus string

const (
	StatusAccepted ChangeStatus = "accepted"
	StatusConflict ChangeStatus = "conflict"
	StatusRejected ChangeStatus = "rejected"
)

// ChangeEntry is one element of a push batch.
type ChangeEntry struct {
	ChangeKey       string    `json:"change_key"`
	Table           string    `json:"table"`
	Operation       Operation `json:"operation"`
	PrimaryKey      Row       `json:"primary_key"`
	Row             Row       `json:"row,omitempty"`
	BaseSyncVersion int64     `json:"base_sync_version"`
	SyncVersion     int64     `json:"sync_version"`
	LastModifiedAt  time.Time `json:"last_modified_at"`
}

// PushRequest carries a batch of changes from one device.
type PushRequest struct {
	DeviceID string        `json:"device_id"`
	Changes  []ChangeEntry `json:"changes"`

	// Hash is the hex HMAC-SHA256 of the JSON encoded Changes, checked by
	// the server before the batch is applied.
	Hash string `json:"hash,omitempty"`
}

// ChangeResult is the server decision for one ChangeEntry.
type ChangeResult struct {
	ChangeKey string       `json:"change_key"`
	Status    ChangeStatus `json:"status"`
	ServerRow *SyncableRow `json:"server_row,omitempty"`
	Reason    string       `json:"reason,omitempty"`
}

// PushResponse holds one result per pushed entry, in request order.
type PushResponse struct {
	Results []ChangeResult `json:"results"`
}

// PullRequest asks for rows of one table changed after the cursor Since.
type PullRequest struct {
	Table string `json:"table"`
	Since string `json:"since"`
	Limit int    `json:"limit"`
}

// PullResponse is one page of remote rows.
type PullResponse struct {
	Table      string        `json:"table"`
	Rows       []SyncableRow `json:"rows"`
	NextCursor string        `json:"next_cursor"`
	HasMore    bool          `json:"has_more"`
}
