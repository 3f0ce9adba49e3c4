// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import (
	"bytes"
	"encoding/json"
	"strings"
	"time"
)

// Row maps column names to normalized values.
type Row map[string]any

// Clone returns a shallow copy of r.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Pick returns a new Row holding only the given columns that are present in r.
func (r Row) Pick(columns ...string) Row {
	out := make(Row, len(columns))
	for _, c := range columns {
		if v, ok := r[c]; ok {
			out[c] = v
		}
	}
	return out
}

// Key returns the canonical JSON encoding of r. encoding/json sorts map keys,
// so equal rows always produce equal keys.
func (r Row) Key() string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(r); err != nil {
		return ""
	}
	return strings.TrimSuffix(buf.String(), "\n")
}

// SyncableRow is one row of a described table together with its sync
// bookkeeping. A deleted row travels as a tombstone whose Values hold only
// the primary key.
type SyncableRow struct {
	Table          string    `json:"table"`
	Values         Row       `json:"values"`
	SyncVersion    int64     `json:"sync_version"`
	LastModifiedAt time.Time `json:"last_modified_at"`
	DeviceID       string    `json:"device_id"`
	Deleted        bool      `json:"deleted,omitempty"`
}

// Winner names the side chosen by the conflict resolver.
type Winner string

const (
	KeepLocal  Winner = "keep_local"
	KeepRemote Winner = "keep_remote"
)

// Resolution is the outcome of resolving a local/remote pair.
type Resolution struct {
	Row    SyncableRow `json:"row"`
	Winner Winner      `json:"winner"`
	Reason string      `json:"reason"`
}
