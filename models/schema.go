// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package models

import "slices"

// ColumnKind tells the engine how a column value must be normalized when it
// crosses the boundary between the local and the remote database.
type ColumnKind string

const (
	// KindBoolean columns are stored as 0/1 locally and as booleans remotely.
	KindBoolean ColumnKind = "boolean"
	// KindTimestamp columns are stored as text locally and as timestamptz remotely.
	KindTimestamp ColumnKind = "timestamp"
	// KindJSON columns hold an opaque JSON document.
	KindJSON ColumnKind = "json"
	// KindScalar columns are passed through unchanged.
	KindScalar ColumnKind = "scalar"
)

// Valid reports whether k is one of the known column kinds.
func (k ColumnKind) Valid() bool {
	switch k {
	case KindBoolean, KindTimestamp, KindJSON, KindScalar:
		return true
	}
	return false
}

// Sync bookkeeping columns carried by every syncable table.
const (
	ColumnSyncVersion    = "sync_version"
	ColumnLastModifiedAt = "last_modified_at"
	ColumnDeviceID       = "device_id"
)

// SyncColumns lists the bookkeeping columns in their physical order.
var SyncColumns = []string{ColumnSyncVersion, ColumnLastModifiedAt, ColumnDeviceID}

// ColumnDescriptor describes one domain column of a syncable table.
type ColumnDescriptor struct {
	Name     string     `json:"name" yaml:"name"`
	Kind     ColumnKind `json:"kind" yaml:"kind"`
	Nullable bool       `json:"nullable,omitempty" yaml:"nullable,omitempty"`
}

// TableDescriptor is the declarative description of a syncable table.
//
// Everything that differs between tables (key shape, column kinds, conflict
// columns and dependency rank) is expressed here, so the engine never needs
// to branch on a table name.
type TableDescriptor struct {
	// Name is the table name, identical on both sides.
	Name string `json:"name" yaml:"name"`

	// PrimaryKey is the ordered list of key columns (1..N).
	PrimaryKey []string `json:"primary_key" yaml:"primary_key"`

	// Columns lists every domain column including the key columns.
	// Sync bookkeeping columns are implicit and never listed.
	Columns []ColumnDescriptor `json:"columns" yaml:"columns"`

	// ConflictColumns is the subset of columns compared to tell a true
	// conflict from a no-op re-send.
	ConflictColumns []string `json:"conflict_columns" yaml:"conflict_columns"`

	// DependencyRank orders tables for push and pull: lower ranks are
	// referenced by higher ranks.
	DependencyRank int `json:"dependency_rank" yaml:"dependency_rank"`
}

// ColumnKind returns the kind of the named column and whether it exists.
func (t TableDescriptor) ColumnKind(name string) (ColumnKind, bool) {
	for _, c := range t.Columns {
		if c.Name == name {
			return c.Kind, true
		}
	}
	return "", false
}

// ColumnNames returns the domain column names in declaration order.
func (t TableDescriptor) ColumnNames() []string {
	names := make([]string, 0, len(t.Columns))
	for _, c := range t.Columns {
		names = append(names, c.Name)
	}
	return names
}

// IsPrimaryKey reports whether name is part of the primary key.
func (t TableDescriptor) IsPrimaryKey(name string) bool {
	return slices.Contains(t.PrimaryKey, name)
}

// IsConflictColumn reports whether name participates in conflict comparison.
func (t TableDescriptor) IsConflictColumn(name string) bool {
	return slices.Contains(t.ConflictColumns, name)
}

// SchemaArtifact is the generated, versioned file shared by the local engine
// and the remote sync service.
type SchemaArtifact struct {
	Version     int               `json:"version" yaml:"version"`
	GeneratedAt string            `json:"generated_at,omitempty" yaml:"generated_at,omitempty"`
	Tables      []TableDescriptor `json:"tables" yaml:"tables"`
}

// SchemaInfo is what the remote service reports about the artifact it serves.
type SchemaInfo struct {
	Version     int    `json:"version"`
	Fingerprint string `json:"fingerprint"`
}
