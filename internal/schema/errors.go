// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package schema

import "errors"

var (
	// ErrUnknownTable is returned when a table has no descriptor. It is a
	// configuration defect and must never be skipped silently.
	ErrUnknownTable = errors.New("table is not described")

	// ErrUnknownColumn is returned when a row carries a column the
	// descriptor does not list.
	ErrUnknownColumn = errors.New("column is not described")

	// ErrInvalidArtifact is returned when the schema artifact fails
	// load-time validation.
	ErrInvalidArtifact = errors.New("invalid schema artifact")

	// ErrInvalidValue is returned when a value cannot be normalized to its
	// column kind.
	ErrInvalidValue = errors.New("invalid column value")

	// ErrUnsupportedFormat is returned for artifact files that are neither
	// JSON nor YAML.
	ErrUnsupportedFormat = errors.New("unsupported schema artifact format")
)
