// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/MKhiriev/go-offline-sync/models"
)

// TimestampLayout is the text layout used for timestamps in the local store.
const TimestampLayout = time.RFC3339Nano

var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05Z",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// Normalize converts every value of row to the canonical representation of
// its column kind, so rows read from SQLite, decoded from JSON, or scanned
// from Postgres compare equal. Columns absent from the descriptor are
// rejected with [ErrUnknownColumn].
func Normalize(desc models.TableDescriptor, row models.Row) (models.Row, error) {
	out := make(models.Row, len(row))
	for col, v := range row {
		kind, ok := desc.ColumnKind(col)
		if !ok {
			return nil, fmt.Errorf("%w: %q.%q", ErrUnknownColumn, desc.Name, col)
		}

		nv, err := NormalizeValue(kind, v)
		if err != nil {
			return nil, fmt.Errorf("%q.%q: %w", desc.Name, col, err)
		}
		out[col] = nv
	}
	return out, nil
}

// NormalizeValue converts a single value to the canonical form of kind.
// nil always stays nil.
func NormalizeValue(kind models.ColumnKind, v any) (any, error) {
	if v == nil {
		return nil, nil
	}

	switch kind {
	case models.KindBoolean:
		return normalizeBool(v)
	case models.KindTimestamp:
		return normalizeTimestamp(v)
	case models.KindJSON:
		return normalizeJSON(v)
	default:
		return normalizeScalar(v), nil
	}
}

// StorageValue converts a canonical value into what the local SQLite store
// keeps: booleans as 0/1, timestamps as RFC 3339 text, JSON as text.
func StorageValue(kind models.ColumnKind, v any) (any, error) {
	nv, err := NormalizeValue(kind, v)
	if err != nil || nv == nil {
		return nv, err
	}

	switch kind {
	case models.KindBoolean:
		if nv.(bool) {
			return int64(1), nil
		}
		return int64(0), nil
	case models.KindTimestamp:
		return nv.(time.Time).Format(TimestampLayout), nil
	case models.KindJSON:
		return string(nv.(json.RawMessage)), nil
	}
	return nv, nil
}

// ParseTimestamp accepts the timestamp layouts produced by SQLite, Postgres
// and Go's own formatting, and returns the instant in UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unrecognized timestamp %q", ErrInvalidValue, s)
}

func normalizeBool(v any) (any, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case int64:
		return b != 0, nil
	case int:
		return b != 0, nil
	case float64:
		return b != 0, nil
	case json.Number:
		f, err := b.Float64()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		return f != 0, nil
	case []byte:
		return normalizeBool(string(b))
	case string:
		parsed, err := strconv.ParseBool(strings.TrimSpace(b))
		if err != nil {
			return nil, fmt.Errorf("%w: boolean %q", ErrInvalidValue, b)
		}
		return parsed, nil
	}
	return nil, fmt.Errorf("%w: boolean of type %T", ErrInvalidValue, v)
}

func normalizeTimestamp(v any) (any, error) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), nil
	case *time.Time:
		if t == nil {
			return nil, nil
		}
		return t.UTC(), nil
	case []byte:
		return ParseTimestamp(string(t))
	case string:
		return ParseTimestamp(t)
	}
	return nil, fmt.Errorf("%w: timestamp of type %T", ErrInvalidValue, v)
}

// normalizeJSON re-encodes the document so that key order and whitespace do
// not matter: encoding/json writes map keys sorted.
func normalizeJSON(v any) (any, error) {
	var raw []byte
	switch j := v.(type) {
	case json.RawMessage:
		raw = j
	case []byte:
		raw = j
	case string:
		raw = []byte(j)
	default:
		encoded, err := json.Marshal(j)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
		}
		raw = encoded
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()

	var doc any
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%w: json document: %w", ErrInvalidValue, err)
	}

	canonical, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidValue, err)
	}
	return json.RawMessage(canonical), nil
}

// normalizeScalar folds the numeric types that JSON decoding and SQL drivers
// produce into int64 where the value is integral, float64 otherwise.
func normalizeScalar(v any) any {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float64:
		if n == math.Trunc(n) && math.Abs(n) < 1<<53 {
			return int64(n)
		}
		return n
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	}
	return v
}

// EffectiveConflictColumns returns the columns compared to tell a conflict
// from a no-op re-send. Without declared conflict columns every non-key
// column counts.
func EffectiveConflictColumns(desc models.TableDescriptor) []string {
	if len(desc.ConflictColumns) > 0 {
		return desc.ConflictColumns
	}
	var cols []string
	for _, c := range desc.Columns {
		if !desc.IsPrimaryKey(c.Name) {
			cols = append(cols, c.Name)
		}
	}
	return cols
}

// SameValues reports whether a and b hold equal normalized values in every
// listed column. A column missing from one side equals nil.
func SameValues(a, b models.Row, columns []string) bool {
	for _, c := range columns {
		if !sameValue(a[c], b[c]) {
			return false
		}
	}
	return true
}

func sameValue(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	case json.RawMessage:
		bv, ok := b.(json.RawMessage)
		return ok && bytes.Equal(av, bv)
	case []byte:
		bv, ok := b.([]byte)
		return ok && bytes.Equal(av, bv)
	}
	return a == b
}
