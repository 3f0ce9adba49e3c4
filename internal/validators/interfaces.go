// Package validators checks push and pull requests against the schema
// artifact before they reach storage: table names, operations, primary keys,
// change keys, versions, batch sizes and cursors.
package validators

import "context"

// Validator validates a request value. Passing field names restricts the
// check to those fields; with none every check applies.
type Validator interface {
	Validate(ctx context.Context, v any, fields ...string) error
}
