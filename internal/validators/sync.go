package validators

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strconv"

	"github.com/MKhiriev/go-offline-sync/internal/schema"
	"github.com/MKhiriev/go-offline-sync/models"
)

// Field name constants used to restrict validation to a subset of checks.
const (
	// FieldDeviceID targets the pushing device identity of a batch.
	FieldDeviceID = "device_id"

	// FieldChanges targets the size of a batch.
	FieldChanges = "changes"

	// FieldChangeKey targets the idempotency key of a change, or the
	// uniqueness of keys within a batch.
	FieldChangeKey = "change_key"

	// FieldTable targets the table name of a change or pull request.
	FieldTable = "table"

	FieldOperation  = "operation"
	FieldPrimaryKey = "primary_key"
	FieldRow        = "row"
	FieldVersion    = "version"

	// FieldCursor targets the Since cursor of a pull request.
	FieldCursor = "since"
	FieldLimit  = "limit"
)

var changeKeyPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{1,128}$`)

// SyncValidator checks push and pull requests against the schema registry
// the remote sync service serves.
type SyncValidator struct {
	registry *schema.Registry
	maxBatch int
}

// NewSyncValidator returns a registry-aware [Validator]. maxBatch <= 0 means
// no batch size limit.
func NewSyncValidator(registry *schema.Registry, maxBatch int) Validator {
	return &SyncValidator{registry: registry, maxBatch: maxBatch}
}

func (v *SyncValidator) Validate(ctx context.Context, obj any, fields ...string) error {
	switch value := obj.(type) {
	case models.PushRequest:
		return v.validatePushRequest(ctx, value, fields...)
	case *models.PushRequest:
		return v.validatePushRequest(ctx, *value, fields...)

	case models.ChangeEntry:
		return v.validateChangeEntry(ctx, value, fields...)
	case *models.ChangeEntry:
		return v.validateChangeEntry(ctx, *value, fields...)

	case models.PullRequest:
		return v.validatePullRequest(ctx, value, fields...)
	case *models.PullRequest:
		return v.validatePullRequest(ctx, *value, fields...)

	default:
		return ErrUnsupportedType
	}
}

// validatePushRequest checks the batch as a whole. Entries are checked one by
// one by the service so a malformed entry rejects only itself.
func (v *SyncValidator) validatePushRequest(_ context.Context, req models.PushRequest, fields ...string) error {
	for _, field := range scope(fields, FieldDeviceID, FieldChanges, FieldChangeKey) {
		switch field {
		case FieldDeviceID:
			if req.DeviceID == "" {
				return ErrEmptyDeviceID
			}
		case FieldChanges:
			if v.maxBatch > 0 && len(req.Changes) > v.maxBatch {
				return fmt.Errorf("%w: %d > %d", ErrTooManyChanges, len(req.Changes), v.maxBatch)
			}
		case FieldChangeKey:
			seen := make(map[string]struct{}, len(req.Changes))
			for _, c := range req.Changes {
				if c.ChangeKey == "" {
					return ErrEmptyChangeKey
				}
				if _, ok := seen[c.ChangeKey]; ok {
					return fmt.Errorf("%w: %s", ErrDuplicateChangeKey, c.ChangeKey)
				}
				seen[c.ChangeKey] = struct{}{}
			}
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
	}
	return nil
}

func (v *SyncValidator) validateChangeEntry(_ context.Context, entry models.ChangeEntry, fields ...string) error {
	desc, err := v.registry.Describe(entry.Table)
	if err != nil {
		return err
	}

	for _, field := range scope(fields, FieldChangeKey, FieldOperation, FieldVersion, FieldPrimaryKey, FieldRow) {
		switch field {
		case FieldChangeKey:
			if entry.ChangeKey == "" {
				return ErrEmptyChangeKey
			}
			if !changeKeyPattern.MatchString(entry.ChangeKey) {
				return fmt.Errorf("%w: %q", ErrInvalidChangeKey, entry.ChangeKey)
			}
		case FieldOperation:
			if !entry.Operation.Valid() {
				return fmt.Errorf("%w: %q", ErrInvalidOperation, entry.Operation)
			}
		case FieldVersion:
			if entry.BaseSyncVersion < 0 || entry.SyncVersion <= entry.BaseSyncVersion {
				return fmt.Errorf("%w: base %d, new %d", ErrInvalidVersion, entry.BaseSyncVersion, entry.SyncVersion)
			}
		case FieldPrimaryKey:
			if err = validatePrimaryKey(desc, entry.PrimaryKey); err != nil {
				return err
			}
		case FieldRow:
			if err = validateRow(desc, entry); err != nil {
				return err
			}
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
	}
	return nil
}

func (v *SyncValidator) validatePullRequest(_ context.Context, req models.PullRequest, fields ...string) error {
	for _, field := range scope(fields, FieldTable, FieldCursor, FieldLimit) {
		switch field {
		case FieldTable:
			if req.Table == "" {
				return ErrEmptyTable
			}
			if _, err := v.registry.Describe(req.Table); err != nil {
				return err
			}
		case FieldCursor:
			if req.Since == "" {
				continue
			}
			seq, err := strconv.ParseInt(req.Since, 10, 64)
			if err != nil || seq < 0 {
				return fmt.Errorf("%w: %q", ErrInvalidCursor, req.Since)
			}
		case FieldLimit:
			if req.Limit < 0 {
				return fmt.Errorf("%w: %d", ErrInvalidLimit, req.Limit)
			}
		default:
			return fmt.Errorf("%w: %s", ErrUnknownField, field)
		}
	}
	return nil
}

func validatePrimaryKey(desc models.TableDescriptor, pk models.Row) error {
	for _, col := range desc.PrimaryKey {
		if pk[col] == nil {
			return fmt.Errorf("%w: %q.%q", ErrIncompletePrimaryKey, desc.Name, col)
		}
	}
	for col := range pk {
		if !desc.IsPrimaryKey(col) {
			return fmt.Errorf("%w: %q is not a key column of %q", ErrIncompletePrimaryKey, col, desc.Name)
		}
	}
	if _, err := schema.Normalize(desc, pk); err != nil {
		return err
	}
	return nil
}

// validateRow checks the full row snapshot of an insert or update. Deletes
// may omit it.
func validateRow(desc models.TableDescriptor, entry models.ChangeEntry) error {
	if entry.Operation == models.OperationDelete {
		return nil
	}
	if len(entry.Row) == 0 {
		return ErrMissingRow
	}

	row, err := schema.Normalize(desc, entry.Row)
	if err != nil {
		return err
	}

	for _, c := range desc.Columns {
		if !c.Nullable && row[c.Name] == nil {
			return fmt.Errorf("%w: %q.%q is null", ErrMissingRow, desc.Name, c.Name)
		}
	}

	pk, err := schema.Normalize(desc, entry.PrimaryKey)
	if err != nil {
		return err
	}
	if !schema.SameValues(row, pk, desc.PrimaryKey) {
		return ErrPrimaryKeyMismatch
	}
	return nil
}

// scope returns the requested fields, or all of them when none are given.
func scope(requested []string, all ...string) []string {
	if len(requested) == 0 {
		return all
	}
	return slices.Clone(requested)
}
