package validators

import "errors"

var (
	ErrUnsupportedType = errors.New("unsupported type for validation")
	ErrUnknownField    = errors.New("unknown field for validation")

	ErrEmptyDeviceID        = errors.New("device id is required")
	ErrEmptyChangeKey       = errors.New("change key is required")
	ErrInvalidChangeKey     = errors.New("invalid change key")
	ErrDuplicateChangeKey   = errors.New("duplicate change key in batch")
	ErrTooManyChanges       = errors.New("too many changes in batch")
	ErrInvalidOperation     = errors.New("invalid operation")
	ErrIncompletePrimaryKey = errors.New("primary key is incomplete")
	ErrPrimaryKeyMismatch   = errors.New("row does not match primary key")
	ErrMissingRow           = errors.New("row is required")
	ErrInvalidVersion       = errors.New("invalid sync version")
	ErrEmptyTable           = errors.New("table is required")
	ErrInvalidLimit         = errors.New("invalid page limit")
	ErrInvalidCursor        = errors.New("invalid cursor")
)
