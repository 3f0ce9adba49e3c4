package store

import "errors"

// Sentinel errors returned by repository methods to signal well-known failure
// conditions. Callers should use [errors.Is] to match against these values.
var (
	// ErrLoginAlreadyExists is returned when an attempt to register a new user
	// fails because a user with the same login already exists in the database.
	ErrLoginAlreadyExists = errors.New("login already exists")

	// ErrNoUserWasFound is returned when a lookup by login matches no user.
	ErrNoUserWasFound = errors.New("no user was found")

	// ErrRowNotFound is returned when a local row addressed by its primary
	// key does not exist.
	ErrRowNotFound = errors.New("row was not found")

	// ErrMissingPrimaryKey is returned when a row does not carry every
	// primary key column of its table.
	ErrMissingPrimaryKey = errors.New("row is missing primary key columns")

	// ErrMetaNotFound is returned when a sync_meta key is not set.
	ErrMetaNotFound = errors.New("sync meta key was not found")

	// ErrCaptureNotInstalled is returned when a described table has no
	// capture triggers, so local mutations would not reach the outbox.
	ErrCaptureNotInstalled = errors.New("change capture is not installed")

	// ErrHealBufferCorrupted is returned when the preservation buffer file
	// exists but cannot be decoded.
	ErrHealBufferCorrupted = errors.New("heal buffer is corrupted")
)

// Low-level database operation errors. These are returned (or wrapped) by
// repository methods when a SQL-level operation fails before any domain logic
// can be applied.
var (
	// ErrBuildingSQLQuery is returned when constructing a parameterised SQL
	// query fails (e.g. invalid argument count or unsupported type).
	ErrBuildingSQLQuery = errors.New("error building sql query")

	// ErrExecutingQuery is returned when executing a SELECT or similar
	// read-only query against the database fails.
	ErrExecutingQuery = errors.New("error executing sql query")

	// ErrBeginningTransaction is returned when the database driver cannot
	// start a new transaction.
	ErrBeginningTransaction = errors.New("failed to begin transaction")

	// ErrCommitingTransaction is returned when committing an open transaction
	// fails. The transaction is considered rolled back at this point.
	ErrCommitingTransaction = errors.New("failed to commit transaction")

	// ErrExecutingStatement is returned when executing a DML or DDL
	// statement fails.
	ErrExecutingStatement = errors.New("failed to execute statement")

	// ErrScanningRow is returned when scanning column values from a single
	// result row fails.
	ErrScanningRow = errors.New("failed to scan row")

	// ErrScanningRows is returned when scanning column values during
	// multi-row iteration fails, typically mid-result-set.
	ErrScanningRows = errors.New("failed to scan rows")

	// ErrDatabaseUnavailable marks a failure the database classifier
	// considers transient (connection loss, serialization failure, deadlock).
	ErrDatabaseUnavailable = errors.New("database temporarily unavailable")
)
