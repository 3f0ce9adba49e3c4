package store

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// ErrorClassification tells whether a failed statement may succeed if the
// client simply tries again later.
type ErrorClassification int

const (
	// NonRetryable is the default for constraint violations, bad data,
	// schema errors and anything unrecognised.
	NonRetryable ErrorClassification = iota
	// Retryable marks transient failures: lost connections, rolled back
	// transactions and a server that is starting or shutting down.
	Retryable
)

// ErrorClassificator decides whether a database error is worth retrying.
type ErrorClassificator interface {
	Classify(err error) ErrorClassification
}

// PostgresErrorClassifier implements [ErrorClassificator] for the remote
// service's database.
type PostgresErrorClassifier struct{}

// NewPostgresErrorClassifier constructs a [PostgresErrorClassifier].
func NewPostgresErrorClassifier() *PostgresErrorClassifier {
	return &PostgresErrorClassifier{}
}

// Classify implements [ErrorClassificator]. Server errors are judged by
// SQLSTATE class. Errors raised before the server answered (dial failures,
// timeouts) are retryable when pgconn reports them safe to retry.
func (c *PostgresErrorClassifier) Classify(err error) ErrorClassification {
	if err == nil {
		return NonRetryable
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return classifySQLState(pgErr.Code)
	}

	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return Retryable
	}
	return NonRetryable
}

// classifySQLState maps a SQLSTATE to a classification. Retryable classes:
// 08 (connection exception), 40 (transaction rollback: serialization
// failures and deadlocks), 53 (insufficient resources), 57P01..57P03
// (shutdown and startup). Everything else, including 22, 23 and 42, is not.
func classifySQLState(code string) ErrorClassification {
	switch {
	case pgerrcode.IsConnectionException(code),
		pgerrcode.IsTransactionRollback(code),
		pgerrcode.IsInsufficientResources(code):
		return Retryable
	}

	switch code {
	case pgerrcode.AdminShutdown,
		pgerrcode.CrashShutdown,
		pgerrcode.CannotConnectNow:
		return Retryable
	}

	return NonRetryable
}
