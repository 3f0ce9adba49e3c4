package service

import "errors"

var (
	ErrInvalidDataProvided     = errors.New("invalid data provided")
	ErrWrongPassword           = errors.New("wrong password")
	ErrTokenIsExpiredOrInvalid = errors.New("token is expired or invalid")
	ErrTokenCreationFailed     = errors.New("token creation failed")
	ErrVersionIsNotSpecified   = errors.New("app version is not specified")
	ErrSchemaIsNotSpecified    = errors.New("schema registry is not specified")

	// ErrOffline marks a transient failure to reach the remote sync service.
	// Affected changes stay queued and are retried with backoff.
	ErrOffline = errors.New("remote sync service is unreachable")

	// ErrChangeRejected marks changes the remote service refused as
	// malformed. They are parked until an operator retries them.
	ErrChangeRejected = errors.New("change rejected by remote sync service")

	// ErrHealingFailed is fatal: the local database could not be brought in
	// line with the schema and sync stays halted.
	ErrHealingFailed = errors.New("local database healing failed")

	// ErrSyncInProgress is returned when a sync operation is requested
	// while another one is running.
	ErrSyncInProgress = errors.New("sync already in progress")

	ErrEngineNotOpened = errors.New("sync engine is not opened")
	ErrNotLoggedIn     = errors.New("not logged in")

	ErrInvalidPushBatch   = errors.New("invalid push batch")
	ErrInvalidPullRequest = errors.New("invalid pull request")
)

// IsTransient reports whether err is worth retrying later without operator
// action.
func IsTransient(err error) bool {
	return errors.Is(err, ErrOffline)
}
