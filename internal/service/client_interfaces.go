package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/client_service_mock.go -package=mock

// ConflictResolver decides between a local and a remote version of the same
// row. Implementations must be pure: the same inputs always produce the same
// resolution, on every device.
type ConflictResolver interface {
	// Resolve orders the two versions by sync version, then by modification
	// time, then by device id, and merges them into the winner's row.
	Resolve(local, remote models.SyncableRow, desc models.TableDescriptor) models.Resolution
}

// PushClient sends queued local changes to the remote sync service.
type PushClient interface {
	// Push drains the ready part of the outbox. Changes that fail
	// transiently stay queued with backoff and the returned error wraps
	// ErrOffline. Malformed changes are parked and the error wraps
	// ErrChangeRejected.
	Push(ctx context.Context) (models.PushSummary, error)
}

// PullEngine brings remote changes into the local database table by table.
type PullEngine interface {
	// Pull walks every described table in dependency order. A failing table
	// keeps its watermark and does not stop the others.
	Pull(ctx context.Context) (models.PullSummary, error)

	// PullTable pulls a single table until the remote side has no more
	// pages. It returns the number of rows applied.
	PullTable(ctx context.Context, desc models.TableDescriptor) (int, error)
}

// SchemaHealer makes sure the local database matches the schema artifact
// before it is opened, rebuilding it without losing queued changes when it
// does not.
type SchemaHealer interface {
	// Heal inspects the local database and rebuilds it when needed.
	// rehydrate is called after a rebuild to refill the tables from the
	// remote sync service; its failure is not fatal.
	Heal(ctx context.Context, rehydrate func(ctx context.Context) error) (models.HealReport, error)

	// State returns the current state of the healer.
	State() models.HealState
}

// SyncEngine is the client facade over the local store, the healer and the
// push and pull sides. At most one sync operation runs at a time.
type SyncEngine interface {
	// Open heals and opens the local database and arms change capture.
	Open(ctx context.Context) (models.HealReport, error)

	// Sync pushes, then pulls.
	Sync(ctx context.Context) (models.PushSummary, models.PullSummary, error)
	SyncUp(ctx context.Context) (models.PushSummary, error)
	SyncDown(ctx context.Context) (models.PullSummary, error)

	// Heal re-runs the schema check on a closed database and reopens it.
	Heal(ctx context.Context) (models.HealReport, error)

	// RetryRejected releases parked changes for the next push.
	RetryRejected(ctx context.Context) (int64, error)

	Status(ctx context.Context) (models.EngineStatus, error)

	// Rows exposes the application-facing row API of the open database.
	Rows() (store.LocalRowRepository, error)
	// Meta exposes the session key/value store of the open database.
	Meta() (store.MetaRepository, error)

	Close() error
}

// ClientAuthService registers and logs the device's user in against the
// remote sync service and keeps the session token in the local database.
type ClientAuthService interface {
	// Register creates the account and stores the issued token.
	Register(ctx context.Context, user models.User) error

	// Login authenticates the user and stores the issued token. It returns
	// the server-assigned user id.
	Login(ctx context.Context, user models.User) (int64, error)

	// Logout forgets the stored token.
	Logout(ctx context.Context) error
}

// ClientSyncJob defines the contract for a background sync worker that
// periodically calls Sync on the engine.
type ClientSyncJob interface {
	// Start launches the background sync goroutine. It syncs right away and
	// then every interval, defaulting to 5 minutes if interval is zero or
	// negative. Any previously running job is stopped before the new one
	// begins.
	Start(ctx context.Context, interval time.Duration)

	// Stop signals the background goroutine to exit and blocks until it has
	// fully terminated.
	Stop()
}
