package store

import (
	"context"
	"time"

	"github.com/MKhiriev/go-offline-sync/models"
)

//go:generate mockgen -source=client_interfaces.go -destination=../mock/client_store_mock.go -package=mock

// OutboxRepository is the local queue of captured changes.
type OutboxRepository interface {
	// ListReady returns changes whose retry time has come, in capture order.
	ListReady(ctx context.Context, now time.Time) ([]models.PendingChange, error)
	// ListByTable returns every queued change of table regardless of backoff.
	ListByTable(ctx context.Context, table string) ([]models.PendingChange, error)
	CountByTable(ctx context.Context) (map[string]int, error)
	// Acknowledge applies the local side of a push outcome in one transaction.
	Acknowledge(ctx context.Context, ack Acknowledgement) error
	MarkFailed(ctx context.Context, ids []int64, reason string, next time.Time) error
	MarkRejected(ctx context.Context, ids []int64, reason string) error
	Rebase(ctx context.Context, ids []int64, version int64) error
	// RetryRejected makes rejected changes eligible for the next push.
	RetryRejected(ctx context.Context) (int64, error)
}

// WatermarkRepository keeps per-table pull cursors and applies pulled pages.
type WatermarkRepository interface {
	GetWatermark(ctx context.Context, table string) (models.SyncWatermark, error)
	ListWatermarks(ctx context.Context) ([]models.SyncWatermark, error)
	// ApplyPulledPage writes a page of remote rows and advances the cursor
	// in one transaction.
	ApplyPulledPage(ctx context.Context, page PulledPage) error
}

// MetaRepository is the local key/value store for engine state.
type MetaRepository interface {
	GetMeta(ctx context.Context, key string) (string, error)
	SetMeta(ctx context.Context, key, value string) error
	DeleteMeta(ctx context.Context, key string) error
}

// LocalRowRepository reads and writes rows of described tables. Writes go
// through the capture triggers like any application write.
type LocalRowRepository interface {
	PutRow(ctx context.Context, table string, row models.Row) error
	UpdateRow(ctx context.Context, table string, row models.Row) error
	DeleteRow(ctx context.Context, table string, pk models.Row) error
	GetRow(ctx context.Context, table string, pk models.Row) (models.SyncableRow, error)
	ListRows(ctx context.Context, table string) ([]models.SyncableRow, error)
}

// CaptureInstaller installs and checks the capture triggers.
type CaptureInstaller interface {
	ArmCapture(ctx context.Context, tables []models.TableDescriptor) error
	VerifyCapture(ctx context.Context, tables []models.TableDescriptor) error
}

// LocalDatabaseManager works on local database files as a whole. The healer
// uses it while no connection to the live file is open.
type LocalDatabaseManager interface {
	// Inspect compares the file at path with the expected tables and
	// returns the mismatches found. An empty result means the file is usable.
	Inspect(ctx context.Context, path string, tables []models.TableDescriptor, info models.SchemaInfo) ([]string, error)
	// Preserve reads the outbox and session state that must survive a rebuild.
	Preserve(ctx context.Context, path string) (PreservedState, error)
	// Build creates a fresh database at path and restores state into it.
	Build(ctx context.Context, path string, tables []models.TableDescriptor, info models.SchemaInfo, state PreservedState) (BuildResult, error)
	// Replace atomically moves the database at src over dst.
	Replace(src, dst string) error

	WriteBuffer(path string, state PreservedState) error
	ReadBuffer(path string) (PreservedState, bool, error)
	RemoveBuffer(path string) error
}
