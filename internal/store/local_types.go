package store

import (
	"time"

	"github.com/MKhiriev/go-offline-sync/models"
)

// Meta keys kept in sync_meta.
const (
	MetaDeviceID      = "device_id"
	MetaFingerprint   = "schema_fingerprint"
	MetaSchemaVersion = "schema_version"
	MetaAuthToken     = "auth_token"
	MetaUserLogin     = "user_login"
	MetaLastSyncAt    = "last_sync_at"
)

// SessionMetaKeys survive a rebuild of the local database.
var SessionMetaKeys = []string{MetaDeviceID, MetaAuthToken, MetaUserLogin}

// syncTimeLayout is fixed width, matching sqliteNow, so text comparison of
// stored times follows chronological order.
const syncTimeLayout = "2006-01-02T15:04:05.000Z"

// rejectedUntil parks rejected changes until RetryRejected releases them.
const rejectedUntil = "9999-12-31T23:59:59.999Z"

func formatSyncTime(t time.Time) string {
	return t.UTC().Format(syncTimeLayout)
}

// Acknowledgement is the local outcome of one pushed batch of a table.
type Acknowledgement struct {
	Table models.TableDescriptor
	// Delete lists outbox ids that are done.
	Delete []int64
	// Stamp carries accepted server rows whose sync columns are adopted when
	// no newer local change is queued for them.
	Stamp []models.SyncableRow
	// Apply carries server rows that replace local state with capture
	// suspended.
	Apply []models.SyncableRow
	// Rebase moves surviving changes onto a newer remote version.
	Rebase []Rebase
}

// Rebase records the remote version a set of queued changes now builds on.
type Rebase struct {
	ChangeIDs []int64
	Version   int64
}

// PulledPage is one page of remote rows ready to be applied.
type PulledPage struct {
	Table models.TableDescriptor
	// Rows are written with capture suspended. A row with a queued local
	// change is skipped unless its changes are listed in Discard.
	Rows    []models.SyncableRow
	Discard []int64
	Rebase  []Rebase
	// Cursor is stored as the new watermark once the page is applied.
	Cursor   string
	PulledAt time.Time
}

// PreservedState is what survives a rebuild of the local database.
type PreservedState struct {
	Changes   []models.PendingChange `json:"changes"`
	Session   map[string]string      `json:"session"`
	Reasons   []string               `json:"reasons,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

// BuildResult reports how much preserved state a rebuild restored.
type BuildResult struct {
	RestoredChanges int
	RestoredRows    int
	// Orphaned are preserved changes of tables that are no longer described.
	Orphaned []models.PendingChange
}
