package store

import (
	"context"
	"time"

	"github.com/MKhiriev/go-offline-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// UserRepository persists accounts of the remote sync service.
type UserRepository interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindUserByLogin(ctx context.Context, login string) (models.User, error)
}

// SyncRepository is the authoritative row store of the remote sync service.
type SyncRepository interface {
	// ApplyChanges applies a validated batch for one user in a single
	// transaction and returns one result per change, in order.
	ApplyChanges(ctx context.Context, userID int64, deviceID string, changes []RemoteChange) ([]models.ChangeResult, error)
	// PullRows returns up to limit rows of table changed after since.
	PullRows(ctx context.Context, userID int64, table models.TableDescriptor, since int64, limit int) (PulledRows, error)
	// PruneAppliedChanges forgets idempotency records older than before.
	PruneAppliedChanges(ctx context.Context, before time.Time) (int64, error)
}

// RemoteChange is a pushed change whose key and row are already normalized
// against Table.
type RemoteChange struct {
	Table models.TableDescriptor
	Entry models.ChangeEntry
}

// PulledRows is one page read from sync_rows.
type PulledRows struct {
	Rows    []models.SyncableRow
	NextSeq int64
	HasMore bool
}
