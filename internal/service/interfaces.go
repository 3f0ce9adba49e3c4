package service

import (
	"context"
	"time"

	"github.com/MKhiriev/go-offline-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/service_mock.go -package=mock -exclude_interfaces=SyncServiceWrapper

// SyncService is the remote side of synchronization. Every call is scoped to
// the authenticated user.
type SyncService interface {
	// Push applies a batch of changes and returns one result per change in
	// request order.
	Push(ctx context.Context, userID int64, req models.PushRequest) (models.PushResponse, error)
	// Pull returns one page of rows of req.Table changed after req.Since.
	Pull(ctx context.Context, userID int64, req models.PullRequest) (models.PullResponse, error)
	// Schema reports the artifact the service validates against.
	Schema(ctx context.Context) models.SchemaInfo
	// PruneAppliedChanges forgets idempotency records older than retention.
	PruneAppliedChanges(ctx context.Context, retention time.Duration) (int64, error)
}

type AuthService interface {
	RegisterUser(ctx context.Context, user models.User) (models.User, error)
	Login(ctx context.Context, user models.User) (models.User, error)
	CreateToken(ctx context.Context, user models.User) (models.Token, error)
	ParseToken(ctx context.Context, tokenString string) (models.Token, error)
}

// AppInfoService reports what an unauthenticated caller may learn about the
// running server: its build version and the schema artifact it serves.
type AppInfoService interface {
	GetAppVersion(ctx context.Context) string
	GetSchemaInfo(ctx context.Context) models.SchemaInfo
}

// SyncServiceWrapper defines middleware composition for SyncService.
// Implementations wrap an existing SyncService to add behavior such as
// logging or validating.
type SyncServiceWrapper interface {
	Wrap(SyncService) SyncService // returns a decorated SyncService applying additional behavior
}
