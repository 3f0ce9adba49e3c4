package service

import (
	"context"
	"fmt"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/schema"
	"github.com/MKhiriev/go-offline-sync/internal/validators"
	"github.com/MKhiriev/go-offline-sync/models"
)

// SyncValidationService checks requests as a whole before they reach the
// wrapped SyncService. Individual push entries are checked by the inner
// service, so a bad entry rejects only itself.
type SyncValidationService struct {
	inner     SyncService
	validator validators.Validator
}

func NewSyncValidationService(registry *schema.Registry, maxBatch int) SyncServiceWrapper {
	return &SyncValidationService{
		validator: validators.NewSyncValidator(registry, maxBatch),
	}
}

func (v *SyncValidationService) Push(ctx context.Context, userID int64, req models.PushRequest) (models.PushResponse, error) {
	if err := v.validator.Validate(ctx, req); err != nil {
		return models.PushResponse{}, fmt.Errorf("%w: %w", ErrInvalidPushBatch, err)
	}

	return v.inner.Push(ctx, userID, req)
}

func (v *SyncValidationService) Pull(ctx context.Context, userID int64, req models.PullRequest) (models.PullResponse, error) {
	if err := v.validator.Validate(ctx, req); err != nil {
		return models.PullResponse{}, fmt.Errorf("%w: %w", ErrInvalidPullRequest, err)
	}

	return v.inner.Pull(ctx, userID, req)
}

func (v *SyncValidationService) Schema(ctx context.Context) models.SchemaInfo {
	return v.inner.Schema(ctx)
}

func (v *SyncValidationService) PruneAppliedChanges(ctx context.Context, retention time.Duration) (int64, error) {
	return v.inner.PruneAppliedChanges(ctx, retention)
}

func (v *SyncValidationService) Wrap(wrapper SyncService) SyncService {
	v.inner = wrapper
	return v
}
