package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/MKhiriev/go-offline-sync/internal/app"
	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode codes.Code
		wantMsg  string
	}{
		{"invalid data", service.ErrInvalidDataProvided, codes.InvalidArgument, app.MsgInvalidDataProvided},
		{"invalid pull", fmt.Errorf("%w: unknown table", service.ErrInvalidPullRequest), codes.InvalidArgument, app.MsgInvalidPullRequest},
		{"invalid push keeps detail", fmt.Errorf("%w: empty batch", service.ErrInvalidPushBatch), codes.InvalidArgument, "invalid push batch: empty batch"},
		{"integrity", errIntegrityMismatch, codes.InvalidArgument, app.MsgIntegrityCheckFailed},
		{"wrong password", service.ErrWrongPassword, codes.Unauthenticated, app.MsgInvalidLoginPassword},
		{"no user", store.ErrNoUserWasFound, codes.Unauthenticated, app.MsgInvalidLoginPassword},
		{"bad token", service.ErrTokenIsExpiredOrInvalid, codes.Unauthenticated, app.MsgTokenIsExpiredOrInvalid},
		{"login taken", store.ErrLoginAlreadyExists, codes.AlreadyExists, app.MsgLoginAlreadyExists},
		{"transient", fmt.Errorf("%w: %w", store.ErrDatabaseUnavailable, store.ErrExecutingQuery), codes.Unavailable, app.MsgServiceUnavailable},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded, context.DeadlineExceeded.Error()},
		{"unknown", errors.New("boom"), codes.Internal, app.MsgInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := status.Convert(toStatus(tt.err))
			assert.Equal(t, tt.wantCode, st.Code())
			assert.Equal(t, tt.wantMsg, st.Message())
		})
	}
}

func TestToStatus_KeepsExistingStatus(t *testing.T) {
	in := status.Error(codes.ResourceExhausted, "slow down")
	assert.Equal(t, in, toStatus(in))
	assert.NoError(t, toStatus(nil))
}
