package adapter

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestMapGRPCError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"invalid argument", status.Error(codes.InvalidArgument, "bad batch"), ErrBadRequest},
		{"unauthenticated", status.Error(codes.Unauthenticated, "token is expired or invalid"), ErrUnauthorized},
		{"permission denied", status.Error(codes.PermissionDenied, "access denied"), ErrForbidden},
		{"not found", status.Error(codes.NotFound, "no such table"), ErrNotFound},
		{"already exists", status.Error(codes.AlreadyExists, "login already exists"), ErrConflict},
		{"internal", status.Error(codes.Internal, "boom"), ErrInternalServerError},
		{"unavailable", status.Error(codes.Unavailable, "connection refused"), ErrUnavailable},
		{"deadline", status.Error(codes.DeadlineExceeded, "slow"), ErrUnavailable},
		{"canceled", status.Error(codes.Canceled, "stop"), context.Canceled},
		{"not a status", errors.New("dial failed"), ErrUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapGRPCError(tt.err), tt.want)
		})
	}

	assert.NoError(t, mapGRPCError(nil))
}

func TestMapGRPCError_KeepsMessage(t *testing.T) {
	err := mapGRPCError(status.Error(codes.InvalidArgument, "integrity check failed"))
	assert.Contains(t, err.Error(), "integrity check failed")
}

func TestTransportError_PassesCancellation(t *testing.T) {
	err := transportError(context.Canceled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrUnavailable)

	assert.ErrorIs(t, transportError(context.DeadlineExceeded), ErrUnavailable)
}
