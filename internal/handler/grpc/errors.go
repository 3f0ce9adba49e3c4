package grpc

import (
	"context"
	"errors"

	"github.com/MKhiriev/go-offline-sync/internal/app"
	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var (
	errNoUserID          = errors.New(app.MsgNoUserIDProvided)
	errIntegrityMismatch = errors.New(app.MsgIntegrityCheckFailed)
)

type errorCode struct {
	target   error
	code     codes.Code
	message  string
	detailed bool
}

// errorCodes mirrors the REST status table; the messages are the same so the
// client maps both transports with one table.
var errorCodes = []errorCode{
	{target: store.ErrDatabaseUnavailable, code: codes.Unavailable, message: app.MsgServiceUnavailable},

	{target: service.ErrInvalidPushBatch, code: codes.InvalidArgument, message: app.MsgInvalidPushBatch, detailed: true},
	{target: service.ErrInvalidPullRequest, code: codes.InvalidArgument, message: app.MsgInvalidPullRequest},
	{target: service.ErrInvalidDataProvided, code: codes.InvalidArgument, message: app.MsgInvalidDataProvided},
	{target: errIntegrityMismatch, code: codes.InvalidArgument, message: app.MsgIntegrityCheckFailed},

	{target: service.ErrWrongPassword, code: codes.Unauthenticated, message: app.MsgInvalidLoginPassword},
	{target: store.ErrNoUserWasFound, code: codes.Unauthenticated, message: app.MsgInvalidLoginPassword},
	{target: service.ErrTokenIsExpiredOrInvalid, code: codes.Unauthenticated, message: app.MsgTokenIsExpiredOrInvalid},
	{target: errNoUserID, code: codes.Unauthenticated, message: app.MsgNoUserIDProvided},

	{target: store.ErrLoginAlreadyExists, code: codes.AlreadyExists, message: app.MsgLoginAlreadyExists},

	{target: context.Canceled, code: codes.Canceled, message: context.Canceled.Error()},
	{target: context.DeadlineExceeded, code: codes.DeadlineExceeded, message: context.DeadlineExceeded.Error()},
}

// toStatus converts a service error into a gRPC status error. Errors that
// already carry a status are returned unchanged.
func toStatus(err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}

	for _, e := range errorCodes {
		if errors.Is(err, e.target) {
			if e.detailed {
				return status.Error(e.code, err.Error())
			}
			return status.Error(e.code, e.message)
		}
	}
	return status.Error(codes.Internal, app.MsgInternalServerError)
}
