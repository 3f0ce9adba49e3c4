package grpc

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/app"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// publicMethods are served without a bearer token.
var publicMethods = map[string]struct{}{
	utils.SyncMethodRegister: {},
	utils.SyncMethodLogin:    {},
}

// withTraceID attaches a request-scoped logger carrying trace_id and echoes
// the id in the response header.
func (h *Handler) withTraceID(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	traceID := firstMetadata(ctx, utils.GRPCTraceIDMetadata)
	if traceID == "" {
		traceID = utils.NewTraceID()
	}

	l := h.logger.WithTraceID(traceID)
	ctx = l.WithContext(ctx)

	_ = grpc.SetHeader(ctx, metadata.Pairs(utils.GRPCTraceIDMetadata, traceID))
	return handler(ctx, req)
}

func (h *Handler) withLogging(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)

	code := status.Code(err)
	level := zerolog.InfoLevel
	switch code {
	case codes.OK:
	case codes.Internal, codes.Unknown, codes.Unavailable:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.WarnLevel
	}

	logger.FromContext(ctx).WithLevel(level).
		Str("method", info.FullMethod).
		Str("code", code.String()).
		Dur("duration", time.Since(start)).
		Send()

	return resp, err
}

// withRecovery turns a panic in a handler into codes.Internal.
func (h *Handler) withRecovery(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.FromContext(ctx).Error().
				Str("method", info.FullMethod).
				Str("panic", fmt.Sprint(r)).
				Bytes("stack", debug.Stack()).
				Msg("recovered from panic")
			err = status.Error(codes.Internal, app.MsgInternalServerError)
		}
	}()
	return handler(ctx, req)
}

// auth validates the bearer token of every method except registration and
// login and stores the user ID in the context.
func (h *Handler) auth(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if _, ok := publicMethods[info.FullMethod]; ok {
		return handler(ctx, req)
	}

	log := logger.FromContext(ctx)

	header := firstMetadata(ctx, utils.GRPCAuthMetadata)
	if header == "" {
		log.Warn().Str("method", info.FullMethod).Msg("no authorization metadata")
		return nil, status.Error(codes.Unauthenticated, app.MsgTokenIsExpiredOrInvalid)
	}

	tokenString, err := utils.ParseBearerToken(header)
	if err != nil {
		log.Err(err).Str("method", info.FullMethod).Send()
		return nil, status.Error(codes.Unauthenticated, app.MsgTokenIsExpiredOrInvalid)
	}

	token, err := h.services.AuthService.ParseToken(ctx, tokenString)
	if err != nil {
		log.Err(err).Str("method", info.FullMethod).Msg("error occurred during parsing token")
		return nil, status.Error(codes.Unauthenticated, app.MsgTokenIsExpiredOrInvalid)
	}

	return handler(utils.WithUserID(ctx, token.UserID), req)
}

func firstMetadata(ctx context.Context, key string) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	values := md.Get(key)
	if len(values) == 0 {
		return ""
	}
	return values[0]
}
