package grpc

import (
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/service"
	"google.golang.org/grpc"
)

// Handler is the gRPC transport of the remote sync service. It serves the
// same JSON documents as the REST API through the codec registered in utils,
// so no protobuf schema is involved.
type Handler struct {
	services *service.Services

	// verifyHash enables the integrity check of pushed batches.
	verifyHash bool

	logger *logger.Logger
}

// NewHandler constructs a [Handler] with the provided service container and
// logger.
func NewHandler(services *service.Services, verifyHash bool, logger *logger.Logger) *Handler {
	logger.Debug().Bool("verify_hash", verifyHash).Msg("gRPC handler created")
	return &Handler{
		services:   services,
		verifyHash: verifyHash,
		logger:     logger,
	}
}

// Init builds a gRPC server with the interceptor chain and the sync service
// registered.
func (h *Handler) Init(opts ...grpc.ServerOption) *grpc.Server {
	opts = append([]grpc.ServerOption{
		grpc.ChainUnaryInterceptor(h.withTraceID, h.withLogging, h.withRecovery, h.auth),
	}, opts...)

	server := grpc.NewServer(opts...)
	server.RegisterService(&syncServiceDesc, h)
	return server
}
