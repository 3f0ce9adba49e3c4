package adapter

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
)

type grpcSyncAdapter struct {
	conn    *grpc.ClientConn
	hashKey string

	mu    sync.RWMutex
	token string

	logger *logger.Logger
}

// NewGRPCSyncAdapter constructs a gRPC implementation of [SyncAdapter]. The
// connection is created lazily by grpc-go; the first call dials. All calls use
// the JSON codec registered in utils.
//
// The returned adapter also implements io.Closer.
func NewGRPCSyncAdapter(adapterCfg config.ClientAdapter, appCfg config.ClientApp, logger *logger.Logger, opts ...grpc.DialOption) (SyncAdapter, error) {
	address := strings.TrimSpace(adapterCfg.GRPCAddress)
	if address == "" {
		return nil, fmt.Errorf("invalid adapter grpc address: empty address")
	}

	dialOpts := append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithDefaultCallOptions(grpc.CallContentSubtype(utils.JSONCodecName)),
	}, opts...)

	conn, err := grpc.NewClient(address, dialOpts...)
	if err != nil {
		return nil, fmt.Errorf("create grpc client: %w", err)
	}

	return &grpcSyncAdapter{conn: conn, hashKey: appCfg.HashKey, logger: logger}, nil
}

// Close releases the underlying connection.
func (g *grpcSyncAdapter) Close() error {
	return g.conn.Close()
}

// SetToken implements [SyncAdapter].
func (g *grpcSyncAdapter) SetToken(token string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.token = strings.TrimSpace(token)
}

// Token implements [SyncAdapter].
func (g *grpcSyncAdapter) Token() string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token
}

// Register implements [SyncAdapter].
func (g *grpcSyncAdapter) Register(ctx context.Context, user models.User) (models.Token, error) {
	return g.authenticate(ctx, utils.SyncMethodRegister, user)
}

// Login implements [SyncAdapter].
func (g *grpcSyncAdapter) Login(ctx context.Context, user models.User) (models.Token, error) {
	return g.authenticate(ctx, utils.SyncMethodLogin, user)
}

func (g *grpcSyncAdapter) authenticate(ctx context.Context, method string, user models.User) (models.Token, error) {
	var (
		header metadata.MD
		out    models.User
	)
	if err := g.conn.Invoke(ctx, method, &user, &out, grpc.Header(&header)); err != nil {
		return models.Token{}, mapGRPCError(err)
	}

	values := header.Get(utils.GRPCAuthMetadata)
	if len(values) == 0 {
		return models.Token{}, fmt.Errorf("%w: no token in response metadata", ErrInvalidResponse)
	}

	token, err := utils.ParseBearerToken(values[0])
	if err != nil {
		return models.Token{}, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	userID, err := utils.ParseUserIDFromJWT(token)
	if err != nil {
		return models.Token{}, fmt.Errorf("%w: parse user id: %w", ErrInvalidResponse, err)
	}

	g.SetToken(token)
	return models.Token{SignedString: token, UserID: userID}, nil
}

// Push implements [SyncAdapter].
func (g *grpcSyncAdapter) Push(ctx context.Context, req models.PushRequest) (models.PushResponse, error) {
	if g.hashKey != "" {
		hash, err := utils.HashJSON(req.Changes, g.hashKey)
		if err != nil {
			return models.PushResponse{}, fmt.Errorf("push hash: %w", err)
		}
		req.Hash = hash
	}

	var out models.PushResponse
	if err := g.conn.Invoke(g.authed(ctx), utils.SyncMethodPush, &req, &out); err != nil {
		return models.PushResponse{}, mapGRPCError(err)
	}

	if len(out.Results) != len(req.Changes) {
		g.logger.Error().Str("func", "*grpcSyncAdapter.Push").
			Int("sent", len(req.Changes)).
			Int("received", len(out.Results)).
			Msg("push result count mismatch")
		return models.PushResponse{}, fmt.Errorf("%w: %d results for %d changes", ErrInvalidResponse, len(out.Results), len(req.Changes))
	}

	return out, nil
}

// Pull implements [SyncAdapter].
func (g *grpcSyncAdapter) Pull(ctx context.Context, req models.PullRequest) (models.PullResponse, error) {
	var out models.PullResponse
	if err := g.conn.Invoke(g.authed(ctx), utils.SyncMethodPull, &req, &out); err != nil {
		return models.PullResponse{}, mapGRPCError(err)
	}
	return out, nil
}

// Schema implements [SyncAdapter].
func (g *grpcSyncAdapter) Schema(ctx context.Context) (models.SchemaInfo, error) {
	var out models.SchemaInfo
	if err := g.conn.Invoke(g.authed(ctx), utils.SyncMethodSchema, &struct{}{}, &out); err != nil {
		return models.SchemaInfo{}, mapGRPCError(err)
	}
	return out, nil
}

func (g *grpcSyncAdapter) authed(ctx context.Context) context.Context {
	if token := g.Token(); token != "" {
		ctx = metadata.AppendToOutgoingContext(ctx, utils.GRPCAuthMetadata, "Bearer "+token)
	}
	return ctx
}
