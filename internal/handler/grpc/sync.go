package grpc

import (
	"context"

	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/metadata"
)

// Register implements [SyncServer]. The session token is sent in the
// authorization response header.
func (h *Handler) Register(ctx context.Context, user *models.User) (*models.User, error) {
	registered, err := h.services.AuthService.RegisterUser(ctx, *user)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*Handler.Register").Msg("registration failed")
		return nil, toStatus(err)
	}
	return h.issueToken(ctx, registered)
}

// Login implements [SyncServer].
func (h *Handler) Login(ctx context.Context, user *models.User) (*models.User, error) {
	found, err := h.services.AuthService.Login(ctx, *user)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*Handler.Login").Msg("login failed")
		return nil, toStatus(err)
	}
	return h.issueToken(ctx, found)
}

func (h *Handler) issueToken(ctx context.Context, user models.User) (*models.User, error) {
	token, err := h.services.AuthService.CreateToken(ctx, user)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*Handler.issueToken").Msg("creation of token failed")
		return nil, toStatus(err)
	}

	if err = grpc.SetHeader(ctx, metadata.Pairs(utils.GRPCAuthMetadata, token.Bearer())); err != nil {
		return nil, toStatus(err)
	}
	return &models.User{Login: user.Login, CreatedAt: user.CreatedAt}, nil
}

// Push implements [SyncServer].
func (h *Handler) Push(ctx context.Context, req *models.PushRequest) (*models.PushResponse, error) {
	log := logger.FromContext(ctx)

	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, toStatus(errNoUserID)
	}

	if h.verifyHash {
		if err := checkPushHash(req); err != nil {
			log.Err(err).Str("func", "*Handler.Push").Str("hash from request", req.Hash).Msg("integrity check failed")
			return nil, toStatus(err)
		}
	}

	resp, err := h.services.SyncService.Push(ctx, userID, *req)
	if err != nil {
		log.Err(err).Str("func", "*Handler.Push").Msg("push failed")
		return nil, toStatus(err)
	}
	return &resp, nil
}

// Pull implements [SyncServer].
func (h *Handler) Pull(ctx context.Context, req *models.PullRequest) (*models.PullResponse, error) {
	userID, ok := utils.GetUserIDFromContext(ctx)
	if !ok {
		return nil, toStatus(errNoUserID)
	}

	resp, err := h.services.SyncService.Pull(ctx, userID, *req)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*Handler.Pull").Str("table", req.Table).Msg("pull failed")
		return nil, toStatus(err)
	}
	return &resp, nil
}

// Schema implements [SyncServer].
func (h *Handler) Schema(ctx context.Context, _ *struct{}) (*models.SchemaInfo, error) {
	info := h.services.SyncService.Schema(ctx)
	return &info, nil
}

// checkPushHash recomputes the HMAC over the changes. The JSON codec keeps
// numbers as json.Number, so the encoding matches what the client hashed.
func checkPushHash(req *models.PushRequest) error {
	ok, err := utils.VerifyJSON(req.Changes, req.Hash)
	if err != nil {
		return err
	}
	if !ok {
		return errIntegrityMismatch
	}
	return nil
}
