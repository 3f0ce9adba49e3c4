package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
)

type clientAuthService struct {
	engine  SyncEngine
	adapter adapter.SyncAdapter
	logger  *logger.Logger
}

// NewClientAuthService creates a ClientAuthService. The session token is kept
// in the local database of engine, so it survives restarts and rebuilds.
func NewClientAuthService(engine SyncEngine, syncAdapter adapter.SyncAdapter, logger *logger.Logger) ClientAuthService {
	return &clientAuthService{engine: engine, adapter: syncAdapter, logger: logger}
}

func (a *clientAuthService) Register(ctx context.Context, user models.User) error {
	if user.Login == "" || user.Password == "" {
		return ErrInvalidDataProvided
	}

	token, err := a.adapter.Register(ctx, user)
	if err != nil {
		err = mapAdapterError(err)
		logger.FromContext(ctx).Err(err).Str("func", "*clientAuthService.Register").Str("login", user.Login).Msg("registration failed")
		return fmt.Errorf("register on remote sync service: %w", err)
	}

	return a.storeSession(ctx, user.Login, token)
}

func (a *clientAuthService) Login(ctx context.Context, user models.User) (int64, error) {
	if user.Login == "" || user.Password == "" {
		return 0, ErrInvalidDataProvided
	}

	token, err := a.adapter.Login(ctx, user)
	if err != nil {
		err = mapAdapterError(err)
		logger.FromContext(ctx).Err(err).Str("func", "*clientAuthService.Login").Str("login", user.Login).Msg("login failed")
		return 0, fmt.Errorf("login on remote sync service: %w", err)
	}

	if err = a.storeSession(ctx, user.Login, token); err != nil {
		return 0, err
	}
	return token.UserID, nil
}

func (a *clientAuthService) Logout(ctx context.Context) error {
	a.adapter.SetToken("")

	meta, err := a.engine.Meta()
	if err != nil {
		return err
	}
	if err = meta.DeleteMeta(ctx, store.MetaAuthToken); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*clientAuthService.Logout").Msg("error forgetting session token")
		return err
	}
	return nil
}

func (a *clientAuthService) storeSession(ctx context.Context, login string, token models.Token) error {
	a.adapter.SetToken(token.SignedString)

	meta, err := a.engine.Meta()
	if err != nil {
		return err
	}
	if err = meta.SetMeta(ctx, store.MetaAuthToken, token.SignedString); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*clientAuthService.storeSession").Msg("error storing session token")
		return err
	}
	if err = meta.SetMeta(ctx, store.MetaUserLogin, login); err != nil {
		logger.FromContext(ctx).Err(err).Str("func", "*clientAuthService.storeSession").Msg("error storing user login")
		return err
	}
	return nil
}
