package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/app"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/mock"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

// newTestAuthSvc: хелпер для создания clientAuthService с моками
func newTestAuthSvc(
	t *testing.T,
	ctrl *gomock.Controller,
) (
	ClientAuthService,
	*mock.MockSyncAdapter,
	*mock.MockSyncEngine,
	*mock.MockMetaRepository,
) {
	t.Helper()
	mockAdapter := mock.NewMockSyncAdapter(ctrl)
	mockEngine := mock.NewMockSyncEngine(ctrl)
	mockMeta := mock.NewMockMetaRepository(ctrl)

	svc := NewClientAuthService(mockEngine, mockAdapter, logger.Nop())

	return svc, mockAdapter, mockEngine, mockMeta
}

// ── Register ─────────────────────────────────────────────────────────────────

func TestClientAuthService_Register_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockAdapter, mockEngine, mockMeta := newTestAuthSvc(t, ctrl)
	ctx := context.Background()

	user := models.User{Login: "testuser", Password: "secret"}
	token := models.Token{UserID: 7, SignedString: "jwt-token"}

	gomock.InOrder(
		mockAdapter.EXPECT().Register(ctx, user).Return(token, nil),
		mockAdapter.EXPECT().SetToken("jwt-token"),
		mockEngine.EXPECT().Meta().Return(mockMeta, nil),
		mockMeta.EXPECT().SetMeta(ctx, store.MetaAuthToken, "jwt-token").Return(nil),
		mockMeta.EXPECT().SetMeta(ctx, store.MetaUserLogin, "testuser").Return(nil),
	)

	require.NoError(t, svc.Register(ctx, user))
}

func TestClientAuthService_Register_EmptyCredentials(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, _, _, _ := newTestAuthSvc(t, ctrl)

	// Адаптер не должен вызываться
	err := svc.Register(context.Background(), models.User{Login: "testuser"})
	assert.ErrorIs(t, err, ErrInvalidDataProvided)

	err = svc.Register(context.Background(), models.User{Password: "secret"})
	assert.ErrorIs(t, err, ErrInvalidDataProvided)
}

func TestClientAuthService_Register_LoginTaken(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockAdapter, _, _ := newTestAuthSvc(t, ctrl)
	ctx := context.Background()

	remoteErr := fmt.Errorf("%w: %s", adapter.ErrConflict, app.MsgLoginAlreadyExists)
	mockAdapter.EXPECT().Register(ctx, gomock.Any()).Return(models.Token{}, remoteErr)

	err := svc.Register(ctx, models.User{Login: "taken", Password: "secret"})
	require.Error(t, err)
	assert.ErrorIs(t, err, store.ErrLoginAlreadyExists)
}

func TestClientAuthService_Register_ServerUnavailable(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockAdapter, _, _ := newTestAuthSvc(t, ctrl)
	ctx := context.Background()

	mockAdapter.EXPECT().Register(ctx, gomock.Any()).Return(models.Token{}, adapter.ErrUnavailable)

	err := svc.Register(ctx, models.User{Login: "testuser", Password: "secret"})
	require.Error(t, err)
	assert.True(t, IsTransient(err), "недоступный сервер: временная ошибка")
}

func TestClientAuthService_Register_EngineNotOpened(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockAdapter, mockEngine, _ := newTestAuthSvc(t, ctrl)
	ctx := context.Background()

	mockAdapter.EXPECT().Register(ctx, gomock.Any()).Return(models.Token{SignedString: "jwt"}, nil)
	mockAdapter.EXPECT().SetToken("jwt")
	mockEngine.EXPECT().Meta().Return(nil, ErrEngineNotOpened)

	err := svc.Register(ctx, models.User{Login: "testuser", Password: "secret"})
	assert.ErrorIs(t, err, ErrEngineNotOpened)
}

// ── Login ────────────────────────────────────────────────────────────────────

func TestClientAuthService_Login_Success(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockAdapter, mockEngine, mockMeta := newTestAuthSvc(t, ctrl)
	ctx := context.Background()

	user := models.User{Login: "testuser", Password: "secret"}

	mockAdapter.EXPECT().Login(ctx, user).Return(models.Token{UserID: 42, SignedString: "jwt"}, nil)
	mockAdapter.EXPECT().SetToken("jwt")
	mockEngine.EXPECT().Meta().Return(mockMeta, nil)
	mockMeta.EXPECT().SetMeta(ctx, store.MetaAuthToken, "jwt").Return(nil)
	mockMeta.EXPECT().SetMeta(ctx, store.MetaUserLogin, "testuser").Return(nil)

	userID, err := svc.Login(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(42), userID)
}

func TestClientAuthService_Login_WrongPassword(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockAdapter, _, _ := newTestAuthSvc(t, ctrl)
	ctx := context.Background()

	remoteErr := fmt.Errorf("%w: %s", adapter.ErrUnauthorized, app.MsgInvalidLoginPassword)
	mockAdapter.EXPECT().Login(ctx, gomock.Any()).Return(models.Token{}, remoteErr)

	userID, err := svc.Login(ctx, models.User{Login: "testuser", Password: "wrong"})
	assert.ErrorIs(t, err, ErrWrongPassword)
	assert.Zero(t, userID)
}

func TestClientAuthService_Login_StoreTokenError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockAdapter, mockEngine, mockMeta := newTestAuthSvc(t, ctrl)
	ctx := context.Background()
	dbErr := errors.New("disk I/O error")

	mockAdapter.EXPECT().Login(ctx, gomock.Any()).Return(models.Token{UserID: 1, SignedString: "jwt"}, nil)
	mockAdapter.EXPECT().SetToken("jwt")
	mockEngine.EXPECT().Meta().Return(mockMeta, nil)
	mockMeta.EXPECT().SetMeta(ctx, store.MetaAuthToken, "jwt").Return(dbErr)

	userID, err := svc.Login(ctx, models.User{Login: "testuser", Password: "secret"})
	assert.ErrorIs(t, err, dbErr)
	assert.Zero(t, userID)
}

// ── Logout ───────────────────────────────────────────────────────────────────

func TestClientAuthService_Logout(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockAdapter, mockEngine, mockMeta := newTestAuthSvc(t, ctrl)
	ctx := context.Background()

	mockAdapter.EXPECT().SetToken("")
	mockEngine.EXPECT().Meta().Return(mockMeta, nil)
	mockMeta.EXPECT().DeleteMeta(ctx, store.MetaAuthToken).Return(nil)

	require.NoError(t, svc.Logout(ctx))
}

func TestClientAuthService_Logout_DeleteError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	svc, mockAdapter, mockEngine, mockMeta := newTestAuthSvc(t, ctrl)
	ctx := context.Background()

	mockAdapter.EXPECT().SetToken("")
	mockEngine.EXPECT().Meta().Return(mockMeta, nil)
	mockMeta.EXPECT().DeleteMeta(ctx, store.MetaAuthToken).Return(assert.AnError)

	assert.ErrorIs(t, svc.Logout(ctx), assert.AnError)
}
