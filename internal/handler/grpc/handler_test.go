package grpc

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"testing"
	"time"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/app"
	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/mock"
	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/internal/store"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"google.golang.org/grpc"
	"google.golang.org/grpc/test/bufconn"
)

const testHashKey = "grpc-test-key"

type testServices struct {
	auth *mock.MockAuthService
	sync *mock.MockSyncService
}

// startServer runs the handler on an in-memory listener and returns the
// client adapter talking to it.
func startServer(t *testing.T, verifyHash bool, clientHashKey string) (adapter.SyncAdapter, testServices) {
	t.Helper()
	ctrl := gomock.NewController(t)
	utils.InitHasherPool(testHashKey)

	mocks := testServices{
		auth: mock.NewMockAuthService(ctrl),
		sync: mock.NewMockSyncService(ctrl),
	}
	h := NewHandler(&service.Services{AuthService: mocks.auth, SyncService: mocks.sync}, verifyHash, logger.Nop())

	lis := bufconn.Listen(1 << 20)
	srv := h.Init()
	go srv.Serve(lis)
	t.Cleanup(srv.Stop)

	client, err := adapter.NewGRPCSyncAdapter(
		config.ClientAdapter{GRPCAddress: "passthrough:///bufnet"},
		config.ClientApp{HashKey: clientHashKey},
		logger.Nop(),
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
	)
	require.NoError(t, err)
	t.Cleanup(func() { client.(io.Closer).Close() })

	return client, mocks
}

func testToken(t *testing.T, userID int64) models.Token {
	t.Helper()
	token, err := utils.GenerateJWTToken("test", userID, time.Hour, "sign-key")
	require.NoError(t, err)
	return token
}

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// ─────────────────────────────────────────────
// Register / Login
// ─────────────────────────────────────────────

func TestRegister_IssuesToken(t *testing.T) {
	client, mocks := startServer(t, false, "")
	token := testToken(t, 42)

	user := models.User{Login: "alice", Password: "secret"}
	registered := models.User{UserID: 42, Login: "alice"}
	mocks.auth.EXPECT().RegisterUser(gomock.Any(), user).Return(registered, nil)
	mocks.auth.EXPECT().CreateToken(gomock.Any(), registered).Return(token, nil)

	got, err := client.Register(testCtx(t), user)
	require.NoError(t, err)

	assert.Equal(t, int64(42), got.UserID)
	assert.Equal(t, token.SignedString, got.SignedString)
	assert.Equal(t, token.SignedString, client.Token())
}

func TestRegister_LoginTaken(t *testing.T) {
	client, mocks := startServer(t, false, "")
	mocks.auth.EXPECT().RegisterUser(gomock.Any(), gomock.Any()).
		Return(models.User{}, fmt.Errorf("save user: %w", store.ErrLoginAlreadyExists))

	_, err := client.Register(testCtx(t), models.User{Login: "alice", Password: "secret"})

	require.ErrorIs(t, err, adapter.ErrConflict)
	assert.Contains(t, err.Error(), app.MsgLoginAlreadyExists)
}

func TestLogin_WrongPassword(t *testing.T) {
	client, mocks := startServer(t, false, "")
	mocks.auth.EXPECT().Login(gomock.Any(), gomock.Any()).Return(models.User{}, service.ErrWrongPassword)

	_, err := client.Login(testCtx(t), models.User{Login: "alice", Password: "nope"})

	require.ErrorIs(t, err, adapter.ErrUnauthorized)
	assert.Contains(t, err.Error(), app.MsgInvalidLoginPassword)
	assert.Empty(t, client.Token())
}

// ─────────────────────────────────────────────
// Push
// ─────────────────────────────────────────────

func pushRequest() models.PushRequest {
	return models.PushRequest{
		DeviceID: "device-a",
		Changes: []models.ChangeEntry{{
			ChangeKey:      "device-a:1",
			Table:          "tasks",
			Operation:      models.OperationInsert,
			PrimaryKey:     models.Row{"id": 1},
			Row:            models.Row{"id": 1, "title": "write tests", "done": false, "weight": 0.5},
			SyncVersion:    1,
			LastModifiedAt: time.Date(2026, 10, 2, 8, 0, 0, 0, time.UTC),
		}},
	}
}

func TestPush_SignedBatch(t *testing.T) {
	client, mocks := startServer(t, true, testHashKey)
	token := testToken(t, 42)
	client.SetToken(token.SignedString)

	mocks.auth.EXPECT().ParseToken(gomock.Any(), token.SignedString).Return(models.Token{UserID: 42}, nil)
	mocks.sync.EXPECT().Push(gomock.Any(), int64(42), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, req models.PushRequest) (models.PushResponse, error) {
			assert.Equal(t, "device-a", req.DeviceID)
			assert.NotEmpty(t, req.Hash)
			return models.PushResponse{Results: []models.ChangeResult{
				{ChangeKey: "device-a:1", Status: models.StatusAccepted},
			}}, nil
		})

	resp, err := client.Push(testCtx(t), pushRequest())
	require.NoError(t, err)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, models.StatusAccepted, resp.Results[0].Status)
}

func TestPush_WrongKeyFailsIntegrityCheck(t *testing.T) {
	client, mocks := startServer(t, true, "another-key")
	token := testToken(t, 42)
	client.SetToken(token.SignedString)

	mocks.auth.EXPECT().ParseToken(gomock.Any(), gomock.Any()).Return(models.Token{UserID: 42}, nil)
	// до сервиса запрос не доходит

	_, err := client.Push(testCtx(t), pushRequest())

	require.ErrorIs(t, err, adapter.ErrBadRequest)
	assert.Contains(t, err.Error(), app.MsgIntegrityCheckFailed)
}

func TestPush_InvalidBatchKeepsDetail(t *testing.T) {
	client, mocks := startServer(t, false, "")
	client.SetToken(testToken(t, 42).SignedString)

	mocks.auth.EXPECT().ParseToken(gomock.Any(), gomock.Any()).Return(models.Token{UserID: 42}, nil)
	mocks.sync.EXPECT().Push(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(models.PushResponse{}, fmt.Errorf("%w: device id is required", service.ErrInvalidPushBatch))

	_, err := client.Push(testCtx(t), pushRequest())

	require.ErrorIs(t, err, adapter.ErrBadRequest)
	assert.Contains(t, err.Error(), "device id is required")
}

// ─────────────────────────────────────────────
// Pull / Schema
// ─────────────────────────────────────────────

func TestPull_WithoutTokenIsUnauthenticated(t *testing.T) {
	client, _ := startServer(t, false, "")

	_, err := client.Pull(testCtx(t), models.PullRequest{Table: "tasks"})

	require.ErrorIs(t, err, adapter.ErrUnauthorized)
	assert.Contains(t, err.Error(), app.MsgTokenIsExpiredOrInvalid)
}

func TestPull_Page(t *testing.T) {
	client, mocks := startServer(t, false, "")
	client.SetToken(testToken(t, 7).SignedString)

	mocks.auth.EXPECT().ParseToken(gomock.Any(), gomock.Any()).Return(models.Token{UserID: 7}, nil)
	mocks.sync.EXPECT().Pull(gomock.Any(), int64(7), models.PullRequest{Table: "tasks", Since: "3", Limit: 50}).
		Return(models.PullResponse{Table: "tasks", NextCursor: "3"}, nil)

	resp, err := client.Pull(testCtx(t), models.PullRequest{Table: "tasks", Since: "3", Limit: 50})
	require.NoError(t, err)
	assert.Equal(t, "3", resp.NextCursor)
	assert.False(t, resp.HasMore)
}

func TestPull_DatabaseUnavailableIsTransient(t *testing.T) {
	client, mocks := startServer(t, false, "")
	client.SetToken(testToken(t, 7).SignedString)

	mocks.auth.EXPECT().ParseToken(gomock.Any(), gomock.Any()).Return(models.Token{UserID: 7}, nil)
	mocks.sync.EXPECT().Pull(gomock.Any(), gomock.Any(), gomock.Any()).
		Return(models.PullResponse{}, fmt.Errorf("%w: %w", store.ErrDatabaseUnavailable, errors.New("deadlock detected")))

	_, err := client.Pull(testCtx(t), models.PullRequest{Table: "tasks"})

	assert.ErrorIs(t, err, adapter.ErrUnavailable)
}

func TestSchema(t *testing.T) {
	client, mocks := startServer(t, false, "")
	client.SetToken(testToken(t, 7).SignedString)

	mocks.auth.EXPECT().ParseToken(gomock.Any(), gomock.Any()).Return(models.Token{UserID: 7}, nil)
	mocks.sync.EXPECT().Schema(gomock.Any()).Return(models.SchemaInfo{Version: 2, Fingerprint: "f00d"})

	info, err := client.Schema(testCtx(t))
	require.NoError(t, err)
	assert.Equal(t, models.SchemaInfo{Version: 2, Fingerprint: "f00d"}, info)
}

func TestSchema_PanicIsRecovered(t *testing.T) {
	client, mocks := startServer(t, false, "")
	client.SetToken(testToken(t, 7).SignedString)

	mocks.auth.EXPECT().ParseToken(gomock.Any(), gomock.Any()).Return(models.Token{UserID: 7}, nil)
	mocks.sync.EXPECT().Schema(gomock.Any()).DoAndReturn(func(context.Context) models.SchemaInfo {
		panic("registry is nil")
	})

	_, err := client.Schema(testCtx(t))
	assert.ErrorIs(t, err, adapter.ErrInternalServerError)

	// сервер продолжает обслуживать запросы
	mocks.auth.EXPECT().ParseToken(gomock.Any(), gomock.Any()).Return(models.Token{UserID: 7}, nil)
	mocks.sync.EXPECT().Schema(gomock.Any()).Return(models.SchemaInfo{Version: 1})
	_, err = client.Schema(testCtx(t))
	assert.NoError(t, err)
}
