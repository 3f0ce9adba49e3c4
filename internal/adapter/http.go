package adapter

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"sync"

	"github.com/MKhiriev/go-offline-sync/internal/config"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
)

type httpSyncAdapter struct {
	client *utils.HTTPClient

	hashKey string

	mu    sync.RWMutex
	token string

	logger *logger.Logger
}

// NewHTTPSyncAdapter constructs an HTTP/REST implementation of [SyncAdapter].
// It normalises and validates the base URL from adapterCfg.HTTPAddress and
// configures the underlying resty client with the resolved base URL and
// request timeout.
//
// Returns an error if adapterCfg.HTTPAddress is empty or cannot be parsed as a
// valid URL.
func NewHTTPSyncAdapter(adapterCfg config.ClientAdapter, appCfg config.ClientApp, logger *logger.Logger) (SyncAdapter, error) {
	baseURL, err := normalizeBaseURL(adapterCfg.HTTPAddress)
	if err != nil {
		return nil, fmt.Errorf("invalid adapter http address: %w", err)
	}

	client := utils.NewHTTPClient(baseURL, adapterCfg.RequestTimeout)
	return &httpSyncAdapter{client: client, hashKey: appCfg.HashKey, logger: logger}, nil
}

func normalizeBaseURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty address")
	}

	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("address must include host and scheme")
	}

	return strings.TrimRight(u.String(), "/"), nil
}

// SetToken implements [SyncAdapter].
func (h *httpSyncAdapter) SetToken(token string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.token = strings.TrimSpace(token)
}

// Token implements [SyncAdapter].
func (h *httpSyncAdapter) Token() string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.token
}

// Register implements [SyncAdapter]. It POSTs the credentials to
// /api/user/register and keeps the bearer token from the Authorization
// response header.
func (h *httpSyncAdapter) Register(ctx context.Context, user models.User) (models.Token, error) {
	return h.authenticate(ctx, "/api/user/register", user)
}

// Login implements [SyncAdapter]. It POSTs the credentials to /api/user/login
// and keeps the bearer token from the Authorization response header.
func (h *httpSyncAdapter) Login(ctx context.Context, user models.User) (models.Token, error) {
	return h.authenticate(ctx, "/api/user/login", user)
}

func (h *httpSyncAdapter) authenticate(ctx context.Context, path string, user models.User) (models.Token, error) {
	resp, err := h.client.Request(ctx, "").
		SetBody(user).
		Post(path)
	if err != nil {
		return models.Token{}, transportError(err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.Token{}, err
	}

	token, err := utils.ParseBearerToken(resp.Header().Get("Authorization"))
	if err != nil {
		return models.Token{}, fmt.Errorf("%w: %w", ErrInvalidResponse, err)
	}
	userID, err := utils.ParseUserIDFromJWT(token)
	if err != nil {
		return models.Token{}, fmt.Errorf("%w: parse user id: %w", ErrInvalidResponse, err)
	}

	h.SetToken(token)
	return models.Token{SignedString: token, UserID: userID}, nil
}

// Push implements [SyncAdapter]. The batch hash is computed over the JSON of
// req.Changes when a hash key is configured.
func (h *httpSyncAdapter) Push(ctx context.Context, req models.PushRequest) (models.PushResponse, error) {
	if h.hashKey != "" {
		hash, err := utils.HashJSON(req.Changes, h.hashKey)
		if err != nil {
			return models.PushResponse{}, fmt.Errorf("push hash: %w", err)
		}
		req.Hash = hash
	}

	var out models.PushResponse
	resp, err := h.client.Request(ctx, h.Token()).
		SetBody(req).
		SetResult(&out).
		Post("/api/sync/push")
	if err != nil {
		return models.PushResponse{}, transportError(err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.PushResponse{}, err
	}

	if len(out.Results) != len(req.Changes) {
		h.logger.Error().Str("func", "*httpSyncAdapter.Push").
			Int("sent", len(req.Changes)).
			Int("received", len(out.Results)).
			Msg("push result count mismatch")
		return models.PushResponse{}, fmt.Errorf("%w: %d results for %d changes", ErrInvalidResponse, len(out.Results), len(req.Changes))
	}

	return out, nil
}

// Pull implements [SyncAdapter].
func (h *httpSyncAdapter) Pull(ctx context.Context, req models.PullRequest) (models.PullResponse, error) {
	var out models.PullResponse
	resp, err := h.client.Request(ctx, h.Token()).
		SetBody(req).
		SetResult(&out).
		Post("/api/sync/pull")
	if err != nil {
		return models.PullResponse{}, transportError(err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.PullResponse{}, err
	}

	return out, nil
}

// Schema implements [SyncAdapter].
func (h *httpSyncAdapter) Schema(ctx context.Context) (models.SchemaInfo, error) {
	var out models.SchemaInfo
	resp, err := h.client.Request(ctx, h.Token()).
		SetResult(&out).
		Get("/api/sync/schema")
	if err != nil {
		return models.SchemaInfo{}, transportError(err)
	}
	if err = mapHTTPError(resp); err != nil {
		return models.SchemaInfo{}, err
	}

	return out, nil
}
