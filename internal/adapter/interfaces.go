// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

// Package adapter provides the client transports to the remote sync service.
//
// The primary abstraction is [SyncAdapter], which decouples the push client,
// the pull engine and the auth flow from the underlying protocol. Two
// implementations ship with the package: HTTP/REST ([NewHTTPSyncAdapter],
// built on resty) and gRPC ([NewGRPCSyncAdapter], JSON codec).
//
// Transport failures and non-success responses are mapped to the sentinel
// values in errors.go so callers can use [errors.Is] regardless of the
// protocol (e.g. [ErrUnavailable] for an unreachable server, [ErrUnauthorized]
// for an expired token).
package adapter

import (
	"context"

	"github.com/MKhiriev/go-offline-sync/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/sync_adapter_mock.go -package=mock

// SyncAdapter defines transport-agnostic communication with the remote sync
// service. Implementations are responsible for serialisation, the bearer
// token and mapping transport-level errors to the sentinels of this package.
type SyncAdapter interface {
	// SetToken stores the bearer token attached to all subsequent
	// authenticated calls.
	SetToken(token string)

	// Token returns the bearer token currently held, or an empty string.
	Token() string

	// Register creates an account and stores the returned token.
	Register(ctx context.Context, user models.User) (models.Token, error)

	// Login authenticates an account and stores the returned token.
	Login(ctx context.Context, user models.User) (models.Token, error)

	// Push sends one batch of changes. The response holds one result per
	// change, in request order. The integrity hash is computed here.
	Push(ctx context.Context, req models.PushRequest) (models.PushResponse, error)

	// Pull fetches one page of rows of a single table.
	Pull(ctx context.Context, req models.PullRequest) (models.PullResponse, error)

	// Schema returns the version and fingerprint of the artifact the remote
	// service validates against.
	Schema(ctx context.Context) (models.SchemaInfo, error)
}
