package server

import "context"

// Server defines the common lifecycle contract for transport servers managed
// by this package.
//
// Implementations block in [RunServer] until the server stops and release
// resources in [Shutdown]. A server stopped through Shutdown returns nil
// from RunServer.
type Server interface {
	// RunServer starts serving requests and blocks until the server stops.
	RunServer(ctx context.Context) error

	// Shutdown gracefully stops the server. When ctx expires first the
	// remaining connections are closed forcibly.
	Shutdown(ctx context.Context) error
}
