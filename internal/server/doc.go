// Package server runs the remote sync service: the chi HTTP listener, the
// gRPC listener and the background workers (idempotency log pruning) share
// one errgroup and stop together on a signal, a cancelled context or the
// first failure.
package server
