// Package utils holds small helpers shared by the client and the remote sync
// service: request context keys, HMAC batch hashing, JWT handling, JSON
// responses, the resty client and the gRPC JSON codec.
package utils

import (
	"context"
)

// contextKey keeps values set here from colliding with other packages' keys.
type contextKey string

func (c contextKey) String() string {
	return string(c)
}

// UserIDCtxKey holds the authenticated user id. Every sync row query on the
// server is scoped by it.
var UserIDCtxKey = contextKey("userID")

// WithUserID returns a copy of ctx carrying the authenticated user id.
func WithUserID(ctx context.Context, userID int64) context.Context {
	return context.WithValue(ctx, UserIDCtxKey, userID)
}

// GetUserIDFromContext returns the user id stored by [WithUserID]. ok is
// false when the value is missing or not an int64.
func GetUserIDFromContext(ctx context.Context) (int64, bool) {
	userID, ok := ctx.Value(UserIDCtxKey).(int64)
	return userID, ok
}
