package utils

import "github.com/google/uuid"

// NewDeviceID returns a time-ordered UUIDv7 for a device bootstrapping its
// first local store. A random v4 id is returned if v7 generation fails.
func NewDeviceID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// NewTraceID returns the trace id assigned to requests that arrive without one.
func NewTraceID() string {
	return uuid.NewString()
}
