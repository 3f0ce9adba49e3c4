// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/MKhiriev/go-offline-sync/internal/adapter"
	"github.com/MKhiriev/go-offline-sync/internal/app"
	"github.com/MKhiriev/go-offline-sync/internal/store"
)

// mapAdapterError turns a transport failure into a sync-level error. Anything
// that means the server cannot be reached or is broken becomes ErrOffline, so
// the engine keeps the outbox and retries later.
func mapAdapterError(err error) error {
	if err == nil {
		return nil
	}

	msg := extractBody(err)

	switch {
	case errors.Is(err, adapter.ErrUnavailable),
		errors.Is(err, adapter.ErrBadGateway),
		errors.Is(err, adapter.ErrInternalServerError):
		return fmt.Errorf("%w: %w", ErrOffline, err)

	case errors.Is(err, adapter.ErrBadRequest):
		switch msg {
		case app.MsgInvalidDataProvided:
			return ErrInvalidDataProvided
		case app.MsgInvalidPullRequest:
			return fmt.Errorf("%w: %w", ErrInvalidPullRequest, err)
		}
		return fmt.Errorf("%w: %s", ErrChangeRejected, msg)

	case errors.Is(err, adapter.ErrUnauthorized):
		switch msg {
		case app.MsgInvalidLoginPassword:
			return ErrWrongPassword
		}
		return ErrTokenIsExpiredOrInvalid

	case errors.Is(err, adapter.ErrConflict):
		switch msg {
		case app.MsgLoginAlreadyExists:
			return store.ErrLoginAlreadyExists
		}
	}

	return err
}

// mapPushError is mapAdapterError for push calls: a body the server could not
// decode is a rejected batch, so it gets parked instead of resent every cycle.
func mapPushError(err error) error {
	err = mapAdapterError(err)
	if errors.Is(err, ErrInvalidDataProvided) {
		return fmt.Errorf("%w: %w", ErrChangeRejected, err)
	}
	return err
}

// extractBody returns the server message carried after the adapter's
// status prefix ("bad request: <body>").
func extractBody(err error) string {
	if _, body, ok := strings.Cut(err.Error(), ": "); ok {
		return body
	}
	return err.Error()
}
