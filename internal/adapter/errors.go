package adapter

import "errors"

var (
	ErrBadRequest          = errors.New("bad request")
	ErrUnauthorized        = errors.New("client unauthorized")
	ErrForbidden           = errors.New("forbidden")
	ErrNotFound            = errors.New("not found")
	ErrConflict            = errors.New("conflict")
	ErrInternalServerError = errors.New("internal server error")
	ErrBadGateway          = errors.New("bad gateway")

	// ErrUnavailable covers every failure after which the same call may
	// succeed later: the server cannot be reached, times out, or reports
	// itself unavailable.
	ErrUnavailable = errors.New("remote sync service unavailable")

	ErrInvalidResponse = errors.New("invalid response")
)
