package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-offline-sync/internal/app"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/service"
	"github.com/MKhiriev/go-offline-sync/internal/store"
)

type errorStatus struct {
	target  error
	status  int
	message string

	// detailed answers with the full error text. The client only parks the
	// batch on it, so the detail is for the operator.
	detailed bool
}

// errorStatuses is checked in order: a transient database failure wins over
// the query error it wraps.
var errorStatuses = []errorStatus{
	{target: store.ErrDatabaseUnavailable, status: http.StatusServiceUnavailable, message: app.MsgServiceUnavailable},

	{target: service.ErrInvalidPushBatch, status: http.StatusBadRequest, message: app.MsgInvalidPushBatch, detailed: true},
	{target: service.ErrInvalidPullRequest, status: http.StatusBadRequest, message: app.MsgInvalidPullRequest},
	{target: service.ErrInvalidDataProvided, status: http.StatusBadRequest, message: app.MsgInvalidDataProvided},

	{target: service.ErrWrongPassword, status: http.StatusUnauthorized, message: app.MsgInvalidLoginPassword},
	{target: store.ErrNoUserWasFound, status: http.StatusUnauthorized, message: app.MsgInvalidLoginPassword},
	{target: service.ErrTokenIsExpiredOrInvalid, status: http.StatusUnauthorized, message: app.MsgTokenIsExpiredOrInvalid},

	{target: store.ErrLoginAlreadyExists, status: http.StatusConflict, message: app.MsgLoginAlreadyExists},
}

// statusFromError returns the HTTP status and the response message for err.
// Unknown errors are internal.
func statusFromError(err error) (int, string) {
	for _, e := range errorStatuses {
		if errors.Is(err, e.target) {
			if e.detailed {
				return e.status, err.Error()
			}
			return e.status, e.message
		}
	}
	return http.StatusInternalServerError, app.MsgInternalServerError
}

// writeError logs err and answers with the mapped status.
func writeError(w http.ResponseWriter, log *logger.Logger, fn string, err error) {
	status, message := statusFromError(err)
	if status >= http.StatusInternalServerError {
		log.Err(err).Str("func", fn).Int("status", status).Msg("request failed")
	} else {
		log.Warn().Err(err).Str("func", fn).Int("status", status).Msg("request rejected")
	}

	http.Error(w, message, status)
}
