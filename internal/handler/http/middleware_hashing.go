package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	"github.com/MKhiriev/go-offline-sync/internal/app"
	"github.com/MKhiriev/go-offline-sync/internal/logger"
	"github.com/MKhiriev/go-offline-sync/internal/utils"
	"github.com/MKhiriev/go-offline-sync/models"
)

// pushHashing checks the HMAC of a push batch. The hash covers the JSON of
// the changes list as the client encoded it, so the list is decoded with
// UseNumber and encoded again before hashing.
func (h *Handler) pushHashing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromRequest(r)

		var req struct {
			Changes []models.ChangeEntry `json:"changes"`
			Hash    string               `json:"hash"`
		}

		log.Debug().Str("func", "*Handler.pushHashing").Msg("checking hash begins")

		// read bytes from body
		body, err := io.ReadAll(r.Body)
		if err != nil {
			log.Err(err).Str("func", "*Handler.pushHashing").Msg("failed to read request body")
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		// restore request body
		r.Body = io.NopCloser(bytes.NewReader(body))

		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err = dec.Decode(&req); err != nil {
			log.Err(err).Str("func", "*Handler.pushHashing").Msg("failed to decode JSON")
			http.Error(w, app.MsgInvalidDataProvided, http.StatusBadRequest)
			return
		}

		ok, err := utils.VerifyJSON(req.Changes, req.Hash)
		if err != nil {
			log.Err(err).Str("func", "*Handler.pushHashing").Msg("failed to marshal changes")
			http.Error(w, app.MsgInternalServerError, http.StatusInternalServerError)
			return
		}
		if !ok {
			log.Error().Str("func", "*Handler.pushHashing").
				Str("hash from request", req.Hash).
				Int("changes", len(req.Changes)).
				Msg("push batch hash mismatch")
			http.Error(w, app.MsgIntegrityCheckFailed, http.StatusBadRequest)
			return
		}

		next.ServeHTTP(w, r)
	})
}
