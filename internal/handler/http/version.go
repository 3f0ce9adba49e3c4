package http

import (
	"io"
	"net/http"
	"strconv"
)

const (
	schemaVersionHeader     = "X-Schema-Version"
	schemaFingerprintHeader = "X-Schema-Fingerprint"
)

// getServerVersion answers with the build version. The served schema is
// reported in headers so a client can check artifact compatibility before
// it has a session.
func (h *Handler) getServerVersion(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	info := h.services.AppInfoService.GetSchemaInfo(ctx)

	header := w.Header()
	header.Set("Content-Type", "text/plain")
	header.Set(schemaVersionHeader, strconv.Itoa(info.Version))
	header.Set(schemaFingerprintHeader, info.Fingerprint)

	_, _ = io.WriteString(w, h.services.AppInfoService.GetAppVersion(ctx))
}
