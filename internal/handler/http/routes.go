package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(h.withTraceID, h.withLogging, withGZip)

	// routes without authorization
	router.Group(func(r chi.Router) {
		r.Post("/api/user/register", h.register)
		r.Post("/api/user/login", h.login)
		r.Get("/api/version", h.getServerVersion)
	})

	// sync routes
	router.Group(func(r chi.Router) {
		r.Use(h.auth)

		r.With(h.pushIntegrity).Post("/api/sync/push", h.push)
		r.Post("/api/sync/pull", h.pull)
		r.Get("/api/sync/schema", h.schema)
	})

	router.MethodNotAllowed(CheckHTTPMethod(router))

	return router
}

// pushIntegrity is a no-op unless hash verification is enabled.
func (h *Handler) pushIntegrity(next http.Handler) http.Handler {
	if !h.verifyHash {
		return next
	}
	return h.pushHashing(next)
}
