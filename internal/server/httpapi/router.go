// Package httpapi is the HTTP surface of the server: routing, request
// validation, the bearer-token guard and the error-to-status mapping.
package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/bookmarker/internal/logging"
	"github.com/dmitrijs2005/bookmarker/internal/server/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// NewRouter wires the public and the guarded route groups.
//
//	POST /auth/signup   public
//	POST /auth/signin   public
//	GET  /users/me      guarded
//	GET  /health        public
//	GET  /metrics       public
func NewRouter(svc AuthService, issuer TokenValidator, m *metrics.Metrics, logger logging.Logger) http.Handler {
	logger = logger.With("module", "http")
	h := &handler{svc: svc, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(observe(logger, m))
	r.Use(middleware.Recoverer)

	r.NotFound(h.notFound)
	r.Get("/health", h.health)
	if m != nil {
		r.Method(http.MethodGet, "/metrics", m.Handler())
	}

	r.Route("/auth", func(r chi.Router) {
		r.Post("/signup", h.signup)
		r.Post("/signin", h.signin)
	})

	r.Group(func(r chi.Router) {
		r.Use(Guard(issuer, logger))
		r.Get("/users/me", h.me)
	})

	return r
}
