package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ruedaya/storefront/internal/middleware"
)

// MountRoutes registers all routes on the given chi router. Page requests
// fall through to the renderer. limiter guards sign-in and may be nil.
func MountRoutes(r chi.Router, h *Handlers, limiter *middleware.RateLimiter) {
	r.Get("/health", h.Health)
	if h.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", h.Metrics)
	}

	r.Route("/api", func(r chi.Router) {
		login := r.With()
		if limiter != nil {
			login = r.With(limiter.Handler)
		}
		login.Post("/auth/oauth", h.OAuthLogin)
		r.With(middleware.Session(h.Sessions, h.CookieName)).Get("/auth/session", h.CurrentSession)
		r.Post("/auth/logout", h.Logout)

		r.Get("/dealer", h.CurrentDealer)
	})

	r.Handle("/*", h.Renderer)
}
