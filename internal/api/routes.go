// internal/api/routes.go
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Routes configures and returns the chi router
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	// Only needed when a separate frontend origin talks to this server
	if len(h.opts.CORSAllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.opts.CORSAllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	r.Use(h.LoadSession)

	// Public endpoints
	r.Get("/", h.handleIndex)
	r.Get("/healthz", h.handleHealth)
	r.Get("/signup", h.handleSignupForm)
	r.Post("/signup", h.handleSignup)
	r.Get("/login", h.handleLoginForm)
	r.Post("/login", h.handleLogin)
	r.Get("/logout", h.handleLogout)

	// Authorization depends on the download policy, checked by the service
	r.Get("/uploads/{owner}/{filename}", h.handleDownload)

	// Protected endpoints
	r.Group(func(r chi.Router) {
		r.Use(h.RequireSession)

		r.Get("/dashboard", h.handleDashboard)
		r.Post("/upload", h.handleUpload)
		r.Post("/delete/{owner}/{filename}", h.handleDelete)
	})

	return r
}
