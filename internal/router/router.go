// Package router sets up all HTTP routes and middleware chains for the
// certificate studio API. Routes are grouped into public auth endpoints,
// the authenticated API, and the admin area.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"certstudio/internal/handlers"
	"certstudio/internal/middleware"
	"certstudio/internal/models"
	"certstudio/internal/session"
)

// Handlers bundles the handler groups the router wires up.
type Handlers struct {
	Auth         *handlers.Auth
	Templates    *handlers.Templates
	Datasets     *handlers.Datasets
	Fields       *handlers.Fields
	Certificates *handlers.Certificates
	Generate     *handlers.Generate
	Uploads      *handlers.Uploads
	Admin        *handlers.Admin
}

// New creates and returns the configured Chi router with all middleware
// and route groups wired up. authLimiter rate-limits the credential
// endpoints, genLimiter the generation start endpoint; pass nil to
// disable either (tests).
func New(sessionStore *session.Store, h Handlers, authLimiter, genLimiter *middleware.RateLimiter) chi.Router {
	r := chi.NewRouter()

	// Global middleware — applied to every request.
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.SecureHeaders)
	r.Use(middleware.LoadSession(sessionStore))

	// Health check and metrics — no auth, no CSRF.
	r.Get("/health", healthHandler)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.CSRF)

		// Auth endpoints — accessible without a session; credential
		// endpoints are rate-limited per client IP.
		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if authLimiter != nil {
					r.Use(authLimiter.Middleware)
				}
				r.Post("/register", h.Auth.Register)
				r.Post("/login", h.Auth.Login)
			})
			r.Post("/logout", h.Auth.Logout)

			// 2FA — requires auth but NOT completed 2FA.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Post("/2fa/setup", h.Auth.TwoFASetup)
				r.Post("/2fa/verify", h.Auth.TwoFAVerify)
			})
		})

		// Authenticated + 2FA-verified API.
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Use(middleware.Require2FA)

			r.Get("/auth/me", h.Auth.Me)
			r.Put("/auth/profile", h.Auth.UpdateProfile)

			r.Route("/templates", func(r chi.Router) {
				r.Get("/", h.Templates.List)
				r.Get("/public", h.Templates.ListPublic)
				r.Post("/", h.Templates.Create)
				r.Get("/{id}", h.Templates.Get)
				r.Put("/{id}", h.Templates.Update)
				r.Delete("/{id}", h.Templates.Delete)
				r.Post("/{id}/duplicate", h.Templates.Duplicate)

				// Design edit operations.
				r.Post("/{id}/elements", h.Templates.AddElement)
				r.Patch("/{id}/elements/{elementID}", h.Templates.PatchElement)
				r.Delete("/{id}/elements/{elementID}", h.Templates.DeleteElement)
				r.Put("/{id}/properties", h.Templates.UpdateProperties)
				r.Post("/{id}/orientation", h.Templates.ToggleOrientation)
			})

			r.Route("/datasets", func(r chi.Router) {
				r.Get("/", h.Datasets.List)
				r.Post("/", h.Datasets.Upload)
				r.Get("/{id}", h.Datasets.Get)
				r.Delete("/{id}", h.Datasets.Delete)
			})

			r.Get("/fields", h.Fields.List)

			r.Route("/certificates", func(r chi.Router) {
				r.Get("/", h.Certificates.List)
				r.Post("/", h.Certificates.Create)
				r.Get("/{id}", h.Certificates.Get)
				r.Put("/{id}/status", h.Certificates.UpdateStatus)
				r.Delete("/{id}", h.Certificates.Delete)
			})

			r.Route("/generate", func(r chi.Router) {
				if genLimiter != nil {
					r.With(genLimiter.Middleware).Post("/", h.Generate.Start)
				} else {
					r.Post("/", h.Generate.Start)
				}
				r.Get("/", h.Generate.History)
				r.Get("/{id}", h.Generate.Get)
				r.Get("/{id}/progress", h.Generate.Progress)
				r.Get("/{id}/downloads", h.Generate.Downloads)
			})

			r.Post("/uploads/image", h.Uploads.Image)
			r.Delete("/uploads/image", h.Uploads.DeleteImage)

			// Admin area.
			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireAdmin)

				r.Get("/stats", h.Admin.Stats)
				r.Route("/users", func(r chi.Router) {
					r.Get("/", h.Admin.ListUsers)
					r.Put("/{id}/status", h.Admin.UpdateStatus)
					r.Post("/{id}/reset-2fa", h.Admin.ResetTOTP)

					// Role changes are super-admin only.
					r.With(middleware.RequireRole(models.RoleSuperAdmin)).
						Put("/{id}/role", h.Admin.UpdateRole)
				})
				r.Post("/fields", h.Fields.Create)
				r.Delete("/fields/{id}", h.Fields.Delete)
			})
		})
	})

	return r
}

// healthHandler returns a simple JSON health check response.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}
