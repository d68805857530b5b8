package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/notifica-api/internal/config"
	"github.com/notifica-api/internal/transport/http/handler"
	appmiddleware "github.com/notifica-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	var authMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
	} else {
		authMw = func(next http.Handler) http.Handler { return next }
	}

	// 5 requests/second, burst of 10 — applied to the unauthenticated
	// tracking endpoint, which would otherwise be a trivial flood target.
	publicRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	healthH := handler.NewHealthHandler()
	notifH := handler.NewNotificationHandler(deps.NotificationSvc, cfg.CertificateURLTTL)
	auditH := handler.NewAuditHandler(deps.AuditSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.With(publicRL.Limit).Post("/track/{id}/read", notifH.TrackRead)

		// ── Authenticated routes ─────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Get("/certification-levels", handler.ListCertificationLevels)

			r.Post("/notifications", notifH.Create)
			r.Get("/notifications", notifH.List)
			r.Get("/notifications/stats", notifH.Stats)
			r.Get("/notifications/{id}", notifH.Get)
			r.Put("/notifications/{id}", notifH.Update)
			r.Post("/notifications/{id}/send", notifH.Send)
			r.Get("/notifications/{id}/certificate", notifH.Certificate)

			r.Get("/audit", auditH.List)
			r.Get("/audit/verify", auditH.Verify)
		})
	})

	return r
}
