package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/railvoice/railvoice/internal/announce"
	"github.com/railvoice/railvoice/internal/config"
	"github.com/railvoice/railvoice/internal/domain"
	"github.com/railvoice/railvoice/internal/transport/http/handler"
	appmiddleware "github.com/railvoice/railvoice/internal/transport/http/middleware"
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

	var authMw, announcerMw func(http.Handler) http.Handler
	if deps.JWTProvider != nil {
		authMw = appmiddleware.Auth(deps.JWTProvider)
		announcerMw = appmiddleware.RequireRole(domain.RoleAnnouncer, domain.RoleAdmin)
	} else {
		// Local development without a key pair: everything is an announcer.
		pass := func(next http.Handler) http.Handler { return next }
		authMw, announcerMw = pass, pass
	}

	// 5 requests/second, burst of 10 — applied to announcement creation.
	createRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	store := announce.NewStore(deps.Docs)
	announceSvc := announce.NewService(store, deps.Pusher)

	healthH := handler.NewHealthHandler()
	announceH := handler.NewAnnouncementHandler(announceSvc)
	streamH := handler.NewStreamHandler(announceSvc)

	r.Route("/v1", func(r chi.Router) {
		// ── Public routes (no auth) ──────────────────────────────────────────
		r.Get("/health-check/{action}", healthH.Ping)
		r.Post("/health-check/{action}", healthH.Ping)
		r.Get("/trains/{trainID}/announcements", announceH.List)
		r.Get("/trains/{trainID}/announcements/stream", streamH.Train)
		r.Get("/lines/{lineID}/announcements/stream", streamH.Line)
		r.Get("/announcements/stream", streamH.Combined)

		// ── Announcer routes ─────────────────────────────────────────────────
		r.Group(func(r chi.Router) {
			r.Use(authMw)
			r.Use(announcerMw)

			r.With(createRL.Limit).Post("/trains/{trainID}/announcements", announceH.Create)
			r.Delete("/trains/{trainID}/announcements/{id}", announceH.Delete)
		})
	})

	return r
}
