package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/wolfman30/aria-bots/internal/http/handlers"
	httpmiddleware "github.com/wolfman30/aria-bots/internal/http/middleware"
	"github.com/wolfman30/aria-bots/internal/messaging"
	"github.com/wolfman30/aria-bots/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger           *logging.Logger
	MessagingHandler *messaging.Handler
	AnalyticsHandler *handlers.AnalyticsHandler
	MetricsHandler   http.Handler

	// Admin auth for /analytics; JWT bearer tokens take precedence over basic auth.
	AdminJWTSecret string
	AdminPassword  string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	if cfg == nil || cfg.MessagingHandler == nil {
		panic("router: messaging handler cannot be nil")
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))

	// Public endpoints (webhooks, health checks)
	r.Group(func(public chi.Router) {
		public.Get("/", cfg.MessagingHandler.Root)
		public.Get("/health", cfg.MessagingHandler.HealthCheck)
		public.Post("/webhook", cfg.MessagingHandler.TwilioWebhook)
		public.Route("/messaging", func(r chi.Router) {
			r.Post("/twilio/webhook", cfg.MessagingHandler.TwilioWebhook)
		})
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	if cfg.AnalyticsHandler != nil {
		r.Group(func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminAuth(cfg.AdminJWTSecret, cfg.AdminPassword))
			admin.Get("/analytics", cfg.AnalyticsHandler.GetSummary)
		})
	}

	return r
}
