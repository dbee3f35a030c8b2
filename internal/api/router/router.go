// Package router assembles the HTTP surface: middleware stack, public
// endpoints and the authenticated portal routes.
package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/clinicdesk/clinic-api/internal/api/respond"
	"github.com/clinicdesk/clinic-api/internal/appointments"
	"github.com/clinicdesk/clinic-api/internal/availability"
	httpmiddleware "github.com/clinicdesk/clinic-api/internal/http/middleware"
	"github.com/clinicdesk/clinic-api/internal/realtime"
	"github.com/clinicdesk/clinic-api/internal/schedule"
	"github.com/clinicdesk/clinic-api/pkg/logging"
)

// Config holds router configuration.
type Config struct {
	Logger              *logging.Logger
	AvailabilityHandler *availability.Handler
	ScheduleHandler     *schedule.Handler
	AppointmentsHandler *appointments.Handler
	RealtimeHandler     *realtime.Handler
	MetricsHandler      http.Handler
	PortalJWTSecret     string
	CORSAllowedOrigins  []string

	// RateLimitPerSec enables per-IP rate limiting when positive.
	RateLimitPerSec float64
	RateLimitBurst  int
}

// New creates a chi router with all routes configured.
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}
	if cfg.RateLimitPerSec > 0 {
		r.Use(httpmiddleware.RateLimit(cfg.RateLimitPerSec, cfg.RateLimitBurst))
	}

	// Public endpoints.
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		respond.OK(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	// Authenticated portal.
	r.Group(func(portal chi.Router) {
		portal.Use(httpmiddleware.PortalAuth(cfg.PortalJWTSecret))

		if cfg.AvailabilityHandler != nil || cfg.ScheduleHandler != nil {
			portal.Route("/practitioners/{practitionerID}", func(pr chi.Router) {
				if cfg.AvailabilityHandler != nil {
					pr.Get("/availability", cfg.AvailabilityHandler.Get)
					pr.Put("/availability", cfg.AvailabilityHandler.Update)
				}
				if cfg.ScheduleHandler != nil {
					pr.Get("/slots/dates", cfg.ScheduleHandler.Dates)
					pr.Get("/slots/times", cfg.ScheduleHandler.Times)
				}
			})
		}
		if cfg.AppointmentsHandler != nil {
			portal.Mount("/appointments", cfg.AppointmentsHandler.Routes())
		}
		if cfg.RealtimeHandler != nil {
			portal.Get("/ws", cfg.RealtimeHandler.ServeHTTP)
		}
	})

	return r
}
