package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hartfieldkennels/kennel-backend/api/controllers"
	webhookcontrollers "github.com/hartfieldkennels/kennel-backend/api/controllers/webhooks"
	"github.com/hartfieldkennels/kennel-backend/api/middleware"
	"github.com/hartfieldkennels/kennel-backend/internal/auth"
	"github.com/hartfieldkennels/kennel-backend/internal/intake"
	"github.com/hartfieldkennels/kennel-backend/internal/reservations"
	"github.com/hartfieldkennels/kennel-backend/internal/webhooks"
	"github.com/hartfieldkennels/kennel-backend/pkg/config"
	"github.com/hartfieldkennels/kennel-backend/pkg/logger"
	"github.com/hartfieldkennels/kennel-backend/pkg/metrics"
	"github.com/hartfieldkennels/kennel-backend/pkg/redis"
)

// Deps carries everything the HTTP surface needs. Nil optional pieces
// (Redis, metrics gatherer) degrade gracefully rather than panic, which
// keeps partial wiring in tests workable.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Database controllers.Pinger
	Redis    *redis.Client

	AuthService        auth.Service
	IntakeService      intake.Service
	ReservationService reservations.Service

	PayPalAdapter  webhooks.Adapter
	StripeAdapter  webhooks.Adapter
	WebhookService webhooks.Service
	WebhookMetrics *metrics.WebhookMetrics

	MetricsGatherer prometheus.Gatherer
}

// NewRouter assembles the public, webhook and admin route trees.
func NewRouter(d Deps) http.Handler {
	cfg := d.Config
	logg := d.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.ExtraCORSOrigins...),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		var cache controllers.Pinger
		if d.Redis != nil {
			cache = d.Redis
		}
		r.Get("/ready", controllers.HealthReady(cfg, logg, d.Database, cache))
	})

	if d.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(d.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/checkout", controllers.Checkout(d.IntakeService, logg))
		r.Route("/webhooks", func(r chi.Router) {
			r.Post("/paypal", webhookcontrollers.Receive(d.PayPalAdapter, d.WebhookService, logg, d.WebhookMetrics))
			r.Post("/stripe", webhookcontrollers.Receive(d.StripeAdapter, d.WebhookService, logg, d.WebhookMetrics))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			login := controllers.AdminLogin(d.AuthService, cfg.JWT, logg)
			if d.Redis != nil {
				r.With(middleware.LoginRateLimit(cfg.AuthRateLimit, d.Redis, logg)).Post("/login", login)
			} else {
				r.Post("/login", login)
			}
			r.Post("/logout", controllers.AdminLogout(cfg.JWT, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.AdminSession(cfg.JWT, logg))
			r.Route("/reservations", func(r chi.Router) {
				r.Get("/", controllers.ReservationList(d.ReservationService, logg))
				r.Get("/mismatches", controllers.ReservationMismatches(d.ReservationService, logg))
				r.Get("/{reservationId}", controllers.ReservationGet(d.ReservationService, logg))
				r.Patch("/{reservationId}/status", controllers.ReservationOverride(d.ReservationService, logg))
				r.Post("/{reservationId}/cancel", controllers.ReservationCancel(d.ReservationService, logg))
				r.Delete("/{reservationId}", controllers.ReservationDelete(d.ReservationService, logg))
			})
		})
	})

	return r
}
