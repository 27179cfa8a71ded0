package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/hartfieldkennels/kennel-backend/api/responses"
	"github.com/hartfieldkennels/kennel-backend/pkg/config"
	"github.com/hartfieldkennels/kennel-backend/pkg/logger"
)

const readinessTimeout = 2 * time.Second

// Pinger is the health check surface a dependency must expose to be
// part of the readiness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// HealthLive reports process liveness. It never touches dependencies.
func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		responses.WriteSuccess(w, map[string]string{
			"status": "ok",
			"env":    cfg.App.Env,
		})
	}
}

// HealthReady pings the database and Redis. A nil pinger is reported as
// skipped so partial wiring in tests and workers stays readable.
func HealthReady(cfg *config.Config, logg *logger.Logger, database, cache Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
		defer cancel()

		checks := map[string]string{}
		healthy := true
		for name, p := range map[string]Pinger{"database": database, "redis": cache} {
			switch {
			case p == nil:
				checks[name] = "skipped"
			case p.Ping(ctx) != nil:
				checks[name] = "down"
				healthy = false
			default:
				checks[name] = "ok"
			}
		}

		status := "ok"
		code := http.StatusOK
		if !healthy {
			status = "degraded"
			code = http.StatusServiceUnavailable
			logg.Warn(logg.WithFields(ctx, map[string]any{"checks": checks}), "health.ready.degraded")
		}
		responses.WriteSuccessStatus(w, code, map[string]any{
			"status": status,
			"env":    cfg.App.Env,
			"checks": checks,
		})
	}
}
