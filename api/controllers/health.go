package controllers

import (
	"context"
	"net/http"

	"github.com/aldousari/vendpoint-backend/api/responses"
	"github.com/aldousari/vendpoint-backend/pkg/config"
	"github.com/aldousari/vendpoint-backend/pkg/logger"
)

type pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-VendPoint-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports readiness after checking the database and redis.
func HealthReady(cfg *config.Config, db pinger, cache pinger, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-VendPoint-Env", cfg.App.Env)

		checks := map[string]string{}
		healthy := true
		for name, dep := range map[string]pinger{"database": db, "redis": cache} {
			if dep == nil {
				checks[name] = "skipped"
				continue
			}
			if err := dep.Ping(r.Context()); err != nil {
				checks[name] = "unreachable"
				healthy = false
				logg.Error(r.Context(), "readiness check failed for "+name, err)
				continue
			}
			checks[name] = "ok"
		}

		status := "ready"
		code := http.StatusOK
		if !healthy {
			status = "degraded"
			code = http.StatusServiceUnavailable
		}
		responses.WriteSuccessStatus(w, code, map[string]any{"status": status, "checks": checks})
	}
}
