package controllers

import (
	"net/http"

	"github.com/mirontsev/gamekeys-backend/api/responses"
	"github.com/mirontsev/gamekeys-backend/pkg/config"
	"github.com/mirontsev/gamekeys-backend/pkg/db"
	pkgerrors "github.com/mirontsev/gamekeys-backend/pkg/errors"
	"github.com/mirontsev/gamekeys-backend/pkg/logger"
)

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-GameKeys-Env", cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady reports ready only when every backing store answers a ping.
// A nil cache is skipped so the optional redis dependency does not fail
// readiness.
func HealthReady(cfg *config.Config, logg *logger.Logger, database, cache db.Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-GameKeys-Env", cfg.App.Env)

		if database == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "database client unavailable"))
			return
		}
		if err := database.Ping(r.Context()); err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "database not ready"))
			return
		}
		if cache != nil {
			if err := cache.Ping(r.Context()); err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "redis not ready"))
				return
			}
		}
		responses.WriteSuccess(w, map[string]string{"status": "ready"})
	}
}
