package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/mirontsev/gamekeys-backend/api/responses"
	"github.com/mirontsev/gamekeys-backend/api/validators"
	"github.com/mirontsev/gamekeys-backend/internal/catalog"
	pkgerrors "github.com/mirontsev/gamekeys-backend/pkg/errors"
	"github.com/mirontsev/gamekeys-backend/pkg/logger"
	"github.com/mirontsev/gamekeys-backend/pkg/pagination"
)

// ListGames returns a paginated catalog page with platform names aggregated
// per game.
func ListGames(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))

		list, err := svc.ListGames(r.Context(), pagination.Params{Limit: limit, Cursor: cursor})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, list)
	}
}

// GetGame returns one game with its platform options.
func GetGame(svc catalog.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog service unavailable"))
			return
		}

		gameID, err := validators.ParsePathID(chi.URLParam(r, "gameId"), "gameId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		game, err := svc.GetGame(r.Context(), gameID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, game)
	}
}
