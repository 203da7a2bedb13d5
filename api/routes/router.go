package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mirontsev/gamekeys-backend/api/controllers"
	"github.com/mirontsev/gamekeys-backend/api/middleware"
	cartsvc "github.com/mirontsev/gamekeys-backend/internal/cart"
	"github.com/mirontsev/gamekeys-backend/internal/catalog"
	checkoutsvc "github.com/mirontsev/gamekeys-backend/internal/checkout"
	internalorders "github.com/mirontsev/gamekeys-backend/internal/orders"
	"github.com/mirontsev/gamekeys-backend/pkg/config"
	"github.com/mirontsev/gamekeys-backend/pkg/db"
	"github.com/mirontsev/gamekeys-backend/pkg/enums"
	"github.com/mirontsev/gamekeys-backend/pkg/logger"
	"github.com/mirontsev/gamekeys-backend/pkg/metrics"
	pkgredis "github.com/mirontsev/gamekeys-backend/pkg/redis"
)

// Dependencies carries everything the router mounts. Idempotency and the
// prometheus registry are optional; nil disables the corresponding surface.
type Dependencies struct {
	Config           *config.Config
	Logger           *logger.Logger
	Database         db.Pinger
	Cache            db.Pinger
	IdempotencyStore pkgredis.IdempotencyStore
	HTTPMetrics      *metrics.HTTPMetrics
	Registry         *prometheus.Registry

	Catalog  catalog.Service
	Cart     cartsvc.Service
	Checkout checkoutsvc.Service
	Orders   internalorders.Service
}

// NewRouter mounts the public catalog, the authenticated cart and checkout
// surface, and the admin order endpoints.
func NewRouter(deps Dependencies) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)
	if deps.HTTPMetrics != nil {
		r.Use(middleware.Metrics(deps.HTTPMetrics))
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Database, deps.Cache))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/games", controllers.ListGames(deps.Catalog, logg))
		r.Get("/games/{gameId}", controllers.GetGame(deps.Catalog, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", controllers.GetCart(deps.Cart, logg))
				r.Post("/", controllers.AddCartItem(deps.Cart, logg))
				r.Delete("/", controllers.ClearCart(deps.Cart, logg))
				r.Delete("/{itemId}", controllers.RemoveCartItem(deps.Cart, logg))
			})

			r.Route("/orders", func(r chi.Router) {
				r.With(middleware.Idempotency(deps.IdempotencyStore, logg)).
					Post("/confirm", controllers.ConfirmOrder(deps.Checkout, logg))
				r.Get("/my", controllers.ListMyOrders(deps.Orders, logg))
				r.Get("/{orderId}", controllers.GetOrder(deps.Orders, logg))

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireRole(string(enums.UserRoleAdmin), logg))
					r.Get("/", controllers.AdminListOrders(deps.Orders, logg))
					r.Put("/{orderId}", controllers.AdminUpdateOrder(deps.Orders, logg))
					r.Delete("/{orderId}", controllers.AdminCancelOrder(deps.Orders, logg))
				})
			})
		})
	})

	return r
}
