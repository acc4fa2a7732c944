package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oliverbray/shopsmart-backend/api/controllers"
	"github.com/oliverbray/shopsmart-backend/api/middleware"
	"github.com/oliverbray/shopsmart-backend/internal/catalog"
	"github.com/oliverbray/shopsmart-backend/internal/lists"
	"github.com/oliverbray/shopsmart-backend/internal/planner"
	"github.com/oliverbray/shopsmart-backend/internal/prices"
	"github.com/oliverbray/shopsmart-backend/pkg/db"
	"github.com/oliverbray/shopsmart-backend/pkg/logger"
	"github.com/oliverbray/shopsmart-backend/pkg/redis"
)

// Deps bundles everything the router mounts.
type Deps struct {
	Logger   *logger.Logger
	DB       db.Pinger
	Redis    *redis.Client
	Registry *prometheus.Registry
	Catalog  catalog.Service
	Prices   prices.Service
	Lists    lists.Service
	Planner  planner.Service
}

// NewRouter wires the HTTP surface.
func NewRouter(deps Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(deps.Logger),
		middleware.RequestID(deps.Logger),
		middleware.Logging(deps.Logger),
	)

	r.Get("/health/live", controllers.HealthLive())
	var cache redis.Pinger
	if deps.Redis != nil {
		cache = deps.Redis
	}
	r.Get("/health/ready", controllers.HealthReady(deps.DB, cache, deps.Logger))

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/catalog", func(r chi.Router) {
			r.Get("/", controllers.CatalogList(deps.Catalog, deps.Logger))
			r.Post("/", controllers.CatalogUpsert(deps.Catalog, deps.Logger))
			r.Post("/dedupe", controllers.CatalogDeduplicate(deps.Catalog, deps.Logger))
			r.Post("/scan", controllers.CatalogScan(deps.Catalog, deps.Logger))
			r.Get("/{barcode}", controllers.CatalogGet(deps.Catalog, deps.Logger))
		})

		r.Route("/prices", func(r chi.Router) {
			r.Post("/", controllers.PriceRecord(deps.Prices, deps.Logger))
			r.Get("/{barcode}", controllers.PriceHistory(deps.Prices, deps.Logger))
			r.Get("/{barcode}/best", controllers.PriceBest(deps.Prices, deps.Logger))
			r.Get("/{barcode}/latest", controllers.PriceLatest(deps.Prices, deps.Logger))
		})

		r.Route("/lists", func(r chi.Router) {
			r.Post("/", controllers.ListCreate(deps.Lists, deps.Logger))
			r.Get("/active", controllers.ListLatestActive(deps.Lists, deps.Logger))
			r.Get("/completed", controllers.ListRecentCompleted(deps.Lists, deps.Logger))
			r.Post("/default", controllers.ListDefault(deps.Lists, deps.Logger))
			r.Post("/generate", controllers.ListGenerate(deps.Lists, deps.Logger))
			r.Post("/items/{itemID}/toggle", controllers.ListToggleItem(deps.Lists, deps.Logger))
			r.Delete("/items/{itemID}", controllers.ListRemoveItem(deps.Lists, deps.Logger))
			r.Post("/{listID}/items", controllers.ListAddItem(deps.Lists, deps.Logger))
			r.Post("/{listID}/complete", controllers.ListComplete(deps.Lists, deps.Logger))
			r.Post("/{listID}/reuse", controllers.ListReuse(deps.Lists, deps.Logger))
			r.Get("/{listID}/share-text", controllers.ListShareText(deps.Lists, deps.Logger))
			r.Delete("/{listID}", controllers.ListDelete(deps.Lists, deps.Logger))
		})

		r.Route("/stores/{store}", func(r chi.Router) {
			r.Get("/saved-items", controllers.SavedItemsList(deps.Planner, deps.Logger))
			r.Post("/saved-items", controllers.SavedItemCurate(deps.Planner, deps.Logger))
			r.Post("/saved-items/manual", controllers.SavedItemManual(deps.Planner, deps.Logger))
			r.Delete("/saved-items/{barcode}", controllers.SavedItemUncurate(deps.Planner, deps.Logger))
			r.Get("/search", controllers.StoreSearch(deps.Planner, deps.Logger))
		})
	})

	return r
}
