package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/oliverbray/shopsmart-backend/api/routes"
	"github.com/oliverbray/shopsmart-backend/internal/catalog"
	"github.com/oliverbray/shopsmart-backend/internal/lists"
	"github.com/oliverbray/shopsmart-backend/internal/planner"
	"github.com/oliverbray/shopsmart-backend/internal/prices"
	"github.com/oliverbray/shopsmart-backend/pkg/config"
	"github.com/oliverbray/shopsmart-backend/pkg/db"
	"github.com/oliverbray/shopsmart-backend/pkg/events"
	"github.com/oliverbray/shopsmart-backend/pkg/logger"
	"github.com/oliverbray/shopsmart-backend/pkg/metrics"
	"github.com/oliverbray/shopsmart-backend/pkg/migrate"
	"github.com/oliverbray/shopsmart-backend/pkg/openfoodfacts"
	"github.com/oliverbray/shopsmart-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRun(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run migrations", err)
		os.Exit(1)
	}

	// Redis is optional: without it the planner coordinates searches
	// in-process.
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(context.Background(), cfg.Redis, logg)
		if err != nil {
			logg.Error(context.Background(), "failed to bootstrap redis", err)
			os.Exit(1)
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				logg.Error(context.Background(), "error closing redis", err)
			}
		}()
	} else {
		logg.Warn(context.Background(), "redis not configured, using in-process search coordination")
	}

	registry := prometheus.NewRegistry()
	searchMetrics := metrics.NewSearchMetrics(registry)
	bus := events.NewBus()
	offClient := openfoodfacts.NewClient(cfg.Search)

	catalogRepo := catalog.NewRepository(dbClient.DB())

	priceService, err := prices.NewService(prices.ServiceParams{
		Repo: prices.NewRepository(dbClient.DB()),
		Bus:  bus,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create price service", err)
		os.Exit(1)
	}

	listService, err := lists.NewService(lists.ServiceParams{
		Repo:     lists.NewRepository(dbClient.DB()),
		DB:       dbClient,
		Products: catalogRepo,
		Prices:   priceService,
		Bus:      bus,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create list service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.ServiceParams{
		Repo:   catalogRepo,
		Lookup: offClient,
		Prices: priceService,
		Lists:  listService,
		Bus:    bus,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	plannerService, err := planner.NewService(planner.ServiceParams{
		Repo:     planner.NewRepository(dbClient.DB()),
		Catalog:  catalogService,
		Products: catalogRepo,
		Prices:   priceService,
		Recorder: priceService,
		Search:   offClient,
		Redis:    redisClient,
		Metrics:  searchMetrics,
		Bus:      bus,
		Log:      logg,
		Config:   cfg.Search,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create planner service", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Logger:   logg,
			DB:       dbClient,
			Redis:    redisClient,
			Registry: registry,
			Catalog:  catalogService,
			Prices:   priceService,
			Lists:    listService,
			Planner:  plannerService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
