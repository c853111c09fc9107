package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/groupbuy-backend/api/routes"
	"github.com/angelmondragon/groupbuy-backend/internal/commitments"
	"github.com/angelmondragon/groupbuy-backend/internal/deals"
	"github.com/angelmondragon/groupbuy-backend/internal/periods"
	"github.com/angelmondragon/groupbuy-backend/internal/reports"
	"github.com/angelmondragon/groupbuy-backend/internal/statuschanges"
	"github.com/angelmondragon/groupbuy-backend/internal/users"
	"github.com/angelmondragon/groupbuy-backend/pkg/config"
	"github.com/angelmondragon/groupbuy-backend/pkg/db"
	"github.com/angelmondragon/groupbuy-backend/pkg/logger"
	"github.com/angelmondragon/groupbuy-backend/pkg/metrics"
	"github.com/angelmondragon/groupbuy-backend/pkg/migrate"
	"github.com/angelmondragon/groupbuy-backend/pkg/redis"
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

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	loc, err := cfg.Digest.Location()
	if err != nil {
		logg.Error(context.Background(), "failed to load reporting timezone", err)
		os.Exit(1)
	}
	calendar, err := periods.FromConfig(cfg.Periods.OpenDay, cfg.Periods.CloseDay, cfg.Periods.OverridesFile, loc)
	if err != nil {
		logg.Error(context.Background(), "failed to build commitment calendar", err)
		os.Exit(1)
	}

	commitmentRepo := commitments.NewRepository(dbClient.DB())
	dealRepo := deals.NewRepository(dbClient.DB())
	userRepo := users.NewRepository(dbClient.DB())

	commitmentService, err := commitments.NewService(commitments.ServiceParams{
		Commitments: commitmentRepo,
		Deals:       dealRepo,
		Users:       userRepo,
		Audit:       statuschanges.NewRecorder(statuschanges.NewRepository(dbClient.DB()), logg),
		TX:          dbClient,
		Logger:      logg,
		Metrics:     metrics.NewCommitmentMetrics(prometheus.DefaultRegisterer),
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create commitment service", err)
		os.Exit(1)
	}

	exporter, err := reports.NewExporter(dealRepo, commitmentRepo, userRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create report exporter", err)
		os.Exit(1)
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": id,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(cfg, logg, routes.Dependencies{
			DB:          dbClient,
			Redis:       redisClient,
			Commitments: commitmentService,
			Exporter:    exporter,
			Periods:     calendar,
			Metrics:     promhttp.Handler(),
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
