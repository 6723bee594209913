package main

// @title Transit Aggregator API
// @version 1.0
// @description Линии, станции, ближайшие рейсы и алерты общественного транспорта Барселоны.
// @description Режимы: metro, bus, tram, rodalies, fgc, bicing.

// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	_ "github.com/transit-aggregator/docs"
	"github.com/transit-aggregator/internal/bootstrap"
	"github.com/transit-aggregator/internal/config"
	httpDelivery "github.com/transit-aggregator/internal/delivery/http"
	"github.com/transit-aggregator/internal/delivery/http/handler"
	"github.com/transit-aggregator/internal/pkg/audit"
	"github.com/transit-aggregator/internal/pkg/logger"
	"github.com/transit-aggregator/internal/repository/cache"
	"github.com/transit-aggregator/internal/repository/postgres"
	redisRepo "github.com/transit-aggregator/internal/repository/redis"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level, "transit-api")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Transit Aggregator API")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.String("cache_backend", cfg.Cache.Backend),
		zap.Strings("modes", cfg.Worker.Modes),
	)

	// 3. Connect to PostgreSQL
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}

	// 4. Cache backend
	cacheRepo, cacheCloser, err := bootstrap.OpenCache(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize cache", zap.Error(err))
	}

	// 5. Redis Streams (admin sync requests)
	streamsClient, err := cache.NewRedisStreams(&cfg.Streams, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis Streams", zap.Error(err))
	}
	streamRepo := redisRepo.NewStreamRepository(streamsClient, log)

	// 6. Use cases
	app, err := bootstrap.Build(cfg, bootstrap.Deps{
		DB:       db,
		Cache:    cacheRepo,
		Streams:  streamRepo,
		Recorder: audit.NewRecorder(log),
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize use cases", zap.Error(err))
	}

	// 7. HTTP handlers
	modeServices := make([]handler.ModeService, 0, len(app.Services))
	for _, svc := range app.Services {
		modeServices = append(modeServices, svc)
	}

	checks := map[string]handler.HealthCheck{
		"postgres": db.Health,
		"streams":  func(ctx context.Context) error { return streamsClient.Ping(ctx).Err() },
	}
	if hc, ok := cacheCloser.(interface{ Health(context.Context) error }); ok {
		checks["cache"] = hc.Health
	}

	server := httpDelivery.NewServer(cfg, log, httpDelivery.Handlers{
		Transport: handler.NewTransportHandler(modeServices, app.Alerts, log),
		Search:    handler.NewSearchHandler(app.Search, log),
		Stats:     handler.NewStatsHandler(app.Stats, log),
		Admin:     handler.NewAdminHandler(app.SyncRequests, log),
		Health:    handler.NewHealthHandler(checks, log),
	})

	// 8. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 9. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}
	if err := cacheCloser.Close(); err != nil {
		log.Error("Failed to close cache", zap.Error(err))
	}
	if err := streamsClient.Close(); err != nil {
		log.Error("Failed to close Redis Streams", zap.Error(err))
	}
	if err := db.Close(); err != nil {
		log.Error("Failed to close PostgreSQL", zap.Error(err))
	}

	log.Info("Server stopped successfully")
}
