package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/transit-aggregator/internal/bootstrap"
	"github.com/transit-aggregator/internal/config"
	"github.com/transit-aggregator/internal/pkg/audit"
	"github.com/transit-aggregator/internal/pkg/logger"
	"github.com/transit-aggregator/internal/repository/cache"
	"github.com/transit-aggregator/internal/repository/postgres"
	redisRepo "github.com/transit-aggregator/internal/repository/redis"
	"github.com/transit-aggregator/internal/worker"
	"github.com/transit-aggregator/internal/worker/scheduler"
	"github.com/transit-aggregator/internal/worker/syncreq"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level, "transit-worker")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Transit Sync Worker")
	log.Info("Configuration loaded",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.Int("pool_size", cfg.Worker.PoolSize),
		zap.Duration("sync_interval", cfg.Worker.SyncInterval),
		zap.Duration("notify_interval", cfg.Worker.NotifyInterval),
		zap.Bool("sync_on_start", cfg.Worker.SyncOnStart),
		zap.Strings("modes", cfg.Worker.Modes))

	// 3. Connect to PostgreSQL
	db, err := postgres.New(&cfg.Database, log)
	if err != nil {
		log.Fatal("Failed to connect to PostgreSQL", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close PostgreSQL connection", zap.Error(err))
		}
	}()

	// 4. Cache backend
	cacheRepo, cacheCloser, err := bootstrap.OpenCache(cfg, log)
	if err != nil {
		log.Fatal("Failed to initialize cache", zap.Error(err))
	}
	defer func() {
		if err := cacheCloser.Close(); err != nil {
			log.Error("Failed to close cache", zap.Error(err))
		}
	}()

	// 5. Redis Streams
	streamsClient, err := cache.NewRedisStreams(&cfg.Streams, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis Streams", zap.Error(err))
	}
	defer func() {
		if err := streamsClient.Close(); err != nil {
			log.Error("Failed to close Redis Streams connection", zap.Error(err))
		}
	}()
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

	// 7. Scheduler: {mode}:sync-lines, {mode}:sync-stations, alerts:notify
	sched := scheduler.New(cfg.Worker.PoolSize, log)
	for _, svc := range app.Services {
		for _, job := range scheduler.SyncJobs(svc, cfg.Worker.SyncInterval, cfg.Worker.SyncOnStart) {
			if err := sched.Register(job); err != nil {
				log.Fatal("Failed to register job", zap.String("job", job.ID), zap.Error(err))
			}
		}
	}
	if err := sched.Register(scheduler.NotifyJob(app.Notifications, cfg.Worker.NotifyInterval)); err != nil {
		log.Fatal("Failed to register notify job", zap.Error(err))
	}
	log.Info("Jobs registered", zap.Strings("jobs", sched.Jobs()))

	// 8. Worker manager
	manager := worker.NewWorkerManager(0, log)
	manager.Register(sched)
	manager.Register(syncreq.NewRequestWorker(streamRepo, sched, cfg.Worker, log))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := manager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	log.Info("Worker started successfully")

	// 9. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down worker gracefully...")

	if err := manager.Stop(); err != nil {
		log.Error("Worker shutdown error", zap.Error(err))
	}

	log.Info("Worker stopped successfully")
}
