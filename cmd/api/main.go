package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"leadboard_backend/internal/board"
	"leadboard_backend/internal/crm"
	"leadboard_backend/internal/events"
	apphttp "leadboard_backend/internal/http"
	"leadboard_backend/internal/http/router"
	"leadboard_backend/platform/cache"
	"leadboard_backend/platform/config"
	"leadboard_backend/platform/logger"
	"leadboard_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	// Snapshot cache: Redis when configured, otherwise process-local memory.
	var snapshotCache cache.Cache
	var health apphttp.HealthChecker
	if cfg.RedisURL != "" {
		redisCache, err := cache.NewRedis(cfg.RedisURL, "leadboard")
		if err != nil {
			log.Error("failed to connect to redis", "error", err)
			panic("failed to connect to redis: " + err.Error())
		}
		defer redisCache.Close()
		snapshotCache = redisCache
		health = redisCache
		log.Info("snapshot cache using redis")
	} else {
		snapshotCache = cache.NewMemory()
		log.Warn("REDIS_URL not configured; snapshot cache is in-memory only")
	}

	// Event bus for decoupled communication between modules
	eventBus := events.NewInMemoryBus(log)

	// Shared validator instance for dependency injection
	val := validator.New()

	// Remote CRM backend client
	crmClient := crm.New(cfg, log)
	log.Info("crm client initialized", "baseURL", cfg.CRMBaseURL)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	boardModule := board.NewModule(crmClient, snapshotCache, eventBus, val, cfg, log)

	// Background polling loop; stops with the signal context.
	go boardModule.Poller().Run(ctx)
	defer boardModule.Poller().Stop()

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   health,
		EventBus: eventBus,
		Modules: []apphttp.Module{
			boardModule,
		},
	}

	engine := router.New(app)

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- engine.Run(cfg.HTTPAddr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = shutdownCtx
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}
