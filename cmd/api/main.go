package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tripsearch_backend/internal/config"
	apphttp "tripsearch_backend/internal/http"
	"tripsearch_backend/internal/http/router"
	"tripsearch_backend/internal/search"
	"tripsearch_backend/platform/cache"
	"tripsearch_backend/platform/logger"
	"tripsearch_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Persisted cache tier. Optional: without REDIS_URL the engine runs on
	// the in-memory tier alone.
	var redisTier *cache.RedisTier
	if cfg.IsRedisEnabled() {
		redisTier, err = cache.NewRedisTier(cfg.RedisURL, "tripsearch", log)
		if err != nil {
			log.Error("failed to initialize redis cache tier", "error", err)
			panic("failed to initialize redis cache tier: " + err.Error())
		}
		defer redisTier.Close()
		log.Info("redis cache tier initialized")
	} else {
		log.Warn("REDIS_URL not configured; persisted cache tier disabled")
	}

	val := validator.New()

	searchModule := search.NewModule(cfg, redisTier, val, log)

	app := &apphttp.App{
		Config: cfg,
		Logger: log,
		Health: redisTier,
		Modules: []apphttp.Module{
			searchModule,
		},
	}

	engine := router.New(app)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		srvErr <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			panic("server error: " + err.Error())
		}
	}
}
