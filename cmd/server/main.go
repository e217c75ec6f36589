package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"radarview/internal/cache"
	"radarview/internal/core"
	"radarview/internal/observability"
	"radarview/internal/server"
)

func getConfigPath() string {
	// First check if config path is provided via environment variable
	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		return configPath
	}

	// Default to config.yaml in current working directory
	cwd, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	return filepath.Join(cwd, "config.yaml")
}

func main() {
	configPath := getConfigPath()
	config, err := core.LoadConfig(configPath)
	if err != nil {
		slog.Error("failed to load config", "path", configPath, "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(config.Logging.Level, config.Logging.Format)

	coreService, err := core.NewCoreService(config)
	if err != nil {
		logger.Error("failed to initialize core service", "error", err)
		os.Exit(1)
	}

	responseCache := buildCache(config, logger)
	metrics := observability.NewMetrics()

	e := server.DefineServer(config, logger)
	apiService := server.NewAPIService(coreService, responseCache, metrics, logger)
	apiService.SetRoutes(e)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server in a goroutine to allow graceful shutdown
	go func() {
		logger.Info("starting server", "port", config.Port)
		if err := e.Start(fmt.Sprintf(":%d", config.Port)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}
	if err := responseCache.Close(); err != nil {
		logger.Error("cache close error", "error", err)
	}
	if err := coreService.Close(); err != nil {
		logger.Error("core service close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// buildCache connects to Redis when an address is configured and falls back
// to the no-op cache otherwise. A failed connection is not fatal.
func buildCache(config *core.ServiceConfig, logger *slog.Logger) cache.Cache {
	if config.Cache.RedisAddr == "" {
		return cache.NewNoopCache()
	}

	redisCache, err := cache.NewRedisCache(cache.RedisConfig{
		Addr:     config.Cache.RedisAddr,
		Password: config.Cache.RedisPassword,
		DB:       config.Cache.RedisDB,
	}, logger)
	if err != nil {
		logger.Warn("redis unavailable, caching disabled", "error", err)
		return cache.NewNoopCache()
	}
	return redisCache
}
