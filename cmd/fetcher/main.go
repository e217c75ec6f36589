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

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"radarview/internal/chmi"
	"radarview/internal/convert"
	"radarview/internal/core"
	"radarview/internal/fetcher"
	"radarview/internal/notify"
	"radarview/internal/observability"
	"radarview/internal/odim"
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

	metrics := observability.NewMetrics()
	notifier := notify.NewDiscordNotifier(config.Notifier.DiscordWebhookURL, logger)
	client := chmi.NewClient(config.RequestTimeout(), config.Fetch.RequestsPerSecond, config.Fetch.Burst, logger)

	converters, err := buildConverters(config)
	if err != nil {
		logger.Error("failed to build converters", "error", err)
		os.Exit(1)
	}

	f, err := fetcher.New(fetcher.Deps{
		Config:     config,
		Store:      coreService.Store(),
		Client:     client,
		Converters: converters,
		Metrics:    metrics,
		Notifier:   notifier,
		Logger:     logger,
	})
	if err != nil {
		logger.Error("failed to initialize fetcher", "error", err)
		os.Exit(1)
	}

	// Probe and metrics endpoint next to the fetch loop.
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.GET("/probe", func(c echo.Context) error {
		return c.String(http.StatusOK, "Fetcher is running")
	})
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := e.Start(fmt.Sprintf(":%d", config.Fetch.MetricsPort)); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := f.Run(ctx); err != nil {
			logger.Error("fetch loop error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := coreService.Close(); err != nil {
		logger.Error("core service close error", "error", err)
	}

	logger.Info("shutdown complete")
}

func buildConverters(config *core.ServiceConfig) (map[string]fetcher.ProductConverter, error) {
	reader := odim.NewFileReader()
	converters := make(map[string]fetcher.ProductConverter, len(config.Products))

	for i := range config.Products {
		product := &config.Products[i]
		renderer, err := convert.NewRenderer(product.Renderer, product.VisibleMinRaw)
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", product.Name, err)
		}
		commands, err := convert.BuildCommands(product.CommandConfigs())
		if err != nil {
			return nil, fmt.Errorf("product %s: %w", product.Name, err)
		}
		converters[product.Name] = convert.NewConverter(reader, renderer, commands)
	}
	return converters, nil
}
