package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/kjstillabower/airline-sentiment-dashboard/internal/cache"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/config"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/dashboard"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/dataset"
	httphandler "github.com/kjstillabower/airline-sentiment-dashboard/internal/http"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/lifecycle"
	"github.com/kjstillabower/airline-sentiment-dashboard/internal/observability"
)

func main() {
	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}
	lifecycle.Set(lifecycle.Loading)

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}
	healthConfig := &httphandler.HealthConfig{
		Window:               cfg.HealthWindow,
		ErrorPct:             cfg.HealthErrorPct,
		OverloadThresholdPct: cfg.OverloadThresholdPct,
		RateLimitRPS:         cfg.RateLimitRPS,
	}

	backend, err := newChartCache(cfg, logger)
	if err != nil {
		logger.Fatal("chart cache", zap.Error(err))
	}
	healthConfig.CachePing = backend.ping
	chartCache := backend.cache
	chartStore := cache.NewChartStore(chartCache, cfg.CacheTTL, logger)
	handler := httphandler.NewHandler(nil, chartStore, healthConfig, logger)
	observability.RegisterTrafficGauges(cfg.HealthWindow)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      httphandler.NewRouter(handler, limiter, cfg.RequestTimeout, logger),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	go func() {
		logger.Info("server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	loader := dataset.Default()
	start := time.Now()
	table, err := loader.Load()
	if err != nil {
		logger.Fatal("dataset", zap.String("path", loader.Path()), zap.Error(err))
	}
	logger.Info("dataset loaded",
		zap.String("path", loader.Path()),
		zap.Int("rows", table.Len()),
		zap.Duration("duration", time.Since(start)))

	renderer := dashboard.NewRenderer(table, cfg.RenderSeed, logger)
	if cfg.WarmCache && chartCache != nil {
		warmCtx, warmCancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := cache.NewChartWarmer(chartStore, renderer, logger).Warm(warmCtx, cache.DefaultTargets()); err != nil {
			logger.Warn("chart cache warming incomplete", zap.Error(err))
		}
		warmCancel()
	}
	handler.SetRenderer(renderer)
	lifecycle.Set(lifecycle.Ready)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	lifecycle.Set(lifecycle.ShuttingDown)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	logger.Info("waiting for in-flight requests", zap.Int64("count", httphandler.InFlightCount()))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if err := observability.FlushTelemetry(logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}
	if backend.close != nil {
		if err := backend.close(); err != nil {
			logger.Error("chart cache close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}
