package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/dropDatabas3/gatejohn/internal/config"
	"github.com/dropDatabas3/gatejohn/internal/http/v2/server"
	"github.com/dropDatabas3/gatejohn/internal/observability/logger"
)

func main() {
	cfgPath := flag.String("config", "config.yaml", "ruta del YAML de configuración")
	flag.Parse()

	// .env es opcional; las env vars del sistema siempre aplican.
	_ = godotenv.Load()

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger.Init(logger.Config{
		Env:         cfg.App.Env,
		Level:       "info",
		ServiceName: "gatejohn",
	})
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	handler, cleanup, err := server.Build(ctx, cfg)
	if err != nil {
		logger.L().Fatal("wiring failed", logger.Err(err))
	}
	defer func() {
		if err := cleanup(); err != nil {
			logger.L().Warn("cleanup", logger.Err(err))
		}
	}()

	api := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	mmux := http.NewServeMux()
	mmux.Handle("/metrics", promhttp.Handler())
	metricsSrv := &http.Server{Addr: cfg.Server.MetricsAddr, Handler: mmux}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.L().Info("api listening", logger.String("addr", cfg.Server.Addr))
		if err := api.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		logger.L().Info("metrics listening", logger.String("addr", cfg.Server.MetricsAddr))
		if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = metricsSrv.Shutdown(shutdownCtx)
		return api.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.L().Fatal("server failed", logger.Err(err))
	}
	logger.L().Info("shutdown complete")
}
