package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"rollcall/internal/app"
	"rollcall/internal/config"
	"rollcall/internal/handler"
	"rollcall/internal/httpmiddleware"
	"rollcall/internal/logger"
	"rollcall/internal/metrics"
	"rollcall/internal/worker"
)

func main() {
	cfg := config.Load()

	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	lg, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer lg.Sync() //nolint:errcheck

	if err := runHTTP(cfg, lg); err != nil {
		lg.Fatal("http server failed", zap.Error(err))
	}
}

func runHTTP(cfg config.App, lg *zap.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := app.Open(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer a.Close()

	// With the in-memory queue nothing else can see the jobs, so drain them here.
	if cfg.QueueBackend == "" || cfg.QueueBackend == "memory" {
		w := &worker.Exports{Jobs: a.Jobs, Reports: a.Reports, Exporter: a.Exporter, Logger: lg.Named("exports")}
		go func() {
			if err := w.Run(ctx); err != nil {
				lg.Error("export worker exited", zap.Error(err))
			}
		}()
	}

	r := handler.NewRouter(a.Handler(), handler.RouterConfig{
		Issuer:      a.Issuer,
		CORSOrigins: cfg.CORSOrigins,
		RateLimit:   httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).GinMiddleware(),
		Metrics:     metrics.Handler(a.Registry),
		Health:      a.Health(),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("starting server", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-errCh:
		return err
	}
	lg.Info("shutting down server")

	// Give outstanding requests 10 seconds to complete
	shutdownCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Warn("server forced shutdown", zap.Error(err))
	}

	lg.Info("server exited")
	return nil
}
