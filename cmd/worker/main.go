package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"rollcall/internal/app"
	"rollcall/internal/config"
	"rollcall/internal/logger"
	"rollcall/internal/worker"
)

// Worker consumes export jobs from the shared queue and writes report files.
func main() {
	cfg := config.Load()
	lg, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer lg.Sync() //nolint:errcheck

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		lg.Info("shutdown signal received")
		cancel()
	}()

	if cfg.QueueBackend != "redis" {
		lg.Warn("queue backend is not redis; this worker only sees jobs it publishes itself",
			zap.String("queue", cfg.QueueBackend))
	}

	a, err := app.Open(ctx, cfg, lg)
	if err != nil {
		lg.Fatal("startup failed", zap.Error(err))
	}
	defer a.Close()

	if a.Redis != nil && !a.Redis.Healthy(ctx) {
		lg.Warn("redis not reachable yet, consumer will keep retrying", zap.String("addr", cfg.RedisAddr))
	}

	w := &worker.Exports{Jobs: a.Jobs, Reports: a.Reports, Exporter: a.Exporter, Logger: lg}
	if err := w.Run(ctx); err != nil {
		lg.Error("queue consume failed", zap.Error(err))
	}
}
