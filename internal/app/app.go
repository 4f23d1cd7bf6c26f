// Package app assembles services from configuration for the binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"rollcall/internal/attendance"
	"rollcall/internal/auth"
	"rollcall/internal/authenticator"
	"rollcall/internal/cloudinary"
	"rollcall/internal/config"
	"rollcall/internal/enrollment"
	"rollcall/internal/handler"
	"rollcall/internal/metrics"
	"rollcall/internal/queue"
	"rollcall/internal/report"
	"rollcall/internal/session"
	"rollcall/internal/store"
)

// dedupTTL outlives any calendar day a key can describe.
const dedupTTL = 36 * time.Hour

// App is the wired dependency graph.
type App struct {
	Config   config.App
	Logger   *zap.Logger
	Store    store.Store
	Redis    *store.Redis
	Jobs     queue.Queue
	Registry *prometheus.Registry
	Metrics  *metrics.Collector

	Catalog    *session.Catalog
	Enrollment *enrollment.Service
	Records    *attendance.Repository
	Intake     *attendance.Service
	Live       *attendance.Registry
	Reports    *report.Aggregator
	Exporter   *report.Exporter
	Issuer     *auth.Issuer
	Admins     *auth.Service
	Agent      authenticator.Authenticator
}

// Open connects the store and builds every service. Live session clocks run
// under ctx.
func Open(ctx context.Context, cfg config.App, logger *zap.Logger) (*App, error) {
	s, err := store.Open(ctx, store.Options{
		Backend:     cfg.StoreBackend,
		DatabaseURL: cfg.DatabaseURL,
		SQLitePath:  cfg.SQLitePath,
		Timeout:     cfg.StoreTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	a := &App{Config: cfg, Logger: logger, Store: s}

	if cfg.QueueBackend == "redis" || (cfg.StrictDedup && cfg.DedupBackend == "redis") {
		a.Redis = store.NewRedis(cfg.RedisAddr)
	}
	switch cfg.QueueBackend {
	case "", "memory":
		a.Jobs = queue.NewInMemory(64)
	case "redis":
		a.Jobs = queue.NewRedisQueue(a.Redis.Client, cfg.QueueKey)
	default:
		_ = a.Close()
		return nil, fmt.Errorf("unknown queue backend %q", cfg.QueueBackend)
	}

	a.Registry = prometheus.NewRegistry()
	a.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	a.Metrics = metrics.NewCollector(a.Registry)

	sink, err := shareSink(cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	opts := []attendance.Option{attendance.WithLogger(logger), attendance.WithMetrics(a.Metrics)}
	if cfg.StrictDedup {
		if a.Redis != nil {
			opts = append(opts, attendance.WithGuard(attendance.NewRedisGuard(a.Redis.Client, dedupTTL)))
		} else {
			opts = append(opts, attendance.WithGuard(attendance.NewMemoryGuard()))
		}
	}

	a.Catalog = session.NewCatalog(s, logger)
	a.Enrollment = enrollment.NewService(s, logger, a.Metrics)
	a.Records = attendance.NewRepository(s)
	a.Intake = attendance.NewService(a.Records, opts...)
	a.Live = attendance.NewRegistry(ctx, cfg.SessionDuration)
	a.Reports = report.NewAggregator(s, logger, a.Metrics)
	a.Exporter = report.NewExporter(cfg.ReportsDir, sink, logger, a.Metrics)
	a.Issuer = auth.NewIssuer(cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL, cfg.RefreshTTL)
	a.Admins = auth.NewService(s, a.Issuer, logger)

	switch cfg.AuthenticatorMode {
	case "", "device":
	case "agent":
		a.Agent = authenticator.NewClient(cfg.AuthenticatorURL, cfg.AuthenticatorSkip)
	default:
		_ = a.Close()
		return nil, fmt.Errorf("unknown authenticator mode %q", cfg.AuthenticatorMode)
	}

	logger.Info("services ready",
		zap.String("store", cfg.StoreBackend),
		zap.String("queue", cfg.QueueBackend),
		zap.Bool("strict_dedup", cfg.StrictDedup),
		zap.String("authenticator", cfg.AuthenticatorMode),
		zap.String("share_sink", cfg.ShareSink))
	return a, nil
}

func shareSink(cfg config.App) (report.Sink, error) {
	switch cfg.ShareSink {
	case "", "dir":
		return report.DirSink{Dir: cfg.ShareDir}, nil
	case "cloudinary":
		client := cloudinary.New(cfg.CloudinaryCloudName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret, cfg.CloudinaryFolder)
		if !client.Configured() {
			return nil, errors.New("cloudinary share sink needs CLOUDINARY_CLOUD_NAME, CLOUDINARY_API_KEY and CLOUDINARY_API_SECRET")
		}
		return report.CloudinarySink{Client: client}, nil
	default:
		return nil, fmt.Errorf("unknown share sink %q", cfg.ShareSink)
	}
}

// Handler exposes the services to the HTTP layer.
func (a *App) Handler() *handler.Handler {
	return &handler.Handler{
		Catalog:    a.Catalog,
		Enrollment: a.Enrollment,
		Intake:     a.Intake,
		Live:       a.Live,
		Records:    a.Records,
		Reports:    a.Reports,
		Exporter:   a.Exporter,
		Admins:     a.Admins,
		Jobs:       a.Jobs,
		Agent:      a.Agent,
		Logger:     a.Logger,
	}
}

// Health lists the dependency probes for /healthz.
func (a *App) Health() map[string]handler.HealthCheck {
	checks := map[string]handler.HealthCheck{
		"store": func(ctx context.Context) bool {
			_, err := a.Store.List(ctx, store.CollectionSessions)
			return err == nil
		},
	}
	if a.Redis != nil {
		checks["redis"] = a.Redis.Healthy
	}
	if c, ok := a.Agent.(*authenticator.Client); ok {
		checks["authenticator"] = func(ctx context.Context) bool { return c.Health(ctx) == nil }
	}
	return checks
}

// Close releases the store and redis connections.
func (a *App) Close() error {
	var errs []error
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.Redis != nil {
		errs = append(errs, a.Redis.Close())
	}
	return errors.Join(errs...)
}
