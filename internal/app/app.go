package app

import (
	"context"
	"fmt"
	"time"

	"github.com/yungbote/autumn-backend/internal/data/db"
	"github.com/yungbote/autumn-backend/internal/data/repos"
	apphttp "github.com/yungbote/autumn-backend/internal/http"
	"github.com/yungbote/autumn-backend/internal/jobs/scheduler"
	"github.com/yungbote/autumn-backend/internal/observability"
	"github.com/yungbote/autumn-backend/internal/platform/logger"
)

type App struct {
	Log        *logger.Logger
	Cfg        Config
	DB         *db.Service
	Repos      repos.Set
	Aggregates Aggregates
	Services   Services
	Clients    Clients
	Metrics    *observability.Metrics

	Server *apphttp.Server
	Sweep  *scheduler.Scheduler

	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

// NewCore opens the database and wires everything below the HTTP surface. The admin CLI runs on
// a core app; New adds the server, the audit sweep and telemetry on top.
func NewCore(ctx context.Context, log *logger.Logger, cfg Config) (*App, error) {
	dbs, err := db.NewService(log, cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("init db: %w", err)
	}
	if err := db.AutoMigrateAll(dbs.DB()); err != nil {
		_ = dbs.Close()
		return nil, err
	}

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.New()
	}

	clients, err := wireClients(ctx, log, cfg)
	if err != nil {
		_ = dbs.Close()
		return nil, err
	}

	reposet := repos.NewSet(dbs.DB(), log)
	aggs := wireAggregates(dbs.DB(), log, cfg, reposet, metrics)
	serviceset := wireServices(log, cfg, reposet, aggs, metrics)

	return &App{
		Log:        log,
		Cfg:        cfg,
		DB:         dbs,
		Repos:      reposet,
		Aggregates: aggs,
		Services:   serviceset,
		Clients:    clients,
		Metrics:    metrics,
	}, nil
}

func New(ctx context.Context) (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	otelShutdown, err := observability.InitOTel(ctx, log, observability.OtelConfig{
		Enabled:     cfg.OtelEnabled,
		ServiceName: cfg.OtelServiceName,
		Environment: cfg.OtelEnvironment,
		Version:     cfg.OtelVersion,
		Endpoint:    cfg.OtelEndpoint,
		Headers:     cfg.OtelHeaders,
		Insecure:    cfg.OtelInsecure,
		SampleRatio: cfg.OtelSampleRatio,
	})
	if err != nil {
		log.Sync()
		return nil, err
	}

	a, err := NewCore(ctx, log, cfg)
	if err != nil {
		log.Sync()
		return nil, err
	}
	a.otelShutdown = otelShutdown

	handlerset := wireHandlers(log, a.DB, a.Services)
	a.Server = wireServer(log, cfg, handlerset, a.Metrics)
	a.Sweep = wireAuditSweep(log, cfg, a.Services.Audit, a.Clients, a.Metrics)
	return a, nil
}

// Start launches the background loops: the audit sweep and the metrics endpoint.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Sweep != nil {
		a.Sweep.Start(ctx)
	}
	if a.Metrics != nil {
		a.Metrics.StartServer(ctx, a.Log, a.Cfg.MetricsAddr)
		a.Metrics.StartPostgresCollector(ctx, a.Log, a.DB.DB())
		if a.Clients.Redis != nil {
			a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis)
		}
	}
}

func (a *App) Run() error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("HTTP server listening", "port", a.Cfg.Port)
	return a.Server.Run()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			a.Log.Warn("http shutdown failed", "error", err)
		}
		cancel()
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.otelShutdown != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		_ = a.otelShutdown(shutdownCtx)
		cancel()
	}
	a.Clients.Close()
	if a.DB != nil {
		_ = a.DB.Close()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
