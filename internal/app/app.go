package app

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/yungbote/breakdown-backend/internal/config"
	"github.com/yungbote/breakdown-backend/internal/http"
	"github.com/yungbote/breakdown-backend/internal/observability"
	"github.com/yungbote/breakdown-backend/internal/platform/logger"
)

type App struct {
	Log      *logger.Logger
	Cfg      *config.Config
	Services Services
	Server   *http.Server

	otelShutdown func(context.Context) error
}

// New loads the configuration from file and environment and wires the app.
func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Env)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	return NewWithConfig(ctx, cfg, log)
}

func NewWithConfig(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	if log == nil {
		log = logger.Nop()
	}
	otelShutdown := observability.InitOTel(ctx, log, cfg.Otel, cfg.Env)

	services, err := WireServices(ctx, cfg, log)
	if err != nil {
		_ = otelShutdown(context.Background())
		log.Sync()
		return nil, err
	}

	handlers := wireHandlers(log, cfg, services)
	server := http.NewServer(cfg.HTTP, log, wireRouter(cfg, handlers))

	return &App{
		Log:          log,
		Cfg:          cfg,
		Services:     services,
		Server:       server,
		otelShutdown: otelShutdown,
	}, nil
}

// Run serves HTTP and keeps the diagram renderer probed until ctx ends or
// either fails.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return a.Server.Run(ctx)
	})
	if a.Services.Prober != nil {
		g.Go(func() error {
			return a.Services.Prober.Start(ctx)
		})
	}
	return g.Wait()
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if err := a.Services.Close(); err != nil {
		a.Log.Warn("close services", "error", err)
	}
	if a.otelShutdown != nil {
		if err := a.otelShutdown(context.Background()); err != nil {
			a.Log.Warn("otel shutdown", "error", err)
		}
	}
	a.Log.Sync()
}
