package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/yungbote/breakdown-backend/internal/breakdown"
	"github.com/yungbote/breakdown-backend/internal/config"
	"github.com/yungbote/breakdown-backend/internal/diagram"
	"github.com/yungbote/breakdown-backend/internal/diagram/kroki"
	"github.com/yungbote/breakdown-backend/internal/history"
	"github.com/yungbote/breakdown-backend/internal/kb"
	"github.com/yungbote/breakdown-backend/internal/platform/logger"
	"github.com/yungbote/breakdown-backend/internal/router"
)

// Prober is a renderer that must be health-checked in the background.
type Prober interface {
	Start(ctx context.Context) error
}

type Services struct {
	Router    *router.Router
	KB        *kb.Base
	Prompts   *breakdown.Prompts
	Explainer breakdown.Explainer
	History   history.Store
	Breakdown *breakdown.Service
	Library   diagram.Library
	Prober    Prober
}

// WireServices builds the breakdown pipeline from cfg. It is shared by the
// server and the CLI.
func WireServices(ctx context.Context, cfg *config.Config, log *logger.Logger) (Services, error) {
	log.Info("Wiring services...")

	r, err := router.New(cfg.Models, log)
	if err != nil {
		return Services{}, fmt.Errorf("init models: %w", err)
	}

	base := kb.Defaults()
	if cfg.KnowledgeBase.Dir != "" {
		if base, err = kb.Open(cfg.KnowledgeBase.Dir, log); err != nil {
			return Services{}, fmt.Errorf("open knowledge base: %w", err)
		}
	}

	prompts, err := breakdown.NewPrompts(base)
	if err != nil {
		return Services{}, fmt.Errorf("init prompts: %w", err)
	}
	explainer, err := breakdown.NewExplainer(cfg.Explainer, r, prompts, log)
	if err != nil {
		return Services{}, fmt.Errorf("init explainer: %w", err)
	}

	store, err := history.Open(ctx, cfg.History, log)
	if err != nil {
		return Services{}, fmt.Errorf("open history: %w", err)
	}

	s := Services{
		Router:    r,
		KB:        base,
		Prompts:   prompts,
		Explainer: explainer,
		History:   store,
		Breakdown: breakdown.NewService(explainer, history.Recorder{Store: store}, log),
	}

	switch cfg.Diagram.Renderer {
	case config.RendererKroki:
		lib := kroki.New(cfg.Diagram.Kroki, log)
		s.Library = lib
		s.Prober = lib
	default:
		s.Library = diagram.BrowserLibrary{}
	}

	log.Info("services ready",
		"explainer", explainer.Name(),
		"history", cfg.History.Backend,
		"renderer", cfg.Diagram.Renderer,
		"models", r.ListModels(),
	)
	return s, nil
}

// DiagramOptions returns the controller settings from cfg.
func DiagramOptions(cfg config.DiagramConfig, log *logger.Logger) diagram.Options {
	return diagram.Options{
		PollInterval: cfg.PollInterval.Duration,
		MaxAttempts:  cfg.MaxAttempts,
		Log:          log,
	}
}

func (s Services) Close() error {
	var errs []error
	if s.History != nil {
		if err := s.History.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close history: %w", err))
		}
	}
	return errors.Join(errs...)
}
