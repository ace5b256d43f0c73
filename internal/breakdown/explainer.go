package breakdown

import (
	"context"
	"fmt"
	"strings"

	"github.com/yungbote/breakdown-backend/internal/config"
	"github.com/yungbote/breakdown-backend/internal/engine"
	"github.com/yungbote/breakdown-backend/internal/observability"
	"github.com/yungbote/breakdown-backend/internal/platform/logger"
	"github.com/yungbote/breakdown-backend/internal/router"
)

// Explainer turns one concept into a ConceptResult.
type Explainer interface {
	Name() string
	Explain(ctx context.Context, concept string) (ConceptResult, error)
}

// NewExplainer builds the explainer selected by cfg.Mode.
func NewExplainer(cfg config.ExplainerConfig, r *router.Router, prompts *Prompts, log *logger.Logger) (Explainer, error) {
	if log == nil {
		log = logger.Nop()
	}
	route, ok := r.RouteForModel(cfg.Model)
	if !ok {
		return nil, fmt.Errorf("explainer model %q is not configured", cfg.Model)
	}
	opts := engine.GenerateOptions{
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		JSONMode:    true,
	}

	switch strings.ToLower(strings.TrimSpace(cfg.Mode)) {
	case "", config.ModeSingleShot:
		return &SingleShot{Route: route, Prompts: prompts, Options: opts, Log: log.With("explainer", config.ModeSingleShot)}, nil
	case config.ModeTwoStage:
		diagramModel := cfg.DiagramModel
		if strings.TrimSpace(diagramModel) == "" {
			diagramModel = cfg.Model
		}
		diagramRoute, ok := r.RouteForModel(diagramModel)
		if !ok {
			return nil, fmt.Errorf("diagram model %q is not configured", diagramModel)
		}
		return &TwoStage{
			Outline: route,
			Diagram: diagramRoute,
			Prompts: prompts,
			Options: opts,
			Log:     log.With("explainer", config.ModeTwoStage),
		}, nil
	default:
		return nil, fmt.Errorf("unknown explainer mode %q", cfg.Mode)
	}
}

// SingleShot asks one model for the complete breakdown in one JSON call.
type SingleShot struct {
	Route   router.Route
	Prompts *Prompts
	Options engine.GenerateOptions
	Log     *logger.Logger
}

func (s *SingleShot) Name() string { return config.ModeSingleShot }

func (s *SingleShot) Explain(ctx context.Context, concept string) (ConceptResult, error) {
	return generate(ctx, s.Log, s.Route, s.Prompts.Breakdown(concept), s.Options, concept)
}

// TwoStage first asks for the textual breakdown, then asks a diagram model
// for Mermaid sources and merges them in. A failed diagram stage keeps the
// first-stage result.
type TwoStage struct {
	Outline router.Route
	Diagram router.Route
	Prompts *Prompts
	Options engine.GenerateOptions
	Log     *logger.Logger
}

func (t *TwoStage) Name() string { return config.ModeTwoStage }

func (t *TwoStage) Explain(ctx context.Context, concept string) (ConceptResult, error) {
	res, err := generate(ctx, t.Log, t.Outline, t.Prompts.Outline(concept), t.Options, concept)
	if err != nil {
		return ConceptResult{}, err
	}

	diagrams, err := t.diagrams(ctx, concept, res)
	if err != nil {
		t.Log.Warn("diagram stage failed; keeping outline diagrams",
			"concept", concept,
			"model", t.Diagram.PublicModel,
			"error", err,
		)
		return res, nil
	}
	res.Mermaid = mergeSources(res.Mermaid, diagrams)
	return res, nil
}

func (t *TwoStage) diagrams(ctx context.Context, concept string, outline ConceptResult) (sources []string, err error) {
	ctx, span := observability.StartSpan(ctx, "breakdown.diagrams", "model", t.Diagram.PublicModel)
	defer func() { observability.EndSpan(span, err) }()

	text, err := t.Diagram.Engine.GenerateText(ctx, t.Diagram.UpstreamModel,
		engine.UserMessage(t.Prompts.Diagrams(concept, outline.Summary)), t.Options)
	if err != nil {
		return nil, &UpstreamError{Model: t.Diagram.PublicModel, Err: err}
	}
	return ParseDiagrams(text)
}

func generate(ctx context.Context, log *logger.Logger, route router.Route, prompt string, opts engine.GenerateOptions, concept string) (res ConceptResult, err error) {
	ctx, span := observability.StartSpan(ctx, "breakdown.generate", "model", route.PublicModel)
	defer func() { observability.EndSpan(span, err) }()

	text, err := route.Engine.GenerateText(ctx, route.UpstreamModel, engine.UserMessage(prompt), opts)
	if err != nil {
		return ConceptResult{}, &UpstreamError{Model: route.PublicModel, Err: err}
	}
	res, err = ParseResult(text, concept)
	if err != nil {
		log.Debug("unparseable model response", "model", route.PublicModel, "raw", truncate(text, 2000))
		return ConceptResult{}, err
	}
	return res, nil
}

// mergeSources appends extra to base, skipping duplicates.
func mergeSources(base, extra []string) []string {
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]bool, len(base)+len(extra))
	for _, s := range append(append([]string{}, base...), extra...) {
		key := strings.TrimSpace(s)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
