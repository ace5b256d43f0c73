package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/yungbote/breakdown-backend/internal/config"
	"github.com/yungbote/breakdown-backend/internal/engine"
	"github.com/yungbote/breakdown-backend/internal/engine/mock"
	"github.com/yungbote/breakdown-backend/internal/engine/oaihttp"
	"github.com/yungbote/breakdown-backend/internal/engine/sdk"
	"github.com/yungbote/breakdown-backend/internal/platform/logger"
)

type Route struct {
	PublicModel   string
	UpstreamModel string
	Engine        engine.Engine
}

// Router maps configured model ids to the engine serving them.
type Router struct {
	routes map[string]Route
}

func New(models []config.ModelConfig, log *logger.Logger) (*Router, error) {
	r := &Router{routes: map[string]Route{}}
	for _, m := range models {
		id := strings.TrimSpace(m.ID)
		if id == "" {
			return nil, fmt.Errorf("model id required")
		}
		if _, exists := r.routes[id]; exists {
			return nil, fmt.Errorf("duplicate model id: %s", id)
		}

		eng, err := newEngine(m.Engine, log)
		if err != nil {
			return nil, fmt.Errorf("model %q: %w", id, err)
		}

		upstream := strings.TrimSpace(m.UpstreamModel)
		if upstream == "" {
			upstream = id
		}
		r.routes[id] = Route{PublicModel: id, UpstreamModel: upstream, Engine: eng}
	}
	return r, nil
}

func newEngine(cfg config.EngineConfig, log *logger.Logger) (engine.Engine, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Type)) {
	case config.EngineMock:
		return mock.New(), nil
	case config.EngineOAIHTTP, "openai_http":
		return oaihttp.New(cfg, log)
	case config.EngineOpenAISDK, "sdk":
		return sdk.New(cfg, log)
	default:
		return nil, fmt.Errorf("unsupported engine type %q", cfg.Type)
	}
}

// Add registers a route directly. Tests use it to plug in stub engines.
func (r *Router) Add(route Route) {
	if route.UpstreamModel == "" {
		route.UpstreamModel = route.PublicModel
	}
	r.routes[route.PublicModel] = route
}

// ListModels returns the public model ids in sorted order.
func (r *Router) ListModels() []string {
	out := make([]string, 0, len(r.routes))
	for id := range r.routes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func (r *Router) RouteForModel(model string) (Route, bool) {
	route, ok := r.routes[strings.TrimSpace(model)]
	return route, ok
}
