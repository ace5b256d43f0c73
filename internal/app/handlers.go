package app

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/breakdown-backend/internal/config"
	"github.com/yungbote/breakdown-backend/internal/http"
	httpH "github.com/yungbote/breakdown-backend/internal/http/handlers"
	"github.com/yungbote/breakdown-backend/internal/platform/logger"
)

type Handlers struct {
	Health    *httpH.HealthHandler
	Breakdown *httpH.BreakdownHandler
	Page      *httpH.PageHandler
	History   *httpH.HistoryHandler
	Models    *httpH.ModelsHandler
}

func wireHandlers(log *logger.Logger, cfg *config.Config, services Services) Handlers {
	log.Info("Wiring handlers...")
	if cfg.Env == "prod" || cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	return Handlers{
		Health:    httpH.NewHealthHandler(services.Library),
		Breakdown: httpH.NewBreakdownHandler(log, services.Breakdown),
		Page: httpH.NewPageHandler(log, services.Breakdown, services.History, services.Library,
			DiagramOptions(cfg.Diagram, log), cfg.Diagram.WaitTimeout.Duration),
		History: httpH.NewHistoryHandler(log, services.History),
		Models:  httpH.NewModelsHandler(services.Router),
	}
}

func wireRouter(cfg *config.Config, handlers Handlers) http.RouterConfig {
	rc := http.RouterConfig{
		CORSOrigins:      cfg.HTTP.CORSOrigins,
		MaxRequestBytes:  cfg.HTTP.MaxRequestBytes,
		BreakdownHandler: handlers.Breakdown,
		PageHandler:      handlers.Page,
		HistoryHandler:   handlers.History,
		ModelsHandler:    handlers.Models,
		HealthHandler:    handlers.Health,
	}
	if cfg.Otel.Enabled {
		rc.ServiceName = cfg.Otel.ServiceName
	}
	return rc
}
