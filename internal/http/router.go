package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/breakdown-backend/internal/http/handlers"
	httpMW "github.com/yungbote/breakdown-backend/internal/http/middleware"
	"github.com/yungbote/breakdown-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log             *logger.Logger
	ServiceName     string
	CORSOrigins     []string
	MaxRequestBytes int64

	BreakdownHandler *httpH.BreakdownHandler
	PageHandler      *httpH.PageHandler
	HistoryHandler   *httpH.HistoryHandler
	ModelsHandler    *httpH.ModelsHandler
	HealthHandler    *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(httpMW.Recovery(cfg.Log))
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.Use(httpMW.BodyLimit(cfg.MaxRequestBytes))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.Healthz)
		r.GET("/readyz", cfg.HealthHandler.Readyz)
	}

	// Form page
	if cfg.PageHandler != nil {
		r.GET("/", cfg.PageHandler.Index)
		r.POST("/", cfg.PageHandler.Submit)
	}

	if cfg.BreakdownHandler != nil {
		r.POST("/generate", cfg.BreakdownHandler.Explain)
	}

	api := r.Group("/api")
	{
		if cfg.BreakdownHandler != nil {
			api.POST("/breakdown", cfg.BreakdownHandler.Explain)
		}
		if cfg.HistoryHandler != nil {
			api.GET("/history", cfg.HistoryHandler.List)
			api.GET("/history/:id", cfg.HistoryHandler.Get)
		}
		if cfg.ModelsHandler != nil {
			api.GET("/models", cfg.ModelsHandler.List)
		}
	}

	return r
}
