package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/graphloader/internal/http/handlers"
	httpMW "github.com/yungbote/graphloader/internal/http/middleware"
	"github.com/yungbote/graphloader/internal/observability"
	"github.com/yungbote/graphloader/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	Metrics     *observability.Metrics
	ServiceName string

	HealthHandler *httpH.HealthHandler
	GraphHandler  *httpH.GraphHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}
	// 503 when metrics are disabled
	r.GET("/metrics", gin.WrapH(cfg.Metrics.Handler()))

	api := r.Group("/api")
	{
		if cfg.GraphHandler != nil {
			api.POST("/sources/:tag/triples", cfg.GraphHandler.IngestTriples)
			api.GET("/stats", cfg.GraphHandler.Stats)
			api.GET("/entities/:name", cfg.GraphHandler.GetEntity)
			api.GET("/edges", cfg.GraphHandler.ListEdges)
			api.DELETE("/graph", cfg.GraphHandler.ClearGraph)
		}
	}

	return r
}
