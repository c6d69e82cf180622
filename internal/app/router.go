package app

import (
	"github.com/gin-gonic/gin"

	server "github.com/yungbote/tradeguild-backend/internal/http"
	"github.com/yungbote/tradeguild-backend/internal/observability"
	"github.com/yungbote/tradeguild-backend/internal/platform/logger"
)

func wireRouter(log *logger.Logger, cfg Config, handlers Handlers, metrics *observability.Metrics) *gin.Engine {
	serviceName := ""
	if cfg.Otel.Enabled {
		serviceName = cfg.Otel.ServiceName
	}
	return server.NewRouter(server.RouterConfig{
		Log:               log,
		ServiceName:       serviceName,
		CORSOrigins:       cfg.CORSOrigins,
		Metrics:           metrics,
		PostHandler:       handlers.Post,
		UserHandler:       handlers.User,
		ModerationHandler: handlers.Moderation,
		CurriculumHandler: handlers.Curriculum,
		ToolsHandler:      handlers.Tools,
		HealthHandler:     handlers.Health,
	})
}
