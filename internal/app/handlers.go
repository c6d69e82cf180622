package app

import (
	httpH "github.com/yungbote/tradeguild-backend/internal/http/handlers"
	"github.com/yungbote/tradeguild-backend/internal/platform/logger"
)

type Handlers struct {
	Health     *httpH.HealthHandler
	Post       *httpH.PostHandler
	User       *httpH.UserHandler
	Moderation *httpH.ModerationHandler
	Curriculum *httpH.CurriculumHandler
	Tools      *httpH.ToolsHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(),
		Post:       httpH.NewPostHandler(services.Forum),
		User:       httpH.NewUserHandler(services.User),
		Moderation: httpH.NewModerationHandler(services.Moderation),
		Curriculum: httpH.NewCurriculumHandler(services.Curriculum),
		Tools:      httpH.NewToolsHandler(),
	}
}
