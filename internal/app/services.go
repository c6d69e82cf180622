package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/tradeguild-backend/internal/curriculum"
	"github.com/yungbote/tradeguild-backend/internal/data/cache"
	"github.com/yungbote/tradeguild-backend/internal/platform/logger"
	"github.com/yungbote/tradeguild-backend/internal/services"
)

type Services struct {
	Forum      services.ForumService
	User       services.UserService
	Moderation services.ModerationService
	Curriculum services.CurriculumService
}

func wireServices(db *gorm.DB, log *logger.Logger, repos Repos, ranking cache.Ranking, catalog *curriculum.Catalog) Services {
	log.Info("Wiring services...")
	return Services{
		Forum:      services.NewForumService(db, log, repos.User, repos.Post, repos.Reply, repos.Category, repos.Flag, ranking),
		User:       services.NewUserService(db, log, repos.User, repos.Post, repos.Reply),
		Moderation: services.NewModerationService(db, log, repos.User, repos.Post, repos.Reply, repos.Flag, ranking),
		Curriculum: services.NewCurriculumService(db, log, catalog, repos.User, repos.Progress),
	}
}
