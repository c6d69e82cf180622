package app

import (
	"gorm.io/gorm"

	"github.com/yungbote/tradeguild-backend/internal/data/repos/community"
	"github.com/yungbote/tradeguild-backend/internal/data/repos/learning"
	"github.com/yungbote/tradeguild-backend/internal/platform/logger"
)

type Repos struct {
	User     community.UserRepo
	Post     community.PostRepo
	Reply    community.ReplyRepo
	Category community.CategoryRepo
	Flag     community.FlagRepo
	Progress learning.ProgressRepo
}

func wireRepos(db *gorm.DB, log *logger.Logger) Repos {
	log.Info("Wiring repos...")
	return Repos{
		User:     community.NewUserRepo(db, log),
		Post:     community.NewPostRepo(db, log),
		Reply:    community.NewReplyRepo(db, log),
		Category: community.NewCategoryRepo(db, log),
		Flag:     community.NewFlagRepo(db, log),
		Progress: learning.NewProgressRepo(db, log),
	}
}
