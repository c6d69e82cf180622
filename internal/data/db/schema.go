package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/tradeguild-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		// Community
		&domain.User{},
		&domain.Category{},
		&domain.Post{},
		&domain.Reply{},
		&domain.ModerationFlag{},

		// Curriculum progress
		&domain.ModuleCompletion{},
		&domain.PillarProgress{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// Listing hot path: live posts in a category, newest first.
	if err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_forum_post_category_live
		ON forum_post (category, is_deleted, created_at DESC);
	`).Error; err != nil {
		return fmt.Errorf("create idx_forum_post_category_live: %w", err)
	}
	return nil
}
