package testutil

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/tradeguild-backend/internal/domain"
)

func SeedUser(tb testing.TB, ctx context.Context, tx *gorm.DB, username string, roles ...domain.Role) *domain.User {
	tb.Helper()
	u := &domain.User{
		ID:          uuid.New(),
		Username:    username,
		DisplayName: username,
		Roles:       roles,
	}
	if err := tx.WithContext(ctx).Create(u).Error; err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	return u
}

func SeedCategory(tb testing.TB, ctx context.Context, tx *gorm.DB, id string, parent *string) *domain.Category {
	tb.Helper()
	c := &domain.Category{
		ID:       id,
		ParentID: parent,
		Name:     id,
		Settings: domain.DefaultCategorySettings(),
	}
	if err := tx.WithContext(ctx).Omit("Subcategories").Create(c).Error; err != nil {
		tb.Fatalf("seed category: %v", err)
	}
	return c
}

func SeedPost(tb testing.TB, ctx context.Context, tx *gorm.DB, author *domain.User, category string, postType domain.PostType) *domain.Post {
	tb.Helper()
	p := &domain.Post{
		ID:       uuid.New(),
		Title:    "Seeded post title",
		Content:  "Seeded post content that is long enough to validate.",
		AuthorID: author.ID,
		Category: category,
		PostType: postType,
		Tags:     []string{"seed"},
		Payload:  domain.PayloadFor(postType),
		Version:  1,
	}
	if err := tx.WithContext(ctx).Omit("Author", "ModerationFlags").Create(p).Error; err != nil {
		tb.Fatalf("seed post: %v", err)
	}
	return p
}
