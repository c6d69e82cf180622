package learning

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/tradeguild-backend/internal/data/repoerr"
	"github.com/yungbote/tradeguild-backend/internal/domain"
	"github.com/yungbote/tradeguild-backend/internal/pkg/dbctx"
	"github.com/yungbote/tradeguild-backend/internal/platform/logger"
)

type ProgressRepo interface {
	ListCompletions(dbc dbctx.Context, userID uuid.UUID, pillar string) ([]*domain.ModuleCompletion, error)
	CreateCompletion(dbc dbctx.Context, c *domain.ModuleCompletion) (*domain.ModuleCompletion, error)
	GetPillarProgress(dbc dbctx.Context, userID uuid.UUID, pillar string) (*domain.PillarProgress, error)
	ListPillarProgress(dbc dbctx.Context, userID uuid.UUID) ([]*domain.PillarProgress, error)
	RaiseHighestUnlocked(dbc dbctx.Context, userID uuid.UUID, pillar string, level int) error
}

type progressRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProgressRepo(db *gorm.DB, baseLog *logger.Logger) ProgressRepo {
	repoLog := baseLog.With("repo", "ProgressRepo")
	return &progressRepo{db: db, log: repoLog}
}

func (r *progressRepo) ListCompletions(dbc dbctx.Context, userID uuid.UUID, pillar string) ([]*domain.ModuleCompletion, error) {
	var results []*domain.ModuleCompletion
	err := dbc.Conn(r.db).
		Where("user_id = ? AND pillar = ?", userID, pillar).
		Order("completed_at ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// CreateCompletion fails with ErrConflict when the module was already recorded.
func (r *progressRepo) CreateCompletion(dbc dbctx.Context, c *domain.ModuleCompletion) (*domain.ModuleCompletion, error) {
	if c.CompletedAt.IsZero() {
		c.CompletedAt = time.Now().UTC()
	}
	if err := dbc.Conn(r.db).Create(c).Error; err != nil {
		return nil, repoerr.Map("record completion", err)
	}
	return c, nil
}

// GetPillarProgress returns the stored row, or a fresh level-1 row when the
// user has not started the pillar.
func (r *progressRepo) GetPillarProgress(dbc dbctx.Context, userID uuid.UUID, pillar string) (*domain.PillarProgress, error) {
	var rows []*domain.PillarProgress
	err := dbc.Conn(r.db).
		Where("user_id = ? AND pillar = ?", userID, pillar).
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return &domain.PillarProgress{UserID: userID, Pillar: pillar, HighestUnlocked: 1}, nil
	}
	return rows[0], nil
}

func (r *progressRepo) ListPillarProgress(dbc dbctx.Context, userID uuid.UUID) ([]*domain.PillarProgress, error) {
	var results []*domain.PillarProgress
	if err := dbc.Conn(r.db).Where("user_id = ?", userID).Order("pillar ASC").Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// RaiseHighestUnlocked moves the high-water mark up to level. It never
// lowers an existing mark.
func (r *progressRepo) RaiseHighestUnlocked(dbc dbctx.Context, userID uuid.UUID, pillar string, level int) error {
	if level < 1 {
		return nil
	}
	now := time.Now().UTC()
	return dbc.Conn(r.db).Transaction(func(tx *gorm.DB) error {
		row := &domain.PillarProgress{UserID: userID, Pillar: pillar, HighestUnlocked: level, UpdatedAt: now}
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(row).Error; err != nil {
			return fmt.Errorf("insert pillar progress: %w", err)
		}
		return tx.Model(&domain.PillarProgress{}).
			Where("user_id = ? AND pillar = ? AND highest_unlocked < ?", userID, pillar, level).
			Updates(map[string]interface{}{"highest_unlocked": level, "updated_at": now}).Error
	})
}
