package community

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/tradeguild-backend/internal/data/repoerr"
	"github.com/yungbote/tradeguild-backend/internal/domain"
	"github.com/yungbote/tradeguild-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/tradeguild-backend/internal/pkg/errors"
	"github.com/yungbote/tradeguild-backend/internal/platform/logger"
)

type FlagRepo interface {
	Create(dbc dbctx.Context, f *domain.ModerationFlag) (*domain.ModerationFlag, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.ModerationFlag, error)
	ListByStatus(dbc dbctx.Context, status domain.FlagStatus, limit int) ([]*domain.ModerationFlag, error)
	Review(dbc dbctx.Context, id uuid.UUID, status domain.FlagStatus, reviewer uuid.UUID) (*domain.ModerationFlag, error)
	CountByStatus(dbc dbctx.Context, status domain.FlagStatus) (int64, error)
	CountFlaggedPosts(dbc dbctx.Context) (int64, error)
}

type flagRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewFlagRepo(db *gorm.DB, baseLog *logger.Logger) FlagRepo {
	repoLog := baseLog.With("repo", "FlagRepo")
	return &flagRepo{db: db, log: repoLog}
}

func (r *flagRepo) Create(dbc dbctx.Context, f *domain.ModerationFlag) (*domain.ModerationFlag, error) {
	if f == nil {
		return nil, fmt.Errorf("create flag: %w", pkgerrors.ErrInvalidArgument)
	}
	if f.Status == "" {
		f.Status = domain.FlagPending
	}
	if err := dbc.Conn(r.db).Create(f).Error; err != nil {
		return nil, repoerr.Map("create flag", err)
	}
	return f, nil
}

func (r *flagRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.ModerationFlag, error) {
	var f domain.ModerationFlag
	if err := dbc.Conn(r.db).Where("id = ?", id).First(&f).Error; err != nil {
		return nil, repoerr.Map("get flag", err)
	}
	return &f, nil
}

func (r *flagRepo) ListByStatus(dbc dbctx.Context, status domain.FlagStatus, limit int) ([]*domain.ModerationFlag, error) {
	txx := dbc.Conn(r.db).Where("status = ?", status).Order("created_at ASC")
	if limit > 0 {
		txx = txx.Limit(limit)
	}
	var results []*domain.ModerationFlag
	if err := txx.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// Review closes a pending flag. Reviewing an already closed flag is a conflict.
func (r *flagRepo) Review(dbc dbctx.Context, id uuid.UUID, status domain.FlagStatus, reviewer uuid.UUID) (*domain.ModerationFlag, error) {
	if status != domain.FlagReviewed && status != domain.FlagDismissed {
		return nil, fmt.Errorf("review flag with status %q: %w", status, pkgerrors.ErrInvalidArgument)
	}
	now := time.Now().UTC()
	res := dbc.Conn(r.db).
		Model(&domain.ModerationFlag{}).
		Where("id = ? AND status = ?", id, domain.FlagPending).
		Updates(map[string]interface{}{
			"status":      status,
			"reviewed_by": reviewer,
			"reviewed_at": now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		if _, err := r.GetByID(dbc, id); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("flag %s already closed: %w", id, pkgerrors.ErrConflict)
	}
	return r.GetByID(dbc, id)
}

func (r *flagRepo) CountByStatus(dbc dbctx.Context, status domain.FlagStatus) (int64, error) {
	var n int64
	err := dbc.Conn(r.db).Model(&domain.ModerationFlag{}).Where("status = ?", status).Count(&n).Error
	return n, err
}

// CountFlaggedPosts counts distinct posts with at least one pending flag.
func (r *flagRepo) CountFlaggedPosts(dbc dbctx.Context) (int64, error) {
	var n int64
	err := dbc.Conn(r.db).
		Model(&domain.ModerationFlag{}).
		Where("status = ?", domain.FlagPending).
		Distinct("post_id").
		Count(&n).Error
	return n, err
}
