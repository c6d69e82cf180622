package community

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/tradeguild-backend/internal/data/repoerr"
	"github.com/yungbote/tradeguild-backend/internal/domain"
	"github.com/yungbote/tradeguild-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/tradeguild-backend/internal/pkg/errors"
	"github.com/yungbote/tradeguild-backend/internal/platform/logger"
)

type ReplyRepo interface {
	Create(dbc dbctx.Context, rep *domain.Reply) (*domain.Reply, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Reply, error)
	ListByPost(dbc dbctx.Context, postID uuid.UUID) ([]*domain.Reply, error)
	Like(dbc dbctx.Context, id uuid.UUID) error
	SoftDelete(dbc dbctx.Context, id uuid.UUID) error
	MarkBestAnswer(dbc dbctx.Context, postID, replyID uuid.UUID) error
}

type replyRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewReplyRepo(db *gorm.DB, baseLog *logger.Logger) ReplyRepo {
	repoLog := baseLog.With("repo", "ReplyRepo")
	return &replyRepo{db: db, log: repoLog}
}

func (r *replyRepo) Create(dbc dbctx.Context, rep *domain.Reply) (*domain.Reply, error) {
	if rep == nil {
		return nil, fmt.Errorf("create reply: %w", pkgerrors.ErrInvalidArgument)
	}
	if err := dbc.Conn(r.db).Omit(clause.Associations).Create(rep).Error; err != nil {
		return nil, repoerr.Map("create reply", err)
	}
	return rep, nil
}

func (r *replyRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Reply, error) {
	var rep domain.Reply
	if err := dbc.Conn(r.db).Preload("Author").Where("id = ?", id).First(&rep).Error; err != nil {
		return nil, repoerr.Map("get reply", err)
	}
	return &rep, nil
}

// ListByPost returns every reply on the post, oldest first, deleted ones
// included so threads keep their shape.
func (r *replyRepo) ListByPost(dbc dbctx.Context, postID uuid.UUID) ([]*domain.Reply, error) {
	var results []*domain.Reply
	err := dbc.Conn(r.db).
		Preload("Author").
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

func (r *replyRepo) Like(dbc dbctx.Context, id uuid.UUID) error {
	res := dbc.Conn(r.db).
		Model(&domain.Reply{}).
		Where("id = ? AND is_deleted = ?", id, false).
		UpdateColumn("likes", gorm.Expr("likes + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("like reply: %w", pkgerrors.ErrNotFound)
	}
	return nil
}

func (r *replyRepo) SoftDelete(dbc dbctx.Context, id uuid.UUID) error {
	res := dbc.Conn(r.db).
		Model(&domain.Reply{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_deleted": true, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("delete reply: %w", pkgerrors.ErrNotFound)
	}
	return nil
}

// MarkBestAnswer clears any previous best answer on the post, then marks replyID.
func (r *replyRepo) MarkBestAnswer(dbc dbctx.Context, postID, replyID uuid.UUID) error {
	return dbc.Conn(r.db).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&domain.Reply{}).
			Where("post_id = ? AND is_best_answer = ?", postID, true).
			UpdateColumn("is_best_answer", false).Error; err != nil {
			return err
		}
		res := tx.Model(&domain.Reply{}).
			Where("id = ? AND post_id = ? AND is_deleted = ?", replyID, postID, false).
			UpdateColumn("is_best_answer", true)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("mark best answer: %w", pkgerrors.ErrNotFound)
		}
		return nil
	})
}
