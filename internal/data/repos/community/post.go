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

// PostQuery holds the filters that can be answered in SQL. Tag, author name,
// reputation and verification filters run in memory on the result.
type PostQuery struct {
	Category       string
	Subcategory    string
	PostType       domain.PostType
	AuthorID       *uuid.UUID
	CreatedFrom    *time.Time
	CreatedTo      *time.Time
	HasAttachments *bool
	IncludeDeleted bool
	Limit          int
	Offset         int
}

type PostRepo interface {
	Create(dbc dbctx.Context, p *domain.Post) (*domain.Post, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Post, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Post, error)
	List(dbc dbctx.Context, q PostQuery) ([]*domain.Post, error)
	Increment(dbc dbctx.Context, id uuid.UUID, counter string, delta int) error
	UpdateScores(dbc dbctx.Context, id uuid.UUID, quality int, engagement float64) error
	UpdateContent(dbc dbctx.Context, p *domain.Post, expectedVersion int) error
	SetFlag(dbc dbctx.Context, id uuid.UUID, flag string, value bool) error
	CountBelowQuality(dbc dbctx.Context, threshold int) (int64, error)
}

type postRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewPostRepo(db *gorm.DB, baseLog *logger.Logger) PostRepo {
	repoLog := baseLog.With("repo", "PostRepo")
	return &postRepo{db: db, log: repoLog}
}

var postCounterColumns = map[string]struct{}{
	"views": {}, "likes": {}, "dislikes": {}, "replies": {}, "shares": {}, "bookmarks": {},
}

var postFlagColumns = map[string]struct{}{
	"is_pinned": {}, "is_locked": {}, "is_featured": {}, "is_deleted": {},
}

// withRelations loads the author and every flag that has not been dismissed.
func withRelations(txx *gorm.DB) *gorm.DB {
	return txx.
		Preload("Author").
		Preload("ModerationFlags", "status <> ?", domain.FlagDismissed)
}

func (r *postRepo) Create(dbc dbctx.Context, p *domain.Post) (*domain.Post, error) {
	if p == nil {
		return nil, fmt.Errorf("create post: %w", pkgerrors.ErrInvalidArgument)
	}
	if p.Version == 0 {
		p.Version = 1
	}
	if err := dbc.Conn(r.db).Omit(clause.Associations).Create(p).Error; err != nil {
		return nil, repoerr.Map("create post", err)
	}
	return p, nil
}

func (r *postRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Post, error) {
	var p domain.Post
	if err := withRelations(dbc.Conn(r.db)).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, repoerr.Map("get post", err)
	}
	return &p, nil
}

func (r *postRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.Post, error) {
	var results []*domain.Post
	if len(ids) == 0 {
		return results, nil
	}
	if err := withRelations(dbc.Conn(r.db)).Where("id IN ?", ids).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *postRepo) List(dbc dbctx.Context, q PostQuery) ([]*domain.Post, error) {
	txx := withRelations(dbc.Conn(r.db)).Model(&domain.Post{})
	if !q.IncludeDeleted {
		txx = txx.Where("is_deleted = ?", false)
	}
	if q.Category != "" {
		txx = txx.Where("category = ?", q.Category)
	}
	if q.Subcategory != "" {
		txx = txx.Where("subcategory = ?", q.Subcategory)
	}
	if q.PostType != "" {
		txx = txx.Where("post_type = ?", q.PostType)
	}
	if q.AuthorID != nil {
		txx = txx.Where("author_id = ?", *q.AuthorID)
	}
	if q.CreatedFrom != nil {
		txx = txx.Where("created_at >= ?", *q.CreatedFrom)
	}
	if q.CreatedTo != nil {
		txx = txx.Where("created_at <= ?", *q.CreatedTo)
	}
	if q.HasAttachments != nil {
		if *q.HasAttachments {
			txx = txx.Where("has_images = ? OR has_charts = ?", true, true)
		} else {
			txx = txx.Where("has_images = ? AND has_charts = ?", false, false)
		}
	}
	txx = txx.Order("created_at DESC")
	if q.Limit > 0 {
		txx = txx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		txx = txx.Offset(q.Offset)
	}

	var results []*domain.Post
	if err := txx.Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *postRepo) Increment(dbc dbctx.Context, id uuid.UUID, counter string, delta int) error {
	if _, ok := postCounterColumns[counter]; !ok {
		return fmt.Errorf("unknown post counter %q: %w", counter, pkgerrors.ErrInvalidArgument)
	}
	res := dbc.Conn(r.db).
		Model(&domain.Post{}).
		Where("id = ?", id).
		UpdateColumn(counter, gorm.Expr(counter+" + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("increment %s: %w", counter, pkgerrors.ErrNotFound)
	}
	return nil
}

func (r *postRepo) UpdateScores(dbc dbctx.Context, id uuid.UUID, quality int, engagement float64) error {
	return dbc.Conn(r.db).
		Model(&domain.Post{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"quality_score":    quality,
			"engagement_score": engagement,
		}).Error
}

// UpdateContent writes the editable fields of p only when the stored version
// still equals expectedVersion. A lost race returns ErrConflict.
func (r *postRepo) UpdateContent(dbc dbctx.Context, p *domain.Post, expectedVersion int) error {
	raw, err := domain.EncodePayload(p.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	p.PayloadJSON = raw
	p.Version = expectedVersion + 1
	p.UpdatedAt = time.Now().UTC()

	res := dbc.Conn(r.db).
		Model(p).
		Omit(clause.Associations).
		Where("version = ?", expectedVersion).
		Select(
			"title", "content", "subcategory", "tags", "payload",
			"has_images", "has_charts", "quality_score", "engagement_score",
			"version", "updated_at",
		).
		Updates(p)
	if res.Error != nil {
		p.Version = expectedVersion
		return repoerr.Map("update post", res.Error)
	}
	if res.RowsAffected == 0 {
		p.Version = expectedVersion
		return fmt.Errorf("update post %s at version %d: %w", p.ID, expectedVersion, pkgerrors.ErrConflict)
	}
	return nil
}

func (r *postRepo) SetFlag(dbc dbctx.Context, id uuid.UUID, flag string, value bool) error {
	if _, ok := postFlagColumns[flag]; !ok {
		return fmt.Errorf("unknown post flag %q: %w", flag, pkgerrors.ErrInvalidArgument)
	}
	res := dbc.Conn(r.db).
		Model(&domain.Post{}).
		Where("id = ?", id).
		UpdateColumn(flag, value)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("set %s: %w", flag, pkgerrors.ErrNotFound)
	}
	return nil
}

func (r *postRepo) CountBelowQuality(dbc dbctx.Context, threshold int) (int64, error) {
	var n int64
	err := dbc.Conn(r.db).
		Model(&domain.Post{}).
		Where("is_deleted = ? AND quality_score < ?", false, threshold).
		Count(&n).Error
	return n, err
}
