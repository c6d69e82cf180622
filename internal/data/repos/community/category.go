package community

import (
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yungbote/tradeguild-backend/internal/data/repoerr"
	"github.com/yungbote/tradeguild-backend/internal/domain"
	"github.com/yungbote/tradeguild-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/tradeguild-backend/internal/pkg/errors"
	"github.com/yungbote/tradeguild-backend/internal/platform/logger"
)

type CategoryRepo interface {
	Upsert(dbc dbctx.Context, c *domain.Category) error
	GetByID(dbc dbctx.Context, id string) (*domain.Category, error)
	ListTree(dbc dbctx.Context) ([]*domain.Category, error)
	IncrementCounts(dbc dbctx.Context, id string, posts, replies int) error
}

type categoryRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewCategoryRepo(db *gorm.DB, baseLog *logger.Logger) CategoryRepo {
	repoLog := baseLog.With("repo", "CategoryRepo")
	return &categoryRepo{db: db, log: repoLog}
}

// Upsert inserts c or refreshes its descriptive fields. Counters survive.
func (r *categoryRepo) Upsert(dbc dbctx.Context, c *domain.Category) error {
	if c == nil || c.ID == "" {
		return fmt.Errorf("upsert category: %w", pkgerrors.ErrInvalidArgument)
	}
	err := dbc.Conn(r.db).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"parent_id", "name", "description", "settings"}),
		}).
		Create(c).Error
	return repoerr.Map("upsert category", err)
}

func (r *categoryRepo) GetByID(dbc dbctx.Context, id string) (*domain.Category, error) {
	var c domain.Category
	if err := dbc.Conn(r.db).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, repoerr.Map("get category", err)
	}
	return &c, nil
}

// ListTree returns root categories with Subcategories filled one level down.
func (r *categoryRepo) ListTree(dbc dbctx.Context) ([]*domain.Category, error) {
	var all []*domain.Category
	if err := dbc.Conn(r.db).Order("id ASC").Find(&all).Error; err != nil {
		return nil, err
	}
	children := map[string][]domain.Category{}
	for _, c := range all {
		if c.ParentID != nil {
			children[*c.ParentID] = append(children[*c.ParentID], *c)
		}
	}
	roots := make([]*domain.Category, 0, len(all))
	for _, c := range all {
		if c.ParentID == nil {
			c.Subcategories = children[c.ID]
			roots = append(roots, c)
		}
	}
	return roots, nil
}

func (r *categoryRepo) IncrementCounts(dbc dbctx.Context, id string, posts, replies int) error {
	if id == "" || (posts == 0 && replies == 0) {
		return nil
	}
	return dbc.Conn(r.db).
		Model(&domain.Category{}).
		Where("id = ?", id).
		UpdateColumns(map[string]interface{}{
			"post_count":  gorm.Expr("post_count + ?", posts),
			"reply_count": gorm.Expr("reply_count + ?", replies),
		}).Error
}
