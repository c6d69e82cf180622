package community

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/tradeguild-backend/internal/data/repoerr"
	"github.com/yungbote/tradeguild-backend/internal/domain"
	"github.com/yungbote/tradeguild-backend/internal/forum"
	"github.com/yungbote/tradeguild-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/tradeguild-backend/internal/pkg/errors"
	"github.com/yungbote/tradeguild-backend/internal/platform/logger"
)

type UserRepo interface {
	Create(dbc dbctx.Context, users []*domain.User) ([]*domain.User, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.User, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.User, error)
	GetByUsername(dbc dbctx.Context, username string) (*domain.User, error)
	Save(dbc dbctx.Context, u *domain.User) error
	IncrementStat(dbc dbctx.Context, id uuid.UUID, stat string, delta int) error
	SetBanned(dbc dbctx.Context, id uuid.UUID, banned bool) error
	CountBanned(dbc dbctx.Context) (int64, error)
}

type userRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewUserRepo(db *gorm.DB, baseLog *logger.Logger) UserRepo {
	repoLog := baseLog.With("repo", "UserRepo")
	return &userRepo{db: db, log: repoLog}
}

// userStatColumns whitelists the counters IncrementStat may touch.
var userStatColumns = map[string]string{
	"posts":         "stat_posts",
	"replies":       "stat_replies",
	"likes":         "stat_likes",
	"views":         "stat_views",
	"followers":     "stat_followers",
	"following":     "stat_following",
	"helpful_votes": "stat_helpful_votes",
	"best_answers":  "stat_best_answers",
}

func (r *userRepo) Create(dbc dbctx.Context, users []*domain.User) ([]*domain.User, error) {
	if len(users) == 0 {
		return []*domain.User{}, nil
	}
	for _, u := range users {
		u.StoredReputation = forum.CalculateReputation(*u)
	}
	if err := dbc.Conn(r.db).Create(&users).Error; err != nil {
		return nil, repoerr.Map("create users", err)
	}
	return users, nil
}

func (r *userRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.User, error) {
	var u domain.User
	if err := dbc.Conn(r.db).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, repoerr.Map("get user", err)
	}
	return &u, nil
}

func (r *userRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*domain.User, error) {
	var results []*domain.User
	if len(ids) == 0 {
		return results, nil
	}
	if err := dbc.Conn(r.db).Where("id IN ?", ids).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

func (r *userRepo) GetByUsername(dbc dbctx.Context, username string) (*domain.User, error) {
	var u domain.User
	if err := dbc.Conn(r.db).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, repoerr.Map("get user by username", err)
	}
	return &u, nil
}

// Save writes profile fields, roles, trading stats and the derived
// reputation. Counters are left to IncrementStat.
func (r *userRepo) Save(dbc dbctx.Context, u *domain.User) error {
	if u == nil || u.ID == uuid.Nil {
		return fmt.Errorf("save user: %w", pkgerrors.ErrInvalidArgument)
	}
	u.StoredReputation = forum.CalculateReputation(*u)
	u.UpdatedAt = time.Now().UTC()
	res := dbc.Conn(r.db).
		Model(u).
		Select("display_name", "bio", "roles", "trading_stats", "reputation", "updated_at").
		Updates(u)
	if res.Error != nil {
		return repoerr.Map("save user", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("save user: %w", pkgerrors.ErrNotFound)
	}
	return nil
}

// IncrementStat bumps one counter and refreshes the stored reputation in
// the same transaction.
func (r *userRepo) IncrementStat(dbc dbctx.Context, id uuid.UUID, stat string, delta int) error {
	col, ok := userStatColumns[stat]
	if !ok {
		return fmt.Errorf("unknown user stat %q: %w", stat, pkgerrors.ErrInvalidArgument)
	}
	return dbc.Conn(r.db).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&domain.User{}).
			Where("id = ?", id).
			UpdateColumn(col, gorm.Expr(col+" + ?", delta))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("increment %s: %w", stat, pkgerrors.ErrNotFound)
		}
		var u domain.User
		if err := tx.Where("id = ?", id).First(&u).Error; err != nil {
			return repoerr.Map("reload user", err)
		}
		return tx.Model(&domain.User{}).
			Where("id = ?", id).
			UpdateColumn("reputation", forum.CalculateReputation(u)).Error
	})
}

func (r *userRepo) SetBanned(dbc dbctx.Context, id uuid.UUID, banned bool) error {
	res := dbc.Conn(r.db).
		Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"is_banned": banned, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("set banned: %w", pkgerrors.ErrNotFound)
	}
	return nil
}

func (r *userRepo) CountBanned(dbc dbctx.Context) (int64, error) {
	var n int64
	err := dbc.Conn(r.db).Model(&domain.User{}).Where("is_banned = ?", true).Count(&n).Error
	return n, err
}
