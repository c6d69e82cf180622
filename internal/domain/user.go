package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type RoleName string

const (
	RoleMember    RoleName = "member"
	RoleModerator RoleName = "moderator"
	RoleAdmin     RoleName = "admin"
	RoleExpert    RoleName = "expert"
	RoleMentor    RoleName = "mentor"
)

type RoleScope string

const (
	ScopeGlobal   RoleScope = "global"
	ScopeCategory RoleScope = "category"
	ScopeSquad    RoleScope = "squad"
)

// Role grants Name within Scope. ScopeID names the category or squad for
// non-global scopes.
type Role struct {
	Name    RoleName  `json:"name"`
	Scope   RoleScope `json:"scope"`
	ScopeID string    `json:"scope_id,omitempty"`
}

type UserStats struct {
	Posts        int `json:"posts"`
	Replies      int `json:"replies"`
	Likes        int `json:"likes"`
	Views        int `json:"views"`
	Followers    int `json:"followers"`
	Following    int `json:"following"`
	HelpfulVotes int `json:"helpful_votes"`
	BestAnswers  int `json:"best_answers"`
}

type TradingStats struct {
	WinRate      float64 `json:"win_rate"`
	TotalTrades  int     `json:"total_trades"`
	AvgReturn    float64 `json:"avg_return"`
	MaxDrawdown  float64 `json:"max_drawdown"`
	SharpeRatio  float64 `json:"sharpe_ratio"`
	ProfitFactor float64 `json:"profit_factor"`
	Verified     bool    `json:"verified"`
}

type User struct {
	ID           uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Username     string        `gorm:"uniqueIndex;not null" json:"username"`
	DisplayName  string        `json:"display_name"`
	Bio          string        `json:"bio,omitempty"`
	Stats        UserStats     `gorm:"embedded;embeddedPrefix:stat_" json:"stats"`
	TradingStats *TradingStats `gorm:"serializer:json" json:"trading_stats,omitempty"`
	Roles        []Role        `gorm:"serializer:json" json:"roles"`
	// StoredReputation mirrors the reputation formula so SQL can filter on it.
	// Repositories overwrite it on every save; it is never an input.
	StoredReputation int       `gorm:"column:reputation;index" json:"-"`
	IsBanned         bool      `gorm:"not null;default:false" json:"is_banned"`
	CreatedAt        time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time `gorm:"not null" json:"updated_at"`
}

func (User) TableName() string { return "forum_user" }

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// HasRole reports whether u holds name in any scope.
func (u *User) HasRole(name RoleName) bool {
	for _, r := range u.Roles {
		if r.Name == name {
			return true
		}
	}
	return false
}

// Name is the label used for display and search matching.
func (u *User) Name() string {
	if u.DisplayName != "" {
		return u.DisplayName
	}
	return u.Username
}

func (u *User) IsVerifiedTrader() bool {
	return u.TradingStats != nil && u.TradingStats.Verified
}
