package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Tier string

const (
	TierBeginner     Tier = "beginner"
	TierIntermediate Tier = "intermediate"
	TierProfessional Tier = "professional"
)

type ModuleType string

const (
	ModuleLesson     ModuleType = "lesson"
	ModuleQuiz       ModuleType = "quiz"
	ModuleChallenge  ModuleType = "challenge"
	ModuleReflection ModuleType = "reflection"
)

type LearningModule struct {
	Key        string     `yaml:"key" json:"key"`
	Title      string     `yaml:"title" json:"title"`
	OrderIndex int        `yaml:"order_index" json:"order_index"`
	Type       ModuleType `yaml:"type" json:"type"`
	XPReward   int        `yaml:"xp_reward" json:"xp_reward"`
}

type LearningLevel struct {
	Level             int              `yaml:"level" json:"level"`
	Title             string           `yaml:"title" json:"title"`
	Tier              Tier             `yaml:"tier" json:"tier"`
	UnlockRequirement int              `yaml:"unlock_requirement" json:"unlock_requirement"`
	Modules           []LearningModule `yaml:"modules" json:"modules"`
}

// TotalXP is the sum of the level's module rewards.
func (l LearningLevel) TotalXP() int {
	total := 0
	for _, m := range l.Modules {
		total += m.XPReward
	}
	return total
}

// ModuleCompletion records one completed module for a user.
type ModuleCompletion struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_completion_user_module,priority:1" json:"user_id"`
	Pillar      string    `gorm:"not null;uniqueIndex:idx_completion_user_module,priority:2" json:"pillar"`
	ModuleKey   string    `gorm:"not null;uniqueIndex:idx_completion_user_module,priority:3" json:"module_key"`
	Level       int       `gorm:"not null" json:"level"`
	XP          int       `gorm:"not null" json:"xp"`
	CompletedAt time.Time `gorm:"not null" json:"completed_at"`
}

func (ModuleCompletion) TableName() string { return "module_completion" }

func (c *ModuleCompletion) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// PillarProgress holds the unlock high-water mark for a user in one pillar.
type PillarProgress struct {
	UserID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"user_id"`
	Pillar          string    `gorm:"primaryKey" json:"pillar"`
	HighestUnlocked int       `gorm:"not null;default:1" json:"highest_unlocked"`
	UpdatedAt       time.Time `gorm:"not null" json:"updated_at"`
}

func (PillarProgress) TableName() string { return "pillar_progress" }
