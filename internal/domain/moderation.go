package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type FlagStatus string

const (
	FlagPending   FlagStatus = "pending"
	FlagReviewed  FlagStatus = "reviewed"
	FlagDismissed FlagStatus = "dismissed"
)

// ModerationFlag is a report against a post, or against one of its replies
// when ReplyID is set.
type ModerationFlag struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PostID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"post_id"`
	ReplyID    *uuid.UUID `gorm:"type:uuid;index" json:"reply_id,omitempty"`
	ReporterID *uuid.UUID `gorm:"type:uuid" json:"reporter_id,omitempty"`
	Reason     string     `gorm:"not null" json:"reason"`
	Status     FlagStatus `gorm:"not null;default:pending;index" json:"status"`
	ReviewedBy *uuid.UUID `gorm:"type:uuid" json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
	CreatedAt  time.Time  `gorm:"not null" json:"created_at"`
}

func (ModerationFlag) TableName() string { return "moderation_flag" }

func (f *ModerationFlag) BeforeCreate(tx *gorm.DB) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	return nil
}
