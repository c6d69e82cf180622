package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Reply struct {
	ID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	PostID       uuid.UUID  `gorm:"type:uuid;not null;index" json:"post_id"`
	ParentID     *uuid.UUID `gorm:"type:uuid;index" json:"parent_id,omitempty"`
	AuthorID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"author_id"`
	Author       User       `gorm:"foreignKey:AuthorID" json:"author"`
	Content      string     `gorm:"type:text;not null" json:"content"`
	Depth        int        `gorm:"not null;default:0" json:"depth"`
	Likes        int        `gorm:"not null;default:0" json:"likes"`
	IsBestAnswer bool       `gorm:"not null;default:false" json:"is_best_answer"`
	IsDeleted    bool       `gorm:"not null;default:false" json:"is_deleted"`
	Children     []*Reply   `gorm:"-" json:"children,omitempty"`
	CreatedAt    time.Time  `gorm:"not null;index" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
}

func (Reply) TableName() string { return "forum_reply" }

func (r *Reply) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// BuildReplyTree links flat rows into trees and returns the roots in input
// order. Rows whose parent is missing from the slice are treated as roots.
func BuildReplyTree(rows []*Reply) []*Reply {
	byID := make(map[uuid.UUID]*Reply, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		r.Children = nil
		byID[r.ID] = r
	}
	roots := make([]*Reply, 0, len(rows))
	for _, r := range rows {
		if r == nil {
			continue
		}
		if r.ParentID != nil {
			if parent, ok := byID[*r.ParentID]; ok && parent != r {
				parent.Children = append(parent.Children, r)
				continue
			}
		}
		roots = append(roots, r)
	}
	return roots
}
