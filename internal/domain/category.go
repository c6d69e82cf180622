package domain

import "time"

type CategorySettings struct {
	AllowImages        bool     `json:"allow_images" yaml:"allow_images"`
	AllowAttachments   bool     `json:"allow_attachments" yaml:"allow_attachments"`
	RequireApproval    bool     `json:"require_approval" yaml:"require_approval"`
	AutoModeration     bool     `json:"auto_moderation" yaml:"auto_moderation"`
	MaxPostLength      int      `json:"max_post_length" yaml:"max_post_length"`
	MaxAttachmentSize  int      `json:"max_attachment_size" yaml:"max_attachment_size"`
	AllowedFileTypes   []string `json:"allowed_file_types,omitempty" yaml:"allowed_file_types"`
	PostCooldown       int      `json:"post_cooldown" yaml:"post_cooldown"`
	ReputationRequired int      `json:"reputation_required" yaml:"reputation_required"`
	TagsRequired       bool     `json:"tags_required" yaml:"tags_required"`
	MaxTags            int      `json:"max_tags" yaml:"max_tags"`
}

// DefaultCategorySettings applies when a category leaves a field unset.
func DefaultCategorySettings() CategorySettings {
	return CategorySettings{
		AllowImages:      true,
		AllowAttachments: true,
		AutoModeration:   true,
		MaxPostLength:    10000,
		MaxTags:          MaxTags,
	}
}

type Category struct {
	ID            string           `gorm:"primaryKey" json:"id"`
	ParentID      *string          `gorm:"index" json:"parent_id,omitempty"`
	Name          string           `gorm:"not null" json:"name"`
	Description   string           `json:"description,omitempty"`
	PostCount     int              `gorm:"not null;default:0" json:"post_count"`
	ReplyCount    int              `gorm:"not null;default:0" json:"reply_count"`
	Settings      CategorySettings `gorm:"serializer:json" json:"settings"`
	Subcategories []Category       `gorm:"foreignKey:ParentID" json:"subcategories,omitempty"`
	CreatedAt     time.Time        `gorm:"not null" json:"created_at"`
}

func (Category) TableName() string { return "forum_category" }
