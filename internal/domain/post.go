package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type PostType string

const (
	PostDiscussion   PostType = "discussion"
	PostTradeIdea    PostType = "trade-idea"
	PostAnalysis     PostType = "analysis"
	PostQuestion     PostType = "question"
	PostResource     PostType = "resource"
	PostBusiness     PostType = "business"
	PostEvent        PostType = "event"
	PostAnnouncement PostType = "announcement"
	PostPoll         PostType = "poll"
	PostTutorial     PostType = "tutorial"
)

var postTypes = map[PostType]struct{}{
	PostDiscussion: {}, PostTradeIdea: {}, PostAnalysis: {}, PostQuestion: {}, PostResource: {},
	PostBusiness: {}, PostEvent: {}, PostAnnouncement: {}, PostPoll: {}, PostTutorial: {},
}

func (t PostType) Valid() bool {
	_, ok := postTypes[t]
	return ok
}

const MaxTags = 10

type Post struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Title       string    `gorm:"not null" json:"title"`
	Content     string    `gorm:"type:text;not null" json:"content"`
	AuthorID    uuid.UUID `gorm:"type:uuid;not null;index" json:"author_id"`
	Author      User      `gorm:"foreignKey:AuthorID;constraint:OnDelete:CASCADE" json:"author"`
	Category    string    `gorm:"index" json:"category"`
	Subcategory string    `json:"subcategory,omitempty"`
	PostType    PostType  `gorm:"column:post_type;index" json:"post_type"`
	Tags        []string  `gorm:"serializer:json" json:"tags"`

	Views     int `gorm:"not null;default:0" json:"views"`
	Likes     int `gorm:"not null;default:0" json:"likes"`
	Dislikes  int `gorm:"not null;default:0" json:"dislikes"`
	Replies   int `gorm:"not null;default:0" json:"replies"`
	Shares    int `gorm:"not null;default:0" json:"shares"`
	Bookmarks int `gorm:"not null;default:0" json:"bookmarks"`

	IsPinned   bool `gorm:"not null;default:false" json:"is_pinned"`
	IsLocked   bool `gorm:"not null;default:false" json:"is_locked"`
	IsFeatured bool `gorm:"not null;default:false" json:"is_featured"`
	IsDeleted  bool `gorm:"not null;default:false;index" json:"is_deleted"`
	HasImages  bool `gorm:"not null;default:false" json:"has_images"`
	HasCharts  bool `gorm:"not null;default:false" json:"has_charts"`

	// Payload is discriminated by PostType; see PayloadFor.
	Payload     PostPayload    `gorm:"-" json:"payload,omitempty"`
	PayloadJSON datatypes.JSON `gorm:"column:payload" json:"-"`

	ModerationFlags []ModerationFlag `gorm:"foreignKey:PostID" json:"moderation_flags,omitempty"`

	QualityScore    int     `gorm:"not null;default:0;index" json:"quality_score"`
	EngagementScore float64 `gorm:"not null;default:0" json:"engagement_score"`

	Version   int       `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `gorm:"not null;index" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (Post) TableName() string { return "forum_post" }

func (p *Post) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

func (p *Post) BeforeSave(tx *gorm.DB) error {
	raw, err := EncodePayload(p.Payload)
	if err != nil {
		return err
	}
	p.PayloadJSON = raw
	return nil
}

func (p *Post) AfterFind(tx *gorm.DB) error {
	payload, err := DecodePayload(p.PostType, p.PayloadJSON)
	if err != nil {
		return err
	}
	p.Payload = payload
	return nil
}

// TradingData returns the trading payload, or nil when the post carries none.
func (p *Post) TradingData() *TradingData {
	td, _ := p.Payload.(*TradingData)
	return td
}

func (p *Post) HasAttachments() bool {
	return p.HasImages || p.HasCharts
}
