package forum

import (
	"strings"
	"time"

	"github.com/yungbote/tradeguild-backend/internal/domain"
)

type DateRange struct {
	Start *time.Time `json:"start,omitempty"`
	End   *time.Time `json:"end,omitempty"`
}

// Filters narrows a post list. Zero-valued fields impose no constraint; set
// fields are ANDed together. Tags matches when a post carries any of them.
type Filters struct {
	Category       string          `json:"category,omitempty" form:"category"`
	Subcategory    string          `json:"subcategory,omitempty" form:"subcategory"`
	Tags           []string        `json:"tags,omitempty" form:"tags"`
	Author         string          `json:"author,omitempty" form:"author"`
	PostType       domain.PostType `json:"post_type,omitempty" form:"post_type"`
	DateRange      *DateRange      `json:"date_range,omitempty" form:"-"`
	MinReputation  *int            `json:"min_reputation,omitempty" form:"min_reputation"`
	HasAttachments *bool           `json:"has_attachments,omitempty" form:"has_attachments"`
	VerifiedOnly   bool            `json:"verified_only,omitempty" form:"verified_only"`
}

// FilterPosts returns the posts satisfying every active filter, in input order.
func FilterPosts(posts []*domain.Post, f Filters) []*domain.Post {
	out := make([]*domain.Post, 0, len(posts))
	for _, p := range posts {
		if p != nil && f.Match(p) {
			out = append(out, p)
		}
	}
	return out
}

// Match reports whether p satisfies all active filters.
func (f Filters) Match(p *domain.Post) bool {
	if f.Category != "" && p.Category != f.Category {
		return false
	}
	if f.Subcategory != "" && p.Subcategory != f.Subcategory {
		return false
	}
	if len(f.Tags) > 0 && !hasAnyTag(p.Tags, f.Tags) {
		return false
	}
	if f.Author != "" && !matchesAuthor(p, f.Author) {
		return false
	}
	if f.PostType != "" && p.PostType != f.PostType {
		return false
	}
	if f.DateRange != nil {
		if f.DateRange.Start != nil && p.CreatedAt.Before(*f.DateRange.Start) {
			return false
		}
		if f.DateRange.End != nil && p.CreatedAt.After(*f.DateRange.End) {
			return false
		}
	}
	if f.MinReputation != nil && CalculateReputation(p.Author) < *f.MinReputation {
		return false
	}
	if f.HasAttachments != nil && p.HasAttachments() != *f.HasAttachments {
		return false
	}
	if f.VerifiedOnly && !p.Author.IsVerifiedTrader() {
		return false
	}
	return true
}

func hasAnyTag(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}

// matchesAuthor accepts either the author's id or username.
func matchesAuthor(p *domain.Post, author string) bool {
	if p.AuthorID.String() == author {
		return true
	}
	return strings.EqualFold(p.Author.Username, author)
}
