package forum

import (
	"fmt"
	"sort"

	"github.com/yungbote/tradeguild-backend/internal/domain"
)

type SortBy string

const (
	SortRecent  SortBy = "recent"
	SortPopular SortBy = "popular"
	SortViews   SortBy = "views"
	SortReplies SortBy = "replies"
	SortQuality SortBy = "quality"
)

func ParseSortBy(s string) (SortBy, error) {
	switch v := SortBy(s); v {
	case "":
		return SortRecent, nil
	case SortRecent, SortPopular, SortViews, SortReplies, SortQuality:
		return v, nil
	default:
		return "", fmt.Errorf("unknown sort %q", s)
	}
}

// SortPosts returns a sorted copy of posts; the input slice is not reordered.
// Popular breaks like ties by recency; other ties keep input order. Unknown
// keys fall back to recent.
func SortPosts(posts []*domain.Post, by SortBy) []*domain.Post {
	out := make([]*domain.Post, 0, len(posts))
	for _, p := range posts {
		if p != nil {
			out = append(out, p)
		}
	}

	var less func(a, b *domain.Post) bool
	switch by {
	case SortPopular:
		less = func(a, b *domain.Post) bool {
			if a.Likes != b.Likes {
				return a.Likes > b.Likes
			}
			return a.CreatedAt.After(b.CreatedAt)
		}
	case SortViews:
		less = func(a, b *domain.Post) bool { return a.Views > b.Views }
	case SortReplies:
		less = func(a, b *domain.Post) bool { return a.Replies > b.Replies }
	case SortQuality:
		scores := make(map[*domain.Post]int, len(out))
		for _, p := range out {
			scores[p] = CalculateQualityScore(p)
		}
		less = func(a, b *domain.Post) bool { return scores[a] > scores[b] }
	default:
		less = func(a, b *domain.Post) bool { return a.CreatedAt.After(b.CreatedAt) }
	}
	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}
