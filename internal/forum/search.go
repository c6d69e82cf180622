package forum

import (
	"sort"
	"strings"

	"github.com/yungbote/tradeguild-backend/internal/domain"
)

const (
	titleHitScore   = 10
	contentHitScore = 2
	tagHitScore     = 5
	authorHitScore  = 3
)

// SearchPosts ranks posts against a free-text query, most relevant first.
// A blank query returns posts unchanged. Posts matching no term are dropped
// and equal scores keep their input order.
func SearchPosts(posts []*domain.Post, query string) []*domain.Post {
	terms := strings.Fields(strings.ToLower(query))
	if len(terms) == 0 {
		return posts
	}

	type scored struct {
		post  *domain.Post
		score int
	}
	hits := make([]scored, 0, len(posts))
	for _, p := range posts {
		if p == nil {
			continue
		}
		if s := relevance(p, terms); s > 0 {
			hits = append(hits, scored{post: p, score: s})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	out := make([]*domain.Post, len(hits))
	for i, h := range hits {
		out[i] = h.post
	}
	return out
}

func relevance(p *domain.Post, terms []string) int {
	title := strings.ToLower(p.Title)
	content := strings.ToLower(p.Content)
	tags := strings.ToLower(strings.Join(p.Tags, " "))
	author := strings.ToLower(p.Author.Name())

	score := 0
	for _, term := range terms {
		if strings.Contains(title, term) {
			score += titleHitScore
		}
		score += contentHitScore * strings.Count(content, term)
		if strings.Contains(tags, term) {
			score += tagHitScore
		}
		if strings.Contains(author, term) {
			score += authorHitScore
		}
	}
	return score
}
