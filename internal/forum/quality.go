package forum

import (
	"math"

	"github.com/yungbote/tradeguild-backend/internal/domain"
)

const (
	qualityBase        = 50.0
	qualityMin         = 0.0
	qualityMax         = 100.0
	maxEngagementBonus = 20.0
	flagPenalty        = 10.0
)

// CalculateQualityScore returns a 0..100 heuristic of a post's value. The
// score depends only on the post's current fields.
func CalculateQualityScore(p *domain.Post) int {
	mustPost(p)
	score := qualityBase

	length := len(p.Content)
	if length > 500 {
		score += 10
	}
	if length > 1000 {
		score += 10
	}

	interactions := float64(p.Likes + p.Replies)
	score += math.Min(interactions/float64(max(p.Views, 1))*100, maxEngagementBonus)

	// Both thresholds stack above 5000.
	rep := CalculateReputation(p.Author)
	if rep > 1000 {
		score += 5
	}
	if rep > 5000 {
		score += 10
	}

	if p.PostType == domain.PostTradeIdea {
		if td := p.TradingData(); td != nil {
			if td.EntryPrice != 0 && td.StopLoss != 0 {
				score += 10
			}
			if td.Confidence > 80 {
				score += 5
			}
		}
	}

	if p.HasImages || p.HasCharts {
		score += 5
	}

	score -= flagPenalty * float64(len(p.ModerationFlags))

	return int(math.Round(math.Max(qualityMin, math.Min(qualityMax, score))))
}

// EngagementRate is (likes+replies+shares) per view, as a percentage.
func EngagementRate(p *domain.Post) float64 {
	mustPost(p)
	interactions := float64(p.Likes + p.Replies + p.Shares)
	return interactions / float64(max(p.Views, 1)) * 100
}

// Rescore refreshes the derived score fields of p in place.
func Rescore(p *domain.Post) {
	p.QualityScore = CalculateQualityScore(p)
	p.EngagementScore = EngagementRate(p)
}

func mustPost(p *domain.Post) {
	if p == nil {
		panic("forum: nil post")
	}
}
