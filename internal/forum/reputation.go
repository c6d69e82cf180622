// Package forum holds the pure scoring, ranking and permission rules for
// community content. Nothing here touches storage; callers pass the data in.
package forum

import (
	"math"

	"github.com/yungbote/tradeguild-backend/internal/domain"
)

// Reputation weights per contribution.
const (
	postWeight        = 2.0
	replyWeight       = 1.0
	likeWeight        = 0.5
	helpfulVoteWeight = 3.0
	bestAnswerWeight  = 10.0
)

// CalculateReputation derives a user's reputation from their stats.
// Negative counts are not rejected.
func CalculateReputation(u domain.User) int {
	s := u.Stats
	raw := float64(s.Posts)*postWeight +
		float64(s.Replies)*replyWeight +
		float64(s.Likes)*likeWeight +
		float64(s.HelpfulVotes)*helpfulVoteWeight +
		float64(s.BestAnswers)*bestAnswerWeight
	return int(math.Floor(raw))
}

type RankTier string

const (
	RankS RankTier = "S"
	RankA RankTier = "A"
	RankB RankTier = "B"
	RankC RankTier = "C"
)

// Rank buckets a reputation value into a community tier.
func Rank(reputation int) RankTier {
	switch {
	case reputation >= 10000:
		return RankS
	case reputation >= 5000:
		return RankA
	case reputation >= 1000:
		return RankB
	default:
		return RankC
	}
}
