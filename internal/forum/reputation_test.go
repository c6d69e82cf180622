package forum

import (
	"testing"

	"github.com/yungbote/tradeguild-backend/internal/domain"
)

func TestCalculateReputation(t *testing.T) {
	cases := []struct {
		name  string
		stats domain.UserStats
		want  int
	}{
		{name: "zero", want: 0},
		{
			name:  "weighted_sum",
			stats: domain.UserStats{Posts: 10, Replies: 5, Likes: 20, HelpfulVotes: 2, BestAnswers: 1},
			want:  51,
		},
		{name: "odd_likes_floor", stats: domain.UserStats{Likes: 3}, want: 1},
		{name: "negative_passthrough", stats: domain.UserStats{Likes: -3}, want: -2},
		{name: "ignores_views_and_followers", stats: domain.UserStats{Views: 900, Followers: 40, Following: 7}, want: 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := CalculateReputation(domain.User{Stats: tc.stats})
			if got != tc.want {
				t.Fatalf("CalculateReputation(%+v)=%d, want %d", tc.stats, got, tc.want)
			}
		})
	}
}

func TestCalculateReputationMonotonic(t *testing.T) {
	base := domain.UserStats{Posts: 3, Replies: 4, Likes: 5, HelpfulVotes: 1, BestAnswers: 2}
	bumps := map[string]func(*domain.UserStats){
		"posts":         func(s *domain.UserStats) { s.Posts++ },
		"replies":       func(s *domain.UserStats) { s.Replies++ },
		"likes":         func(s *domain.UserStats) { s.Likes++ },
		"helpful_votes": func(s *domain.UserStats) { s.HelpfulVotes++ },
		"best_answers":  func(s *domain.UserStats) { s.BestAnswers++ },
	}
	for name, bump := range bumps {
		t.Run(name, func(t *testing.T) {
			stats := base
			prev := CalculateReputation(domain.User{Stats: stats})
			for i := 0; i < 25; i++ {
				bump(&stats)
				next := CalculateReputation(domain.User{Stats: stats})
				if next < prev {
					t.Fatalf("reputation decreased after bumping %s: %d -> %d", name, prev, next)
				}
				prev = next
			}
		})
	}
}

func TestRank(t *testing.T) {
	cases := []struct {
		rep  int
		want RankTier
	}{
		{rep: 0, want: RankC},
		{rep: 999, want: RankC},
		{rep: 1000, want: RankB},
		{rep: 5000, want: RankA},
		{rep: 12000, want: RankS},
	}
	for _, tc := range cases {
		if got := Rank(tc.rep); got != tc.want {
			t.Fatalf("Rank(%d)=%s, want %s", tc.rep, got, tc.want)
		}
	}
}
