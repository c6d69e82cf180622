package forum

import (
	"strings"
	"testing"
	"time"

	"github.com/yungbote/tradeguild-backend/internal/domain"
)

func TestSortPosts(t *testing.T) {
	now := time.Now()
	posts := []*domain.Post{
		{Title: "old", CreatedAt: now.Add(-2 * time.Hour), Likes: 5, Views: 10, Replies: 1, Content: "x"},
		{Title: "new", CreatedAt: now, Likes: 1, Views: 30, Replies: 1, Content: strings.Repeat("y", 600)},
		{Title: "mid", CreatedAt: now.Add(-time.Hour), Likes: 5, Views: 20, Replies: 7, Content: "x"},
	}
	cases := []struct {
		by   SortBy
		want []string
	}{
		{by: SortRecent, want: []string{"new", "mid", "old"}},
		// old and mid tie on likes; the newer one wins.
		{by: SortPopular, want: []string{"mid", "old", "new"}},
		{by: SortViews, want: []string{"new", "mid", "old"}},
		{by: SortReplies, want: []string{"mid", "old", "new"}},
		// old: 50+20, new: 50+10+6.67, mid: 50+20
		{by: SortQuality, want: []string{"old", "mid", "new"}},
		{by: "bogus", want: []string{"new", "mid", "old"}},
	}
	for _, tc := range cases {
		t.Run(string(tc.by), func(t *testing.T) {
			got := SortPosts(posts, tc.by)
			if !equalTitles(got, tc.want...) {
				t.Fatalf("SortPosts(%s)=%v, want %v", tc.by, titles(got), tc.want)
			}
		})
	}
	if posts[0].Title != "old" || posts[1].Title != "new" {
		t.Fatalf("SortPosts mutated input order: %v", titles(posts))
	}
}

func TestParseSortBy(t *testing.T) {
	if by, err := ParseSortBy(""); err != nil || by != SortRecent {
		t.Fatalf("ParseSortBy(\"\")=%q,%v", by, err)
	}
	if by, err := ParseSortBy("quality"); err != nil || by != SortQuality {
		t.Fatalf("ParseSortBy(quality)=%q,%v", by, err)
	}
	if _, err := ParseSortBy("hot"); err == nil {
		t.Fatalf("ParseSortBy(hot) expected error")
	}
}
