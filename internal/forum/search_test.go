package forum

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/yungbote/tradeguild-backend/internal/domain"
)

func titles(posts []*domain.Post) []string {
	out := make([]string, len(posts))
	for i, p := range posts {
		out[i] = p.Title
	}
	return out
}

func equalTitles(got []*domain.Post, want ...string) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range want {
		if got[i].Title != want[i] {
			return false
		}
	}
	return true
}

func searchFixture() []*domain.Post {
	return []*domain.Post{
		{Title: "Morning gap strategy", Content: "Gaps fill often. gap gap", Tags: []string{"futures"}, Author: domain.User{Username: "ana"}},
		{Title: "Position sizing", Content: "Risk one percent per trade.", Tags: []string{"risk"}, Author: domain.User{Username: "bo", DisplayName: "Gap Hunter"}},
		{Title: "Journal template", Content: "Nothing relevant here.", Tags: []string{"psychology"}, Author: domain.User{Username: "cy"}},
		{Title: "Weekly recap", Content: "Discussed a gap and a squeeze.", Tags: []string{"gap-fill"}, Author: domain.User{Username: "di"}},
	}
}

func TestSearchPostsScoring(t *testing.T) {
	got := SearchPosts(searchFixture(), "GAP")
	// title 10 + content 3*2 = 16; tag 5 + content 2 = 7; author 3.
	if !equalTitles(got, "Morning gap strategy", "Weekly recap", "Position sizing") {
		t.Fatalf("SearchPosts order=%v", titles(got))
	}
}

func TestSearchPostsBlankQuery(t *testing.T) {
	posts := searchFixture()
	for _, q := range []string{"", "   ", "\t\n"} {
		got := SearchPosts(posts, q)
		if len(got) != len(posts) {
			t.Fatalf("SearchPosts(%q) len=%d, want %d", q, len(got), len(posts))
		}
		for i := range posts {
			if got[i] != posts[i] {
				t.Fatalf("SearchPosts(%q) reordered input at %d", q, i)
			}
		}
	}
}

func TestSearchPostsExcludesNonMatching(t *testing.T) {
	got := SearchPosts(searchFixture(), "dividend yield")
	if len(got) != 0 {
		t.Fatalf("expected no results, got %v", titles(got))
	}
}

func TestSearchPostsStableTies(t *testing.T) {
	posts := []*domain.Post{
		{ID: uuid.New(), Title: "alpha one"},
		{ID: uuid.New(), Title: "beta"},
		{ID: uuid.New(), Title: "alpha two"},
		{ID: uuid.New(), Title: "alpha three"},
	}
	got := SearchPosts(posts, "alpha")
	if !equalTitles(got, "alpha one", "alpha two", "alpha three") {
		t.Fatalf("tie order not preserved: %v", titles(got))
	}
}

func TestSearchPostsMultipleTerms(t *testing.T) {
	posts := []*domain.Post{
		{Title: "risk only", CreatedAt: time.Now()},
		{Title: "risk and journal"},
	}
	got := SearchPosts(posts, "risk journal")
	if !equalTitles(got, "risk and journal", "risk only") {
		t.Fatalf("multi-term order=%v", titles(got))
	}
}
