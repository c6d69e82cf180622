package community

import (
	"context"
	"errors"
	"testing"

	"github.com/yungbote/tradeguild-backend/internal/data/repos/testutil"
	"github.com/yungbote/tradeguild-backend/internal/domain"
	"github.com/yungbote/tradeguild-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/tradeguild-backend/internal/pkg/errors"
)

func TestPostRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewPostRepo(db, testutil.Logger(t))

	author := testutil.SeedUser(t, ctx, tx, "postrepo-author")
	p := &domain.Post{
		Title:    "BTC breakout setup",
		Content:  "Watching the weekly close above resistance for continuation.",
		AuthorID: author.ID,
		Category: "trading",
		PostType: domain.PostTradeIdea,
		Tags:     []string{"btc", "breakout"},
		Payload: &domain.TradingData{
			Symbol: "BTC", Direction: domain.Long, EntryPrice: 100, TargetPrice: 120, StopLoss: 90,
		},
	}
	if _, err := repo.Create(dbc, p); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Version != 1 {
		t.Fatalf("Version=%d, want 1", p.Version)
	}

	got, err := repo.GetByID(dbc, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Author.Username != "postrepo-author" {
		t.Fatalf("Author.Username=%q, want postrepo-author", got.Author.Username)
	}
	td := got.TradingData()
	if td == nil || td.Symbol != "BTC" || td.StopLoss != 90 {
		t.Fatalf("TradingData=%+v, want BTC with stop 90", td)
	}
	if len(got.Tags) != 2 {
		t.Fatalf("Tags=%v, want 2 tags", got.Tags)
	}

	if err := repo.Increment(dbc, p.ID, "likes", 3); err != nil {
		t.Fatalf("Increment: %v", err)
	}
	if err := repo.Increment(dbc, p.ID, "author_id", 1); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("Increment(author_id) err=%v, want ErrInvalidArgument", err)
	}

	got.Title = "BTC breakout setup (updated)"
	if err := repo.UpdateContent(dbc, got, 1); err != nil {
		t.Fatalf("UpdateContent: %v", err)
	}
	stale := *got
	stale.Title = "stale edit"
	if err := repo.UpdateContent(dbc, &stale, 1); !errors.Is(err, pkgerrors.ErrConflict) {
		t.Fatalf("stale UpdateContent err=%v, want ErrConflict", err)
	}

	reloaded, err := repo.GetByID(dbc, p.ID)
	if err != nil {
		t.Fatalf("GetByID after update: %v", err)
	}
	if reloaded.Version != 2 || reloaded.Title != "BTC breakout setup (updated)" {
		t.Fatalf("reloaded version=%d title=%q", reloaded.Version, reloaded.Title)
	}
	if reloaded.Likes != 3 {
		t.Fatalf("Likes=%d, want 3", reloaded.Likes)
	}

	if err := repo.SetFlag(dbc, p.ID, "is_locked", true); err != nil {
		t.Fatalf("SetFlag: %v", err)
	}
	if err := repo.UpdateScores(dbc, p.ID, 12, 4.5); err != nil {
		t.Fatalf("UpdateScores: %v", err)
	}
	if n, err := repo.CountBelowQuality(dbc, 30); err != nil || n != 1 {
		t.Fatalf("CountBelowQuality: n=%d err=%v", n, err)
	}

	other := testutil.SeedPost(t, ctx, tx, author, "business", domain.PostBusiness)
	rows, err := repo.List(dbc, PostQuery{Category: "trading"})
	if err != nil || len(rows) != 1 || rows[0].ID != p.ID {
		t.Fatalf("List(trading): err=%v len=%d", err, len(rows))
	}
	if err := repo.SetFlag(dbc, other.ID, "is_deleted", true); err != nil {
		t.Fatalf("SetFlag(is_deleted): %v", err)
	}
	if rows, err := repo.List(dbc, PostQuery{}); err != nil || len(rows) != 1 {
		t.Fatalf("List live: err=%v len=%d", err, len(rows))
	}
	if rows, err := repo.List(dbc, PostQuery{IncludeDeleted: true}); err != nil || len(rows) != 2 {
		t.Fatalf("List all: err=%v len=%d", err, len(rows))
	}
}

func TestPostRepo_DismissedFlagsNotLoaded(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	posts := NewPostRepo(db, testutil.Logger(t))
	flags := NewFlagRepo(db, testutil.Logger(t))

	author := testutil.SeedUser(t, ctx, tx, "flagged-author")
	mod := testutil.SeedUser(t, ctx, tx, "flag-mod")
	p := testutil.SeedPost(t, ctx, tx, author, "general", domain.PostDiscussion)

	keep, err := flags.Create(dbc, &domain.ModerationFlag{PostID: p.ID, Reason: "spam"})
	if err != nil {
		t.Fatalf("Create flag: %v", err)
	}
	drop, err := flags.Create(dbc, &domain.ModerationFlag{PostID: p.ID, Reason: "off-topic"})
	if err != nil {
		t.Fatalf("Create flag: %v", err)
	}
	if _, err := flags.Review(dbc, drop.ID, domain.FlagDismissed, mod.ID); err != nil {
		t.Fatalf("Review: %v", err)
	}
	if _, err := flags.Review(dbc, drop.ID, domain.FlagReviewed, mod.ID); !errors.Is(err, pkgerrors.ErrConflict) {
		t.Fatalf("second Review err=%v, want ErrConflict", err)
	}

	got, err := posts.GetByID(dbc, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.ModerationFlags) != 1 || got.ModerationFlags[0].ID != keep.ID {
		t.Fatalf("ModerationFlags=%v, want only the pending flag", got.ModerationFlags)
	}
	if n, err := flags.CountFlaggedPosts(dbc); err != nil || n != 1 {
		t.Fatalf("CountFlaggedPosts: n=%d err=%v", n, err)
	}
	if n, err := flags.CountByStatus(dbc, domain.FlagDismissed); err != nil || n != 1 {
		t.Fatalf("CountByStatus(dismissed): n=%d err=%v", n, err)
	}
}
