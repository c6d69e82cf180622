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

func TestReplyRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewReplyRepo(db, testutil.Logger(t))

	author := testutil.SeedUser(t, ctx, tx, "reply-author")
	p := testutil.SeedPost(t, ctx, tx, author, "general", domain.PostQuestion)

	root, err := repo.Create(dbc, &domain.Reply{PostID: p.ID, AuthorID: author.ID, Content: "first"})
	if err != nil {
		t.Fatalf("Create root: %v", err)
	}
	child, err := repo.Create(dbc, &domain.Reply{PostID: p.ID, AuthorID: author.ID, ParentID: &root.ID, Depth: 1, Content: "nested"})
	if err != nil {
		t.Fatalf("Create child: %v", err)
	}

	rows, err := repo.ListByPost(dbc, p.ID)
	if err != nil || len(rows) != 2 {
		t.Fatalf("ListByPost: err=%v len=%d", err, len(rows))
	}
	tree := domain.BuildReplyTree(rows)
	if len(tree) != 1 || len(tree[0].Children) != 1 || tree[0].Children[0].ID != child.ID {
		t.Fatalf("tree shape wrong: %+v", tree)
	}

	if err := repo.MarkBestAnswer(dbc, p.ID, root.ID); err != nil {
		t.Fatalf("MarkBestAnswer(root): %v", err)
	}
	if err := repo.MarkBestAnswer(dbc, p.ID, child.ID); err != nil {
		t.Fatalf("MarkBestAnswer(child): %v", err)
	}
	r1, _ := repo.GetByID(dbc, root.ID)
	r2, _ := repo.GetByID(dbc, child.ID)
	if r1.IsBestAnswer || !r2.IsBestAnswer {
		t.Fatalf("best answer root=%v child=%v, want false/true", r1.IsBestAnswer, r2.IsBestAnswer)
	}

	if err := repo.Like(dbc, child.ID); err != nil {
		t.Fatalf("Like: %v", err)
	}
	if err := repo.SoftDelete(dbc, child.ID); err != nil {
		t.Fatalf("SoftDelete: %v", err)
	}
	if err := repo.Like(dbc, child.ID); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("Like(deleted) err=%v, want ErrNotFound", err)
	}
}

func TestCategoryRepo(t *testing.T) {
	db := testutil.DB(t)
	tx := testutil.Tx(t, db)

	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx, Tx: tx}
	repo := NewCategoryRepo(db, testutil.Logger(t))

	parent := "trading"
	if err := repo.Upsert(dbc, &domain.Category{ID: parent, Name: "Trading", Settings: domain.DefaultCategorySettings()}); err != nil {
		t.Fatalf("Upsert parent: %v", err)
	}
	if err := repo.Upsert(dbc, &domain.Category{ID: "crypto", ParentID: &parent, Name: "Crypto"}); err != nil {
		t.Fatalf("Upsert child: %v", err)
	}
	if err := repo.IncrementCounts(dbc, parent, 2, 5); err != nil {
		t.Fatalf("IncrementCounts: %v", err)
	}
	if err := repo.Upsert(dbc, &domain.Category{ID: parent, Name: "Markets", Settings: domain.DefaultCategorySettings()}); err != nil {
		t.Fatalf("Upsert rename: %v", err)
	}

	got, err := repo.GetByID(dbc, parent)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Name != "Markets" || got.PostCount != 2 || got.ReplyCount != 5 {
		t.Fatalf("category=%+v, want renamed with counters kept", got)
	}
	if got.Settings.MaxPostLength != 10000 {
		t.Fatalf("Settings.MaxPostLength=%d, want 10000", got.Settings.MaxPostLength)
	}

	tree, err := repo.ListTree(dbc)
	if err != nil {
		t.Fatalf("ListTree: %v", err)
	}
	if len(tree) != 1 || len(tree[0].Subcategories) != 1 || tree[0].Subcategories[0].ID != "crypto" {
		t.Fatalf("tree=%+v", tree)
	}
}
