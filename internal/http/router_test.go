package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/tradeguild-backend/internal/curriculum"
	"github.com/yungbote/tradeguild-backend/internal/data/cache"
	"github.com/yungbote/tradeguild-backend/internal/data/repos/community"
	"github.com/yungbote/tradeguild-backend/internal/data/repos/learning"
	"github.com/yungbote/tradeguild-backend/internal/data/repos/testutil"
	"github.com/yungbote/tradeguild-backend/internal/domain"
	httpH "github.com/yungbote/tradeguild-backend/internal/http/handlers"
	"github.com/yungbote/tradeguild-backend/internal/services"
)

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	member *domain.User
	admin  *domain.User
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	db := testutil.DB(t)
	log := testutil.Logger(t)

	users := community.NewUserRepo(db, log)
	posts := community.NewPostRepo(db, log)
	replies := community.NewReplyRepo(db, log)
	categories := community.NewCategoryRepo(db, log)
	flags := community.NewFlagRepo(db, log)
	progress := learning.NewProgressRepo(db, log)
	ranking := cache.NewNoopRanking()
	catalog, err := curriculum.LoadCatalog("", log)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}

	ctx := context.Background()
	testutil.SeedCategory(t, ctx, db, "trading", nil)
	member := testutil.SeedUser(t, ctx, db, "member")
	admin := testutil.SeedUser(t, ctx, db, "admin", domain.Role{Name: domain.RoleAdmin, Scope: domain.ScopeGlobal})

	engine := NewRouter(RouterConfig{
		Log:               log,
		PostHandler:       httpH.NewPostHandler(services.NewForumService(db, log, users, posts, replies, categories, flags, ranking)),
		UserHandler:       httpH.NewUserHandler(services.NewUserService(db, log, users, posts, replies)),
		ModerationHandler: httpH.NewModerationHandler(services.NewModerationService(db, log, users, posts, replies, flags, ranking)),
		CurriculumHandler: httpH.NewCurriculumHandler(services.NewCurriculumService(db, log, catalog, users, progress)),
		ToolsHandler:      httpH.NewToolsHandler(),
		HealthHandler:     httpH.NewHealthHandler(),
	})
	return &testServer{t: t, engine: engine, member: member, admin: admin}
}

// do sends body as JSON with actor (if non-nil) and decodes the response
// into out (if non-nil).
func (s *testServer) do(method, path string, actor *domain.User, body any, out any) int {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			s.t.Fatalf("encode: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if actor != nil {
		req.Header.Set("X-User-Id", actor.ID.String())
	}
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)
	if out != nil && rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			s.t.Fatalf("%s %s: decode %q: %v", method, path, rec.Body.String(), err)
		}
	}
	return rec.Code
}

type errorBody struct {
	Error struct {
		Code    string   `json:"code"`
		Details []string `json:"details"`
	} `json:"error"`
}

func TestHealthCheck(t *testing.T) {
	s := newTestServer(t)
	if code := s.do(http.MethodGet, "/healthcheck", nil, nil, nil); code != http.StatusOK {
		t.Fatalf("status=%d, want %d", code, http.StatusOK)
	}
}

func TestPostRoutes(t *testing.T) {
	s := newTestServer(t)

	draft := map[string]any{
		"title":     "BTC breakout setup",
		"content":   "Watching the weekly range high, waiting for a retest before entry.",
		"category":  "trading",
		"post_type": "trade-idea",
		"tags":      []string{"btc"},
		"payload":   map[string]any{"symbol": "btc", "direction": "long", "entry_price": 100, "stop_loss": 90, "target_price": 130},
	}

	if code := s.do(http.MethodPost, "/api/posts", nil, draft, nil); code != http.StatusForbidden {
		t.Fatalf("anonymous create status=%d, want %d", code, http.StatusForbidden)
	}

	var created struct {
		Post domain.Post `json:"post"`
	}
	if code := s.do(http.MethodPost, "/api/posts", s.member, draft, &created); code != http.StatusCreated {
		t.Fatalf("create status=%d, want %d", code, http.StatusCreated)
	}
	id := created.Post.ID.String()
	if created.Post.Version != 1 {
		t.Fatalf("version=%d, want 1", created.Post.Version)
	}

	var thread struct {
		Post domain.Post `json:"post"`
	}
	if code := s.do(http.MethodGet, "/api/posts/"+id, nil, nil, &thread); code != http.StatusOK {
		t.Fatalf("get status=%d", code)
	}
	if thread.Post.Views != 1 {
		t.Fatalf("views=%d, want 1", thread.Post.Views)
	}

	if code := s.do(http.MethodPost, "/api/posts/"+id+"/like", s.admin, nil, nil); code != http.StatusOK {
		t.Fatalf("like status=%d", code)
	}
	if code := s.do(http.MethodPost, "/api/posts/"+id+"/replies", s.admin, map[string]any{"content": "Nice level."}, nil); code != http.StatusCreated {
		t.Fatalf("reply status=%d", code)
	}

	var page struct {
		Posts []domain.Post `json:"posts"`
		Total int           `json:"total"`
	}
	if code := s.do(http.MethodGet, "/api/posts?category=trading&sort=popular&tags=btc,eth", nil, nil, &page); code != http.StatusOK {
		t.Fatalf("list status=%d", code)
	}
	if page.Total != 1 || len(page.Posts) != 1 || page.Posts[0].Likes != 1 {
		t.Fatalf("page=%+v, want the liked post", page)
	}

	var bad errorBody
	if code := s.do(http.MethodGet, "/api/posts?sort=hottest", nil, nil, &bad); code != http.StatusBadRequest {
		t.Fatalf("bad sort status=%d, want %d", code, http.StatusBadRequest)
	}

	edit := map[string]any{"title": "BTC breakout, updated", "version": 1}
	if code := s.do(http.MethodPatch, "/api/posts/"+id, s.member, edit, nil); code != http.StatusOK {
		t.Fatalf("edit status=%d", code)
	}
	if code := s.do(http.MethodPatch, "/api/posts/"+id, s.member, edit, nil); code != http.StatusConflict {
		t.Fatalf("stale edit status=%d, want %d", code, http.StatusConflict)
	}

	if code := s.do(http.MethodDelete, "/api/posts/"+id, s.member, nil, nil); code != http.StatusNoContent {
		t.Fatalf("delete status=%d", code)
	}
	if code := s.do(http.MethodGet, "/api/posts/"+id, nil, nil, nil); code != http.StatusNotFound {
		t.Fatalf("get deleted status=%d, want %d", code, http.StatusNotFound)
	}
}

func TestCreatePostValidationDetails(t *testing.T) {
	s := newTestServer(t)
	var body errorBody
	draft := map[string]any{"title": "hi", "content": "short", "category": "trading", "post_type": "discussion"}
	if code := s.do(http.MethodPost, "/api/posts", s.member, draft, &body); code != http.StatusBadRequest {
		t.Fatalf("status=%d, want %d", code, http.StatusBadRequest)
	}
	if body.Error.Code != "invalid_argument" || len(body.Error.Details) < 2 {
		t.Fatalf("error=%+v, want invalid_argument with per-field details", body.Error)
	}
}

func TestModerationRoutes(t *testing.T) {
	s := newTestServer(t)

	draft := map[string]any{
		"title":     "Weekly market review",
		"content":   "Indices closed flat while rates moved higher through the week.",
		"category":  "trading",
		"post_type": "discussion",
	}
	var created struct {
		Post domain.Post `json:"post"`
	}
	if code := s.do(http.MethodPost, "/api/posts", s.member, draft, &created); code != http.StatusCreated {
		t.Fatalf("create status=%d", code)
	}
	id := created.Post.ID.String()

	var flagged struct {
		Flag domain.ModerationFlag `json:"flag"`
	}
	if code := s.do(http.MethodPost, "/api/posts/"+id+"/flag", s.member, map[string]any{"reason": "off topic"}, &flagged); code != http.StatusCreated {
		t.Fatalf("flag status=%d", code)
	}

	cases := []struct {
		name   string
		method string
		path   string
		actor  *domain.User
		body   any
		status int
	}{
		{name: "member dashboard", method: http.MethodGet, path: "/api/moderation/dashboard", actor: s.member, status: http.StatusForbidden},
		{name: "admin dashboard", method: http.MethodGet, path: "/api/moderation/dashboard", actor: s.admin, status: http.StatusOK},
		{name: "member pin", method: http.MethodPost, path: "/api/posts/" + id + "/pin", actor: s.member, status: http.StatusForbidden},
		{name: "admin pin", method: http.MethodPost, path: "/api/posts/" + id + "/pin", actor: s.admin, status: http.StatusOK},
		{name: "admin unlock", method: http.MethodPost, path: "/api/posts/" + id + "/lock", actor: s.admin, body: map[string]any{"on": false}, status: http.StatusOK},
		{name: "review", method: http.MethodPost, path: "/api/moderation/flags/" + flagged.Flag.ID.String() + "/review", actor: s.admin, body: map[string]any{"status": "dismissed"}, status: http.StatusOK},
		{name: "review twice", method: http.MethodPost, path: "/api/moderation/flags/" + flagged.Flag.ID.String() + "/review", actor: s.admin, body: map[string]any{"status": "reviewed"}, status: http.StatusConflict},
		{name: "ban self", method: http.MethodPost, path: "/api/users/" + s.admin.ID.String() + "/ban", actor: s.admin, status: http.StatusForbidden},
		{name: "ban member", method: http.MethodPost, path: "/api/users/" + s.member.ID.String() + "/ban", actor: s.admin, status: http.StatusOK},
		{name: "bad id", method: http.MethodPost, path: "/api/users/nope/ban", actor: s.admin, status: http.StatusBadRequest},
	}
	for _, tc := range cases {
		if code := s.do(tc.method, tc.path, tc.actor, tc.body, nil); code != tc.status {
			t.Fatalf("%s: status=%d, want %d", tc.name, code, tc.status)
		}
	}

	var pinned struct {
		Post domain.Post `json:"post"`
	}
	s.do(http.MethodGet, "/api/posts/"+id, nil, nil, &pinned)
	if !pinned.Post.IsPinned || pinned.Post.IsLocked {
		t.Fatalf("pinned=%v locked=%v, want pinned and unlocked", pinned.Post.IsPinned, pinned.Post.IsLocked)
	}
}

func TestCurriculumRoutes(t *testing.T) {
	s := newTestServer(t)

	var pillars struct {
		Pillars []services.PillarSummary `json:"pillars"`
	}
	if code := s.do(http.MethodGet, "/api/curriculum/pillars", nil, nil, &pillars); code != http.StatusOK {
		t.Fatalf("pillars status=%d", code)
	}
	if len(pillars.Pillars) != 4 {
		t.Fatalf("pillars=%d, want 4", len(pillars.Pillars))
	}

	cases := []struct {
		name   string
		module string
		status int
	}{
		{name: "first module", module: "ps-1-1", status: http.StatusOK},
		{name: "again", module: "ps-1-1", status: http.StatusConflict},
		{name: "out of order", module: "ps-1-3", status: http.StatusForbidden},
		{name: "locked level", module: "ps-2-1", status: http.StatusForbidden},
		{name: "unknown", module: "ps-9-9", status: http.StatusNotFound},
	}
	for _, tc := range cases {
		body := map[string]any{"module_key": tc.module}
		if code := s.do(http.MethodPost, "/api/curriculum/psychology/complete", s.member, body, nil); code != tc.status {
			t.Fatalf("%s: status=%d, want %d", tc.name, code, tc.status)
		}
	}

	var view services.ProgressView
	if code := s.do(http.MethodGet, "/api/curriculum/psychology/progress/"+s.member.ID.String(), nil, nil, &view); code != http.StatusOK {
		t.Fatalf("progress status=%d", code)
	}
	if view.EarnedXP != 50 || view.HighestUnlocked != 1 {
		t.Fatalf("earned=%d unlocked=%d, want 50 and 1", view.EarnedXP, view.HighestUnlocked)
	}
}

func TestToolRoutes(t *testing.T) {
	s := newTestServer(t)

	var spam struct {
		IsSpam  bool     `json:"is_spam"`
		Reasons []string `json:"reasons"`
	}
	body := map[string]any{"content": "BUY NOW BUY NOW BUY NOW guaranteed profit"}
	if code := s.do(http.MethodPost, "/api/tools/spam-check", nil, body, &spam); code != http.StatusOK {
		t.Fatalf("spam-check status=%d", code)
	}
	if !spam.IsSpam {
		t.Fatalf("is_spam=false, reasons=%v", spam.Reasons)
	}

	var excerpt struct {
		Excerpt string `json:"excerpt"`
	}
	s.do(http.MethodPost, "/api/tools/excerpt", nil, map[string]any{"content": "one two three four", "max_length": 9}, &excerpt)
	if excerpt.Excerpt != "one two..." {
		t.Fatalf("excerpt=%q, want %q", excerpt.Excerpt, "one two...")
	}

	var result struct {
		IsValid bool     `json:"is_valid"`
		Errors  []string `json:"errors"`
	}
	s.do(http.MethodPost, "/api/tools/validate", nil, map[string]any{"title": "", "content": "", "post_type": "discussion"}, &result)
	if result.IsValid || len(result.Errors) == 0 {
		t.Fatalf("validate=%+v, want errors", result)
	}

	draft := map[string]any{
		"title":     "A perfectly fine title",
		"content":   strings.Repeat("good content ", 5),
		"category":  "general",
		"post_type": "discussion",
		"tags":      []string{"ok"},
	}
	result.Errors = nil
	if code := s.do(http.MethodPost, "/api/tools/validate", nil, draft, &result); code != http.StatusOK {
		t.Fatalf("validate status=%d", code)
	}
	if !result.IsValid || len(result.Errors) != 0 {
		t.Fatalf("validate=%+v, want valid draft", result)
	}

	var trade struct {
		Symbol string `json:"symbol"`
		Entry  string `json:"entry"`
	}
	body = map[string]any{"symbol": " aapl ", "entry_price": 150.5}
	if code := s.do(http.MethodPost, "/api/tools/format-trade", nil, body, &trade); code != http.StatusOK {
		t.Fatalf("format-trade status=%d", code)
	}
	if trade.Symbol != "AAPL" || trade.Entry != "$150.50" {
		t.Fatalf("trade=%+v, want AAPL at $150.50", trade)
	}
}
