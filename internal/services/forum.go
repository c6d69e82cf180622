package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/tradeguild-backend/internal/data/cache"
	"github.com/yungbote/tradeguild-backend/internal/data/repos/community"
	"github.com/yungbote/tradeguild-backend/internal/domain"
	"github.com/yungbote/tradeguild-backend/internal/forum"
	"github.com/yungbote/tradeguild-backend/internal/observability"
	"github.com/yungbote/tradeguild-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/tradeguild-backend/internal/pkg/errors"
	"github.com/yungbote/tradeguild-backend/internal/platform/logger"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	maxReplyLength  = 5000
	rescoreWorkers  = 4
)

type CreatePostInput struct {
	Title       string             `json:"title"`
	Content     string             `json:"content"`
	Category    string             `json:"category"`
	Subcategory string             `json:"subcategory"`
	PostType    domain.PostType    `json:"post_type"`
	Tags        []string           `json:"tags"`
	HasImages   bool               `json:"has_images"`
	HasCharts   bool               `json:"has_charts"`
	Payload     domain.PostPayload `json:"-"`
}

type EditPostInput struct {
	Title     *string         `json:"title"`
	Content   *string         `json:"content"`
	Tags      []string        `json:"tags"`
	HasImages *bool           `json:"has_images"`
	HasCharts *bool           `json:"has_charts"`
	Payload   json.RawMessage `json:"payload,omitempty"`
	// Version is the version the editor started from.
	Version int `json:"version"`
}

type ListPostsInput struct {
	Filters forum.Filters
	Sort    forum.SortBy
	Query   string
	Limit   int
	Offset  int
}

type PostPage struct {
	Posts []*domain.Post `json:"posts"`
	Total int            `json:"total"`
}

type PostThread struct {
	Post    *domain.Post    `json:"post"`
	Replies []*domain.Reply `json:"replies"`
}

// CreateResult reports the stored post and, when auto moderation flagged it,
// the spam analysis.
type CreateResult struct {
	Post *domain.Post      `json:"post"`
	Spam *forum.SpamResult `json:"spam,omitempty"`
}

type ForumService interface {
	CreatePost(ctx context.Context, in CreatePostInput) (*CreateResult, error)
	GetPost(ctx context.Context, id uuid.UUID) (*PostThread, error)
	ListPosts(ctx context.Context, in ListPostsInput) (*PostPage, error)
	TopPosts(ctx context.Context, category string, n int) ([]*domain.Post, error)
	AddReply(ctx context.Context, postID uuid.UUID, parentID *uuid.UUID, content string) (*domain.Reply, error)
	LikePost(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	SharePost(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	BookmarkPost(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	EditPost(ctx context.Context, id uuid.UUID, in EditPostInput) (*domain.Post, error)
	DeletePost(ctx context.Context, id uuid.UUID) error
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	RescoreCategory(ctx context.Context, category string) (int, error)
}

type forumService struct {
	db         *gorm.DB
	log        *logger.Logger
	users      community.UserRepo
	posts      community.PostRepo
	replies    community.ReplyRepo
	categories community.CategoryRepo
	flags      community.FlagRepo
	ranking    cache.Ranking
}

func NewForumService(
	db *gorm.DB,
	log *logger.Logger,
	users community.UserRepo,
	posts community.PostRepo,
	replies community.ReplyRepo,
	categories community.CategoryRepo,
	flags community.FlagRepo,
	ranking cache.Ranking,
) ForumService {
	if ranking == nil {
		ranking = cache.NewNoopRanking()
	}
	return &forumService{
		db:         db,
		log:        log.With("service", "ForumService"),
		users:      users,
		posts:      posts,
		replies:    replies,
		categories: categories,
		flags:      flags,
		ranking:    ranking,
	}
}

func (s *forumService) CreatePost(ctx context.Context, in CreatePostInput) (res *CreateResult, err error) {
	ctx, span := observability.StartSpan(ctx, "ForumService.CreatePost", attribute.String("category", in.Category))
	defer func() { observability.EndSpan(span, err) }()

	author, err := actingUser(ctx, s.users)
	if err != nil {
		return nil, err
	}
	if !forum.CanUserPerformAction(author, forum.ActionCreatePost, nil) {
		return nil, fmt.Errorf("create post: %w", pkgerrors.ErrForbidden)
	}

	category, err := s.categories.GetByID(dbctx.New(ctx), strings.TrimSpace(in.Category))
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			return nil, &ValidationError{Errors: []string{fmt.Sprintf("Unknown category %q", in.Category)}}
		}
		return nil, err
	}
	settings := effectiveSettings(category.Settings)
	if rep := forum.CalculateReputation(*author); rep < settings.ReputationRequired {
		return nil, fmt.Errorf("category %s requires %d reputation, have %d: %w",
			category.ID, settings.ReputationRequired, rep, pkgerrors.ErrForbidden)
	}

	postType := in.PostType
	if postType == "" {
		postType = domain.PostDiscussion
	}
	p := &domain.Post{
		Title:       strings.TrimSpace(in.Title),
		Content:     strings.TrimSpace(in.Content),
		AuthorID:    author.ID,
		Author:      *author,
		Category:    category.ID,
		Subcategory: strings.TrimSpace(in.Subcategory),
		PostType:    postType,
		Tags:        normalizeTags(in.Tags),
		HasImages:   in.HasImages && settings.AllowImages,
		HasCharts:   in.HasCharts && settings.AllowImages,
		Payload:     in.Payload,
		Version:     1,
	}
	if p.Payload == nil {
		p.Payload = domain.PayloadFor(postType)
	}
	if vr := forum.ValidatePostFor(p, settings); !vr.IsValid {
		return nil, &ValidationError{Errors: vr.Errors}
	}

	var spam *forum.SpamResult
	if settings.AutoModeration {
		sr := forum.DetectSpam(p.Title + "\n" + p.Content)
		if sr.IsSpam {
			spam = &sr
		}
	}

	forum.Rescore(p)
	err = inTx(ctx, s.db, func(dbc dbctx.Context) error {
		if _, err := s.posts.Create(dbc, p); err != nil {
			return err
		}
		if spam != nil {
			flag := &domain.ModerationFlag{
				PostID: p.ID,
				Reason: "auto: " + strings.Join(spam.Reasons, ", "),
			}
			if _, err := s.flags.Create(dbc, flag); err != nil {
				return err
			}
			p.ModerationFlags = append(p.ModerationFlags, *flag)
			forum.Rescore(p)
			if err := s.posts.UpdateScores(dbc, p.ID, p.QualityScore, p.EngagementScore); err != nil {
				return err
			}
		}
		if err := s.users.IncrementStat(dbc, author.ID, "posts", 1); err != nil {
			return err
		}
		return s.categories.IncrementCounts(dbc, category.ID, 1, 0)
	})
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}

	s.record(ctx, p)
	observability.Current().IncPostCreated(p.Category, string(p.PostType))
	if spam != nil {
		observability.Current().IncPostAutoFlagged(p.Category)
		s.log.Warn("post auto-flagged as spam", "post_id", p.ID, "confidence", spam.Confidence, "reasons", spam.Reasons)
	}
	return &CreateResult{Post: p, Spam: spam}, nil
}

// GetPost counts a view and returns the post with its reply tree.
func (s *forumService) GetPost(ctx context.Context, id uuid.UUID) (*PostThread, error) {
	ctx, span := observability.StartSpan(ctx, "ForumService.GetPost", attribute.String("post_id", id.String()))
	defer span.End()

	dbc := dbctx.New(ctx)
	if _, err := s.livePost(ctx, id); err != nil {
		return nil, err
	}
	if err := s.posts.Increment(dbc, id, "views", 1); err != nil {
		return nil, err
	}
	p, err := s.refreshScores(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.users.IncrementStat(dbc, p.AuthorID, "views", 1); err != nil {
		s.log.Warn("author view count not updated", "post_id", id, "error", err)
	}
	rows, err := s.replies.ListByPost(dbc, id)
	if err != nil {
		return nil, err
	}
	return &PostThread{Post: p, Replies: domain.BuildReplyTree(rows)}, nil
}

func (s *forumService) ListPosts(ctx context.Context, in ListPostsInput) (*PostPage, error) {
	ctx, span := observability.StartSpan(ctx, "ForumService.ListPosts")
	defer span.End()

	q := community.PostQuery{
		Category:       in.Filters.Category,
		Subcategory:    in.Filters.Subcategory,
		PostType:       in.Filters.PostType,
		HasAttachments: in.Filters.HasAttachments,
	}
	if dr := in.Filters.DateRange; dr != nil {
		q.CreatedFrom, q.CreatedTo = dr.Start, dr.End
	}
	rows, err := s.posts.List(dbctx.New(ctx), q)
	if err != nil {
		return nil, err
	}

	matched := forum.FilterPosts(rows, in.Filters)
	if strings.TrimSpace(in.Query) != "" {
		matched = forum.SearchPosts(matched, in.Query)
	} else {
		matched = forum.SortPosts(matched, in.Sort)
	}
	span.SetAttributes(attribute.Int("matched", len(matched)))

	limit := in.Limit
	switch {
	case limit <= 0:
		limit = DefaultPageSize
	case limit > MaxPageSize:
		limit = MaxPageSize
	}
	offset := max(in.Offset, 0)
	page := &PostPage{Posts: []*domain.Post{}, Total: len(matched)}
	if offset < len(matched) {
		page.Posts = matched[offset:min(offset+limit, len(matched))]
	}
	return page, nil
}

// TopPosts reads the ranking cache and falls back to a quality sort in the
// database when the cache is unavailable.
func (s *forumService) TopPosts(ctx context.Context, category string, n int) ([]*domain.Post, error) {
	ctx, span := observability.StartSpan(ctx, "ForumService.TopPosts", attribute.String("category", category))
	defer span.End()

	if n <= 0 || n > MaxPageSize {
		n = DefaultPageSize
	}
	dbc := dbctx.New(ctx)

	ids, err := s.ranking.Top(ctx, category, n)
	if err == nil && len(ids) > 0 {
		rows, err := s.posts.GetByIDs(dbc, ids)
		if err != nil {
			return nil, err
		}
		byID := make(map[uuid.UUID]*domain.Post, len(rows))
		for _, p := range rows {
			byID[p.ID] = p
		}
		out := make([]*domain.Post, 0, len(ids))
		for _, id := range ids {
			if p, ok := byID[id]; ok && !p.IsDeleted {
				out = append(out, p)
			}
		}
		return out, nil
	}
	if err != nil && !errors.Is(err, cache.ErrUnavailable) {
		observability.Current().IncRankingError("top")
		s.log.Warn("ranking cache read failed, using database", "category", category, "error", err)
	}

	rows, err := s.posts.List(dbc, community.PostQuery{Category: category})
	if err != nil {
		return nil, err
	}
	sorted := forum.SortPosts(rows, forum.SortQuality)
	return sorted[:min(n, len(sorted))], nil
}

func (s *forumService) AddReply(ctx context.Context, postID uuid.UUID, parentID *uuid.UUID, content string) (*domain.Reply, error) {
	ctx, span := observability.StartSpan(ctx, "ForumService.AddReply", attribute.String("post_id", postID.String()))
	defer span.End()

	author, err := actingUser(ctx, s.users)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.New(ctx)
	post, err := s.posts.GetByID(dbc, postID)
	if err != nil {
		return nil, err
	}
	if post.IsDeleted {
		return nil, fmt.Errorf("post %s: %w", postID, pkgerrors.ErrNotFound)
	}
	if !forum.CanUserPerformAction(author, forum.ActionReply, post) {
		return nil, fmt.Errorf("reply to post %s: %w", postID, pkgerrors.ErrForbidden)
	}

	content = strings.TrimSpace(content)
	switch n := utf8.RuneCountInString(content); {
	case n == 0:
		return nil, &ValidationError{Errors: []string{"Content is required"}}
	case n > maxReplyLength:
		return nil, &ValidationError{Errors: []string{fmt.Sprintf("Content must be at most %d characters", maxReplyLength)}}
	}

	rep := &domain.Reply{PostID: postID, AuthorID: author.ID, Content: content}
	if parentID != nil {
		parent, err := s.replies.GetByID(dbc, *parentID)
		if err != nil {
			return nil, err
		}
		if parent.PostID != postID || parent.IsDeleted {
			return nil, &ValidationError{Errors: []string{"Parent reply is not part of this post"}}
		}
		rep.ParentID = &parent.ID
		rep.Depth = parent.Depth + 1
	}

	err = inTx(ctx, s.db, func(dbc dbctx.Context) error {
		if _, err := s.replies.Create(dbc, rep); err != nil {
			return err
		}
		if err := s.posts.Increment(dbc, postID, "replies", 1); err != nil {
			return err
		}
		if err := s.users.IncrementStat(dbc, author.ID, "replies", 1); err != nil {
			return err
		}
		return s.categories.IncrementCounts(dbc, post.Category, 0, 1)
	})
	if err != nil {
		return nil, fmt.Errorf("add reply: %w", err)
	}
	rep.Author = *author
	observability.Current().IncInteraction("reply")
	if _, err := s.refreshScores(ctx, postID); err != nil {
		s.log.Warn("rescore after reply failed", "post_id", postID, "error", err)
	}
	return rep, nil
}

func (s *forumService) LikePost(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	actor, err := actingUser(ctx, s.users)
	if err != nil {
		return nil, err
	}
	post, err := s.livePost(ctx, id)
	if err != nil {
		return nil, err
	}
	if !forum.CanUserPerformAction(actor, forum.ActionLike, post) {
		return nil, fmt.Errorf("like post %s: %w", id, pkgerrors.ErrForbidden)
	}
	err = inTx(ctx, s.db, func(dbc dbctx.Context) error {
		if err := s.posts.Increment(dbc, id, "likes", 1); err != nil {
			return err
		}
		return s.users.IncrementStat(dbc, post.AuthorID, "likes", 1)
	})
	if err != nil {
		return nil, fmt.Errorf("like post: %w", err)
	}
	observability.Current().IncInteraction("like")
	return s.refreshScores(ctx, id)
}

func (s *forumService) SharePost(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	return s.bump(ctx, id, "shares")
}

func (s *forumService) BookmarkPost(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	return s.bump(ctx, id, "bookmarks")
}

// bump increments a counter that any active member may raise.
func (s *forumService) bump(ctx context.Context, id uuid.UUID, counter string) (*domain.Post, error) {
	actor, err := actingUser(ctx, s.users)
	if err != nil {
		return nil, err
	}
	if actor.IsBanned {
		return nil, fmt.Errorf("%s post %s: %w", counter, id, pkgerrors.ErrForbidden)
	}
	if _, err := s.livePost(ctx, id); err != nil {
		return nil, err
	}
	if err := s.posts.Increment(dbctx.New(ctx), id, counter, 1); err != nil {
		return nil, err
	}
	observability.Current().IncInteraction(strings.TrimSuffix(counter, "s"))
	return s.refreshScores(ctx, id)
}

func (s *forumService) EditPost(ctx context.Context, id uuid.UUID, in EditPostInput) (*domain.Post, error) {
	ctx, span := observability.StartSpan(ctx, "ForumService.EditPost", attribute.String("post_id", id.String()))
	defer span.End()

	actor, err := actingUser(ctx, s.users)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.New(ctx)
	post, err := s.posts.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	if !forum.CanUserPerformAction(actor, forum.ActionEditOwnPost, post) {
		return nil, fmt.Errorf("edit post %s: %w", id, pkgerrors.ErrForbidden)
	}
	if in.Version != 0 && in.Version != post.Version {
		return nil, fmt.Errorf("edit post %s: have version %d, stored %d: %w", id, in.Version, post.Version, pkgerrors.ErrConflict)
	}
	expected := post.Version

	if in.Title != nil {
		post.Title = strings.TrimSpace(*in.Title)
	}
	if in.Content != nil {
		post.Content = strings.TrimSpace(*in.Content)
	}
	if in.Tags != nil {
		post.Tags = normalizeTags(in.Tags)
	}
	if in.HasImages != nil {
		post.HasImages = *in.HasImages
	}
	if in.HasCharts != nil {
		post.HasCharts = *in.HasCharts
	}
	if len(in.Payload) > 0 {
		payload, err := domain.DecodePayload(post.PostType, datatypes.JSON(in.Payload))
		if err != nil {
			return nil, &ValidationError{Errors: []string{"Payload does not match the post type"}}
		}
		post.Payload = payload
	}

	settings := domain.DefaultCategorySettings()
	if c, err := s.categories.GetByID(dbc, post.Category); err == nil {
		settings = effectiveSettings(c.Settings)
	}
	if vr := forum.ValidatePostFor(post, settings); !vr.IsValid {
		return nil, &ValidationError{Errors: vr.Errors}
	}

	forum.Rescore(post)
	if err := s.posts.UpdateContent(dbc, post, expected); err != nil {
		return nil, err
	}
	s.record(ctx, post)
	return post, nil
}

// DeletePost soft-deletes. Authors may delete their own posts; moderators
// of the post's category may delete any.
func (s *forumService) DeletePost(ctx context.Context, id uuid.UUID) error {
	actor, err := actingUser(ctx, s.users)
	if err != nil {
		return err
	}
	post, err := s.livePost(ctx, id)
	if err != nil {
		return err
	}
	if !forum.CanUserPerformAction(actor, forum.ActionDeleteOwnPost, post) &&
		!forum.CanUserPerformAction(actor, forum.ActionModerate, post) {
		return fmt.Errorf("delete post %s: %w", id, pkgerrors.ErrForbidden)
	}
	err = inTx(ctx, s.db, func(dbc dbctx.Context) error {
		if err := s.posts.SetFlag(dbc, id, "is_deleted", true); err != nil {
			return err
		}
		return s.categories.IncrementCounts(dbc, post.Category, -1, 0)
	})
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if err := s.ranking.Remove(ctx, post.Category, id); err != nil {
		observability.Current().IncRankingError("remove")
		s.log.Warn("ranking remove failed", "post_id", id, "error", err)
	}
	s.log.Info("post deleted", "post_id", id, "actor_id", actor.ID)
	return nil
}

func (s *forumService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categories.ListTree(dbctx.New(ctx))
}

// RescoreCategory recomputes derived scores for every live post in category
// (all categories when empty) and refreshes the ranking cache.
func (s *forumService) RescoreCategory(ctx context.Context, category string) (int, error) {
	ctx, span := observability.StartSpan(ctx, "ForumService.RescoreCategory", attribute.String("category", category))
	defer span.End()

	rows, err := s.posts.List(dbctx.New(ctx), community.PostQuery{Category: category})
	if err != nil {
		return 0, err
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(rescoreWorkers)
	for _, p := range rows {
		g.Go(func() error {
			forum.Rescore(p)
			if err := s.posts.UpdateScores(dbctx.New(gctx), p.ID, p.QualityScore, p.EngagementScore); err != nil {
				return fmt.Errorf("rescore %s: %w", p.ID, err)
			}
			s.record(gctx, p)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}
	s.log.Info("category rescored", "category", category, "posts", len(rows))
	return len(rows), nil
}

func (s *forumService) livePost(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	p, err := s.posts.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, err
	}
	if p.IsDeleted {
		return nil, fmt.Errorf("post %s: %w", id, pkgerrors.ErrNotFound)
	}
	return p, nil
}

// refreshScores reloads the post, recomputes its derived scores and writes
// them back along with the ranking entry.
func (s *forumService) refreshScores(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	return refreshPostScores(ctx, s.posts, s.ranking, s.log, id)
}

func (s *forumService) record(ctx context.Context, p *domain.Post) {
	recordRanking(ctx, s.ranking, s.log, p)
}

func refreshPostScores(ctx context.Context, posts community.PostRepo, ranking cache.Ranking, log *logger.Logger, id uuid.UUID) (*domain.Post, error) {
	dbc := dbctx.New(ctx)
	p, err := posts.GetByID(dbc, id)
	if err != nil {
		return nil, err
	}
	prevQuality, prevEngagement := p.QualityScore, p.EngagementScore
	forum.Rescore(p)
	if p.QualityScore != prevQuality || p.EngagementScore != prevEngagement {
		if err := posts.UpdateScores(dbc, id, p.QualityScore, p.EngagementScore); err != nil {
			return nil, err
		}
	}
	recordRanking(ctx, ranking, log, p)
	return p, nil
}

func recordRanking(ctx context.Context, ranking cache.Ranking, log *logger.Logger, p *domain.Post) {
	if p.IsDeleted {
		return
	}
	if err := ranking.Record(ctx, p.Category, p.ID, float64(p.QualityScore)); err != nil {
		observability.Current().IncRankingError("record")
		log.Warn("ranking update failed", "post_id", p.ID, "error", err)
	}
}

// effectiveSettings fills zero limits from the defaults.
func effectiveSettings(s domain.CategorySettings) domain.CategorySettings {
	def := domain.DefaultCategorySettings()
	if s.MaxPostLength <= 0 {
		s.MaxPostLength = def.MaxPostLength
	}
	if s.MaxTags <= 0 {
		s.MaxTags = def.MaxTags
	}
	return s
}

// normalizeTags lowercases, trims and de-duplicates tags, keeping order.
// Blank entries are kept so validation can report them.
func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" && seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
