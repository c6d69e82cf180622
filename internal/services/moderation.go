package services

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
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
	maxFlagReasonLength = 500
	// Live posts scoring below this are counted as spam suspects.
	LowQualityThreshold = 30
	dashboardQueueSize  = 20
)

type Dashboard struct {
	PendingFlags    int64                    `json:"pending_flags"`
	FlaggedPosts    int64                    `json:"flagged_posts"`
	BannedUsers     int64                    `json:"banned_users"`
	LowQualityPosts int64                    `json:"low_quality_posts"`
	Queue           []*domain.ModerationFlag `json:"queue"`
}

type ModerationService interface {
	FlagPost(ctx context.Context, postID uuid.UUID, replyID *uuid.UUID, reason string) (*domain.ModerationFlag, error)
	ReviewFlag(ctx context.Context, flagID uuid.UUID, status domain.FlagStatus) (*domain.ModerationFlag, error)
	FeaturePost(ctx context.Context, postID uuid.UUID, on bool) (*domain.Post, error)
	PinPost(ctx context.Context, postID uuid.UUID, on bool) (*domain.Post, error)
	LockPost(ctx context.Context, postID uuid.UUID, on bool) (*domain.Post, error)
	BanUser(ctx context.Context, userID uuid.UUID, banned bool) (*UserProfile, error)
	Dashboard(ctx context.Context) (*Dashboard, error)
}

type moderationService struct {
	db      *gorm.DB
	log     *logger.Logger
	users   community.UserRepo
	posts   community.PostRepo
	replies community.ReplyRepo
	flags   community.FlagRepo
	ranking cache.Ranking
}

func NewModerationService(
	db *gorm.DB,
	log *logger.Logger,
	users community.UserRepo,
	posts community.PostRepo,
	replies community.ReplyRepo,
	flags community.FlagRepo,
	ranking cache.Ranking,
) ModerationService {
	if ranking == nil {
		ranking = cache.NewNoopRanking()
	}
	return &moderationService{
		db:      db,
		log:     log.With("service", "ModerationService"),
		users:   users,
		posts:   posts,
		replies: replies,
		flags:   flags,
		ranking: ranking,
	}
}

func (s *moderationService) FlagPost(ctx context.Context, postID uuid.UUID, replyID *uuid.UUID, reason string) (*domain.ModerationFlag, error) {
	reporter, err := actingUser(ctx, s.users)
	if err != nil {
		return nil, err
	}
	if reporter.IsBanned {
		return nil, fmt.Errorf("flag post: %w", pkgerrors.ErrForbidden)
	}
	reason = strings.TrimSpace(reason)
	switch n := utf8.RuneCountInString(reason); {
	case n == 0:
		return nil, &ValidationError{Errors: []string{"Reason is required"}}
	case n > maxFlagReasonLength:
		return nil, &ValidationError{Errors: []string{fmt.Sprintf("Reason must be at most %d characters", maxFlagReasonLength)}}
	}

	dbc := dbctx.New(ctx)
	post, err := s.posts.GetByID(dbc, postID)
	if err != nil {
		return nil, err
	}
	if post.IsDeleted {
		return nil, fmt.Errorf("post %s: %w", postID, pkgerrors.ErrNotFound)
	}
	if replyID != nil {
		rep, err := s.replies.GetByID(dbc, *replyID)
		if err != nil {
			return nil, err
		}
		if rep.PostID != postID {
			return nil, fmt.Errorf("reply %s is not on post %s: %w", *replyID, postID, pkgerrors.ErrInvalidArgument)
		}
	}

	f, err := s.flags.Create(dbc, &domain.ModerationFlag{
		PostID:     postID,
		ReplyID:    replyID,
		ReporterID: &reporter.ID,
		Reason:     reason,
	})
	if err != nil {
		return nil, err
	}
	if _, err := refreshPostScores(ctx, s.posts, s.ranking, s.log, postID); err != nil {
		s.log.Warn("rescore after flag failed", "post_id", postID, "error", err)
	}
	s.log.Info("post flagged", "post_id", postID, "reporter_id", reporter.ID)
	return f, nil
}

// ReviewFlag closes a pending flag. Dismissing it lifts the quality penalty.
func (s *moderationService) ReviewFlag(ctx context.Context, flagID uuid.UUID, status domain.FlagStatus) (*domain.ModerationFlag, error) {
	actor, err := actingUser(ctx, s.users)
	if err != nil {
		return nil, err
	}
	dbc := dbctx.New(ctx)
	f, err := s.flags.GetByID(dbc, flagID)
	if err != nil {
		return nil, err
	}
	post, err := s.posts.GetByID(dbc, f.PostID)
	if err != nil {
		return nil, err
	}
	if !forum.CanUserPerformAction(actor, forum.ActionModerate, post) {
		return nil, fmt.Errorf("review flag: %w", pkgerrors.ErrForbidden)
	}
	reviewed, err := s.flags.Review(dbc, flagID, status, actor.ID)
	if err != nil {
		return nil, err
	}
	if _, err := refreshPostScores(ctx, s.posts, s.ranking, s.log, f.PostID); err != nil {
		s.log.Warn("rescore after review failed", "post_id", f.PostID, "error", err)
	}
	observability.Current().IncFlagReviewed(string(status))
	s.log.Info("flag reviewed", "flag_id", flagID, "actor_id", actor.ID, "status", status)
	return reviewed, nil
}

func (s *moderationService) FeaturePost(ctx context.Context, postID uuid.UUID, on bool) (*domain.Post, error) {
	return s.setPostFlag(ctx, postID, "is_featured", forum.ActionFeaturePost, on)
}

func (s *moderationService) PinPost(ctx context.Context, postID uuid.UUID, on bool) (*domain.Post, error) {
	return s.setPostFlag(ctx, postID, "is_pinned", forum.ActionModerate, on)
}

func (s *moderationService) LockPost(ctx context.Context, postID uuid.UUID, on bool) (*domain.Post, error) {
	return s.setPostFlag(ctx, postID, "is_locked", forum.ActionModerate, on)
}

func (s *moderationService) setPostFlag(ctx context.Context, postID uuid.UUID, flag string, action forum.Action, on bool) (*domain.Post, error) {
	actor, err := actingUser(ctx, s.users)
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
	if !forum.CanUserPerformAction(actor, action, post) {
		return nil, fmt.Errorf("set %s: %w", flag, pkgerrors.ErrForbidden)
	}
	if err := s.posts.SetFlag(dbc, postID, flag, on); err != nil {
		return nil, err
	}
	s.log.Info("post flag changed", "post_id", postID, "actor_id", actor.ID, "flag", flag, "value", on)
	return s.posts.GetByID(dbc, postID)
}

func (s *moderationService) BanUser(ctx context.Context, userID uuid.UUID, banned bool) (*UserProfile, error) {
	actor, err := actingUser(ctx, s.users)
	if err != nil {
		return nil, err
	}
	if !forum.CanUserPerformAction(actor, forum.ActionBanUser, nil) {
		return nil, fmt.Errorf("ban user: %w", pkgerrors.ErrForbidden)
	}
	if actor.ID == userID {
		return nil, fmt.Errorf("ban yourself: %w", pkgerrors.ErrInvalidArgument)
	}
	dbc := dbctx.New(ctx)
	if err := s.users.SetBanned(dbc, userID, banned); err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(dbc, userID)
	if err != nil {
		return nil, err
	}
	s.log.Warn("user ban changed", "user_id", userID, "actor_id", actor.ID, "banned", banned)
	return profileOf(u), nil
}

// Dashboard gathers moderation counts in parallel. Only global moderators
// and admins may read it.
func (s *moderationService) Dashboard(ctx context.Context) (out *Dashboard, err error) {
	ctx, span := observability.StartSpan(ctx, "ModerationService.Dashboard")
	defer func() { observability.EndSpan(span, err) }()

	actor, err := actingUser(ctx, s.users)
	if err != nil {
		return nil, err
	}
	if !forum.CanUserPerformAction(actor, forum.ActionModerate, nil) {
		return nil, fmt.Errorf("moderation dashboard: %w", pkgerrors.ErrForbidden)
	}

	d := &Dashboard{}
	g, gctx := errgroup.WithContext(ctx)
	dbc := dbctx.New(gctx)
	g.Go(func() (err error) {
		d.PendingFlags, err = s.flags.CountByStatus(dbc, domain.FlagPending)
		return err
	})
	g.Go(func() (err error) {
		d.FlaggedPosts, err = s.flags.CountFlaggedPosts(dbc)
		return err
	})
	g.Go(func() (err error) {
		d.BannedUsers, err = s.users.CountBanned(dbc)
		return err
	})
	g.Go(func() (err error) {
		d.LowQualityPosts, err = s.posts.CountBelowQuality(dbc, LowQualityThreshold)
		return err
	})
	g.Go(func() (err error) {
		d.Queue, err = s.flags.ListByStatus(dbc, domain.FlagPending, dashboardQueueSize)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("moderation dashboard: %w", err)
	}
	span.SetAttributes(attribute.Int64("pending_flags", d.PendingFlags))
	return d, nil
}
