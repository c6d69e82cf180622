package services

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/tradeguild-backend/internal/data/repos/community"
	"github.com/yungbote/tradeguild-backend/internal/domain"
	"github.com/yungbote/tradeguild-backend/internal/forum"
	"github.com/yungbote/tradeguild-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/tradeguild-backend/internal/pkg/errors"
	"github.com/yungbote/tradeguild-backend/internal/platform/logger"
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_-]{3,32}$`)

type RegisterInput struct {
	Username     string               `json:"username"`
	DisplayName  string               `json:"display_name"`
	Bio          string               `json:"bio"`
	TradingStats *domain.TradingStats `json:"trading_stats"`
}

// UserProfile is a user with reputation and rank freshly computed.
type UserProfile struct {
	*domain.User
	Reputation int            `json:"reputation"`
	Rank       forum.RankTier `json:"rank"`
}

type UserService interface {
	Register(ctx context.Context, in RegisterInput) (*UserProfile, error)
	GetUser(ctx context.Context, id uuid.UUID) (*UserProfile, error)
	RecordHelpfulVote(ctx context.Context, replyID uuid.UUID) (*UserProfile, error)
	MarkBestAnswer(ctx context.Context, postID, replyID uuid.UUID) (*UserProfile, error)
	AssignRole(ctx context.Context, userID uuid.UUID, role domain.Role) (*UserProfile, error)
}

type userService struct {
	db      *gorm.DB
	log     *logger.Logger
	users   community.UserRepo
	posts   community.PostRepo
	replies community.ReplyRepo
}

func NewUserService(
	db *gorm.DB,
	log *logger.Logger,
	users community.UserRepo,
	posts community.PostRepo,
	replies community.ReplyRepo,
) UserService {
	return &userService{
		db:      db,
		log:     log.With("service", "UserService"),
		users:   users,
		posts:   posts,
		replies: replies,
	}
}

func profileOf(u *domain.User) *UserProfile {
	rep := forum.CalculateReputation(*u)
	return &UserProfile{User: u, Reputation: rep, Rank: forum.Rank(rep)}
}

func (s *userService) Register(ctx context.Context, in RegisterInput) (*UserProfile, error) {
	username := strings.ToLower(strings.TrimSpace(in.Username))
	if !usernamePattern.MatchString(username) {
		return nil, &ValidationError{Errors: []string{"Username must be 3-32 characters of a-z, 0-9, _ or -"}}
	}
	u := &domain.User{
		Username:     username,
		DisplayName:  strings.TrimSpace(in.DisplayName),
		Bio:          strings.TrimSpace(in.Bio),
		TradingStats: in.TradingStats,
		Roles:        []domain.Role{{Name: domain.RoleMember, Scope: domain.ScopeGlobal}},
	}
	if u.TradingStats != nil {
		// Verification is granted by staff, never self-declared.
		u.TradingStats.Verified = false
	}
	if _, err := s.users.Create(dbctx.New(ctx), []*domain.User{u}); err != nil {
		return nil, fmt.Errorf("register %q: %w", username, err)
	}
	s.log.Info("user registered", "user_id", u.ID)
	return profileOf(u), nil
}

func (s *userService) GetUser(ctx context.Context, id uuid.UUID) (*UserProfile, error) {
	u, err := s.users.GetByID(dbctx.New(ctx), id)
	if err != nil {
		return nil, err
	}
	return profileOf(u), nil
}

// RecordHelpfulVote credits the reply's author. Voting for yourself is refused.
func (s *userService) RecordHelpfulVote(ctx context.Context, replyID uuid.UUID) (*UserProfile, error) {
	actor, err := actingUser(ctx, s.users)
	if err != nil {
		return nil, err
	}
	if actor.IsBanned {
		return nil, fmt.Errorf("helpful vote: %w", pkgerrors.ErrForbidden)
	}
	dbc := dbctx.New(ctx)
	rep, err := s.replies.GetByID(dbc, replyID)
	if err != nil {
		return nil, err
	}
	if rep.IsDeleted {
		return nil, fmt.Errorf("reply %s: %w", replyID, pkgerrors.ErrNotFound)
	}
	if rep.AuthorID == actor.ID {
		return nil, fmt.Errorf("helpful vote on own reply: %w", pkgerrors.ErrForbidden)
	}
	if err := s.users.IncrementStat(dbc, rep.AuthorID, "helpful_votes", 1); err != nil {
		return nil, err
	}
	return s.GetUser(ctx, rep.AuthorID)
}

// MarkBestAnswer lets the post author, or a moderator of its category, pick
// the accepted reply. The reply's author is credited with a best answer.
func (s *userService) MarkBestAnswer(ctx context.Context, postID, replyID uuid.UUID) (*UserProfile, error) {
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
	isAuthor := post.AuthorID == actor.ID && !actor.IsBanned
	if !isAuthor && !forum.CanUserPerformAction(actor, forum.ActionModerate, post) {
		return nil, fmt.Errorf("mark best answer: %w", pkgerrors.ErrForbidden)
	}
	rep, err := s.replies.GetByID(dbc, replyID)
	if err != nil {
		return nil, err
	}
	if rep.PostID != postID {
		return nil, fmt.Errorf("reply %s is not on post %s: %w", replyID, postID, pkgerrors.ErrInvalidArgument)
	}
	if rep.IsBestAnswer {
		return s.GetUser(ctx, rep.AuthorID)
	}

	err = inTx(ctx, s.db, func(dbc dbctx.Context) error {
		if err := s.replies.MarkBestAnswer(dbc, postID, replyID); err != nil {
			return err
		}
		return s.users.IncrementStat(dbc, rep.AuthorID, "best_answers", 1)
	})
	if err != nil {
		return nil, fmt.Errorf("mark best answer: %w", err)
	}

	return s.GetUser(ctx, rep.AuthorID)
}

// AssignRole grants role to a user. Only global admins may assign roles.
func (s *userService) AssignRole(ctx context.Context, userID uuid.UUID, role domain.Role) (*UserProfile, error) {
	actor, err := actingUser(ctx, s.users)
	if err != nil {
		return nil, err
	}
	if !forum.CanUserPerformAction(actor, forum.ActionBanUser, nil) {
		return nil, fmt.Errorf("assign role: %w", pkgerrors.ErrForbidden)
	}
	if err := validateRole(role); err != nil {
		return nil, err
	}
	dbc := dbctx.New(ctx)
	u, err := s.users.GetByID(dbc, userID)
	if err != nil {
		return nil, err
	}
	for _, r := range u.Roles {
		if r == role {
			return profileOf(u), nil
		}
	}
	u.Roles = append(u.Roles, role)
	if err := s.users.Save(dbc, u); err != nil {
		return nil, err
	}
	s.log.Info("role assigned", "user_id", u.ID, "actor_id", actor.ID, "role", role.Name, "scope", role.Scope)
	return profileOf(u), nil
}

func validateRole(r domain.Role) error {
	switch r.Name {
	case domain.RoleMember, domain.RoleModerator, domain.RoleAdmin, domain.RoleExpert, domain.RoleMentor:
	default:
		return &ValidationError{Errors: []string{fmt.Sprintf("Unknown role %q", r.Name)}}
	}
	switch r.Scope {
	case domain.ScopeGlobal:
		if r.ScopeID != "" {
			return &ValidationError{Errors: []string{"Global roles take no scope id"}}
		}
	case domain.ScopeCategory, domain.ScopeSquad:
		if strings.TrimSpace(r.ScopeID) == "" {
			return &ValidationError{Errors: []string{"Scoped roles need a scope id"}}
		}
	default:
		return &ValidationError{Errors: []string{fmt.Sprintf("Unknown role scope %q", r.Scope)}}
	}
	return nil
}
