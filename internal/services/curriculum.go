package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yungbote/tradeguild-backend/internal/curriculum"
	"github.com/yungbote/tradeguild-backend/internal/data/repos/community"
	"github.com/yungbote/tradeguild-backend/internal/data/repos/learning"
	"github.com/yungbote/tradeguild-backend/internal/domain"
	"github.com/yungbote/tradeguild-backend/internal/observability"
	"github.com/yungbote/tradeguild-backend/internal/pkg/dbctx"
	pkgerrors "github.com/yungbote/tradeguild-backend/internal/pkg/errors"
	"github.com/yungbote/tradeguild-backend/internal/platform/logger"
)

type PillarSummary struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Levels      int    `json:"levels"`
	TotalXP     int    `json:"total_xp"`
}

type ProgressView struct {
	Pillar          string                   `json:"pillar"`
	EarnedXP        int                      `json:"earned_xp"`
	TotalXP         int                      `json:"total_xp"`
	HighestUnlocked int                      `json:"highest_unlocked"`
	XPToNextLevel   *int                     `json:"xp_to_next_level,omitempty"`
	Finished        bool                     `json:"finished"`
	Next            *domain.LearningModule   `json:"next,omitempty"`
	Levels          []curriculum.LevelStatus `json:"levels"`
}

type CurriculumService interface {
	ListPillars(ctx context.Context) []PillarSummary
	GetPillar(ctx context.Context, pillar string) (*curriculum.Pillar, error)
	GetProgress(ctx context.Context, userID uuid.UUID, pillar string) (*ProgressView, error)
	CompleteModule(ctx context.Context, pillar, moduleKey string) (*curriculum.Transition, error)
}

type curriculumService struct {
	db       *gorm.DB
	log      *logger.Logger
	catalog  *curriculum.Catalog
	users    community.UserRepo
	progress learning.ProgressRepo
}

func NewCurriculumService(
	db *gorm.DB,
	log *logger.Logger,
	catalog *curriculum.Catalog,
	users community.UserRepo,
	progress learning.ProgressRepo,
) CurriculumService {
	return &curriculumService{
		db:       db,
		log:      log.With("service", "CurriculumService"),
		catalog:  catalog,
		users:    users,
		progress: progress,
	}
}

func (s *curriculumService) ListPillars(ctx context.Context) []PillarSummary {
	pillars := s.catalog.Pillars()
	out := make([]PillarSummary, 0, len(pillars))
	for _, p := range pillars {
		out = append(out, PillarSummary{
			Key:         p.Key,
			Name:        p.Name,
			Description: p.Description,
			Levels:      len(p.Levels),
			TotalXP:     p.TotalXP(),
		})
	}
	return out
}

func (s *curriculumService) GetPillar(ctx context.Context, pillar string) (*curriculum.Pillar, error) {
	p, err := s.catalog.Pillar(pillar)
	if err != nil {
		return nil, mapCurriculumErr(err)
	}
	return p, nil
}

func (s *curriculumService) GetProgress(ctx context.Context, userID uuid.UUID, pillar string) (*ProgressView, error) {
	dbc := dbctx.New(ctx)
	if _, err := s.users.GetByID(dbc, userID); err != nil {
		return nil, err
	}
	pr, err := s.load(dbc, userID, pillar)
	if err != nil {
		return nil, err
	}
	view := &ProgressView{
		Pillar:          pillar,
		EarnedXP:        pr.EarnedXP(),
		TotalXP:         pr.Pillar().TotalXP(),
		HighestUnlocked: pr.HighestUnlocked(),
		Finished:        pr.Finished(),
		Levels:          pr.Status(),
	}
	if need, ok := pr.XPToNextLevel(); ok {
		view.XPToNextLevel = &need
	}
	if m, _, err := pr.NextModule(); err == nil {
		view.Next = &m
	}
	return view, nil
}

// CompleteModule records a completion for the acting user and persists any
// unlocks it caused.
func (s *curriculumService) CompleteModule(ctx context.Context, pillar, moduleKey string) (t *curriculum.Transition, err error) {
	ctx, span := observability.StartSpan(ctx, "CurriculumService.CompleteModule",
		attribute.String("pillar", pillar), attribute.String("module", moduleKey))
	defer func() { observability.EndSpan(span, err) }()

	user, err := actingUser(ctx, s.users)
	if err != nil {
		return nil, err
	}

	var tr curriculum.Transition
	err = inTx(ctx, s.db, func(dbc dbctx.Context) error {
		pr, err := s.load(dbc, user.ID, pillar)
		if err != nil {
			return err
		}
		tr, err = pr.Complete(moduleKey)
		if err != nil {
			return mapCurriculumErr(err)
		}
		if _, err := s.progress.CreateCompletion(dbc, &domain.ModuleCompletion{
			UserID:    user.ID,
			Pillar:    pillar,
			ModuleKey: moduleKey,
			Level:     tr.Level,
			XP:        tr.XPAwarded,
		}); err != nil {
			return err
		}
		return s.progress.RaiseHighestUnlocked(dbc, user.ID, pillar, pr.HighestUnlocked())
	})
	if err != nil {
		return nil, err
	}

	observability.Current().ObserveCompletion(pillar, len(tr.NewlyUnlocked))
	if len(tr.NewlyUnlocked) > 0 {
		s.log.Info("levels unlocked", "user_id", user.ID, "pillar", pillar, "levels", tr.NewlyUnlocked)
	}
	if tr.Finished {
		s.log.Info("pillar finished", "user_id", user.ID, "pillar", pillar)
	}
	return &tr, nil
}

func (s *curriculumService) load(dbc dbctx.Context, userID uuid.UUID, pillar string) (*curriculum.Progress, error) {
	if _, err := s.catalog.Pillar(pillar); err != nil {
		return nil, mapCurriculumErr(err)
	}
	rows, err := s.progress.ListCompletions(dbc, userID, pillar)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(rows))
	for _, r := range rows {
		keys = append(keys, r.ModuleKey)
	}
	pp, err := s.progress.GetPillarProgress(dbc, userID, pillar)
	if err != nil {
		return nil, err
	}
	pr, err := s.catalog.NewProgress(pillar, keys, pp.HighestUnlocked)
	if err != nil {
		return nil, mapCurriculumErr(err)
	}
	if retired := pr.Retired(); len(retired) > 0 {
		s.log.Warn("completions no longer in catalog", "user_id", userID, "pillar", pillar, "modules", retired)
	}
	return pr, nil
}

func mapCurriculumErr(err error) error {
	switch {
	case errors.Is(err, curriculum.ErrUnknownPillar), errors.Is(err, curriculum.ErrUnknownModule):
		return fmt.Errorf("%w: %w", pkgerrors.ErrNotFound, err)
	case errors.Is(err, curriculum.ErrLevelLocked), errors.Is(err, curriculum.ErrModuleLocked):
		return fmt.Errorf("%w: %w", pkgerrors.ErrForbidden, err)
	case errors.Is(err, curriculum.ErrAlreadyCompleted), errors.Is(err, curriculum.ErrCurriculumFinished):
		return fmt.Errorf("%w: %w", pkgerrors.ErrConflict, err)
	default:
		return err
	}
}
