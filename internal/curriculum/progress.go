package curriculum

import (
	"errors"
	"fmt"

	"github.com/yungbote/tradeguild-backend/internal/domain"
)

var (
	ErrUnknownModule      = errors.New("unknown module")
	ErrLevelLocked        = errors.New("level is locked")
	ErrModuleLocked       = errors.New("previous module not completed")
	ErrAlreadyCompleted   = errors.New("module already completed")
	ErrCurriculumFinished = errors.New("curriculum already finished")
)

// Progress is one learner's position in a pillar. Unlocked levels only ever
// grow: the high-water mark survives even if the catalog later raises a
// threshold.
type Progress struct {
	pillar          *Pillar
	refs            map[string]moduleRef
	completed       map[string]bool
	highestUnlocked int
	retired         []string
}

// Transition describes the effect of completing one module.
type Transition struct {
	Module        domain.LearningModule `json:"module"`
	Level         int                   `json:"level"`
	XPAwarded     int                   `json:"xp_awarded"`
	EarnedXP      int                   `json:"earned_xp"`
	NewlyUnlocked []int                 `json:"newly_unlocked"`
	Finished      bool                  `json:"finished"`
}

// NewProgress restores a learner's state from completed module keys and the
// stored unlock high-water mark (0 if none was stored). Keys the catalog no
// longer knows are skipped and reported by Retired; they earn no XP.
func (c *Catalog) NewProgress(pillarKey string, completed []string, highestUnlocked int) (*Progress, error) {
	p, err := c.Pillar(pillarKey)
	if err != nil {
		return nil, err
	}
	pr := &Progress{
		pillar:          p,
		refs:            c.modules[pillarKey],
		completed:       make(map[string]bool, len(completed)),
		highestUnlocked: max(1, min(highestUnlocked, len(p.Levels))),
	}
	for _, key := range completed {
		if _, ok := pr.refs[key]; !ok {
			pr.retired = append(pr.retired, key)
			continue
		}
		pr.completed[key] = true
	}
	pr.advance()
	return pr, nil
}

func (p *Progress) Pillar() *Pillar { return p.pillar }

func (p *Progress) HighestUnlocked() int { return p.highestUnlocked }

// Retired lists stored completions that no longer exist in the catalog.
func (p *Progress) Retired() []string { return p.retired }

func (p *Progress) IsLevelUnlocked(level int) bool {
	return level >= 1 && level <= p.highestUnlocked
}

func (p *Progress) IsCompleted(moduleKey string) bool { return p.completed[moduleKey] }

// EarnedXP sums the rewards of every completed module.
func (p *Progress) EarnedXP() int {
	total := 0
	for _, l := range p.pillar.Levels {
		for _, m := range l.Modules {
			if p.completed[m.Key] {
				total += m.XPReward
			}
		}
	}
	return total
}

// CompletedKeys lists completed modules in curriculum order.
func (p *Progress) CompletedKeys() []string {
	var out []string
	for _, l := range p.pillar.Levels {
		for _, m := range l.Modules {
			if p.completed[m.Key] {
				out = append(out, m.Key)
			}
		}
	}
	return out
}

// Finished reports whether the last module of the last level is complete.
func (p *Progress) Finished() bool {
	last := p.pillar.Levels[len(p.pillar.Levels)-1]
	return p.completed[last.Modules[len(last.Modules)-1].Key]
}

// Actionable reports whether moduleKey can be completed now.
func (p *Progress) Actionable(moduleKey string) bool {
	return p.check(moduleKey) == nil
}

func (p *Progress) check(moduleKey string) error {
	ref, ok := p.refs[moduleKey]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownModule, moduleKey)
	}
	level := p.pillar.Levels[ref.level]
	switch {
	case p.completed[moduleKey]:
		return ErrAlreadyCompleted
	case !p.IsLevelUnlocked(level.Level):
		return fmt.Errorf("%w: level %d needs %d XP", ErrLevelLocked, level.Level, level.UnlockRequirement)
	case ref.index > 0 && !p.completed[level.Modules[ref.index-1].Key]:
		return fmt.Errorf("%w: complete %q first", ErrModuleLocked, level.Modules[ref.index-1].Key)
	}
	return nil
}

// Complete marks moduleKey done and unlocks any levels the new XP total reaches.
func (p *Progress) Complete(moduleKey string) (Transition, error) {
	if err := p.check(moduleKey); err != nil {
		return Transition{}, err
	}
	ref := p.refs[moduleKey]
	level := p.pillar.Levels[ref.level]
	mod := level.Modules[ref.index]

	p.completed[moduleKey] = true
	return Transition{
		Module:        mod,
		Level:         level.Level,
		XPAwarded:     mod.XPReward,
		EarnedXP:      p.EarnedXP(),
		NewlyUnlocked: p.advance(),
		Finished:      p.Finished(),
	}, nil
}

// NextModule returns the first actionable module in curriculum order.
func (p *Progress) NextModule() (domain.LearningModule, int, error) {
	for _, l := range p.pillar.Levels {
		for _, m := range l.Modules {
			if p.Actionable(m.Key) {
				return m, l.Level, nil
			}
		}
	}
	if p.Finished() {
		return domain.LearningModule{}, 0, ErrCurriculumFinished
	}
	next := p.pillar.Levels[p.highestUnlocked]
	return domain.LearningModule{}, 0, fmt.Errorf("%w: level %d needs %d XP", ErrLevelLocked, next.Level, next.UnlockRequirement)
}

// XPToNextLevel is the XP still needed to unlock the next locked level.
func (p *Progress) XPToNextLevel() (int, bool) {
	if p.highestUnlocked >= len(p.pillar.Levels) {
		return 0, false
	}
	next := p.pillar.Levels[p.highestUnlocked]
	return max(0, next.UnlockRequirement-p.xpThrough(p.highestUnlocked)), true
}

// xpThrough sums completed XP in levels 1..level.
func (p *Progress) xpThrough(level int) int {
	total := 0
	for _, l := range p.pillar.Levels[:level] {
		for _, m := range l.Modules {
			if p.completed[m.Key] {
				total += m.XPReward
			}
		}
	}
	return total
}

// advance raises the high-water mark while the XP earned in unlocked levels
// meets the next threshold. It never lowers it.
func (p *Progress) advance() []int {
	var unlocked []int
	for p.highestUnlocked < len(p.pillar.Levels) {
		next := p.pillar.Levels[p.highestUnlocked]
		if p.xpThrough(p.highestUnlocked) < next.UnlockRequirement {
			break
		}
		p.highestUnlocked++
		unlocked = append(unlocked, next.Level)
	}
	return unlocked
}

type ModuleStatus struct {
	domain.LearningModule
	Completed  bool `json:"completed"`
	Locked     bool `json:"locked"`
	Actionable bool `json:"actionable"`
}

type LevelStatus struct {
	Level             int            `json:"level"`
	Title             string         `json:"title"`
	Tier              domain.Tier    `json:"tier"`
	UnlockRequirement int            `json:"unlock_requirement"`
	TotalXP           int            `json:"total_xp"`
	Locked            bool           `json:"locked"`
	Completed         bool           `json:"completed"`
	Modules           []ModuleStatus `json:"modules"`
}

// Status renders every level with derived lock and completion flags.
func (p *Progress) Status() []LevelStatus {
	out := make([]LevelStatus, 0, len(p.pillar.Levels))
	for _, l := range p.pillar.Levels {
		ls := LevelStatus{
			Level:             l.Level,
			Title:             l.Title,
			Tier:              l.Tier,
			UnlockRequirement: l.UnlockRequirement,
			TotalXP:           l.TotalXP(),
			Locked:            !p.IsLevelUnlocked(l.Level),
			Completed:         true,
			Modules:           make([]ModuleStatus, 0, len(l.Modules)),
		}
		for i, m := range l.Modules {
			done := p.completed[m.Key]
			prevDone := i == 0 || p.completed[l.Modules[i-1].Key]
			ls.Modules = append(ls.Modules, ModuleStatus{
				LearningModule: m,
				Completed:      done,
				Locked:         ls.Locked || !prevDone,
				Actionable:     !done && !ls.Locked && prevDone,
			})
			if !done {
				ls.Completed = false
			}
		}
		out = append(out, ls)
	}
	return out
}
