package curriculum

import (
	"errors"
	"reflect"
	"testing"

	"github.com/yungbote/tradeguild-backend/internal/domain"
)

// boundaryCatalog has level 2 gated at exactly 575 XP.
func boundaryCatalog(t *testing.T) *Catalog {
	t.Helper()
	c, err := NewCatalog(&Pillar{
		Key: "capital",
		Levels: []domain.LearningLevel{
			{Level: 1, Tier: domain.TierBeginner, Modules: []domain.LearningModule{
				{Key: "m1", OrderIndex: 1, Type: domain.ModuleLesson, XPReward: 500},
				{Key: "m2", OrderIndex: 2, Type: domain.ModuleQuiz, XPReward: 60},
				{Key: "m3", OrderIndex: 3, Type: domain.ModuleReflection, XPReward: 15},
			}},
			{Level: 2, Tier: domain.TierIntermediate, UnlockRequirement: 575, Modules: []domain.LearningModule{
				{Key: "m4", OrderIndex: 1, Type: domain.ModuleLesson, XPReward: 100},
				{Key: "m5", OrderIndex: 2, Type: domain.ModuleChallenge, XPReward: 100},
			}},
		},
	})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	return c
}

func mustComplete(t *testing.T, p *Progress, key string) Transition {
	t.Helper()
	tr, err := p.Complete(key)
	if err != nil {
		t.Fatalf("Complete(%s): %v", key, err)
	}
	return tr
}

func TestUnlockBoundaryInclusive(t *testing.T) {
	p, err := boundaryCatalog(t).NewProgress("capital", nil, 0)
	if err != nil {
		t.Fatalf("NewProgress: %v", err)
	}
	if !p.IsLevelUnlocked(1) || p.IsLevelUnlocked(2) {
		t.Fatalf("initial unlock state wrong: highest=%d", p.HighestUnlocked())
	}
	mustComplete(t, p, "m1")
	tr := mustComplete(t, p, "m2")
	if tr.EarnedXP != 560 || p.IsLevelUnlocked(2) || len(tr.NewlyUnlocked) != 0 {
		t.Fatalf("at 560 XP: earned=%d unlocked2=%v newly=%v", tr.EarnedXP, p.IsLevelUnlocked(2), tr.NewlyUnlocked)
	}
	if need, ok := p.XPToNextLevel(); !ok || need != 15 {
		t.Fatalf("XPToNextLevel=%d,%v, want 15,true", need, ok)
	}
	tr = mustComplete(t, p, "m3")
	if tr.EarnedXP != 575 || !p.IsLevelUnlocked(2) || !reflect.DeepEqual(tr.NewlyUnlocked, []int{2}) {
		t.Fatalf("at 575 XP: earned=%d unlocked2=%v newly=%v", tr.EarnedXP, p.IsLevelUnlocked(2), tr.NewlyUnlocked)
	}
	if _, ok := p.XPToNextLevel(); ok {
		t.Fatalf("XPToNextLevel should report no further level")
	}
}

func TestCompleteGating(t *testing.T) {
	p, _ := boundaryCatalog(t).NewProgress("capital", nil, 0)

	if _, err := p.Complete("m2"); !errors.Is(err, ErrModuleLocked) {
		t.Fatalf("out of order: err=%v, want ErrModuleLocked", err)
	}
	if _, err := p.Complete("m4"); !errors.Is(err, ErrLevelLocked) {
		t.Fatalf("locked level: err=%v, want ErrLevelLocked", err)
	}
	if _, err := p.Complete("nope"); !errors.Is(err, ErrUnknownModule) {
		t.Fatalf("unknown: err=%v, want ErrUnknownModule", err)
	}
	mustComplete(t, p, "m1")
	if _, err := p.Complete("m1"); !errors.Is(err, ErrAlreadyCompleted) {
		t.Fatalf("repeat: err=%v, want ErrAlreadyCompleted", err)
	}
	if p.EarnedXP() != 500 {
		t.Fatalf("EarnedXP=%d after rejected completions, want 500", p.EarnedXP())
	}
}

func TestTerminalState(t *testing.T) {
	p, _ := boundaryCatalog(t).NewProgress("capital", nil, 0)
	var last Transition
	for _, k := range []string{"m1", "m2", "m3", "m4", "m5"} {
		if p.Finished() {
			t.Fatalf("finished before %s", k)
		}
		last = mustComplete(t, p, k)
	}
	if !last.Finished || !p.Finished() {
		t.Fatalf("expected terminal state after last module")
	}
	if _, _, err := p.NextModule(); !errors.Is(err, ErrCurriculumFinished) {
		t.Fatalf("NextModule err=%v, want ErrCurriculumFinished", err)
	}
	if !reflect.DeepEqual(p.CompletedKeys(), []string{"m1", "m2", "m3", "m4", "m5"}) {
		t.Fatalf("CompletedKeys=%v", p.CompletedKeys())
	}
}

func TestRestoreProgress(t *testing.T) {
	c := boundaryCatalog(t)

	p, err := c.NewProgress("capital", []string{"m1", "m2", "m3"}, 1)
	if err != nil {
		t.Fatalf("NewProgress: %v", err)
	}
	if p.HighestUnlocked() != 2 {
		t.Fatalf("restored progress should unlock level 2, got %d", p.HighestUnlocked())
	}

	// A stored high-water mark is kept even when XP alone would not reach it.
	kept, _ := c.NewProgress("capital", []string{"m1"}, 2)
	if !kept.IsLevelUnlocked(2) {
		t.Fatalf("unlock high-water mark was lowered")
	}
	if m, level, err := kept.NextModule(); err != nil || m.Key != "m2" || level != 1 {
		t.Fatalf("NextModule=%s,%d,%v want m2,1", m.Key, level, err)
	}

	if _, err := c.NewProgress("nope", nil, 0); !errors.Is(err, ErrUnknownPillar) {
		t.Fatalf("unknown pillar err=%v", err)
	}
}

func TestRestoreSkipsRetiredModules(t *testing.T) {
	c := boundaryCatalog(t)

	p, err := c.NewProgress("capital", []string{"m1", "m2", "m-retired"}, 2)
	if err != nil {
		t.Fatalf("NewProgress: %v", err)
	}
	if !reflect.DeepEqual(p.Retired(), []string{"m-retired"}) {
		t.Fatalf("Retired=%v, want [m-retired]", p.Retired())
	}
	if p.EarnedXP() != 560 {
		t.Fatalf("EarnedXP=%d, want 560", p.EarnedXP())
	}
	if p.IsCompleted("m-retired") {
		t.Fatalf("retired module counted as completed")
	}
	if p.HighestUnlocked() != 2 {
		t.Fatalf("HighestUnlocked=%d, want stored 2", p.HighestUnlocked())
	}
	if tr := mustComplete(t, p, "m3"); tr.EarnedXP != 575 {
		t.Fatalf("EarnedXP after m3=%d, want 575", tr.EarnedXP)
	}
}

func TestNextModuleBlockedByThreshold(t *testing.T) {
	c, err := NewCatalog(&Pillar{
		Key: "gap",
		Levels: []domain.LearningLevel{
			{Level: 1, Tier: domain.TierBeginner, Modules: []domain.LearningModule{
				{Key: "a", OrderIndex: 1, Type: domain.ModuleLesson, XPReward: 10},
				{Key: "b", OrderIndex: 2, Type: domain.ModuleLesson, XPReward: 10},
			}},
			{Level: 2, Tier: domain.TierBeginner, UnlockRequirement: 20, Modules: []domain.LearningModule{
				{Key: "c", OrderIndex: 1, Type: domain.ModuleLesson, XPReward: 10},
			}},
		},
	})
	if err != nil {
		t.Fatalf("NewCatalog: %v", err)
	}
	p, _ := c.NewProgress("gap", []string{"a"}, 0)
	if m, _, err := p.NextModule(); err != nil || m.Key != "b" {
		t.Fatalf("NextModule=%s,%v", m.Key, err)
	}
}

func TestStatus(t *testing.T) {
	p, _ := boundaryCatalog(t).NewProgress("capital", []string{"m1"}, 0)
	st := p.Status()
	if len(st) != 2 {
		t.Fatalf("levels=%d", len(st))
	}
	l1, l2 := st[0], st[1]
	if l1.Locked || l1.Completed || l1.TotalXP != 575 {
		t.Fatalf("level1=%+v", l1)
	}
	if !l1.Modules[0].Completed || l1.Modules[0].Actionable {
		t.Fatalf("m1 status=%+v", l1.Modules[0])
	}
	if !l1.Modules[1].Actionable || l1.Modules[1].Locked {
		t.Fatalf("m2 status=%+v", l1.Modules[1])
	}
	if !l1.Modules[2].Locked || l1.Modules[2].Actionable {
		t.Fatalf("m3 status=%+v", l1.Modules[2])
	}
	if !l2.Locked || !l2.Modules[0].Locked || l2.UnlockRequirement != 575 {
		t.Fatalf("level2=%+v", l2)
	}
}

func TestEmbeddedPillarsCompletable(t *testing.T) {
	c, err := LoadCatalog("", nil)
	if err != nil {
		t.Fatalf("LoadCatalog: %v", err)
	}
	for _, pillar := range c.Pillars() {
		t.Run(pillar.Key, func(t *testing.T) {
			p, err := c.NewProgress(pillar.Key, nil, 0)
			if err != nil {
				t.Fatalf("NewProgress: %v", err)
			}
			for !p.Finished() {
				m, _, err := p.NextModule()
				if err != nil {
					t.Fatalf("stuck at %d XP: %v", p.EarnedXP(), err)
				}
				mustComplete(t, p, m.Key)
			}
			if p.EarnedXP() != pillar.TotalXP() {
				t.Fatalf("EarnedXP=%d, want %d", p.EarnedXP(), pillar.TotalXP())
			}
		})
	}
}
