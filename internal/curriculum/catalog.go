// Package curriculum models the XP-gated learning pillars: the static level
// catalog and the per-learner unlock state machine over it.
package curriculum

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/tradeguild-backend/internal/domain"
	"github.com/yungbote/tradeguild-backend/internal/platform/logger"
)

//go:embed pillars/*.yaml
var embeddedPillars embed.FS

var ErrUnknownPillar = errors.New("unknown pillar")

type Pillar struct {
	Key         string                 `yaml:"key" json:"key"`
	Name        string                 `yaml:"name" json:"name"`
	Description string                 `yaml:"description" json:"description"`
	Levels      []domain.LearningLevel `yaml:"levels" json:"levels"`
}

// TotalXP is the XP available across every level of the pillar.
func (p *Pillar) TotalXP() int {
	total := 0
	for _, l := range p.Levels {
		total += l.TotalXP()
	}
	return total
}

type moduleRef struct {
	level int // index into Levels
	index int // index into Levels[level].Modules
}

// Catalog is an immutable, validated set of pillars.
type Catalog struct {
	pillars map[string]*Pillar
	order   []string
	modules map[string]map[string]moduleRef
}

// LoadCatalog reads pillar YAML from dir, or from the embedded defaults when
// dir is empty.
func LoadCatalog(dir string, log *logger.Logger) (*Catalog, error) {
	var fsys fs.FS = embeddedPillars
	root := "pillars"
	if strings.TrimSpace(dir) != "" {
		fsys = os.DirFS(dir)
		root = "."
	}
	c, err := LoadCatalogFS(fsys, root)
	if err != nil {
		return nil, err
	}
	if log != nil {
		log.Info("curriculum catalog loaded", "pillars", len(c.order), "source", dirOrEmbedded(dir))
	}
	return c, nil
}

func LoadCatalogFS(fsys fs.FS, root string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("read curriculum dir: %w", err)
	}
	var pillars []*Pillar
	for _, e := range entries {
		if e.IsDir() || !(strings.HasSuffix(e.Name(), ".yaml") || strings.HasSuffix(e.Name(), ".yml")) {
			continue
		}
		raw, err := fs.ReadFile(fsys, path.Join(root, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", e.Name(), err)
		}
		var p Pillar
		if err := yaml.Unmarshal(raw, &p); err != nil {
			return nil, fmt.Errorf("parse %s: %w", e.Name(), err)
		}
		pillars = append(pillars, &p)
	}
	return NewCatalog(pillars...)
}

// NewCatalog validates pillars and indexes them by key.
func NewCatalog(pillars ...*Pillar) (*Catalog, error) {
	if len(pillars) == 0 {
		return nil, errors.New("curriculum: no pillars defined")
	}
	c := &Catalog{
		pillars: make(map[string]*Pillar, len(pillars)),
		modules: make(map[string]map[string]moduleRef, len(pillars)),
	}
	for _, p := range pillars {
		if err := Validate(p); err != nil {
			return nil, err
		}
		if _, dup := c.pillars[p.Key]; dup {
			return nil, fmt.Errorf("curriculum: duplicate pillar %q", p.Key)
		}
		c.pillars[p.Key] = p
		c.order = append(c.order, p.Key)
		refs := make(map[string]moduleRef)
		for li, l := range p.Levels {
			for mi, m := range l.Modules {
				refs[m.Key] = moduleRef{level: li, index: mi}
			}
		}
		c.modules[p.Key] = refs
	}
	sort.Strings(c.order)
	return c, nil
}

func (c *Catalog) Pillar(key string) (*Pillar, error) {
	p, ok := c.pillars[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPillar, key)
	}
	return p, nil
}

// Pillars returns every pillar ordered by key.
func (c *Catalog) Pillars() []*Pillar {
	out := make([]*Pillar, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.pillars[k])
	}
	return out
}

// Validate checks the structural rules the unlock machine relies on: levels
// numbered 1..N, modules ordered 1..n, unique keys, non-decreasing thresholds
// that earlier levels can actually reach.
func Validate(p *Pillar) error {
	if p == nil {
		return errors.New("curriculum: nil pillar")
	}
	if strings.TrimSpace(p.Key) == "" {
		return errors.New("curriculum: pillar key required")
	}
	if len(p.Levels) == 0 {
		return fmt.Errorf("curriculum %s: no levels", p.Key)
	}
	seen := map[string]bool{}
	reachable := 0
	prevReq := 0
	for i, l := range p.Levels {
		if l.Level != i+1 {
			return fmt.Errorf("curriculum %s: level %d found at position %d", p.Key, l.Level, i+1)
		}
		switch l.Tier {
		case domain.TierBeginner, domain.TierIntermediate, domain.TierProfessional:
		default:
			return fmt.Errorf("curriculum %s: level %d has unknown tier %q", p.Key, l.Level, l.Tier)
		}
		if l.UnlockRequirement < prevReq {
			return fmt.Errorf("curriculum %s: level %d threshold %d below previous %d", p.Key, l.Level, l.UnlockRequirement, prevReq)
		}
		if i > 0 && l.UnlockRequirement > reachable {
			return fmt.Errorf("curriculum %s: level %d needs %d XP but only %d is available before it", p.Key, l.Level, l.UnlockRequirement, reachable)
		}
		if len(l.Modules) == 0 {
			return fmt.Errorf("curriculum %s: level %d has no modules", p.Key, l.Level)
		}
		for j, m := range l.Modules {
			if m.OrderIndex != j+1 {
				return fmt.Errorf("curriculum %s: level %d module %q has order %d, want %d", p.Key, l.Level, m.Key, m.OrderIndex, j+1)
			}
			if m.Key == "" || seen[m.Key] {
				return fmt.Errorf("curriculum %s: missing or duplicate module key %q", p.Key, m.Key)
			}
			seen[m.Key] = true
			switch m.Type {
			case domain.ModuleLesson, domain.ModuleQuiz, domain.ModuleChallenge, domain.ModuleReflection:
			default:
				return fmt.Errorf("curriculum %s: module %q has unknown type %q", p.Key, m.Key, m.Type)
			}
			if m.XPReward < 0 {
				return fmt.Errorf("curriculum %s: module %q has negative xp", p.Key, m.Key)
			}
		}
		prevReq = l.UnlockRequirement
		reachable += l.TotalXP()
	}
	return nil
}

func dirOrEmbedded(dir string) string {
	if strings.TrimSpace(dir) == "" {
		return "embedded"
	}
	return dir
}
