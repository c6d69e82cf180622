package app

import (
	"context"
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/tradeguild-backend/internal/data/repos/community"
	"github.com/yungbote/tradeguild-backend/internal/domain"
	"github.com/yungbote/tradeguild-backend/internal/pkg/dbctx"
)

//go:embed seed/categories.yaml
var categorySeed []byte

type categoryDef struct {
	ID            string                   `yaml:"id"`
	Name          string                   `yaml:"name"`
	Description   string                   `yaml:"description"`
	Settings      *domain.CategorySettings `yaml:"settings"`
	Subcategories []categoryDef            `yaml:"subcategories"`
}

// parseCategories flattens the seed tree parents first. Subcategories
// without settings inherit their parent's.
func parseCategories(raw []byte) ([]*domain.Category, error) {
	var defs []categoryDef
	if err := yaml.Unmarshal(raw, &defs); err != nil {
		return nil, fmt.Errorf("parse category seed: %w", err)
	}
	var out []*domain.Category
	seen := map[string]bool{}
	var walk func(defs []categoryDef, parent *domain.Category) error
	walk = func(defs []categoryDef, parent *domain.Category) error {
		for _, d := range defs {
			if d.ID == "" || d.Name == "" {
				return fmt.Errorf("category seed: id and name are required")
			}
			if seen[d.ID] {
				return fmt.Errorf("category seed: duplicate id %q", d.ID)
			}
			seen[d.ID] = true
			c := &domain.Category{ID: d.ID, Name: d.Name, Description: d.Description}
			switch {
			case d.Settings != nil:
				c.Settings = *d.Settings
			case parent != nil:
				c.Settings = parent.Settings
			default:
				c.Settings = domain.DefaultCategorySettings()
			}
			if parent != nil {
				c.ParentID = &parent.ID
			}
			out = append(out, c)
			if err := walk(d.Subcategories, c); err != nil {
				return err
			}
		}
		return nil
	}
	if err := walk(defs, nil); err != nil {
		return nil, err
	}
	return out, nil
}

func seedCategories(ctx context.Context, repo community.CategoryRepo) (int, error) {
	cats, err := parseCategories(categorySeed)
	if err != nil {
		return 0, err
	}
	dbc := dbctx.New(ctx)
	for _, c := range cats {
		if err := repo.Upsert(dbc, c); err != nil {
			return 0, fmt.Errorf("seed category %s: %w", c.ID, err)
		}
	}
	return len(cats), nil
}
