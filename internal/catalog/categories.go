package catalog

import (
	_ "embed"
	"fmt"
	"slices"
	"sync"

	"gopkg.in/yaml.v3"

	"doccatalog/internal/model"
)

//go:embed categories.yaml
var categoriesYAML []byte

const (
	fallbackColor = "secondary"
	fallbackIcon  = "File"
)

var (
	loadCategoriesOnce sync.Once
	defaultCategories  []model.Category
)

// DefaultCategories returns the fixed category registry. The list is
// embedded at build time; a malformed file is a programming error.
func DefaultCategories() []model.Category {
	loadCategoriesOnce.Do(func() {
		cats, err := parseCategories(categoriesYAML)
		if err != nil {
			panic(err)
		}
		defaultCategories = cats
	})
	return slices.Clone(defaultCategories)
}

func parseCategories(data []byte) ([]model.Category, error) {
	var cats []model.Category
	if err := yaml.Unmarshal(data, &cats); err != nil {
		return nil, fmt.Errorf("parse categories: %w", err)
	}
	seen := make(map[string]bool, len(cats))
	for _, c := range cats {
		if c.ID == "" {
			return nil, fmt.Errorf("parse categories: entry %q has no id", c.Name)
		}
		if seen[c.ID] {
			return nil, fmt.Errorf("parse categories: duplicate id %q", c.ID)
		}
		seen[c.ID] = true
	}
	return cats, nil
}

// Categories returns the registry this store was built with.
func (s *Store) Categories() []model.Category {
	return slices.Clone(s.categories)
}

// Category looks up a category by id.
func (s *Store) Category(id string) (model.Category, bool) {
	i := slices.IndexFunc(s.categories, func(c model.Category) bool { return c.ID == id })
	if i < 0 {
		return model.Category{}, false
	}
	return s.categories[i], true
}

// ColorFor returns the badge color of a category id, or "secondary" when the
// id is not registered.
func ColorFor(categoryID string) string {
	for _, c := range DefaultCategories() {
		if c.ID == categoryID {
			return c.Color
		}
	}
	return fallbackColor
}

// IconFor returns the icon for a document type. Types are matched against
// category ids; anything else gets the generic file icon.
func IconFor(docType string) string {
	for _, c := range DefaultCategories() {
		if c.ID == docType {
			return c.Icon
		}
	}
	return fallbackIcon
}
