// Package classify resolves the internal category of an item.
//
// Resolution order, first match wins: per-item overrides (the feature snapshot's
// overrides, then the taxonomy file's), then the platform's native category map.
// Anything else is left to the AI enricher and reads as "other" until then.
package classify

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/erazemk/setupcatalog/internal/model"
)

//go:embed taxonomy.yaml
var defaultTaxonomy []byte

// Taxonomy holds the override and platform category tables.
type Taxonomy struct {
	Overrides map[string]model.Category                 `yaml:"overrides"`
	Platforms map[model.Platform]map[int]model.Category `yaml:"platforms"`
}

// Classifier resolves categories from a Taxonomy. It is safe for concurrent use
// because the tables are never mutated after construction.
type Classifier struct {
	tax Taxonomy
}

// Default returns a classifier backed by the embedded taxonomy.
func Default() *Classifier {
	c, err := Parse(defaultTaxonomy)
	if err != nil {
		panic(fmt.Sprintf("embedded taxonomy: %v", err))
	}
	return c
}

// LoadFile reads a taxonomy YAML file.
func LoadFile(path string) (*Classifier, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading taxonomy: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing taxonomy %s: %w", path, err)
	}
	return c, nil
}

// Parse builds a classifier from taxonomy YAML, rejecting unknown platforms
// and categories.
func Parse(data []byte) (*Classifier, error) {
	var tax Taxonomy
	if err := yaml.Unmarshal(data, &tax); err != nil {
		return nil, err
	}

	overrides := make(map[string]model.Category, len(tax.Overrides))
	for key, cat := range tax.Overrides {
		if !cat.Valid() {
			return nil, fmt.Errorf("override %q: unknown category %q", key, cat)
		}
		overrides[model.NormalizeKey(key)] = cat
	}
	tax.Overrides = overrides
	for p, table := range tax.Platforms {
		if !p.Valid() {
			return nil, fmt.Errorf("unknown platform %q", p)
		}
		for id, cat := range table {
			if !cat.Valid() {
				return nil, fmt.Errorf("%s category %d: unknown category %q", p, id, cat)
			}
		}
	}

	return &Classifier{tax: tax}, nil
}

// Resolve picks a category for an item: snapshot overrides first, then the
// taxonomy's override table, then the platform category map. The source tells
// which rule matched; SourceDefault means none did and the category is other.
func (c *Classifier) Resolve(p model.Platform, platformCategoryID int, itemID string, overrides map[string]model.Category) (model.Category, model.CategorySource) {
	key := model.ItemKey{Platform: p, ID: itemID}.String()

	if cat, ok := overrides[key]; ok && cat.Valid() {
		return cat, model.SourceOverride
	}
	if cat, ok := c.tax.Overrides[key]; ok {
		return cat, model.SourceOverride
	}
	if platformCategoryID != 0 {
		if cat, ok := c.tax.Platforms[p][platformCategoryID]; ok {
			return cat, model.SourceTaxonomy
		}
	}
	return model.CategoryOther, model.SourceDefault
}

// Classify is Resolve reporting only whether a table matched.
func (c *Classifier) Classify(p model.Platform, platformCategoryID int, itemID string, overrides map[string]model.Category) (model.Category, bool) {
	cat, source := c.Resolve(p, platformCategoryID, itemID, overrides)
	return cat, source.Deterministic()
}
