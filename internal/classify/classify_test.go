package classify

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/erazemk/setupcatalog/internal/model"
)

func TestClassifyPrecedence(t *testing.T) {
	c, err := Parse([]byte(`
overrides:
  "booth:100": shader
platforms:
  booth:
    209: clothing
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	tests := []struct {
		name          string
		platform      model.Platform
		categoryID    int
		itemID        string
		overrides     map[string]model.Category
		want          model.Category
		deterministic bool
	}{
		{"override beats taxonomy", model.PlatformBooth, 209, "100", nil, model.CategoryShader, true},
		{"taxonomy match", model.PlatformBooth, 209, "101", nil, model.CategoryClothing, true},
		{"snapshot override beats file override", model.PlatformBooth, 209, "100",
			map[string]model.Category{"booth:100": model.CategoryTool}, model.CategoryTool, true},
		{"invalid snapshot override ignored", model.PlatformBooth, 209, "101",
			map[string]model.Category{"booth:101": "bogus"}, model.CategoryClothing, true},
		{"unknown category id", model.PlatformBooth, 999, "102", nil, model.CategoryOther, false},
		{"platform without taxonomy", model.PlatformGitHub, 0, "octo/repo", nil, model.CategoryOther, false},
		{"override on platform without taxonomy", model.PlatformGitHub, 0, "octo/repo",
			map[string]model.Category{"github:octo/repo": model.CategoryShader}, model.CategoryShader, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, det := c.Classify(tt.platform, tt.categoryID, tt.itemID, tt.overrides)
			if got != tt.want || det != tt.deterministic {
				t.Errorf("expected (%s, %v), got (%s, %v)", tt.want, tt.deterministic, got, det)
			}
		})
	}
}

func TestDefaultTaxonomyLoads(t *testing.T) {
	c := Default()
	if got, det := c.Classify(model.PlatformBooth, 209, "1", nil); got != model.CategoryClothing || !det {
		t.Errorf("expected clothing, got %s (deterministic=%v)", got, det)
	}
}

func TestParseRejectsUnknownValues(t *testing.T) {
	inputs := map[string]string{
		"category": "platforms:\n  booth:\n    1: spaceship\n",
		"platform": "platforms:\n  gumroad:\n    1: avatar\n",
		"override": "overrides:\n  \"booth:1\": spaceship\n",
	}
	for name, in := range inputs {
		if _, err := Parse([]byte(in)); err == nil {
			t.Errorf("%s: expected error", name)
		}
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	if err := os.WriteFile(path, []byte("platforms:\n  booth:\n    5: hair\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got, _ := c.Classify(model.PlatformBooth, 5, "1", nil); got != model.CategoryHair {
		t.Errorf("expected hair, got %s", got)
	}

	if _, err := LoadFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestResolveSource(t *testing.T) {
	c, err := Parse([]byte(`
overrides:
  "github:Octo/Shader": shader
platforms:
  booth:
    209: clothing
`))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	tests := []struct {
		name       string
		platform   model.Platform
		categoryID int
		itemID     string
		overrides  map[string]model.Category
		want       model.Category
		source     model.CategorySource
	}{
		{"snapshot override", model.PlatformBooth, 209, "1",
			map[string]model.Category{"booth:1": model.CategoryTool}, model.CategoryTool, model.SourceOverride},
		{"file override with normalized key", model.PlatformGitHub, 0, "octo/shader", nil,
			model.CategoryShader, model.SourceOverride},
		{"taxonomy", model.PlatformBooth, 209, "2", nil, model.CategoryClothing, model.SourceTaxonomy},
		{"no match", model.PlatformBooth, 999, "3", nil, model.CategoryOther, model.SourceDefault},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, source := c.Resolve(tt.platform, tt.categoryID, tt.itemID, tt.overrides)
			if got != tt.want || source != tt.source {
				t.Errorf("expected (%s, %s), got (%s, %s)", tt.want, tt.source, got, source)
			}
		})
	}
}
