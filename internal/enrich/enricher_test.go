package enrich

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/erazemk/setupcatalog/internal/classify"
	"github.com/erazemk/setupcatalog/internal/db"
	"github.com/erazemk/setupcatalog/internal/model"
	"github.com/erazemk/setupcatalog/internal/store"
)

type stubAI struct {
	suggestion classify.Suggestion
	err        error
}

func (s stubAI) Classify(context.Context, string, string, model.Category) (classify.Suggestion, error) {
	return s.suggestion, s.err
}

func seedItem(t *testing.T, e *Enricher, category model.Category) {
	t.Helper()
	err := store.SaveListing(context.Background(), e.DB,
		&model.Shop{ID: "octo", Platform: model.PlatformGitHub, Name: "octo"},
		&model.Item{ID: "octo/repo", Platform: model.PlatformGitHub, Category: category, Name: "repo",
			ShopID: "octo", UpdatedAt: time.Now()},
	)
	if err != nil {
		t.Fatalf("seeding item: %v", err)
	}
}

func TestEnrichStoresSuggestion(t *testing.T) {
	e := &Enricher{
		DB: db.NewTestDB(t),
		AI: stubAI{suggestion: classify.Suggestion{NiceName: "Octo Repo", Category: model.CategoryTool}},
	}
	seedItem(t, e, model.CategoryOther)

	err := e.Enrich(context.Background(), Task{Platform: model.PlatformGitHub, ItemID: "octo/repo", Name: "repo"})
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}

	item, _ := store.GetItem(context.Background(), e.DB, model.PlatformGitHub, "octo/repo")
	if item.NiceName != "Octo Repo" {
		t.Errorf("expected nice name 'Octo Repo', got %q", item.NiceName)
	}
	if item.Category != model.CategoryTool {
		t.Errorf("expected category tool, got %s", item.Category)
	}
}

func TestEnrichKeepsDeterministicCategory(t *testing.T) {
	e := &Enricher{
		DB: db.NewTestDB(t),
		AI: stubAI{suggestion: classify.Suggestion{NiceName: "Octo Repo", Category: model.CategoryTool}},
	}
	seedItem(t, e, model.CategoryShader)

	err := e.Enrich(context.Background(), Task{
		Platform: model.PlatformGitHub, ItemID: "octo/repo", Name: "repo",
		Category: model.CategoryShader, Deterministic: true,
	})
	if err != nil {
		t.Fatalf("enrich: %v", err)
	}

	item, _ := store.GetItem(context.Background(), e.DB, model.PlatformGitHub, "octo/repo")
	if item.Category != model.CategoryShader {
		t.Errorf("expected deterministic category to be kept, got %s", item.Category)
	}
	if item.NiceName != "Octo Repo" {
		t.Errorf("expected nice name to be set, got %q", item.NiceName)
	}
}

func TestEnrichAIFailure(t *testing.T) {
	e := &Enricher{DB: db.NewTestDB(t), AI: classify.Disabled{}}
	seedItem(t, e, model.CategoryOther)

	err := e.Enrich(context.Background(), Task{Platform: model.PlatformGitHub, ItemID: "octo/repo", Name: "repo"})
	if !errors.Is(err, classify.ErrAIUnavailable) {
		t.Fatalf("expected ErrAIUnavailable, got %v", err)
	}

	item, _ := store.GetItem(context.Background(), e.DB, model.PlatformGitHub, "octo/repo")
	if item.Category != model.CategoryOther || item.NiceName != "" {
		t.Errorf("expected item untouched, got %+v", item)
	}
}
