package enrich

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/setupcatalog/internal/classify"
	"github.com/erazemk/setupcatalog/internal/model"
	"github.com/erazemk/setupcatalog/internal/store"
)

// Enricher asks the AI classifier for a display name and category and stores
// the answer.
type Enricher struct {
	DB *sql.DB
	AI classify.AI
}

// Enrich is a Handler. A deterministic category is never replaced.
func (e *Enricher) Enrich(ctx context.Context, t Task) error {
	s, err := e.AI.Classify(ctx, t.Name, t.Description, t.Category)
	if err != nil {
		return fmt.Errorf("classifying %s:%s: %w", t.Platform, t.ItemID, err)
	}

	var category *model.Category
	if !t.Deterministic && s.Category.Valid() {
		category = &s.Category
	}
	if s.NiceName == "" && category == nil {
		return nil
	}

	if err := store.SetItemEnrichment(ctx, e.DB, t.Platform, t.ItemID, s.NiceName, category); err != nil {
		return err
	}
	return nil
}
