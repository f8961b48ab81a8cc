package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/erazemk/setupcatalog/internal/config"
	"github.com/erazemk/setupcatalog/internal/db"
)

func TestNew(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}

	path := filepath.Join(t.TempDir(), "features.yaml")
	if err := os.WriteFile(path, []byte("force_refresh: true\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg.FeaturesPath = path

	a, err := New(cfg, db.NewTestDB(t))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if !a.Features.Snapshot().ForceRefresh {
		t.Error("expected features file to be loaded")
	}
	if err := a.Shutdown(context.Background()); err != nil {
		t.Fatalf("shutdown: %v", err)
	}
}

func TestNewBadTaxonomy(t *testing.T) {
	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("loading config: %v", err)
	}
	cfg.TaxonomyPath = filepath.Join(t.TempDir(), "missing.yaml")

	if _, err := New(cfg, db.NewTestDB(t)); err == nil {
		t.Error("expected error for missing taxonomy")
	}
}
