package store

import (
	"context"
	"testing"

	"github.com/erazemk/setupcatalog/internal/db"
)

func TestGetJWTSecret_GeneratesAndPersists(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	secret1, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if len(secret1) != 64 { // 32 bytes = 64 hex chars
		t.Fatalf("expected 64 hex chars, got %d", len(secret1))
	}

	// Second call should return the same secret.
	secret2, err := GetJWTSecret(ctx, database)
	if err != nil {
		t.Fatal(err)
	}
	if secret1 != secret2 {
		t.Fatalf("expected same secret, got %q and %q", secret1, secret2)
	}
}

func TestGetOrCreateSettingKeepsFirstValue(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	first, err := GetOrCreateSetting(ctx, database, "instance_name", "alpha")
	if err != nil {
		t.Fatalf("GetOrCreateSetting: %v", err)
	}
	second, err := GetOrCreateSetting(ctx, database, "instance_name", "beta")
	if err != nil {
		t.Fatalf("GetOrCreateSetting: %v", err)
	}
	if first != "alpha" || second != "alpha" {
		t.Errorf("expected 'alpha' twice, got %q and %q", first, second)
	}
}
