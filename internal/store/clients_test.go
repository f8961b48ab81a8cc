package store

import (
	"context"
	"testing"

	"github.com/erazemk/setupcatalog/internal/db"
	"github.com/erazemk/setupcatalog/internal/model"
)

func TestCreateAndGetClient(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	client, err := CreateClient(ctx, database, "importer", "hash", model.RoleAuthor)
	if err != nil {
		t.Fatalf("CreateClient: %v", err)
	}
	if client.Name != "importer" || client.Role != model.RoleAuthor {
		t.Errorf("unexpected client: %+v", client)
	}

	byName, err := GetClientByName(ctx, database, "importer")
	if err != nil {
		t.Fatalf("GetClientByName: %v", err)
	}
	if byName == nil || byName.ID != client.ID {
		t.Errorf("expected client %d by name, got %+v", client.ID, byName)
	}
}

func TestClientNameUniqueAmongActive(t *testing.T) {
	database := db.NewTestDB(t)
	ctx := context.Background()

	first, _ := CreateClient(ctx, database, "importer", "hash", model.RoleReader)
	if _, err := CreateClient(ctx, database, "importer", "hash", model.RoleReader); err == nil {
		t.Fatal("expected duplicate active name to fail")
	}

	DeleteClient(ctx, database, first.ID)
	if _, err := CreateClient(ctx, database, "importer", "hash", model.RoleReader); err != nil {
		t.Fatalf("expected name reuse after delete, got %v", err)
	}

	clients, _ := ListClients(ctx, database)
	if len(clients) != 1 {
		t.Errorf("expected 1 active client, got %d", len(clients))
	}

	// Deleted clients can no longer be looked up by name.
	deleted, _ := GetClient(ctx, database, first.ID)
	if deleted == nil || deleted.DeletedAt == nil {
		t.Error("expected deleted client to keep its row with deleted_at set")
	}
}
