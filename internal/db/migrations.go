package db

import (
	"database/sql"
	"fmt"
)

// migrations is a list of SQL statements applied in order after schema creation.
// Each migration must be idempotent. Append new migrations at the end.
var migrations = []string{
	// Migration 1: revalidation history is always read per item, newest first.
	`CREATE INDEX IF NOT EXISTS idx_revalidations_item
	     ON revalidations(platform, item_id, attempted_at DESC)`,
	// Migration 2: setup pages look up which setups reference an item.
	`CREATE INDEX IF NOT EXISTS idx_setup_items_item
	     ON setup_items(platform, item_id)`,
}

// Migrate ensures the schema and then runs the migrations.
func Migrate(db *sql.DB) error {
	if err := EnsureSchema(db); err != nil {
		return err
	}

	for i, m := range migrations {
		if _, err := db.Exec(m); err != nil {
			return fmt.Errorf("running migration %d: %w", i+1, err)
		}
	}

	return nil
}
