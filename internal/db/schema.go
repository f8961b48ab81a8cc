package db

import (
	"database/sql"
	"fmt"
)

// schema is the full database schema. Catalog timestamps are unix
// milliseconds so that max() keeps updated_at monotonic.
const schema = `
CREATE TABLE IF NOT EXISTS shops (
    platform   TEXT NOT NULL CHECK (platform IN ('booth', 'github')),
    id         TEXT NOT NULL,
    name       TEXT NOT NULL,
    image_url  TEXT,
    verified   INTEGER NOT NULL DEFAULT 0,
    updated_at INTEGER NOT NULL,
    PRIMARY KEY (platform, id)
);

CREATE TABLE IF NOT EXISTS items (
    platform    TEXT NOT NULL CHECK (platform IN ('booth', 'github')),
    id          TEXT NOT NULL,
    category    TEXT NOT NULL DEFAULT 'other',
    category_source TEXT NOT NULL DEFAULT 'default'
                CHECK (category_source IN ('override', 'taxonomy', 'ai', 'default')),
    name        TEXT NOT NULL,
    nice_name   TEXT,
    description TEXT,
    image_url   TEXT,
    price       TEXT,
    likes       INTEGER NOT NULL DEFAULT 0,
    nsfw        INTEGER NOT NULL DEFAULT 0,
    version     TEXT,
    authors     TEXT,
    outdated    INTEGER NOT NULL DEFAULT 0,
    shop_id     TEXT NOT NULL,
    created_at  INTEGER NOT NULL,
    updated_at  INTEGER NOT NULL,
    PRIMARY KEY (platform, id),
    FOREIGN KEY (platform, shop_id) REFERENCES shops(platform, id)
);

CREATE TABLE IF NOT EXISTS item_images (
    platform   TEXT NOT NULL,
    item_id    TEXT NOT NULL,
    source_url TEXT NOT NULL,
    image      BLOB NOT NULL,
    image_mime TEXT NOT NULL,
    fetched_at INTEGER NOT NULL,
    PRIMARY KEY (platform, item_id),
    FOREIGN KEY (platform, item_id) REFERENCES items(platform, id)
);

CREATE TABLE IF NOT EXISTS setups (
    id              TEXT PRIMARY KEY,
    name            TEXT NOT NULL,
    author          TEXT NOT NULL,
    avatar_platform TEXT,
    avatar_id       TEXT,
    created_at      DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS setup_items (
    setup_id    TEXT NOT NULL REFERENCES setups(id) ON DELETE CASCADE,
    position    INTEGER NOT NULL,
    platform    TEXT NOT NULL,
    item_id     TEXT NOT NULL,
    category    TEXT,
    note        TEXT,
    unsupported INTEGER NOT NULL DEFAULT 0,
    shapekeys   TEXT,
    PRIMARY KEY (setup_id, position),
    FOREIGN KEY (platform, item_id) REFERENCES items(platform, id)
);

CREATE TABLE IF NOT EXISTS revalidations (
    id           INTEGER PRIMARY KEY,
    platform     TEXT NOT NULL,
    item_id      TEXT NOT NULL,
    outcome      TEXT NOT NULL CHECK (outcome IN ('ingested', 'refreshed', 'unavailable', 'disallowed', 'error')),
    detail       TEXT,
    duration_ms  INTEGER NOT NULL DEFAULT 0,
    attempted_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS api_clients (
    id          INTEGER PRIMARY KEY,
    name        TEXT NOT NULL,
    secret_hash TEXT NOT NULL,
    role        TEXT NOT NULL DEFAULT 'reader' CHECK (role IN ('admin', 'author', 'reader')),
    created_at  DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
    deleted_at  DATETIME
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_api_clients_name_active
    ON api_clients(name) WHERE deleted_at IS NULL;

CREATE TABLE IF NOT EXISTS settings (
    key   TEXT PRIMARY KEY,
    value TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS revoked_tokens (
    jti        TEXT PRIMARY KEY,
    expires_at DATETIME NOT NULL
);
`

// EnsureSchema creates all tables and indexes if they don't already exist.
func EnsureSchema(db *sql.DB) error {
	_, err := db.Exec(schema)
	if err != nil {
		return fmt.Errorf("creating schema: %w", err)
	}
	return nil
}
