package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/erazemk/setupcatalog/internal/model"
)

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

const itemColumns = `i.platform, i.id, i.category, i.category_source, i.name, i.nice_name, i.description, i.image_url,
		i.price, i.likes, i.nsfw, i.version, i.authors, i.outdated, i.shop_id, i.created_at, i.updated_at`

type scanner interface {
	Scan(dest ...any) error
}

// scanItem decodes itemColumns. Columns selected before them are scanned
// into prefix.
func scanItem(s scanner, prefix ...any) (*model.Item, error) {
	item := &model.Item{}
	var niceName, description, imageURL, price, version, authors sql.NullString
	var createdAt, updatedAt int64
	dest := append(prefix, &item.Platform, &item.ID, &item.Category, &item.CategorySource, &item.Name, &niceName, &description,
		&imageURL, &price, &item.Likes, &item.NSFW, &version, &authors, &item.Outdated,
		&item.ShopID, &createdAt, &updatedAt)
	err := s.Scan(dest...)
	if err != nil {
		return nil, err
	}
	item.NiceName = niceName.String
	item.Description = description.String
	item.ImageURL = imageURL.String
	if price.Valid {
		p := price.String
		item.Price = &p
	}
	item.Version = version.String
	if authors.Valid && authors.String != "" {
		if err := json.Unmarshal([]byte(authors.String), &item.Authors); err != nil {
			return nil, fmt.Errorf("decoding authors: %w", err)
		}
	}
	item.CreatedAt = fromMillis(createdAt)
	item.UpdatedAt = fromMillis(updatedAt)
	return item, nil
}

// GetItem returns an item by platform and id. An empty platform matches any
// platform (ids do not collide across platforms in practice).
func GetItem(ctx context.Context, db Querier, platform model.Platform, id string) (*model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items i WHERE i.id = ?`
	args := []any{id}
	if platform != "" {
		query += ` AND i.platform = ?`
		args = append(args, platform)
	}
	query += ` ORDER BY i.updated_at DESC LIMIT 1`

	item, err := scanItem(db.QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns cached items, optionally filtered by platform.
func ListItems(ctx context.Context, db *sql.DB, platform model.Platform) ([]model.Item, error) {
	var rows *sql.Rows
	var err error

	if platform != "" {
		rows, err = db.QueryContext(ctx,
			`SELECT `+itemColumns+` FROM items i WHERE i.platform = ? ORDER BY i.updated_at DESC`, platform,
		)
	} else {
		rows, err = db.QueryContext(ctx,
			`SELECT `+itemColumns+` FROM items i ORDER BY i.updated_at DESC`,
		)
	}
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

// UpsertItem inserts or refreshes an item. Every mutable field is overwritten,
// outdated is cleared and updated_at only ever moves forward. nice_name is
// never touched here; only enrichment writes it. An empty category source is
// stored as default.
func UpsertItem(ctx context.Context, db Querier, item *model.Item) error {
	source := item.CategorySource
	if source == "" {
		source = model.SourceDefault
	}

	var authors any
	if len(item.Authors) > 0 {
		data, err := json.Marshal(item.Authors)
		if err != nil {
			return fmt.Errorf("encoding authors: %w", err)
		}
		authors = string(data)
	}

	_, err := db.ExecContext(ctx,
		`INSERT INTO items (platform, id, category, category_source, name, description, image_url, price,
		                    likes, nsfw, version, authors, outdated, shop_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?, ?)
		 ON CONFLICT (platform, id) DO UPDATE SET
		     category    = excluded.category,
		     category_source = excluded.category_source,
		     name        = excluded.name,
		     description = excluded.description,
		     image_url   = excluded.image_url,
		     price       = excluded.price,
		     likes       = excluded.likes,
		     nsfw        = excluded.nsfw,
		     version     = excluded.version,
		     authors     = excluded.authors,
		     shop_id     = excluded.shop_id,
		     outdated    = 0,
		     updated_at  = max(items.updated_at, excluded.updated_at)`,
		item.Platform, item.ID, item.Category, source, item.Name, nullString(item.Description),
		nullString(item.ImageURL), item.Price, item.Likes, item.NSFW, nullString(item.Version),
		authors, item.ShopID, toMillis(item.UpdatedAt), toMillis(item.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting item: %w", err)
	}
	return nil
}

// MarkItemOutdated flags an existing item as known-stale. It never creates a row.
func MarkItemOutdated(ctx context.Context, db *sql.DB, platform model.Platform, id string) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET outdated = 1 WHERE platform = ? AND id = ?`,
		platform, id,
	)
	if err != nil {
		return fmt.Errorf("marking item outdated: %w", err)
	}
	return nil
}

// SetItemEnrichment stores an enrichment result. An empty nice name or a nil
// category leaves the stored value unchanged. A category is stored with source
// ai and never replaces an override or taxonomy category. Concurrent
// enrichments are last-write-wins.
func SetItemEnrichment(ctx context.Context, db *sql.DB, platform model.Platform, id, niceName string, category *model.Category) error {
	_, err := db.ExecContext(ctx,
		`UPDATE items SET
		     nice_name = COALESCE(?1, nice_name),
		     category_source = CASE
		         WHEN ?2 IS NOT NULL AND category_source NOT IN ('override', 'taxonomy') THEN 'ai'
		         ELSE category_source END,
		     category = CASE
		         WHEN ?2 IS NOT NULL AND category_source NOT IN ('override', 'taxonomy') THEN ?2
		         ELSE category END
		 WHERE platform = ?3 AND id = ?4`,
		nullString(niceName), category, platform, id,
	)
	if err != nil {
		return fmt.Errorf("setting item enrichment: %w", err)
	}
	return nil
}

// SetItemImage caches a processed thumbnail for an item.
func SetItemImage(ctx context.Context, db *sql.DB, platform model.Platform, id, sourceURL string, image []byte, mime string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO item_images (platform, item_id, source_url, image, image_mime, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (platform, item_id) DO UPDATE SET
		     source_url = excluded.source_url,
		     image      = excluded.image,
		     image_mime = excluded.image_mime,
		     fetched_at = excluded.fetched_at`,
		platform, id, sourceURL, image, mime, toMillis(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("setting item image: %w", err)
	}
	return nil
}

// GetItemImage returns a cached thumbnail, its MIME type and the upstream URL
// it was generated from.
func GetItemImage(ctx context.Context, db *sql.DB, platform model.Platform, id string) ([]byte, string, string, error) {
	var image []byte
	var mime, sourceURL string
	err := db.QueryRowContext(ctx,
		`SELECT image, image_mime, source_url FROM item_images WHERE platform = ? AND item_id = ?`,
		platform, id,
	).Scan(&image, &mime, &sourceURL)
	if err == sql.ErrNoRows {
		return nil, "", "", nil
	}
	if err != nil {
		return nil, "", "", fmt.Errorf("getting item image: %w", err)
	}
	return image, mime, sourceURL, nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		t = time.Now()
	}
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
