package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/setupcatalog/internal/model"
)

// UpsertShop inserts or refreshes a shop.
func UpsertShop(ctx context.Context, db Querier, shop *model.Shop) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO shops (platform, id, name, image_url, verified, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (platform, id) DO UPDATE SET
		     name       = excluded.name,
		     image_url  = excluded.image_url,
		     verified   = excluded.verified,
		     updated_at = max(shops.updated_at, excluded.updated_at)`,
		shop.Platform, shop.ID, shop.Name, nullString(shop.ImageURL), shop.Verified, toMillis(shop.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("upserting shop: %w", err)
	}
	return nil
}

// GetShop returns a shop by platform and id.
func GetShop(ctx context.Context, db Querier, platform model.Platform, id string) (*model.Shop, error) {
	s := &model.Shop{}
	var imageURL sql.NullString
	var updatedAt int64
	err := db.QueryRowContext(ctx,
		`SELECT platform, id, name, image_url, verified, updated_at
		 FROM shops WHERE platform = ? AND id = ?`, platform, id,
	).Scan(&s.Platform, &s.ID, &s.Name, &imageURL, &s.Verified, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting shop: %w", err)
	}
	s.ImageURL = imageURL.String
	s.UpdatedAt = fromMillis(updatedAt)
	return s, nil
}

// SaveListing writes a shop and the item referencing it in one transaction,
// shop first because the item row references it.
func SaveListing(ctx context.Context, db *sql.DB, shop *model.Shop, item *model.Item) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := UpsertShop(ctx, tx, shop); err != nil {
		return err
	}
	if err := UpsertItem(ctx, tx, item); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing listing: %w", err)
	}
	return nil
}
