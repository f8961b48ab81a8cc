package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/erazemk/setupcatalog/internal/model"
)

// CreateSetup stores a setup together with its item references.
func CreateSetup(ctx context.Context, db *sql.DB, setup *model.Setup, refs []model.SetupItemRef) (*model.Setup, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	var avatarPlatform, avatarID any
	if setup.Avatar != nil {
		avatarPlatform, avatarID = setup.Avatar.Platform, setup.Avatar.ID
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO setups (id, name, author, avatar_platform, avatar_id) VALUES (?, ?, ?, ?, ?)`,
		setup.ID, setup.Name, setup.Author, avatarPlatform, avatarID,
	)
	if err != nil {
		return nil, fmt.Errorf("creating setup: %w", err)
	}

	for i, ref := range refs {
		var shapekeys any
		if len(ref.Shapekeys) > 0 {
			data, err := json.Marshal(ref.Shapekeys)
			if err != nil {
				return nil, fmt.Errorf("encoding shapekeys: %w", err)
			}
			shapekeys = string(data)
		}

		_, err = tx.ExecContext(ctx,
			`INSERT INTO setup_items (setup_id, position, platform, item_id, category, note, unsupported, shapekeys)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			setup.ID, i, ref.Key.Platform, ref.Key.ID, ref.Category, nullString(ref.Note), ref.Unsupported, shapekeys,
		)
		if err != nil {
			return nil, fmt.Errorf("adding setup item %s: %w", ref.Key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("committing setup: %w", err)
	}

	return GetSetup(ctx, db, setup.ID)
}

// GetSetup returns a setup by id.
func GetSetup(ctx context.Context, db *sql.DB, id string) (*model.Setup, error) {
	s := &model.Setup{}
	var avatarPlatform, avatarID sql.NullString
	err := db.QueryRowContext(ctx,
		`SELECT id, name, author, avatar_platform, avatar_id, created_at FROM setups WHERE id = ?`, id,
	).Scan(&s.ID, &s.Name, &s.Author, &avatarPlatform, &avatarID, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting setup: %w", err)
	}
	if avatarPlatform.Valid && avatarID.Valid {
		s.Avatar = &model.ItemKey{Platform: model.Platform(avatarPlatform.String), ID: avatarID.String}
	}
	return s, nil
}

// ListSetupItemRefs returns a setup's item references in author order, each
// carrying the stored item it points at.
func ListSetupItemRefs(ctx context.Context, db *sql.DB, setupID string) ([]model.SetupItemRef, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT si.position, si.platform, si.item_id, si.category, si.note, si.unsupported, si.shapekeys,
		        `+itemColumns+`
		 FROM setup_items si
		 JOIN items i ON i.platform = si.platform AND i.id = si.item_id
		 WHERE si.setup_id = ?
		 ORDER BY si.position`, setupID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing setup items: %w", err)
	}
	defer rows.Close()

	var refs []model.SetupItemRef
	for rows.Next() {
		ref := model.SetupItemRef{SetupID: setupID}
		var category, note, shapekeys sql.NullString
		item, err := scanItem(rows, &ref.Position, &ref.Key.Platform, &ref.Key.ID, &category, &note,
			&ref.Unsupported, &shapekeys)
		if err != nil {
			return nil, fmt.Errorf("scanning setup item: %w", err)
		}
		if category.Valid {
			c := model.Category(category.String)
			ref.Category = &c
		}
		ref.Note = note.String
		if shapekeys.Valid && shapekeys.String != "" {
			if err := json.Unmarshal([]byte(shapekeys.String), &ref.Shapekeys); err != nil {
				return nil, fmt.Errorf("decoding shapekeys: %w", err)
			}
		}
		ref.Item = item
		refs = append(refs, ref)
	}
	return refs, rows.Err()
}

// DeleteSetup removes a setup; its item references go with it.
func DeleteSetup(ctx context.Context, db *sql.DB, id string) error {
	_, err := db.ExecContext(ctx, `DELETE FROM setups WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting setup: %w", err)
	}
	return nil
}
