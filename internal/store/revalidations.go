package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/erazemk/setupcatalog/internal/model"
)

// RecordRevalidation appends an adapter attempt to an item's history.
func RecordRevalidation(ctx context.Context, db *sql.DB, r *model.Revalidation) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO revalidations (platform, item_id, outcome, detail, duration_ms, attempted_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		r.Platform, r.ItemID, r.Outcome, nullString(r.Detail), r.Duration.Milliseconds(), toMillis(r.AttemptedAt),
	)
	if err != nil {
		return fmt.Errorf("recording revalidation: %w", err)
	}
	return nil
}

// ListRevalidations returns the most recent attempts for an item, newest first.
func ListRevalidations(ctx context.Context, db *sql.DB, platform model.Platform, itemID string, limit int) ([]model.Revalidation, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := db.QueryContext(ctx,
		`SELECT id, platform, item_id, outcome, detail, duration_ms, attempted_at
		 FROM revalidations
		 WHERE platform = ? AND item_id = ?
		 ORDER BY attempted_at DESC, id DESC
		 LIMIT ?`, platform, itemID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing revalidations: %w", err)
	}
	defer rows.Close()

	var history []model.Revalidation
	for rows.Next() {
		var r model.Revalidation
		var detail sql.NullString
		var durationMS, attemptedAt int64
		if err := rows.Scan(&r.ID, &r.Platform, &r.ItemID, &r.Outcome, &detail, &durationMS, &attemptedAt); err != nil {
			return nil, fmt.Errorf("scanning revalidation: %w", err)
		}
		r.Detail = detail.String
		r.Duration = time.Duration(durationMS) * time.Millisecond
		r.AttemptedAt = fromMillis(attemptedAt)
		history = append(history, r)
	}
	return history, rows.Err()
}
