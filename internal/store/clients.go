package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/erazemk/setupcatalog/internal/model"
)

const clientColumns = `id, name, secret_hash, role, created_at, deleted_at`

// CreateClient creates a new API client.
func CreateClient(ctx context.Context, db *sql.DB, name, secretHash, role string) (*model.APIClient, error) {
	result, err := db.ExecContext(ctx,
		`INSERT INTO api_clients (name, secret_hash, role) VALUES (?, ?, ?)`,
		name, secretHash, role,
	)
	if err != nil {
		return nil, fmt.Errorf("creating client: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("getting client id: %w", err)
	}

	return GetClient(ctx, db, id)
}

// GetClient returns an API client by ID.
func GetClient(ctx context.Context, db *sql.DB, id int64) (*model.APIClient, error) {
	c := &model.APIClient{}
	err := db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM api_clients WHERE id = ?`, id,
	).Scan(&c.ID, &c.Name, &c.SecretHash, &c.Role, &c.CreatedAt, &c.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting client: %w", err)
	}
	return c, nil
}

// GetClientByName returns the active API client with the given name.
func GetClientByName(ctx context.Context, db *sql.DB, name string) (*model.APIClient, error) {
	c := &model.APIClient{}
	err := db.QueryRowContext(ctx,
		`SELECT `+clientColumns+` FROM api_clients WHERE name = ? AND deleted_at IS NULL`, name,
	).Scan(&c.ID, &c.Name, &c.SecretHash, &c.Role, &c.CreatedAt, &c.DeletedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting client by name: %w", err)
	}
	return c, nil
}

// ListClients returns all non-deleted API clients.
func ListClients(ctx context.Context, db *sql.DB) ([]model.APIClient, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT `+clientColumns+` FROM api_clients WHERE deleted_at IS NULL ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing clients: %w", err)
	}
	defer rows.Close()

	var clients []model.APIClient
	for rows.Next() {
		var c model.APIClient
		if err := rows.Scan(&c.ID, &c.Name, &c.SecretHash, &c.Role, &c.CreatedAt, &c.DeletedAt); err != nil {
			return nil, fmt.Errorf("scanning client: %w", err)
		}
		clients = append(clients, c)
	}
	return clients, rows.Err()
}

// DeleteClient soft-deletes an API client. Its name becomes reusable.
func DeleteClient(ctx context.Context, db *sql.DB, id int64) error {
	_, err := db.ExecContext(ctx,
		`UPDATE api_clients SET deleted_at = CURRENT_TIMESTAMP WHERE id = ? AND deleted_at IS NULL`,
		id,
	)
	if err != nil {
		return fmt.Errorf("deleting client: %w", err)
	}
	return nil
}
