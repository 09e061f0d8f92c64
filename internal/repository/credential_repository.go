package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// CredentialRepository provides data access to the client_state table, a small
// key/value store for state that must survive restarts. Values are stored as given;
// callers encrypt secrets before they reach this layer.
type CredentialRepository struct {
	db *sql.DB
}

// NewCredentialRepository creates a new CredentialRepository with the provided database connection.
func NewCredentialRepository(db *sql.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Load retrieves the value stored under key.
// The boolean is false when nothing is stored.
func (r *CredentialRepository) Load(ctx context.Context, key string) (string, bool, error) {
	query := `
		SELECT value
		FROM client_state
		WHERE key = ?
	`

	var value string
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query client_state table: %w", err)
	}

	return value, true, nil
}

// Save inserts or replaces the value stored under key.
func (r *CredentialRepository) Save(ctx context.Context, key, value string) error {
	query := `
		INSERT INTO client_state (key, value, updated_at)
		VALUES (?, ?, CURRENT_TIMESTAMP)
		ON CONFLICT(key) DO UPDATE SET
			value = excluded.value,
			updated_at = excluded.updated_at
	`

	if _, err := r.db.ExecContext(ctx, query, key, value); err != nil {
		return fmt.Errorf("failed to save client_state %q: %w", key, err)
	}
	return nil
}

// Delete removes the value stored under key. Deleting a missing key is not an error.
func (r *CredentialRepository) Delete(ctx context.Context, key string) error {
	query := `DELETE FROM client_state WHERE key = ?`

	if _, err := r.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("failed to delete client_state %q: %w", key, err)
	}
	return nil
}
