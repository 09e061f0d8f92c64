package database_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"github.com/Segevolp/AlgoTrade/internal/database"
)

// TestOpen tests opening the client state database.
//
// WHY: The credential survives restarts only if the state file is created on
// first use and reopened with its data intact.
func TestOpen(t *testing.T) {
	t.Run("creates the file and its directory", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "nested", "state.db")

		db, err := database.Open(context.Background(), path, zerolog.Nop())
		if err != nil {
			t.Fatalf("Open() returned unexpected error: %v", err)
		}
		defer db.Close()

		if err := database.HealthCheck(context.Background(), db); err != nil {
			t.Errorf("HealthCheck() returned unexpected error: %v", err)
		}
	})

	t.Run("data survives reopening", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "state.db")

		db, err := database.Open(context.Background(), path, zerolog.Nop())
		if err != nil {
			t.Fatalf("Open() returned unexpected error: %v", err)
		}
		if _, err := db.Exec(`INSERT INTO client_state (key, value) VALUES ('k', 'v')`); err != nil {
			t.Fatalf("Insert failed: %v", err)
		}
		db.Close()

		db, err = database.Open(context.Background(), path, zerolog.Nop())
		if err != nil {
			t.Fatalf("Reopen returned unexpected error: %v", err)
		}
		defer db.Close()

		var value string
		if err := db.QueryRow(`SELECT value FROM client_state WHERE key = 'k'`).Scan(&value); err != nil {
			t.Fatalf("Query failed: %v", err)
		}
		if value != "v" {
			t.Errorf("Expected 'v', got %q", value)
		}
	})
}

func TestMigrate_Idempotent(t *testing.T) {
	db, err := database.Open(context.Background(), database.MemoryPath, zerolog.Nop())
	if err != nil {
		t.Fatalf("Open() returned unexpected error: %v", err)
	}
	defer db.Close()

	if err := database.Migrate(context.Background(), db, zerolog.Nop()); err != nil {
		t.Errorf("Second Migrate() returned unexpected error: %v", err)
	}
}
