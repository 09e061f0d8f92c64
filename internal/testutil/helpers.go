package testutil

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Segevolp/AlgoTrade/internal/app"
	"github.com/Segevolp/AlgoTrade/internal/config"
	"github.com/Segevolp/AlgoTrade/internal/database"
	"github.com/Segevolp/AlgoTrade/internal/tokenstore"
)

// NewTestConfig returns a configuration pointing at baseURL with in-memory storage
// and background jobs disabled.
func NewTestConfig(baseURL string) *config.Config {
	return &config.Config{
		API: config.APIConfig{
			BaseURL: baseURL,
			Timeout: 5 * time.Second,
		},
		Storage: config.StorageConfig{
			Path: database.MemoryPath,
		},
		Log: config.LogConfig{Level: "disabled"},
	}
}

// NewTestApp builds an App against fb with an in-memory credential store.
// The persister is returned so tests can inspect what was stored.
func NewTestApp(t *testing.T, fb *FakeBackend, opts ...app.Option) (*app.App, *tokenstore.MemoryPersister) {
	t.Helper()

	persister := tokenstore.NewMemoryPersister()
	key, err := tokenstore.GenerateKey()
	if err != nil {
		t.Fatalf("Failed to generate credential key: %v", err)
	}

	opts = append([]app.Option{app.WithPersister(persister), app.WithCredentialKey(key)}, opts...)
	a, err := app.New(context.Background(), NewTestConfig(fb.URL()), zerolog.Nop(), opts...)
	if err != nil {
		t.Fatalf("Failed to create test app: %v", err)
	}
	t.Cleanup(func() {
		a.Close()
	})

	return a, persister
}

// LoginTestApp creates a user on fb, logs the app in as that user and returns the credentials.
func LoginTestApp(t *testing.T, a *app.App, fb *FakeBackend) string {
	t.Helper()

	creds := NewUser().Build(t, fb)
	if _, err := a.Session.Login(context.Background(), creds); err != nil {
		t.Fatalf("Failed to log in test user: %v", err)
	}
	return creds.Username
}

// MakeID generates a UUID string for use in tests.
//
// Example usage:
//
//	id := testutil.MakeID()
//	// Returns: "550e8400-e29b-41d4-a716-446655440000"
func MakeID() string {
	return uuid.New().String()
}

// MakePortfolioName generates a unique portfolio name for testing.
//
// Example usage:
//
//	name := testutil.MakePortfolioName("MyPortfolio")
//	// Returns: "MyPortfolio ABC123"
func MakePortfolioName(base string) string {
	if base == "" {
		base = "Portfolio"
	}
	return base + " " + randomAlphanumeric(6)
}

// randomAlphanumeric generates a random alphanumeric string of specified length.
func randomAlphanumeric(length int) string {
	const charset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		//nolint:gosec // G404: Using math/rand for test data generation is acceptable
		result[i] = charset[rand.Intn(len(charset))]
	}
	return string(result)
}
