// Package tokenstore holds the single bearer credential of the client session
// and persists it, encrypted, across restarts.
package tokenstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/fernet/fernet-go"
	"github.com/rs/zerolog"

	"github.com/Segevolp/AlgoTrade/internal/apperrors"
)

// StorageKey is the fixed key the credential is persisted under.
const StorageKey = "authToken"

// Persister is durable key/value storage for client state.
// repository.CredentialRepository is the production implementation.
type Persister interface {
	Load(ctx context.Context, key string) (string, bool, error)
	Save(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

// Store holds at most one credential. Reads are served from memory; writes go
// through to the Persister encrypted with a fernet key.
type Store struct {
	mu        sync.RWMutex
	token     string
	persister Persister
	key       *fernet.Key
	log       zerolog.Logger
}

// New creates a Store. Nothing is loaded until Restore is called.
func New(persister Persister, key *fernet.Key, log zerolog.Logger) *Store {
	return &Store{
		persister: persister,
		key:       key,
		log:       log.With().Str("component", "tokenstore").Logger(),
	}
}

// Current returns the active credential, or "" when there is none.
func (s *Store) Current() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Present reports whether a credential is active.
func (s *Store) Present() bool {
	return s.Current() != ""
}

// Set persists token and makes it the active credential. Set("") is Clear.
func (s *Store) Set(ctx context.Context, token string) error {
	if token == "" {
		_, err := s.Clear(ctx)
		return err
	}

	sealed, err := fernet.EncryptAndSign([]byte(token), s.key)
	if err != nil {
		return fmt.Errorf("failed to encrypt credential: %w", err)
	}
	if err := s.persister.Save(ctx, StorageKey, string(sealed)); err != nil {
		return fmt.Errorf("failed to persist credential: %w", err)
	}

	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	s.log.Debug().Msg("Credential stored")
	return nil
}

// Clear drops the active credential and deletes the persisted copy. It reports
// whether a credential was active. The in-memory credential is dropped even when
// the persisted copy cannot be deleted.
func (s *Store) Clear(ctx context.Context) (bool, error) {
	s.mu.Lock()
	had := s.token != ""
	s.token = ""
	s.mu.Unlock()

	if err := s.persister.Delete(ctx, StorageKey); err != nil {
		return had, fmt.Errorf("failed to delete persisted credential: %w", err)
	}

	if had {
		s.log.Debug().Msg("Credential cleared")
	}
	return had, nil
}

// Restore loads the persisted credential into memory and returns it ("" when none
// is stored). A persisted value that does not decrypt with the current key is
// deleted and reported as apperrors.ErrCredentialCorrupt.
func (s *Store) Restore(ctx context.Context) (string, error) {
	sealed, ok, err := s.persister.Load(ctx, StorageKey)
	if err != nil {
		return "", fmt.Errorf("failed to load persisted credential: %w", err)
	}
	if !ok || sealed == "" {
		s.log.Debug().Bool("present", false).Msg("No persisted credential")
		return "", nil
	}

	plain := fernet.VerifyAndDecrypt([]byte(sealed), 0, []*fernet.Key{s.key})
	if plain == nil {
		s.log.Warn().Msg("Persisted credential could not be decrypted, discarding it")
		if err := s.persister.Delete(ctx, StorageKey); err != nil {
			return "", fmt.Errorf("failed to delete corrupt credential: %w", err)
		}
		return "", apperrors.ErrCredentialCorrupt
	}

	token := string(plain)
	s.mu.Lock()
	s.token = token
	s.mu.Unlock()

	s.log.Debug().Bool("present", true).Msg("Persisted credential restored")
	return token, nil
}
