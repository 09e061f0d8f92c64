package tokenstore

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fernet/fernet-go"
)

// GenerateKey returns a new random fernet key.
func GenerateKey() (*fernet.Key, error) {
	var k fernet.Key
	if err := k.Generate(); err != nil {
		return nil, fmt.Errorf("failed to generate credential key: %w", err)
	}
	return &k, nil
}

// LoadKey resolves the credential encryption key. An explicit encoded key wins;
// otherwise the key is read from path, and generated and written there (mode 0600)
// when the file does not exist yet.
func LoadKey(encoded, path string) (*fernet.Key, error) {
	if encoded != "" {
		k, err := fernet.DecodeKey(strings.TrimSpace(encoded))
		if err != nil {
			return nil, fmt.Errorf("invalid CREDENTIAL_KEY: %w", err)
		}
		return k, nil
	}

	data, err := os.ReadFile(path)
	if err == nil {
		k, err := fernet.DecodeKey(strings.TrimSpace(string(data)))
		if err != nil {
			return nil, fmt.Errorf("invalid credential key file %s: %w", path, err)
		}
		return k, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read credential key file: %w", err)
	}

	k, err := GenerateKey()
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("failed to create credential key directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(k.Encode()+"\n"), 0o600); err != nil {
		return nil, fmt.Errorf("failed to write credential key file: %w", err)
	}
	return k, nil
}
