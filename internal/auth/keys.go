// Package auth provides password hashing and bearer token handling.
package auth

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"aidanwoods.dev/go-paseto"
)

// keyFileName is the file under the data directory that holds the token key.
const keyFileName = "auth.key"

// LoadOrGenerateKey returns the PASETO v4 symmetric key used for access tokens.
// A non-empty keyHex (from configuration) wins. Otherwise the key is read from
// <dataPath>/auth.key, or generated and saved there on first start.
func LoadOrGenerateKey(dataPath, keyHex string) (paseto.V4SymmetricKey, error) {
	if keyHex = strings.TrimSpace(keyHex); keyHex != "" {
		key, err := paseto.V4SymmetricKeyFromHex(keyHex)
		if err != nil {
			return paseto.V4SymmetricKey{}, fmt.Errorf("invalid configured auth key: %w", err)
		}
		return key, nil
	}

	keyPath := filepath.Join(dataPath, keyFileName)

	//#nosec G304 -- path is derived from the configured data directory
	if raw, err := os.ReadFile(keyPath); err == nil {
		key, err := paseto.V4SymmetricKeyFromHex(strings.TrimSpace(string(raw)))
		if err != nil {
			return paseto.V4SymmetricKey{}, fmt.Errorf("invalid auth key in %s: %w", keyPath, err)
		}
		return key, nil
	} else if !os.IsNotExist(err) {
		return paseto.V4SymmetricKey{}, fmt.Errorf("read auth key: %w", err)
	}

	key := paseto.NewV4SymmetricKey()

	if err := os.MkdirAll(dataPath, 0o700); err != nil {
		return paseto.V4SymmetricKey{}, fmt.Errorf("create data directory: %w", err)
	}
	if err := os.WriteFile(keyPath, []byte(key.ExportHex()), 0o600); err != nil {
		return paseto.V4SymmetricKey{}, fmt.Errorf("save auth key: %w", err)
	}
	return key, nil
}
