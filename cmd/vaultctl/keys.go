package main

import (
	"crypto/ed25519"
	"os"
	"strings"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"smart-vault-backend/internal/models"
)

// Key files hold the base58 encoding of a 64-byte ed25519 private key.
func writeKey(path string, key ed25519.PrivateKey) error {
	if _, err := os.Stat(path); err == nil {
		return errors.Errorf("%s already exists", path)
	}
	return errors.Wrap(os.WriteFile(path, []byte(base58.Encode(key)+"\n"), 0o600), "write key")
}

func readKey(path string) (ed25519.PrivateKey, models.Identity, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, models.Identity{}, errors.Wrap(err, "read key")
	}
	decoded, err := base58.Decode(strings.TrimSpace(string(raw)))
	if err != nil {
		return nil, models.Identity{}, errors.Wrapf(err, "decode key %s", path)
	}
	if len(decoded) != ed25519.PrivateKeySize {
		return nil, models.Identity{}, errors.Errorf("key %s has %d bytes, want %d", path, len(decoded), ed25519.PrivateKeySize)
	}
	key := ed25519.PrivateKey(decoded)
	id, err := models.IdentityFromPublicKey(key.Public().(ed25519.PublicKey))
	return key, id, err
}
