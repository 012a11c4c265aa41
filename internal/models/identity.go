package models

import (
	"crypto/ed25519"
	"fmt"

	"github.com/mr-tron/base58"
)

const KeySize = 32

// Identity is a caller's ed25519 public key. Its text form is base58.
type Identity [KeySize]byte

// Address locates an account in the host arena. Wallet accounts share the
// bytes of their owner's identity; program accounts are derived from seeds.
type Address [KeySize]byte

func ParseIdentity(s string) (Identity, error) {
	var id Identity
	if err := decodeKey(s, id[:]); err != nil {
		return Identity{}, fmt.Errorf("invalid identity %q: %w", s, err)
	}
	return id, nil
}

func IdentityFromPublicKey(pub ed25519.PublicKey) (Identity, error) {
	var id Identity
	if len(pub) != ed25519.PublicKeySize {
		return id, fmt.Errorf("invalid public key length %d", len(pub))
	}
	copy(id[:], pub)
	return id, nil
}

func (id Identity) PublicKey() ed25519.PublicKey {
	return ed25519.PublicKey(append([]byte(nil), id[:]...))
}

func (id Identity) IsZero() bool {
	return id == Identity{}
}

func (id Identity) String() string {
	return base58.Encode(id[:])
}

func (id Identity) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *Identity) UnmarshalText(text []byte) error {
	parsed, err := ParseIdentity(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func ParseAddress(s string) (Address, error) {
	var addr Address
	if err := decodeKey(s, addr[:]); err != nil {
		return Address{}, fmt.Errorf("invalid address %q: %w", s, err)
	}
	return addr, nil
}

func (a Address) String() string {
	return base58.Encode(a[:])
}

func (a Address) MarshalText() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Address) UnmarshalText(text []byte) error {
	parsed, err := ParseAddress(string(text))
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

func decodeKey(s string, dst []byte) error {
	raw, err := base58.Decode(s)
	if err != nil {
		return err
	}
	if len(raw) != len(dst) {
		return fmt.Errorf("expected %d bytes, got %d", len(dst), len(raw))
	}
	copy(dst, raw)
	return nil
}
