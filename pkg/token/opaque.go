package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// ErrEmptyToken is returned when an empty string is passed to HashOpaqueToken.
// An empty token is a caller bug, never something to silently hash.
var ErrEmptyToken = errors.New("opaque token must not be empty")

const opaqueTokenBytes = 32

// HashOpaqueToken returns the SHA-256 hex digest of an opaque token. The hash
// is deterministic so persisted reset/verification tokens can be looked up by
// digest without storing the raw value.
func HashOpaqueToken(t string) (string, error) {
	if t == "" {
		return "", ErrEmptyToken
	}
	sum := sha256.Sum256([]byte(t))
	return hex.EncodeToString(sum[:]), nil
}

// GenerateOpaqueTokenPair returns a high-entropy random token plus its hash in
// one call: the raw token goes to the user exactly once, only the hash is
// persisted.
func GenerateOpaqueTokenPair() (raw string, hash string, err error) {
	buf := make([]byte, opaqueTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("failed to generate opaque token: %w", err)
	}
	raw = hex.EncodeToString(buf)
	hash, err = HashOpaqueToken(raw)
	if err != nil {
		return "", "", err
	}
	return raw, hash, nil
}
