package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
)

// NewOpaqueSecret generates a URL-safe random secret for refresh tokens and
// password-reset links. 32 bytes of entropy.
func NewOpaqueSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// HashOpaqueSecret is the one-way transform applied before an opaque secret
// is persisted or looked up. The pepper is a server-side value so a leaked
// table of hashes cannot be checked against candidate secrets offline.
func HashOpaqueSecret(secret, pepper string) string {
	sum := sha256.Sum256([]byte(secret + pepper))
	return hex.EncodeToString(sum[:])
}
