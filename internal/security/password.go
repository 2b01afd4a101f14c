package security

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2id parameters, fixed across the deployment. 19 MiB, 2 iterations,
// single lane, the interactive-login profile from the OWASP cheat sheet.
const (
	argonMemoryKiB = 19456
	argonTime      = 2
	argonThreads   = 1
	argonSaltLen   = 16
	argonKeyLen    = 32
)

var ErrUnknownHashFormat = errors.New("unknown password hash format")

// HashPassword produces an Argon2id hash in PHC string form.
func HashPassword(plain string) (string, error) {
	salt := make([]byte, argonSaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	key := argon2.IDKey([]byte(plain), salt, argonTime, argonMemoryKiB, argonThreads, argonKeyLen)
	return fmt.Sprintf("$argon2id$v=%d$m=%d,t=%d,p=%d$%s$%s",
		argon2.Version, argonMemoryKiB, argonTime, argonThreads,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(key),
	), nil
}

// VerifyPassword dispatches on the stored hash's format: PHC-prefixed
// Argon2id, or the legacy unsalted SHA-256 hex digest kept for accounts that
// predate the migration. Legacy hashes verify but callers should re-hash
// (see NeedsRehash).
func VerifyPassword(stored, plain string) (bool, error) {
	switch {
	case strings.HasPrefix(stored, "$argon2id$"):
		return verifyArgon2id(stored, plain)
	case isLegacyDigest(stored):
		sum := sha256.Sum256([]byte(plain))
		want, err := hex.DecodeString(strings.ToLower(stored))
		if err != nil {
			return false, ErrUnknownHashFormat
		}
		return subtle.ConstantTimeCompare(sum[:], want) == 1, nil
	default:
		return false, ErrUnknownHashFormat
	}
}

// NeedsRehash reports whether a stored hash is in the legacy format and must
// be replaced the next time the plaintext is available.
func NeedsRehash(stored string) bool {
	return !strings.HasPrefix(stored, "$argon2id$")
}

func isLegacyDigest(stored string) bool {
	if len(stored) != 64 {
		return false
	}
	_, err := hex.DecodeString(strings.ToLower(stored))
	return err == nil
}

func verifyArgon2id(stored, plain string) (bool, error) {
	parts := strings.Split(stored, "$")
	// "", "argon2id", "v=19", "m=...,t=...,p=...", salt, key
	if len(parts) != 6 {
		return false, ErrUnknownHashFormat
	}
	var version int
	if _, err := fmt.Sscanf(parts[2], "v=%d", &version); err != nil {
		return false, ErrUnknownHashFormat
	}
	var memory uint32
	var timeCost uint32
	var threads uint8
	if _, err := fmt.Sscanf(parts[3], "m=%d,t=%d,p=%d", &memory, &timeCost, &threads); err != nil {
		return false, ErrUnknownHashFormat
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false, ErrUnknownHashFormat
	}
	want, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil {
		return false, ErrUnknownHashFormat
	}
	got := argon2.IDKey([]byte(plain), salt, timeCost, memory, threads, uint32(len(want)))
	return subtle.ConstantTimeCompare(got, want) == 1, nil
}
