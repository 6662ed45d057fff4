// ABOUTME: Password hashing with scrypt: random salt, constant-time verification
// ABOUTME: Stored format is "scrypt:<salt hex>:<key hex>" so parameters can evolve

package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/scrypt"
)

const (
	scryptN      = 16384
	scryptR      = 8
	scryptP      = 1
	saltLength   = 16
	keyLength    = 64
	hashPrefix   = "scrypt"
	hashSections = 3
)

// ErrEmptyPassword is returned when hashing a zero-length password.
var ErrEmptyPassword = errors.New("password must not be empty")

// HashPassword derives a storable hash from a plaintext password using a
// fresh random salt.
func HashPassword(password string) (string, error) {
	if password == "" {
		return "", ErrEmptyPassword
	}

	salt := make([]byte, saltLength)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("generating salt: %w", err)
	}

	key, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return "", fmt.Errorf("deriving key: %w", err)
	}

	return hashPrefix + ":" + hex.EncodeToString(salt) + ":" + hex.EncodeToString(key), nil
}

// VerifyPassword reports whether the password matches the stored hash.
// Malformed hashes verify as false rather than erroring, so a corrupted
// row behaves like a wrong password.
func VerifyPassword(password, stored string) bool {
	parts := strings.Split(stored, ":")
	if len(parts) != hashSections || parts[0] != hashPrefix {
		return false
	}

	salt, err := hex.DecodeString(parts[1])
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(parts[2])
	if err != nil || len(want) != keyLength {
		return false
	}

	got, err := scrypt.Key([]byte(password), salt, scryptN, scryptR, scryptP, keyLength)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare(got, want) == 1
}
