// ABOUTME: Tests for scrypt password hashing and verification
// ABOUTME: Covers the stored format, salting, and malformed-hash handling

package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	parts := strings.Split(hash, ":")
	require.Len(t, parts, 3)
	assert.Equal(t, "scrypt", parts[0])
	assert.Len(t, parts[1], 32, "16-byte salt hex-encoded")
	assert.Len(t, parts[2], 128, "64-byte key hex-encoded")
}

func TestHashPassword_Empty(t *testing.T) {
	_, err := HashPassword("")
	assert.ErrorIs(t, err, ErrEmptyPassword)
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	first, err := HashPassword("same password")
	require.NoError(t, err)
	second, err := HashPassword("same password")
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)

	assert.True(t, VerifyPassword("s3cret", hash))
	assert.False(t, VerifyPassword("S3cret", hash))
	assert.False(t, VerifyPassword("", hash))
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	cases := []string{
		"",
		"scrypt",
		"scrypt:onlysalt",
		"bcrypt:aa:bb",
		"scrypt:notzhex:00",
		"scrypt:00:nothex",
		"scrypt:00:0000", // key too short
	}

	for _, stored := range cases {
		assert.False(t, VerifyPassword("anything", stored), "stored=%q", stored)
	}
}
