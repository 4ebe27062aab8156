package auth

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashPasswordRoundTrip(t *testing.T) {
	hash, salt, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	assert.True(t, CheckPassword("correct horse battery staple", hash, salt))
	assert.False(t, CheckPassword("wrong password", hash, salt))
}

func TestHashPasswordUniqueSalts(t *testing.T) {
	hash1, salt1, err := HashPassword("secret")
	require.NoError(t, err)
	hash2, salt2, err := HashPassword("secret")
	require.NoError(t, err)

	assert.NotEqual(t, salt1, salt2, "each hash should use a fresh salt")
	assert.NotEqual(t, hash1, hash2, "same password should derive different keys")
}

func TestHashPasswordEncoding(t *testing.T) {
	hash, salt, err := HashPassword("secret")
	require.NoError(t, err)

	rawHash, err := hex.DecodeString(hash)
	require.NoError(t, err)
	rawSalt, err := hex.DecodeString(salt)
	require.NoError(t, err)

	assert.Len(t, rawHash, keyLength)
	assert.Len(t, rawSalt, saltLength)
}

func TestCheckPasswordMalformedStoredMaterial(t *testing.T) {
	assert.False(t, CheckPassword("secret", "", ""))
	assert.False(t, CheckPassword("secret", "not-hex", "also-not-hex"))

	hash, _, err := HashPassword("secret")
	require.NoError(t, err)
	assert.False(t, CheckPassword("secret", hash, ""))
}

func TestGenerateSessionToken(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		token, err := GenerateSessionToken()
		require.NoError(t, err)
		assert.Len(t, token, 64, "token should be 32 bytes hex encoded")
		assert.False(t, seen[token], "tokens must not repeat")
		seen[token] = true
	}
}
