// Package auth derives password hashes and session tokens.
package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"

	"golang.org/x/crypto/pbkdf2"
)

const (
	saltLength = 16
	keyLength  = 32
	// iterations is deliberately slow. Changing it invalidates stored hashes.
	iterations = 310_000
)

// HashPassword derives a fixed-length key from the password with a fresh
// random salt. Both are returned hex encoded for storage; the plaintext is
// never persisted.
func HashPassword(password string) (hash, salt string, err error) {
	rawSalt := make([]byte, saltLength)
	if _, err := rand.Read(rawSalt); err != nil {
		return "", "", err
	}
	key := pbkdf2.Key([]byte(password), rawSalt, iterations, keyLength, sha256.New)
	return hex.EncodeToString(key), hex.EncodeToString(rawSalt), nil
}

// CheckPassword re-derives the key with the stored salt and compares it to
// the stored hash in constant time. Malformed or empty stored material fails
// the check rather than erroring.
func CheckPassword(password, hash, salt string) bool {
	rawSalt, err := hex.DecodeString(salt)
	if err != nil || len(rawSalt) == 0 {
		return false
	}
	want, err := hex.DecodeString(hash)
	if err != nil || len(want) == 0 {
		return false
	}
	got := pbkdf2.Key([]byte(password), rawSalt, iterations, len(want), sha256.New)
	return subtle.ConstantTimeCompare(got, want) == 1
}

// GenerateSessionToken returns an unguessable opaque bearer token.
func GenerateSessionToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
