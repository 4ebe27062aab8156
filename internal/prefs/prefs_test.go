package prefs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	assert.Empty(t, s.Get(KeyDarkTheme))

	s.Set(KeyDarkTheme, "true")
	assert.Equal(t, "true", s.Get(KeyDarkTheme))

	s.Set(KeyDarkTheme, "false")
	assert.Equal(t, "false", s.Get(KeyDarkTheme))

	s.Delete(KeyDarkTheme)
	assert.Empty(t, s.Get(KeyDarkTheme))

	// Deleting an absent key is safe
	s.Delete(KeySessionToken)
}
