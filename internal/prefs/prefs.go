// Package prefs holds the client-side persisted key/value slots. The key
// names are part of the compatibility surface with the bundled assets and
// must not change.
package prefs

import "sync"

const (
	// KeySessionToken is the bearer-token slot.
	KeySessionToken = "session_token"
	// KeyLastPage is the transient last-page slot for anonymous visitors.
	KeyLastPage = "last_page"
	// KeyMobileView is the mobile-viewport flag.
	KeyMobileView = "is_mobile"
	// KeyDarkTheme is the dark-theme flag.
	KeyDarkTheme = "dark_theme"
	// KeyLocale is the chosen locale.
	KeyLocale = "locale"
)

// Store is the local-storage-equivalent contract. An embedding environment
// can supply its own implementation backed by real browser storage.
type Store interface {
	Get(key string) string
	Set(key, value string)
	Delete(key string)
}

// MemoryStore is a thread-safe in-memory Store.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the stored value, or the empty string when absent.
func (s *MemoryStore) Get(key string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key]
}

// Set stores value under key.
func (s *MemoryStore) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
}

// Delete removes key.
func (s *MemoryStore) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
}
