package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SyncStatus tracks a record's position in the server reconciliation
// protocol. The values are part of the storage format and must stay verbatim.
type SyncStatus string

const (
	SyncLocal    SyncStatus = "local"
	SyncPending  SyncStatus = "pending"
	SyncSynced   SyncStatus = "synced"
	SyncConflict SyncStatus = "conflict"
	SyncDeleted  SyncStatus = "deleted"
)

// CategoryType classifies a category as money in or money out.
type CategoryType string

const (
	TypeIncome  CategoryType = "income"
	TypeExpense CategoryType = "expense"
)

// User represents a registered account. Passwords are stored as a derived
// key plus its salt, both hex encoded, never as plaintext.
type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	Email        string     `json:"email"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	PasswordHash string     `json:"-"`
	PasswordSalt string     `json:"-"`
	LastPage     *string    `json:"last_page"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Session is a bearer credential row. At most one session exists per user.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired reports whether the session is past its expiry at the given time.
func (s *Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.After(now)
}

// Category groups transactions. Predefined categories have a nil UserID and
// are seeded once at first run; their type, color and predefined flag are
// immutable afterwards.
type Category struct {
	ID         string       `json:"id"`
	UserID     *string      `json:"user_id"`
	ServerID   *string      `json:"server_id"`
	Name       string       `json:"name"`
	Type       CategoryType `json:"type"`
	Color      string       `json:"color"`
	Predefined bool         `json:"predefined"`
	SyncStatus SyncStatus   `json:"sync_status"`
	DeletedAt  *time.Time   `json:"deleted_at"`
	Version    int64        `json:"version"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
}

// Deleted reports whether the record is soft-deleted.
func (c *Category) Deleted() bool { return c.DeletedAt != nil }

// Transaction is a single dated, signed amount owned by a user. The category
// reference is optional and may point at a soft-deleted category; readers
// must tolerate that.
type Transaction struct {
	ID          string          `json:"id"`
	UserID      string          `json:"user_id"`
	ServerID    *string         `json:"server_id"`
	CategoryID  *string         `json:"category_id"`
	Date        time.Time       `json:"date"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	SyncStatus  SyncStatus      `json:"sync_status"`
	DeletedAt   *time.Time      `json:"deleted_at"`
	Version     int64           `json:"version"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Deleted reports whether the record is soft-deleted.
func (t *Transaction) Deleted() bool { return t.DeletedAt != nil }
