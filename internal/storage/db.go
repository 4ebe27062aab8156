// Package storage is the persistence engine: an embedded sqlite store with
// typed record tables for users, sessions, categories and transactions.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"finance-tracker/internal/models"

	"github.com/shopspring/decimal"

	// Import sqlite driver
	_ "modernc.org/sqlite"
)

// schemaVersion is stamped into PRAGMA user_version. A store carrying a
// different nonzero version is dropped and recreated; local data loss is the
// accepted recovery strategy.
const schemaVersion = 1

// DB wraps a sql.DB connection.
type DB struct {
	conn *sql.DB
}

// NewDB opens a database connection and runs migrations.
func NewDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if err := conn.Ping(); err != nil {
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		return nil, err
	}

	return db, nil
}

// IsNotFound reports whether err means the requested row does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

func (db *DB) migrate() error {
	var version int
	if err := db.conn.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}

	if version != 0 && version != schemaVersion {
		log.Printf("storage: schema version %d does not match %d, recreating store", version, schemaVersion)
		for _, table := range []string{"transactions", "categories", "sessions", "users"} {
			if _, err := db.conn.Exec("DROP TABLE IF EXISTS " + table); err != nil {
				return err
			}
		}
	}

	migrations := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id TEXT PRIMARY KEY,
			username TEXT UNIQUE NOT NULL,
			email TEXT UNIQUE NOT NULL,
			first_name TEXT NOT NULL DEFAULT '',
			last_name TEXT NOT NULL DEFAULT '',
			password_hash TEXT NOT NULL,
			password_salt TEXT NOT NULL,
			last_page TEXT,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			token TEXT UNIQUE NOT NULL,
			expires_at DATETIME NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS categories (
			id TEXT PRIMARY KEY,
			user_id TEXT,
			server_id TEXT,
			name TEXT NOT NULL,
			type TEXT NOT NULL,
			color TEXT NOT NULL,
			predefined INTEGER NOT NULL DEFAULT 0,
			sync_status TEXT NOT NULL,
			deleted_at DATETIME,
			version INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS transactions (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			server_id TEXT,
			category_id TEXT,
			date DATETIME NOT NULL,
			amount TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			sync_status TEXT NOT NULL,
			deleted_at DATETIME,
			version INTEGER NOT NULL,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_user_id ON sessions(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions(expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_categories_user_id ON categories(user_id)`,
		`CREATE INDEX IF NOT EXISTS idx_transactions_user_date ON transactions(user_id, date)`,
	}

	for _, m := range migrations {
		if _, err := db.conn.Exec(m); err != nil {
			return err
		}
	}

	_, err := db.conn.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion))
	return err
}

// Close closes the database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// CreateUser inserts a new user row.
func (db *DB) CreateUser(u *models.User) error {
	_, err := db.conn.Exec(
		`INSERT INTO users (id, username, email, first_name, last_name, password_hash, password_salt, last_page, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		u.ID, u.Username, u.Email, u.FirstName, u.LastName,
		u.PasswordHash, u.PasswordSalt, nullString(u.LastPage),
		u.CreatedAt.UTC(), u.UpdatedAt.UTC(),
	)
	return err
}

// GetUserByID retrieves a user by ID.
func (db *DB) GetUserByID(id string) (*models.User, error) {
	row := db.conn.QueryRow(
		`SELECT id, username, email, first_name, last_name, password_hash, password_salt, last_page, created_at, updated_at
		 FROM users WHERE id = ?`, id,
	)
	return scanUser(row)
}

// GetUserByLogin retrieves a user whose username or email matches login
// exactly (case-sensitive).
func (db *DB) GetUserByLogin(login string) (*models.User, error) {
	row := db.conn.QueryRow(
		`SELECT id, username, email, first_name, last_name, password_hash, password_salt, last_page, created_at, updated_at
		 FROM users WHERE username = ? OR email = ?`, login, login,
	)
	return scanUser(row)
}

// UserExists reports whether a user with the given username or email exists.
func (db *DB) UserExists(username, email string) (bool, error) {
	var count int
	err := db.conn.QueryRow(
		"SELECT COUNT(*) FROM users WHERE username = ? OR email = ?",
		username, email,
	).Scan(&count)
	return count > 0, err
}

// UpdateUser replaces the stored row for u.
func (db *DB) UpdateUser(u *models.User) error {
	_, err := db.conn.Exec(
		`UPDATE users SET username = ?, email = ?, first_name = ?, last_name = ?,
		 password_hash = ?, password_salt = ?, last_page = ?, updated_at = ? WHERE id = ?`,
		u.Username, u.Email, u.FirstName, u.LastName,
		u.PasswordHash, u.PasswordSalt, nullString(u.LastPage),
		u.UpdatedAt.UTC(), u.ID,
	)
	return err
}

// SetLastPage persists (or clears, with nil) a user's last visited page.
func (db *DB) SetLastPage(userID string, page *string) error {
	_, err := db.conn.Exec(
		"UPDATE users SET last_page = ?, updated_at = ? WHERE id = ?",
		nullString(page), time.Now().UTC(), userID,
	)
	return err
}

func scanUser(row *sql.Row) (*models.User, error) {
	var u models.User
	var lastPage sql.NullString
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.FirstName, &u.LastName,
		&u.PasswordHash, &u.PasswordSalt, &lastPage, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return nil, err
	}
	if lastPage.Valid {
		u.LastPage = &lastPage.String
	}
	return &u, nil
}

// CreateSession inserts a session row.
func (db *DB) CreateSession(s *models.Session) error {
	_, err := db.conn.Exec(
		"INSERT INTO sessions (id, user_id, token, expires_at, created_at) VALUES (?, ?, ?, ?, ?)",
		s.ID, s.UserID, s.Token, s.ExpiresAt.UTC(), s.CreatedAt.UTC(),
	)
	return err
}

// GetSessionByToken retrieves a session by its bearer token.
func (db *DB) GetSessionByToken(token string) (*models.Session, error) {
	row := db.conn.QueryRow(
		"SELECT id, user_id, token, expires_at, created_at FROM sessions WHERE token = ?",
		token,
	)
	var s models.Session
	if err := row.Scan(&s.ID, &s.UserID, &s.Token, &s.ExpiresAt, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

// DeleteSession removes a session by token. Deleting an absent token is a
// no-op, not an error.
func (db *DB) DeleteSession(token string) error {
	_, err := db.conn.Exec("DELETE FROM sessions WHERE token = ?", token)
	return err
}

// DeleteSessionsForUser removes every session owned by the user, enforcing
// single-device semantics on issuance.
func (db *DB) DeleteSessionsForUser(userID string) error {
	_, err := db.conn.Exec("DELETE FROM sessions WHERE user_id = ?", userID)
	return err
}

// DeleteExpiredSessions removes all sessions expired at now and returns the
// tokens that were deleted so callers can invalidate a matching local token.
func (db *DB) DeleteExpiredSessions(now time.Time) ([]string, error) {
	rows, err := db.conn.Query("SELECT token FROM sessions WHERE expires_at <= ?", now.UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var token string
		if err := rows.Scan(&token); err != nil {
			return nil, err
		}
		tokens = append(tokens, token)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(tokens) > 0 {
		if _, err := db.conn.Exec("DELETE FROM sessions WHERE expires_at <= ?", now.UTC()); err != nil {
			return nil, err
		}
	}
	return tokens, nil
}

// DeleteAllSessions empties the sessions table.
func (db *DB) DeleteAllSessions() error {
	_, err := db.conn.Exec("DELETE FROM sessions")
	return err
}

// CountSessionsForUser returns the number of session rows owned by the user.
func (db *DB) CountSessionsForUser(userID string) (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM sessions WHERE user_id = ?", userID).Scan(&count)
	return count, err
}

// CreateCategory inserts a category row.
func (db *DB) CreateCategory(c *models.Category) error {
	_, err := db.conn.Exec(
		`INSERT INTO categories (id, user_id, server_id, name, type, color, predefined, sync_status, deleted_at, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID, nullString(c.UserID), nullString(c.ServerID), c.Name, string(c.Type), c.Color,
		c.Predefined, string(c.SyncStatus), nullTime(c.DeletedAt), c.Version,
		c.CreatedAt.UTC(), c.UpdatedAt.UTC(),
	)
	return err
}

// GetCategory retrieves a category by ID, including soft-deleted rows.
func (db *DB) GetCategory(id string) (*models.Category, error) {
	row := db.conn.QueryRow(
		`SELECT id, user_id, server_id, name, type, color, predefined, sync_status, deleted_at, version, created_at, updated_at
		 FROM categories WHERE id = ?`, id,
	)
	return scanCategory(row)
}

// UpdateCategory replaces the stored row for c (full replace, not a patch).
func (db *DB) UpdateCategory(c *models.Category) error {
	_, err := db.conn.Exec(
		`UPDATE categories SET user_id = ?, server_id = ?, name = ?, type = ?, color = ?,
		 predefined = ?, sync_status = ?, deleted_at = ?, version = ?, updated_at = ? WHERE id = ?`,
		nullString(c.UserID), nullString(c.ServerID), c.Name, string(c.Type), c.Color,
		c.Predefined, string(c.SyncStatus), nullTime(c.DeletedAt), c.Version,
		c.UpdatedAt.UTC(), c.ID,
	)
	return err
}

// ListCategories returns the union of predefined categories and the user's
// own categories, excluding soft-deleted rows.
func (db *DB) ListCategories(userID string) ([]models.Category, error) {
	rows, err := db.conn.Query(
		`SELECT id, user_id, server_id, name, type, color, predefined, sync_status, deleted_at, version, created_at, updated_at
		 FROM categories
		 WHERE deleted_at IS NULL AND (user_id IS NULL OR user_id = ?)
		 ORDER BY predefined DESC, name ASC`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *c)
	}
	return categories, rows.Err()
}

// CountPredefinedCategories returns the number of predefined category rows.
func (db *DB) CountPredefinedCategories() (int, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM categories WHERE predefined = 1").Scan(&count)
	return count, err
}

// DeleteUserCategories physically removes the user's categories. Predefined
// rows have a NULL user_id and are never matched.
func (db *DB) DeleteUserCategories(userID string) error {
	_, err := db.conn.Exec("DELETE FROM categories WHERE user_id = ?", userID)
	return err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanCategory(row scanner) (*models.Category, error) {
	var c models.Category
	var userID, serverID sql.NullString
	var deletedAt sql.NullTime
	var catType, syncStatus string
	if err := row.Scan(&c.ID, &userID, &serverID, &c.Name, &catType, &c.Color,
		&c.Predefined, &syncStatus, &deletedAt, &c.Version, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	c.Type = models.CategoryType(catType)
	c.SyncStatus = models.SyncStatus(syncStatus)
	if userID.Valid {
		c.UserID = &userID.String
	}
	if serverID.Valid {
		c.ServerID = &serverID.String
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		c.DeletedAt = &t
	}
	return &c, nil
}

// CreateTransaction inserts a transaction row.
func (db *DB) CreateTransaction(t *models.Transaction) error {
	_, err := db.conn.Exec(
		`INSERT INTO transactions (id, user_id, server_id, category_id, date, amount, description, sync_status, deleted_at, version, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, nullString(t.ServerID), nullString(t.CategoryID),
		t.Date.UTC(), t.Amount.String(), t.Description, string(t.SyncStatus),
		nullTime(t.DeletedAt), t.Version, t.CreatedAt.UTC(), t.UpdatedAt.UTC(),
	)
	return err
}

// GetTransaction retrieves a transaction by ID, including soft-deleted rows.
func (db *DB) GetTransaction(id string) (*models.Transaction, error) {
	row := db.conn.QueryRow(
		`SELECT id, user_id, server_id, category_id, date, amount, description, sync_status, deleted_at, version, created_at, updated_at
		 FROM transactions WHERE id = ?`, id,
	)
	return scanTransaction(row)
}

// UpdateTransaction replaces the stored row for t (full replace).
func (db *DB) UpdateTransaction(t *models.Transaction) error {
	_, err := db.conn.Exec(
		`UPDATE transactions SET user_id = ?, server_id = ?, category_id = ?, date = ?, amount = ?,
		 description = ?, sync_status = ?, deleted_at = ?, version = ?, updated_at = ? WHERE id = ?`,
		t.UserID, nullString(t.ServerID), nullString(t.CategoryID),
		t.Date.UTC(), t.Amount.String(), t.Description, string(t.SyncStatus),
		nullTime(t.DeletedAt), t.Version, t.UpdatedAt.UTC(), t.ID,
	)
	return err
}

// ListTransactions returns the user's non-deleted transactions within the
// inclusive [start, end] range, newest first.
func (db *DB) ListTransactions(userID string, start, end time.Time) ([]models.Transaction, error) {
	rows, err := db.conn.Query(
		`SELECT id, user_id, server_id, category_id, date, amount, description, sync_status, deleted_at, version, created_at, updated_at
		 FROM transactions
		 WHERE user_id = ? AND deleted_at IS NULL AND date >= ? AND date <= ?
		 ORDER BY date DESC`,
		userID, start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transactions []models.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *t)
	}
	return transactions, rows.Err()
}

// DeleteUserTransactions physically removes the user's transactions.
func (db *DB) DeleteUserTransactions(userID string) error {
	_, err := db.conn.Exec("DELETE FROM transactions WHERE user_id = ?", userID)
	return err
}

func scanTransaction(row scanner) (*models.Transaction, error) {
	var t models.Transaction
	var serverID, categoryID sql.NullString
	var deletedAt sql.NullTime
	var amount, syncStatus string
	if err := row.Scan(&t.ID, &t.UserID, &serverID, &categoryID, &t.Date, &amount,
		&t.Description, &syncStatus, &deletedAt, &t.Version, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	parsed, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("stored amount %q: %w", amount, err)
	}
	t.Amount = parsed
	t.SyncStatus = models.SyncStatus(syncStatus)
	if serverID.Valid {
		t.ServerID = &serverID.String
	}
	if categoryID.Valid {
		t.CategoryID = &categoryID.String
	}
	if deletedAt.Valid {
		ts := deletedAt.Time
		t.DeletedAt = &ts
	}
	return &t, nil
}

func nullString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
