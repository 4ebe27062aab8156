// Package entity implements category and transaction CRUD with soft-delete
// and sync-status bookkeeping, scoped per user.
package entity

import (
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"
	"time"

	"finance-tracker/internal/models"
	"finance-tracker/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	// ErrNotFound is returned when updating or deleting a missing record.
	ErrNotFound = errors.New("record not found")
	// ErrInvalidDate is returned when a transaction date does not parse.
	ErrInvalidDate = errors.New("invalid date")
	// ErrInvalidAmount is returned when a transaction amount does not parse.
	ErrInvalidAmount = errors.New("invalid amount")
)

// DefaultColor is the neutral gray applied when a category color is invalid
// or absent.
const DefaultColor = "#94a3b8"

var colorPattern = regexp.MustCompile(`^#[0-9a-fA-F]{6}$`)

// dateLayouts accepted for transaction dates, tried in order.
var dateLayouts = []string{"2006-01-02", time.RFC3339}

// Service provides entity operations on top of the persistence engine.
type Service struct {
	db *storage.DB
}

// NewService creates an entity Service.
func NewService(db *storage.DB) *Service {
	return &Service{db: db}
}

// CategoryInput is the caller-supplied shape for category writes. Invalid
// type and color values are normalized, not rejected.
type CategoryInput struct {
	Name     string
	Type     string
	Color    string
	ServerID *string
}

// TransactionInput is the caller-supplied shape for transaction writes.
// Date and amount are validated strictly.
type TransactionInput struct {
	CategoryID  *string
	Date        string
	Amount      string
	Description string
	ServerID    *string
}

// predefinedCategories is seeded once at first run.
var predefinedCategories = []struct {
	name  string
	typ   models.CategoryType
	color string
}{
	{"Salary", models.TypeIncome, "#34d399"},
	{"Food", models.TypeExpense, "#60a5fa"},
	{"Transport", models.TypeExpense, "#a78bfa"},
	{"Entertainment", models.TypeExpense, "#f472b6"},
	{"Utilities", models.TypeExpense, "#fbbf24"},
	{"Housing", models.TypeExpense, "#818cf8"},
	{"Gifts", models.TypeExpense, "#fb7185"},
	{"Other", models.TypeExpense, DefaultColor},
}

// SeedPredefined inserts the predefined category set if no predefined rows
// exist yet. Safe to call on every boot.
func (s *Service) SeedPredefined() error {
	count, err := s.db.CountPredefinedCategories()
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	now := time.Now()
	for _, def := range predefinedCategories {
		c := &models.Category{
			ID:         uuid.NewString(),
			Name:       def.name,
			Type:       def.typ,
			Color:      def.color,
			Predefined: true,
			SyncStatus: models.SyncLocal,
			Version:    1,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		if err := s.db.CreateCategory(c); err != nil {
			return fmt.Errorf("seed category %s: %w", def.name, err)
		}
	}
	return nil
}

// CreateCategory creates a user-owned category. The predefined flag is
// forced to false regardless of input.
func (s *Service) CreateCategory(userID string, in CategoryInput) (*models.Category, error) {
	now := time.Now()
	c := &models.Category{
		ID:         uuid.NewString(),
		UserID:     &userID,
		ServerID:   in.ServerID,
		Name:       strings.TrimSpace(in.Name),
		Type:       normalizeType(in.Type),
		Color:      normalizeColor(in.Color),
		Predefined: false,
		SyncStatus: models.SyncLocal,
		Version:    1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.db.CreateCategory(c); err != nil {
		log.Printf("entity: create category: %v", err)
		return nil, err
	}
	return c, nil
}

// UpdateCategory replaces a category's mutable fields. Predefined rows keep
// their stored type, color and predefined flag regardless of input.
func (s *Service) UpdateCategory(id string, in CategoryInput) (*models.Category, error) {
	existing, err := s.db.GetCategory(id)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, ErrNotFound
		}
		log.Printf("entity: load category %s: %v", id, err)
		return nil, err
	}

	updated := *existing
	updated.Name = strings.TrimSpace(in.Name)
	updated.ServerID = in.ServerID
	if !existing.Predefined {
		updated.Type = normalizeType(in.Type)
		updated.Color = normalizeColor(in.Color)
	}
	updated.Version++
	updated.UpdatedAt = time.Now()

	if err := s.db.UpdateCategory(&updated); err != nil {
		log.Printf("entity: update category %s: %v", id, err)
		return nil, err
	}
	return &updated, nil
}

// DeleteCategory soft-deletes a category. The row remains in storage for
// future sync; transactions referencing it are left untouched.
func (s *Service) DeleteCategory(id string) error {
	c, err := s.db.GetCategory(id)
	if err != nil {
		if storage.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	if c.Deleted() {
		return nil
	}

	now := time.Now()
	c.DeletedAt = &now
	c.SyncStatus = models.SyncDeleted
	c.Version++
	c.UpdatedAt = now
	return s.db.UpdateCategory(c)
}

// Categories returns all predefined categories plus the user's own
// non-deleted ones.
func (s *Service) Categories(userID string) ([]models.Category, error) {
	return s.db.ListCategories(userID)
}

// CreateTransaction validates and creates a transaction. An unparsable date
// or amount is rejected before any write.
func (s *Service) CreateTransaction(userID string, in TransactionInput) (*models.Transaction, error) {
	date, err := parseDate(in.Date)
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(in.Amount))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, in.Amount)
	}

	now := time.Now()
	t := &models.Transaction{
		ID:          uuid.NewString(),
		UserID:      userID,
		ServerID:    in.ServerID,
		CategoryID:  in.CategoryID,
		Date:        date,
		Amount:      amount,
		Description: strings.TrimSpace(in.Description),
		SyncStatus:  models.SyncLocal,
		Version:     1,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.db.CreateTransaction(t); err != nil {
		log.Printf("entity: create transaction: %v", err)
		return nil, err
	}
	return t, nil
}

// UpdateTransaction replaces a transaction's mutable fields with the same
// validation as creation.
func (s *Service) UpdateTransaction(id string, in TransactionInput) (*models.Transaction, error) {
	existing, err := s.db.GetTransaction(id)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	date, err := parseDate(in.Date)
	if err != nil {
		return nil, err
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(in.Amount))
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAmount, in.Amount)
	}

	updated := *existing
	updated.CategoryID = in.CategoryID
	updated.Date = date
	updated.Amount = amount
	updated.Description = strings.TrimSpace(in.Description)
	updated.ServerID = in.ServerID
	updated.Version++
	updated.UpdatedAt = time.Now()

	if err := s.db.UpdateTransaction(&updated); err != nil {
		log.Printf("entity: update transaction %s: %v", id, err)
		return nil, err
	}
	return &updated, nil
}

// DeleteTransaction soft-deletes a transaction.
func (s *Service) DeleteTransaction(id string) error {
	t, err := s.db.GetTransaction(id)
	if err != nil {
		if storage.IsNotFound(err) {
			return ErrNotFound
		}
		return err
	}
	if t.Deleted() {
		return nil
	}

	now := time.Now()
	t.DeletedAt = &now
	t.SyncStatus = models.SyncDeleted
	t.Version++
	t.UpdatedAt = now
	return s.db.UpdateTransaction(t)
}

// Transactions returns the user's non-deleted transactions in the inclusive
// date range, newest first. Nil bounds widen to the full representable span.
func (s *Service) Transactions(userID string, start, end *time.Time) ([]models.Transaction, error) {
	from := time.Date(1, time.January, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)
	if start != nil {
		from = *start
	}
	if end != nil {
		to = *end
	}
	return s.db.ListTransactions(userID, from, to)
}

// ClearUserData physically removes all of the user's categories and
// transactions and clears their last visited page. Predefined categories are
// never touched.
func (s *Service) ClearUserData(userID string) error {
	if err := s.db.DeleteUserTransactions(userID); err != nil {
		return fmt.Errorf("clear transactions: %w", err)
	}
	if err := s.db.DeleteUserCategories(userID); err != nil {
		return fmt.Errorf("clear categories: %w", err)
	}
	if err := s.db.SetLastPage(userID, nil); err != nil {
		return fmt.Errorf("clear last page: %w", err)
	}
	return nil
}

func normalizeType(t string) models.CategoryType {
	switch models.CategoryType(t) {
	case models.TypeIncome:
		return models.TypeIncome
	case models.TypeExpense:
		return models.TypeExpense
	default:
		return models.TypeExpense
	}
}

func normalizeColor(c string) string {
	if colorPattern.MatchString(c) {
		return c
	}
	return DefaultColor
}

func parseDate(s string) (time.Time, error) {
	value := strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if date, err := time.Parse(layout, value); err == nil {
			return date, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}
