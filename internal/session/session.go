// Package session implements credential verification, session issuance and
// expiry, and current-user resolution on top of the persistence engine.
package session

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"finance-tracker/internal/auth"
	"finance-tracker/internal/models"
	"finance-tracker/internal/prefs"
	"finance-tracker/internal/storage"

	"github.com/google/uuid"
)

const (
	// ShortSessionTTL applies to plain logins.
	ShortSessionTTL = 24 * time.Hour
	// LongSessionTTL applies when "remember me" is chosen.
	LongSessionTTL = 30 * 24 * time.Hour
	// DefaultSweepInterval drives the recurring expiry sweep.
	DefaultSweepInterval = 15 * time.Minute
)

// ErrUserExists is returned when a registration collides with an existing
// username or email.
var ErrUserExists = errors.New("username or email already taken")

// EventType distinguishes auth notifications.
type EventType string

const (
	// EventLogin fires after a session is issued.
	EventLogin EventType = "login"
	// EventLogout fires after the local session ends.
	EventLogout EventType = "logout"
)

// Event is an auth notification delivered to subscribers.
type Event struct {
	Type EventType
	User *models.User
}

// Service is the session and credential service. The prefs store holds the
// bearer-token slot the way the client persists it.
type Service struct {
	db       *storage.DB
	prefs    prefs.Store
	shortTTL time.Duration
	longTTL  time.Duration

	mu      sync.Mutex
	subs    []func(Event)
	sweepCh chan struct{}
}

// NewService creates a session Service with the default TTLs.
func NewService(db *storage.DB, store prefs.Store) *Service {
	return &Service{
		db:       db,
		prefs:    store,
		shortTTL: ShortSessionTTL,
		longTTL:  LongSessionTTL,
		sweepCh:  make(chan struct{}, 1),
	}
}

// Subscribe registers a callback for auth events. Callbacks run on the
// goroutine that triggered the event.
func (s *Service) Subscribe(fn func(Event)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

func (s *Service) publish(e Event) {
	s.mu.Lock()
	subs := make([]func(Event), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(e)
	}
}

// RegisterInput is the registration shape.
type RegisterInput struct {
	Username  string
	Email     string
	FirstName string
	LastName  string
	Password  string
}

// Register creates a new user after an explicit availability check. Write
// failures are logged and returned for the caller to surface.
func (s *Service) Register(in RegisterInput) (*models.User, error) {
	taken, err := s.db.UserExists(in.Username, in.Email)
	if err != nil {
		log.Printf("session: availability check: %v", err)
		return nil, err
	}
	if taken {
		return nil, ErrUserExists
	}

	hash, salt, err := auth.HashPassword(in.Password)
	if err != nil {
		log.Printf("session: hash password: %v", err)
		return nil, err
	}

	now := time.Now()
	u := &models.User{
		ID:           uuid.NewString(),
		Username:     in.Username,
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PasswordHash: hash,
		PasswordSalt: salt,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.db.CreateUser(u); err != nil {
		log.Printf("session: create user: %v", err)
		return nil, err
	}
	return u, nil
}

// VerifyLogin matches login against username or email and checks the
// password. A wrong password or unknown user returns (nil, nil) — it is a
// sentinel, never an error, so callers can show one generic message.
func (s *Service) VerifyLogin(login, password string) (*models.User, error) {
	u, err := s.db.GetUserByLogin(login)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, nil
		}
		log.Printf("session: lookup %q: %v", login, err)
		return nil, err
	}
	if !auth.CheckPassword(password, u.PasswordHash, u.PasswordSalt) {
		return nil, nil
	}
	return u, nil
}

// Login verifies credentials and issues a session. Any prior sessions for
// the user are deleted first (single active session). The returned token is
// also stored in the bearer slot. A nil user means invalid credentials.
func (s *Service) Login(login, password string, rememberMe bool) (*models.User, string, error) {
	u, err := s.VerifyLogin(login, password)
	if err != nil {
		return nil, "", err
	}
	if u == nil {
		return nil, "", nil
	}

	if err := s.db.DeleteSessionsForUser(u.ID); err != nil {
		log.Printf("session: delete prior sessions: %v", err)
		return nil, "", err
	}

	token, err := auth.GenerateSessionToken()
	if err != nil {
		log.Printf("session: generate token: %v", err)
		return nil, "", err
	}

	ttl := s.shortTTL
	if rememberMe {
		ttl = s.longTTL
	}
	now := time.Now()
	sess := &models.Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Token:     token,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}
	if err := s.db.CreateSession(sess); err != nil {
		log.Printf("session: create session: %v", err)
		return nil, "", err
	}

	s.prefs.Set(prefs.KeySessionToken, token)
	s.publish(Event{Type: EventLogin, User: u})
	return u, token, nil
}

// CurrentUser resolves the stored bearer token to its owning user. Absent or
// expired sessions clear the slot and resolve to nil; read failures are
// logged and degrade to nil instead of propagating.
func (s *Service) CurrentUser() *models.User {
	token := s.prefs.Get(prefs.KeySessionToken)
	if token == "" {
		return nil
	}

	sess, err := s.db.GetSessionByToken(token)
	if err != nil {
		if !storage.IsNotFound(err) {
			log.Printf("session: resolve token: %v", err)
		}
		s.prefs.Delete(prefs.KeySessionToken)
		return nil
	}

	if sess.Expired(time.Now()) {
		if err := s.db.DeleteSession(token); err != nil {
			log.Printf("session: delete expired session: %v", err)
		}
		s.prefs.Delete(prefs.KeySessionToken)
		return nil
	}

	u, err := s.db.GetUserByID(sess.UserID)
	if err != nil {
		log.Printf("session: resolve user %s: %v", sess.UserID, err)
		return nil
	}
	return u
}

// Logout deletes the current session row, clears the bearer slot and
// publishes a logout event. Safe to call without an active session.
func (s *Service) Logout() error {
	user := s.CurrentUser()
	token := s.prefs.Get(prefs.KeySessionToken)
	if token != "" {
		if err := s.db.DeleteSession(token); err != nil {
			log.Printf("session: logout: %v", err)
			return err
		}
	}
	s.prefs.Delete(prefs.KeySessionToken)
	s.publish(Event{Type: EventLogout, User: user})
	return nil
}

// ClearAllSessions wipes every session row and the bearer slot.
func (s *Service) ClearAllSessions() error {
	if err := s.db.DeleteAllSessions(); err != nil {
		log.Printf("session: clear all sessions: %v", err)
		return err
	}
	s.prefs.Delete(prefs.KeySessionToken)
	return nil
}

// Sweep bulk-deletes sessions expired at now and clears the bearer slot if
// its token was among them. Idempotent; running it concurrently with
// login/logout is safe. Returns the number of sessions removed.
func (s *Service) Sweep(now time.Time) (int, error) {
	tokens, err := s.db.DeleteExpiredSessions(now)
	if err != nil {
		log.Printf("session: sweep: %v", err)
		return 0, err
	}
	local := s.prefs.Get(prefs.KeySessionToken)
	for _, token := range tokens {
		if token == local && local != "" {
			s.prefs.Delete(prefs.KeySessionToken)
			break
		}
	}
	return len(tokens), nil
}

// TriggerSweep requests an immediate sweep from a running RunSweeper, e.g.
// when the tab regains visibility. Never blocks.
func (s *Service) TriggerSweep() {
	select {
	case s.sweepCh <- struct{}{}:
	default:
	}
}

// RunSweeper runs the expiry sweep every interval and on TriggerSweep until
// ctx is done. Sweep errors are logged and the loop keeps running.
func (s *Service) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(time.Now())
		case <-s.sweepCh:
			s.Sweep(time.Now())
		}
	}
}
