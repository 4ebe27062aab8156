package session

import (
	"testing"
	"time"

	"finance-tracker/internal/models"
	"finance-tracker/internal/prefs"
	"finance-tracker/internal/storage"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// SessionServiceTestSuite provides a test suite for the session service
type SessionServiceTestSuite struct {
	suite.Suite
	db    *storage.DB
	store prefs.Store
	svc   *Service
}

func (suite *SessionServiceTestSuite) SetupTest() {
	db, err := storage.NewDB(":memory:")
	require.NoError(suite.T(), err, "failed to create test database")
	suite.db = db
	suite.store = prefs.NewMemoryStore()
	suite.svc = NewService(db, suite.store)
}

func (suite *SessionServiceTestSuite) TearDownTest() {
	if suite.db != nil {
		suite.db.Close()
	}
}

func (suite *SessionServiceTestSuite) register(username, email, password string) *models.User {
	u, err := suite.svc.Register(RegisterInput{
		Username: username,
		Email:    email,
		Password: password,
	})
	require.NoError(suite.T(), err)
	return u
}

func (suite *SessionServiceTestSuite) TestRegister() {
	u := suite.register("alice", "alice@example.com", "secret123")
	assert.NotEmpty(suite.T(), u.ID)
	assert.NotEmpty(suite.T(), u.PasswordHash)
	assert.NotEqual(suite.T(), "secret123", u.PasswordHash)
}

func (suite *SessionServiceTestSuite) TestRegisterDuplicate() {
	suite.register("alice", "alice@example.com", "secret123")

	_, err := suite.svc.Register(RegisterInput{
		Username: "alice",
		Email:    "other@example.com",
		Password: "secret123",
	})
	assert.ErrorIs(suite.T(), err, ErrUserExists)

	_, err = suite.svc.Register(RegisterInput{
		Username: "other",
		Email:    "alice@example.com",
		Password: "secret123",
	})
	assert.ErrorIs(suite.T(), err, ErrUserExists)
}

func (suite *SessionServiceTestSuite) TestVerifyLogin() {
	suite.register("alice", "alice@example.com", "secret123")

	u, err := suite.svc.VerifyLogin("alice", "secret123")
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), u)

	u, err = suite.svc.VerifyLogin("alice@example.com", "secret123")
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), u, "email must work as login")

	// Wrong password and unknown user both resolve to the same sentinel
	u, err = suite.svc.VerifyLogin("alice", "wrong")
	require.NoError(suite.T(), err)
	assert.Nil(suite.T(), u)

	u, err = suite.svc.VerifyLogin("nobody", "secret123")
	require.NoError(suite.T(), err)
	assert.Nil(suite.T(), u)
}

func (suite *SessionServiceTestSuite) TestLoginStoresBearerToken() {
	suite.register("alice", "alice@example.com", "secret123")

	u, token, err := suite.svc.Login("alice", "secret123", false)
	require.NoError(suite.T(), err)
	require.NotNil(suite.T(), u)
	assert.Len(suite.T(), token, 64)
	assert.Equal(suite.T(), token, suite.store.Get(prefs.KeySessionToken))

	got := suite.svc.CurrentUser()
	require.NotNil(suite.T(), got)
	assert.Equal(suite.T(), u.ID, got.ID)
}

func (suite *SessionServiceTestSuite) TestLoginInvalidCredentials() {
	suite.register("alice", "alice@example.com", "secret123")

	u, token, err := suite.svc.Login("alice", "wrong", false)
	require.NoError(suite.T(), err)
	assert.Nil(suite.T(), u)
	assert.Empty(suite.T(), token)
	assert.Empty(suite.T(), suite.store.Get(prefs.KeySessionToken))
}

func (suite *SessionServiceTestSuite) TestSingleActiveSession() {
	u := suite.register("alice", "alice@example.com", "secret123")

	_, first, err := suite.svc.Login("alice", "secret123", false)
	require.NoError(suite.T(), err)
	_, second, err := suite.svc.Login("alice", "secret123", false)
	require.NoError(suite.T(), err)
	assert.NotEqual(suite.T(), first, second)

	count, err := suite.db.CountSessionsForUser(u.ID)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, count, "a fresh login must replace prior sessions")

	_, err = suite.db.GetSessionByToken(first)
	assert.True(suite.T(), storage.IsNotFound(err))
}

func (suite *SessionServiceTestSuite) TestRememberMeExtendsTTL() {
	suite.register("alice", "alice@example.com", "secret123")

	_, token, err := suite.svc.Login("alice", "secret123", true)
	require.NoError(suite.T(), err)

	sess, err := suite.db.GetSessionByToken(token)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), sess.ExpiresAt.After(time.Now().Add(ShortSessionTTL)),
		"remember-me session must outlive the short TTL")
}

func (suite *SessionServiceTestSuite) TestLogout() {
	suite.register("alice", "alice@example.com", "secret123")
	_, token, err := suite.svc.Login("alice", "secret123", false)
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), suite.svc.Logout())
	assert.Empty(suite.T(), suite.store.Get(prefs.KeySessionToken))
	assert.Nil(suite.T(), suite.svc.CurrentUser())

	_, err = suite.db.GetSessionByToken(token)
	assert.True(suite.T(), storage.IsNotFound(err))

	// Logout without an active session is safe
	assert.NoError(suite.T(), suite.svc.Logout())
}

func (suite *SessionServiceTestSuite) TestCurrentUserExpiredSession() {
	u := suite.register("alice", "alice@example.com", "secret123")

	stale := &models.Session{
		ID:        uuid.NewString(),
		UserID:    u.ID,
		Token:     "stale-token",
		ExpiresAt: time.Now().Add(-time.Minute),
		CreatedAt: time.Now().Add(-time.Hour),
	}
	require.NoError(suite.T(), suite.db.CreateSession(stale))
	suite.store.Set(prefs.KeySessionToken, "stale-token")

	assert.Nil(suite.T(), suite.svc.CurrentUser())
	assert.Empty(suite.T(), suite.store.Get(prefs.KeySessionToken),
		"expired token must be cleared from the bearer slot")

	_, err := suite.db.GetSessionByToken("stale-token")
	assert.True(suite.T(), storage.IsNotFound(err), "expired row must be deleted on resolution")
}

func (suite *SessionServiceTestSuite) TestSweep() {
	alice := suite.register("alice", "alice@example.com", "secret123")
	suite.register("bob", "bob@example.com", "secret123")

	stale := &models.Session{
		ID:        uuid.NewString(),
		UserID:    alice.ID,
		Token:     "stale-token",
		ExpiresAt: time.Now().Add(-time.Minute),
		CreatedAt: time.Now().Add(-time.Hour),
	}
	require.NoError(suite.T(), suite.db.CreateSession(stale))
	suite.store.Set(prefs.KeySessionToken, "stale-token")

	_, live, err := suite.svc.Login("bob", "secret123", false)
	require.NoError(suite.T(), err)

	// Bob's login moved the bearer slot; put Alice's stale token back to
	// check that the sweep clears a swept local token.
	suite.store.Set(prefs.KeySessionToken, "stale-token")

	n, err := suite.svc.Sweep(time.Now())
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), 1, n)
	assert.Empty(suite.T(), suite.store.Get(prefs.KeySessionToken))

	_, err = suite.db.GetSessionByToken(live)
	assert.NoError(suite.T(), err, "live sessions must survive the sweep")

	// A second sweep finds nothing
	n, err = suite.svc.Sweep(time.Now())
	require.NoError(suite.T(), err)
	assert.Zero(suite.T(), n)
}

func (suite *SessionServiceTestSuite) TestClearAllSessions() {
	suite.register("alice", "alice@example.com", "secret123")
	suite.register("bob", "bob@example.com", "secret123")
	_, _, err := suite.svc.Login("alice", "secret123", false)
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), suite.svc.ClearAllSessions())
	assert.Empty(suite.T(), suite.store.Get(prefs.KeySessionToken))
	assert.Nil(suite.T(), suite.svc.CurrentUser())
}

func (suite *SessionServiceTestSuite) TestEvents() {
	suite.register("alice", "alice@example.com", "secret123")

	var events []Event
	suite.svc.Subscribe(func(e Event) {
		events = append(events, e)
	})

	_, _, err := suite.svc.Login("alice", "secret123", false)
	require.NoError(suite.T(), err)
	require.NoError(suite.T(), suite.svc.Logout())

	require.Len(suite.T(), events, 2)
	assert.Equal(suite.T(), EventLogin, events[0].Type)
	require.NotNil(suite.T(), events[0].User)
	assert.Equal(suite.T(), "alice", events[0].User.Username)
	assert.Equal(suite.T(), EventLogout, events[1].Type)
}

func (suite *SessionServiceTestSuite) TestFailedLoginPublishesNothing() {
	suite.register("alice", "alice@example.com", "secret123")

	var events []Event
	suite.svc.Subscribe(func(e Event) {
		events = append(events, e)
	})

	_, _, err := suite.svc.Login("alice", "wrong", false)
	require.NoError(suite.T(), err)
	assert.Empty(suite.T(), events)
}

func TestSessionServiceSuite(t *testing.T) {
	suite.Run(t, new(SessionServiceTestSuite))
}
