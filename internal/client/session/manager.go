// Package session owns the admin authentication state: password
// verification against the remote credential record, issuing the encrypted
// session pair into local storage, restoring it on startup and clearing it
// on logout or expiry.
//
// The state machine is
//
//	Loading ──► Authenticated(user) ◄──► Unauthenticated
//	   └──────────────────────────────────────┘
//
// Loading is only ever the initial state, left by Restore. Unauthenticated
// moves to Authenticated only through Login.
//
// The session pair is encrypted with a static pre-shared key that ships
// with the client. That hides it from casual inspection; it does not
// protect it from anyone who can run the client.
package session

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/psadmin/internal/client/models"
	"github.com/dmitrijs2005/psadmin/internal/client/storage"
	"github.com/dmitrijs2005/psadmin/internal/common"
	"github.com/dmitrijs2005/psadmin/internal/cryptox"
	"github.com/dmitrijs2005/psadmin/internal/logging"
	"github.com/google/uuid"
)

// DefaultTTL is how long an issued session stays valid.
const DefaultTTL = 24 * time.Hour

// State is the authentication status.
type State int

const (
	StateLoading State = iota
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Status is a snapshot of the state machine. Username and ExpiresAt are
// set only when State is StateAuthenticated.
type Status struct {
	State     State
	Username  string
	ExpiresAt time.Time
}

// Authenticated is shorthand for s.State == StateAuthenticated.
func (s Status) Authenticated() bool {
	return s.State == StateAuthenticated
}

// CredentialSource fetches the admin credential record.
type CredentialSource interface {
	GetAdminCredential(ctx context.Context) (*models.Credential, error)
}

// Cipher protects the persisted pair.
type Cipher interface {
	Encrypt(plaintext string) (string, error)
	Decrypt(ciphertext string) (string, error)
}

// Manager is the session/credential manager. It is safe for concurrent use.
type Manager struct {
	credentials CredentialSource
	store       storage.Storage
	cipher      Cipher
	logger      logging.Logger

	ttl   time.Duration
	now   func() time.Time
	newID func() string

	loginMu  sync.Mutex
	notifyMu sync.Mutex

	mu     sync.RWMutex
	status Status
	subs   map[int]func(Status)
	nextID int
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL overrides DefaultTTL.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) { m.ttl = ttl }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithSessionIDs replaces the session id generator.
func WithSessionIDs(gen func() string) Option {
	return func(m *Manager) { m.newID = gen }
}

// NewManager returns a Manager in the Loading state. Call Restore once at
// startup to leave it.
func NewManager(credentials CredentialSource, store storage.Storage, cipher Cipher, logger logging.Logger, opts ...Option) *Manager {
	m := &Manager{
		credentials: credentials,
		store:       store,
		cipher:      cipher,
		logger:      logger,
		ttl:         DefaultTTL,
		now:         time.Now,
		newID:       uuid.NewString,
		status:      Status{State: StateLoading},
		subs:        make(map[int]func(Status)),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Status returns the current snapshot.
func (m *Manager) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Subscribe registers fn to be called after every state change. fn runs
// on the goroutine that caused the change, and subscribers see changes in
// the order they were applied. fn may call Status but must not change
// state itself. The returned func unregisters.
func (m *Manager) Subscribe(fn func(Status)) (cancel func()) {
	m.mu.Lock()
	id := m.nextID
	m.nextID++
	m.subs[id] = fn
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

func (m *Manager) setStatus(s Status) {
	m.transition(func(Status) (Status, bool) { return s, true })
}

// transition applies next to the current status and notifies subscribers
// if it changed. notifyMu keeps notification order equal to apply order.
func (m *Manager) transition(next func(cur Status) (Status, bool)) {
	m.notifyMu.Lock()
	defer m.notifyMu.Unlock()

	m.mu.Lock()
	s, ok := next(m.status)
	changed := ok && m.status != s
	if changed {
		m.status = s
	}
	subs := make([]func(Status), 0, len(m.subs))
	for id := 0; id < m.nextID; id++ {
		if fn, ok := m.subs[id]; ok {
			subs = append(subs, fn)
		}
	}
	m.mu.Unlock()

	if !changed {
		return
	}
	for _, fn := range subs {
		fn(s)
	}
}

// leaveLoading settles a failed Login made before Restore ran.
func (m *Manager) leaveLoading() {
	m.transition(func(cur Status) (Status, bool) {
		return Status{State: StateUnauthenticated}, cur.State == StateLoading
	})
}

func (m *Manager) authenticated(t Token) Status {
	return Status{State: StateAuthenticated, Username: t.Username, ExpiresAt: t.IssuedAt().Add(m.ttl)}
}

// Login verifies username/password against the remote credential record
// and, on success, persists a fresh encrypted session pair.
//
// Errors: common.ErrMissingInput, common.ErrLoginInProgress,
// common.ErrConfigMissing, common.ErrInvalidCredentials (without saying
// which field mismatched) and common.ErrStoreUnavailable wrapping the
// transport failure. On any error the stored pair is left as it was,
// except that a failed write is cleaned up and the state becomes
// Unauthenticated. A failure while still Loading also ends in
// Unauthenticated.
func (m *Manager) Login(ctx context.Context, username, password string) (user string, err error) {
	defer func() {
		if err != nil {
			m.leaveLoading()
		}
	}()

	if username == "" || password == "" {
		return "", common.ErrMissingInput
	}
	if !m.loginMu.TryLock() {
		return "", common.ErrLoginInProgress
	}
	defer m.loginMu.Unlock()

	cred, err := m.credentials.GetAdminCredential(ctx)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			return "", common.ErrConfigMissing
		}
		m.logger.Error(ctx, "credential fetch failed", "error", err)
		return "", fmt.Errorf("%w: %w", common.ErrStoreUnavailable, err)
	}

	digest := cryptox.HashPassword(password)
	userOK := cred.Username == username
	passOK := subtle.ConstantTimeCompare([]byte(cred.Password), []byte(digest)) == 1
	if !userOK || !passOK {
		m.logger.Info(ctx, "login rejected")
		return "", common.ErrInvalidCredentials
	}

	token := Token{Username: username, IssuedAtMillis: m.now().UnixMilli(), SessionID: m.newID()}
	if err := m.persist(ctx, token); err != nil {
		if cerr := m.Clear(ctx); cerr != nil {
			m.logger.Warn(ctx, "cleanup after failed persist", "error", cerr)
		}
		m.setStatus(Status{State: StateUnauthenticated})
		return "", fmt.Errorf("persist session: %w", err)
	}

	m.setStatus(m.authenticated(token))
	m.logger.Info(ctx, "login succeeded", "user", username)
	return username, nil
}

func (m *Manager) persist(ctx context.Context, t Token) error {
	plain, err := t.encode()
	if err != nil {
		return err
	}
	encToken, err := m.cipher.Encrypt(plain)
	if err != nil {
		return err
	}
	encUser, err := m.cipher.Encrypt(t.Username)
	if err != nil {
		return err
	}
	return m.store.SetItems(ctx, map[string]string{
		common.TokenStorageKey: encToken,
		common.UserStorageKey:  encUser,
	})
}

// Restore reads the persisted pair and decides the startup state. It
// returns the authenticated username and true, or "" and false. A
// corrupted, foreign-key, inconsistent or expired pair is cleared; those
// conditions are logged and never returned as errors.
func (m *Manager) Restore(ctx context.Context) (string, bool) {
	token, err := m.load(ctx)
	if err != nil {
		switch {
		case errors.Is(err, errNoSession):
			m.logger.Debug(ctx, "no stored session")
		case errors.Is(err, errStorageRead):
			m.logger.Error(ctx, "session read failed", "error", err)
		default:
			m.logger.Warn(ctx, "discarding stored session", "reason", err)
			if cerr := m.Clear(ctx); cerr != nil {
				m.logger.Warn(ctx, "session clear failed", "error", cerr)
			}
		}
		m.setStatus(Status{State: StateUnauthenticated})
		return "", false
	}

	m.setStatus(m.authenticated(token))
	m.logger.Info(ctx, "session restored", "user", token.Username)
	return token.Username, true
}

var (
	errNoSession   = errors.New("no stored session")
	errStorageRead = errors.New("storage read")
)

func (m *Manager) load(ctx context.Context) (Token, error) {
	encToken, hasToken, err := m.store.GetItem(ctx, common.TokenStorageKey)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %w", errStorageRead, err)
	}
	encUser, hasUser, err := m.store.GetItem(ctx, common.UserStorageKey)
	if err != nil {
		return Token{}, fmt.Errorf("%w: %w", errStorageRead, err)
	}

	switch {
	case !hasToken && !hasUser:
		return Token{}, errNoSession
	case !hasToken || !hasUser:
		return Token{}, fmt.Errorf("%w: incomplete pair", common.ErrInvalidSession)
	}

	plain, err := m.cipher.Decrypt(encToken)
	if err != nil {
		return Token{}, err
	}
	user, err := m.cipher.Decrypt(encUser)
	if err != nil {
		return Token{}, err
	}

	token, err := decodeToken(plain)
	if err != nil {
		return Token{}, err
	}
	if token.Username != user {
		return Token{}, fmt.Errorf("%w: username mismatch", common.ErrInvalidSession)
	}
	if token.Expired(m.now(), m.ttl) {
		return Token{}, common.ErrExpiredSession
	}
	return token, nil
}

// Clear removes both persisted keys. It is idempotent; both removals are
// attempted even if the first fails.
func (m *Manager) Clear(ctx context.Context) error {
	return errors.Join(
		m.store.RemoveItem(ctx, common.TokenStorageKey),
		m.store.RemoveItem(ctx, common.UserStorageKey),
	)
}

// Logout clears the stored pair and moves to Unauthenticated.
func (m *Manager) Logout(ctx context.Context) error {
	err := m.Clear(ctx)
	m.setStatus(Status{State: StateUnauthenticated})
	m.logger.Info(ctx, "logged out")
	return err
}

// CheckExpiry logs out an authenticated session whose validity window has
// passed. It reports whether the session is still authenticated.
func (m *Manager) CheckExpiry(ctx context.Context) bool {
	s := m.Status()
	if !s.Authenticated() {
		return false
	}
	if m.now().Before(s.ExpiresAt) {
		return true
	}
	m.logger.Info(ctx, "session expired", "user", s.Username)
	if err := m.Logout(ctx); err != nil {
		m.logger.Warn(ctx, "session clear failed", "error", err)
	}
	return false
}
