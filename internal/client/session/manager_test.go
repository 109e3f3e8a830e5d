package session

import (
	"context"
	"encoding/base64"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/psadmin/internal/client/models"
	"github.com/dmitrijs2005/psadmin/internal/client/storage"
	"github.com/dmitrijs2005/psadmin/internal/common"
	"github.com/dmitrijs2005/psadmin/internal/cryptox"
	"github.com/dmitrijs2005/psadmin/internal/logging"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---- fakes ----

type fakeCredentials struct {
	cred    *models.Credential
	err     error
	calls   int
	started chan struct{}
	release chan struct{}
}

func (f *fakeCredentials) GetAdminCredential(ctx context.Context) (*models.Credential, error) {
	f.calls++
	if f.started != nil {
		close(f.started)
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	if f.cred == nil {
		return nil, common.ErrNotFound
	}
	c := *f.cred
	return &c, nil
}

// flakyStorage wraps MemoryStorage with injectable failures.
type flakyStorage struct {
	*storage.MemoryStorage
	getErr    error
	setErr    error
	removeErr error

	mu      sync.Mutex
	removed []string
}

func (s *flakyStorage) GetItem(ctx context.Context, key string) (string, bool, error) {
	if s.getErr != nil {
		return "", false, s.getErr
	}
	return s.MemoryStorage.GetItem(ctx, key)
}

func (s *flakyStorage) SetItems(ctx context.Context, items map[string]string) error {
	if s.setErr != nil {
		// simulate a half-applied write
		for k, v := range items {
			_ = s.MemoryStorage.SetItem(ctx, k, v)
			break
		}
		return s.setErr
	}
	return s.MemoryStorage.SetItems(ctx, items)
}

func (s *flakyStorage) RemoveItem(ctx context.Context, key string) error {
	s.mu.Lock()
	s.removed = append(s.removed, key)
	s.mu.Unlock()
	if s.removeErr != nil {
		return s.removeErr
	}
	return s.MemoryStorage.RemoveItem(ctx, key)
}

type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// ---- helpers ----

const secret = common.DefaultSecretKey

var passwordDigest = cryptox.HashPassword("password")

type fixture struct {
	m     *Manager
	creds *fakeCredentials
	store *flakyStorage
	clock *clock
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		creds: &fakeCredentials{cred: &models.Credential{Username: "admin", Password: passwordDigest}},
		store: &flakyStorage{MemoryStorage: storage.NewMemoryStorage()},
		clock: &clock{t: time.UnixMilli(1_760_000_000_000)},
	}
	f.m = NewManager(f.creds, f.store, cryptox.NewCipher(secret), logging.NewNop(),
		WithClock(f.clock.Now),
		WithSessionIDs(func() string { return "sid-1" }),
	)
	return f
}

func (f *fixture) seedToken(t *testing.T, tok Token) {
	t.Helper()
	c := cryptox.NewCipher(secret)
	plain, err := tok.encode()
	require.NoError(t, err)
	encTok, err := c.Encrypt(plain)
	require.NoError(t, err)
	encUser, err := c.Encrypt(tok.Username)
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, f.store.SetItem(ctx, common.TokenStorageKey, encTok))
	require.NoError(t, f.store.SetItem(ctx, common.UserStorageKey, encUser))
}

func (f *fixture) item(t *testing.T, key string) (string, bool) {
	t.Helper()
	v, ok, err := f.store.MemoryStorage.GetItem(context.Background(), key)
	require.NoError(t, err)
	return v, ok
}

// ---- Login ----

func TestLogin_Success_PersistsEncryptedPair(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	user, err := f.m.Login(ctx, "admin", "password")
	require.NoError(t, err)
	require.Equal(t, "admin", user)

	encTok, ok := f.item(t, common.TokenStorageKey)
	require.True(t, ok)
	require.NotEmpty(t, encTok)
	encUser, ok := f.item(t, common.UserStorageKey)
	require.True(t, ok)
	require.NotEmpty(t, encUser)

	c := cryptox.NewCipher(secret)
	plainUser, err := c.Decrypt(encUser)
	require.NoError(t, err)
	assert.Equal(t, "admin", plainUser)

	plainTok, err := c.Decrypt(encTok)
	require.NoError(t, err)
	tok, err := decodeToken(plainTok)
	require.NoError(t, err)
	assert.Equal(t, Token{Username: "admin", IssuedAtMillis: f.clock.Now().UnixMilli(), SessionID: "sid-1"}, tok)

	st := f.m.Status()
	assert.Equal(t, StateAuthenticated, st.State)
	assert.Equal(t, "admin", st.Username)
	assert.Equal(t, f.clock.Now().Add(DefaultTTL), st.ExpiresAt)
}

func TestLogin_WrongPassword_StorageUnchanged(t *testing.T) {
	f := newFixture(t)

	_, err := f.m.Login(context.Background(), "admin", "wrong")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)
	assert.Equal(t, 0, f.store.Len())
	assert.Equal(t, StateUnauthenticated, f.m.Status().State)
}

func TestLogin_FailureBeforeRestore_LeavesLoading(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(f *fixture)
		password string
	}{
		{"wrong password", func(*fixture) {}, "wrong"},
		{"missing input", func(*fixture) {}, ""},
		{"config missing", func(f *fixture) { f.creds.cred = nil }, "password"},
		{"store unavailable", func(f *fixture) { f.creds.err = errors.New("timeout") }, "password"},
		{"persist failure", func(f *fixture) { f.store.setErr = errors.New("disk full") }, "password"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			tt.setup(f)
			require.Equal(t, StateLoading, f.m.Status().State)

			_, err := f.m.Login(context.Background(), "admin", tt.password)
			require.Error(t, err)
			assert.Equal(t, Status{State: StateUnauthenticated}, f.m.Status())
		})
	}
}

func TestLogin_ExistingSessionUntouchedOnFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.m.Login(ctx, "admin", "password")
	require.NoError(t, err)
	before, _ := f.item(t, common.TokenStorageKey)

	_, err = f.m.Login(ctx, "admin", "wrong")
	require.ErrorIs(t, err, common.ErrInvalidCredentials)

	after, _ := f.item(t, common.TokenStorageKey)
	assert.Equal(t, before, after)
}

func TestLogin_SingleCharacterDifferences(t *testing.T) {
	tests := []struct {
		name     string
		username string
		password string
	}{
		{"username case", "Admin", "password"},
		{"username trailing space", "admin ", "password"},
		{"username missing char", "admi", "password"},
		{"password last char", "admin", "passwore"},
		{"password case", "admin", "Password"},
		{"password extra char", "admin", "password1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			_, err := f.m.Login(context.Background(), tt.username, tt.password)
			require.ErrorIs(t, err, common.ErrInvalidCredentials)
			assert.Equal(t, common.ErrInvalidCredentials.Error(), err.Error(), "must not reveal which field mismatched")
			assert.Equal(t, 0, f.store.Len())
		})
	}
}

func TestLogin_ConfigMissing(t *testing.T) {
	f := newFixture(t)
	f.creds.cred = nil

	_, err := f.m.Login(context.Background(), "admin", "password")
	require.ErrorIs(t, err, common.ErrConfigMissing)
}

func TestLogin_StoreUnavailable_WrapsCause(t *testing.T) {
	f := newFixture(t)
	cause := errors.New("dial tcp: connection refused")
	f.creds.err = cause

	_, err := f.m.Login(context.Background(), "admin", "password")
	require.ErrorIs(t, err, common.ErrStoreUnavailable)
	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestLogin_MissingInput(t *testing.T) {
	f := newFixture(t)

	_, err := f.m.Login(context.Background(), "", "password")
	require.ErrorIs(t, err, common.ErrMissingInput)
	_, err = f.m.Login(context.Background(), "admin", "")
	require.ErrorIs(t, err, common.ErrMissingInput)
	assert.Zero(t, f.creds.calls)
}

func TestLogin_ConcurrentAttemptRejected(t *testing.T) {
	f := newFixture(t)
	f.creds.started = make(chan struct{})
	f.creds.release = make(chan struct{})

	done := make(chan error, 1)
	go func() {
		_, err := f.m.Login(context.Background(), "admin", "password")
		done <- err
	}()

	<-f.creds.started
	_, err := f.m.Login(context.Background(), "admin", "password")
	require.ErrorIs(t, err, common.ErrLoginInProgress)

	close(f.creds.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, f.creds.calls)
}

func TestLogin_PersistFailure_ClearsPartialWrite(t *testing.T) {
	f := newFixture(t)
	f.store.setErr = errors.New("disk full")

	_, err := f.m.Login(context.Background(), "admin", "password")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, 0, f.store.Len())
	assert.Equal(t, StateUnauthenticated, f.m.Status().State)
}

func TestLogin_PersistFailure_EndsPreviousSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.m.Login(ctx, "admin", "password")
	require.NoError(t, err)

	f.store.setErr = errors.New("disk full")
	_, err = f.m.Login(ctx, "admin", "password")
	require.Error(t, err)
	assert.Equal(t, 0, f.store.Len())
	assert.Equal(t, StateUnauthenticated, f.m.Status().State)
}

// ---- Restore ----

func TestRestore_WithinWindow(t *testing.T) {
	f := newFixture(t)
	now := f.clock.Now()
	f.seedToken(t, Token{Username: "admin", IssuedAtMillis: now.Add(-(23*time.Hour + 59*time.Minute)).UnixMilli(), SessionID: "s"})

	user, ok := f.m.Restore(context.Background())
	require.True(t, ok)
	assert.Equal(t, "admin", user)
	assert.Equal(t, StateAuthenticated, f.m.Status().State)
	assert.Equal(t, 2, f.store.Len())
}

func TestRestore_Expired_ClearsStorage(t *testing.T) {
	for _, age := range []time.Duration{24*time.Hour + time.Minute, 24 * time.Hour} {
		t.Run(age.String(), func(t *testing.T) {
			f := newFixture(t)
			f.seedToken(t, Token{Username: "admin", IssuedAtMillis: f.clock.Now().Add(-age).UnixMilli(), SessionID: "s"})

			user, ok := f.m.Restore(context.Background())
			require.False(t, ok)
			assert.Empty(t, user)
			assert.Equal(t, StateUnauthenticated, f.m.Status().State)
			assert.Equal(t, 0, f.store.Len())
		})
	}
}

func TestRestore_NoSession(t *testing.T) {
	f := newFixture(t)

	_, ok := f.m.Restore(context.Background())
	require.False(t, ok)
	assert.Equal(t, StateUnauthenticated, f.m.Status().State)
	assert.Empty(t, f.store.removed)
}

func TestRestore_HalfPair_Cleared(t *testing.T) {
	f := newFixture(t)
	f.seedToken(t, Token{Username: "admin", IssuedAtMillis: f.clock.Now().UnixMilli(), SessionID: "s"})
	require.NoError(t, f.store.MemoryStorage.RemoveItem(context.Background(), common.UserStorageKey))

	_, ok := f.m.Restore(context.Background())
	require.False(t, ok)
	assert.Equal(t, 0, f.store.Len())
}

func TestRestore_TamperedToken(t *testing.T) {
	f := newFixture(t)
	f.seedToken(t, Token{Username: "admin", IssuedAtMillis: f.clock.Now().UnixMilli(), SessionID: "s"})

	enc, _ := f.item(t, common.TokenStorageKey)
	raw, err := base64.StdEncoding.DecodeString(enc)
	require.NoError(t, err)
	raw[0] ^= 0x01
	require.NoError(t, f.store.SetItem(context.Background(), common.TokenStorageKey, base64.StdEncoding.EncodeToString(raw)))

	require.NotPanics(t, func() {
		_, ok := f.m.Restore(context.Background())
		require.False(t, ok)
	})
	assert.Equal(t, StateUnauthenticated, f.m.Status().State)
	assert.Equal(t, 0, f.store.Len())
}

// Every single-character substitution in either stored value must be
// rejected. A uuid session id makes the token ciphertext a length that
// leaves spare bits in the final base64 character.
func TestRestore_AnyCharacterTampered(t *testing.T) {
	const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/="

	f := newFixture(t)
	ctx := context.Background()
	f.seedToken(t, Token{Username: "admin", IssuedAtMillis: f.clock.Now().UnixMilli(), SessionID: uuid.NewString()})
	encTok, _ := f.item(t, common.TokenStorageKey)
	encUser, _ := f.item(t, common.UserStorageKey)

	raw, err := base64.StdEncoding.DecodeString(encTok)
	require.NoError(t, err)
	require.NotZero(t, len(raw)%3, "token ciphertext should end in a partial base64 group")

	stored := map[string]string{common.TokenStorageKey: encTok, common.UserStorageKey: encUser}
	for key, enc := range stored {
		for pos := 0; pos < len(enc); pos++ {
			for _, c := range alphabet {
				if rune(enc[pos]) == c {
					continue
				}
				tampered := []byte(enc)
				tampered[pos] = byte(c)

				require.NoError(t, f.store.SetItems(ctx, stored))
				require.NoError(t, f.store.SetItem(ctx, key, string(tampered)))

				if _, ok := f.m.Restore(ctx); ok {
					t.Fatalf("%s tampered at %d (%q) still restores", key, pos, c)
				}
			}
		}
	}
	assert.Equal(t, StateUnauthenticated, f.m.Status().State)
}

func TestRestore_GarbageValues(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	require.NoError(t, f.store.SetItem(ctx, common.TokenStorageKey, "%%%garbage%%%"))
	require.NoError(t, f.store.SetItem(ctx, common.UserStorageKey, "also garbage"))

	_, ok := f.m.Restore(ctx)
	require.False(t, ok)
	assert.Equal(t, 0, f.store.Len())
}

func TestRestore_ForeignKey(t *testing.T) {
	f := newFixture(t)
	other := cryptox.NewCipher("another key")
	encTok, err := other.Encrypt(`{"username":"admin","timestamp":1,"sessionId":"s"}`)
	require.NoError(t, err)
	encUser, err := other.Encrypt("admin")
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, f.store.SetItem(ctx, common.TokenStorageKey, encTok))
	require.NoError(t, f.store.SetItem(ctx, common.UserStorageKey, encUser))

	_, ok := f.m.Restore(ctx)
	require.False(t, ok)
	assert.Equal(t, 0, f.store.Len())
}

func TestRestore_UsernameMismatch(t *testing.T) {
	f := newFixture(t)
	f.seedToken(t, Token{Username: "admin", IssuedAtMillis: f.clock.Now().UnixMilli(), SessionID: "s"})
	encOther, err := cryptox.NewCipher(secret).Encrypt("mallory")
	require.NoError(t, err)
	require.NoError(t, f.store.SetItem(context.Background(), common.UserStorageKey, encOther))

	_, ok := f.m.Restore(context.Background())
	require.False(t, ok)
	assert.Equal(t, 0, f.store.Len())
}

func TestRestore_NonJSONToken(t *testing.T) {
	f := newFixture(t)
	c := cryptox.NewCipher(secret)
	encTok, err := c.Encrypt("")
	require.NoError(t, err)
	encUser, err := c.Encrypt("admin")
	require.NoError(t, err)
	ctx := context.Background()
	require.NoError(t, f.store.SetItem(ctx, common.TokenStorageKey, encTok))
	require.NoError(t, f.store.SetItem(ctx, common.UserStorageKey, encUser))

	_, ok := f.m.Restore(ctx)
	require.False(t, ok)
	assert.Equal(t, 0, f.store.Len())
}

// Pair written by the web dashboard (CryptoJS) for admin at
// timestamp 1700000000000.
func TestRestore_PairFromWebClient(t *testing.T) {
	f := newFixture(t)
	f.clock = &clock{t: time.UnixMilli(1_700_000_000_000).Add(time.Hour)}
	f.m.now = f.clock.Now

	ctx := context.Background()
	require.NoError(t, f.store.SetItem(ctx, common.TokenStorageKey,
		"U2FsdGVkX18KCwwNDg8QEZgo9G0F8PAj9zC/PyfdVZ7hqKJtZHEvywxZywcgSMycpqE036m33yjqn4fkALCOwvL++bb+BRYh3sta65uTpNZECLgiUa48HEdVfM+AlOoL"))
	require.NoError(t, f.store.SetItem(ctx, common.UserStorageKey, "U2FsdGVkX18BAgMEBQYHCFEolPntHQsa/lXaVySfCM4="))

	user, ok := f.m.Restore(ctx)
	require.True(t, ok)
	assert.Equal(t, "admin", user)
}

func TestRestore_StorageReadError(t *testing.T) {
	f := newFixture(t)
	f.store.getErr = errors.New("database is locked")

	_, ok := f.m.Restore(context.Background())
	require.False(t, ok)
	assert.Equal(t, StateUnauthenticated, f.m.Status().State)
	assert.Empty(t, f.store.removed)
}

// ---- Clear / Logout / expiry ----

func TestClear_Idempotent(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.m.Login(ctx, "admin", "password")
	require.NoError(t, err)

	require.NoError(t, f.m.Clear(ctx))
	assert.Equal(t, 0, f.store.Len())
	require.NoError(t, f.m.Clear(ctx))
	assert.Equal(t, 0, f.store.Len())
}

func TestClear_AttemptsBothKeys(t *testing.T) {
	f := newFixture(t)
	f.store.removeErr = errors.New("io")

	err := f.m.Clear(context.Background())
	require.Error(t, err)
	assert.ElementsMatch(t, []string{common.TokenStorageKey, common.UserStorageKey}, f.store.removed)
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.m.Login(ctx, "admin", "password")
	require.NoError(t, err)

	require.NoError(t, f.m.Logout(ctx))
	assert.Equal(t, Status{State: StateUnauthenticated}, f.m.Status())
	assert.Equal(t, 0, f.store.Len())

	_, ok := f.m.Restore(ctx)
	assert.False(t, ok)
}

func TestCheckExpiry(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, err := f.m.Login(ctx, "admin", "password")
	require.NoError(t, err)

	f.clock.Advance(23 * time.Hour)
	require.True(t, f.m.CheckExpiry(ctx))

	f.clock.Advance(time.Hour)
	require.False(t, f.m.CheckExpiry(ctx))
	assert.Equal(t, StateUnauthenticated, f.m.Status().State)
	assert.Equal(t, 0, f.store.Len())
}

func TestCheckExpiry_Unauthenticated(t *testing.T) {
	f := newFixture(t)
	assert.False(t, f.m.CheckExpiry(context.Background()))
}

func TestCustomTTL(t *testing.T) {
	f := newFixture(t)
	f.m.ttl = time.Hour
	f.seedToken(t, Token{Username: "admin", IssuedAtMillis: f.clock.Now().Add(-2 * time.Hour).UnixMilli(), SessionID: "s"})

	_, ok := f.m.Restore(context.Background())
	assert.False(t, ok)
}

// ---- state machine ----

func TestSubscribe_ObservesTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.Equal(t, StateLoading, f.m.Status().State)

	var seen []State
	cancel := f.m.Subscribe(func(s Status) { seen = append(seen, s.State) })

	_, ok := f.m.Restore(ctx)
	require.False(t, ok)
	_, err := f.m.Login(ctx, "admin", "password")
	require.NoError(t, err)
	require.NoError(t, f.m.Logout(ctx))

	assert.Equal(t, []State{StateUnauthenticated, StateAuthenticated, StateUnauthenticated}, seen)

	cancel()
	_, err = f.m.Login(ctx, "admin", "password")
	require.NoError(t, err)
	assert.Len(t, seen, 3)
}

func TestSubscribe_OrderMatchesConcurrentTransitions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	_, ok := f.m.Restore(ctx)
	require.False(t, ok)

	var seen []State
	f.m.Subscribe(func(s Status) {
		seen = append(seen, s.State)
		assert.Equal(t, s, f.m.Status())
	})

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = f.m.Login(ctx, "admin", "password")
		}()
		go func() {
			defer wg.Done()
			_ = f.m.Logout(ctx)
		}()
	}
	wg.Wait()

	require.NotEmpty(t, seen)
	assert.Equal(t, f.m.Status().State, seen[len(seen)-1])
	for i := 1; i < len(seen); i++ {
		assert.NotEqual(t, seen[i-1], seen[i], "notification %d repeats the previous state", i)
	}
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "authenticated", StateAuthenticated.String())
	assert.Equal(t, "unauthenticated", StateUnauthenticated.String())
	assert.Equal(t, "State(9)", State(9).String())
}
