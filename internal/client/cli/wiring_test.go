package cli

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/psadmin/internal/client/config"
	"github.com/dmitrijs2005/psadmin/internal/client/session"
	"github.com/dmitrijs2005/psadmin/internal/cryptox"
	"github.com/dmitrijs2005/psadmin/internal/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fakeFirebase(t *testing.T) *httptest.Server {
	t.Helper()
	digest := cryptox.HashPassword("password")
	mux := http.NewServeMux()
	mux.HandleFunc("/admin.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"username":"admin","password":"` + digest + `"}`))
	})
	mux.HandleFunc("/users.json", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"u1":{"username":"alice","anxietyPercentage":60,"totalTime":90,"timestamp":1700000000000}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func wiredConfig(t *testing.T, url string) *config.Config {
	t.Helper()
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.FirebaseURL = url
	cfg.LocalDBPath = filepath.Join(t.TempDir(), "state", "admin.db")
	return cfg
}

func TestNewApp_FirebaseEndToEnd(t *testing.T) {
	srv := fakeFirebase(t)
	cfg := wiredConfig(t, srv.URL)
	ctx := context.Background()

	a, err := NewApp(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	assert.Nil(t, a.exporter)

	_, ok := a.session.Restore(ctx)
	require.False(t, ok)

	_, err = a.session.Login(ctx, "admin", "password")
	require.NoError(t, err)

	list, err := a.players.List(ctx, a.sort)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "u1", list[0].ID)
	require.NoError(t, a.Close())

	// a second process sees the persisted session
	b, err := NewApp(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	user, ok := b.session.Restore(ctx)
	require.True(t, ok)
	assert.Equal(t, "admin", user)
	assert.Equal(t, session.StateAuthenticated, b.session.Status().State)
}

func TestNewApp_WrongKeyForcesLogin(t *testing.T) {
	srv := fakeFirebase(t)
	cfg := wiredConfig(t, srv.URL)
	ctx := context.Background()

	a, err := NewApp(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	_, err = a.session.Login(ctx, "admin", "password")
	require.NoError(t, err)
	require.NoError(t, a.Close())

	cfg.SecretKey = "rotated"
	b, err := NewApp(ctx, cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	_, ok := b.session.Restore(ctx)
	assert.False(t, ok)
}

func TestNewApp_WithExport(t *testing.T) {
	srv := fakeFirebase(t)
	cfg := wiredConfig(t, srv.URL)
	cfg.S3Bucket = "exports"
	cfg.S3BaseEndpoint = "http://127.0.0.1:9"
	cfg.S3AccessKey = "k"
	cfg.S3SecretKey = "s"

	a, err := NewApp(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })
	assert.NotNil(t, a.exporter)
}

func TestOpenRemote_UnknownBackend(t *testing.T) {
	cfg := &config.Config{Backend: "mongo"}
	_, err := openRemote(context.Background(), cfg)
	require.Error(t, err)
}

func TestNewApp_InMemorySession(t *testing.T) {
	srv := fakeFirebase(t)
	cfg := wiredConfig(t, srv.URL)
	cfg.LocalDBPath = ""

	a, err := NewApp(context.Background(), cfg, logging.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	_, err = a.session.Login(context.Background(), "admin", "password")
	require.NoError(t, err)
	assert.Equal(t, "(admin)", a.getStatus())
}
