package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/dmitrijs2005/psadmin/internal/client/config"
	"github.com/dmitrijs2005/psadmin/internal/client/export"
	"github.com/dmitrijs2005/psadmin/internal/client/models"
	"github.com/dmitrijs2005/psadmin/internal/client/players"
	"github.com/dmitrijs2005/psadmin/internal/client/remote"
	"github.com/dmitrijs2005/psadmin/internal/client/session"
	"github.com/dmitrijs2005/psadmin/internal/client/storage"
	"github.com/dmitrijs2005/psadmin/internal/cryptox"
	"github.com/dmitrijs2005/psadmin/internal/filex"
	"github.com/dmitrijs2005/psadmin/internal/logging"
)

type sessionManager interface {
	Login(ctx context.Context, username, password string) (string, error)
	Logout(ctx context.Context) error
	Restore(ctx context.Context) (string, bool)
	Status() session.Status
	CheckExpiry(ctx context.Context) bool
}

type exporter interface {
	Export(ctx context.Context, list []*models.Player) (string, error)
}

type App struct {
	config   *config.Config
	logger   logging.Logger
	session  sessionManager
	players  players.Service
	exporter exporter
	sort     players.SortState
	reader   *bufio.Reader
	out      io.Writer
	closers  []func() error
}

// NewApp opens the local session database and the configured remote
// store and wires the services on top of them. Export is available only
// when an S3 bucket is configured.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	a := &App{
		config: c,
		logger: logger,
		sort:   players.DefaultSort(),
		reader: bufio.NewReader(os.Stdin),
		out:    os.Stdout,
	}

	local, err := openLocal(ctx, c.LocalDBPath)
	if err != nil {
		return nil, fmt.Errorf("local storage: %w", err)
	}
	if closer, ok := local.(interface{ Close() error }); ok {
		a.closers = append(a.closers, closer.Close)
	}

	store, err := openRemote(ctx, c)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("remote store: %w", err)
	}
	a.closers = append(a.closers, store.Close)

	a.session = session.NewManager(store, local, cryptox.NewCipher(c.SecretKey), logger,
		session.WithTTL(c.SessionTTL))
	a.players = players.NewService(store, logger)

	if c.S3Bucket != "" {
		up, err := export.NewS3Uploader(ctx, export.S3Config{
			Region:       c.S3Region,
			BaseEndpoint: c.S3BaseEndpoint,
			AccessKey:    c.S3AccessKey,
			SecretKey:    c.S3SecretKey,
			Bucket:       c.S3Bucket,
		})
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("export: %w", err)
		}
		a.exporter = export.NewExporter(up, logger)
	}

	return a, nil
}

// openLocal returns a SQLite store at path, or a process-local one when
// path is empty (the session then ends with the process).
func openLocal(ctx context.Context, path string) (storage.Storage, error) {
	if path == "" {
		return storage.NewMemoryStorage(), nil
	}
	if err := filex.EnsureParentDir(path); err != nil {
		return nil, err
	}
	s, err := storage.Open(ctx, path)
	if err != nil {
		return nil, err
	}
	return s, nil
}

func openRemote(ctx context.Context, c *config.Config) (remote.Store, error) {
	switch c.Backend {
	case config.BackendPostgres:
		s, err := remote.OpenPostgres(ctx, c.DatabaseDSN)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.BackendFirebase:
		return remote.NewFirebaseStore(c.FirebaseURL, c.FirebaseAuth, &http.Client{Timeout: c.RequestTimeout}), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", c.Backend)
	}
}

// Close releases the stores in reverse order of opening.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

// Run restores any saved session and then serves the REPL until the user
// exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	printlnFn("Player results admin console (type 'help' for commands)")
	printlnFn("Loading...")
	if user, ok := a.session.Restore(ctx); ok {
		printlnFn("Welcome back,", user)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
}

func (a *App) getStatus() string {
	st := a.session.Status()
	switch st.State {
	case session.StateAuthenticated:
		return fmt.Sprintf("(%s)", st.Username)
	case session.StateLoading:
		return "(loading)"
	default:
		return "(logged out)"
	}
}

// isLoggedIn expires a stale session before answering.
func (a *App) isLoggedIn(ctx context.Context) bool {
	return a.session.CheckExpiry(ctx)
}

func (a *App) callCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, a.config.RequestTimeout)
}
