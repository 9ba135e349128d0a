// Package cli is the interactive surface of the filevault client: a REPL
// that drives the session manager and the file/user services.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/avoronov/filevault/internal/client/api"
	"github.com/avoronov/filevault/internal/client/config"
	"github.com/avoronov/filevault/internal/client/models"
	"github.com/avoronov/filevault/internal/client/services"
	"github.com/avoronov/filevault/internal/client/session"
	"github.com/avoronov/filevault/internal/client/storage"
	"github.com/avoronov/filevault/internal/logging"

	_ "modernc.org/sqlite"
)

// sessionManager is the slice of session.Manager the CLI drives.
// Narrowing it to an interface keeps command handlers testable with stubs.
type sessionManager interface {
	State() session.State
	LoggedIn() bool
	ConsumeLogoutSuccess() bool
	ClearFlags()
	Restore(ctx context.Context) error
	Register(ctx context.Context, username, email, password, confirmPassword string, role models.Role) session.State
	Login(ctx context.Context, username, password string) session.State
	EnableMFA(ctx context.Context) session.State
	VerifyMFA(ctx context.Context, totp string) session.State
	QRCode(ctx context.Context) (string, error)
	Logout(ctx context.Context) session.State
}

type fileService interface {
	List(ctx context.Context) ([]models.FileRecord, error)
	View(ctx context.Context, id int64) (*models.CachedBlob, bool, error)
	ViewShared(ctx context.Context, shareID string) (*models.CachedBlob, bool, error)
	Upload(ctx context.Context, path string) error
	Delete(ctx context.Context, id int64) error
	Share(ctx context.Context, id int64) (string, error)
	Download(ctx context.Context, id int64, dest string) error
}

type userService interface {
	List(ctx context.Context) ([]models.UserRecord, error)
}

// tokenInfo reports what the gateway knows about the session token.
type tokenInfo interface {
	SessionExpiresAt() (time.Time, bool)
}

// App wires the configuration, session manager and services together and
// owns the interactive loop. Everything is injected; there is no package
// state.
type App struct {
	config  *config.Config
	session sessionManager
	files   fileService
	users   userService
	tokens  tokenInfo

	reader *bufio.Reader
	out    io.Writer
	log    logging.Logger

	close func() error
}

// NewApp builds the full dependency graph: client database, gateway,
// session manager and services.
func NewApp(cfg *config.Config, log logging.Logger) (*App, error) {
	ctx := context.Background()

	repos, err := storage.InitDatabase(ctx, cfg.DatabasePath, cfg.CacheMaxBytes)
	if err != nil {
		return nil, fmt.Errorf("initializing client database: %w", err)
	}

	apiClient, err := api.NewHTTPClient(cfg.ServerBaseURL, cfg.RequestTimeout, log)
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	return &App{
		config:  cfg,
		session: session.NewManager(apiClient, repos.Metadata, log),
		files:   services.NewFileService(apiClient, repos.Blobs, log),
		users:   services.NewUserService(apiClient, log),
		tokens:  apiClient,
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		log:     log,
		close: func() error {
			_ = apiClient.Close()
			return repos.Close()
		},
	}, nil
}

// Run restores any persisted session and enters the REPL.
func (a *App) Run(ctx context.Context) {
	defer func() {
		if a.close != nil {
			_ = a.close()
		}
	}()

	a.println("filevault CLI (type 'help' for commands)")

	if err := a.session.Restore(ctx); err != nil {
		a.log.Warn(ctx, "could not restore persisted session", "error", err)
	}
	if st := a.session.State(); st.Username != "" {
		a.printf("Welcome back, %s (%s)\n", st.Username, st.Role)
	}

	runREPL(ctx, a, a.status, bufio.NewScanner(os.Stdin))
}

// status renders the prompt segment showing who is logged in.
func (a *App) status() string {
	st := a.session.State()
	if st.Username == "" {
		return "guest"
	}
	if st.Code != "" {
		return st.Username + " (mfa pending)"
	}
	return fmt.Sprintf("%s/%s", st.Username, st.Role)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

// reportOutcome prints the result of a session transition: the stored error
// if one was recorded, or the given success message.
func (a *App) reportOutcome(st session.State, success string) {
	if st.Error != "" {
		a.println("Error:", st.Error)
		return
	}
	a.println(success)
}

func (a *App) isLoggedIn() bool {
	return a.session.LoggedIn()
}
