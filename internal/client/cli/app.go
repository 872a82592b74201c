package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/parkclient/internal/client/models"
	"github.com/dmitrijs2005/parkclient/internal/client/session"
	"github.com/dmitrijs2005/parkclient/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
)

type Mode string

const (
	ModeUnknown Mode = "unknown"
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const pingTimeout = 3 * time.Second

// Session is what the REPL needs from the session owner.
type Session interface {
	State() session.State
	Subscribe(fn session.Listener) func()
	Init(ctx context.Context) (session.State, error)
	Login(ctx context.Context, creds models.Credentials) (*models.UserProfile, error)
	Register(ctx context.Context, nu models.NewUser) (*models.UserProfile, error)
	Logout(ctx context.Context) error
	RefreshProfile(ctx context.Context) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.UserProfile, error)
	RequestContactChange(ctx context.Context, change models.ContactChange) (string, error)
	ConfirmContactChange(ctx context.Context, v models.ContactVerification) (string, error)
}

// Backend is the part of the API client used directly by commands that do
// not touch the session.
type Backend interface {
	Ping(ctx context.Context) error
	Bookings(ctx context.Context, status string) ([]models.Booking, error)
	ActiveSessions(ctx context.Context) ([]models.ParkingSession, error)
	GetRaw(ctx context.Context, path string) (json.RawMessage, error)
}

type App struct {
	role      models.Role
	serverURL string
	session   Session
	api       Backend
	gatherer  prometheus.Gatherer
	log       logging.Logger
	reader    *bufio.Reader
	out       io.Writer

	checkInterval time.Duration

	mu   sync.Mutex
	mode Mode
}

type Option func(*App)

func WithInput(r io.Reader) Option {
	return func(a *App) { a.reader = bufio.NewReader(r) }
}

func WithOutput(w io.Writer) Option {
	return func(a *App) { a.out = w }
}

func WithLogger(l logging.Logger) Option {
	return func(a *App) { a.log = l }
}

// WithGatherer enables the stats command.
func WithGatherer(g prometheus.Gatherer) Option {
	return func(a *App) { a.gatherer = g }
}

// WithServerURL is only used for display.
func WithServerURL(u string) Option {
	return func(a *App) { a.serverURL = u }
}

// WithOnlineCheckInterval sets how often the connectivity watcher pings the
// backend. Zero disables the watcher.
func WithOnlineCheckInterval(d time.Duration) Option {
	return func(a *App) { a.checkInterval = d }
}

func NewApp(role models.Role, sess Session, api Backend, opts ...Option) *App {
	a := &App{
		role:    role,
		session: sess,
		api:     api,
		log:     logging.Nop(),
		reader:  bufio.NewReader(os.Stdin),
		out:     os.Stdout,
		mode:    ModeUnknown,
	}
	for _, o := range opts {
		o(a)
	}
	return a
}

// Run resolves the stored session, starts the connectivity watcher and
// blocks in the REPL until the user leaves or input ends.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	unsubscribe := a.session.Subscribe(a.onSessionChange)
	defer unsubscribe()

	st, err := a.session.Init(ctx)
	if err != nil {
		a.log.Warn(ctx, "could not restore session", "error", err)
	}

	a.printf("Park %s client. Type 'help' for commands.\n", a.role)
	if st.Authenticated() {
		a.printf("Signed in as %s\n", st.User.DisplayName())
	}

	if a.checkInterval > 0 {
		a.checkOnline(ctx)
		go a.StartOnlineStatusWatcher(ctx, a.checkInterval)
	}

	runREPL(ctx, a, a.getStatus, a.reader)
	return nil
}

// onSessionChange runs on whichever goroutine changed the session. The
// prompt picks the change up by itself, so there is nothing to print.
func (a *App) onSessionChange(st session.State) {
	a.log.Debug(context.Background(), "session changed", "state", st.String())
}

func (a *App) isLoggedIn() bool {
	return a.session.State().Authenticated()
}

func (a *App) appRole() models.Role {
	return a.role
}

func (a *App) currentMode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.mu.Lock()
	changed := a.mode != mode
	a.mode = mode
	a.mu.Unlock()

	if changed {
		a.log.Info(ctx, "connectivity changed", "mode", string(mode))
	}
}

// getStatus renders the prompt fragment: who is signed in and whether the
// backend answered the last health check.
func (a *App) getStatus() string {
	who := "guest"
	if st := a.session.State(); st.Authenticated() {
		who = st.User.DisplayName()
	}

	mode := a.currentMode()
	if mode == ModeUnknown {
		return who
	}
	return who + " " + string(mode)
}

func (a *App) checkOnline(ctx context.Context) {
	pctx, cancel := context.WithTimeout(ctx, pingTimeout)
	err := a.api.Ping(pctx)
	cancel()

	if ctx.Err() != nil {
		return
	}
	if err != nil {
		a.setMode(ctx, ModeOffline)
		return
	}
	a.setMode(ctx, ModeOnline)
}

// StartOnlineStatusWatcher pings the backend every interval until ctx is
// done.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			a.checkOnline(ctx)
		case <-ctx.Done():
			return
		}
	}
}
