package cli

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/dmitrijs2005/parkclient/internal/client/models"
	"github.com/dmitrijs2005/parkclient/internal/client/session"
)

type fakeSession struct {
	mu        sync.Mutex
	state     session.State
	listeners []session.Listener

	initErr error

	loginCreds models.Credentials
	loginUser  *models.UserProfile
	loginErr   error

	registered  models.NewUser
	registerErr error

	logoutCalled bool
	logoutErr    error

	me    *models.UserProfile
	meErr error

	update    models.ProfileUpdate
	updateErr error

	change    models.ContactChange
	verify    models.ContactVerification
	sendErr   error
	verifyErr error
	sendMsg   string
	verifyMsg string
}

func newFakeSession() *fakeSession {
	return &fakeSession{state: session.State{Status: session.StatusUnauthenticated}}
}

func (f *fakeSession) signIn(u *models.UserProfile) {
	f.set(session.State{Status: session.StatusAuthenticated, User: u})
}

func (f *fakeSession) set(st session.State) {
	f.mu.Lock()
	f.state = st
	ls := append([]session.Listener(nil), f.listeners...)
	f.mu.Unlock()
	for _, l := range ls {
		l(st)
	}
}

func (f *fakeSession) State() session.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeSession) Subscribe(fn session.Listener) func() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listeners = append(f.listeners, fn)
	return func() {}
}

func (f *fakeSession) Init(context.Context) (session.State, error) {
	return f.State(), f.initErr
}

func (f *fakeSession) Login(_ context.Context, creds models.Credentials) (*models.UserProfile, error) {
	f.loginCreds = creds
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	f.signIn(f.loginUser)
	return f.loginUser, nil
}

func (f *fakeSession) Register(_ context.Context, nu models.NewUser) (*models.UserProfile, error) {
	f.registered = nu
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	return &models.UserProfile{ID: 1, Name: nu.Name, Email: nu.Email}, nil
}

func (f *fakeSession) Logout(context.Context) error {
	f.logoutCalled = true
	f.set(session.State{Status: session.StatusUnauthenticated})
	return f.logoutErr
}

func (f *fakeSession) RefreshProfile(context.Context) (*models.UserProfile, error) {
	return f.me, f.meErr
}

func (f *fakeSession) UpdateProfile(_ context.Context, upd models.ProfileUpdate) (*models.UserProfile, error) {
	f.update = upd
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	u := f.State().User.Clone()
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Address != nil {
		u.Address = *upd.Address
	}
	return u, nil
}

func (f *fakeSession) RequestContactChange(_ context.Context, change models.ContactChange) (string, error) {
	f.change = change
	return f.sendMsg, f.sendErr
}

func (f *fakeSession) ConfirmContactChange(_ context.Context, v models.ContactVerification) (string, error) {
	f.verify = v
	return f.verifyMsg, f.verifyErr
}

type fakeBackend struct {
	mu      sync.Mutex
	pingErr error
	pings   int

	bookingStatus string
	bookings      []models.Booking
	bookingsErr   error

	sessions    []models.ParkingSession
	sessionsErr error

	rawPath string
	raw     json.RawMessage
	rawErr  error
}

func (f *fakeBackend) Ping(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pings++
	return f.pingErr
}

func (f *fakeBackend) setPingErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pingErr = err
}

func (f *fakeBackend) Bookings(_ context.Context, status string) ([]models.Booking, error) {
	f.bookingStatus = status
	return f.bookings, f.bookingsErr
}

func (f *fakeBackend) ActiveSessions(context.Context) ([]models.ParkingSession, error) {
	return f.sessions, f.sessionsErr
}

func (f *fakeBackend) GetRaw(_ context.Context, path string) (json.RawMessage, error) {
	f.rawPath = path
	return f.raw, f.rawErr
}

// newTestApp builds an App writing to the returned buffer.
func newTestApp(role models.Role, opts ...Option) (*App, *fakeSession, *fakeBackend, *bytes.Buffer) {
	sess := newFakeSession()
	api := &fakeBackend{}
	out := &bytes.Buffer{}
	opts = append([]Option{WithOutput(out), WithInput(strings.NewReader(""))}, opts...)
	return NewApp(role, sess, api, opts...), sess, api, out
}

// stubInputs answers text prompts from answers in order and every password
// prompt with password.
func stubInputs(t *testing.T, password string, answers ...string) *[]string {
	t.Helper()
	var prompts []string
	origST, origGP := getSimpleText, getPassword
	getSimpleText = func(_ *bufio.Reader, prompt string, _ io.Writer) (string, error) {
		prompts = append(prompts, prompt)
		if len(answers) == 0 {
			return "", io.EOF
		}
		a := answers[0]
		answers = answers[1:]
		return a, nil
	}
	getPassword = func(_ *bufio.Reader, _ io.Writer) ([]byte, error) {
		return []byte(password), nil
	}
	t.Cleanup(func() {
		getSimpleText = origST
		getPassword = origGP
	})
	return &prompts
}
