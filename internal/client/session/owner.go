// Package session owns the answer to "is someone signed in, and who".
//
// Owner is the only writer of the current session. It persists through the
// credential store, talks to the backend through the API client, and
// listens on the event bus so a 401 seen anywhere signs the user out.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/parkclient/internal/client/client"
	"github.com/dmitrijs2005/parkclient/internal/client/credentials"
	"github.com/dmitrijs2005/parkclient/internal/client/events"
	"github.com/dmitrijs2005/parkclient/internal/client/models"
	"github.com/dmitrijs2005/parkclient/internal/logging"
)

// ErrNotAuthenticated is returned by operations that need a session when
// there is none.
var ErrNotAuthenticated = errors.New("not signed in")

// ErrAlreadyAuthenticated is returned by Login while a session is active.
var ErrAlreadyAuthenticated = errors.New("already signed in")

// CredentialStore is the durable side of the session. ReplaceUser must
// return credentials.ErrNoSession, without writing, when no token is stored.
type CredentialStore interface {
	GetToken(ctx context.Context) (string, bool, error)
	GetUser(ctx context.Context) (*models.UserProfile, error)
	ReplaceUser(ctx context.Context, user *models.UserProfile) error
	SaveSession(ctx context.Context, token string, user *models.UserProfile) error
	Clear(ctx context.Context) error
}

// API is the subset of the backend the owner drives.
type API interface {
	Role() models.Role
	Login(ctx context.Context, creds models.Credentials) (*models.LoginResponse, error)
	Register(ctx context.Context, nu models.NewUser) (*models.UserProfile, error)
	Me(ctx context.Context) (*models.UserProfile, error)
	UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.UserProfile, error)
	SendOTP(ctx context.Context, change models.ContactChange) (*models.Message, error)
	VerifyOTP(ctx context.Context, v models.ContactVerification) (*models.Message, error)
}

// Listener is told about every state change.
type Listener func(State)

type listener struct {
	id uint64
	fn Listener
}

type Owner struct {
	store    CredentialStore
	api      API
	role     models.Role
	validate bool
	log      logging.Logger
	now      func() time.Time

	mu        sync.Mutex
	state     State
	nextID    uint64
	listeners []listener
}

type Option func(*Owner)

// WithStartupValidation controls whether Init confirms a stored session
// against the backend. On by default.
func WithStartupValidation(v bool) Option {
	return func(o *Owner) { o.validate = v }
}

func WithLogger(l logging.Logger) Option {
	return func(o *Owner) { o.log = l }
}

// WithClock replaces time.Now for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(o *Owner) { o.now = now }
}

// NewOwner returns an owner in the Initializing state, already subscribed
// to bus for the rest of the process lifetime.
func NewOwner(store CredentialStore, api API, bus events.Subscriber, opts ...Option) *Owner {
	o := &Owner{
		store:    store,
		api:      api,
		role:     api.Role(),
		validate: true,
		log:      logging.Nop(),
		now:      time.Now,
		state:    State{Status: StatusInitializing},
	}
	for _, opt := range opts {
		opt(o)
	}

	bus.Subscribe(o.onInvalidated)
	return o
}

// State returns a snapshot of the current state.
func (o *Owner) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state.clone()
}

// Subscribe registers fn for state changes and returns a function that
// removes it again. Listeners run synchronously, in registration order.
func (o *Owner) Subscribe(fn Listener) func() {
	o.mu.Lock()
	o.nextID++
	id := o.nextID
	o.listeners = append(o.listeners, listener{id: id, fn: fn})
	o.mu.Unlock()

	return func() {
		o.mu.Lock()
		defer o.mu.Unlock()
		for i, l := range o.listeners {
			if l.id == id {
				o.listeners = append(o.listeners[:i:i], o.listeners[i+1:]...)
				return
			}
		}
	}
}

// Init resolves the Initializing state from what the credential store
// holds. Only storage failures are returned; every other problem with the
// stored session ends in Unauthenticated.
func (o *Owner) Init(ctx context.Context) (State, error) {
	if st := o.State(); st.Status != StatusInitializing {
		return st, nil
	}

	token, hasToken, err := o.store.GetToken(ctx)
	if err != nil {
		o.setState(unauthenticated())
		return o.State(), fmt.Errorf("load session: %w", err)
	}
	user, err := o.store.GetUser(ctx)
	if err != nil {
		o.setState(unauthenticated())
		return o.State(), fmt.Errorf("load session: %w", err)
	}

	if !hasToken || user == nil {
		if hasToken || user != nil {
			o.log.Info(ctx, "discarding incomplete stored session")
			o.discard(ctx)
		}
		o.setState(unauthenticated())
		return o.State(), nil
	}

	if err := checkToken(token, o.role, o.now()); err != nil {
		o.log.Info(ctx, "stored token is unusable, signing out", "reason", err)
		o.discard(ctx)
		o.setState(unauthenticated())
		return o.State(), nil
	}

	if o.validate {
		me, err := o.api.Me(ctx)
		if err != nil {
			// A 401 has already cleared the store. Anything else keeps the
			// stored session for the next start.
			if !errors.Is(err, client.ErrUnauthorized) {
				o.log.Warn(ctx, "could not validate stored session", "error", err)
			}
			o.setState(unauthenticated())
			return o.State(), nil
		}
		o.defaultRole(me)
		if err := o.store.ReplaceUser(ctx, me); err != nil {
			o.log.Warn(ctx, "could not refresh cached profile", "error", err)
		}
		user = me
	}

	o.setState(authenticated(user))
	return o.State(), nil
}

// Login signs in. On failure the state is left as it was and the error is
// returned unchanged for display. A failed login answers 401, so Login
// refuses with ErrAlreadyAuthenticated while a session is active.
func (o *Owner) Login(ctx context.Context, creds models.Credentials) (*models.UserProfile, error) {
	if o.State().Authenticated() {
		return nil, ErrAlreadyAuthenticated
	}

	resp, err := o.api.Login(ctx, creds)
	if err != nil {
		return nil, err
	}

	user := resp.User
	o.defaultRole(&user)
	if err := o.store.SaveSession(ctx, resp.AccessToken, &user); err != nil {
		return nil, err
	}

	o.setState(authenticated(&user))
	o.log.Info(ctx, "signed in", "user_id", user.ID)
	return user.Clone(), nil
}

// Register creates an account. It never signs the user in.
func (o *Owner) Register(ctx context.Context, nu models.NewUser) (*models.UserProfile, error) {
	return o.api.Register(ctx, nu)
}

// Logout clears the stored session and moves to Unauthenticated. Calling it
// without a session is harmless.
func (o *Owner) Logout(ctx context.Context) error {
	err := o.store.Clear(ctx)
	o.setState(unauthenticated())
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

// RefreshProfile reloads the profile from the backend and caches it.
func (o *Owner) RefreshProfile(ctx context.Context) (*models.UserProfile, error) {
	if !o.State().Authenticated() {
		return nil, ErrNotAuthenticated
	}

	me, err := o.api.Me(ctx)
	if err != nil {
		return nil, err
	}
	return o.replaceUser(ctx, me)
}

// UpdateProfile changes the owner's name and/or address.
func (o *Owner) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) (*models.UserProfile, error) {
	if !o.State().Authenticated() {
		return nil, ErrNotAuthenticated
	}

	user, err := o.api.UpdateProfile(ctx, upd)
	if err != nil {
		return nil, err
	}
	return o.replaceUser(ctx, user)
}

// RequestContactChange sends a one-time code to the new email or phone.
func (o *Owner) RequestContactChange(ctx context.Context, change models.ContactChange) (string, error) {
	if !o.State().Authenticated() {
		return "", ErrNotAuthenticated
	}

	msg, err := o.api.SendOTP(ctx, change)
	if err != nil {
		return "", err
	}
	return msg.Message, nil
}

// ConfirmContactChange submits the code and, once accepted, refreshes the
// cached profile so it shows the new contact.
func (o *Owner) ConfirmContactChange(ctx context.Context, v models.ContactVerification) (string, error) {
	if !o.State().Authenticated() {
		return "", ErrNotAuthenticated
	}

	msg, err := o.api.VerifyOTP(ctx, v)
	if err != nil {
		return "", err
	}
	if _, err := o.RefreshProfile(ctx); err != nil {
		o.log.Warn(ctx, "contact changed but profile refresh failed", "error", err)
	}
	return msg.Message, nil
}

func (o *Owner) replaceUser(ctx context.Context, user *models.UserProfile) (*models.UserProfile, error) {
	o.defaultRole(user)
	if !o.State().Authenticated() {
		return nil, ErrNotAuthenticated
	}
	// The store refuses once a 401 has cleared the token.
	if err := o.store.ReplaceUser(ctx, user); err != nil {
		if errors.Is(err, credentials.ErrNoSession) {
			o.setState(unauthenticated())
			return nil, ErrNotAuthenticated
		}
		return nil, err
	}

	// A 401 may have landed while the request was in flight.
	if !o.setIfAuthenticated(user) {
		return nil, ErrNotAuthenticated
	}
	return user.Clone(), nil
}

// onInvalidated runs on the publisher's goroutine. The transport has
// already cleared the store, so only in-memory state changes here.
func (o *Owner) onInvalidated(reason events.Reason) {
	o.log.Info(context.Background(), "session invalidated", "reason", string(reason))
	o.setState(unauthenticated())
}

func (o *Owner) defaultRole(user *models.UserProfile) {
	if user.Role == "" {
		user.Role = o.role
	}
}

func (o *Owner) discard(ctx context.Context) {
	if err := o.store.Clear(ctx); err != nil {
		o.log.Warn(ctx, "could not clear stored session", "error", err)
	}
}

// setState moves to next and notifies listeners if anything changed.
func (o *Owner) setState(next State) {
	o.mu.Lock()
	if !o.state.changedTo(next) {
		o.mu.Unlock()
		return
	}
	o.state = next
	o.notifyLocked()
}

func (o *Owner) setIfAuthenticated(user *models.UserProfile) bool {
	o.mu.Lock()
	if o.state.Status != StatusAuthenticated {
		o.mu.Unlock()
		return false
	}
	o.state = authenticated(user)
	o.notifyLocked()
	return true
}

// notifyLocked snapshots state and listeners, releases o.mu and calls the
// listeners.
func (o *Owner) notifyLocked() {
	st := o.state.clone()
	ls := make([]listener, len(o.listeners))
	copy(ls, o.listeners)
	o.mu.Unlock()

	for _, l := range ls {
		o.call(l, st)
	}
}

func (o *Owner) call(l listener, st State) {
	defer func() {
		if p := recover(); p != nil {
			o.log.Error(context.Background(), "session listener panicked", "panic", fmt.Sprint(p))
		}
	}()
	l.fn(st)
}
