package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dmitrijs2005/parkclient/internal/client/client"
	"github.com/dmitrijs2005/parkclient/internal/client/credentials"
	"github.com/dmitrijs2005/parkclient/internal/client/events"
	"github.com/dmitrijs2005/parkclient/internal/client/models"
	"github.com/dmitrijs2005/parkclient/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/parkclient/internal/client/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backend is a scripted stand-in for the parking API: login and me always
// work, and every other protected call answers with protectedStatus.
type backend struct {
	protectedStatus atomic.Int32
}

func (b *backend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	switch r.URL.Path {
	case "/api/v1/driver/login/":
		_, _ = w.Write([]byte(`{"message":"Login successful","access_token":"opaque-driver-token","token_type":"bearer",
			"user":{"id":21,"name":"Dana","email":"dana@example.com","created_at":"2025-02-01T09:00:00"}}`))
	case "/api/v1/driver/me/":
		_, _ = w.Write([]byte(`{"id":21,"name":"Dana R.","email":"dana@example.com","created_at":"2025-02-01T09:00:00"}`))
	default:
		status := int(b.protectedStatus.Load())
		w.WriteHeader(status)
		switch status {
		case http.StatusOK:
			_, _ = w.Write([]byte(`[]`))
		case http.StatusUnauthorized:
			_, _ = w.Write([]byte(`{"detail":"Invalid or expired token"}`))
		default:
			_, _ = w.Write([]byte(`{"detail":"nope"}`))
		}
	}
}

type wired struct {
	store  *credentials.Store
	api    *client.HTTPClient
	owner  *Owner
	bus    *events.Bus
	srv    *backend
	dbPath string
}

func wire(t *testing.T, timeout time.Duration) *wired {
	t.Helper()
	ctx := context.Background()

	w := &wired{srv: &backend{}, dbPath: filepath.Join(t.TempDir(), "driver.db")}
	w.srv.protectedStatus.Store(http.StatusOK)
	ts := httptest.NewServer(w.srv)
	t.Cleanup(ts.Close)

	db, err := storage.InitDatabase(ctx, w.dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	w.store = credentials.NewStore(db)
	w.bus = events.NewBus(nil)
	w.api, err = client.New(client.Config{ServerURL: ts.URL, Role: models.RoleDriver, Timeout: timeout}, w.store, w.bus)
	require.NoError(t, err)
	w.owner = NewOwner(w.store, w.api, w.bus)

	_, err = w.owner.Init(ctx)
	require.NoError(t, err)
	return w
}

func (w *wired) login(t *testing.T) {
	t.Helper()
	_, err := w.owner.Login(context.Background(), models.Credentials{Email: "dana@example.com", Password: "pw"})
	require.NoError(t, err)
	require.True(t, w.owner.State().Authenticated())
}

func TestWired_LoginPersistsSession(t *testing.T) {
	w := wire(t, 2*time.Second)
	w.login(t)

	ctx := context.Background()
	token, ok, err := w.store.GetToken(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "opaque-driver-token", token)

	user, err := w.store.GetUser(ctx)
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, w.owner.State().User, user)
}

func TestWired_Concurrent401sConverge(t *testing.T) {
	const n = 10

	w := wire(t, 2*time.Second)
	w.login(t)
	w.srv.protectedStatus.Store(http.StatusUnauthorized)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := w.api.Bookings(context.Background(), "")
			assert.ErrorIs(t, err, client.ErrUnauthorized)
		}()
	}
	wg.Wait()

	ctx := context.Background()
	_, ok, err := w.store.GetToken(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	user, err := w.store.GetUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.Equal(t, StatusUnauthenticated, w.owner.State().Status)
}

func TestWired_Non401FailuresKeepSession(t *testing.T) {
	for _, status := range []int{http.StatusForbidden, http.StatusInternalServerError} {
		t.Run(http.StatusText(status), func(t *testing.T) {
			w := wire(t, 2*time.Second)
			w.login(t)
			w.srv.protectedStatus.Store(int32(status))

			_, err := w.api.Bookings(context.Background(), "")
			require.Error(t, err)

			_, ok, err := w.store.GetToken(context.Background())
			require.NoError(t, err)
			assert.True(t, ok)
			assert.True(t, w.owner.State().Authenticated())
		})
	}
}

func TestWired_CorruptProfileFallsBackToSignedOut(t *testing.T) {
	ctx := context.Background()
	dbPath := filepath.Join(t.TempDir(), "driver.db")

	db, err := storage.InitDatabase(ctx, dbPath)
	require.NoError(t, err)
	defer db.Close()

	repo := metadata.NewSQLiteRepository(db)
	require.NoError(t, repo.Set(ctx, credentials.TokenKey, []byte("opaque")))
	require.NoError(t, repo.Set(ctx, credentials.UserKey, []byte("{not json")))

	store := credentials.NewStore(db)
	bus := events.NewBus(nil)
	api, err := client.New(client.Config{ServerURL: "http://127.0.0.1:1", Role: models.RoleDriver}, store, bus)
	require.NoError(t, err)

	st, err := NewOwner(store, api, bus).Init(ctx)
	require.NoError(t, err)
	assert.Equal(t, StatusUnauthenticated, st.Status)
}

// racingStore runs before ahead of every profile write.
type racingStore struct {
	*credentials.Store
	before func()
}

func (s *racingStore) ReplaceUser(ctx context.Context, user *models.UserProfile) error {
	s.before()
	return s.Store.ReplaceUser(ctx, user)
}

func TestWired_ProfileWriteAfter401LeavesStoreEmpty(t *testing.T) {
	ctx := context.Background()
	w := wire(t, 2*time.Second)
	w.login(t)

	// A bookings call rejected with 401 lands between the owner's session
	// check and its profile write.
	store := &racingStore{Store: w.store, before: func() {
		w.srv.protectedStatus.Store(http.StatusUnauthorized)
		_, err := w.api.Bookings(ctx, "")
		assert.ErrorIs(t, err, client.ErrUnauthorized)
	}}
	o := NewOwner(store, w.api, w.bus, WithStartupValidation(false))
	st, err := o.Init(ctx)
	require.NoError(t, err)
	require.True(t, st.Authenticated())

	_, err = o.RefreshProfile(ctx)
	require.ErrorIs(t, err, ErrNotAuthenticated)
	assert.Equal(t, StatusUnauthenticated, o.State().Status)

	_, ok, err := w.store.GetToken(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
	user, err := w.store.GetUser(ctx)
	require.NoError(t, err)
	assert.Nil(t, user, "profile must not outlive the cleared token")
}
