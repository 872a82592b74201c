// Package credentials persists the session token and the cached user profile
// across restarts.
//
// Both values live in the local metadata table under fixed keys. Token and
// profile are written together by SaveSession and removed together by
// Clear. ReplaceUser refreshes the profile only while a token is stored.
package credentials

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/parkclient/internal/client/models"
	"github.com/dmitrijs2005/parkclient/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/parkclient/internal/common"
	"github.com/dmitrijs2005/parkclient/internal/dbx"
	"github.com/dmitrijs2005/parkclient/internal/logging"
)

const (
	TokenKey = "session.token"
	UserKey  = "session.user"

	DefaultTimeout = 5 * time.Second
)

// Store is the durable credential store. It is safe for concurrent use: all
// operations are serialised by a mutex, so the clear-on-401 path can never
// interleave with a half-finished read or write.
type Store struct {
	mu      sync.Mutex
	db      *sql.DB
	repo    metadata.Repository
	timeout time.Duration
	log     logging.Logger
}

type Option func(*Store)

// WithTimeout bounds every store operation. Non-positive values are ignored.
func WithTimeout(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithLogger(l logging.Logger) Option {
	return func(s *Store) { s.log = l }
}

func NewStore(db *sql.DB, opts ...Option) *Store {
	s := &Store{
		db:      db,
		repo:    metadata.NewSQLiteRepository(db),
		timeout: DefaultTimeout,
		log:     logging.Nop(),
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

func (s *Store) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.timeout)
}

// SetToken overwrites the stored token. The format is not checked.
func (s *Store) SetToken(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.repo.Set(ctx, TokenKey, []byte(token)); err != nil {
		return storageError("set token", err)
	}
	return nil
}

// GetToken returns the stored token; ok is false when there is none.
func (s *Store) GetToken(ctx context.Context) (token string, ok bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.bound(ctx)
	defer cancel()

	v, err := s.repo.Get(ctx, TokenKey)
	if errors.Is(err, common.ErrorNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, storageError("get token", err)
	}
	if len(v) == 0 {
		return "", false, nil
	}
	return string(v), true, nil
}

// SetUser serialises and stores the profile.
func (s *Store) SetUser(ctx context.Context, user *models.UserProfile) error {
	b, err := encodeUser(user)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.repo.Set(ctx, UserKey, b); err != nil {
		return storageError("set user", err)
	}
	return nil
}

// ReplaceUser overwrites the cached profile of the current session. It
// writes nothing and returns ErrNoSession when no token is stored, so a
// profile can never outlive a session cleared in the meantime.
func (s *Store) ReplaceUser(ctx context.Context, user *models.UserProfile) error {
	b, err := encodeUser(user)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.bound(ctx)
	defer cancel()

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		token, err := repo.Get(ctx, TokenKey)
		if errors.Is(err, common.ErrorNotFound) || (err == nil && len(token) == 0) {
			return ErrNoSession
		}
		if err != nil {
			return err
		}
		return repo.Set(ctx, UserKey, b)
	})
	if errors.Is(err, ErrNoSession) {
		return ErrNoSession
	}
	if err != nil {
		return storageError("replace user", err)
	}
	return nil
}

// GetUser returns the cached profile, or nil when none is stored. A blob
// that does not decode is treated as absent rather than as an error.
func (s *Store) GetUser(ctx context.Context) (*models.UserProfile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.bound(ctx)
	defer cancel()

	v, err := s.repo.Get(ctx, UserKey)
	if errors.Is(err, common.ErrorNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, storageError("get user", err)
	}

	var user models.UserProfile
	if err := json.Unmarshal(v, &user); err != nil {
		s.log.Warn(ctx, "cached profile is unreadable, ignoring it", "error", err)
		return nil, nil
	}
	return &user, nil
}

// SaveSession writes token and profile in one transaction.
func (s *Store) SaveSession(ctx context.Context, token string, user *models.UserProfile) error {
	b, err := encodeUser(user)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.bound(ctx)
	defer cancel()

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, TokenKey, []byte(token)); err != nil {
			return err
		}
		return repo.Set(ctx, UserKey, b)
	})
	if err != nil {
		return storageError("save session", err)
	}
	return nil
}

// Clear removes token and profile. Clearing an empty store is not an error.
func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ctx, cancel := s.bound(ctx)
	defer cancel()

	if err := s.repo.Delete(ctx, TokenKey, UserKey); err != nil {
		return storageError("clear", err)
	}
	return nil
}

func encodeUser(user *models.UserProfile) ([]byte, error) {
	if user == nil {
		return nil, storageError("encode user", errNilUser)
	}
	b, err := json.Marshal(user)
	if err != nil {
		return nil, storageError("encode user", err)
	}
	return b, nil
}
