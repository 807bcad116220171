package token

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-hr-session/storage"
	"github.com/pkg/errors"
)

const (
	accessTokenKey  = "access_token"
	refreshTokenKey = "refresh_token"
)

// Store is the credential store: the single owner of the persisted token pair.
// Every call goes to the underlying storage, nothing is cached in memory.
type Store struct {
	storage storage.Storage
	lock    sync.Mutex
}

func NewStore(s storage.Storage) (*Store, error) {
	if s == nil {
		return nil, errors.New("[NewStore] storage is required")
	}
	return &Store{storage: s}, nil
}

// Save persists both tokens. A failure part way through removes whatever was
// written; if that removal fails too, the returned error reports it.
func (s *Store) Save(ctx context.Context, pair Pair) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.storage.Set(ctx, accessTokenKey, pair.AccessToken); err != nil {
		return errors.Wrap(err, "[Store.Save] set access token")
	}
	if err := s.storage.Set(ctx, refreshTokenKey, pair.RefreshToken); err != nil {
		if clearErr := s.storage.Clear(ctx, accessTokenKey); clearErr != nil {
			return errors.Wrapf(err, "[Store.Save] set refresh token (access token left behind: %v)", clearErr)
		}
		return errors.Wrap(err, "[Store.Save] set refresh token")
	}
	return nil
}

// Clear removes both tokens. Clearing an empty store is not an error.
func (s *Store) Clear(ctx context.Context) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if err := s.storage.Clear(ctx, accessTokenKey); err != nil {
		return errors.Wrap(err, "[Store.Clear] clear access token")
	}
	if err := s.storage.Clear(ctx, refreshTokenKey); err != nil {
		return errors.Wrap(err, "[Store.Clear] clear refresh token")
	}
	return nil
}

// Read returns the stored pair, or nil when no access token is held.
func (s *Store) Read(ctx context.Context) (*Pair, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	access, ok, err := s.storage.Get(ctx, accessTokenKey)
	if err != nil {
		return nil, errors.Wrap(err, "[Store.Read] get access token")
	}
	if !ok || access == "" {
		return nil, nil
	}
	refresh, _, err := s.storage.Get(ctx, refreshTokenKey)
	if err != nil {
		return nil, errors.Wrap(err, "[Store.Read] get refresh token")
	}
	return &Pair{AccessToken: access, RefreshToken: refresh}, nil
}
