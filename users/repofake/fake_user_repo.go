package fakeuserrepo

import (
	"sync"

	"github.com/google/uuid"
	internalerrors "github.com/jrsteele09/go-hr-session/internal/errors"
	"github.com/jrsteele09/go-hr-session/users"
)

var _ users.UserRepo = (*FakeUserRepo)(nil)

type FakeUserRepo struct {
	users    map[string]*users.Account
	emailIds map[string]string // email to user id
	lock     sync.RWMutex
}

func NewFakeUserRepo() users.UserRepo {
	return &FakeUserRepo{
		users:    make(map[string]*users.Account),
		emailIds: make(map[string]string),
	}
}

func (ur *FakeUserRepo) Upsert(account *users.Account) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	if account.ID == "" {
		account.ID = uuid.New().String()
	}
	ur.users[account.ID] = account
	ur.emailIds[account.Email] = account.ID
	return nil
}

func (ur *FakeUserRepo) GetByEmail(email string) (*users.Account, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	if _, ok := ur.emailIds[email]; !ok {
		return nil, internalerrors.ErrUserNotFound
	}
	return ur.users[ur.emailIds[email]], nil
}

func (ur *FakeUserRepo) GetByID(id string) (*users.Account, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	if _, ok := ur.users[id]; !ok {
		return nil, internalerrors.ErrUserNotFound
	}
	return ur.users[id], nil
}

func (ur *FakeUserRepo) GetByVerificationToken(token string) (*users.Account, error) {
	ur.lock.RLock()
	defer ur.lock.RUnlock()

	if token == "" {
		return nil, internalerrors.ErrUserNotFound
	}
	for _, a := range ur.users {
		if a.VerificationToken == token {
			return a, nil
		}
	}
	return nil, internalerrors.ErrUserNotFound
}

func (ur *FakeUserRepo) SetVerified(email string, verified bool) error {
	return ur.update(email, func(a *users.Account) {
		a.Verified = verified
		if verified {
			a.VerificationToken = ""
		}
	})
}

func (ur *FakeUserRepo) SetPasswordHash(email, hash string) error {
	return ur.update(email, func(a *users.Account) {
		a.PasswordHash = hash
	})
}

func (ur *FakeUserRepo) SetVerificationToken(email, token string) error {
	return ur.update(email, func(a *users.Account) {
		a.VerificationToken = token
	})
}

func (ur *FakeUserRepo) update(email string, fn func(*users.Account)) error {
	ur.lock.Lock()
	defer ur.lock.Unlock()

	id, ok := ur.emailIds[email]
	if !ok {
		return internalerrors.ErrUserNotFound
	}
	fn(ur.users[id])
	return nil
}
