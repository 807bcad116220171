package authfake

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-hr-session/token"
	"github.com/jrsteele09/go-hr-session/users"
)

// FakeAuthAPI answers the auth endpoints from in-memory values. The *Func
// fields, when set, replace the default behaviour.
type FakeAuthAPI struct {
	lock sync.Mutex

	Pair *token.Pair
	User *users.User

	LoginFunc func(ctx context.Context, email, password string) (*token.Pair, error)
	MeFunc    func(ctx context.Context) (*users.User, error)

	LoginCalls int
	MeCalls    int
	Messages   []string
}

func NewFakeAuthAPI(pair *token.Pair, user *users.User) *FakeAuthAPI {
	return &FakeAuthAPI{Pair: pair, User: user}
}

func (f *FakeAuthAPI) Login(ctx context.Context, email, password string) (*token.Pair, error) {
	f.lock.Lock()
	f.LoginCalls++
	fn, pair := f.LoginFunc, f.Pair
	f.lock.Unlock()

	if fn != nil {
		return fn(ctx, email, password)
	}
	p := *pair
	return &p, nil
}

func (f *FakeAuthAPI) Me(ctx context.Context) (*users.User, error) {
	f.lock.Lock()
	f.MeCalls++
	fn, user := f.MeFunc, f.User
	f.lock.Unlock()

	if fn != nil {
		return fn(ctx)
	}
	return user.Clone(), nil
}

func (f *FakeAuthAPI) ChangePassword(_ context.Context, _, _ string) (string, error) {
	return f.record("password changed"), nil
}

func (f *FakeAuthAPI) VerifyEmail(_ context.Context, _ string) (string, error) {
	return f.record("email verified"), nil
}

func (f *FakeAuthAPI) ResendVerification(_ context.Context, _ string) (string, error) {
	return f.record("verification sent"), nil
}

func (f *FakeAuthAPI) Calls() (login, me int) {
	f.lock.Lock()
	defer f.lock.Unlock()
	return f.LoginCalls, f.MeCalls
}

func (f *FakeAuthAPI) record(msg string) string {
	f.lock.Lock()
	defer f.lock.Unlock()
	f.Messages = append(f.Messages, msg)
	return msg
}
