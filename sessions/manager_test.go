package sessions_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/jrsteele09/go-hr-session/apierr"
	"github.com/jrsteele09/go-hr-session/auth/authfake"
	internalerrors "github.com/jrsteele09/go-hr-session/internal/errors"
	"github.com/jrsteele09/go-hr-session/internal/metrics"
	"github.com/jrsteele09/go-hr-session/rolegate"
	"github.com/jrsteele09/go-hr-session/sessions"
	"github.com/jrsteele09/go-hr-session/storage/storagefake"
	"github.com/jrsteele09/go-hr-session/token"
	"github.com/jrsteele09/go-hr-session/users"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testEmail    = "a@b.com"
	testPassword = "pw"
)

var testPair = token.Pair{AccessToken: "access-1", RefreshToken: "refresh-1"}

type testFixture struct {
	storage *storagefake.FakeStorage
	tokens  *token.Store
	api     *authfake.FakeAuthAPI
	metrics *metrics.Metrics
	manager *sessions.Manager
}

func testUser() *users.User {
	return users.NewUser("7", "jane@example.com", "Jane", "Doe", []users.Role{
		{ID: 1, Name: users.RoleManager, DisplayName: "Manager"},
		{ID: 2, Name: users.RoleEmployee, DisplayName: "Employee"},
	}, nil)
}

func setupTestFixture(t *testing.T, options ...sessions.Option) *testFixture {
	t.Helper()

	s := storagefake.NewFakeStorage()
	tokens, err := token.NewStore(s)
	require.NoError(t, err)

	_, m := metrics.NewRegistry()
	f := &testFixture{
		storage: s,
		tokens:  tokens,
		api:     authfake.NewFakeAuthAPI(&testPair, testUser()),
		metrics: m,
	}
	f.manager = f.newManager(t, options...)
	return f
}

func (f *testFixture) newManager(t *testing.T, options ...sessions.Option) *sessions.Manager {
	t.Helper()
	options = append([]sessions.Option{sessions.WithMetrics(f.metrics)}, options...)
	manager, err := sessions.NewManager(context.Background(), f.api, f.tokens, f.storage, options...)
	require.NoError(t, err)
	return manager
}

func (f *testFixture) storedPair(t *testing.T) *token.Pair {
	t.Helper()
	pair, err := f.tokens.Read(context.Background())
	require.NoError(t, err)
	return pair
}

func (f *testFixture) requireAnonymous(t *testing.T) {
	t.Helper()
	s := f.manager.Session()
	assert.Nil(t, s.User)
	assert.False(t, s.IsAuthenticated)
	assert.False(t, s.IsLoading)
}

func unauthorized(detail string) error {
	body, _ := json.Marshal(map[string]string{"detail": detail})
	return apierr.New(&apierr.ResponseError{StatusCode: http.StatusUnauthorized, Body: body})
}

func TestNewManagerValidatesDependencies(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	_, err := sessions.NewManager(ctx, nil, f.tokens, f.storage)
	require.Error(t, err)
	_, err = sessions.NewManager(ctx, f.api, nil, f.storage)
	require.Error(t, err)
	_, err = sessions.NewManager(ctx, f.api, f.tokens, nil)
	require.Error(t, err)
}

func TestStartsAnonymous(t *testing.T) {
	f := setupTestFixture(t)
	f.requireAnonymous(t)
	assert.Equal(t, sessions.StateAnonymous, f.manager.State())
	assert.Empty(t, f.manager.Capabilities().Names())
}

func TestLoginSuccess(t *testing.T) {
	f := setupTestFixture(t)

	require.NoError(t, f.manager.Login(context.Background(), testEmail, testPassword))

	s := f.manager.Session()
	assert.True(t, s.IsAuthenticated)
	assert.False(t, s.IsLoading)
	require.NotNil(t, s.User)
	assert.Equal(t, "7", s.User.ID)
	assert.Equal(t, sessions.StateAuthenticated, f.manager.State())
	assert.Equal(t, &testPair, f.storedPair(t))
	assert.True(t, f.manager.Capabilities().Has(rolegate.ApproveRequests))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Logins.WithLabelValues(metrics.LoginSucceeded)))
}

func TestLoginExchangeFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.api.LoginFunc = func(context.Context, string, string) (*token.Pair, error) {
		return nil, unauthorized("bad creds")
	}

	err := f.manager.Login(context.Background(), testEmail, testPassword)

	info, ok := apierr.InfoOf(err)
	require.True(t, ok)
	assert.Equal(t, apierr.CodeUnauthorized, info.Code)
	assert.Equal(t, "bad creds", info.Message)
	f.requireAnonymous(t)
	assert.Equal(t, sessions.StateError, f.manager.State())
	assert.Nil(t, f.storedPair(t))
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Logins.WithLabelValues(metrics.LoginFailed)))
}

func TestLoginIdentityFailureScrubsCredentials(t *testing.T) {
	f := setupTestFixture(t)
	f.api.MeFunc = func(context.Context) (*users.User, error) {
		return nil, apierr.New(&apierr.ResponseError{StatusCode: http.StatusInternalServerError})
	}

	err := f.manager.Login(context.Background(), testEmail, testPassword)

	info, ok := apierr.InfoOf(err)
	require.True(t, ok)
	assert.Equal(t, apierr.CodeServer, info.Code)
	assert.Equal(t, apierr.ActionRetry, info.Action)
	f.requireAnonymous(t)
	assert.Nil(t, f.storedPair(t))
}

func TestLoginCredentialSaveFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.api.LoginFunc = func(context.Context, string, string) (*token.Pair, error) {
		f.storage.Err = internalerrors.ErrStorageUnavailable
		return &testPair, nil
	}

	err := f.manager.Login(context.Background(), testEmail, testPassword)

	info, ok := apierr.InfoOf(err)
	require.True(t, ok)
	assert.Equal(t, apierr.CodeGeneric, info.Code)
	assert.True(t, errors.Is(err, internalerrors.ErrStorageUnavailable))
	f.requireAnonymous(t)
	_, me := f.api.Calls()
	assert.Zero(t, me)
}

func TestLoginAfterFailureIsAllowed(t *testing.T) {
	f := setupTestFixture(t)
	var calls atomic.Int32
	f.api.LoginFunc = func(context.Context, string, string) (*token.Pair, error) {
		if calls.Add(1) == 1 {
			return nil, unauthorized("bad creds")
		}
		return &testPair, nil
	}
	ctx := context.Background()

	require.Error(t, f.manager.Login(ctx, testEmail, "wrong"))
	require.Equal(t, sessions.StateError, f.manager.State())

	require.NoError(t, f.manager.Login(ctx, testEmail, testPassword))
	assert.Equal(t, sessions.StateAuthenticated, f.manager.State())
}

func TestLoginWhenAuthenticatedIsRejected(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	require.NoError(t, f.manager.Login(ctx, testEmail, testPassword))

	err := f.manager.Login(ctx, testEmail, testPassword)
	assert.True(t, errors.Is(err, internalerrors.ErrAlreadyAuthenticated))

	login, _ := f.api.Calls()
	assert.Equal(t, 1, login)
	assert.True(t, f.manager.Session().IsAuthenticated)
}

func TestConcurrentLoginIsRejected(t *testing.T) {
	f := setupTestFixture(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	f.api.LoginFunc = func(context.Context, string, string) (*token.Pair, error) {
		close(entered)
		<-release
		return &testPair, nil
	}
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- f.manager.Login(ctx, testEmail, testPassword) }()
	<-entered

	assert.True(t, f.manager.Session().IsLoading)
	assert.Equal(t, sessions.StateAuthenticating, f.manager.State())

	err := f.manager.Login(ctx, testEmail, testPassword)
	info, ok := apierr.InfoOf(err)
	require.True(t, ok)
	assert.Equal(t, apierr.CodeGeneric, info.Code)
	assert.True(t, errors.Is(err, internalerrors.ErrLoginInProgress))

	close(release)
	require.NoError(t, <-done)
	assert.True(t, f.manager.Session().IsAuthenticated)

	login, _ := f.api.Calls()
	assert.Equal(t, 1, login)
	assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Logins.WithLabelValues(metrics.LoginRejected)))
}

func TestLogoutFromEveryState(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, f *testFixture)
	}{
		{"anonymous", func(t *testing.T, f *testFixture) {}},
		{"authenticated", func(t *testing.T, f *testFixture) {
			require.NoError(t, f.manager.Login(context.Background(), testEmail, testPassword))
		}},
		{"error", func(t *testing.T, f *testFixture) {
			f.api.LoginFunc = func(context.Context, string, string) (*token.Pair, error) {
				return nil, unauthorized("bad creds")
			}
			require.Error(t, f.manager.Login(context.Background(), testEmail, testPassword))
		}},
		{"hydrated with stale tokens", func(t *testing.T, f *testFixture) {
			require.NoError(t, f.tokens.Save(context.Background(), testPair))
			require.NoError(t, f.manager.SetUser(context.Background(), testUser()))
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t)
			tt.setup(t, f)

			require.NoError(t, f.manager.Logout(context.Background()))

			f.requireAnonymous(t)
			assert.Equal(t, sessions.StateAnonymous, f.manager.State())
			assert.Nil(t, f.storedPair(t))
		})
	}
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	require.NoError(t, f.manager.Logout(ctx))
	require.NoError(t, f.manager.Logout(ctx))
	f.requireAnonymous(t)
}

func TestLogoutWinsOverIdentityResolution(t *testing.T) {
	tests := []struct {
		name string
		me   func() (*users.User, error)
	}{
		{"identity resolves", func() (*users.User, error) { return testUser(), nil }},
		{"identity fails", func() (*users.User, error) { return nil, unauthorized("expired") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t)
			entered := make(chan struct{})
			release := make(chan struct{})
			f.api.MeFunc = func(context.Context) (*users.User, error) {
				close(entered)
				<-release
				return tt.me()
			}
			ctx := context.Background()

			done := make(chan error, 1)
			go func() { done <- f.manager.Login(ctx, testEmail, testPassword) }()
			<-entered

			require.NoError(t, f.manager.Logout(ctx))
			close(release)

			err := <-done
			assert.True(t, errors.Is(err, internalerrors.ErrSessionInvalidated))
			f.requireAnonymous(t)
			assert.Equal(t, sessions.StateAnonymous, f.manager.State())
			assert.Nil(t, f.storedPair(t))
			assert.Equal(t, 1.0, testutil.ToFloat64(f.metrics.Logins.WithLabelValues(metrics.LoginInvalidated)))
		})
	}
}

func TestLogoutWinsOverTokenExchange(t *testing.T) {
	f := setupTestFixture(t)
	entered := make(chan struct{})
	release := make(chan struct{})
	f.api.LoginFunc = func(context.Context, string, string) (*token.Pair, error) {
		close(entered)
		<-release
		return &testPair, nil
	}
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- f.manager.Login(ctx, testEmail, testPassword) }()
	<-entered

	require.NoError(t, f.manager.Logout(ctx))
	close(release)

	assert.True(t, errors.Is(<-done, internalerrors.ErrSessionInvalidated))
	f.requireAnonymous(t)
	assert.Nil(t, f.storedPair(t))
	_, me := f.api.Calls()
	assert.Zero(t, me)
}

func TestStaleLoginDoesNotDisturbNewerLogin(t *testing.T) {
	f := setupTestFixture(t)
	secondPair := token.Pair{AccessToken: "access-2", RefreshToken: "refresh-2"}

	var logins atomic.Int32
	f.api.LoginFunc = func(context.Context, string, string) (*token.Pair, error) {
		if logins.Add(1) == 1 {
			return &testPair, nil
		}
		return &secondPair, nil
	}
	entered := make(chan struct{})
	release := make(chan struct{})
	var mes atomic.Int32
	f.api.MeFunc = func(context.Context) (*users.User, error) {
		if mes.Add(1) == 1 {
			close(entered)
			<-release
			return nil, unauthorized("expired")
		}
		return testUser(), nil
	}
	ctx := context.Background()

	done := make(chan error, 1)
	go func() { done <- f.manager.Login(ctx, testEmail, testPassword) }()
	<-entered

	require.NoError(t, f.manager.Logout(ctx))
	require.NoError(t, f.manager.Login(ctx, testEmail, testPassword))
	close(release)

	assert.True(t, errors.Is(<-done, internalerrors.ErrSessionInvalidated))
	assert.True(t, f.manager.Session().IsAuthenticated)
	assert.Equal(t, &secondPair, f.storedPair(t))
}

func TestFetchUserWithoutTokensIsNoop(t *testing.T) {
	f := setupTestFixture(t)
	var changes atomic.Int32
	f.manager = f.newManager(t, sessions.WithOnChange(func(sessions.Snapshot) { changes.Add(1) }))

	require.NoError(t, f.manager.FetchUser(context.Background()))

	f.requireAnonymous(t)
	_, me := f.api.Calls()
	assert.Zero(t, me)
	assert.Zero(t, changes.Load())
}

func TestFetchUserResolvesIdentity(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	require.NoError(t, f.tokens.Save(ctx, testPair))

	require.NoError(t, f.manager.FetchUser(ctx))

	s := f.manager.Session()
	assert.True(t, s.IsAuthenticated)
	assert.Equal(t, "jane@example.com", s.User.Email)
}

func TestFetchUserFailureKeepsTokens(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	require.NoError(t, f.tokens.Save(ctx, testPair))
	require.NoError(t, f.manager.SetUser(ctx, testUser()))
	f.api.MeFunc = func(context.Context) (*users.User, error) {
		return nil, unauthorized("")
	}

	err := f.manager.FetchUser(ctx)

	info, ok := apierr.InfoOf(err)
	require.True(t, ok)
	assert.Equal(t, apierr.CodeUnauthorized, info.Code)
	f.requireAnonymous(t)
	assert.Equal(t, &testPair, f.storedPair(t))
}

func TestLogoutWinsOverFetchUser(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	require.NoError(t, f.tokens.Save(ctx, testPair))

	entered := make(chan struct{})
	release := make(chan struct{})
	f.api.MeFunc = func(context.Context) (*users.User, error) {
		close(entered)
		<-release
		return testUser(), nil
	}

	done := make(chan error, 1)
	go func() { done <- f.manager.FetchUser(ctx) }()
	<-entered

	require.NoError(t, f.manager.Logout(ctx))
	close(release)

	assert.True(t, errors.Is(<-done, internalerrors.ErrSessionInvalidated))
	f.requireAnonymous(t)
	assert.Nil(t, f.storedPair(t))
}

func TestSetUser(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	require.NoError(t, f.manager.SetUser(ctx, testUser()))
	s := f.manager.Session()
	assert.True(t, s.IsAuthenticated)
	assert.Equal(t, sessions.StateAuthenticated, f.manager.State())

	require.NoError(t, f.manager.SetUser(ctx, nil))
	f.requireAnonymous(t)
	assert.Equal(t, sessions.StateAnonymous, f.manager.State())

	login, me := f.api.Calls()
	assert.Zero(t, login)
	assert.Zero(t, me)
}

func TestSetUserRejectedDuringLogin(t *testing.T) {
	tests := []struct {
		name string
		me   func() (*users.User, error)
	}{
		{"identity resolves", func() (*users.User, error) { return testUser(), nil }},
		{"identity fails", func() (*users.User, error) { return nil, unauthorized("expired") }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := setupTestFixture(t)
			ctx := context.Background()
			entered := make(chan struct{})
			release := make(chan struct{})
			f.api.MeFunc = func(context.Context) (*users.User, error) {
				close(entered)
				<-release
				return tt.me()
			}

			done := make(chan error, 1)
			go func() { done <- f.manager.Login(ctx, testEmail, testPassword) }()
			<-entered

			err := f.manager.SetUser(ctx, nil)
			assert.True(t, errors.Is(err, internalerrors.ErrLoginInProgress))
			assert.True(t, f.manager.Session().IsLoading)
			assert.Equal(t, sessions.StateAuthenticating, f.manager.State())

			err = f.manager.Login(ctx, testEmail, testPassword)
			assert.True(t, errors.Is(err, internalerrors.ErrLoginInProgress))

			close(release)
			loginErr := <-done

			login, _ := f.api.Calls()
			assert.Equal(t, 1, login)
			if loginErr == nil {
				assert.Equal(t, sessions.StateAuthenticated, f.manager.State())
				assert.Equal(t, &testPair, f.storedPair(t))
				return
			}
			assert.False(t, errors.Is(loginErr, internalerrors.ErrSessionInvalidated))
			assert.Equal(t, sessions.StateError, f.manager.State())
			assert.Nil(t, f.storedPair(t))
		})
	}
}

func TestSessionIsACopy(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.manager.SetUser(context.Background(), testUser()))

	s := f.manager.Session()
	s.User.Roles[0] = users.RoleAdmin

	assert.False(t, f.manager.Capabilities().Has(rolegate.ManageUsers))
}

func TestSnapshotRoundTrip(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	require.NoError(t, f.manager.Login(ctx, testEmail, testPassword))

	raw, ok, err := f.storage.Get(ctx, sessions.SnapshotKey)
	require.NoError(t, err)
	require.True(t, ok)
	var record struct {
		User            *users.User `json:"user"`
		IsAuthenticated bool        `json:"isAuthenticated"`
		AccessToken     string      `json:"access_token"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &record))
	assert.True(t, record.IsAuthenticated)
	assert.Empty(t, record.AccessToken)

	// A fresh manager over the same storage comes up signed in without a network call.
	f.api = authfake.NewFakeAuthAPI(&testPair, testUser())
	restored := f.newManager(t)
	s := restored.Session()
	assert.True(t, s.IsAuthenticated)
	assert.Equal(t, "7", s.User.ID)
	assert.Equal(t, []users.RoleType{users.RoleManager, users.RoleEmployee}, s.User.Roles)

	require.NoError(t, restored.SetUser(ctx, record.User))
	assert.True(t, restored.Session().IsAuthenticated)

	login, me := f.api.Calls()
	assert.Zero(t, login)
	assert.Zero(t, me)
}

func TestSnapshotClearedOnLogout(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	require.NoError(t, f.manager.Login(ctx, testEmail, testPassword))
	require.NoError(t, f.manager.Logout(ctx))

	restored := f.newManager(t)
	assert.False(t, restored.Session().IsAuthenticated)
}

func TestUnreadableSnapshotIsIgnored(t *testing.T) {
	f := setupTestFixture(t)
	require.NoError(t, f.storage.Set(context.Background(), sessions.SnapshotKey, "{not json"))

	restored := f.newManager(t)
	assert.False(t, restored.Session().IsAuthenticated)
}

func TestHydrateStorageFailure(t *testing.T) {
	f := setupTestFixture(t)
	f.storage.Err = internalerrors.ErrStorageUnavailable

	_, err := sessions.NewManager(context.Background(), f.api, f.tokens, f.storage)
	assert.True(t, errors.Is(err, internalerrors.ErrStorageUnavailable))
}

func TestOnChangeSeesEveryTransition(t *testing.T) {
	var (
		mu    sync.Mutex
		snaps []sessions.Snapshot
	)
	f := setupTestFixture(t, sessions.WithOnChange(func(s sessions.Snapshot) {
		mu.Lock()
		defer mu.Unlock()
		snaps = append(snaps, s)
	}))
	ctx := context.Background()

	require.NoError(t, f.manager.Login(ctx, testEmail, testPassword))
	require.NoError(t, f.manager.Logout(ctx))

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, snaps, 3)

	assert.Equal(t, sessions.StateAuthenticating, snaps[0].State)
	assert.True(t, snaps[0].Session.IsLoading)

	assert.Equal(t, sessions.StateAuthenticated, snaps[1].State)
	assert.False(t, snaps[1].Session.IsLoading)
	assert.True(t, snaps[1].Capabilities.Has(rolegate.ApproveRequests))

	assert.Equal(t, sessions.StateAnonymous, snaps[2].State)
	assert.Empty(t, snaps[2].Capabilities.Names())
}

func TestAccountCallsPassThrough(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()

	msg, err := f.manager.ChangePassword(ctx, "old", "new")
	require.NoError(t, err)
	assert.Equal(t, "password changed", msg)

	_, err = f.manager.VerifyEmail(ctx, "tok")
	require.NoError(t, err)
	_, err = f.manager.ResendVerification(ctx, testEmail)
	require.NoError(t, err)

	assert.Len(t, f.api.Messages, 3)
	f.requireAnonymous(t)
}
