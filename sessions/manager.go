package sessions

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/jrsteele09/go-hr-session/apierr"
	internalerrors "github.com/jrsteele09/go-hr-session/internal/errors"
	"github.com/jrsteele09/go-hr-session/internal/metrics"
	"github.com/jrsteele09/go-hr-session/rolegate"
	"github.com/jrsteele09/go-hr-session/storage"
	"github.com/jrsteele09/go-hr-session/token"
	"github.com/jrsteele09/go-hr-session/users"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const name = "github.com/jrsteele09/go-hr-session/sessions"

// SnapshotKey is the storage key of the persisted {user, isAuthenticated} record.
const SnapshotKey = "hr-console-auth"

// AuthAPI is the remote side of the session: the HR API auth endpoints.
type AuthAPI interface {
	Login(ctx context.Context, email, password string) (*token.Pair, error)
	Me(ctx context.Context) (*users.User, error)
	ChangePassword(ctx context.Context, currentPassword, newPassword string) (string, error)
	VerifyEmail(ctx context.Context, verificationToken string) (string, error)
	ResendVerification(ctx context.Context, email string) (string, error)
}

// CredentialStore holds the bearer token pair.
type CredentialStore interface {
	Save(ctx context.Context, pair token.Pair) error
	Clear(ctx context.Context) error
	Read(ctx context.Context) (*token.Pair, error)
}

// Manager owns the Session. It is the only writer of Session state and of
// the credential store.
//
// Every operation that changes the session bumps a generation counter. An
// operation that waited on the network re-checks the counter before applying
// its result, so Logout wins over any login or fetch that resolves after it.
type Manager struct {
	api      AuthAPI
	tokens   CredentialStore
	storage  storage.Storage
	logger   zerolog.Logger
	metrics  *metrics.Metrics
	onChange []func(Snapshot)

	lock       sync.Mutex
	session    Session
	state      State
	generation uint64
}

// Option defines a function type to modify the Manager instance.
type Option func(*Manager)

func WithLogger(l zerolog.Logger) Option {
	return func(m *Manager) {
		m.logger = l
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Manager) {
		m.metrics = mt
	}
}

// WithOnChange registers fn to be called after every session change. fn runs
// while the Manager is locked and must not call back into it.
func WithOnChange(fn func(Snapshot)) Option {
	return func(m *Manager) {
		m.onChange = append(m.onChange, fn)
	}
}

// NewManager creates a Manager and hydrates it from the snapshot persisted in s.
func NewManager(ctx context.Context, api AuthAPI, tokens CredentialStore, s storage.Storage, options ...Option) (*Manager, error) {
	if api == nil {
		return nil, errors.New("[NewManager] auth api is required")
	}
	if tokens == nil {
		return nil, errors.New("[NewManager] credential store is required")
	}
	if s == nil {
		return nil, errors.New("[NewManager] storage is required")
	}

	m := &Manager{
		api:     api,
		tokens:  tokens,
		storage: s,
		logger:  log.Logger,
	}
	for _, opt := range options {
		opt(m)
	}

	if err := m.hydrate(ctx); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) hydrate(ctx context.Context) error {
	raw, ok, err := m.storage.Get(ctx, SnapshotKey)
	if err != nil {
		return errors.Wrap(err, "[NewManager] read session snapshot")
	}
	if !ok {
		return nil
	}

	var p persisted
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		m.logger.Warn().Err(err).Msg("ignoring unreadable session snapshot")
		return nil
	}
	if p.IsAuthenticated && p.User != nil {
		m.setUserLocked(p.User)
	}
	return nil
}

// Login exchanges credentials for tokens, stores them and resolves the
// identity. It is allowed from the anonymous and error states only; a second
// call while one is in flight is rejected. On failure the session ends up
// anonymous with no stored tokens.
func (m *Manager) Login(ctx context.Context, email, password string) (err error) {
	ctx, span := otel.Tracer(name).Start(ctx, "Manager.Login()")
	defer func() { endSpan(span, err) }()

	m.lock.Lock()
	switch m.state {
	case StateAuthenticating:
		m.lock.Unlock()
		m.metrics.LoginAttempt(metrics.LoginRejected)
		return apierr.New(internalerrors.ErrLoginInProgress)
	case StateAuthenticated:
		m.lock.Unlock()
		m.metrics.LoginAttempt(metrics.LoginRejected)
		return apierr.New(internalerrors.ErrAlreadyAuthenticated)
	}
	m.generation++
	gen := m.generation
	m.state = StateAuthenticating
	m.session = Session{IsLoading: true}
	m.commitLocked(ctx)
	m.lock.Unlock()

	pair, err := m.api.Login(ctx, email, password)
	if err != nil {
		return m.failLogin(ctx, gen, err)
	}

	m.lock.Lock()
	if m.generation != gen {
		m.lock.Unlock()
		return m.invalidated()
	}
	if err := m.tokens.Save(ctx, *pair); err != nil {
		m.lock.Unlock()
		return m.failLogin(ctx, gen, errors.Wrap(err, "[Manager.Login] save credentials"))
	}
	m.lock.Unlock()

	user, err := m.api.Me(ctx)
	if err != nil {
		return m.failLogin(ctx, gen, err)
	}

	m.lock.Lock()
	defer m.lock.Unlock()
	if m.generation != gen {
		return m.invalidated()
	}
	m.setUserLocked(user)
	m.commitLocked(ctx)

	m.metrics.LoginAttempt(metrics.LoginSucceeded)
	m.logger.Info().Str("user_id", user.ID).Msg("signed in")
	return nil
}

// failLogin rolls a login back to anonymous and scrubs whatever credentials it
// wrote. Nothing is touched if a logout or newer login has since taken over.
func (m *Manager) failLogin(ctx context.Context, gen uint64, cause error) error {
	classified := apierr.New(cause)

	m.lock.Lock()
	defer m.lock.Unlock()
	if m.generation != gen {
		return m.invalidated()
	}

	if err := m.tokens.Clear(ctx); err != nil {
		m.logger.Err(err).Msg("failed to clear credentials after failed login")
	}
	m.session = Session{}
	m.state = StateError
	m.commitLocked(ctx)

	m.metrics.LoginAttempt(metrics.LoginFailed)
	m.logger.Warn().Err(cause).Str("code", string(classified.Info.Code)).Msg("login failed")
	return classified
}

func (m *Manager) invalidated() error {
	m.metrics.LoginAttempt(metrics.LoginInvalidated)
	m.logger.Debug().Msg("discarding result of a superseded operation")
	return apierr.New(internalerrors.ErrSessionInvalidated)
}

// Logout clears the stored credentials and resets the session, whatever
// state it was in. Operations still in flight are invalidated.
func (m *Manager) Logout(ctx context.Context) (err error) {
	ctx, span := otel.Tracer(name).Start(ctx, "Manager.Logout()")
	defer func() { endSpan(span, err) }()

	m.lock.Lock()
	defer m.lock.Unlock()

	m.generation++
	m.session = Session{}
	m.state = StateAnonymous
	clearErr := m.tokens.Clear(ctx)
	m.commitLocked(ctx)

	if clearErr != nil {
		m.logger.Err(clearErr).Msg("failed to clear credentials on logout")
		return apierr.New(errors.Wrap(clearErr, "[Manager.Logout] clear credentials"))
	}
	m.logger.Info().Msg("signed out")
	return nil
}

// FetchUser re-resolves the identity behind the stored token. With no stored
// token it does nothing. A failure makes the session anonymous but leaves the
// stored tokens in place.
func (m *Manager) FetchUser(ctx context.Context) (err error) {
	ctx, span := otel.Tracer(name).Start(ctx, "Manager.FetchUser()")
	defer func() { endSpan(span, err) }()

	pair, err := m.tokens.Read(ctx)
	if err != nil {
		return apierr.New(errors.Wrap(err, "[Manager.FetchUser] read credentials"))
	}
	if pair == nil {
		return nil
	}

	m.lock.Lock()
	if m.state == StateAuthenticating {
		m.lock.Unlock()
		return apierr.New(internalerrors.ErrLoginInProgress)
	}
	m.generation++
	gen := m.generation
	m.lock.Unlock()

	user, err := m.api.Me(ctx)

	m.lock.Lock()
	defer m.lock.Unlock()
	if m.generation != gen {
		m.logger.Debug().Msg("discarding superseded identity fetch")
		return apierr.New(internalerrors.ErrSessionInvalidated)
	}
	if err != nil {
		classified := apierr.New(err)
		m.session = Session{}
		m.state = StateAnonymous
		m.commitLocked(ctx)
		m.logger.Warn().Err(err).Str("code", string(classified.Info.Code)).Msg("identity fetch failed")
		return classified
	}
	m.setUserLocked(user)
	m.commitLocked(ctx)
	return nil
}

// SetUser hydrates the session directly, without a network call. A nil user
// makes the session anonymous. Stored tokens are not touched. It is rejected
// while a login is in flight.
func (m *Manager) SetUser(ctx context.Context, user *users.User) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if m.state == StateAuthenticating {
		return apierr.New(internalerrors.ErrLoginInProgress)
	}
	m.generation++
	if user == nil {
		m.session = Session{}
		m.state = StateAnonymous
	} else {
		m.setUserLocked(user)
	}
	m.commitLocked(ctx)
	return nil
}

func (m *Manager) ChangePassword(ctx context.Context, currentPassword, newPassword string) (msg string, err error) {
	ctx, span := otel.Tracer(name).Start(ctx, "Manager.ChangePassword()")
	defer func() { endSpan(span, err) }()

	return m.api.ChangePassword(ctx, currentPassword, newPassword)
}

func (m *Manager) VerifyEmail(ctx context.Context, verificationToken string) (msg string, err error) {
	ctx, span := otel.Tracer(name).Start(ctx, "Manager.VerifyEmail()")
	defer func() { endSpan(span, err) }()

	return m.api.VerifyEmail(ctx, verificationToken)
}

func (m *Manager) ResendVerification(ctx context.Context, email string) (msg string, err error) {
	ctx, span := otel.Tracer(name).Start(ctx, "Manager.ResendVerification()")
	defer func() { endSpan(span, err) }()

	return m.api.ResendVerification(ctx, email)
}

// Session returns a copy of the current session.
func (m *Manager) Session() Session {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.session.clone()
}

func (m *Manager) State() State {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.state
}

// Capabilities derives the role gate flags of the current user.
func (m *Manager) Capabilities() rolegate.Flags {
	m.lock.Lock()
	defer m.lock.Unlock()
	return rolegate.Derive(m.session.User)
}

func (m *Manager) Snapshot() Snapshot {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.snapshotLocked()
}

func (m *Manager) snapshotLocked() Snapshot {
	return Snapshot{
		Session:      m.session.clone(),
		State:        m.state,
		Capabilities: rolegate.Derive(m.session.User),
	}
}

func (m *Manager) setUserLocked(user *users.User) {
	m.session = Session{User: user.Clone(), IsAuthenticated: true}
	m.state = StateAuthenticated
}

// commitLocked persists the snapshot record and notifies listeners. A
// failed write is logged; the in-memory session stays authoritative.
func (m *Manager) commitLocked(ctx context.Context) {
	record, err := json.Marshal(persisted{User: m.session.User, IsAuthenticated: m.session.IsAuthenticated})
	if err == nil {
		err = m.storage.Set(ctx, SnapshotKey, string(record))
	}
	if err != nil {
		m.logger.Err(err).Msg("failed to persist session snapshot")
	}

	if len(m.onChange) == 0 {
		return
	}
	snap := m.snapshotLocked()
	for _, fn := range m.onChange {
		fn(snap)
	}
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
