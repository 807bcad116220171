package sessions

import (
	"github.com/jrsteele09/go-hr-session/rolegate"
	"github.com/jrsteele09/go-hr-session/users"
)

// State is the lifecycle phase of a Session.
type State int

const (
	StateAnonymous State = iota
	StateAuthenticating
	StateAuthenticated
	// StateError follows a failed login. The session is anonymous; a new
	// login may start from here.
	StateError
)

func (s State) String() string {
	switch s {
	case StateAnonymous:
		return "anonymous"
	case StateAuthenticating:
		return "authenticating"
	case StateAuthenticated:
		return "authenticated"
	case StateError:
		return "error"
	}
	return "unknown"
}

// Session is the in-memory record of the current identity.
// IsAuthenticated is true exactly when User is set.
type Session struct {
	User            *users.User `json:"user"`
	IsAuthenticated bool        `json:"isAuthenticated"`
	IsLoading       bool        `json:"-"`
}

func (s Session) clone() Session {
	if s.User != nil {
		s.User = s.User.Clone()
	}
	return s
}

// Snapshot is a consistent view of the Manager handed to readers and listeners.
type Snapshot struct {
	Session      Session
	State        State
	Capabilities rolegate.Flags
}

// persisted is the durable record written under SnapshotKey. Tokens are
// stored separately by the credential store.
type persisted struct {
	User            *users.User `json:"user"`
	IsAuthenticated bool        `json:"isAuthenticated"`
}
