package apierr

import "errors"

// Code is the stable identifier of a classified failure.
type Code string

const (
	CodeTimeout       Code = "TIMEOUT"
	CodeNetwork       Code = "NETWORK_ERROR"
	CodeBadRequest    Code = "BAD_REQUEST"
	CodeUnauthorized  Code = "UNAUTHORIZED"
	CodeForbidden     Code = "FORBIDDEN"
	CodeNotFound      Code = "NOT_FOUND"
	CodeConflict      Code = "CONFLICT"
	CodeValidation    Code = "VALIDATION_ERROR"
	CodeRateLimit     Code = "RATE_LIMIT"
	CodeServer        Code = "SERVER_ERROR"
	CodeUnknownStatus Code = "UNKNOWN_ERROR"
	CodeGeneric       Code = "GENERIC_ERROR"
	CodeUnknown       Code = "UNKNOWN"
)

// Action is advisory: nothing in this module retries or waits on its own.
type Action string

const (
	ActionNone  Action = ""
	ActionRetry Action = "Retry"
	ActionWait  Action = "Wait"
)

// Info is the user-presentable description of a failed operation.
type Info struct {
	Title   string `json:"title" yaml:"title"`
	Message string `json:"message" yaml:"message"`
	Action  Action `json:"action,omitempty" yaml:"action,omitempty"`
	Code    Code   `json:"code" yaml:"code"`
}

func (i Info) HasAction() bool {
	return i.Action != ActionNone
}

func (i Info) String() string {
	s := i.Title + ": " + i.Message
	if i.HasAction() {
		s += " [" + string(i.Action) + "]"
	}
	return s
}

// Error is the failure value handed to every caller above the transport. It
// carries the Info computed once at the boundary plus the underlying cause.
type Error struct {
	Info  Info
	cause error
}

// New classifies err. An err that already carries an Info is returned as is so
// classification happens exactly once.
func New(err error) *Error {
	var classified *Error
	if errors.As(err, &classified) {
		return classified
	}
	return &Error{Info: Classify(err), cause: err}
}

func (e *Error) Error() string {
	return string(e.Info.Code) + ": " + e.Info.Message
}

func (e *Error) Unwrap() error {
	return e.cause
}

// InfoOf extracts the classified Info from err.
func InfoOf(err error) (Info, bool) {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Info, true
	}
	return Info{}, false
}
