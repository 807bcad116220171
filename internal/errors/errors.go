package errors

import "errors"

// Common error types for the HR console session client
var (
	// Session errors
	ErrLoginInProgress      = errors.New("a login is already in progress")
	ErrAlreadyAuthenticated = errors.New("already signed in, sign out first")
	ErrSessionInvalidated   = errors.New("session was signed out while the request was in flight")

	// Credential errors
	ErrIncompleteTokenSet = errors.New("token response is missing the access or refresh token")

	// Storage errors
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrUnknownBackend     = errors.New("unknown storage backend")

	// Transport errors
	ErrInvalidBaseURL   = errors.New("invalid API base URL")
	ErrUndecodableReply = errors.New("unable to decode server response")

	// Stub API errors
	ErrUserNotFound = errors.New("user not found")
)
