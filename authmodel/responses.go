package authmodel

import (
	"bytes"
	"encoding/json"

	"github.com/jrsteele09/go-hr-session/users"
)

// TokenResponse is returned by POST /auth/login.
type TokenResponse struct {
	// AccessToken is presented as "Authorization: Bearer <access_token>" on every authenticated call.
	// Lifespan: decided by the server; the client does not inspect it
	AccessToken *string `json:"access_token,omitempty"`

	// RefreshToken is persisted next to the access token.
	// Note: stored only, no refresh flow uses it
	RefreshToken *string `json:"refresh_token,omitempty"`

	// TokenType is always "bearer".
	TokenType string `json:"token_type,omitempty"`

	// ExpiresIn is the lifetime in seconds of the access token (informational).
	// Example: 3600
	ExpiresIn int `json:"expires_in,omitempty"`
}

// MeResponse is returned by GET /auth/me.
type MeResponse struct {
	ID        ID     `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`

	// Roles are full role objects; only their names are kept by the client.
	// Example: [{"id": 2, "name": "manager", "display_name": "Manager"}]
	Roles []users.Role `json:"roles"`

	// Permissions is optional; older servers omit it.
	Permissions []string `json:"permissions,omitempty"`
}

// User projects the response into the session identity.
func (m *MeResponse) User() *users.User {
	return users.NewUser(string(m.ID), m.Email, m.FirstName, m.LastName, m.Roles, m.Permissions)
}

// MessageResponse acknowledges the fire-and-forget endpoints.
type MessageResponse struct {
	Message string `json:"message"`
}

// ErrorResponse is the FastAPI-style error body: Detail is either a string or
// a list of FieldError.
type ErrorResponse struct {
	Detail any `json:"detail"`
}

// FieldError is one entry of a 422 detail list.
type FieldError struct {
	Loc  []string `json:"loc"`
	Msg  string   `json:"msg"`
	Type string   `json:"type"`
}

// ID accepts both numeric and string identifiers.
type ID string

func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = ID(n.String())
	return nil
}
