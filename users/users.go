package users

import (
	"fmt"
	"slices"
	"unicode"

	"github.com/jrsteele09/go-hr-session/internal/utils"
	"golang.org/x/crypto/bcrypt"
)

// RoleType is the machine name of a role as issued by the HR API
type RoleType string

const (
	RoleAdmin     RoleType = "admin"      // Full control of the organisation and its users
	RoleHRManager RoleType = "hr_manager" // Manages employee records and approves requests
	RoleManager   RoleType = "manager"    // Approves requests for direct reports
	RoleEmployee  RoleType = "employee"   // Regular employee, self-service only
	RoleAuditor   RoleType = "auditor"    // Read-only access to reports and the audit log
)

// Role is the role object returned by GET /auth/me. Only Name survives the
// projection into User.
type Role struct {
	ID          any      `json:"id"`
	Name        RoleType `json:"name"`
	DisplayName string   `json:"display_name"`
}

// User is the identity held by a session.
type User struct {
	ID          string     `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Roles       []RoleType `json:"roles"`                 // Role names, no duplicates
	Permissions []string   `json:"permissions,omitempty"` // Fine-grained grants, no duplicates
}

// NewUser projects the remote identity into a User: role objects collapse to
// their names and duplicates are dropped.
func NewUser(id, email, firstName, lastName string, roles []Role, permissions []string) *User {
	names := make([]string, 0, len(roles))
	for _, r := range roles {
		if r.Name == "" {
			continue
		}
		names = append(names, string(r.Name))
	}
	deduped := utils.Dedupe(names)
	roleTypes := make([]RoleType, len(deduped))
	for i, n := range deduped {
		roleTypes[i] = RoleType(n)
	}

	return &User{
		ID:          id,
		Email:       email,
		FirstName:   firstName,
		LastName:    lastName,
		Roles:       roleTypes,
		Permissions: utils.Dedupe(permissions),
	}
}

func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

func (u *User) HasRole(role RoleType) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

func (u *User) HasPermission(permission string) bool {
	for _, p := range u.Permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// RoleNames returns the roles as plain strings, e.g. for a token claim
func (u *User) RoleNames() []string {
	names := make([]string, len(u.Roles))
	for i, r := range u.Roles {
		names[i] = string(r)
	}
	return names
}

// Clone returns a deep copy.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.Roles = slices.Clone(u.Roles)
	c.Permissions = slices.Clone(u.Permissions)
	return &c
}

// Account is the server-side record behind a User, used by the stub HR API.
type Account struct {
	ID                string   `json:"id,omitempty"`
	Email             string   `json:"email,omitempty"`
	PasswordHash      string   `json:"-"` // never serialize
	FirstName         string   `json:"first_name,omitempty"`
	LastName          string   `json:"last_name,omitempty"`
	Roles             []Role   `json:"roles,omitempty"`
	Permissions       []string `json:"permissions,omitempty"`
	Verified          bool     `json:"verified,omitempty"`
	VerificationToken string   `json:"-"`
}

// User projects the account into the identity a client sees.
func (a *Account) User() *User {
	return NewUser(a.ID, a.Email, a.FirstName, a.LastName, a.Roles, a.Permissions)
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
