package server

import (
	"context"
	"fmt"

	"github.com/jrsteele09/go-hr-session/users"
)

// DemoVerificationToken verifies the seeded unverified account.
const DemoVerificationToken = "demo-verification-token"

type demoAccount struct {
	email       string
	firstName   string
	lastName    string
	role        users.Role
	permissions []string
	verified    bool
}

var demoAccounts = []demoAccount{
	{"admin@example.com", "Ada", "Admin", users.Role{ID: 1, Name: users.RoleAdmin, DisplayName: "Administrator"}, nil, true},
	{"hr@example.com", "Harriet", "Reyes", users.Role{ID: 2, Name: users.RoleHRManager, DisplayName: "HR Manager"}, []string{"reports:read"}, true},
	{"manager@example.com", "Manuel", "Ortiz", users.Role{ID: 3, Name: users.RoleManager, DisplayName: "Manager"}, []string{"leave:approve"}, true},
	{"employee@example.com", "Emma", "Lind", users.Role{ID: 4, Name: users.RoleEmployee, DisplayName: "Employee"}, nil, true},
	{"auditor@example.com", "Otto", "Berg", users.Role{ID: 5, Name: users.RoleAuditor, DisplayName: "Auditor"}, []string{"audit:read"}, true},
	{"unverified@example.com", "Una", "Vance", users.Role{ID: 4, Name: users.RoleEmployee, DisplayName: "Employee"}, nil, false},
}

// InitialiseSystem seeds the demo accounts. Accounts that already exist are
// left alone.
func (s *Server) InitialiseSystem(ctx context.Context) error {
	password := s.config.GetSeedPassword()
	if err := users.ValidatePasswordStrength(password); err != nil {
		return fmt.Errorf("seed password rejected: %w", err)
	}
	hash, err := users.HashPassword(password)
	if err != nil {
		return fmt.Errorf("failed to hash seed password: %w", err)
	}

	seeded := 0
	for _, demo := range demoAccounts {
		if _, err := s.users.GetByEmail(demo.email); err == nil {
			continue
		}
		account := &users.Account{
			Email:        demo.email,
			PasswordHash: hash,
			FirstName:    demo.firstName,
			LastName:     demo.lastName,
			Roles:        []users.Role{demo.role},
			Permissions:  demo.permissions,
			Verified:     demo.verified,
		}
		if !demo.verified {
			account.VerificationToken = DemoVerificationToken
		}
		if err := s.users.Upsert(account); err != nil {
			return fmt.Errorf("failed to seed %s: %w", demo.email, err)
		}
		seeded++
	}

	if seeded > 0 && s.env == "DEV" {
		s.logger.Info().Int("accounts", seeded).Str("password", password).Msg("seeded demo accounts")
	}
	return nil
}
