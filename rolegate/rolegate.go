package rolegate

import (
	"github.com/jrsteele09/go-hr-session/users"
)

// Capability is a named permission derived from a user's roles and permissions.
type Capability int

const (
	ApproveRequests Capability = iota
	ManageEmployees
	ManageUsers
	ViewReports
	ViewAuditLog
)

// All lists every capability in display order.
var All = []Capability{ApproveRequests, ManageEmployees, ManageUsers, ViewReports, ViewAuditLog}

var capabilityNames = map[Capability]string{
	ApproveRequests: "approve_requests",
	ManageEmployees: "manage_employees",
	ManageUsers:     "manage_users",
	ViewReports:     "view_reports",
	ViewAuditLog:    "view_audit_log",
}

func (c Capability) String() string {
	if name, ok := capabilityNames[c]; ok {
		return name
	}
	return "unknown"
}

type rule struct {
	roles       []users.RoleType
	permissions []string
}

// rules grants a capability when the user holds any listed role or any listed permission.
var rules = map[Capability]rule{
	ApproveRequests: {
		roles:       []users.RoleType{users.RoleAdmin, users.RoleHRManager, users.RoleManager},
		permissions: []string{"leave:approve", "requests:approve"},
	},
	ManageEmployees: {
		roles:       []users.RoleType{users.RoleAdmin, users.RoleHRManager},
		permissions: []string{"employees:write"},
	},
	ManageUsers: {
		roles:       []users.RoleType{users.RoleAdmin},
		permissions: []string{"users:manage"},
	},
	ViewReports: {
		roles:       []users.RoleType{users.RoleAdmin, users.RoleHRManager, users.RoleAuditor},
		permissions: []string{"reports:read"},
	},
	ViewAuditLog: {
		roles:       []users.RoleType{users.RoleAdmin, users.RoleAuditor},
		permissions: []string{"audit:read"},
	},
}

// Flags is the set of capabilities held by a user. The zero value grants nothing.
type Flags struct {
	granted map[Capability]bool
}

// Derive computes the capabilities of user. A nil user has none.
func Derive(user *users.User) Flags {
	flags := Flags{granted: make(map[Capability]bool)}
	if user == nil {
		return flags
	}
	for _, c := range All {
		if grants(rules[c], user) {
			flags.granted[c] = true
		}
	}
	return flags
}

func grants(r rule, user *users.User) bool {
	for _, role := range r.roles {
		if user.HasRole(role) {
			return true
		}
	}
	for _, p := range r.permissions {
		if user.HasPermission(p) {
			return true
		}
	}
	return false
}

func (f Flags) Has(c Capability) bool {
	return f.granted[c]
}

// Names returns the granted capabilities in display order.
func (f Flags) Names() []string {
	names := []string{}
	for _, c := range All {
		if f.granted[c] {
			names = append(names, c.String())
		}
	}
	return names
}

// Map returns every capability name with whether it is granted.
func (f Flags) Map() map[string]bool {
	m := make(map[string]bool, len(All))
	for _, c := range All {
		m[c.String()] = f.granted[c]
	}
	return m
}

func (f Flags) Equal(other Flags) bool {
	for _, c := range All {
		if f.granted[c] != other.granted[c] {
			return false
		}
	}
	return true
}
