package session

import "strings"

// Role identifies which route tree a signed-in user belongs to.
type Role string

const (
	RoleCustomer   Role = "customer"
	RoleAdmin      Role = "admin"
	RoleRetailer   Role = "retailer"
	RoleSuperadmin Role = "superadmin"
)

// ParseRole normalizes a role string. Unknown or empty values fall back to
// customer so an odd token never strands a user outside every route tree.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleAdmin:
		return RoleAdmin
	case RoleRetailer:
		return RoleRetailer
	case RoleSuperadmin:
		return RoleSuperadmin
	default:
		return RoleCustomer
	}
}

// Valid reports whether r is one of the known roles (case-sensitive).
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAdmin, RoleRetailer, RoleSuperadmin:
		return true
	}
	return false
}

func (r Role) String() string { return string(r) }

// IsStaff is true for roles served by the admin route tree.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleRetailer
}

// Session is the authenticated/unauthenticated state of the current user.
// Role is set iff Authenticated is true.
type Session struct {
	Authenticated bool
	Role          Role
	Token         string
	UserID        string
}

// NewSession builds an authenticated session. The raw role is normalized.
func NewSession(role, token, userID string) Session {
	return Session{
		Authenticated: true,
		Role:          ParseRole(role),
		Token:         token,
		UserID:        userID,
	}
}

// Anonymous returns the unauthenticated session.
func Anonymous() Session {
	return Session{}
}

// State is what the auth provider publishes to its observers.
type State struct {
	Loading bool
	Session Session
}
