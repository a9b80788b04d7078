package identity

import (
	"errors"
	"time"

	"github.com/milkrun/storefront/internal/session"
)

var (
	ErrUserExists         = errors.New("user exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// User is a storefront account: a customer, or staff seeded by operators.
type User struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	Role         session.Role
	PasswordHash []byte
	TokenVersion int
	CreatedAt    time.Time
	LastLogin    *time.Time
}

// Registration is a self-service signup. Signups are always customers.
type Registration struct {
	Name     string
	Email    string
	Phone    string
	Password string
}

// Credentials request structure.
type Credentials struct {
	Email    string
	Password string
}
