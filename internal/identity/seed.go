package identity

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/milkrun/storefront/internal/session"
)

// SeedUser is one account entry in the operator seed file.
type SeedUser struct {
	Name     string `yaml:"name"`
	Email    string `yaml:"email"`
	Phone    string `yaml:"phone"`
	Password string `yaml:"password"`
	Role     string `yaml:"role"`
}

type seedFile struct {
	Users []SeedUser `yaml:"users"`
}

// LoadSeedFile reads staff and demo accounts from a YAML file.
func LoadSeedFile(path string) ([]SeedUser, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseSeed(data)
}

// ParseSeed decodes a seed document of the form `users: [...]`.
func ParseSeed(data []byte) ([]SeedUser, error) {
	var f seedFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse seed: %w", err)
	}
	for i, u := range f.Users {
		if u.Email == "" {
			return nil, fmt.Errorf("seed user %d: email is required", i)
		}
		if u.Role != "" && !session.Role(strings.ToLower(strings.TrimSpace(u.Role))).Valid() {
			return nil, fmt.Errorf("seed user %s: unknown role %q", u.Email, u.Role)
		}
	}
	return f.Users, nil
}

// Seed creates the given accounts. Accounts that already exist are left
// untouched, so seeding is safe to run on every start. It returns the number
// of accounts created.
func (s *Service) Seed(ctx context.Context, users []SeedUser) (int, error) {
	created := 0
	for _, u := range users {
		_, err := s.create(ctx, Registration{Name: u.Name, Email: u.Email, Phone: u.Phone, Password: u.Password}, session.ParseRole(u.Role))
		if errors.Is(err, ErrUserExists) {
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", u.Email, err)
		}
		created++
	}
	return created, nil
}
