package auth

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/milkrun/storefront/internal/identity"
)

// ErrTokenRevoked is returned for tokens minted before the last logout.
var ErrTokenRevoked = errors.New("token version invalidated")

const defaultAccessTTL = 24 * time.Hour

// Service issues and verifies access tokens.
type Service struct {
	secret []byte
	ttl    time.Duration
	users  identity.Repository
	now    func() time.Time
}

// NewService builds a token service. A non-positive ttl uses 24h.
func NewService(secret string, ttl time.Duration, users identity.Repository) *Service {
	if ttl <= 0 {
		ttl = defaultAccessTTL
	}
	return &Service{secret: []byte(secret), ttl: ttl, users: users, now: time.Now}
}

// Token is an issued access token.
type Token struct {
	AccessToken string `json:"token"`
	ExpiresIn   int64  `json:"expiresIn"`
}

// Login issues an access token for an authenticated user.
func (s *Service) Login(user identity.User) (Token, error) {
	now := s.now()
	claims := Claims{
		Role:    user.Role.String(),
		Version: user.TokenVersion,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	signed, err := signHS256(claims, s.secret)
	if err != nil {
		return Token{}, err
	}
	return Token{AccessToken: signed, ExpiresIn: int64(s.ttl.Seconds())}, nil
}

// Verify checks the signature and expiry, then confirms the token version
// still matches the account. The returned role is the account's current role.
func (s *Service) Verify(ctx context.Context, tokenString string) (Claims, error) {
	claims, err := parseHS256(tokenString, s.secret, s.now())
	if err != nil {
		return Claims{}, err
	}
	user, err := s.users.FindByID(ctx, claims.Subject)
	if errors.Is(err, identity.ErrUserNotFound) {
		return Claims{}, ErrInvalidToken
	}
	if err != nil {
		return Claims{}, err
	}
	if user.TokenVersion != claims.Version {
		return Claims{}, ErrTokenRevoked
	}
	claims.Role = user.Role.String()
	return claims, nil
}

// Logout increments token version so older tokens become invalid.
func (s *Service) Logout(ctx context.Context, userID string) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	return s.users.UpdateTokenVersion(ctx, user.ID, user.TokenVersion+1)
}
