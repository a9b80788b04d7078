package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/milkrun/storefront/internal/auth"
	"github.com/milkrun/storefront/internal/session"
)

// TokenVerifier is satisfied by *auth.Service.
type TokenVerifier interface {
	Verify(ctx context.Context, token string) (auth.Claims, error)
}

// JWTAuth rejects requests without a valid, unrevoked bearer token.
func JWTAuth(tokens TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw, ok := bearerToken(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, "missing bearer token")
		}
		claims, err := tokens.Verify(c.UserContext(), raw)
		if errors.Is(err, auth.ErrTokenRevoked) {
			return fiber.NewError(http.StatusUnauthorized, "token invalidated")
		}
		if err != nil {
			return fiber.NewError(http.StatusUnauthorized, "invalid token")
		}
		setClaims(c, raw, claims)
		return c.Next()
	}
}

// OptionalJWT attaches claims when a valid token is present and otherwise
// treats the caller as anonymous.
func OptionalJWT(tokens TokenVerifier) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if raw, ok := bearerToken(c); ok {
			if claims, err := tokens.Verify(c.UserContext(), raw); err == nil {
				setClaims(c, raw, claims)
			}
		}
		return c.Next()
	}
}

// RequireRole allows only the listed roles. Must run after JWTAuth.
func RequireRole(roles ...session.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		role, _ := c.Locals("role").(string)
		for _, r := range roles {
			if session.ParseRole(role) == r {
				return c.Next()
			}
		}
		return fiber.NewError(http.StatusForbidden, "insufficient permissions")
	}
}

// SessionFrom rebuilds the caller's session from request locals.
func SessionFrom(c *fiber.Ctx) session.Session {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return session.Anonymous()
	}
	role, _ := c.Locals("role").(string)
	token, _ := c.Locals("token").(string)
	return session.NewSession(role, token, userID)
}

func bearerToken(c *fiber.Ctx) (string, bool) {
	authz := c.Get(fiber.HeaderAuthorization)
	if !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
		return "", false
	}
	token := strings.TrimSpace(authz[len("Bearer "):])
	return token, token != ""
}

func setClaims(c *fiber.Ctx, raw string, claims auth.Claims) {
	c.Locals("user_id", claims.UserID())
	c.Locals("role", claims.Role)
	c.Locals("token", raw)
	c.Locals("token_version", claims.Version)
}
