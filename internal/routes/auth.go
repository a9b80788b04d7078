package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/milkrun/storefront/internal/auth"
	"github.com/milkrun/storefront/internal/identity"
)

// RegisterAuthRoutes wires signup, login, logout and the current account.
func RegisterAuthRoutes(r fiber.Router, h *auth.Handler, ids *identity.Handler, jwtmw, rateLimiter fiber.Handler) {
	group := r.Group("/auth")
	group.Post("/signup", h.Signup)
	if rateLimiter != nil {
		group.Post("/login", rateLimiter, h.Login)
	} else {
		group.Post("/login", h.Login)
	}
	group.Post("/logout", jwtmw, h.Logout)
	group.Get("/me", jwtmw, ids.Me)
}
