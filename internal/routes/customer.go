package routes

import (
	"github.com/gofiber/fiber/v2"

	"github.com/milkrun/storefront/internal/middleware"
	"github.com/milkrun/storefront/internal/profile"
	"github.com/milkrun/storefront/internal/session"
)

// RegisterCustomerRoutes wires endpoints restricted to customer accounts.
// Idempotency runs after authentication so replay keys are per user.
func RegisterCustomerRoutes(r fiber.Router, h *profile.Handler, jwtmw, idempotency fiber.Handler) {
	group := r.Group("/customer", jwtmw, middleware.RequireRole(session.RoleCustomer), idempotency)
	group.Put("/location/current", h.UpdateCurrent)
	group.Get("/location/current", h.Current)
}
