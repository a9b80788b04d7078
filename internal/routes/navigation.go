package routes

import (
	"log/slog"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/milkrun/storefront/internal/middleware"
	"github.com/milkrun/storefront/internal/navigation"
	"github.com/milkrun/storefront/internal/session"
)

type resolveRequest struct {
	Route   string `json:"route"`
	Loading bool   `json:"loading"`
}

// RegisterNavigationRoutes exposes the route guard decision so thin clients
// can ask where a session belongs.
func RegisterNavigationRoutes(r fiber.Router, optionalJWT fiber.Handler, logger *slog.Logger) {
	r.Post("/navigation/resolve", optionalJWT, func(c *fiber.Ctx) error {
		var req resolveRequest
		if err := c.BodyParser(&req); err != nil {
			return fiber.NewError(http.StatusBadRequest, err.Error())
		}
		state := session.State{Loading: req.Loading, Session: middleware.SessionFrom(c)}
		decision := navigation.Decide(state, navigation.ParseRoute(req.Route))
		if decision.ShouldRedirect {
			logger.Debug("navigation redirect",
				slog.String("route", req.Route),
				slog.String("target", decision.Target),
				slog.Bool("authenticated", state.Session.Authenticated))
		}
		return c.JSON(decision)
	})
}
