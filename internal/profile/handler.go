package profile

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/milkrun/storefront/internal/location"
)

// Handler exposes the customer's current location.
type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// UpdateCurrent handles PUT /api/customer/location/current.
func (h *Handler) UpdateCurrent(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	var req location.LocationUpdate
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	loc, err := h.service.UpdateCurrent(c.UserContext(), userID, req)
	if errors.Is(err, ErrInvalidLocation) {
		return fiber.NewError(http.StatusBadRequest, err.Error())
	}
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(loc)
}

// Current handles GET /api/customer/location/current.
func (h *Handler) Current(c *fiber.Ctx) error {
	userID, _ := c.Locals("user_id").(string)
	if userID == "" {
		return fiber.NewError(http.StatusUnauthorized, "unauthorized")
	}
	loc, err := h.service.Current(c.UserContext(), userID)
	if errors.Is(err, ErrLocationNotFound) {
		return fiber.NewError(http.StatusNotFound, err.Error())
	}
	if err != nil {
		return err
	}
	return c.Status(http.StatusOK).JSON(loc)
}
