package routes

import (
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/milkrun/storefront/internal/location"
)

// RegisterPlaceRoutes proxies place search and geocoding so the provider key
// stays on the server. Callers identify through optionalJWT and are throttled
// by limit.
func RegisterPlaceRoutes(r fiber.Router, places *location.Resolver, optionalJWT, limit fiber.Handler) {
	group := r.Group("/places", optionalJWT, limit)

	group.Get("/autocomplete", func(c *fiber.Ctx) error {
		bias, err := optionalCoordinates(c)
		if err != nil {
			return err
		}
		suggestions, err := places.SearchPlaces(c.UserContext(), c.Query("input"), bias, c.Query("sessionToken"))
		if err != nil {
			return fiber.NewError(http.StatusBadGateway, err.Error())
		}
		if suggestions == nil {
			suggestions = []location.PlaceSuggestion{}
		}
		return c.JSON(fiber.Map{"predictions": suggestions})
	})

	group.Get("/details/:placeId", func(c *fiber.Ctx) error {
		loc, err := places.ResolvePlaceDetails(c.UserContext(), c.Params("placeId"), c.Query("sessionToken"))
		if err != nil {
			return fiber.NewError(http.StatusBadGateway, err.Error())
		}
		return c.JSON(loc)
	})

	group.Get("/reverse", func(c *fiber.Ctx) error {
		at, err := optionalCoordinates(c)
		if err != nil {
			return err
		}
		if at == nil {
			return fiber.NewError(http.StatusBadRequest, "lat and lng are required")
		}
		address, err := places.ReverseGeocode(c.UserContext(), at.Latitude, at.Longitude)
		if errors.Is(err, location.ErrGeocodeFailed) {
			address = location.FallbackAddress(at.Latitude, at.Longitude)
		} else if err != nil {
			return fiber.NewError(http.StatusBadGateway, err.Error())
		}
		return c.JSON(location.ResolvedLocation{Coordinates: *at, FormattedAddress: address})
	})
}

// optionalCoordinates reads lat/lng query parameters. Both or neither must
// be present, and both must be finite and in range.
func optionalCoordinates(c *fiber.Ctx) (*location.Coordinates, error) {
	latRaw, lngRaw := c.Query("lat"), c.Query("lng")
	if latRaw == "" && lngRaw == "" {
		return nil, nil
	}
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil || math.IsNaN(lat) || lat < -90 || lat > 90 {
		return nil, fiber.NewError(http.StatusBadRequest, "invalid lat")
	}
	lng, err := strconv.ParseFloat(lngRaw, 64)
	if err != nil || math.IsNaN(lng) || lng < -180 || lng > 180 {
		return nil, fiber.NewError(http.StatusBadRequest, "invalid lng")
	}
	return &location.Coordinates{Latitude: lat, Longitude: lng}, nil
}
