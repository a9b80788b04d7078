package profile

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/milkrun/storefront/internal/location"
)

// Service validates and stores customer locations.
type Service struct {
	repo Repository
	now  func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, now: time.Now}
}

// UpdateCurrent replaces the user's current location.
func (s *Service) UpdateCurrent(ctx context.Context, userID string, update location.LocationUpdate) (CurrentLocation, error) {
	if err := validate(update); err != nil {
		return CurrentLocation{}, err
	}
	loc := CurrentLocation{
		UserID:           userID,
		Latitude:         update.Latitude,
		Longitude:        update.Longitude,
		FormattedAddress: strings.TrimSpace(update.FormattedAddress),
		UpdatedAt:        s.now().UTC(),
	}
	if err := s.repo.Upsert(ctx, loc); err != nil {
		return CurrentLocation{}, err
	}
	return loc, nil
}

// Current returns the user's last stored location.
func (s *Service) Current(ctx context.Context, userID string) (CurrentLocation, error) {
	return s.repo.Get(ctx, userID)
}

func validate(u location.LocationUpdate) error {
	switch {
	case math.IsNaN(u.Latitude) || u.Latitude < -90 || u.Latitude > 90:
		return fmt.Errorf("%w: latitude must be within [-90, 90]", ErrInvalidLocation)
	case math.IsNaN(u.Longitude) || u.Longitude < -180 || u.Longitude > 180:
		return fmt.Errorf("%w: longitude must be within [-180, 180]", ErrInvalidLocation)
	case strings.TrimSpace(u.FormattedAddress) == "":
		return fmt.Errorf("%w: formattedAddress is required", ErrInvalidLocation)
	}
	return nil
}
