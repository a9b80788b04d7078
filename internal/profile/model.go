package profile

import (
	"errors"
	"time"
)

var (
	ErrInvalidLocation  = errors.New("invalid location")
	ErrLocationNotFound = errors.New("no current location")
)

// CurrentLocation is the delivery location a customer last confirmed.
type CurrentLocation struct {
	UserID           string    `json:"-"`
	Latitude         float64   `json:"latitude"`
	Longitude        float64   `json:"longitude"`
	FormattedAddress string    `json:"formattedAddress"`
	UpdatedAt        time.Time `json:"updatedAt"`
}
