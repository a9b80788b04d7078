package location

import (
	"context"
	"errors"
)

var (
	// ErrPermissionDenied means the user refused (or could not be asked for)
	// location access. Callers fall back to manual address entry.
	ErrPermissionDenied = errors.New("location permission denied")

	// ErrPositionUnavailable means permission was granted but no fix arrived.
	ErrPositionUnavailable = errors.New("position unavailable")

	// ErrGeocodeFailed is absorbed by ResolveWithFallback.
	ErrGeocodeFailed = errors.New("reverse geocode failed")

	ErrSearchFailed = errors.New("place search failed")

	// ErrDetailsLookupFailed is surfaced to the user without retry.
	ErrDetailsLookupFailed = errors.New("place details lookup failed")

	// ErrSyncFailed is logged and otherwise ignored.
	ErrSyncFailed = errors.New("location sync failed")
)

// Coordinates is a WGS84 point.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Position is a raw device fix. Accuracy is the radius in meters.
type Position struct {
	Coordinates
	Accuracy float64 `json:"accuracy"`
}

// ResolvedLocation is a coordinate pair with a human readable address.
// Accuracy is set for GPS fixes, PlaceID for selected suggestions.
type ResolvedLocation struct {
	Coordinates      Coordinates `json:"coordinates"`
	FormattedAddress string      `json:"formattedAddress"`
	Accuracy         *float64    `json:"accuracy,omitempty"`
	PlaceID          string      `json:"placeId,omitempty"`
}

// PlaceSuggestion is one autocomplete prediction.
type PlaceSuggestion struct {
	PlaceID       string `json:"placeId"`
	Description   string `json:"description"`
	MainText      string `json:"mainText"`
	SecondaryText string `json:"secondaryText"`
}

// AutocompleteRequest is a free-text place query, optionally biased toward
// a point. SessionToken groups the keystrokes of one search; empty means
// none.
type AutocompleteRequest struct {
	Input        string
	Bias         *Coordinates
	RadiusMeters int
	SessionToken string
}

// DetailsRequest looks up a selected place. SessionToken closes the search
// session the place was picked from.
type DetailsRequest struct {
	PlaceID      string
	SessionToken string
}

// LocationUpdate is the body pushed to the profile endpoint.
type LocationUpdate struct {
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
	FormattedAddress string  `json:"formattedAddress"`
}

// Permission is the outcome of a location permission request.
type Permission int

const (
	PermissionDenied Permission = iota
	PermissionGranted
)

// Accuracy selects the device's positioning mode.
type Accuracy int

const (
	AccuracyBalanced Accuracy = iota
	AccuracyHighest
)

// Device is the device location provider.
type Device interface {
	RequestPermission(ctx context.Context) (Permission, error)
	CurrentPosition(ctx context.Context, accuracy Accuracy) (Position, error)
}

// Geocoder resolves between coordinates, free text and place ids.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, at Coordinates) (string, error)
	Autocomplete(ctx context.Context, req AutocompleteRequest) ([]PlaceSuggestion, error)
	PlaceDetails(ctx context.Context, req DetailsRequest) (ResolvedLocation, error)
}

// ProfileUpdater pushes a resolved location to the user's remote profile.
type ProfileUpdater interface {
	UpdateCurrentLocation(ctx context.Context, token string, update LocationUpdate) error
}
