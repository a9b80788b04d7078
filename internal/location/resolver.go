package location

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	// MinQueryLength is the shortest query sent to the provider.
	MinQueryLength = 2
	// SearchBiasRadiusMeters bounds the bias circle around the user.
	SearchBiasRadiusMeters = 50_000
	// DefaultTimeout bounds every GPS and network call.
	DefaultTimeout = 12 * time.Second
)

// Resolver produces ResolvedLocations from GPS or from place search and
// pushes them to the backend profile.
type Resolver struct {
	device   Device
	geocoder Geocoder
	profile  ProfileUpdater
	logger   *slog.Logger
	timeout  time.Duration
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// NewResolver wires a resolver. profile may be nil when nothing is synced.
func NewResolver(device Device, geocoder Geocoder, profile ProfileUpdater, logger *slog.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		device:   device,
		geocoder: geocoder,
		profile:  profile,
		logger:   logger,
		timeout:  DefaultTimeout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resolver) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// AcquireGPS asks for permission and reads a highest-accuracy fix.
func (r *Resolver) AcquireGPS(ctx context.Context) (Position, error) {
	if r.device == nil {
		return Position{}, ErrPermissionDenied
	}
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	perm, err := r.device.RequestPermission(ctx)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %w", ErrPermissionDenied, err)
	}
	if perm != PermissionGranted {
		return Position{}, ErrPermissionDenied
	}

	pos, err := r.device.CurrentPosition(ctx, AccuracyHighest)
	if err != nil {
		return Position{}, fmt.Errorf("%w: %w", ErrPositionUnavailable, err)
	}
	return pos, nil
}

// ReverseGeocode converts coordinates to a formatted address.
func (r *Resolver) ReverseGeocode(ctx context.Context, lat, lon float64) (string, error) {
	if r.geocoder == nil {
		return "", ErrGeocodeFailed
	}
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	addr, err := r.geocoder.ReverseGeocode(ctx, Coordinates{Latitude: lat, Longitude: lon})
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrGeocodeFailed, err)
	}
	if strings.TrimSpace(addr) == "" {
		return "", fmt.Errorf("%w: empty address", ErrGeocodeFailed)
	}
	return addr, nil
}

// FallbackAddress is used when reverse geocoding fails.
func FallbackAddress(lat, lon float64) string {
	return "Near " + strconv.FormatFloat(lat, 'f', -1, 64) + ", " + strconv.FormatFloat(lon, 'f', -1, 64)
}

// ResolveWithFallback runs one resolution attempt. It only fails when GPS
// acquisition fails.
func (r *Resolver) ResolveWithFallback(ctx context.Context) (ResolvedLocation, error) {
	return r.NewAttempt(nil).Run(ctx)
}

// SearchPlaces queries the autocomplete provider. Queries shorter than
// MinQueryLength return no suggestions without a provider call. Callers are
// expected to debounce; see SuggestionFeed. sessionToken may be empty.
func (r *Resolver) SearchPlaces(ctx context.Context, query string, bias *Coordinates, sessionToken string) ([]PlaceSuggestion, error) {
	query = strings.TrimSpace(query)
	if utf8.RuneCountInString(query) < MinQueryLength {
		return nil, nil
	}
	if r.geocoder == nil {
		return nil, ErrSearchFailed
	}
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	req := AutocompleteRequest{Input: query, SessionToken: sessionToken}
	if bias != nil {
		b := *bias
		req.Bias = &b
		req.RadiusMeters = SearchBiasRadiusMeters
	}
	suggestions, err := r.geocoder.Autocomplete(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSearchFailed, err)
	}
	return suggestions, nil
}

// ResolvePlaceDetails turns a selected suggestion into a ResolvedLocation.
// sessionToken is the token the suggestion was searched under, if any.
func (r *Resolver) ResolvePlaceDetails(ctx context.Context, placeID, sessionToken string) (ResolvedLocation, error) {
	if strings.TrimSpace(placeID) == "" {
		return ResolvedLocation{}, fmt.Errorf("%w: place id is required", ErrDetailsLookupFailed)
	}
	if r.geocoder == nil {
		return ResolvedLocation{}, ErrDetailsLookupFailed
	}
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	loc, err := r.geocoder.PlaceDetails(ctx, DetailsRequest{PlaceID: placeID, SessionToken: sessionToken})
	if err != nil {
		return ResolvedLocation{}, fmt.Errorf("%w: %w", ErrDetailsLookupFailed, err)
	}
	if loc.PlaceID == "" {
		loc.PlaceID = placeID
	}
	return loc, nil
}

// SyncToBackend pushes loc to the profile endpoint. Failures are logged and
// returned wrapped in ErrSyncFailed; callers are free to ignore them.
func (r *Resolver) SyncToBackend(ctx context.Context, token string, loc ResolvedLocation) error {
	if r.profile == nil {
		return nil
	}
	if token == "" {
		err := fmt.Errorf("%w: missing token", ErrSyncFailed)
		r.logSyncFailure(err)
		return err
	}
	ctx, cancel := r.bounded(ctx)
	defer cancel()

	err := r.profile.UpdateCurrentLocation(ctx, token, LocationUpdate{
		Latitude:         loc.Coordinates.Latitude,
		Longitude:        loc.Coordinates.Longitude,
		FormattedAddress: loc.FormattedAddress,
	})
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrSyncFailed, err)
		r.logSyncFailure(err)
		return err
	}
	return nil
}

// SyncInBackground runs SyncToBackend without blocking the caller. The
// returned channel receives the outcome and may be ignored.
func (r *Resolver) SyncInBackground(token string, loc ResolvedLocation) <-chan error {
	done := make(chan error, 1)
	go func() {
		done <- r.SyncToBackend(context.Background(), token, loc)
	}()
	return done
}

func (r *Resolver) logSyncFailure(err error) {
	if r.logger == nil {
		return
	}
	attrs := []any{slog.Any("error", err)}
	if errors.Is(err, context.DeadlineExceeded) {
		attrs = append(attrs, slog.Duration("timeout", r.timeout))
	}
	r.logger.Warn("location sync failed", attrs...)
}
