package geocoding

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/milkrun/storefront/internal/location"
)

const (
	cachePrefix     = "geocode:v1:"
	DefaultCacheTTL = 24 * time.Hour
)

// CachedGeocoder memoizes reverse geocodes and place details in Redis.
// Autocomplete is passed through; predictions are per keystroke. Details are
// keyed by place id alone, so a hit skips the provider and the caller's
// session token with it. Cache failures fail open.
type CachedGeocoder struct {
	next   location.Geocoder
	cache  *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedGeocoder wraps next. A nil cache disables caching.
func NewCachedGeocoder(next location.Geocoder, cache *redis.Client, ttl time.Duration, logger *slog.Logger) *CachedGeocoder {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedGeocoder{next: next, cache: cache, ttl: ttl, logger: logger}
}

func (g *CachedGeocoder) Autocomplete(ctx context.Context, req location.AutocompleteRequest) ([]location.PlaceSuggestion, error) {
	return g.next.Autocomplete(ctx, req)
}

func (g *CachedGeocoder) ReverseGeocode(ctx context.Context, at location.Coordinates) (string, error) {
	// ~1 m grid so jitter between fixes still hits.
	key := fmt.Sprintf("%srev:%.5f,%.5f", cachePrefix, at.Latitude, at.Longitude)

	var addr string
	if g.lookup(ctx, key, &addr) {
		return addr, nil
	}
	addr, err := g.next.ReverseGeocode(ctx, at)
	if err != nil {
		return "", err
	}
	g.store(ctx, key, addr)
	return addr, nil
}

func (g *CachedGeocoder) PlaceDetails(ctx context.Context, req location.DetailsRequest) (location.ResolvedLocation, error) {
	key := cachePrefix + "place:" + req.PlaceID

	var loc location.ResolvedLocation
	if g.lookup(ctx, key, &loc) {
		return loc, nil
	}
	loc, err := g.next.PlaceDetails(ctx, req)
	if err != nil {
		return location.ResolvedLocation{}, err
	}
	g.store(ctx, key, loc)
	return loc, nil
}

func (g *CachedGeocoder) lookup(ctx context.Context, key string, out any) bool {
	if g.cache == nil {
		return false
	}
	raw, err := g.cache.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			g.warn("geocode cache lookup failed", key, err)
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		g.warn("geocode cache entry unreadable", key, err)
		return false
	}
	return true
}

func (g *CachedGeocoder) store(ctx context.Context, key string, value any) {
	if g.cache == nil {
		return
	}
	payload, err := json.Marshal(value)
	if err != nil {
		g.warn("geocode cache encode failed", key, err)
		return
	}
	if err := g.cache.Set(ctx, key, payload, g.ttl).Err(); err != nil {
		g.warn("geocode cache store failed", key, err)
	}
}

func (g *CachedGeocoder) warn(msg, key string, err error) {
	if g.logger != nil {
		g.logger.Warn(msg, slog.String("key", key), slog.Any("error", err))
	}
}

var _ location.Geocoder = (*CachedGeocoder)(nil)
