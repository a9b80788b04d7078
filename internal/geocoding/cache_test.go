package geocoding

import (
	"context"
	"errors"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/milkrun/storefront/internal/location"
	"github.com/milkrun/storefront/internal/logging"
)

type countingGeocoder struct {
	reverse int
	details int
	err     error
}

func (g *countingGeocoder) ReverseGeocode(context.Context, location.Coordinates) (string, error) {
	g.reverse++
	return "Baner Road, Pune", g.err
}

func (g *countingGeocoder) Autocomplete(context.Context, location.AutocompleteRequest) ([]location.PlaceSuggestion, error) {
	return nil, g.err
}

func (g *countingGeocoder) PlaceDetails(_ context.Context, req location.DetailsRequest) (location.ResolvedLocation, error) {
	g.details++
	return location.ResolvedLocation{PlaceID: req.PlaceID, FormattedAddress: "Baner Road, Pune", Coordinates: location.Coordinates{Latitude: 18.56, Longitude: 73.78}}, g.err
}

func setupCache(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		cache.Close()
		mr.Close()
	})
	return mr, cache
}

func TestCachedGeocoderServesRepeatLookups(t *testing.T) {
	mr, cache := setupCache(t)
	next := &countingGeocoder{}
	g := NewCachedGeocoder(next, cache, time.Minute, logging.Discard())
	ctx := context.Background()

	at := location.Coordinates{Latitude: 18.559001, Longitude: 73.779002}
	for i := 0; i < 3; i++ {
		addr, err := g.ReverseGeocode(ctx, at)
		if err != nil {
			t.Fatalf("reverse: %v", err)
		}
		if addr != "Baner Road, Pune" {
			t.Fatalf("unexpected address %q", addr)
		}
	}
	if next.reverse != 1 {
		t.Fatalf("expected one provider call, got %d", next.reverse)
	}

	for i := 0; i < 2; i++ {
		loc, err := g.PlaceDetails(ctx, location.DetailsRequest{PlaceID: "baner"})
		if err != nil {
			t.Fatalf("details: %v", err)
		}
		if loc.Coordinates.Latitude != 18.56 {
			t.Fatalf("unexpected cached location %+v", loc)
		}
	}
	if next.details != 1 {
		t.Fatalf("expected one details call, got %d", next.details)
	}

	mr.FastForward(2 * time.Minute)
	if _, err := g.PlaceDetails(ctx, location.DetailsRequest{PlaceID: "baner"}); err != nil {
		t.Fatalf("details: %v", err)
	}
	if next.details != 2 {
		t.Fatalf("expected cache expiry to refetch, got %d calls", next.details)
	}
}

func TestCachedGeocoderDoesNotCacheFailures(t *testing.T) {
	_, cache := setupCache(t)
	next := &countingGeocoder{err: errors.New("ZERO_RESULTS")}
	g := NewCachedGeocoder(next, cache, time.Minute, logging.Discard())

	for i := 0; i < 2; i++ {
		if _, err := g.ReverseGeocode(context.Background(), location.Coordinates{Latitude: 1, Longitude: 1}); err == nil {
			t.Fatalf("expected error")
		}
	}
	if next.reverse != 2 {
		t.Fatalf("failures should not be cached, got %d calls", next.reverse)
	}
}

func TestCachedGeocoderFailsOpen(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	cache := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	defer cache.Close()
	next := &countingGeocoder{}
	g := NewCachedGeocoder(next, cache, time.Minute, logging.Discard())
	mr.Close()

	addr, err := g.ReverseGeocode(context.Background(), location.Coordinates{Latitude: 2, Longitude: 2})
	if err != nil {
		t.Fatalf("expected fail open, got %v", err)
	}
	if addr == "" || next.reverse != 1 {
		t.Fatalf("provider should have answered, calls=%d", next.reverse)
	}
}
