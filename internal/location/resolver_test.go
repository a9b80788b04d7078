package location

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/milkrun/storefront/internal/logging"
)

type fakeGeocoder struct {
	mu           sync.Mutex
	address      string
	reverseErr   error
	suggestions  []PlaceSuggestion
	searchErr    error
	details      ResolvedLocation
	detailsErr   error
	autocomplete []AutocompleteRequest
	detailsReqs  []DetailsRequest
	block        bool
}

func (g *fakeGeocoder) ReverseGeocode(ctx context.Context, _ Coordinates) (string, error) {
	if g.block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return g.address, g.reverseErr
}

func (g *fakeGeocoder) Autocomplete(_ context.Context, req AutocompleteRequest) ([]PlaceSuggestion, error) {
	g.mu.Lock()
	g.autocomplete = append(g.autocomplete, req)
	g.mu.Unlock()
	return g.suggestions, g.searchErr
}

func (g *fakeGeocoder) PlaceDetails(_ context.Context, req DetailsRequest) (ResolvedLocation, error) {
	g.mu.Lock()
	g.detailsReqs = append(g.detailsReqs, req)
	g.mu.Unlock()
	return g.details, g.detailsErr
}

type fakeProfile struct {
	token   string
	updates []LocationUpdate
	err     error
}

func (p *fakeProfile) UpdateCurrentLocation(_ context.Context, token string, update LocationUpdate) error {
	p.token = token
	p.updates = append(p.updates, update)
	return p.err
}

func fixAt(lat, lon float64) StaticDevice {
	return StaticDevice{Position: Position{Coordinates: Coordinates{Latitude: lat, Longitude: lon}, Accuracy: 5}}
}

func TestAcquireGPSPermissionDenied(t *testing.T) {
	geo := &fakeGeocoder{address: "unused"}
	r := NewResolver(StaticDevice{Denied: true}, geo, nil, logging.Discard())

	if _, err := r.AcquireGPS(context.Background()); !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}

	loc, err := r.ResolveWithFallback(context.Background())
	if !errors.Is(err, ErrPermissionDenied) {
		t.Fatalf("expected permission denied, got %v", err)
	}
	if loc.FormattedAddress != "" {
		t.Fatalf("no address expected, got %q", loc.FormattedAddress)
	}
}

func TestAcquireGPSPositionError(t *testing.T) {
	r := NewResolver(StaticDevice{Err: errors.New("no satellites")}, &fakeGeocoder{}, nil, logging.Discard())
	if _, err := r.AcquireGPS(context.Background()); !errors.Is(err, ErrPositionUnavailable) {
		t.Fatalf("expected position unavailable, got %v", err)
	}
}

func TestResolveWithFallbackUsesGeocodedAddress(t *testing.T) {
	geo := &fakeGeocoder{address: "12 Dairy Lane, Pune"}
	r := NewResolver(fixAt(18.52, 73.85), geo, nil, logging.Discard())

	loc, err := r.ResolveWithFallback(context.Background())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if loc.FormattedAddress != "12 Dairy Lane, Pune" {
		t.Fatalf("unexpected address %q", loc.FormattedAddress)
	}
	if loc.Accuracy == nil || *loc.Accuracy != 5 {
		t.Fatalf("expected accuracy 5, got %v", loc.Accuracy)
	}
}

func TestResolveWithFallbackOnGeocodeFailure(t *testing.T) {
	geo := &fakeGeocoder{reverseErr: errors.New("status REQUEST_DENIED")}
	r := NewResolver(fixAt(18.5204, 73.8567), geo, nil, logging.Discard())

	loc, err := r.ResolveWithFallback(context.Background())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if loc.FormattedAddress != "Near 18.5204, 73.8567" {
		t.Fatalf("unexpected fallback %q", loc.FormattedAddress)
	}
	if loc.Coordinates.Latitude != 18.5204 || loc.Coordinates.Longitude != 73.8567 {
		t.Fatalf("unexpected coordinates %+v", loc.Coordinates)
	}
}

func TestResolveWithFallbackOnGeocodeTimeout(t *testing.T) {
	geo := &fakeGeocoder{block: true}
	r := NewResolver(fixAt(-33.9, 18.42), geo, nil, logging.Discard(), WithTimeout(20*time.Millisecond))

	if _, err := r.ReverseGeocode(context.Background(), -33.9, 18.42); !errors.Is(err, ErrGeocodeFailed) {
		t.Fatalf("expected geocode failure on timeout, got %v", err)
	}
	loc, err := r.ResolveWithFallback(context.Background())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if loc.FormattedAddress != FallbackAddress(-33.9, 18.42) {
		t.Fatalf("unexpected address %q", loc.FormattedAddress)
	}
}

func TestAttemptTransitions(t *testing.T) {
	r := NewResolver(fixAt(1, 2), &fakeGeocoder{reverseErr: errors.New("boom")}, nil, logging.Discard())

	var path []State
	a := r.NewAttempt(func(_, to State) { path = append(path, to) })
	if a.State() != StateIdle {
		t.Fatalf("expected idle, got %s", a.State())
	}
	if _, err := a.Run(context.Background()); err != nil {
		t.Fatalf("run: %v", err)
	}
	want := []State{StateAcquiringGPS, StateGeocoding, StateResolved}
	if len(path) != len(want) {
		t.Fatalf("unexpected path %v", path)
	}
	for i := range want {
		if path[i] != want[i] {
			t.Fatalf("unexpected path %v", path)
		}
	}
	if _, err := a.Run(context.Background()); !errors.Is(err, ErrAttemptUsed) {
		t.Fatalf("expected used attempt error, got %v", err)
	}

	denied := NewResolver(StaticDevice{Denied: true}, nil, nil, logging.Discard()).NewAttempt(nil)
	if _, err := denied.Run(context.Background()); err == nil {
		t.Fatalf("expected failure")
	}
	if denied.State() != StateGPSFailed {
		t.Fatalf("expected gps-failed, got %s", denied.State())
	}
}

func TestSearchPlacesShortQuerySkipsProvider(t *testing.T) {
	geo := &fakeGeocoder{suggestions: []PlaceSuggestion{{PlaceID: "x"}}}
	r := NewResolver(nil, geo, nil, logging.Discard())

	for _, q := range []string{"", "a", " a "} {
		got, err := r.SearchPlaces(context.Background(), q, nil, "")
		if err != nil {
			t.Fatalf("search %q: %v", q, err)
		}
		if len(got) != 0 {
			t.Fatalf("expected no suggestions for %q", q)
		}
	}
	if len(geo.autocomplete) != 0 {
		t.Fatalf("provider called %d times", len(geo.autocomplete))
	}
}

func TestSearchPlacesPreservesOrderAndBias(t *testing.T) {
	geo := &fakeGeocoder{suggestions: []PlaceSuggestion{
		{PlaceID: "b", Description: "Baner"},
		{PlaceID: "a", Description: "Aundh"},
	}}
	r := NewResolver(nil, geo, nil, logging.Discard())

	bias := &Coordinates{Latitude: 18.5, Longitude: 73.8}
	got, err := r.SearchPlaces(context.Background(), "  ba ", bias, "sess-1")
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 2 || got[0].PlaceID != "b" || got[1].PlaceID != "a" {
		t.Fatalf("order not preserved: %+v", got)
	}
	req := geo.autocomplete[0]
	if req.Input != "ba" || req.Bias == nil || req.RadiusMeters != SearchBiasRadiusMeters || req.SessionToken != "sess-1" {
		t.Fatalf("unexpected request %+v", req)
	}

	if _, err := r.SearchPlaces(context.Background(), "milk", nil, ""); err != nil {
		t.Fatalf("search: %v", err)
	}
	if req := geo.autocomplete[1]; req.Bias != nil || req.RadiusMeters != 0 || req.SessionToken != "" {
		t.Fatalf("unbiased search should not carry a radius: %+v", req)
	}
}

func TestResolvePlaceDetailsFailure(t *testing.T) {
	geo := &fakeGeocoder{detailsErr: errors.New("NOT_FOUND")}
	r := NewResolver(nil, geo, nil, logging.Discard())
	if _, err := r.ResolvePlaceDetails(context.Background(), "abc", ""); !errors.Is(err, ErrDetailsLookupFailed) {
		t.Fatalf("expected details failure, got %v", err)
	}

	geo.detailsErr = nil
	geo.details = ResolvedLocation{Coordinates: Coordinates{Latitude: 1, Longitude: 2}, FormattedAddress: "Somewhere"}
	loc, err := r.ResolvePlaceDetails(context.Background(), "abc", "sess-2")
	if err != nil {
		t.Fatalf("details: %v", err)
	}
	if last := geo.detailsReqs[len(geo.detailsReqs)-1]; last.PlaceID != "abc" || last.SessionToken != "sess-2" {
		t.Fatalf("unexpected details request %+v", last)
	}
	if loc.PlaceID != "abc" || loc.FormattedAddress != "Somewhere" {
		t.Fatalf("unexpected location %+v", loc)
	}
}

func TestSyncToBackend(t *testing.T) {
	profile := &fakeProfile{}
	r := NewResolver(nil, nil, profile, logging.Discard())
	loc := ResolvedLocation{Coordinates: Coordinates{Latitude: 10, Longitude: 20}, FormattedAddress: "Home"}

	if err := r.SyncToBackend(context.Background(), "tok", loc); err != nil {
		t.Fatalf("sync: %v", err)
	}
	if profile.token != "tok" || len(profile.updates) != 1 {
		t.Fatalf("unexpected profile calls %+v", profile)
	}
	if u := profile.updates[0]; u.Latitude != 10 || u.Longitude != 20 || u.FormattedAddress != "Home" {
		t.Fatalf("unexpected update %+v", u)
	}

	profile.err = errors.New("502 bad gateway")
	if err := <-r.SyncInBackground("tok", loc); !errors.Is(err, ErrSyncFailed) {
		t.Fatalf("expected sync failure, got %v", err)
	}
	if err := r.SyncToBackend(context.Background(), "", loc); !errors.Is(err, ErrSyncFailed) {
		t.Fatalf("expected sync failure without token, got %v", err)
	}
}
