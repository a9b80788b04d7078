package routes

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"

	"github.com/milkrun/storefront/internal/config"
	"github.com/milkrun/storefront/internal/identity"
	"github.com/milkrun/storefront/internal/location"
	"github.com/milkrun/storefront/internal/logging"
	"github.com/milkrun/storefront/internal/navigation"
)

type fakeGeocoder struct {
	autocompleteCalls int
	sessionTokens     []string
}

func (f *fakeGeocoder) ReverseGeocode(_ context.Context, at location.Coordinates) (string, error) {
	if at.Latitude == 0 && at.Longitude == 0 {
		return "", errors.New("ZERO_RESULTS")
	}
	return "FC Road, Pune", nil
}

func (f *fakeGeocoder) Autocomplete(_ context.Context, req location.AutocompleteRequest) ([]location.PlaceSuggestion, error) {
	f.autocompleteCalls++
	f.sessionTokens = append(f.sessionTokens, req.SessionToken)
	return []location.PlaceSuggestion{{PlaceID: "p1", Description: req.Input + " Market, Pune", MainText: req.Input + " Market"}}, nil
}

func (f *fakeGeocoder) PlaceDetails(_ context.Context, req location.DetailsRequest) (location.ResolvedLocation, error) {
	f.sessionTokens = append(f.sessionTokens, req.SessionToken)
	return location.ResolvedLocation{
		Coordinates:      location.Coordinates{Latitude: 18.5167, Longitude: 73.8563},
		FormattedAddress: "Shivaji Nagar, Pune",
		PlaceID:          req.PlaceID,
	}, nil
}

type testEnv struct {
	app      *fiber.App
	geocoder *fakeGeocoder
}

func setupTestEnv(t *testing.T) testEnv {
	t.Helper()
	return setupTestEnvWith(t, nil)
}

func setupTestEnvWith(t *testing.T, tweak func(*config.Config)) testEnv {
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

	users := identity.NewMemoryRepository()
	ids := identity.NewService(users)
	if _, err := ids.Seed(context.Background(), []identity.SeedUser{
		{Name: "Store Admin", Email: "admin@milkrun.test", Password: "admin-password", Role: "admin"},
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	geo := &fakeGeocoder{}
	cfg := config.Config{AppName: "MilkRun", AppEnv: "test", JWTSecret: "test-secret", LoginPerMinute: 5}
	if tweak != nil {
		tweak(&cfg)
	}
	app := fiber.New()
	if err := Setup(app, Deps{Cfg: cfg, Cache: cache, Logger: logging.Discard(), Geocoder: geo, Identity: ids, Users: users}); err != nil {
		t.Fatalf("setup: %v", err)
	}
	return testEnv{app: app, geocoder: geo}
}

func (e testEnv) do(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		reader = strings.NewReader(string(raw))
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := e.app.Test(req, -1)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

type sessionBody struct {
	Token string `json:"token"`
	User  struct {
		ID   string `json:"id"`
		Role string `json:"role"`
	} `json:"user"`
}

func TestCustomerSignupAndLocationRoundTrip(t *testing.T) {
	env := setupTestEnv(t)

	var signup sessionBody
	status := env.do(t, fiber.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Asha", "email": "asha@example.com", "password": "milk-and-bread",
	}, &signup)
	if status != fiber.StatusCreated || signup.Token == "" || signup.User.Role != "customer" {
		t.Fatalf("signup: status=%d body=%+v", status, signup)
	}

	if got := env.do(t, fiber.MethodGet, "/api/customer/location/current", signup.Token, nil, nil); got != fiber.StatusNotFound {
		t.Fatalf("expected 404 before any update, got %d", got)
	}

	update := location.LocationUpdate{Latitude: 18.5204, Longitude: 73.8567, FormattedAddress: "FC Road, Pune"}
	if got := env.do(t, fiber.MethodPut, "/api/customer/location/current", signup.Token, update, nil); got != fiber.StatusOK {
		t.Fatalf("update: %d", got)
	}
	bad := location.LocationUpdate{Latitude: 95, Longitude: 73.8567, FormattedAddress: "nowhere"}
	if got := env.do(t, fiber.MethodPut, "/api/customer/location/current", signup.Token, bad, nil); got != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for out-of-range latitude, got %d", got)
	}

	var current location.LocationUpdate
	if got := env.do(t, fiber.MethodGet, "/api/customer/location/current", signup.Token, nil, &current); got != fiber.StatusOK {
		t.Fatalf("current: %d", got)
	}
	if current != update {
		t.Fatalf("expected %+v got %+v", update, current)
	}

	if got := env.do(t, fiber.MethodPost, "/api/auth/logout", signup.Token, nil, nil); got != fiber.StatusOK {
		t.Fatalf("logout: %d", got)
	}
	if got := env.do(t, fiber.MethodGet, "/api/auth/me", signup.Token, nil, nil); got != fiber.StatusUnauthorized {
		t.Fatalf("expected revoked token after logout, got %d", got)
	}
}

func TestStaffCannotWriteCustomerLocation(t *testing.T) {
	env := setupTestEnv(t)

	var login sessionBody
	status := env.do(t, fiber.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "admin@milkrun.test", "password": "admin-password",
	}, &login)
	if status != fiber.StatusOK || login.User.Role != "admin" {
		t.Fatalf("login: status=%d body=%+v", status, login)
	}

	update := location.LocationUpdate{Latitude: 1, Longitude: 1, FormattedAddress: "x"}
	if got := env.do(t, fiber.MethodPut, "/api/customer/location/current", login.Token, update, nil); got != fiber.StatusForbidden {
		t.Fatalf("expected 403 for admin, got %d", got)
	}
	if got := env.do(t, fiber.MethodPut, "/api/customer/location/current", "", update, nil); got != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", got)
	}

	if got := env.do(t, fiber.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "admin@milkrun.test", "password": "wrong",
	}, nil); got != fiber.StatusUnauthorized {
		t.Fatalf("expected 401 for bad password, got %d", got)
	}
}

func TestNavigationResolve(t *testing.T) {
	env := setupTestEnv(t)

	var anon navigation.Decision
	env.do(t, fiber.MethodPost, "/api/navigation/resolve", "", map[string]any{"route": "/(tabs)/home"}, &anon)
	if !anon.ShouldRedirect || anon.Target != navigation.LoginPath {
		t.Fatalf("anonymous customer route should go to login, got %+v", anon)
	}

	var login sessionBody
	env.do(t, fiber.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "admin@milkrun.test", "password": "admin-password",
	}, &login)

	var admin navigation.Decision
	env.do(t, fiber.MethodPost, "/api/navigation/resolve", login.Token, map[string]any{"route": "/(tabs)"}, &admin)
	if !admin.ShouldRedirect || admin.Target != navigation.AdminHome {
		t.Fatalf("admin on customer area should go home, got %+v", admin)
	}

	var loading navigation.Decision
	env.do(t, fiber.MethodPost, "/api/navigation/resolve", login.Token, map[string]any{"route": "/(tabs)", "loading": true}, &loading)
	if loading.Resolved || loading.ShouldRedirect {
		t.Fatalf("loading state should not decide, got %+v", loading)
	}
}

func TestPlacesProxy(t *testing.T) {
	env := setupTestEnv(t)

	var short struct {
		Predictions []location.PlaceSuggestion `json:"predictions"`
	}
	env.do(t, fiber.MethodGet, "/api/places/autocomplete?input=a", "", nil, &short)
	if len(short.Predictions) != 0 || env.geocoder.autocompleteCalls != 0 {
		t.Fatalf("single character should not reach the provider")
	}

	var found struct {
		Predictions []location.PlaceSuggestion `json:"predictions"`
	}
	env.do(t, fiber.MethodGet, "/api/places/autocomplete?input=Deccan&lat=18.5&lng=73.8&sessionToken=s1", "", nil, &found)
	if len(found.Predictions) != 1 || found.Predictions[0].PlaceID != "p1" {
		t.Fatalf("unexpected predictions %+v", found.Predictions)
	}

	var details location.ResolvedLocation
	env.do(t, fiber.MethodGet, "/api/places/details/p1?sessionToken=s1", "", nil, &details)
	if details.FormattedAddress != "Shivaji Nagar, Pune" || details.PlaceID != "p1" {
		t.Fatalf("unexpected details %+v", details)
	}
	if tokens := env.geocoder.sessionTokens; len(tokens) != 2 || tokens[0] != "s1" || tokens[1] != "s1" {
		t.Fatalf("session token not passed through: %v", tokens)
	}

	var fallback location.ResolvedLocation
	env.do(t, fiber.MethodGet, "/api/places/reverse?lat=0&lng=0", "", nil, &fallback)
	if fallback.FormattedAddress != "Near 0, 0" {
		t.Fatalf("expected fallback address, got %q", fallback.FormattedAddress)
	}

	for _, q := range []string{"lat=100&lng=0", "lat=NaN&lng=0", "lat=0&lng=nan", "lat=0", "lat=x&lng=1"} {
		if got := env.do(t, fiber.MethodGet, "/api/places/reverse?"+q, "", nil, nil); got != fiber.StatusBadRequest {
			t.Fatalf("expected 400 for %s, got %d", q, got)
		}
	}
	if got := env.do(t, fiber.MethodGet, "/api/places/autocomplete?input=Deccan&lat=NaN&lng=NaN", "", nil, nil); got != fiber.StatusBadRequest {
		t.Fatalf("expected 400 for NaN bias, got %d", got)
	}
}

func TestPlacesRateLimitedPerCaller(t *testing.T) {
	env := setupTestEnvWith(t, func(cfg *config.Config) { cfg.PlacesPerMinute = 2 })

	for i := 0; i < 2; i++ {
		if got := env.do(t, fiber.MethodGet, "/api/places/autocomplete?input=Deccan", "", nil, nil); got != fiber.StatusOK {
			t.Fatalf("anonymous lookup %d: %d", i, got)
		}
	}
	if got := env.do(t, fiber.MethodGet, "/api/places/autocomplete?input=Deccan", "", nil, nil); got != fiber.StatusTooManyRequests {
		t.Fatalf("expected 429 once the anonymous budget is spent, got %d", got)
	}

	var signup sessionBody
	env.do(t, fiber.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Ravi", "email": "ravi@example.com", "password": "milk-and-bread",
	}, &signup)
	if got := env.do(t, fiber.MethodGet, "/api/places/details/p1", signup.Token, nil, nil); got != fiber.StatusOK {
		t.Fatalf("signed-in customer should have a separate budget, got %d", got)
	}
	if env.geocoder.autocompleteCalls != 2 {
		t.Fatalf("throttled request reached the provider: %d calls", env.geocoder.autocompleteCalls)
	}
}

func TestHealthWithoutDatabase(t *testing.T) {
	env := setupTestEnv(t)
	var body struct {
		Status map[string]string `json:"status"`
	}
	if got := env.do(t, fiber.MethodGet, "/healthz", "", nil, &body); got != fiber.StatusOK {
		t.Fatalf("healthz: %d", got)
	}
	if body.Status["postgres"] != "disabled" || body.Status["redis"] != "ok" {
		t.Fatalf("unexpected health %+v", body.Status)
	}
}
