package routes

import (
	"fmt"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/milkrun/storefront/internal/auth"
	"github.com/milkrun/storefront/internal/config"
	"github.com/milkrun/storefront/internal/geocoding"
	"github.com/milkrun/storefront/internal/identity"
	"github.com/milkrun/storefront/internal/location"
	"github.com/milkrun/storefront/internal/middleware"
	"github.com/milkrun/storefront/internal/profile"
)

// Deps aggregates shared dependencies required to wire routes.
type Deps struct {
	Cfg    config.Config
	DB     *pgxpool.Pool
	Cache  *redis.Client
	Logger *slog.Logger

	// Geocoder overrides the provider client built from Cfg.Geocoding.
	Geocoder location.Geocoder
	// Identity overrides the account service; set by main after seeding.
	Identity *identity.Service
	// Users must accompany Identity when it is set.
	Users identity.Repository
}

// Setup configures middlewares and all application routes.
func Setup(app *fiber.App, d Deps) error {
	if !d.Cfg.IsDev() {
		if d.DB == nil {
			return fmt.Errorf("database is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
		if d.Cache == nil {
			return fmt.Errorf("redis is required when APP_ENV=%s", d.Cfg.AppEnv)
		}
	}
	if d.Logger == nil {
		return fmt.Errorf("logger is required")
	}

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Audit(d.Logger))

	RegisterHealthRoutes(app, d)

	users, identitySvc := d.Users, d.Identity
	if identitySvc == nil {
		users = NewUserRepository(d.DB)
		identitySvc = identity.NewService(users)
	}
	authSvc := auth.NewService(d.Cfg.JWTSecret, d.Cfg.AccessTokenTTL, users)

	var profileRepo profile.Repository
	if d.DB != nil {
		profileRepo = profile.NewPostgresRepository(d.DB)
	} else {
		profileRepo = profile.NewMemoryRepository()
	}
	profileSvc := profile.NewService(profileRepo)

	geocoder := d.Geocoder
	if geocoder == nil {
		client := geocoding.NewClient(geocoding.Config{
			BaseURL:           d.Cfg.Geocoding.BaseURL,
			APIKey:            d.Cfg.Geocoding.APIKey,
			Country:           d.Cfg.Geocoding.Country,
			Timeout:           d.Cfg.Geocoding.Timeout,
			RequestsPerSecond: d.Cfg.Geocoding.RequestsPerSecond,
		}, nil)
		geocoder = geocoding.NewCachedGeocoder(client, d.Cache, d.Cfg.Geocoding.CacheTTL, d.Logger)
	}
	places := location.NewResolver(nil, geocoder, nil, d.Logger, location.WithTimeout(d.Cfg.Geocoding.Timeout))

	jwtmw := middleware.JWTAuth(authSvc)
	optionalJWT := middleware.OptionalJWT(authSvc)
	api := app.Group("/api")

	RegisterAuthRoutes(api, auth.NewHandler(identitySvc, authSvc), identity.NewHandler(identitySvc), jwtmw,
		middleware.LoginRateLimit(d.Cache, d.Cfg.LoginPerMinute, d.Logger))
	RegisterCustomerRoutes(api, profile.NewHandler(profileSvc), jwtmw,
		middleware.Idempotency(d.Cache, d.Cfg.IdempotencyTTL, d.Logger))
	RegisterPlaceRoutes(api, places, optionalJWT,
		middleware.PlacesRateLimit(d.Cache, d.Cfg.PlacesPerMinute, d.Logger))
	RegisterNavigationRoutes(api, optionalJWT, d.Logger)

	return nil
}

// NewUserRepository picks Postgres when a pool is available and memory
// otherwise.
func NewUserRepository(db *pgxpool.Pool) identity.Repository {
	if db != nil {
		return identity.NewPostgresRepository(db)
	}
	return identity.NewMemoryRepository()
}
