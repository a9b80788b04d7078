package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultAppName        = "MilkRun"
	defaultAppEnv         = "development"
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultShutdownDelay  = 10 * time.Second
	defaultIdempotencyTTL = 24 * time.Hour
	defaultAccessTTL      = 24 * time.Hour
	defaultLoginPerMinute = 5
	defaultPlacesPerMin   = 120
	defaultGeoCountry     = "in"
	defaultGeoTimeout     = 12 * time.Second
	defaultGeoRPS         = 10.0
	defaultGeoCacheTTL    = 24 * time.Hour
	devJWTSecret          = "dev-secret-change-me"
)

// Config captures application runtime configuration loaded from environment variables.
type Config struct {
	AppName        string
	AppEnv         string
	Port           string
	LogLevel       string
	DatabaseURL    string
	RedisURL       string
	ShutdownPeriod time.Duration
	IdempotencyTTL time.Duration

	JWTSecret      string
	AccessTokenTTL time.Duration
	LoginPerMinute int
	SeedUsersFile  string

	// PlacesPerMinute caps place lookups per user or IP.
	PlacesPerMinute int

	Geocoding GeocodingConfig
}

// GeocodingConfig configures the place and geocoding provider.
type GeocodingConfig struct {
	BaseURL           string
	APIKey            string
	Country           string
	Timeout           time.Duration
	RequestsPerSecond float64
	CacheTTL          time.Duration
}

// Load reads an optional .env file and then the environment.
func Load() (Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg := Config{
		AppName:       getEnv("APP_NAME", defaultAppName),
		AppEnv:        getEnv("APP_ENV", defaultAppEnv),
		Port:          getEnv("PORT", defaultPort),
		LogLevel:      strings.ToLower(getEnv("LOG_LEVEL", defaultLogLevel)),
		DatabaseURL:   os.Getenv("DATABASE_URL"),
		RedisURL:      os.Getenv("REDIS_URL"),
		JWTSecret:     os.Getenv("JWT_SECRET"),
		SeedUsersFile: os.Getenv("SEED_USERS_FILE"),
		Geocoding: GeocodingConfig{
			BaseURL: os.Getenv("GEOCODING_BASE_URL"),
			APIKey:  os.Getenv("GEOCODING_API_KEY"),
			Country: strings.ToLower(getEnv("GEOCODING_COUNTRY", defaultGeoCountry)),
		},
	}

	var err error
	if cfg.ShutdownPeriod, err = getDuration("SHUTDOWN_TIMEOUT", defaultShutdownDelay); err != nil {
		return Config{}, err
	}
	if cfg.IdempotencyTTL, err = getDuration("IDEMPOTENCY_TTL", defaultIdempotencyTTL); err != nil {
		return Config{}, err
	}
	if cfg.AccessTokenTTL, err = getDuration("ACCESS_TOKEN_TTL", defaultAccessTTL); err != nil {
		return Config{}, err
	}
	if cfg.Geocoding.Timeout, err = getDuration("GEOCODING_TIMEOUT", defaultGeoTimeout); err != nil {
		return Config{}, err
	}
	if cfg.Geocoding.CacheTTL, err = getDuration("GEOCODE_CACHE_TTL", defaultGeoCacheTTL); err != nil {
		return Config{}, err
	}
	if cfg.LoginPerMinute, err = getInt("LOGIN_RATE_LIMIT", defaultLoginPerMinute); err != nil {
		return Config{}, err
	}
	if cfg.PlacesPerMinute, err = getInt("PLACES_RATE_LIMIT", defaultPlacesPerMin); err != nil {
		return Config{}, err
	}
	if v := os.Getenv("GEOCODING_RPS"); v != "" {
		rps, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return Config{}, fmt.Errorf("invalid GEOCODING_RPS: %w", err)
		}
		cfg.Geocoding.RequestsPerSecond = rps
	} else {
		cfg.Geocoding.RequestsPerSecond = defaultGeoRPS
	}

	if !cfg.IsDev() {
		if cfg.DatabaseURL == "" {
			return Config{}, fmt.Errorf("DATABASE_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.RedisURL == "" {
			return Config{}, fmt.Errorf("REDIS_URL must be set when APP_ENV=%s", cfg.AppEnv)
		}
		if cfg.JWTSecret == "" {
			return Config{}, fmt.Errorf("JWT_SECRET must be set when APP_ENV=%s", cfg.AppEnv)
		}
	}
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = devJWTSecret
	}

	return cfg, nil
}

// IsDev reports whether in-memory fallbacks are allowed.
func (c Config) IsDev() bool {
	switch strings.ToLower(c.AppEnv) {
	case "dev", "development", "local", "test":
		return true
	default:
		return false
	}
}

// Address returns the listen address in the format Fiber expects.
func (c Config) Address() string {
	if strings.HasPrefix(c.Port, ":") {
		return c.Port
	}
	return fmt.Sprintf(":%s", c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

// getDuration accepts Go durations ("90s") or a bare number of seconds.
func getDuration(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	if seconds, err := strconv.Atoi(v); err == nil {
		return time.Duration(seconds) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return d, nil
}

func getInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return n, nil
}
