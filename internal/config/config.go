package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

func init() {
	// Auto-load .env file if present (don't override existing env vars)
	_ = godotenv.Load(".env")
}

const (
	defaultPort              = "4200"
	defaultEnvironment       = "development"
	defaultLogLevel          = "info"
	defaultSourceTimeout     = 8 * time.Second
	defaultActivityFetchCap  = 500
	defaultSpotifyAPIBaseURL = "https://api.spotify.com/v1"
	defaultSpotifyTokenURL   = "https://accounts.spotify.com/api/token"
	defaultCatalogRateLimit  = 5.0
	defaultShareLinkTTL      = 30 * 24 * time.Hour
	defaultShareBaseURL      = "http://localhost:4200"
	defaultShareSweepEvery   = 10 * time.Minute
	defaultMigrationsDir     = "migrations"
)

type SpotifyConfig struct {
	ClientID     string  `env:"SPOTIFY_CLIENT_ID"`
	ClientSecret string  `env:"SPOTIFY_CLIENT_SECRET"`
	APIBaseURL   string  `env:"SPOTIFY_API_BASE_URL"`
	TokenURL     string  `env:"SPOTIFY_TOKEN_URL"`
	RateLimit    float64 `env:"CATALOG_RATE_LIMIT"`
}

// Enabled reports whether catalog credentials are present.
func (c SpotifyConfig) Enabled() bool {
	return c.ClientID != "" && c.ClientSecret != ""
}

type ShareConfig struct {
	TTL           time.Duration `env:"SHARE_LINK_TTL"`
	BaseURL       string        `env:"SHARE_BASE_URL"`
	SweepInterval time.Duration `env:"SHARE_SWEEP_INTERVAL"`
	// SweepSchedule is an optional cron expression that replaces SweepInterval.
	SweepSchedule string `env:"SHARE_SWEEP_SCHEDULE"`
	SweepTimezone string `env:"SHARE_SWEEP_TIMEZONE"`
}

type Config struct {
	Port             string        `env:"PORT"`
	DatabaseURL      string        `env:"DATABASE_URL"`
	Environment      string        `env:"APP_ENV"`
	LogLevel         string        `env:"LOG_LEVEL"`
	JWTSecret        string        `env:"JWT_SECRET"`
	SourceTimeout    time.Duration `env:"SOURCE_TIMEOUT"`
	ActivityFetchCap int           `env:"ACTIVITY_FETCH_CAP"`
	AutoMigrate      bool          `env:"AUTO_MIGRATE"`
	MigrationsDir    string        `env:"MIGRATIONS_DIR"`
	WSAllowedOrigins []string      `env:"WS_ALLOWED_ORIGINS" envSeparator:","`
	Spotify          SpotifyConfig
	Share            ShareConfig
}

func Load() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.Port = firstNonEmpty(strings.TrimSpace(cfg.Port), defaultPort)
	cfg.DatabaseURL = strings.TrimSpace(cfg.DatabaseURL)
	cfg.Environment = strings.ToLower(firstNonEmpty(strings.TrimSpace(cfg.Environment), defaultEnvironment))
	cfg.LogLevel = strings.ToLower(firstNonEmpty(strings.TrimSpace(cfg.LogLevel), defaultLogLevel))
	cfg.JWTSecret = strings.TrimSpace(cfg.JWTSecret)
	cfg.MigrationsDir = firstNonEmpty(strings.TrimSpace(cfg.MigrationsDir), defaultMigrationsDir)
	if cfg.SourceTimeout == 0 {
		cfg.SourceTimeout = defaultSourceTimeout
	}
	if cfg.ActivityFetchCap == 0 {
		cfg.ActivityFetchCap = defaultActivityFetchCap
	}

	cfg.Spotify.ClientID = strings.TrimSpace(cfg.Spotify.ClientID)
	cfg.Spotify.ClientSecret = strings.TrimSpace(cfg.Spotify.ClientSecret)
	cfg.Spotify.APIBaseURL = firstNonEmpty(strings.TrimSpace(cfg.Spotify.APIBaseURL), defaultSpotifyAPIBaseURL)
	cfg.Spotify.TokenURL = firstNonEmpty(strings.TrimSpace(cfg.Spotify.TokenURL), defaultSpotifyTokenURL)
	if cfg.Spotify.RateLimit == 0 {
		cfg.Spotify.RateLimit = defaultCatalogRateLimit
	}

	if cfg.Share.TTL == 0 {
		cfg.Share.TTL = defaultShareLinkTTL
	}
	cfg.Share.BaseURL = strings.TrimRight(firstNonEmpty(strings.TrimSpace(cfg.Share.BaseURL), defaultShareBaseURL), "/")
	if cfg.Share.SweepInterval == 0 {
		cfg.Share.SweepInterval = defaultShareSweepEvery
	}
	cfg.Share.SweepSchedule = strings.TrimSpace(cfg.Share.SweepSchedule)
	cfg.Share.SweepTimezone = firstNonEmpty(strings.TrimSpace(cfg.Share.SweepTimezone), "UTC")

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func (c Config) Validate() error {
	if c.SourceTimeout <= 0 {
		return fmt.Errorf("SOURCE_TIMEOUT must be greater than zero")
	}
	if c.ActivityFetchCap <= 0 {
		return fmt.Errorf("ACTIVITY_FETCH_CAP must be greater than zero")
	}
	if c.Spotify.RateLimit <= 0 {
		return fmt.Errorf("CATALOG_RATE_LIMIT must be greater than zero")
	}
	if c.Share.TTL <= 0 {
		return fmt.Errorf("SHARE_LINK_TTL must be greater than zero")
	}
	if c.Share.SweepInterval <= 0 {
		return fmt.Errorf("SHARE_SWEEP_INTERVAL must be greater than zero")
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}

	if (c.Spotify.ClientID == "") != (c.Spotify.ClientSecret == "") {
		return fmt.Errorf("SPOTIFY_CLIENT_ID and SPOTIFY_CLIENT_SECRET must be set together")
	}

	if !isNonDevelopment(c.Environment) {
		return nil
	}

	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required in non-development environments")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required in non-development environments")
	}

	return nil
}

// IsDevelopment reports whether the service runs in a local environment.
func (c Config) IsDevelopment() bool {
	return !isNonDevelopment(c.Environment)
}

func isNonDevelopment(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "", "dev", "development", "local", "test":
		return false
	default:
		return true
	}
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
