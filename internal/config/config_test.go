package config

import (
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT",
		"DATABASE_URL",
		"APP_ENV",
		"LOG_LEVEL",
		"JWT_SECRET",
		"SOURCE_TIMEOUT",
		"ACTIVITY_FETCH_CAP",
		"AUTO_MIGRATE",
		"MIGRATIONS_DIR",
		"SPOTIFY_CLIENT_ID",
		"SPOTIFY_CLIENT_SECRET",
		"SPOTIFY_API_BASE_URL",
		"SPOTIFY_TOKEN_URL",
		"CATALOG_RATE_LIMIT",
		"SHARE_LINK_TTL",
		"SHARE_BASE_URL",
		"SHARE_SWEEP_INTERVAL",
		"SHARE_SWEEP_SCHEDULE",
		"SHARE_SWEEP_TIMEZONE",
		"WS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Port != defaultPort {
		t.Fatalf("expected default port %q, got %q", defaultPort, cfg.Port)
	}
	if cfg.Environment != defaultEnvironment {
		t.Fatalf("expected default environment %q, got %q", defaultEnvironment, cfg.Environment)
	}
	if cfg.SourceTimeout != defaultSourceTimeout {
		t.Fatalf("expected default source timeout %v, got %v", defaultSourceTimeout, cfg.SourceTimeout)
	}
	if cfg.ActivityFetchCap != defaultActivityFetchCap {
		t.Fatalf("expected default fetch cap %d, got %d", defaultActivityFetchCap, cfg.ActivityFetchCap)
	}
	if cfg.Spotify.Enabled() {
		t.Fatalf("expected catalog disabled without credentials")
	}
	if cfg.Spotify.APIBaseURL != defaultSpotifyAPIBaseURL {
		t.Fatalf("expected default Spotify base URL, got %q", cfg.Spotify.APIBaseURL)
	}
	if cfg.Share.TTL != defaultShareLinkTTL {
		t.Fatalf("expected default share TTL %v, got %v", defaultShareLinkTTL, cfg.Share.TTL)
	}
	if cfg.MigrationsDir != defaultMigrationsDir {
		t.Fatalf("expected default migrations dir, got %q", cfg.MigrationsDir)
	}
	if !cfg.IsDevelopment() {
		t.Fatalf("expected development environment by default")
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("SOURCE_TIMEOUT", "3s")
	t.Setenv("ACTIVITY_FETCH_CAP", "1000")
	t.Setenv("SPOTIFY_CLIENT_ID", "client")
	t.Setenv("SPOTIFY_CLIENT_SECRET", "secret")
	t.Setenv("SHARE_LINK_TTL", "48h")
	t.Setenv("SHARE_BASE_URL", "https://trackshare.example/")
	t.Setenv("AUTO_MIGRATE", "true")
	t.Setenv("SHARE_SWEEP_SCHEDULE", " @hourly ")
	t.Setenv("WS_ALLOWED_ORIGINS", "https://web.trackshare.app,https://*.trackshare.dev")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() returned error: %v", err)
	}

	if cfg.Port != "9000" {
		t.Fatalf("expected port 9000, got %q", cfg.Port)
	}
	if cfg.LogLevel != "debug" {
		t.Fatalf("expected lower-cased log level, got %q", cfg.LogLevel)
	}
	if cfg.SourceTimeout != 3*time.Second {
		t.Fatalf("expected 3s timeout, got %v", cfg.SourceTimeout)
	}
	if cfg.ActivityFetchCap != 1000 {
		t.Fatalf("expected fetch cap 1000, got %d", cfg.ActivityFetchCap)
	}
	if !cfg.Spotify.Enabled() {
		t.Fatalf("expected catalog enabled")
	}
	if cfg.Share.TTL != 48*time.Hour {
		t.Fatalf("expected 48h TTL, got %v", cfg.Share.TTL)
	}
	if cfg.Share.BaseURL != "https://trackshare.example" {
		t.Fatalf("expected trailing slash trimmed, got %q", cfg.Share.BaseURL)
	}
	if !cfg.AutoMigrate {
		t.Fatalf("expected auto migrate enabled")
	}
	if cfg.Share.SweepSchedule != "@hourly" || cfg.Share.SweepTimezone != "UTC" {
		t.Fatalf("unexpected sweep schedule %q in %q", cfg.Share.SweepSchedule, cfg.Share.SweepTimezone)
	}
	if len(cfg.WSAllowedOrigins) != 2 || cfg.WSAllowedOrigins[1] != "https://*.trackshare.dev" {
		t.Fatalf("unexpected websocket origins %v", cfg.WSAllowedOrigins)
	}
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	clearEnv(t)
	t.Setenv("SOURCE_TIMEOUT", "soon")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}

func TestLoadRequiresJWTSecretOutsideDevelopment(t *testing.T) {
	clearEnv(t)
	t.Setenv("APP_ENV", "production")
	t.Setenv("DATABASE_URL", "postgres://localhost/trackshare")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected error when JWT_SECRET is missing in production")
	}
	if !strings.Contains(err.Error(), "JWT_SECRET") {
		t.Fatalf("expected JWT_SECRET in error, got %v", err)
	}

	t.Setenv("JWT_SECRET", "s3cret")
	if _, err := Load(); err != nil {
		t.Fatalf("expected production config to load, got %v", err)
	}
}

func TestValidateRejectsHalfConfiguredCatalog(t *testing.T) {
	clearEnv(t)
	t.Setenv("SPOTIFY_CLIENT_ID", "client")

	_, err := Load()
	if err == nil {
		t.Fatalf("expected error when only the client id is set")
	}
}

func TestValidateRejectsUnknownLogLevel(t *testing.T) {
	clearEnv(t)
	t.Setenv("LOG_LEVEL", "verbose")

	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "LOG_LEVEL") {
		t.Fatalf("expected LOG_LEVEL error, got %v", err)
	}
}
