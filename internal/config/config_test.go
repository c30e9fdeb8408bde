package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Expected default port 8080, got %d", cfg.Port)
	}
	if cfg.ProviderURL != "https://www.thetrainline.com" {
		t.Errorf("Unexpected provider URL: %s", cfg.ProviderURL)
	}
	if cfg.ProviderDomain != "www.thetrainline.com" {
		t.Errorf("Expected domain derived from provider URL, got %s", cfg.ProviderDomain)
	}
	if cfg.LocationsURI != "/api/locations-search/v1/search" {
		t.Errorf("Unexpected locations URI: %s", cfg.LocationsURI)
	}
	if cfg.JourneyURI != "/api/journey-search/" {
		t.Errorf("Unexpected journey URI: %s", cfg.JourneyURI)
	}
	if cfg.Currency != "GBP" || cfg.Locale != "en-GB" {
		t.Errorf("Unexpected currency/locale: %s/%s", cfg.Currency, cfg.Locale)
	}
	if cfg.DefaultFrom != "BHM" || cfg.DefaultTo != "EUS" {
		t.Errorf("Unexpected default stations: %s/%s", cfg.DefaultFrom, cfg.DefaultTo)
	}
	if cfg.QueryLimit != 5 {
		t.Errorf("Expected default query limit 5, got %d", cfg.QueryLimit)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("Expected default cache TTL 5m, got %v", cfg.CacheTTL)
	}
	if cfg.StaleTTL != 12*time.Hour {
		t.Errorf("Expected default stale TTL 12h, got %v", cfg.StaleTTL)
	}
	if cfg.ProbeDelay != 1500*time.Millisecond {
		t.Errorf("Expected default probe delay 1.5s, got %v", cfg.ProbeDelay)
	}
	if cfg.HistoryRetention != 30*24*time.Hour {
		t.Errorf("Expected default retention 30d, got %v", cfg.HistoryRetention)
	}
	if !cfg.EnableSwagger {
		t.Error("Expected swagger enabled by default")
	}
}

func TestLoadSecurityDefaults(t *testing.T) {
	cfg := Load()

	if !cfg.Security.EnableRateLimit || cfg.Security.RateLimitPerSecond != 10.0 || cfg.Security.RateLimitBurst != 20 {
		t.Errorf("Unexpected rate limit defaults: %+v", cfg.Security)
	}
	if !cfg.Security.EnableCORS || len(cfg.Security.AllowedOrigins) != 1 || cfg.Security.AllowedOrigins[0] != "*" {
		t.Errorf("Unexpected CORS defaults: %+v", cfg.Security)
	}
	if cfg.Security.MaxRequestSize != 1<<20 {
		t.Errorf("Expected 1MB max request size, got %d", cfg.Security.MaxRequestSize)
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("PROVIDER_URL", "https://rail.example.org")
	t.Setenv("CURRENCY", "EUR")
	t.Setenv("DEFAULT_FROM", "MAN")
	t.Setenv("CACHE_TTL", "90s")
	t.Setenv("PROBE_DELAY", "2s")
	t.Setenv("ENABLE_SWAGGER", "false")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example")

	cfg := Load()

	if cfg.Port != 9090 {
		t.Errorf("Expected port 9090, got %d", cfg.Port)
	}
	if cfg.ProviderDomain != "rail.example.org" {
		t.Errorf("Expected domain from overridden URL, got %s", cfg.ProviderDomain)
	}
	if cfg.Currency != "EUR" {
		t.Errorf("Expected currency EUR, got %s", cfg.Currency)
	}
	if cfg.DefaultFrom != "MAN" {
		t.Errorf("Expected default origin MAN, got %s", cfg.DefaultFrom)
	}
	if cfg.CacheTTL != 90*time.Second {
		t.Errorf("Expected cache TTL 90s, got %v", cfg.CacheTTL)
	}
	if cfg.ProbeDelay != 2*time.Second {
		t.Errorf("Expected probe delay 2s, got %v", cfg.ProbeDelay)
	}
	if cfg.EnableSwagger {
		t.Error("Expected swagger disabled")
	}
	if len(cfg.Security.AllowedOrigins) != 2 || cfg.Security.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("Expected trimmed origin list, got %v", cfg.Security.AllowedOrigins)
	}
}

func TestInvalidEnvironmentFallsBack(t *testing.T) {
	t.Setenv("PORT", "not-a-number")
	t.Setenv("CACHE_TTL", "soon")
	t.Setenv("ENABLE_SWAGGER", "perhaps")

	cfg := Load()

	if cfg.Port != 8080 {
		t.Errorf("Expected fallback port 8080, got %d", cfg.Port)
	}
	if cfg.CacheTTL != 5*time.Minute {
		t.Errorf("Expected fallback cache TTL, got %v", cfg.CacheTTL)
	}
	if !cfg.EnableSwagger {
		t.Error("Expected fallback swagger setting")
	}
}
