package config

import (
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// SecurityConfig represents security configuration
type SecurityConfig struct {
	EnableRateLimit       bool
	RateLimitPerSecond    float64
	RateLimitBurst        int
	EnableCORS            bool
	AllowedOrigins        []string
	EnableSecurityHeaders bool
	MaxRequestSize        int64
	EnableRequestID       bool
}

type Config struct {
	Port             int
	ProviderURL      string
	ProviderDomain   string
	LocationsURI     string
	JourneyURI       string
	Currency         string
	Locale           string
	DefaultFrom      string
	DefaultTo        string
	QueryLimit       int
	CacheTTL         time.Duration
	StaleTTL         time.Duration
	ProbeDelay       time.Duration
	RequestTimeout   time.Duration
	DataDir          string
	HistoryRetention time.Duration
	LogLevel         string
	EnableSwagger    bool
	Security         SecurityConfig
}

func Load() *Config {
	providerURL := getEnv("PROVIDER_URL", "https://www.thetrainline.com")

	return &Config{
		Port:             getEnvAsInt("PORT", 8080),
		ProviderURL:      providerURL,
		ProviderDomain:   domainFromURL(providerURL),
		LocationsURI:     getEnv("LOCATIONS_URI", "/api/locations-search/v1/search"),
		JourneyURI:       getEnv("JOURNEY_URI", "/api/journey-search/"),
		Currency:         getEnv("CURRENCY", "GBP"),
		Locale:           getEnv("LOCALE", "en-GB"),
		DefaultFrom:      getEnv("DEFAULT_FROM", "BHM"),
		DefaultTo:        getEnv("DEFAULT_TO", "EUS"),
		QueryLimit:       getEnvAsInt("QUERY_LIMIT", 5),
		CacheTTL:         getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		StaleTTL:         getEnvAsDuration("STALE_TTL", 12*time.Hour),
		ProbeDelay:       getEnvAsDuration("PROBE_DELAY", 1500*time.Millisecond),
		RequestTimeout:   getEnvAsDuration("REQUEST_TIMEOUT", 15*time.Second),
		DataDir:          getEnv("DATA_DIR", "./data"),
		HistoryRetention: getEnvAsDuration("HISTORY_RETENTION", 30*24*time.Hour),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		EnableSwagger:    getEnvAsBool("ENABLE_SWAGGER", true),
		Security:         loadSecurityConfig(),
	}
}

func loadSecurityConfig() SecurityConfig {
	return SecurityConfig{
		EnableRateLimit:       getEnvAsBool("ENABLE_RATE_LIMIT", true),
		RateLimitPerSecond:    getEnvAsFloat("RATE_LIMIT_PER_SECOND", 10.0),
		RateLimitBurst:        getEnvAsInt("RATE_LIMIT_BURST", 20),
		EnableCORS:            getEnvAsBool("ENABLE_CORS", true),
		AllowedOrigins:        getEnvAsStringSlice("ALLOWED_ORIGINS", []string{"*"}),
		EnableSecurityHeaders: getEnvAsBool("ENABLE_SECURITY_HEADERS", true),
		MaxRequestSize:        getEnvAsInt64("MAX_REQUEST_SIZE", 1<<20), // 1MB, GET-only API
		EnableRequestID:       getEnvAsBool("ENABLE_REQUEST_ID", true),
	}
}

func domainFromURL(rawURL string) string {
	if parsed, err := url.Parse(rawURL); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return rawURL
}

func getEnv(key string, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if floatVal, err := strconv.ParseFloat(val, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.ParseInt(val, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsStringSlice(key string, defaultVal []string) []string {
	if val := os.Getenv(key); val != "" {
		origins := strings.Split(val, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		return origins
	}
	return defaultVal
}
