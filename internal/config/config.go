// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, the request store, the provider catalog,
// human verification, telemetry, rate limiting, and observability.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// OTELConfig defines OpenTelemetry observability settings.
type OTELConfig struct {
	Enabled     bool    // OTEL_ENABLED
	Endpoint    string  // OTEL_EXPORTER_OTLP_ENDPOINT (e.g. "otel:4317")
	Insecure    bool    // OTEL_EXPORTER_OTLP_INSECURE (true if no TLS)
	ServiceName string  // OTEL_SERVICE_NAME (e.g. "availability-watch")
	SampleRatio float64 // OTEL_TRACES_SAMPLER_ARG in [0..1]
}

// ProviderConfig defines how the provider offer catalog is fetched.
type ProviderConfig struct {
	CatalogURL string        // PROVIDER_CATALOG_URL
	Timeout    time.Duration // PROVIDER_TIMEOUT
	RPS        float64       // PROVIDER_RPS, outbound requests per second
	Burst      int           // PROVIDER_BURST
	CacheTTL   time.Duration // CATALOG_CACHE_TTL, 0 disables caching
	RedisURL   string        // REDIS_URL, empty keeps the cache in memory
}

// CaptchaConfig selects and configures the human-verification provider.
type CaptchaConfig struct {
	Provider       string // recaptcha|aliyun|none
	RecaptchaKey   string // site key rendered in the form
	RecaptchaSec   string // server-side secret
	RecaptchaURL   string // siteverify endpoint
	AliyunEndpoint string
	AliyunSceneID  string
}

// TelemetryConfig configures the event sink (New Relic Insights insert API).
type TelemetryConfig struct {
	Enabled   bool
	AccountID string
	InsertKey string
	URL       string // overrides the collector URL derived from AccountID
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Logging / Docs
	LogLevel       string // debug|info|warn|error|fatal|panic
	LogPretty      bool   // pretty console logs in dev
	SwaggerEnabled bool   // enable Swagger UI route
	APIBasePath    string // base path for JSON API routes

	// Store
	DBDriver    string // sqlite|postgres
	DBPath      string // SQLite path
	DBDSN       string // Postgres DSN
	ServersPath string // optional JSON seed of the watchable server catalog

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Upstreams
	Provider  ProviderConfig
	Captcha   CaptchaConfig
	Telemetry TelemetryConfig

	// Observability
	OTEL OTELConfig
}

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Logging / Docs
		LogLevel:       strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:      getbool("LOG_PRETTY", false),
		SwaggerEnabled: getbool("SWAGGER_ENABLED", false),
		APIBasePath:    normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// Store
		DBDriver:    strings.ToLower(getenv("DB_DRIVER", "sqlite")),
		DBPath:      getenv("DB_PATH", "app.db"),
		DBDSN:       getenv("DB_DSN", ""),
		ServersPath: getenv("SERVERS_PATH", "data/servers.json"),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		Provider: ProviderConfig{
			CatalogURL: getenv("PROVIDER_CATALOG_URL", "https://ws.ovh.com/dedicated/r2/ws.dispatcher/getAvailability2"),
			Timeout:    getdur("PROVIDER_TIMEOUT", 10*time.Second),
			RPS:        getfloat("PROVIDER_RPS", 2.0),
			Burst:      getint("PROVIDER_BURST", 4),
			CacheTTL:   getdur("CATALOG_CACHE_TTL", 30*time.Second),
			RedisURL:   getenv("REDIS_URL", ""),
		},
		Captcha: CaptchaConfig{
			Provider:       strings.ToLower(getenv("CAPTCHA_PROVIDER", "none")),
			RecaptchaKey:   getenv("RECAPTCHA_SITE_KEY", ""),
			RecaptchaSec:   getenv("RECAPTCHA_SECRET", ""),
			RecaptchaURL:   getenv("RECAPTCHA_VERIFY_URL", "https://www.google.com/recaptcha/api/siteverify"),
			AliyunEndpoint: getenv("ALIYUN_CAPTCHA_ENDPOINT", "captcha.cn-shanghai.aliyuncs.com"),
			AliyunSceneID:  getenv("ALIYUN_CAPTCHA_SCENE_ID", ""),
		},
		Telemetry: TelemetryConfig{
			Enabled:   getbool("TELEMETRY_ENABLED", false),
			AccountID: getenv("NEWRELIC_ACCOUNT_ID", ""),
			InsertKey: getenv("NEWRELIC_INSERT_KEY", ""),
			URL:       getenv("NEWRELIC_INSIGHTS_URL", ""),
		},

		// Observability (OpenTelemetry)
		OTEL: OTELConfig{
			Enabled:     getbool("OTEL_ENABLED", false),
			Endpoint:    getenv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			Insecure:    getbool("OTEL_EXPORTER_OTLP_INSECURE", true),
			ServiceName: getenv("OTEL_SERVICE_NAME", "availability-watch"),
			SampleRatio: getfloat("OTEL_TRACES_SAMPLER_ARG", 1.0),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}
	if cfg.DBDriver == "postgresql" {
		cfg.DBDriver = "postgres"
	}
	if cfg.Telemetry.URL == "" && cfg.Telemetry.AccountID != "" {
		cfg.Telemetry.URL = "https://insights-collector.newrelic.com/v1/accounts/" + cfg.Telemetry.AccountID + "/events"
	}

	// --- validation ---
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	switch cfg.DBDriver {
	case "sqlite":
		if strings.TrimSpace(cfg.DBPath) == "" {
			return cfg, errors.New("DB_PATH must not be empty")
		}
	case "postgres":
		if strings.TrimSpace(cfg.DBDSN) == "" {
			return cfg, errors.New("DB_DSN is required when DB_DRIVER=postgres")
		}
	default:
		return cfg, errors.New("DB_DRIVER must be one of: sqlite, postgres")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if strings.TrimSpace(cfg.Provider.CatalogURL) == "" {
		return cfg, errors.New("PROVIDER_CATALOG_URL must not be empty")
	}
	if cfg.Provider.Timeout <= 0 {
		return cfg, errors.New("PROVIDER_TIMEOUT must be > 0")
	}
	if cfg.Provider.RPS <= 0 || cfg.Provider.Burst < 1 {
		return cfg, errors.New("PROVIDER_RPS must be > 0 and PROVIDER_BURST >= 1")
	}
	if cfg.Provider.CacheTTL < 0 {
		return cfg, errors.New("CATALOG_CACHE_TTL must be >= 0")
	}
	switch cfg.Captcha.Provider {
	case "recaptcha":
		if cfg.Captcha.RecaptchaSec == "" {
			return cfg, errors.New("RECAPTCHA_SECRET is required when CAPTCHA_PROVIDER=recaptcha")
		}
	case "aliyun":
		if cfg.Captcha.AliyunSceneID == "" {
			return cfg, errors.New("ALIYUN_CAPTCHA_SCENE_ID is required when CAPTCHA_PROVIDER=aliyun")
		}
	case "none":
	default:
		return cfg, errors.New("CAPTCHA_PROVIDER must be one of: recaptcha, aliyun, none")
	}
	if cfg.Telemetry.Enabled && (cfg.Telemetry.URL == "" || cfg.Telemetry.InsertKey == "") {
		return cfg, errors.New("TELEMETRY_ENABLED requires NEWRELIC_ACCOUNT_ID (or NEWRELIC_INSIGHTS_URL) and NEWRELIC_INSERT_KEY")
	}
	if cfg.OTEL.SampleRatio < 0 || cfg.OTEL.SampleRatio > 1 {
		return cfg, errors.New("OTEL_TRACES_SAMPLER_ARG must be in [0,1]")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
