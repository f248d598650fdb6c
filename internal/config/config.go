package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// DefaultCORSOrigins lists the browser origins allowed to call the API when
// CORS_ALLOWED_ORIGINS is not set.
var DefaultCORSOrigins = []string{
	"http://localhost:3000",
	"https://b91c0085-1ba6-4299-81dc-78e421887aa4.preview.emergentagent.com",
}

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	CORSAllowedOrigins []string

	HTTPMaxBodyBytes    int64
	HTTPReadTimeout     time.Duration
	HTTPWriteTimeout    time.Duration
	HTTPShutdownTimeout time.Duration
	SecurityHeaders     bool

	Mail MailConfig
	Obs  ObsConfig

	SupabaseURL        string
	SupabaseAnonKey    string
	SupabaseServiceKey string
	BackendURL         string
}

// MailConfig groups the transactional email settings.
type MailConfig struct {
	ResendAPIKey   string
	ResendBaseURL  string
	ContactFrom    string
	EnrollmentFrom string
	AdminInbox     string
	SendTimeout    time.Duration
}

// ObsConfig groups logging, metrics and tracing switches.
type ObsConfig struct {
	LogFormat        string
	LogLevel         string
	LogFile          string
	MetricsEnabled   bool
	MetricsNamespace string
	MetricsBuckets   string
	TracingEnabled   bool
	OTLPEndpoint     string
	SamplingRatio    float64
}

// Load reads configuration from environment variables and optional .env files.
// Nothing is mandatory: a missing RESEND_API_KEY only surfaces when a send is attempted.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8001"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		HTTPMaxBodyBytes:    parseInt64(k.String("HTTP_MAX_BODY_BYTES"), 64<<10),
		HTTPReadTimeout:     parseDuration(k.String("HTTP_READ_TIMEOUT"), "15s"),
		HTTPWriteTimeout:    parseDuration(k.String("HTTP_WRITE_TIMEOUT"), "60s"),
		HTTPShutdownTimeout: parseDuration(k.String("HTTP_SHUTDOWN_TIMEOUT"), "10s"),
		SecurityHeaders:     parseBoolDefault(k.String("SECURITY_HEADERS_ENABLED"), true),

		Mail: MailConfig{
			ResendAPIKey:   strings.TrimSpace(k.String("RESEND_API_KEY")),
			ResendBaseURL:  strings.TrimSpace(k.String("RESEND_BASE_URL")),
			ContactFrom:    valueOrDefault(k.String("MAIL_CONTACT_FROM"), "onboarding@resend.dev"),
			EnrollmentFrom: valueOrDefault(k.String("MAIL_ENROLLMENT_FROM"), "courses@azellar.com"),
			AdminInbox:     valueOrDefault(k.String("MAIL_ADMIN_INBOX"), "delivered@resend.dev"),
			SendTimeout:    parseDuration(k.String("MAIL_SEND_TIMEOUT"), "30s"),
		},
		Obs: ObsConfig{
			LogFormat:        valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
			LogLevel:         valueOrDefault(k.String("OBS_LOG_LEVEL"), "info"),
			LogFile:          strings.TrimSpace(k.String("OBS_LOG_FILE")),
			MetricsEnabled:   parseBoolDefault(k.String("OBS_ENABLE_PROMETHEUS"), true),
			MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "azellar"),
			MetricsBuckets:   k.String("OBS_METRICS_BUCKETS_MS"),
			TracingEnabled:   parseBoolDefault(k.String("OBS_ENABLE_TRACING"), false),
			OTLPEndpoint:     strings.TrimSpace(k.String("OBS_OTLP_ENDPOINT")),
			SamplingRatio:    parseFloat(k.String("OBS_TRACING_SAMPLING_RATIO"), 1.0),
		},

		SupabaseURL:        strings.TrimRight(strings.TrimSpace(k.String("SUPABASE_URL")), "/"),
		SupabaseAnonKey:    strings.TrimSpace(k.String("SUPABASE_ANON_KEY")),
		SupabaseServiceKey: strings.TrimSpace(k.String("SUPABASE_SERVICE_KEY")),
		BackendURL:         valueOrDefault(strings.TrimRight(k.String("BACKEND_URL"), "/"), "http://localhost:8001"),
	}

	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = append([]string(nil), DefaultCORSOrigins...)
	}

	return cfg, nil
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8001"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseBoolDefault(value string, fallback bool) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "t", "true", "yes", "on":
		return true
	case "0", "f", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func parseInt64(value string, fallback int64) int64 {
	if parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil && parsed > 0 {
		return parsed
	}
	return fallback
}

func parseFloat(value string, fallback float64) float64 {
	if parsed, err := strconv.ParseFloat(strings.TrimSpace(value), 64); err == nil {
		return parsed
	}
	return fallback
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
