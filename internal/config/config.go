// Package config loads service configuration from the environment, with an
// optional YAML file for local development (path via --config or
// CONFIG_PATH). Environment variables win over file values.
package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

type Config struct {
	Env  string     `yaml:"env" env:"ENV" env-default:"local"`
	HTTP HTTPConfig `yaml:"http"`
	Auth AuthConfig `yaml:"auth"`
	DB   DBConfig   `yaml:"db"`

	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Redis     RedisConfig     `yaml:"redis"`
	Cookie    CookieConfig    `yaml:"cookie"`
	SMTP      SMTPConfig      `yaml:"smtp"`
	S3        S3Config        `yaml:"s3"`
	Meetings  MeetingConfig   `yaml:"meetings"`
	OTel      OTelConfig      `yaml:"otel"`
}

type HTTPConfig struct {
	Host              string        `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port              string        `yaml:"port" env:"HTTP_PORT" env-default:"8080"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout" env:"HTTP_READ_HEADER_TIMEOUT" env-default:"5s"`
	ShutdownTimeout   time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
	CORSOrigins       []string      `yaml:"cors_origins" env:"CORS_ORIGINS" env-default:"http://localhost:5173"`
	PublicBaseURL     string        `yaml:"public_base_url" env:"PUBLIC_BASE_URL" env-default:"http://localhost:5173"`
}

func (h HTTPConfig) Addr() string {
	return net.JoinHostPort(h.Host, h.Port)
}

type AuthConfig struct {
	// JWTSecret has no default on purpose: an unset signing secret is a
	// startup failure, never a silently shared fallback key.
	JWTSecret               string        `yaml:"jwt_secret" env:"JWT_SECRET" env-required:"true"`
	TokenIssuer             string        `yaml:"token_issuer" env:"TOKEN_ISSUER" env-default:"jira-lite"`
	AccessTokenTTLSeconds   int           `yaml:"access_token_ttl_seconds" env:"ACCESS_TOKEN_TTL_SECONDS" env-default:"300"`
	RefreshTokenTTLDays     int           `yaml:"refresh_token_ttl_days" env:"REFRESH_TOKEN_TTL_DAYS" env-default:"14"`
	OneSessionPerUser       bool          `yaml:"one_session_per_user" env:"ONE_SESSION_PER_USER" env-default:"true"`
	PasswordResetTTLMinutes int           `yaml:"password_reset_ttl_minutes" env:"PASSWORD_RESET_TTL_MINUTES" env-default:"30"`
	RefreshTokenPepper      string        `yaml:"refresh_token_pepper" env:"REFRESH_TOKEN_PEPPER" env-default:""`
	LoginRateLimit          int64         `yaml:"login_rate_limit" env:"AUTH_LOGIN_RATE_LIMIT" env-default:"10"`
	ForgotRateLimit         int64         `yaml:"forgot_rate_limit" env:"AUTH_FORGOT_RATE_LIMIT" env-default:"5"`
	RateLimitWindow         time.Duration `yaml:"rate_limit_window" env:"AUTH_RATE_LIMIT_WINDOW" env-default:"60s"`
}

func (a AuthConfig) AccessTokenTTL() time.Duration {
	return time.Duration(a.AccessTokenTTLSeconds) * time.Second
}

func (a AuthConfig) RefreshTokenTTL() time.Duration {
	return time.Duration(a.RefreshTokenTTLDays) * 24 * time.Hour
}

func (a AuthConfig) PasswordResetTTL() time.Duration {
	return time.Duration(a.PasswordResetTTLMinutes) * time.Minute
}

type DBConfig struct {
	// DSN is a postgres URL in deployment; anything else (a file path or
	// ":memory:") opens sqlite, which is what local dev and tests use.
	DSN string `yaml:"dsn" env:"DATABASE_DSN" env-default:"jira-lite.db"`
}

func (d DBConfig) IsPostgres() bool {
	return strings.HasPrefix(d.DSN, "postgres://") || strings.HasPrefix(d.DSN, "postgresql://") || strings.Contains(d.DSN, "host=")
}

type RateLimitConfig struct {
	UseRedis bool `yaml:"use_redis" env:"AUTH_RATE_LIMIT_USE_REDIS" env-default:"false"`
	// FailOpen decides what happens when the shared counter store is
	// unreachable. Explicit configuration, not a hidden default.
	FailOpen bool `yaml:"fail_open" env:"AUTH_RATE_LIMIT_FAIL_OPEN" env-default:"false"`
}

type RedisConfig struct {
	Addr        string        `yaml:"addr" env:"REDIS_ADDR" env-default:"localhost:6379"`
	Password    string        `yaml:"password" env:"REDIS_PASSWORD" env-default:""`
	DB          int           `yaml:"db" env:"REDIS_DB" env-default:"0"`
	DialTimeout time.Duration `yaml:"dial_timeout" env:"REDIS_DIAL_TIMEOUT" env-default:"10s"`
}

type CookieConfig struct {
	SameSite string `yaml:"same_site" env:"COOKIE_SAME_SITE" env-default:""`
	Secure   *bool  `yaml:"secure" env:"COOKIE_SECURE"`
	Domain   string `yaml:"domain" env:"COOKIE_DOMAIN" env-default:""`
}

type SMTPConfig struct {
	Host     string        `yaml:"host" env:"SMTP_HOST" env-default:""`
	Port     int           `yaml:"port" env:"SMTP_PORT" env-default:"587"`
	Username string        `yaml:"username" env:"SMTP_USERNAME" env-default:""`
	Password string        `yaml:"password" env:"SMTP_PASSWORD" env-default:""`
	From     string        `yaml:"from" env:"SMTP_FROM" env-default:"no-reply@jira-lite.local"`
	Timeout  time.Duration `yaml:"timeout" env:"SMTP_TIMEOUT" env-default:"15s"`
}

type S3Config struct {
	Endpoint   string        `yaml:"endpoint" env:"S3_ENDPOINT" env-default:""`
	AccessKey  string        `yaml:"access_key" env:"S3_ACCESS_KEY" env-default:""`
	SecretKey  string        `yaml:"secret_key" env:"S3_SECRET_KEY" env-default:""`
	Bucket     string        `yaml:"bucket" env:"S3_BUCKET" env-default:"deliverables"`
	UseSSL     bool          `yaml:"use_ssl" env:"S3_USE_SSL" env-default:"false"`
	PresignTTL time.Duration `yaml:"presign_ttl" env:"S3_PRESIGN_TTL" env-default:"15m"`
}

type MeetingConfig struct {
	ReminderPollInterval time.Duration `yaml:"reminder_poll_interval" env:"MEETING_REMINDER_POLL_INTERVAL" env-default:"1m"`
	ReminderLead         time.Duration `yaml:"reminder_lead" env:"MEETING_REMINDER_LEAD" env-default:"1h"`
}

type OTelConfig struct {
	Enabled               bool          `yaml:"enabled" env:"OTEL_ENABLED" env-default:"false"`
	ExporterEndpoint      string        `yaml:"exporter_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT" env-default:"localhost:4317"`
	ExporterInsecure      bool          `yaml:"exporter_insecure" env:"OTEL_EXPORTER_OTLP_INSECURE" env-default:"true"`
	ServiceName           string        `yaml:"service_name" env:"OTEL_SERVICE_NAME" env-default:"jira-lite"`
	Environment           string        `yaml:"environment" env:"OTEL_ENVIRONMENT" env-default:"local"`
	MetricsExportInterval time.Duration `yaml:"metrics_export_interval" env:"OTEL_METRICS_EXPORT_INTERVAL" env-default:"30s"`
}

// Production reports whether the service runs with production cookie and
// transport defaults.
func (c *Config) Production() bool {
	return strings.EqualFold(c.Env, "prod") || strings.EqualFold(c.Env, "production")
}

// Load reads configuration from path (optional) plus the environment and
// validates it.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	if path == "" {
		path = os.Getenv("CONFIG_PATH")
	}
	var err error
	if path != "" {
		if _, statErr := os.Stat(path); statErr != nil {
			return nil, fmt.Errorf("config file %q: %w", path, statErr)
		}
		err = cleanenv.ReadConfig(path, cfg)
	} else {
		err = cleanenv.ReadEnv(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

func (c *Config) validate() error {
	var errs []error
	if len(c.Auth.JWTSecret) < 32 {
		errs = append(errs, errors.New("JWT_SECRET must be at least 32 bytes"))
	}
	if c.Auth.AccessTokenTTLSeconds <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL_SECONDS must be positive"))
	}
	if c.Auth.RefreshTokenTTLDays <= 0 {
		errs = append(errs, errors.New("REFRESH_TOKEN_TTL_DAYS must be positive"))
	}
	if c.Auth.PasswordResetTTLMinutes <= 0 {
		errs = append(errs, errors.New("PASSWORD_RESET_TTL_MINUTES must be positive"))
	}
	switch strings.ToLower(c.Cookie.SameSite) {
	case "", "lax", "strict", "none":
	default:
		errs = append(errs, fmt.Errorf("COOKIE_SAME_SITE: unknown value %q", c.Cookie.SameSite))
	}
	return errors.Join(errs...)
}
