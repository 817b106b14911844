package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App         AppConfig
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Log         LogConfig
	Tracing     TracingConfig
	CORS        CORSConfig
	RateLimit   RateLimitConfig
	API         APIConfig
	Glossolalia GlossolaliaConfig
	Audit       AuditConfig
	Application ApplicationConfig
}

type AppConfig struct {
	Name        string
	Environment string
	Version     string
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
	TLS             TLSConfig
	// Proxies whose X-Forwarded-For is believed. Empty trusts none.
	TrustedProxies []string
}

func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// TLSConfig enables HTTPS. A ClientCAFile turns on mutual TLS.
type TLSConfig struct {
	Enabled      bool
	CertFile     string
	KeyFile      string
	ClientCAFile string
}

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

type DatabaseConfig struct {
	Driver             string
	SQLitePath         string
	Host               string
	Port               int
	Name               string
	User               string
	Password           string
	SSLMode            string
	MaxOpenConns       int
	MaxIdleConns       int
	ConnMaxLifetime    time.Duration
	ConnMaxIdleTime    time.Duration
	SlowQueryThreshold time.Duration
}

func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

type JWTConfig struct {
	Secret          string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	Issuer          string
}

type LogConfig struct {
	Level      string
	Format     string
	OutputPath string
}

type TracingConfig struct {
	Enabled      bool
	ServiceName  string
	OTLPEndpoint string
	Insecure     bool
	SampleRate   float64
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         time.Duration
}

type RateLimitConfig struct {
	// Global Rate limit per IP
	RequestsPerSecond float64
	BurstSize         int
	// Auth endpoints have stricter limits
	AuthRequestsPerMinute int
}

type APIConfig struct {
	// RequireAuth rejects anonymous requests on every /api route and on
	// the legacy admit and refer endpoints.
	RequireAuth     bool
	OptionsCacheTTL time.Duration
}

type GlossolaliaConfig struct {
	Enabled     bool
	Sinks       []string // webhook, redis, kafka, log
	URLBase     string
	ServiceType string
	BrandName   string
	BufferSize  int
	SendTimeout time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisStream   string
	RedisMaxLen   int64

	KafkaBrokers []string
	KafkaTopic   string
}

type AuditConfig struct {
	BufferSize      int
	BatchSize       int
	FlushInterval   time.Duration
	ShutdownTimeout time.Duration
}

type ApplicationConfig struct {
	// Path to the application YAML. Empty uses the built-in default.
	Path string
}

var defaults = map[string]any{
	"APP_NAME":    "wardbook",
	"APP_ENV":     "development",
	"APP_VERSION": "0.0.0",

	"SERVER_HOST":             "0.0.0.0",
	"SERVER_PORT":             8080,
	"SERVER_READ_TIMEOUT":     15 * time.Second,
	"SERVER_WRITE_TIMEOUT":    15 * time.Second,
	"SERVER_IDLE_TIMEOUT":     60 * time.Second,
	"SERVER_SHUTDOWN_TIMEOUT": 30 * time.Second,
	"SERVER_TRUSTED_PROXIES":  "",
	"TLS_ENABLED":             false,
	"TLS_CERT_FILE":           "",
	"TLS_KEY_FILE":            "",
	"TLS_CLIENT_CA_FILE":      "",

	"DB_DRIVER":               DriverPostgres,
	"DB_SQLITE_PATH":          "wardbook.db",
	"DB_HOST":                 "localhost",
	"DB_PORT":                 5432,
	"DB_NAME":                 "wardbook",
	"DB_USER":                 "wardbook",
	"DB_PASSWORD":             "",
	"DB_SSLMODE":              "require",
	"DB_MAX_OPEN_CONNS":       25,
	"DB_MAX_IDLE_CONNS":       10,
	"DB_CONN_MAX_LIFETIME":    30 * time.Minute,
	"DB_CONN_MAX_IDLE_TIME":   5 * time.Minute,
	"DB_SLOW_QUERY_THRESHOLD": 200 * time.Millisecond,

	"JWT_SECRET":      "",
	"JWT_ACCESS_TTL":  15 * time.Minute,
	"JWT_REFRESH_TTL": 7 * 24 * time.Hour,
	"JWT_ISSUER":      "wardbook-api",

	"LOG_LEVEL":  "info",
	"LOG_FORMAT": "json",
	"LOG_OUTPUT": "stdout",

	"TRACING_ENABLED":      false,
	"TRACING_SERVICE_NAME": "wardbook-api",
	"OTLP_ENDPOINT":        "otel-collector:4318",
	"OTLP_INSECURE":        true,
	"TRACING_SAMPLE_RATE":  0.1,
	"CORS_ALLOWED_ORIGINS": "http://localhost:3000",
	"CORS_ALLOWED_METHODS": "GET,POST,PUT,PATCH,DELETE,OPTIONS",
	"CORS_ALLOWED_HEADERS": "Authorization,Content-Type,X-Request-ID",
	"CORS_MAX_AGE":         12 * time.Hour,
	"RATE_LIMIT_RPS":       100.0,
	"RATE_LIMIT_BURST":     200,
	"RATE_LIMIT_AUTH_RPM":  10,
	"API_REQUIRE_AUTH":     false,
	"OPTIONS_CACHE_TTL":    5 * time.Minute,
	"APPLICATION_FILE":     "",
	"GLOSS_ENABLED":        false,
	"GLOSS_SINKS":          "webhook",
	"GLOSS_URL_BASE":       "http://localhost:6767/",
	"GLOSS_SERVICE_TYPE":   "wardbook",
	"GLOSS_BRAND_NAME":     "Wardbook",
	"GLOSS_BUFFER_SIZE":    1000,
	"GLOSS_SEND_TIMEOUT":   5 * time.Second,
	"GLOSS_REDIS_ADDR":     "localhost:6379",
	"GLOSS_REDIS_PASSWORD": "",
	"GLOSS_REDIS_DB":       0,
	"GLOSS_REDIS_STREAM":   "wardbook:changes",
	"GLOSS_REDIS_MAXLEN":   100_000,
	"GLOSS_KAFKA_BROKERS":  "localhost:9092",
	"GLOSS_KAFKA_TOPIC":    "wardbook.changes",

	"AUDIT_BUFFER_SIZE":      10_000,
	"AUDIT_BATCH_SIZE":       100,
	"AUDIT_FLUSH_INTERVAL":   time.Second,
	"AUDIT_SHUTDOWN_TIMEOUT": 10 * time.Second,
}

// Load reads configuration from the environment, after loading a .env file
// from the working directory when one exists.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}
	v.AutomaticEnv()
	return v
}

// FromViper builds a Config from v and validates it.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        v.GetString("APP_NAME"),
			Environment: v.GetString("APP_ENV"),
			Version:     v.GetString("APP_VERSION"),
		},
		Server: ServerConfig{
			Host:            v.GetString("SERVER_HOST"),
			Port:            v.GetInt("SERVER_PORT"),
			ReadTimeout:     v.GetDuration("SERVER_READ_TIMEOUT"),
			WriteTimeout:    v.GetDuration("SERVER_WRITE_TIMEOUT"),
			IdleTimeout:     v.GetDuration("SERVER_IDLE_TIMEOUT"),
			ShutdownTimeout: v.GetDuration("SERVER_SHUTDOWN_TIMEOUT"),
			TrustedProxies:  splitList(v.GetString("SERVER_TRUSTED_PROXIES")),
			TLS: TLSConfig{
				Enabled:      v.GetBool("TLS_ENABLED"),
				CertFile:     v.GetString("TLS_CERT_FILE"),
				KeyFile:      v.GetString("TLS_KEY_FILE"),
				ClientCAFile: v.GetString("TLS_CLIENT_CA_FILE"),
			},
		},
		Database: DatabaseConfig{
			Driver:             strings.ToLower(v.GetString("DB_DRIVER")),
			SQLitePath:         v.GetString("DB_SQLITE_PATH"),
			Host:               v.GetString("DB_HOST"),
			Port:               v.GetInt("DB_PORT"),
			Name:               v.GetString("DB_NAME"),
			User:               v.GetString("DB_USER"),
			Password:           v.GetString("DB_PASSWORD"),
			SSLMode:            v.GetString("DB_SSLMODE"),
			MaxOpenConns:       v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:       v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime:    v.GetDuration("DB_CONN_MAX_LIFETIME"),
			ConnMaxIdleTime:    v.GetDuration("DB_CONN_MAX_IDLE_TIME"),
			SlowQueryThreshold: v.GetDuration("DB_SLOW_QUERY_THRESHOLD"),
		},
		JWT: JWTConfig{
			Secret:          v.GetString("JWT_SECRET"),
			AccessTokenTTL:  v.GetDuration("JWT_ACCESS_TTL"),
			RefreshTokenTTL: v.GetDuration("JWT_REFRESH_TTL"),
			Issuer:          v.GetString("JWT_ISSUER"),
		},
		Log: LogConfig{
			Level:      v.GetString("LOG_LEVEL"),
			Format:     v.GetString("LOG_FORMAT"),
			OutputPath: v.GetString("LOG_OUTPUT"),
		},
		Tracing: TracingConfig{
			Enabled:      v.GetBool("TRACING_ENABLED"),
			ServiceName:  v.GetString("TRACING_SERVICE_NAME"),
			OTLPEndpoint: v.GetString("OTLP_ENDPOINT"),
			Insecure:     v.GetBool("OTLP_INSECURE"),
			SampleRate:   v.GetFloat64("TRACING_SAMPLE_RATE"),
		},
		CORS: CORSConfig{
			AllowedOrigins: splitList(v.GetString("CORS_ALLOWED_ORIGINS")),
			AllowedMethods: splitList(v.GetString("CORS_ALLOWED_METHODS")),
			AllowedHeaders: splitList(v.GetString("CORS_ALLOWED_HEADERS")),
			MaxAge:         v.GetDuration("CORS_MAX_AGE"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond:     v.GetFloat64("RATE_LIMIT_RPS"),
			BurstSize:             v.GetInt("RATE_LIMIT_BURST"),
			AuthRequestsPerMinute: v.GetInt("RATE_LIMIT_AUTH_RPM"),
		},
		API: APIConfig{
			RequireAuth:     v.GetBool("API_REQUIRE_AUTH"),
			OptionsCacheTTL: v.GetDuration("OPTIONS_CACHE_TTL"),
		},
		Glossolalia: GlossolaliaConfig{
			Enabled:       v.GetBool("GLOSS_ENABLED"),
			Sinks:         splitList(v.GetString("GLOSS_SINKS")),
			URLBase:       v.GetString("GLOSS_URL_BASE"),
			ServiceType:   v.GetString("GLOSS_SERVICE_TYPE"),
			BrandName:     v.GetString("GLOSS_BRAND_NAME"),
			BufferSize:    v.GetInt("GLOSS_BUFFER_SIZE"),
			SendTimeout:   v.GetDuration("GLOSS_SEND_TIMEOUT"),
			RedisAddr:     v.GetString("GLOSS_REDIS_ADDR"),
			RedisPassword: v.GetString("GLOSS_REDIS_PASSWORD"),
			RedisDB:       v.GetInt("GLOSS_REDIS_DB"),
			RedisStream:   v.GetString("GLOSS_REDIS_STREAM"),
			RedisMaxLen:   v.GetInt64("GLOSS_REDIS_MAXLEN"),
			KafkaBrokers:  splitList(v.GetString("GLOSS_KAFKA_BROKERS")),
			KafkaTopic:    v.GetString("GLOSS_KAFKA_TOPIC"),
		},
		Audit: AuditConfig{
			BufferSize:      v.GetInt("AUDIT_BUFFER_SIZE"),
			BatchSize:       v.GetInt("AUDIT_BATCH_SIZE"),
			FlushInterval:   v.GetDuration("AUDIT_FLUSH_INTERVAL"),
			ShutdownTimeout: v.GetDuration("AUDIT_SHUTDOWN_TIMEOUT"),
		},
		Application: ApplicationConfig{
			Path: v.GetString("APPLICATION_FILE"),
		},
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate enforces production security requirements.
func validate(cfg *Config) error {
	var errs []string

	if cfg.JWT.Secret == "" {
		errs = append(errs, "JWT_SECRET is required")
	} else if len(cfg.JWT.Secret) < 32 && cfg.App.Environment == "production" {
		errs = append(errs, "JWT_SECRET must be at least 32 characters in production")
	}

	switch cfg.Database.Driver {
	case DriverPostgres:
		if cfg.Database.Password == "" && cfg.App.Environment != "development" {
			errs = append(errs, "DB_PASSWORD is required in non-development environments")
		}
		if cfg.Database.SSLMode == "disable" && cfg.App.Environment == "production" {
			errs = append(errs, "DB_SSLMODE=disable is not allowed in production")
		}
	case DriverSQLite:
		if cfg.App.Environment == "production" {
			errs = append(errs, "DB_DRIVER=sqlite is not allowed in production")
		}
	default:
		errs = append(errs, fmt.Sprintf("DB_DRIVER %q is not supported", cfg.Database.Driver))
	}

	if cfg.Server.TLS.Enabled && (cfg.Server.TLS.CertFile == "" || cfg.Server.TLS.KeyFile == "") {
		errs = append(errs, "TLS_CERT_FILE and TLS_KEY_FILE are required when TLS_ENABLED=true")
	}

	if cfg.Glossolalia.Enabled {
		for _, s := range cfg.Glossolalia.Sinks {
			switch s {
			case "webhook", "redis", "kafka", "log":
			default:
				errs = append(errs, fmt.Sprintf("GLOSS_SINKS: unknown sink %q", s))
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

// splitList splits a comma separated value, dropping blanks.
func splitList(v string) []string {
	parts := strings.Split(v, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			result = append(result, t)
		}
	}
	return result
}
