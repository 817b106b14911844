package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cfg, err := FromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, "wardbook", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0:8080", cfg.Server.Address())
	assert.Equal(t, DriverPostgres, cfg.Database.Driver)
	assert.Equal(t, 15*time.Minute, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}, cfg.CORS.AllowedMethods)
	assert.Equal(t, []string{"webhook"}, cfg.Glossolalia.Sinks)
	assert.False(t, cfg.Glossolalia.Enabled)
	assert.Equal(t, 5*time.Minute, cfg.API.OptionsCacheTTL)
	assert.Equal(t, 100, cfg.Audit.BatchSize)
	assert.Equal(t, time.Second, cfg.Audit.FlushInterval)
	assert.InDelta(t, 100.0, cfg.RateLimit.RequestsPerSecond, 0)
}

func TestFromViper_EnvOverrides(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")
	t.Setenv("DB_DRIVER", "SQLite")
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("JWT_ACCESS_TTL", "2m")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example ,")
	t.Setenv("GLOSS_ENABLED", "true")
	t.Setenv("GLOSS_SINKS", "redis,kafka")

	cfg, err := FromViper(newViper())
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, cfg.Database.Driver)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2*time.Minute, cfg.JWT.AccessTokenTTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, []string{"redis", "kafka"}, cfg.Glossolalia.Sinks)
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
		want string
	}{
		{"missing secret", map[string]string{}, "JWT_SECRET is required"},
		{"short production secret", map[string]string{"JWT_SECRET": "short", "APP_ENV": "production", "DB_PASSWORD": "pw"}, "at least 32 characters"},
		{"postgres password outside development", map[string]string{"JWT_SECRET": "x", "APP_ENV": "staging"}, "DB_PASSWORD is required"},
		{"unknown driver", map[string]string{"JWT_SECRET": "x", "DB_DRIVER": "oracle"}, "not supported"},
		{"sqlite in production", map[string]string{"JWT_SECRET": "0123456789abcdef0123456789abcdef", "APP_ENV": "production", "DB_DRIVER": "sqlite"}, "sqlite is not allowed"},
		{"tls without files", map[string]string{"JWT_SECRET": "x", "TLS_ENABLED": "true"}, "TLS_CERT_FILE"},
		{"unknown sink", map[string]string{"JWT_SECRET": "x", "GLOSS_ENABLED": "true", "GLOSS_SINKS": "pigeon"}, "unknown sink"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("JWT_SECRET", "")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := FromViper(newViper())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)
		})
	}
}

func TestDatabaseDSN(t *testing.T) {
	d := DatabaseConfig{Host: "db", Port: 5432, Name: "wb", User: "u", Password: "p", SSLMode: "disable"}
	assert.Equal(t, "host=db user=u password=p dbname=wb port=5432 sslmode=disable TimeZone=UTC", d.DSN())
}
