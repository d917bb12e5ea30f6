package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() Config {
	return Config{
		Server: ServerConfig{Host: "0.0.0.0", Port: "8080", ShutdownTimeout: 15 * time.Second},
		OTLP:   OTLPConfig{Endpoint: "localhost:4317", ServiceName: "products-api", Environment: "test"},
		Storage: StorageConfig{
			Driver:      DriverMemory,
			DatabaseURL: "postgres://localhost/products",
			RedisURL:    "redis://localhost:6379/0",
			SeedCount:   10,
		},
		HTTP: HTTPConfig{CORSAllowedOrigins: "*", RateLimit: 100},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "memory driver", mutate: func(*Config) {}},
		{name: "postgres driver", mutate: func(c *Config) { c.Storage.Driver = DriverPostgres }},
		{name: "redis driver", mutate: func(c *Config) { c.Storage.Driver = DriverRedis }},
		{name: "rate limit disabled", mutate: func(c *Config) { c.HTTP.RateLimit = 0 }},
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.Storage.Driver = "mongo" },
			wantErr: `unknown STORAGE_DRIVER "mongo"`,
		},
		{
			name: "postgres without url",
			mutate: func(c *Config) {
				c.Storage.Driver = DriverPostgres
				c.Storage.DatabaseURL = ""
			},
			wantErr: "DATABASE_URL is required",
		},
		{
			name: "redis without url",
			mutate: func(c *Config) {
				c.Storage.Driver = DriverRedis
				c.Storage.RedisURL = ""
			},
			wantErr: "REDIS_URL is required",
		},
		{
			name:    "memory ignores missing urls",
			mutate:  func(c *Config) { c.Storage.DatabaseURL, c.Storage.RedisURL = "", "" },
			wantErr: "",
		},
		{
			name:    "negative seed count",
			mutate:  func(c *Config) { c.Storage.SeedCount = -1 },
			wantErr: "STORAGE_SEED_COUNT",
		},
		{
			name:    "empty port",
			mutate:  func(c *Config) { c.Server.Port = " " },
			wantErr: "SERVER_PORT",
		},
		{
			name:    "zero shutdown timeout",
			mutate:  func(c *Config) { c.Server.ShutdownTimeout = 0 },
			wantErr: "SERVER_SHUTDOWN_TIMEOUT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)

			err := cfg.Validate()
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Driver = "mongo"
	cfg.HTTP.RateLimit = -5

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "STORAGE_DRIVER")
	assert.Contains(t, err.Error(), "HTTP_RATE_LIMIT")
}

func TestAllowedOrigins(t *testing.T) {
	tests := []struct {
		in   string
		want []string
	}{
		{"*", []string{"*"}},
		{"https://a.example, https://b.example", []string{"https://a.example", "https://b.example"}},
		{" , ", nil},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, HTTPConfig{CORSAllowedOrigins: tt.in}.AllowedOrigins(), tt.in)
	}
}

func TestServerAddr(t *testing.T) {
	assert.Equal(t, "127.0.0.1:9090", ServerConfig{Host: "127.0.0.1", Port: "9090"}.Addr())
}
