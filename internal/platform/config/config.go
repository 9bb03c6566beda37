// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into strongly-typed
Go structs, providing early validation and default values.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Two schemas live here:

  - [Config]: the client orchestrator (CLI shell, storage backend, identity URL).
  - [SandboxConfig]: the local identity service used for development and tests.

Both are immutable once loaded and passed to components via constructors.
*/
package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// # Storage Backends

// Supported values of [Config.Storage].
const (
	StorageMemory = "memory"
	StorageFile   = "file"
	StorageRedis  = "redis"
)

// # Client Configuration Schema

// Config holds all runtime configuration for the Gigly client.
type Config struct {

	// Identity service base URL (scheme + host, no trailing path)
	APIURL      string        `env:"GIGLY_API_URL"      envDefault:"http://localhost:8080"`
	HTTPTimeout time.Duration `env:"GIGLY_HTTP_TIMEOUT" envDefault:"15s"`

	// Durable client state
	Storage   string `env:"GIGLY_STORAGE"    envDefault:"file"`
	StateFile string `env:"GIGLY_STATE_FILE" envDefault:"~/.gigly/state.json"`
	RedisURL  string `env:"GIGLY_REDIS_URL"`
	DeviceID  string `env:"GIGLY_DEVICE_ID"`

	// Institutional suffixes accepted for helper emails
	EmailSuffixes []string `env:"GIGLY_EMAIL_SUFFIXES" envSeparator:"," envDefault:".edu,.ac.uk,.edu.au,.ac.jp"`

	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	Debug       bool   `env:"DEBUG"       envDefault:"false"`
}

// # Sandbox Configuration Schema

// SandboxConfig holds the runtime configuration of the sandbox identity service.
type SandboxConfig struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL). Accounts stay in memory when empty.
	DatabaseURL string `env:"DATABASE_URL"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis). OTP codes stay in memory when empty.
	RedisURL string `env:"REDIS_URL"`

	// RSA keys for access-token signing. An ephemeral pair is generated when empty.
	JWTPrivKeyPath string `env:"JWT_PRIVATE_KEY_PATH"`
	JWTPubKeyPath  string `env:"JWT_PUBLIC_KEY_PATH"`

	// FixedOTP makes every issued code equal to this value (local testing only).
	FixedOTP string `env:"SANDBOX_FIXED_OTP"`

	AccessTokenTTL time.Duration `env:"ACCESS_TOKEN_TTL"        envDefault:"15m"`
	OTPCodeTTL     time.Duration `env:"OTP_CODE_TTL"            envDefault:"5m"`
	ResendInterval time.Duration `env:"SANDBOX_RESEND_INTERVAL" envDefault:"60s"`

	// Institutional suffixes accepted for helper emails
	EmailSuffixes []string `env:"SANDBOX_EMAIL_SUFFIXES" envSeparator:"," envDefault:".edu,.ac.uk,.edu.au,.ac.jp"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
func Load() (*Config, error) {

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	// Reject unknown storage backends early rather than at first write.
	switch cfg.Storage {
	case StorageMemory, StorageFile:
	case StorageRedis:
		if cfg.RedisURL == "" {
			return nil, fmt.Errorf("config: GIGLY_REDIS_URL is required for redis storage")
		}
	default:
		return nil, fmt.Errorf("config: unknown storage backend %q", cfg.Storage)
	}

	return cfg, nil
}

// LoadSandbox parses environment variables into a [SandboxConfig] struct.
func LoadSandbox() (*SandboxConfig, error) {
	cfg := &SandboxConfig{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	// Key paths only make sense as a pair.
	if (cfg.JWTPrivKeyPath == "") != (cfg.JWTPubKeyPath == "") {
		return nil, fmt.Errorf("config: JWT_PRIVATE_KEY_PATH and JWT_PUBLIC_KEY_PATH must be set together")
	}

	return cfg, nil
}

// IsDevelopment reports whether the client is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsDevelopment reports whether the sandbox is running in development mode.
func (c *SandboxConfig) IsDevelopment() bool {
	return c.Environment == "development"
}
