// Copyright (c) 2026 SecretBox. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package config handles application-wide settings and environment parsing.

It leverages 'caarlos0/env' to map OS environment variables into a strongly-typed
Go struct, providing early validation and default values. A local '.env' file is
merged first (via 'joho/godotenv') so developers do not have to export secrets
into their shell.

Usage:

	cfg, err := config.Load()
	if err != nil {
	    log.Fatal(err)
	}

Architecture:

  - Immutability: Once loaded, configuration is read-only.
  - DI-Friendly: Passed to core components (DB, Redis, Token Codec) via constructors.
  - Zero Hidden State: No global variables are used to store config.
*/
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// # Configuration Schema

// Config holds all runtime configuration for the SecretBox API server.
type Config struct {

	// Server settings
	ServerPort  string `env:"SERVER_PORT"  envDefault:"8080"`
	Environment string `env:"ENVIRONMENT"  envDefault:"development"`
	Debug       bool   `env:"DEBUG"        envDefault:"false"`

	// Relational Database (PostgreSQL)
	DatabaseURL string `env:"DATABASE_URL,required"`

	// MigrationPath is the filesystem path to the SQL migrations directory.
	MigrationPath string `env:"MIGRATION_PATH" envDefault:"./data/migrations"`

	// Key-Value Cache (Redis)
	RedisURL string `env:"REDIS_URL,required"`

	// Signing keys. One pair per tier, one key per token use.
	AccessUserSignature    string `env:"ACCESS_USER_TOKEN_SIGNATURE,required"`
	RefreshUserSignature   string `env:"REFRESH_USER_TOKEN_SIGNATURE,required"`
	AccessSystemSignature  string `env:"ACCESS_SYSTEM_TOKEN_SIGNATURE,required"`
	RefreshSystemSignature string `env:"REFRESH_SYSTEM_TOKEN_SIGNATURE,required"`

	// EncryptionKey protects reversible PII (phone numbers).
	EncryptionKey string `env:"ENCRYPTION_KEY,required"`

	// BcryptCost is the adaptive cost factor for password and OTP hashes.
	BcryptCost int `env:"BCRYPT_COST" envDefault:"10"`

	// Google sign-in audiences (OAuth web client ids).
	WebClientIDs []string `env:"WEB_CLIENT_IDS" envSeparator:","`

	// Outbound email queue. Emails are only logged when AMQPURL is empty.
	AMQPURL    string `env:"AMQP_URL"`
	MailQueue  string `env:"MAIL_QUEUE"  envDefault:"mail.outbound"`
	MailSender string `env:"MAIL_SENDER" envDefault:"SecretBox <no-reply@secretbox.app>"`

	// Object Storage (MinIO / S3-compatible) for user media.
	MinioEndpoint  string `env:"MINIO_ENDPOINT"`
	MinioAccessKey string `env:"MINIO_ACCESS_KEY"`
	MinioSecretKey string `env:"MINIO_SECRET_KEY"`
	MinioBucket    string `env:"MINIO_BUCKET" envDefault:"secretbox"`
	MinioUseSSL    bool   `env:"MINIO_USE_SSL" envDefault:"false"`

	// Cross-Origin Resource Sharing
	CORSOrigins []string `env:"CORS_ORIGINS" envSeparator:","`

	// ReaperSchedule is the cron spec of the daily revocation sweep.
	ReaperSchedule string `env:"REAPER_SCHEDULE" envDefault:"0 1 * * *"`
}

// # Configuration Loading

// Load parses environment variables into a [Config] struct.
//
// Values already present in the process environment win over the '.env' file.
func Load() (*Config, error) {

	// A missing .env file is the normal case in containers.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("config: failed to read .env file: %w", err)
	}

	// Initialize an empty config struct
	cfg := &Config{}

	// Use the 'env' package to map environment variables to struct fields.
	// This will fail if any field marked with 'required' is missing.
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to parse environment variables: %w", err)
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// validate enforces cross-field rules that struct tags cannot express.
func (c *Config) validate() error {
	keys := []string{c.AccessUserSignature, c.RefreshUserSignature, c.AccessSystemSignature, c.RefreshSystemSignature}
	seen := make(map[string]struct{}, len(keys))
	for _, key := range keys {
		if _, dup := seen[key]; dup {
			return errors.New("config: every token signature must be distinct")
		}
		seen[key] = struct{}{}
	}

	if c.BcryptCost < 4 || c.BcryptCost > 31 {
		return fmt.Errorf("config: BCRYPT_COST must be between 4 and 31, got %d", c.BcryptCost)
	}

	return nil
}

// IsDevelopment reports whether the server is running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction reports whether the server is running in production mode.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// AllowedOrigins returns the trimmed, non-empty CORS origins.
func (c *Config) AllowedOrigins() []string {
	origins := make([]string, 0, len(c.CORSOrigins))
	for _, origin := range c.CORSOrigins {
		if trimmed := strings.TrimSpace(origin); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

// MediaStorageEnabled reports whether an object store is configured.
func (c *Config) MediaStorageEnabled() bool {
	return strings.TrimSpace(c.MinioEndpoint) != ""
}

// MailQueueEnabled reports whether outbound email is queued to RabbitMQ.
func (c *Config) MailQueueEnabled() bool {
	return strings.TrimSpace(c.AMQPURL) != ""
}
