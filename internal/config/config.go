// Package config assembles the data layer's runtime configuration.
//
// A Config is built exactly once, at process start, and treated as read-only
// afterwards. Values come out of a fixed priority chain, highest first:
//
//	1. OS environment variables
//	2. entries from a .env file
//	3. AWS SSM Parameter Store, via *_SSM_PARAM pointers
//
// A required value that is missing or malformed stops startup; nothing runs
// against a half-formed Config.
package config

import (
	"time"

	"lodgebook/internal/types"
)

// SecretString aliases types.SecretString so config consumers get redaction
// without importing types directly.
type SecretString = types.SecretString

// Config is everything the data layer needs from its environment. Consumers
// receive the narrow sub-struct they care about, never the whole thing.
type Config struct {
	Environment string `envconfig:"APP_ENV" default:"local" validate:"required,oneof=local dev staging prod"`
	Service     string `envconfig:"SERVICE_NAME" default:"lodgebook-db"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Database DatabaseConfig
	AWS      AWSConfig

	// Stamped by the linker, never read from the environment.
	Build BuildInfo
}

// DatabaseConfig carries the Postgres DSN plus pool tuning knobs.
type DatabaseConfig struct {
	URL SecretString `envconfig:"DATABASE_URL" validate:"required"`

	MaxConns          int           `envconfig:"DB_MAX_CONNS" default:"10"`
	MinConns          int           `envconfig:"DB_MIN_CONNS" default:"2"`
	MaxConnLifetime   time.Duration `envconfig:"DB_MAX_CONN_LIFETIME" default:"30m"`
	ConnectTimeout    time.Duration `envconfig:"DB_CONNECT_TIMEOUT" default:"5s"`
	HealthCheckPeriod time.Duration `envconfig:"DB_HEALTH_CHECK_PERIOD" default:"1m"`
}

// AWSConfig scopes the SSM client used for secret resolution. It is only
// consulted when APP_ENV names a deployed environment.
type AWSConfig struct {
	Region string `envconfig:"AWS_REGION" default:"us-east-1"`
}

// BuildInfo identifies the binary. Values arrive through -ldflags at build
// time, see build.go.
type BuildInfo struct {
	Version   string
	Commit    string
	BuildTime string
}
