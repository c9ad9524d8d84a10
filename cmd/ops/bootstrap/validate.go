package main

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
)

// ValidationResult is the outcome of one input check: a pass/fail flag plus
// a message the CLI shows the operator either way.
type ValidationResult struct {
	Valid   bool
	Message string
}

func fail(format string, args ...any) ValidationResult {
	return ValidationResult{Message: fmt.Sprintf(format, args...)}
}

func pass(format string, args ...any) ValidationResult {
	return ValidationResult{Valid: true, Message: fmt.Sprintf(format, args...)}
}

// DatabaseConnector is the dial-and-close probe behind database URL
// validation. Production uses pgx; tests inject a fake. Implementations
// must not leave the connection open.
type DatabaseConnector interface {
	Connect(ctx context.Context, dsn string) error
}

// PgxConnector dials the database for real.
type PgxConnector struct{}

// Connect opens a pgx connection and closes it straight away. The point is
// proving the DSN is reachable and the credentials work, not holding a
// connection.
func (c *PgxConnector) Connect(ctx context.Context, dsn string) error {
	conn, err := pgx.Connect(ctx, dsn)
	if err != nil {
		return err
	}
	return conn.Close(ctx)
}

// Validator bundles the dependencies the input checks need. One instance is
// built when the bootstrap session starts and shared across inventory steps.
type Validator struct {
	dbConn DatabaseConnector
}

// NewValidator builds a Validator with production dependencies.
func NewValidator() *Validator {
	return &Validator{dbConn: &PgxConnector{}}
}

// NewValidatorWithDeps builds a Validator around injected dependencies.
// Intended for tests.
func NewValidatorWithDeps(dbConn DatabaseConnector) *Validator {
	return &Validator{dbConn: dbConn}
}

// validateTimeout bounds one active probe, covering DNS resolution and the
// TLS handshake as well as the connection attempt itself.
const validateTimeout = 15 * time.Second

// ValidateDatabaseURL checks a PostgreSQL connection string in three stages:
// the URL must parse with a postgres:// or postgresql:// scheme, it must
// name a host, and a live connection attempt must succeed. The probe
// connection is closed as soon as it is established.
func (v *Validator) ValidateDatabaseURL(ctx context.Context, rawURL string) ValidationResult {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return fail("database URL must not be empty")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return fail("invalid URL format: %v", err)
	}
	if parsed.Scheme != "postgres" && parsed.Scheme != "postgresql" {
		return fail("expected postgres:// or postgresql:// scheme, got %q", parsed.Scheme)
	}
	if parsed.Hostname() == "" {
		return fail("database URL must include a host")
	}

	connCtx, cancel := context.WithTimeout(ctx, validateTimeout)
	defer cancel()

	if err := v.dbConn.Connect(connCtx, rawURL); err != nil {
		return fail("connection failed: %v", err)
	}

	return pass("database connection verified (host=%s)", parsed.Hostname())
}

// Levels the service's slog setup understands.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// ValidateLogLevel accepts debug, info, warn, or error in any case. The
// value is stored as entered.
func (v *Validator) ValidateLogLevel(_ context.Context, level string) ValidationResult {
	level = strings.TrimSpace(level)
	if level == "" {
		return fail("log level must not be empty")
	}
	if !validLogLevels[strings.ToLower(level)] {
		return fail("log level must be one of debug, info, warn, error (got %q)", level)
	}
	return pass("log level %q accepted", strings.ToLower(level))
}
