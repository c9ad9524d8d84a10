package config

import "context"

// SecretProvider hides where secret values actually live. Deployed
// environments resolve against AWS SSM Parameter Store; local development
// reads plain environment variables; tests substitute fakes.
type SecretProvider interface {
	// GetParametersBatch resolves the given parameter paths and returns a
	// map of path to plaintext value. Paths that could not be resolved are
	// absent from the map; whether that is fatal is the caller's call.
	// Implementations own their batching and rate-limit handling.
	GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error)
}
