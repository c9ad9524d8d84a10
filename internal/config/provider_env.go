package config

import (
	"context"
	"os"
)

// EnvVarProvider implements SecretProvider on top of plain environment
// variables. It serves local development and CI, where DATABASE_URL is
// exported directly (or via .env) and no SSM Parameter Store exists.
type EnvVarProvider struct{}

// NewEnvVarProvider returns a provider reading from the process environment.
func NewEnvVarProvider() *EnvVarProvider {
	return &EnvVarProvider{}
}

// GetParametersBatch looks each key up with os.LookupEnv. Unset keys are
// left out of the result rather than reported as errors; the loader decides
// whether an unresolved secret is fatal.
//
// The context exists to satisfy the interface. Environment reads cannot
// block, so it is never consulted.
func (p *EnvVarProvider) GetParametersBatch(_ context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		if v, ok := os.LookupEnv(key); ok {
			out[key] = v
		}
	}
	return out, nil
}
