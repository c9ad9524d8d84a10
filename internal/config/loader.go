// loader.go drives how a Config comes together. Order matters:
//
//  1. Pin the process clock to UTC.
//  2. Overlay .env if present; it never overrides real environment values.
//  3. Outside local development, resolve *_SSM_PARAM pointers through the
//     SecretProvider and inject the results as plain variables.
//  4. Let envconfig fill the struct, stamp build metadata, validate.
package config

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// ConfigErrorType names the loading phase that failed.
type ConfigErrorType string

const (
	ErrMissingEnv    ConfigErrorType = "MISSING_ENV"       // a required variable is absent
	ErrSSMResolution ConfigErrorType = "SSM_FAILURE"       // parameter store lookup went wrong
	ErrValidation    ConfigErrorType = "VALIDATION_FAILED" // struct rules rejected the result
	ErrParsing       ConfigErrorType = "PARSING_FAILED"    // a value would not parse into its field
)

// ConfigError reports where loading failed and why. The phase stays
// machine-readable so startup code can branch on it.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error renders "[TYPE] message" with the cause appended when present.
func (e *ConfigError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("[%s] %s", e.Type, e.Message)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}

// ssmParamSuffix marks pointer variables: FOO_SSM_PARAM holds the SSM path
// whose decrypted value should land in FOO.
const ssmParamSuffix = "_SSM_PARAM"

// localEnv is the APP_ENV value for local development. An unset APP_ENV
// means the same thing, matching the struct default.
const localEnv = "local"

// ssmResolveTimeout bounds the single batch call made while loading.
const ssmResolveTimeout = 30 * time.Second

// loaderDeps injects the process-environment operations so tests can run the
// loader against a plain map instead of mutating real environment state.
type loaderDeps struct {
	lookupEnv func(key string) (string, bool)
	setEnv    func(key, value string) error
	environ   func() []string
}

func defaultDeps() loaderDeps {
	return loaderDeps{lookupEnv: os.LookupEnv, setEnv: os.Setenv, environ: os.Environ}
}

// LoadConfig assembles and validates the module configuration from the
// process environment plus an optional .env overlay. provider supplies SSM
// values for deployed environments; pass nil for local development, where
// no SSM resolution happens.
func LoadConfig(provider SecretProvider) (*Config, error) {
	return loadConfigWithDeps(provider, defaultDeps())
}

func loadConfigWithDeps(provider SecretProvider, deps loaderDeps) (*Config, error) {
	// Reservation and report windows are calendar dates. Pinning the
	// process to UTC before anything reads a clock keeps them stable.
	time.Local = time.UTC

	// godotenv never overrides variables that are already set, which is
	// what keeps the priority chain intact. A missing .env is fine.
	_ = godotenv.Load()

	// SSM resolution only applies to deployed environments.
	if env, _ := deps.lookupEnv("APP_ENV"); env != "" && env != localEnv {
		if err := resolveSSMParams(provider, deps); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, &ConfigError{Type: ErrParsing, Message: "processing environment variables", Err: err}
	}
	cfg.Build = NewBuildInfo()

	if err := validator.New().Struct(cfg); err != nil {
		return nil, &ConfigError{Type: ErrValidation, Message: "configuration validation failed", Err: err}
	}
	return &cfg, nil
}

// resolveSSMParams turns pointer variables into real ones. For each
// FOO_SSM_PARAM=/path in the environment whose FOO is still unset, the
// value at /path is fetched through the provider and injected as FOO.
// Values already present win: the OS environment and .env outrank the
// parameter store.
func resolveSSMParams(provider SecretProvider, deps loaderDeps) error {
	// Several pointers may name the same path, so group targets by path.
	pending := make(map[string][]string)
	for _, entry := range deps.environ() {
		key, path, ok := strings.Cut(entry, "=")
		if !ok || !strings.HasSuffix(key, ssmParamSuffix) || path == "" {
			continue
		}
		target := strings.TrimSuffix(key, ssmParamSuffix)
		if _, set := deps.lookupEnv(target); set {
			continue
		}
		pending[path] = append(pending[path], target)
	}
	if len(pending) == 0 {
		return nil
	}

	paths := make([]string, 0, len(pending))
	for path := range pending {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	if provider == nil {
		var targets []string
		for _, path := range paths {
			targets = append(targets, pending[path]...)
		}
		return &ConfigError{
			Type:    ErrSSMResolution,
			Message: fmt.Sprintf("no SecretProvider configured, cannot resolve: %s", strings.Join(targets, ", ")),
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), ssmResolveTimeout)
	defer cancel()

	values, err := provider.GetParametersBatch(ctx, paths)
	if err != nil {
		return &ConfigError{
			Type:    ErrSSMResolution,
			Message: fmt.Sprintf("resolving %d SSM parameters", len(paths)),
			Err:     err,
		}
	}

	var unresolved []string
	for _, path := range paths {
		value, ok := values[path]
		if !ok {
			unresolved = append(unresolved, pending[path]...)
			continue
		}
		for _, target := range pending[path] {
			if err := deps.setEnv(target, value); err != nil {
				return &ConfigError{
					Type:    ErrSSMResolution,
					Message: fmt.Sprintf("injecting resolved value into %s", target),
					Err:     err,
				}
			}
		}
	}
	if len(unresolved) > 0 {
		return &ConfigError{
			Type:    ErrSSMResolution,
			Message: fmt.Sprintf("SSM returned no value for: %s", strings.Join(unresolved, ", ")),
		}
	}
	return nil
}
