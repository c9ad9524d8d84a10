package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	ssmtypes "github.com/aws/aws-sdk-go-v2/service/ssm/types"
)

// SSMClient is the slice of the AWS SSM API the bootstrap tool calls.
// Tests substitute a recording fake.
type SSMClient interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
	PutParameter(ctx context.Context, params *ssm.PutParameterInput, optFns ...func(*ssm.Options)) (*ssm.PutParameterOutput, error)
}

// SSMManager reads and writes Parameter Store entries for one target
// environment. It layers path construction, per-call timeouts, logging,
// and error classification over the raw client.
type SSMManager struct {
	client SSMClient
	env    string
	logger *slog.Logger
}

// Generous per-call deadline. First-time setups can hit cross-region
// latency and freshly attached IAM policies that have not propagated.
const ssmOperationTimeout = 15 * time.Second

// NewSSMManager builds a manager on the AWS config established during
// session initialization.
func NewSSMManager(bctx *BootstrapContext) *SSMManager {
	return &SSMManager{
		client: ssm.NewFromConfig(bctx.AWSConfig),
		env:    bctx.Environment,
		logger: bctx.Logger,
	}
}

// NewSSMManagerWithClient builds a manager around an injected client.
// Intended for tests.
func NewSSMManagerWithClient(client SSMClient, env string, logger *slog.Logger) *SSMManager {
	return &SSMManager{client: client, env: env, logger: logger}
}

// SSMPath expands a category/key pair into the full parameter path:
//
//	/{environment}/lodgebook/{category}/{key}
//
// With env "dev", "database/url" becomes "/dev/lodgebook/database/url".
// The config loader resolves *_SSM_PARAM pointers against this same
// hierarchy, so the two sides agree by construction.
func (m *SSMManager) SSMPath(categoryAndKey string) string {
	return fmt.Sprintf("/%s/lodgebook/%s", m.env, categoryAndKey)
}

// ParameterExists probes for a parameter at the given absolute path.
// A missing parameter is (false, nil); only unexpected failures return
// an error. Build the path with SSMPath.
func (m *SSMManager) ParameterExists(ctx context.Context, path string) (bool, error) {
	callCtx, cancel := context.WithTimeout(ctx, ssmOperationTimeout)
	defer cancel()

	_, err := m.client.GetParameter(callCtx, &ssm.GetParameterInput{
		Name: aws.String(path),
		// An existence probe does not need the value, and skipping
		// decryption keeps kms:Decrypt out of the required permissions.
		WithDecryption: aws.Bool(false),
	})
	if err != nil {
		var notFound *ssmtypes.ParameterNotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("checking SSM parameter %q: %w", path, err)
	}
	return true, nil
}

// GetParameterValue reads a parameter back, decrypting SecureStrings when
// decrypt is set. The --export-env flow uses this to rebuild a .env file.
//
// Decrypted values come back in plaintext. Callers own their safe handling;
// this method logs only the value length for decrypted reads.
func (m *SSMManager) GetParameterValue(ctx context.Context, path string, decrypt bool) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, ssmOperationTimeout)
	defer cancel()

	out, err := m.client.GetParameter(callCtx, &ssm.GetParameterInput{
		Name:           aws.String(path),
		WithDecryption: aws.Bool(decrypt),
	})
	if err != nil {
		return "", fmt.Errorf("reading SSM parameter %q: %w", path, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("SSM parameter %q has no value", path)
	}

	val := aws.ToString(out.Parameter.Value)
	attrs := []any{"path", path}
	if decrypt {
		attrs = append(attrs, "value_length", len(val))
	} else {
		attrs = append(attrs, "value", val)
	}
	m.logger.Info("SSM parameter read", attrs...)

	return val, nil
}

// PutSecret stores a SecureString, encrypted at rest with the default KMS
// key. When overwrite is false an existing parameter is an error; when true
// the old value is replaced. The value itself never reaches the logs.
func (m *SSMManager) PutSecret(ctx context.Context, path string, value string, overwrite bool) error {
	return m.putParameter(ctx, path, value, ssmtypes.ParameterTypeSecureString, overwrite)
}

// PutString stores a plaintext String parameter. Suitable for non-sensitive
// settings such as the log level or service name, and always written with
// overwrite so they can be re-run to update.
func (m *SSMManager) PutString(ctx context.Context, path string, value string) error {
	return m.putParameter(ctx, path, value, ssmtypes.ParameterTypeString, true)
}

// putParameter is the common write path: timeout, classification of the
// already-exists case, and type-aware logging.
func (m *SSMManager) putParameter(ctx context.Context, path, value string, kind ssmtypes.ParameterType, overwrite bool) error {
	if path == "" {
		return errors.New("SSM parameter path must not be empty")
	}
	if value == "" {
		return fmt.Errorf("SSM parameter value must not be empty for path %q", path)
	}

	callCtx, cancel := context.WithTimeout(ctx, ssmOperationTimeout)
	defer cancel()

	_, err := m.client.PutParameter(callCtx, &ssm.PutParameterInput{
		Name:      aws.String(path),
		Value:     aws.String(value),
		Type:      kind,
		Overwrite: aws.Bool(overwrite),
	})
	if err != nil {
		var exists *ssmtypes.ParameterAlreadyExists
		if errors.As(err, &exists) {
			m.logger.Warn("SSM parameter already exists (use overwrite to replace)",
				"path", path, "type", string(kind))
			return fmt.Errorf("SSM parameter %q already exists: %w", path, err)
		}
		return fmt.Errorf("writing SSM parameter %q: %w", path, err)
	}

	// SecureStrings log only a length; plain Strings log the value.
	attrs := []any{"path", path, "type", string(kind)}
	if kind == ssmtypes.ParameterTypeSecureString {
		attrs = append(attrs, "value_length", len(value))
	} else {
		attrs = append(attrs, "value", value)
	}
	m.logger.Info("SSM parameter written", attrs...)

	return nil
}
