package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ssmMaxBatchSize is the hard AWS limit on names per GetParameters call.
const ssmMaxBatchSize = 10

// ssmClient is the one slice of the SSM SDK this provider touches, split
// out so tests can substitute a fake.
type ssmClient interface {
	GetParameters(ctx context.Context, params *ssm.GetParametersInput, optFns ...func(*ssm.Options)) (*ssm.GetParametersOutput, error)
}

// SSMProvider resolves SecureString parameters out of AWS Systems Manager
// Parameter Store. Deployed environments keep the database DSN there; this
// provider decrypts it at load time.
//
// Requests run in batches of ssmMaxBatchSize, and the context is consulted
// between batches so a loader timeout cuts resolution short.
type SSMProvider struct {
	region string

	// client stays nil until the first call so that constructing a provider
	// never touches AWS credentials.
	client ssmClient
}

// NewSSMProvider returns a provider bound to the region holding the parameters.
func NewSSMProvider(region string) *SSMProvider {
	return &SSMProvider{region: region}
}

// newSSMProviderWithClient lets tests plant a fake SSM client.
func newSSMProviderWithClient(region string, client ssmClient) *SSMProvider {
	return &SSMProvider{region: region, client: client}
}

// ensureClient builds the real SDK client on first use.
func (p *SSMProvider) ensureClient(ctx context.Context) error {
	if p.client != nil {
		return nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(p.region))
	if err != nil {
		return fmt.Errorf("building the SSM client (region=%s): %w", p.region, err)
	}
	p.client = ssm.NewFromConfig(awsCfg)
	return nil
}

// GetParametersBatch fetches and decrypts the named parameters, ten per API
// call. Any parameter SSM flags as invalid fails the whole resolution: a
// partially configured process is worse than one that refuses to start.
func (p *SSMProvider) GetParametersBatch(ctx context.Context, keys []string) (map[string]string, error) {
	if len(keys) == 0 {
		return map[string]string{}, nil
	}
	if err := p.ensureClient(ctx); err != nil {
		return nil, err
	}

	values := make(map[string]string, len(keys))
	for start := 0; start < len(keys); start += ssmMaxBatchSize {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("SSM resolution interrupted: %w", err)
		}

		batch := keys[start:min(start+ssmMaxBatchSize, len(keys))]
		output, err := p.client.GetParameters(ctx, &ssm.GetParametersInput{
			Names:          batch,
			WithDecryption: aws.Bool(true),
		})
		if err != nil {
			return nil, fmt.Errorf("SSM GetParameters (%d names from offset %d): %w", len(batch), start, err)
		}
		if len(output.InvalidParameters) > 0 {
			return nil, fmt.Errorf("unknown SSM parameters: %v", output.InvalidParameters)
		}
		for _, param := range output.Parameters {
			if param.Name != nil && param.Value != nil {
				values[*param.Name] = *param.Value
			}
		}
	}
	return values, nil
}
