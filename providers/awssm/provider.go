// Package awssm serves stratum env lookups from AWS Secrets Manager.
package awssm

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
)

// SecretsManagerClient captures the subset of the AWS Secrets Manager client
// used by the provider. *secretsmanager.Client satisfies this interface.
type SecretsManagerClient interface {
	GetSecretValue(ctx context.Context, params *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// Provider looks up secrets by ID. A secret that does not exist is reported as
// unset so the next candidate name can be tried.
type Provider struct {
	client       SecretsManagerClient
	versionStage *string
	versionID    *string
	callOpts     []func(*secretsmanager.Options)
}

// Option configures the AWS provider.
type Option func(*Provider)

// WithVersionStage requests a specific version stage (defaults to AWSCURRENT).
func WithVersionStage(stage string) Option {
	return func(p *Provider) {
		if stage != "" {
			p.versionStage = aws.String(stage)
		}
	}
}

// WithVersionID requests a specific version ID.
func WithVersionID(id string) Option {
	return func(p *Provider) {
		if id != "" {
			p.versionID = aws.String(id)
		}
	}
}

// WithClientOptions forwards Secrets Manager call options to each lookup.
func WithClientOptions(opts ...func(*secretsmanager.Options)) Option {
	return func(p *Provider) {
		p.callOpts = append(p.callOpts, opts...)
	}
}

// New constructs a Secrets Manager provider.
func New(client SecretsManagerClient, opts ...Option) (*Provider, error) {
	if client == nil {
		return nil, errors.New("awssm: client is required")
	}
	p := &Provider{client: client}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Lookup implements stratum.EnvProvider.
func (p *Provider) Lookup(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, errors.New("awssm: secret id cannot be empty")
	}
	input := &secretsmanager.GetSecretValueInput{
		SecretId:     aws.String(key),
		VersionStage: p.versionStage,
		VersionId:    p.versionID,
	}
	out, err := p.client.GetSecretValue(ctx, input, p.callOpts...)
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("awssm: %w", err)
	}
	if out.SecretString != nil {
		return aws.ToString(out.SecretString), true, nil
	}
	if len(out.SecretBinary) > 0 {
		return string(out.SecretBinary), true, nil
	}
	return "", false, errors.New("awssm: secret contained no payload")
}
