// Package gcpsecret serves stratum env lookups from Google Secret Manager.
package gcpsecret

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Client represents the subset of the GCP Secret Manager client used.
type Client interface {
	AccessSecretVersion(ctx context.Context, req *secretmanagerpb.AccessSecretVersionRequest, opts ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error)
}

// Provider looks up secret versions in Google Secret Manager. A secret or
// version that does not exist is reported as unset.
type Provider struct {
	client  Client
	project string
	version string
}

// Option configures the provider.
type Option func(*Provider)

// WithProject sets the project ID used when candidate names are short secret
// IDs instead of fully qualified resource names.
func WithProject(projectID string) Option {
	return func(p *Provider) {
		p.project = projectID
	}
}

// WithVersion overrides the default version (latest).
func WithVersion(version string) Option {
	return func(p *Provider) {
		if version != "" {
			p.version = version
		}
	}
}

// New constructs a Secret Manager provider.
func New(client Client, opts ...Option) (*Provider, error) {
	if client == nil {
		return nil, errors.New("gcpsecret: client is required")
	}
	p := &Provider{
		client:  client,
		version: "latest",
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Lookup implements stratum.EnvProvider. Keys can either be full resource
// names (projects/*/secrets/*/versions/*) or short secret IDs when a project
// was provided via options.
func (p *Provider) Lookup(ctx context.Context, key string) (string, bool, error) {
	if key == "" {
		return "", false, errors.New("gcpsecret: secret name cannot be empty")
	}
	name := key
	if !strings.HasPrefix(key, "projects/") {
		if p.project == "" {
			return "", false, errors.New("gcpsecret: project must be set when using short secret names")
		}
		name = fmt.Sprintf("projects/%s/secrets/%s/versions/%s", p.project, key, p.version)
	}
	resp, err := p.client.AccessSecretVersion(ctx, &secretmanagerpb.AccessSecretVersionRequest{Name: name})
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return "", false, nil
		}
		return "", false, fmt.Errorf("gcpsecret: %w", err)
	}
	if resp.GetPayload() == nil || len(resp.Payload.Data) == 0 {
		return "", false, errors.New("gcpsecret: secret payload empty")
	}
	return string(resp.Payload.Data), true, nil
}
