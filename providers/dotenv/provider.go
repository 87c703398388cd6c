// Package dotenv serves stratum env lookups from .env files.
package dotenv

import (
	"context"
	"fmt"
	"io"

	"github.com/joho/godotenv"
)

// Provider holds the variables parsed from one or more dotenv files. It does
// not touch the process environment.
type Provider struct {
	values map[string]string
}

// Load parses the named files. A variable set in a later file replaces the
// same variable from an earlier one.
func Load(paths ...string) (*Provider, error) {
	values, err := godotenv.Read(paths...)
	if err != nil {
		return nil, fmt.Errorf("dotenv: %w", err)
	}
	return &Provider{values: values}, nil
}

// Parse reads dotenv content from r.
func Parse(r io.Reader) (*Provider, error) {
	values, err := godotenv.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("dotenv: %w", err)
	}
	return &Provider{values: values}, nil
}

// Lookup implements stratum.EnvProvider.
func (p *Provider) Lookup(_ context.Context, name string) (string, bool, error) {
	value, ok := p.values[name]
	return value, ok, nil
}
