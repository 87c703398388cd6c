package stratum

import (
	"context"
	"os"
	"strings"
)

// EnvProvider looks up named string values such as environment variables or
// remote secrets. ok is false when the name is not set; a non-nil error is a
// lookup failure and is reported against the field being loaded.
type EnvProvider interface {
	Lookup(ctx context.Context, name string) (value string, ok bool, err error)
}

// EnvLookupFunc adapts an os.LookupEnv style function to EnvProvider.
type EnvLookupFunc func(string) (string, bool)

// Lookup implements EnvProvider.
func (f EnvLookupFunc) Lookup(_ context.Context, name string) (string, bool, error) {
	value, ok := f(name)
	return value, ok, nil
}

// OSEnv returns a provider backed by the process environment.
func OSEnv() EnvProvider {
	return EnvLookupFunc(os.LookupEnv)
}

// MapEnv is an in-memory provider, mostly useful in tests.
type MapEnv map[string]string

// Lookup implements EnvProvider.
func (m MapEnv) Lookup(_ context.Context, name string) (string, bool, error) {
	value, ok := m[name]
	return value, ok, nil
}

type chainEnv []EnvProvider

// ChainEnv queries providers in order and returns the first value found. A
// lookup error stops the chain so a failing backend is never silently masked
// by a later one.
func ChainEnv(providers ...EnvProvider) EnvProvider {
	chain := make(chainEnv, 0, len(providers))
	for _, p := range providers {
		if p != nil {
			chain = append(chain, p)
		}
	}
	return chain
}

func (c chainEnv) Lookup(ctx context.Context, name string) (string, bool, error) {
	for _, p := range c {
		value, ok, err := p.Lookup(ctx, name)
		if err != nil {
			return "", false, err
		}
		if ok {
			return value, true, nil
		}
	}
	return "", false, nil
}

type prefixedEnv struct {
	prefix   string
	provider EnvProvider
}

// Prefixed routes only names starting with prefix to provider, with the
// prefix stripped. Other names are reported unset. It lets one candidate list
// mix plain variables with backend-specific keys such as "vault:db/password".
func Prefixed(prefix string, provider EnvProvider) EnvProvider {
	return prefixedEnv{prefix: prefix, provider: provider}
}

func (p prefixedEnv) Lookup(ctx context.Context, name string) (string, bool, error) {
	key, ok := strings.CutPrefix(name, p.prefix)
	if !ok || p.provider == nil {
		return "", false, nil
	}
	return p.provider.Lookup(ctx, key)
}
