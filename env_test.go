package stratum

import (
	"context"
	"errors"
	"testing"
)

type lookupRecorder struct {
	values map[string]string
	err    error
	calls  []string
}

func (r *lookupRecorder) Lookup(_ context.Context, name string) (string, bool, error) {
	r.calls = append(r.calls, name)
	if r.err != nil {
		return "", false, r.err
	}
	value, ok := r.values[name]
	return value, ok, nil
}

func TestChainEnvFirstHitWins(t *testing.T) {
	first := &lookupRecorder{values: map[string]string{"A": "1"}}
	second := &lookupRecorder{values: map[string]string{"A": "2", "B": "3"}}
	env := ChainEnv(first, nil, second)

	if v, ok, err := env.Lookup(context.Background(), "A"); err != nil || !ok || v != "1" {
		t.Fatalf("Lookup(A) = %q, %v, %v", v, ok, err)
	}
	if v, ok, err := env.Lookup(context.Background(), "B"); err != nil || !ok || v != "3" {
		t.Fatalf("Lookup(B) = %q, %v, %v", v, ok, err)
	}
	if _, ok, _ := env.Lookup(context.Background(), "C"); ok {
		t.Fatal("expected C to be unset")
	}
}

func TestChainEnvStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	failing := &lookupRecorder{err: boom}
	later := &lookupRecorder{values: map[string]string{"A": "1"}}
	_, _, err := ChainEnv(failing, later).Lookup(context.Background(), "A")
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
	if len(later.calls) != 0 {
		t.Fatalf("expected chain to stop, later saw %v", later.calls)
	}
}

func TestPrefixed(t *testing.T) {
	backend := &lookupRecorder{values: map[string]string{"db/password": "s3cret"}}
	env := Prefixed("vault:", backend)

	v, ok, err := env.Lookup(context.Background(), "vault:db/password")
	if err != nil || !ok || v != "s3cret" {
		t.Fatalf("Lookup = %q, %v, %v", v, ok, err)
	}
	if _, ok, _ := env.Lookup(context.Background(), "DB_PASSWORD"); ok {
		t.Fatal("expected unprefixed name to be unset")
	}
	if len(backend.calls) != 1 || backend.calls[0] != "db/password" {
		t.Fatalf("unexpected backend calls %v", backend.calls)
	}
}

func TestEnvLookupFunc(t *testing.T) {
	t.Setenv("STRATUM_TEST_VALUE", "present")
	v, ok, err := OSEnv().Lookup(context.Background(), "STRATUM_TEST_VALUE")
	if err != nil || !ok || v != "present" {
		t.Fatalf("Lookup = %q, %v, %v", v, ok, err)
	}
}
