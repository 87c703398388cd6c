package stratum

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type levelConfig struct {
	LogLevel string
	Port     int
	Nested   nestedConfig
}

type levelPartial struct {
	LogLevel Opt[string]   `json:"logLevel" stratum:"env:MY_APP_LOG_LEVEL,LOG_LEVEL"`
	Port     Opt[int]      `json:"port" stratum:"env:PORT"`
	Nested   nestedPartial `json:"nested"`
}

var levelSchema = MustSchema[levelPartial, levelConfig]()

func TestLookupCandidatesStopsOnFirstHit(t *testing.T) {
	env := &lookupRecorder{values: map[string]string{"B": "2", "C": "3"}}
	var b Batch
	got, ok := lookupCandidates(context.Background(), &b, env, "x", []string{"A", "B", "C"}, decodeCanonical, reflect.TypeOf(0))
	if !ok || got.Interface().(int) != 2 {
		t.Fatalf("expected 2, got %v (ok=%v)", got, ok)
	}
	if diff := cmp.Diff([]string{"A", "B"}, env.calls); diff != "" {
		t.Fatalf("lookups mismatch (-want +got):\n%s", diff)
	}
	if b.Len() != 0 {
		t.Fatalf("expected no errors, got %v", b.Err())
	}
}

func TestLookupCandidatesParseFailureStops(t *testing.T) {
	env := &lookupRecorder{values: map[string]string{"A": "nope", "B": "2"}}
	var b Batch
	_, ok := lookupCandidates(context.Background(), &b, env, "x", []string{"A", "B"}, decodeCanonical, reflect.TypeOf(0))
	if ok {
		t.Fatal("expected failure")
	}
	if len(env.calls) != 1 {
		t.Fatalf("expected search to stop at A, saw %v", env.calls)
	}
	var batch *BatchError
	if !errors.As(b.Err(), &batch) {
		t.Fatal("expected *BatchError")
	}
	f := batch.Fields()[0]
	if f.Kind != KindEnvParse || f.Variable != "A" || f.Raw != "nope" || f.Path != "x" {
		t.Fatalf("unexpected field error %+v", f)
	}
}

func TestLookupCandidatesNilProvider(t *testing.T) {
	var b Batch
	if _, ok := lookupCandidates(context.Background(), &b, nil, "x", []string{"A"}, decodeCanonical, reflect.TypeOf("")); ok {
		t.Fatal("expected no value from a nil provider")
	}
	if b.Len() != 0 {
		t.Fatal("expected no errors from a nil provider")
	}
}

func TestFromEnvCandidateOrder(t *testing.T) {
	p, err := levelSchema.FromEnv(context.Background(), MapEnv{"LOG_LEVEL": "debug"})
	if err != nil {
		t.Fatalf("FromEnv returned error: %v", err)
	}
	if !p.LogLevel.Equal(Present("debug")) {
		t.Fatalf("expected debug from LOG_LEVEL, got %v", p.LogLevel)
	}

	p, err = levelSchema.FromEnv(context.Background(), MapEnv{"LOG_LEVEL": "debug", "MY_APP_LOG_LEVEL": "warn"})
	if err != nil {
		t.Fatalf("FromEnv returned error: %v", err)
	}
	if !p.LogLevel.Equal(Present("warn")) {
		t.Fatalf("expected first declared name to win, got %v", p.LogLevel)
	}
	if p.Port.IsPresent() {
		t.Fatal("expected unset variable to leave leaf absent")
	}
}

func TestFromEnvParseErrorKeepsSiblings(t *testing.T) {
	env := MapEnv{"PORT": "eighty", "LOG_LEVEL": "info", "NESTED_FOO": "17"}
	p, err := levelSchema.FromEnv(context.Background(), env)
	var batch *BatchError
	if !errors.As(err, &batch) {
		t.Fatalf("expected *BatchError, got %v", err)
	}
	if batch.Len() != 1 {
		t.Fatalf("expected exactly one failure, got %v", batch.Fields())
	}
	f := batch.Fields()[0]
	if f.Path != "port" || f.Kind != KindEnvParse || f.Raw != "eighty" || f.Variable != "PORT" {
		t.Fatalf("unexpected failure %+v", f)
	}
	want := levelPartial{
		LogLevel: Present("info"),
		Nested:   nestedPartial{Foo: Present[uint32](17)},
	}
	if diff := cmp.Diff(want, p); diff != "" {
		t.Fatalf("partial mismatch (-want +got):\n%s", diff)
	}
}

func TestFromEnvNestedPathAndLookupError(t *testing.T) {
	outage := errors.New("backend down")
	env := EnvLookupFunc(func(name string) (string, bool) {
		return "", false
	})
	failing := ChainEnv(env, Prefixed("", &lookupRecorder{err: outage}))
	_, err := levelSchema.FromEnv(context.Background(), failing)
	var batch *BatchError
	if !errors.As(err, &batch) {
		t.Fatalf("expected *BatchError, got %v", err)
	}
	want := []string{"logLevel", "port", "nested.foo"}
	if diff := cmp.Diff(want, batch.Paths()); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
	for _, f := range batch.Fields() {
		if f.Kind != KindEnvLookup || !errors.Is(f, outage) {
			t.Fatalf("expected lookup failure, got %+v", f)
		}
	}
	if batch.Fields()[0].Variable != "MY_APP_LOG_LEVEL" {
		t.Fatalf("expected the first candidate to be reported, got %q", batch.Fields()[0].Variable)
	}
}

func TestFromEnvNilProvider(t *testing.T) {
	p, err := levelSchema.FromEnv(context.Background(), nil)
	if err != nil {
		t.Fatalf("FromEnv returned error: %v", err)
	}
	if diff := cmp.Diff(levelPartial{}, p); diff != "" {
		t.Fatalf("expected empty partial (-want +got):\n%s", diff)
	}
}
