package stratum

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
)

type poolConfig struct {
	Size    int
	Workers int
}

// poolPartial keeps the larger size across layers instead of the latest one.
type poolPartial struct {
	Size    Opt[int] `json:"size"`
	Workers Opt[int] `json:"workers"`
}

func (p poolPartial) Merge(over poolPartial) poolPartial {
	out := p
	if size, ok := over.Size.Get(); ok {
		if cur, ok := p.Size.Get(); !ok || size > cur {
			out.Size = over.Size
		}
	}
	out.Workers = over.Workers.Or(p.Workers)
	return out
}

func (p poolPartial) Resolve() (poolConfig, error) {
	var b Batch
	out := poolConfig{
		Size:    Require(&b, "size", p.Size),
		Workers: Require(&b, "workers", p.Workers),
	}
	return out, b.Err()
}

func (poolPartial) Defaults() poolPartial {
	return poolPartial{Workers: Present(4)}
}

func (poolPartial) FromEnv(ctx context.Context, env EnvProvider) (poolPartial, error) {
	var b Batch
	out := poolPartial{
		Size:    LoadEnv[int](ctx, &b, env, "size", "POOL_SIZE"),
		Workers: LoadEnv[int](ctx, &b, env, "workers", "POOL_WORKERS", "WORKERS"),
	}
	return out, b.Err()
}

func TestManualEngine(t *testing.T) {
	engine := Manual[poolPartial, poolConfig]()
	if diff := cmp.Diff(poolPartial{}, engine.New()); diff != "" {
		t.Fatalf("New mismatch (-want +got):\n%s", diff)
	}
	merged := MergeAll(engine,
		engine.Default(),
		poolPartial{Size: Present(10)},
		poolPartial{Size: Present(3), Workers: Present(8)},
	)
	cfg, err := engine.Resolve(merged)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if diff := cmp.Diff(poolConfig{Size: 10, Workers: 8}, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestManualEngineFromEnv(t *testing.T) {
	engine := Manual[poolPartial, poolConfig]()
	p, err := engine.FromEnv(context.Background(), MapEnv{"POOL_SIZE": "x", "WORKERS": "2"})
	var batch *BatchError
	if !errors.As(err, &batch) {
		t.Fatalf("expected *BatchError, got %v", err)
	}
	if diff := cmp.Diff([]string{"size"}, batch.Paths()); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
	if !p.Workers.Equal(Present(2)) || p.Size.IsPresent() {
		t.Fatalf("unexpected partial %+v", p)
	}
}

type serviceConfig struct {
	Name string
	Pool poolConfig
}

type servicePartial struct {
	Name Opt[string] `json:"name" stratum:"env:SERVICE_NAME"`
	Pool poolPartial `json:"pool"`
}

func TestSchemaDelegatesToLayerField(t *testing.T) {
	schema := MustSchema[servicePartial, serviceConfig]()

	defaults := schema.Default()
	if !defaults.Pool.Workers.Equal(Present(4)) {
		t.Fatalf("expected layer defaults, got %+v", defaults.Pool)
	}

	fromEnv, err := schema.FromEnv(context.Background(), MapEnv{"SERVICE_NAME": "api", "POOL_SIZE": "6"})
	if err != nil {
		t.Fatalf("FromEnv returned error: %v", err)
	}
	merged := MergeAll[servicePartial, serviceConfig](schema,
		defaults,
		servicePartial{Pool: poolPartial{Size: Present(12)}},
		fromEnv,
	)
	cfg, err := schema.Resolve(merged)
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	want := serviceConfig{Name: "api", Pool: poolConfig{Size: 12, Workers: 4}}
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Fatalf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestSchemaPrefixesLayerErrors(t *testing.T) {
	schema := MustSchema[servicePartial, serviceConfig]()
	_, err := schema.Resolve(schema.New())
	var batch *BatchError
	if !errors.As(err, &batch) {
		t.Fatalf("expected *BatchError, got %v", err)
	}
	want := []string{"name", "pool.size", "pool.workers"}
	if diff := cmp.Diff(want, batch.Paths()); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}

	_, err = schema.FromEnv(context.Background(), MapEnv{"POOL_WORKERS": "many"})
	if !errors.As(err, &batch) {
		t.Fatalf("expected *BatchError, got %v", err)
	}
	if diff := cmp.Diff([]string{"pool.workers"}, batch.Paths()); diff != "" {
		t.Fatalf("paths mismatch (-want +got):\n%s", diff)
	}
}

type wrongLayerConfig struct {
	Pool string
}

type wrongLayerPartial struct {
	Pool poolPartial
}

func TestSchemaRejectsLayerTargetMismatch(t *testing.T) {
	if _, err := NewSchema[wrongLayerPartial, wrongLayerConfig](); err == nil {
		t.Fatal("expected error for a layer resolving to the wrong type")
	}
}

func TestRequire(t *testing.T) {
	var b Batch
	if got := Require(&b, "a", Present(3)); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
	if got := Require(&b, "b", Absent[int]()); got != 0 {
		t.Fatalf("expected zero value, got %d", got)
	}
	var batch *BatchError
	if !errors.As(b.Err(), &batch) || batch.Paths()[0] != "b" {
		t.Fatalf("expected missing b, got %v", b.Err())
	}
}
