package stratum

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Loader merges configured layers in order and resolves the result. It is a
// convenience over an Engine; every step it takes is available on the engine
// directly.
type Loader[P, T any] struct {
	engine   Engine[P, T]
	layers   []layerSpec
	logger   *slog.Logger
	validate *validator.Validate
	readFile func(string) ([]byte, error)
}

// NewLoader constructs a Loader for engine with optional functional options.
func NewLoader[P, T any](engine Engine[P, T], opts ...Option) *Loader[P, T] {
	cfg := &loaderConfig{logger: discardLogger()}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Loader[P, T]{
		engine:   engine,
		layers:   cfg.layers,
		logger:   cfg.logger,
		validate: cfg.validate,
		readFile: os.ReadFile,
	}
}

// Load builds a loader from opts and runs it once.
func Load[P, T any](ctx context.Context, engine Engine[P, T], opts ...Option) (T, error) {
	return NewLoader(engine, opts...).Load(ctx)
}

// Load merges every layer and resolves the result. Field failures from env
// layers, resolution and validation are returned together as one
// *BatchError. Unreadable or malformed documents are returned directly.
func (l *Loader[P, T]) Load(ctx context.Context) (T, error) {
	var zero T
	merged, batch, err := l.merge(ctx)
	if err != nil {
		return zero, err
	}
	out, err := l.engine.Resolve(merged)
	batch.Nest("", err)
	if err == nil && l.validate != nil {
		if err := l.validateResolved(out, &batch); err != nil {
			return zero, err
		}
	}
	if err := batch.Err(); err != nil {
		l.logger.WarnContext(ctx, "configuration incomplete", "errors", batch.Len())
		return zero, err
	}
	return out, nil
}

// Partial merges every layer without resolving. The partial is returned even
// when env layers reported field errors.
func (l *Loader[P, T]) Partial(ctx context.Context) (P, error) {
	merged, batch, err := l.merge(ctx)
	if err != nil {
		var zero P
		return zero, err
	}
	return merged, batch.Err()
}

func (l *Loader[P, T]) merge(ctx context.Context) (P, Batch, error) {
	var batch Batch
	merged := l.engine.New()
	for _, spec := range l.layers {
		layer, err := l.loadLayer(ctx, spec)
		switch {
		case errors.Is(err, errSkipLayer):
			l.logger.InfoContext(ctx, "optional layer not found", "source", spec.source, "id", spec.identifier)
			continue
		case err != nil && spec.source == SourceEnv:
			batch.Nest("", err)
		case err != nil:
			var zero P
			return zero, Batch{}, err
		}
		merged = l.engine.Merge(merged, layer)
		l.logger.DebugContext(ctx, "merged layer", "source", spec.source, "id", spec.identifier)
	}
	return merged, batch, nil
}

type pathMapper interface {
	fieldPath(goPath string) (string, bool)
}

func (l *Loader[P, T]) validateResolved(out T, batch *Batch) error {
	err := l.validate.Struct(out)
	if err == nil {
		return nil
	}
	var violations validator.ValidationErrors
	if !errors.As(err, &violations) {
		return fmt.Errorf("stratum: validate: %w", err)
	}
	mapper, _ := l.engine.(pathMapper)
	for _, fe := range violations {
		goPath := fe.StructNamespace()
		if _, rest, ok := strings.Cut(goPath, "."); ok {
			goPath = rest
		}
		path := goPath
		if mapper != nil {
			if mapped, ok := mapper.fieldPath(goPath); ok {
				path = mapped
			}
		}
		batch.Add(FieldError{
			Path: path,
			Kind: KindInvalid,
			Err:  fmt.Errorf("failed %q validation", fe.Tag()),
		})
	}
	return nil
}
