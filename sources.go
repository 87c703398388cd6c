package stratum

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"github.com/djbozjr/stratum/document"
)

// LayerSource identifies where a loader layer comes from.
type LayerSource string

const (
	SourceDefaults LayerSource = "defaults"
	SourceFile     LayerSource = "file"
	SourceDocument LayerSource = "document"
	SourceValue    LayerSource = "value"
	SourceEnv      LayerSource = "env"
)

type layerSpec struct {
	source     LayerSource
	identifier string
	format     string
	data       []byte
	optional   bool
	env        EnvProvider
	value      any
}

// errSkipLayer marks an optional layer that is not there.
var errSkipLayer = errors.New("layer skipped")

// loadLayer produces the partial for one layer. A *BatchError is only
// returned by env layers and comes with a usable partial; any other error is
// fatal for the load.
func (l *Loader[P, T]) loadLayer(ctx context.Context, spec layerSpec) (P, error) {
	switch spec.source {
	case SourceDefaults:
		return l.engine.Default(), nil
	case SourceFile:
		return l.loadFile(spec)
	case SourceDocument:
		return decodeLayer[P](spec.format, spec.data, "document "+spec.identifier)
	case SourceValue:
		p, ok := spec.value.(P)
		if !ok {
			var zero P
			return zero, fmt.Errorf("stratum: layer %q holds %T, want %T", spec.identifier, spec.value, zero)
		}
		return p, nil
	case SourceEnv:
		return l.engine.FromEnv(ctx, spec.env)
	default:
		var zero P
		return zero, fmt.Errorf("stratum: unknown layer source %q", spec.source)
	}
}

func (l *Loader[P, T]) loadFile(spec layerSpec) (P, error) {
	var zero P
	data, err := l.readFile(spec.identifier)
	if err != nil {
		if spec.optional && errors.Is(err, fs.ErrNotExist) {
			return zero, errSkipLayer
		}
		return zero, fmt.Errorf("stratum: read %s: %w", spec.identifier, err)
	}
	format, err := document.FormatFromPath(spec.identifier)
	if err != nil {
		return zero, fmt.Errorf("stratum: %w", err)
	}
	return decodeLayer[P](format, data, spec.identifier)
}

func decodeLayer[P any](format string, data []byte, name string) (P, error) {
	var p P
	if err := document.Decode(format, data, &p); err != nil {
		var zero P
		return zero, fmt.Errorf("stratum: decode %s: %w", name, err)
	}
	return p, nil
}
