package stratum

import (
	"io"
	"log/slog"
	"strings"

	"github.com/go-playground/validator/v10"
)

// SchemaOption configures NewSchema.
type SchemaOption func(*schemaConfig)

type schemaConfig struct {
	decoders      map[string]DecodeFunc
	defaultFormat string
}

func newSchemaConfig(opts []SchemaOption) *schemaConfig {
	cfg := &schemaConfig{decoders: make(map[string]DecodeFunc, len(builtinDecoders))}
	for name, dec := range builtinDecoders {
		cfg.decoders[name] = dec
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// WithDecoder registers a custom format decoder keyed by name. Tags can then
// reference the decoder via `format:name`.
func WithDecoder(name string, fn DecodeFunc) SchemaOption {
	return func(c *schemaConfig) {
		if name == "" || fn == nil {
			return
		}
		c.decoders[strings.ToLower(name)] = fn
	}
}

// WithDefaultFormat overrides the decoder used for structured leaves (structs,
// maps, slices) when the tag names no format.
func WithDefaultFormat(name string) SchemaOption {
	return func(c *schemaConfig) {
		c.defaultFormat = strings.ToLower(name)
	}
}

// Option configures a Loader. Layer options are merged in the order given,
// so later layers win.
type Option func(*loaderConfig)

type loaderConfig struct {
	layers   []layerSpec
	logger   *slog.Logger
	validate *validator.Validate
}

// WithDefaults adds the engine's default partial as a layer.
func WithDefaults() Option {
	return func(c *loaderConfig) {
		c.layers = append(c.layers, layerSpec{source: SourceDefaults, identifier: "defaults"})
	}
}

// WithFile adds a document read from path. The format follows the file
// extension. A missing file is an error.
func WithFile(path string) Option {
	return func(c *loaderConfig) {
		c.layers = append(c.layers, layerSpec{source: SourceFile, identifier: path})
	}
}

// WithOptionalFile is like WithFile but skips the layer when the file does
// not exist.
func WithOptionalFile(path string) Option {
	return func(c *loaderConfig) {
		c.layers = append(c.layers, layerSpec{source: SourceFile, identifier: path, optional: true})
	}
}

// WithDocument adds an in-memory document in the given format.
func WithDocument(format string, data []byte) Option {
	return func(c *loaderConfig) {
		c.layers = append(c.layers, layerSpec{
			source:     SourceDocument,
			identifier: strings.ToLower(format),
			format:     strings.ToLower(format),
			data:       data,
		})
	}
}

// WithLayer adds a partial built by the caller. It must have the loader's
// partial type.
func WithLayer(name string, partial any) Option {
	return func(c *loaderConfig) {
		c.layers = append(c.layers, layerSpec{source: SourceValue, identifier: name, value: partial})
	}
}

// WithEnv adds a layer loaded from provider. Field errors from this layer are
// reported together with resolution errors.
func WithEnv(provider EnvProvider) Option {
	return func(c *loaderConfig) {
		if provider == nil {
			return
		}
		c.layers = append(c.layers, layerSpec{source: SourceEnv, identifier: "env", env: provider})
	}
}

// WithLogger sets the logger used to trace layer composition.
func WithLogger(logger *slog.Logger) Option {
	return func(c *loaderConfig) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithValidator validates the resolved value with v. Violations are reported
// as invalid field errors.
func WithValidator(v *validator.Validate) Option {
	return func(c *loaderConfig) {
		c.validate = v
	}
}

// WithValidation validates the resolved value against its `validate` tags.
func WithValidation() Option {
	return WithValidator(validator.New(validator.WithRequiredStructEnabled()))
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
