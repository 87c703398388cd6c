// Package document decodes configuration documents into partials.
//
// Every format keys partial fields by their json tags, so one partial type
// works for JSON, YAML, TOML and HCL alike. Keys missing from a document
// leave the matching Opt leaves absent; they never decode to zero values.
package document

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
)

// Supported formats.
const (
	JSON = "json"
	YAML = "yaml"
	TOML = "toml"
	HCL  = "hcl"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (string, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		return JSON, nil
	case ".yaml", ".yml":
		return YAML, nil
	case ".toml":
		return TOML, nil
	case ".hcl":
		return HCL, nil
	default:
		return "", fmt.Errorf("document: unsupported file extension %q", ext)
	}
}

// Decode decodes data in the named format into v, which must be a pointer
// to a partial.
func Decode(format string, data []byte, v any) error {
	switch strings.ToLower(format) {
	case JSON:
		return DecodeJSON(data, v)
	case YAML, "yml":
		return DecodeYAML(data, v)
	case TOML:
		return DecodeTOML(data, v)
	case HCL:
		return DecodeHCL(data, "document.hcl", v)
	default:
		return fmt.Errorf("document: unknown format %q", format)
	}
}

// DecodeJSON decodes a JSON document into v.
func DecodeJSON(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("document: json: %w", err)
	}
	return nil
}

// viaJSON re-encodes a generic tree produced by another parser so the
// partial's json tags and Opt's JSON decoding apply.
func viaJSON(tree any, v any, format string) error {
	buf, err := json.Marshal(tree)
	if err != nil {
		return fmt.Errorf("document: %s: %w", format, err)
	}
	if err := json.Unmarshal(buf, v); err != nil {
		return fmt.Errorf("document: %s: %w", format, err)
	}
	return nil
}
