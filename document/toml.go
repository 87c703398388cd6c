package document

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// DecodeTOML decodes a TOML document into v.
func DecodeTOML(data []byte, v any) error {
	var tree map[string]any
	if err := toml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("document: toml: %w", err)
	}
	return viaJSON(tree, v, TOML)
}
