package document

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// DecodeYAML decodes a YAML document into v.
func DecodeYAML(data []byte, v any) error {
	var tree any
	if err := yaml.Unmarshal(data, &tree); err != nil {
		return fmt.Errorf("document: yaml: %w", err)
	}
	return viaJSON(stringKeys(tree), v, YAML)
}

// stringKeys rewrites YAML mappings with non-string keys so they can be
// encoded as JSON objects.
func stringKeys(node any) any {
	switch n := node.(type) {
	case map[string]any:
		for k, v := range n {
			n[k] = stringKeys(v)
		}
		return n
	case map[any]any:
		out := make(map[string]any, len(n))
		for k, v := range n {
			out[fmt.Sprint(k)] = stringKeys(v)
		}
		return out
	case []any:
		for i, v := range n {
			n[i] = stringKeys(v)
		}
		return n
	default:
		return node
	}
}
