package stratum

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// fieldTag is the declaration metadata carried by a partial field's
// `stratum` tag: space-separated key:value pairs. A value containing spaces
// or an empty value is written as a double-quoted Go string literal.
type fieldTag struct {
	EnvKeys      []string
	Format       string
	Name         string
	DefaultValue string
	HasDefault   bool
	Skip         bool
}

func parseFieldTag(raw string) (fieldTag, error) {
	rest := strings.TrimSpace(raw)
	if rest == "-" {
		return fieldTag{Skip: true}, nil
	}
	var tag fieldTag
	for rest != "" {
		key, after, ok := strings.Cut(rest, ":")
		if !ok || strings.IndexFunc(key, unicode.IsSpace) >= 0 {
			return fieldTag{}, fmt.Errorf("stratum: dangling key in %q", rest)
		}
		if key == "" {
			return fieldTag{}, fmt.Errorf("stratum: empty tag key")
		}
		key = strings.ToLower(key)
		value, next, err := readTagValue(key, after)
		if err != nil {
			return fieldTag{}, err
		}
		if err := tag.assign(key, value); err != nil {
			return fieldTag{}, err
		}
		rest = strings.TrimLeftFunc(next, unicode.IsSpace)
	}
	return tag, nil
}

// readTagValue splits the value for key off the front of s.
func readTagValue(key, s string) (value, rest string, err error) {
	if strings.HasPrefix(s, `"`) {
		quoted, err := strconv.QuotedPrefix(s)
		if err != nil {
			return "", "", fmt.Errorf("stratum: malformed quoted value for key %q", key)
		}
		value, _ = strconv.Unquote(quoted)
		return value, s[len(quoted):], nil
	}
	end := strings.IndexFunc(s, unicode.IsSpace)
	if end < 0 {
		end = len(s)
	}
	if end == 0 {
		return "", "", fmt.Errorf("stratum: key %q missing value", key)
	}
	return s[:end], s[end:], nil
}

func (t *fieldTag) assign(key, value string) error {
	switch key {
	case "env":
		for _, name := range strings.Split(value, ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				return fmt.Errorf("stratum: empty env name in %q", value)
			}
			t.EnvKeys = append(t.EnvKeys, name)
		}
	case "format":
		t.Format = strings.ToLower(value)
	case "name":
		t.Name = value
	case "default":
		t.DefaultValue = value
		t.HasDefault = true
	default:
		return fmt.Errorf("stratum: unknown tag key %q", key)
	}
	return nil
}
