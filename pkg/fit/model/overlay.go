package model

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"
)

// DefaultPrefix is prepended to override paths that do not start with '/'.
// The prefixing is literal string concatenation, not path algebra.
const DefaultPrefix = "/engine/"

// Override is one path-addressed scalar write onto the model document.
type Override struct {
	Path  string
	Value string
}

// Apply performs the overrides in order against the document. Later writes
// to the same path win. Values are coerced int -> float -> bool -> string
// before the write; the schema validation step catches type mismatches the
// coercion lets through.
func (d Document) Apply(overrides []Override) error {
	for _, ov := range overrides {
		path := ov.Path
		if !strings.HasPrefix(path, "/") {
			path = DefaultPrefix + path
		}
		ptr, err := ParsePointer(path)
		if err != nil {
			return err
		}
		if err := d.Set(ptr, CoerceScalar(ov.Value)); err != nil {
			return err
		}
	}
	return nil
}

// CoerceScalar converts a raw command-line value into the most specific
// scalar type it parses as. Integers become float64 so that overridden
// values compare equal to JSON-decoded numbers.
func CoerceScalar(s string) any {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return float64(v)
	}
	if v, err := strconv.ParseFloat(s, 64); err == nil {
		return v
	}
	if v, err := strconv.ParseBool(s); err == nil {
		return v
	}
	return s
}

// MergeFile decodes a model file (JSON, YAML or TOML, chosen by extension)
// and overlays its scalar leaves onto the document. Containers introduced by
// the file must already exist in the document; a leaf under an unknown
// container fails with a PathError like any other overlay.
func (d Document) MergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("cannot read model file %q: %w", path, err)
	}

	var tree map[string]any
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		if err := json.Unmarshal(data, &tree); err != nil {
			return fmt.Errorf("cannot parse JSON model file %q: %w", path, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &tree); err != nil {
			return fmt.Errorf("cannot parse YAML model file %q: %w", path, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, &tree); err != nil {
			return fmt.Errorf("cannot parse TOML model file %q: %w", path, err)
		}
	default:
		return fmt.Errorf("unsupported model file extension %q (want .json, .yaml or .toml)", ext)
	}

	return d.mergeLeaves("", tree)
}

func (d Document) mergeLeaves(prefix string, tree map[string]any) error {
	for key, value := range tree {
		path := prefix + "/" + escapeSegment(key)
		if sub, ok := value.(map[string]any); ok {
			if err := d.mergeLeaves(path, sub); err != nil {
				return err
			}
			continue
		}
		ptr, err := ParsePointer(path)
		if err != nil {
			return err
		}
		if err := d.Set(ptr, normalizeNumber(value)); err != nil {
			return err
		}
	}
	return nil
}

func escapeSegment(s string) string {
	s = strings.ReplaceAll(s, "~", "~0")
	return strings.ReplaceAll(s, "/", "~1")
}

// normalizeNumber widens integer values produced by the YAML and TOML
// decoders to float64, matching JSON decoding.
func normalizeNumber(v any) any {
	switch n := v.(type) {
	case int:
		return float64(n)
	case int64:
		return float64(n)
	case uint64:
		return float64(n)
	default:
		return v
	}
}
