package config

import (
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	cerrors "github.com/cockroachdb/errors"
	yaml "go.yaml.in/yaml/v3"
)

// toJSON turns a YAML file into JSON so both formats go through the same
// strict decoder. Anything that is not .yaml/.yml is returned unchanged.
func toJSON(path string, data []byte) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
	default:
		return data, nil
	}

	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return nil, cerrors.Wrap(err, "yaml unmarshal")
	}
	if v == nil {
		// Empty document: same as "{}".
		return []byte("{}"), nil
	}
	j, err := json.Marshal(stringKeys(v))
	if err != nil {
		return nil, cerrors.Wrap(err, "yaml to json")
	}
	return j, nil
}

// stringKeys rewrites map keys to strings; JSON has no other key type.
func stringKeys(in any) any {
	switch x := in.(type) {
	case map[any]any:
		m := make(map[string]any, len(x))
		for k, v := range x {
			m[fmt.Sprint(k)] = stringKeys(v)
		}
		return m
	case map[string]any:
		for k, v := range x {
			x[k] = stringKeys(v)
		}
		return x
	case []any:
		for i := range x {
			x[i] = stringKeys(x[i])
		}
		return x
	default:
		return in
	}
}
