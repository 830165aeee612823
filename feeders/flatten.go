// Package feeders loads flat, dot-separated property maps from YAML files,
// TOML files and environment variables.
package feeders

import (
	"fmt"
)

type debugLogger interface {
	Debug(msg string, args ...any)
}

// flatten writes every leaf of value into out under dot-joined keys.
// Sequences are kept whole under their own key.
func flatten(prefix string, value any, out map[string]any) {
	switch v := value.(type) {
	case map[string]any:
		if len(v) == 0 && prefix != "" {
			out[prefix] = v
			return
		}
		for k, child := range v {
			flatten(join(prefix, k), child, out)
		}
	case map[any]any:
		for k, child := range v {
			flatten(join(prefix, fmt.Sprint(k)), child, out)
		}
	default:
		if prefix != "" {
			out[prefix] = v
		}
	}
}

func join(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return prefix + "." + key
}

// lookup returns the subtree of data at a dotted key.
func lookup(data map[string]any, key string) (any, bool) {
	if v, ok := data[key]; ok {
		return v, true
	}
	for k, v := range data {
		rest, ok := cutKeyPrefix(key, k)
		if !ok {
			continue
		}
		if child, ok := v.(map[string]any); ok {
			return lookup(child, rest)
		}
	}
	return nil, false
}

func cutKeyPrefix(key, prefix string) (string, bool) {
	if len(key) <= len(prefix)+1 || key[:len(prefix)] != prefix || key[len(prefix)] != '.' {
		return "", false
	}
	return key[len(prefix)+1:], true
}
