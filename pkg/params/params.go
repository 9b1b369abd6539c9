// Package params coerces loosely typed form submissions into configuration
// maps the terminal layer can decode. Two passes: Flatten turns bracketed
// form keys into nested structures, Normalize coerces checkbox-style string
// booleans and defaults absent boolean keys to false.
package params

import "strings"

// Flatten converts bracketed form keys into a nested map. A key like
// "term[operators][]" becomes term -> operators -> []any. Repeated values
// for the same key accumulate into a slice unless the raw value already is
// one. Keys without brackets map straight through.
func Flatten(values map[string][]string) map[string]any {
	result := make(map[string]any)
	for key, vals := range values {
		isArray := strings.HasSuffix(key, "[]")
		path := splitKey(key)
		if len(path) == 0 {
			continue
		}

		node := result
		for i := 0; i < len(path)-1; i++ {
			child, ok := node[path[i]].(map[string]any)
			if !ok {
				child = make(map[string]any)
				node[path[i]] = child
			}
			node = child
		}

		leaf := path[len(path)-1]
		if isArray || len(vals) > 1 {
			list, _ := node[leaf].([]any)
			for _, v := range vals {
				list = append(list, v)
			}
			node[leaf] = list
			continue
		}
		if len(vals) == 1 {
			node[leaf] = vals[0]
		}
	}
	return result
}

// splitKey breaks "a[b][c][]" into ["a", "b", "c"], dropping the trailing
// array marker.
func splitKey(key string) []string {
	key = strings.TrimSuffix(key, "[]")
	key = strings.NewReplacer("][", ".", "[", ".", "]", "").Replace(key)
	key = strings.TrimSuffix(key, ".")
	if key == "" {
		return nil
	}
	return strings.Split(key, ".")
}

// Normalize walks raw recursively, coercing the strings "on"/"true" to true
// and "off"/"false" to false. Every name in boolKeys that is absent from raw
// (or flattened to an empty value) is set to false, following the
// unchecked-checkbox convention. Other values pass through unchanged. The input map is not
// modified.
func Normalize(raw map[string]any, boolKeys []string) map[string]any {
	out := coerceMap(raw)
	for _, k := range boolKeys {
		if _, ok := out[k]; !ok {
			out[k] = false
		}
	}
	return out
}

func coerceMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = coerceValue(v)
	}
	return out
}

func coerceValue(v any) any {
	switch val := v.(type) {
	case string:
		switch val {
		case "on", "true":
			return true
		case "off", "false":
			return false
		}
		return val
	case map[string]any:
		return coerceMap(val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = coerceValue(item)
		}
		return out
	default:
		return v
	}
}

// StringSlice extracts a slice of strings from a flattened value. A missing
// or foreign-typed value yields an empty slice, never nil.
func StringSlice(v any) []string {
	out := []string{}
	switch val := v.(type) {
	case []any:
		for _, item := range val {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	case []string:
		out = append(out, val...)
	case string:
		if val != "" {
			out = append(out, val)
		}
	}
	return out
}
