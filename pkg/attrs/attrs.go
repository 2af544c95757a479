// Package attrs reads slog-style key/value argument lists.
package attrs

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
)

// Lookup finds key in a [key1, value1, key2, value2, ...] list. Strings and
// fmt.Stringers are returned as text; any other value reports false.
func Lookup(kv []any, key string) (string, bool) {
	for i := 0; i+1 < len(kv); i += 2 {
		k, ok := kv[i].(string)
		if !ok || k != key {
			continue
		}
		switch v := kv[i+1].(type) {
		case string:
			return v, true
		case fmt.Stringer:
			return v.String(), true
		}
		return "", false
	}
	return "", false
}

// SpanAttributes converts the listed keys into span attributes, skipping
// keys that are absent or empty. Keys are namespaced with prefix.
func SpanAttributes(kv []any, prefix string, keys ...string) []attribute.KeyValue {
	out := make([]attribute.KeyValue, 0, len(keys))
	for _, key := range keys {
		if v, ok := Lookup(kv, key); ok && v != "" {
			out = append(out, attribute.String(prefix+key, v))
		}
	}
	return out
}
