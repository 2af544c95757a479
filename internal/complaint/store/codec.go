package store

import (
	"encoding/json"
	"strings"
)

// EncodeList serializes a multi-valued field for its TEXT column.
func EncodeList(values []string) string {
	if len(values) == 0 {
		return "[]"
	}
	b, err := json.Marshal(values)
	if err != nil {
		return "[]"
	}
	return string(b)
}

// DecodeList is NULL tolerant: missing or malformed values decode as an empty list.
func DecodeList(raw *string) []string {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return []string{}
	}
	var out []string
	if err := json.Unmarshal([]byte(*raw), &out); err != nil || out == nil {
		return []string{}
	}
	return out
}
