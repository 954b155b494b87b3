package jsonutil

import (
	"encoding/json"
	"strings"
)

// Pretty re-indents a raw JSON string; non-JSON input passes through as-is.
func Pretty(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return raw
	}
	var v any
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return raw
	}
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return raw
	}
	return string(buf)
}

// MarshalPretty renders a value as indented JSON with a trailing newline.
func MarshalPretty(v any) ([]byte, error) {
	buf, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(buf, '\n'), nil
}
