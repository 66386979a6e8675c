package editor

import (
	"strings"

	"github.com/spf13/cast"
)

// CoerceValue converts raw, typed by a person on a command line, to the type
// of the value it replaces. Strings stay strings; booleans and numbers are
// parsed; string lists accept comma separated values. When raw cannot be
// parsed as the current type it is kept as a string.
func CoerceValue(current any, raw string) any {
	switch current.(type) {
	case bool:
		if b, err := cast.ToBoolE(raw); err == nil {
			return b
		}
	case float64, float32, int, int64, int32:
		if f, err := cast.ToFloat64E(strings.TrimSpace(raw)); err == nil {
			return f
		}
	case []any, []string:
		parts := strings.Split(raw, ",")
		out := make([]any, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}
	return raw
}
