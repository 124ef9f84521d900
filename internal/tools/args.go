package tools

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Args are the decoded JSON arguments of a tool call
type Args map[string]any

// String returns a string argument or "" when absent.
func (a Args) String(key string) string {
	switch v := a[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// RequireString returns a non-empty string argument.
func (a Args) RequireString(key string) (string, error) {
	v := strings.TrimSpace(a.String(key))
	if v == "" {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	return v, nil
}

// Number returns a numeric argument. Numbers may arrive as JSON numbers or strings.
func (a Args) Number(key string) (float64, bool) {
	switch v := a[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Int returns a rounded numeric argument or def when absent.
func (a Args) Int(key string, def int) int {
	f, ok := a.Number(key)
	if !ok {
		return def
	}
	return int(math.Round(f))
}

// Strings returns a string list argument.
func (a Args) Strings(key string) []string {
	switch v := a[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok && s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return strings.Split(v, "+")
	default:
		return nil
	}
}
