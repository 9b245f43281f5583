// Package canonical turns loosely shaped provider JSON into canonical health
// records. Irregular values are coerced or dropped and their paths reported as
// uncertain; nothing in this package fails an extraction.
package canonical

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

type tracker struct {
	paths []string
	seen  map[string]struct{}
}

func newTracker() *tracker {
	return &tracker{seen: make(map[string]struct{})}
}

func (t *tracker) mark(path string) {
	if _, ok := t.seen[path]; ok {
		return
	}
	t.seen[path] = struct{}{}
	t.paths = append(t.paths, path)
}

func (t *tracker) result() []string {
	if len(t.paths) == 0 {
		return nil
	}
	out := make([]string, len(t.paths))
	copy(out, t.paths)
	return out
}

func itemPath(list string, idx int) string {
	return list + "[" + strconv.Itoa(idx) + "]"
}

// lookup returns raw[key], falling back to the first present alias. Using an
// alias marks path as uncertain.
func lookup(raw map[string]any, key, path string, t *tracker, aliases ...string) (any, bool) {
	if v, ok := raw[key]; ok && v != nil {
		return v, true
	}
	for _, alias := range aliases {
		if v, ok := raw[alias]; ok && v != nil {
			t.mark(path)
			return v, true
		}
	}
	v, ok := raw[key]
	return v, ok
}

func optionalString(raw map[string]any, key, path string, t *tracker, aliases ...string) string {
	v, ok := lookup(raw, key, path, t, aliases...)
	if !ok {
		return ""
	}
	return coerceString(v, path, t)
}

// coerceString keeps strings, formats numbers and booleans and discards
// structured values. Empty or null is simply absent.
func coerceString(v any, path string, t *tracker) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		t.mark(path)
		return val.String()
	case float64:
		t.mark(path)
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		t.mark(path)
		return strconv.Itoa(val)
	case bool:
		t.mark(path)
		return strconv.FormatBool(val)
	default:
		t.mark(path)
		return ""
	}
}

func coerceEnum[T ~string](v any, allowed []T, path string, t *tracker) T {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return ""
		}
		for _, candidate := range allowed {
			if strings.EqualFold(trimmed, string(candidate)) {
				return candidate
			}
		}
		t.mark(path)
		return ""
	default:
		t.mark(path)
		return ""
	}
}

// objectList returns the list under key. Missing or null is an empty list; any
// other non-array value is an empty list plus an uncertain mark.
func objectList(raw map[string]any, key string, t *tracker) []any {
	v, ok := raw[key]
	if !ok || v == nil {
		return nil
	}
	items, ok := v.([]any)
	if !ok {
		t.mark(key)
		return nil
	}
	return items
}

func stringList(raw map[string]any, key string, t *tracker) []string {
	out := []string{}
	for idx, item := range objectList(raw, key, t) {
		switch val := item.(type) {
		case nil:
			continue
		case map[string]any, []any:
			t.mark(itemPath(key, idx))
			continue
		default:
			s := coerceString(val, itemPath(key, idx), t)
			if s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// coerceCount turns a dosage value into a non-negative integer.
func coerceCount(v any, path string, t *tracker) int {
	switch val := v.(type) {
	case nil:
		return 0
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return nonNegative(float64(n), path, t)
		}
		f, err := val.Float64()
		if err != nil {
			t.mark(path)
			return 0
		}
		return nonNegative(f, path, t)
	case float64:
		return nonNegative(val, path, t)
	case int:
		return nonNegative(float64(val), path, t)
	case string:
		t.mark(path)
		n, err := strconv.Atoi(strings.TrimSpace(val))
		if err != nil || n < 0 {
			return 0
		}
		return n
	default:
		t.mark(path)
		return 0
	}
}

func nonNegative(f float64, path string, t *tracker) int {
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		t.mark(path)
		return 0
	}
	return int(f)
}
