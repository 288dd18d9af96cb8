package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseError reports a payload that is not a JSON object at all. Unknown
// shapes are not errors; they degrade to a partially filled session.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parsing payload: %v", e.Err) }

func (e *ParseError) Unwrap() error { return e.Err }

// Decode reads a JSON object keeping numbers as json.Number so large numeric
// ids survive coercion to string unchanged.
func Decode(data []byte) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, &ParseError{Err: err}
	}
	if m == nil {
		return nil, &ParseError{Err: fmt.Errorf("expected object, got null")}
	}
	return m, nil
}

func lookup(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func has(m map[string]any, keys ...string) bool {
	_, ok := lookup(m, keys...)
	return ok
}

// IDString coerces a wire identifier (string or number) to its string form.
// Anything else yields "".
func IDString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		if x == math.Trunc(x) && math.Abs(x) < 1<<53 {
			return strconv.FormatInt(int64(x), 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case int64:
		return strconv.FormatInt(x, 10)
	}
	return ""
}

func str(m map[string]any, keys ...string) string {
	v, ok := lookup(m, keys...)
	if !ok {
		return ""
	}
	return IDString(v)
}

func integer(m map[string]any, keys ...string) (int, bool) {
	v, ok := lookup(m, keys...)
	if !ok {
		return 0, false
	}
	return toInt(v)
}

func toInt(v any) (int, bool) {
	switch x := v.(type) {
	case json.Number:
		if n, err := x.Int64(); err == nil {
			return int(n), true
		}
		if f, err := x.Float64(); err == nil {
			return int(f), true
		}
	case float64:
		return int(x), true
	case int:
		return x, true
	case int64:
		return int(x), true
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return n, true
		}
	}
	return 0, false
}

func boolean(m map[string]any, keys ...string) (bool, bool) {
	v, ok := lookup(m, keys...)
	if !ok {
		return false, false
	}
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		return b, err == nil
	default:
		n, ok := toInt(v)
		return n != 0, ok
	}
}

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

func timestamp(m map[string]any, keys ...string) *time.Time {
	v, ok := lookup(m, keys...)
	if !ok {
		return nil
	}
	if s, ok := v.(string); ok {
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return &t
			}
		}
		return nil
	}
	n, ok := toInt(v)
	if !ok || n <= 0 {
		return nil
	}
	// Epoch values above 1e12 are milliseconds.
	var t time.Time
	if n > 1e12 {
		t = time.UnixMilli(int64(n)).UTC()
	} else {
		t = time.Unix(int64(n), 0).UTC()
	}
	return &t
}

func object(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func list(m map[string]any, keys ...string) ([]any, bool) {
	v, ok := lookup(m, keys...)
	if !ok {
		return nil, false
	}
	l, ok := v.([]any)
	return l, ok
}
