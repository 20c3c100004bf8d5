package content

import (
	"strconv"
	"strings"
	"time"
)

// Loosely typed column values come back from the driver as []byte, string,
// int64, float64, bool, time.Time or nil. The As* helpers convert them and
// report false for nil, empty or unparseable values.

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// AsString converts a column value to a trimmed string.
func AsString(v any) (string, bool) {
	var s string
	switch t := v.(type) {
	case nil:
		return "", false
	case string:
		s = t
	case []byte:
		s = string(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	case int:
		s = strconv.Itoa(t)
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(t)
	case time.Time:
		s = t.UTC().Format(time.RFC3339)
	default:
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

// AsInt converts a column value to an integer. Floats are truncated.
func AsInt(v any) (int64, bool) {
	switch t := v.(type) {
	case int64:
		return t, true
	case int:
		return int64(t), true
	case int32:
		return int64(t), true
	case float64:
		return int64(t), true
	case string, []byte:
		s, _ := AsString(t)
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			return n, true
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return int64(f), true
		}
	}
	return 0, false
}

// AsFloat converts a column value to a float. NUMERIC columns arrive as []byte.
func AsFloat(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case float32:
		return float64(t), true
	case int64:
		return float64(t), true
	case int:
		return float64(t), true
	case string, []byte:
		s, _ := AsString(t)
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, true
		}
	}
	return 0, false
}

// AsBool converts a column value to a bool, accepting Postgres "t"/"f".
func AsBool(v any) (bool, bool) {
	switch t := v.(type) {
	case bool:
		return t, true
	case int64:
		return t != 0, true
	case int:
		return t != 0, true
	case string, []byte:
		s, _ := AsString(t)
		if b, err := strconv.ParseBool(s); err == nil {
			return b, true
		}
	}
	return false, false
}

// AsTime converts a column value to a UTC time.
func AsTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), !t.IsZero()
	case string, []byte:
		s, ok := AsString(t)
		if !ok {
			return time.Time{}, false
		}
		for _, layout := range timeLayouts {
			if ts, err := time.Parse(layout, s); err == nil {
				return ts.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

func stringOr(v any, def string) string {
	if s, ok := AsString(v); ok {
		return s
	}
	return def
}

func floatPtr(v any) *float64 {
	if f, ok := AsFloat(v); ok {
		return &f
	}
	return nil
}

func timePtr(v any) *time.Time {
	if t, ok := AsTime(v); ok {
		return &t
	}
	return nil
}
