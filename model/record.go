package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sahilchouksey/campus-timeline/utils/datenorm"
)

// Record is a raw, loosely typed store document as decoded from JSON.
type Record = map[string]interface{}

// field returns the first present, non-nil value among keys.
func field(r Record, keys ...string) (interface{}, bool) {
	for _, k := range keys {
		if v, ok := r[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// stringField reads the first key holding a non-empty value. Numbers and
// booleans are rendered, since legacy writers stored ids and room numbers
// both ways.
func stringField(r Record, keys ...string) string {
	for _, k := range keys {
		v, ok := r[k]
		if !ok || v == nil {
			continue
		}
		if s := asString(v); s != "" {
			return s
		}
	}
	return ""
}

func asString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case json.Number:
		return x.String()
	case float64:
		if i, ok := floatToInt(x); ok {
			return strconv.FormatInt(i, 10)
		}
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int, int32, int64, bool:
		return fmt.Sprint(x)
	default:
		return ""
	}
}

// intField reads a non-negative integer, clamping negatives and rejecting
// anything that is not a whole number.
func intField(r Record, keys ...string) int64 {
	v, ok := field(r, keys...)
	if !ok {
		return 0
	}
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int32:
		n = int64(x)
	case int64:
		n = x
	case float64:
		i, ok := floatToInt(x)
		if !ok {
			return 0
		}
		n = i
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			f, ferr := x.Float64()
			if ferr != nil {
				return 0
			}
			var ok bool
			if i, ok = floatToInt(f); !ok {
				return 0
			}
		}
		n = i
	case string:
		i, err := strconv.ParseInt(strings.TrimSpace(x), 10, 64)
		if err != nil {
			return 0
		}
		n = i
	default:
		return 0
	}
	if n < 0 {
		return 0
	}
	return n
}

// floatToInt converts a whole float. Values int64 cannot hold are rejected;
// float64(math.MaxInt64) is 2^63 and already out of range.
func floatToInt(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f >= math.MaxInt64 || f < math.MinInt64 {
		return 0, false
	}
	return int64(f), true
}

func boolField(r Record, keys ...string) bool {
	v, ok := field(r, keys...)
	if !ok {
		return false
	}
	switch x := v.(type) {
	case bool:
		return x
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		return err == nil && b
	case float64:
		return x != 0
	default:
		return false
	}
}

// stringList reads an array of ids, skipping empty or non-scalar entries.
func stringList(r Record, keys ...string) []string {
	out := []string{}
	v, ok := field(r, keys...)
	if !ok {
		return out
	}
	items, ok := v.([]interface{})
	if !ok {
		if ss, ok := v.([]string); ok {
			for _, s := range ss {
				if s = strings.TrimSpace(s); s != "" {
					out = append(out, s)
				}
			}
		}
		return out
	}
	for _, item := range items {
		if s := asString(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// instantField returns the first key that normalizes to an instant, in
// epoch milliseconds. Zero means unknown.
func instantField(r Record, keys ...string) int64 {
	for _, k := range keys {
		if ms, ok := datenorm.Instant(r[k]); ok {
			return ms
		}
	}
	return 0
}
