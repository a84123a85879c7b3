// Package datenorm turns the date encodings found in store records into a
// canonical calendar date ("YYYY-MM-DD") and a comparable instant (epoch
// milliseconds).
//
// Recognized shapes form a closed set:
//
//   - string: ISO-8601 date, optionally followed by a time component
//   - time.Time / *time.Time: native values, read in their own location
//   - *timestamppb.Timestamp: server timestamp exposing AsTime
//   - Timestamp / *Timestamp: server timestamp carrying raw epoch seconds
//   - map[string]interface{}: a decoded server timestamp with a "seconds"
//     or "_seconds" field (and optional "nanoseconds"/"_nanoseconds")
//
// Anything else, including bare numbers, is rejected. No function in this
// package panics or returns an error; a failed normalization reports ok=false.
package datenorm

import (
	"encoding/json"
	"math"
	"strings"
	"time"

	"google.golang.org/protobuf/types/known/timestamppb"
)

// Layout is the canonical calendar date layout.
const Layout = "2006-01-02"

// Timestamp is a server timestamp that only exposes epoch seconds.
type Timestamp struct {
	Seconds     int64 `json:"seconds"`
	Nanoseconds int32 `json:"nanoseconds"`
}

// Time converts the timestamp to a UTC time.
func (t Timestamp) Time() time.Time {
	return time.Unix(t.Seconds, int64(t.Nanoseconds)).UTC()
}

// resolved is the intermediate result of dispatching on an input's shape.
type resolved struct {
	date string
	at   time.Time
}

// Date returns the canonical "YYYY-MM-DD" for v.
func Date(v interface{}) (string, bool) {
	r, ok := resolve(v)
	if !ok {
		return "", false
	}
	return r.date, true
}

// Instant returns v as epoch milliseconds. Date-only strings resolve to
// midnight UTC of that day.
func Instant(v interface{}) (int64, bool) {
	r, ok := resolve(v)
	if !ok {
		return 0, false
	}
	return r.at.UnixMilli(), true
}

// Today returns the canonical date of now, read in now's own location. It is
// the same rule applied to native time values so callers compare like with
// like.
func Today(now time.Time) string {
	return now.Format(Layout)
}

func resolve(v interface{}) (resolved, bool) {
	switch x := v.(type) {
	case string:
		return fromString(x)
	case time.Time:
		return fromNative(x)
	case *time.Time:
		if x == nil {
			return resolved{}, false
		}
		return fromNative(*x)
	case *timestamppb.Timestamp:
		if x == nil || !x.IsValid() {
			return resolved{}, false
		}
		return fromUTC(x.AsTime())
	case Timestamp:
		return fromEpoch(x)
	case *Timestamp:
		if x == nil {
			return resolved{}, false
		}
		return fromEpoch(*x)
	case map[string]interface{}:
		ts, ok := timestampFromMap(x)
		if !ok {
			return resolved{}, false
		}
		return fromEpoch(ts)
	default:
		// Numbers land here: an epoch with no unit is ambiguous.
		return resolved{}, false
	}
}

func fromString(s string) (resolved, bool) {
	s = strings.TrimSpace(s)
	if len(s) < len(Layout) {
		return resolved{}, false
	}
	datePart := s[:len(Layout)]
	day, err := time.Parse(Layout, datePart)
	if err != nil {
		return resolved{}, false
	}
	rest := s[len(Layout):]
	if rest == "" {
		return resolved{date: datePart, at: day}, true
	}
	if rest[0] != 'T' && rest[0] != ' ' {
		return resolved{}, false
	}

	for _, layout := range timeLayouts {
		if at, err := time.Parse(layout, s); err == nil {
			// The literal date portion wins over any zone conversion.
			return resolved{date: datePart, at: at}, true
		}
	}
	return resolved{}, false
}

// timeLayouts are the accepted date-time forms; each must match the whole
// string.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04",
}

// Epoch seconds of 0001-01-01T00:00:00Z and 9999-12-31T23:59:59Z. Outside
// this range a date no longer formats as YYYY-MM-DD.
const (
	minEpochSeconds = -62135596800
	maxEpochSeconds = 253402300799
)

func fromNative(t time.Time) (resolved, bool) {
	if t.IsZero() || !inCalendarRange(t) {
		return resolved{}, false
	}
	return resolved{date: t.Format(Layout), at: t}, true
}

func fromEpoch(ts Timestamp) (resolved, bool) {
	if ts.Seconds < minEpochSeconds || ts.Seconds > maxEpochSeconds {
		return resolved{}, false
	}
	return fromUTC(ts.Time())
}

func fromUTC(t time.Time) (resolved, bool) {
	t = t.UTC()
	if !inCalendarRange(t) {
		return resolved{}, false
	}
	return resolved{date: t.Format(Layout), at: t}, true
}

func inCalendarRange(t time.Time) bool {
	y := t.Year()
	return y >= 1 && y <= 9999
}

func timestampFromMap(m map[string]interface{}) (Timestamp, bool) {
	raw, ok := m["seconds"]
	if !ok {
		raw, ok = m["_seconds"]
	}
	if !ok {
		return Timestamp{}, false
	}
	secs, ok := wholeNumber(raw)
	if !ok {
		return Timestamp{}, false
	}

	var nanos int64
	if n, ok := m["nanoseconds"]; ok {
		nanos, _ = wholeNumber(n)
	} else if n, ok := m["_nanoseconds"]; ok {
		nanos, _ = wholeNumber(n)
	}
	if nanos < 0 || nanos >= int64(time.Second) {
		nanos = 0
	}
	return Timestamp{Seconds: secs, Nanoseconds: int32(nanos)}, true
}

// wholeNumber accepts the numeric forms produced by JSON decoding, but only
// inside a field that already names its unit.
func wholeNumber(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) || n != math.Trunc(n) {
			return 0, false
		}
		// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
		if n >= math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int64(n), true
	case json.Number:
		i, err := n.Int64()
		return i, err == nil
	default:
		return 0, false
	}
}
