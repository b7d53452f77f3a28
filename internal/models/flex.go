package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// The barangay backend has shipped several payload variants over time, so
// the raw field types below accept whatever JSON kind shows up and never fail
// decoding. Consumers decide what an absent or unusable value means.

var jsonNull = []byte("null")

// FlexString holds a JSON string, number or bool as text. Mongo extended ids
// ({"$oid": "..."}) are unwrapped.
type FlexString struct {
	Value string
	Valid bool
}

func (s *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*s = FlexString{}
	if len(b) == 0 || bytes.Equal(b, jsonNull) {
		return nil
	}
	switch b[0] {
	case '"':
		var v string
		if err := json.Unmarshal(b, &v); err == nil {
			*s = FlexString{Value: v, Valid: true}
		}
	case '{':
		var oid struct {
			OID string `json:"$oid"`
		}
		if err := json.Unmarshal(b, &oid); err == nil && oid.OID != "" {
			*s = FlexString{Value: oid.OID, Valid: true}
		}
	case '[':
	default:
		*s = FlexString{Value: string(b), Valid: true}
	}
	return nil
}

func (s FlexString) MarshalJSON() ([]byte, error) {
	if !s.Valid {
		return jsonNull, nil
	}
	return json.Marshal(s.Value)
}

// Present reports whether the value carries non-blank text.
func (s FlexString) Present() bool {
	return s.Valid && strings.TrimSpace(s.Value) != ""
}

func (s FlexString) String() string {
	return strings.TrimSpace(s.Value)
}

// FirstPresent returns the first non-blank value.
func FirstPresent(values ...FlexString) (string, bool) {
	for _, v := range values {
		if v.Present() {
			return v.String(), true
		}
	}
	return "", false
}

// FlexNumber holds a JSON number or numeric string. Valid means the field was
// present and non-null; a present but non-numeric value is Valid with a zero
// Value.
type FlexNumber struct {
	Value decimal.Decimal
	Valid bool
}

func (n *FlexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*n = FlexNumber{}
	if len(b) == 0 || bytes.Equal(b, jsonNull) {
		return nil
	}
	n.Valid = true
	switch b[0] {
	case '"':
		var v string
		if err := json.Unmarshal(b, &v); err == nil {
			n.Value = ParseNumber(v)
		}
	case '{', '[', 't', 'f':
	default:
		if d, err := decimal.NewFromString(string(b)); err == nil {
			n.Value = d
		}
	}
	return nil
}

func (n FlexNumber) MarshalJSON() ([]byte, error) {
	if !n.Valid {
		return jsonNull, nil
	}
	return []byte(n.Value.String()), nil
}

// Or returns the value, or fallback when the field was absent.
func (n FlexNumber) Or(fallback decimal.Decimal) decimal.Decimal {
	if !n.Valid {
		return fallback
	}
	return n.Value
}

// FirstNumber returns the first field that was present, numeric or not.
func FirstNumber(values ...FlexNumber) (FlexNumber, bool) {
	for _, v := range values {
		if v.Valid {
			return v, true
		}
	}
	return FlexNumber{}, false
}

var numberReplacer = strings.NewReplacer(",", "", "₱", "", "PHP", "", "php", "", " ", "")

// ParseNumber converts loosely formatted amounts ("₱1,200.50", " 40 ") to a
// decimal. Anything unparseable is zero.
func ParseNumber(s string) decimal.Decimal {
	s = numberReplacer.Replace(strings.TrimSpace(s))
	if s == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// FlexTime keeps the raw date text; parsing is deferred so it can happen in the
// portal's configured location.
type FlexTime struct {
	Raw     string
	Numeric bool
}

func (t *FlexTime) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	*t = FlexTime{}
	if len(b) == 0 || bytes.Equal(b, jsonNull) {
		return nil
	}
	switch b[0] {
	case '"':
		var v string
		if err := json.Unmarshal(b, &v); err == nil {
			t.Raw = strings.TrimSpace(v)
		}
	case '{':
		var wrapped struct {
			Date string `json:"$date"`
		}
		if err := json.Unmarshal(b, &wrapped); err == nil {
			t.Raw = strings.TrimSpace(wrapped.Date)
		}
	case '[', 't', 'f':
	default:
		t.Raw = string(b)
		t.Numeric = true
	}
	return nil
}

func (t FlexTime) MarshalJSON() ([]byte, error) {
	if t.Raw == "" {
		return jsonNull, nil
	}
	if t.Numeric {
		return []byte(t.Raw), nil
	}
	return json.Marshal(t.Raw)
}

// Present reports whether any date text was supplied.
func (t FlexTime) Present() bool {
	return t.Raw != ""
}

// In parses the value, interpreting zone-less layouts in loc.
func (t FlexTime) In(loc *time.Location) (time.Time, bool) {
	if t.Raw == "" {
		return time.Time{}, false
	}
	if t.Numeric || isDigits(t.Raw) {
		return parseEpoch(t.Raw, loc)
	}
	return ParseTime(t.Raw, loc)
}

// FirstTime returns the first value that parses.
func FirstTime(loc *time.Location, values ...FlexTime) (time.Time, bool) {
	for _, v := range values {
		if ts, ok := v.In(loc); ok {
			return ts, true
		}
	}
	return time.Time{}, false
}

var zonedLayouts = []string{
	time.RFC3339Nano,
	time.RFC1123Z,
	time.RFC1123,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
}

var localLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"1/2/2006",
	"01/02/2006",
	"January 2, 2006",
	"Jan 2, 2006",
}

// ParseTime understands the date formats the backend and its clients emit.
func ParseTime(raw string, loc *time.Location) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range zonedLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.In(loc), true
		}
	}
	for _, layout := range localLayouts {
		if ts, err := time.ParseInLocation(layout, raw, loc); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

func parseEpoch(raw string, loc *time.Location) (time.Time, bool) {
	v, err := strconv.ParseFloat(raw, 64)
	// Anything below 1e9 (2001 in seconds) is a year or a counter, not a timestamp.
	if err != nil || v < 1e9 {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	if v > 1e11 {
		return time.UnixMilli(int64(v)).In(loc), true
	}
	return time.Unix(int64(v), 0).In(loc), true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}
	return true
}
