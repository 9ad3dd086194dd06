package datastore

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DateLayout is the calendar-date encoding used for date columns.
const DateLayout = "2006-01-02"

// Row is one relation row keyed by column name. Nested relations appear as
// Row (to-one) or []Row (to-many) values.
type Row map[string]any

// Has reports whether the row carries the column, even if its value is null.
func (r Row) Has(col string) bool {
	_, ok := r[col]
	return ok
}

// Columns returns the row's column names in sorted order.
func (r Row) Columns() []string {
	cols := make([]string, 0, len(r))
	for col := range r {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	if r == nil {
		return nil
	}
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// String returns the column as text, or "" when null or absent.
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case uuid.UUID:
		return v.String()
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}

// StringPtr returns the column as text, or nil when null, absent or empty.
func (r Row) StringPtr(col string) *string {
	s := r.String(col)
	if s == "" {
		return nil
	}
	return &s
}

// UUID returns the column parsed as a UUID, or uuid.Nil.
func (r Row) UUID(col string) uuid.UUID {
	if v, ok := r[col].(uuid.UUID); ok {
		return v
	}
	id, err := uuid.Parse(r.String(col))
	if err != nil {
		return uuid.Nil
	}
	return id
}

// UUIDPtr returns the column parsed as a UUID, or nil when unset.
func (r Row) UUIDPtr(col string) *uuid.UUID {
	id := r.UUID(col)
	if id == uuid.Nil {
		return nil
	}
	return &id
}

// Bool returns the column as a boolean; anything unrecognised is false.
func (r Row) Bool(col string) bool {
	switch v := r[col].(type) {
	case bool:
		return v
	case *bool:
		return v != nil && *v
	case string:
		b, _ := strconv.ParseBool(v)
		return b
	default:
		return false
	}
}

// Float returns the column as a float64, or 0 when null or unparsable.
func (r Row) Float(col string) float64 {
	f, _ := r.FloatOK(col)
	return f
}

// FloatOK returns the column as a float64 and whether a number was present.
func (r Row) FloatOK(col string) (float64, bool) {
	switch v := r[col].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int32:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case decimal.Decimal:
		return v.InexactFloat64(), true
	case *float64:
		if v == nil {
			return 0, false
		}
		return *v, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// FloatPtr returns the column as a float64 pointer, or nil when null.
func (r Row) FloatPtr(col string) *float64 {
	f, ok := r.FloatOK(col)
	if !ok {
		return nil
	}
	return &f
}

// Decimal returns the column as a decimal, or zero when null.
func (r Row) Decimal(col string) decimal.Decimal {
	switch v := r[col].(type) {
	case decimal.Decimal:
		return v
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err == nil {
			return d
		}
	}
	f, ok := r.FloatOK(col)
	if !ok {
		return decimal.Zero
	}
	return decimal.NewFromFloat(f)
}

// Time returns the column as a time and whether it parsed.
func (r Row) Time(col string) (time.Time, bool) {
	switch v := r[col].(type) {
	case time.Time:
		return v, true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return *v, true
	case string:
		return ParseTime(v)
	default:
		return time.Time{}, false
	}
}

// TimePtr returns the column as a time pointer, or nil when unset.
func (r Row) TimePtr(col string) *time.Time {
	t, ok := r.Time(col)
	if !ok {
		return nil
	}
	return &t
}

// Date returns a date column in DateLayout, or "" when unset.
func (r Row) Date(col string) string {
	if s, ok := r[col].(string); ok {
		return s
	}
	t, ok := r.Time(col)
	if !ok {
		return ""
	}
	return t.Format(DateLayout)
}

// Nested returns an embedded to-one relation, or nil.
func (r Row) Nested(col string) Row {
	switch v := r[col].(type) {
	case Row:
		return v
	case map[string]any:
		return Row(v)
	default:
		return nil
	}
}

// NestedList returns an embedded to-many relation; never nil.
func (r Row) NestedList(col string) []Row {
	out := make([]Row, 0)
	switch v := r[col].(type) {
	case []Row:
		out = append(out, v...)
	case []map[string]any:
		for _, item := range v {
			out = append(out, Row(item))
		}
	case []any:
		for _, item := range v {
			switch m := item.(type) {
			case Row:
				out = append(out, m)
			case map[string]any:
				out = append(out, Row(m))
			}
		}
	}
	return out
}

// StringSlice returns an array column as strings; never nil.
func (r Row) StringSlice(col string) []string {
	out := make([]string, 0)
	switch v := r[col].(type) {
	case []string:
		out = append(out, v...)
	case []any:
		for _, item := range v {
			if item != nil {
				out = append(out, fmt.Sprint(item))
			}
		}
	}
	return out
}

// JSON returns a json/jsonb column as a generic value, decoding raw bytes.
func (r Row) JSON(col string) any {
	switch v := r[col].(type) {
	case []byte:
		var decoded any
		if err := json.Unmarshal(v, &decoded); err != nil {
			return nil
		}
		return decoded
	case string:
		var decoded any
		if err := json.Unmarshal([]byte(v), &decoded); err != nil {
			return nil
		}
		return decoded
	default:
		return v
	}
}

// ParseTime accepts calendar dates and RFC 3339 timestamps.
func ParseTime(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range []string{DateLayout, time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
