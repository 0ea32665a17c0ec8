// Package viz implements the tabular data model shared by the query engine,
// the providers and the renderers: typed scalar values, column descriptions,
// tables with warnings and properties, the protocol error taxonomy and the
// localized message bundles.
package viz

import (
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash"
	errors "gopkg.in/src-d/go-errors.v1"
)

var (
	// ErrTypeMismatch is returned when two values of different types are
	// compared.
	ErrTypeMismatch = errors.NewKind("type mismatch: cannot compare %s with %s")
	// ErrNotUTC is returned when a calendar value is constructed from a
	// time carrying a non-UTC zone offset.
	ErrNotUTC = errors.NewKind("time value must be in UTC, got zone %q")
	// ErrBadTimeOfDay is returned when a time of day component is out of
	// range.
	ErrBadTimeOfDay = errors.NewKind("invalid time of day %02d:%02d:%02d.%03d")
	// ErrNullLiteral is returned by QueryLiteral on null values.
	ErrNullLiteral = errors.NewKind("null %s value has no query literal form")
	// ErrUnquotableText is returned by QueryLiteral when the text contains
	// both quote characters and cannot be embedded in a query string.
	ErrUnquotableText = errors.NewKind("text %q contains both quote characters")
)

// Value is a typed scalar: one of text, number, boolean, date, datetime or
// time of day, each with a single canonical null. Values are immutable and
// may be freely shared.
//
// The calendar types are backed by a time.Time pinned to UTC: a date is
// midnight of its day, a time of day lives on the zero date. Months are
// 1-based throughout; the 0-based month of the wire format is produced only
// at serialization.
type Value struct {
	typ  ValueType
	null bool
	num  float64
	b    bool
	text string
	t    time.Time
}

// NewNull returns the canonical null of the given type.
func NewNull(t ValueType) Value {
	return Value{typ: t, null: true}
}

// NewText returns a text value. The empty string is the null text; there is
// no non-null empty text value.
func NewText(s string) Value {
	return Value{typ: TypeText, null: s == "", text: s}
}

// NewNumber returns a number value.
func NewNumber(f float64) Value {
	return Value{typ: TypeNumber, num: f}
}

// NewBool returns a boolean value.
func NewBool(b bool) Value {
	return Value{typ: TypeBoolean, b: b}
}

// NewDate returns a date value from the date part of t, which must carry a
// zero UTC offset. The time of day is discarded.
func NewDate(t time.Time) (Value, error) {
	if err := requireUTC(t); err != nil {
		return Value{}, err
	}
	y, m, d := t.UTC().Date()
	return NewDateOf(y, m, d), nil
}

// NewDateOf returns a date value from components. Out of range components
// are normalized the way time.Date normalizes them.
func NewDateOf(year int, month time.Month, day int) Value {
	return Value{typ: TypeDate, t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// NewDateTime returns a datetime value from t, which must carry a zero UTC
// offset. Precision below one millisecond is discarded.
func NewDateTime(t time.Time) (Value, error) {
	if err := requireUTC(t); err != nil {
		return Value{}, err
	}
	u := t.UTC()
	y, m, d := u.Date()
	return NewDateTimeOf(y, m, d, u.Hour(), u.Minute(), u.Second(), u.Nanosecond()/1e6), nil
}

// NewDateTimeOf returns a datetime value from components, normalized the way
// time.Date normalizes them.
func NewDateTimeOf(year int, month time.Month, day, hour, min, sec, millis int) Value {
	return Value{typ: TypeDateTime, t: time.Date(year, month, day, hour, min, sec, millis*1e6, time.UTC)}
}

// NewTimeOfDay returns a time of day value. All components are validated
// against their ranges.
func NewTimeOfDay(hour, min, sec, millis int) (Value, error) {
	if hour < 0 || hour > 23 || min < 0 || min > 59 || sec < 0 || sec > 59 ||
		millis < 0 || millis > 999 {
		return Value{}, ErrBadTimeOfDay.New(hour, min, sec, millis)
	}
	return Value{typ: TypeTimeOfDay, t: time.Date(1, time.January, 1, hour, min, sec, millis*1e6, time.UTC)}, nil
}

// NewTimeOfDayFrom extracts the clock of t, which must carry a zero UTC
// offset.
func NewTimeOfDayFrom(t time.Time) (Value, error) {
	if err := requireUTC(t); err != nil {
		return Value{}, err
	}
	u := t.UTC()
	return NewTimeOfDay(u.Hour(), u.Minute(), u.Second(), u.Nanosecond()/1e6)
}

func requireUTC(t time.Time) error {
	if _, offset := t.Zone(); offset != 0 {
		return ErrNotUTC.New(t.Location().String())
	}
	return nil
}

// Type returns the value's type. Null values are typed like any other.
func (v Value) Type() ValueType { return v.typ }

// IsNull reports whether v is the canonical null of its type.
func (v Value) IsNull() bool { return v.null }

// Text returns the text payload, "" for null.
func (v Value) Text() string { return v.text }

// Number returns the number payload, 0 for null.
func (v Value) Number() float64 { return v.num }

// Bool returns the boolean payload, false for null.
func (v Value) Bool() bool { return v.b }

// Time returns the underlying UTC instant of a date, datetime or time of day
// value. For time of day the date part is the zero date.
func (v Value) Time() time.Time { return v.t }

// Clock returns the clock components of a datetime or time of day value.
func (v Value) Clock() (hour, min, sec, millis int) {
	return v.t.Hour(), v.t.Minute(), v.t.Second(), v.t.Nanosecond() / 1e6
}

func (v Value) millisOfDay() int64 {
	h, m, s, ms := v.Clock()
	return int64(((h*60+m)*60+s)*1000 + ms)
}

// Compare orders v against other. Both must have the same type or
// ErrTypeMismatch is returned. The null of a type is strictly less than any
// non-null value of that type; text compares by code points, locale-aware
// ordering is layered above by the table collator.
func (v Value) Compare(other Value) (int, error) {
	if v.typ != other.typ {
		return 0, ErrTypeMismatch.New(v.typ, other.typ)
	}
	switch {
	case v.null && other.null:
		return 0, nil
	case v.null:
		return -1, nil
	case other.null:
		return 1, nil
	}
	switch v.typ {
	case TypeText:
		return strings.Compare(v.text, other.text), nil
	case TypeNumber:
		switch {
		case v.num < other.num:
			return -1, nil
		case v.num > other.num:
			return 1, nil
		}
		return 0, nil
	case TypeBoolean:
		switch {
		case v.b == other.b:
			return 0, nil
		case !v.b:
			return -1, nil
		}
		return 1, nil
	default:
		return v.t.Compare(other.t), nil
	}
}

// Equals reports whether v and other are the same value. Values of
// different types are never equal; two nulls of the same type are.
func (v Value) Equals(other Value) bool {
	if v.typ != other.typ {
		return false
	}
	c, err := v.Compare(other)
	return err == nil && c == 0
}

// Hash returns a hash consistent with Equals. The null of every type hashes
// to 0.
func (v Value) Hash() uint64 {
	if v.null {
		return 0
	}
	var buf [9]byte
	buf[0] = byte(v.typ)
	switch v.typ {
	case TypeText:
		return xxhash.Sum64String(string(buf[:1]) + v.text)
	case TypeNumber:
		f := v.num
		if f == 0 {
			f = 0 // fold -0 into +0
		}
		binary.LittleEndian.PutUint64(buf[1:], math.Float64bits(f))
	case TypeBoolean:
		if v.b {
			buf[1] = 1
		}
	case TypeDate, TypeDateTime:
		binary.LittleEndian.PutUint64(buf[1:], uint64(v.t.UnixMilli()))
	case TypeTimeOfDay:
		binary.LittleEndian.PutUint64(buf[1:], uint64(v.millisOfDay()))
	}
	return xxhash.Sum64(buf[:])
}

// String renders the value for ids, logs and pivot labels. It is not the
// locale-formatted display form; see the format package for that.
func (v Value) String() string {
	if v.null {
		return "null"
	}
	switch v.typ {
	case TypeText:
		return v.text
	case TypeNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64)
	case TypeBoolean:
		return strconv.FormatBool(v.b)
	case TypeDate:
		return v.t.Format("2006-01-02")
	case TypeDateTime:
		return v.t.Format("2006-01-02 15:04:05") + v.fraction()
	default:
		return v.t.Format("15:04:05") + v.fraction()
	}
}

func (v Value) fraction() string {
	if ms := v.t.Nanosecond() / 1e6; ms != 0 {
		return fmt.Sprintf(".%03d", ms)
	}
	return ""
}

// QueryLiteral renders the value as a literal the query grammar parses back
// to an equal value. Null values have no literal form.
func (v Value) QueryLiteral() (string, error) {
	if v.null {
		return "", ErrNullLiteral.New(v.typ)
	}
	switch v.typ {
	case TypeText:
		if !strings.Contains(v.text, `"`) {
			return `"` + v.text + `"`, nil
		}
		if !strings.Contains(v.text, `'`) {
			return `'` + v.text + `'`, nil
		}
		return "", ErrUnquotableText.New(v.text)
	case TypeNumber:
		return strconv.FormatFloat(v.num, 'g', -1, 64), nil
	case TypeBoolean:
		return strconv.FormatBool(v.b), nil
	case TypeDate:
		return `date "` + v.String() + `"`, nil
	case TypeDateTime:
		return `datetime "` + v.String() + `"`, nil
	default:
		return `timeofday "` + v.String() + `"`, nil
	}
}
