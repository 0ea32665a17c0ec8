// Package format renders cell values as display strings. Patterns follow
// the DecimalFormat and SimpleDateFormat conventions of the wire protocol;
// the supported subset covers digit placeholders, grouping, quoted
// literals, percent, negative subpatterns and the common date and time
// fields.
package format

import (
	"strings"

	"github.com/chartdata/go-datasource/viz"
	errors "gopkg.in/src-d/go-errors.v1"
)

// ErrBadPattern is returned when a format pattern cannot be compiled for
// the column type.
var ErrBadPattern = errors.NewKind("invalid format pattern %q: %s")

// Formatter renders values of one column type. Null values render as the
// empty string.
type Formatter interface {
	Format(v viz.Value) string
}

// New compiles a pattern for the given column type. Text columns have no
// pattern language; their formatter echoes the value.
func New(pattern string, typ viz.ValueType) (Formatter, error) {
	switch typ {
	case viz.TypeNumber:
		return newNumberFormat(pattern)
	case viz.TypeBoolean:
		return newBooleanFormat(pattern)
	case viz.TypeDate, viz.TypeDateTime, viz.TypeTimeOfDay:
		return newTimeFormat(pattern)
	}
	return defaultFormatter{}, nil
}

// Default returns the formatter used when a column carries no pattern:
// the canonical string rendering of the value type.
func Default(typ viz.ValueType) Formatter {
	return defaultFormatter{}
}

type defaultFormatter struct{}

func (defaultFormatter) Format(v viz.Value) string {
	if v.IsNull() {
		return ""
	}
	return v.String()
}

// booleanFormat renders booleans through a "trueText:falseText" pattern.
type booleanFormat struct {
	trueText  string
	falseText string
}

func newBooleanFormat(pattern string) (Formatter, error) {
	sep := strings.IndexByte(pattern, ':')
	if sep < 0 {
		return nil, ErrBadPattern.New(pattern, "boolean patterns use the form trueText:falseText")
	}
	return booleanFormat{trueText: pattern[:sep], falseText: pattern[sep+1:]}, nil
}

func (f booleanFormat) Format(v viz.Value) string {
	if v.IsNull() {
		return ""
	}
	if v.Bool() {
		return f.trueText
	}
	return f.falseText
}
