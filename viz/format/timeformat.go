package format

import (
	"strings"

	"github.com/chartdata/go-datasource/viz"
)

// timeFormat renders dates, datetimes and times of day through a
// SimpleDateFormat-style pattern translated to a Go reference layout at
// compile time.
type timeFormat struct {
	layout string
}

// fieldLayouts maps a pattern letter and repeat count to the reference
// layout fragment. Counts beyond the longest entry reuse it.
var fieldLayouts = map[rune][]string{
	'y': {"2006", "06", "2006", "2006"},
	'M': {"1", "01", "Jan", "January"},
	'd': {"2", "02"},
	'E': {"Mon", "Mon", "Mon", "Monday"},
	'H': {"15", "15"},
	'h': {"3", "03"},
	'm': {"4", "04"},
	's': {"5", "05"},
	'a': {"PM"},
	'z': {"MST"},
}

func newTimeFormat(pattern string) (Formatter, error) {
	var layout strings.Builder
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\'' {
			lit, consumed, err := readQuoted(runes[i:])
			if err != nil {
				return nil, ErrBadPattern.New(pattern, err.Error())
			}
			layout.WriteString(lit)
			i += consumed - 1
			continue
		}
		if !isPatternLetter(r) {
			layout.WriteRune(r)
			continue
		}
		count := 1
		for i+count < len(runes) && runes[i+count] == r {
			count++
		}
		i += count - 1
		if r == 'S' {
			// Fractional seconds only render after a literal '.' in the
			// layout; the usual "ss.SSS" spelling provides it.
			layout.WriteString(strings.Repeat("0", count))
			continue
		}
		forms, ok := fieldLayouts[r]
		if !ok {
			return nil, ErrBadPattern.New(pattern, "unsupported pattern letter '"+string(r)+"'")
		}
		if count > len(forms) {
			count = len(forms)
		}
		layout.WriteString(forms[count-1])
	}
	return timeFormat{layout: layout.String()}, nil
}

func isPatternLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

func (f timeFormat) Format(v viz.Value) string {
	if v.IsNull() {
		return ""
	}
	return v.Time().Format(f.layout)
}
