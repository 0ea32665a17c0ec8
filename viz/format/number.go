package format

import (
	"strconv"
	"strings"

	"github.com/chartdata/go-datasource/viz"
)

// numberFormat is a compiled DecimalFormat pattern. The supported subset:
// '#' and '0' digit placeholders, ',' grouping, '.' decimal separator,
// '%' percent scaling, quoted literals with '' as an escaped quote, and
// an optional negative subpattern after ';'.
type numberFormat struct {
	prefix   string
	suffix   string
	minInt   int
	minFrac  int
	maxFrac  int
	grouping int
	percent  bool

	negPrefix string
	negSuffix string
	hasNeg    bool
}

func newNumberFormat(pattern string) (Formatter, error) {
	pos, neg, hasNeg, err := splitSubpatterns(pattern)
	if err != nil {
		return nil, ErrBadPattern.New(pattern, err.Error())
	}
	f := &numberFormat{}
	if err := f.compile(pos); err != nil {
		return nil, ErrBadPattern.New(pattern, err.Error())
	}
	if hasNeg {
		var n numberFormat
		if err := n.compile(neg); err != nil {
			return nil, ErrBadPattern.New(pattern, err.Error())
		}
		f.negPrefix, f.negSuffix = n.prefix, n.suffix
		f.hasNeg = true
	}
	return f, nil
}

// splitSubpatterns splits "positive;negative" on the first unquoted ';'.
func splitSubpatterns(pattern string) (pos, neg string, hasNeg bool, err error) {
	quoted := false
	for i, r := range pattern {
		switch {
		case r == '\'':
			quoted = !quoted
		case r == ';' && !quoted:
			return pattern[:i], pattern[i+1:], true, nil
		}
	}
	if quoted {
		return "", "", false, errUnterminatedQuote
	}
	return pattern, "", false, nil
}

var errUnterminatedQuote = patternError("unterminated quoted literal")

type patternError string

func (e patternError) Error() string { return string(e) }

// compile walks one subpattern: literal prefix, then the digit section,
// then literal suffix. Digit placeholders appearing after the suffix has
// started make the pattern invalid.
func (f *numberFormat) compile(pattern string) error {
	const (
		inPrefix = iota
		inInt
		inFrac
		inSuffix
	)
	phase := inPrefix
	var prefix, suffix strings.Builder
	lastGroup := -1 // index into the integer digit sequence of the last ','
	intDigits := 0
	sawZero := false

	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		if r == '\'' {
			lit, rest, err := readQuoted(runes[i:])
			if err != nil {
				return err
			}
			i += rest - 1
			switch phase {
			case inPrefix:
				prefix.WriteString(lit)
			case inInt, inFrac:
				phase = inSuffix
				suffix.WriteString(lit)
			default:
				suffix.WriteString(lit)
			}
			continue
		}
		switch r {
		case '#', '0':
			switch phase {
			case inPrefix:
				phase = inInt
				fallthrough
			case inInt:
				intDigits++
				if r == '0' {
					sawZero = true
					f.minInt++
				} else if sawZero {
					return patternError("'#' cannot follow '0' in the integer part")
				}
			case inFrac:
				f.maxFrac++
				if r == '0' {
					if f.minFrac < f.maxFrac-1 {
						return patternError("'0' cannot follow '#' in the fraction part")
					}
					f.minFrac++
				}
			default:
				return patternError("digit placeholder after the suffix")
			}
		case ',':
			if phase != inInt {
				return patternError("grouping separator outside the integer part")
			}
			lastGroup = intDigits
		case '.':
			switch phase {
			case inPrefix, inInt:
				phase = inFrac
			default:
				return patternError("multiple decimal separators")
			}
		case '%':
			f.percent = true
			if phase == inPrefix {
				prefix.WriteRune(r)
			} else {
				phase = inSuffix
				suffix.WriteRune(r)
			}
		default:
			if phase == inPrefix {
				prefix.WriteRune(r)
			} else {
				phase = inSuffix
				suffix.WriteRune(r)
			}
		}
	}
	if lastGroup >= 0 && intDigits > lastGroup {
		f.grouping = intDigits - lastGroup
	}
	if f.minInt == 0 && f.maxFrac == 0 {
		f.minInt = 1
	}
	f.prefix, f.suffix = prefix.String(), suffix.String()
	return nil
}

// readQuoted consumes a quoted literal starting at runes[0] == '\''. It
// returns the unescaped text and the number of runes consumed. A doubled
// quote inside the literal stands for a single quote; the lone pair ''
// outside any literal does too.
func readQuoted(runes []rune) (string, int, error) {
	var out strings.Builder
	i := 1
	for i < len(runes) {
		if runes[i] == '\'' {
			if i+1 < len(runes) && runes[i+1] == '\'' {
				out.WriteRune('\'')
				i += 2
				continue
			}
			return out.String(), i + 1, nil
		}
		out.WriteRune(runes[i])
		i++
	}
	return "", 0, errUnterminatedQuote
}

func (f *numberFormat) Format(v viz.Value) string {
	if v.IsNull() {
		return ""
	}
	n := v.Number()
	if f.percent {
		n *= 100
	}
	negative := n < 0
	if negative {
		n = -n
	}
	body := f.renderBody(n)
	if negative {
		if f.hasNeg {
			return f.negPrefix + body + f.negSuffix
		}
		return "-" + f.prefix + body + f.suffix
	}
	return f.prefix + body + f.suffix
}

func (f *numberFormat) renderBody(n float64) string {
	s := strconv.FormatFloat(n, 'f', f.maxFrac, 64)
	intPart, fracPart := s, ""
	if dot := strings.IndexByte(s, '.'); dot >= 0 {
		intPart, fracPart = s[:dot], s[dot+1:]
	}
	for len(fracPart) > f.minFrac && strings.HasSuffix(fracPart, "0") {
		fracPart = fracPart[:len(fracPart)-1]
	}
	for len(intPart) < f.minInt {
		intPart = "0" + intPart
	}
	if f.minInt == 0 && intPart == "0" && f.maxFrac > 0 {
		intPart = ""
	}
	if f.grouping > 0 {
		intPart = groupDigits(intPart, f.grouping)
	}
	if fracPart != "" {
		return intPart + "." + fracPart
	}
	if intPart == "" {
		return "0"
	}
	return intPart
}

func groupDigits(digits string, size int) string {
	if len(digits) <= size {
		return digits
	}
	var out strings.Builder
	lead := len(digits) % size
	if lead == 0 {
		lead = size
	}
	out.WriteString(digits[:lead])
	for i := lead; i < len(digits); i += size {
		out.WriteByte(',')
		out.WriteString(digits[i : i+size])
	}
	return out.String()
}
