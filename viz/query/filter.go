package query

import (
	"regexp"
	"strings"

	"github.com/chartdata/go-datasource/viz"
	errors "gopkg.in/src-d/go-errors.v1"
)

var (
	// ErrBadRegexp is returned when a matches pattern does not compile.
	ErrBadRegexp = errors.NewKind("invalid regular expression %q: %s")
	// ErrTextOperator is returned when a text-only operator is applied to
	// non-text operands.
	ErrTextOperator = errors.NewKind("operator %s applies only to text values")
)

// ComparisonOp is a binary comparison operator of the filter algebra.
type ComparisonOp byte

const (
	OpEq ComparisonOp = iota
	OpNe
	OpLt
	OpGt
	OpLe
	OpGe
	OpContains
	OpStartsWith
	OpEndsWith
	OpMatches
	OpLike
)

var opSyntax = map[ComparisonOp]string{
	OpEq:         "=",
	OpNe:         "!=",
	OpLt:         "<",
	OpGt:         ">",
	OpLe:         "<=",
	OpGe:         ">=",
	OpContains:   "contains",
	OpStartsWith: "starts with",
	OpEndsWith:   "ends with",
	OpMatches:    "matches",
	OpLike:       "like",
}

func (op ComparisonOp) String() string { return opSyntax[op] }

// RequiresText reports whether both operands must be text.
func (op ComparisonOp) RequiresText() bool { return op >= OpContains }

// LogicalOp combines sub-filters in a CompoundFilter.
type LogicalOp byte

const (
	OpAnd LogicalOp = iota
	OpOr
)

func (op LogicalOp) String() string {
	if op == OpAnd {
		return "and"
	}
	return "or"
}

// Filter is a predicate over table rows. A comparison with a null operand is
// false; IsNullFilter is the only filter matching nulls.
type Filter interface {
	// Match evaluates the filter over one row.
	Match(lookup ColumnLookup, row viz.Row) (bool, error)
	// Columns returns the columns directly mentioned by the filter tree,
	// not descending into scalar function arguments.
	Columns() []AbstractColumn
	// QueryString renders the filter in query syntax.
	QueryString() string
}

// compare applies op to two evaluated operands.
func compare(a, b viz.Value, op ComparisonOp, f *comparisonState) (bool, error) {
	if a.IsNull() || b.IsNull() {
		return false, nil
	}
	if op.RequiresText() {
		if a.Type() != viz.TypeText || b.Type() != viz.TypeText {
			return false, ErrTextOperator.New(op)
		}
		at, bt := a.Text(), b.Text()
		switch op {
		case OpContains:
			return strings.Contains(at, bt), nil
		case OpStartsWith:
			return strings.HasPrefix(at, bt), nil
		case OpEndsWith:
			return strings.HasSuffix(at, bt), nil
		case OpMatches:
			re, err := f.regexpFor(bt, nil)
			if err != nil {
				return false, err
			}
			return re.MatchString(at), nil
		default: // OpLike
			re, err := f.regexpFor(bt, likeToRegexp)
			if err != nil {
				return false, err
			}
			return re.MatchString(at), nil
		}
	}
	c, err := a.Compare(b)
	if err != nil {
		return false, err
	}
	switch op {
	case OpEq:
		return c == 0, nil
	case OpNe:
		return c != 0, nil
	case OpLt:
		return c < 0, nil
	case OpGt:
		return c > 0, nil
	case OpLe:
		return c <= 0, nil
	default: // OpGe
		return c >= 0, nil
	}
}

// comparisonState caches the compiled pattern of matches and like
// comparisons. A query executes on a single worker, access needs no lock.
type comparisonState struct {
	re    *regexp.Regexp
	reSrc string
}

func (f *comparisonState) regexpFor(pattern string, translate func(string) string) (*regexp.Regexp, error) {
	if f.re != nil && f.reSrc == pattern {
		return f.re, nil
	}
	var err error
	expr := "^(?:" + translatePattern(pattern, translate) + ")$"
	f.re, err = regexp.Compile(expr)
	if err != nil {
		return nil, ErrBadRegexp.New(pattern, err)
	}
	f.reSrc = pattern
	return f.re, nil
}

func translatePattern(pattern string, translate func(string) string) string {
	if translate == nil {
		return pattern
	}
	return translate(pattern)
}

// likeToRegexp converts a like pattern to a regular expression: % matches
// any run, _ matches one character, everything else is literal.
func likeToRegexp(pattern string) string {
	var b strings.Builder
	for _, r := range pattern {
		switch r {
		case '%':
			b.WriteString(".*")
		case '_':
			b.WriteString(".")
		default:
			b.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	return b.String()
}

// ColumnValueFilter compares a column against a literal. When Reversed, the
// literal is the left operand, as in `10 > price`.
type ColumnValueFilter struct {
	Column   AbstractColumn
	Value    viz.Value
	Op       ComparisonOp
	Reversed bool

	state comparisonState
}

// NewColumnValueFilter returns the filter `column op value`.
func NewColumnValueFilter(column AbstractColumn, value viz.Value, op ComparisonOp) *ColumnValueFilter {
	return &ColumnValueFilter{Column: column, Value: value, Op: op}
}

func (f *ColumnValueFilter) Match(lookup ColumnLookup, row viz.Row) (bool, error) {
	v, err := f.Column.Value(lookup, row)
	if err != nil {
		return false, err
	}
	if f.Reversed {
		return compare(f.Value, v, f.Op, &f.state)
	}
	return compare(v, f.Value, f.Op, &f.state)
}

func (f *ColumnValueFilter) Columns() []AbstractColumn {
	return []AbstractColumn{f.Column}
}

func (f *ColumnValueFilter) QueryString() string {
	lit, err := f.Value.QueryLiteral()
	if err != nil {
		lit = f.Value.String()
	}
	if f.Reversed {
		return lit + " " + f.Op.String() + " " + f.Column.QueryString()
	}
	return f.Column.QueryString() + " " + f.Op.String() + " " + lit
}

// ColumnColumnFilter compares two columns.
type ColumnColumnFilter struct {
	Left  AbstractColumn
	Right AbstractColumn
	Op    ComparisonOp

	state comparisonState
}

// NewColumnColumnFilter returns the filter `left op right`.
func NewColumnColumnFilter(left, right AbstractColumn, op ComparisonOp) *ColumnColumnFilter {
	return &ColumnColumnFilter{Left: left, Right: right, Op: op}
}

func (f *ColumnColumnFilter) Match(lookup ColumnLookup, row viz.Row) (bool, error) {
	l, err := f.Left.Value(lookup, row)
	if err != nil {
		return false, err
	}
	r, err := f.Right.Value(lookup, row)
	if err != nil {
		return false, err
	}
	return compare(l, r, f.Op, &f.state)
}

func (f *ColumnColumnFilter) Columns() []AbstractColumn {
	return []AbstractColumn{f.Left, f.Right}
}

func (f *ColumnColumnFilter) QueryString() string {
	return f.Left.QueryString() + " " + f.Op.String() + " " + f.Right.QueryString()
}

// ColumnIsNullFilter matches rows whose column value is the canonical null.
type ColumnIsNullFilter struct {
	Column AbstractColumn
}

// NewColumnIsNullFilter returns the filter `column is null`.
func NewColumnIsNullFilter(column AbstractColumn) *ColumnIsNullFilter {
	return &ColumnIsNullFilter{Column: column}
}

func (f *ColumnIsNullFilter) Match(lookup ColumnLookup, row viz.Row) (bool, error) {
	v, err := f.Column.Value(lookup, row)
	if err != nil {
		return false, err
	}
	return v.IsNull(), nil
}

func (f *ColumnIsNullFilter) Columns() []AbstractColumn {
	return []AbstractColumn{f.Column}
}

func (f *ColumnIsNullFilter) QueryString() string {
	return f.Column.QueryString() + " is null"
}

// CompoundFilter combines sub-filters with and/or. An empty and is true, an
// empty or is false.
type CompoundFilter struct {
	Op      LogicalOp
	Filters []Filter
}

// NewCompoundFilter returns the conjunction or disjunction of filters.
func NewCompoundFilter(op LogicalOp, filters ...Filter) *CompoundFilter {
	return &CompoundFilter{Op: op, Filters: filters}
}

func (f *CompoundFilter) Match(lookup ColumnLookup, row viz.Row) (bool, error) {
	for _, sub := range f.Filters {
		ok, err := sub.Match(lookup, row)
		if err != nil {
			return false, err
		}
		if f.Op == OpAnd && !ok {
			return false, nil
		}
		if f.Op == OpOr && ok {
			return true, nil
		}
	}
	return f.Op == OpAnd, nil
}

func (f *CompoundFilter) Columns() []AbstractColumn {
	var out []AbstractColumn
	for _, sub := range f.Filters {
		out = append(out, sub.Columns()...)
	}
	return out
}

func (f *CompoundFilter) QueryString() string {
	if len(f.Filters) == 0 {
		if f.Op == OpAnd {
			return "true"
		}
		return "false"
	}
	parts := make([]string, len(f.Filters))
	for i, sub := range f.Filters {
		parts[i] = sub.QueryString()
	}
	return "(" + strings.Join(parts, " "+f.Op.String()+" ") + ")"
}

// NegationFilter negates its inner filter.
type NegationFilter struct {
	Inner Filter
}

// NewNegationFilter returns the filter `not inner`.
func NewNegationFilter(inner Filter) *NegationFilter {
	return &NegationFilter{Inner: inner}
}

func (f *NegationFilter) Match(lookup ColumnLookup, row viz.Row) (bool, error) {
	ok, err := f.Inner.Match(lookup, row)
	if err != nil {
		return false, err
	}
	return !ok, nil
}

func (f *NegationFilter) Columns() []AbstractColumn {
	return f.Inner.Columns()
}

func (f *NegationFilter) QueryString() string {
	return "not (" + f.Inner.QueryString() + ")"
}
