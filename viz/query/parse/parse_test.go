package parse

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chartdata/go-datasource/viz"
	"github.com/chartdata/go-datasource/viz/query"
)

func parseQuery(t *testing.T, tq string) *query.Query {
	t.Helper()
	q, err := Parse(viz.NewEmptyContext(), tq)
	require.NoError(t, err)
	return q
}

func parseError(t *testing.T, tq string) *viz.Error {
	t.Helper()
	_, err := Parse(viz.NewEmptyContext(), tq)
	require.Error(t, err)
	return viz.AsError(err)
}

func TestParseEmptyQuery(t *testing.T) {
	require := require.New(t)

	for _, tq := range []string{"", "   ", "select *"} {
		q := parseQuery(t, tq)
		require.True(q.IsEmpty(), "query %q", tq)
	}
}

func TestParseSelection(t *testing.T) {
	require := require.New(t)

	q := parseQuery(t, "select name, `week day`, 5, \"ox\", true")
	require.Len(q.Selection, 5)
	require.Equal("name", q.Selection[0].ID())
	require.Equal("week day", q.Selection[1].ID())
	require.Equal("5", q.Selection[2].ID())
	require.Equal(`"ox"`, q.Selection[3].ID())
	require.Equal("true", q.Selection[4].ID())
}

func TestParseCanonicalString(t *testing.T) {
	require := require.New(t)

	q := parseQuery(t, `SELECT dept, max(salary) WHERE salary > 1000 AND dept != 'sales' `+
		`GROUP BY dept PIVOT region ORDER BY max(salary) DESC, dept `+
		`SKIPPING 2 LIMIT 10 OFFSET 3 LABEL dept "Department" FORMAT dept "-" OPTIONS no_values`)
	require.Equal(`select dept, max(salary) `+
		`where (salary > 1000 and dept != "sales") `+
		`group by dept pivot region order by max(salary) desc, dept `+
		`skipping 2 limit 10 offset 3 label dept "Department" format dept "-" options no_values`,
		q.String())
}

func TestParseArithmetic(t *testing.T) {
	require := require.New(t)

	q := parseQuery(t, "select a + b / 2, (a + b) / 2, -3 * c")
	require.Equal("sum_a_quotient_b_2", q.Selection[0].ID())
	require.Equal("quotient_sum_a_b_2", q.Selection[1].ID())
	require.Equal("(a + (b / 2))", q.Selection[0].QueryString())
	require.Equal("((a + b) / 2)", q.Selection[1].QueryString())
	require.Equal("(-3 * c)", q.Selection[2].QueryString())
}

func TestParseAggregations(t *testing.T) {
	require := require.New(t)

	q := parseQuery(t, "select sum(a), min(b), count(`week day`)")
	require.Equal("sum-a", q.Selection[0].ID())
	require.Equal("min-b", q.Selection[1].ID())
	require.Equal("count-week day", q.Selection[2].ID())

	// Two-argument sum is the arithmetic scalar function.
	q = parseQuery(t, "select sum(a, b)")
	require.Equal("sum_a_b", q.Selection[0].ID())
	_, scalar := q.Selection[0].(query.ScalarFunctionColumn)
	require.True(scalar)

	err := parseError(t, "select min(a, b)")
	require.Equal(viz.ReasonInvalidQuery, err.Reason)
	require.Contains(err.Detailed, "exactly one column")

	err = parseError(t, "select avg(a + b)")
	require.Contains(err.Detailed, "aggregates a column")
}

func TestParseScalarFunctions(t *testing.T) {
	require := require.New(t)

	q := parseQuery(t, "select year(a), dateDiff(a, b), now(), upper(name)")
	require.Equal("year_a", q.Selection[0].ID())
	require.Equal("dateDiff_a_b", q.Selection[1].ID())
	require.Equal("now", q.Selection[2].ID())
	require.Equal("upper_name", q.Selection[3].ID())
	require.Equal("dateDiff(a, b)", q.Selection[1].QueryString())
}

func TestParseUnknownFunctionSuggestion(t *testing.T) {
	require := require.New(t)

	err := parseError(t, "select yaer(a)")
	require.Equal(viz.ReasonInvalidQuery, err.Reason)
	require.Contains(err.Detailed, "unknown function 'yaer'")
	require.Contains(err.Detailed, "maybe you mean year?")
}

func TestParseFilterPrecedence(t *testing.T) {
	require := require.New(t)

	q := parseQuery(t, "where a = 1 or b = 2 and not c = 3")
	or, ok := q.Filter.(*query.CompoundFilter)
	require.True(ok)
	require.Equal(query.OpOr, or.Op)
	require.Len(or.Filters, 2)

	and, ok := or.Filters[1].(*query.CompoundFilter)
	require.True(ok)
	require.Equal(query.OpAnd, and.Op)
	_, ok = and.Filters[1].(*query.NegationFilter)
	require.True(ok)

	require.Equal("(a = 1 or (b = 2 and not (c = 3)))", q.Filter.QueryString())
}

func TestParseParenthesizedFilter(t *testing.T) {
	require := require.New(t)

	q := parseQuery(t, "where (a > 5 or b < 2) and c = 1")
	and, ok := q.Filter.(*query.CompoundFilter)
	require.True(ok)
	require.Equal(query.OpAnd, and.Op)
	or, ok := and.Filters[0].(*query.CompoundFilter)
	require.True(ok)
	require.Equal(query.OpOr, or.Op)

	// A parenthesized arithmetic operand is not a sub-filter.
	q = parseQuery(t, "where (a + b) > 5")
	cvf, ok := q.Filter.(*query.ColumnValueFilter)
	require.True(ok)
	require.Equal("sum_a_b", cvf.Column.ID())
}

func TestParseComparisonOperators(t *testing.T) {
	ops := []struct {
		tq string
		op query.ComparisonOp
	}{
		{"where a = 1", query.OpEq},
		{"where a != 1", query.OpNe},
		{"where a <> 1", query.OpNe},
		{"where a < 1", query.OpLt},
		{"where a <= 1", query.OpLe},
		{"where a > 1", query.OpGt},
		{"where a >= 1", query.OpGe},
		{`where a contains "x"`, query.OpContains},
		{`where a starts with "x"`, query.OpStartsWith},
		{`where a ends with "x"`, query.OpEndsWith},
		{`where a matches "x.*"`, query.OpMatches},
		{`where a like "x%"`, query.OpLike},
	}
	for _, tt := range ops {
		t.Run(tt.tq, func(t *testing.T) {
			q := parseQuery(t, tt.tq)
			cvf, ok := q.Filter.(*query.ColumnValueFilter)
			require.True(t, ok)
			require.Equal(t, tt.op, cvf.Op)
			require.False(t, cvf.Reversed)
		})
	}
}

func TestParseReversedComparison(t *testing.T) {
	require := require.New(t)

	q := parseQuery(t, "where 100 > population")
	cvf, ok := q.Filter.(*query.ColumnValueFilter)
	require.True(ok)
	require.True(cvf.Reversed)
	require.Equal("population", cvf.Column.ID())
	require.Equal("100 > population", q.Filter.QueryString())

	q = parseQuery(t, "where a < b")
	_, ok = q.Filter.(*query.ColumnColumnFilter)
	require.True(ok)
}

func TestParseIsNull(t *testing.T) {
	require := require.New(t)

	q := parseQuery(t, "where a is null")
	_, ok := q.Filter.(*query.ColumnIsNullFilter)
	require.True(ok)

	q = parseQuery(t, "where a is not null")
	neg, ok := q.Filter.(*query.NegationFilter)
	require.True(ok)
	_, ok = neg.Inner.(*query.ColumnIsNullFilter)
	require.True(ok)
}

func TestParseSortOrders(t *testing.T) {
	require := require.New(t)

	q := parseQuery(t, "order by a, b asc, max(c) desc")
	require.Len(q.Sort, 3)
	require.Equal(query.Ascending, q.Sort[0].Order)
	require.Equal(query.Ascending, q.Sort[1].Order)
	require.Equal(query.Descending, q.Sort[2].Order)
	require.Equal("max-c", q.Sort[2].Column.ID())
}

func TestParseRowClauses(t *testing.T) {
	require := require.New(t)

	q := parseQuery(t, "skipping 2 limit 0 offset 7")
	require.Equal(2, q.RowSkipping)
	require.Equal(0, q.RowLimit)
	require.Equal(7, q.RowOffset)

	err := parseError(t, "skipping 0")
	require.Equal(viz.ReasonInvalidQuery, err.Reason)
	require.Contains(err.Detailed, "row skipping: 0")

	err = parseError(t, "limit 3.5")
	require.Contains(err.Detailed, "row limit: 3.5")

	err = parseError(t, "limit -5")
	require.Contains(err.Detailed, "row limit: -5")

	err = parseError(t, "offset -1")
	require.Contains(err.Detailed, "row offset: -1")
}

func TestParseLabelsAndFormats(t *testing.T) {
	require := require.New(t)

	q := parseQuery(t, `label a "Name", max(b) "Top" format a "0.0"`)
	require.Equal("Name", q.Labels["a"])
	require.Equal("Top", q.Labels["max-b"])
	require.Equal("0.0", q.Formats["a"])

	err := parseError(t, `label a "x", a "y"`)
	require.Equal(viz.ReasonInvalidQuery, err.Reason)
	require.Contains(err.Detailed, "more than once")
	require.Contains(err.Detailed, "LABEL")

	err = parseError(t, `format b "#", b "#"`)
	require.Contains(err.Detailed, "FORMAT")
}

func TestParseOptions(t *testing.T) {
	require := require.New(t)

	q := parseQuery(t, "options no_format no_values")
	require.True(q.Options.NoFormat)
	require.True(q.Options.NoValues)

	err := parseError(t, "options bogus")
	require.Contains(err.Detailed, "unknown option")
}

func TestParseLiteralRoundTrip(t *testing.T) {
	require := require.New(t)

	values := []viz.Value{
		viz.NewText("Aye-aye"),
		viz.NewText("o'clock"),
		viz.NewNumber(42),
		viz.NewNumber(-12.5),
		viz.NewBool(true),
		viz.NewBool(false),
		viz.NewDateOf(2020, time.March, 9),
		viz.NewDateTimeOf(2020, 3, 9, 13, 14, 15, 0),
		viz.NewDateTimeOf(2020, 3, 9, 13, 14, 15, 120),
		mustTimeOfDay(t, 13, 14, 15, 0),
		mustTimeOfDay(t, 13, 14, 15, 120),
	}
	for _, v := range values {
		lit, err := v.QueryLiteral()
		require.NoError(err)

		q := parseQuery(t, "select "+lit)
		require.Len(q.Selection, 1)
		c, ok := q.Selection[0].(query.ConstantColumn)
		require.True(ok, "literal %s", lit)
		require.Equal(v.Type(), c.ConstantValue().Type(), "literal %s", lit)
		require.True(v.Equals(c.ConstantValue()), "literal %s", lit)
	}
}

func TestParseBadTimeLiterals(t *testing.T) {
	bad := []string{
		`select date "2020-02-30"`,
		`select date "20-01-01"`,
		`select datetime "2020-01-01"`,
		`select timeofday "25:00:00"`,
		`select date 5`,
	}
	for _, tq := range bad {
		t.Run(tq, func(t *testing.T) {
			err := parseError(t, tq)
			require.Equal(t, viz.ReasonInvalidQuery, err.Reason)
		})
	}
}

func TestParseSyntaxErrors(t *testing.T) {
	require := require.New(t)

	err := parseError(t, "select a extra")
	require.Contains(err.Detailed, "unexpected 'extra'")

	err = parseError(t, "group name")
	require.Contains(err.Detailed, "expected 'by'")

	err = parseError(t, `select "unterminated`)
	require.Equal(viz.ReasonInvalidQuery, err.Reason)

	err = parseError(t, "select )")
	require.Equal(viz.ReasonInvalidQuery, err.Reason)

	err = parseError(t, "where a starts b")
	require.Contains(err.Detailed, "expected 'with'")
}

func TestParseClauseOrderEnforced(t *testing.T) {
	require := require.New(t)

	err := parseError(t, "where a = 1 select b")
	require.Contains(err.Detailed, "unexpected 'select'")
}

func mustTimeOfDay(t *testing.T, h, m, s, ms int) viz.Value {
	t.Helper()
	v, err := viz.NewTimeOfDay(h, m, s, ms)
	require.NoError(t, err)
	return v
}
