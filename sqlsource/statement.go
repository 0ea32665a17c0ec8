package sqlsource

import (
	"strings"
	"time"

	errors "gopkg.in/src-d/go-errors.v1"

	"github.com/chartdata/go-datasource/viz"
	"github.com/chartdata/go-datasource/viz/query"
)

var (
	// ErrUnsupportedColumn is returned when a provider query holds a
	// column the SQL capability never receives.
	ErrUnsupportedColumn = errors.NewKind("cannot translate column %q to sql")
	// ErrUnsupportedFilter is returned for filter nodes outside the
	// translatable algebra.
	ErrUnsupportedFilter = errors.NewKind("cannot translate filter %q to sql")
)

// BuildStatement renders the provider query as a SELECT over table. The
// query is the SQL-capability part produced by the splitter: simple and
// aggregation columns, a filter, grouping, sorting and pagination.
// Aggregations are aliased to their structural id so the completion finds
// them by column name.
func BuildStatement(q *query.Query, table string, d Dialect) (string, []interface{}, error) {
	var (
		b    strings.Builder
		args []interface{}
	)
	b.WriteString("SELECT ")
	if !q.HasSelection() {
		b.WriteString("*")
	} else {
		for i, col := range q.Selection {
			if i > 0 {
				b.WriteString(", ")
			}
			expr, err := columnSQL(col, d)
			if err != nil {
				return "", nil, err
			}
			b.WriteString(expr)
			if _, ok := col.(query.AggregationColumn); ok {
				b.WriteString(" AS ")
				b.WriteString(d.QuoteIdent(col.ID()))
			}
		}
	}
	b.WriteString(" FROM ")
	b.WriteString(d.QuoteIdent(table))

	if q.HasFilter() {
		cond, err := filterSQL(q.Filter, d, &args)
		if err != nil {
			return "", nil, err
		}
		b.WriteString(" WHERE ")
		b.WriteString(cond)
	}
	if q.HasGroupBy() {
		b.WriteString(" GROUP BY ")
		for i, col := range q.GroupBy {
			if i > 0 {
				b.WriteString(", ")
			}
			expr, err := columnSQL(col, d)
			if err != nil {
				return "", nil, err
			}
			b.WriteString(expr)
		}
	}
	if q.HasSort() {
		b.WriteString(" ORDER BY ")
		for i, s := range q.Sort {
			if i > 0 {
				b.WriteString(", ")
			}
			expr, err := columnSQL(s.Column, d)
			if err != nil {
				return "", nil, err
			}
			b.WriteString(expr)
			if s.Order == query.Descending {
				b.WriteString(" DESC")
			}
		}
	}
	b.WriteString(d.LimitOffset(q.RowLimit, q.RowOffset))
	return b.String(), args, nil
}

func columnSQL(col query.AbstractColumn, d Dialect) (string, error) {
	switch c := col.(type) {
	case query.SimpleColumn:
		return d.QuoteIdent(c.ID()), nil
	case query.AggregationColumn:
		return strings.ToUpper(c.Op().Code()) + "(" + d.QuoteIdent(c.Aggregated().ID()) + ")", nil
	}
	return "", ErrUnsupportedColumn.New(col.QueryString())
}

func filterSQL(f query.Filter, d Dialect, args *[]interface{}) (string, error) {
	switch f := f.(type) {
	case *query.ColumnValueFilter:
		col, err := columnSQL(f.Column, d)
		if err != nil {
			return "", err
		}
		if f.Reversed {
			if substringOp(f.Op) {
				return "", ErrUnsupportedFilter.New(f.QueryString())
			}
			return comparisonSQL(placeholderFor(d, args, literalArg(f.Value)), col, f.Op, d)
		}
		return comparisonValueSQL(col, f.Value, f.Op, d, args)
	case *query.ColumnColumnFilter:
		if substringOp(f.Op) {
			return "", ErrUnsupportedFilter.New(f.QueryString())
		}
		left, err := columnSQL(f.Left, d)
		if err != nil {
			return "", err
		}
		right, err := columnSQL(f.Right, d)
		if err != nil {
			return "", err
		}
		return comparisonSQL(left, right, f.Op, d)
	case *query.ColumnIsNullFilter:
		col, err := columnSQL(f.Column, d)
		if err != nil {
			return "", err
		}
		return col + " IS NULL", nil
	case *query.CompoundFilter:
		if len(f.Filters) == 0 {
			if f.Op == query.OpAnd {
				return "1 = 1", nil
			}
			return "1 = 0", nil
		}
		parts := make([]string, len(f.Filters))
		for i, sub := range f.Filters {
			cond, err := filterSQL(sub, d, args)
			if err != nil {
				return "", err
			}
			parts[i] = cond
		}
		return "(" + strings.Join(parts, " "+strings.ToUpper(f.Op.String())+" ") + ")", nil
	case *query.NegationFilter:
		cond, err := filterSQL(f.Inner, d, args)
		if err != nil {
			return "", err
		}
		return "NOT (" + cond + ")", nil
	}
	return "", ErrUnsupportedFilter.New(f.QueryString())
}

// comparisonValueSQL renders `col op literal`, binding the literal. The
// text-matching operators bind a derived LIKE pattern instead of the raw
// value.
func comparisonValueSQL(col string, v viz.Value, op query.ComparisonOp, d Dialect, args *[]interface{}) (string, error) {
	switch op {
	case query.OpContains:
		return nullSafe(col + " LIKE " + placeholderFor(d, args, "%"+escapeLike(v.Text())+"%") + likeEscape), nil
	case query.OpStartsWith:
		return nullSafe(col + " LIKE " + placeholderFor(d, args, escapeLike(v.Text())+"%") + likeEscape), nil
	case query.OpEndsWith:
		return nullSafe(col + " LIKE " + placeholderFor(d, args, "%"+escapeLike(v.Text())) + likeEscape), nil
	case query.OpLike:
		return nullSafe(col + " LIKE " + placeholderFor(d, args, v.Text())), nil
	case query.OpMatches:
		return nullSafe(d.RegexpCondition(col, placeholderFor(d, args, v.Text()))), nil
	}
	return nullSafe(col + " " + sqlComparison(op) + " " + placeholderFor(d, args, literalArg(v))), nil
}

// comparisonSQL renders `left op right` over two rendered operands. The
// substring operators never reach here: a column-side pattern has no
// portable rendering and the splitter keeps such filters in the
// completion query.
func comparisonSQL(left, right string, op query.ComparisonOp, d Dialect) (string, error) {
	switch op {
	case query.OpLike:
		return nullSafe(left + " LIKE " + right), nil
	case query.OpMatches:
		return nullSafe(d.RegexpCondition(left, right)), nil
	}
	return nullSafe(left + " " + sqlComparison(op) + " " + right), nil
}

// substringOp reports whether op matches a computed substring pattern.
func substringOp(op query.ComparisonOp) bool {
	return op == query.OpContains || op == query.OpStartsWith || op == query.OpEndsWith
}

// nullSafe collapses SQL three-valued logic into the filter algebra's
// two values: a comparison over a NULL cell is false, not NULL, so
// negation of the condition selects exactly the complement rows.
func nullSafe(cond string) string {
	return "COALESCE(" + cond + ", FALSE)"
}

const likeEscape = ` ESCAPE '\'`

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return r.Replace(s)
}

func sqlComparison(op query.ComparisonOp) string {
	switch op {
	case query.OpEq:
		return "="
	case query.OpNe:
		return "<>"
	case query.OpLt:
		return "<"
	case query.OpGt:
		return ">"
	case query.OpLe:
		return "<="
	default:
		return ">="
	}
}

func placeholderFor(d Dialect, args *[]interface{}, arg interface{}) string {
	*args = append(*args, arg)
	return d.Placeholder(len(*args))
}

// literalArg converts a value to its driver binding. Calendar values bind
// as UTC instants, times of day as clock strings.
func literalArg(v viz.Value) interface{} {
	switch v.Type() {
	case viz.TypeText:
		return v.Text()
	case viz.TypeNumber:
		return v.Number()
	case viz.TypeBoolean:
		return v.Bool()
	case viz.TypeDate:
		return v.Time().Format("2006-01-02")
	case viz.TypeDateTime:
		return v.Time().In(time.UTC)
	default:
		return v.String()
	}
}
