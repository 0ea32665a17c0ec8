// Package splitter divides a query between a data provider and the
// completion engine according to the provider's declared capabilities.
//
// The contract: for the table T a provider would produce for its base data,
// running the completion query over the provider query's result equals
// running the whole query over T. Features a provider cannot execute stay in
// the completion query; features it can execute move to the provider query
// when their inputs are pushable too.
package splitter

import (
	"github.com/chartdata/go-datasource/viz"
	"github.com/chartdata/go-datasource/viz/query"
	errors "gopkg.in/src-d/go-errors.v1"
)

// ErrUnknownCapabilities is returned for capability values outside the
// closed set.
var ErrUnknownCapabilities = errors.NewKind("unknown capability set %d")

// SplitQuery is the result of a split: the part a provider executes
// natively and the part the engine completes afterwards. Either part may be
// the empty query.
type SplitQuery struct {
	Provider   *query.Query
	Completion *query.Query
}

// Split divides q according to cap. The input query is not modified; parts
// share its immutable column and filter nodes.
func Split(q *query.Query, cap viz.Capabilities) (SplitQuery, error) {
	switch cap {
	case viz.CapNone:
		return SplitQuery{Provider: query.NewQuery(), Completion: q.Copy()}, nil
	case viz.CapAll:
		return SplitQuery{Provider: q.Copy(), Completion: query.NewQuery()}, nil
	case viz.CapSelect:
		return splitSelect(q), nil
	case viz.CapSortAndPagination:
		return splitSortAndPagination(q), nil
	case viz.CapSQL:
		return splitSQL(q), nil
	}
	return SplitQuery{}, ErrUnknownCapabilities.New(cap)
}

// splitSelect narrows the provider read to the simple columns the query
// mentions. Queries without an explicit selection keep every source column,
// so nothing can be pushed down.
func splitSelect(q *query.Query) SplitQuery {
	if !q.HasSelection() || len(q.ScalarFunctionColumns()) > 0 {
		return SplitQuery{Provider: query.NewQuery(), Completion: q.Copy()}
	}
	simples := mentionedSimpleColumns(q)
	provider := query.NewQuery()
	provider.Selection = simples
	return SplitQuery{Provider: provider, Completion: q.Copy()}
}

// splitSortAndPagination pushes the column narrowing, the sort and, when
// nothing runs between sorting and pagination, the limit and offset.
// Filters, grouping and aggregation make pagination unsound to push and
// degrade the split to column narrowing.
func splitSortAndPagination(q *query.Query) SplitQuery {
	if len(q.ScalarFunctionColumns()) > 0 {
		return SplitQuery{Provider: query.NewQuery(), Completion: q.Copy()}
	}
	if q.HasFilter() || q.HasGroupBy() || q.HasPivot() || len(q.AggregationColumns()) > 0 {
		return splitSelect(q)
	}

	provider := query.NewQuery()
	if q.HasSelection() {
		provider.Selection = mentionedSimpleColumns(q)
	}
	provider.Sort = append([]query.SortColumn(nil), q.Sort...)

	completion := q.Copy()
	completion.Sort = nil
	if !q.HasRowSkipping() {
		provider.RowLimit = q.RowLimit
		provider.RowOffset = q.RowOffset
		completion.RowLimit = -1
		completion.RowOffset = 0
	}
	return SplitQuery{Provider: provider, Completion: completion}
}

// splitSQL pushes everything a SQL engine can run: selection, filter,
// grouping, sorting and pagination. Pivoting is emulated by grouping on the
// union of group and pivot columns in the provider and re-aggregating in
// the completion. Row skipping cannot be expressed and disables the split.
func splitSQL(q *query.Query) SplitQuery {
	if len(q.ScalarFunctionColumns()) > 0 || q.HasRowSkipping() {
		return SplitQuery{Provider: query.NewQuery(), Completion: q.Copy()}
	}
	if !q.HasSelection() {
		return SplitQuery{Provider: query.NewQuery(), Completion: q.Copy()}
	}
	if q.HasFilter() && !sqlPushableFilter(q.Filter) {
		return splitSelect(q)
	}
	if q.HasPivot() {
		return splitSQLPivot(q)
	}

	provider := q.Copy()
	provider.Labels = nil
	provider.Formats = nil
	provider.Options = query.Options{}

	completion := query.NewQuery()
	completion.Selection = flattenSelection(q.Selection)
	completion.Labels = copyAssignments(q.Labels)
	completion.Formats = copyAssignments(q.Formats)
	completion.Options = q.Options
	return SplitQuery{Provider: provider, Completion: completion}
}

// splitSQLPivot sends the provider a flat grouped query over the union of
// group and pivot columns. The completion re-groups and pivots the compact
// result, reading each pushed aggregation back through a MIN over its
// output column: every (group, pivot) pair holds at most one provider row,
// so MIN reproduces the value. Labels and formats follow the rewritten ids.
func splitSQLPivot(q *query.Query) SplitQuery {
	provider := query.NewQuery()
	provider.GroupBy = append(append([]query.AbstractColumn(nil), q.GroupBy...), q.Pivot...)
	provider.Selection = append([]query.AbstractColumn(nil), provider.GroupBy...)
	provider.Filter = q.Filter
	for _, agg := range q.AggregationColumns() {
		provider.Selection = append(provider.Selection, agg)
	}

	rewrite := map[string]string{}
	completion := query.NewQuery()
	completion.Selection = rewriteAggregations(q.Selection, rewrite)
	completion.GroupBy = append([]query.AbstractColumn(nil), q.GroupBy...)
	completion.Pivot = append([]query.AbstractColumn(nil), q.Pivot...)
	completion.Sort = append([]query.SortColumn(nil), q.Sort...)
	completion.RowSkipping = q.RowSkipping
	completion.RowLimit = q.RowLimit
	completion.RowOffset = q.RowOffset
	completion.Labels = rekeyAssignments(q.Labels, rewrite)
	completion.Formats = rekeyAssignments(q.Formats, rewrite)
	completion.Options = q.Options
	return SplitQuery{Provider: provider, Completion: completion}
}

// sqlPushableFilter reports whether every node of f translates to SQL
// with the engine's null and matching semantics. The substring operators
// need a computed LIKE pattern when the pattern side is a column, which
// has no portable rendering; such filters stay in the completion query
// and the split degrades to column narrowing.
func sqlPushableFilter(f query.Filter) bool {
	switch f := f.(type) {
	case *query.ColumnValueFilter:
		return !f.Reversed || !substringOp(f.Op)
	case *query.ColumnColumnFilter:
		return !substringOp(f.Op)
	case *query.CompoundFilter:
		for _, sub := range f.Filters {
			if !sqlPushableFilter(sub) {
				return false
			}
		}
		return true
	case *query.NegationFilter:
		return sqlPushableFilter(f.Inner)
	}
	return true
}

func substringOp(op query.ComparisonOp) bool {
	return op == query.OpContains || op == query.OpStartsWith || op == query.OpEndsWith
}

// mentionedSimpleColumns returns every simple column the query references,
// in first-appearance order without duplicates.
func mentionedSimpleColumns(q *query.Query) []query.AbstractColumn {
	var (
		out  []query.AbstractColumn
		seen = map[string]struct{}{}
	)
	add := func(simples []query.SimpleColumn) {
		for _, s := range simples {
			if _, dup := seen[s.ID()]; dup {
				continue
			}
			seen[s.ID()] = struct{}{}
			out = append(out, s)
		}
	}
	for _, col := range q.AllColumns() {
		add(col.SimpleColumns())
		for _, agg := range col.AggregationColumns() {
			add([]query.SimpleColumn{agg.Aggregated()})
		}
	}
	return out
}

// flattenSelection replaces aggregations with simple columns named by their
// structural id, matching the column ids of the provider output.
func flattenSelection(selection []query.AbstractColumn) []query.AbstractColumn {
	out := make([]query.AbstractColumn, len(selection))
	for i, col := range selection {
		if len(col.AggregationColumns()) > 0 {
			out[i] = query.NewSimpleColumn(col.ID())
			continue
		}
		out[i] = col
	}
	return out
}

// rewriteAggregations replaces each aggregation agg(X) with
// min(simple("agg-X")) and records the id rewrite.
func rewriteAggregations(selection []query.AbstractColumn, rewrite map[string]string) []query.AbstractColumn {
	out := make([]query.AbstractColumn, len(selection))
	for i, col := range selection {
		if agg, ok := col.(query.AggregationColumn); ok {
			re := query.NewAggregationColumn(query.NewSimpleColumn(agg.ID()), query.AggMin)
			rewrite[agg.ID()] = re.ID()
			out[i] = re
			continue
		}
		out[i] = col
	}
	return out
}

func rekeyAssignments(m map[string]string, rewrite map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		if re, ok := rewrite[k]; ok {
			k = re
		}
		out[k] = v
	}
	return out
}

func copyAssignments(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
