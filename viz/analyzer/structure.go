package analyzer

import (
	"sort"
	"strconv"

	"github.com/chartdata/go-datasource/viz"
	"github.com/chartdata/go-datasource/viz/query"
)

func checkRowBounds(ctx *viz.Context, q *query.Query) error {
	loc := ctx.Locale()
	if q.RowSkipping < 0 {
		return viz.InvalidQuery(loc, viz.MsgInvalidSkipping, strconv.Itoa(q.RowSkipping))
	}
	if q.RowLimit < -1 {
		return viz.InvalidQuery(loc, viz.MsgInvalidLimit, strconv.Itoa(q.RowLimit))
	}
	if q.RowOffset < 0 {
		return viz.InvalidQuery(loc, viz.MsgInvalidOffset, strconv.Itoa(q.RowOffset))
	}
	return nil
}

func checkSingleAppearance(ctx *viz.Context, q *query.Query) error {
	sortCols := make([]query.AbstractColumn, len(q.Sort))
	for i, s := range q.Sort {
		sortCols[i] = s.Column
	}
	clauses := []struct {
		name string
		cols []query.AbstractColumn
	}{
		{query.ClauseSelect, q.Selection},
		{query.ClauseGroupBy, q.GroupBy},
		{query.ClausePivot, q.Pivot},
		{query.ClauseOrderBy, sortCols},
	}
	for _, clause := range clauses {
		seen := map[string]struct{}{}
		for _, col := range clause.cols {
			if _, dup := seen[col.ID()]; dup {
				return viz.InvalidQuery(ctx.Locale(), viz.MsgColumnOnlyOnce,
					col.QueryString(), clause.name)
			}
			seen[col.ID()] = struct{}{}
		}
	}
	return nil
}

func checkWhereAggregations(ctx *viz.Context, q *query.Query) error {
	if !q.HasFilter() {
		return nil
	}
	for _, col := range q.Filter.Columns() {
		if aggs := col.AggregationColumns(); len(aggs) > 0 {
			return viz.InvalidQuery(ctx.Locale(), viz.MsgCannotBeInWhere,
				aggs[0].Aggregated().QueryString())
		}
	}
	return nil
}

func checkGroupBy(ctx *viz.Context, q *query.Query) error {
	if !q.HasGroupBy() {
		return nil
	}
	for _, col := range q.GroupBy {
		if aggs := col.AggregationColumns(); len(aggs) > 0 {
			return viz.InvalidQuery(ctx.Locale(), viz.MsgCannotBeInGroupBy,
				aggs[0].Aggregated().QueryString())
		}
	}
	if len(q.AggregationColumns()) == 0 {
		return viz.InvalidQuery(ctx.Locale(), viz.MsgCannotGroupWithoutAgg)
	}
	return nil
}

func checkPivot(ctx *viz.Context, q *query.Query) error {
	if !q.HasPivot() {
		return nil
	}
	for _, col := range q.Pivot {
		if aggs := col.AggregationColumns(); len(aggs) > 0 {
			return viz.InvalidQuery(ctx.Locale(), viz.MsgCannotBeInPivot,
				aggs[0].Aggregated().QueryString())
		}
	}
	if len(q.AggregationColumns()) == 0 {
		return viz.InvalidQuery(ctx.Locale(), viz.MsgCannotPivotWithoutAgg)
	}
	// Pivoting expands each aggregation into one column per pivot value; a
	// scalar computed over an aggregation has no single column to expand.
	for _, col := range q.Selection {
		if _, ok := col.(query.ScalarFunctionColumn); ok && len(col.AggregationColumns()) > 0 {
			return viz.NewErrorf(viz.ReasonUnsupportedQueryOperation,
				"Scalar functions over aggregations, such as %s, cannot be used together with pivoting.",
				col.QueryString())
		}
	}
	return nil
}

func checkGroupPivotDisjoint(ctx *viz.Context, q *query.Query) error {
	for _, g := range q.GroupBy {
		for _, p := range q.Pivot {
			if g.Equals(p) {
				return viz.InvalidQuery(ctx.Locale(), viz.MsgNoColInGroupAndPivot,
					g.QueryString())
			}
		}
	}
	return nil
}

// checkSelectionAggregation enforces the two selection rules: a column id is
// either always aggregated or never aggregated in SELECT, and once SELECT
// contains an aggregation every plain selected column must be grouped.
func checkSelectionAggregation(ctx *viz.Context, q *query.Query) error {
	aggregated := map[string]struct{}{}
	for _, agg := range q.AggregationColumns() {
		aggregated[agg.Aggregated().ID()] = struct{}{}
	}
	for _, col := range q.Selection {
		for _, simple := range col.SimpleColumns() {
			if _, both := aggregated[simple.ID()]; both {
				return viz.InvalidQuery(ctx.Locale(), viz.MsgSelectWithAndWithoutAgg,
					simple.QueryString())
			}
		}
	}
	if len(aggregated) == 0 {
		return nil
	}
	for _, col := range q.Selection {
		if len(col.AggregationColumns()) > 0 {
			continue
		}
		if _, constant := col.(query.ConstantColumn); constant {
			continue
		}
		if !columnIn(q.GroupBy, col) {
			return viz.InvalidQuery(ctx.Locale(), viz.MsgAddColToGroupByOrAgg,
				col.QueryString())
		}
	}
	return nil
}

func checkOrderBy(ctx *viz.Context, q *query.Query) error {
	if !q.HasSort() {
		return nil
	}
	loc := ctx.Locale()
	selAggs := q.AggregationColumns()
	bare := map[string]struct{}{}
	for _, col := range q.Selection {
		for _, simple := range col.SimpleColumns() {
			bare[simple.ID()] = struct{}{}
		}
	}
	for _, s := range q.Sort {
		aggs := s.Column.AggregationColumns()
		if len(aggs) > 0 {
			if q.HasPivot() {
				return viz.InvalidQuery(loc, viz.MsgNoAggInOrderWhenPivot,
					aggs[0].QueryString())
			}
			for _, agg := range aggs {
				if _, plain := bare[agg.Aggregated().ID()]; plain {
					return viz.InvalidQuery(loc, viz.MsgColAggNotInSelect,
						agg.Aggregated().QueryString())
				}
			}
			if len(selAggs) == 0 {
				return viz.InvalidQuery(loc, viz.MsgAggInSelectNoPivot,
					aggs[0].QueryString())
			}
			for _, agg := range aggs {
				if !aggregationIn(selAggs, agg) {
					return viz.InvalidQuery(loc, viz.MsgAggInOrderNotInSelect,
						agg.QueryString())
				}
			}
			continue
		}
		if len(selAggs) == 0 {
			continue
		}
		if _, constant := s.Column.(query.ConstantColumn); constant {
			continue
		}
		if !q.SelectionContains(s.Column) {
			return viz.InvalidQuery(loc, viz.MsgColInOrderMustBeInSelect,
				s.Column.QueryString())
		}
	}
	return nil
}

// checkLabelFormatReferences applies only when the query has an explicit
// selection; with `select *` labels and formats address source columns
// directly.
func checkLabelFormatReferences(ctx *viz.Context, q *query.Query) error {
	if !q.HasSelection() {
		return nil
	}
	selected := map[string]struct{}{}
	for _, col := range q.Selection {
		selected[col.ID()] = struct{}{}
	}
	for _, key := range sortedKeys(q.Labels) {
		if _, ok := selected[key]; !ok {
			return viz.InvalidQuery(ctx.Locale(), viz.MsgLabelColNotInSelect, key)
		}
	}
	for _, key := range sortedKeys(q.Formats) {
		if _, ok := selected[key]; !ok {
			return viz.InvalidQuery(ctx.Locale(), viz.MsgFormatColNotInSelect, key)
		}
	}
	return nil
}

func columnIn(cols []query.AbstractColumn, c query.AbstractColumn) bool {
	for _, col := range cols {
		if col.Equals(c) {
			return true
		}
	}
	return false
}

func aggregationIn(aggs []query.AggregationColumn, a query.AggregationColumn) bool {
	for _, agg := range aggs {
		if agg.Equals(a) {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
