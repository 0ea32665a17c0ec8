package engine

import (
	"strings"

	"github.com/chartdata/go-datasource/viz"
	"github.com/chartdata/go-datasource/viz/engine/aggregation"
	"github.com/chartdata/go-datasource/viz/query"
)

// groupAndPivot replaces the table with the grouped table: one column per
// group-by entry followed by the aggregated columns, one row per distinct
// group key in ascending order. With a pivot, each aggregation expands
// into one column per distinct pivot key, also ascending, and the group
// rows fill from the (group, pivot) cells; a combination never seen in
// the input yields a null cell.
func (r *run) groupAndPivot(ctx *viz.Context) error {
	aggs := r.selectedAggregations()
	if len(aggs) == 0 && !r.q.HasGroupBy() && !r.q.HasPivot() {
		return nil
	}

	ops := make([]query.AggregationType, len(aggs))
	types := make([]viz.ValueType, len(aggs))
	for i, agg := range aggs {
		inner, err := agg.Aggregated().ValueType(r.tbl)
		if err != nil {
			return err
		}
		ops[i] = agg.Op()
		types[i] = agg.Op().ResultType(inner)
	}

	tree := aggregation.NewTree(ops, types, r.tbl.CompareValues)
	for _, row := range r.tbl.Rows() {
		group, err := evaluateTuple(r.q.GroupBy, r.tbl, row)
		if err != nil {
			return err
		}
		pivot, err := evaluateTuple(r.q.Pivot, r.tbl, row)
		if err != nil {
			return err
		}
		values := make([]viz.Value, len(aggs))
		for i, agg := range aggs {
			if values[i], err = agg.Aggregated().Value(r.tbl, row); err != nil {
				return err
			}
		}
		if err := tree.Add(group, pivot, values); err != nil {
			return err
		}
	}

	out := &viz.Table{}
	carryMeta(out, r.tbl)
	for _, g := range r.q.GroupBy {
		desc, err := r.groupColumn(g)
		if err != nil {
			return err
		}
		if err := out.AddColumn(desc); err != nil {
			return err
		}
	}

	var pivots [][]viz.Value
	if r.q.HasPivot() {
		var err error
		if pivots, err = tree.PivotKeys(); err != nil {
			return err
		}
		if err := r.addPivotedColumns(out, pivots, aggs, types); err != nil {
			return err
		}
	} else {
		pivots = [][]viz.Value{nil}
		for i, agg := range aggs {
			desc := viz.NewColumnDescription(agg.ID(), types[i])
			desc.Label = agg.QueryString()
			if err := out.AddColumn(desc); err != nil {
				return err
			}
		}
	}

	groups, err := tree.GroupKeys()
	if err != nil {
		return err
	}
	for _, group := range groups {
		values := make([]viz.Value, 0, out.NumColumns())
		values = append(values, group...)
		for _, pivot := range pivots {
			for i := range aggs {
				values = append(values, tree.Value(group, pivot, i))
			}
		}
		if err := out.AddRowValues(values...); err != nil {
			return err
		}
	}
	r.tbl = out
	return nil
}

// selectedAggregations returns the distinct aggregation columns the query
// mentions in its selection and order-by, in first-appearance order.
func (r *run) selectedAggregations() []query.AggregationColumn {
	var out []query.AggregationColumn
	seen := map[string]bool{}
	collect := func(col query.AbstractColumn) {
		for _, agg := range col.AggregationColumns() {
			if !seen[agg.ID()] {
				seen[agg.ID()] = true
				out = append(out, agg)
			}
		}
	}
	for _, col := range r.q.Selection {
		collect(col)
	}
	for _, s := range r.q.Sort {
		collect(s.Column)
	}
	return out
}

// groupColumn builds the output column for one group-by entry. A plain
// column reference carries the source column metadata; a calculated key
// gets its query string as label.
func (r *run) groupColumn(g query.AbstractColumn) (viz.ColumnDescription, error) {
	if idx := r.tbl.ColumnIndex(g.ID()); idx >= 0 {
		return r.tbl.Column(idx).Clone(), nil
	}
	typ, err := g.ValueType(r.tbl)
	if err != nil {
		return viz.ColumnDescription{}, err
	}
	desc := viz.NewColumnDescription(g.ID(), typ)
	desc.Label = g.QueryString()
	return desc, nil
}

// addPivotedColumns appends one column per (pivot key, aggregation) pair,
// pivot keys outermost. The column id is the comma-joined pivot values
// followed by the aggregation id; the label is the joined values alone
// unless several aggregations are selected.
func (r *run) addPivotedColumns(out *viz.Table, pivots [][]viz.Value, aggs []query.AggregationColumn, types []viz.ValueType) error {
	r.pivotCols = map[string][]string{}
	r.pivotPrefix = map[string]string{}
	multi := len(aggs) > 1
	for _, pivot := range pivots {
		prefix := joinPivotValues(pivot)
		for i, agg := range aggs {
			id := prefix + " " + agg.ID()
			desc := viz.NewColumnDescription(id, types[i])
			desc.Label = prefix
			if multi {
				desc.Label = prefix + " " + agg.ID()
			}
			if err := out.AddColumn(desc); err != nil {
				return err
			}
			r.pivotCols[agg.ID()] = append(r.pivotCols[agg.ID()], id)
			r.pivotPrefix[id] = prefix
		}
	}
	return nil
}

func joinPivotValues(pivot []viz.Value) string {
	parts := make([]string, len(pivot))
	for i, v := range pivot {
		parts[i] = v.String()
	}
	return strings.Join(parts, ",")
}

func evaluateTuple(cols []query.AbstractColumn, lookup query.ColumnLookup, row viz.Row) ([]viz.Value, error) {
	if len(cols) == 0 {
		return nil, nil
	}
	out := make([]viz.Value, len(cols))
	for i, col := range cols {
		v, err := col.Value(lookup, row)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func carryMeta(dst, src *viz.Table) {
	dst.SetLocale(src.Locale())
	for name, value := range src.Properties() {
		dst.SetProperty(name, value)
	}
	for _, w := range src.Warnings() {
		dst.AddWarning(w.Reason, w.Message)
	}
}
