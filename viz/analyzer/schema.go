package analyzer

import (
	"github.com/chartdata/go-datasource/internal/similartext"
	"github.com/chartdata/go-datasource/viz"
	"github.com/chartdata/go-datasource/viz/query"
)

// resolveColumns checks that every referenced simple column exists in the
// table. Lookup is case-insensitive; unknown ids get a "maybe you mean"
// suggestion from the table schema.
func resolveColumns(ctx *viz.Context, q *query.Query, table *viz.Table) error {
	for _, simple := range referencedSimpleColumns(q) {
		if table.ColumnIndex(simple.ID()) >= 0 {
			continue
		}
		ids := make([]string, table.NumColumns())
		for i, col := range table.Columns() {
			ids[i] = col.ID
		}
		return viz.InvalidQuery(ctx.Locale(), viz.MsgNoColumn,
			simple.ID(), similartext.Find(ids, simple.ID()))
	}
	return nil
}

func checkAggregationTypes(ctx *viz.Context, q *query.Query, table *viz.Table) error {
	for _, col := range q.AllColumns() {
		for _, agg := range col.AggregationColumns() {
			typ, err := agg.Aggregated().ValueType(table)
			if err != nil {
				return err
			}
			if agg.Op().RequiresNumber() && typ != viz.TypeNumber {
				return viz.InvalidQuery(ctx.Locale(), viz.MsgAvgSumOnlyNumeric)
			}
			if (agg.Op() == query.AggMin || agg.Op() == query.AggMax) && !typ.Ordered() {
				return viz.InvalidQuery(ctx.Locale(), viz.MsgInvalidAggType,
					agg.Op().Code(), agg.Aggregated().QueryString())
			}
		}
	}
	return nil
}

func checkScalarSignatures(ctx *viz.Context, q *query.Query, table *viz.Table) error {
	for _, col := range q.ScalarFunctionColumns() {
		args := make([]viz.ValueType, len(col.Args()))
		for i, arg := range col.Args() {
			typ, err := arg.ValueType(table)
			if err != nil {
				return err
			}
			args[i] = typ
		}
		if err := col.Fn().Validate(args); err != nil {
			return viz.InvalidQuery(ctx.Locale(), viz.MsgInvalidScalarArgs,
				col.Fn().Name(), err.Error())
		}
	}
	return nil
}

// referencedSimpleColumns gathers every simple column the query mentions,
// including the columns under aggregations.
func referencedSimpleColumns(q *query.Query) []query.SimpleColumn {
	var out []query.SimpleColumn
	for _, col := range q.AllColumns() {
		out = append(out, col.SimpleColumns()...)
		for _, agg := range col.AggregationColumns() {
			out = append(out, agg.Aggregated())
		}
	}
	return out
}
