// Package engine executes analytical queries over in-memory tables. A
// query runs as a fixed pipeline: filtering, grouping and pivoting,
// calculated columns, ordering, row skipping, pagination, projection,
// labels, formats and output options. Every stage consumes the table the
// previous stage produced; the input table is never modified.
package engine

import (
	"sort"

	"github.com/chartdata/go-datasource/viz"
	"github.com/chartdata/go-datasource/viz/query"
)

// ExecuteQuery runs q over table and returns the result table. The input
// table is treated as read-only; cancellation of ctx is checked between
// stages.
func ExecuteQuery(ctx *viz.Context, q *query.Query, table *viz.Table) (*viz.Table, error) {
	span, ctx := ctx.Span("engine.execute")
	defer span.Finish()

	r := &run{q: q, tbl: table}
	for _, stage := range []struct {
		name string
		fn   func(*viz.Context) error
	}{
		{"filter", r.filterRows},
		{"group", r.groupAndPivot},
		{"calculated", r.materializeCalculated},
		{"sort", r.sortRows},
		{"skip", r.skipRows},
		{"paginate", r.paginate},
		{"project", r.project},
		{"labels", r.applyLabels},
		{"formats", r.applyFormats},
		{"options", r.applyOptions},
	} {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		span, stageCtx := ctx.Span("engine." + stage.name)
		err := stage.fn(stageCtx)
		span.Finish()
		if err != nil {
			return nil, err
		}
	}
	return r.tbl, nil
}

// run carries the table through the pipeline together with the pivot
// bookkeeping the grouping stage leaves for projection, labels and
// formats.
type run struct {
	q   *query.Query
	tbl *viz.Table

	// pivotCols maps an aggregation column id to the ids of the columns
	// the pivot expanded it into, in output order. pivotPrefix maps each
	// expanded id back to its joined pivot values.
	pivotCols   map[string][]string
	pivotPrefix map[string]string
}

// filterRows keeps the rows matching the where clause, in input order.
func (r *run) filterRows(ctx *viz.Context) error {
	if !r.q.HasFilter() {
		return nil
	}
	out := r.tbl.CloneEmpty()
	for _, row := range r.tbl.Rows() {
		ok, err := r.q.Filter.Match(r.tbl, row)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := out.AddRow(row); err != nil {
			return err
		}
	}
	r.tbl = out
	return nil
}

// materializeCalculated appends a column for every selected scalar
// function or constant the table does not already hold, evaluated per
// row. Scalars over aggregations read the columns the grouping stage
// produced.
func (r *run) materializeCalculated(ctx *viz.Context) error {
	var cols []query.AbstractColumn
	for _, col := range r.q.Selection {
		switch col.(type) {
		case query.ScalarFunctionColumn, query.ConstantColumn:
			if r.tbl.ColumnIndex(col.ID()) < 0 {
				cols = append(cols, col)
			}
		}
	}
	if len(cols) == 0 {
		return nil
	}

	out := r.tbl.CloneEmpty()
	for _, col := range cols {
		typ, err := col.ValueType(r.tbl)
		if err != nil {
			return err
		}
		desc := viz.NewColumnDescription(col.ID(), typ)
		desc.Label = col.QueryString()
		if err := out.AddColumn(desc); err != nil {
			return err
		}
	}
	for _, row := range r.tbl.Rows() {
		cells := make([]viz.Cell, 0, len(row.Cells)+len(cols))
		cells = append(cells, row.Cells...)
		for _, col := range cols {
			v, err := col.Value(r.tbl, row)
			if err != nil {
				return err
			}
			cells = append(cells, viz.NewCell(v))
		}
		if err := out.AddRow(viz.Row{Cells: cells, Properties: row.Properties}); err != nil {
			return err
		}
	}
	r.tbl = out
	return nil
}

// sortRows stably orders the rows by the order-by keys. Ascending order
// puts nulls first, descending puts them last.
func (r *run) sortRows(ctx *viz.Context) error {
	if !r.q.HasSort() {
		return nil
	}
	rows := append([]viz.Row(nil), r.tbl.Rows()...)
	var sortErr error
	sort.SliceStable(rows, func(i, j int) bool {
		for _, key := range r.q.Sort {
			a, err := key.Column.Value(r.tbl, rows[i])
			if err != nil {
				if sortErr == nil {
					sortErr = err
				}
				return false
			}
			b, err := key.Column.Value(r.tbl, rows[j])
			if err != nil {
				if sortErr == nil {
					sortErr = err
				}
				return false
			}
			c, err := r.tbl.CompareValues(a, b)
			if err != nil {
				if sortErr == nil {
					sortErr = err
				}
				return false
			}
			if key.Order == query.Descending {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
	if sortErr != nil {
		return sortErr
	}
	return r.replaceRows(rows)
}

// skipRows applies the skipping clause: of every block of k rows, only
// the first is kept.
func (r *run) skipRows(ctx *viz.Context) error {
	if !r.q.HasRowSkipping() {
		return nil
	}
	k := r.q.RowSkipping
	var rows []viz.Row
	for i, row := range r.tbl.Rows() {
		if i%k == 0 {
			rows = append(rows, row)
		}
	}
	return r.replaceRows(rows)
}

// paginate applies the offset and then the limit.
func (r *run) paginate(ctx *viz.Context) error {
	if !r.q.HasRowLimit() && !r.q.HasRowOffset() {
		return nil
	}
	rows := r.tbl.Rows()
	start := r.q.RowOffset
	if start > len(rows) {
		start = len(rows)
	}
	end := len(rows)
	if r.q.HasRowLimit() && start+r.q.RowLimit < end {
		end = start + r.q.RowLimit
	}
	return r.replaceRows(rows[start:end])
}

func (r *run) replaceRows(rows []viz.Row) error {
	out := r.tbl.CloneEmpty()
	for _, row := range rows {
		if err := out.AddRow(row); err != nil {
			return err
		}
	}
	r.tbl = out
	return nil
}
