package engine

import (
	"github.com/chartdata/go-datasource/viz"
	"github.com/chartdata/go-datasource/viz/format"
	"github.com/chartdata/go-datasource/viz/query"
)

// project keeps the selected columns in selection order. Without a
// selection every column is kept. A selected aggregation the pivot
// expanded projects all its pivoted columns.
func (r *run) project(ctx *viz.Context) error {
	var ids []string
	if r.q.HasSelection() {
		for _, col := range r.q.Selection {
			if agg, ok := col.(query.AggregationColumn); ok && len(r.pivotCols[agg.ID()]) > 0 {
				ids = append(ids, r.pivotCols[agg.ID()]...)
				continue
			}
			ids = append(ids, col.ID())
		}
	} else {
		for _, col := range r.tbl.Columns() {
			ids = append(ids, col.ID)
		}
	}

	out := &viz.Table{}
	carryMeta(out, r.tbl)
	idxs := make([]int, len(ids))
	for j, id := range ids {
		idx := r.tbl.ColumnIndex(id)
		if idx < 0 {
			return viz.ErrColumnNotFound.New(id)
		}
		idxs[j] = idx
		if err := out.AddColumn(r.tbl.Column(idx).Clone()); err != nil {
			return err
		}
	}
	for _, row := range r.tbl.Rows() {
		cells := make([]viz.Cell, len(idxs))
		for j, idx := range idxs {
			cells[j] = row.Cells[idx]
		}
		if err := out.AddRow(viz.Row{Cells: cells, Properties: row.Properties}); err != nil {
			return err
		}
	}
	r.tbl = out
	return nil
}

// applyLabels sets the column labels from the label clause. A label keyed
// by an aggregation the pivot expanded applies to every pivoted column,
// prefixed with its joined pivot values.
func (r *run) applyLabels(ctx *viz.Context) error {
	for id, label := range r.q.Labels {
		if pivoted := r.pivotCols[id]; len(pivoted) > 0 {
			for _, pid := range pivoted {
				if idx := r.tbl.ColumnIndex(pid); idx >= 0 {
					r.tbl.Column(idx).Label = r.pivotPrefix[pid] + " " + label
				}
			}
			continue
		}
		if idx := r.tbl.ColumnIndex(id); idx >= 0 {
			r.tbl.Column(idx).Label = label
		}
	}
	return nil
}

// applyFormats renders display strings from the format clause patterns. A
// pattern that does not compile for the column type attaches a warning
// and leaves the column unformatted.
func (r *run) applyFormats(ctx *viz.Context) error {
	if r.q.Options.NoFormat {
		return nil
	}
	for id, pattern := range r.q.Formats {
		idxs := r.formatTargets(id)
		if len(idxs) == 0 {
			continue
		}
		f, err := format.New(pattern, r.tbl.Column(idxs[0]).Type)
		if err != nil {
			r.tbl.AddWarning(viz.ReasonIllegalFormattingPatterns, err.Error())
			continue
		}
		for _, idx := range idxs {
			col := r.tbl.Column(idx)
			col.Pattern = pattern
			for i := 0; i < r.tbl.NumRows(); i++ {
				cell := r.tbl.Cell(i, idx)
				cell.Formatted = f.Format(cell.Value)
			}
		}
	}
	return nil
}

func (r *run) formatTargets(id string) []int {
	if pivoted := r.pivotCols[id]; len(pivoted) > 0 {
		var idxs []int
		for _, pid := range pivoted {
			if idx := r.tbl.ColumnIndex(pid); idx >= 0 {
				idxs = append(idxs, idx)
			}
		}
		return idxs
	}
	if idx := r.tbl.ColumnIndex(id); idx >= 0 {
		return []int{idx}
	}
	return nil
}

// applyOptions applies no_format and no_values. no_format strips every
// display string; no_values fills missing display strings through the
// default formatter and then drops the raw values.
func (r *run) applyOptions(ctx *viz.Context) error {
	if r.q.Options.IsEmpty() {
		return nil
	}
	if r.q.Options.NoFormat {
		for c := 0; c < r.tbl.NumColumns(); c++ {
			r.tbl.Column(c).Pattern = ""
			for i := 0; i < r.tbl.NumRows(); i++ {
				r.tbl.Cell(i, c).Formatted = ""
			}
		}
	}
	if r.q.Options.NoValues {
		for c := 0; c < r.tbl.NumColumns(); c++ {
			col := r.tbl.Column(c)
			def := format.Default(col.Type)
			for i := 0; i < r.tbl.NumRows(); i++ {
				cell := r.tbl.Cell(i, c)
				if cell.Formatted == "" && !cell.Value.IsNull() {
					cell.Formatted = def.Format(cell.Value)
				}
				cell.Value = viz.NewNull(col.Type)
			}
		}
	}
	return nil
}
