package viz

// Cell is one table entry: a typed value, an optional display string and
// optional custom properties. An empty Formatted means the cell carries no
// display string; formatters never produce "" for non-null values.
type Cell struct {
	Value      Value
	Formatted  string
	Properties map[string]string
}

// NewCell returns an unformatted cell holding v.
func NewCell(v Value) Cell {
	return Cell{Value: v}
}

// NewFormattedCell returns a cell holding v with a display string.
func NewFormattedCell(v Value, formatted string) Cell {
	return Cell{Value: v, Formatted: formatted}
}

// Property returns the custom property for name, or "" when unset.
func (c *Cell) Property(name string) string {
	return c.Properties[name]
}

// SetProperty sets a custom property, allocating the map on first use.
func (c *Cell) SetProperty(name, value string) {
	if c.Properties == nil {
		c.Properties = map[string]string{}
	}
	c.Properties[name] = value
}

// Clone returns a deep copy of the cell. The value itself is shared, values
// are immutable.
func (c Cell) Clone() Cell {
	out := c
	out.Properties = cloneProperties(c.Properties)
	return out
}

// Row is an ordered sequence of cells matched positionally to the table
// columns, plus optional row-level custom properties.
type Row struct {
	Cells      []Cell
	Properties map[string]string
}

// NewRow returns a row over the given cells.
func NewRow(cells ...Cell) Row {
	return Row{Cells: cells}
}

// NewRowValues returns a row of unformatted cells holding the given values.
func NewRowValues(values ...Value) Row {
	cells := make([]Cell, len(values))
	for i, v := range values {
		cells[i] = NewCell(v)
	}
	return Row{Cells: cells}
}

// Clone returns a deep copy of the row.
func (r Row) Clone() Row {
	out := Row{
		Cells:      make([]Cell, len(r.Cells)),
		Properties: cloneProperties(r.Properties),
	}
	for i, c := range r.Cells {
		out.Cells[i] = c.Clone()
	}
	return out
}
