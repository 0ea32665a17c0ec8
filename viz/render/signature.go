package render

import (
	"strconv"

	"github.com/mitchellh/hashstructure"

	"github.com/chartdata/go-datasource/viz"
)

// sigTable is the hashed snapshot of a table: column descriptions, cell
// values and display strings, and table properties. Cell values enter
// through their canonical hash so equal values produce equal signatures
// regardless of representation.
type sigTable struct {
	Columns    []sigColumn
	Rows       []sigRow
	Properties map[string]string
}

type sigColumn struct {
	ID         string
	Type       byte
	Label      string
	Pattern    string
	Properties map[string]string
}

type sigRow struct {
	Cells      []sigCell
	Properties map[string]string
}

type sigCell struct {
	Value      uint64
	Formatted  string
	Properties map[string]string
}

// Signature computes the content token clients use to skip re-downloads:
// a stable hash over the table schema, values, display strings and
// properties, rendered as a decimal string. Two runs over equal tables
// produce equal signatures; any change to a value or a display string
// changes it.
func Signature(t *viz.Table) (string, error) {
	snap := sigTable{
		Columns:    make([]sigColumn, t.NumColumns()),
		Rows:       make([]sigRow, t.NumRows()),
		Properties: t.Properties(),
	}
	for i, col := range t.Columns() {
		snap.Columns[i] = sigColumn{
			ID:         col.ID,
			Type:       byte(col.Type),
			Label:      col.Label,
			Pattern:    col.Pattern,
			Properties: col.Properties,
		}
	}
	for i, row := range t.Rows() {
		cells := make([]sigCell, len(row.Cells))
		for j := range row.Cells {
			cell := &row.Cells[j]
			cells[j] = sigCell{
				Value:      cell.Value.Hash(),
				Formatted:  cell.Formatted,
				Properties: cell.Properties,
			}
		}
		snap.Rows[i] = sigRow{Cells: cells, Properties: row.Properties}
	}
	h, err := hashstructure.Hash(snap, nil)
	if err != nil {
		return "", err
	}
	return strconv.FormatUint(h, 10), nil
}
