package viz

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	errors "gopkg.in/src-d/go-errors.v1"
)

var (
	// ErrColumnExists is returned when a column id is added twice.
	ErrColumnExists = errors.NewKind("a column with id %q already exists")
	// ErrColumnNotFound is returned by table lookups of unknown column ids.
	ErrColumnNotFound = errors.NewKind("no column with id %q")
	// ErrRowLength is returned when a row does not span all table columns.
	ErrRowLength = errors.NewKind("row has %d cells, table has %d columns")
	// ErrCellType is returned when a cell value does not match its column
	// type.
	ErrCellType = errors.NewKind("cell %d has type %s, column %q expects %s")
)

// Table is an ordered sequence of column descriptions plus an ordered
// sequence of rows. Tables are mutable while a provider builds them and
// treated as immutable by the engine, which always produces a new table.
type Table struct {
	columns    []ColumnDescription
	colIdx     map[string]int
	colFold    map[string]int
	rows       []Row
	warnings   []Warning
	properties map[string]string
	locale     language.Tag
	collator   *collate.Collator
}

// NewTable returns a table over the given columns.
func NewTable(columns ...ColumnDescription) (*Table, error) {
	t := &Table{}
	for _, col := range columns {
		if err := t.AddColumn(col); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// AddColumn appends a column. When the table already has rows, every row is
// padded with a null cell of the column type.
func (t *Table) AddColumn(col ColumnDescription) error {
	if _, ok := t.colIdx[col.ID]; ok {
		return ErrColumnExists.New(col.ID)
	}
	if t.colIdx == nil {
		t.colIdx = map[string]int{}
		t.colFold = map[string]int{}
	}
	t.colIdx[col.ID] = len(t.columns)
	if _, ok := t.colFold[foldID(col.ID)]; !ok {
		t.colFold[foldID(col.ID)] = len(t.columns)
	}
	t.columns = append(t.columns, col)
	for i := range t.rows {
		t.rows[i].Cells = append(t.rows[i].Cells, NewCell(NewNull(col.Type)))
	}
	return nil
}

// AddRow appends a row after validating its width and cell types.
func (t *Table) AddRow(row Row) error {
	if len(row.Cells) != len(t.columns) {
		return ErrRowLength.New(len(row.Cells), len(t.columns))
	}
	for i, cell := range row.Cells {
		if cell.Value.Type() != t.columns[i].Type {
			return ErrCellType.New(i, cell.Value.Type(), t.columns[i].ID, t.columns[i].Type)
		}
	}
	t.rows = append(t.rows, row)
	return nil
}

// AddRowValues appends a row of unformatted cells holding the given values.
func (t *Table) AddRowValues(values ...Value) error {
	return t.AddRow(NewRowValues(values...))
}

// NumColumns returns the number of columns.
func (t *Table) NumColumns() int { return len(t.columns) }

// NumRows returns the number of rows.
func (t *Table) NumRows() int { return len(t.rows) }

// Columns returns the column descriptions in order. Callers must not modify
// the returned slice.
func (t *Table) Columns() []ColumnDescription { return t.columns }

// Column returns the i-th column description for in-place metadata updates.
func (t *Table) Column(i int) *ColumnDescription { return &t.columns[i] }

// ColumnIndex returns the position of the column with the given id, or -1.
// An exact id match wins; failing that, ids are matched case-insensitively,
// so user-written column references resolve regardless of spelling.
func (t *Table) ColumnIndex(id string) int {
	if i, ok := t.colIdx[id]; ok {
		return i
	}
	if i, ok := t.colFold[foldID(id)]; ok {
		return i
	}
	return -1
}

// ColumnByID returns the column description for id, resolved the way
// ColumnIndex resolves it.
func (t *Table) ColumnByID(id string) (*ColumnDescription, bool) {
	i := t.ColumnIndex(id)
	if i < 0 {
		return nil, false
	}
	return &t.columns[i], true
}

func foldID(id string) string { return strings.ToLower(id) }

// Rows returns the rows in order. Callers must not modify the returned
// slice.
func (t *Table) Rows() []Row { return t.rows }

// Row returns the i-th row.
func (t *Table) Row(i int) *Row { return &t.rows[i] }

// Cell returns the cell at row r, column c.
func (t *Table) Cell(r, c int) *Cell { return &t.rows[r].Cells[c] }

// SetLocale sets the locale used for user-visible messages about this table
// and for text collation in ordering operations.
func (t *Table) SetLocale(tag language.Tag) {
	t.locale = tag
	if tag == language.Und {
		t.collator = nil
		return
	}
	t.collator = collate.New(tag)
}

// Locale returns the table locale, language.Und when unset.
func (t *Table) Locale() language.Tag { return t.locale }

// CompareValues orders two values using the table's collation for text and
// natural order otherwise. Nulls order below any non-null of the same type.
func (t *Table) CompareValues(a, b Value) (int, error) {
	if t.collator != nil && a.Type() == TypeText && b.Type() == TypeText &&
		!a.IsNull() && !b.IsNull() {
		return t.collator.CompareString(a.Text(), b.Text()), nil
	}
	return a.Compare(b)
}

// AddWarning attaches a warning to the table.
func (t *Table) AddWarning(reason ReasonType, message string) {
	t.warnings = append(t.warnings, Warning{Reason: reason, Message: message})
}

// Warnings returns the warnings attached so far.
func (t *Table) Warnings() []Warning { return t.warnings }

// Property returns the table-level custom property for name, or "".
func (t *Table) Property(name string) string {
	return t.properties[name]
}

// SetProperty sets a table-level custom property.
func (t *Table) SetProperty(name, value string) {
	if t.properties == nil {
		t.properties = map[string]string{}
	}
	t.properties[name] = value
}

// Properties returns the table-level custom properties. Callers must not
// modify the returned map.
func (t *Table) Properties() map[string]string { return t.properties }

// Clone returns a deep copy of the table: columns, rows, warnings and
// properties are copied, values are shared.
func (t *Table) Clone() *Table {
	out := t.CloneEmpty()
	if t.rows != nil {
		out.rows = make([]Row, len(t.rows))
		for i, row := range t.rows {
			out.rows[i] = row.Clone()
		}
	}
	return out
}

// CloneEmpty returns a deep copy of the table schema, warnings and
// properties, with no rows.
func (t *Table) CloneEmpty() *Table {
	out := &Table{
		columns:    make([]ColumnDescription, len(t.columns)),
		colIdx:     make(map[string]int, len(t.colIdx)),
		colFold:    make(map[string]int, len(t.colFold)),
		properties: cloneProperties(t.properties),
		locale:     t.locale,
		collator:   t.collator,
	}
	for i, col := range t.columns {
		out.columns[i] = col.Clone()
		out.colIdx[col.ID] = i
		if _, ok := out.colFold[foldID(col.ID)]; !ok {
			out.colFold[foldID(col.ID)] = i
		}
	}
	if t.warnings != nil {
		out.warnings = append([]Warning(nil), t.warnings...)
	}
	return out
}

// DistinctCells returns one cell per distinct value of the column, ordered
// by formatted value when both cells carry one and by value otherwise, so
// display order follows formatting.
func (t *Table) DistinctCells(id string) ([]Cell, error) {
	c := t.ColumnIndex(id)
	if c < 0 {
		return nil, ErrColumnNotFound.New(id)
	}
	var (
		cells []Cell
		seen  = map[uint64][]Value{}
	)
	for r := range t.rows {
		cell := t.rows[r].Cells[c]
		h := cell.Value.Hash()
		dup := false
		for _, v := range seen[h] {
			if v.Equals(cell.Value) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seen[h] = append(seen[h], cell.Value)
		cells = append(cells, cell)
	}
	sort.SliceStable(cells, func(i, j int) bool {
		return t.compareCells(cells[i], cells[j]) < 0
	})
	return cells, nil
}

func (t *Table) compareCells(a, b Cell) int {
	if a.Formatted != "" && b.Formatted != "" {
		if t.collator != nil {
			return t.collator.CompareString(a.Formatted, b.Formatted)
		}
		switch {
		case a.Formatted < b.Formatted:
			return -1
		case a.Formatted > b.Formatted:
			return 1
		}
		return 0
	}
	c, err := t.CompareValues(a.Value, b.Value)
	if err != nil {
		return 0
	}
	return c
}
