// Package query defines the analytical query tree: the clause record, the
// column variants appearing in clauses and the filter algebra, together
// with their evaluation over table rows.
package query

import (
	"strings"

	"github.com/chartdata/go-datasource/viz"
	errors "gopkg.in/src-d/go-errors.v1"
)

var (
	// ErrColumnNotInTable is returned when a column evaluation cannot find
	// its column in the lookup table.
	ErrColumnNotInTable = errors.NewKind("column %q not found during evaluation")
	// ErrBadAggregationType is returned for aggregation codes outside the
	// closed set.
	ErrBadAggregationType = errors.NewKind("unknown aggregation type %q")
)

// ColumnLookup resolves a structural column id to an index in a concrete
// table, or -1 when absent. *viz.Table satisfies it.
type ColumnLookup interface {
	ColumnIndex(id string) int
}

// AbstractColumn is one entry of a query clause: a reference to a table
// column, an aggregation over one, a scalar function application or a
// constant. Columns are immutable and compared structurally.
type AbstractColumn interface {
	// ID returns the structural id derived from the column shape, used as
	// the column id of result tables and as the key of label and format
	// maps.
	ID() string
	// QueryString renders the column in query syntax.
	QueryString() string
	// Value evaluates the column over one row.
	Value(lookup ColumnLookup, row viz.Row) (viz.Value, error)
	// ValueType returns the type of the column against the given table
	// schema.
	ValueType(table *viz.Table) (viz.ValueType, error)
	// SimpleColumns returns all simple columns in the subtree.
	SimpleColumns() []SimpleColumn
	// AggregationColumns returns all aggregation columns in the subtree.
	AggregationColumns() []AggregationColumn
	// ScalarFunctionColumns returns all scalar function columns in the
	// subtree.
	ScalarFunctionColumns() []ScalarFunctionColumn
	// Equals reports structural equality.
	Equals(other AbstractColumn) bool
}

// AggregationType identifies one of the five aggregation operators.
type AggregationType byte

const (
	AggMin AggregationType = iota
	AggMax
	AggSum
	AggAvg
	AggCount
)

var aggCodes = map[AggregationType]string{
	AggMin:   "min",
	AggMax:   "max",
	AggSum:   "sum",
	AggAvg:   "avg",
	AggCount: "count",
}

// Code returns the lowercase operator name used in query syntax and in
// structural column ids.
func (a AggregationType) Code() string { return aggCodes[a] }

func (a AggregationType) String() string { return a.Code() }

// ParseAggregationType resolves an operator name, case-insensitively.
func ParseAggregationType(s string) (AggregationType, error) {
	for a, code := range aggCodes {
		if strings.EqualFold(s, code) {
			return a, nil
		}
	}
	return 0, ErrBadAggregationType.New(s)
}

// RequiresNumber reports whether the operator is defined only on number
// columns.
func (a AggregationType) RequiresNumber() bool {
	return a == AggSum || a == AggAvg
}

// ResultType returns the type of the aggregated column given the type of
// the aggregated values.
func (a AggregationType) ResultType(input viz.ValueType) viz.ValueType {
	switch a {
	case AggCount, AggSum, AggAvg:
		return viz.TypeNumber
	}
	return input
}

// SimpleColumn references a table column by id.
type SimpleColumn struct {
	id string
}

// NewSimpleColumn returns a reference to the table column with the given
// id.
func NewSimpleColumn(id string) SimpleColumn {
	return SimpleColumn{id: id}
}

func (c SimpleColumn) ID() string { return c.id }

func (c SimpleColumn) QueryString() string {
	if strings.ContainsAny(c.id, " `") || c.id == "" {
		return "`" + c.id + "`"
	}
	return c.id
}

func (c SimpleColumn) Value(lookup ColumnLookup, row viz.Row) (viz.Value, error) {
	idx := lookup.ColumnIndex(c.id)
	if idx < 0 || idx >= len(row.Cells) {
		return viz.Value{}, ErrColumnNotInTable.New(c.id)
	}
	return row.Cells[idx].Value, nil
}

func (c SimpleColumn) ValueType(table *viz.Table) (viz.ValueType, error) {
	col, ok := table.ColumnByID(c.id)
	if !ok {
		return 0, ErrColumnNotInTable.New(c.id)
	}
	return col.Type, nil
}

func (c SimpleColumn) SimpleColumns() []SimpleColumn           { return []SimpleColumn{c} }
func (c SimpleColumn) AggregationColumns() []AggregationColumn { return nil }
func (c SimpleColumn) ScalarFunctionColumns() []ScalarFunctionColumn {
	return nil
}

func (c SimpleColumn) Equals(other AbstractColumn) bool {
	o, ok := other.(SimpleColumn)
	return ok && o.id == c.id
}

// AggregationColumn applies an aggregation operator to a simple column.
type AggregationColumn struct {
	column SimpleColumn
	op     AggregationType
}

// NewAggregationColumn returns the aggregation op(column).
func NewAggregationColumn(column SimpleColumn, op AggregationType) AggregationColumn {
	return AggregationColumn{column: column, op: op}
}

// Aggregated returns the column being aggregated.
func (c AggregationColumn) Aggregated() SimpleColumn { return c.column }

// Op returns the aggregation operator.
func (c AggregationColumn) Op() AggregationType { return c.op }

func (c AggregationColumn) ID() string {
	return c.op.Code() + "-" + c.column.ID()
}

func (c AggregationColumn) QueryString() string {
	return c.op.Code() + "(" + c.column.QueryString() + ")"
}

// Value reads the aggregated result from a table produced by the grouping
// stage, where the column appears under its structural id.
func (c AggregationColumn) Value(lookup ColumnLookup, row viz.Row) (viz.Value, error) {
	idx := lookup.ColumnIndex(c.ID())
	if idx < 0 || idx >= len(row.Cells) {
		return viz.Value{}, ErrColumnNotInTable.New(c.ID())
	}
	return row.Cells[idx].Value, nil
}

func (c AggregationColumn) ValueType(table *viz.Table) (viz.ValueType, error) {
	inner, err := c.column.ValueType(table)
	if err != nil {
		return 0, err
	}
	return c.op.ResultType(inner), nil
}

func (c AggregationColumn) SimpleColumns() []SimpleColumn { return nil }
func (c AggregationColumn) AggregationColumns() []AggregationColumn {
	return []AggregationColumn{c}
}
func (c AggregationColumn) ScalarFunctionColumns() []ScalarFunctionColumn {
	return nil
}

func (c AggregationColumn) Equals(other AbstractColumn) bool {
	o, ok := other.(AggregationColumn)
	return ok && o.op == c.op && o.column == c.column
}

// ScalarFunctionColumn applies a scalar function to other columns.
type ScalarFunctionColumn struct {
	fn   ScalarFunction
	args []AbstractColumn
}

// NewScalarFunctionColumn returns the application fn(args...).
func NewScalarFunctionColumn(fn ScalarFunction, args ...AbstractColumn) ScalarFunctionColumn {
	return ScalarFunctionColumn{fn: fn, args: args}
}

// Fn returns the applied function.
func (c ScalarFunctionColumn) Fn() ScalarFunction { return c.fn }

// Args returns the argument columns.
func (c ScalarFunctionColumn) Args() []AbstractColumn { return c.args }

func (c ScalarFunctionColumn) ID() string {
	parts := make([]string, 0, len(c.args)+1)
	parts = append(parts, c.fn.Name())
	for _, arg := range c.args {
		parts = append(parts, arg.ID())
	}
	return strings.Join(parts, "_")
}

func (c ScalarFunctionColumn) QueryString() string {
	args := make([]string, len(c.args))
	for i, arg := range c.args {
		args[i] = arg.QueryString()
	}
	return c.fn.QueryString(args)
}

// Value evaluates the column. When a previous stage materialized it into
// the table it is read back by id; otherwise the arguments are evaluated
// and the function applied.
func (c ScalarFunctionColumn) Value(lookup ColumnLookup, row viz.Row) (viz.Value, error) {
	if idx := lookup.ColumnIndex(c.ID()); idx >= 0 && idx < len(row.Cells) {
		return row.Cells[idx].Value, nil
	}
	args := make([]viz.Value, len(c.args))
	for i, arg := range c.args {
		v, err := arg.Value(lookup, row)
		if err != nil {
			return viz.Value{}, err
		}
		args[i] = v
	}
	return c.fn.Apply(args)
}

func (c ScalarFunctionColumn) ValueType(table *viz.Table) (viz.ValueType, error) {
	args := make([]viz.ValueType, len(c.args))
	for i, arg := range c.args {
		t, err := arg.ValueType(table)
		if err != nil {
			return 0, err
		}
		args[i] = t
	}
	return c.fn.ReturnType(args), nil
}

func (c ScalarFunctionColumn) SimpleColumns() []SimpleColumn {
	var out []SimpleColumn
	for _, arg := range c.args {
		out = append(out, arg.SimpleColumns()...)
	}
	return out
}

func (c ScalarFunctionColumn) AggregationColumns() []AggregationColumn {
	var out []AggregationColumn
	for _, arg := range c.args {
		out = append(out, arg.AggregationColumns()...)
	}
	return out
}

func (c ScalarFunctionColumn) ScalarFunctionColumns() []ScalarFunctionColumn {
	out := []ScalarFunctionColumn{c}
	for _, arg := range c.args {
		out = append(out, arg.ScalarFunctionColumns()...)
	}
	return out
}

func (c ScalarFunctionColumn) Equals(other AbstractColumn) bool {
	o, ok := other.(ScalarFunctionColumn)
	if !ok || o.fn.Name() != c.fn.Name() || len(o.args) != len(c.args) {
		return false
	}
	for i := range c.args {
		if !c.args[i].Equals(o.args[i]) {
			return false
		}
	}
	return true
}

// ConstantColumn holds a literal value.
type ConstantColumn struct {
	value viz.Value
}

// NewConstantColumn returns a column evaluating to the given value on every
// row.
func NewConstantColumn(v viz.Value) ConstantColumn {
	return ConstantColumn{value: v}
}

// ConstantValue returns the literal.
func (c ConstantColumn) ConstantValue() viz.Value { return c.value }

func (c ConstantColumn) ID() string { return c.QueryString() }

func (c ConstantColumn) QueryString() string {
	lit, err := c.value.QueryLiteral()
	if err != nil {
		return c.value.String()
	}
	return lit
}

func (c ConstantColumn) Value(ColumnLookup, viz.Row) (viz.Value, error) {
	return c.value, nil
}

func (c ConstantColumn) ValueType(*viz.Table) (viz.ValueType, error) {
	return c.value.Type(), nil
}

func (c ConstantColumn) SimpleColumns() []SimpleColumn           { return nil }
func (c ConstantColumn) AggregationColumns() []AggregationColumn { return nil }
func (c ConstantColumn) ScalarFunctionColumns() []ScalarFunctionColumn {
	return nil
}

func (c ConstantColumn) Equals(other AbstractColumn) bool {
	o, ok := other.(ConstantColumn)
	return ok && o.value.Equals(c.value)
}
