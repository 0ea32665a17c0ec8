package query

import (
	"sort"
	"strconv"
	"strings"
)

// Clause names as they appear in user-visible messages.
const (
	ClauseSelect  = "SELECT"
	ClauseWhere   = "WHERE"
	ClauseGroupBy = "GROUP BY"
	ClausePivot   = "PIVOT"
	ClauseOrderBy = "ORDER BY"
	ClauseLabel   = "LABEL"
	ClauseFormat  = "FORMAT"
)

// Options is the bag of output options of a query.
type Options struct {
	// NoValues drops raw values from the output, keeping display strings.
	NoValues bool
	// NoFormat drops display strings from the output.
	NoFormat bool
}

// IsEmpty reports whether no option is set.
func (o Options) IsEmpty() bool { return !o.NoValues && !o.NoFormat }

// Query is the parsed analytical query: a record of optional clauses. A nil
// or empty clause is absent. Labels and Formats are keyed by the structural
// id of the column they apply to.
type Query struct {
	Selection   []AbstractColumn
	Filter      Filter
	GroupBy     []AbstractColumn
	Pivot       []AbstractColumn
	Sort        []SortColumn
	RowSkipping int // 0 when absent
	RowLimit    int // -1 when absent
	RowOffset   int // 0 when absent
	Labels      map[string]string
	Formats     map[string]string
	Options     Options
}

// NewQuery returns an empty query.
func NewQuery() *Query {
	return &Query{RowLimit: -1}
}

func (q *Query) HasSelection() bool   { return len(q.Selection) > 0 }
func (q *Query) HasFilter() bool      { return q.Filter != nil }
func (q *Query) HasGroupBy() bool     { return len(q.GroupBy) > 0 }
func (q *Query) HasPivot() bool       { return len(q.Pivot) > 0 }
func (q *Query) HasSort() bool        { return len(q.Sort) > 0 }
func (q *Query) HasRowSkipping() bool { return q.RowSkipping > 0 }
func (q *Query) HasRowLimit() bool    { return q.RowLimit >= 0 }
func (q *Query) HasRowOffset() bool   { return q.RowOffset > 0 }
func (q *Query) HasLabels() bool      { return len(q.Labels) > 0 }
func (q *Query) HasFormats() bool     { return len(q.Formats) > 0 }

// IsEmpty reports whether the query has no clause at all. Executing an
// empty query returns the input table unchanged.
func (q *Query) IsEmpty() bool {
	return !q.HasSelection() && !q.HasFilter() && !q.HasGroupBy() &&
		!q.HasPivot() && !q.HasSort() && !q.HasRowSkipping() &&
		!q.HasRowLimit() && !q.HasRowOffset() && !q.HasLabels() &&
		!q.HasFormats() && q.Options.IsEmpty()
}

// SetLabel records a label for a column, allocating the map on first use.
func (q *Query) SetLabel(col AbstractColumn, label string) {
	if q.Labels == nil {
		q.Labels = map[string]string{}
	}
	q.Labels[col.ID()] = label
}

// SetFormat records a format pattern for a column.
func (q *Query) SetFormat(col AbstractColumn, pattern string) {
	if q.Formats == nil {
		q.Formats = map[string]string{}
	}
	q.Formats[col.ID()] = pattern
}

// AllColumns returns the columns mentioned at the top level of every
// clause: selection, filter, group by, pivot and order by.
func (q *Query) AllColumns() []AbstractColumn {
	var out []AbstractColumn
	out = append(out, q.Selection...)
	if q.Filter != nil {
		out = append(out, q.Filter.Columns()...)
	}
	out = append(out, q.GroupBy...)
	out = append(out, q.Pivot...)
	for _, s := range q.Sort {
		out = append(out, s.Column)
	}
	return out
}

// AggregationColumns returns every aggregation column appearing anywhere in
// the selection, including inside scalar function arguments.
func (q *Query) AggregationColumns() []AggregationColumn {
	var out []AggregationColumn
	for _, c := range q.Selection {
		out = append(out, c.AggregationColumns()...)
	}
	return out
}

// ScalarFunctionColumns returns every scalar function column appearing
// anywhere in the query.
func (q *Query) ScalarFunctionColumns() []ScalarFunctionColumn {
	var out []ScalarFunctionColumn
	for _, c := range q.AllColumns() {
		out = append(out, c.ScalarFunctionColumns()...)
	}
	return out
}

// SelectionContains reports whether the selection has a column structurally
// equal to col.
func (q *Query) SelectionContains(col AbstractColumn) bool {
	for _, c := range q.Selection {
		if c.Equals(col) {
			return true
		}
	}
	return false
}

// Copy returns a query sharing the immutable columns and filter nodes but
// with independent clause containers, so clauses of the copy can be
// reassigned freely.
func (q *Query) Copy() *Query {
	out := NewQuery()
	if q.HasSelection() {
		out.Selection = append([]AbstractColumn(nil), q.Selection...)
	}
	out.Filter = q.Filter
	if q.HasGroupBy() {
		out.GroupBy = append([]AbstractColumn(nil), q.GroupBy...)
	}
	if q.HasPivot() {
		out.Pivot = append([]AbstractColumn(nil), q.Pivot...)
	}
	if q.HasSort() {
		out.Sort = append([]SortColumn(nil), q.Sort...)
	}
	out.RowSkipping = q.RowSkipping
	out.RowLimit = q.RowLimit
	out.RowOffset = q.RowOffset
	if q.Labels != nil {
		out.Labels = make(map[string]string, len(q.Labels))
		for k, v := range q.Labels {
			out.Labels[k] = v
		}
	}
	if q.Formats != nil {
		out.Formats = make(map[string]string, len(q.Formats))
		for k, v := range q.Formats {
			out.Formats[k] = v
		}
	}
	out.Options = q.Options
	return out
}

// String renders the query in query syntax, with clauses in canonical
// order. Label and format entries follow the map iteration order sorted by
// key, making the output deterministic.
func (q *Query) String() string {
	var parts []string
	if q.HasSelection() {
		parts = append(parts, "select "+joinColumns(q.Selection))
	}
	if q.HasFilter() {
		parts = append(parts, "where "+q.Filter.QueryString())
	}
	if q.HasGroupBy() {
		parts = append(parts, "group by "+joinColumns(q.GroupBy))
	}
	if q.HasPivot() {
		parts = append(parts, "pivot "+joinColumns(q.Pivot))
	}
	if q.HasSort() {
		keys := make([]string, len(q.Sort))
		for i, s := range q.Sort {
			keys[i] = s.QueryString()
		}
		parts = append(parts, "order by "+strings.Join(keys, ", "))
	}
	if q.HasRowSkipping() {
		parts = append(parts, "skipping "+strconv.Itoa(q.RowSkipping))
	}
	if q.HasRowLimit() {
		parts = append(parts, "limit "+strconv.Itoa(q.RowLimit))
	}
	if q.HasRowOffset() {
		parts = append(parts, "offset "+strconv.Itoa(q.RowOffset))
	}
	if q.HasLabels() {
		parts = append(parts, "label "+joinAssignments(q.Labels))
	}
	if q.HasFormats() {
		parts = append(parts, "format "+joinAssignments(q.Formats))
	}
	if !q.Options.IsEmpty() {
		opt := "options"
		if q.Options.NoFormat {
			opt += " no_format"
		}
		if q.Options.NoValues {
			opt += " no_values"
		}
		parts = append(parts, opt)
	}
	return strings.Join(parts, " ")
}

func joinColumns(cols []AbstractColumn) string {
	parts := make([]string, len(cols))
	for i, c := range cols {
		parts[i] = c.QueryString()
	}
	return strings.Join(parts, ", ")
}

func joinAssignments(m map[string]string) string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + " " + quoteText(m[k])
	}
	return strings.Join(parts, ", ")
}

func quoteText(s string) string {
	if strings.Contains(s, `"`) {
		return "'" + s + "'"
	}
	return `"` + s + `"`
}
