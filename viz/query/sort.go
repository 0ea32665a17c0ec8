package query

// SortOrder is the direction of one sort key.
type SortOrder byte

const (
	Ascending SortOrder = iota
	Descending
)

func (o SortOrder) String() string {
	if o == Descending {
		return "desc"
	}
	return "asc"
}

// SortColumn is one key of the order-by clause.
type SortColumn struct {
	Column AbstractColumn
	Order  SortOrder
}

// NewSortColumn returns a sort key over column in the given direction.
func NewSortColumn(column AbstractColumn, order SortOrder) SortColumn {
	return SortColumn{Column: column, Order: order}
}

// QueryString renders the key in query syntax. Ascending order is implicit.
func (s SortColumn) QueryString() string {
	if s.Order == Descending {
		return s.Column.QueryString() + " desc"
	}
	return s.Column.QueryString()
}
