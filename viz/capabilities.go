package viz

// Capabilities declares how much of a query a data provider can execute
// natively. The splitter uses it to factor a query into a provider part and
// an in-process completion.
type Capabilities byte

const (
	// CapNone providers return their base table unmodified.
	CapNone Capabilities = iota
	// CapSelect providers can project a subset, and order, of simple
	// columns.
	CapSelect
	// CapSortAndPagination providers additionally sort by simple columns
	// and apply limit and offset.
	CapSortAndPagination
	// CapSQL providers execute selection, filtering, grouping, sorting and
	// pagination, but neither pivoting, scalar functions nor row skipping.
	CapSQL
	// CapAll providers execute the entire query themselves.
	CapAll
)

func (c Capabilities) String() string {
	switch c {
	case CapNone:
		return "none"
	case CapSelect:
		return "select"
	case CapSortAndPagination:
		return "sort_and_pagination"
	case CapSQL:
		return "sql"
	case CapAll:
		return "all"
	}
	return "invalid"
}
