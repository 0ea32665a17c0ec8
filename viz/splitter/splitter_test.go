package splitter

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chartdata/go-datasource/viz"
	"github.com/chartdata/go-datasource/viz/query"
	"github.com/chartdata/go-datasource/viz/query/parse"
)

func mustParse(t *testing.T, tq string) *query.Query {
	t.Helper()
	q, err := parse.Parse(viz.NewEmptyContext(), tq)
	require.NoError(t, err)
	return q
}

func split(t *testing.T, tq string, cap viz.Capabilities) SplitQuery {
	t.Helper()
	s, err := Split(mustParse(t, tq), cap)
	require.NoError(t, err)
	return s
}

func TestSplitNoneAndAll(t *testing.T) {
	require := require.New(t)
	tq := "select a where b > 1 order by a limit 5"

	s := split(t, tq, viz.CapNone)
	require.True(s.Provider.IsEmpty())
	require.Equal(tq, s.Completion.String())

	s = split(t, tq, viz.CapAll)
	require.Equal(tq, s.Provider.String())
	require.True(s.Completion.IsEmpty())
}

func TestSplitSelect(t *testing.T) {
	require := require.New(t)

	s := split(t, `select a where b > 1 order by c label a "A"`, viz.CapSelect)
	require.Equal("select a, b, c", s.Provider.String())
	require.Equal(`select a where b > 1 order by c label a "A"`, s.Completion.String())

	// Aggregations read their column through the provider.
	s = split(t, "select min(a)", viz.CapSelect)
	require.Equal("select a", s.Provider.String())

	// No explicit selection keeps every source column.
	s = split(t, "where b > 1", viz.CapSelect)
	require.True(s.Provider.IsEmpty())

	// Scalar functions disable the pushdown.
	s = split(t, "select year(a)", viz.CapSelect)
	require.True(s.Provider.IsEmpty())
	require.Equal("select year(a)", s.Completion.String())
}

func TestSplitSortAndPagination(t *testing.T) {
	require := require.New(t)

	s := split(t, "select a order by b desc limit 10 offset 2", viz.CapSortAndPagination)
	require.Equal("select a, b order by b desc limit 10 offset 2", s.Provider.String())
	require.Equal("select a", s.Completion.String())

	// Row skipping runs between sort and pagination, so pagination stays.
	s = split(t, "select a order by b skipping 2 limit 4", viz.CapSortAndPagination)
	require.Equal("select a, b order by b", s.Provider.String())
	require.Equal("select a skipping 2 limit 4", s.Completion.String())

	// A filter makes pushed pagination unsound; only the column narrowing
	// survives.
	s = split(t, "select a where a > 1 limit 3", viz.CapSortAndPagination)
	require.Equal("select a", s.Provider.String())
	require.Equal("select a where a > 1 limit 3", s.Completion.String())

	// Sorting `select *` pushes the sort alone.
	s = split(t, "order by b desc", viz.CapSortAndPagination)
	require.Equal("order by b desc", s.Provider.String())
	require.True(s.Completion.IsEmpty())
}

func TestSplitSQL(t *testing.T) {
	require := require.New(t)

	s := split(t, `select a, max(b) where c > 1 group by a order by a limit 5 `+
		`label max(b) "Top" options no_format`, viz.CapSQL)
	require.Equal("select a, max(b) where c > 1 group by a order by a limit 5",
		s.Provider.String())
	require.Equal(`select a, max-b label max-b "Top" options no_format`,
		s.Completion.String())

	// Row skipping cannot be expressed in SQL.
	s = split(t, "select a skipping 2", viz.CapSQL)
	require.True(s.Provider.IsEmpty())
	require.Equal("select a skipping 2", s.Completion.String())

	// Scalar functions disable the pushdown.
	s = split(t, "select upper(a)", viz.CapSQL)
	require.True(s.Provider.IsEmpty())
}

func TestSplitSQLColumnPatternFilters(t *testing.T) {
	require := require.New(t)

	// Substring matching against a column has no SQL rendering; the
	// filter stays in the completion and only column narrowing is pushed.
	s := split(t, "select name where name contains dept", viz.CapSQL)
	require.False(s.Provider.HasFilter())
	require.Equal("select name, dept", s.Provider.String())
	require.Equal("select name where name contains dept", s.Completion.String())

	// Same for the reversed literal form and for nested occurrences.
	s = split(t, `select name where "engineer" starts with name`, viz.CapSQL)
	require.False(s.Provider.HasFilter())

	s = split(t, `select name where not (dept = "eng" or name ends with dept)`, viz.CapSQL)
	require.False(s.Provider.HasFilter())

	// A literal pattern still pushes.
	s = split(t, `select name where name contains "a"`, viz.CapSQL)
	require.True(s.Provider.HasFilter())
	require.False(s.Completion.HasFilter())
}

func TestSplitSQLWithPivot(t *testing.T) {
	require := require.New(t)

	s := split(t, `select vegetarian, max(population) group by vegetarian `+
		`pivot family limit 3 label max(population) "Max"`, viz.CapSQL)

	require.Equal("select vegetarian, family, max(population) group by vegetarian, family",
		s.Provider.String())
	require.Equal(`select vegetarian, min(max-population) group by vegetarian `+
		`pivot family limit 3 label min-max-population "Max"`,
		s.Completion.String())
}

func TestSplitUnknownCapabilities(t *testing.T) {
	_, err := Split(query.NewQuery(), viz.Capabilities(99))
	require.True(t, ErrUnknownCapabilities.Is(err))
}
