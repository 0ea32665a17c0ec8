package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/chartdata/go-datasource/viz"
	"github.com/chartdata/go-datasource/viz/query/parse"
)

func animalTable(t *testing.T) *viz.Table {
	t.Helper()
	table, err := viz.NewTable(
		viz.NewColumnDescription("name", viz.TypeText),
		viz.NewColumnDescription("population", viz.TypeNumber),
		viz.NewColumnDescription("vegetarian", viz.TypeBoolean),
	)
	require.NoError(t, err)
	for _, r := range []struct {
		name string
		pop  float64
		veg  bool
	}{
		{"Aye-aye", 100, true},
		{"Sloth", 300, true},
		{"Leopard", 50, false},
		{"Tiger", 80, false},
	} {
		err := table.AddRowValues(viz.NewText(r.name), viz.NewNumber(r.pop), viz.NewBool(r.veg))
		require.NoError(t, err)
	}
	return table
}

func executeQuery(t *testing.T, tq string, table *viz.Table) *viz.Table {
	t.Helper()
	q, err := parse.Parse(viz.NewEmptyContext(), tq)
	require.NoError(t, err)
	out, err := ExecuteQuery(viz.NewEmptyContext(), q, table)
	require.NoError(t, err)
	return out
}

func columnIDs(table *viz.Table) []string {
	ids := make([]string, table.NumColumns())
	for i, col := range table.Columns() {
		ids[i] = col.ID
	}
	return ids
}

func textColumn(table *viz.Table, col int) []string {
	out := make([]string, table.NumRows())
	for i := range out {
		out[i] = table.Cell(i, col).Value.Text()
	}
	return out
}

func TestExecuteEmptyQuery(t *testing.T) {
	require := require.New(t)

	in := animalTable(t)
	out := executeQuery(t, "", in)

	require.Equal(columnIDs(in), columnIDs(out))
	require.Equal(in.NumRows(), out.NumRows())
	for i := 0; i < in.NumRows(); i++ {
		for c := 0; c < in.NumColumns(); c++ {
			require.True(in.Cell(i, c).Value.Equals(out.Cell(i, c).Value))
		}
	}
}

func TestExecuteSelectColumn(t *testing.T) {
	require := require.New(t)

	out := executeQuery(t, "select population", animalTable(t))
	require.Equal([]string{"population"}, columnIDs(out))
	require.Equal(4, out.NumRows())
	require.Equal(float64(300), out.Cell(1, 0).Value.Number())
}

func TestExecuteFilter(t *testing.T) {
	require := require.New(t)

	out := executeQuery(t, "select name, vegetarian where population > 100", animalTable(t))
	require.Equal(2, out.NumColumns())
	require.Equal(1, out.NumRows())
	require.Equal("Sloth", out.Cell(0, 0).Value.Text())
	require.True(out.Cell(0, 1).Value.Bool())
}

func TestExecuteFilterAlwaysFalse(t *testing.T) {
	require := require.New(t)

	out := executeQuery(t, "select name where population > 1000", animalTable(t))
	require.Equal([]string{"name"}, columnIDs(out))
	require.Equal(0, out.NumRows())
}

func TestExecuteGroupBy(t *testing.T) {
	require := require.New(t)

	out := executeQuery(t, "select vegetarian, sum(population) group by vegetarian", animalTable(t))
	require.Equal([]string{"vegetarian", "sum-population"}, columnIDs(out))
	require.Equal("sum(population)", out.Column(1).Label)
	require.Equal(2, out.NumRows())

	// Group keys ascend: false before true.
	require.False(out.Cell(0, 0).Value.Bool())
	require.Equal(float64(130), out.Cell(0, 1).Value.Number())
	require.True(out.Cell(1, 0).Value.Bool())
	require.Equal(float64(400), out.Cell(1, 1).Value.Number())
}

func TestExecutePivot(t *testing.T) {
	require := require.New(t)

	out := executeQuery(t, "select sum(population) pivot vegetarian", animalTable(t))
	require.Equal([]string{"false sum-population", "true sum-population"}, columnIDs(out))
	require.Equal("false", out.Column(0).Label)
	require.Equal("true", out.Column(1).Label)
	require.Equal(1, out.NumRows())
	require.Equal(float64(130), out.Cell(0, 0).Value.Number())
	require.Equal(float64(400), out.Cell(0, 1).Value.Number())
}

func TestExecuteMultiAggregationPivot(t *testing.T) {
	require := require.New(t)

	out := executeQuery(t, "select min(population), max(population) pivot vegetarian", animalTable(t))
	require.Equal([]string{
		"false min-population", "false max-population",
		"true min-population", "true max-population",
	}, columnIDs(out))
	require.Equal("false min-population", out.Column(0).Label)
	require.Equal(1, out.NumRows())
	require.Equal(float64(50), out.Cell(0, 0).Value.Number())
	require.Equal(float64(80), out.Cell(0, 1).Value.Number())
	require.Equal(float64(100), out.Cell(0, 2).Value.Number())
	require.Equal(float64(300), out.Cell(0, 3).Value.Number())
}

func TestExecutePivotMissingCombination(t *testing.T) {
	require := require.New(t)

	table, err := viz.NewTable(
		viz.NewColumnDescription("vegetarian", viz.TypeBoolean),
		viz.NewColumnDescription("family", viz.TypeText),
		viz.NewColumnDescription("population", viz.TypeNumber),
	)
	require.NoError(err)
	require.NoError(table.AddRowValues(viz.NewBool(true), viz.NewText("A"), viz.NewNumber(10)))
	require.NoError(table.AddRowValues(viz.NewBool(false), viz.NewText("B"), viz.NewNumber(20)))

	out := executeQuery(t, "select vegetarian, sum(population) group by vegetarian pivot family", table)
	require.Equal([]string{"vegetarian", "A sum-population", "B sum-population"}, columnIDs(out))
	require.Equal(2, out.NumRows())

	// Row for false: never seen with family A.
	require.True(out.Cell(0, 1).Value.IsNull())
	require.Equal(viz.TypeNumber, out.Cell(0, 1).Value.Type())
	require.Equal(float64(20), out.Cell(0, 2).Value.Number())

	// Row for true: never seen with family B.
	require.Equal(float64(10), out.Cell(1, 1).Value.Number())
	require.True(out.Cell(1, 2).Value.IsNull())
}

func TestExecuteOrderBy(t *testing.T) {
	require := require.New(t)

	out := executeQuery(t, "select name order by population", animalTable(t))
	require.Equal([]string{"name"}, columnIDs(out))
	require.Equal([]string{"Leopard", "Tiger", "Aye-aye", "Sloth"}, textColumn(out, 0))
}

func TestExecuteOrderByAggregation(t *testing.T) {
	require := require.New(t)

	tq := "select vegetarian, sum(population) group by vegetarian order by sum(population) desc"
	out := executeQuery(t, tq, animalTable(t))
	require.Equal(2, out.NumRows())
	require.Equal(float64(400), out.Cell(0, 1).Value.Number())
	require.Equal(float64(130), out.Cell(1, 1).Value.Number())
}

func TestExecuteOrderByNulls(t *testing.T) {
	require := require.New(t)

	table, err := viz.NewTable(
		viz.NewColumnDescription("name", viz.TypeText),
		viz.NewColumnDescription("population", viz.TypeNumber),
	)
	require.NoError(err)
	require.NoError(table.AddRowValues(viz.NewText("a"), viz.NewNull(viz.TypeNumber)))
	require.NoError(table.AddRowValues(viz.NewText("b"), viz.NewNumber(2)))
	require.NoError(table.AddRowValues(viz.NewText("c"), viz.NewNumber(1)))

	asc := executeQuery(t, "select name order by population", table)
	require.Equal([]string{"a", "c", "b"}, textColumn(asc, 0))

	desc := executeQuery(t, "select name order by population desc", table)
	require.Equal([]string{"b", "c", "a"}, textColumn(desc, 0))
}

func TestExecuteStableSort(t *testing.T) {
	require := require.New(t)

	out := executeQuery(t, "select name order by 5", animalTable(t))
	require.Equal([]string{"Aye-aye", "Sloth", "Leopard", "Tiger"}, textColumn(out, 0))
}

func TestExecutePagination(t *testing.T) {
	require := require.New(t)

	out := executeQuery(t, "limit 1 offset 1", animalTable(t))
	require.Equal(3, out.NumColumns())
	require.Equal(1, out.NumRows())
	require.Equal("Sloth", out.Cell(0, 0).Value.Text())
	require.Equal(float64(300), out.Cell(0, 1).Value.Number())
	require.True(out.Cell(0, 2).Value.Bool())
}

func TestExecuteOffsetPastEnd(t *testing.T) {
	require := require.New(t)

	out := executeQuery(t, "offset 10", animalTable(t))
	require.Equal(0, out.NumRows())
	require.Equal(3, out.NumColumns())
}

func TestExecuteSkipping(t *testing.T) {
	require := require.New(t)

	out := executeQuery(t, "select name skipping 2", animalTable(t))
	require.Equal([]string{"Aye-aye", "Leopard"}, textColumn(out, 0))
}

func TestExecuteLabelAndFormat(t *testing.T) {
	require := require.New(t)

	tq := `select population ` +
		`label population 'Population size (thousands)' ` +
		`format population "'$'#'k'"`
	out := executeQuery(t, tq, animalTable(t))

	require.Equal("Population size (thousands)", out.Column(0).Label)
	require.Equal("'$'#'k'", out.Column(0).Pattern)
	require.Equal("$100k", out.Cell(0, 0).Formatted)
	require.Equal(float64(100), out.Cell(0, 0).Value.Number())
}

func TestExecuteBadFormatPattern(t *testing.T) {
	require := require.New(t)

	out := executeQuery(t, `select population format population "0#"`, animalTable(t))
	require.Len(out.Warnings(), 1)
	require.Equal(viz.ReasonIllegalFormattingPatterns, out.Warnings()[0].Reason)
	require.Equal("", out.Cell(0, 0).Formatted)
}

func TestExecuteScalarColumns(t *testing.T) {
	require := require.New(t)

	out := executeQuery(t, "select name, population / 2", animalTable(t))
	require.Equal([]string{"name", "quotient_population_2"}, columnIDs(out))
	require.Equal("(population / 2)", out.Column(1).Label)
	require.Equal(float64(50), out.Cell(0, 1).Value.Number())
	require.Equal(float64(150), out.Cell(1, 1).Value.Number())
}

func TestExecuteScalarOverAggregation(t *testing.T) {
	require := require.New(t)

	out := executeQuery(t, "select vegetarian, sum(population) / 2 group by vegetarian", animalTable(t))
	require.Equal([]string{"vegetarian", "quotient_sum-population_2"}, columnIDs(out))
	require.Equal(2, out.NumRows())
	require.Equal(float64(65), out.Cell(0, 1).Value.Number())
	require.Equal(float64(200), out.Cell(1, 1).Value.Number())
}

func TestExecuteGroupByScalar(t *testing.T) {
	require := require.New(t)

	table, err := viz.NewTable(
		viz.NewColumnDescription("when", viz.TypeDate),
		viz.NewColumnDescription("score", viz.TypeNumber),
	)
	require.NoError(err)
	require.NoError(table.AddRowValues(viz.NewDateOf(2009, time.February, 5), viz.NewNumber(1)))
	require.NoError(table.AddRowValues(viz.NewDateOf(2009, time.June, 1), viz.NewNumber(5)))
	require.NoError(table.AddRowValues(viz.NewDateOf(2010, time.January, 1), viz.NewNumber(3)))

	out := executeQuery(t, "select year(when), max(score) group by year(when)", table)
	require.Equal([]string{"year_when", "max-score"}, columnIDs(out))
	require.Equal("year(when)", out.Column(0).Label)
	require.Equal(2, out.NumRows())
	require.Equal(float64(2009), out.Cell(0, 0).Value.Number())
	require.Equal(float64(5), out.Cell(0, 1).Value.Number())
	require.Equal(float64(2010), out.Cell(1, 0).Value.Number())
	require.Equal(float64(3), out.Cell(1, 1).Value.Number())
}

func TestExecuteGroupByEmptyInput(t *testing.T) {
	require := require.New(t)

	out := executeQuery(t, "select vegetarian where population > 1000 group by vegetarian", animalTable(t))
	require.Equal([]string{"vegetarian"}, columnIDs(out))
	require.Equal(0, out.NumRows())
}

func TestExecuteAggregationNulls(t *testing.T) {
	require := require.New(t)

	table, err := viz.NewTable(
		viz.NewColumnDescription("a", viz.TypeText),
		viz.NewColumnDescription("b", viz.TypeNumber),
	)
	require.NoError(err)
	require.NoError(table.AddRowValues(viz.NewText("x"), viz.NewNumber(1)))
	require.NoError(table.AddRowValues(viz.NewText("x"), viz.NewNull(viz.TypeNumber)))
	require.NoError(table.AddRowValues(viz.NewText("y"), viz.NewNull(viz.TypeNumber)))

	out := executeQuery(t, "select a, sum(b), count(b), avg(b) group by a", table)
	require.Equal(2, out.NumRows())

	// Group x has one non-null value.
	require.Equal(float64(1), out.Cell(0, 1).Value.Number())
	require.Equal(float64(1), out.Cell(0, 2).Value.Number())
	require.Equal(float64(1), out.Cell(0, 3).Value.Number())

	// Group y exists but holds only nulls: null sum and avg, zero count.
	require.True(out.Cell(1, 1).Value.IsNull())
	require.Equal(float64(0), out.Cell(1, 2).Value.Number())
	require.True(out.Cell(1, 3).Value.IsNull())
}

func TestExecuteNoValues(t *testing.T) {
	require := require.New(t)

	out := executeQuery(t, "select name options no_values", animalTable(t))
	require.Equal(4, out.NumRows())
	for i, want := range []string{"Aye-aye", "Sloth", "Leopard", "Tiger"} {
		require.True(out.Cell(i, 0).Value.IsNull())
		require.Equal(want, out.Cell(i, 0).Formatted)
	}
}

func TestExecuteNoFormat(t *testing.T) {
	require := require.New(t)

	tq := `select population format population "'$'#'k'" options no_format`
	out := executeQuery(t, tq, animalTable(t))
	for i := 0; i < out.NumRows(); i++ {
		require.Equal("", out.Cell(i, 0).Formatted)
	}
	require.Equal("", out.Column(0).Pattern)
	require.Equal(float64(100), out.Cell(0, 0).Value.Number())
}

func TestExecuteCaseInsensitiveColumns(t *testing.T) {
	require := require.New(t)

	out := executeQuery(t, "select NAME where POPULATION > 100", animalTable(t))
	require.Equal(1, out.NumRows())
	require.Equal("Sloth", out.Cell(0, 0).Value.Text())
}

func TestExecutePreservesProperties(t *testing.T) {
	require := require.New(t)

	in := animalTable(t)
	in.SetProperty("source", "zoo census")
	in.Row(1).Properties = map[string]string{"starred": "yes"}
	in.Cell(1, 0).SetProperty("note", "slow")

	out := executeQuery(t, "select name where population > 100", in)
	require.Equal("zoo census", out.Property("source"))
	require.Equal("yes", out.Row(0).Properties["starred"])
	require.Equal("slow", out.Cell(0, 0).Property("note"))
}

func TestExecuteCancelledContext(t *testing.T) {
	require := require.New(t)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	q, err := parse.Parse(viz.NewEmptyContext(), "select name")
	require.NoError(err)

	_, err = ExecuteQuery(viz.NewContext(cancelled), q, animalTable(t))
	require.Error(err)
	require.Equal(context.Canceled, err)
}
