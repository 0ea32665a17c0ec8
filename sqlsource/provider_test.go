package sqlsource

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	datasource "github.com/chartdata/go-datasource"
	"github.com/chartdata/go-datasource/mem"
	"github.com/chartdata/go-datasource/viz"
)

func peopleDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	_, err = db.Exec(`CREATE TABLE people (name TEXT, dept TEXT)`)
	require.NoError(t, err)
	_, err = db.Exec(`INSERT INTO people VALUES
		('Alice', 'eng'), ('Bob', NULL), ('Carol', 'ops'), ('engineer', 'eng')`)
	require.NoError(t, err)
	return db
}

func peopleTable(t *testing.T) *viz.Table {
	t.Helper()
	table, err := viz.NewTable(
		viz.NewColumnDescription("name", viz.TypeText),
		viz.NewColumnDescription("dept", viz.TypeText),
	)
	require.NoError(t, err)
	require.NoError(t, table.AddRowValues(viz.NewText("Alice"), viz.NewText("eng")))
	require.NoError(t, table.AddRowValues(viz.NewText("Bob"), viz.NewNull(viz.TypeText)))
	require.NoError(t, table.AddRowValues(viz.NewText("Carol"), viz.NewText("ops")))
	require.NoError(t, table.AddRowValues(viz.NewText("engineer"), viz.NewText("eng")))
	return table
}

// TestProviderMatchesEngine runs the same queries through the SQLite
// provider and an in-memory reference and requires identical results.
// The table holds a null cell, so negated and text-matching filters
// exercise the null handling of the generated SQL.
func TestProviderMatchesEngine(t *testing.T) {
	provider := NewProvider(peopleDB(t), "people", SQLite)
	reference := mem.NewProvider(peopleTable(t), viz.CapNone)
	e := datasource.New()

	for _, tq := range []string{
		`select name where not (dept = "eng") order by name`,
		`select name where not (dept = "eng" or name = "Carol") order by name`,
		`select name, dept where not (name starts with "A") order by name`,
		`select name where name contains dept order by name`,
		`select name where not (name contains dept) order by name`,
		`select name where dept is null order by name`,
	} {
		want, err := e.Execute(viz.NewEmptyContext(), tq, reference)
		require.NoError(t, err, tq)
		got, err := e.Execute(viz.NewEmptyContext(), tq, provider)
		require.NoError(t, err, tq)

		require.Equal(t, want.NumColumns(), got.NumColumns(), tq)
		require.Equal(t, want.NumRows(), got.NumRows(), tq)
		for r := 0; r < want.NumRows(); r++ {
			for c := 0; c < want.NumColumns(); c++ {
				require.True(t, want.Cell(r, c).Value.Equals(got.Cell(r, c).Value),
					"%s: row %d col %d: want %s, got %s",
					tq, r, c, want.Cell(r, c).Value, got.Cell(r, c).Value)
			}
		}
	}
}
