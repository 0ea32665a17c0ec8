package mem

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chartdata/go-datasource/viz"
	"github.com/chartdata/go-datasource/viz/query"
	"github.com/chartdata/go-datasource/viz/query/parse"
)

func sampleTable(t *testing.T) *viz.Table {
	t.Helper()
	table, err := viz.NewTable(
		viz.NewColumnDescription("name", viz.TypeText),
		viz.NewColumnDescription("population", viz.TypeNumber),
	)
	require.NoError(t, err)
	require.NoError(t, table.AddRowValues(viz.NewText("Aye-aye"), viz.NewNumber(100)))
	require.NoError(t, table.AddRowValues(viz.NewText("Sloth"), viz.NewNumber(300)))
	return table
}

func TestEmptyQueryReturnsCopy(t *testing.T) {
	require := require.New(t)

	base := sampleTable(t)
	p := NewProvider(base, viz.CapNone)
	out, err := p.Generate(viz.NewEmptyContext(), query.NewQuery())
	require.NoError(err)
	require.Equal(2, out.NumRows())

	// The copy is independent of the base table.
	out.Column(0).Label = "changed"
	require.Empty(base.Column(0).Label)
}

func TestGenerateRunsProviderQuery(t *testing.T) {
	require := require.New(t)

	p := NewProvider(sampleTable(t), viz.CapAll)
	q, err := parse.Parse(viz.NewEmptyContext(), "select name where population > 200")
	require.NoError(err)
	out, err := p.Generate(viz.NewEmptyContext(), q)
	require.NoError(err)
	require.Equal(1, out.NumColumns())
	require.Equal(1, out.NumRows())
	require.Equal("Sloth", out.Cell(0, 0).Value.Text())
}

func TestGenerateValidatesSchema(t *testing.T) {
	require := require.New(t)

	p := NewProvider(sampleTable(t), viz.CapAll)
	q, err := parse.Parse(viz.NewEmptyContext(), "select missing")
	require.NoError(err)
	_, err = p.Generate(viz.NewEmptyContext(), q)
	require.Error(err)
	require.Equal(viz.ReasonInvalidQuery, viz.AsError(err).Reason)
}
