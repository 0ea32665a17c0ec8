package analyzer

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

func animalTable(t *testing.T) *viz.Table {
	t.Helper()
	table, err := viz.NewTable(
		viz.NewColumnDescription("name", viz.TypeText),
		viz.NewColumnDescription("population", viz.TypeNumber),
		viz.NewColumnDescription("vegetarian", viz.TypeBoolean),
	)
	require.NoError(t, err)
	return table
}

func TestStructuralRules(t *testing.T) {
	cases := []struct {
		name    string
		tq      string
		wantMsg string
	}{
		{
			"aggregation in where",
			"select min(a) where min(a) > 1",
			"cannot appear in WHERE",
		},
		{
			"aggregation in group by",
			"select min(a) group by min(b)",
			"cannot appear in GROUP BY",
		},
		{
			"aggregation in pivot",
			"select min(a) pivot max(b)",
			"cannot appear in PIVOT",
		},
		{
			"group by without aggregation",
			"select a group by a",
			"Cannot use GROUP BY when no aggregations",
		},
		{
			"pivot without aggregation",
			"select a pivot b",
			"Cannot use PIVOT when no aggregations",
		},
		{
			"group by and pivot overlap",
			"select min(a) group by b pivot b",
			"both in GROUP BY and in PIVOT",
		},
		{
			"column selected with and without aggregation",
			"select a, min(a)",
			"with and without aggregation",
		},
		{
			"selected column not grouped",
			"select a, min(b)",
			"should be added to GROUP BY",
		},
		{
			"duplicate selection",
			"select a, a",
			"more than once in SELECT",
		},
		{
			"duplicate group by",
			"select min(b) group by a, a",
			"more than once in GROUP BY",
		},
		{
			"aggregation in order by under pivot",
			"select min(a) pivot b order by min(a)",
			"ORDER BY when PIVOT is used",
		},
		{
			"order by aggregates a plain selected column",
			"select a order by min(a)",
			"selected without aggregation",
		},
		{
			"order by aggregation without selected aggregations",
			"select b order by min(a)",
			"no aggregation columns are defined in SELECT",
		},
		{
			"order by aggregation missing from selection",
			"select min(a) order by min(b)",
			"found in ORDER BY but was not found in SELECT",
		},
		{
			"order by column missing from aggregated selection",
			"select a, min(b) group by a order by c",
			"must be in SELECT as well",
		},
		{
			"label references unselected column",
			`select a label b "B"`,
			"referenced in LABEL",
		},
		{
			"format references unselected column",
			`select a format b "#"`,
			"referenced in FORMAT",
		},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			err := ValidateStructure(viz.NewEmptyContext(), mustParse(t, tt.tq))
			require.Error(err)
			verr := viz.AsError(err)
			require.Equal(viz.ReasonInvalidQuery, verr.Reason)
			require.Contains(verr.Detailed, tt.wantMsg)
		})
	}
}

func TestStructurallyValidQueries(t *testing.T) {
	valid := []string{
		"",
		"select a, b where c > 1 order by b desc",
		"select a, min(b) group by a",
		"select a, min(b) group by a pivot c order by a",
		"select min(b) pivot c",
		`select min(a) label min(a) "Top" format min(a) "#"`,
		`label b "B"`,
		"select year(a), max(b) group by year(a)",
		"select 5, min(b)",
	}
	for _, tq := range valid {
		t.Run(tq, func(t *testing.T) {
			require.NoError(t, ValidateStructure(viz.NewEmptyContext(), mustParse(t, tq)))
		})
	}
}

func TestRowBoundsRule(t *testing.T) {
	require := require.New(t)
	ctx := viz.NewEmptyContext()

	q := query.NewQuery()
	q.RowSkipping = -1
	err := ValidateStructure(ctx, q)
	require.Error(err)
	require.Contains(viz.AsError(err).Detailed, "row skipping: -1")

	q = query.NewQuery()
	q.RowLimit = -2
	err = ValidateStructure(ctx, q)
	require.Error(err)
	require.Contains(viz.AsError(err).Detailed, "row limit: -2")

	q = query.NewQuery()
	q.RowOffset = -3
	err = ValidateStructure(ctx, q)
	require.Error(err)
	require.Contains(viz.AsError(err).Detailed, "row offset: -3")
}

func TestResolveColumns(t *testing.T) {
	require := require.New(t)
	ctx := viz.NewEmptyContext()
	table := animalTable(t)

	err := ValidateSchema(ctx, mustParse(t, "select habitat"), table)
	require.Error(err)
	require.Contains(viz.AsError(err).Detailed, "Column [habitat] does not exist in table")

	err = ValidateSchema(ctx, mustParse(t, "select nmae"), table)
	require.Error(err)
	require.Contains(viz.AsError(err).Detailed, "maybe you mean name?")

	// Lookup is case-insensitive.
	require.NoError(ValidateSchema(ctx, mustParse(t, "select NAME, Population"), table))

	// Columns inside filters and aggregations are resolved too.
	err = ValidateSchema(ctx, mustParse(t, "where missing > 1"), table)
	require.Error(err)
	err = ValidateSchema(ctx, mustParse(t, "select min(missing)"), table)
	require.Error(err)
}

func TestAggregationTypeRules(t *testing.T) {
	require := require.New(t)
	ctx := viz.NewEmptyContext()
	table := animalTable(t)

	err := ValidateSchema(ctx, mustParse(t, "select sum(name)"), table)
	require.Error(err)
	require.Contains(viz.AsError(err).Detailed, "only on numeric columns")

	err = ValidateSchema(ctx, mustParse(t, "select min(vegetarian)"), table)
	require.Error(err)
	require.Contains(viz.AsError(err).Detailed, "Aggregation type min cannot be applied to column [vegetarian]")

	require.NoError(ValidateSchema(ctx, mustParse(t, "select avg(population)"), table))
	require.NoError(ValidateSchema(ctx, mustParse(t, "select min(name)"), table))
	require.NoError(ValidateSchema(ctx, mustParse(t, "select count(vegetarian)"), table))
}

func TestScalarSignatureRule(t *testing.T) {
	require := require.New(t)
	ctx := viz.NewEmptyContext()
	table := animalTable(t)

	err := ValidateSchema(ctx, mustParse(t, "select year(name)"), table)
	require.Error(err)
	require.Contains(viz.AsError(err).Detailed, "Invalid arguments to function year")

	require.NoError(ValidateSchema(ctx, mustParse(t, "select upper(name), population + 1"), table))
}

func TestScalarOverAggregationWithPivot(t *testing.T) {
	require := require.New(t)
	ctx := viz.NewEmptyContext()

	err := ValidateStructure(ctx, mustParse(t, "select sum(population) / 2 pivot vegetarian"))
	require.Error(err)
	require.Equal(viz.ReasonUnsupportedQueryOperation, viz.AsError(err).Reason)

	require.NoError(ValidateStructure(ctx,
		mustParse(t, "select vegetarian, sum(population) / 2 group by vegetarian")))
}

func TestFullValidation(t *testing.T) {
	require := require.New(t)
	ctx := viz.NewEmptyContext()
	table := animalTable(t)

	q := mustParse(t, "select vegetarian, sum(population) group by vegetarian")
	require.NoError(Validate(ctx, q, table))

	err := Validate(ctx, mustParse(t, "select name, sum(population)"), table)
	require.Error(err)
	require.Equal(viz.ReasonInvalidQuery, viz.AsError(err).Reason)
}
