// Package analyzer validates parsed query trees. Structural rules depend
// only on the query shape and run first; schema rules check the query
// against the columns of a concrete table. The first failing rule stops the
// run, so error messages always describe the earliest problem.
package analyzer

import (
	"github.com/chartdata/go-datasource/viz"
	"github.com/chartdata/go-datasource/viz/query"
)

// Rule checks one structural property of the query tree.
type Rule struct {
	Name  string
	Apply func(ctx *viz.Context, q *query.Query) error
}

// SchemaRule checks the query tree against a table schema.
type SchemaRule struct {
	Name  string
	Apply func(ctx *viz.Context, q *query.Query, table *viz.Table) error
}

// StructuralRules to apply to every query, in order.
var StructuralRules = []Rule{
	{"check_row_bounds", checkRowBounds},
	{"check_single_appearance", checkSingleAppearance},
	{"check_where_aggregations", checkWhereAggregations},
	{"check_group_by", checkGroupBy},
	{"check_pivot", checkPivot},
	{"check_group_pivot_disjoint", checkGroupPivotDisjoint},
	{"check_selection_aggregation", checkSelectionAggregation},
	{"check_order_by", checkOrderBy},
	{"check_label_format_references", checkLabelFormatReferences},
}

// SchemaRules to apply against the provider table, in order.
var SchemaRules = []SchemaRule{
	{"resolve_columns", resolveColumns},
	{"check_aggregation_types", checkAggregationTypes},
	{"check_scalar_signatures", checkScalarSignatures},
}

// Validate runs structural validation followed by schema validation.
func Validate(ctx *viz.Context, q *query.Query, table *viz.Table) error {
	if err := ValidateStructure(ctx, q); err != nil {
		return err
	}
	return ValidateSchema(ctx, q, table)
}

// ValidateStructure runs the table-independent rules.
func ValidateStructure(ctx *viz.Context, q *query.Query) error {
	span, ctx := ctx.Span("analyzer.validate_structure")
	defer span.Finish()

	for _, r := range StructuralRules {
		if err := r.Apply(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

// ValidateSchema runs the schema rules against table.
func ValidateSchema(ctx *viz.Context, q *query.Query, table *viz.Table) error {
	span, ctx := ctx.Span("analyzer.validate_schema")
	defer span.Finish()

	for _, r := range SchemaRules {
		if err := r.Apply(ctx, q, table); err != nil {
			return err
		}
	}
	return nil
}
