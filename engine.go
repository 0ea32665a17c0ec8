// Package datasource ties the query pipeline together: it parses a query
// string, validates the tree, splits it according to the capabilities of a
// data provider, fetches the provider's table and completes the query in
// process. The result table is ready for the render package.
package datasource

import (
	"github.com/chartdata/go-datasource/viz"
	"github.com/chartdata/go-datasource/viz/analyzer"
	"github.com/chartdata/go-datasource/viz/engine"
	"github.com/chartdata/go-datasource/viz/query"
	"github.com/chartdata/go-datasource/viz/query/parse"
	"github.com/chartdata/go-datasource/viz/splitter"
)

// DataProvider supplies tabular data. Capabilities declares how much of a
// query the provider executes natively; Generate receives exactly that
// much, never more. Generate is called on the request worker, may block on
// I/O and must honor cancellation of ctx.
type DataProvider interface {
	Capabilities() viz.Capabilities
	Generate(ctx *viz.Context, q *query.Query) (*viz.Table, error)
}

// Engine executes query strings against data providers.
type Engine struct{}

// New creates a new Engine.
func New() *Engine {
	return &Engine{}
}

// Execute parses tq and runs it against the provider. An empty tq is the
// empty query and returns the provider's base table.
func (e *Engine) Execute(ctx *viz.Context, tq string, provider DataProvider) (*viz.Table, error) {
	q, err := parse.Parse(ctx, tq)
	if err != nil {
		return nil, err
	}
	return e.ExecuteQuery(ctx, q, provider)
}

// ExecuteQuery runs a parsed query against the provider: structural
// validation, split per the provider capabilities, provider fetch, schema
// validation of the completion against the fetched table, then in-process
// completion.
func (e *Engine) ExecuteQuery(ctx *viz.Context, q *query.Query, provider DataProvider) (*viz.Table, error) {
	if err := analyzer.ValidateStructure(ctx, q); err != nil {
		return nil, err
	}

	split, err := splitter.Split(q, provider.Capabilities())
	if err != nil {
		return nil, err
	}

	span, providerCtx := ctx.Span("provider.generate")
	table, err := provider.Generate(providerCtx, split.Provider)
	span.Finish()
	if err != nil {
		return nil, err
	}

	if err := analyzer.ValidateSchema(ctx, split.Completion, table); err != nil {
		return nil, err
	}
	return engine.ExecuteQuery(ctx, split.Completion, table)
}
