// Package mem provides an in-memory data provider over a single table. Its
// capability level is configurable; above NONE the provider runs its part
// of the query through the in-process engine, which makes it the reference
// provider for the splitter equivalence tests and a convenient backend for
// small static datasets.
package mem

import (
	"github.com/chartdata/go-datasource/viz"
	"github.com/chartdata/go-datasource/viz/analyzer"
	"github.com/chartdata/go-datasource/viz/engine"
	"github.com/chartdata/go-datasource/viz/query"
)

// Provider serves one table at a fixed capability level.
type Provider struct {
	table *viz.Table
	caps  viz.Capabilities
}

// NewProvider returns a provider over table declaring the given
// capabilities. The table must not be modified afterwards.
func NewProvider(table *viz.Table, caps viz.Capabilities) *Provider {
	return &Provider{table: table, caps: caps}
}

// Capabilities implements datasource.DataProvider.
func (p *Provider) Capabilities() viz.Capabilities { return p.caps }

// Generate runs the provider query over the base table. The empty query
// returns a copy of the base table unchanged.
func (p *Provider) Generate(ctx *viz.Context, q *query.Query) (*viz.Table, error) {
	if q == nil || q.IsEmpty() {
		return p.table.Clone(), nil
	}
	if err := analyzer.ValidateSchema(ctx, q, p.table); err != nil {
		return nil, err
	}
	return engine.ExecuteQuery(ctx, q, p.table)
}
