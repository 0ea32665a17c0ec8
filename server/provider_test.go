package server

import (
	"time"

	"github.com/chartdata/go-datasource/viz"
	"github.com/chartdata/go-datasource/viz/query"
)

// slowProvider blocks until the request context is cancelled.
type slowProvider struct{}

func (slowProvider) Capabilities() viz.Capabilities { return viz.CapNone }

func (slowProvider) Generate(ctx *viz.Context, q *query.Query) (*viz.Table, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(10 * time.Second):
		return viz.NewTable()
	}
}

// panicProvider panics on every fetch.
type panicProvider struct{}

func (panicProvider) Capabilities() viz.Capabilities { return viz.CapNone }

func (panicProvider) Generate(ctx *viz.Context, q *query.Query) (*viz.Table, error) {
	panic("boom")
}
