// Package aggregation implements the machinery of the grouping stage: the
// per-operator accumulators and the key tree that collects one cell of
// accumulators per distinct (group key, pivot key) pair.
package aggregation

import (
	"github.com/chartdata/go-datasource/viz"
	"github.com/chartdata/go-datasource/viz/query"
)

// Accumulator folds the values one aggregated column takes within one
// group into a single result. Null values never contribute: min, max, sum
// and avg skip them and count does not count them.
type Accumulator interface {
	Add(v viz.Value) error
	Result() viz.Value
}

// NewAccumulator returns a fresh accumulator for op. resultType is the
// type of the aggregated column in the output, used for the null result
// of an operator that saw no values.
func NewAccumulator(op query.AggregationType, resultType viz.ValueType) Accumulator {
	switch op {
	case query.AggMin:
		return &extremum{typ: resultType}
	case query.AggMax:
		return &extremum{typ: resultType, max: true}
	case query.AggSum:
		return &sum{}
	case query.AggAvg:
		return &avg{}
	default:
		return &count{}
	}
}

// extremum tracks the smallest or largest non-null value seen.
type extremum struct {
	typ  viz.ValueType
	best viz.Value
	seen bool
	max  bool
}

func (a *extremum) Add(v viz.Value) error {
	if v.IsNull() {
		return nil
	}
	if !a.seen {
		a.best, a.seen = v, true
		return nil
	}
	c, err := v.Compare(a.best)
	if err != nil {
		return err
	}
	if (a.max && c > 0) || (!a.max && c < 0) {
		a.best = v
	}
	return nil
}

func (a *extremum) Result() viz.Value {
	if !a.seen {
		return viz.NewNull(a.typ)
	}
	return a.best
}

type sum struct {
	total float64
	seen  bool
}

func (a *sum) Add(v viz.Value) error {
	if v.IsNull() {
		return nil
	}
	a.total += v.Number()
	a.seen = true
	return nil
}

func (a *sum) Result() viz.Value {
	if !a.seen {
		return viz.NewNull(viz.TypeNumber)
	}
	return viz.NewNumber(a.total)
}

type avg struct {
	total float64
	n     int
}

func (a *avg) Add(v viz.Value) error {
	if v.IsNull() {
		return nil
	}
	a.total += v.Number()
	a.n++
	return nil
}

func (a *avg) Result() viz.Value {
	if a.n == 0 {
		return viz.NewNull(viz.TypeNumber)
	}
	return viz.NewNumber(a.total / float64(a.n))
}

// count counts non-null values. A group that exists but holds only nulls
// counts zero; it never yields a null count.
type count struct {
	n int
}

func (a *count) Add(v viz.Value) error {
	if !v.IsNull() {
		a.n++
	}
	return nil
}

func (a *count) Result() viz.Value {
	return viz.NewNumber(float64(a.n))
}
