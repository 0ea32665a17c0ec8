package aggregation

import (
	"encoding/binary"
	"sort"

	"github.com/cespare/xxhash"

	"github.com/chartdata/go-datasource/viz"
	"github.com/chartdata/go-datasource/viz/query"
)

// CompareFunc orders two values. The grouping stage passes the table
// comparison so text keys follow the table collation.
type CompareFunc func(a, b viz.Value) (int, error)

// Tree holds one cell of accumulators per distinct (group key, pivot key)
// pair seen in the input. Keys are value tuples; cells are reached through
// a hash map with chaining on the full tuple comparison.
type Tree struct {
	ops    []query.AggregationType
	types  []viz.ValueType
	cmp    CompareFunc
	cells  map[uint64][]*cell
	groups keySet
	pivots keySet
}

type cell struct {
	group []viz.Value
	pivot []viz.Value
	accs  []Accumulator
}

// NewTree returns an empty tree over the given aggregation operators.
// resultTypes holds the output type of each operator, parallel to ops.
func NewTree(ops []query.AggregationType, resultTypes []viz.ValueType, cmp CompareFunc) *Tree {
	return &Tree{
		ops:   ops,
		types: resultTypes,
		cmp:   cmp,
		cells: map[uint64][]*cell{},
	}
}

// Add folds one input row into the tree: values holds the evaluated
// aggregated columns, parallel to the operators.
func (t *Tree) Add(group, pivot []viz.Value, values []viz.Value) error {
	c := t.cellFor(group, pivot)
	for i, v := range values {
		if err := c.accs[i].Add(v); err != nil {
			return err
		}
	}
	t.groups.add(group)
	t.pivots.add(pivot)
	return nil
}

func (t *Tree) cellFor(group, pivot []viz.Value) *cell {
	h := combineHashes(hashTuple(group), hashTuple(pivot))
	for _, c := range t.cells[h] {
		if tupleEquals(c.group, group) && tupleEquals(c.pivot, pivot) {
			return c
		}
	}
	c := &cell{group: group, pivot: pivot, accs: make([]Accumulator, len(t.ops))}
	for i, op := range t.ops {
		c.accs[i] = NewAccumulator(op, t.types[i])
	}
	t.cells[h] = append(t.cells[h], c)
	return c
}

// Value returns the result of the i-th aggregation for the given keys. A
// (group, pivot) pair never seen in the input yields a null of the
// aggregation result type.
func (t *Tree) Value(group, pivot []viz.Value, i int) viz.Value {
	h := combineHashes(hashTuple(group), hashTuple(pivot))
	for _, c := range t.cells[h] {
		if tupleEquals(c.group, group) && tupleEquals(c.pivot, pivot) {
			return c.accs[i].Result()
		}
	}
	return viz.NewNull(t.types[i])
}

// GroupKeys returns the distinct group key tuples in ascending order.
// Nulls order before any non-null value.
func (t *Tree) GroupKeys() ([][]viz.Value, error) {
	return t.sortedKeys(&t.groups)
}

// PivotKeys returns the distinct pivot key tuples in ascending order.
func (t *Tree) PivotKeys() ([][]viz.Value, error) {
	return t.sortedKeys(&t.pivots)
}

func (t *Tree) sortedKeys(s *keySet) ([][]viz.Value, error) {
	keys := append([][]viz.Value(nil), s.keys...)
	var sortErr error
	sort.Slice(keys, func(i, j int) bool {
		c, err := t.compareTuples(keys[i], keys[j])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return c < 0
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return keys, nil
}

func (t *Tree) compareTuples(a, b []viz.Value) (int, error) {
	for i := range a {
		c, err := t.cmp(a[i], b[i])
		if err != nil || c != 0 {
			return c, err
		}
	}
	return 0, nil
}

// keySet collects distinct tuples in first-seen order.
type keySet struct {
	seen map[uint64][][]viz.Value
	keys [][]viz.Value
}

func (s *keySet) add(key []viz.Value) {
	if s.seen == nil {
		s.seen = map[uint64][][]viz.Value{}
	}
	h := hashTuple(key)
	for _, k := range s.seen[h] {
		if tupleEquals(k, key) {
			return
		}
	}
	s.seen[h] = append(s.seen[h], key)
	s.keys = append(s.keys, key)
}

func hashTuple(key []viz.Value) uint64 {
	buf := make([]byte, 8*len(key))
	for i, v := range key {
		binary.LittleEndian.PutUint64(buf[8*i:], v.Hash())
	}
	return xxhash.Sum64(buf)
}

func combineHashes(a, b uint64) uint64 {
	var buf [16]byte
	binary.LittleEndian.PutUint64(buf[:8], a)
	binary.LittleEndian.PutUint64(buf[8:], b)
	return xxhash.Sum64(buf[:])
}

func tupleEquals(a, b []viz.Value) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equals(b[i]) {
			return false
		}
	}
	return true
}
