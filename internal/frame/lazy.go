package frame

import (
	"fmt"
	"sort"
)

// step is one deferred plan stage.
type step struct {
	op  string
	run func(*Table) (*Table, error)
}

// LazyFrame is a query plan over a source table. Every method returns a new
// LazyFrame; nothing runs until Collect.
type LazyFrame struct {
	source *Table
	plan   []step
}

func (lf *LazyFrame) then(op string, run func(*Table) (*Table, error)) *LazyFrame {
	plan := make([]step, len(lf.plan), len(lf.plan)+1)
	copy(plan, lf.plan)
	return &LazyFrame{source: lf.source, plan: append(plan, step{op: op, run: run})}
}

// Filter keeps the rows for which keep returns true.
func (lf *LazyFrame) Filter(keep func(Row) bool) *LazyFrame {
	return lf.then("filter", func(t *Table) (*Table, error) {
		rows := make([]int, 0, t.Len())
		for i := 0; i < t.Len(); i++ {
			if keep(t.Row(i)) {
				rows = append(rows, i)
			}
		}
		return t.take(rows), nil
	})
}

// Select projects the named columns, in the given order.
func (lf *LazyFrame) Select(names ...string) *LazyFrame {
	return lf.then("select", func(t *Table) (*Table, error) {
		schema := make(Schema, len(names))
		cols := make([][]Value, len(names))
		for i, name := range names {
			idx, f, err := t.schema.field(name)
			if err != nil {
				return nil, err
			}
			schema[i] = f
			cols[i] = t.columns[idx]
		}
		if err := schema.Validate(); err != nil {
			return nil, err
		}
		return &Table{schema: schema, columns: cols}, nil
	})
}

// Sort orders rows ascending by the given keys, the first key dominant.
// The sort is stable, so Sort("c").Sort("b").Sort("a") yields the same
// order as Sort("a", "b", "c").
func (lf *LazyFrame) Sort(keys ...string) *LazyFrame {
	return lf.then("sort", func(t *Table) (*Table, error) {
		idx := make([]int, len(keys))
		kinds := make([]Kind, len(keys))
		for i, k := range keys {
			c, f, err := t.schema.field(k)
			if err != nil {
				return nil, err
			}
			idx[i], kinds[i] = c, f.Kind
		}
		rows := make([]int, t.Len())
		for i := range rows {
			rows[i] = i
		}
		sort.SliceStable(rows, func(a, b int) bool {
			for i, c := range idx {
				if d := compare(kinds[i], t.columns[c][rows[a]], t.columns[c][rows[b]]); d != 0 {
					return d < 0
				}
			}
			return false
		})
		return t.take(rows), nil
	})
}

// Collect runs the plan and materializes the result.
func (lf *LazyFrame) Collect() (*Table, error) {
	t := lf.source
	if t == nil {
		return nil, &QueryError{Op: "collect", Err: fmt.Errorf("%w: no source table", ErrUnknownColumn)}
	}
	for _, s := range lf.plan {
		next, err := s.run(t)
		if err != nil {
			return nil, &QueryError{Op: s.op, Err: err}
		}
		t = next
	}
	return t, nil
}
