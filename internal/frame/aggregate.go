package frame

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type aggFunc int

const (
	aggSum aggFunc = iota
	aggMean
	aggMax
	aggMin
)

var aggNames = map[aggFunc]string{aggSum: "sum", aggMean: "mean", aggMax: "max", aggMin: "min"}

// Agg is an aggregation over a decimal column. Null cells are skipped; a
// group with no non-null cells aggregates to null.
type Agg struct {
	fn     aggFunc
	column string
	alias  string
}

func Sum(column string) Agg  { return Agg{fn: aggSum, column: column} }
func Mean(column string) Agg { return Agg{fn: aggMean, column: column} }
func Max(column string) Agg  { return Agg{fn: aggMax, column: column} }
func Min(column string) Agg  { return Agg{fn: aggMin, column: column} }

// Alias names the output column. Without one the input column name is reused.
func (a Agg) Alias(name string) Agg {
	a.alias = name
	return a
}

func (a Agg) name() string {
	if a.alias != "" {
		return a.alias
	}
	return a.column
}

func (a Agg) String() string {
	return fmt.Sprintf("%s(%s)", aggNames[a.fn], a.column)
}

// accumulator folds decimal cells exactly in integer cents.
type accumulator struct {
	n        int64
	sum      int64
	min, max int64
}

func (acc *accumulator) add(v Value) {
	if !v.Valid {
		return
	}
	if acc.n == 0 || v.Int < acc.min {
		acc.min = v.Int
	}
	if acc.n == 0 || v.Int > acc.max {
		acc.max = v.Int
	}
	acc.n++
	acc.sum += v.Int
}

func (acc *accumulator) result(fn aggFunc) Value {
	if acc.n == 0 {
		return Null
	}
	switch fn {
	case aggMean:
		// half away from zero at the cent
		mean := decimal.NewFromInt(acc.sum).DivRound(decimal.NewFromInt(acc.n), 0)
		return Value{Valid: true, Int: mean.IntPart()}
	case aggMax:
		return Value{Valid: true, Int: acc.max}
	case aggMin:
		return Value{Valid: true, Int: acc.min}
	default:
		return Value{Valid: true, Int: acc.sum}
	}
}

// GroupBy is a pending grouping, completed by Agg.
type GroupBy struct {
	lf      *LazyFrame
	keys    []string
	index   string
	dynamic *DynamicGroupOptions
}

// GroupBy groups rows by the exact values of keys. Groups appear in the
// order their first row appears.
func (lf *LazyFrame) GroupBy(keys ...string) *GroupBy {
	return &GroupBy{lf: lf, keys: keys}
}

// GroupByDynamic groups rows by keys and by the time windows of the date
// column index that contain them. The output holds the key columns, then
// index set to each window's start, then the aggregates.
func (lf *LazyFrame) GroupByDynamic(index string, opts DynamicGroupOptions, keys ...string) *GroupBy {
	return &GroupBy{lf: lf, keys: keys, index: index, dynamic: &opts}
}

type group struct {
	key    []Value
	window Value
	accs   []accumulator
}

// Agg completes the grouping with one output column per aggregation.
func (g *GroupBy) Agg(aggs ...Agg) *LazyFrame {
	op := "group_by"
	if g.dynamic != nil {
		op = "group_by_dynamic"
	}
	return g.lf.then(op, func(t *Table) (*Table, error) {
		return g.run(t, aggs)
	})
}

func (g *GroupBy) run(t *Table, aggs []Agg) (*Table, error) {
	var schema Schema
	keyIdx := make([]int, len(g.keys))
	for i, k := range g.keys {
		c, f, err := t.schema.field(k)
		if err != nil {
			return nil, err
		}
		keyIdx[i] = c
		schema = append(schema, f)
	}

	indexCol := -1
	if g.dynamic != nil {
		if err := g.dynamic.Validate(); err != nil {
			return nil, err
		}
		c, f, err := t.schema.field(g.index)
		if err != nil {
			return nil, err
		}
		if f.Kind != KindDate {
			return nil, fmt.Errorf("%w: index %q is %s, want %s", ErrKindMismatch, f.Name, f.Kind, KindDate)
		}
		indexCol = c
		schema = append(schema, f)
	}

	aggIdx := make([]int, len(aggs))
	for i, a := range aggs {
		c, f, err := t.schema.field(a.column)
		if err != nil {
			return nil, err
		}
		if f.Kind != KindDecimal {
			return nil, fmt.Errorf("%w: %s needs %s, %q is %s", ErrKindMismatch, a, KindDecimal, f.Name, f.Kind)
		}
		aggIdx[i] = c
		schema = append(schema, Field{Name: a.name(), Kind: KindDecimal})
	}
	if err := schema.Validate(); err != nil {
		return nil, err
	}

	groups := map[string]*group{}
	var order []*group
	for r := 0; r < t.Len(); r++ {
		key := make([]Value, len(keyIdx))
		for i, c := range keyIdx {
			key[i] = t.columns[c][r]
		}

		windows := []Value{Null}
		if indexCol >= 0 {
			at := t.columns[indexCol][r]
			if !at.Valid {
				continue
			}
			windows = windows[:0]
			for _, start := range g.dynamic.windowsContaining(at.Date()) {
				windows = append(windows, DateValue(start))
			}
		}

		for _, w := range windows {
			id := groupID(key, w)
			grp, ok := groups[id]
			if !ok {
				grp = &group{key: key, window: w, accs: make([]accumulator, len(aggs))}
				groups[id] = grp
				order = append(order, grp)
			}
			for i, c := range aggIdx {
				grp.accs[i].add(t.columns[c][r])
			}
		}
	}

	out := &Table{schema: schema, columns: make([][]Value, len(schema))}
	for _, grp := range order {
		row := append([]Value(nil), grp.key...)
		if indexCol >= 0 {
			row = append(row, grp.window)
		}
		for i, a := range aggs {
			row = append(row, grp.accs[i].result(a.fn))
		}
		if err := out.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func groupID(key []Value, window Value) string {
	var b strings.Builder
	for _, v := range append(key, window) {
		if !v.Valid {
			b.WriteString("\x00n")
			continue
		}
		fmt.Fprintf(&b, "\x00v%d:%d:%s", v.Int, len(v.Str), v.Str)
	}
	return b.String()
}
