package frame

import "fmt"

// Table stores rows column-wise under one schema.
type Table struct {
	schema  Schema
	columns [][]Value
}

// Row is a read-only view of one table row.
type Row struct {
	t *Table
	i int
}

// NewTable returns an empty table with the given schema.
func NewTable(schema Schema) (*Table, error) {
	if err := schema.Validate(); err != nil {
		return nil, err
	}
	return &Table{
		schema:  append(Schema(nil), schema...),
		columns: make([][]Value, len(schema)),
	}, nil
}

// AppendRow adds one row. Used while building a table; a table handed to a
// query is not appended to again.
func (t *Table) AppendRow(row []Value) error {
	if len(row) != len(t.schema) {
		return fmt.Errorf("%w: got %d cells, want %d", ErrRowWidth, len(row), len(t.schema))
	}
	for i, v := range row {
		t.columns[i] = append(t.columns[i], v)
	}
	return nil
}

func (t *Table) Schema() Schema {
	return append(Schema(nil), t.schema...)
}

func (t *Table) Len() int {
	if len(t.columns) == 0 {
		return 0
	}
	return len(t.columns[0])
}

// Column returns a copy of the named column's cells.
func (t *Table) Column(name string) ([]Value, error) {
	i, _, err := t.schema.field(name)
	if err != nil {
		return nil, err
	}
	return append([]Value(nil), t.columns[i]...), nil
}

func (t *Table) Row(i int) Row {
	return Row{t: t, i: i}
}

// VStack returns a new table holding t's rows followed by o's rows.
func (t *Table) VStack(o *Table) (*Table, error) {
	if !t.schema.Equal(o.schema) {
		return nil, fmt.Errorf("%w: %v vs %v", ErrSchemaMismatch, t.schema.Names(), o.schema.Names())
	}
	out := &Table{schema: t.Schema(), columns: make([][]Value, len(t.schema))}
	for i := range t.columns {
		col := make([]Value, 0, len(t.columns[i])+len(o.columns[i]))
		col = append(col, t.columns[i]...)
		out.columns[i] = append(col, o.columns[i]...)
	}
	return out, nil
}

// DropNulls returns a new table without the rows that hold a null in any
// column, and the number of rows removed.
func (t *Table) DropNulls() (*Table, int) {
	keep := make([]int, 0, t.Len())
	for r := 0; r < t.Len(); r++ {
		complete := true
		for c := range t.columns {
			if !t.columns[c][r].Valid {
				complete = false
				break
			}
		}
		if complete {
			keep = append(keep, r)
		}
	}
	return t.take(keep), t.Len() - len(keep)
}

// Lazy starts a deferred query over t.
func (t *Table) Lazy() *LazyFrame {
	return &LazyFrame{source: t}
}

// take builds a table from the given row indexes, in that order.
func (t *Table) take(rows []int) *Table {
	out := &Table{schema: t.Schema(), columns: make([][]Value, len(t.schema))}
	for c := range t.columns {
		col := make([]Value, len(rows))
		for i, r := range rows {
			col[i] = t.columns[c][r]
		}
		out.columns[c] = col
	}
	return out
}

// Value returns the named cell, or Null when the column does not exist.
func (r Row) Value(name string) Value {
	i := r.t.schema.Index(name)
	if i < 0 {
		return Null
	}
	return r.t.columns[i][r.i]
}

func (r Row) Text(name string) string {
	return r.Value(name).Str
}

func (r Row) Int(name string) int64 {
	return r.Value(name).Int
}

// Values returns the row's cells in schema order.
func (r Row) Values() []Value {
	out := make([]Value, len(r.t.columns))
	for c := range r.t.columns {
		out[c] = r.t.columns[c][r.i]
	}
	return out
}
