// Package frame is a small in-memory columnar table with a deferred query
// plan.
//
// A Table is built once (by ingestion or by loading a snapshot) and is then
// only read. Queries are composed on a LazyFrame and run in a single pass
// by Collect, which returns a fresh Table.
package frame

import (
	"errors"
	"fmt"

	"beruang/internal/core"
)

// Kind is the semantic type of a column.
type Kind int

const (
	KindText Kind = iota
	KindDate
	// KindDecimal is a fixed-point decimal with two fractional digits,
	// stored as integer cents.
	KindDecimal
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindDate:
		return "date"
	case KindDecimal:
		return "decimal(10,2)"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

type (
	// Field is a named, typed column.
	Field struct {
		Name string
		Kind Kind
	}

	// Schema is the ordered list of a table's columns.
	Schema []Field

	// Value is a single cell. Date cells keep the day offset and decimal
	// cells the cent count in Int; text cells use Str.
	Value struct {
		Valid bool
		Int   int64
		Str   string
	}
)

var (
	ErrUnknownColumn   = errors.New("unknown column")
	ErrDuplicateColumn = errors.New("duplicate column")
	ErrKindMismatch    = errors.New("column kind mismatch")
	ErrSchemaMismatch  = errors.New("schema mismatch")
	ErrRowWidth        = errors.New("row width does not match schema")
	ErrInvalidDuration = errors.New("invalid duration")
)

// QueryError reports a malformed query plan step.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("frame %s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Null is the missing value.
var Null = Value{}

func TextValue(s string) Value {
	return Value{Valid: true, Str: s}
}

func DateValue(d core.Date) Value {
	return Value{Valid: true, Int: int64(d)}
}

func MoneyValue(m core.Money) Value {
	return Value{Valid: true, Int: m.Cents}
}

// Date returns v as a Date. Meaningful for KindDate cells only.
func (v Value) Date() core.Date {
	return core.Date(v.Int)
}

// Money returns v as Money. Meaningful for KindDecimal cells only.
func (v Value) Money() core.Money {
	return core.Money{Cents: v.Int}
}

// Format renders v for display as a cell of the given kind. Null renders
// as the empty string.
func (v Value) Format(k Kind) string {
	if !v.Valid {
		return ""
	}
	switch k {
	case KindDate:
		return v.Date().String()
	case KindDecimal:
		return core.FormatCents(v.Int)
	default:
		return v.Str
	}
}

// Index returns the position of the named column or -1.
func (s Schema) Index(name string) int {
	for i, f := range s {
		if f.Name == name {
			return i
		}
	}
	return -1
}

// Names returns column names in order.
func (s Schema) Names() []string {
	out := make([]string, len(s))
	for i, f := range s {
		out[i] = f.Name
	}
	return out
}

// Equal reports whether both schemas have the same columns in the same order.
func (s Schema) Equal(o Schema) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Validate rejects schemas with empty or repeated column names.
func (s Schema) Validate() error {
	seen := make(map[string]struct{}, len(s))
	for _, f := range s {
		if f.Name == "" {
			return fmt.Errorf("%w: empty name", ErrUnknownColumn)
		}
		if _, ok := seen[f.Name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateColumn, f.Name)
		}
		seen[f.Name] = struct{}{}
	}
	return nil
}

func (s Schema) field(name string) (int, Field, error) {
	i := s.Index(name)
	if i < 0 {
		return -1, Field{}, fmt.Errorf("%w: %q", ErrUnknownColumn, name)
	}
	return i, s[i], nil
}

// compare orders two cells of kind k. Nulls sort first.
func compare(k Kind, a, b Value) int {
	switch {
	case !a.Valid && !b.Valid:
		return 0
	case !a.Valid:
		return -1
	case !b.Valid:
		return 1
	}
	if k == KindText {
		switch {
		case a.Str < b.Str:
			return -1
		case a.Str > b.Str:
			return 1
		}
		return 0
	}
	switch {
	case a.Int < b.Int:
		return -1
	case a.Int > b.Int:
		return 1
	}
	return 0
}
