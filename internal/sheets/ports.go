package sheets

import (
	"context"
	"errors"
	"math"
	"strconv"
	"time"
)

// Ports for inbound workbook adapters.
type (
	// WorkbookReader returns the cells of a named sheet, header row
	// included. Unknown sheet names fail with ErrMissingSheet.
	WorkbookReader interface {
		Rows(ctx context.Context, sheet string) ([][]Cell, error)
	}

	// Prefetcher is implemented by readers that can load several sheets at
	// once before they are asked for them one by one.
	Prefetcher interface {
		Prefetch(ctx context.Context, sheets []string) error
	}
)

// CellKind is the type a workbook reports for a cell.
type CellKind int

const (
	CellEmpty CellKind = iota
	CellString
	CellFloat
	CellInt
	CellBool
	// CellDateTime holds a spreadsheet serial date number in Number.
	CellDateTime
	// CellDuration holds a length of time, in days, in Number.
	CellDuration
	CellError
)

// Cell is one workbook cell.
type Cell struct {
	Kind   CellKind
	Number float64
	Text   string
	Bool   bool
}

var (
	ErrNoSheets       = errors.New("no sheets requested")
	ErrMissingSheet   = errors.New("sheet not found")
	ErrEmptyHeader    = errors.New("sheet has no header row")
	ErrBadHeader      = errors.New("invalid header row")
	ErrHeaderMismatch = errors.New("header does not match the first sheet")
	ErrUnreadable     = errors.New("workbook unreadable")
)

func StringCell(s string) Cell         { return Cell{Kind: CellString, Text: s} }
func FloatCell(f float64) Cell         { return Cell{Kind: CellFloat, Number: f} }
func IntCell(i int64) Cell             { return Cell{Kind: CellInt, Number: float64(i)} }
func BoolCell(b bool) Cell             { return Cell{Kind: CellBool, Bool: b} }
func DateTimeCell(serial float64) Cell { return Cell{Kind: CellDateTime, Number: serial} }
func DurationCell(days float64) Cell   { return Cell{Kind: CellDuration, Number: days} }

// Duration converts a duration cell to a time.Duration rounded to the
// millisecond.
func (c Cell) Duration() time.Duration {
	ms := math.Round(c.Number * 24 * float64(time.Hour/time.Millisecond))
	return time.Duration(ms) * time.Millisecond
}

// String is the cell's display text, used for header names.
func (c Cell) String() string {
	switch c.Kind {
	case CellString, CellError:
		return c.Text
	case CellFloat, CellInt, CellDateTime, CellDuration:
		return strconv.FormatFloat(c.Number, 'f', -1, 64)
	case CellBool:
		return strconv.FormatBool(c.Bool)
	default:
		return ""
	}
}
