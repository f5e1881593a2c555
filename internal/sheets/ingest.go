package sheets

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"beruang/internal/core"
	"beruang/internal/frame"
)

// SchemaInferrer maps a header name to the kind of its column.
type SchemaInferrer interface {
	KindOf(header string) frame.Kind
}

// IngestError is a structural ingestion failure. It aborts the whole run.
type IngestError struct {
	Sheet string
	Err   error
}

func (e *IngestError) Error() string {
	if e.Sheet == "" {
		return fmt.Sprintf("ingest: %v", e.Err)
	}
	return fmt.Sprintf("ingest sheet %q: %v", e.Sheet, e.Err)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// Result is the outcome of one ingestion.
type Result struct {
	Table *frame.Table
	// Read counts the data rows read across all sheets.
	Read int
	// Dropped counts rows removed because a cell could not be coerced.
	Dropped int
}

// Ingestor concatenates the sheets of one workbook into a typed table.
type Ingestor struct {
	reader   WorkbookReader
	inferrer SchemaInferrer
	logger   *slog.Logger
}

func NewIngestor(reader WorkbookReader, inferrer SchemaInferrer, logger *slog.Logger) *Ingestor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{reader: reader, inferrer: inferrer, logger: logger}
}

// Ingest reads the named sheets in order. The first sheet's header row
// fixes the schema; later sheets must carry the same column names, in any
// order. Rows with a cell that does not fit its column are dropped and
// counted in Result.Dropped.
func (in *Ingestor) Ingest(ctx context.Context, names []string) (Result, error) {
	if len(names) == 0 {
		return Result{}, &IngestError{Err: ErrNoSheets}
	}
	if p, ok := in.reader.(Prefetcher); ok {
		if err := p.Prefetch(ctx, names); err != nil {
			return Result{}, readError("", err)
		}
	}

	var (
		schema  frame.Schema
		table   *frame.Table
		columns []string
	)
	for i, name := range names {
		rows, err := in.reader.Rows(ctx, name)
		if err != nil {
			return Result{}, readError(name, err)
		}
		if len(rows) == 0 || isBlank(rows[0]) {
			return Result{}, &IngestError{Sheet: name, Err: ErrEmptyHeader}
		}
		header := headerNames(rows[0])

		var order []int
		if i == 0 {
			schema = in.schemaOf(header)
			if err := schema.Validate(); err != nil {
				return Result{}, &IngestError{Sheet: name, Err: fmt.Errorf("%w: %w", ErrBadHeader, err)}
			}
			columns = header
			if table, err = frame.NewTable(schema); err != nil {
				return Result{}, &IngestError{Sheet: name, Err: err}
			}
		} else {
			if order, err = alignHeader(columns, header); err != nil {
				return Result{}, &IngestError{Sheet: name, Err: err}
			}
		}

		sheet, err := frame.NewTable(schema)
		if err != nil {
			return Result{}, &IngestError{Sheet: name, Err: err}
		}
		for _, row := range rows[1:] {
			if err := sheet.AppendRow(coerceRow(row, schema, order)); err != nil {
				return Result{}, &IngestError{Sheet: name, Err: err}
			}
		}
		in.logger.DebugContext(ctx, "Read sheet", "sheet", name, "rows", sheet.Len())

		if table, err = table.VStack(sheet); err != nil {
			return Result{}, &IngestError{Sheet: name, Err: err}
		}
	}

	clean, dropped := table.DropNulls()
	if dropped > 0 {
		in.logger.WarnContext(ctx, "Dropped incomplete rows", "dropped", dropped, "read", table.Len())
	}
	in.logger.InfoContext(ctx, "Ingested workbook", "sheets", len(names), "rows", clean.Len(), "dropped", dropped)
	return Result{Table: clean, Read: table.Len(), Dropped: dropped}, nil
}

func (in *Ingestor) schemaOf(header []string) frame.Schema {
	schema := make(frame.Schema, len(header))
	for i, name := range header {
		schema[i] = frame.Field{Name: name, Kind: in.inferrer.KindOf(name)}
	}
	return schema
}

func readError(sheet string, err error) error {
	if errors.Is(err, ErrMissingSheet) {
		return &IngestError{Sheet: sheet, Err: err}
	}
	return &IngestError{Sheet: sheet, Err: fmt.Errorf("%w: %w", ErrUnreadable, err)}
}

func isBlank(row []Cell) bool {
	for _, c := range row {
		if c.Kind != CellEmpty {
			return false
		}
	}
	return true
}

func headerNames(row []Cell) []string {
	// trailing empty cells are formatting, not columns
	end := len(row)
	for end > 0 && row[end-1].Kind == CellEmpty {
		end--
	}
	names := make([]string, end)
	for i, c := range row[:end] {
		names[i] = strings.TrimSpace(c.String())
	}
	return names
}

// alignHeader maps each column of want to its position in got. A nil
// result means the orders already agree.
func alignHeader(want, got []string) ([]int, error) {
	if len(want) != len(got) {
		return nil, fmt.Errorf("%w: got %v, want %v", ErrHeaderMismatch, got, want)
	}
	same := true
	pos := make(map[string]int, len(got))
	for i, name := range got {
		pos[name] = i
		if name != want[i] {
			same = false
		}
	}
	if same {
		return nil, nil
	}
	order := make([]int, len(want))
	for i, name := range want {
		j, ok := pos[name]
		if !ok {
			return nil, fmt.Errorf("%w: got %v, want %v", ErrHeaderMismatch, got, want)
		}
		order[i] = j
	}
	return order, nil
}

// coerceRow converts one sheet row to table values. order, when set,
// gives the source cell index of each schema column.
func coerceRow(row []Cell, schema frame.Schema, order []int) []frame.Value {
	out := make([]frame.Value, len(schema))
	for i, f := range schema {
		src := i
		if order != nil {
			src = order[i]
		}
		if src < len(row) {
			out[i] = coerce(row[src], f.Kind)
		}
	}
	return out
}

// coerce converts a cell to a value of kind k, or Null when the cell does
// not hold that kind.
func coerce(c Cell, k frame.Kind) frame.Value {
	switch k {
	case frame.KindDate:
		if c.Kind == CellDateTime && !math.IsNaN(c.Number) && !math.IsInf(c.Number, 0) {
			return frame.DateValue(core.DateFromSerial(c.Number))
		}
	case frame.KindDecimal:
		switch c.Kind {
		case CellFloat:
			if m, err := core.MoneyFromFloat(c.Number); err == nil {
				return frame.MoneyValue(m)
			}
		case CellInt:
			if math.Abs(c.Number) < math.MaxInt64/100 {
				return frame.MoneyValue(core.Money{Cents: int64(c.Number) * 100})
			}
		}
	case frame.KindText:
		if c.Kind == CellString {
			return frame.TextValue(c.Text)
		}
	}
	return frame.Null
}
