// Package excel reads ledger sheets from a local .xlsx workbook.
package excel

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/xuri/excelize/v2"

	ports "beruang/internal/sheets"
)

type Workbook struct {
	path string
	file *excelize.File

	mu     sync.Mutex
	styles map[int]ports.CellKind
}

// Ensure interface conformance
var _ ports.WorkbookReader = (*Workbook)(nil)

// Open opens the workbook at path. The caller must Close it.
func Open(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %w", ports.ErrUnreadable, path, err)
	}
	return &Workbook{path: path, file: f, styles: map[int]ports.CellKind{}}, nil
}

func (w *Workbook) Close() error {
	return w.file.Close()
}

// Rows returns the cells of sheet. Numeric cells are classified as dates
// or durations by their number format.
func (w *Workbook) Rows(ctx context.Context, sheet string) ([][]ports.Cell, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if idx, err := w.file.GetSheetIndex(sheet); err != nil || idx < 0 {
		return nil, fmt.Errorf("%w: %q in %s", ports.ErrMissingSheet, sheet, w.path)
	}
	raw, err := w.file.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	rows := make([][]ports.Cell, len(raw))
	for r, values := range raw {
		cells := make([]ports.Cell, len(values))
		for c, v := range values {
			name, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			if cells[c], err = w.cell(sheet, name, v); err != nil {
				return nil, fmt.Errorf("read cell %s!%s: %w", sheet, name, err)
			}
		}
		rows[r] = cells
	}
	return rows, nil
}

func (w *Workbook) cell(sheet, name, raw string) (ports.Cell, error) {
	typ, err := w.file.GetCellType(sheet, name)
	if err != nil {
		return ports.Cell{}, err
	}
	switch typ {
	case excelize.CellTypeBool:
		return ports.BoolCell(raw == "1" || strings.EqualFold(raw, "true")), nil
	case excelize.CellTypeError:
		return ports.Cell{Kind: ports.CellError, Text: raw}, nil
	case excelize.CellTypeSharedString, excelize.CellTypeInlineString, excelize.CellTypeFormula:
		if raw == "" {
			return ports.Cell{}, nil
		}
		return ports.StringCell(raw), nil
	case excelize.CellTypeDate:
		t, err := time.Parse(time.RFC3339Nano, raw)
		if err != nil {
			t, err = time.Parse("2006-01-02T15:04:05", raw)
		}
		if err != nil {
			return ports.StringCell(raw), nil
		}
		return ports.DateTimeCell(serialOf(t)), nil
	}

	if raw == "" {
		return ports.Cell{}, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return ports.StringCell(raw), nil
	}
	kind, err := w.numberKind(sheet, name)
	if err != nil {
		return ports.Cell{}, err
	}
	return ports.Cell{Kind: kind, Number: f}, nil
}

// numberKind resolves the cell's number format, caching per style id.
func (w *Workbook) numberKind(sheet, name string) (ports.CellKind, error) {
	id, err := w.file.GetCellStyle(sheet, name)
	if err != nil {
		return 0, err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if k, ok := w.styles[id]; ok {
		return k, nil
	}
	style, err := w.file.GetStyle(id)
	if err != nil {
		return 0, err
	}
	k := ports.CellFloat
	if style != nil {
		custom := ""
		if style.CustomNumFmt != nil {
			custom = *style.CustomNumFmt
		}
		k = formatKind(style.NumFmt, custom)
	}
	w.styles[id] = k
	return k, nil
}

// formatKind classifies a number format. custom wins over the builtin id
// when set.
func formatKind(builtin int, custom string) ports.CellKind {
	if custom != "" {
		return customFormatKind(custom)
	}
	switch {
	case builtin == 46:
		return ports.CellDuration
	case builtin >= 14 && builtin <= 22,
		builtin >= 27 && builtin <= 36,
		builtin >= 45 && builtin <= 47,
		builtin >= 50 && builtin <= 58:
		return ports.CellDateTime
	}
	return ports.CellFloat
}

func customFormatKind(format string) ports.CellKind {
	var (
		quoted   bool
		bracket  bool
		escaped  bool
		datePart bool
	)
	lower := strings.ToLower(format)
	for i := 0; i < len(lower); i++ {
		ch := lower[i]
		switch {
		case escaped:
			escaped = false
		case ch == '\\':
			escaped = true
		case quoted:
			quoted = ch != '"'
		case ch == '"':
			quoted = true
		case bracket:
			bracket = ch != ']'
		case ch == '[':
			if elapsedToken(lower[i+1:]) {
				return ports.CellDuration
			}
			bracket = true
		case ch == ';':
			// only the positive section decides
			return kindFor(datePart)
		case ch >= 'a' && ch <= 'z':
			// A run of letters is a date token only when every letter is
			// one; "MYR" in "0.00 MYR" is literal text.
			j := i
			for j < len(lower) && lower[j] >= 'a' && lower[j] <= 'z' {
				j++
			}
			if strings.Trim(lower[i:j], "dmyhs") == "" {
				datePart = true
			}
			i = j - 1
		}
	}
	return kindFor(datePart)
}

// elapsedToken reports whether s starts with the body of an elapsed-time
// token such as "h]" or "mm]".
func elapsedToken(s string) bool {
	end := strings.IndexByte(s, ']')
	if end <= 0 || strings.IndexByte("hms", s[0]) < 0 {
		return false
	}
	return strings.Count(s[:end], s[:1]) == end
}

func kindFor(date bool) ports.CellKind {
	if date {
		return ports.CellDateTime
	}
	return ports.CellFloat
}

var excelEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

func serialOf(t time.Time) float64 {
	y, m, d := t.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	whole := day.Sub(excelEpoch).Hours() / 24
	clock := t.Sub(time.Date(y, m, d, 0, 0, 0, 0, t.Location()))
	return whole + clock.Hours()/24
}
