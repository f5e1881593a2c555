// Package memory is an in-memory workbook, used for tests and for feeding
// already-parsed rows through the ingestor.
package memory

import (
	"context"
	"fmt"
	"sync"

	"beruang/internal/sheets"
)

type Workbook struct {
	mu     sync.Mutex
	sheets map[string][][]sheets.Cell
	reads  map[string]int
}

// Ensure interface conformance
var _ sheets.WorkbookReader = (*Workbook)(nil)

func New() *Workbook {
	return &Workbook{sheets: map[string][][]sheets.Cell{}, reads: map[string]int{}}
}

// AddSheet stores a sheet under name, replacing any previous one.
func (w *Workbook) AddSheet(name string, rows [][]sheets.Cell) *Workbook {
	w.mu.Lock()
	defer w.mu.Unlock()
	copied := make([][]sheets.Cell, len(rows))
	for i, r := range rows {
		copied[i] = append([]sheets.Cell(nil), r...)
	}
	w.sheets[name] = copied
	return w
}

// Rows returns a copy of the named sheet's rows.
func (w *Workbook) Rows(_ context.Context, sheet string) ([][]sheets.Cell, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	rows, ok := w.sheets[sheet]
	if !ok {
		return nil, fmt.Errorf("%w: %q", sheets.ErrMissingSheet, sheet)
	}
	w.reads[sheet]++
	out := make([][]sheets.Cell, len(rows))
	for i, r := range rows {
		out[i] = append([]sheets.Cell(nil), r...)
	}
	return out, nil
}

// Reads reports how many times the named sheet was read.
func (w *Workbook) Reads(sheet string) int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.reads[sheet]
}
