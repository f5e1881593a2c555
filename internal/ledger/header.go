package ledger

import (
	"fmt"
	"strings"

	"beruang/internal/frame"
)

// Header names the ledger's columns as they appear in the workbook's header
// row.
type Header struct {
	Date     string
	Details  string
	Category string
	Account  string
	Currency string
	Cost     string
}

// DefaultHeader returns the column names used by the Malay ledger workbook.
func DefaultHeader() Header {
	return Header{
		Date:     "Tarikh",
		Details:  "Keterangan",
		Category: "Kategori",
		Account:  "Akaun",
		Currency: "Wang",
		Cost:     "Jumlah",
	}
}

// KindOf maps a header name to its column kind: the date column is a
// date, the cost column a two-digit decimal and everything else text.
func (h Header) KindOf(name string) frame.Kind {
	switch name {
	case h.Date:
		return frame.KindDate
	case h.Cost:
		return frame.KindDecimal
	default:
		return frame.KindText
	}
}

// Schema returns the ledger schema in canonical column order.
func (h Header) Schema() frame.Schema {
	names := h.names()
	schema := make(frame.Schema, len(names))
	for i, n := range names {
		schema[i] = frame.Field{Name: n, Kind: h.KindOf(n)}
	}
	return schema
}

func (h Header) names() []string {
	return []string{h.Date, h.Details, h.Category, h.Account, h.Currency, h.Cost}
}

func (h Header) Validate() error {
	seen := map[string]bool{}
	for _, n := range h.names() {
		if strings.TrimSpace(n) == "" {
			return fmt.Errorf("header names cannot be empty: %+v", h)
		}
		if seen[n] {
			return fmt.Errorf("header name %q used twice", n)
		}
		seen[n] = true
	}
	return nil
}
