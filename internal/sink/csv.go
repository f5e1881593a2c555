// Package sink renders tables for people and other programs.
package sink

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"beruang/internal/core"
	"beruang/internal/frame"
)

// WriteCSV writes t with a header row. Dates are ISO 8601 and decimals
// carry two fraction digits.
func WriteCSV(w io.Writer, t *frame.Table) error {
	cw := csv.NewWriter(w)
	schema := t.Schema()
	if err := cw.Write(schema.Names()); err != nil {
		return err
	}
	record := make([]string, len(schema))
	for i := 0; i < t.Len(); i++ {
		for c, v := range t.Row(i).Values() {
			record[c] = v.Format(schema[c].Kind)
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes t to path, replacing any existing file.
func WriteCSVFile(path string, t *frame.Table) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	return WriteCSV(f, t)
}

var appendHeader = []string{"date", "details", "account", "category", "participant", "currency", "total"}

// AppendTransaction adds tx as one CSV row to path, writing the header
// first when the file is new or empty.
func AppendTransaction(path string, tx core.Transaction) (err error) {
	if err := tx.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}
	f, err := os.OpenFile(path, os.O_RDWR|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()
	st, err := f.Stat()
	if err != nil {
		return err
	}

	cw := csv.NewWriter(f)
	if st.Size() == 0 {
		if err := cw.Write(appendHeader); err != nil {
			return err
		}
	}
	err = cw.Write([]string{
		tx.Date.String(),
		tx.Details,
		tx.Account,
		string(tx.Category),
		tx.Participant,
		tx.Currency,
		tx.Cost.String(),
	})
	if err != nil {
		return err
	}
	cw.Flush()
	return cw.Error()
}
