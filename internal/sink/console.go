package sink

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"beruang/internal/frame"
)

// PrintTable writes t as right-aligned columns followed by a row count.
func PrintTable(w io.Writer, t *frame.Table) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	schema := t.Schema()

	cells := make([]string, len(schema))
	for c, f := range schema {
		cells[c] = f.Name
	}
	if err := writeLine(tw, cells); err != nil {
		return err
	}
	for i := 0; i < t.Len(); i++ {
		for c, v := range t.Row(i).Values() {
			cells[c] = v.Format(schema[c].Kind)
		}
		if err := writeLine(tw, cells); err != nil {
			return err
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "(%d rows)\n", t.Len())
	return err
}

func writeLine(w io.Writer, cells []string) error {
	_, err := io.WriteString(w, strings.Join(cells, "\t")+"\t\n")
	return err
}
