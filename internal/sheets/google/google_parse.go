package google

import (
	"strings"

	gsheet "google.golang.org/api/sheets/v4"

	ports "beruang/internal/sheets"
)

func rowsFromGrid(grid *gsheet.GridData) [][]ports.Cell {
	if grid == nil {
		return nil
	}
	rows := make([][]ports.Cell, len(grid.RowData))
	for i, rd := range grid.RowData {
		if rd == nil {
			continue
		}
		cells := make([]ports.Cell, len(rd.Values))
		for j, cd := range rd.Values {
			cells[j] = cellFromData(cd)
		}
		rows[i] = cells
	}
	return rows
}

// cellFromData maps a cell's effective value and number format to a Cell.
// Numbers formatted as dates become date cells; elapsed-time formats
// become durations.
func cellFromData(cd *gsheet.CellData) ports.Cell {
	if cd == nil || cd.EffectiveValue == nil {
		return ports.Cell{}
	}
	v := cd.EffectiveValue
	switch {
	case v.ErrorValue != nil:
		return ports.Cell{Kind: ports.CellError, Text: v.ErrorValue.Type}
	case v.BoolValue != nil:
		return ports.BoolCell(*v.BoolValue)
	case v.StringValue != nil:
		if *v.StringValue == "" {
			return ports.Cell{}
		}
		return ports.StringCell(*v.StringValue)
	case v.NumberValue != nil:
		return ports.Cell{Kind: numberKind(cd.EffectiveFormat), Number: *v.NumberValue}
	}
	return ports.Cell{}
}

func numberKind(f *gsheet.CellFormat) ports.CellKind {
	if f == nil || f.NumberFormat == nil {
		return ports.CellFloat
	}
	switch f.NumberFormat.Type {
	case "DATE", "DATE_TIME":
		return ports.CellDateTime
	case "TIME":
		if strings.Contains(f.NumberFormat.Pattern, "[") {
			return ports.CellDuration
		}
		return ports.CellDateTime
	}
	return ports.CellFloat
}
