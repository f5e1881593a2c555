package sheets

import (
	"testing"
	"time"
)

func TestCellDuration(t *testing.T) {
	tests := []struct {
		days float64
		want time.Duration
	}{
		{0, 0},
		{0.5, 12 * time.Hour},
		{1.0 / 24 / 60, time.Minute},
		{1.25, 30 * time.Hour},
		{1.0 / 86400 / 3, 333 * time.Millisecond},
	}
	for _, tt := range tests {
		if got := DurationCell(tt.days).Duration(); got != tt.want {
			t.Errorf("DurationCell(%v).Duration() = %v, want %v", tt.days, got, tt.want)
		}
	}
}

func TestCellString(t *testing.T) {
	tests := []struct {
		cell Cell
		want string
	}{
		{StringCell("Tarikh"), "Tarikh"},
		{FloatCell(12.5), "12.5"},
		{IntCell(7), "7"},
		{Cell{}, ""},
	}
	for _, tt := range tests {
		if got := tt.cell.String(); got != tt.want {
			t.Errorf("%+v.String() = %q, want %q", tt.cell, got, tt.want)
		}
	}
}
