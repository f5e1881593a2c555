package main

import (
	"bytes"
	"context"
	"errors"
	"flag"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"beruang/internal/config"
	"beruang/internal/core"
	"beruang/internal/log"
	"beruang/internal/snapshot"
)

func testConfig() *config.Config {
	return &config.Config{
		WorkbookBackend:  "xlsx",
		SheetNames:       []string{"Jan", "Feb"},
		FetchConcurrency: 1,
		HeaderDate:       "Tarikh",
		HeaderDetails:    "Keterangan",
		HeaderCategory:   "Kategori",
		HeaderAccount:    "Akaun",
		HeaderCurrency:   "Wang",
		HeaderCost:       "Jumlah",
		ExcludedCategory: "Pertukaran",
		CommandTimeout:   time.Minute,
		LogLevel:         "info",
	}
}

func testApp(t *testing.T, cfg *config.Config) (*app, *bytes.Buffer) {
	t.Helper()
	logger := log.New(log.Config{Handler: slog.NewTextHandler(io.Discard, nil)})
	var stdout bytes.Buffer
	return newApp(cfg, logger, &stdout, io.Discard), &stdout
}

// writeLedgerWorkbook creates Jan and Feb sheets; Feb has its columns in
// a different order and one row with a text amount.
func writeLedgerWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", "Jan"); err != nil {
		t.Fatal(err)
	}
	if _, err := f.NewSheet("Feb"); err != nil {
		t.Fatal(err)
	}
	dateStyle, err := f.NewStyle(&excelize.Style{NumFmt: 14})
	if err != nil {
		t.Fatal(err)
	}

	rows := map[string][][]any{
		"Jan": {
			{"Tarikh", "Keterangan", "Kategori", "Akaun", "Wang", "Jumlah"},
			{45296.0, "nasi lemak", "Makan", "MAYB", "MYR", 10.0},
			{45311.0, "teh", "Makan", "MAYB", "MYR", 5.0},
		},
		"Feb": {
			{"Jumlah", "Tarikh", "Keterangan", "Kategori", "Akaun", "Wang"},
			{100.0, 45323.0, "to savings", "Pertukaran", "MAYB", "MYR"},
			{"lots", 45324.0, "bad row", "Makan", "MAYB", "MYR"},
		},
	}
	for sheet, data := range rows {
		for r, row := range data {
			for c, v := range row {
				cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
				if err := f.SetCellValue(sheet, cell, v); err != nil {
					t.Fatal(err)
				}
				if h, ok := data[0][c].(string); ok && h == "Tarikh" && r > 0 {
					if err := f.SetCellStyle(sheet, cell, cell, dateStyle); err != nil {
						t.Fatal(err)
					}
				}
			}
		}
	}
	path := filepath.Join(t.TempDir(), "ledger.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestCombineThenReport(t *testing.T) {
	for _, ext := range []string{".parquet", ".db"} {
		t.Run(ext, func(t *testing.T) {
			ctx := context.Background()
			a, stdout := testApp(t, testConfig())
			workbook := writeLedgerWorkbook(t)
			snap := filepath.Join(t.TempDir(), "out", "ledger"+ext)

			if err := a.runCombine(ctx, []string{"-workbook", workbook, "-out", snap}); err != nil {
				t.Fatalf("combine: %v", err)
			}

			if err := a.runNett(ctx, []string{"-snapshot", snap, "-group", "monthly"}); err != nil {
				t.Fatalf("nett: %v", err)
			}
			out := stdout.String()
			if !strings.Contains(out, "2024-01-01") || !strings.Contains(out, "15.00") || !strings.Contains(out, "(1 rows)") {
				t.Fatalf("nett output:\n%s", out)
			}
			if strings.Contains(out, "2024-02-01") {
				t.Fatalf("transfer month must not appear:\n%s", out)
			}

			stdout.Reset()
			if err := a.runSummary(ctx, []string{"-snapshot", snap}); err != nil {
				t.Fatalf("summary: %v", err)
			}
			if !strings.Contains(stdout.String(), "115.00") || !strings.Contains(stdout.String(), "(1 rows)") {
				t.Fatalf("summary output:\n%s", stdout.String())
			}
		})
	}
}

func TestCombineToCSVAndNettFile(t *testing.T) {
	ctx := context.Background()
	a, _ := testApp(t, testConfig())
	workbook := writeLedgerWorkbook(t)
	dir := t.TempDir()

	combined := filepath.Join(dir, "combined.csv")
	if err := a.runCombine(ctx, []string{"-workbook", workbook, "-out", combined}); err != nil {
		t.Fatalf("combine: %v", err)
	}
	b, err := os.ReadFile(combined)
	if err != nil {
		t.Fatal(err)
	}
	if lines := strings.Count(string(b), "\n"); lines != 4 {
		t.Fatalf("want header plus 3 rows, got:\n%s", b)
	}

	report := filepath.Join(dir, "nett.csv")
	if err := a.runNett(ctx, []string{"-workbook", workbook, "-group", "weekly", "-out", report}); err != nil {
		t.Fatalf("nett: %v", err)
	}
	b, err = os.ReadFile(report)
	if err != nil {
		t.Fatal(err)
	}
	want := "Akaun,Wang,Tarikh,Jumlah\nMAYB,MYR,2024-01-01,10.00\nMAYB,MYR,2024-01-15,5.00\n"
	if string(b) != want {
		t.Fatalf("got\n%s\nwant\n%s", b, want)
	}
}

func TestCombineUnknownSheet(t *testing.T) {
	a, _ := testApp(t, testConfig())
	err := a.runCombine(context.Background(), []string{"-workbook", writeLedgerWorkbook(t), "-sheets", "Jan,Mac", "-out", filepath.Join(t.TempDir(), "x.parquet")})
	if err == nil || !strings.Contains(err.Error(), "Mac") {
		t.Fatalf("got %v", err)
	}
}

func TestNettRejectsUnknownGroup(t *testing.T) {
	a, _ := testApp(t, testConfig())
	if err := a.runNett(context.Background(), []string{"-group", "daily"}); err == nil {
		t.Fatal("expected error")
	}
}

type fakeNotifier struct {
	published []string
	closed    bool
}

func (f *fakeNotifier) PublishSnapshotCreated(_ context.Context, path string, _ core.SnapshotInfo) error {
	f.published = append(f.published, path)
	return nil
}

func (f *fakeNotifier) Close() error {
	f.closed = true
	return nil
}

func TestCombineNotifies(t *testing.T) {
	a, _ := testApp(t, testConfig())
	n := &fakeNotifier{}
	a.dialNotifier = func() (notifier, error) { return n, nil }
	snap := filepath.Join(t.TempDir(), "ledger.parquet")

	if err := a.runCombine(context.Background(), []string{"-workbook", writeLedgerWorkbook(t), "-out", snap}); err != nil {
		t.Fatalf("combine: %v", err)
	}
	if len(n.published) != 1 || n.published[0] != snap || !n.closed {
		t.Fatalf("notifier = %+v", n)
	}

	a.dialNotifier = func() (notifier, error) { return nil, errors.New("broker down") }
	if err := a.runCombine(context.Background(), []string{"-workbook", writeLedgerWorkbook(t), "-out", snap}); err != nil {
		t.Fatalf("a broker failure must not fail combine: %v", err)
	}
}

func TestAdd(t *testing.T) {
	a, _ := testApp(t, testConfig())
	file := filepath.Join(t.TempDir(), "transactions.csv")

	err := a.runAdd(context.Background(), []string{"-date", "2024-03-09", "-details", "teh tarik", "-file", file, "--", "-350", "Makan", "Ali"})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	b, err := os.ReadFile(file)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasSuffix(string(b), "2024-03-09,teh tarik,MAYB,Makan,Ali,MYR,-3.50\n") {
		t.Fatalf("got %q", b)
	}

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"missing positional", []string{"-date", "2024-03-09", "-details", "x", "100"}, errAddUsage},
		{"bad total", []string{"-date", "2024-03-09", "-details", "x", "1.5", "Makan", "Ali"}, core.ErrInvalidAmount},
		{"bad category", []string{"-date", "2024-03-09", "-details", "x", "100", "Judi", "Ali"}, core.ErrUnknownCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := a.runAdd(context.Background(), append([]string{"-file", file}, tt.args...)); !errors.Is(err, tt.want) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestAddHelpNamesCommand(t *testing.T) {
	a, _ := testApp(t, testConfig())
	var stderr bytes.Buffer
	a.stderr = &stderr
	if err := a.runAdd(context.Background(), []string{"-h"}); !errors.Is(err, flag.ErrHelp) {
		t.Fatalf("got %v, want flag.ErrHelp", err)
	}
	if !strings.HasPrefix(stderr.String(), "Usage of add:") {
		t.Fatalf("usage = %q", stderr.String())
	}
}

func TestRejectsUnknownSnapshotPath(t *testing.T) {
	a, _ := testApp(t, testConfig())
	dir := t.TempDir()

	// -out is checked before the workbook is read, so the missing file is never opened.
	err := a.runCombine(context.Background(), []string{"-workbook", filepath.Join(dir, "missing.xlsx"), "-out", filepath.Join(dir, "ledger.txt")})
	if !errors.Is(err, snapshot.ErrUnknownFormat) {
		t.Fatalf("combine: got %v, want ErrUnknownFormat", err)
	}
	if err := a.runSummary(context.Background(), []string{"-snapshot", filepath.Join(dir, "ledger.json")}); !errors.Is(err, snapshot.ErrUnknownFormat) {
		t.Fatalf("summary: got %v, want ErrUnknownFormat", err)
	}
}
