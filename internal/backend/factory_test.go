package backend

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"beruang/internal/config"
	"beruang/internal/sheets"
)

func TestFromAppConfig(t *testing.T) {
	app := &config.Config{WorkbookBackend: "xlsx", WorkbookPath: "env.xlsx", FetchConcurrency: 3}

	cfg, err := FromAppConfig(app, "")
	if err != nil || cfg.Type != XLSXBackend || cfg.WorkbookPath != "env.xlsx" {
		t.Fatalf("FromAppConfig = %+v, %v", cfg, err)
	}
	cfg, _ = FromAppConfig(app, "flag.xlsx")
	if cfg.WorkbookPath != "flag.xlsx" {
		t.Errorf("flag path must win, got %s", cfg.WorkbookPath)
	}

	if _, err := FromAppConfig(&config.Config{WorkbookBackend: "memory"}, ""); err == nil {
		t.Error("expected invalid backend error")
	}
	if _, err := FromAppConfig(nil, ""); err == nil {
		t.Error("expected nil config error")
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		config  Config
		wantErr string
	}{
		{"xlsx ok", Config{Type: XLSXBackend, WorkbookPath: "a.xlsx"}, ""},
		{"xlsx without path", Config{Type: XLSXBackend}, "workbook path is required"},
		{"sheets ok", Config{Type: SheetsBackend, GoogleSpreadsheetID: "id", GoogleServiceAccountJSON: "{}"}, ""},
		{"sheets without id", Config{Type: SheetsBackend, GoogleServiceAccountJSON: "{}"}, "Spreadsheet ID is required"},
		{"sheets without creds", Config{Type: SheetsBackend, GoogleSpreadsheetID: "id"}, "GoogleServiceAccountJSON"},
		{"unknown", Config{Type: "csv"}, "want one of [xlsx sheets]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.config.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("got %v, want %q", err, tt.wantErr)
			}
		})
	}
}

func TestCreateXLSXBackend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.xlsx")
	f := excelize.NewFile()
	if err := f.SetCellValue("Sheet1", "A1", "Tarikh"); err != nil {
		t.Fatal(err)
	}
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	f.Close()

	res, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: XLSXBackend, WorkbookPath: path})
	if err != nil {
		t.Fatalf("CreateBackend: %v", err)
	}
	defer res.Cleanup()

	if res.Source != path {
		t.Errorf("Source = %s", res.Source)
	}
	rows, err := res.Reader.Rows(context.Background(), "Sheet1")
	if err != nil || len(rows) != 1 || rows[0][0] != sheets.StringCell("Tarikh") {
		t.Fatalf("Rows = %+v, %v", rows, err)
	}
}

func TestCreateXLSXBackendMissingFile(t *testing.T) {
	_, err := NewFactory(nil).CreateBackend(context.Background(), Config{Type: XLSXBackend, WorkbookPath: filepath.Join(t.TempDir(), "none.xlsx")})
	if !errors.Is(err, sheets.ErrUnreadable) {
		t.Fatalf("got %v", err)
	}
}
