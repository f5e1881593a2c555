package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"beruang/internal/core"
	"beruang/internal/frame"
	"beruang/internal/ledger"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "ledger.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testLedger(t *testing.T, header ledger.Header, costs ...int64) *ledger.Ledger {
	t.Helper()
	var txs []core.Transaction
	for i, c := range costs {
		txs = append(txs, core.Transaction{
			Date:     core.NewDate(2024, time.January, 1+i),
			Details:  "item",
			Category: core.Makan,
			Account:  "MAYB",
			Currency: "MYR",
			Cost:     core.Money{Cents: c},
		})
	}
	l, err := ledger.FromTransactions(header, txs)
	if err != nil {
		t.Fatal(err)
	}
	return l
}

func TestSaveLoadLatest(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	h := ledger.DefaultHeader()

	first := core.NewSnapshotInfo("old.xlsx", 1, 0)
	first.CreatedAt = first.CreatedAt.Add(-time.Hour)
	if err := s.Save(ctx, testLedger(t, h, 1), first); err != nil {
		t.Fatalf("Save: %v", err)
	}
	second := core.NewSnapshotInfo("new.xlsx", 3, 2)
	if err := s.Save(ctx, testLedger(t, h, -1050, 0, 99999999), second); err != nil {
		t.Fatalf("Save: %v", err)
	}

	l, info, err := s.LoadLatest(ctx, h)
	if err != nil {
		t.Fatalf("LoadLatest: %v", err)
	}
	if info.ID != second.ID || info.Source != "new.xlsx" || info.Rows != 3 || info.Dropped != 2 || !info.CreatedAt.Equal(second.CreatedAt) {
		t.Fatalf("info = %+v, want %+v", info, second)
	}
	tbl := l.Table()
	if tbl.Len() != 3 {
		t.Fatalf("len = %d", tbl.Len())
	}
	for i, want := range []int64{-1050, 0, 99999999} {
		r := tbl.Row(i)
		if r.Int(h.Cost) != want || r.Value(h.Date).Date() != core.NewDate(2024, time.January, 1+i) || r.Text(h.Category) != "Makan" {
			t.Errorf("row %d = %v", i, r.Values())
		}
	}
}

func TestLoadWithCustomHeader(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	info := core.NewSnapshotInfo("x.xlsx", 1, 0)
	if err := s.Save(ctx, testLedger(t, ledger.DefaultHeader(), 5), info); err != nil {
		t.Fatal(err)
	}

	h := ledger.DefaultHeader()
	h.Cost = "Amount"
	l, err := s.Load(ctx, info.ID, h)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got := l.Table().Row(0).Int("Amount"); got != 5 {
		t.Fatalf("Amount = %d", got)
	}
}

func TestLatestEmpty(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Latest(context.Background()); !errors.Is(err, ErrNoSnapshot) {
		t.Fatalf("got %v", err)
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ledger.db")
	for i := 0; i < 2; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open #%d: %v", i, err)
		}
		s.Close()
	}
}

func TestSaveKeepsWorkbookColumns(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	h := ledger.DefaultHeader()

	// Workbook order with a participant column the ledger does not use.
	schema := frame.Schema{
		{Name: "Akaun", Kind: frame.KindText},
		{Name: "Tarikh", Kind: frame.KindDate},
		{Name: "Peserta", Kind: frame.KindText},
		{Name: "Keterangan", Kind: frame.KindText},
		{Name: "Kategori", Kind: frame.KindText},
		{Name: "Wang", Kind: frame.KindText},
		{Name: "Jumlah", Kind: frame.KindDecimal},
	}
	table, err := frame.NewTable(schema)
	if err != nil {
		t.Fatal(err)
	}
	jan5 := frame.DateValue(core.NewDate(2024, time.January, 5))
	rows := [][]frame.Value{
		{frame.TextValue("MAYB"), jan5, frame.TextValue("Ali"), frame.TextValue("nasi"), frame.TextValue("Makan"), frame.TextValue("MYR"), frame.MoneyValue(core.Money{Cents: -1050})},
		{frame.TextValue("CIMB"), jan5, frame.Null, frame.TextValue("gaji"), frame.TextValue("Upah"), frame.TextValue("MYR"), frame.MoneyValue(core.Money{Cents: 250000})},
	}
	for _, r := range rows {
		if err := table.AppendRow(r); err != nil {
			t.Fatal(err)
		}
	}
	l, err := ledger.New(table, h)
	if err != nil {
		t.Fatal(err)
	}

	info := core.NewSnapshotInfo("book.xlsx", 2, 0)
	if err := s.Save(ctx, l, info); err != nil {
		t.Fatalf("Save: %v", err)
	}
	got, err := s.Load(ctx, info.ID, h)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !got.Table().Schema().Equal(schema) {
		t.Fatalf("schema = %v, want %v", got.Table().Schema(), schema)
	}
	for i, want := range rows {
		g := got.Table().Row(i).Values()
		for c := range want {
			if g[c] != want[c] {
				t.Errorf("row %d col %s = %+v, want %+v", i, schema[c].Name, g[c], want[c])
			}
		}
	}
}

func TestLoadSnapshotWithoutLayout(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	info := core.NewSnapshotInfo("old.xlsx", 1, 0)

	// A snapshot saved before column layouts were recorded.
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, created_at, source, row_count, dropped) VALUES (?, ?, ?, 1, 0)`,
		info.ID.String(), info.CreatedAt.Format(time.RFC3339), info.Source); err != nil {
		t.Fatal(err)
	}
	if _, err := s.db.ExecContext(ctx, `INSERT INTO transactions
		(snapshot_id, position, date_days, details, category, account, currency, cost_cents)
		VALUES (?, 0, ?, 'teh', 'Makan', 'MAYB', 'MYR', -350)`,
		info.ID.String(), int32(core.NewDate(2024, time.March, 9))); err != nil {
		t.Fatal(err)
	}

	h := ledger.DefaultHeader()
	l, err := s.Load(ctx, info.ID, h)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !l.Table().Schema().Equal(h.Schema()) {
		t.Fatalf("schema = %v, want %v", l.Table().Schema(), h.Schema())
	}
	r := l.Table().Row(0)
	if r.Int(h.Cost) != -350 || r.Text(h.Details) != "teh" || r.Value(h.Date).Date() != core.NewDate(2024, time.March, 9) {
		t.Fatalf("row = %v", r.Values())
	}
}
