package frame

import (
	"errors"
	"testing"
)

func accounts(t *testing.T, tbl *Table) string {
	t.Helper()
	out := ""
	for i := 0; i < tbl.Len(); i++ {
		out += tbl.Row(i).Text("account")
	}
	return out
}

func TestLazyIsDeferred(t *testing.T) {
	tbl := mustTable(t, testSchema, []Value{DateValue(1), TextValue("A"), cents(1)})
	calls := 0
	lf := tbl.Lazy().Filter(func(Row) bool { calls++; return true })
	if calls != 0 {
		t.Fatal("filter ran before Collect")
	}
	if _, err := lf.Collect(); err != nil {
		t.Fatal(err)
	}
	if calls != 1 {
		t.Fatalf("filter ran %d times, want 1", calls)
	}
}

func TestLazyPlansDoNotShareSteps(t *testing.T) {
	tbl := mustTable(t, testSchema,
		[]Value{DateValue(1), TextValue("A"), cents(1)},
		[]Value{DateValue(2), TextValue("B"), cents(2)},
	)
	base := tbl.Lazy().Sort("date")
	onlyA := base.Filter(func(r Row) bool { return r.Text("account") == "A" })
	onlyB := base.Filter(func(r Row) bool { return r.Text("account") == "B" })

	a, err := onlyA.Collect()
	if err != nil {
		t.Fatal(err)
	}
	b, err := onlyB.Collect()
	if err != nil {
		t.Fatal(err)
	}
	if accounts(t, a) != "A" || accounts(t, b) != "B" {
		t.Fatalf("branches interfered: %q %q", accounts(t, a), accounts(t, b))
	}
}

func TestSortComposition(t *testing.T) {
	schema := Schema{{Name: "date", Kind: KindDate}, {Name: "account"}, {Name: "currency"}}
	tbl := mustTable(t, schema,
		[]Value{DateValue(2), TextValue("B"), TextValue("USD")},
		[]Value{DateValue(1), TextValue("B"), TextValue("MYR")},
		[]Value{DateValue(2), TextValue("A"), TextValue("MYR")},
		[]Value{DateValue(1), TextValue("A"), TextValue("USD")},
		[]Value{DateValue(1), TextValue("A"), TextValue("MYR")},
		[]Value{Null, TextValue("C"), TextValue("MYR")},
	)

	multi, err := tbl.Lazy().Sort("date", "account", "currency").Collect()
	if err != nil {
		t.Fatal(err)
	}
	chained, err := tbl.Lazy().Sort("currency").Sort("account").Sort("date").Collect()
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < tbl.Len(); i++ {
		m, c := multi.Row(i).Values(), chained.Row(i).Values()
		for j := range m {
			if m[j] != c[j] {
				t.Fatalf("row %d differs: %v vs %v", i, m, c)
			}
		}
	}
	if got := accounts(t, multi); got != "CAABAB" {
		t.Fatalf("unexpected order %q", got)
	}
	if got := multi.Row(1).Text("currency"); got != "MYR" {
		t.Fatalf("currency tie-break: got %q", got)
	}
}

func TestSelect(t *testing.T) {
	tbl := mustTable(t, testSchema, []Value{DateValue(1), TextValue("A"), cents(5)})
	out, err := tbl.Lazy().Select("cost", "account").Collect()
	if err != nil {
		t.Fatal(err)
	}
	if names := out.Schema().Names(); len(names) != 2 || names[0] != "cost" || names[1] != "account" {
		t.Fatalf("unexpected schema %v", names)
	}

	_, err = tbl.Lazy().Select("nope").Collect()
	var qe *QueryError
	if !errors.As(err, &qe) || qe.Op != "select" || !errors.Is(err, ErrUnknownColumn) {
		t.Fatalf("expected select QueryError, got %v", err)
	}
}

func TestGroupByAggregates(t *testing.T) {
	tbl := mustTable(t, testSchema,
		[]Value{DateValue(1), TextValue("A"), cents(100)},
		[]Value{DateValue(2), TextValue("B"), cents(-50)},
		[]Value{DateValue(3), TextValue("A"), cents(205)},
		[]Value{DateValue(4), TextValue("A"), Null},
		[]Value{DateValue(5), TextValue("B"), cents(-51)},
	)
	out, err := tbl.Lazy().GroupBy("account").Agg(
		Sum("cost"),
		Mean("cost").Alias("mean"),
		Max("cost").Alias("max"),
		Min("cost").Alias("min"),
	).Collect()
	if err != nil {
		t.Fatal(err)
	}
	if out.Len() != 2 {
		t.Fatalf("want 2 groups, got %d", out.Len())
	}
	want := map[string][4]int64{
		"A": {305, 153, 205, 100}, // 152.5 rounds away from zero
		"B": {-101, -51, -50, -51},
	}
	for i := 0; i < out.Len(); i++ {
		r := out.Row(i)
		w := want[r.Text("account")]
		got := [4]int64{r.Int("cost"), r.Int("mean"), r.Int("max"), r.Int("min")}
		if got != w {
			t.Errorf("account %s: got %v, want %v", r.Text("account"), got, w)
		}
	}
	if out.Row(0).Text("account") != "A" {
		t.Fatal("groups must keep first-appearance order")
	}
}

func TestGroupByRejectsNonDecimalAgg(t *testing.T) {
	tbl := mustTable(t, testSchema)
	_, err := tbl.Lazy().GroupBy("account").Agg(Sum("date")).Collect()
	if !errors.Is(err, ErrKindMismatch) {
		t.Fatalf("expected ErrKindMismatch, got %v", err)
	}
}
