// Package ledger answers the summary and net-flow queries over an ingested
// transaction table.
package ledger

import (
	"fmt"
	"strings"

	"beruang/internal/core"
	"beruang/internal/frame"
)

// TimeGroup selects the window size of the net-flow report.
type TimeGroup int

const (
	Quarterly TimeGroup = iota
	Monthly
	Biweekly
	Weekly
)

var timeGroupNames = []string{"quarterly", "monthly", "biweekly", "weekly"}

func (g TimeGroup) String() string {
	if g < 0 || int(g) >= len(timeGroupNames) {
		return fmt.Sprintf("TimeGroup(%d)", int(g))
	}
	return timeGroupNames[g]
}

// ParseTimeGroup accepts the lower-case group names.
func ParseTimeGroup(s string) (TimeGroup, error) {
	for i, n := range timeGroupNames {
		if strings.EqualFold(strings.TrimSpace(s), n) {
			return TimeGroup(i), nil
		}
	}
	return 0, fmt.Errorf("unknown time group %q: must be one of %v", s, timeGroupNames)
}

// Options returns the window definition of g. Quarterly windows span four
// months, not three.
func (g TimeGroup) Options() frame.DynamicGroupOptions {
	var span string
	switch g {
	case Quarterly:
		span = "4mo"
	case Monthly:
		span = "1mo"
	case Biweekly:
		span = "2w"
	default:
		span = "1w"
	}
	return frame.DynamicGroupOptions{
		Every:  frame.MustParseDuration(span),
		Period: frame.MustParseDuration(span),
		Offset: frame.MustParseDuration("0"),
	}
}

// Ledger is an immutable transaction table plus the names of its columns.
type Ledger struct {
	header Header
	table  *frame.Table
}

// New wraps table, checking that it holds the ledger columns the queries
// use with the expected kinds.
func New(table *frame.Table, header Header) (*Ledger, error) {
	if err := header.Validate(); err != nil {
		return nil, err
	}
	schema := table.Schema()
	for _, name := range []string{header.Date, header.Category, header.Account, header.Currency, header.Cost} {
		i := schema.Index(name)
		if i < 0 {
			return nil, fmt.Errorf("%w: ledger column %q missing from %v", frame.ErrUnknownColumn, name, schema.Names())
		}
		if want := header.KindOf(name); schema[i].Kind != want {
			return nil, fmt.Errorf("%w: ledger column %q is %s, want %s", frame.ErrKindMismatch, name, schema[i].Kind, want)
		}
	}
	return &Ledger{header: header, table: table}, nil
}

// FromTransactions builds a ledger table from transactions, in order.
func FromTransactions(header Header, txs []core.Transaction) (*Ledger, error) {
	table, err := frame.NewTable(header.Schema())
	if err != nil {
		return nil, err
	}
	for _, tx := range txs {
		row := []frame.Value{
			frame.DateValue(tx.Date),
			frame.TextValue(tx.Details),
			frame.TextValue(string(tx.Category)),
			frame.TextValue(tx.Account),
			frame.TextValue(tx.Currency),
			frame.MoneyValue(tx.Cost),
		}
		if err := table.AppendRow(row); err != nil {
			return nil, err
		}
	}
	return New(table, header)
}

func (l *Ledger) Table() *frame.Table {
	return l.table
}

func (l *Ledger) Header() Header {
	return l.header
}

// Summarize returns, per account and currency, the lifetime sum, mean, max
// and min of cost. All four are exact in cents; the mean is rounded half
// away from zero. Rows are ordered by account, then currency.
func (l *Ledger) Summarize() *frame.LazyFrame {
	h := l.header
	return l.table.Lazy().
		GroupBy(h.Account, h.Currency).
		Agg(
			frame.Sum(h.Cost),
			frame.Mean(h.Cost).Alias("Mean"),
			frame.Max(h.Cost).Alias("Max"),
			frame.Min(h.Cost).Alias("Min"),
		).
		Sort(h.Account, h.Currency)
}

// Nett returns the net cost per account, currency and time window,
// leaving out rows whose category is exactly ignoreCategory. Only windows
// that hold at least one row are returned, labelled by their start date
// and ordered by date, account, then currency.
func (l *Ledger) Nett(group TimeGroup, ignoreCategory string) *frame.LazyFrame {
	h := l.header
	return l.table.Lazy().
		Filter(func(r frame.Row) bool { return r.Text(h.Category) != ignoreCategory }).
		Sort(h.Date, h.Account, h.Currency).
		GroupByDynamic(h.Date, group.Options(), h.Account, h.Currency).
		Agg(frame.Sum(h.Cost)).
		Sort(h.Date, h.Account, h.Currency)
}
