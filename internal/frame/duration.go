package frame

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"beruang/internal/core"
)

// Duration is a calendar duration. Months follow the calendar (adding one
// month to the 31st clamps to the last day of the next month); weeks and
// days are fixed counts of days.
type Duration struct {
	Months int
	Weeks  int
	Days   int
}

// ParseDuration reads durations written as a sequence of <n><unit> terms
// with units "mo", "w" and "d", e.g. "4mo", "2w", "1mo2w". "0" is the zero
// duration and a leading "-" negates the whole duration.
func ParseDuration(s string) (Duration, error) {
	in := strings.TrimSpace(s)
	if in == "0" {
		return Duration{}, nil
	}
	sign := 1
	if strings.HasPrefix(in, "-") {
		sign = -1
		in = in[1:]
	}
	if in == "" {
		return Duration{}, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
	}
	var d Duration
	for in != "" {
		n := 0
		for n < len(in) && in[n] >= '0' && in[n] <= '9' {
			n++
		}
		if n == 0 {
			return Duration{}, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		v, err := strconv.Atoi(in[:n])
		if err != nil {
			return Duration{}, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
		in = in[n:]
		switch {
		case strings.HasPrefix(in, "mo"):
			d.Months += sign * v
			in = in[2:]
		case strings.HasPrefix(in, "w"):
			d.Weeks += sign * v
			in = in[1:]
		case strings.HasPrefix(in, "d"):
			d.Days += sign * v
			in = in[1:]
		default:
			return Duration{}, fmt.Errorf("%w: %q", ErrInvalidDuration, s)
		}
	}
	return d, nil
}

// MustParseDuration is ParseDuration for constant inputs.
func MustParseDuration(s string) Duration {
	d, err := ParseDuration(s)
	if err != nil {
		panic(err)
	}
	return d
}

func (d Duration) IsZero() bool {
	return d == Duration{}
}

func (d Duration) String() string {
	if d.IsZero() {
		return "0"
	}
	var b strings.Builder
	for _, term := range []struct {
		n    int
		unit string
	}{{d.Months, "mo"}, {d.Weeks, "w"}, {d.Days, "d"}} {
		if term.n != 0 {
			fmt.Fprintf(&b, "%d%s", term.n, term.unit)
		}
	}
	return b.String()
}

// Add returns date shifted by n times d.
func (d Duration) Add(date core.Date, n int) core.Date {
	if d.Months != 0 {
		date = addMonths(date, n*d.Months)
	}
	return date + core.Date(n*(7*d.Weeks+d.Days))
}

// Truncate returns the start of the d-sized bucket holding date. Month
// buckets count from January of year 0, week buckets start on Mondays and
// day buckets count from 1970-01-01.
func (d Duration) Truncate(date core.Date) (core.Date, error) {
	if err := d.single(); err != nil {
		return 0, err
	}
	switch {
	case d.Months > 0:
		t := date.Time()
		total := t.Year()*12 + int(t.Month()) - 1
		total -= floorMod(total, d.Months)
		return core.NewDate(floorDiv(total, 12), time.Month(floorMod(total, 12)+1), 1), nil
	case d.Weeks > 0:
		// 1969-12-29, day -3, is a Monday.
		return date - core.Date(floorMod(int(date)+3, 7*d.Weeks)), nil
	default:
		return date - core.Date(floorMod(int(date), d.Days)), nil
	}
}

// single reports whether d is a positive duration in exactly one unit.
func (d Duration) single() error {
	units := 0
	for _, n := range []int{d.Months, d.Weeks, d.Days} {
		if n < 0 {
			return fmt.Errorf("%w: %s must be positive", ErrInvalidDuration, d)
		}
		if n > 0 {
			units++
		}
	}
	if units != 1 {
		return fmt.Errorf("%w: %s must use exactly one unit", ErrInvalidDuration, d)
	}
	return nil
}

func addMonths(date core.Date, months int) core.Date {
	t := date.Time()
	total := t.Year()*12 + int(t.Month()) - 1 + months
	year, month := floorDiv(total, 12), time.Month(floorMod(total, 12)+1)
	day := t.Day()
	if last := daysIn(year, month); day > last {
		day = last
	}
	return core.NewDate(year, month, day)
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func floorMod(a, b int) int {
	m := a % b
	if m < 0 {
		m += b
	}
	return m
}

func floorDiv(a, b int) int {
	return (a - floorMod(a, b)) / b
}

// DynamicGroupOptions defines time windows: starting at Offset past each
// Every-aligned boundary, stepping by Every, each spanning Period.
type DynamicGroupOptions struct {
	Every  Duration
	Period Duration
	Offset Duration
}

// maxWindowsPerRow bounds the search for overlapping windows.
const maxWindowsPerRow = 1 << 12

func (o DynamicGroupOptions) Validate() error {
	if err := o.Every.single(); err != nil {
		return fmt.Errorf("every: %w", err)
	}
	if o.Period.IsZero() || o.Period.Months < 0 || o.Period.Weeks < 0 || o.Period.Days < 0 {
		return fmt.Errorf("period: %w: %s must be positive", ErrInvalidDuration, o.Period)
	}
	return nil
}

// start returns the start of the k-th window relative to base.
func (o DynamicGroupOptions) start(base core.Date, k int) core.Date {
	return o.Offset.Add(o.Every.Add(base, k), 1)
}

// windowsContaining returns, in ascending order, the start of every window
// [start, start+Period) holding date. Options must be valid.
func (o DynamicGroupOptions) windowsContaining(date core.Date) []core.Date {
	base, err := o.Every.Truncate(date)
	if err != nil {
		return nil
	}
	// k is the last window starting at or before date.
	k := 0
	for i := 0; o.start(base, k) > date && i < maxWindowsPerRow; i++ {
		k--
	}
	for i := 0; o.start(base, k+1) <= date && i < maxWindowsPerRow; i++ {
		k++
	}

	var starts []core.Date
	for i := 0; i < maxWindowsPerRow; i++ {
		s := o.start(base, k-i)
		if o.Period.Add(s, 1) <= date {
			break
		}
		starts = append(starts, s)
	}
	for i, j := 0, len(starts)-1; i < j; i, j = i+1, j-1 {
		starts[i], starts[j] = starts[j], starts[i]
	}
	return starts
}
