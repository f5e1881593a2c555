package core

import (
	"fmt"
	"math"
	"time"
)

const secondsPerDay = 24 * 60 * 60

// spreadsheetEpochDays is the distance, in days, between the spreadsheet
// epoch and 1970-01-01 as approximated by the ledger workbook tooling.
const spreadsheetEpochDays = 70 * 365.25

// Date is a calendar day counted from 1970-01-01 (day 0).
type Date int32

// DateFromSerial converts a spreadsheet serial date number into a Date
// using floor(serial - 1 - 70*365.25).
//
// For whole serials this is exactly serial - 25569. A fractional serial
// is shifted by half a day, so any time of day at or after 12:00 lands on
// the following day.
func DateFromSerial(serial float64) Date {
	return Date(math.Floor(serial - 1 - spreadsheetEpochDays))
}

// NewDate creates a Date from year, month, day
func NewDate(year int, month time.Month, day int) Date {
	return DateOf(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// DateOf returns the Date holding t's calendar day. The time of day and
// location are ignored.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	return Date(midnight.Unix() / secondsPerDay)
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return DateOf(t), nil
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Unix(int64(d)*secondsPerDay, 0).UTC()
}

func (d Date) String() string {
	return d.Time().Format(time.DateOnly)
}
