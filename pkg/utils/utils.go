package utils

import (
	"time"

	"github.com/shopspring/decimal"
)

// MoneyPlaces is the number of minor-unit digits kept for currency amounts.
const MoneyPlaces = 2

// RoundMoney rounds an amount to currency precision (half away from zero)
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(MoneyPlaces)
}

// SumMoney adds up a list of amounts
func SumMoney(amounts ...decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, a := range amounts {
		total = total.Add(a)
	}
	return total
}

// DateOnly drops the time of day, keeping the calendar date as seen in t's location.
// The result is expressed in UTC so day arithmetic is not affected by DST.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DaysBetween returns the number of calendar days from a to b (negative if b is before a)
func DaysBetween(a, b time.Time) int {
	return int(DateOnly(b).Sub(DateOnly(a)).Hours() / 24)
}

// DaysIn returns the number of days in the given month
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonthsClamped advances t by whole calendar months. The day of month is kept when the
// target month has it, otherwise it is clamped to the target month's last day
// (Jan 31 + 1 month = Feb 28/29).
func AddMonthsClamped(t time.Time, months int) time.Time {
	y, m, d := t.Date()
	target := time.Date(y, m+time.Month(months), 1, 0, 0, 0, 0, time.UTC)
	ty, tm, _ := target.Date()

	if last := DaysIn(ty, tm); d > last {
		d = last
	}

	return time.Date(ty, tm, d, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

// CalculateDueDate returns the due date of an installment, one calendar month per sequence step
func CalculateDueDate(startDate time.Time, sequence int) time.Time {
	return AddMonthsClamped(startDate, sequence)
}

// IsDateOverdue checks if a due date lies strictly before today (calendar days)
func IsDateOverdue(dueDate, today time.Time) bool {
	return DaysBetween(dueDate, today) > 0
}
