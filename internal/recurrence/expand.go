// Package recurrence generates the ordered occurrence dates of a recurring
// event. Expansion is a pure function of (start, rule, end).
package recurrence

import (
	"time"

	"schedule-keeper/internal/domain"
	"schedule-keeper/internal/errors"
)

// DefaultHorizonDays bounds an expansion when no end date is given.
const DefaultHorizonDays = 365

// Expand returns the ordered occurrence dates for the rule, starting at start
// and stopping at end inclusive. An empty end defaults to start plus
// DefaultHorizonDays. The none rule yields just the start date.
func Expand(start string, rule domain.RecurrenceRule, end string) ([]string, error) {
	return ExpandWithHorizon(start, rule, end, DefaultHorizonDays)
}

// ExpandWithHorizon is Expand with a configurable default horizon.
func ExpandWithHorizon(start string, rule domain.RecurrenceRule, end string, horizonDays int) ([]string, error) {
	startDate, err := domain.ParseDate(start)
	if err != nil {
		return nil, errors.NewInvalidDateFormatError(start)
	}
	if !rule.IsValid() {
		return nil, errors.NewUnsupportedRecurrenceRuleError(string(rule))
	}
	if rule == domain.RecurrenceNone {
		return []string{start}, nil
	}

	if horizonDays <= 0 {
		horizonDays = DefaultHorizonDays
	}
	endDate := startDate.AddDate(0, 0, horizonDays)
	if end != "" {
		endDate, err = domain.ParseDate(end)
		if err != nil {
			return nil, errors.NewInvalidDateFormatError(end)
		}
	}

	var dates []string
	current := startDate
	for !current.After(endDate) {
		switch rule {
		case domain.RecurrenceDaily:
			dates = append(dates, current.Format(domain.DateLayout))
			current = current.AddDate(0, 0, 1)
		case domain.RecurrenceWeekly:
			dates = append(dates, current.Format(domain.DateLayout))
			current = current.AddDate(0, 0, 7)
		case domain.RecurrenceWeekdays:
			if current.Weekday() != time.Saturday && current.Weekday() != time.Sunday {
				dates = append(dates, current.Format(domain.DateLayout))
			}
			current = current.AddDate(0, 0, 1)
		case domain.RecurrenceMonthly:
			dates = append(dates, current.Format(domain.DateLayout))
			current = nextMonthlyDate(current, startDate.Day())
		case domain.RecurrenceYearly:
			dates = append(dates, current.Format(domain.DateLayout))
			current = nextYearlyDate(current)
		}
	}
	return dates, nil
}

// OccursOn reports whether the series starting at start with the given rule
// and end date has an occurrence exactly on date.
func OccursOn(start string, rule domain.RecurrenceRule, end string, date string) (bool, error) {
	target, err := domain.ParseDate(date)
	if err != nil {
		return false, errors.NewInvalidDateFormatError(date)
	}
	dates, err := Expand(start, rule, end)
	if err != nil {
		return false, err
	}
	want := target.Format(domain.DateLayout)
	for _, d := range dates {
		if d == want {
			return true, nil
		}
		if d > want {
			// Output is ordered; no later occurrence can match.
			return false, nil
		}
	}
	return false, nil
}

// nextMonthlyDate advances to the anchor day of the following month, clamping
// to the last valid day when the month is shorter (Jan 31 -> Feb 28/29).
func nextMonthlyDate(current time.Time, anchorDay int) time.Time {
	year, month := current.Year(), int(current.Month())+1
	if month > 12 {
		month = 1
		year++
	}
	day := anchorDay
	if max := daysInMonth(year, time.Month(month)); day > max {
		day = max
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// nextYearlyDate advances to the same month/day next year. Feb 29 on a
// non-leap target year rolls forward to Mar 1.
func nextYearlyDate(current time.Time) time.Time {
	year := current.Year() + 1
	if current.Month() == time.February && current.Day() == 29 && !isLeapYear(year) {
		return time.Date(year, time.March, 1, 0, 0, 0, 0, time.UTC)
	}
	return time.Date(year, current.Month(), current.Day(), 0, 0, 0, 0, time.UTC)
}

func daysInMonth(year int, month time.Month) int {
	// Day zero of the next month is the last day of this month.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func isLeapYear(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}
