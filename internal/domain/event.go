package domain

import (
	"time"
)

// DateLayout is the wire and storage format for calendar dates. Dates are
// naive local wall-clock days with no timezone.
const DateLayout = "2006-01-02"

// RecurrenceRule identifies how a series event repeats. The empty string
// means the event is a single occurrence.
type RecurrenceRule string

const (
	RecurrenceNone     RecurrenceRule = ""
	RecurrenceDaily    RecurrenceRule = "daily"
	RecurrenceWeekly   RecurrenceRule = "weekly"
	RecurrenceWeekdays RecurrenceRule = "weekdays"
	RecurrenceMonthly  RecurrenceRule = "monthly"
	RecurrenceYearly   RecurrenceRule = "yearly"
)

// IsValid reports whether the rule is one of the supported values.
func (r RecurrenceRule) IsValid() bool {
	switch r {
	case RecurrenceNone, RecurrenceDaily, RecurrenceWeekly, RecurrenceWeekdays, RecurrenceMonthly, RecurrenceYearly:
		return true
	}
	return false
}

// IsRecurring reports whether the rule describes a series.
func (r RecurrenceRule) IsRecurring() bool {
	return r != RecurrenceNone && r.IsValid()
}

// Event is a scheduled item. A recurring event is stored as a single row
// whose rule expands into a series of occurrence dates.
type Event struct {
	ID          int64
	Title       string
	Date        string // YYYY-MM-DD
	TimeRange   TimeRange
	EventType   string
	Deadline    *string // YYYY-MM-DD, informational
	Importance  int     // 0-5, informational
	Recurrence  RecurrenceRule
	LastUpdated time.Time
}

// IsValid checks if the event has the minimum required data.
func (e Event) IsValid() bool {
	if e.Title == "" || e.EventType == "" {
		return false
	}
	if _, err := ParseDate(e.Date); err != nil {
		return false
	}
	return !e.TimeRange.IsDegenerate()
}

// SameSlot reports whether two events occupy the identical
// (title, date, time range) slot.
func (e Event) SameSlot(other Event) bool {
	return e.Title == other.Title && e.Date == other.Date && e.TimeRange == other.TimeRange
}

// IsExactDuplicateOf reports whether two events are identical in
// (title, date, time range, event type).
func (e Event) IsExactDuplicateOf(other Event) bool {
	return e.SameSlot(other) && e.EventType == other.EventType
}

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

// NextDay returns the date string of the day after the given date. The input
// must be a valid YYYY-MM-DD string.
func NextDay(date string) (string, error) {
	t, err := ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, 1).Format(DateLayout), nil
}
