package domain

import (
	"time"
)

// CompletedInstance is the historical record of one completed occurrence.
// TaskID is a weak reference: the originating event may since have been
// deleted. For a recurring event, Date is the specific occurrence completed;
// for a non-recurring event it is the event's own date.
type CompletedInstance struct {
	ID              int64
	TaskID          int64
	Title           string
	Date            string
	TimeRange       TimeRange
	ActualTimeRange *TimeRange
	EventType       string
	Deadline        *string
	Importance      int
	CompletionDate  time.Time
	CompletionNotes *string
	ReflectionNotes *string
}
