package repository

import (
	"context"
	"time"
)

// Event is the storage representation of a scheduled item. Time ranges are
// stored in their "HH:MM-HH:MM" wire form; the domain mapper parses them.
type Event struct {
	ID             int64
	Title          string
	Date           string
	TimeRange      string
	EventType      string
	Deadline       *string
	Importance     int
	RecurrenceRule string
	LastUpdated    time.Time
}

// CompletedTask is the storage representation of a completed occurrence.
type CompletedTask struct {
	ID              int64
	TaskID          int64
	Title           string
	Date            string
	TimeRange       string
	ActualTimeRange *string
	EventType       string
	Deadline        *string
	Importance      int
	CompletionDate  time.Time
	CompletionNotes *string
	ReflectionNotes *string
}

// SearchOptions restricts event and completion listings. Nil date bounds are
// open-ended. A zero Limit means no limit.
type SearchOptions struct {
	DateFrom *string
	DateTo   *string
	Limit    int
	Offset   int
}

// Repository is the persistence contract the reconciliation core depends on.
// It is implemented by the SQLite row-store and the CSV structured-file
// backend. Every method that touches more than one logical record commits
// atomically: either all constituent writes land or none do.
type Repository interface {
	// Event operations
	CreateEvent(ctx context.Context, event *Event) error
	GetEvent(ctx context.Context, id int64) (*Event, error)
	ListEvents(ctx context.Context, opts SearchOptions) ([]*Event, error)
	ListEventsForDate(ctx context.Context, date string) ([]*Event, error)
	ListRecurringEvents(ctx context.Context) ([]*Event, error)
	UpdateEvent(ctx context.Context, event *Event) error
	// DeleteEvent removes the event and cascades removal of any completion
	// records and occurrence markers referencing it.
	DeleteEvent(ctx context.Context, id int64) error

	// Completion records
	RecordCompletion(ctx context.Context, inst *CompletedTask) error
	ListCompletions(ctx context.Context, opts SearchOptions) ([]*CompletedTask, error)
	// DeleteCompletion removes the completion record for the given task id
	// and, for a recurring occurrence, the corresponding occurrence marker.
	DeleteCompletion(ctx context.Context, taskID int64) error
	UpdateCompletionReflection(ctx context.Context, taskID int64, notes string) error

	// Occurrence completion markers for recurring series
	OccurrenceCompleted(ctx context.Context, eventID int64, date string) (bool, error)
	MarkOccurrenceCompleted(ctx context.Context, eventID int64, date string) error
	UnmarkOccurrenceCompleted(ctx context.Context, eventID int64, date string) error

	// CompleteEvent records a completion as one atomic unit. For a recurring
	// event the occurrence marker is written alongside the completion record;
	// for a non-recurring event the active row is deleted alongside it.
	CompleteEvent(ctx context.Context, inst *CompletedTask, recurring bool) error
	// RestoreCompletedEvent moves a non-recurring completion back into the
	// active set, returning the restored event.
	RestoreCompletedEvent(ctx context.Context, taskID int64) (*Event, error)

	// RemoveDuplicateEvents deletes all but the lowest-id row of every
	// (title, date, time_range, event_type) group, returning the number of
	// rows removed.
	RemoveDuplicateEvents(ctx context.Context) (int, error)

	// Utility
	Close() error
}
