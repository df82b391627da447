package services

import (
	"context"

	"schedule-keeper/internal/conflict"
	"schedule-keeper/internal/domain"
	"schedule-keeper/internal/repository"
)

// ReconcileOptions controls how a batch of extracted operations is applied
type ReconcileOptions struct {
	// Policy decides what happens when an addition or modification overlaps
	// an existing event. Defaults to rejecting the operation.
	Policy conflict.Policy
	// Recurrence, when set, turns every addition in the batch into a
	// recurring series with this rule.
	Recurrence domain.RecurrenceRule
	// RecurrenceEnd is the inclusive last date of the series, YYYY-MM-DD.
	// Empty means the default horizon applies.
	RecurrenceEnd string
}

// Summary reports what a reconciliation batch did. Errors and Warnings are
// user-facing messages; a non-empty Errors slice does not mean the batch
// failed, only that some operations could not be applied.
type Summary struct {
	BatchID   string   `json:"batch_id"`
	Added     int      `json:"added"`
	Modified  int      `json:"modified"`
	Deleted   int      `json:"deleted"`
	Unchanged int      `json:"unchanged"`
	Skipped   int      `json:"skipped"`
	Errors    []string `json:"errors"`
	Warnings  []string `json:"warnings"`
}

// ScheduleChanges is a before/after diff of the stored schedule
type ScheduleChanges struct {
	Added     []domain.Event
	Modified  []EventChange
	Deleted   []domain.Event
	Unchanged []domain.Event
}

// EventChange pairs the stored state of an event before and after a batch
type EventChange struct {
	Before domain.Event
	After  domain.Event
}

// CompleteOptions carries the optional details of a completion
type CompleteOptions struct {
	// OccurrenceDate selects which occurrence of a recurring event is being
	// completed, YYYY-MM-DD. Ignored for non-recurring events; defaults to
	// today when completing a recurring event.
	OccurrenceDate string
	// ActualTimeRange records when the task was really done, if it differed
	// from the scheduled slot.
	ActualTimeRange *domain.TimeRange
	CompletionNotes string
	ReflectionNotes string
}

// ReconciliationService applies assistant-proposed schedule changes
type ReconciliationService interface {
	// Reconcile extracts operations from assistant text and applies them
	// against the stored schedule in deletion, modification, addition order.
	Reconcile(ctx context.Context, text string, opts ReconcileOptions) (*Summary, error)
	// RemoveDuplicates drops redundant copies of identical events, returning
	// how many rows were removed.
	RemoveDuplicates(ctx context.Context) (int, error)
}

// CompletionService tracks which events have been done
type CompletionService interface {
	// Complete marks an event done. Non-recurring events move to history;
	// recurring events stay active and the occurrence is marked.
	Complete(ctx context.Context, eventID int64, opts CompleteOptions) (*domain.CompletedInstance, error)
	// Uncomplete restores a non-recurring completion back to the active
	// schedule. Recurring occurrences cannot be uncompleted.
	Uncomplete(ctx context.Context, taskID int64) (*domain.Event, error)
	// DeleteCompleted removes a history record and any matching occurrence
	// marker, making a recurring occurrence completable again.
	DeleteCompleted(ctx context.Context, taskID int64) error
	// AddReflection attaches reflection notes to a history record.
	AddReflection(ctx context.Context, taskID int64, notes string) error
	// ListCompletions returns history records, newest first.
	ListCompletions(ctx context.Context, opts repository.SearchOptions) ([]domain.CompletedInstance, error)
}

// ScheduleService reads and renders the stored schedule
type ScheduleService interface {
	ListEvents(ctx context.Context, opts repository.SearchOptions) ([]domain.Event, error)
	EventsForDate(ctx context.Context, date string) ([]domain.Event, error)
	GetEvent(ctx context.Context, id int64) (*domain.Event, error)
	// FormatSchedule renders events in the labeled block form the extractor
	// reads, so a schedule can round-trip through assistant text.
	FormatSchedule(events []domain.Event) string
	// DescribeChanges diffs two stored snapshots into added, modified,
	// deleted and unchanged groups.
	DescribeChanges(before, after []domain.Event) ScheduleChanges
	// FormatChanges renders a diff as human-readable lines.
	FormatChanges(changes ScheduleChanges) string
}
