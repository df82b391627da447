package services

import (
	"context"
	"fmt"
	"strings"

	"schedule-keeper/internal/domain"
	"schedule-keeper/internal/extract"
	"schedule-keeper/internal/repository"
)

// scheduleServiceImpl implements the ScheduleService interface
type scheduleServiceImpl struct {
	repo   repository.Repository
	mapper *domain.Mapper
	labels extract.LabelSet
}

// NewScheduleService creates a new ScheduleService instance. The label set
// should match the extractor's so rendered schedules round-trip.
func NewScheduleService(repo repository.Repository, labels extract.LabelSet) ScheduleService {
	return &scheduleServiceImpl{
		repo:   repo,
		mapper: domain.NewMapper(),
		labels: labels,
	}
}

// ListEvents retrieves stored events matching the search options
func (s *scheduleServiceImpl) ListEvents(ctx context.Context, opts repository.SearchOptions) ([]domain.Event, error) {
	recs, err := s.repo.ListEvents(ctx, opts)
	if err != nil {
		return nil, err
	}
	return s.mapper.Event.FromRecordSlice(recs), nil
}

// EventsForDate retrieves stored events for one date
func (s *scheduleServiceImpl) EventsForDate(ctx context.Context, date string) ([]domain.Event, error) {
	recs, err := s.repo.ListEventsForDate(ctx, date)
	if err != nil {
		return nil, err
	}
	return s.mapper.Event.FromRecordSlice(recs), nil
}

// GetEvent retrieves one stored event by ID
func (s *scheduleServiceImpl) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	rec, err := s.repo.GetEvent(ctx, id)
	if err != nil {
		return nil, err
	}
	event, err := s.mapper.Event.FromRecord(*rec)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// FormatSchedule renders events as labeled blocks in the same form the
// extractor reads.
func (s *scheduleServiceImpl) FormatSchedule(events []domain.Event) string {
	noAction := s.labels.ActionWord(domain.ActionUnchanged)
	if noAction == "" {
		noAction = "none"
	}

	var b strings.Builder
	for i, e := range events {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: %s\n", s.labels.Title, e.Title)
		fmt.Fprintf(&b, "%s: %s\n", s.labels.Date, e.Date)
		fmt.Fprintf(&b, "%s: %s\n", s.labels.Time, e.TimeRange)
		fmt.Fprintf(&b, "%s: %s\n", s.labels.Type, e.EventType)
		if e.Deadline != nil {
			fmt.Fprintf(&b, "%s: %s\n", s.labels.Deadline, *e.Deadline)
		}
		if e.Importance > 0 {
			fmt.Fprintf(&b, "%s: %d\n", s.labels.Importance, e.Importance)
		}
		if e.Recurrence.IsRecurring() {
			fmt.Fprintf(&b, "%s: %s\n", s.labels.Recurrence, e.Recurrence)
		}
		fmt.Fprintf(&b, "%s: %s\n", s.labels.Action, noAction)
	}
	return b.String()
}

// DescribeChanges diffs two stored snapshots. Events are matched by ID;
// before-only events are deleted, after-only events are added, and matched
// events with any field difference are modified.
func (s *scheduleServiceImpl) DescribeChanges(before, after []domain.Event) ScheduleChanges {
	var changes ScheduleChanges

	beforeByID := make(map[int64]domain.Event, len(before))
	for _, e := range before {
		beforeByID[e.ID] = e
	}
	afterIDs := make(map[int64]bool, len(after))

	for _, e := range after {
		afterIDs[e.ID] = true
		prev, ok := beforeByID[e.ID]
		if !ok {
			changes.Added = append(changes.Added, e)
			continue
		}
		if eventDiffers(prev, e) {
			changes.Modified = append(changes.Modified, EventChange{Before: prev, After: e})
		} else {
			changes.Unchanged = append(changes.Unchanged, e)
		}
	}
	for _, e := range before {
		if !afterIDs[e.ID] {
			changes.Deleted = append(changes.Deleted, e)
		}
	}
	return changes
}

func eventDiffers(a, b domain.Event) bool {
	return a.Title != b.Title ||
		a.Date != b.Date ||
		a.TimeRange != b.TimeRange ||
		a.EventType != b.EventType ||
		a.Importance != b.Importance ||
		a.Recurrence != b.Recurrence ||
		!equalOptString(a.Deadline, b.Deadline)
}

func equalOptString(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// FormatChanges renders a diff as human-readable lines
func (s *scheduleServiceImpl) FormatChanges(changes ScheduleChanges) string {
	var b strings.Builder

	if len(changes.Added) > 0 {
		b.WriteString("Added:\n")
		for _, e := range changes.Added {
			fmt.Fprintf(&b, "  %s\n", describeEvent(e))
		}
	}
	if len(changes.Modified) > 0 {
		b.WriteString("Modified:\n")
		for _, c := range changes.Modified {
			fmt.Fprintf(&b, "  %s -> %s\n", describeEvent(c.Before), describeEvent(c.After))
		}
	}
	if len(changes.Deleted) > 0 {
		b.WriteString("Deleted:\n")
		for _, e := range changes.Deleted {
			fmt.Fprintf(&b, "  %s\n", describeEvent(e))
		}
	}
	if len(changes.Unchanged) > 0 {
		fmt.Fprintf(&b, "Unchanged: %d\n", len(changes.Unchanged))
	}
	if b.Len() == 0 {
		return "No changes\n"
	}
	return b.String()
}

func describeEvent(e domain.Event) string {
	desc := fmt.Sprintf("'%s' %s %s [%s]", e.Title, e.Date, e.TimeRange, e.EventType)
	if e.Recurrence.IsRecurring() {
		desc += fmt.Sprintf(" (%s)", e.Recurrence)
	}
	return desc
}
