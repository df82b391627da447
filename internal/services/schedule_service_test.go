package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schedule-keeper/internal/domain"
	"schedule-keeper/internal/extract"
)

func setupSchedule(t *testing.T) (ScheduleService, ReconciliationService) {
	t.Helper()
	repo := setupRepo(t)
	labels := extract.DefaultLabels()
	return NewScheduleService(repo, labels),
		NewReconciliationService(repo, extract.New(labels), 0)
}

func TestFormatSchedule_RoundTripsThroughExtractor(t *testing.T) {
	schedule, _ := setupSchedule(t)

	deadline := "2026-09-10"
	tr, err := domain.ParseTimeRange("09:00-10:30")
	require.NoError(t, err)
	events := []domain.Event{
		{Title: "Write report", Date: "2026-09-01", TimeRange: tr, EventType: "work", Deadline: &deadline, Importance: 3},
		{Title: "Lunch", Date: "2026-09-01", TimeRange: mustParse(t, "12:00-13:00"), EventType: "break"},
	}

	rendered := schedule.FormatSchedule(events)

	ops := extract.New(extract.DefaultLabels()).Extract(rendered)
	require.Len(t, ops, 2)
	assert.Equal(t, "Write report", ops[0].Title)
	assert.Equal(t, "09:00-10:30", ops[0].TimeRange.String())
	require.NotNil(t, ops[0].Deadline)
	assert.Equal(t, deadline, *ops[0].Deadline)
	assert.Equal(t, 3, ops[0].Importance)
	assert.Equal(t, domain.ActionUnchanged, ops[0].Action)
	assert.Equal(t, "Lunch", ops[1].Title)
}

func mustParse(t *testing.T, s string) domain.TimeRange {
	t.Helper()
	tr, err := domain.ParseTimeRange(s)
	require.NoError(t, err)
	return tr
}

func TestDescribeChanges(t *testing.T) {
	schedule, _ := setupSchedule(t)

	before := []domain.Event{
		{ID: 1, Title: "Kept", Date: "2026-09-01", TimeRange: mustParse(t, "09:00-10:00"), EventType: "work"},
		{ID: 2, Title: "Moved", Date: "2026-09-01", TimeRange: mustParse(t, "10:00-11:00"), EventType: "work"},
		{ID: 3, Title: "Dropped", Date: "2026-09-01", TimeRange: mustParse(t, "11:00-12:00"), EventType: "work"},
	}
	after := []domain.Event{
		before[0],
		{ID: 2, Title: "Moved", Date: "2026-09-01", TimeRange: mustParse(t, "15:00-16:00"), EventType: "work"},
		{ID: 4, Title: "Fresh", Date: "2026-09-02", TimeRange: mustParse(t, "09:00-10:00"), EventType: "work"},
	}

	changes := schedule.DescribeChanges(before, after)

	require.Len(t, changes.Added, 1)
	assert.Equal(t, "Fresh", changes.Added[0].Title)
	require.Len(t, changes.Modified, 1)
	assert.Equal(t, "10:00-11:00", changes.Modified[0].Before.TimeRange.String())
	assert.Equal(t, "15:00-16:00", changes.Modified[0].After.TimeRange.String())
	require.Len(t, changes.Deleted, 1)
	assert.Equal(t, "Dropped", changes.Deleted[0].Title)
	require.Len(t, changes.Unchanged, 1)
	assert.Equal(t, "Kept", changes.Unchanged[0].Title)
}

func TestFormatChanges(t *testing.T) {
	schedule, _ := setupSchedule(t)

	changes := ScheduleChanges{
		Added:   []domain.Event{{Title: "Fresh", Date: "2026-09-02", TimeRange: mustParse(t, "09:00-10:00"), EventType: "work"}},
		Deleted: []domain.Event{{Title: "Dropped", Date: "2026-09-01", TimeRange: mustParse(t, "11:00-12:00"), EventType: "work"}},
	}

	out := schedule.FormatChanges(changes)
	assert.Contains(t, out, "Added:")
	assert.Contains(t, out, "'Fresh' 2026-09-02 09:00-10:00 [work]")
	assert.Contains(t, out, "Deleted:")
	assert.NotContains(t, out, "Modified:")

	assert.Equal(t, "No changes\n", schedule.FormatChanges(ScheduleChanges{}))
}

func TestListEventsReflectsReconciliation(t *testing.T) {
	schedule, reconcile := setupSchedule(t)

	text := block("Planning", "2026-09-01", "09:00-10:00", "work", "add")
	summary, err := reconcile.Reconcile(context.Background(), text, ReconcileOptions{})
	require.NoError(t, err)
	require.Equal(t, 1, summary.Added)

	events, err := schedule.EventsForDate(context.Background(), "2026-09-01")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Planning", events[0].Title)

	got, err := schedule.GetEvent(context.Background(), events[0].ID)
	require.NoError(t, err)
	assert.Equal(t, "Planning", got.Title)
}
