package services

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schedule-keeper/internal/conflict"
	"schedule-keeper/internal/domain"
	"schedule-keeper/internal/extract"
	"schedule-keeper/internal/repository"
	"schedule-keeper/internal/repository/sqlite"
)

func setupRepo(t *testing.T) repository.Repository {
	t.Helper()
	repo, err := sqlite.New(filepath.Join(t.TempDir(), "schedule.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func setupReconciliation(t *testing.T) (ReconciliationService, repository.Repository) {
	t.Helper()
	repo := setupRepo(t)
	return NewReconciliationService(repo, extract.New(extract.DefaultLabels()), 0), repo
}

func storeEvent(t *testing.T, repo repository.Repository, title, date, timeRange, eventType, rule string) int64 {
	t.Helper()
	rec := &repository.Event{
		Title:          title,
		Date:           date,
		TimeRange:      timeRange,
		EventType:      eventType,
		RecurrenceRule: rule,
		LastUpdated:    time.Now(),
	}
	require.NoError(t, repo.CreateEvent(context.Background(), rec))
	return rec.ID
}

func block(title, date, timeRange, eventType, action string) string {
	return fmt.Sprintf("Title: %s\nDate: %s\nTime: %s\nType: %s\nAction: %s\n", title, date, timeRange, eventType, action)
}

func listAll(t *testing.T, repo repository.Repository) []*repository.Event {
	t.Helper()
	events, err := repo.ListEvents(context.Background(), repository.SearchOptions{})
	require.NoError(t, err)
	return events
}

func TestReconcile_EmptyInput(t *testing.T) {
	service, _ := setupReconciliation(t)

	summary, err := service.Reconcile(context.Background(), "just prose, nothing structured", ReconcileOptions{})
	require.NoError(t, err)
	assert.NotEmpty(t, summary.BatchID)
	assert.Zero(t, summary.Added)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "no valid operations")
}

func TestReconcile_AddsIntoFreeSlots(t *testing.T) {
	service, repo := setupReconciliation(t)

	text := block("Morning review", "2026-09-01", "09:00-09:30", "work", "add") + "\n" +
		block("Lunch", "2026-09-01", "12:00-13:00", "break", "add")
	summary, err := service.Reconcile(context.Background(), text, ReconcileOptions{})
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Added)
	assert.Zero(t, summary.Skipped)
	assert.Empty(t, summary.Errors)
	assert.Len(t, listAll(t, repo), 2)
}

func TestReconcile_ConflictPolicies(t *testing.T) {
	tests := []struct {
		name         string
		policy       conflict.Policy
		wantAdded    int
		wantSkipped  int
		wantErrors   int
		wantWarnings int
	}{
		{name: "reject refuses the conflicting add", policy: conflict.PolicyReject, wantAdded: 0, wantSkipped: 1, wantErrors: 1},
		{name: "skip passes over with a warning", policy: conflict.PolicySkip, wantAdded: 0, wantSkipped: 1, wantWarnings: 1},
		{name: "force applies with a warning", policy: conflict.PolicyForce, wantAdded: 1, wantWarnings: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service, repo := setupReconciliation(t)
			storeEvent(t, repo, "Standup", "2026-09-01", "09:00-09:30", "meeting", "")

			text := block("Overlapping", "2026-09-01", "09:15-10:00", "work", "add")
			summary, err := service.Reconcile(context.Background(), text, ReconcileOptions{Policy: tt.policy})
			require.NoError(t, err)

			assert.Equal(t, tt.wantAdded, summary.Added)
			assert.Equal(t, tt.wantSkipped, summary.Skipped)
			assert.Len(t, summary.Errors, tt.wantErrors)
			assert.Len(t, summary.Warnings, tt.wantWarnings)
			assert.Len(t, listAll(t, repo), 1+tt.wantAdded)
		})
	}
}

func TestReconcile_ExactDuplicateRefusedEvenUnderForce(t *testing.T) {
	service, repo := setupReconciliation(t)
	storeEvent(t, repo, "Standup", "2026-09-01", "09:00-09:30", "meeting", "")

	text := block("Standup", "2026-09-01", "09:00-09:30", "meeting", "add")
	summary, err := service.Reconcile(context.Background(), text, ReconcileOptions{Policy: conflict.PolicyForce})
	require.NoError(t, err)

	assert.Zero(t, summary.Added)
	assert.Equal(t, 1, summary.Skipped)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "already exists")
	assert.Len(t, listAll(t, repo), 1)
}

func TestReconcile_DeleteThenAddSameSlot(t *testing.T) {
	service, repo := setupReconciliation(t)
	storeEvent(t, repo, "Old meeting", "2026-09-01", "10:00-11:00", "meeting", "")

	// The deletion frees the slot before additions are checked.
	text := block("Old meeting", "2026-09-01", "10:00-11:00", "meeting", "delete") + "\n" +
		block("New meeting", "2026-09-01", "10:00-11:00", "meeting", "add")
	summary, err := service.Reconcile(context.Background(), text, ReconcileOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Deleted)
	assert.Equal(t, 1, summary.Added)
	assert.Empty(t, summary.Errors)

	events := listAll(t, repo)
	require.Len(t, events, 1)
	assert.Equal(t, "New meeting", events[0].Title)
}

func TestReconcile_DeleteRequiresExactSlot(t *testing.T) {
	service, repo := setupReconciliation(t)
	storeEvent(t, repo, "Meeting", "2026-09-01", "10:00-11:00", "meeting", "")

	// Same title and date, wrong time range.
	text := block("Meeting", "2026-09-01", "09:00-10:00", "meeting", "delete")
	summary, err := service.Reconcile(context.Background(), text, ReconcileOptions{})
	require.NoError(t, err)

	assert.Zero(t, summary.Deleted)
	assert.Zero(t, summary.Skipped)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "not found")
	assert.Len(t, listAll(t, repo), 1)
}

func TestReconcile_ModifyMovesEvent(t *testing.T) {
	service, repo := setupReconciliation(t)
	id := storeEvent(t, repo, "Report", "2026-09-01", "09:00-10:00", "work", "")

	text := block("Report", "2026-09-01", "14:00-16:00", "work", "modify")
	summary, err := service.Reconcile(context.Background(), text, ReconcileOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Modified)
	assert.Empty(t, summary.Errors)

	got, err := repo.GetEvent(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, "14:00-16:00", got.TimeRange)
}

func TestReconcile_ModifyUsesPreviousTimeHint(t *testing.T) {
	service, repo := setupReconciliation(t)
	storeEvent(t, repo, "Gym", "2026-09-01", "07:00-08:00", "personal", "")
	second := storeEvent(t, repo, "Gym", "2026-09-01", "18:00-19:00", "personal", "")

	text := "Title: Gym\nDate: 2026-09-01\nTime: 20:00-21:00\nPrevious time: 18:00-19:00\nType: personal\nAction: modify\n"
	summary, err := service.Reconcile(context.Background(), text, ReconcileOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Modified)

	got, err := repo.GetEvent(context.Background(), second)
	require.NoError(t, err)
	assert.Equal(t, "20:00-21:00", got.TimeRange, "the hint picks the evening session")
}

func TestReconcile_ModifyMissingTarget(t *testing.T) {
	service, _ := setupReconciliation(t)

	text := block("Ghost", "2026-09-01", "14:00-16:00", "work", "modify")
	summary, err := service.Reconcile(context.Background(), text, ReconcileOptions{})
	require.NoError(t, err)

	assert.Zero(t, summary.Modified)
	assert.Equal(t, 1, summary.Skipped)
	require.Len(t, summary.Errors, 1)
}

func TestReconcile_MutuallyConflictingModifications(t *testing.T) {
	service, repo := setupReconciliation(t)
	storeEvent(t, repo, "First", "2026-09-01", "08:00-09:00", "work", "")
	storeEvent(t, repo, "Second", "2026-09-01", "18:00-19:00", "work", "")

	// Both modifications want overlapping afternoon slots.
	text := block("First", "2026-09-01", "14:00-15:00", "work", "modify") + "\n" +
		block("Second", "2026-09-01", "14:30-15:30", "work", "modify")
	summary, err := service.Reconcile(context.Background(), text, ReconcileOptions{})
	require.NoError(t, err)

	assert.Zero(t, summary.Modified)
	assert.Equal(t, 2, summary.Skipped)
	assert.Len(t, summary.Errors, 2)

	// Neither stored event moved.
	events := listAll(t, repo)
	for _, e := range events {
		assert.NotContains(t, []string{"14:00-15:00", "14:30-15:30"}, e.TimeRange)
	}
}

func TestReconcile_MutuallyConflictingCrossMidnightModifications(t *testing.T) {
	service, repo := setupReconciliation(t)
	storeEvent(t, repo, "First", "2026-09-01", "08:00-09:00", "work", "")
	storeEvent(t, repo, "Second", "2026-09-01", "18:00-19:00", "work", "")

	// Both proposed slots cross midnight and overlap on both segments.
	text := block("First", "2026-09-01", "23:00-01:00", "work", "modify") + "\n" +
		block("Second", "2026-09-01", "23:30-00:30", "work", "modify")
	summary, err := service.Reconcile(context.Background(), text, ReconcileOptions{})
	require.NoError(t, err)

	assert.Zero(t, summary.Modified)
	assert.Equal(t, 2, summary.Skipped)
	assert.Len(t, summary.Errors, 2)

	for _, e := range listAll(t, repo) {
		assert.NotContains(t, []string{"23:00-01:00", "23:30-00:30"}, e.TimeRange)
	}
}

func TestReconcile_AdditionsCheckedAgainstEarlierAdditions(t *testing.T) {
	service, repo := setupReconciliation(t)

	text := block("First", "2026-09-01", "09:00-10:00", "work", "add") + "\n" +
		block("Second", "2026-09-01", "09:30-10:30", "work", "add")
	summary, err := service.Reconcile(context.Background(), text, ReconcileOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Added)
	assert.Equal(t, 1, summary.Skipped)
	require.Len(t, summary.Errors, 1)

	events := listAll(t, repo)
	require.Len(t, events, 1)
	assert.Equal(t, "First", events[0].Title)
}

func TestReconcile_CrossMidnightConflict(t *testing.T) {
	service, repo := setupReconciliation(t)
	storeEvent(t, repo, "Night shift", "2026-09-01", "23:00-01:00", "work", "")

	// The next morning still collides with the stored event's early segment.
	text := block("Early start", "2026-09-02", "00:30-01:30", "work", "add")
	summary, err := service.Reconcile(context.Background(), text, ReconcileOptions{})
	require.NoError(t, err)

	assert.Zero(t, summary.Added)
	assert.Equal(t, 1, summary.Skipped)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "Night shift")
}

func TestReconcile_UnchangedAndUnknownActions(t *testing.T) {
	service, _ := setupReconciliation(t)

	text := block("Keep me", "2026-09-01", "09:00-10:00", "work", "none") + "\n" +
		block("Mystery", "2026-09-01", "10:00-11:00", "work", "reschedule")
	summary, err := service.Reconcile(context.Background(), text, ReconcileOptions{})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Unchanged)
	assert.Zero(t, summary.Skipped)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "reschedule")
}

func TestReconcile_RecurringAddStoresSingleRow(t *testing.T) {
	service, repo := setupReconciliation(t)

	text := block("Weekly sync", "2026-09-01", "10:00-10:30", "meeting", "add")
	summary, err := service.Reconcile(context.Background(), text, ReconcileOptions{
		Recurrence:    domain.RecurrenceWeekly,
		RecurrenceEnd: "2026-09-30",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Added)
	events := listAll(t, repo)
	require.Len(t, events, 1, "a series is one stored row")
	assert.Equal(t, "weekly", events[0].RecurrenceRule)
}

func TestReconcile_RecurringSeriesRejectedWhenAnyOccurrenceConflicts(t *testing.T) {
	service, repo := setupReconciliation(t)
	// Conflicts only with the third weekly occurrence.
	storeEvent(t, repo, "Offsite", "2026-09-15", "10:00-11:00", "meeting", "")

	text := block("Weekly sync", "2026-09-01", "10:00-10:30", "meeting", "add")
	summary, err := service.Reconcile(context.Background(), text, ReconcileOptions{
		Recurrence:    domain.RecurrenceWeekly,
		RecurrenceEnd: "2026-09-30",
	})
	require.NoError(t, err)

	assert.Zero(t, summary.Added, "one bad occurrence aborts the whole series")
	assert.Equal(t, 1, summary.Skipped)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "Offsite")
	assert.Len(t, listAll(t, repo), 1)
}

func TestReconcile_RecurringSeriesForcedWithWarning(t *testing.T) {
	service, repo := setupReconciliation(t)
	storeEvent(t, repo, "Offsite", "2026-09-15", "10:00-11:00", "meeting", "")

	text := block("Weekly sync", "2026-09-01", "10:00-10:30", "meeting", "add")
	summary, err := service.Reconcile(context.Background(), text, ReconcileOptions{
		Policy:        conflict.PolicyForce,
		Recurrence:    domain.RecurrenceWeekly,
		RecurrenceEnd: "2026-09-30",
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Added)
	require.Len(t, summary.Warnings, 1)
	assert.Contains(t, summary.Warnings[0], "Offsite")
	assert.Len(t, listAll(t, repo), 2)
}

func TestReconcile_AddConflictsWithStoredSeriesOccurrence(t *testing.T) {
	service, repo := setupReconciliation(t)
	storeEvent(t, repo, "Daily standup", "2026-09-01", "09:00-09:15", "meeting", "daily")

	// A plain add a week later still hits the expanded series.
	text := block("Interview", "2026-09-08", "09:00-10:00", "meeting", "add")
	summary, err := service.Reconcile(context.Background(), text, ReconcileOptions{})
	require.NoError(t, err)

	assert.Zero(t, summary.Added)
	require.Len(t, summary.Errors, 1)
	assert.Contains(t, summary.Errors[0], "Daily standup")
}

func TestRemoveDuplicates(t *testing.T) {
	service, repo := setupReconciliation(t)
	storeEvent(t, repo, "Standup", "2026-09-01", "09:00-09:30", "meeting", "")
	storeEvent(t, repo, "Standup", "2026-09-01", "09:00-09:30", "meeting", "")

	removed, err := service.RemoveDuplicates(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
}
