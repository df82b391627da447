package csvfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schedule-keeper/internal/errors"
	"schedule-keeper/internal/repository"
)

func setupTestStore(t *testing.T) *CSVRepository {
	t.Helper()
	repo, err := New(t.TempDir())
	require.NoError(t, err)
	return repo
}

func testEvent(title, date, timeRange string) *repository.Event {
	return &repository.Event{
		Title:       title,
		Date:        date,
		TimeRange:   timeRange,
		EventType:   "work",
		LastUpdated: time.Now(),
	}
}

func TestCreateGetUpdateDelete(t *testing.T) {
	repo := setupTestStore(t)
	ctx := context.Background()

	event := testEvent("Write report", "2026-09-01", "09:00-11:00")
	require.NoError(t, repo.CreateEvent(ctx, event))
	assert.Equal(t, int64(1), event.ID)

	second := testEvent("Second", "2026-09-02", "09:00-10:00")
	require.NoError(t, repo.CreateEvent(ctx, second))
	assert.Equal(t, int64(2), second.ID)

	got, err := repo.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Write report", got.Title)

	event.TimeRange = "10:00-12:00"
	require.NoError(t, repo.UpdateEvent(ctx, event))
	got, err = repo.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "10:00-12:00", got.TimeRange)

	require.NoError(t, repo.DeleteEvent(ctx, event.ID))
	_, err = repo.GetEvent(ctx, event.ID)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))

	err = repo.DeleteEvent(ctx, event.ID)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))
}

func TestIDsNotReusedWithinFile(t *testing.T) {
	repo := setupTestStore(t)
	ctx := context.Background()

	a := testEvent("A", "2026-09-01", "09:00-10:00")
	require.NoError(t, repo.CreateEvent(ctx, a))
	b := testEvent("B", "2026-09-01", "10:00-11:00")
	require.NoError(t, repo.CreateEvent(ctx, b))

	require.NoError(t, repo.DeleteEvent(ctx, a.ID))

	c := testEvent("C", "2026-09-01", "11:00-12:00")
	require.NoError(t, repo.CreateEvent(ctx, c))
	// IDs are max+1, so deleting the oldest row does not recycle its id while
	// a newer one exists.
	assert.Equal(t, b.ID+1, c.ID)
}

func TestListEvents_FiltersAndOrders(t *testing.T) {
	repo := setupTestStore(t)
	ctx := context.Background()

	require.NoError(t, repo.CreateEvent(ctx, testEvent("C", "2026-09-03", "09:00-10:00")))
	require.NoError(t, repo.CreateEvent(ctx, testEvent("A", "2026-09-01", "14:00-15:00")))
	require.NoError(t, repo.CreateEvent(ctx, testEvent("B", "2026-09-01", "09:00-10:00")))

	all, err := repo.ListEvents(ctx, repository.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"B", "A", "C"}, []string{all[0].Title, all[1].Title, all[2].Title})

	day, err := repo.ListEventsForDate(ctx, "2026-09-01")
	require.NoError(t, err)
	assert.Len(t, day, 2)

	limited, err := repo.ListEvents(ctx, repository.SearchOptions{Limit: 2, Offset: 2})
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, "C", limited[0].Title)
}

func TestPersistenceAcrossInstances(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	repo, err := New(dir)
	require.NoError(t, err)
	deadline := "2026-09-05"
	event := testEvent("Persisted", "2026-09-01", "09:00-10:00")
	event.Deadline = &deadline
	event.RecurrenceRule = "weekly"
	require.NoError(t, repo.CreateEvent(ctx, event))

	reopened, err := New(dir)
	require.NoError(t, err)
	got, err := reopened.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Persisted", got.Title)
	require.NotNil(t, got.Deadline)
	assert.Equal(t, deadline, *got.Deadline)
	assert.Equal(t, "weekly", got.RecurrenceRule)
}

func TestCompleteEvent_NonRecurring(t *testing.T) {
	repo := setupTestStore(t)
	ctx := context.Background()

	event := testEvent("Errand", "2026-09-01", "12:00-13:00")
	require.NoError(t, repo.CreateEvent(ctx, event))

	inst := &repository.CompletedTask{
		TaskID:         event.ID,
		Title:          event.Title,
		Date:           event.Date,
		TimeRange:      event.TimeRange,
		EventType:      event.EventType,
		CompletionDate: time.Now(),
	}
	require.NoError(t, repo.CompleteEvent(ctx, inst, false))

	_, err := repo.GetEvent(ctx, event.ID)
	assert.True(t, errors.IsErrorType(err, errors.ErrorTypeNotFound))

	completions, err := repo.ListCompletions(ctx, repository.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, completions, 1)
	assert.Equal(t, event.ID, completions[0].TaskID)

	restored, err := repo.RestoreCompletedEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, "Errand", restored.Title)

	completions, err = repo.ListCompletions(ctx, repository.SearchOptions{})
	require.NoError(t, err)
	assert.Empty(t, completions)
}

func TestCompleteEvent_RecurringMarksOccurrence(t *testing.T) {
	repo := setupTestStore(t)
	ctx := context.Background()

	event := testEvent("Daily review", "2026-09-01", "17:00-17:30")
	event.RecurrenceRule = "daily"
	require.NoError(t, repo.CreateEvent(ctx, event))

	inst := &repository.CompletedTask{
		TaskID:         event.ID,
		Title:          event.Title,
		Date:           "2026-09-02",
		TimeRange:      event.TimeRange,
		EventType:      event.EventType,
		CompletionDate: time.Now(),
	}
	require.NoError(t, repo.CompleteEvent(ctx, inst, true))

	_, err := repo.GetEvent(ctx, event.ID)
	assert.NoError(t, err, "series row stays active")

	done, err := repo.OccurrenceCompleted(ctx, event.ID, "2026-09-02")
	require.NoError(t, err)
	assert.True(t, done)

	require.NoError(t, repo.DeleteCompletion(ctx, event.ID))
	done, err = repo.OccurrenceCompleted(ctx, event.ID, "2026-09-02")
	require.NoError(t, err)
	assert.False(t, done)
}

func TestDeleteCompletion_KeepsOlderOccurrences(t *testing.T) {
	repo := setupTestStore(t)
	ctx := context.Background()

	event := testEvent("Daily review", "2026-09-01", "17:00-17:30")
	event.RecurrenceRule = "daily"
	require.NoError(t, repo.CreateEvent(ctx, event))

	for _, date := range []string{"2026-09-01", "2026-09-02"} {
		inst := &repository.CompletedTask{
			TaskID:         event.ID,
			Title:          event.Title,
			Date:           date,
			TimeRange:      event.TimeRange,
			EventType:      event.EventType,
			CompletionDate: time.Now(),
		}
		require.NoError(t, repo.CompleteEvent(ctx, inst, true))
	}

	require.NoError(t, repo.DeleteCompletion(ctx, event.ID))

	done, err := repo.OccurrenceCompleted(ctx, event.ID, "2026-09-02")
	require.NoError(t, err)
	assert.False(t, done)
	done, err = repo.OccurrenceCompleted(ctx, event.ID, "2026-09-01")
	require.NoError(t, err)
	assert.True(t, done, "earlier occurrence keeps its record and marker")

	completions, err := repo.ListCompletions(ctx, repository.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, completions, 1)
	assert.Equal(t, "2026-09-01", completions[0].Date)
}

func TestRemoveDuplicateEvents(t *testing.T) {
	repo := setupTestStore(t)
	ctx := context.Background()

	first := testEvent("Standup", "2026-09-01", "09:00-09:30")
	require.NoError(t, repo.CreateEvent(ctx, first))
	require.NoError(t, repo.CreateEvent(ctx, testEvent("Standup", "2026-09-01", "09:00-09:30")))
	require.NoError(t, repo.CreateEvent(ctx, testEvent("Other", "2026-09-01", "10:00-11:00")))

	removed, err := repo.RemoveDuplicateEvents(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	events, err := repo.ListEvents(ctx, repository.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, first.ID, events[0].ID)
}

func TestFieldsWithCommasSurviveRoundTrip(t *testing.T) {
	repo := setupTestStore(t)
	ctx := context.Background()

	event := testEvent(`Call "mom", then shop`, "2026-09-01", "18:00-19:00")
	require.NoError(t, repo.CreateEvent(ctx, event))

	got, err := repo.GetEvent(ctx, event.ID)
	require.NoError(t, err)
	assert.Equal(t, `Call "mom", then shop`, got.Title)

	raw, err := os.ReadFile(filepath.Join(repo.dir, eventsFile))
	require.NoError(t, err)
	assert.NotEmpty(t, raw)
}
