package csvfile

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"sync"
	"time"

	"schedule-keeper/internal/errors"
	"schedule-keeper/internal/repository"
)

const (
	eventsFile      = "events.csv"
	completedFile   = "completed.csv"
	occurrencesFile = "occurrences.csv"

	timestampLayout = time.RFC3339
)

var eventsHeader = []string{"id", "title", "date", "time_range", "event_type", "deadline", "importance", "recurrence_rule", "last_updated"}

var completedHeader = []string{"id", "task_id", "title", "date", "time_range", "actual_time_range", "event_type", "deadline", "importance", "completion_date", "completion_notes", "reflection_notes"}

var occurrencesHeader = []string{"event_id", "date", "completion_date"}

// occurrenceMarker is a completed occurrence of a recurring event
type occurrenceMarker struct {
	EventID        int64
	Date           string
	CompletionDate string
}

// CSVRepository implements repository.Repository over three CSV files in a
// directory. Every mutation rewrites the affected file through a temp file
// and rename so readers never observe a partial write.
type CSVRepository struct {
	mu  sync.Mutex
	dir string
}

// New creates a CSV repository rooted at dir, creating it if needed
func New(dir string) (*CSVRepository, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.NewDatabaseError("create data directory", err)
	}
	return &CSVRepository{dir: dir}, nil
}

// Close is a no-op; CSV files hold no open handles between operations
func (r *CSVRepository) Close() error {
	return nil
}

func (r *CSVRepository) path(name string) string {
	return filepath.Join(r.dir, name)
}

func readRecords(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, errors.NewDatabaseError("open "+filepath.Base(path), err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.NewDatabaseError("read "+filepath.Base(path), err)
	}
	if len(records) > 0 {
		records = records[1:]
	}
	return records, nil
}

// writeRecords writes the header and rows to a temp file in the same
// directory, then renames it over the target.
func writeRecords(path string, header []string, rows [][]string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return errors.NewDatabaseError("create temp file", err)
	}
	tmpName := tmp.Name()

	writer := csv.NewWriter(tmp)
	if err := writer.Write(header); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewDatabaseError("write "+filepath.Base(path), err)
	}
	if err := writer.WriteAll(rows); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewDatabaseError("write "+filepath.Base(path), err)
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return errors.NewDatabaseError("write "+filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return errors.NewDatabaseError("close temp file", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return errors.NewDatabaseError("replace "+filepath.Base(path), err)
	}
	return nil
}

func optString(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func optPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func eventToRow(e *repository.Event) []string {
	return []string{
		strconv.FormatInt(e.ID, 10),
		e.Title,
		e.Date,
		e.TimeRange,
		e.EventType,
		optString(e.Deadline),
		strconv.Itoa(e.Importance),
		e.RecurrenceRule,
		e.LastUpdated.Format(timestampLayout),
	}
}

func rowToEvent(row []string) (*repository.Event, error) {
	if len(row) < 9 {
		return nil, fmt.Errorf("malformed event row: %d fields", len(row))
	}
	id, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed event id %q", row[0])
	}
	importance, err := strconv.Atoi(row[6])
	if err != nil {
		return nil, fmt.Errorf("malformed importance %q", row[6])
	}
	lastUpdated, _ := time.Parse(timestampLayout, row[8])
	return &repository.Event{
		ID:             id,
		Title:          row[1],
		Date:           row[2],
		TimeRange:      row[3],
		EventType:      row[4],
		Deadline:       optPtr(row[5]),
		Importance:     importance,
		RecurrenceRule: row[7],
		LastUpdated:    lastUpdated,
	}, nil
}

func completedToRow(t *repository.CompletedTask) []string {
	return []string{
		strconv.FormatInt(t.ID, 10),
		strconv.FormatInt(t.TaskID, 10),
		t.Title,
		t.Date,
		t.TimeRange,
		optString(t.ActualTimeRange),
		t.EventType,
		optString(t.Deadline),
		strconv.Itoa(t.Importance),
		t.CompletionDate.Format(timestampLayout),
		optString(t.CompletionNotes),
		optString(t.ReflectionNotes),
	}
}

func rowToCompleted(row []string) (*repository.CompletedTask, error) {
	if len(row) < 12 {
		return nil, fmt.Errorf("malformed completion row: %d fields", len(row))
	}
	id, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed completion id %q", row[0])
	}
	taskID, err := strconv.ParseInt(row[1], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("malformed task id %q", row[1])
	}
	importance, err := strconv.Atoi(row[8])
	if err != nil {
		return nil, fmt.Errorf("malformed importance %q", row[8])
	}
	completionDate, _ := time.Parse(timestampLayout, row[9])
	return &repository.CompletedTask{
		ID:              id,
		TaskID:          taskID,
		Title:           row[2],
		Date:            row[3],
		TimeRange:       row[4],
		ActualTimeRange: optPtr(row[5]),
		EventType:       row[6],
		Deadline:        optPtr(row[7]),
		Importance:      importance,
		CompletionDate:  completionDate,
		CompletionNotes: optPtr(row[10]),
		ReflectionNotes: optPtr(row[11]),
	}, nil
}

func (r *CSVRepository) loadEvents() ([]*repository.Event, error) {
	records, err := readRecords(r.path(eventsFile))
	if err != nil {
		return nil, err
	}
	events := make([]*repository.Event, 0, len(records))
	for _, row := range records {
		event, err := rowToEvent(row)
		if err != nil {
			return nil, errors.NewDatabaseError("parse events file", err)
		}
		events = append(events, event)
	}
	return events, nil
}

func (r *CSVRepository) saveEvents(events []*repository.Event) error {
	rows := make([][]string, 0, len(events))
	for _, e := range events {
		rows = append(rows, eventToRow(e))
	}
	return writeRecords(r.path(eventsFile), eventsHeader, rows)
}

func (r *CSVRepository) loadCompleted() ([]*repository.CompletedTask, error) {
	records, err := readRecords(r.path(completedFile))
	if err != nil {
		return nil, err
	}
	tasks := make([]*repository.CompletedTask, 0, len(records))
	for _, row := range records {
		task, err := rowToCompleted(row)
		if err != nil {
			return nil, errors.NewDatabaseError("parse completions file", err)
		}
		tasks = append(tasks, task)
	}
	return tasks, nil
}

func (r *CSVRepository) saveCompleted(tasks []*repository.CompletedTask) error {
	rows := make([][]string, 0, len(tasks))
	for _, t := range tasks {
		rows = append(rows, completedToRow(t))
	}
	return writeRecords(r.path(completedFile), completedHeader, rows)
}

func (r *CSVRepository) loadOccurrences() ([]occurrenceMarker, error) {
	records, err := readRecords(r.path(occurrencesFile))
	if err != nil {
		return nil, err
	}
	markers := make([]occurrenceMarker, 0, len(records))
	for _, row := range records {
		if len(row) < 3 {
			return nil, errors.NewDatabaseError("parse occurrences file",
				fmt.Errorf("malformed occurrence row: %d fields", len(row)))
		}
		eventID, err := strconv.ParseInt(row[0], 10, 64)
		if err != nil {
			return nil, errors.NewDatabaseError("parse occurrences file",
				fmt.Errorf("malformed event id %q", row[0]))
		}
		markers = append(markers, occurrenceMarker{EventID: eventID, Date: row[1], CompletionDate: row[2]})
	}
	return markers, nil
}

func (r *CSVRepository) saveOccurrences(markers []occurrenceMarker) error {
	rows := make([][]string, 0, len(markers))
	for _, m := range markers {
		rows = append(rows, []string{strconv.FormatInt(m.EventID, 10), m.Date, m.CompletionDate})
	}
	return writeRecords(r.path(occurrencesFile), occurrencesHeader, rows)
}

func nextEventID(events []*repository.Event) int64 {
	var max int64
	for _, e := range events {
		if e.ID > max {
			max = e.ID
		}
	}
	return max + 1
}

func nextCompletionID(tasks []*repository.CompletedTask) int64 {
	var max int64
	for _, t := range tasks {
		if t.ID > max {
			max = t.ID
		}
	}
	return max + 1
}

// CreateEvent appends a new event and assigns it the next free ID
func (r *CSVRepository) CreateEvent(ctx context.Context, event *repository.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	events, err := r.loadEvents()
	if err != nil {
		return err
	}
	event.ID = nextEventID(events)
	events = append(events, event)
	return r.saveEvents(events)
}

// GetEvent retrieves an event by ID
func (r *CSVRepository) GetEvent(ctx context.Context, id int64) (*repository.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	events, err := r.loadEvents()
	if err != nil {
		return nil, err
	}
	for _, e := range events {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, errors.NewNotFoundError("event", fmt.Sprintf("%d", id))
}

func sortEvents(events []*repository.Event) {
	sort.Slice(events, func(i, j int) bool {
		if events[i].Date != events[j].Date {
			return events[i].Date < events[j].Date
		}
		if events[i].TimeRange != events[j].TimeRange {
			return events[i].TimeRange < events[j].TimeRange
		}
		return events[i].ID < events[j].ID
	})
}

// ListEvents retrieves events matching the search options
func (r *CSVRepository) ListEvents(ctx context.Context, opts repository.SearchOptions) ([]*repository.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	events, err := r.loadEvents()
	if err != nil {
		return nil, err
	}

	filtered := make([]*repository.Event, 0, len(events))
	for _, e := range events {
		if opts.DateFrom != nil && e.Date < *opts.DateFrom {
			continue
		}
		if opts.DateTo != nil && e.Date > *opts.DateTo {
			continue
		}
		filtered = append(filtered, e)
	}
	sortEvents(filtered)

	if opts.Limit > 0 {
		if opts.Offset >= len(filtered) {
			return nil, nil
		}
		filtered = filtered[opts.Offset:]
		if len(filtered) > opts.Limit {
			filtered = filtered[:opts.Limit]
		}
	}
	return filtered, nil
}

// ListEventsForDate retrieves all events stored on the given date
func (r *CSVRepository) ListEventsForDate(ctx context.Context, date string) ([]*repository.Event, error) {
	return r.ListEvents(ctx, repository.SearchOptions{DateFrom: &date, DateTo: &date})
}

// ListRecurringEvents retrieves all events carrying a recurrence rule
func (r *CSVRepository) ListRecurringEvents(ctx context.Context) ([]*repository.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	events, err := r.loadEvents()
	if err != nil {
		return nil, err
	}
	recurring := make([]*repository.Event, 0)
	for _, e := range events {
		if e.RecurrenceRule != "" {
			recurring = append(recurring, e)
		}
	}
	sortEvents(recurring)
	return recurring, nil
}

// UpdateEvent replaces an existing event row
func (r *CSVRepository) UpdateEvent(ctx context.Context, event *repository.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	events, err := r.loadEvents()
	if err != nil {
		return err
	}
	for i, e := range events {
		if e.ID == event.ID {
			events[i] = event
			return r.saveEvents(events)
		}
	}
	return errors.NewNotFoundError("event", fmt.Sprintf("%d", event.ID))
}

// DeleteEvent removes an event along with its completion records and
// occurrence markers. All three files are staged before any rename so the
// cascade lands as a unit.
func (r *CSVRepository) DeleteEvent(ctx context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	events, err := r.loadEvents()
	if err != nil {
		return err
	}
	kept := events[:0]
	found := false
	for _, e := range events {
		if e.ID == id {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return errors.NewNotFoundError("event", fmt.Sprintf("%d", id))
	}

	completed, err := r.loadCompleted()
	if err != nil {
		return err
	}
	keptCompleted := completed[:0]
	for _, t := range completed {
		if t.TaskID != id {
			keptCompleted = append(keptCompleted, t)
		}
	}

	markers, err := r.loadOccurrences()
	if err != nil {
		return err
	}
	keptMarkers := markers[:0]
	for _, m := range markers {
		if m.EventID != id {
			keptMarkers = append(keptMarkers, m)
		}
	}

	if err := r.saveEvents(kept); err != nil {
		return err
	}
	if err := r.saveCompleted(keptCompleted); err != nil {
		return err
	}
	return r.saveOccurrences(keptMarkers)
}

// RecordCompletion appends a completion record
func (r *CSVRepository) RecordCompletion(ctx context.Context, inst *repository.CompletedTask) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	completed, err := r.loadCompleted()
	if err != nil {
		return err
	}
	inst.ID = nextCompletionID(completed)
	completed = append(completed, inst)
	return r.saveCompleted(completed)
}

// ListCompletions retrieves completion records matching the search options
func (r *CSVRepository) ListCompletions(ctx context.Context, opts repository.SearchOptions) ([]*repository.CompletedTask, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	completed, err := r.loadCompleted()
	if err != nil {
		return nil, err
	}

	filtered := make([]*repository.CompletedTask, 0, len(completed))
	for _, t := range completed {
		if opts.DateFrom != nil && t.Date < *opts.DateFrom {
			continue
		}
		if opts.DateTo != nil && t.Date > *opts.DateTo {
			continue
		}
		filtered = append(filtered, t)
	}
	sort.Slice(filtered, func(i, j int) bool {
		if !filtered[i].CompletionDate.Equal(filtered[j].CompletionDate) {
			return filtered[i].CompletionDate.After(filtered[j].CompletionDate)
		}
		return filtered[i].ID > filtered[j].ID
	})

	if opts.Limit > 0 {
		if opts.Offset >= len(filtered) {
			return nil, nil
		}
		filtered = filtered[opts.Offset:]
		if len(filtered) > opts.Limit {
			filtered = filtered[:opts.Limit]
		}
	}
	return filtered, nil
}

// DeleteCompletion removes the newest completion record for a task and the
// occurrence marker for that record's date. Older completions of the same
// recurring event keep their records and markers.
func (r *CSVRepository) DeleteCompletion(ctx context.Context, taskID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	completed, err := r.loadCompleted()
	if err != nil {
		return err
	}
	newest := -1
	for i, t := range completed {
		if t.TaskID == taskID && (newest == -1 || t.ID > completed[newest].ID) {
			newest = i
		}
	}
	if newest == -1 {
		return errors.NewNotFoundError("completed task", fmt.Sprintf("%d", taskID))
	}
	removedDate := completed[newest].Date
	kept := append(completed[:newest:newest], completed[newest+1:]...)

	markers, err := r.loadOccurrences()
	if err != nil {
		return err
	}
	keptMarkers := markers[:0]
	for _, m := range markers {
		if m.EventID == taskID && m.Date == removedDate {
			continue
		}
		keptMarkers = append(keptMarkers, m)
	}

	if err := r.saveCompleted(kept); err != nil {
		return err
	}
	return r.saveOccurrences(keptMarkers)
}

// UpdateCompletionReflection sets the reflection notes on a completion record
func (r *CSVRepository) UpdateCompletionReflection(ctx context.Context, taskID int64, notes string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	completed, err := r.loadCompleted()
	if err != nil {
		return err
	}
	found := false
	for _, t := range completed {
		if t.TaskID == taskID {
			t.ReflectionNotes = optPtr(notes)
			found = true
		}
	}
	if !found {
		return errors.NewNotFoundError("completed task", fmt.Sprintf("%d", taskID))
	}
	return r.saveCompleted(completed)
}

// OccurrenceCompleted reports whether an occurrence of a recurring event has
// already been completed.
func (r *CSVRepository) OccurrenceCompleted(ctx context.Context, eventID int64, date string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	markers, err := r.loadOccurrences()
	if err != nil {
		return false, err
	}
	for _, m := range markers {
		if m.EventID == eventID && m.Date == date {
			return true, nil
		}
	}
	return false, nil
}

// MarkOccurrenceCompleted records an occurrence completion marker. Marking an
// already-marked occurrence is a no-op.
func (r *CSVRepository) MarkOccurrenceCompleted(ctx context.Context, eventID int64, date string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	markers, err := r.loadOccurrences()
	if err != nil {
		return err
	}
	for _, m := range markers {
		if m.EventID == eventID && m.Date == date {
			return nil
		}
	}
	markers = append(markers, occurrenceMarker{
		EventID:        eventID,
		Date:           date,
		CompletionDate: time.Now().Format(timestampLayout),
	})
	return r.saveOccurrences(markers)
}

// UnmarkOccurrenceCompleted removes an occurrence completion marker
func (r *CSVRepository) UnmarkOccurrenceCompleted(ctx context.Context, eventID int64, date string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	markers, err := r.loadOccurrences()
	if err != nil {
		return err
	}
	kept := markers[:0]
	found := false
	for _, m := range markers {
		if m.EventID == eventID && m.Date == date {
			found = true
			continue
		}
		kept = append(kept, m)
	}
	if !found {
		return errors.NewNotFoundError("occurrence marker", fmt.Sprintf("%d/%s", eventID, date))
	}
	return r.saveOccurrences(kept)
}

// CompleteEvent writes a completion as one unit. Recurring events keep their
// stored row and gain an occurrence marker; non-recurring events move out of
// the active set entirely.
func (r *CSVRepository) CompleteEvent(ctx context.Context, inst *repository.CompletedTask, recurring bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	completed, err := r.loadCompleted()
	if err != nil {
		return err
	}
	inst.ID = nextCompletionID(completed)
	completed = append(completed, inst)

	if recurring {
		markers, err := r.loadOccurrences()
		if err != nil {
			return err
		}
		present := false
		for _, m := range markers {
			if m.EventID == inst.TaskID && m.Date == inst.Date {
				present = true
				break
			}
		}
		if !present {
			markers = append(markers, occurrenceMarker{
				EventID:        inst.TaskID,
				Date:           inst.Date,
				CompletionDate: inst.CompletionDate.Format(timestampLayout),
			})
		}
		if err := r.saveCompleted(completed); err != nil {
			return err
		}
		return r.saveOccurrences(markers)
	}

	events, err := r.loadEvents()
	if err != nil {
		return err
	}
	kept := events[:0]
	found := false
	for _, e := range events {
		if e.ID == inst.TaskID {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return errors.NewNotFoundError("event", fmt.Sprintf("%d", inst.TaskID))
	}

	if err := r.saveCompleted(completed); err != nil {
		return err
	}
	return r.saveEvents(kept)
}

// RestoreCompletedEvent moves a non-recurring completion back into the active
// set and returns the restored event.
func (r *CSVRepository) RestoreCompletedEvent(ctx context.Context, taskID int64) (*repository.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	completed, err := r.loadCompleted()
	if err != nil {
		return nil, err
	}
	var task *repository.CompletedTask
	idx := -1
	for i, t := range completed {
		if t.TaskID == taskID {
			if task == nil || t.ID > task.ID {
				task = t
				idx = i
			}
		}
	}
	if task == nil {
		return nil, errors.NewNotFoundError("completed task", fmt.Sprintf("%d", taskID))
	}

	events, err := r.loadEvents()
	if err != nil {
		return nil, err
	}
	event := &repository.Event{
		ID:          nextEventID(events),
		Title:       task.Title,
		Date:        task.Date,
		TimeRange:   task.TimeRange,
		EventType:   task.EventType,
		Deadline:    task.Deadline,
		Importance:  task.Importance,
		LastUpdated: time.Now(),
	}
	events = append(events, event)
	completed = append(completed[:idx], completed[idx+1:]...)

	if err := r.saveEvents(events); err != nil {
		return nil, err
	}
	if err := r.saveCompleted(completed); err != nil {
		return nil, err
	}
	return event, nil
}

// RemoveDuplicateEvents deletes all but the lowest-id row of every
// (title, date, time_range, event_type) group.
func (r *CSVRepository) RemoveDuplicateEvents(ctx context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	events, err := r.loadEvents()
	if err != nil {
		return 0, err
	}

	sort.Slice(events, func(i, j int) bool { return events[i].ID < events[j].ID })
	seen := make(map[string]bool, len(events))
	kept := events[:0]
	removed := 0
	for _, e := range events {
		key := e.Title + "\x00" + e.Date + "\x00" + e.TimeRange + "\x00" + e.EventType
		if seen[key] {
			removed++
			continue
		}
		seen[key] = true
		kept = append(kept, e)
	}
	if removed == 0 {
		return 0, nil
	}
	if err := r.saveEvents(kept); err != nil {
		return 0, err
	}
	return removed, nil
}
