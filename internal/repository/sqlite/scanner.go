package sqlite

import (
	"time"

	"schedule-keeper/internal/repository"
)

// Scanner interface abstracts sql.Row and sql.Rows for scanning
type Scanner interface {
	Scan(dest ...interface{}) error
}

// Rows interface abstracts sql.Rows for iteration
type Rows interface {
	Scanner
	Next() bool
	Err() error
}

// timestampLayout is how last_updated and completion timestamps are stored.
const timestampLayout = time.RFC3339

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(timestampLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ScanEvent scans a single event row
func ScanEvent(scanner Scanner) (*repository.Event, error) {
	var event repository.Event
	var lastUpdated string
	err := scanner.Scan(
		&event.ID,
		&event.Title,
		&event.Date,
		&event.TimeRange,
		&event.EventType,
		&event.Deadline,
		&event.Importance,
		&event.RecurrenceRule,
		&lastUpdated,
	)
	if err != nil {
		return nil, err
	}
	event.LastUpdated = parseTimestamp(lastUpdated)
	return &event, nil
}

// ScanEvents scans multiple event rows
func ScanEvents(rows Rows) ([]*repository.Event, error) {
	var events []*repository.Event
	for rows.Next() {
		event, err := ScanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, event)
	}
	return events, rows.Err()
}

// ScanCompletedTask scans a single completed task row
func ScanCompletedTask(scanner Scanner) (*repository.CompletedTask, error) {
	var task repository.CompletedTask
	var completionDate string
	err := scanner.Scan(
		&task.ID,
		&task.TaskID,
		&task.Title,
		&task.Date,
		&task.TimeRange,
		&task.ActualTimeRange,
		&task.EventType,
		&task.Deadline,
		&task.Importance,
		&completionDate,
		&task.CompletionNotes,
		&task.ReflectionNotes,
	)
	if err != nil {
		return nil, err
	}
	task.CompletionDate = parseTimestamp(completionDate)
	return &task, nil
}

// ScanCompletedTasks scans multiple completed task rows
func ScanCompletedTasks(rows Rows) ([]*repository.CompletedTask, error) {
	var tasks []*repository.CompletedTask
	for rows.Next() {
		task, err := ScanCompletedTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	return tasks, rows.Err()
}
