package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"schedule-keeper/internal/errors"
	"schedule-keeper/internal/repository"
	"schedule-keeper/internal/repository/sqlite/migrations"

	_ "modernc.org/sqlite"
)

// SQLiteRepository implements repository.Repository over a single SQLite file
type SQLiteRepository struct {
	db *sql.DB
}

// New creates a new SQLite repository instance
func New(dbPath string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, errors.NewDatabaseError("open database", err)
	}
	if dbPath == ":memory:" {
		// Every pooled connection to :memory: would get its own database.
		db.SetMaxOpenConns(1)
	}

	if err := migrations.RunMigrations(db); err != nil {
		db.Close()
		return nil, errors.NewDatabaseError("run migrations", err)
	}

	return &SQLiteRepository{db: db}, nil
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	return r.db.Close()
}

const eventColumns = "id, title, date, time_range, event_type, deadline, importance, recurrence_rule, last_updated"

const completedColumns = "id, task_id, title, date, time_range, actual_time_range, event_type, deadline, importance, completion_date, completion_notes, reflection_notes"

// CreateEvent inserts a new event and sets its generated ID
func (r *SQLiteRepository) CreateEvent(ctx context.Context, event *repository.Event) error {
	query := `
	INSERT INTO events (title, date, time_range, event_type, deadline, importance, recurrence_rule, last_updated)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := ExecuteWithLastInsertID(ctx, r.db, query,
		event.Title, event.Date, event.TimeRange, event.EventType,
		event.Deadline, event.Importance, event.RecurrenceRule,
		event.LastUpdated.Format(timestampLayout))
	if err != nil {
		return err
	}

	event.ID = id
	return nil
}

// GetEvent retrieves an event by ID
func (r *SQLiteRepository) GetEvent(ctx context.Context, id int64) (*repository.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = ?`
	return QuerySingle(ctx, r.db, query, ScanEvent, "event", fmt.Sprintf("%d", id), id)
}

// ListEvents retrieves events matching the search options
func (r *SQLiteRepository) ListEvents(ctx context.Context, opts repository.SearchOptions) ([]*repository.Event, error) {
	var conditions []string
	var args []interface{}

	if opts.DateFrom != nil {
		conditions = append(conditions, "date >= ?")
		args = append(args, *opts.DateFrom)
	}
	if opts.DateTo != nil {
		conditions = append(conditions, "date <= ?")
		args = append(args, *opts.DateTo)
	}

	query := `SELECT ` + eventColumns + ` FROM events`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY date ASC, time_range ASC, id ASC"
	if opts.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, opts.Offset)
	}

	return QueryMultiple(ctx, r.db, query, ScanEvents, "events", args...)
}

// ListEventsForDate retrieves all events stored on the given date
func (r *SQLiteRepository) ListEventsForDate(ctx context.Context, date string) ([]*repository.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE date = ? ORDER BY time_range ASC, id ASC`
	return QueryMultiple(ctx, r.db, query, ScanEvents, "events", date)
}

// ListRecurringEvents retrieves all events carrying a recurrence rule
func (r *SQLiteRepository) ListRecurringEvents(ctx context.Context) ([]*repository.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE recurrence_rule != '' ORDER BY date ASC, id ASC`
	return QueryMultiple(ctx, r.db, query, ScanEvents, "events")
}

// UpdateEvent updates an existing event
func (r *SQLiteRepository) UpdateEvent(ctx context.Context, event *repository.Event) error {
	query := `
	UPDATE events
	SET title = ?, date = ?, time_range = ?, event_type = ?, deadline = ?, importance = ?, recurrence_rule = ?, last_updated = ?
	WHERE id = ?`

	return ExecuteWithRowsAffected(ctx, r.db, query, "event", fmt.Sprintf("%d", event.ID),
		event.Title, event.Date, event.TimeRange, event.EventType,
		event.Deadline, event.Importance, event.RecurrenceRule,
		event.LastUpdated.Format(timestampLayout), event.ID)
}

// DeleteEvent removes an event along with its completion records and
// occurrence markers in one transaction.
func (r *SQLiteRepository) DeleteEvent(ctx context.Context, id int64) error {
	return WithTransaction(ctx, r.db, "delete event", func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
		if err != nil {
			return HandleDatabaseError("delete event", err)
		}
		if err := ValidateRowsAffected(result, "event", fmt.Sprintf("%d", id)); err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM completed_tasks WHERE task_id = ?`, id); err != nil {
			return HandleDatabaseError("delete completions for event", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM completed_occurrences WHERE event_id = ?`, id); err != nil {
			return HandleDatabaseError("delete occurrence markers for event", err)
		}
		return nil
	})
}

// RecordCompletion inserts a completion record and sets its generated ID
func (r *SQLiteRepository) RecordCompletion(ctx context.Context, inst *repository.CompletedTask) error {
	query := `
	INSERT INTO completed_tasks (task_id, title, date, time_range, actual_time_range, event_type, deadline, importance, completion_date, completion_notes, reflection_notes)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	id, err := ExecuteWithLastInsertID(ctx, r.db, query,
		inst.TaskID, inst.Title, inst.Date, inst.TimeRange, inst.ActualTimeRange,
		inst.EventType, inst.Deadline, inst.Importance,
		inst.CompletionDate.Format(timestampLayout), inst.CompletionNotes, inst.ReflectionNotes)
	if err != nil {
		return err
	}

	inst.ID = id
	return nil
}

// ListCompletions retrieves completion records matching the search options
func (r *SQLiteRepository) ListCompletions(ctx context.Context, opts repository.SearchOptions) ([]*repository.CompletedTask, error) {
	var conditions []string
	var args []interface{}

	if opts.DateFrom != nil {
		conditions = append(conditions, "date >= ?")
		args = append(args, *opts.DateFrom)
	}
	if opts.DateTo != nil {
		conditions = append(conditions, "date <= ?")
		args = append(args, *opts.DateTo)
	}

	query := `SELECT ` + completedColumns + ` FROM completed_tasks`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY completion_date DESC, id DESC"
	if opts.Limit > 0 {
		query += " LIMIT ? OFFSET ?"
		args = append(args, opts.Limit, opts.Offset)
	}

	return QueryMultiple(ctx, r.db, query, ScanCompletedTasks, "completed tasks", args...)
}

// DeleteCompletion removes the newest completion record for a task and the
// occurrence marker for that record's date. Older completions of the same
// recurring event keep their records and markers.
func (r *SQLiteRepository) DeleteCompletion(ctx context.Context, taskID int64) error {
	return WithTransaction(ctx, r.db, "delete completion", func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx, `SELECT id, date FROM completed_tasks WHERE task_id = ? ORDER BY id DESC LIMIT 1`, taskID)
		var id int64
		var date string
		if err := row.Scan(&id, &date); err != nil {
			if err == sql.ErrNoRows {
				return errors.NewNotFoundError("completed task", fmt.Sprintf("%d", taskID))
			}
			return HandleDatabaseError("lookup completion", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM completed_tasks WHERE id = ?`, id); err != nil {
			return HandleDatabaseError("delete completion", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM completed_occurrences WHERE event_id = ? AND date = ?`, taskID, date); err != nil {
			return HandleDatabaseError("delete occurrence marker", err)
		}
		return nil
	})
}

// UpdateCompletionReflection sets the reflection notes on a completion record
func (r *SQLiteRepository) UpdateCompletionReflection(ctx context.Context, taskID int64, notes string) error {
	query := `UPDATE completed_tasks SET reflection_notes = ? WHERE task_id = ?`
	return ExecuteWithRowsAffected(ctx, r.db, query, "completed task", fmt.Sprintf("%d", taskID), notes, taskID)
}

// OccurrenceCompleted reports whether the given occurrence of a recurring
// event has already been completed.
func (r *SQLiteRepository) OccurrenceCompleted(ctx context.Context, eventID int64, date string) (bool, error) {
	row := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM completed_occurrences WHERE event_id = ? AND date = ?`, eventID, date)
	var count int
	if err := row.Scan(&count); err != nil {
		return false, HandleDatabaseError("check occurrence completion", err)
	}
	return count > 0, nil
}

// MarkOccurrenceCompleted records an occurrence completion marker. Marking an
// already-marked occurrence is a no-op.
func (r *SQLiteRepository) MarkOccurrenceCompleted(ctx context.Context, eventID int64, date string) error {
	query := `INSERT OR IGNORE INTO completed_occurrences (event_id, date, completion_date) VALUES (?, ?, ?)`
	if _, err := r.db.ExecContext(ctx, query, eventID, date, time.Now().Format(timestampLayout)); err != nil {
		return HandleDatabaseError("mark occurrence completed", err)
	}
	return nil
}

// UnmarkOccurrenceCompleted removes an occurrence completion marker
func (r *SQLiteRepository) UnmarkOccurrenceCompleted(ctx context.Context, eventID int64, date string) error {
	query := `DELETE FROM completed_occurrences WHERE event_id = ? AND date = ?`
	return ExecuteWithRowsAffected(ctx, r.db, query, "occurrence marker", fmt.Sprintf("%d/%s", eventID, date), eventID, date)
}

// CompleteEvent writes a completion as one atomic unit. Recurring events keep
// their stored row and gain an occurrence marker; non-recurring events move
// out of the active set entirely.
func (r *SQLiteRepository) CompleteEvent(ctx context.Context, inst *repository.CompletedTask, recurring bool) error {
	return WithTransaction(ctx, r.db, "complete event", func(tx *sql.Tx) error {
		result, err := tx.ExecContext(ctx, `
		INSERT INTO completed_tasks (task_id, title, date, time_range, actual_time_range, event_type, deadline, importance, completion_date, completion_notes, reflection_notes)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			inst.TaskID, inst.Title, inst.Date, inst.TimeRange, inst.ActualTimeRange,
			inst.EventType, inst.Deadline, inst.Importance,
			inst.CompletionDate.Format(timestampLayout), inst.CompletionNotes, inst.ReflectionNotes)
		if err != nil {
			return HandleDatabaseError("record completion", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return HandleDatabaseError("get completion ID", err)
		}
		inst.ID = id

		if recurring {
			_, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO completed_occurrences (event_id, date, completion_date) VALUES (?, ?, ?)`,
				inst.TaskID, inst.Date, inst.CompletionDate.Format(timestampLayout))
			if err != nil {
				return HandleDatabaseError("mark occurrence completed", err)
			}
			return nil
		}

		result, err = tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, inst.TaskID)
		if err != nil {
			return HandleDatabaseError("remove completed event", err)
		}
		return ValidateRowsAffected(result, "event", fmt.Sprintf("%d", inst.TaskID))
	})
}

// RestoreCompletedEvent moves a non-recurring completion back into the active
// set and returns the restored event.
func (r *SQLiteRepository) RestoreCompletedEvent(ctx context.Context, taskID int64) (*repository.Event, error) {
	var restored *repository.Event
	err := WithTransaction(ctx, r.db, "restore event", func(tx *sql.Tx) error {
		row := tx.QueryRowContext(ctx,
			`SELECT `+completedColumns+` FROM completed_tasks WHERE task_id = ? ORDER BY id DESC LIMIT 1`, taskID)
		task, err := ScanCompletedTask(row)
		if err != nil {
			if err == sql.ErrNoRows {
				return errors.NewNotFoundError("completed task", fmt.Sprintf("%d", taskID))
			}
			return HandleDatabaseError("lookup completion", err)
		}

		event := &repository.Event{
			Title:       task.Title,
			Date:        task.Date,
			TimeRange:   task.TimeRange,
			EventType:   task.EventType,
			Deadline:    task.Deadline,
			Importance:  task.Importance,
			LastUpdated: time.Now(),
		}
		result, err := tx.ExecContext(ctx, `
		INSERT INTO events (title, date, time_range, event_type, deadline, importance, recurrence_rule, last_updated)
		VALUES (?, ?, ?, ?, ?, ?, '', ?)`,
			event.Title, event.Date, event.TimeRange, event.EventType,
			event.Deadline, event.Importance, event.LastUpdated.Format(timestampLayout))
		if err != nil {
			return HandleDatabaseError("restore event", err)
		}
		id, err := result.LastInsertId()
		if err != nil {
			return HandleDatabaseError("get restored event ID", err)
		}
		event.ID = id

		if _, err := tx.ExecContext(ctx, `DELETE FROM completed_tasks WHERE id = ?`, task.ID); err != nil {
			return HandleDatabaseError("remove completion record", err)
		}

		restored = event
		return nil
	})
	if err != nil {
		return nil, err
	}
	return restored, nil
}

// RemoveDuplicateEvents deletes all but the lowest-id row of every
// (title, date, time_range, event_type) group.
func (r *SQLiteRepository) RemoveDuplicateEvents(ctx context.Context) (int, error) {
	query := `
	DELETE FROM events
	WHERE id NOT IN (
		SELECT MIN(id) FROM events
		GROUP BY title, date, time_range, event_type
	)`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, HandleDatabaseError("remove duplicate events", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, HandleDatabaseError("get rows affected", err)
	}
	return int(rows), nil
}
