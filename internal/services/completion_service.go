package services

import (
	"context"
	"fmt"
	"time"

	"schedule-keeper/internal/domain"
	"schedule-keeper/internal/errors"
	"schedule-keeper/internal/logging"
	"schedule-keeper/internal/recurrence"
	"schedule-keeper/internal/repository"
	"schedule-keeper/internal/validation"
)

// completionServiceImpl implements the CompletionService interface
type completionServiceImpl struct {
	repo           repository.Repository
	mapper         *domain.Mapper
	eventValidator *validation.EventValidator
	now            func() time.Time
}

// NewCompletionService creates a new CompletionService instance
func NewCompletionService(repo repository.Repository) CompletionService {
	return &completionServiceImpl{
		repo:           repo,
		mapper:         domain.NewMapper(),
		eventValidator: validation.NewEventValidator(),
		now:            time.Now,
	}
}

// Complete marks an event done. A non-recurring event moves to history and
// leaves the active schedule; a recurring event stays and the chosen
// occurrence is marked, idempotently.
func (s *completionServiceImpl) Complete(ctx context.Context, eventID int64, opts CompleteOptions) (*domain.CompletedInstance, error) {
	if err := s.eventValidator.ValidateEventID(eventID); err != nil {
		return nil, err
	}

	rec, err := s.repo.GetEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	event, err := s.mapper.Event.FromRecord(*rec)
	if err != nil {
		return nil, err
	}

	inst := domain.CompletedInstance{
		TaskID:          event.ID,
		Title:           event.Title,
		Date:            event.Date,
		TimeRange:       event.TimeRange,
		ActualTimeRange: opts.ActualTimeRange,
		EventType:       event.EventType,
		Deadline:        event.Deadline,
		Importance:      event.Importance,
		CompletionDate:  s.now(),
	}
	if opts.CompletionNotes != "" {
		notes := opts.CompletionNotes
		inst.CompletionNotes = &notes
	}
	if opts.ReflectionNotes != "" {
		notes := opts.ReflectionNotes
		inst.ReflectionNotes = &notes
	}

	if !event.Recurrence.IsRecurring() {
		record := s.mapper.Completion.ToRecord(inst)
		if err := s.repo.CompleteEvent(ctx, &record, false); err != nil {
			return nil, err
		}
		inst.ID = record.ID
		logging.Debugf("completed event %d ('%s' on %s)\n", event.ID, event.Title, event.Date)
		return &inst, nil
	}

	occurrenceDate := opts.OccurrenceDate
	if occurrenceDate == "" {
		occurrenceDate = s.now().Format(domain.DateLayout)
	}
	if err := s.eventValidator.ValidateOccurrenceDate(occurrenceDate); err != nil {
		return nil, err
	}
	occurs, err := recurrence.OccursOn(event.Date, event.Recurrence, "", occurrenceDate)
	if err != nil {
		return nil, err
	}
	if !occurs {
		return nil, errors.NewInvalidInputError("occurrence_date", occurrenceDate,
			fmt.Sprintf("'%s' has no %s occurrence on that date", event.Title, event.Recurrence))
	}

	done, err := s.repo.OccurrenceCompleted(ctx, event.ID, occurrenceDate)
	if err != nil {
		return nil, err
	}
	if done {
		// Completing the same occurrence twice is a no-op.
		logging.Debugf("occurrence %s of event %d already completed\n", occurrenceDate, event.ID)
		inst.Date = occurrenceDate
		return &inst, nil
	}

	inst.Date = occurrenceDate
	record := s.mapper.Completion.ToRecord(inst)
	if err := s.repo.CompleteEvent(ctx, &record, true); err != nil {
		return nil, err
	}
	inst.ID = record.ID
	logging.Debugf("completed occurrence %s of recurring event %d ('%s')\n", occurrenceDate, event.ID, event.Title)
	return &inst, nil
}

// Uncomplete restores a non-recurring completion to the active schedule.
// Recurring occurrences are refused: the series row never left the schedule,
// so there is nothing to restore.
func (s *completionServiceImpl) Uncomplete(ctx context.Context, taskID int64) (*domain.Event, error) {
	if err := s.eventValidator.ValidateEventID(taskID); err != nil {
		return nil, err
	}

	if rec, err := s.repo.GetEvent(ctx, taskID); err == nil && rec.RecurrenceRule != "" {
		return nil, errors.NewInvalidInputError("task_id", taskID,
			"recurring occurrences cannot be uncompleted; delete the completion record instead")
	}

	restored, err := s.repo.RestoreCompletedEvent(ctx, taskID)
	if err != nil {
		return nil, err
	}
	event, err := s.mapper.Event.FromRecord(*restored)
	if err != nil {
		return nil, err
	}
	logging.Debugf("restored event %d ('%s' on %s)\n", event.ID, event.Title, event.Date)
	return &event, nil
}

// DeleteCompleted removes a history record. For a recurring occurrence the
// marker goes with it, so the occurrence can be completed again.
func (s *completionServiceImpl) DeleteCompleted(ctx context.Context, taskID int64) error {
	if err := s.eventValidator.ValidateEventID(taskID); err != nil {
		return err
	}
	return s.repo.DeleteCompletion(ctx, taskID)
}

// AddReflection attaches reflection notes to a history record
func (s *completionServiceImpl) AddReflection(ctx context.Context, taskID int64, notes string) error {
	if err := s.eventValidator.ValidateEventID(taskID); err != nil {
		return err
	}
	if notes == "" {
		return errors.NewInvalidInputError("notes", notes, "reflection notes cannot be empty")
	}
	return s.repo.UpdateCompletionReflection(ctx, taskID, notes)
}

// ListCompletions returns history records, newest first
func (s *completionServiceImpl) ListCompletions(ctx context.Context, opts repository.SearchOptions) ([]domain.CompletedInstance, error) {
	recs, err := s.repo.ListCompletions(ctx, opts)
	if err != nil {
		return nil, err
	}
	instances := make([]domain.CompletedInstance, 0, len(recs))
	for _, rec := range recs {
		inst, err := s.mapper.Completion.FromRecord(*rec)
		if err != nil {
			continue
		}
		instances = append(instances, inst)
	}
	return instances, nil
}
