package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"schedule-keeper/internal/conflict"
	"schedule-keeper/internal/domain"
	"schedule-keeper/internal/errors"
	"schedule-keeper/internal/extract"
	"schedule-keeper/internal/logging"
	"schedule-keeper/internal/recurrence"
	"schedule-keeper/internal/repository"
	"schedule-keeper/internal/validation"
)

// reconciliationServiceImpl implements the ReconciliationService interface
type reconciliationServiceImpl struct {
	repo           repository.Repository
	extractor      *extract.Extractor
	mapper         *domain.Mapper
	eventValidator *validation.EventValidator
	horizonDays    int
}

// NewReconciliationService creates a new ReconciliationService instance
func NewReconciliationService(repo repository.Repository, extractor *extract.Extractor, horizonDays int) ReconciliationService {
	if horizonDays <= 0 {
		horizonDays = recurrence.DefaultHorizonDays
	}
	return &reconciliationServiceImpl{
		repo:           repo,
		extractor:      extractor,
		mapper:         domain.NewMapper(),
		eventValidator: validation.NewEventValidator(),
		horizonDays:    horizonDays,
	}
}

// batchState accumulates what the batch has already done, so later operations
// are checked against the schedule as it will be, not as it was.
type batchState struct {
	deleted map[int64]bool
	updated map[int64]domain.Event
	added   []domain.Event
}

func newBatchState() *batchState {
	return &batchState{
		deleted: make(map[int64]bool),
		updated: make(map[int64]domain.Event),
	}
}

// Reconcile extracts operations from assistant text and applies them in
// deletion, modification, addition order. Each phase sees the effects of the
// phases before it.
func (s *reconciliationServiceImpl) Reconcile(ctx context.Context, text string, opts ReconcileOptions) (*Summary, error) {
	summary := &Summary{
		BatchID:  uuid.New().String(),
		Errors:   []string{},
		Warnings: []string{},
	}

	ops := s.extractor.Extract(text)
	if len(ops) == 0 {
		summary.Errors = append(summary.Errors, errors.GetUserMessage(errors.NewNoValidOperationsError()))
		return summary, nil
	}
	logging.Debugf("reconcile batch %s: %d operations extracted\n", summary.BatchID, len(ops))

	deletions, modifications, additions, unchanged, unknown := domain.Partition(ops)
	summary.Unchanged = len(unchanged)
	for _, op := range unknown {
		summary.Errors = append(summary.Errors, errors.GetUserMessage(errors.NewUnknownActionError(op.RawAction, op.Title)))
	}

	state := newBatchState()

	if err := s.applyDeletions(ctx, deletions, state, summary); err != nil {
		return nil, err
	}
	if err := s.applyModifications(ctx, modifications, opts.Policy, state, summary); err != nil {
		return nil, err
	}
	if err := s.applyAdditions(ctx, additions, opts, state, summary); err != nil {
		return nil, err
	}

	return summary, nil
}

// applyDeletions removes stored events matching each deletion on
// (title, date, time range). A miss is reported but does not stop the batch.
func (s *reconciliationServiceImpl) applyDeletions(ctx context.Context, deletions []domain.Operation, state *batchState, summary *Summary) error {
	for _, op := range deletions {
		stored, err := s.eventsOnDate(ctx, op.Date)
		if err != nil {
			return err
		}

		var target *domain.Event
		for i := range stored {
			if state.deleted[stored[i].ID] {
				continue
			}
			if stored[i].Title == op.Title && stored[i].TimeRange == op.TimeRange {
				target = &stored[i]
				break
			}
		}
		if target == nil {
			summary.Errors = append(summary.Errors,
				errors.GetUserMessage(errors.NewNotFoundError("event",
					fmt.Sprintf("'%s' on %s (%s) for deletion", op.Title, op.Date, op.TimeRange))))
			continue
		}

		if err := s.repo.DeleteEvent(ctx, target.ID); err != nil {
			return err
		}
		state.deleted[target.ID] = true
		summary.Deleted++
		logging.Debugf("deleted event %d ('%s' on %s)\n", target.ID, target.Title, target.Date)
	}
	return nil
}

// applyModifications updates stored events. Modifications targeting the same
// date are first checked against each other; under the reject policy a
// mutual overlap disqualifies both sides.
func (s *reconciliationServiceImpl) applyModifications(ctx context.Context, modifications []domain.Operation, policy conflict.Policy, state *batchState, summary *Summary) error {
	dropped := s.dropMutuallyConflicting(modifications, policy, summary)

	for i, op := range modifications {
		if dropped[i] {
			continue
		}

		target, err := s.findModificationTarget(ctx, op, state)
		if err != nil {
			return err
		}
		if target == nil {
			summary.Errors = append(summary.Errors,
				errors.GetUserMessage(errors.NewNotFoundError("event", fmt.Sprintf("'%s' on %s", op.Title, op.Date))))
			summary.Skipped++
			continue
		}

		pool, err := s.poolFor(ctx, op.Date, state)
		if err != nil {
			return err
		}
		outcome := conflict.Resolve(conflict.Candidate{Date: op.Date, TimeRange: op.TimeRange}, pool, target.ID, policy)
		if !s.recordOutcome(op, outcome, policy, summary) {
			continue
		}

		updated := *target
		updated.Title = op.Title
		updated.Date = op.Date
		updated.TimeRange = op.TimeRange
		updated.EventType = op.EventType
		updated.Deadline = op.Deadline
		updated.Importance = op.Importance
		updated.LastUpdated = time.Now()

		rec := s.mapper.Event.ToRecord(updated)
		if err := s.repo.UpdateEvent(ctx, &rec); err != nil {
			return err
		}
		state.updated[updated.ID] = updated
		summary.Modified++
		logging.Debugf("modified event %d ('%s' on %s -> %s)\n", updated.ID, updated.Title, updated.Date, updated.TimeRange)
	}
	return nil
}

// dropMutuallyConflicting flags modifications whose proposed slots overlap
// each other, comparing cross-midnight ranges segment-wise. Force lets both
// through with a warning.
func (s *reconciliationServiceImpl) dropMutuallyConflicting(modifications []domain.Operation, policy conflict.Policy, summary *Summary) map[int]bool {
	dropped := make(map[int]bool)
	for i := 0; i < len(modifications); i++ {
		for j := i + 1; j < len(modifications); j++ {
			a, b := modifications[i], modifications[j]
			if !conflict.Overlapping(
				conflict.Candidate{Date: a.Date, TimeRange: a.TimeRange},
				conflict.Candidate{Date: b.Date, TimeRange: b.TimeRange},
			) {
				continue
			}
			switch policy {
			case conflict.PolicyForce:
				summary.Warnings = append(summary.Warnings,
					fmt.Sprintf("modifications '%s' and '%s' on %s overlap each other", a.Title, b.Title, a.Date))
			case conflict.PolicySkip:
				if !dropped[i] {
					dropped[i] = true
					summary.Warnings = append(summary.Warnings,
						fmt.Sprintf("skipped modification of '%s' on %s: overlaps proposed '%s'", a.Title, a.Date, b.Title))
					summary.Skipped++
				}
				if !dropped[j] {
					dropped[j] = true
					summary.Warnings = append(summary.Warnings,
						fmt.Sprintf("skipped modification of '%s' on %s: overlaps proposed '%s'", b.Title, b.Date, a.Title))
					summary.Skipped++
				}
			default:
				if !dropped[i] {
					dropped[i] = true
					summary.Errors = append(summary.Errors,
						errors.GetUserMessage(errors.NewTimeConflictError(a.Title, []string{"'" + b.Title + "' (" + b.TimeRange.String() + ")"})))
					summary.Skipped++
				}
				if !dropped[j] {
					dropped[j] = true
					summary.Errors = append(summary.Errors,
						errors.GetUserMessage(errors.NewTimeConflictError(b.Title, []string{"'" + a.Title + "' (" + a.TimeRange.String() + ")"})))
					summary.Skipped++
				}
			}
		}
	}
	return dropped
}

// findModificationTarget locates the stored event a modification refers to.
// When several events share the (title, date) slot the previous time range
// hint picks between them; without a hint the first match wins.
func (s *reconciliationServiceImpl) findModificationTarget(ctx context.Context, op domain.Operation, state *batchState) (*domain.Event, error) {
	stored, err := s.eventsOnDate(ctx, op.Date)
	if err != nil {
		return nil, err
	}

	var candidates []domain.Event
	for _, e := range stored {
		if state.deleted[e.ID] {
			continue
		}
		if updated, ok := state.updated[e.ID]; ok {
			e = updated
			if e.Date != op.Date {
				continue
			}
		}
		if e.Title == op.Title {
			candidates = append(candidates, e)
		}
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	if op.PreviousTimeRange != nil {
		for i := range candidates {
			if candidates[i].TimeRange == *op.PreviousTimeRange {
				return &candidates[i], nil
			}
		}
	}
	return &candidates[0], nil
}

// applyAdditions inserts new events in input order, each checked against the
// stored schedule plus everything the batch has already applied.
func (s *reconciliationServiceImpl) applyAdditions(ctx context.Context, additions []domain.Operation, opts ReconcileOptions, state *batchState, summary *Summary) error {
	for _, op := range additions {
		candidate := op.ToEvent(opts.Recurrence)
		candidate.LastUpdated = time.Now()

		if err := s.eventValidator.ValidateEvent(candidate); err != nil {
			summary.Errors = append(summary.Errors, errors.GetUserMessage(err))
			summary.Skipped++
			continue
		}

		var applied bool
		var err error
		if opts.Recurrence.IsRecurring() {
			applied, err = s.addRecurring(ctx, candidate, opts, state, summary)
		} else {
			applied, err = s.addSingle(ctx, candidate, opts.Policy, state, summary)
		}
		if err != nil {
			return err
		}
		if applied {
			summary.Added++
		}
	}
	return nil
}

// addSingle applies one non-recurring addition
func (s *reconciliationServiceImpl) addSingle(ctx context.Context, candidate domain.Event, policy conflict.Policy, state *batchState, summary *Summary) (bool, error) {
	pool, err := s.poolFor(ctx, candidate.Date, state)
	if err != nil {
		return false, err
	}

	// Exact duplicates are refused under every policy; forcing a second
	// identical row only corrupts the schedule.
	if conflict.IsExactDuplicate(candidate, pool) {
		summary.Errors = append(summary.Errors,
			errors.GetUserMessage(errors.NewDuplicateEventError(candidate.Title, candidate.Date, candidate.TimeRange.String())))
		summary.Skipped++
		return false, nil
	}

	outcome := conflict.Resolve(conflict.Candidate{Date: candidate.Date, TimeRange: candidate.TimeRange}, pool, 0, policy)
	if !s.recordOutcome(domain.Operation{Title: candidate.Title, Date: candidate.Date, TimeRange: candidate.TimeRange}, outcome, policy, summary) {
		return false, nil
	}

	rec := s.mapper.Event.ToRecord(candidate)
	if err := s.repo.CreateEvent(ctx, &rec); err != nil {
		return false, err
	}
	candidate.ID = rec.ID
	state.added = append(state.added, candidate)
	logging.Debugf("added event %d ('%s' on %s)\n", candidate.ID, candidate.Title, candidate.Date)
	return true, nil
}

// addRecurring applies one recurring addition. The whole series stands or
// falls together: a rejected or skipped occurrence aborts every occurrence,
// and the series is stored as a single row.
func (s *reconciliationServiceImpl) addRecurring(ctx context.Context, candidate domain.Event, opts ReconcileOptions, state *batchState, summary *Summary) (bool, error) {
	dates, err := recurrence.ExpandWithHorizon(candidate.Date, candidate.Recurrence, opts.RecurrenceEnd, s.horizonDays)
	if err != nil {
		summary.Errors = append(summary.Errors, errors.GetUserMessage(err))
		summary.Skipped++
		return false, nil
	}

	var seriesConflicts []domain.Event
	for _, date := range dates {
		pool, err := s.poolFor(ctx, date, state)
		if err != nil {
			return false, err
		}
		occurrence := candidate
		occurrence.Date = date
		if conflict.IsExactDuplicate(occurrence, pool) {
			summary.Errors = append(summary.Errors,
				errors.GetUserMessage(errors.NewDuplicateEventError(candidate.Title, date, candidate.TimeRange.String())))
			summary.Skipped++
			return false, nil
		}
		found := conflict.FindConflicts(conflict.Candidate{Date: date, TimeRange: candidate.TimeRange}, pool, 0)
		seriesConflicts = append(seriesConflicts, found...)
	}

	if len(seriesConflicts) > 0 {
		described := conflict.DescribeConflicts(seriesConflicts)
		switch opts.Policy {
		case conflict.PolicyForce:
			summary.Warnings = append(summary.Warnings,
				fmt.Sprintf("added recurring '%s' despite overlap with %s", candidate.Title, strings.Join(described, ", ")))
		case conflict.PolicySkip:
			summary.Warnings = append(summary.Warnings,
				fmt.Sprintf("skipped recurring '%s': overlaps %s", candidate.Title, strings.Join(described, ", ")))
			summary.Skipped++
			return false, nil
		default:
			summary.Errors = append(summary.Errors,
				errors.GetUserMessage(errors.NewTimeConflictError(candidate.Title, described)))
			summary.Skipped++
			return false, nil
		}
	}

	rec := s.mapper.Event.ToRecord(candidate)
	if err := s.repo.CreateEvent(ctx, &rec); err != nil {
		return false, err
	}
	candidate.ID = rec.ID
	state.added = append(state.added, candidate)
	logging.Debugf("added recurring event %d ('%s' %s from %s, %d occurrences in horizon)\n",
		candidate.ID, candidate.Title, candidate.Recurrence, candidate.Date, len(dates))
	return true, nil
}

// recordOutcome books a conflict resolution into the summary. It returns true
// when the operation should still be applied.
func (s *reconciliationServiceImpl) recordOutcome(op domain.Operation, outcome conflict.Outcome, policy conflict.Policy, summary *Summary) bool {
	switch outcome.Status {
	case conflict.StatusRejected:
		summary.Errors = append(summary.Errors,
			errors.GetUserMessage(errors.NewTimeConflictError(op.Title, conflict.DescribeConflicts(outcome.Conflicts))))
		summary.Skipped++
		return false
	case conflict.StatusSkipped:
		summary.Warnings = append(summary.Warnings,
			fmt.Sprintf("skipped '%s' on %s: overlaps %s", op.Title, op.Date, strings.Join(conflict.DescribeConflicts(outcome.Conflicts), ", ")))
		summary.Skipped++
		return false
	default:
		if len(outcome.Conflicts) > 0 {
			summary.Warnings = append(summary.Warnings,
				fmt.Sprintf("applied '%s' on %s despite overlap with %s", op.Title, op.Date, strings.Join(conflict.DescribeConflicts(outcome.Conflicts), ", ")))
		}
		return true
	}
}

// eventsOnDate loads stored events for a date as domain events
func (s *reconciliationServiceImpl) eventsOnDate(ctx context.Context, date string) ([]domain.Event, error) {
	recs, err := s.repo.ListEventsForDate(ctx, date)
	if err != nil {
		return nil, err
	}
	return s.mapper.Event.FromRecordSlice(recs), nil
}

// poolFor assembles the conflict pool for a candidate date: stored events on
// the date and its neighbors (cross-midnight ranges reach across the date
// boundary), recurring series occurring in that window, and everything the
// batch has already added or rewritten, minus what it has deleted.
func (s *reconciliationServiceImpl) poolFor(ctx context.Context, date string, state *batchState) ([]domain.Event, error) {
	prev, errPrev := previousDay(date)
	next, errNext := domain.NextDay(date)
	window := []string{date}
	if errPrev == nil {
		window = append(window, prev)
	}
	if errNext == nil {
		window = append(window, next)
	}
	inWindow := func(d string) bool {
		for _, w := range window {
			if w == d {
				return true
			}
		}
		return false
	}

	var pool []domain.Event
	for _, d := range window {
		stored, err := s.eventsOnDate(ctx, d)
		if err != nil {
			return nil, err
		}
		for _, e := range stored {
			if state.deleted[e.ID] || e.Recurrence.IsRecurring() {
				continue
			}
			if updated, ok := state.updated[e.ID]; ok {
				if updated.Date != d {
					continue
				}
				e = updated
			}
			pool = append(pool, e)
		}
	}

	recurringRecs, err := s.repo.ListRecurringEvents(ctx)
	if err != nil {
		return nil, err
	}
	for _, series := range s.mapper.Event.FromRecordSlice(recurringRecs) {
		if state.deleted[series.ID] {
			continue
		}
		if updated, ok := state.updated[series.ID]; ok {
			series = updated
		}
		pool = append(pool, occurrencesInWindow(series, window)...)
	}

	for _, added := range state.added {
		if added.Recurrence.IsRecurring() {
			pool = append(pool, occurrencesInWindow(added, window)...)
		} else if inWindow(added.Date) {
			pool = append(pool, added)
		}
	}

	return pool, nil
}

// occurrencesInWindow projects a recurring series onto the dates in the
// window it occurs on.
func occurrencesInWindow(series domain.Event, window []string) []domain.Event {
	var out []domain.Event
	for _, d := range window {
		occurs, err := recurrence.OccursOn(series.Date, series.Recurrence, "", d)
		if err != nil || !occurs {
			continue
		}
		occurrence := series
		occurrence.Date = d
		out = append(out, occurrence)
	}
	return out
}

func previousDay(date string) (string, error) {
	t, err := domain.ParseDate(date)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, -1).Format(domain.DateLayout), nil
}

// RemoveDuplicates drops redundant copies of identical events
func (s *reconciliationServiceImpl) RemoveDuplicates(ctx context.Context) (int, error) {
	return s.repo.RemoveDuplicateEvents(ctx)
}
