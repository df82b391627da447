package api

import (
	"context"

	"schedule-keeper/internal/domain"
	"schedule-keeper/internal/extract"
	"schedule-keeper/internal/repository"
	"schedule-keeper/internal/services"
)

// API is the single entry point for reconciliation, completion tracking and
// schedule rendering. The CLI and any embedding program talk to this surface
// rather than to the services directly.
type API interface {
	// Reconciliation
	Reconcile(ctx context.Context, text string, opts services.ReconcileOptions) (*services.Summary, error)
	RemoveDuplicates(ctx context.Context) (int, error)

	// Completion tracking
	CompleteEvent(ctx context.Context, eventID int64, opts services.CompleteOptions) (*domain.CompletedInstance, error)
	UncompleteEvent(ctx context.Context, taskID int64) (*domain.Event, error)
	DeleteCompleted(ctx context.Context, taskID int64) error
	AddReflection(ctx context.Context, taskID int64, notes string) error
	ListCompletions(ctx context.Context, opts repository.SearchOptions) ([]domain.CompletedInstance, error)

	// Schedule reads
	GetEvent(ctx context.Context, id int64) (*domain.Event, error)
	ListEvents(ctx context.Context, opts repository.SearchOptions) ([]domain.Event, error)
	EventsForDate(ctx context.Context, date string) ([]domain.Event, error)
	FormatSchedule(events []domain.Event) string
	DescribeChanges(before, after []domain.Event) services.ScheduleChanges
	FormatChanges(changes services.ScheduleChanges) string
}

type apiImpl struct {
	reconciliation services.ReconciliationService
	completion     services.CompletionService
	schedule       services.ScheduleService
}

// New creates an API over the given repository using the default label set
func New(repo repository.Repository, horizonDays int) API {
	return NewWithLabels(repo, extract.DefaultLabels(), horizonDays)
}

// NewWithLabels creates an API with a custom extraction label set
func NewWithLabels(repo repository.Repository, labels extract.LabelSet, horizonDays int) API {
	return &apiImpl{
		reconciliation: services.NewReconciliationService(repo, extract.New(labels), horizonDays),
		completion:     services.NewCompletionService(repo),
		schedule:       services.NewScheduleService(repo, labels),
	}
}

func (a *apiImpl) Reconcile(ctx context.Context, text string, opts services.ReconcileOptions) (*services.Summary, error) {
	return a.reconciliation.Reconcile(ctx, text, opts)
}

func (a *apiImpl) RemoveDuplicates(ctx context.Context) (int, error) {
	return a.reconciliation.RemoveDuplicates(ctx)
}

func (a *apiImpl) CompleteEvent(ctx context.Context, eventID int64, opts services.CompleteOptions) (*domain.CompletedInstance, error) {
	return a.completion.Complete(ctx, eventID, opts)
}

func (a *apiImpl) UncompleteEvent(ctx context.Context, taskID int64) (*domain.Event, error) {
	return a.completion.Uncomplete(ctx, taskID)
}

func (a *apiImpl) DeleteCompleted(ctx context.Context, taskID int64) error {
	return a.completion.DeleteCompleted(ctx, taskID)
}

func (a *apiImpl) AddReflection(ctx context.Context, taskID int64, notes string) error {
	return a.completion.AddReflection(ctx, taskID, notes)
}

func (a *apiImpl) ListCompletions(ctx context.Context, opts repository.SearchOptions) ([]domain.CompletedInstance, error) {
	return a.completion.ListCompletions(ctx, opts)
}

func (a *apiImpl) GetEvent(ctx context.Context, id int64) (*domain.Event, error) {
	return a.schedule.GetEvent(ctx, id)
}

func (a *apiImpl) ListEvents(ctx context.Context, opts repository.SearchOptions) ([]domain.Event, error) {
	return a.schedule.ListEvents(ctx, opts)
}

func (a *apiImpl) EventsForDate(ctx context.Context, date string) ([]domain.Event, error) {
	return a.schedule.EventsForDate(ctx, date)
}

func (a *apiImpl) FormatSchedule(events []domain.Event) string {
	return a.schedule.FormatSchedule(events)
}

func (a *apiImpl) DescribeChanges(before, after []domain.Event) services.ScheduleChanges {
	return a.schedule.DescribeChanges(before, after)
}

func (a *apiImpl) FormatChanges(changes services.ScheduleChanges) string {
	return a.schedule.FormatChanges(changes)
}
