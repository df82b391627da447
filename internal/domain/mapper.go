package domain

import (
	"schedule-keeper/internal/repository"
)

// EventMapper handles conversion between domain and storage Event models.
type EventMapper struct{}

// NewEventMapper creates a new EventMapper instance.
func NewEventMapper() *EventMapper {
	return &EventMapper{}
}

// ToRecord converts a domain Event to a storage Event.
func (m *EventMapper) ToRecord(event Event) repository.Event {
	return repository.Event{
		ID:             event.ID,
		Title:          event.Title,
		Date:           event.Date,
		TimeRange:      event.TimeRange.String(),
		EventType:      event.EventType,
		Deadline:       event.Deadline,
		Importance:     event.Importance,
		RecurrenceRule: string(event.Recurrence),
		LastUpdated:    event.LastUpdated,
	}
}

// FromRecord converts a storage Event to a domain Event. It fails when the
// stored time range is not parseable.
func (m *EventMapper) FromRecord(rec repository.Event) (Event, error) {
	tr, err := ParseTimeRange(rec.TimeRange)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:          rec.ID,
		Title:       rec.Title,
		Date:        rec.Date,
		TimeRange:   tr,
		EventType:   rec.EventType,
		Deadline:    rec.Deadline,
		Importance:  rec.Importance,
		Recurrence:  RecurrenceRule(rec.RecurrenceRule),
		LastUpdated: rec.LastUpdated,
	}, nil
}

// FromRecordSlice converts storage Events to domain Events, skipping rows
// whose stored time range cannot be parsed. Unparseable rows cannot take part
// in conflict checking, which mirrors how the engine treats them.
func (m *EventMapper) FromRecordSlice(recs []*repository.Event) []Event {
	events := make([]Event, 0, len(recs))
	for _, rec := range recs {
		event, err := m.FromRecord(*rec)
		if err != nil {
			continue
		}
		events = append(events, event)
	}
	return events
}

// CompletionMapper handles conversion between domain and storage completion
// models.
type CompletionMapper struct{}

// NewCompletionMapper creates a new CompletionMapper instance.
func NewCompletionMapper() *CompletionMapper {
	return &CompletionMapper{}
}

// ToRecord converts a domain CompletedInstance to a storage CompletedTask.
func (m *CompletionMapper) ToRecord(inst CompletedInstance) repository.CompletedTask {
	rec := repository.CompletedTask{
		ID:              inst.ID,
		TaskID:          inst.TaskID,
		Title:           inst.Title,
		Date:            inst.Date,
		TimeRange:       inst.TimeRange.String(),
		EventType:       inst.EventType,
		Deadline:        inst.Deadline,
		Importance:      inst.Importance,
		CompletionDate:  inst.CompletionDate,
		CompletionNotes: inst.CompletionNotes,
		ReflectionNotes: inst.ReflectionNotes,
	}
	if inst.ActualTimeRange != nil {
		s := inst.ActualTimeRange.String()
		rec.ActualTimeRange = &s
	}
	return rec
}

// FromRecord converts a storage CompletedTask to a domain CompletedInstance.
func (m *CompletionMapper) FromRecord(rec repository.CompletedTask) (CompletedInstance, error) {
	tr, err := ParseTimeRange(rec.TimeRange)
	if err != nil {
		return CompletedInstance{}, err
	}
	inst := CompletedInstance{
		ID:              rec.ID,
		TaskID:          rec.TaskID,
		Title:           rec.Title,
		Date:            rec.Date,
		TimeRange:       tr,
		EventType:       rec.EventType,
		Deadline:        rec.Deadline,
		Importance:      rec.Importance,
		CompletionDate:  rec.CompletionDate,
		CompletionNotes: rec.CompletionNotes,
		ReflectionNotes: rec.ReflectionNotes,
	}
	if rec.ActualTimeRange != nil {
		actual, err := ParseTimeRange(*rec.ActualTimeRange)
		if err == nil {
			inst.ActualTimeRange = &actual
		}
	}
	return inst, nil
}

// Mapper provides a unified interface for all mapping operations.
type Mapper struct {
	Event      *EventMapper
	Completion *CompletionMapper
}

// NewMapper creates a new Mapper instance with all sub-mappers.
func NewMapper() *Mapper {
	return &Mapper{
		Event:      NewEventMapper(),
		Completion: NewCompletionMapper(),
	}
}
