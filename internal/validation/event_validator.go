package validation

import (
	"schedule-keeper/internal/domain"
)

// EventValidator provides validation for event-related operations
type EventValidator struct {
	validator *Validator
}

// NewEventValidator creates a new event validator
func NewEventValidator() *EventValidator {
	return &EventValidator{
		validator: NewValidator(),
	}
}

// ValidateEvent validates an event candidate before it is written
func (ev *EventValidator) ValidateEvent(event domain.Event) error {
	validationError := NewValidationError()

	if !ev.validator.IsNonEmptyString(event.Title) {
		validationError.AddRequiredError("title")
	}
	if !ev.validator.IsValidDate(event.Date) {
		validationError.AddInvalidFormatError("date", event.Date, "YYYY-MM-DD")
	}
	if event.TimeRange.IsDegenerate() {
		validationError.AddInvalidRangeError("time_range", event.TimeRange.String(), "start and end must differ")
	}
	if !ev.validator.IsNonEmptyString(event.EventType) {
		validationError.AddRequiredError("event_type")
	}
	if !ev.validator.IsValidImportance(event.Importance) {
		validationError.AddInvalidValueError("importance", event.Importance, "must be between 0 and 5")
	}
	if event.Deadline != nil && !ev.validator.IsValidDate(*event.Deadline) {
		validationError.AddInvalidFormatError("deadline", *event.Deadline, "YYYY-MM-DD")
	}
	if !event.Recurrence.IsValid() {
		validationError.AddInvalidValueError("recurrence_rule", string(event.Recurrence), "unsupported rule")
	}

	if validationError.HasErrors() {
		return validationError
	}
	return nil
}

// ValidateEventID validates an event ID
func (ev *EventValidator) ValidateEventID(id int64) error {
	if !ev.validator.IsValidEventID(id) {
		validationError := NewValidationError()
		validationError.AddInvalidValueError("event_id", id, "must be a positive integer")
		return validationError
	}
	return nil
}

// ValidateOccurrenceDate validates an occurrence date supplied to the
// completion tracker
func (ev *EventValidator) ValidateOccurrenceDate(date string) error {
	if !ev.validator.IsValidDate(date) {
		validationError := NewValidationError()
		validationError.AddInvalidFormatError("occurrence_date", date, "YYYY-MM-DD")
		return validationError
	}
	return nil
}
