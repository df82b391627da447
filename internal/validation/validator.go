package validation

import (
	"regexp"
	"strings"
	"time"

	"schedule-keeper/internal/domain"
)

// Validator provides common validation utilities
type Validator struct {
	timeRangeRegex *regexp.Regexp
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		timeRangeRegex: regexp.MustCompile(`^\d{1,2}:\d{2}-\d{1,2}:\d{2}$`),
	}
}

// IsNonEmptyString checks if a string is not empty after trimming whitespace
func (v *Validator) IsNonEmptyString(s string) bool {
	return strings.TrimSpace(s) != ""
}

// IsValidDate checks if a string is a YYYY-MM-DD calendar date
func (v *Validator) IsValidDate(s string) bool {
	_, err := time.Parse(domain.DateLayout, s)
	return err == nil
}

// IsValidTimeRangeFormat checks the "HH:MM-HH:MM" shape without parsing the
// clock values
func (v *Validator) IsValidTimeRangeFormat(s string) bool {
	return v.timeRangeRegex.MatchString(s)
}

// IsValidImportance checks if an importance value is within the ordinal range
func (v *Validator) IsValidImportance(importance int) bool {
	return importance >= 0 && importance <= 5
}

// IsValidEventID checks if an event ID is valid (positive)
func (v *Validator) IsValidEventID(id int64) bool {
	return id > 0
}

// TrimAndValidateString trims whitespace and returns the cleaned string
func (v *Validator) TrimAndValidateString(s string) string {
	return strings.TrimSpace(s)
}
