package validation

import (
	"testing"
)

func TestValidator_IsNonEmptyString(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"Empty string", "", false},
		{"Whitespace only", "   ", false},
		{"Tab and newline", "\t\n", false},
		{"Valid string", "standup", true},
		{"String with spaces", "team standup", true},
		{"String with leading/trailing spaces", "  standup  ", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validator.IsNonEmptyString(tt.input)
			if result != tt.expected {
				t.Errorf("IsNonEmptyString(%q) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestValidator_IsValidDate(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"Valid date", "2023-06-15", true},
		{"Leap day", "2024-02-29", true},
		{"Non-leap Feb 29", "2023-02-29", false},
		{"Month out of range", "2023-13-01", false},
		{"Day out of range", "2023-06-31", false},
		{"Wrong separator", "2023/06/15", false},
		{"Missing zero padding", "2023-6-15", false},
		{"Empty string", "", false},
		{"Not a date", "today", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validator.IsValidDate(tt.input)
			if result != tt.expected {
				t.Errorf("IsValidDate(%q) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestValidator_IsValidTimeRangeFormat(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name     string
		input    string
		expected bool
	}{
		{"Zero padded", "09:00-10:30", true},
		{"Single digit hour", "9:00-10:30", true},
		{"Cross midnight shape", "23:00-01:00", true},
		{"Missing dash", "09:00 10:30", false},
		{"Single time", "09:00", false},
		{"Single digit minutes", "09:0-10:30", false},
		{"Empty string", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validator.IsValidTimeRangeFormat(tt.input)
			if result != tt.expected {
				t.Errorf("IsValidTimeRangeFormat(%q) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestValidator_IsValidImportance(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name       string
		importance int
		expected   bool
	}{
		{"Zero (unset)", 0, true},
		{"Lowest", 1, true},
		{"Highest", 5, true},
		{"Negative", -1, false},
		{"Above range", 6, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validator.IsValidImportance(tt.importance)
			if result != tt.expected {
				t.Errorf("IsValidImportance(%d) = %v, expected %v", tt.importance, result, tt.expected)
			}
		})
	}
}

func TestValidator_IsValidEventID(t *testing.T) {
	validator := NewValidator()

	tests := []struct {
		name     string
		id       int64
		expected bool
	}{
		{"Positive ID", 1, true},
		{"Large ID", 9223372036854775807, true},
		{"Zero", 0, false},
		{"Negative", -5, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := validator.IsValidEventID(tt.id)
			if result != tt.expected {
				t.Errorf("IsValidEventID(%d) = %v, expected %v", tt.id, result, tt.expected)
			}
		})
	}
}

func TestValidator_TrimAndValidateString(t *testing.T) {
	validator := NewValidator()

	if got := validator.TrimAndValidateString("  dentist  "); got != "dentist" {
		t.Errorf("TrimAndValidateString() = %q, expected %q", got, "dentist")
	}
	if got := validator.TrimAndValidateString("   "); got != "" {
		t.Errorf("TrimAndValidateString() = %q, expected empty string", got)
	}
}
