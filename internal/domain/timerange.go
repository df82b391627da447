package domain

import (
	"fmt"
	"strconv"
	"strings"

	"schedule-keeper/internal/errors"
)

// MinutesPerDay is the number of minutes in one calendar day.
const MinutesPerDay = 24 * 60

// TimeRange is a time-of-day interval in minutes since midnight.
// End < Start denotes a range that crosses midnight into the next day.
type TimeRange struct {
	Start int
	End   int
}

// ParseTimeRange parses a "H:MM-H:MM" or "HH:MM-HH:MM" string into a
// TimeRange. Hours must be 0-23 and minutes 0-59.
func ParseTimeRange(s string) (TimeRange, error) {
	parts := strings.Split(s, "-")
	if len(parts) != 2 {
		return TimeRange{}, errors.NewInvalidTimeFormatError(s)
	}

	start, err := parseClock(strings.TrimSpace(parts[0]))
	if err != nil {
		return TimeRange{}, errors.NewInvalidTimeFormatError(s)
	}
	end, err := parseClock(strings.TrimSpace(parts[1]))
	if err != nil {
		return TimeRange{}, errors.NewInvalidTimeFormatError(s)
	}

	return TimeRange{Start: start, End: end}, nil
}

// parseClock converts "H:MM" or "HH:MM" to minutes since midnight.
func parseClock(s string) (int, error) {
	hm := strings.Split(s, ":")
	if len(hm) != 2 {
		return 0, fmt.Errorf("missing colon in %q", s)
	}
	hour, err := strconv.Atoi(hm[0])
	if err != nil {
		return 0, err
	}
	minute, err := strconv.Atoi(hm[1])
	if err != nil {
		return 0, err
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("clock value out of range: %q", s)
	}
	return hour*60 + minute, nil
}

// Overlaps reports whether two same-day ranges overlap. Uses the strict rule
// a.Start < b.End && a.End > b.Start; a degenerate range (Start == End) never
// overlaps anything. Cross-midnight ranges must be split with Split before
// calling this.
func (tr TimeRange) Overlaps(other TimeRange) bool {
	if tr.IsDegenerate() || other.IsDegenerate() {
		return false
	}
	return tr.Start < other.End && tr.End > other.Start
}

// IsDegenerate reports whether the range has zero length.
func (tr TimeRange) IsDegenerate() bool {
	return tr.Start == tr.End
}

// CrossesMidnight reports whether the range ends on the following day.
func (tr TimeRange) CrossesMidnight() bool {
	return tr.End < tr.Start
}

// Split breaks a cross-midnight range into a same-day segment [Start, 1440)
// and a next-day segment [0, End). For a same-day range the first return
// value is the range itself and the second is degenerate.
func (tr TimeRange) Split() (sameDay TimeRange, nextDay TimeRange) {
	if !tr.CrossesMidnight() {
		return tr, TimeRange{}
	}
	return TimeRange{Start: tr.Start, End: MinutesPerDay}, TimeRange{Start: 0, End: tr.End}
}

// String re-serializes the range as zero-padded "HH:MM-HH:MM".
func (tr TimeRange) String() string {
	return formatClock(tr.Start) + "-" + formatClock(tr.End)
}

func formatClock(minutes int) string {
	// The end of a split same-day segment is 1440, which renders as the
	// 24:00 boundary.
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}
