// Package conflict detects and resolves time-range overlaps between a
// candidate event and a pool of currently relevant events (stored rows plus
// in-flight batch members).
package conflict

import (
	"strings"

	"schedule-keeper/internal/domain"
)

// Policy selects how detected conflicts are handled for a batch.
type Policy string

const (
	// PolicyReject refuses conflicting operations and records an error.
	// The operational vocabulary calls this mode "error".
	PolicyReject Policy = "reject"
	// PolicySkip drops conflicting operations with a warning.
	PolicySkip Policy = "skip"
	// PolicyForce applies operations regardless of conflicts.
	PolicyForce Policy = "force"
)

// ParsePolicy maps a policy word onto a Policy, accepting "error" as the
// historical alias for reject. Unrecognized words fall back to reject, the
// safest mode.
func ParsePolicy(s string) Policy {
	switch Policy(strings.ToLower(s)) {
	case PolicySkip:
		return PolicySkip
	case PolicyForce:
		return PolicyForce
	case PolicyReject, Policy("error"), Policy(""):
		return PolicyReject
	default:
		return PolicyReject
	}
}

// Status is the result of resolving a candidate under a policy.
type Status int

const (
	StatusApplied Status = iota
	StatusRejected
	StatusSkipped
)

// Outcome carries the resolution status and the conflicting events found.
type Outcome struct {
	Status    Status
	Conflicts []domain.Event
}

// Candidate is the (date, time range) slot being checked.
type Candidate struct {
	Date      string
	TimeRange domain.TimeRange
}

// segment is a same-day portion of a possibly cross-midnight range.
type segment struct {
	date string
	tr   domain.TimeRange
}

// segmentsOf splits a candidate slot into same-day segments. A cross-midnight
// range contributes a [start, 1440) segment on its own date and a [0, end)
// segment on the following date.
func segmentsOf(date string, tr domain.TimeRange) []segment {
	if !tr.CrossesMidnight() {
		return []segment{{date: date, tr: tr}}
	}
	same, next := tr.Split()
	nextDate, err := domain.NextDay(date)
	if err != nil {
		// Dates are validated upstream; an unparseable date cannot take part
		// in date-aware splitting, so compare only the same-day segment.
		return []segment{{date: date, tr: same}}
	}
	return []segment{
		{date: date, tr: same},
		{date: nextDate, tr: next},
	}
}

// FindConflicts returns every event in the pool whose time range overlaps the
// candidate on the same date, excluding the event with id selfID (used when
// checking a modification against its own stored row). Cross-midnight ranges
// on either side are compared segment-wise.
func FindConflicts(c Candidate, pool []domain.Event, selfID int64) []domain.Event {
	candSegs := segmentsOf(c.Date, c.TimeRange)

	var conflicts []domain.Event
	for _, event := range pool {
		if selfID != 0 && event.ID == selfID {
			continue
		}
		if overlapsAny(candSegs, segmentsOf(event.Date, event.TimeRange)) {
			conflicts = append(conflicts, event)
		}
	}
	return conflicts
}

// Overlapping reports whether two candidate slots overlap, comparing
// cross-midnight ranges segment-wise the same way FindConflicts does.
func Overlapping(a, b Candidate) bool {
	return overlapsAny(segmentsOf(a.Date, a.TimeRange), segmentsOf(b.Date, b.TimeRange))
}

func overlapsAny(a, b []segment) bool {
	for _, sa := range a {
		for _, sb := range b {
			if sa.date == sb.date && sa.tr.Overlaps(sb.tr) {
				return true
			}
		}
	}
	return false
}

// IsExactDuplicate reports whether the pool already contains an event
// identical to the candidate in (title, date, time range, event type).
// Duplicates are checked separately from, and prior to, conflicts: they
// signal redundant input and are never forced through.
func IsExactDuplicate(candidate domain.Event, pool []domain.Event) bool {
	for _, event := range pool {
		if candidate.IsExactDuplicateOf(event) {
			return true
		}
	}
	return false
}

// Resolve checks the candidate against the pool and applies the policy.
// Reject returns StatusRejected with the conflicts; skip returns
// StatusSkipped; force always returns StatusApplied, still reporting any
// conflicts so the caller can log a warning.
func Resolve(c Candidate, pool []domain.Event, selfID int64, policy Policy) Outcome {
	conflicts := FindConflicts(c, pool, selfID)
	if len(conflicts) == 0 {
		return Outcome{Status: StatusApplied}
	}
	switch policy {
	case PolicyForce:
		return Outcome{Status: StatusApplied, Conflicts: conflicts}
	case PolicySkip:
		return Outcome{Status: StatusSkipped, Conflicts: conflicts}
	default:
		return Outcome{Status: StatusRejected, Conflicts: conflicts}
	}
}

// DescribeConflicts renders conflicting events as "'title' (time range)"
// strings for error and warning messages.
func DescribeConflicts(conflicts []domain.Event) []string {
	described := make([]string, len(conflicts))
	for i, event := range conflicts {
		described[i] = "'" + event.Title + "' (" + event.TimeRange.String() + ")"
	}
	return described
}
