package domain

// Action is the change tag carried by a proposed operation.
type Action string

const (
	ActionAdd       Action = "add"
	ActionModify    Action = "modify"
	ActionDelete    Action = "delete"
	ActionUnchanged Action = "unchanged"
	ActionUnknown   Action = "unknown"
)

// Operation is one proposed change extracted from assistant text. Operations
// never carry a stored id; matching against stored events is done by
// (title, date), with the time range as a tie-break.
type Operation struct {
	Title      string
	Date       string
	TimeRange  TimeRange
	EventType  string
	Deadline   *string
	Importance int
	Action     Action
	// RawAction preserves the action word as it appeared in the text, for
	// error reporting on unrecognized actions.
	RawAction string
	// PreviousTimeRange is an optional hint carrying the time range the
	// event held before a modification, used to disambiguate when several
	// stored events share the same (title, date).
	PreviousTimeRange *TimeRange
}

// ToEvent converts the operation into an event candidate carrying the given
// recurrence rule.
func (o Operation) ToEvent(rule RecurrenceRule) Event {
	return Event{
		Title:      o.Title,
		Date:       o.Date,
		TimeRange:  o.TimeRange,
		EventType:  o.EventType,
		Deadline:   o.Deadline,
		Importance: o.Importance,
		Recurrence: rule,
	}
}

// Partition groups operations by action tag, preserving input order within
// each group.
func Partition(ops []Operation) (deletions, modifications, additions, unchanged, unknown []Operation) {
	for _, op := range ops {
		switch op.Action {
		case ActionDelete:
			deletions = append(deletions, op)
		case ActionModify:
			modifications = append(modifications, op)
		case ActionAdd:
			additions = append(additions, op)
		case ActionUnchanged:
			unchanged = append(unchanged, op)
		default:
			unknown = append(unknown, op)
		}
	}
	return
}
