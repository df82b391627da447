// Package extract parses the planning assistant's semi-structured text output
// into a sequence of proposed event operations. Parsing is intentionally
// lenient: the assistant interleaves explanatory prose with structured blocks,
// so blocks missing required fields are dropped rather than reported.
package extract

import (
	"regexp"
	"strconv"
	"strings"

	"schedule-keeper/internal/domain"
	"schedule-keeper/internal/logging"
)

// LabelSet defines the field labels and action vocabulary the extractor
// recognizes. The assistant is prompted with the same set, so both sides can
// be reconfigured together (for example to a localized vocabulary).
type LabelSet struct {
	Title        string
	Date         string
	Time         string
	PreviousTime string
	Type         string
	Deadline     string
	Importance   string
	Recurrence   string
	Action       string
	// Actions maps action words as they appear in the text onto operation
	// actions. Unmapped words become ActionUnknown.
	Actions map[string]domain.Action
}

// ActionWord returns the word in the action vocabulary mapping onto the given
// action, or the empty string if the vocabulary has none.
func (ls LabelSet) ActionWord(action domain.Action) string {
	for word, a := range ls.Actions {
		if a == action {
			return word
		}
	}
	return ""
}

// DefaultLabels returns the English label set.
func DefaultLabels() LabelSet {
	return LabelSet{
		Title:        "Title",
		Date:         "Date",
		Time:         "Time",
		PreviousTime: "Previous time",
		Type:         "Type",
		Deadline:     "Deadline",
		Importance:   "Importance",
		Recurrence:   "Recurrence",
		Action:       "Action",
		Actions: map[string]domain.Action{
			"add":    domain.ActionAdd,
			"modify": domain.ActionModify,
			"delete": domain.ActionDelete,
			"none":   domain.ActionUnchanged,
		},
	}
}

// Extractor parses assistant text into operations.
type Extractor struct {
	labels  LabelSet
	titleRe *regexp.Regexp
	fields  map[string]*regexp.Regexp
}

// New creates an extractor for the given label set.
func New(labels LabelSet) *Extractor {
	e := &Extractor{
		labels: labels,
		fields: make(map[string]*regexp.Regexp),
	}
	// A block starts at a title label and runs until the next title label or
	// end of text.
	e.titleRe = regexp.MustCompile(labelPattern(labels.Title))
	for _, label := range []string{
		labels.Title, labels.Date, labels.Time, labels.PreviousTime,
		labels.Type, labels.Deadline, labels.Importance, labels.Action,
	} {
		e.fields[label] = regexp.MustCompile(`(?m)^[ \t]*` + labelPattern(label) + `[ \t]*(.*?)[ \t]*$`)
	}
	return e
}

// labelPattern matches a field label followed by an ASCII or full-width colon.
func labelPattern(label string) string {
	return regexp.QuoteMeta(label) + `[:：]`
}

// Extract parses text into operations in input order. It never fails: text
// with no recognizable blocks yields an empty slice, and it is the caller's
// choice whether an empty result is an error.
func (e *Extractor) Extract(text string) []domain.Operation {
	var ops []domain.Operation

	for _, block := range e.blocks(text) {
		op, ok := e.parseBlock(block)
		if !ok {
			continue
		}
		ops = append(ops, op)
	}

	logging.Debugf("extracted %d operations from %d bytes of assistant text\n", len(ops), len(text))
	return ops
}

// blocks slices text into runs starting at each title label. The text before
// the first title label is prose and is discarded.
func (e *Extractor) blocks(text string) []string {
	starts := e.titleRe.FindAllStringIndex(text, -1)
	if len(starts) == 0 {
		return nil
	}
	blocks := make([]string, 0, len(starts))
	for i, loc := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		blocks = append(blocks, text[loc[0]:end])
	}
	return blocks
}

// parseBlock extracts one operation from a block. Required fields are title,
// date, time range, event type and action; a block missing any of them, or
// carrying an unparseable date or time range, is dropped.
func (e *Extractor) parseBlock(block string) (domain.Operation, bool) {
	var op domain.Operation

	title, ok := e.field(block, e.labels.Title)
	if !ok {
		return op, false
	}
	date, ok := e.field(block, e.labels.Date)
	if !ok {
		return op, false
	}
	if _, err := domain.ParseDate(date); err != nil {
		logging.Debugf("dropping block %q: bad date %q\n", title, date)
		return op, false
	}
	timeText, ok := e.field(block, e.labels.Time)
	if !ok {
		return op, false
	}
	tr, err := domain.ParseTimeRange(timeText)
	if err != nil {
		logging.Debugf("dropping block %q: bad time range %q\n", title, timeText)
		return op, false
	}
	eventType, ok := e.field(block, e.labels.Type)
	if !ok {
		return op, false
	}
	rawAction, ok := e.field(block, e.labels.Action)
	if !ok {
		return op, false
	}

	op = domain.Operation{
		Title:     title,
		Date:      date,
		TimeRange: tr,
		EventType: eventType,
		RawAction: rawAction,
		Action:    domain.ActionUnknown,
	}
	if action, known := e.labels.Actions[strings.ToLower(rawAction)]; known {
		op.Action = action
	}

	if deadline, ok := e.field(block, e.labels.Deadline); ok {
		if _, err := domain.ParseDate(deadline); err == nil {
			op.Deadline = &deadline
		}
	}
	if importance, ok := e.field(block, e.labels.Importance); ok {
		if n, err := strconv.Atoi(importance); err == nil {
			op.Importance = n
		}
	}
	if prev, ok := e.field(block, e.labels.PreviousTime); ok {
		if prevTR, err := domain.ParseTimeRange(prev); err == nil {
			op.PreviousTimeRange = &prevTR
		}
	}

	return op, true
}

// field returns the trimmed value of a labeled line in the block, and whether
// a non-empty value was present.
func (e *Extractor) field(block, label string) (string, bool) {
	m := e.fields[label].FindStringSubmatch(block)
	if m == nil {
		return "", false
	}
	value := strings.TrimSpace(m[1])
	return value, value != ""
}
