package conflict

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schedule-keeper/internal/domain"
)

func mustRange(t *testing.T, s string) domain.TimeRange {
	t.Helper()
	tr, err := domain.ParseTimeRange(s)
	require.NoError(t, err)
	return tr
}

func TestParsePolicy(t *testing.T) {
	assert.Equal(t, PolicyReject, ParsePolicy("reject"))
	assert.Equal(t, PolicyReject, ParsePolicy("error"), "error is an alias for reject")
	assert.Equal(t, PolicySkip, ParsePolicy("skip"))
	assert.Equal(t, PolicyForce, ParsePolicy("FORCE"))
	assert.Equal(t, PolicyReject, ParsePolicy(""), "unknown input defaults to reject")
	assert.Equal(t, PolicyReject, ParsePolicy("whatever"))
}

func TestFindConflicts(t *testing.T) {
	pool := []domain.Event{
		{ID: 1, Title: "Standup", Date: "2026-09-01", TimeRange: domain.TimeRange{Start: 540, End: 570}, EventType: "meeting"},
		{ID: 2, Title: "Focus block", Date: "2026-09-01", TimeRange: domain.TimeRange{Start: 600, End: 720}, EventType: "work"},
		{ID: 3, Title: "Other day", Date: "2026-09-02", TimeRange: domain.TimeRange{Start: 540, End: 570}, EventType: "meeting"},
	}

	tests := []struct {
		name    string
		date    string
		tr      string
		selfID  int64
		wantIDs []int64
	}{
		{name: "no overlap", date: "2026-09-01", tr: "08:00-09:00", wantIDs: nil},
		{name: "overlaps both stored events", date: "2026-09-01", tr: "09:15-10:15", wantIDs: []int64{1, 2}},
		{name: "same date only", date: "2026-09-02", tr: "09:00-09:30", wantIDs: []int64{3}},
		{name: "self is excluded", date: "2026-09-01", tr: "09:00-09:30", selfID: 1, wantIDs: nil},
		{name: "boundary touch is not a conflict", date: "2026-09-01", tr: "09:30-10:00", wantIDs: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindConflicts(Candidate{Date: tt.date, TimeRange: mustRange(t, tt.tr)}, pool, tt.selfID)
			var ids []int64
			for _, e := range got {
				ids = append(ids, e.ID)
			}
			assert.Equal(t, tt.wantIDs, ids)
		})
	}
}

func TestFindConflicts_CrossMidnight(t *testing.T) {
	// A stored range running 23:00 into 01:00 the next day.
	pool := []domain.Event{
		{ID: 7, Title: "Night shift", Date: "2026-09-01", TimeRange: mustRange(t, "23:00-01:00"), EventType: "work"},
	}

	tests := []struct {
		name string
		date string
		tr   string
		want bool
	}{
		{name: "candidate inside the late segment", date: "2026-09-01", tr: "23:30-23:45", want: true},
		{name: "candidate next morning inside the early segment", date: "2026-09-02", tr: "00:30-01:30", want: true},
		{name: "candidate next morning after the early segment", date: "2026-09-02", tr: "01:00-02:00", want: false},
		{name: "candidate two days later", date: "2026-09-03", tr: "00:30-01:30", want: false},
		{name: "cross-midnight candidate against cross-midnight stored", date: "2026-09-01", tr: "22:00-23:30", want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FindConflicts(Candidate{Date: tt.date, TimeRange: mustRange(t, tt.tr)}, pool, 0)
			assert.Equal(t, tt.want, len(got) > 0)
		})
	}
}

func TestIsExactDuplicate(t *testing.T) {
	pool := []domain.Event{
		{ID: 1, Title: "Standup", Date: "2026-09-01", TimeRange: mustRange(t, "09:00-09:30"), EventType: "meeting"},
	}

	dup := domain.Event{Title: "Standup", Date: "2026-09-01", TimeRange: mustRange(t, "09:00-09:30"), EventType: "meeting"}
	assert.True(t, IsExactDuplicate(dup, pool))

	differentType := dup
	differentType.EventType = "work"
	assert.False(t, IsExactDuplicate(differentType, pool))

	differentTime := dup
	differentTime.TimeRange = mustRange(t, "09:00-10:00")
	assert.False(t, IsExactDuplicate(differentTime, pool))
}

func TestResolve(t *testing.T) {
	pool := []domain.Event{
		{ID: 1, Title: "Standup", Date: "2026-09-01", TimeRange: mustRange(t, "09:00-09:30"), EventType: "meeting"},
	}
	conflicting := Candidate{Date: "2026-09-01", TimeRange: mustRange(t, "09:00-10:00")}
	free := Candidate{Date: "2026-09-01", TimeRange: mustRange(t, "11:00-12:00")}

	tests := []struct {
		name          string
		candidate     Candidate
		policy        Policy
		wantStatus    Status
		wantConflicts int
	}{
		{name: "free slot applies under reject", candidate: free, policy: PolicyReject, wantStatus: StatusApplied},
		{name: "conflict rejects under reject", candidate: conflicting, policy: PolicyReject, wantStatus: StatusRejected, wantConflicts: 1},
		{name: "conflict skips under skip", candidate: conflicting, policy: PolicySkip, wantStatus: StatusSkipped, wantConflicts: 1},
		{name: "conflict applies under force, still reported", candidate: conflicting, policy: PolicyForce, wantStatus: StatusApplied, wantConflicts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			outcome := Resolve(tt.candidate, pool, 0, tt.policy)
			assert.Equal(t, tt.wantStatus, outcome.Status)
			assert.Len(t, outcome.Conflicts, tt.wantConflicts)
		})
	}
}

func TestDescribeConflicts(t *testing.T) {
	conflicts := []domain.Event{
		{Title: "Standup", TimeRange: mustRange(t, "09:00-09:30")},
		{Title: "Review", TimeRange: mustRange(t, "09:15-10:00")},
	}
	assert.Equal(t, []string{"'Standup' (09:00-09:30)", "'Review' (09:15-10:00)"}, DescribeConflicts(conflicts))
}
