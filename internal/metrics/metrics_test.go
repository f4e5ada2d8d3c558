package metrics

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/studybat/internal/tracker"
)

var now = time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)

func assignment(subject string, status tracker.Status, grade string, due time.Time) tracker.Assignment {
	return tracker.Assignment{
		ID:      subject + grade + due.String(),
		Title:   "task",
		Subject: subject,
		Status:  status,
		Grade:   grade,
		DueDate: due,
	}
}

func days(n float64) time.Time {
	return now.Add(time.Duration(n * float64(24*time.Hour)))
}

func TestCompletionRate(t *testing.T) {
	assert.Equal(t, 0, CompletionRate(nil))

	all := []tracker.Assignment{
		assignment("Math", tracker.StatusCompleted, "", now),
		assignment("Art", tracker.StatusCompleted, "", now),
	}
	assert.Equal(t, 100, CompletionRate(all))

	mixed := []tracker.Assignment{
		assignment("Math", tracker.StatusCompleted, "", now),
		assignment("Art", tracker.StatusPending, "", now),
		assignment("Bio", tracker.StatusInProgress, "", now),
	}
	assert.Equal(t, 33, CompletionRate(mixed))

	twoOfThree := append([]tracker.Assignment{}, mixed...)
	twoOfThree[1].Status = tracker.StatusCompleted
	assert.Equal(t, 67, CompletionRate(twoOfThree))
}

func TestCompletionRateOrderInvariant(t *testing.T) {
	as := []tracker.Assignment{
		assignment("A", tracker.StatusCompleted, "", now),
		assignment("B", tracker.StatusPending, "", now),
		assignment("C", tracker.StatusCompleted, "", now),
		assignment("D", tracker.StatusInProgress, "", now),
		assignment("E", tracker.StatusPending, "", now),
		assignment("F", tracker.StatusPending, "", now),
		assignment("G", tracker.StatusCompleted, "", now),
	}
	want := CompletionRate(as)

	r := rand.New(rand.NewSource(1))
	for i := 0; i < 20; i++ {
		shuffled := append([]tracker.Assignment{}, as...)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })
		assert.Equal(t, want, CompletionRate(shuffled))
	}
}

func TestAverageGrade(t *testing.T) {
	_, ok := AverageGrade(nil)
	assert.False(t, ok)

	as := []tracker.Assignment{
		assignment("Math", tracker.StatusCompleted, "85", now),
		assignment("Math", tracker.StatusCompleted, "90", now),
		assignment("Art", tracker.StatusCompleted, "n/a", now),
	}
	avg, ok := AverageGrade(as)
	require.True(t, ok)
	assert.Equal(t, 87.5, avg)

	onlyText := []tracker.Assignment{
		assignment("Art", tracker.StatusCompleted, "A+", now),
		assignment("Art", tracker.StatusCompleted, "", now),
	}
	_, ok = AverageGrade(onlyText)
	assert.False(t, ok)
}

func TestAverageGradeRoundsToOneDecimal(t *testing.T) {
	as := []tracker.Assignment{
		assignment("Math", tracker.StatusCompleted, "90", now),
		assignment("Math", tracker.StatusCompleted, "85", now),
		assignment("Math", tracker.StatusCompleted, "88", now),
	}
	avg, ok := AverageGrade(as)
	require.True(t, ok)
	assert.Equal(t, 87.7, avg)
}

func TestParseGrade(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"85", 85, true},
		{" 92.5 ", 92.5, true},
		{"-3", -3, true},
		{"", 0, false},
		{"n/a", 0, false},
		{"85%", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseGrade(tt.in)
		assert.Equal(t, tt.ok, ok, "ParseGrade(%q)", tt.in)
		assert.Equal(t, tt.want, got, "ParseGrade(%q)", tt.in)
	}
}

func TestUpcomingDeadlines(t *testing.T) {
	soon := assignment("Math", tracker.StatusPending, "", time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC))
	late := assignment("Math", tracker.StatusPending, "", time.Date(2024, 1, 20, 0, 0, 0, 0, time.UTC))

	assert.Equal(t, 1, UpcomingDeadlines([]tracker.Assignment{soon}, now))
	assert.Equal(t, 0, UpcomingDeadlines([]tracker.Assignment{late}, now))
	assert.Equal(t, 1, UpcomingDeadlines([]tracker.Assignment{soon, late}, now))
}

func TestUpcomingDeadlinesBoundaries(t *testing.T) {
	tests := []struct {
		name   string
		due    time.Time
		status tracker.Status
		want   int
	}{
		{"due now", now, tracker.StatusPending, 1},
		{"exactly seven days", days(7), tracker.StatusPending, 1},
		{"just over seven days", days(7.01), tracker.StatusPending, 0},
		{"overdue by half a day", days(-0.5), tracker.StatusPending, 1},
		{"overdue by two days", days(-2), tracker.StatusPending, 0},
		{"completed within window", days(2), tracker.StatusCompleted, 0},
		{"in progress within window", days(2), tracker.StatusInProgress, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			as := []tracker.Assignment{assignment("X", tt.status, "", tt.due)}
			assert.Equal(t, tt.want, UpcomingDeadlines(as, now))
		})
	}
}

func TestGradeBreakdownBySubject(t *testing.T) {
	as := []tracker.Assignment{
		assignment("Physics", tracker.StatusCompleted, "70", now),
		assignment("Math", tracker.StatusCompleted, "90", now),
		assignment("Physics", tracker.StatusCompleted, "81", now),
		assignment("Art", tracker.StatusCompleted, "great", now),
		assignment("Math", tracker.StatusPending, "", now),
	}
	got := GradeBreakdownBySubject(as)
	want := []SubjectGrade{
		{Subject: "Physics", Average: 75.5, OK: true},
		{Subject: "Math", Average: 90, OK: true},
		{Subject: "Art"},
	}
	assert.Equal(t, want, got)
	assert.Empty(t, GradeBreakdownBySubject(nil))
}

func TestDueWithinHours(t *testing.T) {
	as := []tracker.Assignment{
		assignment("A", tracker.StatusPending, "", now.Add(2*time.Hour)),
		assignment("B", tracker.StatusPending, "", now.Add(24*time.Hour)),
		assignment("C", tracker.StatusPending, "", now.Add(25*time.Hour)),
		assignment("D", tracker.StatusPending, "", now.Add(-time.Hour)),
		assignment("E", tracker.StatusPending, "", now),
		assignment("F", tracker.StatusCompleted, "", now.Add(time.Hour)),
	}
	assert.Equal(t, 2, DueWithinHours(as, now, 24))
	assert.Equal(t, 1, DueWithinHours(as, now, 3))
	assert.Equal(t, 0, DueWithinHours(nil, now, 24))
}

func TestCompute(t *testing.T) {
	as := []tracker.Assignment{
		assignment("Math", tracker.StatusCompleted, "80", days(-3)),
		assignment("Math", tracker.StatusPending, "", days(1)),
	}
	s := Compute(as, now)
	assert.Equal(t, 2, s.Total)
	assert.Equal(t, 1, s.Completed)
	assert.Equal(t, 50, s.CompletionRate)
	assert.True(t, s.HasAverageGrade)
	assert.Equal(t, 80.0, s.AverageGrade)
	assert.Equal(t, 1, s.UpcomingDeadlines)
	require.Len(t, s.Breakdown, 1)
	assert.Equal(t, "Math", s.Breakdown[0].Subject)
}

// ============================================================
// Study sessions
// ============================================================

func TestTotalStudy(t *testing.T) {
	sessions := []tracker.StudySession{{Duration: 60}, {Duration: 30}}
	assert.Equal(t, int64(90), TotalStudy(sessions))
	assert.Zero(t, TotalStudy(nil))
}

func TestStudyByDay(t *testing.T) {
	sessions := []tracker.StudySession{
		{Date: now.Add(2 * time.Hour), Duration: 600},
		{Date: now.Add(5 * time.Hour), Duration: 300},
		{Date: now.Add(26 * time.Hour), Duration: 120},
		{Date: now.Add(-time.Hour), Duration: 999},
	}
	got := StudyByDay(sessions, now.Add(3*time.Hour), 3)
	require.Len(t, got, 3)
	assert.True(t, got[0].Date.Equal(now))
	assert.Equal(t, int64(900), got[0].Seconds)
	assert.Equal(t, int64(120), got[1].Seconds)
	assert.Zero(t, got[2].Seconds)
	assert.Nil(t, StudyByDay(sessions, now, 0))
}

func TestStudyBySubject(t *testing.T) {
	sessions := []tracker.StudySession{
		{Subject: "Math", Duration: 60},
		{Subject: "General", Duration: 10},
		{Subject: "Math", Duration: 40},
	}
	order, totals := StudyBySubject(sessions)
	assert.Equal(t, []string{"Math", "General"}, order)
	assert.Equal(t, int64(100), totals["Math"])
	assert.Equal(t, int64(10), totals["General"])
}
