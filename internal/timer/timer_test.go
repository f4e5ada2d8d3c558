package timer

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sadopc/studybat/internal/tracker"
)

type fakeClock struct{ t time.Time }

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

type memKV map[string]string

func (m memKV) GetValue(key string) (string, bool, error) {
	v, ok := m[key]
	return v, ok, nil
}

func (m memKV) SetValue(key, value string) error {
	m[key] = value
	return nil
}

func newRecords(t *testing.T, clock *fakeClock) *tracker.Records {
	t.Helper()
	return tracker.Open(memKV{}, nil, tracker.WithClock(clock.now))
}

// ============================================================
// Stopwatch
// ============================================================

func TestStopwatchStartsIdle(t *testing.T) {
	w := NewStopwatch(newFakeClock().now)
	assert.Equal(t, Idle, w.State())
	assert.False(t, w.Active())
	assert.Zero(t, w.Elapsed())
}

func TestStopwatchStartWhileActiveIsNoop(t *testing.T) {
	clock := newFakeClock()
	w := NewStopwatch(clock.now)
	require.True(t, w.Start())

	clock.advance(3 * time.Second)
	assert.False(t, w.Start(), "second start should be ignored")
	assert.Equal(t, 3*time.Second, w.Elapsed(), "second start must not reset the run")

	require.NoError(t, w.Pause())
	assert.False(t, w.Start())
	assert.Equal(t, Paused, w.State())
}

func TestStopwatchPauseAccumulates(t *testing.T) {
	clock := newFakeClock()
	w := NewStopwatch(clock.now)
	w.Start()

	clock.advance(10 * time.Second)
	require.NoError(t, w.Pause())
	clock.advance(time.Hour)
	assert.Equal(t, 10*time.Second, w.Elapsed(), "paused time must not count")

	require.NoError(t, w.Resume())
	clock.advance(5 * time.Second)
	assert.Equal(t, 15*time.Second, w.Elapsed())
	assert.Equal(t, 15*time.Second, w.Stop())
	assert.Equal(t, Idle, w.State())
	assert.Zero(t, w.Elapsed())
}

func TestStopwatchToggle(t *testing.T) {
	clock := newFakeClock()
	w := NewStopwatch(clock.now)
	w.Start()

	require.NoError(t, w.Toggle())
	assert.Equal(t, Paused, w.State())
	require.NoError(t, w.Toggle())
	assert.Equal(t, Running, w.State())
}

func TestStopwatchIllegalTransitions(t *testing.T) {
	w := NewStopwatch(newFakeClock().now)

	assert.ErrorIs(t, w.Toggle(), ErrIllegalTransition)
	assert.ErrorIs(t, w.Pause(), ErrIllegalTransition)
	assert.ErrorIs(t, w.Resume(), ErrIllegalTransition)
	assert.Equal(t, Idle, w.State())

	w.Start()
	assert.ErrorIs(t, w.Resume(), ErrIllegalTransition)
	assert.Equal(t, Running, w.State())
}

func TestStopwatchStopWhenIdle(t *testing.T) {
	w := NewStopwatch(nil)
	assert.Zero(t, w.Stop())
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "idle", Idle.String())
	assert.Equal(t, "running", Running.String())
	assert.Equal(t, "paused", Paused.String())
	assert.Equal(t, "State(9)", State(9).String())
}

func TestSeconds(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want int64
	}{
		{0, 0},
		{-time.Second, 0},
		{400 * time.Millisecond, 0},
		{500 * time.Millisecond, 1},
		{5 * time.Second, 5},
		{5*time.Second + 600*time.Millisecond, 6},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Seconds(tt.in), "Seconds(%v)", tt.in)
	}
}

// ============================================================
// Formatting
// ============================================================

func TestFormatTime(t *testing.T) {
	tests := []struct {
		secs int64
		want string
	}{
		{0, "00:00:00"},
		{59, "00:00:59"},
		{3661, "01:01:01"},
		{36000, "10:00:00"},
		{360000, "100:00:00"},
		{-5, "00:00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatTime(tt.secs), "FormatTime(%d)", tt.secs)
	}
}

func TestProgressPercent(t *testing.T) {
	assert.Equal(t, 50.0, ProgressPercent(300, 10))
	assert.Equal(t, 100.0, ProgressPercent(1200, 10))
	assert.Equal(t, 100.0, ProgressPercent(600, 10))
	assert.Equal(t, 0.0, ProgressPercent(300, 0))
	assert.Equal(t, 0.0, ProgressPercent(0, 10))
}

// ============================================================
// Study timer
// ============================================================

func TestStudyTimerZeroElapsedRecordsNothing(t *testing.T) {
	clock := newFakeClock()
	recs := newRecords(t, clock)
	st := NewStudyTimer(recs, clock.now)

	st.Start()
	s, err := st.Stop("Math")
	require.NoError(t, err)
	assert.Nil(t, s)
	assert.Empty(t, recs.Sessions())
	assert.Equal(t, Idle, st.State())
}

func TestStudyTimerRecordsSession(t *testing.T) {
	clock := newFakeClock()
	recs := newRecords(t, clock)
	st := NewStudyTimer(recs, clock.now)

	st.Start()
	clock.advance(5 * time.Second)
	s, err := st.Stop("")
	require.NoError(t, err)
	require.NotNil(t, s)

	sessions := recs.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, int64(5), sessions[0].Duration)
	assert.Equal(t, tracker.DefaultSubject, sessions[0].Subject)
	assert.Equal(t, s.ID, sessions[0].ID)
}

func TestStudyTimerPausedStopFinalizes(t *testing.T) {
	clock := newFakeClock()
	recs := newRecords(t, clock)
	st := NewStudyTimer(recs, clock.now)

	st.Start()
	clock.advance(90 * time.Second)
	require.NoError(t, st.Toggle())
	clock.advance(10 * time.Minute)

	s, err := st.Stop("Physics")
	require.NoError(t, err)
	require.NotNil(t, s)
	assert.Equal(t, int64(90), s.Duration)
	assert.Equal(t, "Physics", s.Subject)
}

// ============================================================
// Progress timer
// ============================================================

func addAssignment(t *testing.T, recs *tracker.Records, expected int) tracker.Assignment {
	t.Helper()
	a, err := recs.AddAssignment(tracker.AssignmentInput{
		Title:        "Essay",
		Subject:      "History",
		DueDate:      time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC),
		ExpectedTime: expected,
	})
	require.NoError(t, err)
	return a
}

func TestProgressTimerRequiresExpectedTime(t *testing.T) {
	clock := newFakeClock()
	recs := newRecords(t, clock)
	a := addAssignment(t, recs, 0)

	pt := NewProgressTimer(recs, clock.now)
	err := pt.Start(a.ID)
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.Equal(t, Idle, pt.State())
	assert.Empty(t, pt.AssignmentID())
}

func TestProgressTimerMissingAssignment(t *testing.T) {
	clock := newFakeClock()
	pt := NewProgressTimer(newRecords(t, clock), clock.now)
	assert.ErrorIs(t, pt.Start("nope"), tracker.ErrNotFound)
	assert.Equal(t, Idle, pt.State())
}

func TestProgressTimerProgress(t *testing.T) {
	clock := newFakeClock()
	recs := newRecords(t, clock)
	a := addAssignment(t, recs, 10)

	pt := NewProgressTimer(recs, clock.now)
	require.NoError(t, pt.Start(a.ID))
	assert.Equal(t, a.ID, pt.AssignmentID())
	assert.Equal(t, "Essay", pt.Title())
	assert.Equal(t, 10, pt.ExpectedMinutes())

	clock.advance(300 * time.Second)
	assert.Equal(t, 50.0, pt.Progress())

	clock.advance(900 * time.Second)
	assert.Equal(t, 100.0, pt.Progress())
}

func TestProgressTimerStopAddsTimeSpent(t *testing.T) {
	clock := newFakeClock()
	recs := newRecords(t, clock)
	a := addAssignment(t, recs, 30)

	pt := NewProgressTimer(recs, clock.now)
	require.NoError(t, pt.Start(a.ID))
	clock.advance(2 * time.Minute)
	secs, err := pt.Stop()
	require.NoError(t, err)
	assert.Equal(t, int64(120), secs)

	require.NoError(t, pt.Start(a.ID))
	clock.advance(time.Minute)
	_, err = pt.Stop()
	require.NoError(t, err)

	got, ok := recs.Assignment(a.ID)
	require.True(t, ok)
	assert.Equal(t, int64(180), got.TimeSpent)
	assert.Empty(t, pt.AssignmentID())
}

func TestProgressTimerZeroElapsedLogsNothing(t *testing.T) {
	clock := newFakeClock()
	recs := newRecords(t, clock)
	a := addAssignment(t, recs, 30)

	pt := NewProgressTimer(recs, clock.now)
	require.NoError(t, pt.Start(a.ID))
	secs, err := pt.Stop()
	require.NoError(t, err)
	assert.Zero(t, secs)

	got, _ := recs.Assignment(a.ID)
	assert.Zero(t, got.TimeSpent)
}

func TestProgressTimerStartWhileActiveIsNoop(t *testing.T) {
	clock := newFakeClock()
	recs := newRecords(t, clock)
	first := addAssignment(t, recs, 30)
	second := addAssignment(t, recs, 45)

	pt := NewProgressTimer(recs, clock.now)
	require.NoError(t, pt.Start(first.ID))
	require.NoError(t, pt.Start(second.ID))
	assert.Equal(t, first.ID, pt.AssignmentID())
}
