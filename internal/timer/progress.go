package timer

import (
	"errors"
	"fmt"
	"time"

	"github.com/sadopc/studybat/internal/tracker"
)

// ErrUnsupported is returned when progress tracking is started on an
// assignment without an expected time.
var ErrUnsupported = errors.New("assignment has no expected time")

// TimeLogger resolves assignments and adds tracked time to them.
type TimeLogger interface {
	Assignment(id string) (tracker.Assignment, bool)
	AddTimeSpent(id string, secs int64) (tracker.Assignment, error)
}

// ProgressTimer tracks time spent on one assignment against its expected time.
type ProgressTimer struct {
	*Stopwatch
	log TimeLogger

	assignmentID string
	title        string
	expected     int // minutes
}

func NewProgressTimer(log TimeLogger, now func() time.Time) *ProgressTimer {
	return &ProgressTimer{Stopwatch: NewStopwatch(now), log: log}
}

// Start attaches the timer to an assignment and starts it. It does nothing when
// the timer is already active.
func (t *ProgressTimer) Start(assignmentID string) error {
	if t.Active() {
		return nil
	}
	a, ok := t.log.Assignment(assignmentID)
	if !ok {
		return fmt.Errorf("progress timer %s: %w", assignmentID, tracker.ErrNotFound)
	}
	if a.ExpectedTime <= 0 {
		return fmt.Errorf("progress timer for %q: %w", a.Title, ErrUnsupported)
	}
	t.assignmentID = a.ID
	t.title = a.Title
	t.expected = a.ExpectedTime
	t.Stopwatch.Start()
	return nil
}

func (t *ProgressTimer) AssignmentID() string { return t.assignmentID }
func (t *ProgressTimer) Title() string        { return t.title }
func (t *ProgressTimer) ExpectedMinutes() int { return t.expected }

// Progress is the percentage of the expected time covered by this run.
func (t *ProgressTimer) Progress() float64 {
	return ProgressPercent(int64(t.Elapsed()/time.Second), t.expected)
}

// Stop adds the elapsed seconds to the assignment's time spent. The returned
// seconds are 0 when nothing was logged.
func (t *ProgressTimer) Stop() (int64, error) {
	if !t.Active() {
		return 0, nil
	}
	id := t.assignmentID
	secs := Seconds(t.Stopwatch.Stop())
	t.assignmentID, t.title, t.expected = "", "", 0
	if secs == 0 {
		return 0, nil
	}
	if _, err := t.log.AddTimeSpent(id, secs); err != nil {
		return 0, err
	}
	return secs, nil
}
