// Package timer implements the study-session and assignment-progress
// stopwatches.
package timer

import (
	"errors"
	"fmt"
	"time"
)

// State is the lifecycle state of a Stopwatch.
type State int

const (
	Idle State = iota
	Running
	Paused
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Paused:
		return "paused"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// ErrIllegalTransition is returned when pause/resume is requested in a state
// that does not allow it.
var ErrIllegalTransition = errors.New("illegal timer transition")

// Stopwatch accumulates running time across pauses.
type Stopwatch struct {
	now func() time.Time

	state       State
	startedAt   time.Time // start of the current running segment
	accumulated time.Duration
}

// NewStopwatch returns an idle stopwatch reading time from now, or time.Now
// when now is nil.
func NewStopwatch(now func() time.Time) *Stopwatch {
	if now == nil {
		now = time.Now
	}
	return &Stopwatch{now: now}
}

func (w *Stopwatch) State() State { return w.state }

// Active reports whether the stopwatch is running or paused.
func (w *Stopwatch) Active() bool { return w.state != Idle }

// Start moves Idle to Running. It returns false and does nothing when the
// stopwatch is already active.
func (w *Stopwatch) Start() bool {
	if w.state != Idle {
		return false
	}
	w.state = Running
	w.startedAt = w.now()
	w.accumulated = 0
	return true
}

func (w *Stopwatch) Pause() error {
	if w.state != Running {
		return fmt.Errorf("pause while %s: %w", w.state, ErrIllegalTransition)
	}
	w.accumulated += w.now().Sub(w.startedAt)
	w.state = Paused
	return nil
}

func (w *Stopwatch) Resume() error {
	if w.state != Paused {
		return fmt.Errorf("resume while %s: %w", w.state, ErrIllegalTransition)
	}
	w.startedAt = w.now()
	w.state = Running
	return nil
}

// Toggle pauses a running stopwatch and resumes a paused one.
func (w *Stopwatch) Toggle() error {
	switch w.state {
	case Running:
		return w.Pause()
	case Paused:
		return w.Resume()
	}
	return fmt.Errorf("toggle while %s: %w", w.state, ErrIllegalTransition)
}

// Elapsed returns the total running time so far.
func (w *Stopwatch) Elapsed() time.Duration {
	switch w.state {
	case Running:
		return w.accumulated + w.now().Sub(w.startedAt)
	case Paused:
		return w.accumulated
	}
	return 0
}

// Stop returns the stopwatch to Idle and reports the final elapsed time. An
// idle stopwatch reports 0.
func (w *Stopwatch) Stop() time.Duration {
	elapsed := w.Elapsed()
	w.state = Idle
	w.accumulated = 0
	w.startedAt = time.Time{}
	return elapsed
}

// Seconds rounds d to whole seconds.
func Seconds(d time.Duration) int64 {
	if d <= 0 {
		return 0
	}
	return int64(d.Round(time.Second) / time.Second)
}
