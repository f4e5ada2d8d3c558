package timer

import (
	"time"

	"github.com/sadopc/studybat/internal/tracker"
)

// SessionRecorder persists finished study sessions.
type SessionRecorder interface {
	AddSession(duration int64, subject string) (tracker.StudySession, error)
}

// StudyTimer is the free-form study stopwatch.
type StudyTimer struct {
	*Stopwatch
	rec SessionRecorder
}

func NewStudyTimer(rec SessionRecorder, now func() time.Time) *StudyTimer {
	return &StudyTimer{Stopwatch: NewStopwatch(now), rec: rec}
}

// Stop ends the session and records it under subject. Nothing is recorded
// when no time has elapsed; the returned session is nil in that case.
func (t *StudyTimer) Stop(subject string) (*tracker.StudySession, error) {
	secs := Seconds(t.Stopwatch.Stop())
	if secs == 0 {
		return nil, nil
	}
	s, err := t.rec.AddSession(secs, subject)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
