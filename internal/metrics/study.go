package metrics

import (
	"time"

	"github.com/sadopc/studybat/internal/tracker"
)

// DayTotal is the study time logged on one calendar day.
type DayTotal struct {
	Date    time.Time // midnight in the requested location
	Seconds int64
}

// TotalStudy sums the duration of all sessions.
func TotalStudy(sessions []tracker.StudySession) int64 {
	var total int64
	for _, s := range sessions {
		total += s.Duration
	}
	return total
}

// StudyByDay buckets session durations into days consecutive calendar days
// starting at the day containing from, in from's location.
func StudyByDay(sessions []tracker.StudySession, from time.Time, days int) []DayTotal {
	if days <= 0 {
		return nil
	}
	loc := from.Location()
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	out := make([]DayTotal, days)
	for i := range out {
		out[i].Date = start.AddDate(0, 0, i)
	}
	for _, s := range sessions {
		d := s.Date.In(loc)
		key := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
		for i := range out {
			if out[i].Date.Equal(key) {
				out[i].Seconds += s.Duration
				break
			}
		}
	}
	return out
}

// StudyBySubject sums durations per subject in first-appearance order.
func StudyBySubject(sessions []tracker.StudySession) ([]string, map[string]int64) {
	totals := make(map[string]int64)
	var order []string
	for _, s := range sessions {
		if _, ok := totals[s.Subject]; !ok {
			order = append(order, s.Subject)
		}
		totals[s.Subject] += s.Duration
	}
	return order, totals
}
