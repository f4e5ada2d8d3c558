// Package metrics computes progress statistics over the assignment and
// study-session collections. Every function is pure and recomputes from the
// slice it is given.
package metrics

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/sadopc/studybat/internal/tracker"
)

const day = 24 * time.Hour

// UpcomingWindowDays is the horizon of UpcomingDeadlines.
const UpcomingWindowDays = 7

// SubjectGrade is the average numeric grade of one subject. OK is false when
// the subject has no numeric grade.
type SubjectGrade struct {
	Subject string
	Average float64
	OK      bool
}

// Summary bundles the figures shown on the progress view.
type Summary struct {
	Total             int
	Completed         int
	CompletionRate    int
	AverageGrade      float64
	HasAverageGrade   bool
	UpcomingDeadlines int
	Breakdown         []SubjectGrade
}

func Compute(as []tracker.Assignment, now time.Time) Summary {
	avg, ok := AverageGrade(as)
	return Summary{
		Total:             len(as),
		Completed:         countCompleted(as),
		CompletionRate:    CompletionRate(as),
		AverageGrade:      avg,
		HasAverageGrade:   ok,
		UpcomingDeadlines: UpcomingDeadlines(as, now),
		Breakdown:         GradeBreakdownBySubject(as),
	}
}

func countCompleted(as []tracker.Assignment) int {
	n := 0
	for _, a := range as {
		if a.Completed() {
			n++
		}
	}
	return n
}

// CompletionRate is the rounded percentage of completed assignments, 0 when
// there are none.
func CompletionRate(as []tracker.Assignment) int {
	if len(as) == 0 {
		return 0
	}
	return int(math.Round(100 * float64(countCompleted(as)) / float64(len(as))))
}

// ParseGrade returns the numeric value of a grade string.
func ParseGrade(grade string) (float64, bool) {
	grade = strings.TrimSpace(grade)
	if grade == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(grade, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// AverageGrade is the mean of all numeric grades rounded to one decimal.
func AverageGrade(as []tracker.Assignment) (float64, bool) {
	var sum float64
	var n int
	for _, a := range as {
		if g, ok := ParseGrade(a.Grade); ok {
			sum += g
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return roundTenth(sum / float64(n)), true
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// UpcomingDeadlines counts open assignments due within the next seven days,
// measured in whole days rounded up.
func UpcomingDeadlines(as []tracker.Assignment, now time.Time) int {
	n := 0
	for _, a := range as {
		if a.Completed() {
			continue
		}
		days := math.Ceil(float64(a.DueDate.Sub(now)) / float64(day))
		if days >= 0 && days <= UpcomingWindowDays {
			n++
		}
	}
	return n
}

// GradeBreakdownBySubject averages numeric grades per subject, in the order
// subjects first appear.
func GradeBreakdownBySubject(as []tracker.Assignment) []SubjectGrade {
	index := make(map[string]int)
	var out []SubjectGrade
	var sums []float64
	var counts []int
	for _, a := range as {
		i, seen := index[a.Subject]
		if !seen {
			i = len(out)
			index[a.Subject] = i
			out = append(out, SubjectGrade{Subject: a.Subject})
			sums = append(sums, 0)
			counts = append(counts, 0)
		}
		if g, ok := ParseGrade(a.Grade); ok {
			sums[i] += g
			counts[i]++
		}
	}
	for i := range out {
		if counts[i] > 0 {
			out[i].Average = roundTenth(sums[i] / float64(counts[i]))
			out[i].OK = true
		}
	}
	return out
}

// DueWithinHours counts open assignments due after now and no later than
// hours from now.
func DueWithinHours(as []tracker.Assignment, now time.Time, hours float64) int {
	n := 0
	for _, a := range as {
		if a.Completed() {
			continue
		}
		left := a.DueDate.Sub(now).Hours()
		if left > 0 && left <= hours {
			n++
		}
	}
	return n
}
