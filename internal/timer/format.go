package timer

import "fmt"

// FormatTime renders seconds as HH:MM:SS. Hours are not capped.
func FormatTime(secs int64) string {
	if secs < 0 {
		secs = 0
	}
	h := secs / 3600
	m := (secs % 3600) / 60
	s := secs % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}

// ProgressPercent is the share of the expected time already spent, capped at
// 100. It is 0 when no expected time is set.
func ProgressPercent(elapsedSecs int64, expectedMinutes int) float64 {
	if expectedMinutes <= 0 || elapsedSecs <= 0 {
		return 0
	}
	p := 100 * float64(elapsedSecs) / float64(expectedMinutes*60)
	return min(p, 100)
}
