package notify

import (
	"fmt"
	"time"

	"github.com/sadopc/studybat/internal/metrics"
	"github.com/sadopc/studybat/internal/tracker"
)

// DefaultAlertHours is the due-soon window used when no preference is stored.
const DefaultAlertHours = 24

// DueSoon returns the alert text for open assignments due within hours of
// now, and false when there is nothing to report.
func DueSoon(as []tracker.Assignment, now time.Time, hours int) (string, bool) {
	if hours <= 0 {
		hours = DefaultAlertHours
	}
	n := metrics.DueWithinHours(as, now, float64(hours))
	if n == 0 {
		return "", false
	}
	return fmt.Sprintf("You have %d assignment(s) due within %d hours!", n, hours), true
}
