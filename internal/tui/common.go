package tui

import (
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// viewState represents the currently active view.
type viewState int

const (
	viewCalendar viewState = iota
	viewAssignments
	viewProgress
	viewStudy
	viewSettings
)

var viewNames = []string{"Calendar", "Assignments", "Progress", "Study", "Settings"}

// --- Messages ---

type statusMsg struct {
	text    string
	isError bool
}

type exportDoneMsg struct {
	path string
}

// AlertCheckMsg asks the app to re-run the due-soon check. It is safe to send
// from any goroutine through tea.Program.Send.
type AlertCheckMsg struct{}

// showDateMsg opens the assignments view filtered to one day.
type showDateMsg struct {
	date time.Time
}

// trackAssignmentMsg starts the progress timer for an assignment.
type trackAssignmentMsg struct {
	id string
}

type prefsChangedMsg struct {
	theme      string
	alertHours int
}

// --- Helpers ---

func statusCmd(format string, args ...any) tea.Cmd {
	text := fmt.Sprintf(format, args...)
	return func() tea.Msg { return statusMsg{text: text} }
}

func errorCmd(format string, args ...any) tea.Cmd {
	text := fmt.Sprintf(format, args...)
	return func() tea.Msg { return statusMsg{text: text, isError: true} }
}

func formatHours(secs int64) string {
	h := float64(secs) / 3600
	return fmt.Sprintf("%.1fh", h)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.In(a.Location()).Date()
	return ay == by && am == bm && ad == bd
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// truncate shortens s to at most n runes, marking the cut with an ellipsis.
func truncate(s string, n int) string {
	r := []rune(s)
	if n <= 0 {
		return ""
	}
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
