package tui

import (
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/studybat/internal/tracker"
)

const (
	themeDark  = "dark"
	themeLight = "light"
)

type palette struct {
	primary   lipgloss.Color
	secondary lipgloss.Color
	accent    lipgloss.Color
	muted     lipgloss.Color
	success   lipgloss.Color
	warning   lipgloss.Color
	error     lipgloss.Color
	fg        lipgloss.Color
	subtle    lipgloss.Color
	highlight lipgloss.Color
}

var darkPalette = palette{
	primary:   lipgloss.Color("#6C63FF"),
	secondary: lipgloss.Color("#2EC4B6"),
	accent:    lipgloss.Color("#FF6B6B"),
	muted:     lipgloss.Color("#666666"),
	success:   lipgloss.Color("#2ECC71"),
	warning:   lipgloss.Color("#F39C12"),
	error:     lipgloss.Color("#E74C3C"),
	fg:        lipgloss.Color("#C0CAF5"),
	subtle:    lipgloss.Color("#414868"),
	highlight: lipgloss.Color("#7AA2F7"),
}

var lightPalette = palette{
	primary:   lipgloss.Color("#4B44CC"),
	secondary: lipgloss.Color("#138A7F"),
	accent:    lipgloss.Color("#D64545"),
	muted:     lipgloss.Color("#8A8A8A"),
	success:   lipgloss.Color("#1E8C4E"),
	warning:   lipgloss.Color("#B9770E"),
	error:     lipgloss.Color("#C0392B"),
	fg:        lipgloss.Color("#1F2335"),
	subtle:    lipgloss.Color("#C8CCD8"),
	highlight: lipgloss.Color("#2E5FBF"),
}

// Color palette
var (
	colorPrimary   lipgloss.Color
	colorSecondary lipgloss.Color
	colorAccent    lipgloss.Color
	colorMuted     lipgloss.Color
	colorSuccess   lipgloss.Color
	colorWarning   lipgloss.Color
	colorError     lipgloss.Color
	colorFg        lipgloss.Color
	colorSubtle    lipgloss.Color
	colorHighlight lipgloss.Color
)

// Styles
var (
	activeTabStyle    lipgloss.Style
	inactiveTabStyle  lipgloss.Style
	panelStyle        lipgloss.Style
	activePanelStyle  lipgloss.Style
	timerStyle        lipgloss.Style
	timerRunningStyle lipgloss.Style
	timerPausedStyle  lipgloss.Style
	titleStyle        lipgloss.Style
	subtitleStyle     lipgloss.Style
	accentStyle       lipgloss.Style
	successStyle      lipgloss.Style
	warningStyle      lipgloss.Style
	errorStyle        lipgloss.Style
	mutedStyle        lipgloss.Style
	highlightStyle    lipgloss.Style
	headerStyle       lipgloss.Style
	footerStyle       lipgloss.Style
	selectedItemStyle lipgloss.Style
	normalItemStyle   lipgloss.Style
	todayStyle        lipgloss.Style
	cursorDayStyle    lipgloss.Style
)

var currentTheme string

func init() {
	applyTheme(themeDark)
}

// applyTheme rebuilds every style from the named palette. Unknown names fall
// back to dark.
func applyTheme(name string) {
	p := darkPalette
	if name == themeLight {
		p = lightPalette
	} else {
		name = themeDark
	}
	currentTheme = name

	colorPrimary = p.primary
	colorSecondary = p.secondary
	colorAccent = p.accent
	colorMuted = p.muted
	colorSuccess = p.success
	colorWarning = p.warning
	colorError = p.error
	colorFg = p.fg
	colorSubtle = p.subtle
	colorHighlight = p.highlight

	// Tabs
	activeTabStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorPrimary).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(colorPrimary).
		Padding(0, 2)

	inactiveTabStyle = lipgloss.NewStyle().
		Foreground(colorMuted).
		Padding(0, 2)

	// Panels
	panelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorSubtle).
		Padding(1, 2)

	activePanelStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorPrimary).
		Padding(1, 2)

	// Timer
	timerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorPrimary).
		Align(lipgloss.Center)

	timerRunningStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorSuccess).
		Align(lipgloss.Center)

	timerPausedStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(colorWarning).
		Align(lipgloss.Center)

	// Text
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorFg)
	subtitleStyle = lipgloss.NewStyle().Foreground(colorMuted)
	accentStyle = lipgloss.NewStyle().Foreground(colorAccent)
	successStyle = lipgloss.NewStyle().Foreground(colorSuccess)
	warningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	errorStyle = lipgloss.NewStyle().Foreground(colorError)
	mutedStyle = lipgloss.NewStyle().Foreground(colorMuted)
	highlightStyle = lipgloss.NewStyle().Foreground(colorHighlight)

	// Header/footer
	headerStyle = lipgloss.NewStyle().Padding(0, 1)
	footerStyle = lipgloss.NewStyle().Foreground(colorMuted).Padding(0, 1)

	// List items
	selectedItemStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true)
	normalItemStyle = lipgloss.NewStyle().Foreground(colorFg)

	// Calendar
	todayStyle = lipgloss.NewStyle().Foreground(colorSecondary).Bold(true)
	cursorDayStyle = lipgloss.NewStyle().Foreground(colorPrimary).Bold(true).Reverse(true)
}

func priorityStyle(p tracker.Priority) lipgloss.Style {
	switch p {
	case tracker.PriorityHigh:
		return errorStyle
	case tracker.PriorityLow:
		return successStyle
	}
	return warningStyle
}

func newForm(groups ...*huh.Group) *huh.Form {
	theme := huh.ThemeCharm()
	if currentTheme == themeLight {
		theme = huh.ThemeBase()
	}
	return huh.NewForm(groups...).
		WithShowHelp(true).
		WithShowErrors(true).
		WithTheme(theme)
}
