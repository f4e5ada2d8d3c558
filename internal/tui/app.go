package tui

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/studybat/internal/export"
	"github.com/sadopc/studybat/internal/notify"
	"github.com/sadopc/studybat/internal/timer"
	"github.com/sadopc/studybat/internal/tracker"
)

var exportFormats = []string{"iCalendar", "CSV", "JSON"}

// App is the root Bubble Tea model.
type App struct {
	records *tracker.Records
	now     func() time.Time
	outDir  string
	width   int
	height  int

	activeView    viewState
	showHelp      bool
	exportPicking bool
	exportCursor  int
	alertHours    int

	calendar    calendarModel
	assignments assignmentsModel
	progress    progressModel
	study       studyModel
	settings    settingsModel

	help      help.Model
	status    string
	statusErr bool
}

// NewApp builds the UI over the record store. Preferences (theme, alert
// window) are read from and written to prefs. Exports go to the home
// directory.
func NewApp(r *tracker.Records, prefs tracker.KV) App {
	outDir, err := os.UserHomeDir()
	if err != nil {
		log.Printf("home dir: %v", err)
		outDir = "."
	}
	return newApp(r, prefs, time.Now, outDir)
}

func newApp(r *tracker.Records, prefs tracker.KV, now func() time.Time, outDir string) App {
	h := help.New()
	h.ShowAll = false

	settings := newSettingsModel(prefs)
	applyTheme(settings.theme)

	return App{
		records:     r,
		now:         now,
		outDir:      outDir,
		activeView:  viewCalendar,
		alertHours:  settings.alertHours,
		calendar:    newCalendarModel(r, now),
		assignments: newAssignmentsModel(r, now, outDir),
		progress:    newProgressModel(r, now),
		study:       newStudyModel(r, now),
		settings:    settings,
		help:        h,
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(
		a.calendar.refresh(),
		a.assignments.refresh(),
		a.study.refresh(),
		func() tea.Msg { return AlertCheckMsg{} },
	)
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.help.Width = msg.Width
		contentHeight := a.height - 4 // header + footer
		a.calendar.setSize(a.width, contentHeight)
		a.assignments.setSize(a.width, contentHeight)
		a.progress.setSize(a.width, contentHeight)
		a.study.setSize(a.width, contentHeight)
		a.settings.setSize(a.width, contentHeight)
		if a.activeView == viewProgress {
			return a, a.progress.refresh()
		}
		return a, nil

	case tea.KeyMsg:
		// Export picker
		if a.exportPicking {
			return a.updateExportPicker(msg)
		}

		// If a child view is capturing input (e.g. form), delegate first.
		if a.isFormActive() {
			return a.updateActiveView(msg)
		}

		switch {
		case key.Matches(msg, keys.Export):
			a.exportPicking = true
			a.exportCursor = 0
			return a, nil
		case key.Matches(msg, keys.Quit):
			return a, tea.Quit
		case key.Matches(msg, keys.Help):
			a.showHelp = !a.showHelp
			a.help.ShowAll = a.showHelp
			return a, nil
		case key.Matches(msg, keys.Tab1):
			return a.switchTo(viewCalendar)
		case key.Matches(msg, keys.Tab2):
			return a.switchTo(viewAssignments)
		case key.Matches(msg, keys.Tab3):
			return a.switchTo(viewProgress)
		case key.Matches(msg, keys.Tab4):
			return a.switchTo(viewStudy)
		case key.Matches(msg, keys.Tab5):
			return a.switchTo(viewSettings)
		case key.Matches(msg, keys.Tab):
			return a.switchTo((a.activeView + 1) % viewState(len(viewNames)))
		}

	case timerTickMsg:
		// Ticks always go to the study view, whichever view is shown.
		var cmd tea.Cmd
		a.study, cmd = a.study.update(msg)
		return a, cmd

	case AlertCheckMsg:
		if text, ok := notify.DueSoon(a.records.Assignments(), a.now(), a.alertHours); ok {
			a.status = text
			a.statusErr = false
		}
		return a, nil

	case showDateMsg:
		a.activeView = viewAssignments
		var cmd tea.Cmd
		a.assignments, cmd = a.assignments.showDate(msg.date)
		return a, cmd

	case trackAssignmentMsg:
		var cmd tea.Cmd
		a.study, cmd = a.study.startProgress(msg.id)
		if a.study.progress.AssignmentID() == msg.id {
			a.activeView = viewStudy
		}
		return a, cmd

	case prefsChangedMsg:
		applyTheme(msg.theme)
		a.study.restyle()
		a.alertHours = msg.alertHours
		var cmd tea.Cmd
		a.settings, cmd = a.settings.update(msg)
		return a, cmd

	case statusMsg:
		a.status = msg.text
		a.statusErr = msg.isError
		return a, nil

	case exportDoneMsg:
		a.status = "Exported to " + msg.path
		a.statusErr = false
		a.exportPicking = false
		return a, nil

	// Data snapshots are routed by type so a refresh issued by one view can
	// land while another is shown.
	case calendarDataMsg:
		var cmd tea.Cmd
		a.calendar, cmd = a.calendar.update(msg)
		return a, cmd
	case assignmentsDataMsg:
		var cmd tea.Cmd
		a.assignments, cmd = a.assignments.update(msg)
		return a, cmd
	case progressDataMsg:
		var cmd tea.Cmd
		a.progress, cmd = a.progress.update(msg)
		return a, cmd
	case studyDataMsg:
		var cmd tea.Cmd
		a.study, cmd = a.study.update(msg)
		return a, cmd
	}

	return a.updateActiveView(msg)
}

func (a App) switchTo(v viewState) (tea.Model, tea.Cmd) {
	a.activeView = v
	return a, a.refreshCurrentView()
}

func (a App) updateActiveView(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch a.activeView {
	case viewCalendar:
		a.calendar, cmd = a.calendar.update(msg)
	case viewAssignments:
		a.assignments, cmd = a.assignments.update(msg)
	case viewProgress:
		a.progress, cmd = a.progress.update(msg)
	case viewStudy:
		a.study, cmd = a.study.update(msg)
	case viewSettings:
		a.settings, cmd = a.settings.update(msg)
	}
	return a, cmd
}

func (a App) isFormActive() bool {
	switch a.activeView {
	case viewAssignments:
		return a.assignments.formActive
	case viewStudy:
		return a.study.formActive
	case viewSettings:
		return a.settings.formActive
	}
	return false
}

func (a App) refreshCurrentView() tea.Cmd {
	switch a.activeView {
	case viewCalendar:
		return a.calendar.refresh()
	case viewAssignments:
		return a.assignments.refresh()
	case viewProgress:
		return a.progress.refresh()
	case viewStudy:
		return a.study.refresh()
	case viewSettings:
		return a.settings.refresh()
	}
	return nil
}

func (a App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	header := a.renderHeader()
	footer := a.renderFooter()

	var content string
	switch a.activeView {
	case viewCalendar:
		content = a.calendar.view()
	case viewAssignments:
		content = a.assignments.view()
	case viewProgress:
		content = a.progress.view()
	case viewStudy:
		content = a.study.view()
	case viewSettings:
		content = a.settings.view()
	}

	// Calculate available height for content
	headerHeight := lipgloss.Height(header)
	footerHeight := lipgloss.Height(footer)
	contentHeight := max(a.height-headerHeight-footerHeight, 1)

	// Show export picker overlay
	if a.exportPicking {
		content = a.renderExportPicker()
	}

	content = lipgloss.NewStyle().
		Width(a.width).
		Height(contentHeight).
		Render(content)

	return lipgloss.JoinVertical(lipgloss.Left, header, content, footer)
}

func (a App) renderHeader() string {
	var tabs []string
	for i, name := range viewNames {
		if viewState(i) == a.activeView {
			tabs = append(tabs, activeTabStyle.Render(name))
		} else {
			tabs = append(tabs, inactiveTabStyle.Render(name))
		}
	}

	tabRow := lipgloss.JoinHorizontal(lipgloss.Bottom, tabs...)

	title := lipgloss.NewStyle().Bold(true).Foreground(colorPrimary).Render("studybat")
	gap := max(a.width-lipgloss.Width(title)-lipgloss.Width(tabRow)-4, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return headerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Bottom, title, spacer, tabRow),
	)
}

func (a App) renderFooter() string {
	helpView := a.help.View(keys)

	status := ""
	if a.status != "" {
		style := mutedStyle
		if a.statusErr {
			style = errorStyle
		}
		status = style.Render(" " + a.status)
	}

	// Timer indicators in footer
	timerInfo := ""
	if st := a.study.study; st.Active() {
		elapsed := timer.FormatTime(int64(st.Elapsed() / time.Second))
		timerInfo = successStyle.Render(" ● " + elapsed)
		if st.State() == timer.Paused {
			timerInfo = warningStyle.Render(" ⏸ " + elapsed)
		}
	}
	if pt := a.study.progress; pt.Active() {
		timerInfo += highlightStyle.Render(fmt.Sprintf(" ◷ %s %.0f%%", truncate(pt.Title(), 16), pt.Progress()))
	}

	left := footerStyle.Render(helpView)
	right := timerInfo + status

	gap := max(a.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	spacer := lipgloss.NewStyle().Width(gap).Render("")

	return lipgloss.JoinHorizontal(lipgloss.Bottom, left, spacer, right)
}

func (a App) renderExportPicker() string {
	title := titleStyle.Render("Export Format")
	var rows []string
	rows = append(rows, title)
	rows = append(rows, "")
	for i, f := range exportFormats {
		cursor := "  "
		style := normalItemStyle
		if i == a.exportCursor {
			cursor = "> "
			style = selectedItemStyle
		}
		rows = append(rows, style.Render(cursor+f))
	}
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  enter: export  esc: cancel"))

	w := a.width - 4
	return activePanelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}

func (a App) updateExportPicker(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if a.exportCursor > 0 {
			a.exportCursor--
		}
	case key.Matches(msg, keys.Down):
		if a.exportCursor < len(exportFormats)-1 {
			a.exportCursor++
		}
	case key.Matches(msg, keys.Enter):
		a.exportPicking = false
		return a, a.doExport(a.exportCursor)
	case key.Matches(msg, keys.Back), key.Matches(msg, keys.Quit):
		a.exportPicking = false
	}
	return a, nil
}

// doExport snapshots the collections and writes them in the background.
func (a App) doExport(format int) tea.Cmd {
	assignments := a.records.Assignments()
	sessions := a.records.Sessions()
	dateStr := a.now().Format("2006-01-02")
	dir := a.outDir

	return func() tea.Msg {
		var path string
		switch format {
		case 0:
			path = filepath.Join(dir, fmt.Sprintf("studybat-deadlines-%s.ics", dateStr))
			if err := export.ToICS(assignments, path); err != nil {
				return statusMsg{text: fmt.Sprintf("iCalendar error: %v", err), isError: true}
			}
		case 1:
			path = filepath.Join(dir, fmt.Sprintf("studybat-export-%s.csv", dateStr))
			if err := export.ToCSV(assignments, path); err != nil {
				return statusMsg{text: fmt.Sprintf("CSV error: %v", err), isError: true}
			}
		default:
			path = filepath.Join(dir, fmt.Sprintf("studybat-export-%s.json", dateStr))
			if err := export.ToJSON(assignments, sessions, path); err != nil {
				return statusMsg{text: fmt.Sprintf("JSON error: %v", err), isError: true}
			}
		}

		return exportDoneMsg{path: path}
	}
}
