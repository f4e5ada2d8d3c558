package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/studybat/internal/timer"
	"github.com/sadopc/studybat/internal/tracker"
)

const recentSessionCount = 10

type timerKind int

const (
	studyTimerKind timerKind = iota
	progressTimerKind
)

// timerTickMsg drives the display of one timer. Ticks whose seq no longer
// matches the timer's are stale and dropped.
type timerTickMsg struct {
	kind timerKind
	seq  int
}

func tickTimer(kind timerKind, seq int) tea.Cmd {
	return tea.Tick(time.Second, func(time.Time) tea.Msg {
		return timerTickMsg{kind: kind, seq: seq}
	})
}

type studyModel struct {
	records *tracker.Records
	width   int
	height  int

	study    *timer.StudyTimer
	progress *timer.ProgressTimer
	studySeq int
	progSeq  int
	focus    timerKind

	recent   []tracker.StudySession
	subjects []string
	bar      progress.Model

	formActive  bool
	form        *huh.Form
	formSubject *string
}

func newStudyModel(r *tracker.Records, now func() time.Time) studyModel {
	subject := ""
	return studyModel{
		records:     r,
		study:       timer.NewStudyTimer(r, now),
		progress:    timer.NewProgressTimer(r, now),
		bar:         newProgressBar(),
		formSubject: &subject,
	}
}

func (s *studyModel) setSize(w, h int) {
	s.width = w
	s.height = h
	s.bar.Width = max(w-16, 10)
}

func newProgressBar() progress.Model {
	return progress.New(progress.WithGradient(string(colorPrimary), string(colorSecondary)))
}

// restyle rebuilds the progress bar after a theme change.
func (s *studyModel) restyle() {
	w := s.bar.Width
	s.bar = newProgressBar()
	s.bar.Width = w
}

type studyDataMsg struct {
	recent   []tracker.StudySession
	subjects []string
}

func (s studyModel) refresh() tea.Cmd {
	recent := s.records.RecentSessions(recentSessionCount)
	subjects := s.records.Subjects()
	return func() tea.Msg {
		return studyDataMsg{recent: recent, subjects: subjects}
	}
}

func (s studyModel) update(msg tea.Msg) (studyModel, tea.Cmd) {
	// Ticks keep flowing while the subject prompt is open.
	if msg, ok := msg.(timerTickMsg); ok {
		return s.handleTick(msg)
	}

	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case studyDataMsg:
		s.recent = msg.recent
		s.subjects = msg.subjects
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Up), key.Matches(msg, keys.Down):
			if s.focus == studyTimerKind {
				s.focus = progressTimerKind
			} else {
				s.focus = studyTimerKind
			}
			return s, nil
		case key.Matches(msg, keys.Start):
			return s.startStudy()
		case key.Matches(msg, keys.Pause):
			if s.focus == progressTimerKind {
				return s.toggleProgress()
			}
			return s.toggleStudy()
		case key.Matches(msg, keys.Stop):
			if s.focus == progressTimerKind {
				return s.stopProgress()
			}
			return s.stopStudy()
		}
	}
	return s, nil
}

func (s studyModel) handleTick(msg timerTickMsg) (studyModel, tea.Cmd) {
	switch msg.kind {
	case studyTimerKind:
		if msg.seq == s.studySeq && s.study.State() == timer.Running {
			return s, tickTimer(studyTimerKind, s.studySeq)
		}
	case progressTimerKind:
		if msg.seq == s.progSeq && s.progress.State() == timer.Running {
			return s, tickTimer(progressTimerKind, s.progSeq)
		}
	}
	return s, nil
}

func (s studyModel) startStudy() (studyModel, tea.Cmd) {
	s.focus = studyTimerKind
	if !s.study.Start() {
		return s, nil
	}
	s.studySeq++
	return s, tea.Batch(tickTimer(studyTimerKind, s.studySeq), statusCmd("Study session started!"))
}

func (s studyModel) toggleStudy() (studyModel, tea.Cmd) {
	if err := s.study.Toggle(); err != nil {
		return s, nil
	}
	s.studySeq++
	if s.study.State() == timer.Running {
		return s, tea.Batch(tickTimer(studyTimerKind, s.studySeq), statusCmd("Study session resumed!"))
	}
	return s, statusCmd("Study session paused!")
}

// stopStudy freezes the study timer and asks for the subject. The session is
// recorded when the prompt closes.
func (s studyModel) stopStudy() (studyModel, tea.Cmd) {
	if !s.study.Active() {
		return s, nil
	}
	if s.study.State() == timer.Running {
		_ = s.study.Pause()
	}
	s.studySeq++
	if timer.Seconds(s.study.Elapsed()) == 0 {
		s.study.Stop("")
		return s, nil
	}

	*s.formSubject = ""
	s.form = newForm(huh.NewGroup(
		huh.NewInput().
			Title("What subject were you studying?").
			Placeholder(tracker.DefaultSubject).
			Suggestions(s.subjects).
			Value(s.formSubject),
	))
	s.formActive = true
	return s, s.form.Init()
}

func (s studyModel) updateForm(msg tea.Msg) (studyModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		return s.recordSession("")
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	switch s.form.State {
	case huh.StateCompleted:
		return s.recordSession(*s.formSubject)
	case huh.StateAborted:
		return s.recordSession("")
	}
	return s, cmd
}

func (s studyModel) recordSession(subject string) (studyModel, tea.Cmd) {
	s.formActive = false
	s.form = nil
	session, err := s.study.Stop(subject)
	if err != nil {
		return s, errorCmd("Error saving session: %v", err)
	}
	if session == nil {
		return s, s.refresh()
	}
	return s, tea.Batch(
		s.refresh(),
		statusCmd("Study session completed! Duration: %s", timer.FormatTime(session.Duration)),
	)
}

// startProgress attaches the progress timer to an assignment and starts it.
func (s studyModel) startProgress(id string) (studyModel, tea.Cmd) {
	s.focus = progressTimerKind
	if s.progress.Active() {
		return s, statusCmd("Already tracking %q", s.progress.Title())
	}
	if err := s.progress.Start(id); err != nil {
		if errors.Is(err, timer.ErrUnsupported) {
			return s, errorCmd("Set an expected time on the assignment to track progress")
		}
		return s, errorCmd("Error: %v", err)
	}
	s.progSeq++
	return s, tea.Batch(tickTimer(progressTimerKind, s.progSeq), statusCmd("Tracking %q", s.progress.Title()))
}

func (s studyModel) toggleProgress() (studyModel, tea.Cmd) {
	if err := s.progress.Toggle(); err != nil {
		return s, nil
	}
	s.progSeq++
	if s.progress.State() == timer.Running {
		return s, tickTimer(progressTimerKind, s.progSeq)
	}
	return s, nil
}

func (s studyModel) stopProgress() (studyModel, tea.Cmd) {
	if !s.progress.Active() {
		return s, nil
	}
	title := s.progress.Title()
	s.progSeq++
	secs, err := s.progress.Stop()
	if err != nil {
		return s, errorCmd("Error: %v", err)
	}
	if secs == 0 {
		return s, nil
	}
	return s, statusCmd("Logged %s on %q", timer.FormatTime(secs), title)
}

func (s studyModel) view() string {
	if s.width < 20 {
		return "Terminal too small"
	}
	w := s.width - 4

	if s.formActive && s.form != nil {
		content := lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Study Session"),
			mutedStyle.Render("Duration: "+timer.FormatTime(int64(s.study.Elapsed()/time.Second))),
			"",
			s.form.View(),
		)
		return activePanelStyle.Width(w).Render(content)
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		s.renderStudyPanel(w),
		s.renderProgressPanel(w),
		s.renderRecentPanel(w),
	)
}

func (s studyModel) panel(kind timerKind) lipgloss.Style {
	if s.focus == kind {
		return activePanelStyle
	}
	return panelStyle
}

func (s studyModel) renderStudyPanel(w int) string {
	elapsed := timer.FormatTime(int64(s.study.Elapsed() / time.Second))

	var timeDisplay, indicator, hint string
	switch s.study.State() {
	case timer.Running:
		timeDisplay = timerRunningStyle.Width(w - 6).Render(elapsed)
		indicator = successStyle.Render("●  STUDYING")
		hint = mutedStyle.Render("space: pause  x: stop")
	case timer.Paused:
		timeDisplay = timerPausedStyle.Width(w - 6).Render(elapsed)
		indicator = warningStyle.Render("⏸  PAUSED")
		hint = mutedStyle.Render("space: resume  x: stop")
	default:
		timeDisplay = timerStyle.Width(w - 6).Render("00:00:00")
		indicator = mutedStyle.Render("■  STOPPED")
		hint = mutedStyle.Render("Press s to start a study session")
	}

	content := lipgloss.JoinVertical(lipgloss.Center,
		titleStyle.Render("Study Timer"),
		timeDisplay,
		indicator,
		hint,
	)
	return s.panel(studyTimerKind).Width(w).Render(content)
}

func (s studyModel) renderProgressPanel(w int) string {
	title := titleStyle.Render("Assignment Progress")
	if !s.progress.Active() {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("Press t on an assignment with an expected time to track it"),
		)
		return s.panel(progressTimerKind).Width(w).Render(content)
	}

	elapsed := timer.FormatTime(int64(s.progress.Elapsed() / time.Second))
	pct := s.progress.Progress()

	state := successStyle.Render("●")
	if s.progress.State() == timer.Paused {
		state = warningStyle.Render("⏸")
	}
	line := fmt.Sprintf("%s %s  %s / %d min",
		state,
		highlightStyle.Render(s.progress.Title()),
		elapsed,
		s.progress.ExpectedMinutes(),
	)

	content := lipgloss.JoinVertical(lipgloss.Left,
		title,
		line,
		s.bar.ViewAs(pct/100)+fmt.Sprintf(" %.0f%%", pct),
		mutedStyle.Render("↑/↓: focus  space: pause/resume  x: stop and log"),
	)
	return s.panel(progressTimerKind).Width(w).Render(content)
}

func (s studyModel) renderRecentPanel(w int) string {
	title := titleStyle.Render("Recent Sessions")
	if len(s.recent) == 0 {
		content := lipgloss.JoinVertical(lipgloss.Left,
			title,
			mutedStyle.Render("No study sessions yet"),
		)
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title)
	for _, sess := range s.recent {
		rows = append(rows, fmt.Sprintf("  %s  %-20s %s",
			sess.Date.Local().Format("Jan 02 15:04"),
			truncate(sess.Subject, 20),
			timer.FormatTime(sess.Duration),
		))
	}
	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}
