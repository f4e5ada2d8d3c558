package tui

import (
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/studybat/internal/notify"
	"github.com/sadopc/studybat/internal/tracker"
)

// Preference keys in the key/value store.
const (
	themeKey      = "studybat-theme"
	alertHoursKey = "studybat-alert-hours"
)

type settingsModel struct {
	prefs  tracker.KV
	width  int
	height int

	theme      string
	alertHours int

	formActive bool
	form       *huh.Form

	// Form values as pointers (survive value copies)
	formTheme *string
	formHours *string
}

func newSettingsModel(prefs tracker.KV) settingsModel {
	theme, hours := "", ""
	s := settingsModel{
		prefs:     prefs,
		formTheme: &theme,
		formHours: &hours,
	}
	s.theme, s.alertHours = loadPrefs(prefs)
	return s
}

// loadPrefs reads the stored theme and alert window, falling back to the
// defaults for missing or invalid values.
func loadPrefs(prefs tracker.KV) (string, int) {
	theme := themeDark
	if v, ok, err := prefs.GetValue(themeKey); err != nil {
		log.Printf("load %s: %v", themeKey, err)
	} else if ok && v == themeLight {
		theme = themeLight
	}

	hours := notify.DefaultAlertHours
	if v, ok, err := prefs.GetValue(alertHoursKey); err != nil {
		log.Printf("load %s: %v", alertHoursKey, err)
	} else if ok {
		if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil && n > 0 {
			hours = n
		}
	}
	return theme, hours
}

func (s *settingsModel) setSize(w, h int) {
	s.width = w
	s.height = h
}

func (s settingsModel) refresh() tea.Cmd {
	theme, hours := loadPrefs(s.prefs)
	return func() tea.Msg {
		return prefsChangedMsg{theme: theme, alertHours: hours}
	}
}

func (s settingsModel) update(msg tea.Msg) (settingsModel, tea.Cmd) {
	if s.formActive && s.form != nil {
		return s.updateForm(msg)
	}

	switch msg := msg.(type) {
	case prefsChangedMsg:
		s.theme = msg.theme
		s.alertHours = msg.alertHours
		return s, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Enter), key.Matches(msg, keys.New):
			return s.showForm()
		}
	}
	return s, nil
}

func validateHours(v string) error {
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil || n <= 0 {
		return fmt.Errorf("enter a positive number of hours")
	}
	return nil
}

func (s settingsModel) showForm() (settingsModel, tea.Cmd) {
	*s.formTheme = s.theme
	*s.formHours = strconv.Itoa(s.alertHours)

	s.form = newForm(
		huh.NewGroup(
			huh.NewSelect[string]().Title("Theme").
				Options(
					huh.NewOption("Dark", themeDark),
					huh.NewOption("Light", themeLight),
				).Value(s.formTheme),
			huh.NewInput().Title("Due-soon alert window (hours)").Value(s.formHours).Validate(validateHours),
		).Title("Preferences"),
	)

	s.formActive = true
	return s, s.form.Init()
}

func (s settingsModel) updateForm(msg tea.Msg) (settingsModel, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok {
		if msg.String() == "esc" {
			s.formActive = false
			s.form = nil
			return s, nil
		}
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	switch s.form.State {
	case huh.StateCompleted:
		s.formActive = false
		s.form = nil
		if err := s.save(*s.formTheme, *s.formHours); err != nil {
			return s, errorCmd("Error saving settings: %v", err)
		}
		return s, tea.Batch(s.refresh(), statusCmd("Settings saved"))
	case huh.StateAborted:
		s.formActive = false
		s.form = nil
		return s, nil
	}

	return s, cmd
}

func (s settingsModel) save(theme, hours string) error {
	if err := validateHours(hours); err != nil {
		return err
	}
	if theme != themeLight {
		theme = themeDark
	}
	if err := s.prefs.SetValue(themeKey, theme); err != nil {
		return err
	}
	return s.prefs.SetValue(alertHoursKey, strings.TrimSpace(hours))
}

func (s settingsModel) view() string {
	w := s.width - 4
	title := titleStyle.Render("Settings")

	if s.formActive && s.form != nil {
		return panelStyle.Width(w).Render(
			lipgloss.JoinVertical(lipgloss.Left, title, "", s.form.View()),
		)
	}

	row := func(label, value string) string {
		return fmt.Sprintf("  %s %s", lipgloss.NewStyle().Width(24).Render(label), highlightStyle.Render(value))
	}

	rows := []string{
		title,
		"",
		row("Theme", s.theme),
		row("Due-soon alert window", fmt.Sprintf("%d hours", s.alertHours)),
		"",
		mutedStyle.Render("Press enter to edit settings"),
	}
	return panelStyle.Width(w).Render(lipgloss.JoinVertical(lipgloss.Left, rows...))
}
