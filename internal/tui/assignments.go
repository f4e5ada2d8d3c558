package tui

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/studybat/internal/timer"
	"github.com/sadopc/studybat/internal/tracker"
)

const (
	dueLayout     = "2006-01-02 15:04"
	dueDateLayout = "2006-01-02"
)

type assignmentsModel struct {
	records *tracker.Records
	now     func() time.Time
	outDir  string
	width   int
	height  int

	items    []tracker.Assignment
	subjects []string
	cursor   int

	subjectFilter string
	statusFilter  tracker.Status
	dateFilter    time.Time

	formActive bool
	form       *huh.Form
	formType   string // "new", "edit", "grade", "attach", "delete"

	// Form field pointers (survive value copies)
	formTitle       *string
	formSubject     *string
	formDue         *string
	formPriority    *string
	formDescription *string
	formExpected    *string
	formPath        *string
	formGrade       *string
	formConfirm     *bool

	editingID string
}

func newAssignmentsModel(r *tracker.Records, now func() time.Time, outDir string) assignmentsModel {
	title, subject, due, prio, desc, expected, path, grade := "", "", "", string(tracker.PriorityMedium), "", "", "", ""
	confirm := false
	return assignmentsModel{
		records:         r,
		now:             now,
		outDir:          outDir,
		formTitle:       &title,
		formSubject:     &subject,
		formDue:         &due,
		formPriority:    &prio,
		formDescription: &desc,
		formExpected:    &expected,
		formPath:        &path,
		formGrade:       &grade,
		formConfirm:     &confirm,
	}
}

func (m *assignmentsModel) setSize(w, h int) {
	m.width = w
	m.height = h
}

type assignmentsDataMsg struct {
	items    []tracker.Assignment
	subjects []string
}

func (m assignmentsModel) refresh() tea.Cmd {
	items := m.records.Filter(m.subjectFilter, m.statusFilter)
	if !m.dateFilter.IsZero() {
		var onDay []tracker.Assignment
		for _, a := range items {
			if sameDay(m.dateFilter, a.DueDate) {
				onDay = append(onDay, a)
			}
		}
		items = onDay
	}
	subjects := m.records.Subjects()
	return func() tea.Msg {
		return assignmentsDataMsg{items: items, subjects: subjects}
	}
}

func (m assignmentsModel) selected() (tracker.Assignment, bool) {
	if m.cursor < 0 || m.cursor >= len(m.items) {
		return tracker.Assignment{}, false
	}
	return m.items[m.cursor], true
}

// showDate limits the list to the assignments due on date.
func (m assignmentsModel) showDate(date time.Time) (assignmentsModel, tea.Cmd) {
	m.dateFilter = startOfDay(date)
	m.cursor = 0
	return m, m.refresh()
}

func (m assignmentsModel) update(msg tea.Msg) (assignmentsModel, tea.Cmd) {
	if m.formActive && m.form != nil {
		return m.updateForm(msg)
	}

	switch msg := msg.(type) {
	case assignmentsDataMsg:
		m.items = msg.items
		m.subjects = msg.subjects
		if m.cursor >= len(m.items) {
			m.cursor = max(0, len(m.items)-1)
		}
		return m, nil

	case tea.KeyMsg:
		return m.updateList(msg)
	}
	return m, nil
}

func (m assignmentsModel) updateList(msg tea.KeyMsg) (assignmentsModel, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Up):
		if m.cursor > 0 {
			m.cursor--
		}
	case key.Matches(msg, keys.Down):
		if m.cursor < len(m.items)-1 {
			m.cursor++
		}
	case key.Matches(msg, keys.Filter):
		m.subjectFilter = nextSubject(m.subjects, m.subjectFilter)
		m.cursor = 0
		return m, m.refresh()
	case key.Matches(msg, keys.StatusFilter):
		m.statusFilter = nextStatusFilter(m.statusFilter)
		m.cursor = 0
		return m, m.refresh()
	case key.Matches(msg, keys.ClearFilter):
		m.subjectFilter, m.statusFilter, m.dateFilter = "", "", time.Time{}
		return m, m.refresh()
	case key.Matches(msg, keys.New):
		return m.showAssignmentForm(tracker.Assignment{})
	}

	a, ok := m.selected()
	if !ok {
		return m, nil
	}

	switch {
	case key.Matches(msg, keys.Edit):
		return m.showAssignmentForm(a)
	case key.Matches(msg, keys.Advance):
		return m.advance(a)
	case key.Matches(msg, keys.Delete):
		return m.showDeleteForm(a)
	case key.Matches(msg, keys.Attach):
		return m.showAttachForm(a)
	case key.Matches(msg, keys.SaveFiles):
		return m, m.saveAttachments(a)
	case key.Matches(msg, keys.Track):
		id := a.ID
		return m, func() tea.Msg { return trackAssignmentMsg{id: id} }
	}
	return m, nil
}

// nextSubject cycles All -> each subject -> All.
func nextSubject(subjects []string, current string) string {
	if current == "" {
		if len(subjects) == 0 {
			return ""
		}
		return subjects[0]
	}
	for i, s := range subjects {
		if s == current && i+1 < len(subjects) {
			return subjects[i+1]
		}
	}
	return ""
}

func nextStatusFilter(current tracker.Status) tracker.Status {
	if current == "" {
		return tracker.Statuses[0]
	}
	for i, s := range tracker.Statuses {
		if s == current && i+1 < len(tracker.Statuses) {
			return tracker.Statuses[i+1]
		}
	}
	return ""
}

func (m assignmentsModel) advance(a tracker.Assignment) (assignmentsModel, tea.Cmd) {
	next, ok := a.Status.Next()
	if !ok {
		return m, statusCmd("%q is already completed", a.Title)
	}
	if next == tracker.StatusCompleted && a.Grade == "" {
		return m.showGradeForm(a)
	}
	if _, err := m.records.UpdateStatus(a.ID, next, ""); err != nil {
		return m, errorCmd("Error: %v", err)
	}
	return m, tea.Batch(m.refresh(), statusCmd("Assignment marked as %s!", next))
}

func validateDue(s string) error {
	_, err := parseDue(s)
	return err
}

// parseDue reads "YYYY-MM-DD HH:MM" or "YYYY-MM-DD" in local time. A bare date
// is due at 23:59.
func parseDue(s string) (time.Time, error) {
	return parseDueIn(s, time.Local)
}

func parseDueIn(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("due date is required")
	}
	if t, err := time.ParseInLocation(dueLayout, s, loc); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dueDateLayout, s, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("use %s or %s", dueLayout, dueDateLayout)
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 0, 0, loc), nil
}

func parseExpected(s string) (int, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New("expected time must be a whole number of minutes")
	}
	return n, nil
}

func validateExpected(s string) error {
	_, err := parseExpected(s)
	return err
}

func required(field string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", field)
		}
		return nil
	}
}

func (m assignmentsModel) showAssignmentForm(a tracker.Assignment) (assignmentsModel, tea.Cmd) {
	*m.formTitle = a.Title
	*m.formSubject = a.Subject
	*m.formDescription = a.Description
	*m.formPriority = string(tracker.PriorityMedium)
	*m.formExpected = ""
	*m.formPath = ""
	if a.ID == "" {
		m.formType = "new"
		m.editingID = ""
		*m.formDue = m.now().Add(24 * time.Hour).Format(dueDateLayout)
		if m.subjectFilter != "" {
			*m.formSubject = m.subjectFilter
		}
	} else {
		m.formType = "edit"
		m.editingID = a.ID
		*m.formDue = a.DueDate.Local().Format(dueLayout)
		*m.formPriority = string(a.Priority)
		if a.ExpectedTime > 0 {
			*m.formExpected = strconv.Itoa(a.ExpectedTime)
		}
	}

	prioOptions := make([]huh.Option[string], len(tracker.Priorities))
	for i, p := range tracker.Priorities {
		prioOptions[i] = huh.NewOption(string(p), string(p))
	}

	fields := []huh.Field{
		huh.NewInput().Title("Title").Value(m.formTitle).Validate(required("title")),
		huh.NewInput().Title("Subject").Value(m.formSubject).Suggestions(m.subjects).Validate(required("subject")),
		huh.NewInput().Title("Due (YYYY-MM-DD HH:MM)").Value(m.formDue).Validate(validateDue),
		huh.NewSelect[string]().Title("Priority").Options(prioOptions...).Value(m.formPriority),
		huh.NewText().Title("Description").Value(m.formDescription),
		huh.NewInput().Title("Expected time (min, optional)").Value(m.formExpected).Validate(validateExpected),
	}
	if m.formType == "new" {
		fields = append(fields, huh.NewInput().Title("Attach file (path, optional)").Value(m.formPath))
	}

	m.form = newForm(huh.NewGroup(fields...))
	m.formActive = true
	return m, m.form.Init()
}

func (m assignmentsModel) showGradeForm(a tracker.Assignment) (assignmentsModel, tea.Cmd) {
	*m.formGrade = ""
	m.formType = "grade"
	m.editingID = a.ID
	m.form = newForm(huh.NewGroup(
		huh.NewInput().Title("Enter grade (optional)").Value(m.formGrade),
	))
	m.formActive = true
	return m, m.form.Init()
}

func (m assignmentsModel) showDeleteForm(a tracker.Assignment) (assignmentsModel, tea.Cmd) {
	*m.formConfirm = false
	m.formType = "delete"
	m.editingID = a.ID
	m.form = newForm(huh.NewGroup(
		huh.NewConfirm().
			Title(fmt.Sprintf("Delete %q?", a.Title)).
			Description("This also removes its attached files.").
			Affirmative("Delete").
			Negative("Cancel").
			Value(m.formConfirm),
	))
	m.formActive = true
	return m, m.form.Init()
}

func (m assignmentsModel) showAttachForm(a tracker.Assignment) (assignmentsModel, tea.Cmd) {
	*m.formPath = ""
	m.formType = "attach"
	m.editingID = a.ID
	m.form = newForm(huh.NewGroup(
		huh.NewInput().Title("File path").Value(m.formPath).Validate(required("path")),
	))
	m.formActive = true
	return m, m.form.Init()
}

func (m assignmentsModel) updateForm(msg tea.Msg) (assignmentsModel, tea.Cmd) {
	// Escape cancels; cancelling the grade prompt still completes the
	// assignment, without a grade.
	if msg, ok := msg.(tea.KeyMsg); ok && msg.String() == "esc" {
		return m.closeForm(false)
	}

	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}

	switch m.form.State {
	case huh.StateCompleted:
		return m.closeForm(true)
	case huh.StateAborted:
		return m.closeForm(false)
	}
	return m, cmd
}

func (m assignmentsModel) closeForm(submitted bool) (assignmentsModel, tea.Cmd) {
	m.formActive = false
	m.form = nil

	if !submitted && m.formType != "grade" {
		return m, nil
	}

	var status tea.Cmd
	switch m.formType {
	case "new", "edit":
		status = m.submitAssignment()
	case "grade":
		grade := ""
		if submitted {
			grade = *m.formGrade
		}
		if _, err := m.records.UpdateStatus(m.editingID, tracker.StatusCompleted, grade); err != nil {
			return m, errorCmd("Error: %v", err)
		}
		status = statusCmd("Assignment marked as %s!", tracker.StatusCompleted)
	case "delete":
		if !*m.formConfirm {
			return m, nil
		}
		if err := m.records.Remove(m.editingID); err != nil {
			return m, errorCmd("Error: %v", err)
		}
		status = statusCmd("Assignment deleted!")
	case "attach":
		status = m.attach(m.editingID, *m.formPath)
	}
	return m, tea.Batch(m.refresh(), status)
}

func (m assignmentsModel) submitAssignment() tea.Cmd {
	due, err := parseDue(*m.formDue)
	if err != nil {
		return errorCmd("Error: %v", err)
	}
	expected, err := parseExpected(*m.formExpected)
	if err != nil {
		return errorCmd("Error: %v", err)
	}
	in := tracker.AssignmentInput{
		Title:        *m.formTitle,
		Subject:      *m.formSubject,
		Description:  *m.formDescription,
		DueDate:      due,
		Priority:     tracker.Priority(*m.formPriority),
		ExpectedTime: expected,
	}

	if m.formType == "edit" {
		if _, err := m.records.Update(m.editingID, in); err != nil {
			return errorCmd("Error: %v", err)
		}
		return statusCmd("Assignment updated!")
	}

	a, err := m.records.AddAssignment(in)
	if err != nil {
		return errorCmd("Error: %v", err)
	}
	if path := strings.TrimSpace(*m.formPath); path != "" {
		return m.attach(a.ID, path)
	}
	return statusCmd("Assignment added!")
}

func (m assignmentsModel) attach(id, path string) tea.Cmd {
	path = strings.TrimSpace(path)
	data, err := os.ReadFile(path)
	if err != nil {
		return errorCmd("Attach error: %v", err)
	}
	name := filepath.Base(path)
	mimeType := mime.TypeByExtension(filepath.Ext(name))
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}
	if _, err := m.records.AttachFile(id, name, mimeType, data); err != nil {
		return errorCmd("Attach error: %v", err)
	}
	return statusCmd("Attached %s", name)
}

// saveAttachments writes the assignment's files to outDir/studybat-attachments/<title>/.
func (m assignmentsModel) saveAttachments(a tracker.Assignment) tea.Cmd {
	if len(a.Files) == 0 {
		return statusCmd("%q has no attachments", a.Title)
	}
	files := append([]tracker.FileMeta(nil), a.Files...)
	dir := filepath.Join(m.outDir, "studybat-attachments", safeName(a.Title))
	records := m.records
	return func() tea.Msg {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return statusMsg{text: fmt.Sprintf("Save error: %v", err), isError: true}
		}
		for _, f := range files {
			data, err := records.Attachment(f.Ref)
			if err != nil {
				return statusMsg{text: fmt.Sprintf("Save error: %s: %v", f.Name, err), isError: true}
			}
			if err := os.WriteFile(filepath.Join(dir, safeName(f.Name)), data, 0o644); err != nil {
				return statusMsg{text: fmt.Sprintf("Save error: %v", err), isError: true}
			}
		}
		return statusMsg{text: fmt.Sprintf("Saved %d file(s) to %s", len(files), dir)}
	}
}

// safeName makes s usable as a single path element.
func safeName(s string) string {
	s = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	if s == "" || s == "." || s == ".." {
		return "untitled"
	}
	return s
}

func (m assignmentsModel) view() string {
	w := m.width - 4

	if m.formActive && m.form != nil {
		var title string
		switch m.formType {
		case "edit":
			title = "Edit Assignment"
		case "grade":
			title = "Complete Assignment"
		case "delete":
			title = "Delete Assignment"
		case "attach":
			title = "Attach File"
		default:
			title = "New Assignment"
		}
		content := lipgloss.JoinVertical(lipgloss.Left, titleStyle.Render(title), "", m.form.View())
		return panelStyle.Width(w).Render(content)
	}

	title := titleStyle.Render("Assignments")
	filters := m.renderFilters()

	if len(m.items) == 0 {
		hint := "No assignments yet. Press n to create one."
		if m.subjectFilter != "" || m.statusFilter != "" || !m.dateFilter.IsZero() {
			hint = "No assignments match the filters. Press c to clear them."
		}
		content := lipgloss.JoinVertical(lipgloss.Left, title, filters, "", mutedStyle.Render(hint))
		return panelStyle.Width(w).Render(content)
	}

	var rows []string
	rows = append(rows, title, filters, "")

	header := mutedStyle.Render(fmt.Sprintf("  %-28s %-14s %-13s %-7s %-12s %s", "Title", "Subject", "Due", "Prio", "Status", "Progress"))
	rows = append(rows, header)

	now := m.now()
	for i, a := range m.items {
		cursor := "  "
		style := normalItemStyle
		if i == m.cursor {
			cursor = "> "
			style = selectedItemStyle
		}
		due := a.DueDate.Local().Format("Jan 02 15:04")
		dueCell := fmt.Sprintf("%-13s", due)
		if !a.Completed() && a.DueDate.Before(now) {
			dueCell = errorStyle.Render(dueCell)
		}
		row := style.Render(fmt.Sprintf("%s%-28s %-14s ", cursor, truncate(a.Title, 28), truncate(a.Subject, 14))) +
			dueCell + " " +
			priorityStyle(a.Priority).Render(fmt.Sprintf("%-7s", a.Priority)) + " " +
			statusStyle(a.Status).Render(fmt.Sprintf("%-12s", a.Status)) + " " +
			m.renderProgressCell(a)
		rows = append(rows, row)
	}

	if a, ok := m.selected(); ok {
		rows = append(rows, "", m.renderDetail(a))
	}

	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  n: new  E: edit  s: status  d: delete  a: attach  o: save files  t: track  f/v: filter  c: clear"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func statusStyle(s tracker.Status) lipgloss.Style {
	switch s {
	case tracker.StatusCompleted:
		return successStyle
	case tracker.StatusInProgress:
		return highlightStyle
	}
	return mutedStyle
}

func (m assignmentsModel) renderFilters() string {
	subject, status, date := "All", "All", "Any"
	if m.subjectFilter != "" {
		subject = m.subjectFilter
	}
	if m.statusFilter != "" {
		status = string(m.statusFilter)
	}
	if !m.dateFilter.IsZero() {
		date = m.dateFilter.Format("Jan 02")
	}
	return mutedStyle.Render("Subject: ") + highlightStyle.Render(subject) +
		mutedStyle.Render("  Status: ") + highlightStyle.Render(status) +
		mutedStyle.Render("  Due: ") + highlightStyle.Render(date)
}

func (m assignmentsModel) renderProgressCell(a tracker.Assignment) string {
	var parts []string
	if a.Grade != "" {
		parts = append(parts, accentStyle.Render("grade "+a.Grade))
	}
	if a.ExpectedTime > 0 {
		parts = append(parts, fmt.Sprintf("%.0f%%", timer.ProgressPercent(a.TimeSpent, a.ExpectedTime)))
	} else if a.TimeSpent > 0 {
		parts = append(parts, timer.FormatTime(a.TimeSpent))
	}
	if n := len(a.Files); n > 0 {
		parts = append(parts, mutedStyle.Render(fmt.Sprintf("[%d file(s)]", n)))
	}
	return strings.Join(parts, " ")
}

func (m assignmentsModel) renderDetail(a tracker.Assignment) string {
	desc := a.Description
	if desc == "" {
		desc = "No description"
	}
	lines := []string{
		highlightStyle.Render(a.Title) + mutedStyle.Render(" · "+a.Subject),
		"  " + desc,
	}
	spent := "  Time spent: " + timer.FormatTime(a.TimeSpent)
	if a.ExpectedTime > 0 {
		spent += fmt.Sprintf(" of %d min", a.ExpectedTime)
	}
	lines = append(lines, mutedStyle.Render(spent))
	for _, f := range a.Files {
		lines = append(lines, mutedStyle.Render(fmt.Sprintf("  📎 %s (%d bytes)", f.Name, f.Size)))
	}
	return strings.Join(lines, "\n")
}
