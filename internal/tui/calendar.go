package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/studybat/internal/tracker"
)

const titlesPerDay = 2

var weekdayNames = []string{"Sun", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat"}

type calendarModel struct {
	records *tracker.Records
	now     func() time.Time
	width   int
	height  int

	cursor time.Time // selected day, midnight local
	byDay  map[int][]tracker.Assignment
}

func newCalendarModel(r *tracker.Records, now func() time.Time) calendarModel {
	return calendarModel{
		records: r,
		now:     now,
		cursor:  startOfDay(now()),
	}
}

func (c *calendarModel) setSize(w, h int) {
	c.width = w
	c.height = h
}

type calendarDataMsg struct {
	month time.Time
	byDay map[int][]tracker.Assignment
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

func daysIn(t time.Time) int {
	return monthStart(t).AddDate(0, 1, -1).Day()
}

// refresh snapshots the assignments due in the cursor's month.
func (c calendarModel) refresh() tea.Cmd {
	month := monthStart(c.cursor)
	byDay := make(map[int][]tracker.Assignment)
	for d := 1; d <= daysIn(month); d++ {
		if due := c.records.DueOn(month.AddDate(0, 0, d-1)); len(due) > 0 {
			byDay[d] = due
		}
	}
	return func() tea.Msg {
		return calendarDataMsg{month: month, byDay: byDay}
	}
}

func (c calendarModel) update(msg tea.Msg) (calendarModel, tea.Cmd) {
	switch msg := msg.(type) {
	case calendarDataMsg:
		if msg.month.Equal(monthStart(c.cursor)) {
			c.byDay = msg.byDay
		}
		return c, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			return c.moveTo(c.cursor.AddDate(0, 0, -1))
		case key.Matches(msg, keys.Right):
			return c.moveTo(c.cursor.AddDate(0, 0, 1))
		case key.Matches(msg, keys.Up):
			return c.moveTo(c.cursor.AddDate(0, 0, -7))
		case key.Matches(msg, keys.Down):
			return c.moveTo(c.cursor.AddDate(0, 0, 7))
		case key.Matches(msg, keys.PrevMonth):
			return c.moveTo(shiftMonth(c.cursor, -1))
		case key.Matches(msg, keys.NextMonth):
			return c.moveTo(shiftMonth(c.cursor, 1))
		case key.Matches(msg, keys.Enter):
			date := c.cursor
			return c, func() tea.Msg { return showDateMsg{date: date} }
		}
	}
	return c, nil
}

// shiftMonth moves t by n months, clamping the day to the target month.
func shiftMonth(t time.Time, n int) time.Time {
	first := monthStart(t).AddDate(0, n, 0)
	day := min(t.Day(), daysIn(first))
	return first.AddDate(0, 0, day-1)
}

func (c calendarModel) moveTo(day time.Time) (calendarModel, tea.Cmd) {
	changed := !monthStart(day).Equal(monthStart(c.cursor))
	c.cursor = day
	if changed {
		c.byDay = nil
		return c, c.refresh()
	}
	return c, nil
}

func (c calendarModel) view() string {
	w := c.width - 4
	month := monthStart(c.cursor)
	title := titleStyle.Render(month.Format("January 2006"))

	cellWidth := max((w-6)/7, 6)

	var header []string
	for _, name := range weekdayNames {
		header = append(header, mutedStyle.Width(cellWidth).Render(name))
	}

	rows := []string{title, "", lipgloss.JoinHorizontal(lipgloss.Top, header...)}

	offset := int(month.Weekday())
	total := daysIn(month)
	today := startOfDay(c.now())
	for week := 0; week*7 < offset+total; week++ {
		var cells []string
		for wd := 0; wd < 7; wd++ {
			day := week*7 + wd - offset + 1
			if day < 1 || day > total {
				cells = append(cells, lipgloss.NewStyle().Width(cellWidth).Height(titlesPerDay+2).Render(""))
				continue
			}
			date := month.AddDate(0, 0, day-1)
			cells = append(cells, c.renderDay(date, c.byDay[day], today, cellWidth))
		}
		rows = append(rows, lipgloss.JoinHorizontal(lipgloss.Top, cells...))
	}

	rows = append(rows, "")
	rows = append(rows, c.renderSelected())
	rows = append(rows, "")
	rows = append(rows, mutedStyle.Render("  ←/→: day  ↑/↓: week  [/]: month  enter: show assignments"))

	return panelStyle.Width(w).Render(strings.Join(rows, "\n"))
}

func (c calendarModel) renderDay(date time.Time, due []tracker.Assignment, today time.Time, width int) string {
	num := fmt.Sprintf("%2d", date.Day())
	switch {
	case date.Equal(c.cursor):
		num = cursorDayStyle.Render(num)
	case date.Equal(today):
		num = todayStyle.Render(num)
	default:
		num = normalItemStyle.Render(num)
	}

	lines := []string{num}
	for i, a := range due {
		if i == titlesPerDay {
			lines = append(lines, mutedStyle.Render(fmt.Sprintf("+%d more", len(due)-titlesPerDay)))
			break
		}
		style := priorityStyle(a.Priority)
		if a.Completed() {
			style = mutedStyle.Strikethrough(true)
		}
		lines = append(lines, style.Render(truncate(a.Title, width-1)))
	}

	return lipgloss.NewStyle().Width(width).Height(titlesPerDay + 2).Render(strings.Join(lines, "\n"))
}

func (c calendarModel) renderSelected() string {
	due := c.byDay[c.cursor.Day()]
	label := highlightStyle.Render(c.cursor.Format("Mon, Jan 02"))
	if len(due) == 0 {
		return fmt.Sprintf("  %s  %s", label, mutedStyle.Render("nothing due"))
	}
	var parts []string
	for _, a := range due {
		parts = append(parts, fmt.Sprintf("%s %s", a.DueDate.Local().Format("15:04"), a.Title))
	}
	return fmt.Sprintf("  %s  %s", label, strings.Join(parts, mutedStyle.Render(" · ")))
}
