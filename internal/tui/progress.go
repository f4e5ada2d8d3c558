package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/sadopc/studybat/internal/metrics"
	"github.com/sadopc/studybat/internal/timer"
	"github.com/sadopc/studybat/internal/tracker"
)

const studyChartDays = 7

type progressModel struct {
	records *tracker.Records
	now     func() time.Time
	width   int
	height  int

	summary       metrics.Summary
	totalStudy    int64
	days          []metrics.DayTotal
	subjectOrder  []string
	subjectTotals map[string]int64
	offset        int // 7-day blocks back from today (0 = current)

	gradeChart barchart.Model
	studyChart barchart.Model
}

func newProgressModel(r *tracker.Records, now func() time.Time) progressModel {
	return progressModel{
		records:    r,
		now:        now,
		gradeChart: barchart.New(40, 10),
		studyChart: barchart.New(40, 10),
	}
}

func (p *progressModel) setSize(w, h int) {
	p.width = w
	p.height = h
}

type progressDataMsg struct {
	summary       metrics.Summary
	totalStudy    int64
	days          []metrics.DayTotal
	subjectOrder  []string
	subjectTotals map[string]int64
}

func (p progressModel) windowStart() time.Time {
	today := startOfDay(p.now())
	return today.AddDate(0, 0, -(studyChartDays-1)-studyChartDays*p.offset)
}

func (p progressModel) refresh() tea.Cmd {
	now := p.now()
	assignments := p.records.Assignments()
	sessions := p.records.Sessions()
	order, totals := metrics.StudyBySubject(sessions)
	data := progressDataMsg{
		summary:       metrics.Compute(assignments, now),
		totalStudy:    metrics.TotalStudy(sessions),
		days:          metrics.StudyByDay(sessions, p.windowStart(), studyChartDays),
		subjectOrder:  order,
		subjectTotals: totals,
	}
	return func() tea.Msg { return data }
}

func (p progressModel) update(msg tea.Msg) (progressModel, tea.Cmd) {
	switch msg := msg.(type) {
	case progressDataMsg:
		p.summary = msg.summary
		p.totalStudy = msg.totalStudy
		p.days = msg.days
		p.subjectOrder = msg.subjectOrder
		p.subjectTotals = msg.subjectTotals
		p.buildCharts()
		return p, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Left):
			p.offset++
			return p, p.refresh()
		case key.Matches(msg, keys.Right):
			if p.offset > 0 {
				p.offset--
			}
			return p, p.refresh()
		}
	}
	return p, nil
}

func (p *progressModel) chartSize() (int, int) {
	w := max((p.width-12)/2, 20)
	h := 10
	if p.height > 34 {
		h = 14
	}
	return w, h
}

func (p *progressModel) buildCharts() {
	w, h := p.chartSize()

	p.gradeChart = barchart.New(w, h)
	var grades []barchart.BarData
	for i, g := range p.summary.Breakdown {
		if !g.OK {
			continue
		}
		grades = append(grades, barchart.BarData{
			Label: truncate(g.Subject, 8),
			Values: []barchart.BarValue{{
				Name:  g.Subject,
				Value: g.Average,
				Style: lipgloss.NewStyle().Foreground(chartColor(i)),
			}},
		})
	}
	if len(grades) > 0 {
		p.gradeChart.PushAll(grades)
		p.gradeChart.Draw()
	}

	p.studyChart = barchart.New(w, h)
	var bars []barchart.BarData
	for _, d := range p.days {
		bars = append(bars, barchart.BarData{
			Label: d.Date.Format("Mon"),
			Values: []barchart.BarValue{{
				Name:  d.Date.Format("2006-01-02"),
				Value: float64(d.Seconds) / 60,
				Style: lipgloss.NewStyle().Foreground(colorPrimary),
			}},
		})
	}
	if len(bars) > 0 {
		p.studyChart.PushAll(bars)
		p.studyChart.Draw()
	}
}

func chartColor(i int) lipgloss.Color {
	colors := []lipgloss.Color{colorPrimary, colorSecondary, colorAccent, colorWarning, colorSuccess, colorHighlight}
	return colors[i%len(colors)]
}

func (p progressModel) view() string {
	w := p.width - 4
	s := p.summary

	avg := "N/A"
	if s.HasAverageGrade {
		avg = fmt.Sprintf("%.1f", s.AverageGrade)
	}

	stats := lipgloss.JoinHorizontal(lipgloss.Top,
		statBox("Completion", fmt.Sprintf("%d%%", s.CompletionRate), fmt.Sprintf("%d of %d", s.Completed, s.Total)),
		statBox("Average grade", avg, ""),
		statBox("Due in 7 days", fmt.Sprintf("%d", s.UpcomingDeadlines), ""),
		statBox("Study time", timer.FormatTime(p.totalStudy), formatHours(p.totalStudy)),
	)

	gradePanel := titleStyle.Render("Grades by subject")
	if hasGrades(s.Breakdown) {
		gradePanel = lipgloss.JoinVertical(lipgloss.Left, gradePanel, p.gradeChart.View())
	} else {
		gradePanel = lipgloss.JoinVertical(lipgloss.Left, gradePanel, mutedStyle.Render("No numeric grades yet"))
	}
	gradePanel = lipgloss.JoinVertical(lipgloss.Left, gradePanel, p.renderBreakdown())

	from := p.windowStart()
	to := from.AddDate(0, 0, studyChartDays-1)
	studyTitle := titleStyle.Render("Study minutes") + "  " +
		mutedStyle.Render(fmt.Sprintf("%s – %s", from.Format("Jan 02"), to.Format("Jan 02")))
	studyPanel := lipgloss.JoinVertical(lipgloss.Left, studyTitle, p.studyChart.View(), p.renderSubjectTotals())

	charts := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().PaddingRight(4).Render(gradePanel),
		studyPanel,
	)

	nav := mutedStyle.Render("  ←/→: move study window")

	return panelStyle.Width(w).Render(
		lipgloss.JoinVertical(lipgloss.Left,
			titleStyle.Render("Progress"), "", stats, "", charts, "", nav,
		),
	)
}

func statBox(label, value, sub string) string {
	lines := []string{mutedStyle.Render(label), highlightStyle.Bold(true).Render(value)}
	if sub != "" {
		lines = append(lines, mutedStyle.Render(sub))
	}
	return lipgloss.NewStyle().Width(18).PaddingRight(2).Render(strings.Join(lines, "\n"))
}

func hasGrades(breakdown []metrics.SubjectGrade) bool {
	for _, g := range breakdown {
		if g.OK {
			return true
		}
	}
	return false
}

func (p progressModel) renderBreakdown() string {
	if len(p.summary.Breakdown) == 0 {
		return ""
	}
	var rows []string
	for i, g := range p.summary.Breakdown {
		dot := lipgloss.NewStyle().Foreground(chartColor(i)).Render("●")
		avg := "N/A"
		if g.OK {
			avg = fmt.Sprintf("%.1f", g.Average)
		}
		rows = append(rows, fmt.Sprintf("  %s %-16s %s", dot, truncate(g.Subject, 16), accentStyle.Render(avg)))
	}
	return strings.Join(rows, "\n")
}

func (p progressModel) renderSubjectTotals() string {
	if len(p.subjectOrder) == 0 {
		return mutedStyle.Render("  No study sessions yet")
	}
	var rows []string
	for _, subj := range p.subjectOrder {
		rows = append(rows, fmt.Sprintf("  %-16s %s", truncate(subj, 16), formatHours(p.subjectTotals[subj])))
	}
	return strings.Join(rows, "\n")
}
