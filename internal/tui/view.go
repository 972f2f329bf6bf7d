package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/baiirun/focusflow/internal/model"
)

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205"))

	selectedRowStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("57"))

	statusColors = map[model.Status]lipgloss.Color{
		model.StatusInbox:     lipgloss.Color("252"),
		model.StatusNext:      lipgloss.Color("214"),
		model.StatusWaiting:   lipgloss.Color("141"),
		model.StatusScheduled: lipgloss.Color("39"),
		model.StatusProject:   lipgloss.Color("205"),
		model.StatusSomeday:   lipgloss.Color("109"),
		model.StatusReference: lipgloss.Color("147"),
		model.StatusCompleted: lipgloss.Color("42"),
		model.StatusDeleted:   lipgloss.Color("245"),
	}

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	filterStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	inputStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	messageStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	contentPadding = 2
)

func statusIcon(s model.Status) string {
	switch s {
	case model.StatusInbox:
		return "○"
	case model.StatusNext:
		return "◐"
	case model.StatusWaiting:
		return "◑"
	case model.StatusScheduled:
		return "◷"
	case model.StatusSomeday:
		return "◌"
	case model.StatusReference:
		return "≡"
	case model.StatusCompleted:
		return "●"
	case model.StatusDeleted:
		return "✗"
	default:
		return "?"
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder

	switch m.viewMode {
	case ViewList:
		b.WriteString(m.listView())
	case ViewDetail:
		b.WriteString(m.detailView(0))
	case ViewTriage:
		b.WriteString(m.triageView())
	}

	if m.inputMode != InputNone {
		b.WriteString("\n")
		b.WriteString(inputStyle.Render(m.inputLabel + m.inputText + "█"))
	}

	if m.err != nil {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("Error: " + m.err.Error()))
	} else if m.message != "" {
		b.WriteString("\n")
		b.WriteString(messageStyle.Render(m.message))
	}

	padStyle := lipgloss.NewStyle().
		PaddingLeft(contentPadding).
		PaddingRight(contentPadding).
		PaddingTop(1)

	return padStyle.Render(b.String())
}

func (m Model) listView() string {
	if m.width >= minSplitWidth {
		return m.splitView()
	}
	height := m.height - 8
	if height < 10 {
		height = 15
	}
	return m.renderListPane(m.width-(contentPadding*2), height)
}

// splitView renders the split layout with list on left and details on right.
func (m Model) splitView() string {
	focusedColor := lipgloss.Color("39")
	unfocusedColor := lipgloss.Color("241")

	gap := 1
	borderChars := 4
	availableWidth := m.width - borderChars - gap - (contentPadding * 2)
	leftContentWidth := availableWidth / 2
	rightContentWidth := availableWidth - leftContentWidth

	contentHeight := m.height - 4
	if contentHeight < 10 {
		contentHeight = 10
	}

	leftLines := normalizeLines(strings.Split(m.renderListPane(leftContentWidth, contentHeight), "\n"),
		contentHeight, leftContentWidth)
	rightLines := normalizeLines(strings.Split(m.detailViewWithHeight(rightContentWidth, contentHeight), "\n"),
		contentHeight, rightContentWidth)

	leftColor, rightColor := unfocusedColor, unfocusedColor
	if m.focusPane == FocusList {
		leftColor = focusedColor
	} else {
		rightColor = focusedColor
	}

	leftBox := buildBorderedBox(leftLines, leftContentWidth, leftColor)
	rightBox := buildBorderedBox(rightLines, rightContentWidth, rightColor)
	return lipgloss.JoinHorizontal(lipgloss.Top, leftBox, strings.Repeat(" ", gap), rightBox)
}

// normalizeLines ensures the slice has exactly `height` lines, each padded to `width`.
func normalizeLines(lines []string, height, width int) []string {
	result := make([]string, height)
	for i := 0; i < height; i++ {
		if i < len(lines) {
			result[i] = padToWidth(lines[i], width)
		} else {
			result[i] = strings.Repeat(" ", width)
		}
	}
	return result
}

// buildBorderedBox creates a box with rounded borders around content lines.
func buildBorderedBox(lines []string, contentWidth int, borderColor lipgloss.Color) string {
	style := lipgloss.NewStyle().Foreground(borderColor)
	horizontal := style.Render("─")
	vertical := style.Render("│")

	var b strings.Builder
	b.WriteString(style.Render("╭"))
	b.WriteString(strings.Repeat(horizontal, contentWidth))
	b.WriteString(style.Render("╮"))
	b.WriteString("\n")
	for _, line := range lines {
		b.WriteString(vertical)
		b.WriteString(line)
		b.WriteString(vertical)
		b.WriteString("\n")
	}
	b.WriteString(style.Render("╰"))
	b.WriteString(strings.Repeat(horizontal, contentWidth))
	b.WriteString(style.Render("╯"))
	return b.String()
}

// padToWidth pads a string to the specified width with spaces.
// Accounts for ANSI escape codes when calculating visible width.
func padToWidth(s string, width int) string {
	visibleLen := lipgloss.Width(s)
	if visibleLen >= width {
		return s
	}
	return s + strings.Repeat(" ", width-visibleLen)
}

func (m Model) renderListPane(width, height int) string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("focus"))
	b.WriteString(fmt.Sprintf("  %d/%d tasks", len(m.filtered), len(m.tasks)))
	b.WriteString("  ")
	b.WriteString(filterStyle.Render(m.activeFiltersString()))
	b.WriteString("\n\n")

	// Header and footer take 5 lines
	rows := max(height-5, 3)

	if len(m.filtered) == 0 {
		b.WriteString("Nothing here\n")
	} else {
		start := 0
		if m.cursor >= rows {
			start = m.cursor - rows + 1
		}
		end := min(start+rows, len(m.filtered))

		rowWidth := max(width, 40)
		for i := start; i < end; i++ {
			t := m.filtered[i]
			if i == m.cursor {
				b.WriteString(selectedRowStyle.Width(rowWidth).Render(m.formatTaskLine(t, rowWidth, false)))
			} else {
				b.WriteString(lipgloss.NewStyle().Width(rowWidth).Render(m.formatTaskLine(t, rowWidth, true)))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("j/k:nav  1-8/[ ]:bucket 0:all  /:search  n:new  p:process"))
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("N:next x:done s:someday m:move P:project D:trash u:restore  q:quit"))
	return b.String()
}

// formatTaskLine renders one row. Styled rows color the icon and dim the
// project; selected rows stay plain so one highlight covers the whole line.
func (m Model) formatTaskLine(t model.Task, width int, styled bool) string {
	icon := statusIcon(t.Status)
	project := ""
	if title, ok := m.projects[t.ProjectID]; ok && t.ProjectID != "" {
		project = "[" + title + "]"
	}
	date := ""
	if d := t.EffectiveDate(); d != nil {
		date = d.Format("Jan 02")
	}

	titleWidth := width - 12 - len(project)
	if titleWidth < 20 {
		titleWidth = 20
	}
	title := t.Title
	if len([]rune(title)) > titleWidth {
		title = string([]rune(title)[:titleWidth-3]) + "..."
	}

	if styled {
		icon = lipgloss.NewStyle().Foreground(statusColors[t.Status]).Render(icon)
		if project != "" {
			project = dimStyle.Render(project)
		}
		date = dimStyle.Render(date)
	}
	return fmt.Sprintf("%s %-*s %6s %s", icon, titleWidth, title, date, project)
}

func (m Model) activeFiltersString() string {
	parts := []string{"bucket:all"}
	if m.bucket != "" {
		parts[0] = "bucket:" + string(m.bucket)
	}
	if m.filterSearch != "" {
		parts = append(parts, "search:\""+m.filterSearch+"\"")
	}
	return strings.Join(parts, " ")
}

func (m Model) detailView(width int) string {
	return m.detailViewWithHeight(width, 0)
}

// taskLines renders the fields of a task, one per line.
func (m Model) taskLines(t model.Task) []string {
	field := func(label, value string) string {
		return detailLabelStyle.Render(fmt.Sprintf("%-11s", label+":")) + value
	}
	day := func(d *time.Time) string { return d.Format("Mon Jan 02 2006") }

	color := statusColors[t.Status]
	lines := []string{
		lipgloss.NewStyle().Foreground(color).Render(statusIcon(t.Status)) + " " + titleStyle.Render(t.Title),
		"",
		field("ID", dimStyle.Render(t.ID)),
		field("Status", lipgloss.NewStyle().Foreground(color).Render(string(t.Status))),
		field("Created", t.Created.Format("2006-01-02 15:04")),
	}
	if t.ScheduledDate != nil {
		lines = append(lines, field("Scheduled", day(t.ScheduledDate)))
	}
	if t.DueDate != nil {
		lines = append(lines, field("Due", day(t.DueDate)))
	}
	if t.CompletedDate != nil {
		lines = append(lines, field("Completed", t.CompletedDate.Format("2006-01-02 15:04")))
	}
	if t.AssignedTo != "" {
		lines = append(lines, field("Waiting on", t.AssignedTo))
	}
	if t.TimeEstimate != nil {
		lines = append(lines, field("Estimate", fmt.Sprintf("%d min", *t.TimeEstimate)))
	}
	if t.Priority != nil {
		lines = append(lines, field("Priority", fmt.Sprintf("%d", *t.Priority)))
	}
	if t.EnergyLevel != "" {
		lines = append(lines, field("Energy", t.EnergyLevel))
	}
	if t.Context != "" {
		lines = append(lines, field("Context", t.Context))
	}
	if title, ok := m.projects[t.ProjectID]; ok && t.ProjectID != "" {
		lines = append(lines, field("Project", title))
	}
	if t.Description != "" {
		lines = append(lines, "", detailLabelStyle.Render("Description:"))
		lines = append(lines, strings.Split(t.Description, "\n")...)
	}
	return lines
}

// detailViewWithHeight renders the detail pane. A zero width means full
// screen; otherwise lines are truncated and scrolled to fit.
func (m Model) detailViewWithHeight(width, height int) string {
	t, ok := m.selected()
	if !ok {
		return "No task selected"
	}
	lines := m.taskLines(t)

	if width == 0 {
		lines = append(lines, "", helpStyle.Render("esc:back  p:process N:next x:done m:move D:trash  q:quit"))
		return strings.Join(lines, "\n")
	}

	for i, l := range lines {
		if lipgloss.Width(l) > width {
			lines[i] = lipgloss.NewStyle().MaxWidth(width).Render(l)
		}
	}

	visibleHeight := height
	if visibleHeight <= 0 {
		visibleHeight = len(lines)
	}
	scroll := min(m.detailScroll, max(0, len(lines)-visibleHeight))
	end := min(scroll+visibleHeight, len(lines))
	return strings.Join(lines[scroll:end], "\n")
}

func (m Model) triageView() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Process inbox"))
	if m.session == nil {
		return b.String()
	}
	b.WriteString(dimStyle.Render(fmt.Sprintf("  step %d/6 %s", int(m.session.Step), m.session.Step)))
	b.WriteString("\n\n")

	if m.triageTask != nil {
		b.WriteString(strings.Join(m.taskLines(*m.triageTask), "\n"))
		b.WriteString("\n\n")
	}

	b.WriteString(detailLabelStyle.Render(m.session.Step.Question()))
	b.WriteString("\n\n")
	b.WriteString(helpStyle.Render(triageHelp(m.session.Step) + "  esc:cancel"))
	return b.String()
}
