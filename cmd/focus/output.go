package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/baiirun/focusflow/internal/model"
)

var statusColors = map[model.Status]text.Colors{
	model.StatusInbox:     {text.FgHiWhite},
	model.StatusNext:      {text.FgHiYellow},
	model.StatusWaiting:   {text.FgHiMagenta},
	model.StatusScheduled: {text.FgHiBlue},
	model.StatusProject:   {text.FgHiCyan},
	model.StatusSomeday:   {text.FgCyan},
	model.StatusReference: {text.FgBlue},
	model.StatusCompleted: {text.FgHiGreen},
	model.StatusDeleted:   {text.FgHiBlack},
}

func colorStatus(s model.Status) string {
	if c, ok := statusColors[s]; ok {
		return c.Sprint(string(s))
	}
	return string(s)
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}

func formatDay(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(model.DateLayout)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = false
	return t
}

func renderTasks(w io.Writer, tasks []model.Task, projects map[string]string) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Title", "Status", "Date", "Estimate", "Waiting on", "Project"})
	for _, task := range tasks {
		estimate := ""
		if task.TimeEstimate != nil {
			estimate = fmt.Sprintf("%dm", *task.TimeEstimate)
		}
		t.AppendRow(table.Row{
			task.ID,
			task.Title,
			colorStatus(task.Status),
			formatDay(task.EffectiveDate()),
			estimate,
			task.AssignedTo,
			projects[task.ProjectID],
		})
	}
	t.AppendFooter(table.Row{"", fmt.Sprintf("%d tasks", len(tasks))})
	t.Render()
}

func renderTask(w io.Writer, task *model.Task, projectTitle string) {
	t := newTable(w)
	t.AppendRow(table.Row{"ID", task.ID})
	t.AppendRow(table.Row{"Title", task.Title})
	t.AppendRow(table.Row{"Status", colorStatus(task.Status)})
	t.AppendRow(table.Row{"Created", task.Created.Format("2006-01-02 15:04")})
	if task.Updated != nil {
		t.AppendRow(table.Row{"Updated", task.Updated.Format("2006-01-02 15:04")})
	}
	if task.ScheduledDate != nil {
		t.AppendRow(table.Row{"Scheduled", formatDay(task.ScheduledDate)})
	}
	if task.DueDate != nil {
		t.AppendRow(table.Row{"Due", formatDay(task.DueDate)})
	}
	if task.CompletedDate != nil {
		t.AppendRow(table.Row{"Completed", task.CompletedDate.Format("2006-01-02 15:04")})
	}
	if task.AssignedTo != "" {
		t.AppendRow(table.Row{"Waiting on", task.AssignedTo})
	}
	if task.TimeEstimate != nil {
		t.AppendRow(table.Row{"Estimate", fmt.Sprintf("%d min", *task.TimeEstimate)})
	}
	if task.Priority != nil {
		t.AppendRow(table.Row{"Priority", *task.Priority})
	}
	if task.EnergyLevel != "" {
		t.AppendRow(table.Row{"Energy", task.EnergyLevel})
	}
	if task.Context != "" {
		t.AppendRow(table.Row{"Context", task.Context})
	}
	if projectTitle != "" {
		t.AppendRow(table.Row{"Project", projectTitle})
	}
	if task.Description != "" {
		t.AppendRow(table.Row{"Description", task.Description})
	}
	t.Render()
}

func renderProjects(w io.Writer, projects []model.Project) {
	if len(projects) == 0 {
		fmt.Fprintln(w, "No projects.")
		return
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"ID", "Title", "Tasks", "Progress", "Created"})
	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "Tasks", Align: text.AlignRight},
		{Name: "Progress", Align: text.AlignRight},
	})
	for _, p := range projects {
		t.AppendRow(table.Row{
			p.ID,
			p.Title,
			len(p.Tasks),
			fmt.Sprintf("%d%%", p.Progress),
			p.Created.Format(model.DateLayout),
		})
	}
	t.Render()
}

func renderSummary(w io.Writer, s *model.Summary) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Bucket", "Tasks"})
	for _, status := range model.ListedStatuses() {
		t.AppendRow(table.Row{colorStatus(status), s.Counts[status]})
	}
	t.AppendFooter(table.Row{"Projects", s.Projects})
	t.Render()

	if len(s.RecentDone) == 0 {
		return
	}
	titles := make([]string, len(s.RecentDone))
	for i, task := range s.RecentDone {
		titles[i] = "  " + text.FgHiGreen.Sprint("●") + " " + task.Title
	}
	fmt.Fprintf(w, "\nRecently completed:\n%s\n", strings.Join(titles, "\n"))
}

// limitText shows Unlimited limits as "unlimited".
func limitText(used, limit int) string {
	if limit < 0 {
		return fmt.Sprintf("%d / unlimited", used)
	}
	return fmt.Sprintf("%d / %d", used, limit)
}
