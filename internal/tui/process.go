package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/baiirun/focusflow/internal/model"
	"github.com/baiirun/focusflow/internal/triage"
)

func (m Model) startProcessing(id string) tea.Cmd {
	return func() tea.Msg {
		s, err := m.wizard.StartProcessing(m.ctx, id)
		if err != nil {
			return triageMsg{started: true, err: err}
		}
		t, err := m.repo.GetTask(m.ctx, id)
		if err != nil {
			m.wizard.CancelProcessing()
			return triageMsg{started: true, err: err}
		}
		return triageMsg{started: true, session: s, task: t}
	}
}

// step hands one decision to the wizard. The session in the model only
// advances once the wizard accepts it.
func (m Model) step(d triage.Decision) tea.Cmd {
	return func() tea.Msg {
		out, err := m.wizard.CompleteStep(m.ctx, d.Step(), d)
		return triageMsg{outcome: out, task: out.Task, err: err}
	}
}

func (m Model) handleTriageMsg(msg triageMsg) (tea.Model, tea.Cmd) {
	if msg.err != nil {
		m.err = msg.err
		return m, nil
	}

	if msg.started {
		s := msg.session
		m.session = &s
		m.triageTask = msg.task
		m.viewMode = ViewTriage
		return m, nil
	}

	out := msg.outcome
	if msg.task != nil {
		m.triageTask = msg.task
	}
	if !out.Done {
		next := out.Next
		m.session = &next
		return m, nil
	}

	m.message = outcomeMessage(out)
	m.session = nil
	m.triageTask = nil
	m.viewMode = ViewList
	return m, m.loadTasks()
}

func outcomeMessage(out triage.Outcome) string {
	switch {
	case out.Project != nil:
		return fmt.Sprintf("Created project %q", out.Project.Title)
	case out.Task != nil:
		return fmt.Sprintf("Processed %q into %s", out.Task.Title, out.Task.Status)
	default:
		return "Processed"
	}
}

func (m Model) handleTriageKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "ctrl+c":
		return m, tea.Quit
	case "esc", "q":
		m.wizard.CancelProcessing()
		m.session = nil
		m.triageTask = nil
		m.viewMode = ViewList
		m.message = "Processing cancelled"
		return m, nil
	}
	if m.session == nil {
		m.viewMode = ViewList
		return m, nil
	}

	switch m.session.Step {
	case triage.StepClarify:
		switch key {
		case "enter", "y":
			return m, m.step(triage.Clarify{})
		case "e":
			title := ""
			if m.triageTask != nil {
				title = m.triageTask.Title
			}
			return m.startInput(InputClarify, "Title: ", title)
		}

	case triage.StepActionRequired:
		switch key {
		case "y":
			return m, m.step(triage.ActionRequired{Actionable: true})
		case "r":
			return m, m.step(triage.ActionRequired{Else: triage.DispositionReference})
		case "s":
			return m, m.step(triage.ActionRequired{Else: triage.DispositionSomeday})
		case "t":
			return m, m.step(triage.ActionRequired{Else: triage.DispositionTrash})
		}

	case triage.StepMultiStep:
		switch key {
		case "y":
			return m, m.step(triage.MultiStep{Yes: true})
		case "n":
			return m, m.step(triage.MultiStep{})
		}

	case triage.StepTwoMinute:
		switch key {
		case "y":
			return m, m.step(triage.TwoMinute{Yes: true})
		case "n":
			return m.startInput(InputEstimate, "Estimate (minutes): ", "")
		}

	case triage.StepDelegate:
		switch key {
		case "y":
			return m.startInput(InputPerson, "Delegate to: ", "")
		case "n":
			return m, m.step(triage.Delegate{})
		}

	case triage.StepSchedule:
		switch key {
		case "y":
			return m.startInput(InputDate, "Date ("+model.DateLayout+"): ", "")
		case "n":
			return m, m.step(triage.Schedule{})
		}
	}
	return m, nil
}

// triageHelp lists the answers a step accepts.
func triageHelp(s triage.Step) string {
	switch s {
	case triage.StepClarify:
		return "enter:looks right  e:edit title"
	case triage.StepActionRequired:
		return "y:yes  r:reference  s:someday  t:trash"
	case triage.StepTwoMinute:
		return "y:do it now  n:enter estimate"
	case triage.StepDelegate:
		return "y:choose person  n:no"
	case triage.StepSchedule:
		return "y:choose date  n:next action"
	default:
		return "y:yes  n:no"
	}
}
