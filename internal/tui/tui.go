// Package tui provides an interactive terminal UI for Focus Flow using Bubble Tea.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/baiirun/focusflow/internal/model"
	"github.com/baiirun/focusflow/internal/repo"
	"github.com/baiirun/focusflow/internal/triage"
)

// ViewMode represents the current view state.
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
	ViewTriage
)

// InputMode represents what kind of text input is active.
type InputMode int

const (
	InputNone     InputMode = iota
	InputSearch             // Entering search text
	InputCreate             // Entering new task title
	InputMove               // Entering target status
	InputClarify            // Editing title during processing
	InputEstimate           // Entering time estimate in minutes
	InputPerson             // Entering who a task is delegated to
	InputDate               // Entering the date a task is scheduled for
)

// Layout constants
const (
	minSplitWidth = 80 // Minimum terminal width for split view
)

// FocusPane represents which pane is focused in split view.
type FocusPane int

const (
	FocusList FocusPane = iota
	FocusDetail
)

// buckets are the status lists reachable with the number keys 1-8.
var buckets = model.ListedStatuses()

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	ctx    context.Context
	repo   *repo.Repository
	wizard *triage.Wizard

	tasks    []model.Task      // every listed task
	projects map[string]string // project ID to title
	filtered []model.Task      // tasks in the current bucket after search
	cursor   int
	viewMode ViewMode

	// Filter state
	bucket       model.Status // empty shows every bucket
	filterSearch string

	// Input state
	inputMode  InputMode
	inputText  string
	inputLabel string

	// UI state
	width   int
	height  int
	err     error
	message string // temporary status message

	// Split view state
	focusPane    FocusPane
	detailScroll int

	// Processing state
	session    *triage.Session
	triageTask *model.Task
}

// New creates a TUI model showing the inbox.
func New(r *repo.Repository, w *triage.Wizard) Model {
	return Model{
		ctx:      context.Background(),
		repo:     r,
		wizard:   w,
		projects: map[string]string{},
		viewMode: ViewList,
		bucket:   model.StatusInbox,
	}
}

// Messages
type tasksMsg struct {
	tasks    []model.Task
	projects []model.Project
	err      error
}

type actionMsg struct {
	message string
	err     error
}

// triageMsg reports a started session or the outcome of one step.
type triageMsg struct {
	started bool
	session triage.Session
	task    *model.Task
	outcome triage.Outcome
	err     error
}

func (m Model) loadTasks() tea.Cmd {
	return func() tea.Msg {
		tasks, err := m.repo.AllTasks(m.ctx)
		if err != nil {
			return tasksMsg{err: err}
		}
		projects, err := m.repo.ListProjects(m.ctx)
		if err != nil {
			return tasksMsg{err: err}
		}
		return tasksMsg{tasks: tasks, projects: projects}
	}
}

// applyFilters narrows tasks to the current bucket and search text.
func (m *Model) applyFilters() {
	m.filtered = nil
	search := strings.ToLower(m.filterSearch)
	for _, t := range m.tasks {
		if m.bucket != "" && t.Status != m.bucket {
			continue
		}
		if search != "" &&
			!strings.Contains(strings.ToLower(t.Title), search) &&
			!strings.Contains(strings.ToLower(t.Description), search) {
			continue
		}
		m.filtered = append(m.filtered, t)
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
}

func (m Model) selected() (model.Task, bool) {
	if len(m.filtered) == 0 || m.cursor >= len(m.filtered) {
		return model.Task{}, false
	}
	return m.filtered[m.cursor], true
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return m.loadTasks()
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		m.message = ""
		m.err = nil
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.viewMode == ViewDetail && m.width >= minSplitWidth {
			m.viewMode = ViewList
		}
		return m, nil

	case tasksMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.tasks = msg.tasks
		m.projects = make(map[string]string, len(msg.projects))
		for _, p := range msg.projects {
			m.projects[p.ID] = p.Title
		}
		m.applyFilters()
		return m, nil

	case actionMsg:
		if msg.err != nil {
			m.err = msg.err
		} else {
			m.message = msg.message
		}
		return m, m.loadTasks()

	case triageMsg:
		return m.handleTriageMsg(msg)
	}

	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.inputMode != InputNone {
		return m.handleInputKey(msg)
	}

	switch m.viewMode {
	case ViewList:
		return m.handleListKey(msg)
	case ViewDetail:
		return m.handleDetailKey(msg)
	case ViewTriage:
		return m.handleTriageKey(msg)
	}
	return m, nil
}

func (m Model) handleInputKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.inputMode = InputNone
		m.inputText = ""
		return m, nil

	case tea.KeyEnter:
		return m.submitInput()

	case tea.KeyBackspace:
		if len(m.inputText) > 0 {
			r := []rune(m.inputText)
			m.inputText = string(r[:len(r)-1])
		}

	case tea.KeySpace:
		m.inputText += " "

	case tea.KeyRunes:
		m.inputText += string(msg.Runes)

	default:
		return m, nil
	}

	// Live filter while searching
	if m.inputMode == InputSearch {
		m.filterSearch = m.inputText
		m.applyFilters()
	}
	return m, nil
}

func (m Model) submitInput() (tea.Model, tea.Cmd) {
	text := strings.TrimSpace(m.inputText)
	mode := m.inputMode
	m.inputMode = InputNone
	m.inputText = ""

	switch mode {
	case InputSearch:
		m.filterSearch = text
		m.applyFilters()
		return m, nil

	case InputCreate:
		if text == "" {
			return m, nil
		}
		return m, func() tea.Msg {
			t, err := m.repo.AddTask(m.ctx, model.Task{Title: text})
			if err != nil {
				return actionMsg{err: err}
			}
			return actionMsg{message: fmt.Sprintf("Captured %q", t.Title)}
		}

	case InputMove:
		t, ok := m.selected()
		if !ok || text == "" {
			return m, nil
		}
		status, valid := model.ParseStatus(text)
		if !valid {
			m.err = model.InvalidStatef("unknown status %q", text)
			return m, nil
		}
		return m, m.move(t, status)

	case InputClarify:
		if text == "" {
			return m, m.step(triage.Clarify{})
		}
		return m, m.step(triage.Clarify{Title: &text})

	case InputEstimate:
		minutes := 0
		if text != "" {
			n, err := strconv.Atoi(text)
			if err != nil {
				m.err = fmt.Errorf("%w: estimate must be a whole number of minutes", model.ErrInvalid)
				return m, nil
			}
			minutes = n
		}
		return m, m.step(triage.TwoMinute{TimeEstimate: minutes})

	case InputPerson:
		return m, m.step(triage.Delegate{Yes: true, Person: text})

	case InputDate:
		date, err := model.ParseDate(text)
		if err != nil {
			m.err = err
			return m, nil
		}
		return m, m.step(triage.Schedule{Yes: true, Date: date})
	}

	return m, nil
}

func (m Model) handleListKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.width >= minSplitWidth && m.focusPane == FocusDetail {
		return m.handleDetailPaneKey(msg)
	}

	key := msg.String()
	switch key {
	case "q", "ctrl+c":
		return m, tea.Quit

	case "tab":
		if m.width >= minSplitWidth {
			if m.focusPane == FocusList {
				m.focusPane = FocusDetail
			} else {
				m.focusPane = FocusList
			}
		}
		return m, nil

	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
			m.detailScroll = 0
		}

	case "down", "j":
		if m.cursor < len(m.filtered)-1 {
			m.cursor++
			m.detailScroll = 0
		}

	case "g", "home":
		m.cursor = 0
		m.detailScroll = 0

	case "G", "end":
		m.cursor = max(0, len(m.filtered)-1)
		m.detailScroll = 0

	case "enter", "l":
		if m.width < minSplitWidth && len(m.filtered) > 0 {
			m.viewMode = ViewDetail
		} else if m.width >= minSplitWidth {
			m.focusPane = FocusDetail
		}

	case "[", "]":
		m.bucket = cycleBucket(m.bucket, key == "]")
		m.cursor = 0
		m.applyFilters()

	case "0":
		m.bucket = ""
		m.cursor = 0
		m.applyFilters()

	case "/":
		return m.startInput(InputSearch, "Search: ", "")

	case "esc":
		if m.filterSearch != "" {
			m.filterSearch = ""
			m.applyFilters()
		} else {
			return m, tea.Quit
		}

	case "r":
		return m, m.loadTasks()

	case "n":
		return m.startInput(InputCreate, "New task: ", "")

	default:
		if n, err := strconv.Atoi(key); err == nil && n >= 1 && n <= len(buckets) {
			m.bucket = buckets[n-1]
			m.cursor = 0
			m.applyFilters()
			return m, nil
		}
		return m.handleActionKey(key)
	}

	return m, nil
}

// handleActionKey runs the task actions shared by every view.
func (m Model) handleActionKey(key string) (tea.Model, tea.Cmd) {
	t, ok := m.selected()
	if !ok {
		return m, nil
	}

	switch key {
	case "p":
		if t.Status != model.StatusInbox {
			m.message = "Only inbox tasks can be processed"
			return m, nil
		}
		return m, m.startProcessing(t.ID)
	case "x":
		return m, m.move(t, model.StatusCompleted)
	case "N":
		return m, m.move(t, model.StatusNext)
	case "s":
		return m, m.move(t, model.StatusSomeday)
	case "m":
		return m.startInput(InputMove, "Move to: ", "")
	case "P":
		return m, m.convert(t)
	case "u":
		return m, m.restore(t)
	case "D":
		if t.Status == model.StatusDeleted {
			return m, m.purge(t)
		}
		return m, m.move(t, model.StatusDeleted)
	}
	return m, nil
}

// handleDetailPaneKey handles keys when detail pane is focused in split view.
func (m Model) handleDetailPaneKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "tab", "esc", "h":
		m.focusPane = FocusList
	case "up", "k":
		if m.detailScroll > 0 {
			m.detailScroll--
		}
	case "down", "j":
		m.detailScroll++
	case "g", "home":
		m.detailScroll = 0
	case "G", "end":
		m.detailScroll = 9999
	default:
		return m.handleActionKey(key)
	}
	return m, nil
}

func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch key := msg.String(); key {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "h", "backspace":
		m.viewMode = ViewList
	default:
		return m.handleActionKey(key)
	}
	return m, nil
}

func (m Model) startInput(mode InputMode, label, text string) (Model, tea.Cmd) {
	m.inputMode = mode
	m.inputLabel = label
	m.inputText = text
	return m, nil
}

func cycleBucket(current model.Status, forward bool) model.Status {
	idx := -1
	for i, s := range buckets {
		if s == current {
			idx = i
		}
	}
	if forward {
		return buckets[(idx+1)%len(buckets)]
	}
	if idx <= 0 {
		return buckets[len(buckets)-1]
	}
	return buckets[idx-1]
}

func (m Model) move(t model.Task, status model.Status) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.repo.MoveTaskToStatus(m.ctx, t.ID, status); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{message: fmt.Sprintf("Moved %q to %s", t.Title, status)}
	}
}

func (m Model) restore(t model.Task) tea.Cmd {
	return func() tea.Msg {
		if _, err := m.repo.RestoreTask(m.ctx, t.ID); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{message: fmt.Sprintf("Restored %q", t.Title)}
	}
}

func (m Model) purge(t model.Task) tea.Cmd {
	return func() tea.Msg {
		if err := m.repo.PermanentlyDeleteTask(m.ctx, t.ID); err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{message: fmt.Sprintf("Deleted %q forever", t.Title)}
	}
}

func (m Model) convert(t model.Task) tea.Cmd {
	return func() tea.Msg {
		p, _, err := m.repo.ConvertToProject(m.ctx, t.ID)
		if err != nil {
			return actionMsg{err: err}
		}
		return actionMsg{message: fmt.Sprintf("Created project %q", p.Title)}
	}
}

// Run starts the TUI.
func Run(r *repo.Repository, w *triage.Wizard) error {
	p := tea.NewProgram(New(r, w), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
