package tui

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/baiirun/focusflow/internal/db"
	"github.com/baiirun/focusflow/internal/model"
	"github.com/baiirun/focusflow/internal/quota"
	"github.com/baiirun/focusflow/internal/repo"
	"github.com/baiirun/focusflow/internal/triage"
)

func setupTestModel(t *testing.T) (Model, *repo.Repository, *triage.Wizard) {
	t.Helper()

	database, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := database.Init(); err != nil {
		t.Fatalf("failed to init db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close() })

	r := repo.New(database, quota.NewGate(database, "alice", quota.Pro), "alice")
	w := triage.NewWizard(r)
	return New(r, w), r, w
}

// send feeds msg to the model and runs every resulting command to completion.
func send(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, cmd := m.Update(msg)
	m = next.(Model)
	for cmd != nil {
		out := cmd()
		if _, ok := out.(tea.QuitMsg); ok || out == nil {
			return m
		}
		next, cmd = m.Update(out)
		m = next.(Model)
	}
	return m
}

func press(t *testing.T, m Model, keys ...string) Model {
	t.Helper()
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		m = send(t, m, msg)
	}
	return m
}

func load(t *testing.T, m Model) Model {
	t.Helper()
	return send(t, m, m.Init()())
}

func addTask(t *testing.T, r *repo.Repository, title string, status model.Status) *model.Task {
	t.Helper()
	task, err := r.AddTask(context.Background(), model.Task{Title: title})
	if err != nil {
		t.Fatalf("AddTask(%q) failed: %v", title, err)
	}
	if status != model.StatusInbox {
		task, err = r.MoveTaskToStatus(context.Background(), task.ID, status)
		if err != nil {
			t.Fatalf("MoveTaskToStatus(%q) failed: %v", title, err)
		}
	}
	return task
}

func getTask(t *testing.T, r *repo.Repository, id string) *model.Task {
	t.Helper()
	task, err := r.GetTask(context.Background(), id)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	return task
}

func TestCaptureTask(t *testing.T) {
	m, r, _ := setupTestModel(t)
	m = load(t, m)

	m = press(t, m, "n", "B", "u", "y", " ", "m", "i", "l", "k", "enter")

	if m.err != nil {
		t.Fatalf("unexpected error: %v", m.err)
	}
	if len(m.filtered) != 1 || m.filtered[0].Title != "Buy milk" {
		t.Fatalf("inbox = %+v, want one task titled Buy milk", m.filtered)
	}
	inbox, err := r.TasksByStatus(context.Background(), model.StatusInbox)
	if err != nil {
		t.Fatalf("TasksByStatus failed: %v", err)
	}
	if len(inbox) != 1 {
		t.Errorf("stored inbox has %d tasks, want 1", len(inbox))
	}
	if !strings.Contains(m.message, "Buy milk") {
		t.Errorf("message = %q, want it to name the task", m.message)
	}
}

func TestCaptureTask_EmptyTitleIgnored(t *testing.T) {
	m, _, _ := setupTestModel(t)
	m = load(t, m)

	m = press(t, m, "n", "enter")

	if m.err != nil || len(m.tasks) != 0 {
		t.Errorf("err = %v, tasks = %d; want nothing captured", m.err, len(m.tasks))
	}
	if m.inputMode != InputNone {
		t.Errorf("inputMode = %v, want InputNone", m.inputMode)
	}
}

func TestBuckets(t *testing.T) {
	m, r, _ := setupTestModel(t)
	addTask(t, r, "Inbox item", model.StatusInbox)
	addTask(t, r, "Call Bob", model.StatusNext)
	addTask(t, r, "Old idea", model.StatusSomeday)
	m = load(t, m)

	if m.bucket != model.StatusInbox || len(m.filtered) != 1 {
		t.Fatalf("initial bucket = %s with %d tasks, want inbox with 1", m.bucket, len(m.filtered))
	}

	m = press(t, m, "2")
	if m.bucket != model.StatusNext || len(m.filtered) != 1 || m.filtered[0].Title != "Call Bob" {
		t.Errorf("after 2: bucket = %s, filtered = %+v", m.bucket, m.filtered)
	}

	m = press(t, m, "]")
	if m.bucket != model.StatusWaiting || len(m.filtered) != 0 {
		t.Errorf("after ]: bucket = %s with %d tasks, want waiting with 0", m.bucket, len(m.filtered))
	}

	m = press(t, m, "0")
	if m.bucket != "" || len(m.filtered) != 3 {
		t.Errorf("after 0: bucket = %q with %d tasks, want all 3", m.bucket, len(m.filtered))
	}
}

func TestCycleBucket(t *testing.T) {
	last := buckets[len(buckets)-1]
	if got := cycleBucket(last, true); got != buckets[0] {
		t.Errorf("forward from %s = %s, want %s", last, got, buckets[0])
	}
	if got := cycleBucket(buckets[0], false); got != last {
		t.Errorf("back from %s = %s, want %s", buckets[0], got, last)
	}
	if got := cycleBucket("", true); got != buckets[0] {
		t.Errorf("forward from all = %s, want %s", got, buckets[0])
	}
}

func TestSearch(t *testing.T) {
	m, r, _ := setupTestModel(t)
	addTask(t, r, "Buy milk", model.StatusInbox)
	addTask(t, r, "Email landlord", model.StatusInbox)
	m = load(t, m)

	m = press(t, m, "/", "m", "i", "l")
	if len(m.filtered) != 1 || m.filtered[0].Title != "Buy milk" {
		t.Fatalf("live search filtered = %+v, want Buy milk only", m.filtered)
	}

	m = press(t, m, "enter")
	if m.filterSearch != "mil" || len(m.filtered) != 1 {
		t.Errorf("after enter: search = %q, filtered = %d", m.filterSearch, len(m.filtered))
	}

	m = press(t, m, "esc")
	if m.filterSearch != "" || len(m.filtered) != 2 {
		t.Errorf("after esc: search = %q, filtered = %d; want cleared", m.filterSearch, len(m.filtered))
	}
}

func TestActions(t *testing.T) {
	m, r, _ := setupTestModel(t)
	task := addTask(t, r, "Pay rent", model.StatusInbox)
	m = load(t, m)

	m = press(t, m, "x")
	if got := getTask(t, r, task.ID); got.Status != model.StatusCompleted || got.CompletedDate == nil {
		t.Fatalf("after x: status = %s, completed = %v", got.Status, got.CompletedDate)
	}
	if len(m.filtered) != 0 {
		t.Errorf("inbox still shows %d tasks", len(m.filtered))
	}

	m = press(t, m, "7", "D")
	if got := getTask(t, r, task.ID); got.Status != model.StatusDeleted {
		t.Fatalf("after D: status = %s, want deleted", got.Status)
	}

	m = press(t, m, "8", "u")
	if got := getTask(t, r, task.ID); got.Status != model.StatusInbox {
		t.Fatalf("after u: status = %s, want inbox", got.Status)
	}

	m = press(t, m, "1", "D", "8", "D")
	if _, err := r.GetTask(context.Background(), task.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("after purge: err = %v, want ErrNotFound", err)
	}
	if m.err != nil {
		t.Errorf("unexpected error: %v", m.err)
	}
}

func TestMoveByName(t *testing.T) {
	m, r, _ := setupTestModel(t)
	task := addTask(t, r, "Renew passport", model.StatusInbox)
	m = load(t, m)

	m = press(t, m, "m", "s", "c", "h", "e", "d", "u", "l", "e", "d", "enter")
	got := getTask(t, r, task.ID)
	if got.Status != model.StatusScheduled || got.ScheduledDate == nil {
		t.Errorf("status = %s, scheduled = %v; want scheduled for today", got.Status, got.ScheduledDate)
	}

	m = press(t, m, "4", "m", "b", "o", "g", "u", "s", "enter")
	if !errors.Is(m.err, model.ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", m.err)
	}
}

func TestConvertToProject(t *testing.T) {
	m, r, _ := setupTestModel(t)
	addTask(t, r, "Plan trip", model.StatusInbox)
	m = load(t, m)

	m = press(t, m, "P")

	if m.err != nil {
		t.Fatalf("unexpected error: %v", m.err)
	}
	projects, err := r.ListProjects(context.Background())
	if err != nil {
		t.Fatalf("ListProjects failed: %v", err)
	}
	if len(projects) != 1 || projects[0].Title != "Plan trip" {
		t.Fatalf("projects = %+v, want Plan trip", projects)
	}
	if len(m.filtered) != 0 {
		t.Errorf("placeholder still listed in inbox")
	}
}

func TestProcess_NextAction(t *testing.T) {
	m, r, w := setupTestModel(t)
	task := addTask(t, r, "Buy milk", model.StatusInbox)
	m = load(t, m)

	m = press(t, m, "p")
	if m.viewMode != ViewTriage || m.session == nil || m.session.Step != triage.StepClarify {
		t.Fatalf("after p: view = %v, session = %+v", m.viewMode, m.session)
	}
	if !strings.Contains(m.View(), triage.StepClarify.Question()) {
		t.Errorf("triage view does not show the clarify question")
	}

	m = press(t, m, "enter", "y", "n", "n", "1", "5", "enter")
	if m.session == nil || m.session.Step != triage.StepDelegate {
		t.Fatalf("session = %+v, want delegate step", m.session)
	}

	m = press(t, m, "n", "n")
	if m.err != nil {
		t.Fatalf("unexpected error: %v", m.err)
	}
	if m.viewMode != ViewList || m.session != nil {
		t.Errorf("view = %v, session = %+v; want back to list", m.viewMode, m.session)
	}
	if _, active := w.CurrentStep(); active {
		t.Errorf("wizard still has an active session")
	}

	got := getTask(t, r, task.ID)
	if got.Status != model.StatusNext {
		t.Errorf("status = %s, want next", got.Status)
	}
	if got.TimeEstimate == nil || *got.TimeEstimate != 15 {
		t.Errorf("time estimate = %v, want 15", got.TimeEstimate)
	}
}

func TestProcess_ClarifyEditsTitle(t *testing.T) {
	m, r, _ := setupTestModel(t)
	task := addTask(t, r, "milk", model.StatusInbox)
	m = load(t, m)

	m = press(t, m, "p", "e")
	if m.inputMode != InputClarify || m.inputText != "milk" {
		t.Fatalf("input = %v %q, want clarify prefilled with title", m.inputMode, m.inputText)
	}

	m = press(t, m, "!", "enter")
	if got := getTask(t, r, task.ID); got.Title != "milk!" {
		t.Errorf("title = %q, want milk!", got.Title)
	}
	if m.triageTask == nil || m.triageTask.Title != "milk!" {
		t.Errorf("triage view task = %+v, want the edited title", m.triageTask)
	}
	if m.session.Step != triage.StepActionRequired {
		t.Errorf("step = %s, want action-required", m.session.Step)
	}
}

func TestProcess_Dispositions(t *testing.T) {
	tests := []struct {
		key  string
		want model.Status
	}{
		{"r", model.StatusReference},
		{"s", model.StatusSomeday},
		{"t", model.StatusDeleted},
	}

	for _, tt := range tests {
		t.Run(string(tt.want), func(t *testing.T) {
			m, r, _ := setupTestModel(t)
			task := addTask(t, r, "Flyer", model.StatusInbox)
			m = load(t, m)

			m = press(t, m, "p", "enter", tt.key)

			if got := getTask(t, r, task.ID); got.Status != tt.want {
				t.Errorf("status = %s, want %s", got.Status, tt.want)
			}
			if m.viewMode != ViewList {
				t.Errorf("view = %v, want list", m.viewMode)
			}
		})
	}
}

func TestProcess_DelegateAndSchedule(t *testing.T) {
	m, r, _ := setupTestModel(t)
	waiting := addTask(t, r, "Quote", model.StatusInbox)
	m = load(t, m)

	m = press(t, m, "p", "enter", "y", "n", "n", "enter", "y", "S", "a", "m", "enter")
	got := getTask(t, r, waiting.ID)
	if got.Status != model.StatusWaiting || got.AssignedTo != "Sam" {
		t.Fatalf("status = %s, assigned = %q; want waiting on Sam", got.Status, got.AssignedTo)
	}

	dentist := addTask(t, r, "Dentist", model.StatusInbox)
	m = press(t, m, "r", "p", "enter", "y", "n", "n", "enter", "n", "y")
	m = press(t, m, strings.Split("2026-11-03", "")...)
	m = press(t, m, "enter")
	got = getTask(t, r, dentist.ID)
	if got.Status != model.StatusScheduled || got.EffectiveDate() == nil {
		t.Fatalf("status = %s, date = %v", got.Status, got.EffectiveDate())
	}
	if d := got.EffectiveDate().Format(model.DateLayout); d != "2026-11-03" {
		t.Errorf("date = %s, want 2026-11-03", d)
	}
}

func TestProcess_InvalidDateKeepsStep(t *testing.T) {
	m, r, _ := setupTestModel(t)
	task := addTask(t, r, "Dentist", model.StatusInbox)
	m = load(t, m)

	m = press(t, m, "p", "enter", "y", "n", "n", "enter", "n", "y", "s", "o", "o", "n", "enter")

	if !errors.Is(m.err, model.ErrInvalid) {
		t.Errorf("err = %v, want ErrInvalid", m.err)
	}
	if m.viewMode != ViewTriage || m.session.Step != triage.StepSchedule {
		t.Errorf("view = %v, step = %v; want still scheduling", m.viewMode, m.session.Step)
	}
	if got := getTask(t, r, task.ID); got.Status != model.StatusInbox {
		t.Errorf("status = %s, want inbox", got.Status)
	}
}

func TestProcess_Cancel(t *testing.T) {
	m, r, w := setupTestModel(t)
	addTask(t, r, "Buy milk", model.StatusInbox)
	m = load(t, m)

	m = press(t, m, "p", "enter", "esc")

	if m.viewMode != ViewList || m.session != nil {
		t.Errorf("view = %v, session = %+v; want list", m.viewMode, m.session)
	}
	if _, active := w.CurrentStep(); active {
		t.Errorf("wizard session survived cancel")
	}
}

func TestProcess_RequiresInbox(t *testing.T) {
	m, r, _ := setupTestModel(t)
	addTask(t, r, "Call Bob", model.StatusNext)
	m = load(t, m)

	m = press(t, m, "2", "p")

	if m.viewMode != ViewList {
		t.Errorf("view = %v, want list", m.viewMode)
	}
	if m.message == "" {
		t.Errorf("expected a message explaining why processing did not start")
	}
}

func TestView(t *testing.T) {
	m, r, _ := setupTestModel(t)
	addTask(t, r, "Buy milk", model.StatusInbox)
	m = load(t, m)

	narrow := send(t, m, tea.WindowSizeMsg{Width: 60, Height: 30})
	if out := narrow.View(); !strings.Contains(out, "Buy milk") || !strings.Contains(out, "bucket:inbox") {
		t.Errorf("narrow view missing task or bucket:\n%s", out)
	}

	wide := send(t, m, tea.WindowSizeMsg{Width: 140, Height: 30})
	if out := wide.View(); !strings.Contains(out, "Status:") {
		t.Errorf("split view missing detail pane:\n%s", out)
	}

	detail := press(t, narrow, "enter")
	if detail.viewMode != ViewDetail {
		t.Fatalf("view = %v, want detail", detail.viewMode)
	}
	if out := detail.View(); !strings.Contains(out, "inbox") {
		t.Errorf("detail view missing status:\n%s", out)
	}
}
