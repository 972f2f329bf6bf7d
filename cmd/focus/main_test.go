package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/baiirun/focusflow/internal/model"
	"github.com/baiirun/focusflow/internal/quota"
	"github.com/baiirun/focusflow/internal/triage"
)

type cli struct {
	dir    string
	config string
}

// setupCLI writes a config file for plan and points HOME at a temp dir so
// nothing outside the test is read.
func setupCLI(t *testing.T, plan string) *cli {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	config := filepath.Join(dir, "config.yaml")
	body := "db_path: " + filepath.Join(dir, "focus.db") + "\nowner: alice\nplan: " + plan + "\n"
	if err := os.WriteFile(config, []byte(body), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return &cli{dir: dir, config: config}
}

func (c *cli) runWithInput(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"--config", c.config}, args...))
	err := root.Execute()
	return out.String(), err
}

func (c *cli) run(t *testing.T, args ...string) string {
	t.Helper()
	out, err := c.runWithInput(t, "", args...)
	if err != nil {
		t.Fatalf("focus %s: %v\noutput: %s", strings.Join(args, " "), err, out)
	}
	return out
}

func decodeJSON[T any](t *testing.T, output string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(output), &v); err != nil {
		t.Fatalf("invalid JSON: %v\noutput: %s", err, output)
	}
	return v
}

func (c *cli) add(t *testing.T, args ...string) model.Task {
	t.Helper()
	return decodeJSON[model.Task](t, c.run(t, append([]string{"add", "--json"}, args...)...))
}

func (c *cli) show(t *testing.T, id string) model.Task {
	t.Helper()
	return decodeJSON[model.Task](t, c.run(t, "show", "--json", id))
}

func TestAddAndList(t *testing.T) {
	c := setupCLI(t, "free")

	task := c.add(t, "Buy", "milk", "--estimate", "5", "--context", "@errands")
	if task.Title != "Buy milk" || task.Status != model.StatusInbox {
		t.Fatalf("task = %+v, want Buy milk in inbox", task)
	}
	if task.TimeEstimate == nil || *task.TimeEstimate != 5 || task.Context != "@errands" {
		t.Errorf("estimate = %v, context = %q", task.TimeEstimate, task.Context)
	}
	c.add(t, "Call Bob", "--status", "next")

	inbox := decodeJSON[[]model.Task](t, c.run(t, "list", "--json", "inbox"))
	if len(inbox) != 1 || inbox[0].ID != task.ID {
		t.Errorf("inbox = %+v, want only Buy milk", inbox)
	}

	both := decodeJSON[[]model.Task](t, c.run(t, "list", "--json", "inbox,next"))
	if len(both) != 2 {
		t.Errorf("inbox,next has %d tasks, want 2", len(both))
	}

	table := c.run(t, "list")
	if !strings.Contains(table, "Buy milk") || !strings.Contains(table, "Call Bob") {
		t.Errorf("table missing tasks:\n%s", table)
	}

	found := decodeJSON[[]model.Task](t, c.run(t, "search", "--json", "BOB"))
	if len(found) != 1 || found[0].Title != "Call Bob" {
		t.Errorf("search = %+v, want Call Bob", found)
	}
}

func TestListEmpty(t *testing.T) {
	c := setupCLI(t, "free")

	if out := c.run(t, "list", "--json"); strings.TrimSpace(out) != "[]" {
		t.Errorf("empty JSON list = %q, want []", out)
	}
	if out := c.run(t, "list"); !strings.Contains(out, "No tasks.") {
		t.Errorf("empty table = %q", out)
	}
}

func TestAdd_Errors(t *testing.T) {
	c := setupCLI(t, "free")

	tests := []struct {
		name string
		args []string
		want error
	}{
		{"unknown status", []string{"add", "x", "--status", "later"}, model.ErrInvalidState},
		{"project status", []string{"add", "x", "--status", "project"}, model.ErrInvalidState},
		{"bad date", []string{"add", "x", "--due", "someday"}, model.ErrInvalid},
		{"bad priority", []string{"add", "x", "--priority", "7"}, model.ErrInvalid},
		{"unknown project", []string{"add", "x", "--project", "nope"}, model.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.runWithInput(t, "", tt.args...)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestEdit(t *testing.T) {
	c := setupCLI(t, "free")
	task := c.add(t, "Renew passport", "--due", "2026-12-01")

	c.run(t, "edit", task.ID, "--title", "Renew passport online", "--priority", "3")
	got := c.show(t, task.ID)
	if got.Title != "Renew passport online" || got.Priority == nil || *got.Priority != 3 {
		t.Errorf("after edit: %+v", got)
	}
	if got.DueDate == nil {
		t.Fatal("due date lost by an unrelated edit")
	}

	c.run(t, "edit", task.ID, "--due", "")
	if got := c.show(t, task.ID); got.DueDate != nil {
		t.Errorf("due date = %v, want cleared", got.DueDate)
	}
}

func TestMoveTrashAndRestore(t *testing.T) {
	c := setupCLI(t, "free")
	a := c.add(t, "Old flyer")
	b := c.add(t, "Spam")

	c.run(t, "move", a.ID, "completed")
	if got := c.show(t, a.ID); got.Status != model.StatusCompleted || got.CompletedDate == nil {
		t.Fatalf("after move: status = %s, completed = %v", got.Status, got.CompletedDate)
	}

	c.run(t, "rm", a.ID)
	c.run(t, "rm", b.ID)
	trash := decodeJSON[[]model.Task](t, c.run(t, "trash", "--json"))
	if len(trash) != 2 {
		t.Fatalf("trash has %d tasks, want 2", len(trash))
	}

	c.run(t, "restore", a.ID)
	if got := c.show(t, a.ID); got.Status != model.StatusInbox || got.CompletedDate != nil {
		t.Errorf("after restore: status = %s, completed = %v", got.Status, got.CompletedDate)
	}
	if _, err := c.runWithInput(t, "", "restore", a.ID); !errors.Is(err, model.ErrInvalidState) {
		t.Errorf("restoring an inbox task: err = %v, want ErrInvalidState", err)
	}

	removed := decodeJSON[map[string]int](t, c.run(t, "trash", "empty", "--json"))
	if removed["removed"] != 1 {
		t.Errorf("removed = %d, want 1", removed["removed"])
	}
	if _, err := c.runWithInput(t, "", "show", b.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("show erased task: err = %v, want ErrNotFound", err)
	}
}

func TestRmPurge(t *testing.T) {
	c := setupCLI(t, "free")
	task := c.add(t, "Junk")

	if _, err := c.runWithInput(t, "", "rm", "--purge", task.ID); !errors.Is(err, model.ErrInvalidState) {
		t.Fatalf("purging an inbox task: err = %v, want ErrInvalidState", err)
	}
	c.run(t, "rm", task.ID)
	c.run(t, "rm", "--purge", task.ID)
	if _, err := c.runWithInput(t, "", "show", task.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestAdvancedSearchNeedsPro(t *testing.T) {
	free := setupCLI(t, "free")
	if _, err := free.runWithInput(t, "", "list", "--priority", "3"); !errors.Is(err, quota.ErrPlanFeature) {
		t.Errorf("free plan: err = %v, want ErrPlanFeature", err)
	}

	pro := setupCLI(t, "pro")
	pro.add(t, "Urgent", "--priority", "3")
	pro.add(t, "Whenever")
	got := decodeJSON[[]model.Task](t, pro.run(t, "list", "--json", "--priority", "3"))
	if len(got) != 1 || got[0].Title != "Urgent" {
		t.Errorf("pro plan priority filter = %+v", got)
	}
}

func TestProjectCommands(t *testing.T) {
	c := setupCLI(t, "free")

	p := decodeJSON[model.Project](t, c.run(t, "project", "add", "--json", "Move house"))
	c.run(t, "project", "breakdown", p.ID, "Book van", "Pack books")

	shown := decodeJSON[struct {
		Project model.Project `json:"project"`
		Tasks   []model.Task  `json:"tasks"`
	}](t, c.run(t, "project", "show", "--json", p.ID))
	if len(shown.Tasks) != 2 || shown.Project.Progress != 0 {
		t.Fatalf("project = %+v with %d tasks", shown.Project, len(shown.Tasks))
	}

	c.run(t, "move", shown.Tasks[0].ID, "completed")
	projects := decodeJSON[[]model.Project](t, c.run(t, "project", "list", "--json"))
	if len(projects) != 1 || projects[0].Progress != 50 {
		t.Errorf("projects = %+v, want one at 50%%", projects)
	}

	carrier := decodeJSON[model.Task](t, c.run(t, "project", "complete", "--json", p.ID))
	if carrier.Status != model.StatusCompleted {
		t.Errorf("carrier status = %s, want completed", carrier.Status)
	}
	if _, err := c.runWithInput(t, "", "project", "show", p.ID); !errors.Is(err, model.ErrNotFound) {
		t.Errorf("completed project still exists: err = %v", err)
	}
	for _, member := range shown.Tasks {
		if got := c.show(t, member.ID); got.Status != model.StatusCompleted || got.ProjectID != "" {
			t.Errorf("member %q: status = %s, project = %q", got.Title, got.Status, got.ProjectID)
		}
	}
}

func TestConvert(t *testing.T) {
	c := setupCLI(t, "free")
	task := c.add(t, "Plan trip")

	out := c.run(t, "convert", task.ID)
	if !strings.Contains(out, `"Plan trip"`) {
		t.Errorf("output = %q", out)
	}
	if got := c.show(t, task.ID); got.Status != model.StatusProject || got.ProjectID == "" {
		t.Errorf("placeholder: status = %s, project = %q", got.Status, got.ProjectID)
	}
}

func TestProcess_NextAction(t *testing.T) {
	c := setupCLI(t, "free")
	task := c.add(t, "Buy milk")

	// keep title, keep description, actionable, one step, not two minutes,
	// 15 minutes, no delegate, no date
	out, err := c.runWithInput(t, "\n\ny\nn\nn\n15\nn\nn\n", "process")
	if err != nil {
		t.Fatalf("process: %v\n%s", err, out)
	}
	if !strings.Contains(out, "→ next") || !strings.Contains(out, "Processed 1 of 1") {
		t.Errorf("output:\n%s", out)
	}

	got := c.show(t, task.ID)
	if got.Status != model.StatusNext || got.TimeEstimate == nil || *got.TimeEstimate != 15 {
		t.Errorf("status = %s, estimate = %v; want next with 15", got.Status, got.TimeEstimate)
	}
}

func TestProcess_EveryInboxTask(t *testing.T) {
	c := setupCLI(t, "free")
	a := c.add(t, "Flyer")
	b := c.add(t, "Idea")
	c.add(t, "Not in inbox", "--status", "next")

	out, err := c.runWithInput(t, "\n\nn\nt\nRenamed idea\n\nn\ns\n", "process")
	if err != nil {
		t.Fatalf("process: %v\n%s", err, out)
	}
	if !strings.Contains(out, "Processed 2 of 2") {
		t.Errorf("output:\n%s", out)
	}
	if got := c.show(t, a.ID); got.Status != model.StatusDeleted {
		t.Errorf("Flyer status = %s, want deleted", got.Status)
	}
	got := c.show(t, b.ID)
	if got.Status != model.StatusSomeday || got.Title != "Renamed idea" {
		t.Errorf("Idea = %q %s, want Renamed idea in someday", got.Title, got.Status)
	}
}

func TestProcess_Quit(t *testing.T) {
	c := setupCLI(t, "free")
	task := c.add(t, "Buy milk")

	out, err := c.runWithInput(t, "Buy oat milk\n\nq\n", "process", task.ID)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if !strings.Contains(out, "Processed 0 of 1") {
		t.Errorf("output:\n%s", out)
	}
	got := c.show(t, task.ID)
	if got.Status != model.StatusInbox || got.Title != "Buy oat milk" {
		t.Errorf("task = %q %s; want the clarified title kept in the inbox", got.Title, got.Status)
	}
}

func TestProcess_RepromptsBadAnswers(t *testing.T) {
	c := setupCLI(t, "free")
	task := c.add(t, "Dentist")

	input := "\n\nmaybe\ny\nn\nn\nsoon\n20\nn\ny\nnext week\n2026-11-03\n"
	out, err := c.runWithInput(t, input, "process", task.ID)
	if err != nil {
		t.Fatalf("process: %v\n%s", err, out)
	}
	for _, want := range []string{"Please answer y or n", "whole number of minutes", "invalid date"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	got := c.show(t, task.ID)
	if got.Status != model.StatusScheduled || got.EffectiveDate() == nil {
		t.Fatalf("status = %s, date = %v", got.Status, got.EffectiveDate())
	}
	if d := got.EffectiveDate().Format(model.DateLayout); d != "2026-11-03" {
		t.Errorf("date = %s, want 2026-11-03", d)
	}
}

func TestProcess_NotInbox(t *testing.T) {
	c := setupCLI(t, "free")
	task := c.add(t, "Call Bob", "--status", "next")

	if _, err := c.runWithInput(t, "", "process", task.ID); !errors.Is(err, model.ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}

func TestPrompter_Decide(t *testing.T) {
	tests := []struct {
		name  string
		step  triage.Step
		input string
		want  triage.Decision
	}{
		{"trash", triage.StepActionRequired, "no\nt\n", triage.ActionRequired{Else: triage.DispositionTrash}},
		{"multi-step", triage.StepMultiStep, "YES\n", triage.MultiStep{Yes: true}},
		{"two minutes", triage.StepTwoMinute, "y\n", triage.TwoMinute{Yes: true}},
		{"blank estimate", triage.StepTwoMinute, "n\n\n", triage.TwoMinute{}},
		{"delegate", triage.StepDelegate, "y\nSam\n", triage.Delegate{Yes: true, Person: "Sam"}},
		{"no date", triage.StepSchedule, "n\n", triage.Schedule{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := &prompter{in: bufio.NewScanner(strings.NewReader(tt.input)), out: &out}
			got, err := p.decide(tt.step, &model.Task{Title: "x"})
			if err != nil {
				t.Fatalf("decide failed: %v", err)
			}
			if got != tt.want {
				t.Errorf("decision = %#v, want %#v", got, tt.want)
			}
		})
	}
}

func TestPrompter_EOFQuits(t *testing.T) {
	p := &prompter{in: bufio.NewScanner(strings.NewReader("")), out: &bytes.Buffer{}}
	if _, err := p.decide(triage.StepMultiStep, &model.Task{Title: "x"}); !errors.Is(err, errQuit) {
		t.Errorf("err = %v, want errQuit", err)
	}
}

func TestExport(t *testing.T) {
	free := setupCLI(t, "free")
	if _, err := free.runWithInput(t, "", "export"); !errors.Is(err, quota.ErrPlanFeature) {
		t.Errorf("free plan: err = %v, want ErrPlanFeature", err)
	}

	pro := setupCLI(t, "pro")
	pro.add(t, "Buy milk")
	path := filepath.Join(pro.dir, "out", "focus.yaml")
	pro.run(t, "export", "-o", path)

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	for _, want := range []string{"owner: alice", "plan: pro", "title: Buy milk"} {
		if !strings.Contains(string(data), want) {
			t.Errorf("export missing %q:\n%s", want, data)
		}
	}

	if out := pro.run(t, "export"); !strings.Contains(out, "title: Buy milk") {
		t.Errorf("stdout export:\n%s", out)
	}
}

func TestSummaryAndUsage(t *testing.T) {
	c := setupCLI(t, "free")
	c.add(t, "One")
	done := c.add(t, "Two")
	c.run(t, "move", done.ID, "completed")

	s := decodeJSON[model.Summary](t, c.run(t, "summary", "--json"))
	if s.Counts[model.StatusInbox] != 1 || s.Counts[model.StatusCompleted] != 1 {
		t.Errorf("counts = %v", s.Counts)
	}
	if len(s.RecentDone) != 1 || s.RecentDone[0].Title != "Two" {
		t.Errorf("recent = %+v", s.RecentDone)
	}
	if out := c.run(t, "summary"); !strings.Contains(out, "Recently completed") {
		t.Errorf("summary table:\n%s", out)
	}

	report := decodeJSON[quota.Report](t, c.run(t, "usage", "--json"))
	if report.Plan.Name != "free" || report.Usage.Tasks != 2 {
		t.Errorf("report = %+v, want free plan with 2 tasks", report)
	}
	if out := c.run(t, "usage"); !strings.Contains(out, "2 / 50") {
		t.Errorf("usage table:\n%s", out)
	}
}

func TestPromote(t *testing.T) {
	c := setupCLI(t, "free")
	task := c.add(t, "Today")
	c.run(t, "move", task.ID, "scheduled")

	got := decodeJSON[map[string]int](t, c.run(t, "promote", "--json"))
	if got["promoted"] != 1 {
		t.Errorf("promoted = %d, want 1", got["promoted"])
	}
	if s := c.show(t, task.ID).Status; s != model.StatusNext {
		t.Errorf("status = %s, want next", s)
	}
}

func TestBadConfig(t *testing.T) {
	c := setupCLI(t, "platinum")
	if _, err := c.runWithInput(t, "", "list"); err == nil {
		t.Error("expected an error for an unknown plan")
	}
}
