package repo

import (
	"context"
	"strings"
	"time"

	"github.com/baiirun/focusflow/internal/model"
)

// AddTask captures a new task. The draft's ID, owner and created time are
// assigned here; an empty status means inbox. The Capability Gate is asked
// first and nothing is written if it refuses.
func (r *Repository) AddTask(ctx context.Context, draft model.Task) (*model.Task, error) {
	t := draft.Clone()
	t.Title = strings.TrimSpace(t.Title)
	if t.Status == "" {
		t.Status = model.StatusInbox
	}
	if t.Status == model.StatusProject {
		return nil, model.InvalidStatef("tasks enter the project status only through conversion")
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	if err := r.checkCapacity(ctx, model.ResourceTask); err != nil {
		return nil, err
	}
	if t.ProjectID != "" {
		if _, err := r.store.GetProject(ctx, r.owner, t.ProjectID); err != nil {
			return nil, storeErr("load project", err)
		}
	}

	now := r.now()
	t.ID = model.NewID()
	t.Owner = r.owner
	t.Created = now
	t.Updated = nil
	normalize(&t, now)

	if err := r.store.CreateTask(ctx, &t); err != nil {
		return nil, storeErr("create task", err)
	}
	r.countUsage(ctx, model.ResourceTask)
	return &t, nil
}

// GetTask returns a task by ID.
func (r *Repository) GetTask(ctx context.Context, id string) (*model.Task, error) {
	t, err := r.store.GetTask(ctx, r.owner, id)
	if err != nil {
		return nil, storeErr("load task", err)
	}
	return t, nil
}

// UpdateTask applies a partial update. A status change follows the same rules
// as MoveTaskToStatus except that no scheduled date is defaulted.
func (r *Repository) UpdateTask(ctx context.Context, id string, u model.TaskUpdate) (*model.Task, error) {
	if u.Status != nil && *u.Status == model.StatusProject {
		return nil, model.InvalidStatef("tasks enter the project status only through conversion")
	}
	if u.ProjectID != nil && *u.ProjectID != "" {
		if _, err := r.store.GetProject(ctx, r.owner, *u.ProjectID); err != nil {
			return nil, storeErr("load project", err)
		}
	}
	return r.mutate(ctx, id, func(t *model.Task, now time.Time) error {
		if t.Status == model.StatusProject &&
			(u.ClearProject || (u.ProjectID != nil && *u.ProjectID != t.ProjectID)) {
			return model.InvalidStatef("task %s stands for its project; dissolve the project instead", t.ID)
		}
		applyUpdate(t, u, now)
		return t.Validate()
	})
}

func applyUpdate(t *model.Task, u model.TaskUpdate, now time.Time) {
	if u.Title != nil {
		t.Title = strings.TrimSpace(*u.Title)
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.DueDate != nil {
		t.DueDate = model.Ptr(*u.DueDate)
	}
	if u.ClearDueDate {
		t.DueDate = nil
	}
	if u.ScheduledDate != nil {
		t.ScheduledDate = model.Ptr(*u.ScheduledDate)
	}
	if u.ClearScheduledDate {
		t.ScheduledDate = nil
	}
	if u.AssignedTo != nil {
		t.AssignedTo = *u.AssignedTo
	}
	if u.ProjectID != nil {
		t.ProjectID = *u.ProjectID
	}
	if u.ClearProject {
		t.ProjectID = ""
	}
	if u.TimeEstimate != nil {
		t.TimeEstimate = model.Ptr(*u.TimeEstimate)
	}
	if u.Priority != nil {
		t.Priority = model.Ptr(*u.Priority)
	}
	if u.EnergyLevel != nil {
		t.EnergyLevel = *u.EnergyLevel
	}
	if u.Context != nil {
		t.Context = *u.Context
	}
	if u.IsMultiStep != nil {
		t.IsMultiStep = *u.IsMultiStep
	}
	if u.Status != nil {
		setStatus(t, *u.Status, now)
	}
}

// MoveTaskToStatus is the lateral move used by list views. Moving to
// scheduled without a scheduled date schedules the task for today.
func (r *Repository) MoveTaskToStatus(ctx context.Context, id string, status model.Status) (*model.Task, error) {
	if !status.IsValid() {
		return nil, model.InvalidStatef("unknown status %q", status)
	}
	if status == model.StatusProject {
		return nil, model.InvalidStatef("tasks enter the project status only through conversion")
	}
	return r.mutate(ctx, id, func(t *model.Task, now time.Time) error {
		if status == model.StatusScheduled && t.ScheduledDate == nil {
			t.ScheduledDate = model.Ptr(model.StartOfDay(now))
		}
		setStatus(t, status, now)
		return nil
	})
}

// RestoreTask moves a deleted task back to the inbox. Tasks that are not in
// the trash are rejected.
func (r *Repository) RestoreTask(ctx context.Context, id string) (*model.Task, error) {
	return r.mutate(ctx, id, func(t *model.Task, now time.Time) error {
		if t.Status != model.StatusDeleted {
			return model.InvalidStatef("task %s is %s, only deleted tasks can be restored", t.ID, t.Status)
		}
		setStatus(t, model.StatusInbox, now)
		return nil
	})
}

// PermanentlyDeleteTask erases a single task from the trash.
func (r *Repository) PermanentlyDeleteTask(ctx context.Context, id string) error {
	t, err := r.GetTask(ctx, id)
	if err != nil {
		return err
	}
	if t.Status != model.StatusDeleted {
		return model.InvalidStatef("task %s is %s, move it to the trash first", t.ID, t.Status)
	}
	if err := r.store.DeleteTasks(ctx, r.owner, []string{id}); err != nil {
		return storeErr("delete task", err)
	}
	return nil
}

// PermanentlyDeleteAllTasks erases every deleted task in one atomic store
// call and returns how many were removed.
func (r *Repository) PermanentlyDeleteAllTasks(ctx context.Context) (int, error) {
	trash, err := r.TasksByStatus(ctx, model.StatusDeleted)
	if err != nil {
		return 0, err
	}
	if len(trash) == 0 {
		return 0, nil
	}

	ids := make([]string, len(trash))
	for i, t := range trash {
		ids[i] = t.ID
	}
	if err := r.store.DeleteTasks(ctx, r.owner, ids); err != nil {
		return 0, storeErr("delete tasks", err)
	}
	return len(ids), nil
}

// RestoreAllTasks moves every deleted task back to the inbox in one atomic
// store call and returns how many were restored.
func (r *Repository) RestoreAllTasks(ctx context.Context) (int, error) {
	trash, err := r.TasksByStatus(ctx, model.StatusDeleted)
	if err != nil {
		return 0, err
	}
	if len(trash) == 0 {
		return 0, nil
	}

	now := r.now()
	restored := make([]model.Task, len(trash))
	for i, t := range trash {
		c := t.Clone()
		setStatus(&c, model.StatusInbox, now)
		c.Updated = &now
		restored[i] = c
	}
	if err := r.store.SaveTasks(ctx, restored); err != nil {
		return 0, storeErr("restore tasks", err)
	}
	return len(restored), nil
}

// TasksByStatus lists the tasks in one status bucket.
func (r *Repository) TasksByStatus(ctx context.Context, status model.Status) ([]model.Task, error) {
	return r.SearchTasks(ctx, model.TaskFilter{Statuses: []model.Status{status}})
}

// AllTasks lists every task except project placeholders, which are
// represented by their Project once conversion completes.
func (r *Repository) AllTasks(ctx context.Context) ([]model.Task, error) {
	return r.SearchTasks(ctx, model.TaskFilter{Statuses: model.ListedStatuses()})
}

// SearchTasks lists tasks matching a filter.
func (r *Repository) SearchTasks(ctx context.Context, f model.TaskFilter) ([]model.Task, error) {
	tasks, err := r.store.ListTasks(ctx, r.owner, f)
	if err != nil {
		return nil, storeErr("list tasks", err)
	}
	return tasks, nil
}

// PromoteScheduled moves scheduled tasks whose date is today to next actions
// and returns how many moved. It is safe to run alongside user mutations;
// the last write wins.
func (r *Repository) PromoteScheduled(ctx context.Context) (int, error) {
	scheduled, err := r.TasksByStatus(ctx, model.StatusScheduled)
	if err != nil {
		return 0, err
	}

	now := r.now()
	var due []model.Task
	for _, t := range scheduled {
		date := t.EffectiveDate()
		if date == nil || !model.SameDay(now, *date) {
			continue
		}
		c := t.Clone()
		setStatus(&c, model.StatusNext, now)
		c.Updated = &now
		due = append(due, c)
	}
	if len(due) == 0 {
		return 0, nil
	}
	if err := r.store.SaveTasks(ctx, due); err != nil {
		return 0, storeErr("promote scheduled tasks", err)
	}
	return len(due), nil
}

// recentDoneLimit is how many completed tasks Summary reports.
const recentDoneLimit = 3

// Summary reports bucket counts, open projects and the last few completions.
func (r *Repository) Summary(ctx context.Context) (*model.Summary, error) {
	counts, err := r.store.CountTasksByStatus(ctx, r.owner)
	if err != nil {
		return nil, storeErr("count tasks", err)
	}
	for _, s := range model.Statuses {
		if _, ok := counts[s]; !ok {
			counts[s] = 0
		}
	}

	projects, err := r.store.ListProjects(ctx, r.owner)
	if err != nil {
		return nil, storeErr("list projects", err)
	}
	recent, err := r.store.RecentlyCompleted(ctx, r.owner, recentDoneLimit)
	if err != nil {
		return nil, storeErr("list completed tasks", err)
	}
	return &model.Summary{Counts: counts, Projects: len(projects), RecentDone: recent}, nil
}
