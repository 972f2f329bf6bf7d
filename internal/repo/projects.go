package repo

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/baiirun/focusflow/internal/model"
)

// carrierPrefix marks a task that stands in for a finished or trashed project.
const carrierPrefix = "[Project] "

// AddProject creates an empty project after the Capability Gate allows it.
// Membership is established from the task side (task.projectId), so any
// draft.Tasks are ignored.
func (r *Repository) AddProject(ctx context.Context, draft model.Project) (*model.Project, error) {
	p := model.Project{
		Title:       strings.TrimSpace(draft.Title),
		Description: draft.Description,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if err := r.checkCapacity(ctx, model.ResourceProject); err != nil {
		return nil, err
	}

	p.ID = model.NewID()
	p.Owner = r.owner
	p.Created = r.now()
	p.Tasks = []string{}
	if err := r.store.CreateProject(ctx, &p); err != nil {
		return nil, storeErr("create project", err)
	}
	r.countUsage(ctx, model.ResourceProject)
	return &p, nil
}

// GetProject returns a project with Tasks and Progress derived from the tasks
// that reference it.
func (r *Repository) GetProject(ctx context.Context, id string) (*model.Project, error) {
	p, err := r.store.GetProject(ctx, r.owner, id)
	if err != nil {
		return nil, storeErr("load project", err)
	}
	members, err := r.ProjectTasks(ctx, id)
	if err != nil {
		return nil, err
	}
	p.ApplyMembers(members)
	return p, nil
}

// ListProjects returns every project with derived membership and progress.
func (r *Repository) ListProjects(ctx context.Context) ([]model.Project, error) {
	projects, err := r.store.ListProjects(ctx, r.owner)
	if err != nil {
		return nil, storeErr("list projects", err)
	}
	if len(projects) == 0 {
		return projects, nil
	}

	tasks, err := r.SearchTasks(ctx, model.TaskFilter{})
	if err != nil {
		return nil, err
	}
	for i := range projects {
		projects[i].ApplyMembers(tasks)
	}
	return projects, nil
}

// ProjectTasks lists the tasks whose projectId points at the project.
func (r *Repository) ProjectTasks(ctx context.Context, projectID string) ([]model.Task, error) {
	return r.SearchTasks(ctx, model.TaskFilter{ProjectID: projectID})
}

// UpdateProject edits a project's title or description. The stored progress
// is refreshed from the current members at the same time.
func (r *Repository) UpdateProject(ctx context.Context, id string, u model.ProjectUpdate) (*model.Project, error) {
	p, err := r.GetProject(ctx, id)
	if err != nil {
		return nil, err
	}
	if u.Title != nil {
		p.Title = strings.TrimSpace(*u.Title)
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	now := r.now()
	p.Updated = &now
	if err := r.store.SaveProject(ctx, p); err != nil {
		return nil, storeErr("save project", err)
	}
	return p, nil
}

// ConvertToProject turns a task into a project: a new project copies the
// task's title and description, and the task becomes its placeholder
// (status project, isMultiStep, projectId set). The Capability Gate is asked
// before anything is written. If the task cannot be updated the new project
// is removed again.
func (r *Repository) ConvertToProject(ctx context.Context, taskID string) (*model.Project, *model.Task, error) {
	task, err := r.GetTask(ctx, taskID)
	if err != nil {
		return nil, nil, err
	}
	if task.Status == model.StatusProject {
		return nil, nil, model.InvalidStatef("task %s is already a project", task.ID)
	}
	if err := r.checkCapacity(ctx, model.ResourceProject); err != nil {
		return nil, nil, err
	}

	p := model.Project{
		ID:          model.NewID(),
		Owner:       r.owner,
		Title:       task.Title,
		Description: task.Description,
		Created:     r.now(),
	}
	if err := r.store.CreateProject(ctx, &p); err != nil {
		return nil, nil, storeErr("create project", err)
	}

	updated, err := r.mutate(ctx, task.ID, func(t *model.Task, now time.Time) error {
		t.ProjectID = p.ID
		t.IsMultiStep = true
		setStatus(t, model.StatusProject, now)
		return nil
	})
	if err != nil {
		if derr := r.store.DeleteProject(ctx, r.owner, p.ID); derr != nil {
			log.Printf("repo: failed to remove project %s after conversion error: %v", p.ID, derr)
		}
		return nil, nil, err
	}

	r.countUsage(ctx, model.ResourceProject)
	p.ApplyMembers([]model.Task{*updated})
	return &p, updated, nil
}

// BreakdownProject adds one next action per non-blank title to the project.
// Each task passes the Capability Gate; on the first failure the tasks
// created so far are returned with the error.
func (r *Repository) BreakdownProject(ctx context.Context, projectID string, titles []string) ([]model.Task, error) {
	if _, err := r.store.GetProject(ctx, r.owner, projectID); err != nil {
		return nil, storeErr("load project", err)
	}

	var created []model.Task
	for _, title := range titles {
		if strings.TrimSpace(title) == "" {
			continue
		}
		t, err := r.AddTask(ctx, model.Task{
			Title:     title,
			Status:    model.StatusNext,
			ProjectID: projectID,
		})
		if err != nil {
			return created, fmt.Errorf("failed to add %q: %w", title, err)
		}
		created = append(created, *t)
	}
	return created, nil
}

// MoveProjectToInbox dissolves a project: its members return to the inbox
// and a task carrying the project's title is left in the inbox.
func (r *Repository) MoveProjectToInbox(ctx context.Context, id string) (*model.Task, error) {
	return r.dissolveProject(ctx, id, model.StatusInbox)
}

// CompleteProject completes every member and records the project as a
// completed task.
func (r *Repository) CompleteProject(ctx context.Context, id string) (*model.Task, error) {
	return r.dissolveProject(ctx, id, model.StatusCompleted)
}

// DeleteProject moves every member and the project itself to the trash.
func (r *Repository) DeleteProject(ctx context.Context, id string) (*model.Task, error) {
	return r.dissolveProject(ctx, id, model.StatusDeleted)
}

// dissolveProject is the shared cascade behind the three project lifecycle
// operations. Steps run in order and stop at the first failure:
//
//  1. members move to dest with projectId cleared, in one atomic store call;
//  2. the placeholder task becomes the carrier task, or a carrier is created,
//     and the project record is deleted, together in one atomic store call.
//
// The project record goes last so a failure never leaves tasks pointing at
// a missing project. A failure in step 2 leaves the placeholder in place, so
// a retry produces exactly one carrier.
func (r *Repository) dissolveProject(ctx context.Context, id string, dest model.Status) (*model.Task, error) {
	p, err := r.store.GetProject(ctx, r.owner, id)
	if err != nil {
		return nil, storeErr("load project", err)
	}
	members, err := r.ProjectTasks(ctx, id)
	if err != nil {
		return nil, err
	}

	now := r.now()
	var placeholder *model.Task
	moved := make([]model.Task, 0, len(members))
	for _, t := range members {
		c := t.Clone()
		if c.Status == model.StatusProject && placeholder == nil {
			placeholder = &c
			continue
		}
		c.ProjectID = ""
		if !(dest == model.StatusCompleted && c.Status == model.StatusCompleted) {
			setStatus(&c, dest, now)
		}
		c.Updated = &now
		moved = append(moved, c)
	}

	if len(moved) > 0 {
		if err := r.store.SaveTasks(ctx, moved); err != nil {
			return nil, storeErr("move project tasks", err)
		}
	}

	title := p.Title
	if dest != model.StatusInbox {
		title = carrierPrefix + p.Title
	}

	var carrier model.Task
	if placeholder != nil {
		carrier = *placeholder
		carrier.Title = title
		carrier.Description = p.Description
		carrier.ProjectID = ""
		setStatus(&carrier, dest, now)
		carrier.Updated = &now
	} else {
		carrier = model.Task{
			ID:          model.NewID(),
			Owner:       r.owner,
			Title:       title,
			Description: p.Description,
			Status:      dest,
			Created:     now,
			IsMultiStep: true,
		}
		normalize(&carrier, now)
	}

	if err := r.store.FinishProject(ctx, r.owner, id, &carrier); err != nil {
		return nil, storeErr("finish project", err)
	}
	return &carrier, nil
}
