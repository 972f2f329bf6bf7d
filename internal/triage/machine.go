// Package triage implements the six-step inbox processing state machine.
//
// A Session is a plain value {TaskID, Step}. Advance consumes one Decision
// and returns the next Session, or finishes after exactly one terminal
// Repository call. Wizard owns the single active session for a user.
package triage

import (
	"context"
	"fmt"

	"github.com/baiirun/focusflow/internal/model"
)

// Tasks is the slice of the Repository the state machine calls into.
type Tasks interface {
	GetTask(ctx context.Context, id string) (*model.Task, error)
	UpdateTask(ctx context.Context, id string, u model.TaskUpdate) (*model.Task, error)
	MoveTaskToStatus(ctx context.Context, id string, status model.Status) (*model.Task, error)
	ConvertToProject(ctx context.Context, taskID string) (*model.Project, *model.Task, error)
}

// Session is the state of one processing run.
type Session struct {
	TaskID string `json:"taskId"`
	Step   Step   `json:"step"`
}

// Outcome is the result of one Advance.
type Outcome struct {
	Next    Session        // valid when !Done
	Done    bool           // a terminal transition was applied
	Task    *model.Task    // persisted task state after this step, if it was written
	Project *model.Project // set when the task became a project
}

// TwoMinuteEstimate is the time recorded for tasks done on the spot.
const TwoMinuteEstimate = 2

// Begin returns the initial session for a task.
func Begin(taskID string) Session {
	return Session{TaskID: taskID, Step: StepClarify}
}

// Advance applies decision d to session s. On error nothing beyond what the
// error describes was persisted and s is still the current session.
func Advance(ctx context.Context, tasks Tasks, s Session, d Decision) (Outcome, error) {
	if !s.Step.IsValid() {
		return Outcome{}, model.InvalidStatef("session is at unknown step %d", int(s.Step))
	}
	if d == nil {
		return Outcome{}, model.InvalidStatef("no decision given for step %d", int(s.Step))
	}
	if d.Step() != s.Step {
		return Outcome{}, model.InvalidStatef("session is at step %d (%s), got a step %d decision",
			int(s.Step), s.Step, int(d.Step()))
	}

	switch d := d.(type) {
	case Clarify:
		return clarify(ctx, tasks, s, d)

	case ActionRequired:
		if d.Actionable {
			return next(s, StepMultiStep, nil), nil
		}
		status, err := d.Else.status()
		if err != nil {
			return Outcome{}, err
		}
		return finish(tasks.MoveTaskToStatus(ctx, s.TaskID, status))

	case MultiStep:
		if !d.Yes {
			return next(s, StepTwoMinute, nil), nil
		}
		p, t, err := tasks.ConvertToProject(ctx, s.TaskID)
		if err != nil {
			return Outcome{}, err
		}
		return Outcome{Done: true, Task: t, Project: p}, nil

	case TwoMinute:
		if d.Yes {
			return finish(tasks.UpdateTask(ctx, s.TaskID, model.TaskUpdate{
				Status:       model.Ptr(model.StatusCompleted),
				TimeEstimate: model.Ptr(TwoMinuteEstimate),
			}))
		}
		if d.TimeEstimate < 0 {
			return Outcome{}, fmt.Errorf("%w: time estimate must not be negative", model.ErrInvalid)
		}
		t, err := tasks.UpdateTask(ctx, s.TaskID, model.TaskUpdate{TimeEstimate: model.Ptr(d.TimeEstimate)})
		if err != nil {
			return Outcome{}, err
		}
		return next(s, StepDelegate, t), nil

	case Delegate:
		if !d.Yes {
			return next(s, StepSchedule, nil), nil
		}
		return finish(tasks.UpdateTask(ctx, s.TaskID, model.TaskUpdate{
			Status:     model.Ptr(model.StatusWaiting),
			AssignedTo: model.Ptr(d.Person),
		}))

	case Schedule:
		if !d.Yes {
			return finish(tasks.MoveTaskToStatus(ctx, s.TaskID, model.StatusNext))
		}
		if d.Date.IsZero() {
			return Outcome{}, fmt.Errorf("%w: a scheduled task needs a date", model.ErrInvalid)
		}
		// A stale scheduled date would shadow the chosen one.
		return finish(tasks.UpdateTask(ctx, s.TaskID, model.TaskUpdate{
			Status:             model.Ptr(model.StatusScheduled),
			DueDate:            model.Ptr(d.Date),
			ClearScheduledDate: true,
		}))
	}

	return Outcome{}, model.InvalidStatef("unsupported decision %T", d)
}

func clarify(ctx context.Context, tasks Tasks, s Session, d Clarify) (Outcome, error) {
	if d.Title == nil && d.Description == nil {
		return next(s, StepActionRequired, nil), nil
	}
	t, err := tasks.UpdateTask(ctx, s.TaskID, model.TaskUpdate{Title: d.Title, Description: d.Description})
	if err != nil {
		return Outcome{}, err
	}
	return next(s, StepActionRequired, t), nil
}

func next(s Session, step Step, t *model.Task) Outcome {
	return Outcome{Next: Session{TaskID: s.TaskID, Step: step}, Task: t}
}

func finish(t *model.Task, err error) (Outcome, error) {
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{Done: true, Task: t}, nil
}

func (d Disposition) status() (model.Status, error) {
	switch d {
	case DispositionReference:
		return model.StatusReference, nil
	case DispositionSomeday:
		return model.StatusSomeday, nil
	case DispositionTrash:
		return model.StatusDeleted, nil
	default:
		return "", fmt.Errorf("%w: unknown disposition %q (expected reference, someday or trash)", model.ErrInvalid, d)
	}
}
