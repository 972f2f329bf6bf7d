package web

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/baiirun/focusflow/internal/model"
	"github.com/baiirun/focusflow/internal/triage"
)

type createTaskRequest struct {
	Title         string `json:"title"`
	Description   string `json:"description"`
	Status        string `json:"status"`
	DueDate       string `json:"dueDate"`
	ScheduledDate string `json:"scheduledDate"`
	AssignedTo    string `json:"assignedTo"`
	ProjectID     string `json:"projectId"`
	TimeEstimate  *int   `json:"timeEstimate"`
	Priority      *int   `json:"priority"`
	EnergyLevel   string `json:"energyLevel"`
	Context       string `json:"context"`
}

func (r createTaskRequest) task() (model.Task, error) {
	t := model.Task{
		Title:        r.Title,
		Description:  r.Description,
		AssignedTo:   r.AssignedTo,
		ProjectID:    r.ProjectID,
		TimeEstimate: r.TimeEstimate,
		Priority:     r.Priority,
		EnergyLevel:  r.EnergyLevel,
		Context:      r.Context,
	}
	if r.Status != "" {
		s, ok := model.ParseStatus(r.Status)
		if !ok {
			return t, fmt.Errorf("%w: invalid status: %s", model.ErrInvalid, r.Status)
		}
		t.Status = s
	}
	var err error
	if t.DueDate, err = optionalDate(r.DueDate); err != nil {
		return t, err
	}
	if t.ScheduledDate, err = optionalDate(r.ScheduledDate); err != nil {
		return t, err
	}
	return t, nil
}

// updateTaskRequest is a partial update. An empty string for a date or the
// project clears it.
type updateTaskRequest struct {
	Title         *string `json:"title"`
	Description   *string `json:"description"`
	Status        *string `json:"status"`
	DueDate       *string `json:"dueDate"`
	ScheduledDate *string `json:"scheduledDate"`
	AssignedTo    *string `json:"assignedTo"`
	ProjectID     *string `json:"projectId"`
	TimeEstimate  *int    `json:"timeEstimate"`
	Priority      *int    `json:"priority"`
	EnergyLevel   *string `json:"energyLevel"`
	Context       *string `json:"context"`
}

func (r updateTaskRequest) update() (model.TaskUpdate, error) {
	u := model.TaskUpdate{
		Title:        r.Title,
		Description:  r.Description,
		AssignedTo:   r.AssignedTo,
		TimeEstimate: r.TimeEstimate,
		Priority:     r.Priority,
		EnergyLevel:  r.EnergyLevel,
		Context:      r.Context,
	}
	if r.Status != nil {
		s, ok := model.ParseStatus(*r.Status)
		if !ok {
			return u, fmt.Errorf("%w: invalid status: %s", model.ErrInvalid, *r.Status)
		}
		u.Status = &s
	}
	if r.DueDate != nil {
		d, err := optionalDate(*r.DueDate)
		if err != nil {
			return u, err
		}
		u.DueDate, u.ClearDueDate = d, d == nil
	}
	if r.ScheduledDate != nil {
		d, err := optionalDate(*r.ScheduledDate)
		if err != nil {
			return u, err
		}
		u.ScheduledDate, u.ClearScheduledDate = d, d == nil
	}
	if r.ProjectID != nil {
		if *r.ProjectID == "" {
			u.ClearProject = true
		} else {
			u.ProjectID = r.ProjectID
		}
	}
	return u, nil
}

func optionalDate(s string) (*time.Time, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	d, err := model.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}

type moveRequest struct {
	Status string `json:"status" binding:"required"`
}

type projectRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
}

type breakdownRequest struct {
	Titles []string `json:"titles"`
}

type startRequest struct {
	TaskID string `json:"taskId" binding:"required"`
}

// stepRequest carries the answer to one triage step. Which fields matter
// depends on Step:
//
//	1 title, description (optional edits)
//	2 yes (actionable) or else: reference|someday|trash
//	3 yes (becomes a project)
//	4 yes (done now) or timeEstimate
//	5 yes with person
//	6 yes with date, or no for a next action
type stepRequest struct {
	Step         int     `json:"step"`
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	Yes          bool    `json:"yes"`
	Else         string  `json:"else"`
	TimeEstimate int     `json:"timeEstimate"`
	Person       string  `json:"person"`
	Date         string  `json:"date"`
}

func (r stepRequest) decision() (triage.Decision, error) {
	switch triage.Step(r.Step) {
	case triage.StepClarify:
		return triage.Clarify{Title: r.Title, Description: r.Description}, nil
	case triage.StepActionRequired:
		return triage.ActionRequired{Actionable: r.Yes, Else: triage.Disposition(r.Else)}, nil
	case triage.StepMultiStep:
		return triage.MultiStep{Yes: r.Yes}, nil
	case triage.StepTwoMinute:
		return triage.TwoMinute{Yes: r.Yes, TimeEstimate: r.TimeEstimate}, nil
	case triage.StepDelegate:
		return triage.Delegate{Yes: r.Yes, Person: r.Person}, nil
	case triage.StepSchedule:
		d := triage.Schedule{Yes: r.Yes}
		if r.Yes {
			date, err := model.ParseDate(r.Date)
			if err != nil {
				return nil, err
			}
			d.Date = date
		}
		return d, nil
	default:
		return nil, fmt.Errorf("%w: unknown step %d", model.ErrInvalid, r.Step)
	}
}

// filterFromQuery builds a TaskFilter from query parameters:
// status (repeatable), project, q, priority, assignee, deadline, from, to.
func filterFromQuery(c *gin.Context) (model.TaskFilter, error) {
	var f model.TaskFilter
	for _, raw := range c.QueryArray("status") {
		for _, part := range strings.Split(raw, ",") {
			s, ok := model.ParseStatus(part)
			if !ok {
				return f, fmt.Errorf("%w: invalid status: %s", model.ErrInvalid, part)
			}
			f.Statuses = append(f.Statuses, s)
		}
	}
	f.ProjectID = c.Query("project")
	f.Text = c.Query("q")
	f.AssignedTo = c.Query("assignee")

	if v := c.Query("priority"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return f, fmt.Errorf("%w: invalid priority: %s", model.ErrInvalid, v)
		}
		f.Priority = &p
	}
	if v := c.Query("deadline"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return f, fmt.Errorf("%w: invalid deadline flag: %s", model.ErrInvalid, v)
		}
		f.HasDeadline = &b
	}
	var err error
	if f.CreatedFrom, err = optionalDate(c.Query("from")); err != nil {
		return f, err
	}
	if v := strings.TrimSpace(c.Query("to")); v != "" {
		end, err := model.ParseDateEnd(v)
		if err != nil {
			return f, err
		}
		f.CreatedTo = &end
	}
	return f, nil
}
