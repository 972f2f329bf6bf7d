package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusInbox     Status = "inbox"
	StatusNext      Status = "next"
	StatusWaiting   Status = "waiting"
	StatusScheduled Status = "scheduled"
	StatusProject   Status = "project"
	StatusSomeday   Status = "someday"
	StatusCompleted Status = "completed"
	StatusDeleted   Status = "deleted"
	StatusReference Status = "reference"
)

// Statuses lists every status in display order.
var Statuses = []Status{
	StatusInbox,
	StatusNext,
	StatusWaiting,
	StatusScheduled,
	StatusProject,
	StatusSomeday,
	StatusReference,
	StatusCompleted,
	StatusDeleted,
}

// ListedStatuses is every status except project. Tasks in the project status
// are placeholders represented by their Project.
func ListedStatuses() []Status {
	out := make([]Status, 0, len(Statuses)-1)
	for _, s := range Statuses {
		if s != StatusProject {
			out = append(out, s)
		}
	}
	return out
}

func (s Status) IsValid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// ParseStatus accepts a status name case-insensitively.
func ParseStatus(s string) (Status, bool) {
	st := Status(strings.ToLower(strings.TrimSpace(s)))
	return st, st.IsValid()
}

const (
	PriorityNone     = 0
	PriorityCritical = 5
)

type Task struct {
	ID            string     `json:"id" yaml:"id"`
	Owner         string     `json:"owner" yaml:"owner"`
	Title         string     `json:"title" yaml:"title"`
	Description   string     `json:"description,omitempty" yaml:"description,omitempty"`
	Status        Status     `json:"status" yaml:"status"`
	Created       time.Time  `json:"created" yaml:"created"`
	Updated       *time.Time `json:"updated,omitempty" yaml:"updated,omitempty"`
	DueDate       *time.Time `json:"dueDate,omitempty" yaml:"due_date,omitempty"`
	ScheduledDate *time.Time `json:"scheduledDate,omitempty" yaml:"scheduled_date,omitempty"`
	CompletedDate *time.Time `json:"completedDate,omitempty" yaml:"completed_date,omitempty"`
	DeletedAt     *time.Time `json:"deletedAt,omitempty" yaml:"deleted_at,omitempty"`
	AssignedTo    string     `json:"assignedTo,omitempty" yaml:"assigned_to,omitempty"`
	ProjectID     string     `json:"projectId,omitempty" yaml:"project_id,omitempty"`
	TimeEstimate  *int       `json:"timeEstimate,omitempty" yaml:"time_estimate,omitempty"`
	Priority      *int       `json:"priority,omitempty" yaml:"priority,omitempty"`
	EnergyLevel   string     `json:"energyLevel,omitempty" yaml:"energy_level,omitempty"`
	Context       string     `json:"context,omitempty" yaml:"context,omitempty"`
	IsMultiStep   bool       `json:"isMultiStep,omitempty" yaml:"is_multi_step,omitempty"`
}

// EffectiveDate is the day a task is meant to be done on: the scheduled date,
// or the legacy due date when no scheduled date is set.
func (t *Task) EffectiveDate() *time.Time {
	if t.ScheduledDate != nil {
		return t.ScheduledDate
	}
	return t.DueDate
}

// Validate checks field-level constraints that hold for every stored task.
func (t *Task) Validate() error {
	if strings.TrimSpace(t.Title) == "" {
		return invalidf("task title must not be empty")
	}
	if !t.Status.IsValid() {
		return invalidf("invalid status: %s", t.Status)
	}
	if t.Priority != nil && (*t.Priority < PriorityNone || *t.Priority > PriorityCritical) {
		return invalidf("priority must be between %d and %d, got %d", PriorityNone, PriorityCritical, *t.Priority)
	}
	if t.TimeEstimate != nil && *t.TimeEstimate < 0 {
		return invalidf("time estimate must not be negative, got %d", *t.TimeEstimate)
	}
	return nil
}

// NewID returns a fresh opaque identifier for a task or project.
func NewID() string {
	return uuid.NewString()
}

// TaskUpdate is a partial update. Nil fields are left untouched; the Clear
// flags reset optional fields to empty.
type TaskUpdate struct {
	Title         *string
	Description   *string
	Status        *Status
	DueDate       *time.Time
	ScheduledDate *time.Time
	AssignedTo    *string
	ProjectID     *string
	TimeEstimate  *int
	Priority      *int
	EnergyLevel   *string
	Context       *string
	IsMultiStep   *bool

	ClearDueDate       bool
	ClearScheduledDate bool
	ClearProject       bool
}

// Ptr returns a pointer to v. Handy for building TaskUpdate values.
func Ptr[T any](v T) *T {
	return &v
}

// Clone returns a deep copy so callers can mutate without aliasing the original.
func (t Task) Clone() Task {
	c := t
	c.Updated = cloneTime(t.Updated)
	c.DueDate = cloneTime(t.DueDate)
	c.ScheduledDate = cloneTime(t.ScheduledDate)
	c.CompletedDate = cloneTime(t.CompletedDate)
	c.DeletedAt = cloneTime(t.DeletedAt)
	if t.TimeEstimate != nil {
		c.TimeEstimate = Ptr(*t.TimeEstimate)
	}
	if t.Priority != nil {
		c.Priority = Ptr(*t.Priority)
	}
	return c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// SameDay reports whether a and b fall on the same calendar day in a's location.
func SameDay(a, b time.Time) bool {
	b = b.In(a.Location())
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// StartOfDay truncates t to local midnight.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// DateLayout is the calendar-day format accepted on input.
const DateLayout = "2006-01-02"

// ParseDate reads a YYYY-MM-DD day in local time, or a full RFC 3339 timestamp.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.ParseInLocation(DateLayout, s, time.Local); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, invalidf("invalid date %q (expected YYYY-MM-DD)", s)
	}
	return t, nil
}
