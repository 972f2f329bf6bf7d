package model

import (
	"strings"
	"time"
)

// TaskFilter narrows a task listing. Zero values match everything.
type TaskFilter struct {
	Statuses    []Status
	ProjectID   string
	Text        string // case-insensitive match on title or description
	Priority    *int
	AssignedTo  string // case-insensitive substring
	HasDeadline *bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// Match applies the filter to a single task. The SQL store narrows by
// status, project, priority and deadline and then calls Match for the rest.
func (f TaskFilter) Match(t Task) bool {
	if len(f.Statuses) > 0 {
		found := false
		for _, s := range f.Statuses {
			if t.Status == s {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.ProjectID != "" && t.ProjectID != f.ProjectID {
		return false
	}
	if f.Text != "" {
		q := strings.ToLower(f.Text)
		if !strings.Contains(strings.ToLower(t.Title), q) &&
			!strings.Contains(strings.ToLower(t.Description), q) {
			return false
		}
	}
	if f.Priority != nil && (t.Priority == nil || *t.Priority != *f.Priority) {
		return false
	}
	if f.AssignedTo != "" && !strings.Contains(strings.ToLower(t.AssignedTo), strings.ToLower(f.AssignedTo)) {
		return false
	}
	if f.HasDeadline != nil && (t.DueDate != nil) != *f.HasDeadline {
		return false
	}
	if f.CreatedFrom != nil && t.Created.Before(*f.CreatedFrom) {
		return false
	}
	if f.CreatedTo != nil && t.Created.After(*f.CreatedTo) {
		return false
	}
	return true
}

// ParseDateEnd is ParseDate for the upper bound of a range: a bare day
// means the last instant of that day.
func ParseDateEnd(s string) (time.Time, error) {
	t, err := ParseDate(s)
	if err != nil {
		return t, err
	}
	if _, dayErr := time.ParseInLocation(DateLayout, strings.TrimSpace(s), time.Local); dayErr == nil {
		t = t.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	return t, nil
}

// IsAdvanced reports whether the filter uses more than text, status and
// project narrowing.
func (f TaskFilter) IsAdvanced() bool {
	return f.Priority != nil || f.AssignedTo != "" || f.HasDeadline != nil ||
		f.CreatedFrom != nil || f.CreatedTo != nil
}
