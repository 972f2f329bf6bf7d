package model

import (
	"math"
	"strings"
	"time"
)

type Project struct {
	ID            string     `json:"id" yaml:"id"`
	Owner         string     `json:"owner" yaml:"owner"`
	Title         string     `json:"title" yaml:"title"`
	Description   string     `json:"description,omitempty" yaml:"description,omitempty"`
	Tasks         []string   `json:"tasks" yaml:"tasks"`
	Created       time.Time  `json:"created" yaml:"created"`
	Updated       *time.Time `json:"updated,omitempty" yaml:"updated,omitempty"`
	CompletedDate *time.Time `json:"completedDate,omitempty" yaml:"completed_date,omitempty"`
	ArchivedAt    *time.Time `json:"archivedAt,omitempty" yaml:"archived_at,omitempty"`
	Progress      int        `json:"progress" yaml:"progress"`
}

func (p *Project) Validate() error {
	if strings.TrimSpace(p.Title) == "" {
		return invalidf("project title must not be empty")
	}
	return nil
}

// ApplyMembers derives Tasks and Progress from the tasks that point at p.
// Placeholder tasks (status project) count as members but not toward progress.
func (p *Project) ApplyMembers(members []Task) {
	p.Tasks = make([]string, 0, len(members))
	var total, done int
	for _, t := range members {
		if t.ProjectID != p.ID {
			continue
		}
		p.Tasks = append(p.Tasks, t.ID)
		if t.Status == StatusProject {
			continue
		}
		total++
		if t.Status == StatusCompleted {
			done++
		}
	}
	p.Progress = Progress(done, total)
}

// Progress returns round(done/total*100), or 0 for an empty project.
func Progress(done, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

type ProjectUpdate struct {
	Title       *string
	Description *string
}

// Resource names what a capacity check guards.
type Resource string

const (
	ResourceTask    Resource = "task"
	ResourceProject Resource = "project"
)

// Usage is one owner's creation count for one calendar month.
type Usage struct {
	Owner    string `json:"owner"`
	Month    string `json:"month"` // YYYY-MM
	Tasks    int    `json:"tasks"`
	Projects int    `json:"projects"`
}

// MonthKey formats t as the YYYY-MM key usage counters are stored under.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

// Summary is the dashboard view: how many tasks sit in each bucket, the
// number of open projects, and the most recently completed tasks.
type Summary struct {
	Counts     map[Status]int `json:"counts" yaml:"counts"`
	Projects   int            `json:"projects" yaml:"projects"`
	RecentDone []Task         `json:"recentDone" yaml:"recent_done"`
}
