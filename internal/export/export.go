// Package export writes a YAML snapshot of an owner's tasks and projects.
package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/baiirun/focusflow/internal/model"
	"github.com/baiirun/focusflow/internal/quota"
)

// Source is the read side of the Repository.
type Source interface {
	Owner() string
	Now() time.Time
	SearchTasks(ctx context.Context, f model.TaskFilter) ([]model.Task, error)
	ListProjects(ctx context.Context) ([]model.Project, error)
}

// Snapshot is the exported document.
type Snapshot struct {
	Owner      string          `yaml:"owner"`
	Plan       string          `yaml:"plan"`
	ExportedAt time.Time       `yaml:"exported_at"`
	Tasks      []model.Task    `yaml:"tasks"`
	Projects   []model.Project `yaml:"projects"`
}

// Build collects every task (trash included) and project. Plans without
// data export are refused with quota.ErrPlanFeature.
func Build(ctx context.Context, src Source, plan quota.Plan) (*Snapshot, error) {
	if err := plan.CheckExport(); err != nil {
		return nil, err
	}

	tasks, err := src.SearchTasks(ctx, model.TaskFilter{})
	if err != nil {
		return nil, err
	}
	projects, err := src.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	if tasks == nil {
		tasks = []model.Task{}
	}
	if projects == nil {
		projects = []model.Project{}
	}

	return &Snapshot{
		Owner:      src.Owner(),
		Plan:       plan.Name,
		ExportedAt: src.Now(),
		Tasks:      tasks,
		Projects:   projects,
	}, nil
}

// Write encodes s as YAML.
func Write(w io.Writer, s *Snapshot) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode snapshot: %w", err)
	}
	return nil
}

// WriteFile writes s to path, replacing any existing file atomically.
func WriteFile(path string, s *Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}

	data, err := yaml.Marshal(s)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write export: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename export: %w", err)
	}
	return nil
}
