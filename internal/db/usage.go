package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/baiirun/focusflow/internal/model"
)

// GetUsage returns the creation counters for an owner and month.
// A month with no row yet reports zero usage.
func (db *DB) GetUsage(ctx context.Context, owner, month string) (model.Usage, error) {
	u := model.Usage{Owner: owner, Month: month}
	err := db.QueryRowContext(ctx, `
		SELECT tasks_created, projects_created FROM usage_limits
		WHERE owner = ? AND month = ?`, owner, month).Scan(&u.Tasks, &u.Projects)
	if errors.Is(err, sql.ErrNoRows) {
		return u, nil
	}
	if err != nil {
		return u, fmt.Errorf("failed to get usage: %w", err)
	}
	return u, nil
}

// IncrementUsage adds one to the counter for the given resource, creating the
// month's row on first use.
func (db *DB) IncrementUsage(ctx context.Context, owner, month string, r model.Resource) error {
	var tasks, projects int
	switch r {
	case model.ResourceTask:
		tasks = 1
	case model.ResourceProject:
		projects = 1
	default:
		return fmt.Errorf("%w: unknown resource: %s", model.ErrInvalid, r)
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO usage_limits (owner, month, tasks_created, projects_created, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (owner, month) DO UPDATE SET
			tasks_created = tasks_created + excluded.tasks_created,
			projects_created = projects_created + excluded.projects_created,
			updated_at = excluded.updated_at`,
		owner, month, tasks, projects, time.Now())
	if err != nil {
		return fmt.Errorf("failed to increment usage: %w", err)
	}
	return nil
}
