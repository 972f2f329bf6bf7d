package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/baiirun/focusflow/internal/model"
)

const taskColumns = `id, owner, title, description, status, created_at, updated_at, due_date,
	scheduled_date, completed_at, deleted_at, assigned_to, project_id, time_estimate, priority,
	energy_level, context, is_multi_step`

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (model.Task, error) {
	var t model.Task
	var updated, due, scheduled, completed, deleted sql.NullTime
	var projectID sql.NullString
	var estimate, priority sql.NullInt64
	err := row.Scan(
		&t.ID, &t.Owner, &t.Title, &t.Description, &t.Status, &t.Created, &updated, &due,
		&scheduled, &completed, &deleted, &t.AssignedTo, &projectID, &estimate, &priority,
		&t.EnergyLevel, &t.Context, &t.IsMultiStep,
	)
	if err != nil {
		return t, err
	}

	t.Updated = timePtr(updated)
	t.DueDate = timePtr(due)
	t.ScheduledDate = timePtr(scheduled)
	t.CompletedDate = timePtr(completed)
	t.DeletedAt = timePtr(deleted)
	if projectID.Valid {
		t.ProjectID = projectID.String
	}
	if estimate.Valid {
		t.TimeEstimate = model.Ptr(int(estimate.Int64))
	}
	if priority.Valid {
		t.Priority = model.Ptr(int(priority.Int64))
	}
	return t, nil
}

func timePtr(nt sql.NullTime) *time.Time {
	if !nt.Valid {
		return nil
	}
	v := nt.Time
	return &v
}

// CreateTask inserts a new task.
func (db *DB) CreateTask(ctx context.Context, t *model.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}

	return insertTask(ctx, db, t)
}

func insertTask(ctx context.Context, ex execer, t *model.Task) error {
	_, err := ex.ExecContext(ctx, `
		INSERT INTO tasks (`+taskColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.Owner, t.Title, t.Description, t.Status, t.Created, nullTime(t.Updated), nullTime(t.DueDate),
		nullTime(t.ScheduledDate), nullTime(t.CompletedDate), nullTime(t.DeletedAt), t.AssignedTo, nullString(t.ProjectID),
		nullInt(t.TimeEstimate), nullInt(t.Priority), t.EnergyLevel, t.Context, t.IsMultiStep,
	)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}
	return nil
}

// GetTask retrieves an owner's task by ID.
func (db *DB) GetTask(ctx context.Context, owner, id string) (*model.Task, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+taskColumns+`
		FROM tasks WHERE owner = ? AND id = ?`, owner, id)

	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.TaskNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return &t, nil
}

// SaveTask overwrites every mutable column of an existing task.
func (db *DB) SaveTask(ctx context.Context, t *model.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return saveTask(ctx, db, t)
}

// SaveTasks overwrites several tasks in one transaction. If any task is
// missing or fails to save, none are changed.
func (db *DB) SaveTasks(ctx context.Context, tasks []model.Task) error {
	for i := range tasks {
		if err := tasks[i].Validate(); err != nil {
			return err
		}
	}
	return db.withTx(ctx, func(tx *sql.Tx) error {
		for i := range tasks {
			if err := saveTask(ctx, tx, &tasks[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func saveTask(ctx context.Context, ex execer, t *model.Task) error {
	result, err := ex.ExecContext(ctx, `
		UPDATE tasks SET
			title = ?, description = ?, status = ?, updated_at = ?, due_date = ?,
			scheduled_date = ?, completed_at = ?, deleted_at = ?, assigned_to = ?, project_id = ?,
			time_estimate = ?, priority = ?, energy_level = ?, context = ?, is_multi_step = ?
		WHERE owner = ? AND id = ?`,
		t.Title, t.Description, t.Status, nullTime(t.Updated), nullTime(t.DueDate),
		nullTime(t.ScheduledDate), nullTime(t.CompletedDate), nullTime(t.DeletedAt), t.AssignedTo, nullString(t.ProjectID),
		nullInt(t.TimeEstimate), nullInt(t.Priority), t.EnergyLevel, t.Context, t.IsMultiStep,
		t.Owner, t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to save task: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return model.TaskNotFound(t.ID)
	}
	return nil
}

// DeleteTasks removes tasks permanently in one transaction. If any ID is
// missing, nothing is removed.
func (db *DB) DeleteTasks(ctx context.Context, owner string, ids []string) error {
	return db.withTx(ctx, func(tx *sql.Tx) error {
		for _, id := range ids {
			result, err := tx.ExecContext(ctx, `DELETE FROM tasks WHERE owner = ? AND id = ?`, owner, id)
			if err != nil {
				return fmt.Errorf("failed to delete task: %w", err)
			}
			rows, _ := result.RowsAffected()
			if rows == 0 {
				return model.TaskNotFound(id)
			}
		}
		return nil
	})
}

// ListTasks returns an owner's tasks matching the filter, oldest first.
func (db *DB) ListTasks(ctx context.Context, owner string, f model.TaskFilter) ([]model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE owner = ?`
	args := []any{owner}

	if len(f.Statuses) > 0 {
		marks := make([]string, len(f.Statuses))
		for i, s := range f.Statuses {
			if !s.IsValid() {
				return nil, fmt.Errorf("%w: invalid status: %s", model.ErrInvalid, s)
			}
			marks[i] = "?"
			args = append(args, s)
		}
		query += ` AND status IN (` + strings.Join(marks, ", ") + `)`
	}
	if f.ProjectID != "" {
		query += ` AND project_id = ?`
		args = append(args, f.ProjectID)
	}
	if f.Priority != nil {
		query += ` AND priority = ?`
		args = append(args, *f.Priority)
	}
	if f.HasDeadline != nil {
		if *f.HasDeadline {
			query += ` AND due_date IS NOT NULL`
		} else {
			query += ` AND due_date IS NULL`
		}
	}
	query += ` ORDER BY created_at ASC, id ASC`

	tasks, err := db.queryTasks(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	// Substring and date rules run in Go through Match. SQLite's lower() only
	// folds ASCII, LIKE treats % and _ as wildcards, and stored timestamps
	// carry zone offsets that do not sort lexically.
	rest := model.TaskFilter{
		Text:        f.Text,
		AssignedTo:  f.AssignedTo,
		CreatedFrom: f.CreatedFrom,
		CreatedTo:   f.CreatedTo,
	}
	if rest.Text == "" && rest.AssignedTo == "" && rest.CreatedFrom == nil && rest.CreatedTo == nil {
		return tasks, nil
	}
	out := tasks[:0]
	for _, t := range tasks {
		if rest.Match(t) {
			out = append(out, t)
		}
	}
	return out, nil
}

// queryTasks is a helper to scan task rows.
func (db *DB) queryTasks(ctx context.Context, query string, args ...any) ([]model.Task, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}
