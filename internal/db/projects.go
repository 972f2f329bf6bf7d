package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/baiirun/focusflow/internal/model"
)

const projectColumns = `id, owner, title, description, progress, created_at, updated_at, completed_at, archived_at`

func scanProject(row rowScanner) (model.Project, error) {
	var p model.Project
	var updated, completed, archived sql.NullTime
	err := row.Scan(&p.ID, &p.Owner, &p.Title, &p.Description, &p.Progress, &p.Created,
		&updated, &completed, &archived)
	if err != nil {
		return p, err
	}
	p.Updated = timePtr(updated)
	p.CompletedDate = timePtr(completed)
	p.ArchivedAt = timePtr(archived)
	return p, nil
}

// CreateProject inserts a new project. Membership lives on tasks.project_id,
// so p.Tasks is not stored.
func (db *DB) CreateProject(ctx context.Context, p *model.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}

	_, err := db.ExecContext(ctx, `
		INSERT INTO projects (`+projectColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Owner, p.Title, p.Description, p.Progress, p.Created, nullTime(p.Updated),
		nullTime(p.CompletedDate), nullTime(p.ArchivedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create project: %w", err)
	}
	return nil
}

// GetProject retrieves an owner's project by ID.
func (db *DB) GetProject(ctx context.Context, owner, id string) (*model.Project, error) {
	row := db.QueryRowContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects WHERE owner = ? AND id = ?`, owner, id)

	p, err := scanProject(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, model.ProjectNotFound(id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &p, nil
}

// SaveProject overwrites the mutable columns of an existing project.
func (db *DB) SaveProject(ctx context.Context, p *model.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}

	result, err := db.ExecContext(ctx, `
		UPDATE projects SET
			title = ?, description = ?, progress = ?, updated_at = ?, completed_at = ?, archived_at = ?
		WHERE owner = ? AND id = ?`,
		p.Title, p.Description, p.Progress, nullTime(p.Updated), nullTime(p.CompletedDate), nullTime(p.ArchivedAt),
		p.Owner, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return model.ProjectNotFound(p.ID)
	}
	return nil
}

// DeleteProject removes a project record. Member tasks are not touched.
func (db *DB) DeleteProject(ctx context.Context, owner, id string) error {
	result, err := db.ExecContext(ctx, `DELETE FROM projects WHERE owner = ? AND id = ?`, owner, id)
	if err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		return model.ProjectNotFound(id)
	}
	return nil
}

// FinishProject writes the task that replaces a project and deletes the
// project record in one transaction. The carrier is updated if it exists and
// inserted otherwise.
func (db *DB) FinishProject(ctx context.Context, owner, id string, carrier *model.Task) error {
	if err := carrier.Validate(); err != nil {
		return err
	}
	return db.withTx(ctx, func(tx *sql.Tx) error {
		err := saveTask(ctx, tx, carrier)
		if errors.Is(err, model.ErrNotFound) {
			err = insertTask(ctx, tx, carrier)
		}
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM projects WHERE owner = ? AND id = ?`, owner, id)
		if err != nil {
			return fmt.Errorf("failed to delete project: %w", err)
		}
		rows, _ := result.RowsAffected()
		if rows == 0 {
			return model.ProjectNotFound(id)
		}
		return nil
	})
}

// ListProjects returns an owner's projects, oldest first.
func (db *DB) ListProjects(ctx context.Context, owner string) ([]model.Project, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT `+projectColumns+`
		FROM projects WHERE owner = ?
		ORDER BY created_at ASC, id ASC`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}
