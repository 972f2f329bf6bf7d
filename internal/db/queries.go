package db

import (
	"context"
	"fmt"

	"github.com/baiirun/focusflow/internal/model"
)

// CountTasksByStatus returns how many of an owner's tasks sit in each status.
// Statuses with no tasks are absent from the map.
func (db *DB) CountTasksByStatus(ctx context.Context, owner string) (map[model.Status]int, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT status, COUNT(*) FROM tasks
		WHERE owner = ?
		GROUP BY status`, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to count statuses: %w", err)
	}
	defer func() { _ = rows.Close() }()

	counts := make(map[model.Status]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("failed to scan status count: %w", err)
		}
		counts[model.Status(status)] = count
	}
	return counts, rows.Err()
}

// RecentlyCompleted returns an owner's last n completed tasks, newest first.
func (db *DB) RecentlyCompleted(ctx context.Context, owner string, n int) ([]model.Task, error) {
	return db.queryTasks(ctx, `
		SELECT `+taskColumns+`
		FROM tasks WHERE owner = ? AND status = 'completed'
		ORDER BY completed_at DESC, id ASC
		LIMIT ?`, owner, n)
}
