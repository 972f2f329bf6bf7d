// Package repo is the Task/Project Repository. Every status change, whether it
// comes from the triage wizard, a list view, or the background promoter, goes
// through the mutation primitives here so the timestamp and capacity rules hold
// on every path.
package repo

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/baiirun/focusflow/internal/model"
)

// Store is the Entity Store. Implementations provide per-record atomicity;
// SaveTasks, DeleteTasks and FinishProject must apply all of their writes or
// none.
type Store interface {
	CreateTask(ctx context.Context, t *model.Task) error
	GetTask(ctx context.Context, owner, id string) (*model.Task, error)
	SaveTask(ctx context.Context, t *model.Task) error
	SaveTasks(ctx context.Context, tasks []model.Task) error
	DeleteTasks(ctx context.Context, owner string, ids []string) error
	ListTasks(ctx context.Context, owner string, f model.TaskFilter) ([]model.Task, error)
	CountTasksByStatus(ctx context.Context, owner string) (map[model.Status]int, error)
	RecentlyCompleted(ctx context.Context, owner string, n int) ([]model.Task, error)

	CreateProject(ctx context.Context, p *model.Project) error
	GetProject(ctx context.Context, owner, id string) (*model.Project, error)
	SaveProject(ctx context.Context, p *model.Project) error
	DeleteProject(ctx context.Context, owner, id string) error
	FinishProject(ctx context.Context, owner, id string, carrier *model.Task) error
	ListProjects(ctx context.Context, owner string) ([]model.Project, error)
}

// Gate is the Capability Gate. The repository asks before every create and
// reports each successful create exactly once.
type Gate interface {
	CanCreateTask(ctx context.Context) (bool, error)
	CanCreateProject(ctx context.Context) (bool, error)
	IncrementTaskUsage(ctx context.Context) error
	IncrementProjectUsage(ctx context.Context) error
}

// Repository executes CRUD and status mutations for one owner.
type Repository struct {
	store Store
	gate  Gate
	owner string
	now   func() time.Time
}

// Option configures a Repository.
type Option func(*Repository)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Repository) { r.now = now }
}

func New(store Store, gate Gate, owner string, opts ...Option) *Repository {
	r := &Repository{
		store: store,
		gate:  gate,
		owner: owner,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Owner returns the owner every operation is scoped to.
func (r *Repository) Owner() string { return r.owner }

// Now returns the repository's current time.
func (r *Repository) Now() time.Time { return r.now() }

// storeErr classifies an Entity Store failure. Not-found and validation errors
// pass through; anything else becomes a PersistenceError.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, model.ErrNotFound) || errors.Is(err, model.ErrInvalid) {
		return err
	}
	return &model.PersistenceError{Op: op, Err: err}
}

// setStatus moves t to status and keeps the timestamp invariants:
// completedDate is stamped on entering completed, kept on entering deleted,
// and cleared otherwise; deletedAt mirrors the deleted status.
func setStatus(t *model.Task, status model.Status, now time.Time) {
	if status == model.StatusCompleted && t.Status != model.StatusCompleted {
		t.CompletedDate = &now
	}
	if status == model.StatusDeleted && t.Status != model.StatusDeleted {
		t.DeletedAt = &now
	}
	t.Status = status
	normalize(t, now)
}

func normalize(t *model.Task, now time.Time) {
	switch t.Status {
	case model.StatusCompleted:
		if t.CompletedDate == nil {
			t.CompletedDate = &now
		}
	case model.StatusDeleted:
	default:
		t.CompletedDate = nil
	}
	if t.Status == model.StatusDeleted {
		if t.DeletedAt == nil {
			t.DeletedAt = &now
		}
	} else {
		t.DeletedAt = nil
	}
}

// mutate loads a task, applies fn to a copy, stamps updated and persists it.
// The returned task reflects confirmed persisted state.
func (r *Repository) mutate(ctx context.Context, id string, fn func(t *model.Task, now time.Time) error) (*model.Task, error) {
	current, err := r.store.GetTask(ctx, r.owner, id)
	if err != nil {
		return nil, storeErr("load task", err)
	}

	now := r.now()
	t := current.Clone()
	if err := fn(&t, now); err != nil {
		return nil, err
	}
	t.Updated = &now

	if err := r.store.SaveTask(ctx, &t); err != nil {
		return nil, storeErr("save task", err)
	}
	return &t, nil
}

func (r *Repository) countUsage(ctx context.Context, res model.Resource) {
	var err error
	switch res {
	case model.ResourceTask:
		err = r.gate.IncrementTaskUsage(ctx)
	case model.ResourceProject:
		err = r.gate.IncrementProjectUsage(ctx)
	}
	if err != nil {
		log.Printf("repo: failed to record %s usage for %s: %v", res, r.owner, err)
	}
}

func (r *Repository) checkCapacity(ctx context.Context, res model.Resource) error {
	var ok bool
	var err error
	switch res {
	case model.ResourceTask:
		ok, err = r.gate.CanCreateTask(ctx)
	case model.ResourceProject:
		ok, err = r.gate.CanCreateProject(ctx)
	}
	if err != nil {
		return storeErr("check usage", err)
	}
	if !ok {
		return &model.CapacityError{Resource: res}
	}
	return nil
}
