package repo

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/baiirun/focusflow/internal/db"
	"github.com/baiirun/focusflow/internal/model"
)

var errStoreDown = errors.New("mock storage error")

// testNow is the fixed clock for repository tests.
var testNow = time.Date(2026, 10, 17, 9, 30, 0, 0, time.Local)

func setupTestDB(t *testing.T) *db.DB {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.db")

	database, err := db.Open(path)
	if err != nil {
		t.Fatalf("failed to open db: %v", err)
	}
	if err := database.Init(); err != nil {
		t.Fatalf("failed to init db: %v", err)
	}

	t.Cleanup(func() { _ = database.Close() })
	return database
}

// fakeGate is an in-memory Capability Gate.
type fakeGate struct {
	mu            sync.Mutex
	denyTasks     bool
	denyProjects  bool
	taskCount     int
	projectCount  int
	incrementFail error
}

func (g *fakeGate) CanCreateTask(context.Context) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.denyTasks, nil
}

func (g *fakeGate) CanCreateProject(context.Context) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return !g.denyProjects, nil
}

func (g *fakeGate) IncrementTaskUsage(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.incrementFail != nil {
		return g.incrementFail
	}
	g.taskCount++
	return nil
}

func (g *fakeGate) IncrementProjectUsage(context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.incrementFail != nil {
		return g.incrementFail
	}
	g.projectCount++
	return nil
}

// flakyStore wraps a real store and fails the named operations.
type flakyStore struct {
	Store
	fail map[string]error
}

func (s *flakyStore) err(op string) error {
	if s.fail == nil {
		return nil
	}
	return s.fail[op]
}

func (s *flakyStore) CreateTask(ctx context.Context, t *model.Task) error {
	if err := s.err("CreateTask"); err != nil {
		return err
	}
	return s.Store.CreateTask(ctx, t)
}

func (s *flakyStore) SaveTask(ctx context.Context, t *model.Task) error {
	if err := s.err("SaveTask"); err != nil {
		return err
	}
	return s.Store.SaveTask(ctx, t)
}

func (s *flakyStore) SaveTasks(ctx context.Context, tasks []model.Task) error {
	if err := s.err("SaveTasks"); err != nil {
		return err
	}
	return s.Store.SaveTasks(ctx, tasks)
}

func (s *flakyStore) DeleteTasks(ctx context.Context, owner string, ids []string) error {
	if err := s.err("DeleteTasks"); err != nil {
		return err
	}
	return s.Store.DeleteTasks(ctx, owner, ids)
}

func (s *flakyStore) CreateProject(ctx context.Context, p *model.Project) error {
	if err := s.err("CreateProject"); err != nil {
		return err
	}
	return s.Store.CreateProject(ctx, p)
}

func (s *flakyStore) DeleteProject(ctx context.Context, owner, id string) error {
	if err := s.err("DeleteProject"); err != nil {
		return err
	}
	return s.Store.DeleteProject(ctx, owner, id)
}

func (s *flakyStore) FinishProject(ctx context.Context, owner, id string, carrier *model.Task) error {
	if err := s.err("FinishProject"); err != nil {
		return err
	}
	return s.Store.FinishProject(ctx, owner, id, carrier)
}

type fixture struct {
	repo  *Repository
	db    *db.DB
	store *flakyStore
	gate  *fakeGate
	now   time.Time
}

func setup(t *testing.T) *fixture {
	t.Helper()
	database := setupTestDB(t)
	f := &fixture{
		db:    database,
		store: &flakyStore{Store: database, fail: map[string]error{}},
		gate:  &fakeGate{},
		now:   testNow,
	}
	f.repo = New(f.store, f.gate, "alice", WithClock(func() time.Time { return f.now }))
	return f
}

func (f *fixture) addTask(t *testing.T, title string, status model.Status) *model.Task {
	t.Helper()
	task, err := f.repo.AddTask(context.Background(), model.Task{Title: title, Status: status})
	if err != nil {
		t.Fatalf("failed to add task %q: %v", title, err)
	}
	return task
}

func (f *fixture) mustGet(t *testing.T, id string) *model.Task {
	t.Helper()
	task, err := f.repo.GetTask(context.Background(), id)
	if err != nil {
		t.Fatalf("failed to get task %s: %v", id, err)
	}
	return task
}
