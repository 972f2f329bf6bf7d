package triage

import (
	"context"
	"sync"

	"github.com/baiirun/focusflow/internal/model"
)

// Wizard holds at most one active session. Starting a new session replaces
// the pending one. It is safe for concurrent use.
type Wizard struct {
	mu      sync.Mutex
	tasks   Tasks
	session *Session
}

func NewWizard(tasks Tasks) *Wizard {
	return &Wizard{tasks: tasks}
}

// StartProcessing begins a session for an inbox task.
func (w *Wizard) StartProcessing(ctx context.Context, taskID string) (Session, error) {
	t, err := w.tasks.GetTask(ctx, taskID)
	if err != nil {
		return Session{}, err
	}
	if t.Status != model.StatusInbox {
		return Session{}, model.InvalidStatef("task %s is %s, only inbox tasks can be processed", t.ID, t.Status)
	}

	s := Begin(t.ID)
	w.mu.Lock()
	w.session = &s
	w.mu.Unlock()
	return s, nil
}

// CompleteStep answers the current step. step must match the session's step.
// The session advances or ends only if the step's mutation succeeded.
func (w *Wizard) CompleteStep(ctx context.Context, step Step, d Decision) (Outcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.session == nil {
		return Outcome{}, model.InvalidStatef("no processing session is active")
	}
	if step != w.session.Step {
		return Outcome{}, model.InvalidStatef("session is at step %d, not %d", int(w.session.Step), int(step))
	}

	out, err := Advance(ctx, w.tasks, *w.session, d)
	if err != nil {
		return Outcome{}, err
	}
	if out.Done {
		w.session = nil
	} else {
		w.session = &out.Next
	}
	return out, nil
}

// CancelProcessing discards the active session and reports whether there was
// one. Edits already saved in step 1 are kept.
func (w *Wizard) CancelProcessing() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	had := w.session != nil
	w.session = nil
	return had
}

// CurrentStep returns the active session's step, if any.
func (w *Wizard) CurrentStep() (Step, bool) {
	s, ok := w.Session()
	return s.Step, ok
}

// Session returns a copy of the active session, if any.
func (w *Wizard) Session() (Session, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.session == nil {
		return Session{}, false
	}
	return *w.session, true
}
